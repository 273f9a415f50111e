// Package config loads wherehouse's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/olivoil/wherehouse/internal/backend"
)

// AppName names the config and state directories.
const AppName = "wherehouse"

// BackendAuto asks for PATH detection.
const BackendAuto = "auto"

type Config struct {
	General General `toml:"general"`
	UI      UI      `toml:"ui"`
}

type General struct {
	Backend  string `toml:"backend"`
	Bin      string `toml:"bin"`
	Locality string `toml:"locality"`
	LogFile  string `toml:"log_file"`
	Verbose  bool   `toml:"verbose"`
	Watch    bool   `toml:"watch"`
}

type UI struct {
	Theme   string `toml:"theme"`
	Confirm bool   `toml:"confirm"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		General: General{
			Backend:  BackendAuto,
			Locality: "remote",
			Watch:    true,
		},
		UI: UI{Confirm: true},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	if p := os.Getenv("WHEREHOUSE_CONFIG"); p != "" {
		return p
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName, "config.toml")
}

// DefaultLogPath returns the log file used when general.log_file is unset.
func DefaultLogPath() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, _ := os.UserHomeDir()
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, AppName, AppName+".log")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that the TOML types cannot.
func (c Config) Validate() error {
	if c.General.Backend != BackendAuto {
		if _, err := backend.ParseBackend(c.General.Backend); err != nil {
			return fmt.Errorf("general.backend: %w", err)
		}
	}
	if _, err := backend.ParseLocality(c.General.Locality); err != nil {
		return fmt.Errorf("general.locality: %w", err)
	}
	return nil
}

// Backend resolves general.backend, detecting from PATH for "auto".
func (c Config) Backend() (backend.Backend, error) {
	if c.General.Backend == "" || c.General.Backend == BackendAuto {
		return backend.Detect()
	}
	return backend.ParseBackend(c.General.Backend)
}

// Locality returns the starting locality. Validate has already rejected bad values.
func (c Config) Locality() backend.Locality {
	l, _ := backend.ParseLocality(c.General.Locality)
	return l
}

// LogPath returns the resolved log file path.
func (c Config) LogPath() string {
	if c.General.LogFile != "" {
		return ExpandHome(c.General.LogFile)
	}
	return DefaultLogPath()
}

// BackendOptions returns the options passed to backend.New.
func (c Config) BackendOptions() backend.Options {
	return backend.Options{Bin: ExpandHome(c.General.Bin)}
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
