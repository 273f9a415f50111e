package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/olivoil/wherehouse/internal/proc"
)

// runner invokes one binary through proc.Run.
type runner struct {
	bin string
	env []string
}

func (r runner) run(ctx context.Context, lines LineFunc, args ...string) (proc.Output, error) {
	return r.runBin(ctx, lines, r.bin, args...)
}

func (r runner) runBin(ctx context.Context, lines LineFunc, bin string, args ...string) (proc.Output, error) {
	cmd := exec.Command(bin, args...)
	cmd.Env = append(os.Environ(), r.env...)

	var opts []proc.Option
	if lines != nil {
		opts = append(opts, proc.WithLineFunc(func(_ proc.Stream, line string) { lines(line) }))
	}
	out, err := proc.Run(ctx, cmd, opts...)
	if err != nil {
		if errors.Is(err, proc.ErrCancelled) {
			return out, err
		}
		return out, fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return out, nil
}

func exitCode(err error) (int, bool) {
	var ee *proc.ExitError
	if errors.As(err, &ee) {
		return ee.Code, true
	}
	return 0, false
}

// splitLines splits command output into non-empty trimmed lines.
func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
