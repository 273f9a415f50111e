package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olivoil/wherehouse/internal/log"
)

func TestContextAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := log.New(&buf, false)

	ctx := log.ContextAttrs(t.Context(), slog.String("kind", "FilterPackages"))
	child := log.ContextAttrs(ctx, slog.Int("generation", 3))

	logger.InfoContext(child, "worker done")
	logger.DebugContext(child, "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "worker done", rec["msg"])
	require.Equal(t, "FilterPackages", rec["kind"])
	require.EqualValues(t, 3, rec["generation"])

	// The parent context must not see the child's attrs.
	buf.Reset()
	logger.With("pkg", "wget").InfoContext(ctx, "parent")
	rec = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.NotContains(t, rec, "generation")
	require.Equal(t, "wget", rec["pkg"])
	require.Equal(t, "FilterPackages", rec["kind"])
}

func TestVerbose(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log.New(&buf, true).Debug("visible")
	require.Contains(t, buf.String(), `"visible"`)
}

func TestOpenFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "wherehouse.log")
	f, err := log.OpenFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("x")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.FileExists(t, path)
}
