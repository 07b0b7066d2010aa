package atomicfile

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeString(s string) WriteFunc {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func noTemps(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "临时文件未清理: %s", e.Name())
	}
}

func TestWriteReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "book.xlsx")
	require.NoError(t, Write(context.Background(), dest, 0o644, writeString("v1")))
	require.NoError(t, Write(context.Background(), dest, 0, writeString("v2")))
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(b))
	noTemps(t, dir)
}

func TestWriteFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "book.xlsx")
	require.NoError(t, os.WriteFile(dest, []byte("orig"), 0o644))
	boom := errors.New("boom")
	err := Write(context.Background(), dest, 0, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	b, _ := os.ReadFile(dest)
	assert.Equal(t, "orig", string(b))
	noTemps(t, dir)
}

func TestWriteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Write(ctx, filepath.Join(t.TempDir(), "x"), 0, writeString("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteMissingDir(t *testing.T) {
	err := Write(context.Background(), filepath.Join(t.TempDir(), "nope", "x"), 0, writeString("x"))
	assert.Error(t, err)
}
