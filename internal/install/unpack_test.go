package install

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no execute bits on windows")
	}
	path := filepath.Join(t.TempDir(), "pandoc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o640))
	require.NoError(t, os.Chmod(path, 0o640))

	require.NoError(t, MakeExecutable(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := copyFile(filepath.Join(dir, "pandoc-citeproc"), filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "pandoc-citeproc not found in installer")
}

func TestInstallExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no execute bits on windows")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("bin"), 0o644))

	dst := filepath.Join(dir, "pandoc")
	require.NoError(t, installExecutable(slog.New(slog.DiscardHandler), src, dst, true))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm()&0o755)
}

func TestRunCommandReportsOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	err := runCommand(context.Background(), t.TempDir(), "sh", "-c", "echo broken archive >&2; exit 1")
	assert.ErrorContains(t, err, "broken archive")
}

func TestLinuxUnpackWithoutDataTar(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs ar")
	}
	if _, err := os.Stat("/usr/bin/ar"); err != nil {
		t.Skip("ar not installed")
	}
	archive := filepath.Join(t.TempDir(), "bogus.deb")
	require.NoError(t, os.WriteFile(archive, []byte("not an ar archive"), 0o644))

	err := Linux{}.Unpack(context.Background(), slog.New(slog.DiscardHandler), archive, t.TempDir())
	assert.Error(t, err)
}
