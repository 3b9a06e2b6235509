package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Unpack extracts pandoc from a .deb: `ar x` then `tar xf data.tar.*`.
func (Linux) Unpack(ctx context.Context, log *slog.Logger, archive, targetDir string) error {
	log.Info("unpacking installer", "archive", archive)

	archive, err := filepath.Abs(archive)
	if err != nil {
		return err
	}
	tmp, err := os.MkdirTemp("", "pandoc-deb-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := runCommand(ctx, tmp, "ar", "x", archive); err != nil {
		return err
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		return err
	}
	var data string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "data.tar") {
			data = e.Name()
			break
		}
	}
	if data == "" {
		return fmt.Errorf("no data.tar in %s", archive)
	}
	if err := runCommand(ctx, tmp, "tar", "xf", data); err != nil {
		return err
	}

	bin := filepath.Join(tmp, "usr", "bin")
	if err := installExecutable(log, filepath.Join(bin, "pandoc"), filepath.Join(targetDir, "pandoc"), true); err != nil {
		return err
	}
	if err := installExecutable(log, filepath.Join(bin, "pandoc-citeproc"), filepath.Join(targetDir, "pandoc-citeproc"), true); err != nil {
		log.Warn("didn't copy pandoc-citeproc", "error", err)
	}
	return copyFile(filepath.Join(tmp, "usr", "share", "doc", "pandoc", "copyright"),
		filepath.Join(targetDir, "copyright.pandoc"))
}

// Unpack extracts pandoc from a .pkg with pkgutil and the payload tarball.
func (Darwin) Unpack(ctx context.Context, log *slog.Logger, archive, targetDir string) error {
	log.Info("unpacking installer", "archive", archive)

	tmp, err := os.MkdirTemp("", "pandoc-pkg-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	expanded := filepath.Join(tmp, "tmp")
	if err := runCommand(ctx, "", "pkgutil", "--expand", archive, expanded); err != nil {
		return err
	}
	payload := filepath.Join(expanded, "pandoc.pkg", "Payload")
	if err := runCommand(ctx, "", "tar", "xvf", payload, "-C", expanded); err != nil {
		return err
	}

	bin := filepath.Join(expanded, "usr", "local", "bin")
	if err := installExecutable(log, filepath.Join(bin, "pandoc"), filepath.Join(targetDir, "pandoc"), true); err != nil {
		return err
	}
	if err := installExecutable(log, filepath.Join(bin, "pandoc-citeproc"), filepath.Join(targetDir, "pandoc-citeproc"), true); err != nil {
		log.Warn("didn't copy pandoc-citeproc", "error", err)
	}
	log.Info("done")
	return nil
}

// Unpack runs an administrative msiexec install into a temp folder and copies
// pandoc.exe out of it.
func (Windows) Unpack(ctx context.Context, log *slog.Logger, archive, targetDir string) error {
	log.Info("unpacking installer", "archive", archive)

	tmp, err := os.MkdirTemp("", "pandoc-msi-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := runCommand(ctx, "", "msiexec", "/a", archive, "/qb", "TARGETDIR="+tmp); err != nil {
		return err
	}

	src := filepath.Join(tmp, "Pandoc")
	if err := installExecutable(log, filepath.Join(src, "pandoc.exe"), filepath.Join(targetDir, "pandoc.exe"), false); err != nil {
		return err
	}
	if err := installExecutable(log, filepath.Join(src, "pandoc-citeproc.exe"), filepath.Join(targetDir, "pandoc-citeproc.exe"), false); err != nil {
		log.Warn("didn't copy pandoc-citeproc.exe", "error", err)
	}
	if err := copyFile(filepath.Join(src, "COPYRIGHT.txt"), filepath.Join(targetDir, "COPYRIGHT.txt")); err != nil {
		return err
	}
	log.Info("done")
	return nil
}

func runCommand(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func installExecutable(log *slog.Logger, src, dst string, chmod bool) error {
	log.Info("copying", "file", filepath.Base(src), "target", filepath.Dir(dst))
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if chmod {
		return MakeExecutable(dst)
	}
	return nil
}

// MakeExecutable copies the read bits of path's mode to the execute bits.
func MakeExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	mode |= (mode & 0o444) >> 2
	return os.Chmod(path, mode)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s not found in installer", filepath.Base(src))
		}
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
