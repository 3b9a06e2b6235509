package pandoc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/nicholasgasior/pandoc-go/internal/install"
)

const testEnvVar = "GOPANDOC_TEST_PANDOC"

// fakeScript describes a shell script standing in for pandoc. Each field is
// the body of one branch; the invocation is appended to a log file first.
type fakeScript struct {
	version string
	list    string
	help    string
	convert string
}

func (s fakeScript) withDefaults() fakeScript {
	if s.version == "" {
		s.version = `echo "pandoc 3.1.2"; echo "Features: +server +lua"; exit 0`
	}
	if s.list == "" {
		s.list = `if [ "$1" = "--list-input-formats" ]; then
  printf 'markdown\nhtml\nrst\nlatex\ndocbook\ncommonmark\n'
else
  printf 'markdown\nhtml\nrst\nlatex\ndocx\nodt\nepub\nplain\n'
fi
exit 0`
	}
	if s.help == "" {
		s.help = `exit 2`
	}
	if s.convert == "" {
		s.convert = `cat`
	}
	return s
}

// writeFakePandoc writes the script into dir and returns its path and the
// path of its invocation log.
func writeFakePandoc(t *testing.T, s fakeScript) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake pandoc needs a POSIX shell")
	}
	s = s.withDefaults()
	dir := t.TempDir()
	logFile := filepath.Join(dir, "calls.log")
	script := fmt.Sprintf(`#!/bin/sh
echo "$*" >> %q
case "$1" in
--version)
%s
;;
--list-input-formats|--list-output-formats)
%s
;;
-h)
%s
;;
esac
%s
`, logFile, s.version, s.list, s.help, s.convert)

	path := filepath.Join(dir, "pandoc")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path, logFile
}

// countCalls returns how many logged invocations start with arg.
func countCalls(t *testing.T, logFile, arg string) int {
	t.Helper()
	data, err := os.ReadFile(logFile)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if line == arg || strings.HasPrefix(line, arg+" ") {
			n++
		}
	}
	return n
}

// syncBuffer is a log sink safe for the concurrent writes of a test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestClient returns a client pinned to path through the override
// variable, logging into the returned buffer.
func newTestClient(t *testing.T, path string, opts ...Option) (*Pandoc, *syncBuffer) {
	t.Helper()
	t.Setenv(testEnvVar, path)
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug - 4}))
	opts = append([]Option{WithLogger(logger), WithEnvVar(testEnvVar), WithBundledDir("")}, opts...)
	return New(opts...), logs
}

// fakePlatform returns fixed candidates.
type fakePlatform struct {
	paths []string
}

func (f fakePlatform) Name() string                        { return "fake" }
func (f fakePlatform) DefaultTargetDir() string            { return "" }
func (f fakePlatform) AssetExtension() string              { return "" }
func (f fakePlatform) CandidatePaths(install.Env) []string { return f.paths }

func (f fakePlatform) Unpack(context.Context, *slog.Logger, string, string) error {
	return nil
}

// newSearchClient returns a client that searches only paths.
func newSearchClient(t *testing.T, paths ...string) (*Pandoc, *syncBuffer) {
	t.Helper()
	p, logs := newTestClient(t, "")
	p.platform = fakePlatform{paths: paths}
	return p, logs
}
