package pandoc

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nicholasgasior/pandoc-go/internal/install"
)

// DefaultEnvVar names the variable that pins the pandoc executable.
const DefaultEnvVar = "GOPANDOC_PANDOC"

const installDocsURL = "https://pandoc.org/installing.html"

// candidates lists every location to probe, in order. A set override
// variable replaces the whole list.
func (p *Pandoc) candidates() []string {
	if p.envVar != "" {
		if override := os.Getenv(p.envVar); override != "" {
			return []string{override}
		}
	}
	paths := p.platform.CandidatePaths(install.Env{
		BundledDir: p.bundledDir,
		ExecPrefix: p.execPrefix,
	})
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append(paths, p.searchPaths...)
}

// share runs fn once for all concurrent callers of key. fn gets a context
// that outlives any single caller; each caller still stops waiting when its
// own ctx is done.
func (p *Pandoc) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) { return fn(shared) })
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// executable returns the cached pandoc, resolving it on first use.
// Concurrent first calls share one resolution.
func (p *Pandoc) executable(ctx context.Context) (*Executable, error) {
	p.mu.RLock()
	exe := p.exe
	p.mu.RUnlock()
	if exe != nil {
		return exe, nil
	}

	v, err := p.share(ctx, "executable", func(ctx context.Context) (any, error) {
		p.mu.RLock()
		exe, gen := p.exe, p.gen
		p.mu.RUnlock()
		if exe != nil {
			return exe, nil
		}
		exe, err := p.resolve(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		if p.gen == gen {
			p.exe = exe
			if p.version == "" {
				p.version = exe.Version.String()
			}
		}
		p.mu.Unlock()
		return exe, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Executable), nil
}

// resolve probes every candidate and keeps the highest version.
func (p *Pandoc) resolve(ctx context.Context) (*Executable, error) {
	ctx, span := p.tracer.Start(ctx, "pandoc.resolve")
	defer span.End()

	candidates := p.candidates()
	var best *Executable
	for _, c := range candidates {
		path := install.ExpandHome(c)
		v, err := p.probeVersion(ctx, path)
		if err != nil {
			if pathExists(path) {
				p.logger.Warn("found pandoc, but not using it because of an error", "path", path, "error", err)
			}
			continue
		}
		p.logger.Debug("found pandoc", "path", path, "version", v.String())
		if best == nil || v.Compare(best.Version) > 0 {
			best = &Executable{Path: path, Version: v}
		}
	}

	if best == nil {
		hint := installHint()
		p.logger.Info(hint)
		err := &ExecutableNotFoundError{Candidates: candidates, Hint: hint}
		span.RecordError(err)
		span.SetStatus(codes.Error, "not found")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("pandoc.path", best.Path),
		attribute.String("pandoc.version", best.Version.String()),
	)
	return best, nil
}

// probeVersion runs `path --version` and parses the first line.
func (p *Pandoc) probeVersion(ctx context.Context, path string) (Version, error) {
	stdout, stderr, code, err := p.capture(ctx, path, "--version")
	if err != nil {
		return nil, err
	}
	if code != 0 || len(stdout) == 0 {
		return nil, fmt.Errorf("couldn't call pandoc to get version information (exit %d): %s",
			code, strings.TrimSpace(string(stdout)+string(stderr)))
	}
	s, err := parseVersionOutput(string(stdout))
	if err != nil {
		return nil, err
	}
	return ParseVersion(s)
}

// installHint suggests a package manager command available on this machine.
func installHint() string {
	var b strings.Builder
	switch {
	case pathExists("/usr/local/bin/brew") || pathExists("/opt/homebrew/bin/brew"):
		b.WriteString("Maybe try:\n\n    brew install pandoc\n\n")
	case pathExists("/usr/bin/apt-get"):
		b.WriteString("Maybe try:\n\n    sudo apt-get install pandoc\n\n")
	case pathExists("/usr/bin/yum"):
		b.WriteString("Maybe try:\n\n    sudo yum install pandoc\n\n")
	case runtime.GOOS == "windows":
		b.WriteString("Maybe try:\n\n    winget install --source winget --exact --id JohnMacFarlane.Pandoc\n\n")
	}
	fmt.Fprintf(&b, "See %s for installation options", installDocsURL)
	return b.String()
}

// Path returns the pandoc executable in use. It is the override variable's
// value when set; otherwise the highest version found among the bare
// command on PATH, the bundled copy and the usual install folders.
func (p *Pandoc) Path(ctx context.Context) (string, error) {
	exe, err := p.executable(ctx)
	if err != nil {
		return "", err
	}
	return exe.Path, nil
}

// Version returns the version of the pandoc in use, cached until
// ClearVersionCache.
func (p *Pandoc) Version(ctx context.Context) (string, error) {
	p.mu.RLock()
	v, gen := p.version, p.gen
	p.mu.RUnlock()
	if v != "" {
		return v, nil
	}

	exe, err := p.executable(ctx)
	if err != nil {
		return "", err
	}
	// the resolver already filled the cache unless it was cleared since
	p.mu.RLock()
	v = p.version
	p.mu.RUnlock()
	if v != "" {
		return v, nil
	}

	parsed, err := p.probeVersion(ctx, exe.Path)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	if p.gen == gen {
		p.version = parsed.String()
		p.exe = &Executable{Path: exe.Path, Version: parsed}
	}
	p.mu.Unlock()
	return parsed.String(), nil
}

func (p *Pandoc) parsedVersion(ctx context.Context) (Version, error) {
	s, err := p.Version(ctx)
	if err != nil {
		return nil, err
	}
	return ParseVersion(s)
}

// MinimalVersion reports whether pandoc is at least major.minor.
func (p *Pandoc) MinimalVersion(ctx context.Context, major, minor int) (bool, error) {
	v, err := p.parsedVersion(ctx)
	if err != nil {
		return false, err
	}
	return v.AtLeast(major, minor), nil
}

// MaximalVersion reports whether pandoc is at most major.minor.
func (p *Pandoc) MaximalVersion(ctx context.Context, major, minor int) (bool, error) {
	v, err := p.parsedVersion(ctx)
	if err != nil {
		return false, err
	}
	return v.AtMost(major, minor), nil
}

// ClearVersionCache forgets the cached version; the next Version call asks
// pandoc again.
func (p *Pandoc) ClearVersionCache() {
	p.mu.Lock()
	p.version = ""
	p.mu.Unlock()
}

// ClearPathCache forgets the resolved executable together with its version
// and format lists.
func (p *Pandoc) ClearPathCache() {
	p.mu.Lock()
	p.gen++
	p.exe = nil
	p.version = ""
	p.formats = nil
	p.mu.Unlock()
}
