// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

// Package install knows where pandoc lives on each supported platform and how
// to unpack the upstream installer packages into a user folder.
package install

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Env carries the inputs candidate search paths depend on.
type Env struct {
	// BundledDir holds binaries shipped next to the host program.
	BundledDir string
	// ExecPrefix is the installation prefix of the host program.
	ExecPrefix string
	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string
}

func (e Env) getenv(key string) string {
	if e.Getenv != nil {
		return e.Getenv(key)
	}
	return os.Getenv(key)
}

// Platform is one of the supported operating systems.
type Platform interface {
	// Name is the GOOS value of the platform.
	Name() string
	// DefaultTargetDir is the per-user install folder, possibly starting with ~.
	DefaultTargetDir() string
	// CandidatePaths lists pandoc locations in search order. Entries may
	// start with ~ and may be bare command names.
	CandidatePaths(env Env) []string
	// AssetExtension is the installer package type published upstream.
	AssetExtension() string
	// Unpack extracts pandoc from the installer archive into targetDir.
	Unpack(ctx context.Context, log *slog.Logger, archive, targetDir string) error
}

// Detect returns the platform for the running program. Unix systems other
// than macOS are treated as Linux.
func Detect() Platform {
	p, _ := ForOS(runtime.GOOS)
	return p
}

// ForOS returns the platform for goos. The boolean is false when goos is not
// one of linux, darwin or windows and the Linux fallback was returned.
func ForOS(goos string) (Platform, bool) {
	switch goos {
	case "linux":
		return Linux{}, true
	case "darwin":
		return Darwin{}, true
	case "windows":
		return Windows{}, true
	}
	return Linux{}, false
}

// Linux installs from .deb packages into ~/bin.
type Linux struct{}

func (Linux) Name() string             { return "linux" }
func (Linux) DefaultTargetDir() string { return "~/bin" }
func (Linux) AssetExtension() string   { return "deb" }

func (Linux) CandidatePaths(env Env) []string {
	paths := []string{"pandoc"}
	if env.BundledDir != "" {
		paths = append(paths, filepath.Join(env.BundledDir, "pandoc"))
	}
	paths = append(paths, "~/bin/pandoc", "~/.bin/pandoc")
	if env.ExecPrefix != "" {
		paths = append(paths, filepath.Join(env.ExecPrefix, "bin", "pandoc"))
	}
	return paths
}

// Darwin installs from .pkg packages into ~/Applications/pandoc.
type Darwin struct{}

func (Darwin) Name() string             { return "darwin" }
func (Darwin) DefaultTargetDir() string { return "~/Applications/pandoc" }
func (Darwin) AssetExtension() string   { return "pkg" }

func (d Darwin) CandidatePaths(env Env) []string {
	paths := []string{"pandoc"}
	if env.BundledDir != "" {
		paths = append(paths, filepath.Join(env.BundledDir, "pandoc"))
	}
	paths = append(paths, d.DefaultTargetDir()+"/pandoc")
	if env.ExecPrefix != "" {
		paths = append(paths, filepath.Join(env.ExecPrefix, "bin", "pandoc"))
	}
	return paths
}

// Windows installs from .msi packages into ~\AppData\Local\Pandoc.
type Windows struct{}

func (Windows) Name() string             { return "windows" }
func (Windows) DefaultTargetDir() string { return `~\AppData\Local\Pandoc` }
func (Windows) AssetExtension() string   { return "msi" }

func (w Windows) CandidatePaths(env Env) []string {
	paths := []string{"pandoc"}
	if env.BundledDir != "" {
		paths = append(paths, winJoin(env.BundledDir, "pandoc"))
	}
	paths = append(paths, winJoin(w.DefaultTargetDir(), "pandoc"))
	if env.ExecPrefix != "" {
		paths = append(paths, winJoin(env.ExecPrefix, "Scripts", "pandoc"))
	}
	for _, key := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
		if dir := env.getenv(key); dir != "" {
			paths = append(paths, winJoin(dir, "Pandoc", "Pandoc"))
		}
	}
	if env.ExecPrefix != "" {
		paths = append(paths, winJoin(env.ExecPrefix, "bin", "pandoc"))
	}
	return paths
}

// winJoin joins with backslashes regardless of the host OS so the Windows
// variant produces the same paths when exercised elsewhere.
func winJoin(elem ...string) string {
	for i, e := range elem {
		if i > 0 {
			elem[i] = strings.Trim(e, `\/`)
		} else {
			elem[i] = strings.TrimRight(e, `\/`)
		}
	}
	return strings.Join(elem, `\`)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, filepath.FromSlash(strings.ReplaceAll(p[1:], `\`, "/")))
}
