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

package pandoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/nicholasgasior/pandoc-go/internal/install"
)

// DownloadOptions configures DownloadPandoc.
type DownloadOptions struct {
	// URL of the installer. When empty the installer for this platform is
	// looked up on the release page of Version.
	URL string
	// Version to download, "latest" when empty. Ignored when URL is set.
	Version string
	// TargetDir receives the pandoc executable. Defaults to ~/bin on Linux,
	// ~/Applications/pandoc on macOS and ~\AppData\Local\Pandoc on Windows.
	TargetDir string
	// DownloadDir keeps the installer. Defaults to the temp dir.
	DownloadDir string
	// DeleteInstaller removes the installer after unpacking.
	DeleteInstaller bool
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o *DownloadOptions) setDefaults(plat install.Platform) {
	if o.TargetDir == "" {
		o.TargetDir = plat.DefaultTargetDir()
	}
	o.TargetDir = install.ExpandHome(o.TargetDir)
	if o.DownloadDir == "" {
		o.DownloadDir = os.TempDir()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// DownloadPandoc downloads the pandoc installer for this platform, unpacks it
// into opts.TargetDir and returns the installed executable's path.
func DownloadPandoc(ctx context.Context, opts DownloadOptions) (string, error) {
	plat, ok := install.ForOS(runtime.GOOS)
	if !ok {
		return "", fmt.Errorf("unable to download pandoc for platform %s", runtime.GOOS)
	}
	return downloadPandoc(ctx, plat, runtime.GOARCH, opts)
}

func downloadPandoc(ctx context.Context, plat install.Platform, goarch string, opts DownloadOptions) (string, error) {
	if plat.Name() == "linux" && !slices.Contains([]string{"amd64", "arm64"}, goarch) {
		return "", errors.New("linux pandoc is only compiled for 64bit")
	}
	opts.setDefaults(plat)
	log := opts.Logger

	url := opts.URL
	if url == "" {
		rel, err := install.FindRelease(ctx, opts.HTTPClient, install.ReleasePageURL(opts.Version))
		if err != nil {
			return "", err
		}
		asset, ok := rel.Assets[plat.AssetExtension()]
		if !ok {
			return "", fmt.Errorf("no %s installer in pandoc release %s", plat.AssetExtension(), rel.Version)
		}
		log.Info("found pandoc release", "version", rel.Version, "url", asset)
		url = asset
	}

	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return "", err
	}
	archive, err := install.Download(ctx, opts.HTTPClient, log, url, opts.DownloadDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(opts.TargetDir, 0o755); err != nil {
		return "", err
	}
	if err := plat.Unpack(ctx, log, archive, opts.TargetDir); err != nil {
		return "", err
	}
	if opts.DeleteInstaller {
		if err := os.Remove(archive); err != nil {
			log.Warn("couldn't delete installer", "file", archive, "error", err)
		}
	}

	name := "pandoc"
	if plat.Name() == "windows" {
		name += ".exe"
	}
	return filepath.Join(opts.TargetDir, name), nil
}

// EnsureInstalled returns nil when p can resolve a pandoc. Otherwise it
// downloads one into opts.TargetDir and adds that folder to p's search paths.
// The process PATH is left alone.
func (p *Pandoc) EnsureInstalled(ctx context.Context, opts DownloadOptions) error {
	_, err := p.executable(ctx)
	if err == nil || !IsNotFound(err) {
		return err
	}
	if opts.Logger == nil {
		opts.Logger = p.logger
	}

	path, err := DownloadPandoc(ctx, opts)
	if err != nil {
		return fmt.Errorf("install pandoc: %w", err)
	}

	p.mu.Lock()
	p.searchPaths = append(p.searchPaths, path)
	p.mu.Unlock()
	p.ClearPathCache()

	_, err = p.executable(ctx)
	return err
}
