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

// Package pandoc runs the pandoc document converter from Go.
//
// A Pandoc client finds the pandoc executable on first use, checks requested
// formats against the formats that executable supports, runs the conversion
// and turns pandoc's stderr into leveled diagnostics. The package-level
// functions use a shared client returned by Default.
package pandoc

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/nicholasgasior/pandoc-go/internal/install"
)

const tracerName = "github.com/nicholasgasior/pandoc-go"

// Pandoc converts documents with an external pandoc executable. The
// executable, its version and its format lists are looked up once and cached;
// a Pandoc is safe for concurrent use.
type Pandoc struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	platform install.Platform

	bundledDir  string
	execPrefix  string
	searchPaths []string
	envVar      string

	mu      sync.RWMutex
	group   singleflight.Group
	gen     uint64 // bumped by ClearPathCache; stale lookups don't store
	exe     *Executable
	version string
	formats *Formats
}

// New creates a client with its own caches.
func New(opts ...Option) *Pandoc {
	p := &Pandoc{
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		platform: install.Detect(),
		envVar:   DefaultEnvVar,
	}
	if self, err := os.Executable(); err == nil {
		dir := filepath.Dir(self)
		p.bundledDir = filepath.Join(dir, "files")
		p.execPrefix = filepath.Dir(dir)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultClient = sync.OnceValue(func() *Pandoc { return New() })

// Default returns the process-wide client used by the package-level functions.
func Default() *Pandoc {
	return defaultClient()
}

// ConvertText converts source, which is always taken as document content
// even when it looks like a file name. source is already text, so
// WithEncoding has no effect here.
func (p *Pandoc) ConvertText(ctx context.Context, source, to, from string, opts ...ConvertOption) (*Result, error) {
	return p.convert(ctx, &request{text: source, from: from, to: to, cfg: newConvertConfig(opts)})
}

// ConvertBytes converts raw document content. The bytes are decoded with
// the configured encoding before they are sent to pandoc.
func (p *Pandoc) ConvertBytes(ctx context.Context, source []byte, to, from string, opts ...ConvertOption) (*Result, error) {
	cfg := newConvertConfig(opts)
	text, err := DecodeSource(source, cfg.encoding)
	if err != nil {
		return nil, err
	}
	return p.convert(ctx, &request{text: text, from: from, to: to, cfg: cfg})
}

// ConvertFile converts a local file or a URL. When from is empty the input
// format is taken from the file extension, or sniffed from the content of
// local files without one.
func (p *Pandoc) ConvertFile(ctx context.Context, source, to, from string, opts ...ConvertOption) (*Result, error) {
	return p.ConvertFiles(ctx, []string{source}, to, from, opts...)
}

// ConvertFiles converts several inputs, which pandoc concatenates. Each
// entry may be a path, a URL or a glob pattern; the input format is
// inferred from the first input when from is empty.
func (p *Pandoc) ConvertFiles(ctx context.Context, sources []string, to, from string, opts ...ConvertOption) (*Result, error) {
	cfg := newConvertConfig(opts)
	inputs, err := expandSources(sources, cfg.workDir)
	if err != nil {
		return nil, err
	}
	from = formatFromPath(inWorkDir(inputs[0], cfg.workDir), from)
	return p.convert(ctx, &request{inputs: inputs, from: from, to: to, cfg: cfg})
}

// Convert accepts either document content or a path and guesses which one
// it got.
//
// Deprecated: use ConvertText or ConvertFile, which do not guess.
func (p *Pandoc) Convert(ctx context.Context, source, to, from string, opts ...ConvertOption) (*Result, error) {
	p.logger.Warn("Convert is deprecated and will be removed; use ConvertText or ConvertFile")
	if ClassifySource(source).Kind == SourceText {
		return p.ConvertText(ctx, source, to, from, opts...)
	}
	return p.ConvertFile(ctx, source, to, from, opts...)
}

// expandSources classifies every source, expanding glob patterns first.
// Local paths are checked relative to workDir when one is given.
func expandSources(sources []string, workDir string) ([]string, error) {
	var inputs []string
	for _, s := range sources {
		matches := []string{s}
		if strings.ContainsAny(s, "*?[") && !isURL(s) {
			found, err := filepath.Glob(inWorkDir(s, workDir))
			if err == nil && len(found) > 0 {
				matches = found
				if workDir != "" && !filepath.IsAbs(s) {
					for i, m := range found {
						if rel, err := filepath.Rel(workDir, m); err == nil {
							matches[i] = rel
						}
					}
				}
			}
		}
		for _, m := range matches {
			src := ClassifySource(inWorkDir(m, workDir))
			switch {
			case src.Kind == SourceText:
				return nil, &SourceError{Source: m}
			case src.Kind == SourcePath && workDir != "" && !filepath.IsAbs(m) && src.Location == inWorkDir(m, workDir):
				// pandoc runs in workDir and resolves the relative name itself
				inputs = append(inputs, m)
			default:
				inputs = append(inputs, src.Location)
			}
		}
	}
	if len(inputs) == 0 {
		return nil, &SourceError{}
	}
	return inputs, nil
}

func isURL(s string) bool {
	return ClassifySource(s).Kind == SourceURL
}

func inWorkDir(p, workDir string) string {
	if workDir == "" || filepath.IsAbs(p) || isURL(p) {
		return p
	}
	return filepath.Join(workDir, p)
}

// convert validates r and runs it. Checks that need no pandoc call come
// first, so a bad request fails without spawning anything.
func (p *Pandoc) convert(ctx context.Context, r *request) (*Result, error) {
	r.from, r.to = NormalizeFormat(r.from), NormalizeFormat(r.to)
	if r.cfg.verify {
		if err := precheckFormats(r.from, r.to, r.cfg.outputFile); err != nil {
			return nil, err
		}
	}

	exe, err := p.executable(ctx)
	if err != nil {
		return nil, err
	}
	if r.cfg.verify {
		formats, err := p.Formats(ctx)
		if err != nil {
			return nil, err
		}
		if r.from, r.to, err = ValidateFormats(formats, r.from, r.to, r.cfg.outputFile); err != nil {
			return nil, err
		}
	}
	return p.run(ctx, exe, r)
}
