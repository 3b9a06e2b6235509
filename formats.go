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
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Formats holds the reader and writer names reported by pandoc.
type Formats struct {
	Input  []string
	Output []string
}

// HasInput reports whether name is a known reader.
func (f *Formats) HasInput(name string) bool {
	return slices.Contains(f.Input, name)
}

// HasOutput reports whether name is a known writer.
func (f *Formats) HasOutput(name string) bool {
	return slices.Contains(f.Output, name)
}

var formatAliases = map[string]string{
	"dbk":              "docbook",
	"md":               "markdown",
	"tex":              "latex",
	"rest":             "rst",
	"restructuredtext": "rst",
}

// splitFormat splits "markdown+smart-raw_html" into "markdown" and
// "+smart-raw_html".
func splitFormat(format string) (base, extensions string) {
	if i := strings.IndexAny(format, "+-"); i >= 0 {
		return format[:i], format[i:]
	}
	return format, ""
}

// NormalizeFormat maps short names such as md or tex to pandoc's names.
// Syntax extensions are kept: "md+smart" becomes "markdown+smart".
func NormalizeFormat(format string) string {
	base, ext := splitFormat(format)
	if alias, ok := formatAliases[base]; ok {
		return alias + ext
	}
	return format
}

// BaseFormat strips syntax extensions from format.
func BaseFormat(format string) string {
	base, _ := splitFormat(format)
	return base
}

// parseFormatList parses the one-name-per-line output of --list-*-formats.
func parseFormatList(out []byte) []string {
	var formats []string
	for _, line := range strings.Split(string(out), "\n") {
		if f := strings.TrimSpace(line); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

var (
	reHelpInput  = regexp.MustCompile(`Input\sformats:\s|\*|\[.*?\]`)
	reHelpOutput = regexp.MustCompile(`\*|\[.*?\]`)
)

// parseHelpFormats extracts the format lists from the `pandoc -h` text of
// pandoc versions before 1.18, which print them between the usage line and
// "Options:".
func parseHelpFormats(help []byte) (*Formats, error) {
	lines := strings.Split(strings.ReplaceAll(string(help), "\r\n", "\n"), "\n")
	end := slices.IndexFunc(lines, func(l string) bool {
		return strings.TrimSpace(l) == "Options:"
	})
	if end < 1 {
		return nil, fmt.Errorf(`no "Options:" section in help text`)
	}

	txt := strings.Join(lines[1:end], " ")
	in, out, ok := strings.Cut(txt, "Output formats: ")
	if !ok {
		return nil, fmt.Errorf(`no "Output formats:" in help text`)
	}
	if !strings.Contains(in, "Input formats:") {
		return nil, fmt.Errorf(`no "Input formats:" in help text`)
	}
	return &Formats{
		Input:  splitHelpList(reHelpInput.ReplaceAllString(in, "")),
		Output: splitHelpList(reHelpOutput.ReplaceAllString(out, "")),
	}, nil
}

func splitHelpList(s string) []string {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// Formats returns the input and output formats the resolved pandoc supports.
// The result is cached until ClearPathCache.
func (p *Pandoc) Formats(ctx context.Context) (*Formats, error) {
	p.mu.RLock()
	f := p.formats
	p.mu.RUnlock()
	if f != nil {
		return f, nil
	}

	v, err := p.share(ctx, "formats", func(ctx context.Context) (any, error) {
		p.mu.RLock()
		gen := p.gen
		p.mu.RUnlock()
		exe, err := p.executable(ctx)
		if err != nil {
			return nil, err
		}
		f, err := p.queryFormats(ctx, exe.Path)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		if p.gen == gen {
			p.formats = f
		}
		p.mu.Unlock()
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Formats), nil
}

func (p *Pandoc) queryFormats(ctx context.Context, path string) (*Formats, error) {
	ctx, span := p.tracer.Start(ctx, "pandoc.formats")
	defer span.End()

	f := &Formats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := p.listFormats(gctx, path, "--list-output-formats")
		f.Output = out
		return err
	})
	g.Go(func() error {
		in, err := p.listFormats(gctx, path, "--list-input-formats")
		f.Input = in
		return err
	})
	err := g.Wait()
	if err == nil {
		return f, nil
	}
	p.logger.Debug("format list flags failed, parsing help text", "path", path, "error", err)

	f, err = p.queryFormatsFromHelp(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return f, err
}

func (p *Pandoc) listFormats(ctx context.Context, path, flag string) ([]string, error) {
	stdout, stderr, code, err := p.capture(ctx, path, flag)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, fmt.Errorf("%s exited with %d: %s", flag, code, strings.TrimSpace(string(stderr)))
	}
	return parseFormatList(stdout), nil
}

func (p *Pandoc) queryFormatsFromHelp(ctx context.Context, path string) (*Formats, error) {
	stdout, stderr, code, err := p.capture(ctx, path, "-h")
	if err != nil {
		return nil, &CapabilityQueryError{Cause: err}
	}
	if code != 0 {
		return nil, &CapabilityQueryError{
			Output: string(stdout) + string(stderr),
			Cause:  fmt.Errorf("-h exited with %d", code),
		}
	}
	f, err := parseHelpFormats(stdout)
	if err != nil {
		return nil, &CapabilityQueryError{Output: string(stdout), Cause: err}
	}
	return f, nil
}
