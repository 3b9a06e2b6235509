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
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SourceKind says how a conversion source reaches pandoc.
type SourceKind int

const (
	// SourceText is literal content written to pandoc's stdin.
	SourceText SourceKind = iota
	// SourcePath is an existing local file passed on the command line.
	SourcePath
	// SourceURL is a remote URL passed on the command line.
	SourceURL
)

func (k SourceKind) String() string {
	switch k {
	case SourcePath:
		return "path"
	case SourceURL:
		return "url"
	}
	return "text"
}

// ClassifiedSource is the result of ClassifySource. Location is what goes on
// the pandoc command line: file URLs are rewritten to local paths.
type ClassifiedSource struct {
	Kind     SourceKind
	Location string
}

// ClassifySource decides whether s names an existing file, a local file URL,
// or a remote URL. Anything else is literal text. It never fails.
func ClassifySource(s string) ClassifiedSource {
	if s == "" {
		return ClassifiedSource{Kind: SourceText}
	}
	if pathExists(s) {
		return ClassifiedSource{Kind: SourcePath, Location: s}
	}

	u, err := url.Parse(s)
	if err != nil {
		return ClassifiedSource{Kind: SourceText}
	}
	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		return ClassifiedSource{Kind: SourceURL, Location: s}
	case u.Scheme == "file":
		if p := fileURLPath(u); p != "" && pathExists(p) {
			return ClassifiedSource{Kind: SourcePath, Location: p}
		}
		return ClassifiedSource{Kind: SourceText}
	case u.Scheme != "" && u.Host != "" && u.Path != "":
		return ClassifiedSource{Kind: SourceURL, Location: s}
	}
	return ClassifiedSource{Kind: SourceText}
}

func pathExists(p string) bool {
	if strings.ContainsRune(p, 0) {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

// fileURLPath converts file:///tmp/x.md (or file://host/share/x.md on
// Windows) into a local path.
func fileURLPath(u *url.URL) string {
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	if runtime.GOOS == "windows" {
		if u.Host != "" && u.Host != "localhost" {
			return `\\` + u.Host + filepath.FromSlash(p)
		}
		p = strings.TrimPrefix(p, "/")
	}
	return filepath.FromSlash(p)
}

// extensionFormats maps file extensions whose pandoc reader name differs
// from the bare extension. Others are taken as is and normalized later.
var extensionFormats = map[string]string{
	"htm":      "html",
	"xhtml":    "html",
	"markdown": "markdown",
	"mkd":      "markdown",
	"txt":      "markdown",
	"text":     "markdown",
	"wiki":     "mediawiki",
	"adoc":     "asciidoc",
	"typ":      "typst",
}

// mimeFormats maps sniffed MIME types to pandoc reader names.
var mimeFormats = map[string]string{
	"text/html":        "html",
	"application/json": "json",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.oasis.opendocument.text":                                 "odt",
	"application/epub+zip":                                                    "epub",
	"text/rtf":                                                                "rtf",
	"application/rtf":                                                         "rtf",
	"text/csv":                                                                "csv",
	"text/tab-separated-values":                                               "tsv",
	"application/x-ipynb+json":                                                "ipynb",
	"text/x-tex":                                                              "latex",
	"application/x-tex":                                                       "latex",
	"text/plain":                                                              "markdown",
}

// formatFromPath returns format if set, otherwise infers it from the file
// extension of source. Local files without an extension are sniffed.
func formatFromPath(source, format string) string {
	if format != "" {
		return format
	}
	ext := strings.TrimPrefix(filepath.Ext(source), ".")
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Path != "" {
		ext = strings.TrimPrefix(filepath.Ext(u.Path), ".")
	}
	if ext != "" {
		if f, ok := extensionFormats[strings.ToLower(ext)]; ok {
			return f
		}
		return ext
	}
	return sniffFormat(source)
}

// sniffFormat detects the format of a local file from its content.
func sniffFormat(p string) string {
	f, err := os.Open(p)
	if err != nil {
		return ""
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(io.LimitReader(f, 3072))
	if err != nil {
		return ""
	}
	for m := mtype; m != nil; m = m.Parent() {
		base, _, _ := strings.Cut(m.String(), ";")
		if format, ok := mimeFormats[base]; ok {
			return format
		}
	}
	return ""
}
