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
	"iter"
	"log/slog"
	"strings"
)

// Level is the severity pandoc attaches to a stderr message.
type Level int

const (
	LevelNotSet   Level = 0
	LevelDebug    Level = 10
	LevelInfo     Level = 20
	LevelWarning  Level = 30
	LevelError    Level = 40
	LevelCritical Level = 50
)

// DefaultLevel applies to stderr lines before the first severity tag.
const DefaultLevel = LevelWarning

var levelNames = map[string]Level{
	"NOTSET":   LevelNotSet,
	"DEBUG":    LevelDebug,
	"INFO":     LevelInfo,
	"WARNING":  LevelWarning,
	"ERROR":    LevelError,
	"CRITICAL": LevelCritical,
}

// ParseLevel parses a tag such as "WARNING".
func ParseLevel(s string) (Level, bool) {
	l, ok := levelNames[s]
	return l, ok
}

func (l Level) String() string {
	for name, v := range levelNames {
		if v == l {
			return name
		}
	}
	return "NOTSET"
}

// SlogLevel maps l onto the slog scale.
func (l Level) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelCritical:
		return slog.LevelError + 4
	}
	return slog.LevelDebug - 4
}

// Diagnostic is one message pandoc wrote to stderr.
type Diagnostic struct {
	Level   Level
	Message string
}

// cutTag splits "[ERROR] message" into "ERROR" and "message".
func cutTag(line string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(line, "[") {
		return "", line, false
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return "", line, false
	}
	return line[1:end], strings.TrimPrefix(line[end+1:], " "), true
}

// ClassifyDiagnostics splits pandoc's stderr into messages. A line opening
// with a bracketed tag starts a new message at that level; following
// untagged lines belong to it. Lines before the first tag, and tags that
// are not a known level, get DefaultLevel. Blank messages are dropped.
func ClassifyDiagnostics(raw string) iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		level := DefaultLevel
		var msg []string
		// blank records carry nothing worth reporting
		emit := func() bool {
			m := strings.Join(msg, "\n")
			if strings.TrimSpace(m) == "" {
				return true
			}
			return yield(Diagnostic{Level: level, Message: m})
		}
		for i, line := range strings.Split(strings.TrimSuffix(raw, "\n"), "\n") {
			tag, rest, ok := cutTag(line)
			if !ok {
				msg = append(msg, line)
				continue
			}
			if i > 0 && !emit() {
				return
			}
			if level, ok = ParseLevel(tag); !ok {
				level = DefaultLevel
			}
			msg = []string{rest}
		}
		emit()
	}
}

// logDiagnostics classifies stderr, logs every message and returns them.
func (p *Pandoc) logDiagnostics(ctx context.Context, stderr string) []Diagnostic {
	var diags []Diagnostic
	for d := range ClassifyDiagnostics(stderr) {
		p.logger.Log(ctx, d.Level.SlogLevel(), d.Message, "source", "pandoc")
		diags = append(diags, d)
	}
	return diags
}
