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
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is. Every typed error in this package
// matches exactly one of them.
var (
	ErrExecutableNotFound  = errors.New("pandoc executable not found")
	ErrInvalidFormat       = errors.New("invalid format")
	ErrMissingOutputFile   = errors.New("output file required")
	ErrMalformedPDFRequest = errors.New("malformed pdf request")
	ErrSourceNotFound      = errors.New("source not found")
	ErrPrematureExit       = errors.New("pandoc exited before receiving input")
	ErrTransport           = errors.New("pandoc communication failed")
	ErrNonZeroExit         = errors.New("pandoc exited with non-zero status")
	ErrOutputDecode        = errors.New("pandoc output was not utf-8")
	ErrCapabilityQuery     = errors.New("pandoc format query failed")
)

// ExecutableNotFoundError is returned when no candidate location yielded a
// runnable pandoc.
type ExecutableNotFoundError struct {
	// Candidates lists every location that was probed.
	Candidates []string
	// Hint suggests how to install pandoc on this machine.
	Hint string
}

func (e *ExecutableNotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("no pandoc was found: either install pandoc and add it to your PATH, ")
	b.WriteString("call DownloadPandoc, or set the executable override variable")
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, " (tried %s)", strings.Join(e.Candidates, ", "))
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *ExecutableNotFoundError) Is(target error) bool {
	return target == ErrExecutableNotFound
}

// FormatError is returned when a format is missing or not in the capability set.
type FormatError struct {
	// Direction is "input" or "output".
	Direction string
	// Format is the rejected base format.
	Format  string
	Allowed []string
}

func (e *FormatError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("missing %s format", e.Direction)
	}
	return fmt.Sprintf("invalid %s format: got %q but expected one of these: %s",
		e.Direction, e.Format, strings.Join(e.Allowed, ", "))
}

func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// OutputFileError is returned when a binary output format is requested
// without an output file.
type OutputFileError struct {
	Format string
}

func (e *OutputFileError) Error() string {
	return fmt.Sprintf("output to %s only works by using an output file", e.Format)
}

func (e *OutputFileError) Is(target error) bool {
	return target == ErrMissingOutputFile
}

// PDFRequestError is returned for PDF requests with a wrong output file name
// or with syntax extensions on the target format.
type PDFRequestError struct {
	OutputFile string
	Format     string
	Reason     string
}

func (e *PDFRequestError) Error() string {
	return "pdf output: " + e.Reason
}

func (e *PDFRequestError) Is(target error) bool {
	return target == ErrMalformedPDFRequest
}

// SourceError is returned by ConvertFile when the source is neither an
// existing path nor a recognized URL.
type SourceError struct {
	Source string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q is not a valid path or URL", e.Source)
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceNotFound
}

// ProcessErrorKind classifies subprocess failures.
type ProcessErrorKind int

const (
	// NonZeroExit means pandoc ran to completion and reported failure.
	NonZeroExit ProcessErrorKind = iota
	// PrematureExit means pandoc exited before its input could be delivered.
	PrematureExit
	// TransportFailure means the pipes or the process itself failed at the OS level.
	TransportFailure
)

// ProcessError describes a failed pandoc subprocess.
type ProcessError struct {
	Kind     ProcessErrorKind
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	switch e.Kind {
	case PrematureExit:
		return fmt.Sprintf("pandoc died with exitcode %d before receiving input: %s", e.ExitCode, e.Stderr)
	case TransportFailure:
		msg := "pandoc died during conversion"
		if e.Cause != nil {
			msg += ": " + e.Cause.Error()
		}
		return msg
	}
	return fmt.Sprintf("pandoc died with exitcode %d during conversion: %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

func (e *ProcessError) Is(target error) bool {
	switch e.Kind {
	case PrematureExit:
		return target == ErrPrematureExit
	case TransportFailure:
		return target == ErrTransport
	}
	return target == ErrNonZeroExit
}

// DecodeError is returned when pandoc's stdout is not valid UTF-8.
type DecodeError struct {
	Stream string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pandoc %s was not utf-8", e.Stream)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrOutputDecode
}

// CapabilityQueryError is returned when neither the list flags nor the help
// text produced a format list.
type CapabilityQueryError struct {
	// Output holds whatever pandoc printed.
	Output string
	Cause  error
}

func (e *CapabilityQueryError) Error() string {
	msg := "couldn't call pandoc to get output formats"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Output != "" {
		msg += ". Output from pandoc:\n" + e.Output
	}
	return msg
}

func (e *CapabilityQueryError) Unwrap() error {
	return e.Cause
}

func (e *CapabilityQueryError) Is(target error) bool {
	return target == ErrCapabilityQuery
}

// IsNotFound reports whether the error means no pandoc executable could be found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrExecutableNotFound)
}

// IsInvalidFormat reports whether the error is a FormatError.
func IsInvalidFormat(err error) bool {
	var target *FormatError
	return errors.As(err, &target)
}
