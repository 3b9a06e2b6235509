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
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// sandboxMajor and sandboxMinor are the first pandoc version with --sandbox.
const (
	sandboxMajor = 2
	sandboxMinor = 15
)

// buildArgs returns the pandoc arguments for r, without the executable.
func buildArgs(exe *Executable, r *request) []string {
	args := []string{"--from=" + r.from}
	// pandoc picks the pdf writer from the output file name and rejects --to=pdf
	if r.to != "pdf" {
		args = append(args, "--to="+r.to)
	}
	args = append(args, r.inputs...)
	if r.cfg.outputFile != "" {
		args = append(args, "--output="+r.cfg.outputFile)
	}
	if r.cfg.sandbox && exe.Version.AtLeast(sandboxMajor, sandboxMinor) {
		args = append(args, "--sandbox")
	}
	args = append(args, r.cfg.extraArgs...)
	for _, f := range r.cfg.filters {
		args = append(args, "--filter="+f)
	}
	return args
}

// environ is the environment of every pandoc subprocess: the caller's, with
// the bundled directory appended to PATH and HOME defaulted.
func (p *Pandoc) environ() []string {
	env := os.Environ()
	if p.bundledDir != "" {
		path := os.Getenv("PATH")
		env = setEnv(env, "PATH", path+string(os.PathListSeparator)+p.bundledDir)
	}
	if _, ok := os.LookupEnv("HOME"); !ok {
		env = setEnv(env, "HOME", os.TempDir())
	}
	return env
}

func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}

// capture runs a short pandoc query and returns its output. A non-zero exit
// is reported through code, not err.
func (p *Pandoc) capture(ctx context.Context, path string, args ...string) (stdout, stderr []byte, code int, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = p.environ()
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return outBuf.Bytes(), errBuf.Bytes(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return nil, nil, -1, err
	}
	return outBuf.Bytes(), errBuf.Bytes(), 0, nil
}

// run spawns pandoc for r and waits for it. In string mode r.text is written
// to stdin; otherwise stdin is not connected.
func (p *Pandoc) run(ctx context.Context, exe *Executable, r *request) (*Result, error) {
	if r.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.timeout)
		defer cancel()
	}

	args := buildArgs(exe, r)
	ctx, span := p.tracer.Start(ctx, "pandoc.convert")
	defer span.End()
	span.SetAttributes(
		attribute.String("pandoc.from", r.from),
		attribute.String("pandoc.to", r.to),
		attribute.Bool("pandoc.string_input", r.stringInput()),
	)
	p.logger.Debug("running pandoc", "path", exe.Path, "args", args, "workdir", r.cfg.workDir)

	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, exe.Path, args...)
	cmd.Env = p.environ()
	cmd.Dir = r.cfg.workDir
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	var stdin io.WriteCloser
	if r.stringInput() {
		var err error
		if stdin, err = cmd.StdinPipe(); err != nil {
			return nil, p.fail(span, &ProcessError{Kind: TransportFailure, Cause: err})
		}
	}
	if err := cmd.Start(); err != nil {
		return nil, p.fail(span, &ProcessError{Kind: TransportFailure, Cause: err})
	}

	var writeErr error
	if stdin != nil {
		_, writeErr = io.WriteString(stdin, r.text)
		if closeErr := stdin.Close(); writeErr == nil {
			writeErr = closeErr
		}
	}
	waitErr := cmd.Wait()

	stderr := normalizeStderr(errBuf.Bytes())
	if ctxErr := ctx.Err(); ctxErr != nil && (writeErr != nil || waitErr != nil) {
		return nil, p.fail(span, &ProcessError{Kind: TransportFailure, Stderr: stderr, Cause: ctxErr})
	}
	if writeErr != nil {
		code := -1
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		return nil, p.fail(span, &ProcessError{Kind: PrematureExit, ExitCode: code, Stderr: stderr, Cause: writeErr})
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, p.fail(span, &ProcessError{Kind: TransportFailure, Stderr: stderr, Cause: waitErr})
		}
		span.SetAttributes(attribute.Int("pandoc.exit_code", exitErr.ExitCode()))
		return nil, p.fail(span, &ProcessError{Kind: NonZeroExit, ExitCode: exitErr.ExitCode(), Stderr: stderr})
	}

	if !utf8.Valid(outBuf.Bytes()) {
		return nil, p.fail(span, &DecodeError{Stream: "stdout"})
	}

	res := &Result{Text: outBuf.String()}
	if stderr != "" {
		res.Diagnostics = p.logDiagnostics(ctx, stderr)
	}
	span.SetAttributes(attribute.Int("pandoc.diagnostics", len(res.Diagnostics)))
	return res, nil
}

func (p *Pandoc) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
