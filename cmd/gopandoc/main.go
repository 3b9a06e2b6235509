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

// Command gopandoc converts documents with pandoc.
//
// Usage:
//
//	gopandoc convert --to html README.md
//	echo '# title' | gopandoc convert --from md --to rst
//	gopandoc formats
//	gopandoc install --target-dir ~/bin
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	pandoc "github.com/nicholasgasior/pandoc-go"
)

// CLI defines the command-line interface.
type CLI struct {
	Convert ConvertCmd `cmd:"" help:"Convert a document."`
	Formats FormatsCmd `cmd:"" help:"List the input and output formats of pandoc."`
	Version VersionCmd `cmd:"" help:"Show version information."`
	Path    PathCmd    `cmd:"" help:"Show the pandoc executable in use."`
	Install InstallCmd `cmd:"" help:"Download pandoc into a user folder."`

	Config   string `short:"c" help:"YAML file with conversion defaults." type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"warn"`
	EnvFile  string `name:"env-file" help:"Environment file to load; existing variables win." default:".env"`
}

// app is what every command runs against.
type app struct {
	ctx    context.Context
	client *pandoc.Pandoc
	cfg    *fileConfig
	log    *slog.Logger
	out    io.Writer
	in     io.Reader
}

// ConvertCmd converts files, URLs or stdin.
type ConvertCmd struct {
	Sources   []string      `arg:"" optional:"" help:"Files, URLs or glob patterns. Reads stdin when omitted or '-'."`
	From      string        `short:"f" help:"Input format; inferred from the first file when omitted."`
	To        string        `short:"t" required:"" help:"Output format."`
	Output    string        `short:"o" help:"Output file (default: stdout)."`
	Filter    []string      `help:"Pandoc filter to run; repeatable."`
	Arg       []string      `help:"Extra argument passed to pandoc verbatim; repeatable."`
	NoSandbox bool          `name:"no-sandbox" help:"Don't run pandoc in --sandbox mode."`
	NoVerify  bool          `name:"no-verify" help:"Don't check formats against pandoc's format lists."`
	Workdir   string        `help:"Directory pandoc runs in." type:"path"`
	Encoding  string        `help:"Charset of stdin input ('auto' to detect)."`
	Timeout   time.Duration `help:"Kill pandoc after this long (0 = no limit)."`
	Text      bool          `help:"Treat the arguments as document text instead of files."`
}

func (c *ConvertCmd) Run(a *app) error {
	opts := c.options(a.cfg)

	var (
		res *pandoc.Result
		err error
	)
	switch {
	case c.Text:
		res, err = a.client.ConvertText(a.ctx, strings.Join(c.Sources, " "), c.To, c.From, opts...)
	case len(c.Sources) == 0 || (len(c.Sources) == 1 && c.Sources[0] == "-"):
		if c.From == "" {
			return errors.New("--from is required when reading stdin")
		}
		data, readErr := io.ReadAll(a.in)
		if readErr != nil {
			return fmt.Errorf("read stdin: %w", readErr)
		}
		res, err = a.client.ConvertBytes(a.ctx, data, c.To, c.From, opts...)
	default:
		res, err = a.client.ConvertFiles(a.ctx, c.Sources, c.To, c.From, opts...)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.out, res.Text)
	return err
}

// options merges the config file defaults with the flags. Flags win.
func (c *ConvertCmd) options(cfg *fileConfig) []pandoc.ConvertOption {
	var opts []pandoc.ConvertOption
	opts = append(opts, cfg.options()...)
	if c.Output != "" {
		opts = append(opts, pandoc.WithOutputFile(c.Output))
	}
	if len(c.Filter) > 0 {
		opts = append(opts, pandoc.WithFilters(c.Filter...))
	}
	if len(c.Arg) > 0 {
		opts = append(opts, pandoc.WithExtraArgs(c.Arg...))
	}
	if c.NoSandbox {
		opts = append(opts, pandoc.WithSandbox(false))
	}
	if c.NoVerify {
		opts = append(opts, pandoc.WithVerifyFormat(false))
	}
	if c.Workdir != "" {
		opts = append(opts, pandoc.WithWorkDir(c.Workdir))
	}
	if c.Encoding != "" {
		opts = append(opts, pandoc.WithEncoding(c.Encoding))
	}
	if c.Timeout > 0 {
		opts = append(opts, pandoc.WithTimeout(c.Timeout))
	}
	return opts
}

// FormatsCmd lists supported formats.
type FormatsCmd struct {
	Input  bool `help:"Only list input formats."`
	Output bool `help:"Only list output formats."`
}

func (c *FormatsCmd) Run(a *app) error {
	f, err := a.client.Formats(a.ctx)
	if err != nil {
		return err
	}
	if !c.Output {
		fmt.Fprintf(a.out, "Input formats:  %s\n", strings.Join(f.Input, ", "))
	}
	if !c.Input {
		fmt.Fprintf(a.out, "Output formats: %s\n", strings.Join(f.Output, ", "))
	}
	return nil
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Fprintf(a.out, "gopandoc %s\n", version)

	v, err := a.client.Version(a.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "pandoc %s\n", v)
	return nil
}

// PathCmd prints the resolved executable.
type PathCmd struct{}

func (c *PathCmd) Run(a *app) error {
	p, err := a.client.Path(a.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, p)
	return nil
}

// InstallCmd downloads pandoc.
type InstallCmd struct {
	Version         string `help:"Pandoc version to install." default:"latest"`
	URL             string `name:"url" help:"Installer URL; skips the release lookup."`
	TargetDir       string `name:"target-dir" help:"Folder for the pandoc executable (default: platform user folder)."`
	DownloadDir     string `name:"download-dir" help:"Folder for the installer (default: temp dir)."`
	DeleteInstaller bool   `name:"delete-installer" help:"Remove the installer afterwards."`
}

func (c *InstallCmd) Run(a *app) error {
	path, err := pandoc.DownloadPandoc(a.ctx, pandoc.DownloadOptions{
		URL:             c.URL,
		Version:         c.Version,
		TargetDir:       c.TargetDir,
		DownloadDir:     c.DownloadDir,
		DeleteInstaller: c.DeleteInstaller,
		Logger:          a.log,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, path)
	return nil
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("gopandoc"),
		kong.Description("Convert documents with pandoc."),
		kong.UsageOnError(),
	)

	if err := loadEnvFile(cli.EnvFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := newLogger(os.Stderr, cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.applyEnv(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&app{
		ctx:    ctx,
		client: pandoc.New(pandoc.WithLogger(log)),
		cfg:    cfg,
		log:    log,
		out:    os.Stdout,
		in:     os.Stdin,
	})
	os.Exit(exitCode(err))
}

// exitCode passes pandoc's own exit status through.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var perr *pandoc.ProcessError
	if errors.As(err, &perr) && perr.Kind == pandoc.NonZeroExit && perr.ExitCode > 0 {
		return perr.ExitCode
	}
	return 1
}
