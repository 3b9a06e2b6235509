package pandoc

import (
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Pandoc instance.
type Option func(*Pandoc)

// WithLogger sets the logger that receives pandoc's diagnostics and the
// resolver's messages (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(p *Pandoc) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBundledDir sets the folder holding bundled pandoc binaries. It is
// searched for pandoc and appended to PATH of every pandoc subprocess.
func WithBundledDir(dir string) Option {
	return func(p *Pandoc) {
		p.bundledDir = dir
	}
}

// WithSearchPaths appends extra pandoc candidates after the platform defaults.
func WithSearchPaths(paths ...string) Option {
	return func(p *Pandoc) {
		p.searchPaths = append(p.searchPaths, paths...)
	}
}

// WithEnvVar changes the name of the environment variable that, when set,
// is the only pandoc location considered (default: GOPANDOC_PANDOC).
func WithEnvVar(name string) Option {
	return func(p *Pandoc) {
		p.envVar = name
	}
}

// WithTracerProvider sets the provider for conversion spans (default: the
// global otel provider).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pandoc) {
		if tp != nil {
			p.tracer = tp.Tracer(tracerName)
		}
	}
}

// ConvertOption configures a single conversion.
type ConvertOption func(*convertConfig)

type convertConfig struct {
	outputFile string
	extraArgs  []string
	filters    []string
	encoding   string
	verify     bool
	sandbox    bool
	workDir    string
	timeout    time.Duration
}

func newConvertConfig(opts []ConvertOption) convertConfig {
	cfg := convertConfig{
		encoding: DefaultEncoding,
		verify:   true,
		sandbox:  true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithOutputFile makes pandoc write to path; the returned text is then
// usually empty. Binary formats and pdf require it.
func WithOutputFile(path string) ConvertOption {
	return func(c *convertConfig) {
		c.outputFile = path
	}
}

// WithExtraArgs appends arguments to the pandoc command line verbatim.
func WithExtraArgs(args ...string) ConvertOption {
	return func(c *convertConfig) {
		c.extraArgs = append(c.extraArgs, args...)
	}
}

// WithFilters adds one --filter argument per name.
func WithFilters(names ...string) ConvertOption {
	return func(c *convertConfig) {
		c.filters = append(c.filters, names...)
	}
}

// WithFilterString adds filters given as one whitespace separated string.
func WithFilterString(names string) ConvertOption {
	return WithFilters(strings.Fields(names)...)
}

// WithEncoding sets the charset of byte input (default: utf-8). Use
// AutoEncoding to detect it.
func WithEncoding(charset string) ConvertOption {
	return func(c *convertConfig) {
		c.encoding = charset
	}
}

// WithVerifyFormat toggles checking formats against pandoc's format lists
// (default: true). Turning it off saves two pandoc calls per process.
func WithVerifyFormat(verify bool) ConvertOption {
	return func(c *convertConfig) {
		c.verify = verify
	}
}

// WithSandbox toggles pandoc's --sandbox mode (default: true). It only has
// an effect on pandoc 2.15 and newer.
func WithSandbox(sandbox bool) ConvertOption {
	return func(c *convertConfig) {
		c.sandbox = sandbox
	}
}

// WithWorkDir runs pandoc in dir. Relative paths in the request are
// interpreted by pandoc relative to it.
func WithWorkDir(dir string) ConvertOption {
	return func(c *convertConfig) {
		c.workDir = dir
	}
}

// WithTimeout kills pandoc when it runs longer than d. By default there is
// no limit beyond the context passed in.
func WithTimeout(d time.Duration) ConvertOption {
	return func(c *convertConfig) {
		c.timeout = d
	}
}
