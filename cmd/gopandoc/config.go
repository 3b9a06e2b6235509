package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	pandoc "github.com/nicholasgasior/pandoc-go"
)

// fileConfig holds conversion defaults read from --config.
type fileConfig struct {
	Executable string        `yaml:"executable"`
	Sandbox    *bool         `yaml:"sandbox"`
	Verify     *bool         `yaml:"verify"`
	Filters    []string      `yaml:"filters"`
	ExtraArgs  []string      `yaml:"extra_args"`
	Encoding   string        `yaml:"encoding"`
	WorkDir    string        `yaml:"workdir"`
	Timeout    time.Duration `yaml:"timeout"`
}

// loadConfig reads path. An empty path yields empty defaults.
func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return cfg, decodeConfig(f, cfg)
}

func decodeConfig(r io.Reader, cfg *fileConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// applyEnv makes executable the pandoc override unless the environment
// already names one.
func (c *fileConfig) applyEnv(log *slog.Logger) {
	if c.Executable == "" {
		return
	}
	if v := os.Getenv(pandoc.DefaultEnvVar); v != "" {
		log.Debug("config executable ignored, override variable is set", "env", v)
		return
	}
	os.Setenv(pandoc.DefaultEnvVar, c.Executable)
}

func (c *fileConfig) options() []pandoc.ConvertOption {
	var opts []pandoc.ConvertOption
	if c.Sandbox != nil {
		opts = append(opts, pandoc.WithSandbox(*c.Sandbox))
	}
	if c.Verify != nil {
		opts = append(opts, pandoc.WithVerifyFormat(*c.Verify))
	}
	if len(c.Filters) > 0 {
		opts = append(opts, pandoc.WithFilters(c.Filters...))
	}
	if len(c.ExtraArgs) > 0 {
		opts = append(opts, pandoc.WithExtraArgs(c.ExtraArgs...))
	}
	if c.Encoding != "" {
		opts = append(opts, pandoc.WithEncoding(c.Encoding))
	}
	if c.WorkDir != "" {
		opts = append(opts, pandoc.WithWorkDir(c.WorkDir))
	}
	if c.Timeout > 0 {
		opts = append(opts, pandoc.WithTimeout(c.Timeout))
	}
	return opts
}

// loadEnvFile loads variables from path without overriding existing ones.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
