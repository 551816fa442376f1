// Package config loads rendr.yaml and applies RENDR_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/3-lines-studio/rendr/internal/core"
)

const DefaultFile = "rendr.yaml"

const (
	LoaderBun  = "bun"
	LoaderNode = "node"
	LoaderGo   = "go"
)

var ErrUnknownLoader = errors.New("unknown loader")

type Config struct {
	Root       string      `yaml:"root"`
	Loader     string      `yaml:"loader"`
	Ext        string      `yaml:"ext"`
	ExcludeDir string      `yaml:"exclude_dir"`
	Serve      ServeConfig `yaml:"serve"`
	Build      BuildConfig `yaml:"build"`
	Log        LogConfig   `yaml:"log"`
}

type ServeConfig struct {
	Addr   string `yaml:"addr"`
	Reload bool   `yaml:"reload"`
}

type BuildConfig struct {
	OutDir      string `yaml:"out_dir"`
	PublicDir   string `yaml:"public_dir"`
	Concurrency int    `yaml:"concurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Root:       ".",
		Loader:     LoaderBun,
		ExcludeDir: core.DependencyCacheDir,
		Serve: ServeConfig{
			Addr:   ":5173",
			Reload: true,
		},
		Build: BuildConfig{
			OutDir:    "dist",
			PublicDir: "public",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
// Environment overrides are applied last.
// Load reads the config file at path and validates it. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Read is Load without validation, for callers that apply further overrides
// before calling Validate.
func Read(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := Parse(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from RENDR_* variables. lookup is os.LookupEnv
// outside of tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"RENDR_ROOT":       &c.Root,
		"RENDR_LOADER":     &c.Loader,
		"RENDR_EXT":        &c.Ext,
		"RENDR_ADDR":       &c.Serve.Addr,
		"RENDR_OUT_DIR":    &c.Build.OutDir,
		"RENDR_PUBLIC_DIR": &c.Build.PublicDir,
		"RENDR_LOG_LEVEL":  &c.Log.Level,
	}
	for key, field := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}

	if v, ok := lookup("RENDR_RELOAD"); ok && v != "" {
		reload, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RENDR_RELOAD: %w", err)
		}
		c.Serve.Reload = reload
	}

	return nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Loader {
	case LoaderBun, LoaderNode, LoaderGo:
	default:
		errs = append(errs, fmt.Errorf("%w: %q (want bun, node or go)", ErrUnknownLoader, c.Loader))
	}

	if c.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if c.Ext != "" && !strings.HasPrefix(c.Ext, ".") {
		errs = append(errs, fmt.Errorf("ext %q must start with a dot", c.Ext))
	}
	if c.Build.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("build.concurrency must not be negative, got %d", c.Build.Concurrency))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be console or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ModuleExt is the configured extension, or the loader's default.
func (c *Config) ModuleExt() string {
	if c.Ext != "" {
		return c.Ext
	}
	if c.Loader == LoaderGo {
		return ".go"
	}
	return core.DefaultModuleExt
}

func (c *Config) Suffix() string {
	return core.RenderSuffix(c.ModuleExt())
}
