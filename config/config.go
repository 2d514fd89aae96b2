// Package config holds the settings shared by the looker commands.
//
// Settings are read from a YAML file; keys that are absent keep their
// defaults:
//
//	index_dir: .looker
//	extensions: [.c, .h]
//	max_token_len: 65536
//	recovery: truncate
//	limit: 3
//	context: 1
//	workers: 0
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/looker/index"
	"github.com/robinvdvleuten/looker/lexer"
	"github.com/robinvdvleuten/looker/loader"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = ".looker.yaml"

// Config represents the looker configuration.
type Config struct {
	IndexDir    string   `yaml:"index_dir"`
	Extensions  []string `yaml:"extensions"`
	MaxTokenLen int      `yaml:"max_token_len"`
	Recovery    string   `yaml:"recovery"`
	Limit       int      `yaml:"limit"`
	Context     int      `yaml:"context"`
	// Workers bounds the documents scanned in parallel; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// New returns a configuration with default values.
func New() *Config {
	return &Config{
		IndexDir:    ".looker",
		Extensions:  append([]string(nil), loader.DefaultExtensions...),
		MaxTokenLen: lexer.DefaultMaxTokenLen,
		Recovery:    lexer.Truncate.String(),
		Limit:       3,
		Context:     1,
		Workers:     0,
	}
}

// Load reads the configuration file at path on top of the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads YAML configuration from r on top of the defaults. Unknown
// keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := New()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Write stores the configuration as YAML at path.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.IndexDir == "" {
		return fmt.Errorf("index_dir must not be empty")
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	if c.MaxTokenLen <= 0 {
		return fmt.Errorf("max_token_len must be positive, got %d", c.MaxTokenLen)
	}
	if _, err := lexer.ParseRecovery(c.Recovery); err != nil {
		return err
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if c.Context < 0 {
		return fmt.Errorf("context must not be negative, got %d", c.Context)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Lexer returns the C lexer configured by c.
func (c *Config) Lexer(logger *zap.Logger) (*lexer.Lexer, error) {
	recovery, err := lexer.ParseRecovery(c.Recovery)
	if err != nil {
		return nil, err
	}

	return lexer.New(lexer.DefaultRules(),
		lexer.WithMaxTokenLen(c.MaxTokenLen),
		lexer.WithRecovery(recovery),
		lexer.WithLogger(logger),
	), nil
}

// Registry returns an analyzer registry holding the configured lexer under
// index.AnalyzerC.
func (c *Config) Registry(logger *zap.Logger) (*index.Registry, error) {
	lx, err := c.Lexer(logger)
	if err != nil {
		return nil, err
	}

	reg := index.NewRegistry()
	if err := reg.Register(index.AnalyzerC, lx); err != nil {
		return nil, err
	}
	return reg, nil
}

// Loader returns a loader accepting the configured extensions.
func (c *Config) Loader(logger *zap.Logger) *loader.Loader {
	return loader.New(loader.WithExtensions(c.Extensions...), loader.WithLogger(logger))
}
