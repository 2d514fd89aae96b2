package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/robinvdvleuten/looker/config"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Config    string `help:"Configuration file (defaults to ${config_file} when present)." type:"path" placeholder:"FILE"`
	Verbose   bool   `help:"Log debug information." short:"v"`
	Telemetry bool   `help:"Show timing telemetry for operations."`
}

// LoadConfig reads the configuration named by --config, or the default
// file in the working directory, falling back to defaults when neither
// exists.
func (g *Globals) LoadConfig() (*config.Config, error) {
	if g.Config != "" {
		return config.Load(g.Config)
	}

	cfg, err := config.Load(config.DefaultFile)
	if errors.Is(err, fs.ErrNotExist) {
		return config.New(), nil
	}
	return cfg, err
}

// Logger returns a console logger writing to w. It logs warnings and
// above, or everything with --verbose.
func (g *Globals) Logger(w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if g.Verbose {
		level = zapcore.DebugLevel
	}

	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.TimeKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoder),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

// indexDir returns flag when set, otherwise the configured index directory.
func indexDir(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.IndexDir
}

// intOption returns flag unless it is negative, otherwise the configured value.
func intOption(flag, configured int) int {
	if flag < 0 {
		return configured
	}
	return flag
}

type Commands struct {
	Globals

	Init   InitCmd   `cmd:"" help:"Write a default configuration file."`
	Build  BuildCmd  `cmd:"" help:"Index the source files of a directory."`
	Search SearchCmd `cmd:"" help:"Search the index for a phrase of C tokens."`
	Watch  WatchCmd  `cmd:"" help:"Index a directory and keep the index up to date."`
	Doctor DoctorCmd `cmd:"" help:"Doctor utilities for debugging tokenization and matching."`
}

// fileExists reports whether path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// describe formats a count with a singular or plural noun.
func describe(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
