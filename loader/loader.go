// Package loader collects the source files of a directory tree for indexing.
//
// A Loader walks a root directory in lexical order and reads every regular
// file whose extension is configured. Hidden directories such as .git or
// the index directory itself are skipped unless requested otherwise.
//
// Example usage:
//
//	// Load C sources and headers below the current directory
//	ldr := loader.New()
//	result, err := ldr.Load(ctx, ".")
//
//	// Load only headers, logging unreadable files
//	ldr := loader.New(loader.WithExtensions(".h"), loader.WithLogger(logger))
//	result, err := ldr.Load(ctx, "include")
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultExtensions are the file extensions loaded when none are configured.
var DefaultExtensions = []string{".c", ".h"}

// File is a loaded source file.
type File struct {
	// Path is the path of the file as reached from the root passed to Load.
	Path     string
	Contents string
}

// Result holds the files found below a root.
type Result struct {
	// Root is the absolute path of the walked root.
	Root  string
	Files []File
	// Skipped counts files that matched but could not be read.
	Skipped int
}

// Loader collects source files from a directory tree.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithExtensions(".c", ".h"), WithHidden())
type Loader struct {
	// Extensions lists the accepted file extensions, including the dot.
	Extensions []string

	// Hidden determines whether directories whose name starts with a dot
	// are walked.
	Hidden bool

	logger *zap.Logger
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithExtensions replaces the accepted file extensions. A missing leading
// dot is added. Calling it with no extensions keeps the defaults.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) {
		if len(exts) == 0 {
			return
		}
		l.Extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			l.Extensions = append(l.Extensions, ext)
		}
	}
}

// WithHidden configures the loader to walk hidden directories too.
func WithHidden() Option {
	return func(l *Loader) {
		l.Hidden = true
	}
}

// WithLogger sets the logger used to report files that are skipped.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{
		Extensions: DefaultExtensions,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Matches reports whether path has one of the accepted extensions.
func (l *Loader) Matches(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range l.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// Load reads every accepted file below root. A root that is a regular file
// is loaded on its own regardless of its extension. Files that cannot be
// read are logged and counted in Result.Skipped.
func (l *Loader) Load(ctx context.Context, root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", root, err)
	}

	result := &Result{Root: absRoot}

	if !info.IsDir() {
		data, err := os.ReadFile(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", root, err)
		}
		result.Files = append(result.Files, File{Path: root, Contents: string(data)})
		return result, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		// Check for cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if path == root {
				return err
			}
			l.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && !l.Hidden && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !l.Matches(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable file", zap.String("file", path), zap.Error(err))
			result.Skipped++
			return nil
		}

		result.Files = append(result.Files, File{Path: path, Contents: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	l.logger.Debug("loaded files",
		zap.String("root", absRoot),
		zap.Int("files", len(result.Files)),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}
