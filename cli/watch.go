package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type WatchCmd struct {
	Dir      string        `help:"Directory to index and watch." arg:"" optional:"" default:"." type:"existingdir"`
	IndexDir string        `help:"Directory to store the index in (defaults to the configured index_dir)." placeholder:"DIR"`
	Debounce time.Duration `help:"Quiet period after a change before the index is rebuilt." default:"100ms"`
}

func (cmd *WatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}

	logger := globals.Logger(ctx.Stderr)
	defer func() { _ = logger.Sync() }()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dir := indexDir(cmd.IndexDir, cfg)
	b := &builder{cfg: cfg, logger: logger}

	ix, err := b.build(runCtx, cmd.Dir, dir)
	if err != nil {
		return err
	}
	printSuccess(ctx.Stdout, fmt.Sprintf("Indexed %s into %s", describe(ix.Len(), "file", "files"), pathStyle.Render(dir)))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	tw := &treeWatcher{
		watcher:  watcher,
		matches:  cfg.Loader(logger).Matches,
		debounce: cmd.Debounce,
		logger:   logger,
	}
	if err := tw.addTree(cmd.Dir); err != nil {
		_ = watcher.Close()
		return err
	}

	printInfof(ctx.Stdout, "Watching %s for changes", pathStyle.Render(cmd.Dir))

	return tw.run(runCtx, func(rebuildCtx context.Context) error {
		ix, err := b.build(rebuildCtx, cmd.Dir, dir)
		if err != nil {
			return err
		}
		printSuccess(ctx.Stdout, fmt.Sprintf("Reindexed %s", describe(ix.Len(), "file", "files")))
		return nil
	})
}

// treeWatcher watches a directory tree and calls back after source files
// change. Changes are debounced since editors often write a file in
// several steps.
type treeWatcher struct {
	watcher  *fsnotify.Watcher
	matches  func(path string) bool
	debounce time.Duration
	logger   *zap.Logger
}

// addTree watches root and every directory below it that is not hidden.
func (tw *treeWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			tw.logger.Warn("failed to walk path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := tw.watcher.Add(path); err != nil {
			tw.logger.Warn("failed to watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

// run processes events until ctx is done. It closes the watcher on return.
func (tw *treeWatcher) run(ctx context.Context, rebuild func(context.Context) error) error {
	var debounceTimer *time.Timer
	fire := make(chan struct{}, 1)

	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = tw.watcher.Close()
	}()

	schedule := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(tw.debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-tw.watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if strings.HasPrefix(filepath.Base(event.Name), ".") {
						continue
					}
					// Files may land in the directory before it is watched.
					if err := tw.addTree(event.Name); err != nil {
						tw.logger.Warn("failed to watch directory", zap.String("path", event.Name), zap.Error(err))
					}
					schedule()
					continue
				}
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !tw.matches(event.Name) {
				continue
			}

			tw.logger.Debug("source changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			schedule()

		case <-fire:
			if err := rebuild(ctx); err != nil {
				tw.logger.Error("failed to rebuild index", zap.Error(err))
			}

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return nil
			}
			tw.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}
