package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/robinvdvleuten/looker/config"
	"github.com/robinvdvleuten/looker/index"
	"github.com/robinvdvleuten/looker/telemetry"
)

type BuildCmd struct {
	Dir        string   `help:"Directory to index." arg:"" optional:"" default:"." type:"existingdir"`
	IndexDir   string   `help:"Directory to store the index in (defaults to the configured index_dir)." placeholder:"DIR"`
	Extensions []string `help:"File extensions to index (defaults to the configured extensions)." short:"e" placeholder:"EXT"`
	Hidden     bool     `help:"Also index files in hidden directories."`
}

func (cmd *BuildCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	if len(cmd.Extensions) > 0 {
		cfg.Extensions = cmd.Extensions
	}

	logger := globals.Logger(ctx.Stderr)
	defer func() { _ = logger.Sync() }()

	runCtx, report := startTelemetry(context.Background(), ctx, globals, fmt.Sprintf("build %s", cmd.Dir))
	defer report()

	b := &builder{cfg: cfg, logger: logger, hidden: cmd.Hidden}
	if isTerminalWriter(ctx.Stderr) {
		b.progress = ctx.Stderr
	}

	dir := indexDir(cmd.IndexDir, cfg)
	ix, err := b.build(runCtx, cmd.Dir, dir)
	if err != nil {
		return err
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Indexed %s into %s", describe(ix.Len(), "file", "files"), pathStyle.Render(dir)))
	return nil
}

// builder indexes a directory tree and saves the index.
type builder struct {
	cfg    *config.Config
	logger *zap.Logger
	hidden bool

	// progress receives a progress bar when set.
	progress io.Writer
}

func (b *builder) build(ctx context.Context, root, dir string) (*index.Index, error) {
	collector := telemetry.FromContext(ctx)

	reg, err := b.cfg.Registry(b.logger)
	if err != nil {
		return nil, err
	}
	analyzer, err := reg.Get(index.AnalyzerC)
	if err != nil {
		return nil, err
	}

	loadTimer := collector.Start("load files")
	ldr := b.cfg.Loader(b.logger)
	ldr.Hidden = b.hidden
	result, err := ldr.Load(ctx, root)
	loadTimer.End()
	if err != nil {
		return nil, err
	}
	collector.Count("files", len(result.Files))
	collector.Count("skipped", result.Skipped)

	var bar *progressbar.ProgressBar
	if b.progress != nil && len(result.Files) > 0 {
		bar = progressbar.NewOptions(len(result.Files),
			progressbar.OptionSetWriter(b.progress),
			progressbar.OptionSetDescription("Indexing"),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	indexTimer := collector.Start("index files")
	w := index.NewWriter(index.AnalyzerC, analyzer)
	for _, f := range result.Files {
		if err := ctx.Err(); err != nil {
			indexTimer.End()
			return nil, err
		}

		w.Add(f.Path, f.Contents)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	ix := w.Commit()
	indexTimer.End()
	collector.Count("terms", ix.Vocabulary())

	saveTimer := collector.Start("save index")
	err = index.Save(dir, ix)
	saveTimer.End()
	if err != nil {
		return nil, err
	}

	b.logger.Debug("saved index",
		zap.String("dir", dir),
		zap.Int("documents", ix.Len()),
		zap.Int("terms", ix.Vocabulary()),
	)

	return ix, nil
}
