package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/app"
	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/config"
	"github.com/ironsheep/coloring-mcp/internal/ingest"
	"github.com/ironsheep/coloring-mcp/internal/logging"
)

// cliOptions are the command-line overrides applied on top of the config.
type cliOptions struct {
	dir        string
	maxImages  int
	batchSize  int
	noLabel    bool
	threshold  float64
	source     string
	statsOnly  bool
	storageDir string
}

func parseFlags(args []string, out io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("coloring-ingest", flag.ContinueOnError)
	fs.SetOutput(out)

	opts := &cliOptions{}
	fs.StringVar(&opts.dir, "dir", "", "directory of portraits to ingest")
	fs.IntVar(&opts.maxImages, "max-images", 0, "stop after this many new images (0 = no limit)")
	fs.IntVar(&opts.batchSize, "batch-size", 0, "catalog insert batch size (0 = config value)")
	fs.BoolVar(&opts.noLabel, "no-auto-label", false, "store images without predicting labels")
	fs.Float64Var(&opts.threshold, "threshold", -1, "confidence at or above which labels are ai_predicted (-1 = config value)")
	fs.StringVar(&opts.source, "source", "", "source name recorded on each image (default from config)")
	fs.StringVar(&opts.storageDir, "storage", "", "directory originals and thumbnails are written to")
	fs.BoolVar(&opts.statsOnly, "stats", false, "print catalog statistics and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.dir == "" && !opts.statsOnly {
		return nil, fmt.Errorf("--dir is required")
	}
	if opts.threshold > 1 {
		return nil, fmt.Errorf("--threshold must be between 0 and 1")
	}
	return opts, nil
}

// apply folds the flags into the ingest options and configuration.
func (o *cliOptions) apply(cfg *config.Config, opts *ingest.Options) {
	if o.source != "" {
		opts.Source = o.source
	}
	if o.batchSize > 0 {
		opts.BatchSize = o.batchSize
	}
	if o.maxImages > 0 {
		opts.MaxImages = o.maxImages
	}
	if o.noLabel {
		opts.AutoLabel = false
	}
	if o.threshold >= 0 {
		opts.AutoLabelThreshold = o.threshold
	}
	if o.storageDir != "" {
		cfg.Ingest.StorageDir = o.storageDir
	}
}

func main() {
	cli, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "coloring-ingest: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, cli, logger, os.Stdout); err != nil {
		logger.Fatal("ingest failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, cli *cliOptions, logger *zap.Logger, out io.Writer) error {
	repo, err := app.Catalog(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if !cli.statsOnly {
		opts := app.IngestOptions(cfg)
		cli.apply(cfg, &opts)

		locator, err := app.Locator(cfg, logger)
		if err != nil {
			return err
		}
		storage := ingest.LocalStorage{Root: cfg.Ingest.StorageDir}
		ingester := ingest.New(repo, storage, locator, classifier.New(nil), opts, logger)

		summary, err := ingester.Run(ctx, cli.dir)
		if err != nil {
			return err
		}
		if err := writeJSON(out, "summary", summary); err != nil {
			return err
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		return err
	}
	dist, err := repo.Distribution(ctx)
	if err != nil {
		return err
	}
	if err := writeJSON(out, "catalog", stats); err != nil {
		return err
	}
	return writeJSON(out, "distribution", dist)
}

func writeJSON(w io.Writer, title string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s:\n%s\n", title, data)
	return err
}
