// Package app builds the shared services of the coloring binaries from a
// loaded configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/analysis"
	"github.com/ironsheep/coloring-mcp/internal/cache"
	"github.com/ironsheep/coloring-mcp/internal/catalog"
	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/config"
	"github.com/ironsheep/coloring-mcp/internal/facebox"
	"github.com/ironsheep/coloring-mcp/internal/ingest"
)

// Locator returns the configured region locator: the fixed boxes, or the
// Ollama vision model falling back to them.
func Locator(cfg *config.Config, logger *zap.Logger) (facebox.Locator, error) {
	fixed := facebox.Fixed{Skin: cfg.Regions.Skin, Hair: cfg.Regions.Hair}
	if !cfg.FaceBox.Enabled {
		return fixed, nil
	}
	client, err := facebox.NewOllamaClient(cfg.FaceBox.URL, cfg.FaceBox.Timeout.Std())
	if err != nil {
		return nil, err
	}
	logger.Info("face box detection enabled",
		zap.String("url", cfg.FaceBox.URL),
		zap.String("model", cfg.FaceBox.Model),
	)
	return facebox.NewVision(client, cfg.FaceBox.Model, fixed, logger), nil
}

// ResultCache connects the Redis result cache. It returns a nil store when
// caching is disabled. The returned close function is never nil.
func ResultCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: cfg.Cache.Addr, DB: cfg.Cache.DB})
	if err != nil {
		return nil, func() {}, err
	}
	logger.Info("result cache enabled", zap.String("addr", cfg.Cache.Addr))
	return cache.NewRedis(client, logger), func() { _ = client.Close() }, nil
}

// Analyzer builds the analysis service with its locator and cache.
func Analyzer(ctx context.Context, cfg *config.Config, predictor *classifier.Predictor, logger *zap.Logger) (*analysis.Service, func(), error) {
	locator, err := Locator(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("face box: %w", err)
	}
	store, closeCache, err := ResultCache(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	svc := analysis.New(analysis.Options{
		Locator:   locator,
		Predictor: predictor,
		Cache:     store,
		CacheTTL:  cfg.Cache.TTL.Std(),
		Logger:    logger,
	})
	return svc, closeCache, nil
}

// Catalog opens the Postgres catalog and migrates its schema.
func Catalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*catalog.Repository, error) {
	db, err := catalog.Open(ctx, cfg.Catalog.DSN)
	if err != nil {
		return nil, err
	}
	repo := catalog.NewRepository(db, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// IngestOptions maps the ingest section onto ingest.Options.
func IngestOptions(cfg *config.Config) ingest.Options {
	return ingest.Options{
		Source:             cfg.Ingest.Source,
		BatchSize:          cfg.Ingest.BatchSize,
		ThumbnailSize:      cfg.Ingest.ThumbnailSize,
		AutoLabel:          cfg.Ingest.AutoLabel,
		AutoLabelThreshold: cfg.Ingest.AutoLabelThreshold,
		DedupDistance:      cfg.Ingest.DedupDistance,
	}
}
