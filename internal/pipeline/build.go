package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/DeafMist/assembly-news-radar/internal/cache"
	"github.com/DeafMist/assembly-news-radar/internal/classify"
	"github.com/DeafMist/assembly-news-radar/internal/config"
	"github.com/DeafMist/assembly-news-radar/internal/dedupe"
	"github.com/DeafMist/assembly-news-radar/internal/entity"
	"github.com/DeafMist/assembly-news-radar/internal/fetcher"
	"github.com/DeafMist/assembly-news-radar/internal/models"
	"github.com/DeafMist/assembly-news-radar/internal/publish"
)

// NewFromConfig wires a Service from configuration. The returned func
// releases the publisher, if any.
func NewFromConfig(cfg *config.Pipeline, log *slog.Logger) (*Service, func(), error) {
	var entities []models.Entity
	if cfg.EntitiesPath != "" {
		loaded, err := entity.LoadFile(cfg.EntitiesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load entity directory: %w", err)
		}
		entities = loaded
	}

	deps := Deps{
		Fetcher:      fetcher.New(cfg.Search, log),
		Classifier:   classify.New(cfg.Policy.Policy),
		Deduplicator: dedupe.New(cfg.FuzzyThreshold),
		Cache:        cache.NewCache(cfg.CacheCapacity, cfg.CacheTTL, nil),
		Directory:    entity.NewDirectory(entities),
		Log:          log,
	}

	cleanup := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		pub := publish.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		deps.Publisher = pub
		cleanup = func() {
			if err := pub.Close(); err != nil {
				log.Error("close kafka publisher", slog.Any("err", err))
			}
		}
	}

	log.Info("pipeline configured",
		slog.Int("keywords", len(cfg.Policy.Keywords)),
		slog.Int("entities", len(entities)),
		slog.Duration("cache_ttl", deps.Cache.TTL()),
		slog.Float64("fuzzy_threshold", deps.Deduplicator.Threshold()),
		slog.Bool("kafka", deps.Publisher != nil),
	)

	svc := New(deps, Options{
		Keywords:        cfg.Policy.Keywords,
		Display:         cfg.Display,
		MaxParallel:     cfg.MaxParallel,
		BreakingWindow:  cfg.BreakingWindow,
		HistoryWindow:   cfg.HistoryWindow,
		RefreshInterval: cfg.RefreshInterval,
		SweepInterval:   cfg.SweepInterval,
	})
	return svc, cleanup, nil
}
