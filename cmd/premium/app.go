package main

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rgehrsitz/premiumcalc/internal/calculation"
	"github.com/rgehrsitz/premiumcalc/internal/config"
	"github.com/rgehrsitz/premiumcalc/internal/logging"
	"github.com/rgehrsitz/premiumcalc/internal/metrics"
	"github.com/rgehrsitz/premiumcalc/internal/store/cache"
	"github.com/rgehrsitz/premiumcalc/internal/store/memory"
	"github.com/rgehrsitz/premiumcalc/internal/store/postgres"
)

// app holds everything a command needs: configuration, logger, metrics and
// the data source. Close releases connections and flushes metrics.
type app struct {
	cfg      *config.RatingConfig
	parser   *config.InputParser
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	source   calculation.DataSource
	postgres *postgres.Store
	cache    *cache.Store

	metricsFile string
	closers     []func() error
}

// newApp loads the rating configuration and builds the logger, metrics and data source
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	parser := config.NewInputParser()

	cfg := config.DefaultRatingConfig()
	if opts.configFile != "" {
		loaded, err := parser.LoadRatingConfig(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	a := &app{
		cfg:         &cfg,
		parser:      parser,
		logger:      logger,
		registry:    registry,
		metrics:     metrics.New(registry),
		metricsFile: opts.metricsFile,
	}

	if err := a.openDataSource(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// openDataSource builds the configured DataSource, optionally behind the Redis cache
func (a *app) openDataSource(ctx context.Context) error {
	ds := a.cfg.DataSource

	switch ds.Type {
	case "", config.DataSourceNone:
		a.logger.Debug("no data source configured; inputs must carry their own rates")
		return nil
	case config.DataSourceMemory:
		store, err := memory.Load(ds.Fixtures)
		if err != nil {
			return err
		}
		a.source = store
	case config.DataSourcePostgres:
		store, err := postgres.Open(ctx, ds.PostgresDSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)
		a.postgres = store
		a.source = store
	default:
		return fmt.Errorf("unknown datasource type %q", ds.Type)
	}
	a.logger.Info("data source opened", zap.String("type", ds.Type))

	if ds.Cache == nil {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     ds.Cache.Addr,
		Password: ds.Cache.Password,
		DB:       ds.Cache.DB,
	})
	a.closers = append(a.closers, client.Close)

	cacheOpts := []cache.Option{
		cache.WithPrefix(ds.Cache.Prefix),
		cache.WithLogger(a.logger.Named("cache")),
		cache.WithMetrics(a.metrics),
	}
	if ds.Cache.TTL > 0 {
		cacheOpts = append(cacheOpts, cache.WithTTL(ds.Cache.TTL))
	}
	a.cache = cache.New(client, a.source, cacheOpts...)
	a.source = a.cache
	a.logger.Info("redis cache enabled", zap.String("addr", ds.Cache.Addr))
	return nil
}

// engine creates a premium engine over the configured tables and data source
func (a *app) engine() (*calculation.PremiumEngine, error) {
	return calculation.NewPremiumEngine(a.cfg.Tables, a.source,
		calculation.WithLogger(a.logger.Named("engine")),
		calculation.WithMetrics(a.metrics),
		calculation.WithConcurrency(a.cfg.Engine.FetchConcurrency),
		calculation.WithFetchTimeout(a.cfg.Engine.FetchTimeout),
	)
}

// Close writes the metrics textfile when requested and releases connections
// in reverse order of opening
func (a *app) Close() error {
	var errs []error
	if a.metricsFile != "" {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.logger.Sync()
	return stderrors.Join(errs...)
}
