package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfryer1193/spacetraveling/blog/application"
	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/blog/persistence"
	"github.com/dfryer1193/spacetraveling/internal/metrics"
	"github.com/dfryer1193/spacetraveling/shared/config"
	"github.com/dfryer1193/spacetraveling/shared/db/sqlite"
	"github.com/dfryer1193/spacetraveling/shared/prismic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// app holds the wired dependencies shared by every command.
type app struct {
	content   *prismic.Client
	pages     domain.PageRepository
	dates     *application.DateFormatter
	generator *application.PageGenerator
	metrics   *metrics.Metrics

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	content, err := prismic.NewClient(nil, cfg.PrismicEndpoint, cfg.PrismicAccessToken)
	if err != nil {
		return nil, err
	}
	a.content = content

	pages, err := a.openPageStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pages = pages

	richText, err := application.NewRichTextRenderer(cfg.SiteURL)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.dates = application.NewDateFormatter(cfg.SiteLocale)
	renderer := application.NewPostRenderer(a.dates, richText)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(reg)

	a.generator = application.NewPageGenerator(content, pages, renderer, a.dates,
		application.WithConcurrency(cfg.BuildConcurrency),
		application.WithObserver(a.metrics),
	)
	a.closers = append([]func() error{a.generator.Close}, a.closers...)

	return a, nil
}

func (a *app) openPageStore(ctx context.Context, cfg *config.Config) (domain.PageRepository, error) {
	switch cfg.PageStore {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, client.Close)

		repo := persistence.NewRedisPageRepository(client)
		if err := repo.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using redis page store")
		return repo, nil

	default:
		database := sqlite.NewSQLiteDB(cfg.SQLitePath)
		if err := database.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, database.Close)

		log.Info().Str("path", database.Path()).Msg("Using sqlite page store")
		return persistence.NewPageRepository(database.DB()), nil
	}
}

// Close stops background work first, then releases stores.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
