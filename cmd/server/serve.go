package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/spacetraveling/internal/middleware"
	"github.com/dfryer1193/spacetraveling/internal/rest"
	"github.com/dfryer1193/spacetraveling/shared/config"
	webhook "github.com/dfryer1193/spacetraveling/webhook/http"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	var (
		prebuild bool
		port     int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pages, generating unknown ones on first request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				cfg.Port = port
			}
			return serve(cmd.Context(), cfg, prebuild)
		},
	}
	cmd.Flags().BoolVar(&prebuild, "prebuild", true, "generate every known page before accepting requests")
	cmd.Flags().IntVar(&port, "port", 0, "listen port; overrides PORT")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, prebuild bool) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close dependencies")
		}
	}()

	if prebuild {
		// Pages that fail here are generated on first request instead.
		if _, err := a.generator.Prebuild(ctx); err != nil {
			log.Warn().Err(err).Msg("Prebuild failed, serving with fallback rendering only")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	var hooks rest.WebhookRoutes
	if h := webhook.NewWebhookHandler(cfg.WebhookSecret, a.generator); h != nil {
		hooks = h
	} else {
		log.Warn().Msg("WEBHOOK_SECRET is not set, content webhook disabled")
	}

	posts := rest.NewPostsHandler(a.generator, a.content, a.dates.Locale())
	if err := rest.NewApi(router, posts, hooks, a.metrics.Handler()); err != nil {
		return fmt.Errorf("failed to set up routes: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msg("Starting server on port :" + fmt.Sprint(cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
