// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/events"
	"marketplace/internal/export"
	"marketplace/internal/handlers"
	"marketplace/internal/logger"
	"marketplace/internal/middleware"
	"marketplace/internal/router"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the category HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(parent context.Context, cfg *config.Config, log logger.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("configuration loaded",
		logger.String("env", cfg.Env),
		logger.String("addr", cfg.Addr()),
	)

	a, err := newApp(cfg, log, "api", true)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(ctx, a.db, log); err != nil {
			return err
		}
	}

	if err := a.catalog.Reload(ctx); err != nil {
		return err
	}

	// Other instances announce their changes on the topic; each instance
	// reads every event, so it joins a consumer group of its own.
	if cfg.EventsEnabled() {
		group := cfg.KafkaGroupID + "-" + instanceName("api")
		sub, err := events.NewSubscriber(cfg.KafkaBrokers, group, cfg.KafkaTopic, a.catalog.Apply, log)
		if err != nil {
			return err
		}
		defer sub.Close()
		go func() {
			if err := sub.Run(ctx); err != nil {
				log.Error("subscriber stopped", logger.Error(err))
			}
		}()
	}

	var uploader handlers.Uploader
	if cfg.UploadsEnabled() {
		client, err := export.NewMinioClient(cfg.MinioEndpoint, cfg.MinioAccessKeyID, cfg.MinioSecretKey, cfg.MinioSecure)
		if err != nil {
			return err
		}
		uploader = export.NewUploader(client, cfg.MinioBucket, log)
		log.Info("object storage configured",
			logger.String("endpoint", cfg.MinioEndpoint),
			logger.String("bucket", cfg.MinioBucket),
		)
	} else {
		log.Warn("object storage not configured, export uploads disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, log)
	defer limiter.Stop()

	r := router.New(log, handlers.NewCategories(a.catalog, uploader, log), limiter)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", logger.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed to start", logger.Error(err))
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", logger.Error(err))
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}
