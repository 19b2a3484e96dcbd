// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"marketplace/internal/cache"
	"marketplace/internal/catalog"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/events"
	"marketplace/internal/logger"
	"marketplace/internal/store"
)

// app holds the connections shared by the commands that touch the database.
type app struct {
	cfg       *config.Config
	log       logger.Logger
	db        *sqlx.DB
	valkey    *redis.Client
	publisher events.Publisher
	catalog   *catalog.Service
}

// bootstrap loads the configuration and builds the logger.
func bootstrap() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "load configuration")
	}
	log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
	return cfg, log, nil
}

// instanceName identifies this process in event sources and consumer groups.
func instanceName(role string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = uuid.NewString()[:8]
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), role)
}

// newApp connects to PostgreSQL, applies migrations and builds the catalog
// service. Valkey is required when needCache is set; otherwise the tree
// cache is skipped if it cannot be reached.
func newApp(cfg *config.Config, log logger.Logger, role string, needCache bool) (*app, error) {
	db, err := database.Connect(cfg.DSN(), log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db.DB, log); err != nil {
		db.Close()
		return nil, err
	}

	a := &app{cfg: cfg, log: log, db: db}
	opts := []catalog.Option{
		catalog.WithMaxDepth(cfg.MaxDepth),
		catalog.WithSource(cfg.ServiceName + "/" + instanceName(role)),
		catalog.WithInvalidationLog(store.NewCacheLogStore(db, log)),
	}

	a.valkey, err = cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, log)
	switch {
	case err == nil:
		opts = append(opts, catalog.WithCache(cache.NewTreeCache(a.valkey, cfg.TreeCacheTTL, log)))
	case needCache:
		a.close(context.Background())
		return nil, err
	default:
		log.Warn("valkey not reachable, tree cache disabled", logger.Error(err))
	}

	if cfg.EventsEnabled() {
		p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			a.close(context.Background())
			return nil, err
		}
		a.publisher = p
	} else {
		log.Warn("kafka brokers not configured, change events disabled")
		a.publisher = events.NopPublisher{Log: log}
	}

	a.catalog = catalog.New(store.NewCategoryStore(db), a.publisher, log, opts...)
	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.publisher != nil {
		if err := a.publisher.Close(ctx); err != nil {
			a.log.Error("close publisher", logger.Error(err))
		}
	}
	if a.valkey != nil {
		a.valkey.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	a.log.Sync()
}
