// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache_log.go records tree cache invalidations in the database so operators
// can see which category change flushed the cached trees, and whether it came
// from this instance or from a change event.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"marketplace/internal/logger"
)

// CacheLogStore handles cache invalidation log operations.
type CacheLogStore struct {
	db  *sqlx.DB
	log logger.Logger
}

// NewCacheLogStore creates a new CacheLogStore.
func NewCacheLogStore(db *sqlx.DB, log logger.Logger) *CacheLogStore {
	return &CacheLogStore{db: db, log: log}
}

// Log records a cache invalidation caused by action on the given categories.
// Failures are logged and swallowed.
func (s *CacheLogStore) Log(ctx context.Context, action, origin string, ids ...uuid.UUID) {
	for _, id := range ids {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO cache_invalidation_log (category_id, action, origin)
			VALUES ($1, $2, $3)
		`, id, action, origin)
		if err != nil {
			s.log.Warn("failed to log cache invalidation",
				logger.String("category_id", id.String()),
				logger.String("action", action),
				logger.Error(err),
			)
			return
		}
	}
	s.log.Debug("cache invalidation logged",
		logger.String("action", action),
		logger.String("origin", origin),
		logger.Int("categories", len(ids)),
	)
}

// RecentEntries returns the most recent cache invalidation events, newest first.
func (s *CacheLogStore) RecentEntries(ctx context.Context, limit int) ([]CacheLogEntry, error) {
	entries := []CacheLogEntry{}
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, category_id, action, origin, invalidated_at
		FROM cache_invalidation_log
		ORDER BY invalidated_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query cache log")
	}
	return entries, nil
}

// CacheLogEntry represents a single cache invalidation event.
type CacheLogEntry struct {
	ID            int64     `db:"id" json:"id"`
	CategoryID    uuid.UUID `db:"category_id" json:"category_id"`
	Action        string    `db:"action" json:"action"`
	Origin        string    `db:"origin" json:"origin"`
	InvalidatedAt time.Time `db:"invalidated_at" json:"invalidated_at"`
}
