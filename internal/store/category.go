// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"marketplace/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sqlx.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sqlx.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, parent_id, sort_order, created_at, updated_at, created_by, modified_by`

// List returns every category as a flat collection ordered by sort_order,
// then creation time. The nesting is left to categorytree.Build.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	items := []models.Category{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT `+categoryColumns+`
		FROM categories
		ORDER BY sort_order, created_at, id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return items, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	err := s.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find category by id")
	}
	return &c, nil
}

// Create inserts a new category and returns it as stored.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	var created models.Category
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO categories (name, slug, parent_id, sort_order, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.ParentID, c.SortOrder, c.CreatedBy,
	).StructScan(&created)
	if err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return &created, nil
}

// Update modifies name, slug, parent and sort order of an existing category
// and returns the stored row. Returns nil if the category does not exist.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	var updated models.Category
	err := s.db.QueryRowxContext(ctx, `
		UPDATE categories SET
			name = $1, slug = $2, parent_id = $3, sort_order = $4,
			modified_by = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.ParentID, c.SortOrder, c.ModifiedBy, c.ID,
	).StructScan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "update category")
	}
	return &updated, nil
}

// DeleteMany removes the given categories and returns how many rows went.
// Children not listed are removed by the ON DELETE CASCADE constraint.
func (s *CategoryStore) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ANY ($1::uuid[])`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, errors.Wrap(err, "delete categories")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "delete categories rows affected")
	}
	return n, nil
}

// Reorder updates sort_order and parent_id for multiple categories in a transaction.
func (s *CategoryStore) Reorder(ctx context.Context, items []models.ReorderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		UPDATE categories SET parent_id = $1, sort_order = $2, updated_at = $3
		WHERE id = $4`)
	if err != nil {
		return errors.Wrap(err, "prepare reorder")
	}
	defer stmt.Close()

	now := time.Now()
	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, item.ParentID, item.Order, now, item.ID); err != nil {
			return errors.Wrapf(err, "reorder category %s", item.ID)
		}
	}

	return errors.Wrap(tx.Commit(), "commit reorder")
}

// NextSortOrder returns the next sort_order value for a given parent.
func (s *CategoryStore) NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	var err error
	if parentID == nil {
		err = s.db.GetContext(ctx, &maxOrder, `SELECT MAX(sort_order) FROM categories WHERE parent_id IS NULL`)
	} else {
		err = s.db.GetContext(ctx, &maxOrder, `SELECT MAX(sort_order) FROM categories WHERE parent_id = $1`, *parentID)
	}
	if err != nil {
		return 0, errors.Wrap(err, "next sort order")
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 0, nil
}

// SlugExists reports whether a category other than excludeID uses slug.
func (s *CategoryStore) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`, slug, excludeID)
	if err != nil {
		return false, errors.Wrap(err, "check category slug")
	}
	return exists, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
