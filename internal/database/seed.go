package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"marketplace/internal/logger"
)

type seedCategory struct {
	name   string
	slug   string
	parent string
}

// seedCategories is inserted in order; parent refers to an earlier slug.
var seedCategories = []seedCategory{
	{name: "Wood", slug: "wood"},
	{name: "Hardwood", slug: "hardwood", parent: "wood"},
	{name: "Metal", slug: "metal"},
}

// Seed populates an empty categories table with a small development taxonomy.
func Seed(ctx context.Context, db *sqlx.DB, log logger.Logger) error {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM categories"); err != nil {
		return errors.Wrap(err, "seed check categories")
	}

	if count > 0 {
		log.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "seed begin tx")
	}
	defer tx.Rollback()

	for i, c := range seedCategories {
		var parent interface{}
		if c.parent != "" {
			parent = c.parent
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, slug, parent_id, sort_order)
			VALUES ($1, $2, (SELECT id FROM categories WHERE slug = $3), $4)
		`, c.name, c.slug, parent, i)
		if err != nil {
			return errors.Wrapf(err, "seed insert %s", c.slug)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "seed commit")
	}

	log.Info("database seeded with sample categories", logger.Int("count", len(seedCategories)))
	return nil
}
