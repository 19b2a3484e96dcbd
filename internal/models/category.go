// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a taxonomy node used to classify marketplace listings.
// A nil ParentID marks a root. ID is uuid.Nil until the record is persisted.
type Category struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Slug      string     `json:"slug" db:"slug"`
	ParentID  *uuid.UUID `json:"parent_category_id,omitempty" db:"parent_id"`
	SortOrder int        `json:"sort_order" db:"sort_order"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ModifiedAt time.Time  `json:"modified_at" db:"updated_at"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	ModifiedBy *uuid.UUID `json:"modified_by,omitempty" db:"modified_by"`
}

// Identity returns the category ID and whether it has been persisted.
func (c Category) Identity() (uuid.UUID, bool) {
	return c.ID, c.ID != uuid.Nil
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return c.ParentID == nil
}

// CategoryInput carries the mutable fields of a create or update request.
type CategoryInput struct {
	Name     string     `json:"name"`
	Slug     string     `json:"slug,omitempty"`
	ParentID *uuid.UUID `json:"parent_category_id,omitempty"`
	ActorID  *uuid.UUID `json:"-"`
}

// ReorderItem represents a single item in a reorder request.
type ReorderItem struct {
	ID       uuid.UUID  `json:"id"`
	ParentID *uuid.UUID `json:"parent_category_id"`
	Order    int        `json:"order"`
}
