package handlers

import (
	"strings"
	"unicode/utf8"

	"marketplace/internal/models"
	"marketplace/internal/slug"
)

// Validation limits for category fields.
const (
	maxNameLen = 200
	maxSlugLen = slug.MaxLength
)

// validateCategory checks a create or update payload and returns the first
// error found.
func validateCategory(in models.CategoryInput) string {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	if in.Slug != "" {
		if utf8.RuneCountInString(in.Slug) > maxSlugLen {
			return "Slug is too long (max 200 characters)."
		}
		if !slug.Valid(in.Slug) {
			return "Slug may only contain lowercase letters, digits, dashes and underscores."
		}
	}
	return ""
}

// validateReorder checks a reorder payload.
func validateReorder(items []models.ReorderItem) string {
	if len(items) == 0 {
		return "At least one item is required."
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := item.ID.String()
		if _, dup := seen[key]; dup {
			return "Category " + key + " is listed twice."
		}
		seen[key] = struct{}{}
		if item.ParentID != nil && *item.ParentID == item.ID {
			return "A category cannot be its own parent."
		}
		if item.Order < 0 {
			return "Order must not be negative."
		}
	}
	return ""
}
