// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation for category names.
package slug

import (
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
)

const (
	// MaxLength bounds generated slugs, leaving room for a numeric suffix.
	MaxLength = 200

	// Fallback is used when a name has no sluggable characters.
	Fallback = "category"

	maxAttempts = 1000
)

// ErrExhausted is returned by Unique when no free suffix was found.
var ErrExhausted = errors.New("no free slug suffix")

// Generate creates a URL-friendly slug from the given string.
// Example: "Oak & Pine, 2026" → "oak-and-pine-2026"
func Generate(s string) string {
	result := slug.Make(s)
	if len(result) > MaxLength {
		result = result[:MaxLength]
		if i := strings.LastIndexByte(result, '-'); i > 0 {
			result = result[:i]
		}
		result = strings.Trim(result, "-_")
	}
	return result
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return len(s) <= MaxLength && slug.IsSlug(s)
}

// Unique returns base, or base with the first free "-N" suffix (N >= 2),
// according to taken. An empty base becomes Fallback.
func Unique(base string, taken func(string) (bool, error)) (string, error) {
	if base == "" {
		base = Fallback
	}
	candidate := base
	for n := 2; n <= maxAttempts+1; n++ {
		used, err := taken(candidate)
		if err != nil {
			return "", errors.Wrap(err, "check slug")
		}
		if !used {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
	return "", errors.Wrapf(ErrExhausted, "for %q", base)
}
