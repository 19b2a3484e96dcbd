// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a category ID matches no record.
	ErrNotFound = errors.New("category not found")

	// ErrValidation is returned for malformed input such as a missing name.
	ErrValidation = errors.New("invalid category")

	// ErrInvalidParent is returned when the requested parent does not exist
	// or the move would make a category its own ancestor.
	ErrInvalidParent = errors.New("invalid parent category")

	// ErrNotConfirmed is returned when a deletion was not confirmed.
	ErrNotConfirmed = errors.New("deletion not confirmed")
)
