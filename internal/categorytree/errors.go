// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package categorytree

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrDuplicateID is returned when two records share the same non-nil ID.
	ErrDuplicateID = errors.New("duplicate category id")

	// ErrCyclicGraph is returned when a chain of parent references loops back
	// on itself. The concrete error is a *CycleError.
	ErrCyclicGraph = errors.New("cyclic category graph")

	// ErrMaxDepthExceeded is returned when a node lies deeper than the
	// configured maximum depth.
	ErrMaxDepthExceeded = errors.New("category tree max depth exceeded")
)

// CycleError describes a parent-reference loop. Path starts and ends with
// the same ID.
type CycleError struct {
	Path []uuid.UUID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.String()
	}
	return ErrCyclicGraph.Error() + ": " + strings.Join(parts, " -> ")
}

// Is makes errors.Is(err, ErrCyclicGraph) hold for any *CycleError.
func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicGraph
}
