// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package categorytree turns a flat, parent-referenced list of categories
// into a nested forest and provides the list helpers callers use to keep a
// flat cache in sync after create, update and delete round-trips.
//
// Everything in this package is pure: no I/O, no shared state, and inputs
// are never mutated. The forest is a projection of the flat collection and
// is rebuilt from scratch after every change.
package categorytree

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"marketplace/internal/models"
)

// Node is a category together with its ordered children.
type Node struct {
	Category models.Category `json:"category"`
	Children []*Node         `json:"children"`
}

// Forest is the result of Build. Roots holds every record reachable from a
// root category. Orphans holds records whose parent ID matches no record,
// each with its own subtree, so nothing in the input is silently lost.
type Forest struct {
	Roots   []*Node `json:"roots"`
	Orphans []*Node `json:"orphans"`
}

// Option configures Build.
type Option func(*builder)

// WithMaxDepth limits the number of levels in the forest. A root is at depth
// 0, so WithMaxDepth(3) accepts A -> B -> C and rejects a fourth level.
// Zero or a negative value disables the check.
func WithMaxDepth(levels int) Option {
	return func(b *builder) {
		b.maxDepth = levels
	}
}

type builder struct {
	categories []models.Category
	childrenOf map[uuid.UUID][]int
	placed     int
	maxDepth   int
}

// Build converts a flat collection into a forest.
//
// Children and roots keep the relative order they have in categories. The
// input is pre-indexed by parent ID and walked with an explicit work list,
// so the cost is linear and deep taxonomies cannot exhaust the stack.
//
// Build fails with ErrDuplicateID when two records share an ID, with a
// *CycleError (matching ErrCyclicGraph) when parent references loop, and
// with ErrMaxDepthExceeded when WithMaxDepth is set and exceeded.
func Build(categories []models.Category, opts ...Option) (*Forest, error) {
	b := &builder{
		categories: categories,
		childrenOf: make(map[uuid.UUID][]int),
	}
	for _, opt := range opts {
		opt(b)
	}

	byID := make(map[uuid.UUID]int, len(categories))
	for i, c := range categories {
		if c.ID == uuid.Nil {
			continue
		}
		if first, dup := byID[c.ID]; dup {
			return nil, errors.Wrapf(ErrDuplicateID, "%s at positions %d and %d", c.ID, first, i)
		}
		byID[c.ID] = i
	}

	var roots, orphans []int
	for i, c := range categories {
		if c.ParentID == nil {
			roots = append(roots, i)
			continue
		}
		if _, ok := byID[*c.ParentID]; !ok {
			orphans = append(orphans, i)
			continue
		}
		b.childrenOf[*c.ParentID] = append(b.childrenOf[*c.ParentID], i)
	}

	forest := &Forest{}
	var err error
	if forest.Roots, err = b.grow(roots); err != nil {
		return nil, err
	}
	if forest.Orphans, err = b.grow(orphans); err != nil {
		return nil, err
	}

	if b.placed < len(categories) {
		return nil, b.findCycle(byID)
	}
	return forest, nil
}

// grow builds the subtrees below the given top-level records.
func (b *builder) grow(top []int) ([]*Node, error) {
	type item struct {
		node  *Node
		depth int
	}

	nodes := make([]*Node, len(top))
	work := make([]item, 0, len(top))
	for k, i := range top {
		nodes[k] = b.node(i)
		work = append(work, item{node: nodes[k]})
	}

	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]

		if b.maxDepth > 0 && it.depth >= b.maxDepth {
			return nil, errors.Wrapf(ErrMaxDepthExceeded, "category %s at depth %d, limit %d",
				it.node.Category.ID, it.depth, b.maxDepth)
		}

		id := it.node.Category.ID
		if id == uuid.Nil {
			continue
		}
		kids := b.childrenOf[id]
		if len(kids) == 0 {
			continue
		}
		it.node.Children = make([]*Node, len(kids))
		for k, ci := range kids {
			child := b.node(ci)
			it.node.Children[k] = child
			work = append(work, item{node: child, depth: it.depth + 1})
		}
	}
	return nodes, nil
}

func (b *builder) node(i int) *Node {
	b.placed++
	return &Node{Category: b.categories[i], Children: []*Node{}}
}

// findCycle is called once the walk from roots and orphans left records
// unplaced. An unplaced record always has an existing, unplaced parent, so
// following parents from the first one must eventually revisit a record.
func (b *builder) findCycle(byID map[uuid.UUID]int) error {
	reached := make(map[int]bool, len(b.categories))
	b.markReached(reached)

	start := -1
	for i := range b.categories {
		if !reached[i] {
			start = i
			break
		}
	}
	if start < 0 {
		return errors.WithStack(ErrCyclicGraph)
	}

	seenAt := make(map[int]int)
	var chain []int
	for i := start; ; {
		if pos, seen := seenAt[i]; seen {
			loop := chain[pos:]
			path := make([]uuid.UUID, 0, len(loop)+1)
			for _, j := range loop {
				path = append(path, b.categories[j].ID)
			}
			path = append(path, b.categories[loop[0]].ID)
			return errors.WithStack(&CycleError{Path: path})
		}
		seenAt[i] = len(chain)
		chain = append(chain, i)
		i = byID[*b.categories[i].ParentID]
	}
}

// markReached flags every record that hangs below a root or an orphan.
func (b *builder) markReached(reached map[int]bool) {
	var work []int
	for i, c := range b.categories {
		if c.ParentID == nil {
			work = append(work, i)
		}
	}
	ids := make(map[uuid.UUID]bool, len(b.categories))
	for _, c := range b.categories {
		if c.ID != uuid.Nil {
			ids[c.ID] = true
		}
	}
	for i, c := range b.categories {
		if c.ParentID != nil && !ids[*c.ParentID] {
			work = append(work, i)
		}
	}
	for len(work) > 0 {
		i := work[len(work)-1]
		work = work[:len(work)-1]
		reached[i] = true
		if id := b.categories[i].ID; id != uuid.Nil {
			work = append(work, b.childrenOf[id]...)
		}
	}
}
