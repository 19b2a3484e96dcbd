// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package categorytree

import (
	"github.com/google/uuid"

	"marketplace/internal/models"
)

// Entry is one row of a flattened forest.
type Entry struct {
	Category models.Category `json:"category"`
	Depth    int             `json:"depth"`
}

// Flatten lists the nodes depth-first in pre-order, the way an indented
// category picker renders them.
func Flatten(nodes []*Node) []Entry {
	type item struct {
		node  *Node
		depth int
	}

	var out []Entry
	work := make([]item, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		work = append(work, item{node: nodes[i]})
	}
	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]
		out = append(out, Entry{Category: it.node.Category, Depth: it.depth})
		for i := len(it.node.Children) - 1; i >= 0; i-- {
			work = append(work, item{node: it.node.Children[i], depth: it.depth + 1})
		}
	}
	return out
}

// Find returns the node with the given ID, or nil.
func Find(nodes []*Node, id uuid.UUID) *Node {
	work := append([]*Node(nil), nodes...)
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		if n.Category.ID == id {
			return n
		}
		work = append(work, n.Children...)
	}
	return nil
}

// Descendants returns id followed by the IDs of every node below it.
// It returns nil when id is not in the forest.
func Descendants(nodes []*Node, id uuid.UUID) []uuid.UUID {
	n := Find(nodes, id)
	if n == nil {
		return nil
	}
	entries := Flatten([]*Node{n})
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.Category.ID
	}
	return ids
}

// Count returns the number of nodes in the given subtrees.
func Count(nodes []*Node) int {
	total := 0
	work := append([]*Node(nil), nodes...)
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		total++
		work = append(work, n.Children...)
	}
	return total
}

// All returns the roots followed by the orphans.
func (f *Forest) All() []*Node {
	out := make([]*Node, 0, len(f.Roots)+len(f.Orphans))
	out = append(out, f.Roots...)
	return append(out, f.Orphans...)
}
