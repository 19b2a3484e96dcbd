// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package categorytree

import "github.com/google/uuid"

// Identifiable is implemented by records that may carry a persisted ID.
// ok is false for records that have not been saved yet.
type Identifiable interface {
	Identity() (id uuid.UUID, ok bool)
}

// Upsert returns a new list in which item replaces the element with the same
// ID, keeping its position. An item with an unknown ID, or without an ID, is
// appended. The input slice is never modified.
func Upsert[T Identifiable](list []T, item T) []T {
	return UpsertFunc(list, item, func(v T) (uuid.UUID, bool) { return v.Identity() })
}

// UpsertFunc is Upsert for element types keyed by an arbitrary comparable
// value. key reports false for elements that have no key yet.
func UpsertFunc[T any, K comparable](list []T, item T, key func(T) (K, bool)) []T {
	out := make([]T, len(list), len(list)+1)
	copy(out, list)

	k, ok := key(item)
	if ok {
		for i, v := range out {
			if vk, vok := key(v); vok && vk == k {
				out[i] = item
				return out
			}
		}
	}
	return append(out, item)
}

// Remove returns a new list without the element that has the given ID.
// Removing an absent ID returns an equal copy.
func Remove[T Identifiable](list []T, id uuid.UUID) []T {
	return RemoveFunc(list, id, func(v T) (uuid.UUID, bool) { return v.Identity() })
}

// RemoveFunc is Remove for element types keyed by an arbitrary comparable value.
func RemoveFunc[T any, K comparable](list []T, k K, key func(T) (K, bool)) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if vk, ok := key(v); ok && vk == k {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ToggleOpen flips the expanded state of one node and returns the new set.
// The input set is left untouched; a nil set is treated as empty.
func ToggleOpen[K comparable](open map[K]struct{}, k K) map[K]struct{} {
	out := make(map[K]struct{}, len(open)+1)
	for v := range open {
		out[v] = struct{}{}
	}
	if _, ok := out[k]; ok {
		delete(out, k)
	} else {
		out[k] = struct{}{}
	}
	return out
}
