// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package sets implement a set type that remembers the order in which keys were inserted.
package sets

import "slices"

// Set of keys of type T, iterated in insertion order. The zero value is not usable, use New.
type Set[T comparable] struct {
	index map[T]int
	keys  []T
}

// New returns a Set with the given keys inserted.
func New[T comparable](keys ...T) *Set[T] {
	s := &Set[T]{index: make(map[T]int, len(keys))}
	s.Insert(keys...)
	return s
}

// Has returns true if Set s has the given key.
func (s *Set[T]) Has(key T) bool {
	_, found := s.index[key]
	return found
}

// Index returns the insertion position of key, or -1 if it is not in the set.
func (s *Set[T]) Index(key T) int {
	if idx, found := s.index[key]; found {
		return idx
	}
	return -1
}

// Insert keys into set, ignoring those already present. It returns the number of new keys.
func (s *Set[T]) Insert(keys ...T) (added int) {
	for _, key := range keys {
		if s.Has(key) {
			continue
		}
		s.index[key] = len(s.keys)
		s.keys = append(s.keys, key)
		added++
	}
	return
}

// Len returns the number of keys.
func (s *Set[T]) Len() int { return len(s.keys) }

// Keys returns a copy of the keys in insertion order.
func (s *Set[T]) Keys() []T { return slices.Clone(s.keys) }
