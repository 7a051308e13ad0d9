/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import "sync"

// Config controls depth caps.
type Config struct {
	// MaxDepth limits the number of entries kept (0 means unlimited).
	// When exceeded the oldest entries are pruned.
	MaxDepth int
}

// Stack is a bounded LIFO of undone items, most recent last.
// It is safe for concurrent use.
type Stack[T any] struct {
	cfg   Config
	mu    sync.Mutex
	items []T
	// pruned counts entries dropped by the depth cap, for diagnostics.
	pruned int
}

func NewStack[T any](cfg Config) *Stack[T] {
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	return &Stack[T]{cfg: cfg}
}

// Push records v as the most recent entry.
func (s *Stack[T]) Push(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, v)
	s.enforceCapLocked()
}

// Pop removes and returns the most recent entry.
func (s *Stack[T]) Pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	n := len(s.items)
	if n == 0 {
		return zero, false
	}
	v := s.items[n-1]
	s.items[n-1] = zero
	s.items = s.items[:n-1]
	return v, true
}

// Peek returns the most recent entry without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Items returns a copy of the entries, oldest first.
func (s *Stack[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.items...)
}

// Clear drops every entry to free memory.
func (s *Stack[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Stats returns current sizes for diagnostics.
func (s *Stack[T]) Stats() (depth int, pruned int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), s.pruned
}

func (s *Stack[T]) enforceCapLocked() {
	if s.cfg.MaxDepth == 0 || len(s.items) <= s.cfg.MaxDepth {
		return
	}
	// drop the oldest extras
	toDrop := len(s.items) - s.cfg.MaxDepth
	s.pruned += toDrop
	s.items = append([]T(nil), s.items[toDrop:]...)
}
