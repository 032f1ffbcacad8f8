// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package utilds

import (
	"sync"
	"sync/atomic"
)

// SetOnce holds a value that can be published exactly once and read lock-free
type SetOnce[T any] struct {
	once sync.Once
	val  atomic.Pointer[T]
}

// Set publishes val if nothing was published yet.
// Returns true if this call set the value, false if it was already set.
func (s *SetOnce[T]) Set(val *T) bool {
	var ok bool
	s.once.Do(func() {
		s.val.Store(val)
		ok = true
	})
	return ok
}

// Get returns the published value, or nil
func (s *SetOnce[T]) Get() *T {
	return s.val.Load()
}
