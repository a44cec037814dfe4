// Copyright 2026 workturnedplay
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package once provides a publish-once cell for values shared between the
// render thread and the message-pump thread.
package once

import (
	"sync"
	"sync/atomic"
)

// Cell holds a value that is written at most once and then read lock-free
// from any thread. The zero Cell is empty and ready to use.
type Cell[T any] struct {
	v   atomic.Pointer[T]
	err atomic.Pointer[error]
	mu  sync.Mutex
}

// Get returns the published value, if any.
func (c *Cell[T]) Get() (T, bool) {
	if p := c.v.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// Set publishes v unless a value (or an init failure) is already recorded.
// It reports whether v was stored.
func (c *Cell[T]) Set(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.v.Load() != nil || c.err.Load() != nil {
		return false
	}
	c.v.Store(&v)
	return true
}

// GetOrInit returns the published value, running init to produce it if the
// cell is empty. A failed init is sticky: later calls return the same error
// without running init again.
func (c *Cell[T]) GetOrInit(init func() (T, error)) (T, error) {
	if p := c.v.Load(); p != nil {
		return *p, nil
	}
	if e := c.err.Load(); e != nil {
		var zero T
		return zero, *e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p := c.v.Load(); p != nil {
		return *p, nil
	}
	if e := c.err.Load(); e != nil {
		var zero T
		return zero, *e
	}
	v, err := init()
	if err != nil {
		c.err.Store(&err)
		return v, err
	}
	c.v.Store(&v)
	return v, nil
}

// Err returns the sticky init error, if any.
func (c *Cell[T]) Err() error {
	if e := c.err.Load(); e != nil {
		return *e
	}
	return nil
}
