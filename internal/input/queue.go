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

package input

import "sync/atomic"

type node struct {
	ev   Event
	next *node
}

// Queue is the pending event queue. Producers push with a CAS onto a
// linked stack; the consumer swaps the whole stack out at once, so an
// event is either in the drained batch or still queued, never both.
type Queue struct {
	head atomic.Pointer[node]
}

// Push appends ev. Safe for concurrent use with Drain.
func (q *Queue) Push(ev Event) {
	n := &node{ev: ev}
	for {
		old := q.head.Load()
		n.next = old
		if q.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// Drain empties the queue and returns its events in insertion order.
func (q *Queue) Drain() []Event {
	h := q.head.Swap(nil)
	if h == nil {
		return nil
	}
	n := 0
	for p := h; p != nil; p = p.next {
		n++
	}
	out := make([]Event, n)
	for p := h; p != nil; p = p.next {
		n--
		out[n] = p.ev
	}
	return out
}

// Len walks the queue. Only meant for diagnostics and tests.
func (q *Queue) Len() int {
	n := 0
	for p := q.head.Load(); p != nil; p = p.next {
		n++
	}
	return n
}
