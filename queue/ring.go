// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package queue implements the fixed-capacity single-producer single-consumer ring used for the
// radio's RX and TX frame queues.
package queue

import (
	"sync/atomic"
)

// Ring is a lock-free SPSC ring of value-copied items. One slot is always left empty, so a ring
// of capacity N holds at most N-1 items. The producer is the only writer of the produce index and
// the slots it claims; the consumer is the only writer of the consume index.
type Ring[T any] struct {
	slots   []T
	produce atomic.Uint32
	consume atomic.Uint32
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		panic("ring capacity must be at least 2")
	}
	return &Ring[T]{slots: make([]T, capacity)}
}

func (r *Ring[T]) next(i uint32) uint32 {
	i++
	if i == uint32(len(r.slots)) {
		return 0
	}
	return i
}

// Cap returns the number of slots, one more than the number of items the ring can hold.
func (r *Ring[T]) Cap() int {
	return len(r.slots)
}

// Len returns the number of items outstanding. Exact only from the producer or consumer side.
func (r *Ring[T]) Len() int {
	p, c := r.produce.Load(), r.consume.Load()
	if p >= c {
		return int(p - c)
	}
	return int(p + uint32(len(r.slots)) - c)
}

func (r *Ring[T]) Full() bool {
	return r.next(r.produce.Load()) == r.consume.Load()
}

func (r *Ring[T]) Empty() bool {
	return r.produce.Load() == r.consume.Load()
}

// Claim returns the free slot at the producer index, or nil if the ring is full. The item is
// published by Commit. Producer side only.
func (r *Ring[T]) Claim() *T {
	p := r.produce.Load()
	if r.next(p) == r.consume.Load() {
		return nil
	}
	return &r.slots[p]
}

// Commit publishes the slot returned by the last Claim. Producer side only.
func (r *Ring[T]) Commit() {
	r.produce.Store(r.next(r.produce.Load()))
}

// TryPush copies v into the ring and reports whether there was room. Producer side only.
func (r *Ring[T]) TryPush(v T) bool {
	slot := r.Claim()
	if slot == nil {
		return false
	}
	*slot = v
	r.Commit()
	return true
}

// Peek returns the oldest item without removing it, or nil if the ring is empty. The pointer is
// valid until the next Pop. Consumer side only.
func (r *Ring[T]) Peek() *T {
	c := r.consume.Load()
	if c == r.produce.Load() {
		return nil
	}
	return &r.slots[c]
}

// Pop releases the oldest item. Consumer side only.
func (r *Ring[T]) Pop() {
	c := r.consume.Load()
	if c == r.produce.Load() {
		return
	}
	var zero T
	r.slots[c] = zero
	r.consume.Store(r.next(c))
}

// TryPop removes and returns the oldest item. Consumer side only.
func (r *Ring[T]) TryPop() (T, bool) {
	var v T
	p := r.Peek()
	if p == nil {
		return v, false
	}
	v = *p
	r.Pop()
	return v, true
}
