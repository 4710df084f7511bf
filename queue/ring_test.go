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

package queue

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingHoldsCapacityMinusOne(t *testing.T) {
	r := NewRing[int](8)
	for i := 0; i < 7; i++ {
		assert.False(t, r.Full())
		assert.True(t, r.TryPush(i))
	}
	assert.True(t, r.Full())
	assert.False(t, r.TryPush(7))
	assert.Equal(t, 7, r.Len())

	v, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, 0, v)
	assert.True(t, r.TryPush(7))
	assert.False(t, r.TryPush(8))
}

func TestRingRandomOps(t *testing.T) {
	const capacity = 5
	r := NewRing[int](capacity)
	rnd := rand.New(rand.NewSource(1))
	var model []int
	next := 0
	for i := 0; i < 10000; i++ {
		if rnd.Intn(2) == 0 {
			ok := r.TryPush(next)
			assert.Equal(t, len(model) < capacity-1, ok)
			if ok {
				model = append(model, next)
			}
			next++
		} else {
			v, ok := r.TryPop()
			assert.Equal(t, len(model) > 0, ok)
			if ok {
				assert.Equal(t, model[0], v)
				model = model[1:]
			}
		}
		assert.Equal(t, len(model), r.Len())
		assert.Equal(t, len(model) == capacity-1, r.Full())
		assert.Equal(t, len(model) == 0, r.Empty())
	}
}

func TestRingClaimCommit(t *testing.T) {
	r := NewRing[[4]byte](3)
	slot := r.Claim()
	require.NotNil(t, slot)
	slot[0] = 1
	assert.True(t, r.Empty())
	r.Commit()
	assert.Equal(t, byte(1), r.Peek()[0])
	r.Pop()
	assert.Nil(t, r.Peek())
	r.Pop()
	assert.True(t, r.Empty())
}

func TestRingConcurrent(t *testing.T) {
	r := NewRing[int](4)
	const n = 10000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if r.TryPush(i) {
				i++
			}
		}
	}()
	for want := 0; want < n; {
		if v, ok := r.TryPop(); ok {
			assert.Equal(t, want, v)
			want++
		}
	}
	wg.Wait()
}
