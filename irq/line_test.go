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

package irq

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineRunsHandler(t *testing.T) {
	l := NewLine("test", 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	go func() {
		_ = l.Run(ctx, func() { runs.Add(1) })
	}()

	l.Trigger()
	assert.Eventually(t, func() bool { return l.Fired() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestLineCoalesces(t *testing.T) {
	l := NewLine("test", 0)
	for i := 0; i < 5; i++ {
		l.Trigger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = l.Run(ctx, func() {})
	}()
	assert.Eventually(t, func() bool { return l.Fired() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, uint64(1), l.Fired())
}

func TestLineNeverReentered(t *testing.T) {
	l := NewLine("test", 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inside, maxInside atomic.Int32
	go func() {
		_ = l.Run(ctx, func() {
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			l.Trigger()
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		})
	}()
	l.Trigger()
	assert.Eventually(t, func() bool { return l.Fired() >= 10 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestLineDelay(t *testing.T) {
	l := NewLine("timer", 30*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = l.Run(ctx, func() {})
	}()

	start := time.Now()
	l.Trigger()
	l.Trigger()
	assert.Eventually(t, func() bool { return l.Fired() == 1 }, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(30*time.Millisecond))
}

func TestLineSingleRun(t *testing.T) {
	l := NewLine("test", 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, func() {})
	}()
	require.Eventually(t, l.IsRunning, time.Second, time.Millisecond)
	assert.Error(t, l.Run(ctx, func() {}))
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
