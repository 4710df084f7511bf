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

// Package irq provides the deferred interrupt line that runs the radio's interrupt handler.
//
// A Line serializes every handler invocation onto a single goroutine, so the handler is never
// re-entered. Triggers are asynchronous and coalesce: a trigger that arrives while one is already
// pending is absorbed, and the pending run services both.
package irq

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/openthread/ot-radif/logger"
)

type Line struct {
	name    string
	delay   time.Duration
	pending chan struct{}
	armed   atomic.Bool
	running atomic.Bool
	active  atomic.Bool
	fired   atomic.Uint64
}

// NewLine returns a line whose triggers start the handler after delay. A zero delay runs the
// handler as soon as the line goroutine is free.
func NewLine(name string, delay time.Duration) *Line {
	return &Line{
		name:    name,
		delay:   delay,
		pending: make(chan struct{}, 1),
	}
}

func (l *Line) Name() string {
	return l.name
}

// Trigger requests one handler run. It never blocks and may be called from any goroutine,
// including from within the handler itself.
func (l *Line) Trigger() {
	if l.delay <= 0 {
		l.raise()
		return
	}
	if l.armed.CompareAndSwap(false, true) {
		time.AfterFunc(l.delay, func() {
			l.armed.Store(false)
			l.raise()
		})
	}
}

func (l *Line) raise() {
	select {
	case l.pending <- struct{}{}:
	default:
	}
}

// Run executes handler once per coalesced trigger until ctx is done. Only one Run may be active
// on a line at a time.
func (l *Line) Run(ctx context.Context, handler func()) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.Errorf("irq line %s already running", l.name)
	}
	defer l.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.pending:
			l.dispatch(handler)
		}
	}
}

func (l *Line) dispatch(handler func()) {
	logger.AssertTrue(l.active.CompareAndSwap(false, true), "irq line %s re-entered", l.name)
	defer l.active.Store(false)
	handler()
	l.fired.Add(1)
}

// Fired returns the number of completed handler runs.
func (l *Line) Fired() uint64 {
	return l.fired.Load()
}

// IsRunning returns true if a Run loop is active.
func (l *Line) IsRunning() bool {
	return l.running.Load()
}
