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

// Package progctx manages the lifetime of the daemon: cancellation, named goroutines and
// shutdown hooks.
package progctx

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"
)

// ProgCtx is the context of the daemon during its lifetime.
type ProgCtx struct {
	context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	routines map[string]int
	deferred []func()
	cause    error
}

func New(parent context.Context) *ProgCtx {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &ProgCtx{
		Context:  ctx,
		cancel:   cancel,
		routines: map[string]int{},
	}
}

// Cancel stops the program with the given reason. Only the first call has an effect;
// shutdown hooks run in reverse registration order.
func (ctx *ProgCtx) Cancel(reason interface{}) {
	ctx.mu.Lock()
	if ctx.Err() != nil {
		ctx.mu.Unlock()
		return
	}
	ctx.cancel()
	deferred := ctx.deferred
	ctx.deferred = nil
	if e, ok := reason.(error); ok {
		ctx.cause = e
		simplelogger.TraceError("program exit: %v", e)
	} else {
		simplelogger.Infof("program exit: %v", reason)
	}
	ctx.mu.Unlock()

	for i := len(deferred) - 1; i >= 0; i-- {
		deferred[i]()
	}
}

// Cause returns the error passed to Cancel, if any.
func (ctx *ProgCtx) Cause() error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.cause
}

// Defer registers f to run when the context is cancelled.
func (ctx *ProgCtx) Defer(f func()) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.Err() != nil {
		return errors.Errorf("cannot defer after program context is done")
	}
	ctx.deferred = append(ctx.deferred, f)
	return nil
}

// Go runs fn on a named goroutine. A non-nil error other than context cancellation
// cancels the program.
func (ctx *ProgCtx) Go(name string, fn func(ctx context.Context) error) {
	ctx.WaitAdd(name, 1)
	go func() {
		defer ctx.WaitDone(name)
		err := fn(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			ctx.Cancel(errors.Wrapf(err, "routine %s", name))
		}
	}()
}

// WaitAdd adds delta goroutines under name.
func (ctx *ProgCtx) WaitAdd(name string, delta int) {
	ctx.mu.Lock()
	ctx.routines[name] += delta
	ctx.mu.Unlock()
	ctx.wg.Add(delta)
}

// WaitDone marks one goroutine under name as finished.
func (ctx *ProgCtx) WaitDone(name string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.routines[name] <= 0 {
		simplelogger.Panicf("routine %s is not running, should not call WaitDone", name)
	}
	ctx.routines[name]--
	ctx.wg.Done()
}

// WaitCount returns the number of goroutines still running.
func (ctx *ProgCtx) WaitCount() int {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	total := 0
	for _, c := range ctx.routines {
		total += c
	}
	return total
}

// Wait blocks until every goroutine has finished.
func (ctx *ProgCtx) Wait() {
	ctx.mu.Lock()
	simplelogger.Debugf("program context waiting routines: %v", ctx.routines)
	ctx.mu.Unlock()
	ctx.wg.Wait()
}
