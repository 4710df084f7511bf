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

// Package radio is the interrupt driven AT86RF212 link driver.
//
// An Interface owns the driver state shared by two contexts. Foreground code calls Send, the
// command methods and Service. Interrupt context is the single goroutine running HandleInterrupt,
// normally an irq.Line fed by the hardware IRQ pin and by Port.RequestDeferredInterrupt. Only
// interrupt context touches the hardware.
package radio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/openthread/ot-radif/hal"
	"github.com/openthread/ot-radif/logger"
	"github.com/openthread/ot-radif/queue"
	"github.com/openthread/ot-radif/types"
	"github.com/openthread/ot-radif/wpan"
)

// dataHeaderLen is the length of the header the driver puts on every outgoing frame.
const dataHeaderLen = 9

// MaxPayloadLen is the largest payload Send accepts.
const MaxPayloadLen = types.MaxPsduLen - dataHeaderLen - types.FcsLen

type Option func(r *Interface)

// WithReceiveCallback sets the function Service calls for every received frame.
func WithReceiveCallback(fn func(f *RxFrame)) Option {
	return func(r *Interface) {
		r.onReceive = fn
	}
}

func WithTap(t Tap) Option {
	return func(r *Interface) {
		r.tap = t
	}
}

func WithStateObserver(o StateObserver) Option {
	return func(r *Interface) {
		r.observer = o
	}
}

// WithLogger sets the deferred logger used from interrupt context.
func WithLogger(l *logger.DeferredLogger) Option {
	return func(r *Interface) {
		r.log = l
	}
}

type Interface struct {
	port hal.Port

	cfgMu sync.RWMutex
	cfg   types.RadioConfig

	rx      *queue.Ring[RxFrame]
	tx      *queue.Ring[TxFrame]
	capture *queue.Ring[txCapture]
	txFreed chan struct{}
	sendMu  sync.Mutex

	up        atomic.Bool
	lastState atomic.Uint32
	seq       wpan.Sequencer
	mailbox   mailbox

	statsMu sync.Mutex
	stats   Stats

	serviceMu sync.Mutex
	onReceive func(f *RxFrame)
	tap       Tap
	observer  StateObserver
	log       *logger.DeferredLogger
}

// New creates the interface in the down state. The link is brought up with Start.
func New(port hal.Port, cfg types.RadioConfig, opts ...Option) (*Interface, error) {
	if port == nil {
		return nil, errors.Wrap(types.ErrInvalidArgument, "nil port")
	}
	cfg.Normalize()
	if _, _, err := FrequencyRegisters(cfg.Frequency); err != nil {
		return nil, err
	}

	r := &Interface{
		port:    port,
		cfg:     cfg,
		rx:      queue.NewRing[RxFrame](cfg.QueueCapacity),
		tx:      queue.NewRing[TxFrame](cfg.QueueCapacity),
		capture: queue.NewRing[txCapture](cfg.QueueCapacity),
		txFreed: make(chan struct{}, 1),
	}
	r.lastState.Store(uint32(types.InvalidTransceiverState))
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.NewDeferredLogger("radio: ", 0)
	}
	return r, nil
}

func (r *Interface) IsUp() bool {
	return r.up.Load()
}

// State returns the transceiver state last read by interrupt context.
func (r *Interface) State() types.TransceiverState {
	return types.TransceiverState(r.lastState.Load())
}

func (r *Interface) Config() types.RadioConfig {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	return r.cfg
}

func (r *Interface) updateConfig(fn func(c *types.RadioConfig)) {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()
	fn(&r.cfg)
}

// RegisterReceiveCallback replaces the receive callback.
func (r *Interface) RegisterReceiveCallback(fn func(f *RxFrame)) {
	r.serviceMu.Lock()
	defer r.serviceMu.Unlock()
	r.onReceive = fn
}

// TxPending returns the number of frames waiting for transmission.
func (r *Interface) TxPending() int {
	return r.tx.Len()
}

// RxPending returns the number of received frames waiting for Service.
func (r *Interface) RxPending() int {
	return r.rx.Len()
}

func checkPayload(payload []byte) error {
	if len(payload) > MaxPayloadLen {
		return errors.Wrapf(types.ErrInvalidArgument, "frame of %d bytes exceeds %d byte PSDU",
			dataHeaderLen+len(payload)+types.FcsLen, types.MaxPsduLen)
	}
	return nil
}

// TrySend queues payload for dst without blocking. It returns ErrQueueFull if no slot is free.
func (r *Interface) TrySend(payload []byte, dst types.ShortAddr, ack bool) error {
	if !r.IsUp() {
		return types.ErrInterfaceDown
	}
	if err := checkPayload(payload); err != nil {
		return err
	}
	if !r.push(payload, dst, ack) {
		r.port.RequestDeferredInterrupt()
		return types.ErrQueueFull
	}
	r.port.RequestDeferredInterrupt()
	return nil
}

// Send queues payload for dst. While the TX queue is full it keeps kicking the interrupt handler
// and waits for a slot, bounded by ctx and the configured send timeout; when the bound hits it
// returns ErrQueueFull. Frames are never queued while the interface is down.
func (r *Interface) Send(ctx context.Context, payload []byte, dst types.ShortAddr, ack bool) error {
	if !r.IsUp() {
		return types.ErrInterfaceDown
	}
	if err := checkPayload(payload); err != nil {
		return err
	}

	timer := time.NewTimer(r.Config().SendTimeout)
	defer timer.Stop()
	for {
		if r.push(payload, dst, ack) {
			r.port.RequestDeferredInterrupt()
			return nil
		}
		r.port.RequestDeferredInterrupt()
		select {
		case <-r.txFreed:
		case <-timer.C:
			return errors.Wrap(types.ErrQueueFull, "send timed out")
		case <-ctx.Done():
			return errors.Wrap(types.ErrQueueFull, ctx.Err().Error())
		}
		if !r.IsUp() {
			return types.ErrInterfaceDown
		}
	}
}

func (r *Interface) push(payload []byte, dst types.ShortAddr, ack bool) bool {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	slot := r.tx.Claim()
	if slot == nil {
		return false
	}
	slot.Dst = dst
	slot.Ack = ack
	slot.length = copy(slot.data[:], payload)
	r.tx.Commit()
	return true
}

// Service delivers the received frames to the receive callback, hands captured frames to the tap
// and writes out log entries queued by interrupt context. Foreground only. It returns the number
// of frames delivered.
func (r *Interface) Service() int {
	r.serviceMu.Lock()
	defer r.serviceMu.Unlock()

	n := 0
	for f := r.rx.Peek(); f != nil; f = r.rx.Peek() {
		if r.tap != nil {
			r.tap.CaptureFrame(DirectionRx, f.PSDU())
		}
		if r.onReceive != nil {
			r.onReceive(f)
		}
		r.rx.Pop()
		n++
	}
	for c := r.capture.Peek(); c != nil; c = r.capture.Peek() {
		if r.tap != nil {
			r.tap.CaptureFrame(DirectionTx, c.psdu[:c.n])
		}
		r.capture.Pop()
	}
	r.log.Flush()
	return n
}
