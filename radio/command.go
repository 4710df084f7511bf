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

package radio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/openthread/ot-radif/radio/reg"
	"github.com/openthread/ot-radif/types"
)

const (
	identifyAttempts = 100
	trxOffAttempts   = 100
	edPollAttempts   = 100
)

type commandResult struct {
	value byte
	err   error
}

type request struct {
	cmd  types.Command
	done chan commandResult
}

// mailbox is the one-deep command slot shared by foreground and interrupt context. An empty
// slot is the "no command" state.
type mailbox struct {
	mu   sync.Mutex
	slot atomic.Pointer[request]
}

// Issue posts cmd to the mailbox, kicks the interrupt handler and waits for the result. The wait
// is bounded by ctx and the configured command timeout. A command the interrupt handler has not
// picked up yet is withdrawn on timeout.
func (r *Interface) Issue(ctx context.Context, cmd types.Command) (byte, error) {
	r.mailbox.mu.Lock()
	defer r.mailbox.mu.Unlock()

	req := &request{cmd: cmd, done: make(chan commandResult, 1)}
	r.mailbox.slot.Store(req)
	r.port.RequestDeferredInterrupt()

	timeout := r.Config().CommandTimeout
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-req.done:
		return res.value, res.err
	case <-timer.C:
	case <-ctx.Done():
	}

	if r.mailbox.slot.CompareAndSwap(req, nil) {
		return 0, errors.Wrapf(types.ErrTimeout, "command %s not serviced", cmd)
	}
	// Already picked up: the handler's own retries are bounded, so give it one more period.
	timer.Reset(timeout)
	select {
	case res := <-req.done:
		return res.value, res.err
	case <-timer.C:
		return 0, errors.Wrapf(types.ErrTimeout, "command %s did not complete", cmd)
	}
}

// serviceCommand runs the pending command, if any, and empties the mailbox. Interrupt context.
func (r *Interface) serviceCommand() {
	req := r.mailbox.slot.Swap(nil)
	if req == nil {
		return
	}
	v, err := r.runCommand(req.cmd)
	if err != nil {
		r.log.Warnf("command %s failed: %v", req.cmd, err)
	}
	req.done <- commandResult{value: v, err: err}
}

func (r *Interface) runCommand(cmd types.Command) (byte, error) {
	switch cmd {
	case types.CmdReset:
		r.up.Store(false)
		err := r.reset()
		return byte(types.StatusOf(err)), err
	case types.CmdStartup:
		r.configure()
		r.up.Store(true)
		return byte(types.StatusSuccess), nil
	case types.CmdGetRandom:
		return r.randomByte()
	case types.CmdSetModulation:
		err := r.setModulation()
		return byte(types.StatusOf(err)), err
	case types.CmdSetFrequency:
		err := r.setFrequency()
		return byte(types.StatusOf(err)), err
	case types.CmdSetPower:
		r.writeReg(reg.PhyTxPwr, r.Config().Power)
		return byte(types.StatusSuccess), nil
	case types.CmdSetAddress:
		cfg := r.Config()
		r.writeReg16(reg.PanId0, cfg.PanId)
		r.writeReg16(reg.ShortAddr0, cfg.ShortAddress)
		return byte(types.StatusSuccess), nil
	case types.CmdMeasureEnergy:
		return r.measureEnergy()
	case types.CmdWake:
		err := r.wake()
		r.up.Store(err == nil)
		return byte(types.StatusOf(err)), err
	case types.CmdSleep:
		err := r.sleep()
		r.up.Store(false)
		return byte(types.StatusOf(err)), err
	default:
		return 0, nil
	}
}
