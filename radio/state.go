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
	"time"

	"github.com/pkg/errors"

	"github.com/openthread/ot-radif/radio/reg"
	"github.com/openthread/ot-radif/types"
)

const (
	shrPhrLen      = 6  // preamble, SFD and PHR
	ackPsduLen     = 5  // frame control, sequence number and FCS
	ackWaitSymbols = 54 // turnaround plus ack reception window
	backoffPeriods = 31 // 2^macMaxBE - 1
	unitBackoff    = 20 // symbols per backoff period
	ccaSymbols     = 8
)

// busyWait returns how long the chip can stay busy on its own for one transaction under cfg:
// every retry of a maximum length frame, each preceded by the longest CSMA backoff and
// followed by the acknowledgement wait.
func busyWait(cfg types.RadioConfig) time.Duration {
	bitUs := 1e6 / float64(cfg.Modulation.DataRate())
	symUs := 1e6 / float64(cfg.Modulation.SymbolRate())

	frame := float64((types.MaxPsduLen+shrPhrLen)*8) * bitUs
	ack := float64((ackPsduLen+shrPhrLen)*8)*bitUs + ackWaitSymbols*symUs
	backoff := float64(int(cfg.MaxCsmaRetries)+1) * (backoffPeriods*unitBackoff + ccaSymbols) * symUs
	attempt := frame + ack + backoff
	return time.Duration(attempt*float64(int(cfg.MaxFrameRetries)+1)) * time.Microsecond
}

type transition struct {
	from, to types.TransceiverState
}

// hops lists the transitions the chip firmware refuses to make directly. They are routed
// through the intermediate state, which costs one extra command and settling delay.
var hops = map[transition]types.TransceiverState{
	{types.StateRxAckListen, types.StateTxAckSend}: types.StatePllOn,
	{types.StateTxAckSend, types.StateRxAckListen}: types.StatePllOn,
	{types.StateRxListen, types.StateRxAckListen}:  types.StatePllOn,
	{types.StateRxAckListen, types.StateRxListen}:  types.StatePllOn,
	{types.StateRxListen, types.StateTxAckSend}:    types.StatePllOn,
	{types.StateTxAckSend, types.StateRxListen}:    types.StatePllOn,
}

// readState reads TRX_STATUS and reports a changed state to the observer.
func (r *Interface) readState() types.TransceiverState {
	s := types.TransceiverState(r.readReg(reg.TrxStatus) & types.TransceiverStateMask)
	r.observe(s)
	return s
}

func (r *Interface) observe(s types.TransceiverState) {
	if types.TransceiverState(r.lastState.Swap(uint32(s))) != s && r.observer != nil {
		r.observer.OnStateChange(s)
	}
}

func (r *Interface) isBusy() bool {
	s := r.readState()
	return s.IsBusy() || s == types.StateTransition
}

func (r *Interface) readTrac() types.TracStatus {
	return types.TracStatus(r.readReg(reg.TrxState) >> reg.TracStatusPos)
}

func (r *Interface) trxCommand(cmd byte) {
	r.modifyReg(reg.TrxState, cmd, reg.TrxCmdMask)
}

// waitNotBusy polls until the chip leaves the busy state it entered on its own, for at most
// the worst case transaction time of the current link settings.
func (r *Interface) waitNotBusy(s types.TransceiverState) (types.TransceiverState, error) {
	deadline := time.Now().Add(busyWait(r.Config()))
	for s.IsBusy() || s == types.StateTransition {
		if !time.Now().Before(deadline) {
			return s, errors.Wrapf(types.ErrTimeout, "still %s", s)
		}
		r.port.DelayMicroseconds(reg.TimeBusyPoll)
		s = r.readState()
	}
	return s, nil
}

// requestState drives the transceiver into target, inserting the intermediate hop the chip
// requires and the settling delays. Interrupt context only.
func (r *Interface) requestState(target types.TransceiverState) error {
	if !target.IsRequestable() {
		return errors.Wrapf(types.ErrInvalidArgument, "state %s cannot be requested", target)
	}

	cur := r.readState()
	if cur == target {
		return nil
	}
	if cur.IsBusy() || cur == types.StateTransition {
		var err error
		if cur, err = r.waitNotBusy(cur); err != nil {
			return err
		}
		if cur == target {
			return nil
		}
	}

	if target == types.StateOff {
		r.port.SleepPinClear()
		r.trxCommand(reg.TrxCmdForceTrxOff)
		r.port.DelayMicroseconds(reg.TimeAllStatesTrxOff)
	} else if via, ok := hops[transition{cur, target}]; ok {
		r.trxCommand(byte(via))
		r.port.DelayMicroseconds(reg.TimeRxOnToPllOn)
	}

	r.trxCommand(byte(target))
	if cur == types.StateOff {
		r.port.DelayMicroseconds(reg.TimeTrxOffToPllOn)
	} else {
		r.port.DelayMicroseconds(reg.TimeRxOnToPllOn)
	}

	if s := r.readState(); s != target {
		return errors.Wrapf(types.ErrTimeout, "requested %s, chip in %s", target, s)
	}
	return nil
}
