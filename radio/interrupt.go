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
	"github.com/openthread/ot-radif/wpan"
)

const maxListenAttempts = 3

// HandleInterrupt is the interrupt handler. It must only ever run on one goroutine at a time;
// pass it to irq.Line.Run.
func (r *Interface) HandleInterrupt() {
	r.updateStats(func(s *Stats) { s.Interrupts++ })

	if r.IsUp() {
		status := r.readReg(reg.IrqStatus)
		if status&reg.IrqTrxEnd != 0 {
			r.transactionEnd()
		}
		if status&reg.IrqTrxUr != 0 {
			r.log.Warnf("frame buffer underrun")
		}
		r.transmitPending()
	}

	r.serviceCommand()

	if r.IsUp() && !r.isBusy() {
		r.listen()
	}
}

// transactionEnd tells receptions from transmissions by the state the chip is in.
func (r *Interface) transactionEnd() {
	s := r.readState()
	if s == types.StateRxListen || s == types.StateRxAckListen || s == types.StateBusyRxAck {
		r.completeRx()
		return
	}
	trac := r.readTrac()
	r.recordTrac(trac)
	if trac != types.TracSuccess {
		r.log.Debugf("transmission ended with %s", trac)
	}
}

// completeRx moves the frame buffer into the next RX slot. With no free slot the frame is
// counted as an overflow and the buffer drained anyway.
func (r *Interface) completeRx() {
	slot := r.rx.Claim()
	if slot == nil {
		r.updateStats(func(s *Stats) { s.RxOverflow++ })
		r.drainFrame()
		r.waitRxAckDone()
		return
	}

	slot.Energy = r.readReg(reg.PhyEdLevel)
	slot.CrcOk = r.readReg(reg.PhyRssi)&reg.RssiCrcValid != 0
	n := r.readFrame(slot.psdu[:])
	r.waitRxAckDone()

	if err := r.decodeRx(slot, n); err != nil {
		r.updateStats(func(s *Stats) { s.RxInvalid++ })
		r.log.Debugf("dropped received frame: %v", err)
		return
	}
	r.rx.Commit()
	r.updateStats(func(s *Stats) { s.RxSuccess++ })
}

func (r *Interface) decodeRx(slot *RxFrame, n int) error {
	if n > types.MaxPsduLen {
		return errors.Wrapf(types.ErrMalformedFrame, "PHR length %d", n)
	}
	hdr, hdrLen, err := wpan.DecodeHeader(slot.psdu[:n])
	if err != nil {
		return err
	}
	if _, err = wpan.PayloadLen(n, hdrLen); err != nil {
		return err
	}
	slot.Header = hdr
	slot.psduLen = n
	slot.hdrLen = hdrLen
	return nil
}

// waitRxAckDone waits while the chip is still sending the automatic acknowledgement.
func (r *Interface) waitRxAckDone() {
	deadline := time.Now().Add(busyWait(r.Config()))
	for r.readState() == types.StateBusyRxAck {
		if !time.Now().Before(deadline) {
			r.log.Warnf("chip stuck in %s", types.StateBusyRxAck)
			return
		}
		r.port.DelayMicroseconds(reg.TimeBusyPoll)
	}
}

// transmitPending starts the transmission of the oldest queued frame if the chip is idle.
func (r *Interface) transmitPending() {
	f := r.tx.Peek()
	if f == nil || r.isBusy() {
		return
	}
	dst := f.Dst
	err := r.transmit(f)
	r.tx.Pop()
	select {
	case r.txFreed <- struct{}{}:
	default:
	}
	if err != nil {
		r.updateStats(func(s *Stats) { s.TxDropped++ })
		r.log.Warnf("dropped frame to %04x: %v", dst, err)
	}
}

func (r *Interface) transmit(f *TxFrame) error {
	if err := r.requestState(types.StateOff); err != nil {
		return err
	}
	if err := r.requestState(types.StateTxAckSend); err != nil {
		return err
	}

	cfg := r.Config()
	h := wpan.DataHeader(cfg.PanId, f.Dst, cfg.ShortAddress, r.seq.Next(), f.Ack)
	var buf [types.MaxPsduLen]byte
	hdr, err := wpan.AppendHeader(buf[:0], &h)
	if err != nil {
		return err
	}
	payload := f.Payload()
	if len(hdr)+len(payload)+types.FcsLen > types.MaxPsduLen {
		return errors.Wrapf(types.ErrInvalidArgument, "frame of %d bytes", len(hdr)+len(payload)+types.FcsLen)
	}

	r.writeFrame(hdr, payload)
	r.trxCommand(reg.TrxCmdTxStart)
	r.captureTx(hdr, payload)
	return nil
}

func (r *Interface) captureTx(hdr, payload []byte) {
	if r.tap == nil {
		return
	}
	slot := r.capture.Claim()
	if slot == nil {
		r.updateStats(func(s *Stats) { s.CaptureDropped++ })
		return
	}
	slot.n = copy(slot.psdu[:], hdr)
	slot.n += copy(slot.psdu[slot.n:], payload)
	r.capture.Commit()
}

// listen returns the chip to receive with automatic acknowledgement.
func (r *Interface) listen() {
	var err error
	for i := 0; i < maxListenAttempts; i++ {
		if err = r.requestState(types.StateRxAckListen); err == nil {
			return
		}
	}
	r.log.Errorf("cannot return to listening: %v", err)
}
