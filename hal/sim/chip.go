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

// Package sim is a register-level model of the AT86RF212 that implements hal.Port, so that the
// driver can run on a host without radio hardware.
package sim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/openthread/ot-radif/hal"
	"github.com/openthread/ot-radif/radio/reg"
	"github.com/openthread/ot-radif/types"
)

type spiMode int

const (
	spiIdle spiMode = iota
	spiCommand
	spiRegRead
	spiRegWrite
	spiFrameRead
	spiFrameWrite
	spiSramRead
	spiSramWrite
)

type Option func(c *Chip)

// WithSeed seeds the random bits reported in PHY_RSSI.
func WithSeed(seed int64) Option {
	return func(c *Chip) {
		c.rnd = rand.New(rand.NewSource(seed))
	}
}

// WithIdentity sets the part and version numbers the chip reports.
func WithIdentity(part, version byte) Option {
	return func(c *Chip) {
		c.partNum, c.versionNum = part, version
	}
}

// WithEcho makes the chip receive a copy of every transmitted frame, with source and destination
// swapped, shortly after the transmission ends.
func WithEcho(delay time.Duration) Option {
	return func(c *Chip) {
		c.echo = true
		c.echoDelay = delay
	}
}

// WithTxDuration sets how long a transmission keeps the chip busy.
func WithTxDuration(d time.Duration) Option {
	return func(c *Chip) {
		c.txDuration = d
	}
}

// WithRealDelays makes DelayMicroseconds actually sleep.
func WithRealDelays() Option {
	return func(c *Chip) {
		c.realDelays = true
	}
}

// Chip is the simulated transceiver.
type Chip struct {
	mu      sync.Mutex
	trigger hal.Trigger

	regs     [reg.NumRegisters]byte
	state    types.TransceiverState
	trac     types.TracStatus
	frame    []byte
	crcOk    bool
	rxUnread bool

	partNum    byte
	versionNum byte
	rnd        *rand.Rand

	// SPI transaction in progress
	inTxn   bool
	mode    spiMode
	pos     int
	addr    byte
	wrFrame []byte

	resetAsserted bool
	sleepPin      bool
	edPending     bool
	channelEnergy byte

	holdTx     bool
	txBusy     bool
	txGen      int
	txDuration time.Duration
	txOutcome  types.TracStatus
	txFrames   [][]byte
	echo       bool
	echoDelay  time.Duration
	realDelays bool

	// simulated time advanced by DelayMicroseconds
	elapsedUs uint64
	txDoneUs  uint64

	stateCmds    []byte
	delays       []uint32
	versionReads int
	illegal      int
	deferred     int
	rxDropped    int
}

// maxRecords bounds each record list; older entries are discarded.
const maxRecords = 4096

func keepLast[T any](s []T) []T {
	if len(s) > maxRecords {
		return append(s[:0], s[len(s)-maxRecords:]...)
	}
	return s
}

func New(opts ...Option) *Chip {
	c := &Chip{
		state:      types.StatePowerOn,
		partNum:    reg.At86rf212PartNum,
		versionNum: reg.At86rf212VersionNum,
		rnd:        rand.New(rand.NewSource(1)),
		txOutcome:  types.TracSuccess,
		trac:       types.TracInvalid,
		txDuration: 100 * time.Microsecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resetRegisters()
	return c
}

// Attach connects the chip's IRQ output and the deferred interrupt request to t.
// t.Trigger must not call back into the chip synchronously.
func (c *Chip) Attach(t hal.Trigger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trigger = t
}

func (c *Chip) resetRegisters() {
	c.regs = [reg.NumRegisters]byte{}
	c.regs[reg.TrxCtrl0] = 0x09
	c.regs[reg.TrxCtrl1] = reg.TxAutoCrcOn
	c.regs[reg.PhyTxPwr] = 0x60
	c.regs[reg.TrxCtrl2] = byte(types.ModBpsk300K20Kbit)
	c.regs[reg.IrqMask] = 0xff
	c.regs[reg.CcCtrl1] = 0x00
	c.regs[reg.CcCtrl0] = 0x00
	c.regs[reg.ShortAddr0], c.regs[reg.ShortAddr1] = 0xff, 0xff
	c.regs[reg.PanId0], c.regs[reg.PanId1] = 0xff, 0xff
	c.regs[reg.XahCtrl0] = 0x38
	c.regs[reg.CsmaSeed1] = 0x42
	c.trac = types.TracInvalid
	c.txBusy = false
	c.edPending = false
}

func (c *Chip) raiseIrq(bits byte) {
	bits &= c.regs[reg.IrqMask]
	if bits == 0 {
		return
	}
	c.regs[reg.IrqStatus] |= bits
	if c.trigger != nil {
		c.trigger.Trigger()
	}
}

// SPIBegin asserts chip select.
func (c *Chip) SPIBegin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inTxn = true
	c.mode = spiCommand
	c.pos = 0
}

// SPIEnd deasserts chip select and commits a frame buffer write.
func (c *Chip) SPIEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == spiFrameWrite && len(c.wrFrame) > 0 {
		n := int(c.wrFrame[0])
		psdu := c.wrFrame[1:]
		if n < len(psdu) {
			psdu = psdu[:n]
		}
		c.frame = append([]byte(nil), psdu...)
	}
	if c.mode == spiFrameRead && c.pos >= 2+len(c.frame) {
		c.rxUnread = false
	}
	c.inTxn = false
	c.mode = spiIdle
	c.wrFrame = nil
}

// Transfer exchanges one byte of the current transaction.
func (c *Chip) Transfer(out byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inTxn || c.state == types.StateSleep || c.resetAsserted {
		return 0
	}
	pos := c.pos
	c.pos++

	if c.mode == spiCommand {
		switch {
		case out&0xc0 == reg.CmdRegRead:
			c.mode, c.addr = spiRegRead, out&reg.RegAddrMask
		case out&0xc0 == reg.CmdRegWrite:
			c.mode, c.addr = spiRegWrite, out&reg.RegAddrMask
		case out&0xe0 == reg.CmdFrameRead:
			c.mode = spiFrameRead
		case out&0xe0 == reg.CmdFrameWrite:
			c.mode = spiFrameWrite
		case out&0xe0 == reg.CmdSramRead:
			c.mode = spiSramRead
		case out&0xe0 == reg.CmdSramWrite:
			c.mode = spiSramWrite
		}
		return 0
	}

	switch c.mode {
	case spiRegRead:
		if pos == 1 {
			return c.readReg(c.addr)
		}
	case spiRegWrite:
		if pos == 1 {
			c.writeReg(c.addr, out)
		}
	case spiFrameRead:
		switch {
		case pos == 1:
			return byte(len(c.frame))
		case pos-2 < len(c.frame):
			return c.frame[pos-2]
		case pos-2 == len(c.frame):
			return 0xff // LQI
		case pos-2 == len(c.frame)+1:
			return c.regs[reg.PhyEdLevel]
		}
	case spiFrameWrite:
		c.wrFrame = append(c.wrFrame, out)
	case spiSramRead, spiSramWrite:
		if pos == 1 {
			c.addr = out
			return 0
		}
		i := int(c.addr) + pos - 2
		if c.mode == spiSramRead {
			if i < len(c.frame) {
				return c.frame[i]
			}
			return 0
		}
		for len(c.frame) <= i && i < types.MaxPsduLen {
			c.frame = append(c.frame, 0)
		}
		if i < len(c.frame) {
			c.frame[i] = out
		}
	}
	return 0
}

func (c *Chip) readReg(addr byte) byte {
	switch addr {
	case reg.TrxStatus:
		return byte(c.state)
	case reg.TrxState:
		return byte(c.trac) << reg.TracStatusPos
	case reg.IrqStatus:
		if c.edPending && c.regs[reg.IrqMask]&reg.IrqCcaEdDone != 0 {
			c.edPending = false
			c.regs[reg.IrqStatus] |= reg.IrqCcaEdDone
		}
		v := c.regs[reg.IrqStatus]
		c.regs[reg.IrqStatus] = 0
		return v
	case reg.PhyRssi:
		v := byte(c.rnd.Intn(4)) << 5
		if c.crcOk {
			v |= reg.RssiCrcValid
		}
		return v
	case reg.PartNum:
		return c.partNum
	case reg.VersionNum:
		c.versionReads++
		return c.versionNum
	default:
		return c.regs[addr]
	}
}

func (c *Chip) writeReg(addr, v byte) {
	switch addr {
	case reg.TrxStatus, reg.PartNum, reg.VersionNum, reg.IrqStatus:
		return
	case reg.TrxState:
		c.command(v & reg.TrxCmdMask)
	case reg.PhyEdLevel:
		if c.state == types.StateRxListen || c.state == types.StateRxAckListen {
			c.regs[reg.PhyEdLevel] = c.channelEnergy
			c.edPending = true
		}
	default:
		c.regs[addr] = v
	}
}

func (c *Chip) command(cmd byte) {
	c.stateCmds = keepLast(append(c.stateCmds, cmd))
	if c.state == types.StateSleep || (c.state == types.StatePowerOn && cmd != reg.TrxCmdTrxOff && cmd != reg.TrxCmdForceTrxOff) {
		return
	}

	switch cmd {
	case reg.TrxCmdNop:
	case reg.TrxCmdForceTrxOff:
		c.txBusy = false
		c.state = types.StateOff
	case reg.TrxCmdForcePllOn:
		c.txBusy = false
		c.state = types.StatePllOn
	case reg.TrxCmdTxStart:
		c.startTx()
	default:
		target := types.TransceiverState(cmd)
		if !target.IsRequestable() {
			c.illegal++
			return
		}
		if !legal(c.state, target) {
			c.illegal++
			return
		}
		c.state = target
	}
}

// legal is the transition graph enforced by the chip firmware for TRX_CMD requests.
func legal(from, to types.TransceiverState) bool {
	if from == to {
		return true
	}
	switch from {
	case types.StatePowerOn:
		return to == types.StateOff
	case types.StateOff, types.StatePllOn:
		return true
	case types.StateRxListen, types.StateRxAckListen, types.StateTxAckSend:
		return to == types.StatePllOn || to == types.StateOff
	default:
		return false
	}
}

func (c *Chip) startTx() {
	switch c.state {
	case types.StateTxAckSend:
		c.state = types.StateBusyTxAck
	case types.StatePllOn:
		c.state = types.StateBusyTx
	default:
		c.illegal++
		return
	}
	c.txBusy = true
	c.txGen++
	c.txFrames = keepLast(append(c.txFrames, append([]byte(nil), c.frame...)))
	c.txDoneUs = c.elapsedUs + uint64(c.txDuration/time.Microsecond)
	if !c.holdTx {
		gen := c.txGen
		time.AfterFunc(c.txDuration, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.txGen == gen && !c.holdTx {
				c.finishTx()
			}
		})
	}
}

func (c *Chip) finishTx() {
	if !c.txBusy {
		return
	}
	c.txBusy = false
	if c.state == types.StateBusyTxAck {
		c.state = types.StateTxAckSend
		c.trac = c.txOutcome
	} else {
		c.state = types.StatePllOn
		c.trac = types.TracSuccess
	}
	sent := c.txFrames[len(c.txFrames)-1]
	c.raiseIrq(reg.IrqTrxEnd)
	if c.echo {
		reply := swapAddresses(sent)
		time.AfterFunc(c.echoDelay, func() {
			c.Inject(reply, 0x20, true)
		})
	}
}

func swapAddresses(psdu []byte) []byte {
	out := append([]byte(nil), psdu...)
	if len(out) >= 9 {
		out[5], out[6], out[7], out[8] = out[7], out[8], out[5], out[6]
	}
	return out
}

// SleepPinSet drives SLP_TR high. In TRX_OFF this puts the chip to sleep.
func (c *Chip) SleepPinSet() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleepPin = true
	if c.state == types.StateOff {
		c.state = types.StateSleep
	}
}

// SleepPinClear drives SLP_TR low and wakes a sleeping chip into TRX_OFF.
func (c *Chip) SleepPinClear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleepPin = false
	if c.state == types.StateSleep {
		c.state = types.StateOff
	}
}

// ResetPinSet asserts the (active low) reset line.
func (c *Chip) ResetPinSet() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAsserted = true
}

// ResetPinClear releases reset. A chip coming out of reset is in TRX_OFF with default registers.
func (c *Chip) ResetPinClear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resetAsserted {
		c.resetRegisters()
		c.state = types.StateOff
	}
	c.resetAsserted = false
}

// DelayMicroseconds advances the simulated clock by us. A transmission that is not held
// completes once its duration has elapsed on that clock or on the wall clock, whichever is first.
func (c *Chip) DelayMicroseconds(us uint32) {
	c.mu.Lock()
	c.delays = keepLast(append(c.delays, us))
	c.elapsedUs += uint64(us)
	if c.txBusy && !c.holdTx && c.elapsedUs >= c.txDoneUs {
		c.finishTx()
	}
	sleep := c.realDelays
	c.mu.Unlock()
	if sleep {
		time.Sleep(time.Duration(us) * time.Microsecond)
	}
}

func (c *Chip) RequestDeferredInterrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deferred++
	if c.trigger != nil {
		c.trigger.Trigger()
	}
}

// Inject delivers psdu (including the two FCS bytes) over the air. It returns false if the chip
// was not listening and dropped the frame.
func (c *Chip) Inject(psdu []byte, energy byte, crcOk bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(psdu) > types.MaxPsduLen || (c.state != types.StateRxAckListen && c.state != types.StateRxListen) {
		c.rxDropped++
		return false
	}
	c.frame = append(c.frame[:0], psdu...)
	c.crcOk = crcOk
	c.rxUnread = true
	c.regs[reg.PhyEdLevel] = energy
	c.trac = types.TracSuccess
	c.raiseIrq(reg.IrqRxStart | reg.IrqTrxEnd)
	return true
}

// HoldTx keeps subsequent transmissions busy until ReleaseTx.
func (c *Chip) HoldTx(hold bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdTx = hold
}

// ReleaseTx completes the transmission in progress.
func (c *Chip) ReleaseTx() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishTx()
}

// SetTxOutcome sets the TRAC status reported for extended-mode transmissions.
func (c *Chip) SetTxOutcome(trac types.TracStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txOutcome = trac
}

// SetChannelEnergy sets the result of the next energy detect measurement.
func (c *Chip) SetChannelEnergy(ed byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelEnergy = ed
}

// SetIdentity changes the part and version numbers reported from now on.
func (c *Chip) SetIdentity(part, version byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partNum, c.versionNum = part, version
}

// SetState forces the chip state, for setting up test conditions.
func (c *Chip) SetState(s types.TransceiverState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Chip) State() types.TransceiverState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Register returns the raw value of a register without read side effects.
func (c *Chip) Register(addr byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[addr&reg.RegAddrMask]
}

// Transmitted returns a copy of all PSDUs transmitted so far.
func (c *Chip) Transmitted() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.txFrames))
	copy(out, c.txFrames)
	return out
}

// StateCommands returns the TRX_STATE command values written since the last ClearRecords.
func (c *Chip) StateCommands() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.stateCmds...)
}

// Elapsed returns the simulated time advanced by DelayMicroseconds.
func (c *Chip) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.elapsedUs) * time.Microsecond
}

// RxUnread reports whether a received frame is still waiting to be read out of the frame
// buffer.
func (c *Chip) RxUnread() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rxUnread
}

// Delays returns the settling delays requested since the last ClearRecords.
func (c *Chip) Delays() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint32(nil), c.delays...)
}

func (c *Chip) VersionReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versionReads
}

// IllegalTransitions counts state commands the chip ignored.
func (c *Chip) IllegalTransitions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.illegal
}

func (c *Chip) DeferredRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deferred
}

// RxDropped counts injected frames the chip was not listening for.
func (c *Chip) RxDropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rxDropped
}

func (c *Chip) ClearRecords() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateCmds = nil
	c.delays = nil
	c.versionReads = 0
	c.illegal = 0
}
