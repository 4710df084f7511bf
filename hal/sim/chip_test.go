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

package sim

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-radif/hal"
	"github.com/openthread/ot-radif/radio/reg"
	"github.com/openthread/ot-radif/types"
)

var _ hal.Port = (*Chip)(nil)

type countingTrigger struct {
	n atomic.Int32
}

func (ct *countingTrigger) Trigger() {
	ct.n.Add(1)
}

func readReg(c *Chip, addr byte) byte {
	c.SPIBegin()
	c.Transfer(reg.CmdRegRead | addr)
	v := c.Transfer(0)
	c.SPIEnd()
	return v
}

func writeReg(c *Chip, addr, v byte) {
	c.SPIBegin()
	c.Transfer(reg.CmdRegWrite | addr)
	c.Transfer(v)
	c.SPIEnd()
}

func powerUp(c *Chip) {
	c.ResetPinSet()
	c.ResetPinClear()
}

func TestResetAndIdentify(t *testing.T) {
	c := New()
	assert.Equal(t, types.StatePowerOn, c.State())
	powerUp(c)
	assert.Equal(t, types.StateOff, c.State())
	assert.Equal(t, reg.At86rf212PartNum, readReg(c, reg.PartNum))
	assert.Equal(t, reg.At86rf212VersionNum, readReg(c, reg.VersionNum))
	assert.Equal(t, 1, c.VersionReads())

	c = New(WithIdentity(0x0b, 0x02))
	powerUp(c)
	assert.Equal(t, byte(0x0b), readReg(c, reg.PartNum))
}

func TestRegisterWriteRead(t *testing.T) {
	c := New()
	powerUp(c)
	writeReg(c, reg.PhyTxPwr, 0xe8)
	assert.Equal(t, byte(0xe8), readReg(c, reg.PhyTxPwr))
	writeReg(c, reg.PartNum, 0x55)
	assert.Equal(t, reg.At86rf212PartNum, readReg(c, reg.PartNum))
}

func TestIllegalTransitionIgnored(t *testing.T) {
	c := New()
	powerUp(c)
	writeReg(c, reg.TrxState, reg.TrxCmdRxAackOn)
	assert.Equal(t, types.StateRxAckListen, c.State())

	writeReg(c, reg.TrxState, reg.TrxCmdTxAretOn)
	assert.Equal(t, types.StateRxAckListen, c.State())
	assert.Equal(t, 1, c.IllegalTransitions())

	writeReg(c, reg.TrxState, reg.TrxCmdPllOn)
	writeReg(c, reg.TrxState, reg.TrxCmdTxAretOn)
	assert.Equal(t, types.StateTxAckSend, c.State())
	assert.Equal(t, []byte{reg.TrxCmdRxAackOn, reg.TrxCmdTxAretOn, reg.TrxCmdPllOn, reg.TrxCmdTxAretOn}, c.StateCommands())
}

func TestTransmitAndIrq(t *testing.T) {
	c := New()
	trig := &countingTrigger{}
	c.Attach(trig)
	powerUp(c)
	writeReg(c, reg.IrqMask, reg.IrqTrxEnd)
	writeReg(c, reg.TrxState, reg.TrxCmdTxAretOn)

	c.SPIBegin()
	c.Transfer(reg.CmdFrameWrite)
	for _, b := range []byte{5, 1, 2, 3, 0, 0} {
		c.Transfer(b)
	}
	c.SPIEnd()

	c.HoldTx(true)
	writeReg(c, reg.TrxState, reg.TrxCmdTxStart)
	assert.Equal(t, types.StateBusyTxAck, c.State())
	assert.Equal(t, int32(0), trig.n.Load())

	c.SetTxOutcome(types.TracNoAck)
	c.ReleaseTx()
	assert.Equal(t, types.StateTxAckSend, c.State())
	assert.Equal(t, int32(1), trig.n.Load())
	assert.Equal(t, reg.IrqTrxEnd, readReg(c, reg.IrqStatus))
	assert.Equal(t, byte(0), readReg(c, reg.IrqStatus))
	assert.Equal(t, byte(types.TracNoAck), readReg(c, reg.TrxState)>>reg.TracStatusPos)
	assert.Equal(t, [][]byte{{1, 2, 3, 0, 0}}, c.Transmitted())

	c.HoldTx(false)
	writeReg(c, reg.TrxState, reg.TrxCmdTxStart)
	assert.Eventually(t, func() bool { return c.State() == types.StateTxAckSend }, time.Second, time.Millisecond)
	assert.Len(t, c.Transmitted(), 2)
}

func TestInjectAndFrameRead(t *testing.T) {
	c := New()
	trig := &countingTrigger{}
	c.Attach(trig)
	powerUp(c)
	writeReg(c, reg.IrqMask, reg.IrqTrxEnd)

	assert.False(t, c.Inject([]byte{1, 2, 0, 0}, 0x10, true))
	assert.Equal(t, 1, c.RxDropped())

	writeReg(c, reg.TrxState, reg.TrxCmdRxAackOn)
	require.True(t, c.Inject([]byte{1, 2, 0, 0}, 0x10, true))
	assert.Equal(t, int32(1), trig.n.Load())
	assert.Equal(t, reg.IrqTrxEnd, readReg(c, reg.IrqStatus))
	assert.Equal(t, byte(0x10), readReg(c, reg.PhyEdLevel))
	assert.NotZero(t, readReg(c, reg.PhyRssi)&reg.RssiCrcValid)

	c.SPIBegin()
	c.Transfer(reg.CmdFrameRead)
	n := c.Transfer(0)
	got := make([]byte, n)
	for i := range got {
		got[i] = c.Transfer(0)
	}
	assert.True(t, c.RxUnread())
	c.SPIEnd()
	assert.Equal(t, []byte{1, 2, 0, 0}, got)
	assert.False(t, c.RxUnread())
}

func TestDelayAdvancesTransmission(t *testing.T) {
	c := New(WithTxDuration(time.Hour))
	trig := &countingTrigger{}
	c.Attach(trig)
	powerUp(c)
	writeReg(c, reg.IrqMask, reg.IrqTrxEnd)
	writeReg(c, reg.TrxState, reg.TrxCmdTxAretOn)
	c.DelayMicroseconds(100)

	writeReg(c, reg.TrxState, reg.TrxCmdTxStart)
	assert.Equal(t, types.StateBusyTxAck, c.State())
	c.DelayMicroseconds(uint32(time.Hour/time.Microsecond) - 1)
	assert.Equal(t, types.StateBusyTxAck, c.State())
	assert.Equal(t, int32(0), trig.n.Load())

	c.DelayMicroseconds(1)
	assert.Equal(t, types.StateTxAckSend, c.State())
	assert.Equal(t, int32(1), trig.n.Load())
	assert.Equal(t, time.Hour+100*time.Microsecond, c.Elapsed())

	c.HoldTx(true)
	writeReg(c, reg.TrxState, reg.TrxCmdTxStart)
	c.DelayMicroseconds(uint32(time.Hour / time.Microsecond))
	assert.Equal(t, types.StateBusyTxAck, c.State())
	c.ReleaseTx()
	assert.Equal(t, types.StateTxAckSend, c.State())
}

func TestSleepPin(t *testing.T) {
	c := New()
	powerUp(c)
	c.SleepPinSet()
	assert.Equal(t, types.StateSleep, c.State())
	assert.Equal(t, byte(0), readReg(c, reg.PartNum))
	c.SleepPinClear()
	assert.Equal(t, types.StateOff, c.State())
}

func TestEnergyDetect(t *testing.T) {
	c := New()
	powerUp(c)
	c.SetChannelEnergy(0x33)
	writeReg(c, reg.IrqMask, 0)
	writeReg(c, reg.TrxState, reg.TrxCmdRxOn)
	writeReg(c, reg.PhyEdLevel, 0)
	assert.Equal(t, byte(0), readReg(c, reg.IrqStatus)&reg.IrqCcaEdDone)

	writeReg(c, reg.PhyEdLevel, 0)
	writeReg(c, reg.IrqMask, reg.IrqCcaEdDone)
	assert.Equal(t, reg.IrqCcaEdDone, readReg(c, reg.IrqStatus)&reg.IrqCcaEdDone)
	assert.Equal(t, byte(0x33), readReg(c, reg.PhyEdLevel))
}

func TestRecords(t *testing.T) {
	c := New()
	c.DelayMicroseconds(5)
	c.RequestDeferredInterrupt()
	assert.Equal(t, []uint32{5}, c.Delays())
	assert.Equal(t, 1, c.DeferredRequests())
	c.ClearRecords()
	assert.Empty(t, c.Delays())
}
