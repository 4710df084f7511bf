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
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-radif/hal/sim"
	"github.com/openthread/ot-radif/irq"
	"github.com/openthread/ot-radif/radio/reg"
	"github.com/openthread/ot-radif/types"
	"github.com/openthread/ot-radif/wpan"
)

const waitFor = 2 * time.Second

type testRadio struct {
	*Interface
	chip *sim.Chip
	line *irq.Line

	mu       sync.Mutex
	received []receivedFrame
}

type receivedFrame struct {
	src     types.ShortAddr
	payload []byte
	hdrLen  int
	energy  byte
	crcOk   bool
}

func newTestRadio(t *testing.T, chipOpts []sim.Option, opts ...Option) *testRadio {
	tr := &testRadio{
		chip: sim.New(chipOpts...),
		line: irq.NewLine("radio", 0),
	}
	tr.chip.Attach(tr.line)
	opts = append(opts, WithReceiveCallback(tr.onReceive))
	r, err := New(tr.chip, types.DefaultRadioConfig(), opts...)
	require.NoError(t, err)
	tr.Interface = r

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = tr.line.Run(ctx, r.HandleInterrupt)
	}()
	return tr
}

func (tr *testRadio) onReceive(f *RxFrame) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.received = append(tr.received, receivedFrame{
		src:     f.Src(),
		payload: append([]byte(nil), f.Payload()...),
		hdrLen:  f.HeaderLen(),
		energy:  f.Energy,
		crcOk:   f.CrcOk,
	})
}

func (tr *testRadio) receivedCount() int {
	tr.Service()
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.received)
}

func (tr *testRadio) start(t *testing.T) {
	require.NoError(t, tr.Start(context.Background()))
	require.True(t, tr.IsUp())
	require.Eventually(t, func() bool { return tr.chip.State() == types.StateRxAckListen }, waitFor, time.Millisecond)
}

func psdu(t *testing.T, src, dst types.ShortAddr, payload []byte) []byte {
	h := wpan.DataHeader(0x1234, dst, src, 1, false)
	b, err := wpan.EncodeHeader(&h)
	require.NoError(t, err)
	b = append(b, payload...)
	return append(b, 0, 0)
}

// newBareRadio returns an interface whose handler is not running, for driving the state
// machine directly from the test goroutine.
func newBareRadio(t *testing.T) (*Interface, *sim.Chip) {
	chip := sim.New()
	r, err := New(chip, types.DefaultRadioConfig())
	require.NoError(t, err)
	return r, chip
}

func TestRequestStateFromOffSkipsHop(t *testing.T) {
	r, chip := newBareRadio(t)
	chip.SetState(types.StateOff)
	chip.ClearRecords()

	require.NoError(t, r.requestState(types.StateRxAckListen))
	assert.Equal(t, types.StateRxAckListen, chip.State())
	assert.Equal(t, []byte{reg.TrxCmdRxAackOn}, chip.StateCommands())
	assert.Equal(t, []uint32{reg.TimeTrxOffToPllOn}, chip.Delays())
}

func TestRequestStateExtendedModeHops(t *testing.T) {
	r, chip := newBareRadio(t)

	chip.SetState(types.StateRxAckListen)
	chip.ClearRecords()
	require.NoError(t, r.requestState(types.StateTxAckSend))
	assert.Equal(t, []byte{reg.TrxCmdPllOn, reg.TrxCmdTxAretOn}, chip.StateCommands())
	assert.Equal(t, []uint32{reg.TimeRxOnToPllOn, reg.TimeRxOnToPllOn}, chip.Delays())

	chip.ClearRecords()
	require.NoError(t, r.requestState(types.StateRxAckListen))
	assert.Equal(t, []byte{reg.TrxCmdPllOn, reg.TrxCmdRxAackOn}, chip.StateCommands())
	assert.Equal(t, 0, chip.IllegalTransitions())
}

func TestRequestStateLegalGraph(t *testing.T) {
	requestable := []types.TransceiverState{types.StateOff, types.StatePllOn, types.StateRxListen,
		types.StateRxAckListen, types.StateTxAckSend}
	r, chip := newBareRadio(t)
	for _, from := range requestable {
		for _, to := range requestable {
			chip.SetState(from)
			chip.ClearRecords()
			require.NoError(t, r.requestState(to), "%s -> %s", from, to)
			assert.Equal(t, to, chip.State(), "%s -> %s", from, to)
			assert.Equal(t, 0, chip.IllegalTransitions(), "%s -> %s", from, to)

			hops := 0
			for _, cmd := range chip.StateCommands() {
				if types.TransceiverState(cmd).IsRequestable() {
					hops++
				}
			}
			if from == to {
				assert.Equal(t, 0, hops)
			} else {
				assert.LessOrEqual(t, hops-1, 1, "%s -> %s", from, to)
			}
		}
	}
}

func TestRequestStateIdempotent(t *testing.T) {
	r, chip := newBareRadio(t)
	chip.SetState(types.StatePllOn)
	chip.ClearRecords()
	require.NoError(t, r.requestState(types.StatePllOn))
	assert.Empty(t, chip.StateCommands())
	assert.Empty(t, chip.Delays())
}

func TestBusyWait(t *testing.T) {
	cfg := types.DefaultRadioConfig()
	cfg.Modulation = types.ModBpsk300K20Kbit
	// 133 byte frame at 20 kbit/s is 53.2 ms on air, each of the 4 attempts adds the ack window
	// and 5 maximum backoffs.
	assert.Equal(t, 869200*time.Microsecond, busyWait(cfg))
	assert.True(t, busyWait(cfg) < cfg.CommandTimeout)

	cfg.Modulation = types.ModOqpsk1000K1000Kbit
	cfg.MaxFrameRetries = 0
	cfg.MaxCsmaRetries = 0
	assert.Equal(t, (1064+952+10048)*time.Microsecond, busyWait(cfg))
}

// newShortBusyRadio is a bare radio whose busy wait gives up after about 12 ms.
func newShortBusyRadio(t *testing.T) (*Interface, *sim.Chip) {
	cfg := types.DefaultRadioConfig()
	cfg.Modulation = types.ModOqpsk1000K1000Kbit
	cfg.MaxFrameRetries = 0
	cfg.MaxCsmaRetries = 0
	chip := sim.New()
	r, err := New(chip, cfg)
	require.NoError(t, err)
	return r, chip
}

func TestRequestStateBusyTimesOut(t *testing.T) {
	r, chip := newShortBusyRadio(t)
	chip.SetState(types.StateBusyTxAck)
	chip.ClearRecords()
	begin := time.Now()
	err := r.requestState(types.StateRxAckListen)
	assert.True(t, errors.Is(err, types.ErrTimeout))
	assert.True(t, time.Since(begin) >= busyWait(r.Config()))
	assert.NotEmpty(t, chip.Delays())
	for _, d := range chip.Delays() {
		assert.Equal(t, reg.TimeBusyPoll, d)
	}
	assert.Empty(t, chip.StateCommands())

	err = r.requestState(types.StateBusyRx)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestSendWhileDown(t *testing.T) {
	tr := newTestRadio(t, nil)
	err := tr.Send(context.Background(), []byte("hello"), 2, false)
	assert.Equal(t, types.ErrInterfaceDown, err)
	assert.Equal(t, types.ErrInterfaceDown, tr.TrySend([]byte("hello"), 2, false))
	assert.Equal(t, 0, tr.TxPending())
}

func TestResetUnsupportedDevice(t *testing.T) {
	tr := newTestRadio(t, []sim.Option{sim.WithIdentity(reg.At86rf212PartNum, 0x02)})
	err := tr.Reset(context.Background())
	assert.True(t, errors.Is(err, types.ErrUnsupportedDevice))
	assert.Equal(t, identifyAttempts, tr.chip.VersionReads())
	assert.False(t, tr.IsUp())

	tr.chip.SetIdentity(0x0b, reg.At86rf212VersionNum)
	tr.chip.ClearRecords()
	err = tr.Start(context.Background())
	assert.True(t, errors.Is(err, types.ErrUnsupportedDevice))
	assert.Equal(t, identifyAttempts, tr.chip.VersionReads())
}

func TestStartConfiguresChip(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)

	c := tr.chip
	assert.Equal(t, reg.IrqRxStart|reg.IrqTrxEnd, c.Register(reg.IrqMask))
	assert.Equal(t, reg.TxAutoCrcOn, c.Register(reg.TrxCtrl1)&reg.TxAutoCrcOn)
	assert.Equal(t, byte(0), c.Register(reg.XahCtrl1)&reg.AackPromMode)
	assert.Equal(t, byte(3<<4|4<<1), c.Register(reg.XahCtrl0))
	assert.Equal(t, byte(types.ModOqpsk400K200Kbit), c.Register(reg.TrxCtrl2)&types.ModulationMask)
	assert.Equal(t, reg.OqpskTxOffset, c.Register(reg.RfCtrl0)&reg.RfTxOffsetMask)
	assert.Equal(t, byte(2), c.Register(reg.CcCtrl1)&reg.CcBandMask)
	assert.Equal(t, byte(8683-8570), c.Register(reg.CcCtrl0))
	assert.Equal(t, byte(0xe8), c.Register(reg.PhyTxPwr))
	assert.Equal(t, byte(0x34), c.Register(reg.PanId0))
	assert.Equal(t, byte(0x12), c.Register(reg.PanId1))
	assert.Equal(t, byte(0x01), c.Register(reg.ShortAddr0))
	assert.Equal(t, byte(0x00), c.Register(reg.ShortAddr1))
	assert.Equal(t, byte(0x19), c.Register(reg.TrxCtrl0)&reg.TrxCtrl0Mask)
	assert.Equal(t, reg.AackFvnV0V1<<reg.AackFvnPos, c.Register(reg.CsmaSeed1)&reg.AackFvnMask)
}

func TestSendFrameLayout(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)

	require.NoError(t, tr.Send(context.Background(), []byte("hello"), 0x0002, true))
	require.NoError(t, tr.Send(context.Background(), []byte("world"), 0x0003, false))
	require.Eventually(t, func() bool { return tr.Stats().TxSuccess == 2 }, waitFor, time.Millisecond)

	sent := tr.chip.Transmitted()
	require.Len(t, sent, 2)
	assert.Len(t, sent[0], 9+5+2)
	h, n, err := wpan.DecodeHeader(sent[0])
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.True(t, h.FrameControl.AckRequest())
	assert.Equal(t, types.PanId(0x1234), h.DstPanId)
	assert.Equal(t, types.ShortAddr(0x0002), h.DstAddr)
	assert.Equal(t, types.ShortAddr(0x0001), h.SrcAddr)
	assert.Equal(t, []byte("hello"), sent[0][9:14])

	h2, _, err := wpan.DecodeHeader(sent[1])
	require.NoError(t, err)
	assert.False(t, h2.FrameControl.AckRequest())
	assert.Equal(t, h.Seq+1, h2.Seq)

	assert.Eventually(t, func() bool { return tr.chip.State() == types.StateRxAckListen }, waitFor, time.Millisecond)
}

func TestSendRejectsOversizedFrame(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)

	err := tr.Send(context.Background(), make([]byte, MaxPayloadLen+1), 2, false)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	assert.Equal(t, 0, tr.TxPending())
	assert.NoError(t, tr.Send(context.Background(), make([]byte, MaxPayloadLen), 2, false))
	assert.Eventually(t, func() bool { return tr.Stats().TxSuccess == 1 }, waitFor, time.Millisecond)
	assert.Len(t, tr.chip.Transmitted()[0], types.MaxPsduLen)
}

func TestSendBlocksWhileQueueFull(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)
	tr.chip.HoldTx(true)

	for i := 0; i < 8; i++ {
		require.NoError(t, tr.Send(context.Background(), []byte{byte(i)}, 2, false))
	}
	require.Eventually(t, func() bool {
		return len(tr.chip.Transmitted()) == 1 && tr.TxPending() == 7
	}, waitFor, time.Millisecond)
	assert.Equal(t, types.ErrQueueFull, errors.Cause(tr.TrySend([]byte{8}, 2, false)))

	done := make(chan error, 1)
	go func() {
		done <- tr.Send(context.Background(), []byte{8}, 2, false)
	}()
	select {
	case err := <-done:
		t.Fatalf("send returned %v while the queue was full", err)
	case <-time.After(50 * time.Millisecond):
	}

	tr.chip.ReleaseTx()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("send still blocked after a slot was freed")
	}
	assert.Eventually(t, func() bool { return tr.Stats().TxSuccess == 1 }, waitFor, time.Millisecond)

	tr.chip.HoldTx(false)
	tr.chip.ReleaseTx()
	assert.Eventually(t, func() bool { return tr.Stats().TxSuccess == 9 }, waitFor, time.Millisecond)
	assert.Equal(t, 0, tr.TxPending())
}

func TestSendTimesOutWhenQueueStaysFull(t *testing.T) {
	cfg := types.DefaultRadioConfig()
	cfg.SendTimeout = 30 * time.Millisecond
	chip := sim.New()
	r, err := New(chip, cfg)
	require.NoError(t, err)
	r.up.Store(true)

	for i := 0; i < 7; i++ {
		require.NoError(t, r.TrySend([]byte{1}, 2, false))
	}
	err = r.Send(context.Background(), []byte{1}, 2, false)
	assert.True(t, errors.Is(err, types.ErrQueueFull))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err = r.Send(ctx, []byte{1}, 2, false)
	assert.True(t, errors.Is(err, types.ErrQueueFull))
	assert.Equal(t, 7, r.TxPending())
}

func TestReceiveFrame(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)

	payload := []byte("0123456789abcdefghij")
	frame := psdu(t, 0x0005, 0x0001, payload)
	require.True(t, tr.chip.Inject(frame, 0x30, true))
	require.Eventually(t, func() bool { return tr.receivedCount() == 1 }, waitFor, time.Millisecond)

	got := tr.received[0]
	assert.Equal(t, types.ShortAddr(0x0005), got.src)
	assert.Equal(t, 9, got.hdrLen)
	assert.Equal(t, len(frame)-11, len(got.payload))
	assert.Equal(t, payload, got.payload)
	assert.Equal(t, byte(0x30), got.energy)
	assert.True(t, got.crcOk)
	assert.Equal(t, uint64(1), tr.Stats().RxSuccess)
}

func TestReceiveOverflow(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)

	for i := 0; i < 9; i++ {
		require.True(t, tr.chip.Inject(psdu(t, 5, 1, []byte{byte(i)}), 0, true))
		want := uint64(i + 1)
		require.Eventually(t, func() bool {
			s := tr.Stats()
			return s.RxSuccess+s.RxOverflow == want
		}, waitFor, time.Millisecond)
		assert.False(t, tr.chip.RxUnread(), "frame %d left in the frame buffer", i)
	}
	s := tr.Stats()
	assert.Equal(t, uint64(7), s.RxSuccess)
	assert.Equal(t, uint64(2), s.RxOverflow)
	assert.Equal(t, 7, tr.RxPending())

	assert.Equal(t, 7, tr.Service())
	tr.mu.Lock()
	for i, f := range tr.received {
		assert.Equal(t, []byte{byte(i)}, f.payload)
	}
	tr.mu.Unlock()

	require.Eventually(t, func() bool { return tr.chip.State() == types.StateRxAckListen }, waitFor, time.Millisecond)
	require.True(t, tr.chip.Inject(psdu(t, 5, 1, []byte{9}), 0, true))
	require.Eventually(t, func() bool { return tr.receivedCount() == 8 }, waitFor, time.Millisecond)
	assert.False(t, tr.chip.RxUnread())
	assert.Equal(t, uint64(8), tr.Stats().RxSuccess)
	assert.Equal(t, uint64(2), tr.Stats().RxOverflow)
	tr.mu.Lock()
	assert.Equal(t, []byte{9}, tr.received[7].payload)
	tr.mu.Unlock()
}

func TestReceiveDropsUnsupportedFrames(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)

	fc := wpan.FrameControl(wpan.FrameTypeData) | wpan.AddrModeExtended<<10 | wpan.AddrModeShort<<14
	frame := append([]byte{byte(fc), byte(fc >> 8)}, make([]byte, 22)...)
	require.True(t, tr.chip.Inject(frame, 0, true))
	require.Eventually(t, func() bool { return tr.Stats().RxInvalid == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, 0, tr.receivedCount())
	assert.Equal(t, uint64(0), tr.Stats().RxSuccess)
}

func TestTracClassification(t *testing.T) {
	for _, tc := range []struct {
		trac  types.TracStatus
		count func(s Stats) uint64
	}{
		{types.TracSuccess, func(s Stats) uint64 { return s.TxSuccess }},
		{types.TracSuccessDataPending, func(s Stats) uint64 { return s.TxSuccess }},
		{types.TracChannelAccessFail, func(s Stats) uint64 { return s.TxChannelFail }},
		{types.TracNoAck, func(s Stats) uint64 { return s.TxNoAck }},
		{types.TracInvalid, func(s Stats) uint64 { return s.TxInvalid }},
	} {
		r, _ := newBareRadio(t)
		r.recordTrac(tc.trac)
		s := r.Stats()
		assert.Equal(t, uint64(1), tc.count(s), "%s", tc.trac)
		assert.Equal(t, uint64(1), s.TxSuccess+s.TxChannelFail+s.TxNoAck+s.TxInvalid, "%s", tc.trac)
		assert.Equal(t, tc.trac, s.LastTrac)
	}
}

func TestTransmissionOutcomes(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)

	tr.chip.SetTxOutcome(types.TracNoAck)
	require.NoError(t, tr.Send(context.Background(), []byte("x"), 2, true))
	require.Eventually(t, func() bool { return tr.Stats().TxNoAck == 1 }, waitFor, time.Millisecond)

	tr.chip.SetTxOutcome(types.TracChannelAccessFail)
	require.NoError(t, tr.Send(context.Background(), []byte("y"), 2, true))
	require.Eventually(t, func() bool { return tr.Stats().TxChannelFail == 1 }, waitFor, time.Millisecond)

	s := tr.Stats()
	assert.Equal(t, uint64(0), s.TxSuccess)
	assert.Equal(t, types.TracChannelAccessFail, s.LastTrac)
	assert.Equal(t, "channel-access-failure", s.LastTracString)
}

func TestCommands(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)
	ctx := context.Background()

	err := tr.SetFrequency(ctx, 9000)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	require.NoError(t, tr.SetFrequency(ctx, 9150))
	assert.Equal(t, byte(3), tr.chip.Register(reg.CcCtrl1)&reg.CcBandMask)
	assert.Equal(t, byte(120), tr.chip.Register(reg.CcCtrl0))
	assert.Equal(t, uint16(9150), tr.Config().Frequency)

	require.NoError(t, tr.SetPower(ctx, 0xc0))
	assert.Equal(t, byte(0xc0), tr.chip.Register(reg.PhyTxPwr))

	require.NoError(t, tr.SetAddress(ctx, 0xbeef, 0x0042))
	assert.Equal(t, byte(0xef), tr.chip.Register(reg.PanId0))
	assert.Equal(t, byte(0x42), tr.chip.Register(reg.ShortAddr0))

	require.NoError(t, tr.SetModulation(ctx, types.ModBpsk300K20Kbit))
	assert.Equal(t, reg.BpskTxOffset, tr.chip.Register(reg.RfCtrl0)&reg.RfTxOffsetMask)
	assert.True(t, errors.Is(tr.SetModulation(ctx, 0x40), types.ErrInvalidArgument))

	tr.chip.SetChannelEnergy(0x42)
	ed, err := tr.MeasureEnergy(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), ed)

	_, err = tr.RandomByte(ctx)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return tr.chip.State() == types.StateRxAckListen }, waitFor, time.Millisecond)
}

func TestCommandWaitsOutTransmission(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)
	ctx := context.Background()

	tr.chip.HoldTx(true)
	require.NoError(t, tr.Send(ctx, []byte("on air"), 2, true))
	require.Eventually(t, func() bool { return tr.chip.State() == types.StateBusyTxAck }, waitFor, time.Millisecond)

	tr.chip.SetChannelEnergy(0x17)
	released := make(chan struct{})
	go func() {
		defer close(released)
		time.Sleep(20 * time.Millisecond)
		tr.chip.HoldTx(false)
		tr.chip.ReleaseTx()
	}()
	ed, err := tr.MeasureEnergy(ctx)
	<-released
	require.NoError(t, err)
	assert.Equal(t, byte(0x17), ed)
	assert.Len(t, tr.chip.Transmitted(), 1)
	assert.Eventually(t, func() bool { return tr.chip.State() == types.StateRxAckListen }, waitFor, time.Millisecond)
}

func TestSleepAndWake(t *testing.T) {
	tr := newTestRadio(t, nil)
	tr.start(t)
	ctx := context.Background()

	require.NoError(t, tr.Sleep(ctx))
	assert.False(t, tr.IsUp())
	assert.Equal(t, types.StateSleep, tr.chip.State())
	assert.Equal(t, types.StateSleep, tr.State())
	assert.Equal(t, types.ErrInterfaceDown, tr.Send(ctx, []byte("x"), 2, false))

	require.NoError(t, tr.Wake(ctx))
	assert.True(t, tr.IsUp())
	assert.Equal(t, types.StateRxAckListen, tr.chip.State())
}

func TestFailedWakeLeavesInterfaceDown(t *testing.T) {
	r, chip := newShortBusyRadio(t)
	chip.SetState(types.StateBusyTxAck)

	v, err := r.runCommand(types.CmdWake)
	assert.True(t, errors.Is(err, types.ErrTimeout))
	assert.Equal(t, byte(types.StatusTimedOut), v)
	assert.False(t, r.IsUp())

	chip.SetState(types.StateSleep)
	v, err = r.runCommand(types.CmdWake)
	require.NoError(t, err)
	assert.Equal(t, byte(types.StatusSuccess), v)
	assert.True(t, r.IsUp())
	assert.Equal(t, types.StateRxAckListen, chip.State())
}

func TestIssueWithoutHandlerTimesOut(t *testing.T) {
	cfg := types.DefaultRadioConfig()
	cfg.CommandTimeout = 20 * time.Millisecond
	chip := sim.New()
	r, err := New(chip, cfg)
	require.NoError(t, err)

	_, err = r.Issue(context.Background(), types.CmdGetRandom)
	assert.True(t, errors.Is(err, types.ErrTimeout))
	assert.Nil(t, r.mailbox.slot.Load())
	assert.Equal(t, 1, chip.DeferredRequests())

	r.HandleInterrupt()
	assert.Nil(t, r.mailbox.slot.Load())
}

func TestUnknownCommandClearsMailbox(t *testing.T) {
	tr := newTestRadio(t, nil)
	v, err := tr.Issue(context.Background(), types.Command(0x7f))
	assert.NoError(t, err)
	assert.Equal(t, byte(0), v)
	assert.Nil(t, tr.mailbox.slot.Load())
}

type recordingTap struct {
	mu     sync.Mutex
	frames map[Direction][][]byte
}

func (rt *recordingTap) CaptureFrame(dir Direction, psdu []byte) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.frames[dir] = append(rt.frames[dir], append([]byte(nil), psdu...))
}

func (rt *recordingTap) count(dir Direction) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.frames[dir])
}

type recordingObserver struct {
	mu     sync.Mutex
	states []types.TransceiverState
}

func (ro *recordingObserver) OnStateChange(s types.TransceiverState) {
	ro.mu.Lock()
	defer ro.mu.Unlock()
	ro.states = append(ro.states, s)
}

func TestTapAndObserver(t *testing.T) {
	tap := &recordingTap{frames: map[Direction][][]byte{}}
	obs := &recordingObserver{}
	tr := newTestRadio(t, nil, WithTap(tap), WithStateObserver(obs))
	tr.start(t)

	require.NoError(t, tr.Send(context.Background(), []byte("out"), 2, false))
	require.Eventually(t, func() bool { return tr.Stats().TxSuccess == 1 }, waitFor, time.Millisecond)
	require.Eventually(t, func() bool { return tr.chip.State() == types.StateRxAckListen }, waitFor, time.Millisecond)
	require.True(t, tr.chip.Inject(psdu(t, 5, 1, []byte("in")), 0, true))
	require.Eventually(t, func() bool { return tr.receivedCount() == 1 }, waitFor, time.Millisecond)
	tr.Service()

	assert.Equal(t, 1, tap.count(DirectionRx))
	assert.Equal(t, 1, tap.count(DirectionTx))
	assert.Len(t, tap.frames[DirectionTx][0], 9+3)
	assert.Len(t, tap.frames[DirectionRx][0], 9+2)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Contains(t, obs.states, types.StateOff)
	assert.Contains(t, obs.states, types.StateTxAckSend)
	assert.Contains(t, obs.states, types.StateRxAckListen)
}

func TestFrequencyRegisters(t *testing.T) {
	for _, tc := range []struct {
		freq         uint16
		band, number byte
	}{
		{7690, 1, 0}, {7945, 1, 255}, {8683, 2, 113}, {9030, 3, 0}, {9285, 3, 255},
		{769, 4, 0}, {863, 4, 94}, {864, 5, 31}, {935, 5, 102},
	} {
		band, number, err := FrequencyRegisters(tc.freq)
		require.NoError(t, err, "%d", tc.freq)
		assert.Equal(t, tc.band, band, "%d", tc.freq)
		assert.Equal(t, tc.number, number, "%d", tc.freq)
	}
	for _, freq := range []uint16{0, 768, 936, 7689, 7946, 8569, 8826, 9029, 9286} {
		_, _, err := FrequencyRegisters(freq)
		assert.True(t, errors.Is(err, types.ErrInvalidArgument), "%d", freq)
	}
}
