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

// Package reg is the AT86RF212 register map: SPI command bytes, register addresses, bit fields
// and the datasheet timing figures.
package reg

// SPI access modes. The first byte of every transaction selects one of them.
const (
	CmdRegRead    byte = 0x80
	CmdRegWrite   byte = 0xc0
	CmdFrameRead  byte = 0x20
	CmdFrameWrite byte = 0x60
	CmdSramRead   byte = 0x00
	CmdSramWrite  byte = 0x40

	RegAddrMask byte = 0x3f
	Blank       byte = 0x00
)

// Register addresses.
const (
	TrxStatus  byte = 0x01
	TrxState   byte = 0x02
	TrxCtrl0   byte = 0x03
	TrxCtrl1   byte = 0x04
	PhyTxPwr   byte = 0x05
	PhyRssi    byte = 0x06
	PhyEdLevel byte = 0x07
	PhyCcCca   byte = 0x08
	CcaThres   byte = 0x09
	RxCtrl     byte = 0x0a
	SfdValue   byte = 0x0b
	TrxCtrl2   byte = 0x0c
	AntDiv     byte = 0x0d
	IrqMask    byte = 0x0e
	IrqStatus  byte = 0x0f
	VregCtrl   byte = 0x10
	BattMon    byte = 0x11
	XoscCtrl   byte = 0x12
	CcCtrl0    byte = 0x13
	CcCtrl1    byte = 0x14
	RxSyn      byte = 0x15
	RfCtrl0    byte = 0x16
	XahCtrl1   byte = 0x17
	FtnCtrl    byte = 0x18
	PllCf      byte = 0x1a
	PllDcu     byte = 0x1b
	PartNum    byte = 0x1c
	VersionNum byte = 0x1d
	ManId0     byte = 0x1e
	ManId1     byte = 0x1f
	ShortAddr0 byte = 0x20
	ShortAddr1 byte = 0x21
	PanId0     byte = 0x22
	PanId1     byte = 0x23
	IeeeAddr0  byte = 0x24
	XahCtrl0   byte = 0x2c
	CsmaSeed0  byte = 0x2d
	CsmaSeed1  byte = 0x2e
	CsmaBe     byte = 0x2f

	NumRegisters = 0x40
)

// TRX_STATE commands. The state request commands share their codes with the states they select.
const (
	TrxCmdNop         byte = 0x00
	TrxCmdTxStart     byte = 0x02
	TrxCmdForceTrxOff byte = 0x03
	TrxCmdForcePllOn  byte = 0x04
	TrxCmdRxOn        byte = 0x06
	TrxCmdTrxOff      byte = 0x08
	TrxCmdPllOn       byte = 0x09
	TrxCmdRxAackOn    byte = 0x16
	TrxCmdTxAretOn    byte = 0x19

	TrxCmdMask     byte = 0x1f
	TracStatusPos       = 5
)

// IRQ_STATUS / IRQ_MASK bits.
const (
	IrqPllLock   byte = 0x01
	IrqPllUnlock byte = 0x02
	IrqRxStart   byte = 0x04
	IrqTrxEnd    byte = 0x08
	IrqCcaEdDone byte = 0x10
	IrqAmi       byte = 0x20
	IrqTrxUr     byte = 0x40
	IrqBatLow    byte = 0x80
)

// Bit fields.
const (
	RssiCrcValid   byte = 0x80
	RssiRandomMask byte = 0x60
	TxAutoCrcOn    byte = 0x20
	AackPromMode   byte = 0x02
	CcBandMask     byte = 0x07
	RfTxOffsetMask byte = 0x03
	TrxCtrl0Mask   byte = 0x3f

	// CSMA_SEED_1 AACK_FVN_MODE: acknowledge frame versions 0 and 1.
	AackFvnPos        = 6
	AackFvnMask  byte = 0x03 << AackFvnPos
	AackFvnV0V1  byte = 0x01

	OqpskTxOffset byte = 0x02
	BpskTxOffset  byte = 0x03
)

// Identification values of the AT86RF212.
const (
	At86rf212PartNum    byte = 0x07
	At86rf212VersionNum byte = 0x01
)

// Timing figures in microseconds.
const (
	TimePOnWait         uint32 = 510
	TimeRstPulseWidth   uint32 = 6
	TimeTrxOffToPllOn   uint32 = 200
	TimeRxOnToPllOn     uint32 = 1
	TimeAllStatesTrxOff uint32 = 1
	TimeSleepToTrxOff   uint32 = 1000
	TimePllLock         uint32 = 200
	TimeEdPoll          uint32 = 20
	TimeBusyPoll        uint32 = 16
)
