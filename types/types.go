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

// Package types holds the enums and data types shared by the radio driver, its hardware adapters
// and the tooling around it.
package types

import (
	"fmt"
)

type ShortAddr = uint16
type PanId = uint16

const (
	// MaxPsduLen is the 802.15.4 PHY limit on the PSDU (header + payload + FCS).
	MaxPsduLen = 127
	// FcsLen is the length of the frame check sequence appended by the transceiver.
	FcsLen = 2

	BroadcastShortAddr ShortAddr = 0xffff
	BroadcastPanId     PanId     = 0xffff
)

// TransceiverState is the TRX_STATUS value reported by the transceiver.
type TransceiverState byte

const (
	StatePowerOn            TransceiverState = 0x00
	StateBusyRx             TransceiverState = 0x01
	StateBusyTx             TransceiverState = 0x02
	StateRxListen           TransceiverState = 0x06 // RX_ON
	StateOff                TransceiverState = 0x08 // TRX_OFF
	StatePllOn              TransceiverState = 0x09
	StateSleep              TransceiverState = 0x0f
	StateBusyRxAck          TransceiverState = 0x11 // BUSY_RX_AACK
	StateBusyTxAck          TransceiverState = 0x12 // BUSY_TX_ARET
	StateRxAckListen        TransceiverState = 0x16 // RX_AACK_ON
	StateTxAckSend          TransceiverState = 0x19 // TX_ARET_ON
	StateRxListenNoClk      TransceiverState = 0x1c
	StateRxAckListenNoClk   TransceiverState = 0x1d
	StateBusyRxAckNoClk     TransceiverState = 0x1e
	StateTransition         TransceiverState = 0x1f
	TransceiverStateMask    byte             = 0x1f
	InvalidTransceiverState TransceiverState = 0xff
)

// IsBusy returns true for the states the transceiver enters and leaves on its own while a frame is
// on the air. They can be observed but never requested.
func (s TransceiverState) IsBusy() bool {
	switch s {
	case StateBusyRx, StateBusyTx, StateBusyRxAck, StateBusyTxAck, StateBusyRxAckNoClk:
		return true
	default:
		return false
	}
}

// IsRequestable returns true if s is a valid target for a state change request.
func (s TransceiverState) IsRequestable() bool {
	switch s {
	case StateOff, StatePllOn, StateRxListen, StateRxAckListen, StateTxAckSend:
		return true
	default:
		return false
	}
}

// IsReceiving returns true if the transceiver was listening (or is busy receiving) in state s.
func (s TransceiverState) IsReceiving() bool {
	return s == StateRxListen || s == StateRxAckListen || s == StateBusyRxAck || s == StateBusyRx
}

func (s TransceiverState) String() string {
	switch s {
	case StatePowerOn:
		return "P_ON"
	case StateBusyRx:
		return "BUSY_RX"
	case StateBusyTx:
		return "BUSY_TX"
	case StateRxListen:
		return "RX_ON"
	case StateOff:
		return "TRX_OFF"
	case StatePllOn:
		return "PLL_ON"
	case StateSleep:
		return "SLEEP"
	case StateBusyRxAck:
		return "BUSY_RX_AACK"
	case StateBusyTxAck:
		return "BUSY_TX_ARET"
	case StateRxAckListen:
		return "RX_AACK_ON"
	case StateTxAckSend:
		return "TX_ARET_ON"
	case StateRxListenNoClk:
		return "RX_ON_NOCLK"
	case StateRxAckListenNoClk:
		return "RX_AACK_ON_NOCLK"
	case StateBusyRxAckNoClk:
		return "BUSY_RX_AACK_NOCLK"
	case StateTransition:
		return "IN_TRANSITION"
	default:
		return fmt.Sprintf("0x%02x", byte(s))
	}
}

// TracStatus is the transceiver's self-reported outcome of the last transaction.
type TracStatus byte

const (
	TracSuccess            TracStatus = 0
	TracSuccessDataPending TracStatus = 1
	TracSuccessWaitForAck  TracStatus = 2
	TracChannelAccessFail  TracStatus = 3
	TracNoAck              TracStatus = 5
	TracInvalid            TracStatus = 7
)

func (t TracStatus) String() string {
	switch t {
	case TracSuccess:
		return "success"
	case TracSuccessDataPending:
		return "success-data-pending"
	case TracSuccessWaitForAck:
		return "success-wait-for-ack"
	case TracChannelAccessFail:
		return "channel-access-failure"
	case TracNoAck:
		return "no-ack"
	case TracInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("trac(%d)", byte(t))
	}
}

// Command is a request posted to the driver's one-deep command mailbox.
type Command byte

const (
	CmdNone Command = iota
	CmdReset
	CmdStartup
	CmdGetRandom
	CmdSetModulation
	CmdSetFrequency
	CmdSetPower
	CmdSetAddress
	CmdMeasureEnergy
	CmdWake
	CmdSleep
)

func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdReset:
		return "reset"
	case CmdStartup:
		return "startup"
	case CmdGetRandom:
		return "random"
	case CmdSetModulation:
		return "modulation"
	case CmdSetFrequency:
		return "frequency"
	case CmdSetPower:
		return "power"
	case CmdSetAddress:
		return "address"
	case CmdMeasureEnergy:
		return "energy"
	case CmdWake:
		return "wake"
	case CmdSleep:
		return "sleep"
	default:
		return fmt.Sprintf("cmd(%d)", byte(c))
	}
}

// Modulation is the TRX_CTRL_2 modulation selector of the AT86RF212.
type Modulation byte

const (
	Mod1000KbitScrambler   Modulation = 0x20
	Mod1000KchipSin        Modulation = 0x10
	Mod1000KchipRc         Modulation = 0x00
	ModOqpsk1000K1000Kbit  Modulation = 0x0e
	ModOqpsk1000K500Kbit   Modulation = 0x0d
	ModOqpsk1000K250Kbit   Modulation = 0x0c
	ModOqpsk400K400Kbit    Modulation = 0x0a
	ModOqpsk400K200Kbit    Modulation = 0x09
	ModOqpsk400K100Kbit    Modulation = 0x08
	ModBpsk600K40Kbit      Modulation = 0x04
	ModBpsk300K20Kbit      Modulation = 0x00
	ModOqpsk               Modulation = 0x08
	ModBpsk                Modulation = 0x00
	ModulationMask         byte       = 0x3f
)

// IsOqpsk returns true if m selects one of the O-QPSK modes.
func (m Modulation) IsOqpsk() bool {
	return m&ModOqpsk != 0
}

// DataRate returns the PSDU bit rate of m in bit/s.
func (m Modulation) DataRate() uint32 {
	if !m.IsOqpsk() {
		if m&0x04 != 0 {
			return 40000
		}
		return 20000
	}
	base := uint32(100000)
	if m&0x04 != 0 {
		base = 250000
	}
	switch m & 0x03 {
	case 0:
		return base
	case 1:
		return base * 2
	default:
		return base * 4
	}
}

// SymbolRate returns the symbol rate of m in symbols/s. BPSK carries one bit per symbol, O-QPSK
// four.
func (m Modulation) SymbolRate() uint32 {
	if m.IsOqpsk() {
		if m&0x04 != 0 {
			return 62500
		}
		return 25000
	}
	return m.DataRate()
}
