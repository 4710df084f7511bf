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

// Package energy accounts transceiver time per power state and estimates the charge drawn.
package energy

import (
	"github.com/openthread/ot-radif/types"
)

// Class groups transceiver states that draw about the same current.
type Class int

const (
	ClassSleep Class = iota
	ClassOff
	ClassIdle
	ClassListen
	ClassTransmit
	numClasses
)

func (c Class) String() string {
	switch c {
	case ClassSleep:
		return "sleep"
	case ClassOff:
		return "off"
	case ClassIdle:
		return "idle"
	case ClassListen:
		return "listen"
	case ClassTransmit:
		return "transmit"
	default:
		return "unknown"
	}
}

// Typical AT86RF212 supply currents at 3.0V, in microamperes.
// Transmit assumes +5 dBm output power.
const (
	SleepCurrent    float64 = 0.2
	OffCurrent      float64 = 450
	IdleCurrent     float64 = 5200
	ListenCurrent   float64 = 9200
	TransmitCurrent float64 = 18000
)

var classCurrent = [numClasses]float64{
	ClassSleep:    SleepCurrent,
	ClassOff:      OffCurrent,
	ClassIdle:     IdleCurrent,
	ClassListen:   ListenCurrent,
	ClassTransmit: TransmitCurrent,
}

// ClassOf returns the power class of a transceiver state.
func ClassOf(s types.TransceiverState) Class {
	switch s {
	case types.StateSleep:
		return ClassSleep
	case types.StatePllOn, types.StateTxAckSend:
		return ClassIdle
	case types.StateBusyTx, types.StateBusyTxAck:
		return ClassTransmit
	default:
		if s.IsReceiving() {
			return ClassListen
		}
		return ClassOff
	}
}

// ClassReport is the accumulated time and charge of one class.
type ClassReport struct {
	Class   string  `yaml:"class"`
	Time    uint64  `yaml:"time_us"`
	Charge  float64 `yaml:"charge_uah"`
	Current float64 `yaml:"current_ua"`
}

// Report is a consumption snapshot.
type Report struct {
	Elapsed uint64 `yaml:"elapsed_us"`
	// State is the transceiver state name, Class its power class.
	State       string        `yaml:"state"`
	Class       string        `yaml:"class"`
	Classes     []ClassReport `yaml:"classes"`
	TotalCharge float64       `yaml:"total_charge_uah"`
	// AverageCurrent over Elapsed, in microamperes.
	AverageCurrent float64 `yaml:"average_current_ua"`
}

// charge converts microseconds at current (µA) to µAh.
func charge(us uint64, current float64) float64 {
	return float64(us) * current / 3600e6
}
