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
	"github.com/openthread/ot-radif/types"
	"github.com/openthread/ot-radif/wpan"
)

// RxFrame is a received frame as stored in an RX queue slot. The pointer handed to the receive
// callback is only valid for the duration of the callback.
type RxFrame struct {
	Header wpan.Header
	// Energy is the ED level measured during reception.
	Energy byte
	// CrcOk is true if the transceiver validated the FCS.
	CrcOk bool

	psdu    [types.MaxPsduLen]byte
	psduLen int
	hdrLen  int
}

// Src returns the source short address.
func (f *RxFrame) Src() types.ShortAddr {
	return f.Header.SrcAddr
}

// Payload returns the MAC payload, without header and FCS.
func (f *RxFrame) Payload() []byte {
	return f.psdu[f.hdrLen : f.psduLen-types.FcsLen]
}

// PSDU returns header and payload, without FCS.
func (f *RxFrame) PSDU() []byte {
	return f.psdu[:f.psduLen-types.FcsLen]
}

func (f *RxFrame) HeaderLen() int {
	return f.hdrLen
}

// TxFrame is an outgoing frame as stored in a TX queue slot.
type TxFrame struct {
	Dst types.ShortAddr
	Ack bool

	data   [types.MaxPsduLen]byte
	length int
}

func (f *TxFrame) Payload() []byte {
	return f.data[:f.length]
}

// Direction tells a Tap which way a frame went.
type Direction int

const (
	DirectionRx Direction = iota
	DirectionTx
)

func (d Direction) String() string {
	if d == DirectionTx {
		return "tx"
	}
	return "rx"
}

// Tap receives a copy of every frame, without FCS. It is called from Service only.
type Tap interface {
	CaptureFrame(dir Direction, psdu []byte)
}

// StateObserver is told about every transceiver state the driver observes. It is called from
// interrupt context and must not block.
type StateObserver interface {
	OnStateChange(s types.TransceiverState)
}

type txCapture struct {
	psdu [types.MaxPsduLen]byte
	n    int
}
