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
	"github.com/openthread/ot-radif/radio/reg"
	"github.com/openthread/ot-radif/types"
)

// Register and frame buffer access. Interrupt context only.

func (r *Interface) readReg(addr byte) byte {
	r.port.SPIBegin()
	r.port.Transfer(addr&reg.RegAddrMask | reg.CmdRegRead)
	v := r.port.Transfer(reg.Blank)
	r.port.SPIEnd()
	return v
}

func (r *Interface) writeReg(addr, v byte) {
	r.port.SPIBegin()
	r.port.Transfer(addr&reg.RegAddrMask | reg.CmdRegWrite)
	r.port.Transfer(v)
	r.port.SPIEnd()
}

// writeReg16 writes the low byte to addr and the high byte to addr+1.
func (r *Interface) writeReg16(addr byte, v uint16) {
	r.writeReg(addr, byte(v))
	r.writeReg(addr+1, byte(v>>8))
}

func (r *Interface) readReg16(addr byte) uint16 {
	return uint16(r.readReg(addr)) | uint16(r.readReg(addr+1))<<8
}

// modifyReg replaces the bits selected by mask with the matching bits of v.
func (r *Interface) modifyReg(addr, v, mask byte) {
	old := r.readReg(addr)
	r.writeReg(addr, old&^mask|v&mask)
}

// writeFrame loads the frame buffer with the PHR followed by the PSDU. The two FCS bytes are sent
// blank; the transceiver fills them in when auto CRC is on.
func (r *Interface) writeFrame(hdr, payload []byte) {
	r.port.SPIBegin()
	r.port.Transfer(reg.CmdFrameWrite)
	r.port.Transfer(byte(len(hdr) + len(payload) + types.FcsLen))
	for _, b := range hdr {
		r.port.Transfer(b)
	}
	for _, b := range payload {
		r.port.Transfer(b)
	}
	r.port.Transfer(reg.Blank)
	r.port.Transfer(reg.Blank)
	r.port.SPIEnd()
}

// readFrame reads the PSDU in the frame buffer into buf and returns the PHR length. At most
// len(buf) bytes are stored; the rest of the PSDU is clocked out and discarded.
func (r *Interface) readFrame(buf []byte) int {
	r.port.SPIBegin()
	r.port.Transfer(reg.CmdFrameRead)
	n := int(r.port.Transfer(reg.Blank))
	for i := 0; i < n; i++ {
		b := r.port.Transfer(reg.Blank)
		if i < len(buf) {
			buf[i] = b
		}
	}
	r.port.SPIEnd()
	return n
}

// drainFrame empties the frame buffer without keeping the contents.
func (r *Interface) drainFrame() {
	r.readFrame(nil)
}
