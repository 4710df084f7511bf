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

// Package wpan encodes and decodes the IEEE 802.15.4 MAC header used on the radio link.
// Only 16-bit short addressing and unsecured frames are handled.
package wpan

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/openthread/ot-radif/types"
)

type FrameType = uint16

const (
	FrameTypeBeacon  FrameType = 0
	FrameTypeData    FrameType = 1
	FrameTypeAck     FrameType = 2
	FrameTypeCommand FrameType = 3
)

// Values for both Src and Dst addressing modes, Table 7-3, 802.15.4-2015.
const (
	AddrModeNone     = 0
	AddrModeReserved = 1
	AddrModeShort    = 2
	AddrModeExtended = 3
)

// Frame versions, 802.15.4-2003/2006/2015.
const (
	FrameVersion2003 = 0
	FrameVersion2006 = 1
	FrameVersion2015 = 2
)

const (
	fcFrameTypeMask   = 0x0007
	fcSecurityEnabled = 0x0008
	fcFramePending    = 0x0010
	fcAckRequest      = 0x0020
	fcPanidCompress   = 0x0040
	fcSeqSuppression  = 0x0100
	fcIEPresent       = 0x0200
	fcDstModeShift    = 10
	fcVersionShift    = 12
	fcSrcModeShift    = 14
)

type FrameControl uint16

func (fc FrameControl) String() string {
	return fmt.Sprintf("0x%04x", uint16(fc))
}

func (fc FrameControl) FrameType() FrameType {
	return FrameType(fc & fcFrameTypeMask)
}

func (fc FrameControl) SecurityEnabled() bool {
	return (fc & fcSecurityEnabled) != 0
}

func (fc FrameControl) FramePending() bool {
	return (fc & fcFramePending) != 0
}

func (fc FrameControl) AckRequest() bool {
	return (fc & fcAckRequest) != 0
}

func (fc FrameControl) PanidCompression() bool {
	return (fc & fcPanidCompress) != 0
}

func (fc FrameControl) SequenceNumberSuppression() bool {
	return (fc & fcSeqSuppression) != 0
}

func (fc FrameControl) IEPresent() bool {
	return (fc & fcIEPresent) != 0
}

func (fc FrameControl) DestAddrMode() uint16 {
	return uint16((fc >> fcDstModeShift) & 0x3)
}

func (fc FrameControl) SourceAddrMode() uint16 {
	return uint16((fc >> fcSrcModeShift) & 0x3)
}

func (fc FrameControl) FrameVersion() uint16 {
	return uint16((fc >> fcVersionShift) & 0x3)
}

// HasDestPanIdField follows Table 7-2 of 802.15.4-2015 for version 2 frames.
func (fc FrameControl) HasDestPanIdField() bool {
	dam := fc.DestAddrMode()
	sam := fc.SourceAddrMode()
	pc := fc.PanidCompression()
	if fc.FrameVersion() <= FrameVersion2006 {
		return dam != AddrModeNone
	}
	if dam != AddrModeNone && sam != AddrModeNone {
		return true
	}
	if sam == AddrModeNone && dam != AddrModeNone {
		return !pc
	}
	return sam == AddrModeNone && dam == AddrModeNone && pc
}

func (fc FrameControl) HasSourcePanIdField() bool {
	sam := fc.SourceAddrMode()
	if sam == AddrModeNone {
		return false
	}
	return !fc.PanidCompression()
}

// NewFrameControl builds the frame control word of a data frame with short addressing on both ends.
func NewFrameControl(version uint16, ack bool) FrameControl {
	fc := FrameControl(FrameTypeData) |
		FrameControl(AddrModeShort)<<fcSrcModeShift |
		FrameControl(version&0x3)<<fcVersionShift |
		FrameControl(AddrModeShort)<<fcDstModeShift |
		fcPanidCompress
	if ack {
		fc |= fcAckRequest
	}
	return fc
}

// Header is the decoded MAC header. Absent PAN id / address fields are zero.
type Header struct {
	FrameControl FrameControl
	Seq          uint8
	DstPanId     types.PanId
	DstAddr      types.ShortAddr
	SrcPanId     types.PanId
	SrcAddr      types.ShortAddr
}

// DataHeader returns the header the driver puts in front of every outgoing payload: a 2006 data
// frame, intra-PAN, short destination and source.
func DataHeader(pan types.PanId, dst, src types.ShortAddr, seq uint8, ack bool) Header {
	return Header{
		FrameControl: NewFrameControl(FrameVersion2006, ack),
		Seq:          seq,
		DstPanId:     pan,
		DstAddr:      dst,
		SrcPanId:     pan,
		SrcAddr:      src,
	}
}

func (h *Header) String() string {
	if h.FrameControl.FrameType() == FrameTypeAck {
		return fmt.Sprintf("ACK,FC:%s,Seq:%d", h.FrameControl, h.Seq)
	}
	return fmt.Sprintf("MAC,FC:%s,Seq:%d,Pan:%04x,Dst:%s,Src:%s", h.FrameControl, h.Seq, h.DstPanId,
		addrString(h.FrameControl.DestAddrMode(), h.DstAddr), addrString(h.FrameControl.SourceAddrMode(), h.SrcAddr))
}

func addrString(mode uint16, addr types.ShortAddr) string {
	if mode == AddrModeShort {
		return fmt.Sprintf("%04x", addr)
	}
	return "-"
}

func (fc FrameControl) check() error {
	if fc.SecurityEnabled() {
		return errors.Wrap(types.ErrUnsupported, "security header")
	}
	if fc.IEPresent() {
		return errors.Wrap(types.ErrUnsupported, "header IEs")
	}
	for _, mode := range []uint16{fc.DestAddrMode(), fc.SourceAddrMode()} {
		switch mode {
		case AddrModeExtended:
			return errors.Wrap(types.ErrUnsupported, "64-bit addressing")
		case AddrModeReserved:
			return errors.Wrap(types.ErrMalformedFrame, "reserved addressing mode")
		}
	}
	if fc.FrameVersion() > FrameVersion2015 {
		return errors.Wrapf(types.ErrMalformedFrame, "frame version %d", fc.FrameVersion())
	}
	return nil
}

// Len returns the encoded header length, which depends on the addressing fields present.
func (h *Header) Len() int {
	fc := h.FrameControl
	n := 2
	if !fc.SequenceNumberSuppression() {
		n++
	}
	if fc.HasDestPanIdField() {
		n += 2
	}
	if fc.DestAddrMode() == AddrModeShort {
		n += 2
	}
	if fc.HasSourcePanIdField() {
		n += 2
	}
	if fc.SourceAddrMode() == AddrModeShort {
		n += 2
	}
	return n
}

// AppendHeader appends the encoded header to dst.
func AppendHeader(dst []byte, h *Header) ([]byte, error) {
	fc := h.FrameControl
	if err := fc.check(); err != nil {
		return dst, err
	}
	dst = binary.LittleEndian.AppendUint16(dst, uint16(fc))
	if !fc.SequenceNumberSuppression() {
		dst = append(dst, h.Seq)
	}
	if fc.HasDestPanIdField() {
		dst = binary.LittleEndian.AppendUint16(dst, h.DstPanId)
	}
	if fc.DestAddrMode() == AddrModeShort {
		dst = binary.LittleEndian.AppendUint16(dst, h.DstAddr)
	}
	if fc.HasSourcePanIdField() {
		dst = binary.LittleEndian.AppendUint16(dst, h.SrcPanId)
	}
	if fc.SourceAddrMode() == AddrModeShort {
		dst = binary.LittleEndian.AppendUint16(dst, h.SrcAddr)
	}
	return dst, nil
}

// EncodeHeader returns the encoded header.
func EncodeHeader(h *Header) ([]byte, error) {
	return AppendHeader(make([]byte, 0, h.Len()), h)
}

// DecodeHeader decodes the MAC header at the start of data and returns it with its length.
// With PAN id compression the source PAN id is copied from the destination PAN id.
func DecodeHeader(data []byte) (Header, int, error) {
	var h Header
	if len(data) < 2 {
		return h, 0, errors.Wrapf(types.ErrMalformedFrame, "%d byte frame", len(data))
	}
	h.FrameControl = FrameControl(binary.LittleEndian.Uint16(data))
	fc := h.FrameControl
	if err := fc.check(); err != nil {
		return h, 0, err
	}
	hdrLen := h.Len()
	if len(data) < hdrLen {
		return h, 0, errors.Wrapf(types.ErrMalformedFrame, "header needs %d bytes, got %d", hdrLen, len(data))
	}

	n := 2
	if !fc.SequenceNumberSuppression() {
		h.Seq = data[n]
		n++
	}
	if fc.HasDestPanIdField() {
		h.DstPanId = binary.LittleEndian.Uint16(data[n:])
		n += 2
	}
	if fc.DestAddrMode() == AddrModeShort {
		h.DstAddr = binary.LittleEndian.Uint16(data[n:])
		n += 2
	}
	if fc.HasSourcePanIdField() {
		h.SrcPanId = binary.LittleEndian.Uint16(data[n:])
		n += 2
	} else if fc.SourceAddrMode() != AddrModeNone {
		h.SrcPanId = h.DstPanId
	}
	if fc.SourceAddrMode() == AddrModeShort {
		h.SrcAddr = binary.LittleEndian.Uint16(data[n:])
		n += 2
	}
	return h, n, nil
}

// PayloadLen returns the number of payload bytes of a PSDU of psduLen bytes whose header is
// hdrLen bytes long. The FCS is never part of the payload.
func PayloadLen(psduLen, hdrLen int) (int, error) {
	n := psduLen - hdrLen - types.FcsLen
	if n < 0 {
		return 0, errors.Wrapf(types.ErrMalformedFrame, "psdu of %d bytes too short for %d byte header", psduLen, hdrLen)
	}
	return n, nil
}

// Sequencer hands out data sequence numbers. It wraps silently after 255.
// Not safe for concurrent use.
type Sequencer struct {
	next uint8
}

func NewSequencer(start uint8) *Sequencer {
	return &Sequencer{next: start}
}

// Next returns the sequence number for the next transmitted frame.
func (s *Sequencer) Next() uint8 {
	seq := s.next
	s.next++
	return seq
}

func (s *Sequencer) Reset(start uint8) {
	s.next = start
}
