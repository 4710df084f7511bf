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

package wpan

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-radif/types"
)

func TestDataHeaderLayout(t *testing.T) {
	h := DataHeader(0x1234, 0x0002, 0x0001, 7, false)
	b, err := EncodeHeader(&h)
	require.NoError(t, err)
	assert.Equal(t, 9, len(b))
	assert.Equal(t, 9, h.Len())
	assert.Equal(t, uint16(0x9841), binary.LittleEndian.Uint16(b))
	assert.Equal(t, []byte{0x41, 0x98, 7, 0x34, 0x12, 0x02, 0x00, 0x01, 0x00}, b)

	h = DataHeader(0x1234, 0x0002, 0x0001, 7, true)
	b, err = EncodeHeader(&h)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x9861), binary.LittleEndian.Uint16(b))
	assert.True(t, h.FrameControl.AckRequest())
}

func TestRoundTrip(t *testing.T) {
	for _, ack := range []bool{false, true} {
		for _, seq := range []uint8{0, 1, 128, 255} {
			h := DataHeader(0xabcd, 0xffff, 0x0042, seq, ack)
			b, err := EncodeHeader(&h)
			require.NoError(t, err)
			b = append(b, 'x', 'y', 0, 0)

			got, n, err := DecodeHeader(b)
			require.NoError(t, err)
			assert.Equal(t, h.Len(), n)
			assert.Equal(t, h, got)
		}
	}
}

func TestRoundTripWithoutCompression(t *testing.T) {
	h := Header{
		FrameControl: FrameControl(FrameTypeData) | AddrModeShort<<fcSrcModeShift | AddrModeShort<<fcDstModeShift |
			FrameVersion2006<<fcVersionShift,
		Seq:      3,
		DstPanId: 0x1111,
		DstAddr:  0x0002,
		SrcPanId: 0x2222,
		SrcAddr:  0x0003,
	}
	b, err := EncodeHeader(&h)
	require.NoError(t, err)
	assert.Equal(t, 11, len(b))

	got, n, err := DecodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, h, got)
}

func TestSequenceWraps(t *testing.T) {
	s := NewSequencer(0)
	var seqs []uint8
	for i := 0; i < 257; i++ {
		h := DataHeader(0x1234, 2, 1, s.Next(), false)
		b, err := EncodeHeader(&h)
		require.NoError(t, err)
		got, _, err := DecodeHeader(b)
		require.NoError(t, err)
		seqs = append(seqs, got.Seq)
	}
	for i := 0; i < 256; i++ {
		assert.Equal(t, uint8(i), seqs[i])
	}
	assert.Equal(t, uint8(0), seqs[256])
}

func TestUnsupportedModes(t *testing.T) {
	ext := Header{FrameControl: FrameControl(FrameTypeData) | AddrModeExtended<<fcDstModeShift | AddrModeShort<<fcSrcModeShift}
	_, err := EncodeHeader(&ext)
	assert.True(t, errors.Is(err, types.ErrUnsupported))

	raw := make([]byte, 32)
	binary.LittleEndian.PutUint16(raw, uint16(ext.FrameControl))
	_, _, err = DecodeHeader(raw)
	assert.True(t, errors.Is(err, types.ErrUnsupported))

	sec := DataHeader(1, 2, 3, 4, false)
	sec.FrameControl |= fcSecurityEnabled
	_, err = EncodeHeader(&sec)
	assert.True(t, errors.Is(err, types.ErrUnsupported))
	binary.LittleEndian.PutUint16(raw, uint16(sec.FrameControl))
	_, _, err = DecodeHeader(raw)
	assert.True(t, errors.Is(err, types.ErrUnsupported))

	ie := DataHeader(1, 2, 3, 4, false)
	ie.FrameControl |= fcIEPresent
	binary.LittleEndian.PutUint16(raw, uint16(ie.FrameControl))
	_, _, err = DecodeHeader(raw)
	assert.True(t, errors.Is(err, types.ErrUnsupported))
}

func TestMalformed(t *testing.T) {
	_, _, err := DecodeHeader([]byte{0x41})
	assert.True(t, errors.Is(err, types.ErrMalformedFrame))

	h := DataHeader(1, 2, 3, 4, false)
	b, err := EncodeHeader(&h)
	require.NoError(t, err)
	_, _, err = DecodeHeader(b[:6])
	assert.True(t, errors.Is(err, types.ErrMalformedFrame))

	reserved := FrameControl(FrameTypeData) | AddrModeReserved<<fcDstModeShift
	binary.LittleEndian.PutUint16(b, uint16(reserved))
	_, _, err = DecodeHeader(b)
	assert.True(t, errors.Is(err, types.ErrMalformedFrame))

	_, err = PayloadLen(10, 9)
	assert.True(t, errors.Is(err, types.ErrMalformedFrame))
}

func TestReceivedPayloadLength(t *testing.T) {
	payload := make([]byte, 20)
	h := DataHeader(0x1234, 0x0001, 0x0005, 9, true)
	psdu, err := EncodeHeader(&h)
	require.NoError(t, err)
	psdu = append(psdu, payload...)
	psdu = append(psdu, 0, 0)

	got, hdrLen, err := DecodeHeader(psdu)
	require.NoError(t, err)
	assert.Equal(t, 9, hdrLen)
	assert.Equal(t, types.ShortAddr(0x0005), got.SrcAddr)
	n, err := PayloadLen(len(psdu), hdrLen)
	require.NoError(t, err)
	assert.Equal(t, len(psdu)-11, n)
	assert.Equal(t, 20, n)
}

func TestNoAddressing(t *testing.T) {
	h := Header{FrameControl: FrameControl(FrameTypeAck), Seq: 5}
	b, err := EncodeHeader(&h)
	require.NoError(t, err)
	assert.Equal(t, 3, len(b))
	got, n, err := DecodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint8(5), got.Seq)
	assert.Equal(t, "ACK,FC:0x0002,Seq:5", got.String())
}
