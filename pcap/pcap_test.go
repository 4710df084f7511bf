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

package pcap

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-radif/radio"
)

func TestPcapFile(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "test.pcap")
	pcap, err := NewFile(pcapFilename, FormatWpan)
	require.NoError(t, err)
	defer func() {
		_ = pcap.Close()
	}()

	assert.Equal(t, pcapFileHeaderSize, getFileSize(t, pcapFilename))

	for i := 0; i < 10; i++ {
		frame := Frame{
			Timestamp: uint64(i) * 1000,
			Data:      []byte{0x41, 0x98, 0x01, 0x34, 0x12},
		}
		require.NoError(t, pcap.AppendFrame(frame))
		require.NoError(t, pcap.Sync())
		assert.Equal(t, pcapFileHeaderSize+(pcapFrameHeaderSize+5)*(i+1), getFileSize(t, pcapFilename))
	}

	data, err := os.ReadFile(pcapFilename)
	require.NoError(t, err)
	assert.Equal(t, uint32(pcapMagicNumber), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(230), binary.LittleEndian.Uint32(data[20:24]))
	rec := data[pcapFileHeaderSize+pcapFrameHeaderSize+5:]
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(rec[0:4]))
	assert.Equal(t, uint32(1000), binary.LittleEndian.Uint32(rec[4:8]))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(rec[8:12]))
}

func TestPcapTapFile(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "test_tap.pcap")
	pcap, err := NewFile(pcapFilename, FormatWpanTap)
	require.NoError(t, err)
	defer func() {
		_ = pcap.Close()
	}()

	// header 4, FCS type TLV 8, channel TLV 8
	const tapLen = 20
	require.NoError(t, pcap.AppendFrame(Frame{Data: []byte{1, 2, 3}, Channel: 113}))
	require.NoError(t, pcap.Sync())
	assert.Equal(t, pcapFileHeaderSize+pcapFrameHeaderSize+tapLen+3, getFileSize(t, pcapFilename))

	// plus RSS TLV 8
	require.NoError(t, pcap.AppendFrame(Frame{Data: []byte{1, 2, 3}, Rssi: -60, HasRssi: true}))
	require.NoError(t, pcap.Sync())
	assert.Equal(t, pcapFileHeaderSize+2*(pcapFrameHeaderSize+3)+2*tapLen+8, getFileSize(t, pcapFilename))

	data, err := os.ReadFile(pcapFilename)
	require.NoError(t, err)
	assert.Equal(t, uint32(dltIeee802154Tap), binary.LittleEndian.Uint32(data[20:24]))
	tap := data[pcapFileHeaderSize+pcapFrameHeaderSize:]
	assert.Equal(t, uint16(tapLen), binary.LittleEndian.Uint16(tap[2:4]))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatOff, ParseFormat("off"))
	assert.Equal(t, FormatWpan, ParseFormat("wpan"))
	assert.Equal(t, FormatWpanTap, ParseFormat("wpan-tap"))
	assert.Equal(t, FormatUnknown, ParseFormat("usb"))
	_, err := NewFile(filepath.Join(t.TempDir(), "x.pcap"), FormatOff)
	assert.Error(t, err)
}

func TestTap(t *testing.T) {
	pcapFilename := filepath.Join(t.TempDir(), "tap.pcap")
	f, err := NewFile(pcapFilename, FormatWpan)
	require.NoError(t, err)
	tap := NewTap(f, 0)
	var _ radio.Tap = tap

	tap.CaptureFrame(radio.DirectionRx, []byte{1, 2, 3, 4})
	tap.CaptureFrame(radio.DirectionTx, []byte{5, 6})
	assert.Equal(t, uint64(2), tap.Frames())
	require.NoError(t, tap.Close())
	assert.Equal(t, pcapFileHeaderSize+2*pcapFrameHeaderSize+6, getFileSize(t, pcapFilename))
}

func getFileSize(t *testing.T, fp string) int {
	info, err := os.Stat(fp)
	if err != nil {
		t.Fatal(err)
	}
	return int(info.Size())
}
