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
	"math"
	"os"
)

// wpan-tap (DLT 283) is specified at https://gitlab.com/exegin/ieee802-15-4-tap
const (
	dltIeee802154Tap = 283
	tapHeaderSize    = 4
	tlvFcsType       = 0
	tlvRss           = 1
	tlvChannel       = 3
	fcsTypeNone      = 0
	// channel page 2: O-QPSK in the 868/915 MHz bands
	channelPageSubGHz = 2
)

type tapFile struct {
	fd *os.File
}

func appendTlv(b []byte, tlvType uint16, data []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, tlvType)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(data)))
	b = append(b, data...)
	for pad := (4 - len(data)%4) % 4; pad > 0; pad-- {
		b = append(b, 0)
	}
	return b
}

func tapHeader(frame Frame) []byte {
	b := make([]byte, tapHeaderSize, 40)
	b = appendTlv(b, tlvFcsType, []byte{fcsTypeNone})
	if frame.HasRssi {
		rss := make([]byte, 4)
		binary.LittleEndian.PutUint32(rss, math.Float32bits(frame.Rssi))
		b = appendTlv(b, tlvRss, rss)
	}
	ch := make([]byte, 3)
	binary.LittleEndian.PutUint16(ch, frame.Channel)
	ch[2] = channelPageSubGHz
	b = appendTlv(b, tlvChannel, ch)

	b[0] = 0 // version
	b[1] = 0
	binary.LittleEndian.PutUint16(b[2:4], uint16(len(b)))
	return b
}

func (pf *tapFile) AppendFrame(frame Frame) error {
	tap := tapHeader(frame)
	header := make([]byte, pcapFrameHeaderSize, pcapFrameHeaderSize+len(tap)+len(frame.Data))
	putRecordHeader(header, frame.Timestamp, len(tap)+len(frame.Data))
	header = append(header, tap...)
	header = append(header, frame.Data...)
	_, err := pf.fd.Write(header)
	return err
}

func (pf *tapFile) Sync() error {
	return pf.fd.Sync()
}

func (pf *tapFile) Close() error {
	return pf.fd.Close()
}
