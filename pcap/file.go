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

// Package pcap writes captured radio frames to pcap files readable by Wireshark.
package pcap

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

type Format int

const (
	FormatOff Format = iota
	FormatWpan
	FormatWpanTap
	FormatUnknown
)

const (
	FormatOffStr     string = "off"
	FormatWpanStr    string = "wpan"
	FormatWpanTapStr string = "wpan-tap"
)

const (
	// IEEE 802.15.4 without FCS; the transceiver checks and strips it.
	dltIeee802154NoFcs  = 230
	pcapMagicNumber     = 0xA1B2C3D4
	pcapVersionMajor    = 2
	pcapVersionMinor    = 4
	pcapSnapLen         = 256
	pcapFileHeaderSize  = 24
	pcapFrameHeaderSize = 16
)

// File is a pcap file being written.
type File interface {
	AppendFrame(frame Frame) error
	Sync() error
	Close() error
}

// Frame is one captured PSDU, without FCS.
type Frame struct {
	// Timestamp in microseconds since the start of the capture.
	Timestamp uint64
	Data      []byte
	Channel   uint16
	Rssi      float32
	HasRssi   bool
}

func ParseFormat(s string) Format {
	switch s {
	case FormatOffStr, "":
		return FormatOff
	case FormatWpanStr:
		return FormatWpan
	case FormatWpanTapStr:
		return FormatWpanTap
	default:
		return FormatUnknown
	}
}

// NewFile creates (or truncates) filename and writes the pcap file header.
func NewFile(filename string, format Format) (File, error) {
	var dlt uint32
	switch format {
	case FormatWpan:
		dlt = dltIeee802154NoFcs
	case FormatWpanTap:
		dlt = dltIeee802154Tap
	default:
		return nil, errors.Errorf("invalid pcap format: %d", format)
	}

	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "create pcap file")
	}
	if err = writeFileHeader(fd, dlt); err != nil {
		_ = fd.Close()
		return nil, err
	}
	if format == FormatWpanTap {
		return &tapFile{fd: fd}, nil
	}
	return &wpanFile{fd: fd}, nil
}

func writeFileHeader(fd *os.File, dlt uint32) error {
	var header [pcapFileHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], pcapMagicNumber)
	binary.LittleEndian.PutUint16(header[4:6], pcapVersionMajor)
	binary.LittleEndian.PutUint16(header[6:8], pcapVersionMinor)
	binary.LittleEndian.PutUint32(header[16:20], pcapSnapLen)
	binary.LittleEndian.PutUint32(header[20:24], dlt)
	if _, err := fd.Write(header[:]); err != nil {
		return errors.Wrap(err, "write pcap header")
	}
	return fd.Sync()
}

func putRecordHeader(header []byte, timestamp uint64, length int) {
	binary.LittleEndian.PutUint32(header[:4], uint32(timestamp/1000000))
	binary.LittleEndian.PutUint32(header[4:8], uint32(timestamp%1000000))
	binary.LittleEndian.PutUint32(header[8:12], uint32(length))
	binary.LittleEndian.PutUint32(header[12:16], uint32(length))
}

type wpanFile struct {
	fd *os.File
}

func (pf *wpanFile) AppendFrame(frame Frame) error {
	var header [pcapFrameHeaderSize]byte
	putRecordHeader(header[:], frame.Timestamp, len(frame.Data))
	if _, err := pf.fd.Write(header[:]); err != nil {
		return err
	}
	_, err := pf.fd.Write(frame.Data)
	return err
}

func (pf *wpanFile) Sync() error {
	return pf.fd.Sync()
}

func (pf *wpanFile) Close() error {
	return pf.fd.Close()
}
