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

// Package sample defines the 24-byte sample record exchanged with sensor nodes.
package sample

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/pkg/errors"
)

// RecordSize is the encoded size of a Record.
const RecordSize = 24

const checksumOffset = 20

// Record flags occupy the top bits of Flags.
const (
	FlagsShift        = 26
	FlagRssi   uint32 = 61 << FlagsShift
)

var ErrChecksum = errors.New("sample checksum mismatch")

// Record is one sample: flags, unix time and the two channel readings.
type Record struct {
	Flags    uint32
	Time     uint64
	Left     uint32
	Right    uint32
	Checksum uint32
}

// NewRecord returns a record with its checksum filled in.
func NewRecord(flags uint32, t uint64, left, right uint32) Record {
	r := Record{Flags: flags, Time: t, Left: left, Right: right}
	r.Checksum = r.computeChecksum()
	return r
}

func (r Record) AppendEncode(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, r.Flags)
	b = binary.LittleEndian.AppendUint64(b, r.Time)
	b = binary.LittleEndian.AppendUint32(b, r.Left)
	b = binary.LittleEndian.AppendUint32(b, r.Right)
	return binary.LittleEndian.AppendUint32(b, r.Checksum)
}

func (r Record) Encode() []byte {
	return r.AppendEncode(make([]byte, 0, RecordSize))
}

// Decode parses the first RecordSize bytes of data. The checksum is not verified.
func Decode(data []byte) (Record, error) {
	if len(data) < RecordSize {
		return Record{}, errors.Errorf("sample record too short: %d bytes", len(data))
	}
	return Record{
		Flags:    binary.LittleEndian.Uint32(data[0:4]),
		Time:     binary.LittleEndian.Uint64(data[4:12]),
		Left:     binary.LittleEndian.Uint32(data[12:16]),
		Right:    binary.LittleEndian.Uint32(data[16:20]),
		Checksum: binary.LittleEndian.Uint32(data[20:24]),
	}, nil
}

// Checksum computes the checksum of an encoded record, over everything before the checksum field.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data[:checksumOffset])
}

func (r Record) computeChecksum() uint32 {
	var b [RecordSize]byte
	return Checksum(r.AppendEncode(b[:0]))
}

// Verify returns ErrChecksum if the stored checksum does not match the content.
func (r Record) Verify() error {
	if actual := r.computeChecksum(); actual != r.Checksum {
		return errors.Wrapf(ErrChecksum, "frame %08x, calculated %08x", r.Checksum, actual)
	}
	return nil
}

func (r Record) String() string {
	return fmt.Sprintf("flags:0x%08x,time:%d,left:%d,right:%d,checksum:0x%08x", r.Flags, r.Time, r.Left, r.Right, r.Checksum)
}
