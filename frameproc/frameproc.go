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

// Package frameproc handles application frames received by the base station.
//
// The first payload byte selects the frame type:
//
//	'D'  remote debug text, answered with "DDDD"
//	'T'  time request, answered with 'T' and the 8-byte little-endian unix time
//	'U'  sample upload: 4-byte memory address and a 24-byte sample record,
//	     answered with 'A', the address and the record checksum
package frameproc

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/openthread/ot-radif/logger"
	"github.com/openthread/ot-radif/radio"
	"github.com/openthread/ot-radif/sample"
	"github.com/openthread/ot-radif/types"
)

const (
	FrameDebug   byte = 'D'
	FrameTime    byte = 'T'
	FrameUpload  byte = 'U'
	FrameAck     byte = 'A'
	uploadMinLen      = 1 + 4 + sample.RecordSize
)

var ErrUploadTooShort = errors.New("upload frame too short")

// Sender queues a frame for transmission.
type Sender interface {
	Send(ctx context.Context, payload []byte, dst types.ShortAddr, ack bool) error
}

// Clock returns the current unix time and whether it is valid.
type Clock interface {
	Now() (uint64, bool)
}

// SystemClock is a Clock backed by the host clock.
type SystemClock struct{}

func (SystemClock) Now() (uint64, bool) {
	now := time.Now().Unix()
	return uint64(now), now > 0
}

type Stats struct {
	Debug        uint64 `yaml:"debug"`
	TimeRequests uint64 `yaml:"time_requests"`
	Uploads      uint64 `yaml:"uploads"`
	UploadErrors uint64 `yaml:"upload_errors"`
	Unknown      uint64 `yaml:"unknown"`
	SendErrors   uint64 `yaml:"send_errors"`
	StoreErrors  uint64 `yaml:"store_errors"`
}

// Processor dispatches received frames by type. It runs in foreground, from the radio
// interface's Service.
type Processor struct {
	ctx    context.Context
	sender Sender
	clock  Clock
	store  sample.Store

	mu    sync.Mutex
	stats Stats
}

func New(ctx context.Context, sender Sender, clock Clock, store sample.Store) *Processor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Processor{ctx: ctx, sender: sender, clock: clock, store: store}
}

// HandleFrame is the radio receive callback.
func (p *Processor) HandleFrame(f *radio.RxFrame) {
	p.Process(f.Src(), f.Energy, f.Payload())
}

func (p *Processor) Process(src types.ShortAddr, energy byte, payload []byte) {
	if len(payload) == 0 {
		p.count(func(s *Stats) { s.Unknown++ })
		logger.Debugf("empty radio frame received from %04x", src)
		return
	}

	switch payload[0] {
	case FrameDebug:
		p.debugFrame(src, payload)
	case FrameTime:
		p.timeRequest(src, energy)
	case FrameUpload:
		p.upload(src, payload)
	default:
		p.count(func(s *Stats) { s.Unknown++ })
		logger.Debugf("unknown radio frame type '%c' received from %04x", payload[0], src)
	}
}

func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Processor) count(fn func(s *Stats)) {
	p.mu.Lock()
	fn(&p.stats)
	p.mu.Unlock()
}

func (p *Processor) reply(dst types.ShortAddr, payload []byte) {
	if err := p.sender.Send(p.ctx, payload, dst, true); err != nil {
		p.count(func(s *Stats) { s.SendErrors++ })
		logger.Warnf("reply '%c' to %04x failed: %v", payload[0], dst, err)
	}
}

func (p *Processor) debugFrame(src types.ShortAddr, payload []byte) {
	p.count(func(s *Stats) { s.Debug++ })
	p.reply(src, []byte{FrameDebug, FrameDebug, FrameDebug, FrameDebug})

	text := payload[1:]
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	logger.Infof("remote debug %04x: %s", src, text)
}

func (p *Processor) timeRequest(src types.ShortAddr, energy byte) {
	p.count(func(s *Stats) { s.TimeRequests++ })
	now, ok := p.clock.Now()
	if ok {
		logger.Debugf("transmitting current time %d to %04x", now, src)
		buf := make([]byte, 1, 9)
		buf[0] = FrameTime
		p.reply(src, binary.LittleEndian.AppendUint64(buf, now))
	} else {
		logger.Debugf("ignoring request for time from %04x: time is invalid", src)
	}

	p.put(sample.NewRecord(sample.FlagRssi, now, uint32(energy), 0))
}

func (p *Processor) upload(src types.ShortAddr, payload []byte) {
	if err := p.acceptUpload(src, payload); err != nil {
		p.count(func(s *Stats) { s.UploadErrors++ })
		logger.Warnf("upload from %04x rejected: %v", src, err)
		return
	}
	p.count(func(s *Stats) { s.Uploads++ })
	logger.Debugf("upload from %04x ok", src)
}

func (p *Processor) acceptUpload(src types.ShortAddr, payload []byte) error {
	if len(payload) < uploadMinLen {
		return errors.Wrapf(ErrUploadTooShort, "%d bytes", len(payload))
	}
	rec, err := sample.Decode(payload[5:uploadMinLen])
	if err != nil {
		return err
	}
	if err = rec.Verify(); err != nil {
		return err
	}

	ack := make([]byte, 0, 9)
	ack = append(ack, FrameAck)
	ack = append(ack, payload[1:5]...)
	ack = binary.LittleEndian.AppendUint32(ack, rec.Checksum)
	p.reply(src, ack)

	p.put(rec)
	return nil
}

func (p *Processor) put(rec sample.Record) {
	if p.store == nil {
		return
	}
	if err := p.store.Put(rec); err != nil {
		p.count(func(s *Stats) { s.StoreErrors++ })
		logger.Warnf("sample %s not stored: %v", rec, err)
	}
}
