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
	"sync"
	"time"

	"github.com/openthread/ot-radif/logger"
	"github.com/openthread/ot-radif/radio"
)

// Tap writes every frame the radio interface reports to a pcap File.
type Tap struct {
	mu      sync.Mutex
	file    File
	start   time.Time
	channel uint16
	frames  uint64
	failed  bool
}

// NewTap returns a tap writing to file. channel is recorded in wpan-tap captures.
func NewTap(file File, channel uint16) *Tap {
	return &Tap{file: file, start: time.Now(), channel: channel}
}

func (t *Tap) CaptureFrame(dir radio.Direction, psdu []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.file.AppendFrame(Frame{
		Timestamp: uint64(time.Since(t.start) / time.Microsecond),
		Data:      psdu,
		Channel:   t.channel,
	})
	if err != nil {
		if !t.failed {
			logger.Errorf("pcap: %s frame not written: %v", dir, err)
		}
		t.failed = true
		return
	}
	t.frames++
}

// Frames returns the number of frames written.
func (t *Tap) Frames() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

func (t *Tap) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.file.Sync(); err != nil {
		_ = t.file.Close()
		return err
	}
	return t.file.Close()
}
