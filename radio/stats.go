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
)

// Stats are the link statistics. Channel access failures and missing acks are outcomes, not
// errors; they are only reported here.
type Stats struct {
	RxSuccess      uint64           `yaml:"rx_success"`
	RxOverflow     uint64           `yaml:"rx_overflow"`
	RxInvalid      uint64           `yaml:"rx_invalid"`
	TxSuccess      uint64           `yaml:"tx_success"`
	TxChannelFail  uint64           `yaml:"tx_channel_fail"`
	TxNoAck        uint64           `yaml:"tx_no_ack"`
	TxInvalid      uint64           `yaml:"tx_invalid"`
	TxDropped      uint64           `yaml:"tx_dropped"`
	LastTrac       types.TracStatus `yaml:"-"`
	LastTracString string           `yaml:"last_trac"`
	Interrupts     uint64           `yaml:"interrupts"`
	CaptureDropped uint64           `yaml:"capture_dropped"`
	LogDropped     uint64           `yaml:"log_dropped"`
}

// Stats returns a snapshot of the statistics.
func (r *Interface) Stats() Stats {
	r.statsMu.Lock()
	s := r.stats
	r.statsMu.Unlock()
	s.LastTracString = s.LastTrac.String()
	s.LogDropped = r.log.Dropped()
	return s
}

func (r *Interface) updateStats(fn func(s *Stats)) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	fn(&r.stats)
}

// recordTrac classifies the outcome of a finished transmission.
func (r *Interface) recordTrac(trac types.TracStatus) {
	r.updateStats(func(s *Stats) {
		s.LastTrac = trac
		switch trac {
		case types.TracSuccess, types.TracSuccessDataPending:
			s.TxSuccess++
		case types.TracChannelAccessFail:
			s.TxChannelFail++
		case types.TracNoAck:
			s.TxNoAck++
		default:
			s.TxInvalid++
		}
	})
}
