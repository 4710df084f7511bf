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

package energy

import (
	"sync"
	"time"

	"github.com/openthread/ot-radif/logger"
	"github.com/openthread/ot-radif/types"
)

// Meter accumulates the time spent in each power class. It implements radio.StateObserver.
type Meter struct {
	mu      sync.Mutex
	now     func() time.Time
	start   time.Time
	since   time.Time
	state   types.TransceiverState
	spent   [numClasses]uint64
	changes uint64
}

// NewMeter returns a meter that starts in the off state. now defaults to time.Now.
func NewMeter(now func() time.Time) *Meter {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Meter{
		now:   now,
		start: t,
		since: t,
		state: types.StateOff,
	}
}

// OnStateChange closes the interval of the previous state.
func (m *Meter) OnStateChange(s types.TransceiverState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.account(m.now())
	m.state = s
	m.changes++
}

func (m *Meter) account(t time.Time) {
	if t.Before(m.since) {
		logger.Warnf("energy: clock went backwards by %v", m.since.Sub(t))
		m.since = t
		return
	}
	m.spent[ClassOf(m.state)] += uint64(t.Sub(m.since) / time.Microsecond)
	m.since = t
}

// Changes returns the number of state changes seen.
func (m *Meter) Changes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changes
}

// Report accounts the current state up to now and returns the totals.
func (m *Meter) Report() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.now()
	m.account(t)
	rep := Report{
		Elapsed: uint64(t.Sub(m.start) / time.Microsecond),
		State:   m.state.String(),
		Class:   ClassOf(m.state).String(),
		Classes: make([]ClassReport, 0, numClasses),
	}
	for c := Class(0); c < numClasses; c++ {
		cr := ClassReport{
			Class:   c.String(),
			Time:    m.spent[c],
			Current: classCurrent[c],
			Charge:  charge(m.spent[c], classCurrent[c]),
		}
		rep.TotalCharge += cr.Charge
		rep.Classes = append(rep.Classes, cr)
	}
	if rep.Elapsed > 0 {
		rep.AverageCurrent = rep.TotalCharge * 3600e6 / float64(rep.Elapsed)
	}
	return rep
}

// Spent returns the time in microseconds accounted to class c so far.
func (m *Meter) Spent(c Class) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.account(m.now())
	return m.spent[c]
}

// Reset clears the totals and restarts the measurement at now.
func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.now()
	m.start, m.since = t, t
	m.spent = [numClasses]uint64{}
	m.changes = 0
}
