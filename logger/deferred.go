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

package logger

import (
	"sync/atomic"
)

type logEntry struct {
	Level Level
	Msg   string
}

// DeferredLogger queues log entries produced in interrupt context. Entries are written out by
// Flush, which runs in foreground. Logging never blocks: when the queue is full the entry is
// dropped and counted.
type DeferredLogger struct {
	prefix  string
	entries chan logEntry
	dropped atomic.Uint64
}

func NewDeferredLogger(prefix string, depth int) *DeferredLogger {
	if depth <= 0 {
		depth = 256
	}
	return &DeferredLogger{
		prefix:  prefix,
		entries: make(chan logEntry, depth),
	}
}

func (dl *DeferredLogger) Logf(level Level, format string, args ...interface{}) {
	if !enabled(level) {
		return
	}
	select {
	case dl.entries <- logEntry{Level: level, Msg: dl.prefix + getMessage(format, args)}:
	default:
		dl.dropped.Add(1)
	}
}

func (dl *DeferredLogger) Tracef(format string, args ...interface{}) {
	dl.Logf(TraceLevel, format, args...)
}

func (dl *DeferredLogger) Debugf(format string, args ...interface{}) {
	dl.Logf(DebugLevel, format, args...)
}

func (dl *DeferredLogger) Infof(format string, args ...interface{}) {
	dl.Logf(InfoLevel, format, args...)
}

func (dl *DeferredLogger) Warnf(format string, args ...interface{}) {
	dl.Logf(WarnLevel, format, args...)
}

func (dl *DeferredLogger) Errorf(format string, args ...interface{}) {
	dl.Logf(ErrorLevel, format, args...)
}

// Flush writes out all queued entries and returns how many were written.
func (dl *DeferredLogger) Flush() int {
	n := 0
	for {
		select {
		case e := <-dl.entries:
			if e.Level <= PanicLevel {
				e.Level = ErrorLevel
			}
			write(e.Level, e.Msg)
			n++
		default:
			return n
		}
	}
}

// Pending returns the number of queued entries.
func (dl *DeferredLogger) Pending() int {
	return len(dl.entries)
}

// Dropped returns the number of entries lost to a full queue.
func (dl *DeferredLogger) Dropped() uint64 {
	return dl.dropped.Load()
}
