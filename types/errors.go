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

package types

import (
	"github.com/pkg/errors"
)

var (
	// ErrTimeout is returned when the transceiver does not settle in the requested state or a
	// bounded wait expires.
	ErrTimeout = errors.New("timeout")
	// ErrUnsupportedDevice is returned by reset when the part/version identifiers never match.
	ErrUnsupportedDevice = errors.New("unsupported device")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrQueueFull         = errors.New("queue full")
	ErrInterfaceDown     = errors.New("interface down")
	ErrMalformedFrame    = errors.New("malformed frame")
	// ErrUnsupported is returned by the frame codec for 64-bit addressing, security headers and
	// header IEs.
	ErrUnsupported = errors.New("unsupported")
	ErrWrongState  = errors.New("wrong state")
	ErrBusy        = errors.New("busy")
)

// RadioStatus is the numeric result code written into the command mailbox.
type RadioStatus byte

const (
	StatusSuccess               RadioStatus = 0x40
	StatusUnsupportedDevice     RadioStatus = 0x41
	StatusInvalidArgument       RadioStatus = 0x42
	StatusTimedOut              RadioStatus = 0x43
	StatusWrongState            RadioStatus = 0x44
	StatusBusyState             RadioStatus = 0x45
	StatusStateTransitionFailed RadioStatus = 0x46
)

// Err maps the status code to the matching sentinel error, or nil on success.
func (s RadioStatus) Err() error {
	switch s {
	case StatusSuccess:
		return nil
	case StatusUnsupportedDevice:
		return ErrUnsupportedDevice
	case StatusInvalidArgument:
		return ErrInvalidArgument
	case StatusTimedOut, StatusStateTransitionFailed:
		return ErrTimeout
	case StatusWrongState:
		return ErrWrongState
	case StatusBusyState:
		return ErrBusy
	default:
		return errors.Errorf("unknown radio status 0x%02x", byte(s))
	}
}

// StatusOf maps an error back to its status code. Unknown errors map to StatusTimedOut.
func StatusOf(err error) RadioStatus {
	switch cause := errors.Cause(err); cause {
	case nil:
		return StatusSuccess
	case ErrUnsupportedDevice:
		return StatusUnsupportedDevice
	case ErrInvalidArgument:
		return StatusInvalidArgument
	case ErrWrongState:
		return StatusWrongState
	case ErrBusy:
		return StatusBusyState
	default:
		return StatusTimedOut
	}
}

func (s RadioStatus) String() string {
	if err := s.Err(); err != nil {
		return err.Error()
	}
	return "success"
}
