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

// Package hal defines the hardware access capabilities the radio driver consumes.
package hal

// Port is the capability set exposed by a platform adapter: framed full-duplex SPI, the reset and
// sleep lines, a busy delay and the deferred interrupt trigger.
//
// SPIBegin/SPIEnd bracket one transaction (chip select asserted in between). The driver calls
// Port methods from the interrupt goroutine only, with the exception of RequestDeferredInterrupt.
type Port interface {
	SPIBegin()
	SPIEnd()
	Transfer(out byte) byte

	SleepPinSet()
	SleepPinClear()
	ResetPinSet()
	ResetPinClear()

	DelayMicroseconds(us uint32)

	// RequestDeferredInterrupt asks for the interrupt handler to run soon on its own goroutine.
	// It must never call the handler directly.
	RequestDeferredInterrupt()
}

// Trigger is the part of an interrupt line a Port adapter fires.
type Trigger interface {
	Trigger()
}
