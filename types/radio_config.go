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

import "time"

const (
	DefaultQueueCapacity  = 8
	DefaultSendTimeout    = time.Second
	DefaultCommandTimeout = time.Second
)

// RadioConfig holds the link settings pushed to the transceiver by the startup command.
type RadioConfig struct {
	// Frequency is in 100 kHz units for the 769.0-928.5 MHz channel tables, or in MHz for the
	// general 769-863 and 833-935 MHz bands. See radio.FrequencyRegisters.
	Frequency       uint16        `yaml:"frequency"`
	Power           byte          `yaml:"power"`
	Modulation      Modulation    `yaml:"modulation"`
	PanId           PanId         `yaml:"pan_id"`
	ShortAddress    ShortAddr     `yaml:"short_address"`
	AutoCrc         bool          `yaml:"auto_crc"`
	Promiscuous     bool          `yaml:"promiscuous"`
	ClkmConfig      byte          `yaml:"clkm_config"`
	MaxFrameRetries byte          `yaml:"max_frame_retries"`
	MaxCsmaRetries  byte          `yaml:"max_csma_retries"`
	QueueCapacity   int           `yaml:"queue_capacity"`
	SendTimeout     time.Duration `yaml:"send_timeout"`
	CommandTimeout  time.Duration `yaml:"command_timeout"`
}

// DefaultRadioConfig returns the base station defaults: 868.3 MHz, O-QPSK 400 kchip/s.
func DefaultRadioConfig() RadioConfig {
	return RadioConfig{
		Frequency:       8683,
		Power:           0xe8,
		Modulation:      ModOqpsk400K200Kbit,
		PanId:           0x1234,
		ShortAddress:    0x0001,
		AutoCrc:         true,
		Promiscuous:     false,
		ClkmConfig:      0x19,
		MaxFrameRetries: 3,
		MaxCsmaRetries:  4,
		QueueCapacity:   DefaultQueueCapacity,
		SendTimeout:     DefaultSendTimeout,
		CommandTimeout:  DefaultCommandTimeout,
	}
}

// Normalize fills zero-valued tunables with defaults.
func (c *RadioConfig) Normalize() {
	if c.QueueCapacity <= 1 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.MaxFrameRetries > 15 {
		c.MaxFrameRetries = 15
	}
	if c.MaxCsmaRetries > 7 {
		c.MaxCsmaRetries = 7
	}
}
