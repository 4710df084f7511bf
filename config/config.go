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

// Package config loads the radifd configuration file.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-radif/hal/periph"
	"github.com/openthread/ot-radif/logger"
	"github.com/openthread/ot-radif/pcap"
	"github.com/openthread/ot-radif/types"
)

// Sim configures the simulated transceiver used instead of hardware.
type Sim struct {
	Enabled bool  `yaml:"enabled"`
	Seed    int64 `yaml:"seed"`
	// Echo makes the simulated chip receive every transmitted frame back after EchoDelay.
	Echo      bool          `yaml:"echo"`
	EchoDelay time.Duration `yaml:"echo_delay"`
}

type File struct {
	Radio    types.RadioConfig `yaml:"radio"`
	Hardware periph.Config     `yaml:"hardware"`
	LogLevel string            `yaml:"log_level"`
	PcapFile string            `yaml:"pcap_file"`
	// PcapFormat is "wpan" or "wpan-tap".
	PcapFormat    string        `yaml:"pcap_format"`
	SampleStore   int           `yaml:"sample_store"`
	ServicePeriod time.Duration `yaml:"service_period"`
	Sim           Sim           `yaml:"sim"`
}

func Default() File {
	return File{
		Radio:         types.DefaultRadioConfig(),
		Hardware:      periph.DefaultConfig(),
		LogLevel:      "info",
		PcapFormat:    pcap.FormatWpanStr,
		SampleStore:   1000,
		ServicePeriod: 10 * time.Millisecond,
		Sim: Sim{
			Seed:      1,
			EchoDelay: 5 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (File, error) {
	if path == "" {
		f := Default()
		return f, f.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrap(err, "read config")
	}
	f, err := Parse(data)
	return f, errors.Wrapf(err, "config %s", path)
}

// Parse decodes YAML over the defaults. Unknown keys are an error.
func Parse(data []byte) (File, error) {
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return File{}, errors.Wrap(err, "decode")
	}
	return f, f.Validate()
}

func (f *File) Validate() error {
	if _, err := logger.ParseLevelString(f.LogLevel); err != nil {
		return err
	}
	switch pcap.ParseFormat(f.PcapFormat) {
	case pcap.FormatWpan, pcap.FormatWpanTap:
	default:
		return errors.Errorf("invalid pcap_format %q", f.PcapFormat)
	}
	if f.ServicePeriod <= 0 {
		return errors.Errorf("invalid service_period %v", f.ServicePeriod)
	}
	if !f.Sim.Enabled && f.Hardware.SPIDevice == "" {
		return errors.New("hardware.spi_device is required without sim")
	}
	return nil
}

func (f File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}
