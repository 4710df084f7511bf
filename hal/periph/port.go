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

// Package periph is the hal.Port adapter for Linux hosts, built on periph.io SPI and GPIO.
package periph

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/openthread/ot-radif/hal"
	"github.com/openthread/ot-radif/logger"
)

// Config names the SPI port and the GPIO lines wired to the transceiver.
type Config struct {
	SPIDevice  string `yaml:"spi_device"`
	SPISpeedHz int64  `yaml:"spi_speed_hz"`
	ResetPin   string `yaml:"reset_pin"`
	SleepPin   string `yaml:"sleep_pin"`
	CSPin      string `yaml:"cs_pin"`
	IRQPin     string `yaml:"irq_pin"`
}

func DefaultConfig() Config {
	return Config{
		SPIDevice:  "/dev/spidev0.0",
		SPISpeedHz: 4000000,
		ResetPin:   "GPIO23",
		SleepPin:   "GPIO24",
		CSPin:      "GPIO8",
		IRQPin:     "GPIO25",
	}
}

const irqPollTimeout = 100 * time.Millisecond

// Port drives the transceiver over a periph.io SPI port opened without hardware chip select.
// Chip select is a GPIO line so that one transaction can span any number of single byte
// transfers.
type Port struct {
	port  spi.PortCloser
	conn  spi.Conn
	cs    gpio.PinOut
	reset gpio.PinOut
	sleep gpio.PinOut
	irq   gpio.PinIn

	trigger hal.Trigger

	mu  sync.Mutex
	err error
}

// Open initializes the periph.io host drivers and claims the SPI port and GPIO lines.
func Open(cfg Config, trigger hal.Trigger) (*Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}

	p, err := spireg.Open(cfg.SPIDevice)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.SPIDevice)
	}
	conn, err := p.Connect(physic.Frequency(cfg.SPISpeedHz)*physic.Hertz, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		_ = p.Close()
		return nil, errors.Wrapf(err, "connect %s", cfg.SPIDevice)
	}

	port := &Port{port: p, conn: conn, trigger: trigger}
	pins := []struct {
		name string
		out  *gpio.PinOut
		idle gpio.Level
	}{
		{cfg.CSPin, &port.cs, gpio.High},
		{cfg.ResetPin, &port.reset, gpio.High},
		{cfg.SleepPin, &port.sleep, gpio.Low},
	}
	for _, pin := range pins {
		io := gpioreg.ByName(pin.name)
		if io == nil {
			_ = p.Close()
			return nil, errors.Errorf("gpio %s not found", pin.name)
		}
		if err = io.Out(pin.idle); err != nil {
			_ = p.Close()
			return nil, errors.Wrapf(err, "gpio %s", pin.name)
		}
		*pin.out = io
	}

	irq := gpioreg.ByName(cfg.IRQPin)
	if irq == nil {
		_ = p.Close()
		return nil, errors.Errorf("gpio %s not found", cfg.IRQPin)
	}
	if err = irq.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		_ = p.Close()
		return nil, errors.Wrapf(err, "gpio %s", cfg.IRQPin)
	}
	port.irq = irq
	return port, nil
}

// WatchIRQ fires the trigger on every rising edge of the IRQ line until ctx is done.
func (p *Port) WatchIRQ(ctx context.Context) {
	for ctx.Err() == nil {
		if p.irq.WaitForEdge(irqPollTimeout) {
			p.trigger.Trigger()
		} else if p.irq.Read() == gpio.High {
			// level still asserted: an edge was missed while the handler ran
			p.trigger.Trigger()
		}
	}
}

func (p *Port) Close() error {
	if p.irq != nil {
		_ = p.irq.Halt()
	}
	return p.port.Close()
}

// Err returns the first bus or GPIO error seen. Port methods cannot return errors, so they are
// kept and reported here.
func (p *Port) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Port) fail(err error, what string) {
	if err == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = errors.Wrap(err, what)
		logger.Errorf("radio port: %v", p.err)
	}
}

func (p *Port) SPIBegin() {
	p.fail(p.cs.Out(gpio.Low), "chip select")
}

func (p *Port) SPIEnd() {
	p.fail(p.cs.Out(gpio.High), "chip select")
}

func (p *Port) Transfer(out byte) byte {
	w := [1]byte{out}
	var r [1]byte
	p.fail(p.conn.Tx(w[:], r[:]), "spi transfer")
	return r[0]
}

func (p *Port) SleepPinSet() {
	p.fail(p.sleep.Out(gpio.High), "sleep pin")
}

func (p *Port) SleepPinClear() {
	p.fail(p.sleep.Out(gpio.Low), "sleep pin")
}

// ResetPinSet asserts RST, which is active low.
func (p *Port) ResetPinSet() {
	p.fail(p.reset.Out(gpio.Low), "reset pin")
}

func (p *Port) ResetPinClear() {
	p.fail(p.reset.Out(gpio.High), "reset pin")
}

// DelayMicroseconds sleeps for long delays and spins for short ones, which the scheduler
// cannot honor.
func (p *Port) DelayMicroseconds(us uint32) {
	d := time.Duration(us) * time.Microsecond
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	for start := time.Now(); time.Since(start) < d; {
	}
}

func (p *Port) RequestDeferredInterrupt() {
	p.trigger.Trigger()
}
