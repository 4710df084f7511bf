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

// Package radif_main wires the radio interface daemon together.
package radif_main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"

	"github.com/openthread/ot-radif/cli"
	"github.com/openthread/ot-radif/config"
	"github.com/openthread/ot-radif/energy"
	"github.com/openthread/ot-radif/frameproc"
	"github.com/openthread/ot-radif/hal"
	"github.com/openthread/ot-radif/hal/periph"
	"github.com/openthread/ot-radif/hal/sim"
	"github.com/openthread/ot-radif/irq"
	"github.com/openthread/ot-radif/logger"
	"github.com/openthread/ot-radif/pcap"
	"github.com/openthread/ot-radif/progctx"
	"github.com/openthread/ot-radif/radio"
	"github.com/openthread/ot-radif/sample"
)

// MainArgs are the command line overrides of the configuration file.
type MainArgs struct {
	ConfigFile string
	LogLevel   string
	Sim        bool
	PcapFile   string
	NoCli      bool
	SPIDevice  string
}

func (args MainArgs) apply(cfg *config.File) {
	if args.LogLevel != "" {
		cfg.LogLevel = args.LogLevel
	}
	if args.Sim {
		cfg.Sim.Enabled = true
	}
	if args.PcapFile != "" {
		cfg.PcapFile = args.PcapFile
	}
	if args.SPIDevice != "" {
		cfg.Hardware.SPIDevice = args.SPIDevice
	}
}

// Daemon owns the radio interface and everything attached to it.
type Daemon struct {
	ctx     *progctx.ProgCtx
	cfg     config.File
	line    *irq.Line
	port    hal.Port
	radio   *radio.Interface
	station cli.Station
	tap     *pcap.Tap
	closers []closer
}

type closer struct {
	what  string
	close func() error
}

// LoadConfig reads the configuration file and applies the command line overrides.
func LoadConfig(args MainArgs) (config.File, error) {
	cfg, err := config.Load(args.ConfigFile)
	if err != nil {
		return cfg, err
	}
	args.apply(&cfg)
	return cfg, cfg.Validate()
}

// New builds the daemon: hardware or simulated port, interrupt line, radio interface, frame
// processor, sample store, energy meter and optional capture.
func New(ctx *progctx.ProgCtx, cfg config.File) (*Daemon, error) {
	d := &Daemon{
		ctx:  ctx,
		cfg:  cfg,
		line: irq.NewLine("at86rf212", 0),
	}

	if cfg.Sim.Enabled {
		opts := []sim.Option{sim.WithSeed(cfg.Sim.Seed)}
		if cfg.Sim.Echo {
			opts = append(opts, sim.WithEcho(cfg.Sim.EchoDelay))
		}
		chip := sim.New(opts...)
		chip.Attach(d.line)
		d.port = chip
		d.station.Chip = chip
		logger.Infof("using simulated AT86RF212")
	} else {
		p, err := periph.Open(cfg.Hardware, d.line)
		if err != nil {
			return nil, err
		}
		d.port = p
		d.deferClose("spi", p.Close)
		ctx.WaitAdd("irq-pin", 1)
		go func() {
			defer ctx.WaitDone("irq-pin")
			p.WatchIRQ(ctx)
		}()
		logger.Infof("using AT86RF212 on %s", cfg.Hardware.SPIDevice)
	}

	meter := energy.NewMeter(nil)
	opts := []radio.Option{radio.WithStateObserver(meter)}
	if cfg.PcapFile != "" {
		f, err := pcap.NewFile(cfg.PcapFile, pcap.ParseFormat(cfg.PcapFormat))
		if err != nil {
			d.Close()
			return nil, err
		}
		d.tap = pcap.NewTap(f, cfg.Radio.Frequency)
		d.deferClose("pcap", d.tap.Close)
		opts = append(opts, radio.WithTap(d.tap))
	}

	r, err := radio.New(d.port, cfg.Radio, opts...)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.radio = r

	store := sample.NewMemoryStore(cfg.SampleStore)
	frames := frameproc.New(ctx, r, frameproc.SystemClock{}, store)
	r.RegisterReceiveCallback(frames.HandleFrame)

	d.station.Radio = r
	d.station.Meter = meter
	d.station.Frames = frames
	d.station.Samples = store
	return d, nil
}

func (d *Daemon) deferClose(what string, closeFn func() error) {
	d.closers = append(d.closers, closer{what, closeFn})
}

// Close releases the capture file and the hardware. Call it after every routine has stopped.
func (d *Daemon) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].close(); err != nil {
			logger.Warnf("close %s: %v", d.closers[i].what, err)
		}
	}
	d.closers = nil
}

func (d *Daemon) Station() cli.Station {
	return d.station
}

func (d *Daemon) Radio() *radio.Interface {
	return d.radio
}

// Start runs the interrupt line and the service loop, then brings the link up.
func (d *Daemon) Start() error {
	d.ctx.Go("irq", func(ctx context.Context) error {
		return d.line.Run(ctx, d.radio.HandleInterrupt)
	})
	d.ctx.Go("service", d.serviceLoop)

	if err := d.radio.Start(d.ctx); err != nil {
		return errors.Wrap(err, "radio start")
	}
	cfg := d.radio.Config()
	logger.Infof("radio up: frequency %d, pan 0x%04x, address 0x%04x", cfg.Frequency, cfg.PanId, cfg.ShortAddress)
	return nil
}

func (d *Daemon) serviceLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.ServicePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.radio.Service()
		case <-ctx.Done():
			d.radio.Service()
			logger.Sync()
			return ctx.Err()
		}
	}
}

// Main runs the daemon until the console exits, a signal arrives or a routine fails.
func Main(ctx *progctx.ProgCtx, args MainArgs, cliOptions *cli.CliOptions) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	lv, err := logger.ParseLevelString(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(lv)

	handleSignals(ctx)

	d, err := New(ctx, cfg)
	if err != nil {
		ctx.Cancel(err)
		ctx.Wait()
		return err
	}
	defer d.Close()
	if err = d.Start(); err != nil {
		ctx.Cancel(err)
		ctx.Wait()
		return err
	}

	if !args.NoCli {
		go cli.Run(ctx, cli.NewCmdRunner(ctx, d.Station()), cliOptions)
	}

	<-ctx.Done()
	simplelogger.Debugf("waiting for radifd to stop gracefully ...")
	ctx.Wait()
	return ctx.Cause()
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer simplelogger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")
		defer signal.Stop(c)

		select {
		case sig := <-c:
			simplelogger.Infof("signal received: %v", sig)
			ctx.Cancel(nil)
		case <-ctx.Done():
		}
	}()
}
