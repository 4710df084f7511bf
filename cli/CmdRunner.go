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

// Package cli implements the radifd console. It parses and executes console commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-radif/energy"
	"github.com/openthread/ot-radif/frameproc"
	"github.com/openthread/ot-radif/hal/sim"
	"github.com/openthread/ot-radif/logger"
	"github.com/openthread/ot-radif/progctx"
	"github.com/openthread/ot-radif/radio"
	"github.com/openthread/ot-radif/sample"
	"github.com/openthread/ot-radif/types"
	"github.com/openthread/ot-radif/wpan"
)

const (
	Prompt = "radif> "
	// energy level reported for injected frames when none is given
	defaultInjectEnergy = 0x40
)

// Station is what the console operates on. Meter, Frames, Samples and Chip are optional;
// Chip is only set when running on the simulated transceiver.
type Station struct {
	Radio   *radio.Interface
	Meter   *energy.Meter
	Frames  *frameproc.Processor
	Samples *sample.MemoryStore
	Chip    *sim.Chip
}

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputAsYaml(v interface{}) {
	data, err := yaml.Marshal(v)
	logger.PanicIfError(err)
	cc.outputStr(string(data))
}

// outputItemsAsYaml prints a list with one flow-style line per item.
func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

type CmdRunner struct {
	ctx       *progctx.ProgCtx
	st        Station
	help      Help
	injectSeq *wpan.Sequencer
}

func NewCmdRunner(ctx *progctx.ProgCtx, st Station) *CmdRunner {
	return &CmdRunner{
		ctx:       ctx,
		st:        st,
		help:      newHelp(),
		injectSeq: wpan.NewSequencer(0),
	}
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}
		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()
		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	r := rt.st.Radio
	switch {
	case cmd.Send != nil:
		rt.executeSend(cc, cmd.Send)
	case cmd.Stats != nil:
		rt.executeStats(cc)
	case cmd.State != nil:
		cc.outputf("%s (interface %s)\n", r.State(), upOrDown(r.IsUp()))
	case cmd.Config != nil:
		cc.outputAsYaml(r.Config())
	case cmd.Reset != nil:
		cc.error(r.Reset(rt.ctx))
	case cmd.Start != nil:
		cc.error(r.Start(rt.ctx))
	case cmd.Sleep != nil:
		cc.error(r.Sleep(rt.ctx))
	case cmd.Wake != nil:
		cc.error(r.Wake(rt.ctx))
	case cmd.Ed != nil:
		rt.executeByteResult(cc, r.MeasureEnergy)
	case cmd.Random != nil:
		rt.executeByteResult(cc, r.RandomByte)
	case cmd.Freq != nil:
		rt.executeFreq(cc, cmd.Freq)
	case cmd.Power != nil:
		rt.executePower(cc, cmd.Power)
	case cmd.Modulation != nil:
		rt.executeModulation(cc, cmd.Modulation)
	case cmd.Address != nil:
		rt.executeAddress(cc, cmd.Address)
	case cmd.Consumption != nil:
		rt.executeConsumption(cc, cmd.Consumption)
	case cmd.Inject != nil:
		rt.executeInject(cc, cmd.Inject)
	case cmd.Samples != nil:
		rt.executeSamples(cc, cmd.Samples)
	case cmd.LogLevel != nil:
		rt.executeLogLevel(cc, cmd.LogLevel)
	case cmd.Help != nil:
		rt.executeHelp(cc, cmd.Help)
	case cmd.Exit != nil:
		rt.ctx.Cancel("exit")
	default:
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func upOrDown(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

func (rt *CmdRunner) executeSend(cc *CommandContext, cmd *SendCmd) {
	dst, err := cmd.Dst.Uint(16)
	if err != nil {
		cc.error(err)
		return
	}
	cc.error(rt.st.Radio.Send(rt.ctx, []byte(cmd.Text), types.ShortAddr(dst), cmd.Ack != nil))
}

type statsOutput struct {
	Radio     radio.Stats      `yaml:"radio"`
	TxPending int              `yaml:"tx_pending"`
	RxPending int              `yaml:"rx_pending"`
	Frames    *frameproc.Stats `yaml:"frames,omitempty"`
	Samples   *int             `yaml:"samples,omitempty"`
}

func (rt *CmdRunner) executeStats(cc *CommandContext) {
	out := statsOutput{
		Radio:     rt.st.Radio.Stats(),
		TxPending: rt.st.Radio.TxPending(),
		RxPending: rt.st.Radio.RxPending(),
	}
	if rt.st.Frames != nil {
		fs := rt.st.Frames.Stats()
		out.Frames = &fs
	}
	if rt.st.Samples != nil {
		n := rt.st.Samples.Len()
		out.Samples = &n
	}
	cc.outputAsYaml(out)
}

func (rt *CmdRunner) executeByteResult(cc *CommandContext, fn func(ctx context.Context) (byte, error)) {
	v, err := fn(rt.ctx)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputf("%d (0x%02x)\n", v, v)
}

func (rt *CmdRunner) executeFreq(cc *CommandContext, cmd *FreqCmd) {
	if cmd.Val == nil {
		cc.outputf("%d\n", rt.st.Radio.Config().Frequency)
		return
	}
	v, err := cmd.Val.Uint(16)
	if err != nil {
		cc.error(err)
		return
	}
	cc.error(rt.st.Radio.SetFrequency(rt.ctx, uint16(v)))
}

func (rt *CmdRunner) executePower(cc *CommandContext, cmd *PowerCmd) {
	if cmd.Val == nil {
		cc.outputf("0x%02x\n", rt.st.Radio.Config().Power)
		return
	}
	v, err := cmd.Val.Uint(8)
	if err != nil {
		cc.error(err)
		return
	}
	cc.error(rt.st.Radio.SetPower(rt.ctx, byte(v)))
}

func (rt *CmdRunner) executeModulation(cc *CommandContext, cmd *ModulationCmd) {
	if cmd.Val == nil {
		cc.outputf("0x%02x\n", rt.st.Radio.Config().Modulation)
		return
	}
	v, err := cmd.Val.Uint(8)
	if err != nil {
		cc.error(err)
		return
	}
	cc.error(rt.st.Radio.SetModulation(rt.ctx, types.Modulation(v)))
}

func (rt *CmdRunner) executeAddress(cc *CommandContext, cmd *AddressCmd) {
	if cmd.Pan == nil || cmd.Short == nil {
		cfg := rt.st.Radio.Config()
		cc.outputf("pan 0x%04x short 0x%04x\n", cfg.PanId, cfg.ShortAddress)
		return
	}
	pan, err := cmd.Pan.Uint(16)
	if err != nil {
		cc.error(err)
		return
	}
	short, err := cmd.Short.Uint(16)
	if err != nil {
		cc.error(err)
		return
	}
	cc.error(rt.st.Radio.SetAddress(rt.ctx, types.PanId(pan), types.ShortAddr(short)))
}

func (rt *CmdRunner) executeConsumption(cc *CommandContext, cmd *ConsumptionCmd) {
	if rt.st.Meter == nil {
		cc.errorf("energy meter not enabled")
		return
	}
	if cmd.Reset != "" {
		rt.st.Meter.Reset()
		return
	}
	cc.outputAsYaml(rt.st.Meter.Report())
}

func (rt *CmdRunner) executeInject(cc *CommandContext, cmd *InjectCmd) {
	if rt.st.Chip == nil {
		cc.errorf("inject requires the simulated transceiver")
		return
	}
	src, err := cmd.Src.Uint(16)
	if err != nil {
		cc.error(err)
		return
	}
	energyLevel := uint64(defaultInjectEnergy)
	if cmd.Energy != nil {
		if energyLevel, err = cmd.Energy.Uint(8); err != nil {
			cc.error(err)
			return
		}
	}

	cfg := rt.st.Radio.Config()
	h := wpan.DataHeader(cfg.PanId, cfg.ShortAddress, types.ShortAddr(src), rt.injectSeq.Next(), false)
	psdu, err := wpan.EncodeHeader(&h)
	if err != nil {
		cc.error(err)
		return
	}
	psdu = append(psdu, cmd.Text...)
	psdu = append(psdu, 0, 0) // FCS
	if len(psdu) > types.MaxPsduLen {
		cc.error(errors.Wrapf(types.ErrInvalidArgument, "frame of %d bytes", len(psdu)))
		return
	}
	if !rt.st.Chip.Inject(psdu, byte(energyLevel), true) {
		cc.errorf("transceiver is not listening (%s)", rt.st.Chip.State())
	}
}

func (rt *CmdRunner) executeSamples(cc *CommandContext, cmd *SamplesCmd) {
	if rt.st.Samples == nil {
		cc.errorf("sample store not enabled")
		return
	}
	if cmd.Clear != "" {
		n := 0
		for _, ok := rt.st.Samples.Next(); ok; _, ok = rt.st.Samples.Next() {
			n++
		}
		cc.outputf("%d samples removed\n", n)
		return
	}
	records := rt.st.Samples.Records()
	if len(records) > 0 {
		cc.outputItemsAsYaml(records)
	}
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevel())
		return
	}
	lv, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(lv)
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}
