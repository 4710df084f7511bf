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
	"github.com/pkg/errors"

	"github.com/openthread/ot-radif/radio/reg"
	"github.com/openthread/ot-radif/types"
)

// Chip operations run by the command dispatcher. Interrupt context only.

// reset runs the power-on reset procedure and checks the chip identification.
func (r *Interface) reset() error {
	r.port.ResetPinClear()
	r.port.SleepPinClear()
	r.port.SPIEnd()
	r.port.DelayMicroseconds(reg.TimePOnWait)

	r.port.ResetPinSet()
	r.port.DelayMicroseconds(reg.TimeRstPulseWidth)
	r.port.ResetPinClear()

	identified := false
	var version, part byte
	for i := 0; i < identifyAttempts; i++ {
		version = r.readReg(reg.VersionNum)
		if version != reg.At86rf212VersionNum {
			continue
		}
		if part = r.readReg(reg.PartNum); part == reg.At86rf212PartNum {
			identified = true
			break
		}
	}
	if !identified {
		return errors.Wrapf(types.ErrUnsupportedDevice, "part 0x%02x version 0x%02x", part, version)
	}

	r.modifyReg(reg.TrxCtrl0, r.Config().ClkmConfig, reg.TrxCtrl0Mask)

	r.trxCommand(reg.TrxCmdForceTrxOff)
	r.port.DelayMicroseconds(reg.TimeAllStatesTrxOff)
	off := false
	for i := 0; i < trxOffAttempts; i++ {
		if r.readState() == types.StateOff {
			off = true
			break
		}
	}
	if !off {
		return errors.Wrapf(types.ErrWrongState, "chip stuck in %s after reset", r.State())
	}

	r.readReg(reg.IrqStatus)
	r.writeReg(reg.IrqMask, 0)
	return nil
}

// configure applies the link configuration that startup pushes before bringing the interface up.
func (r *Interface) configure() {
	cfg := r.Config()
	r.writeReg(reg.XahCtrl0, cfg.MaxFrameRetries<<4|cfg.MaxCsmaRetries<<1)
	r.modifyReg(reg.CsmaSeed1, reg.AackFvnV0V1<<reg.AackFvnPos, reg.AackFvnMask)
	r.writeReg(reg.IrqMask, reg.IrqRxStart|reg.IrqTrxEnd)

	var crc, prom byte
	if cfg.AutoCrc {
		crc = reg.TxAutoCrcOn
	}
	if cfg.Promiscuous {
		prom = reg.AackPromMode
	}
	r.modifyReg(reg.TrxCtrl1, crc, reg.TxAutoCrcOn)
	r.modifyReg(reg.XahCtrl1, prom, reg.AackPromMode)

	seq, err := r.randomByte()
	if err != nil {
		r.log.Warnf("no random sequence start: %v", err)
	}
	r.seq.Reset(seq)
}

// randomByte assembles a byte from four reads of the two random bits in PHY_RSSI.
func (r *Interface) randomByte() (byte, error) {
	if err := r.requestState(types.StateRxListen); err != nil {
		return 0, err
	}
	var v byte
	for i := 0; i < 8; i += 2 {
		v |= ((r.readReg(reg.PhyRssi) << 1) & 0xc0) >> i
	}
	return v, nil
}

func (r *Interface) setModulation() error {
	if err := r.requestState(types.StateOff); err != nil {
		return err
	}
	mod := r.Config().Modulation
	r.modifyReg(reg.TrxCtrl2, byte(mod), types.ModulationMask)
	if mod.IsOqpsk() {
		r.modifyReg(reg.RfCtrl0, reg.OqpskTxOffset, reg.RfTxOffsetMask)
	} else {
		r.modifyReg(reg.RfCtrl0, reg.BpskTxOffset, reg.RfTxOffsetMask)
	}
	return nil
}

// FrequencyRegisters translates freq into the CC_CTRL_1 band and CC_CTRL_0 channel number.
// freq is in 100 kHz units in the 769.0-794.5, 857.0-882.5 and 903.0-928.5 MHz bands, and in MHz
// in the two general bands.
func FrequencyRegisters(freq uint16) (band byte, number byte, err error) {
	switch {
	case 7690 <= freq && freq <= 7945:
		return 1, byte(freq - 7690), nil
	case 8570 <= freq && freq <= 8825:
		return 2, byte(freq - 8570), nil
	case 9030 <= freq && freq <= 9285:
		return 3, byte(freq - 9030), nil
	case 769 <= freq && freq <= 863:
		return 4, byte(freq - 769), nil
	case 833 <= freq && freq <= 935:
		return 5, byte(freq - 833), nil
	default:
		return 0, 0, errors.Wrapf(types.ErrInvalidArgument, "frequency %d outside all bands", freq)
	}
}

func (r *Interface) setFrequency() error {
	band, number, err := FrequencyRegisters(r.Config().Frequency)
	if err != nil {
		return err
	}
	r.modifyReg(reg.CcCtrl1, band, reg.CcBandMask)
	r.writeReg(reg.CcCtrl0, number)

	if s := r.readState(); s == types.StateRxListen || s == types.StatePllOn {
		r.port.DelayMicroseconds(reg.TimePllLock)
	}
	return nil
}

// measureEnergy runs one energy detect measurement on the current channel.
func (r *Interface) measureEnergy() (byte, error) {
	if err := r.requestState(types.StateRxListen); err != nil {
		return 0, err
	}
	r.writeReg(reg.PhyEdLevel, reg.Blank)
	r.modifyReg(reg.IrqMask, reg.IrqCcaEdDone, reg.IrqCcaEdDone)

	done := false
	for i := 0; i < edPollAttempts && !done; i++ {
		if r.readReg(reg.IrqStatus)&reg.IrqCcaEdDone != 0 {
			done = true
		} else {
			r.port.DelayMicroseconds(reg.TimeEdPoll)
		}
	}
	r.modifyReg(reg.IrqMask, 0, reg.IrqCcaEdDone)
	if !done {
		return 0, errors.Wrap(types.ErrTimeout, "energy detect")
	}
	return r.readReg(reg.PhyEdLevel), nil
}

func (r *Interface) sleep() error {
	if err := r.requestState(types.StateOff); err != nil {
		return err
	}
	r.port.SleepPinSet()
	r.observe(types.StateSleep)
	return nil
}

func (r *Interface) wake() error {
	r.port.SleepPinClear()
	r.port.DelayMicroseconds(reg.TimeSleepToTrxOff)
	return r.requestState(types.StateRxAckListen)
}
