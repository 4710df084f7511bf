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
	"context"

	"github.com/pkg/errors"

	"github.com/openthread/ot-radif/types"
)

func (r *Interface) issue(ctx context.Context, cmd types.Command) error {
	_, err := r.Issue(ctx, cmd)
	return errors.Wrapf(err, "%s", cmd)
}

// Start resets the transceiver, pushes modulation, frequency, power and addresses and brings the
// interface up.
func (r *Interface) Start(ctx context.Context) error {
	for _, cmd := range []types.Command{
		types.CmdReset,
		types.CmdSetModulation,
		types.CmdSetFrequency,
		types.CmdSetPower,
		types.CmdSetAddress,
		types.CmdStartup,
	} {
		if err := r.issue(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets and identifies the transceiver. The interface is down afterwards.
func (r *Interface) Reset(ctx context.Context) error {
	return r.issue(ctx, types.CmdReset)
}

// Startup applies the link configuration and brings the interface up.
func (r *Interface) Startup(ctx context.Context) error {
	return r.issue(ctx, types.CmdStartup)
}

func (r *Interface) SetFrequency(ctx context.Context, freq uint16) error {
	if _, _, err := FrequencyRegisters(freq); err != nil {
		return err
	}
	r.updateConfig(func(c *types.RadioConfig) { c.Frequency = freq })
	return r.issue(ctx, types.CmdSetFrequency)
}

func (r *Interface) SetPower(ctx context.Context, power byte) error {
	r.updateConfig(func(c *types.RadioConfig) { c.Power = power })
	return r.issue(ctx, types.CmdSetPower)
}

func (r *Interface) SetModulation(ctx context.Context, mod types.Modulation) error {
	if byte(mod)&^types.ModulationMask != 0 {
		return errors.Wrapf(types.ErrInvalidArgument, "modulation 0x%02x", byte(mod))
	}
	r.updateConfig(func(c *types.RadioConfig) { c.Modulation = mod })
	return r.issue(ctx, types.CmdSetModulation)
}

func (r *Interface) SetAddress(ctx context.Context, pan types.PanId, short types.ShortAddr) error {
	r.updateConfig(func(c *types.RadioConfig) {
		c.PanId = pan
		c.ShortAddress = short
	})
	return r.issue(ctx, types.CmdSetAddress)
}

// RandomByte returns a byte from the transceiver's random number generator.
func (r *Interface) RandomByte(ctx context.Context) (byte, error) {
	v, err := r.Issue(ctx, types.CmdGetRandom)
	return v, errors.Wrapf(err, "%s", types.CmdGetRandom)
}

// MeasureEnergy returns the energy detect level of the current channel.
func (r *Interface) MeasureEnergy(ctx context.Context) (byte, error) {
	v, err := r.Issue(ctx, types.CmdMeasureEnergy)
	return v, errors.Wrapf(err, "%s", types.CmdMeasureEnergy)
}

// Sleep puts the transceiver to sleep and takes the interface down.
func (r *Interface) Sleep(ctx context.Context) error {
	return r.issue(ctx, types.CmdSleep)
}

// Wake wakes the transceiver, returns it to listening and brings the interface up.
func (r *Interface) Wake(ctx context.Context) error {
	return r.issue(ctx, types.CmdWake)
}
