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

package cli

import (
	"strconv"

	"github.com/alecthomas/participle"
	"github.com/pkg/errors"
)

// noinspection GoStructTag
type Command struct {
	Address     *AddressCmd     `  @@` //nolint
	Config      *ConfigCmd      `| @@` //nolint
	Consumption *ConsumptionCmd `| @@` //nolint
	Ed          *EdCmd          `| @@` //nolint
	Exit        *ExitCmd        `| @@` //nolint
	Freq        *FreqCmd        `| @@` //nolint
	Help        *HelpCmd        `| @@` //nolint
	Inject      *InjectCmd      `| @@` //nolint
	LogLevel    *LogLevelCmd    `| @@` //nolint
	Modulation  *ModulationCmd  `| @@` //nolint
	Power       *PowerCmd       `| @@` //nolint
	Random      *RandomCmd      `| @@` //nolint
	Reset       *ResetCmd       `| @@` //nolint
	Samples     *SamplesCmd     `| @@` //nolint
	Send        *SendCmd        `| @@` //nolint
	Sleep       *SleepCmd       `| @@` //nolint
	Start       *StartCmd       `| @@` //nolint
	State       *StateCmd       `| @@` //nolint
	Stats       *StatsCmd       `| @@` //nolint
	Wake        *WakeCmd        `| @@` //nolint
}

// Number is an integer literal in decimal or 0x hex notation.
// noinspection GoStructTag
type Number struct {
	Text string `@Int` //nolint
}

func (n Number) Uint(bits int) (uint64, error) {
	v, err := strconv.ParseUint(n.Text, 0, bits)
	return v, errors.Wrapf(err, "invalid %d-bit number %s", bits, n.Text)
}

// noinspection GoStructTag
type AckFlag struct {
	Dummy struct{} `"ack"` //nolint
}

// noinspection GoStructTag
type SendCmd struct {
	Cmd  struct{} `"send"`  //nolint
	Dst  Number   `@@`      //nolint
	Text string   `@String` //nolint
	Ack  *AckFlag `[ @@ ]`  //nolint
}

// noinspection GoStructTag
type InjectCmd struct {
	Cmd    struct{} `"inject"`               //nolint
	Src    Number   `@@`                     //nolint
	Text   string   `@String`                //nolint
	Energy *Number  `[ ("ed"|"energy") @@ ]` //nolint
}

// noinspection GoStructTag
type StatsCmd struct {
	Cmd struct{} `"stats"` //nolint
}

// noinspection GoStructTag
type StateCmd struct {
	Cmd struct{} `"state"` //nolint
}

// noinspection GoStructTag
type ConfigCmd struct {
	Cmd struct{} `"config"` //nolint
}

// noinspection GoStructTag
type ResetCmd struct {
	Cmd struct{} `"reset"` //nolint
}

// noinspection GoStructTag
type StartCmd struct {
	Cmd struct{} `"start"` //nolint
}

// noinspection GoStructTag
type SleepCmd struct {
	Cmd struct{} `"sleep"` //nolint
}

// noinspection GoStructTag
type WakeCmd struct {
	Cmd struct{} `"wake"` //nolint
}

// noinspection GoStructTag
type EdCmd struct {
	Cmd struct{} `"ed"` //nolint
}

// noinspection GoStructTag
type RandomCmd struct {
	Cmd struct{} `"random"` //nolint
}

// noinspection GoStructTag
type FreqCmd struct {
	Cmd struct{} `"freq"` //nolint
	Val *Number  `[ @@ ]` //nolint
}

// noinspection GoStructTag
type PowerCmd struct {
	Cmd struct{} `"power"` //nolint
	Val *Number  `[ @@ ]`  //nolint
}

// noinspection GoStructTag
type ModulationCmd struct {
	Cmd struct{} `"modulation"` //nolint
	Val *Number  `[ @@ ]`       //nolint
}

// noinspection GoStructTag
type AddressCmd struct {
	Cmd   struct{} `"address"` //nolint
	Pan   *Number  `[ @@`      //nolint
	Short *Number  `  @@ ]`    //nolint
}

// noinspection GoStructTag
type ConsumptionCmd struct {
	Cmd   struct{} `"consumption"` //nolint
	Reset string   `[ @"reset" ]`  //nolint
}

// noinspection GoStructTag
type SamplesCmd struct {
	Cmd   struct{} `"samples"`    //nolint
	Clear string   `[ @"clear" ]` //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                     //nolint
	Level string   `[@( "micro"|"trace"|"debug"|"info"|"note"|"warn"|"error"|"off"|"T"|"D"|"I"|"N"|"W"|"E" )]` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	return commandParser.ParseBytes(b, cmd)
}
