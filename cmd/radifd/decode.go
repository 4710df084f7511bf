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

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/openthread/ot-radif/types"
	"github.com/openthread/ot-radif/wpan"
)

var decodeWithFcs bool

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode the MAC header of a raw PSDU",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decode(cmd.OutOrStdout(), args[0], decodeWithFcs)
	},
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeWithFcs, "fcs", true, "the PSDU ends with a 2-byte FCS")
	rootCmd.AddCommand(decodeCmd)
}

func decode(w io.Writer, s string, withFcs bool) error {
	s = strings.NewReplacer(" ", "", ":", "").Replace(s)
	psdu, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrap(err, "invalid hex")
	}
	if len(psdu) > types.MaxPsduLen {
		return errors.Wrapf(types.ErrMalformedFrame, "%d bytes exceed the PSDU size", len(psdu))
	}
	h, n, err := wpan.DecodeHeader(psdu)
	if err != nil {
		return err
	}
	fcs := 0
	if withFcs {
		fcs = types.FcsLen
	}
	payloadLen := len(psdu) - n - fcs
	if payloadLen < 0 {
		return errors.Wrapf(types.ErrMalformedFrame, "no room for FCS after %d header bytes", n)
	}
	_, err = fmt.Fprintf(w, "%s\nheader: %d bytes\npayload: %d bytes\n", h.String(), n, payloadLen)
	if err == nil && payloadLen > 0 {
		_, err = fmt.Fprintf(w, "data: %s\n", hex.EncodeToString(psdu[n:n+payloadLen]))
	}
	return err
}
