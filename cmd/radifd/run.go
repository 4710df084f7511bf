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
	"context"

	"github.com/spf13/cobra"

	"github.com/openthread/ot-radif/progctx"
	"github.com/openthread/ot-radif/radif_main"
)

var runArgs radif_main.MainArgs

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bring the radio up and serve frames",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := progctx.New(context.Background())
		return radif_main.Main(ctx, runArgs, nil)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runArgs.ConfigFile, "config", "c", "", "YAML configuration file")
	runCmd.Flags().StringVar(&runArgs.LogLevel, "log", "", "log level: micro, trace, debug, info, note, warn, error, off")
	runCmd.Flags().BoolVar(&runArgs.Sim, "sim", false, "use the simulated transceiver")
	runCmd.Flags().StringVar(&runArgs.PcapFile, "pcap", "", "write captured frames to this pcap file")
	runCmd.Flags().BoolVar(&runArgs.NoCli, "no-cli", false, "run without the interactive console")
	runCmd.Flags().StringVar(&runArgs.SPIDevice, "spi", "", "SPI device, overrides hardware.spi_device")
	rootCmd.AddCommand(runCmd)
}
