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
	"errors"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/openthread/ot-radif/logger"
	"github.com/openthread/ot-radif/progctx"
)

type CliHandler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

type CliOptions struct {
	EchoInput   bool
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
}

func DefaultCliOptions() *CliOptions {
	return &CliOptions{
		HistoryFile: "/tmp/radifd-cmds.tmp",
	}
}

// CliInstance is one console session. It redraws its prompt after log output.
type CliInstance struct {
	Started          chan struct{}
	readlineInstance *readline.Instance
}

func NewCliInstance() *CliInstance {
	return &CliInstance{
		Started: make(chan struct{}),
	}
}

// OnLogWritten implements logger.ConsoleCallback.
func (cli *CliInstance) OnLogWritten() {
	if cli.readlineInstance != nil {
		cli.readlineInstance.Refresh()
	}
}

// Run runs the console until exit, EOF, Ctrl-C or cancellation of ctx, then cancels ctx.
func Run(ctx *progctx.ProgCtx, handler CliHandler, options *CliOptions) {
	cli := NewCliInstance()
	var err error
	defer func() {
		if err != nil {
			ctx.Cancel(err)
		} else {
			ctx.Cancel("console exit")
		}
	}()

	ctx.WaitAdd("cli", 1)
	defer ctx.WaitDone("cli")

	err = cli.Run(ctx, handler, options)
}

func restoreTerminal(f interface{}) func() {
	file, ok := f.(*os.File)
	if !ok || !readline.IsTerminal(int(file.Fd())) {
		return func() {}
	}
	state, err := readline.GetState(int(file.Fd()))
	if err != nil {
		return func() {}
	}
	return func() {
		_ = readline.Restore(int(file.Fd()), state)
	}
}

func (cli *CliInstance) Run(ctx *progctx.ProgCtx, handler CliHandler, options *CliOptions) error {
	defer logger.Debugf("console exit")

	if options == nil {
		options = DefaultCliOptions()
	}
	stdin := options.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	defer restoreTerminal(stdin)()
	defer restoreTerminal(stdout)()

	l, err := readline.NewEx(&readline.Config{
		Prompt:          handler.GetPrompt(),
		HistoryFile:     options.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           stdin,
		Stdout:          stdout,

		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			switch r {
			// block CtrlZ feature
			case readline.CharCtrlZ:
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		close(cli.Started)
		return err
	}
	defer func() {
		_ = l.Close()
	}()
	cli.readlineInstance = l
	logger.SetConsoleCallback(cli)
	defer logger.SetConsoleCallback(nil)
	close(cli.Started)

	go func() {
		<-ctx.Done()
		// unblocks Readline
		_ = stdin.Close()
	}()

	for {
		l.SetPrompt(handler.GetPrompt())
		line, err := l.Readline()

		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue // Ctrl-C in midline edit only cancels the present cmd line.
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		if options.EchoInput {
			if _, err := io.WriteString(stdout, line+"\n"); err != nil {
				return err
			}
		}

		cmd := strings.TrimSpace(line)
		if len(cmd) == 0 {
			continue
		}
		if err = handler.HandleCommand(cmd, l.Stdout()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
