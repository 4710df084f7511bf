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

// Package logger is the leveled, zap-backed logger of the radio daemon.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the log level. Higher values are more verbose.
type Level int8

const (
	MicroLevel   Level = 7
	TraceLevel   Level = 6
	DebugLevel   Level = 5
	InfoLevel    Level = 4
	NoteLevel    Level = 3
	WarnLevel    Level = 2
	ErrorLevel   Level = 1
	PanicLevel   Level = 0
	FatalLevel   Level = -1
	OffLevel     Level = -2
	MinLevel           = OffLevel
	DefaultLevel       = InfoLevel
)

// ConsoleCallback is notified after log output was written, so an interactive prompt can redraw.
type ConsoleCallback interface {
	OnLogWritten()
}

var (
	cfg          zap.Config
	zaplogger    *zap.Logger
	currentLevel atomic.Int32
	isTerminal   bool
	cbConsole    atomic.Value
	zapLevels    = []zapcore.Level{zapcore.FatalLevel + 1, zapcore.FatalLevel, zapcore.PanicLevel,
		zapcore.ErrorLevel, zapcore.WarnLevel, zapcore.InfoLevel, zapcore.InfoLevel, zapcore.DebugLevel,
		zapcore.DebugLevel, zapcore.DebugLevel}
)

func init() {
	if o, err := os.Stdout.Stat(); err == nil && (o.Mode()&os.ModeCharDevice) == os.ModeCharDevice {
		isTerminal = true
	}

	cfgJson := []byte(`{
	"level": "debug",
	"outputPaths": ["stderr"],
	"errorOutputPaths": ["stderr"],
	"encoding": "console",
	"encoderConfig": {
		"messageKey": "message",
		"levelKey": "level",
		"timeKey": "time",
		"levelEncoder": "lowercase"
	}
}`)
	if err := json.Unmarshal(cfgJson, &cfg); err != nil {
		panic(err)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	SetLevel(DefaultLevel)
	rebuild()
}

func SetLevel(lv Level) {
	currentLevel.Store(int32(lv))
}

func GetLevel() Level {
	return Level(currentLevel.Load())
}

// SetConsoleCallback registers the callback invoked after each log line when stdout is a terminal.
func SetConsoleCallback(cb ConsoleCallback) {
	cbConsole.Store(&cb)
}

// SetOutput sets the zap output paths, e.g. []string{"stderr", "radifd.log"}.
func SetOutput(outputs []string) error {
	cfg.OutputPaths = outputs
	return rebuild()
}

func rebuild() error {
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	if zaplogger != nil {
		_ = zaplogger.Sync()
	}
	zaplogger = l
	return nil
}

// Sync flushes buffered output.
func Sync() {
	_ = zaplogger.Sync()
}

func getMessage(template string, fmtArgs []interface{}) string {
	if len(fmtArgs) == 0 {
		return template
	}
	if template != "" {
		return fmt.Sprintf(template, fmtArgs...)
	}
	if len(fmtArgs) == 1 {
		if str, ok := fmtArgs[0].(string); ok {
			return str
		}
	}
	return fmt.Sprint(fmtArgs...)
}

func enabled(level Level) bool {
	return level <= GetLevel() && level > OffLevel
}

// Logf writes a formatted message at the given level.
func Logf(level Level, format string, args []interface{}) {
	if !enabled(level) && level > PanicLevel {
		return
	}
	write(level, getMessage(format, args))
}

func write(level Level, msg string) {
	if isTerminal {
		_, _ = fmt.Fprint(os.Stdout, "\033[2K\r")
	}
	if ce := zaplogger.Check(zapLevels[level-MinLevel], msg); ce != nil {
		ce.Write()
	}
	if cb, ok := cbConsole.Load().(*ConsoleCallback); ok && isTerminal && *cb != nil {
		(*cb).OnLogWritten()
	}
}

// Println prints a line for the console user without log decoration.
func Println(msg string) {
	if isTerminal {
		_, _ = fmt.Fprint(os.Stdout, "\033[2K\r")
	}
	_, _ = fmt.Fprintln(os.Stdout, msg)
}

func Tracef(format string, args ...interface{}) {
	Logf(TraceLevel, format, args)
}

func Debugf(format string, args ...interface{}) {
	Logf(DebugLevel, format, args)
}

func Infof(format string, args ...interface{}) {
	Logf(InfoLevel, format, args)
}

func Notef(format string, args ...interface{}) {
	Logf(NoteLevel, format, args)
}

func Warnf(format string, args ...interface{}) {
	Logf(WarnLevel, format, args)
}

func Errorf(format string, args ...interface{}) {
	Logf(ErrorLevel, format, args)
}

// Panicf logs and panics regardless of the current level.
func Panicf(format string, args ...interface{}) {
	Logf(PanicLevel, format, args)
}

// Fatalf logs and exits the process regardless of the current level.
func Fatalf(format string, args ...interface{}) {
	Logf(FatalLevel, format, args)
}

func Error(err error) {
	if err != nil {
		Logf(ErrorLevel, "%v", []interface{}{err})
	}
}

func PanicIfError(err error, args ...interface{}) {
	if err == nil {
		return
	}
	if len(args) == 0 {
		args = []interface{}{err}
	}
	Logf(PanicLevel, "", args)
}

func FatalIfError(err error, args ...interface{}) {
	if err == nil {
		return
	}
	if len(args) == 0 {
		args = []interface{}{err}
	}
	Logf(FatalLevel, "", args)
}

type assertLogger struct{}

func (assertLogger) Errorf(format string, args ...interface{}) {
	Panicf(format, args...)
}

func AssertEqual(expected, actual interface{}, msgAndArgs ...interface{}) bool {
	return assert.Equal(assertLogger{}, expected, actual, msgAndArgs...)
}

func AssertNil(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.Nil(assertLogger{}, object, msgAndArgs...)
}

func AssertNotNil(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.NotNil(assertLogger{}, object, msgAndArgs...)
}

func AssertTrue(value bool, msgAndArgs ...interface{}) bool {
	return assert.True(assertLogger{}, value, msgAndArgs...)
}

func AssertFalse(value bool, msgAndArgs ...interface{}) bool {
	return assert.False(assertLogger{}, value, msgAndArgs...)
}
