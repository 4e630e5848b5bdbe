// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

package log

import (
	"fmt"
	"io"
	"log"
)

// CallDepth is the call depth value for the log.Logger's Output method. It skips
// the level method and the output helper.
const CallDepth = 3

// levelPrefixes are the right-aligned prefixes written in front of each message
var levelPrefixes = map[Level]string{
	LevelError: "ERROR: ",
	LevelWarn:  " WARN: ",
	LevelInfo:  " INFO: ",
	LevelDebug: "DEBUG: ",
}

// Stdlog is the default logger that satisfies the Logger interface. It writes the
// SMTP transcript with "C --> S:" and "C <-- S:" arrows and lifecycle events as
// plain messages.
type Stdlog struct {
	level   Level
	loggers map[Level]*log.Logger
}

// New returns a new Stdlog type that satisfies the Logger interface
func New(output io.Writer, level Level) *Stdlog {
	lf := log.Lmsgprefix | log.LstdFlags
	loggers := make(map[Level]*log.Logger, len(levelPrefixes))
	for lvl, prefix := range levelPrefixes {
		loggers[lvl] = log.New(output, prefix, lf)
	}
	return &Stdlog{level: level, loggers: loggers}
}

// Debugf logs the Log at debug level
func (l *Stdlog) Debugf(log Log) {
	l.output(LevelDebug, log)
}

// Infof logs the Log at info level
func (l *Stdlog) Infof(log Log) {
	l.output(LevelInfo, log)
}

// Warnf logs the Log at warn level
func (l *Stdlog) Warnf(log Log) {
	l.output(LevelWarn, log)
}

// Errorf logs the Log at error level
func (l *Stdlog) Errorf(log Log) {
	l.output(LevelError, log)
}

// output writes entry if lvl is enabled. Only protocol messages get a direction arrow.
func (l *Stdlog) output(lvl Level, entry Log) {
	if l.level < lvl {
		return
	}
	msg := fmt.Sprintf(entry.Format, entry.Messages...)
	if entry.HasDirection() {
		msg = entry.directionPrefix() + " " + msg
	}
	_ = l.loggers[lvl].Output(CallDepth, msg)
}
