// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package logging adapts a zerolog.Logger to the log.Logger interface of the mailer
// library, so the SMTP transcript and the lifecycle events end up in the application log.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/wneessen/go-mailer/log"
)

// Logger wraps zerolog.Logger and satisfies log.Logger
type Logger struct {
	zerolog.Logger
}

// New returns a Logger writing to w. An unknown level falls back to info; the format
// "console" selects human readable output, anything else JSON.
func New(w io.Writer, level, format string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	output := w
	if format == "console" || format == "text" {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Logger()
	return &Logger{Logger: logger}
}

// WithComponent returns a new Logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With().Str("component", component).Logger()}
}

// Debugf logs a log.Log at debug level
func (l *Logger) Debugf(entry log.Log) {
	l.write(l.Debug(), entry)
}

// Infof logs a log.Log at info level
func (l *Logger) Infof(entry log.Log) {
	l.write(l.Info(), entry)
}

// Warnf logs a log.Log at warn level
func (l *Logger) Warnf(entry log.Log) {
	l.write(l.Warn(), entry)
}

// Errorf logs a log.Log at error level
func (l *Logger) Errorf(entry log.Log) {
	l.write(l.Error(), entry)
}

func (l *Logger) write(event *zerolog.Event, entry log.Log) {
	if event == nil {
		return
	}
	if entry.HasDirection() {
		event = event.Dict(log.DirString, zerolog.Dict().
			Str(log.DirFromString, entry.DirectionFrom()).
			Str(log.DirToString, entry.DirectionTo()))
	}
	event.Msg(fmt.Sprintf(entry.Format, entry.Messages...))
}
