// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"errors"
	"io"
)

// newlineBytes is written after every full line of base64 output
var newlineBytes = []byte(SingleNewLine)

// ErrNoOutWriter is returned when no io.Writer is set for Base64LineBreaker.
var ErrNoOutWriter = errors.New("no io.Writer set for Base64LineBreaker")

// Base64LineBreaker breaks the output of a base64 encoder into lines of
// MaxBodyLength characters. It satisfies the io.WriteCloser interface.
type Base64LineBreaker struct {
	line [MaxBodyLength]byte
	used int
	out  io.Writer
}

// Write buffers data and flushes every completed line to the underlying writer.
func (l *Base64LineBreaker) Write(data []byte) (int, error) {
	if l.out == nil {
		return 0, ErrNoOutWriter
	}
	written := 0
	for len(data) > 0 {
		n := copy(l.line[l.used:], data)
		l.used += n
		written += n
		data = data[n:]
		if l.used < MaxBodyLength {
			continue
		}
		if err := l.flush(); err != nil {
			return written, err
		}
	}
	return written, nil
}

// Close writes the last, possibly incomplete, line.
func (l *Base64LineBreaker) Close() error {
	if l.used == 0 {
		return nil
	}
	if l.out == nil {
		return ErrNoOutWriter
	}
	return l.flush()
}

func (l *Base64LineBreaker) flush() error {
	if _, err := l.out.Write(l.line[:l.used]); err != nil {
		return err
	}
	l.used = 0
	_, err := l.out.Write(newlineBytes)
	return err
}
