// SPDX-FileCopyrightText: Copyright (c) 2022-2023 The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package log implements the logger interface used by the go-mailer packages
// for SMTP transcripts and delivery lifecycle events
package log

const (
	DirServerToClient Direction = iota // Server to Client communication
	DirClientToServer                  // Client to Server communication
	DirNone                            // Lifecycle event, not tied to a protocol direction
)

// Level is the log level type. Higher values are more verbose.
type Level int

const (
	// LevelError is the Level for only ERROR log messages
	LevelError Level = iota
	// LevelWarn is the Level for WARN and higher log messages
	LevelWarn
	// LevelInfo is the Level for INFO and higher log messages
	LevelInfo
	// LevelDebug is the Level for DEBUG and higher log messages
	LevelDebug
)

const (
	// DirString is the group name for the direction attributes of a structured log
	DirString = "direction"
	// DirFromString is the key for the sending side of a log message
	DirFromString = "from"
	// DirToString is the key for the receiving side of a log message
	DirToString = "to"
)

// Direction is a type wrapper for the direction a debug log message goes
type Direction int

// Log represents a log message type that holds a log Direction, a Format string
// and a slice of Messages
type Log struct {
	Direction Direction
	Format    string
	Messages  []interface{}
}

// Logger is the log interface for go-mailer
type Logger interface {
	Debugf(Log)
	Infof(Log)
	Warnf(Log)
	Errorf(Log)
}

// HasDirection reports whether the Log belongs to one side of the SMTP conversation.
func (l Log) HasDirection() bool {
	return l.Direction == DirServerToClient || l.Direction == DirClientToServer
}

// DirectionFrom returns the sending side of the Log ("client" or "server").
func (l Log) DirectionFrom() string {
	switch l.Direction {
	case DirServerToClient:
		return "server"
	case DirClientToServer:
		return "client"
	default:
		return ""
	}
}

// DirectionTo returns the receiving side of the Log ("client" or "server").
func (l Log) DirectionTo() string {
	switch l.Direction {
	case DirServerToClient:
		return "client"
	case DirClientToServer:
		return "server"
	default:
		return ""
	}
}

// directionPrefix returns the transcript arrow for the Log
func (l Log) directionPrefix() string {
	switch l.Direction {
	case DirServerToClient:
		return "C <-- S:"
	case DirClientToServer:
		return "C --> S:"
	default:
		return ""
	}
}
