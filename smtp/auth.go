// SPDX-FileCopyrightText: Copyright 2010 The Go Authors. All rights reserved.
// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// Original net/smtp code from the Go stdlib by the Go Authors.
// Use of this source code is governed by a BSD-style
// LICENSE file that can be found in this directory.
//
// go-mailer specific modifications by the go-mail Authors.
// Licensed under the MIT License.
// See [PROJECT ROOT]/LICENSES directory for more information.
//
// SPDX-License-Identifier: BSD-3-Clause AND MIT

package smtp

import "errors"

var (
	// ErrUnencrypted is returned when credentials would be sent over an unencrypted connection.
	ErrUnencrypted = errors.New("unencrypted connection")

	// ErrWrongHostname is returned when the server name does not match the host of the Auth.
	ErrWrongHostname = errors.New("wrong host name")

	// ErrUnexpectedServerChallenge is returned when the server sends a challenge the mechanism
	// does not expect.
	ErrUnexpectedServerChallenge = errors.New("unexpected server challenge")

	// ErrInvalidCredentials is returned when a credential contains the field separator of
	// the mechanism and can not be encoded.
	ErrInvalidCredentials = errors.New("credentials contain a reserved separator")

	// ErrUnexpectedServerResponse is returned when the server response can not be parsed by
	// the mechanism.
	ErrUnexpectedServerResponse = errors.New("unexpected server response")
)

// Auth is implemented by an SMTP authentication mechanism.
type Auth interface {
	// Start begins an authentication with a server.
	// It returns the name of the authentication protocol
	// and optionally data to include in the initial AUTH message
	// sent to the server.
	// If it returns a non-nil error, the SMTP client aborts
	// the authentication attempt.
	Start(server *ServerInfo) (proto string, toServer []byte, err error)

	// Next continues the authentication. The server has just sent
	// the fromServer data. If more is true, the server expects a
	// response, which Next should return as toServer; otherwise
	// Next should return toServer == nil.
	// If Next returns a non-nil error, the SMTP client aborts
	// the authentication attempt.
	Next(fromServer []byte, more bool) (toServer []byte, err error)
}

// ServerInfo records information about an SMTP server.
type ServerInfo struct {
	Name string   // SMTP server name
	TLS  bool     // using TLS, with valid certificate for Name
	Auth []string // advertised authentication mechanisms
}

// HasMechanism reports whether the server advertised the given AUTH mechanism.
func (s *ServerInfo) HasMechanism(mech string) bool {
	for _, m := range s.Auth {
		if m == mech {
			return true
		}
	}
	return false
}

// requireTLS refuses to hand out credentials over an unencrypted channel to a remote
// host, or to a host other than the one the Auth was created for.
func requireTLS(server *ServerInfo, host string, allowUnencrypted bool) error {
	if !allowUnencrypted && !server.TLS && !isLocalhost(server.Name) {
		return ErrUnencrypted
	}
	if host != "" && server.Name != host {
		return ErrWrongHostname
	}
	return nil
}

func isLocalhost(name string) bool {
	return name == "localhost" || name == "127.0.0.1" || name == "::1"
}
