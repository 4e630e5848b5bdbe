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

import "strings"

// plainAuth is the type that satisfies the Auth interface for the "SMTP PLAIN" auth
type plainAuth struct {
	identity, username, password string
	host                         string
	allowUnencryptedAuth         bool
}

// PlainAuth returns an [Auth] that implements the PLAIN authentication
// mechanism as defined in RFC 4616. Usually identity should be the empty
// string, to act as username.
//
// PlainAuth will only send the credentials if the connection is using TLS,
// is connected to localhost or allowUnenc is set.
func PlainAuth(identity, username, password, host string, allowUnenc bool) Auth {
	return &plainAuth{identity, username, password, host, allowUnenc}
}

func (a *plainAuth) Start(server *ServerInfo) (string, []byte, error) {
	if err := requireTLS(server, a.host, a.allowUnencryptedAuth); err != nil {
		return "", nil, err
	}
	// NUL separates the fields of the initial response
	if strings.ContainsRune(a.identity+a.username+a.password, 0) {
		return "", nil, ErrInvalidCredentials
	}
	resp := []byte(a.identity + "\x00" + a.username + "\x00" + a.password)
	return "PLAIN", resp, nil
}

func (a *plainAuth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return nil, ErrUnexpectedServerChallenge
	}
	return nil, nil
}
