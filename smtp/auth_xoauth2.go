// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

package smtp

import "strings"

type xoauth2Auth struct {
	username, token, host string
}

// XOAuth2Auth returns an [Auth] that implements the XOAUTH2 bearer token mechanism
// used by Gmail and Microsoft 365. The password of the MailServer is sent as token.
//
// The token is a bearer credential: like PlainAuth, XOAuth2Auth only sends it over
// TLS or to localhost, and only to host.
func XOAuth2Auth(username, token, host string) Auth {
	return &xoauth2Auth{username: username, token: token, host: host}
}

func (a *xoauth2Auth) Start(server *ServerInfo) (string, []byte, error) {
	if err := requireTLS(server, a.host, false); err != nil {
		return "", nil, err
	}
	if strings.ContainsRune(a.username+a.token, '\x01') {
		return "", nil, ErrInvalidCredentials
	}
	return "XOAUTH2", []byte("user=" + a.username + "\x01auth=Bearer " + a.token + "\x01\x01"), nil
}

// Next answers an error challenge with an empty response, after which the server
// sends the final rejection.
func (a *xoauth2Auth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return []byte{}, nil
	}
	return nil, nil
}
