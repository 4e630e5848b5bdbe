// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

package smtp

import "fmt"

const (
	// LoginXUsernameChallenge is the username challenge of the MS-XLOGIN AUTH LOGIN extension.
	LoginXUsernameChallenge = "Username:"

	// LoginXPasswordChallenge is the password challenge of the MS-XLOGIN AUTH LOGIN extension.
	LoginXPasswordChallenge = "Password:"

	// LoginXDraftUsernameChallenge is the username challenge of the expired
	// draft-murchison-sasl-login-00.
	LoginXDraftUsernameChallenge = "User Name\x00"

	// LoginXDraftPasswordChallenge is the password challenge of the expired
	// draft-murchison-sasl-login-00.
	LoginXDraftPasswordChallenge = "Password\x00"
)

// loginAuth is the type that satisfies the Auth interface for the "SMTP LOGIN" auth
type loginAuth struct {
	username, password string
	host               string
}

// LoginAuth returns an [Auth] that implements the LOGIN authentication
// mechanism. The server asks for the username and the password in two
// separate challenges.
//
// LoginAuth will only send the credentials if the connection is using TLS
// or is connected to localhost.
func LoginAuth(username, password, host string) Auth {
	return &loginAuth{username, password, host}
}

func (a *loginAuth) Start(server *ServerInfo) (string, []byte, error) {
	if err := requireTLS(server, a.host, false); err != nil {
		return "", nil, err
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case LoginXUsernameChallenge, LoginXDraftUsernameChallenge:
		return []byte(a.username), nil
	case LoginXPasswordChallenge, LoginXDraftPasswordChallenge:
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedServerResponse, fromServer)
	}
}
