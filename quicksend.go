// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
)

// AuthData holds the optional credentials of a QuickSend call
type AuthData struct {
	Auth     bool
	Username string
	Password string
}

var testHookTLSConfig func() *tls.Config // nil, except for tests

// QuickSend is an all-in-one method for sending a single Message.
//
// It connects to the server at addr, which must include a port as in "mail.example.com:587",
// upgrades the session with STARTTLS and, if auth is not nil and AuthData.Auth is true,
// logs in with the strongest mechanism the server advertises. The Message is built
// from from, rcpts, subject, body and the optional attachments.
//
// The returned Record holds the per-recipient rejections. Nothing is recorded in a History.
func QuickSend(addr string, auth *AuthData, from string, rcpts []string, subject, body string,
	attachments ...*Attachment,
) (*Record, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to split host and port from address: %w", err)
	}
	portnum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("failed to convert port to int: %w", err)
	}

	opts := []Option{WithSMTPAuth(SMTPAuthAutoDiscover)}
	if auth != nil && auth.Auth {
		opts = append(opts, WithCredentials(auth.Username, auth.Password))
	}
	if testHookTLSConfig != nil {
		opts = append(opts, WithTLSConfig(testHookTLSConfig()))
	}
	server, err := NewMailServer(host, portnum, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new mail server: %w", err)
	}

	message := NewMessage(from, rcpts, WithSubject(subject), WithBody(body), WithAttachments(attachments...))
	records, err := server.Send(message)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return records[0], nil
}

// NewAuthData creates a new AuthData instance with the provided username and password.
func NewAuthData(user, pass string) *AuthData {
	return &AuthData{
		Auth:     true,
		Username: user,
		Password: pass,
	}
}
