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

// Package smtp implements the client side of the Simple Mail Transfer Protocol as defined
// in RFC 5321, as used by the go-mailer MailServer for message submission.
// It also implements the following extensions:
//
//	8BITMIME  RFC 1652
//	AUTH      RFC 4954
//	STARTTLS  RFC 3207
//	SMTPUTF8  RFC 6531
package smtp

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/go-mailer/log"
)

var (
	// ErrNonTLSConnection is returned when an attempt is made to retrieve TLS state on a non-TLS connection.
	ErrNonTLSConnection = errors.New("connection is not using TLS")

	// ErrNoConnection is returned when attempting to perform an operation that requires an established
	// connection but none exists.
	ErrNoConnection = errors.New("connection is not established")

	// ErrHelloAfterCommand is returned when Hello is called after another command was issued.
	ErrHelloAfterCommand = errors.New("smtp: Hello called after other methods")

	// ErrLineBreak is returned when a command argument contains CR or LF.
	ErrLineBreak = errors.New("smtp: a line must not contain CR or LF")
)

// redacted replaces the SMTP AUTH payload in the protocol transcript
const redacted = "<SMTP auth data redacted>"

// A Client represents a client connection to an SMTP server.
type Client struct {
	// Text is the textproto.Conn used by the Client.
	Text *textproto.Conn

	// auth holds the AUTH mechanisms advertised in the EHLO response
	auth []string

	// authIsActive indicates that the Client is in the middle of an AUTH exchange
	authIsActive bool

	// conn is kept so the connection can be upgraded by StartTLS
	conn net.Conn

	// debug enables the protocol transcript
	debug bool

	// didHello indicates whether we've said HELO/EHLO
	didHello bool

	// ext maps the EHLO keywords to their parameters
	ext map[string]string

	// helloError is the error from the hello
	helloError error

	// isConnected indicates if the Client has an active connection
	isConnected bool

	// localName is the name to use in HELO/EHLO
	localName string

	// logAuthData disables the redaction of AUTH data in the transcript
	logAuthData bool

	// logger receives the protocol transcript
	logger log.Logger

	mutex sync.RWMutex

	// serverName is the host name used for TLS verification and SASL
	serverName string

	// tls indicates whether the Client is using TLS
	tls bool
}

// NewClient returns a new [Client] using an existing connection and host as a
// server name to be used when authenticating. It reads the 220 greeting.
func NewClient(conn net.Conn, host string) (*Client, error) {
	text := textproto.NewConn(conn)
	if _, _, err := text.ReadResponse(220); err != nil {
		if cerr := text.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}
	c := &Client{Text: text, conn: conn, serverName: host, localName: "localhost"}
	_, c.tls = conn.(*tls.Conn)
	c.isConnected = true
	return c, nil
}

// Close closes the connection without sending QUIT.
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.isConnected {
		return ErrNoConnection
	}
	c.isConnected = false
	return c.Text.Close()
}

// hello runs a hello exchange if needed.
func (c *Client) hello() error {
	if !c.didHello {
		c.didHello = true
		if err := c.ehlo(); err != nil {
			c.helloError = c.helo()
		}
	}
	return c.helloError
}

// Hello sends a HELO or EHLO to the server as the given host name.
// If Hello is called, it must be called before any of the other methods.
// The client introduces itself as "localhost" otherwise.
func (c *Client) Hello(localName string) error {
	if err := validateLine(localName); err != nil {
		return err
	}
	if c.didHello {
		return ErrHelloAfterCommand
	}

	c.mutex.Lock()
	c.localName = localName
	c.mutex.Unlock()

	return c.hello()
}

// cmd sends a command and returns the response of the server
func (c *Client) cmd(expectCode int, format string, args ...interface{}) (int, string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	logFmt, logMsg := format, args
	if c.authIsActive {
		logFmt, logMsg = "%s", []interface{}{redacted}
	}
	c.debugLog(log.DirClientToServer, logFmt, logMsg...)

	id, err := c.Text.Cmd(format, args...)
	if err != nil {
		return 0, "", err
	}
	c.Text.StartResponse(id)
	defer c.Text.EndResponse(id)
	code, msg, err := c.Text.ReadResponse(expectCode)

	logMsg = []interface{}{code, msg}
	if c.authIsActive && code == 334 {
		logMsg = []interface{}{code, redacted}
	}
	c.debugLog(log.DirServerToClient, "%d %s", logMsg...)
	return code, msg, err
}

// ehlo sends the EHLO greeting and parses the advertised extensions
func (c *Client) ehlo() error {
	_, msg, err := c.cmd(250, "EHLO %s", c.localName)
	if err != nil {
		return err
	}
	ext := make(map[string]string)
	lines := strings.Split(msg, "\n")
	for _, line := range lines[1:] {
		keyword, param, _ := strings.Cut(line, " ")
		ext[strings.ToUpper(keyword)] = param
	}

	c.mutex.Lock()
	if mechs, ok := ext["AUTH"]; ok {
		c.auth = strings.Fields(mechs)
	}
	c.ext = ext
	c.mutex.Unlock()
	return nil
}

// helo sends the HELO greeting for servers that do not support EHLO
func (c *Client) helo() error {
	c.mutex.Lock()
	c.ext = nil
	c.mutex.Unlock()

	_, _, err := c.cmd(250, "HELO %s", c.localName)
	return err
}

// StartTLS sends the STARTTLS command, performs the TLS handshake and greets the
// server again over the encrypted channel.
func (c *Client) StartTLS(config *tls.Config) error {
	if err := c.hello(); err != nil {
		return err
	}
	if _, _, err := c.cmd(220, "STARTTLS"); err != nil {
		return err
	}

	c.mutex.Lock()
	tlsConn := tls.Client(c.conn, config)
	c.mutex.Unlock()
	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("smtp: TLS handshake failed: %w", err)
	}

	c.mutex.Lock()
	c.conn = tlsConn
	c.Text = textproto.NewConn(tlsConn)
	c.tls = true
	c.auth = nil
	c.mutex.Unlock()

	return c.ehlo()
}

// TLSConnectionState returns the client's TLS connection state.
func (c *Client) TLSConnectionState() (*tls.ConnectionState, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if !c.isConnected {
		return nil, ErrNoConnection
	}
	tc, ok := c.conn.(*tls.Conn)
	if !c.tls || !ok {
		return nil, ErrNonTLSConnection
	}
	state := tc.ConnectionState()
	return &state, nil
}

// IsTLS reports whether the connection is encrypted.
func (c *Client) IsTLS() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.tls
}

// Auth authenticates a client using the provided authentication mechanism.
//
// A rejection by the server is returned as *textproto.Error and leaves the
// connection open, so another attempt can be made on the same session.
func (c *Client) Auth(a Auth) error {
	if err := c.hello(); err != nil {
		return err
	}

	c.mutex.Lock()
	c.authIsActive = !c.logAuthData
	info := &ServerInfo{Name: c.serverName, TLS: c.tls, Auth: c.auth}
	c.mutex.Unlock()
	defer func() {
		c.mutex.Lock()
		c.authIsActive = false
		c.mutex.Unlock()
	}()

	encoding := base64.StdEncoding
	mech, resp, err := a.Start(info)
	if err != nil {
		return err
	}
	code, msg64, err := c.cmd(0, "%s", strings.TrimSpace(fmt.Sprintf("AUTH %s %s", mech,
		encoding.EncodeToString(resp))))
	for err == nil {
		var msg []byte
		switch code {
		case 334:
			msg, err = encoding.DecodeString(msg64)
		case 235:
			// the final response is not a challenge and is not encoded
			msg = []byte(msg64)
		default:
			return &textproto.Error{Code: code, Msg: msg64}
		}
		if err == nil {
			resp, err = a.Next(msg, code == 334)
		}
		if err != nil {
			if code == 334 && mech != "XOAUTH2" {
				_, _, _ = c.cmd(501, "*")
			}
			return err
		}
		if resp == nil {
			break
		}
		code, msg64, err = c.cmd(0, "%s", encoding.EncodeToString(resp))
	}
	return err
}

// Auths returns the AUTH mechanisms advertised by the server.
func (c *Client) Auths() []string {
	if err := c.hello(); err != nil {
		return nil
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	mechs := make([]string, len(c.auth))
	copy(mechs, c.auth)
	return mechs
}

// Mail issues a MAIL command to the server using the provided email address.
// If the server supports the 8BITMIME extension, Mail adds the BODY=8BITMIME
// parameter. If the server supports the SMTPUTF8 extension, Mail adds the
// SMTPUTF8 parameter.
func (c *Client) Mail(from string) error {
	if err := validateLine(from); err != nil {
		return err
	}
	if err := c.hello(); err != nil {
		return err
	}
	cmdStr := "MAIL FROM:<%s>"

	c.mutex.RLock()
	if _, ok := c.ext["8BITMIME"]; ok {
		cmdStr += " BODY=8BITMIME"
	}
	if _, ok := c.ext["SMTPUTF8"]; ok {
		cmdStr += " SMTPUTF8"
	}
	c.mutex.RUnlock()

	_, _, err := c.cmd(250, cmdStr, from)
	return err
}

// Rcpt issues a RCPT command to the server using the provided email address.
// A call to Rcpt must be preceded by a call to [Client.Mail].
func (c *Client) Rcpt(to string) error {
	if err := validateLine(to); err != nil {
		return err
	}
	_, _, err := c.cmd(25, "RCPT TO:<%s>", to)
	return err
}

// DataCloser is the io.WriteCloser returned by [Client.Data]. Closing it terminates
// the DATA section and reads the final response of the server.
type DataCloser struct {
	c    *Client
	done bool
	io.WriteCloser
	response string
}

// Close closes the dot-writer and waits for the response of the server.
func (d *DataCloser) Close() error {
	d.c.mutex.Lock()
	defer d.c.mutex.Unlock()
	_ = d.WriteCloser.Close()
	code, resp, err := d.c.Text.ReadResponse(250)
	d.c.debugLog(log.DirServerToClient, "%d %s", code, resp)
	d.response = resp
	d.done = true
	return err
}

// Write writes to the DATA section.
func (d *DataCloser) Write(p []byte) (int, error) {
	d.c.mutex.Lock()
	defer d.c.mutex.Unlock()
	return d.WriteCloser.Write(p)
}

// ServerResponse returns the response that was returned by the server after the DataCloser has
// been closed. If the DataCloser has not been closed yet, it will return an empty string.
func (d *DataCloser) ServerResponse() string {
	if !d.done {
		return ""
	}
	return d.response
}

// Data issues a DATA command to the server and returns a writer that
// can be used to write the mail headers and body. The caller should
// close the writer before calling any more methods on c.
func (c *Client) Data() (*DataCloser, error) {
	if _, _, err := c.cmd(354, "DATA"); err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	return &DataCloser{c: c, WriteCloser: c.Text.DotWriter()}, nil
}

// Extension reports whether an extension is supported by the server.
// The extension name is case-insensitive. If the extension is supported,
// Extension also returns a string that contains any parameters the
// server specifies for the extension.
func (c *Client) Extension(ext string) (bool, string) {
	if err := c.hello(); err != nil {
		return false, ""
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.ext == nil {
		return false, ""
	}
	param, ok := c.ext[strings.ToUpper(ext)]
	return ok, param
}

// Reset sends the RSET command to the server, aborting the current mail
// transaction.
func (c *Client) Reset() error {
	if err := c.hello(); err != nil {
		return err
	}
	_, _, err := c.cmd(250, "RSET")
	return err
}

// Noop sends the NOOP command to the server.
func (c *Client) Noop() error {
	if err := c.hello(); err != nil {
		return err
	}
	_, _, err := c.cmd(250, "NOOP")
	return err
}

// Quit sends the QUIT command and closes the connection to the server.
func (c *Client) Quit() error {
	// See https://github.com/golang/go/issues/70011
	_ = c.hello()

	if _, _, err := c.cmd(221, "QUIT"); err != nil {
		return err
	}
	return c.Close()
}

// SetDebugLog enables the transcript of the SMTP conversation
func (c *Client) SetDebugLog(v bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.debug = v
	if v && c.logger == nil {
		c.logger = log.New(os.Stderr, log.LevelDebug)
	}
}

// SetLogger overrides the default log.Stdlog used for the transcript
func (c *Client) SetLogger(l log.Logger) {
	if l == nil {
		return
	}
	c.mutex.Lock()
	c.logger = l
	c.mutex.Unlock()
}

// SetLogAuthData disables the redaction of AUTH data in the transcript.
func (c *Client) SetLogAuthData() {
	c.mutex.Lock()
	c.logAuthData = true
	c.mutex.Unlock()
}

// HasConnection reports whether the client has an active connection.
func (c *Client) HasConnection() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.isConnected
}

// UpdateDeadline sets a new deadline on the SMTP connection with the specified timeout duration.
func (c *Client) UpdateDeadline(timeout time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.conn == nil {
		return ErrNoConnection
	}
	if err := c.conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("smtp: failed to update deadline: %w", err)
	}
	return nil
}

// debugLog hands the message to the logger if the transcript is enabled.
// The caller must hold the mutex.
func (c *Client) debugLog(d log.Direction, f string, a ...interface{}) {
	if c.debug && c.logger != nil {
		c.logger.Debugf(log.Log{Direction: d, Format: f, Messages: a})
	}
}

// validateLine checks to see if a line has CR or LF as per RFC 5321.
func validateLine(line string) error {
	if strings.ContainsAny(line, "\n\r") {
		return ErrLineBreak
	}
	return nil
}
