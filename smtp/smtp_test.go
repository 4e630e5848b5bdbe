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

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mailer/log"
)

type faker struct {
	io.ReadWriter
}

func (f faker) Close() error                     { return nil }
func (f faker) LocalAddr() net.Addr              { return nil }
func (f faker) RemoteAddr() net.Addr             { return nil }
func (f faker) SetDeadline(time.Time) error      { return nil }
func (f faker) SetReadDeadline(time.Time) error  { return nil }
func (f faker) SetWriteDeadline(time.Time) error { return nil }

// fakeClient returns a Client reading the scripted server responses and a function
// returning everything the Client wrote.
func fakeClient(t *testing.T, server string) (*Client, func() string) {
	t.Helper()
	server = strings.Join(strings.Split(server, "\n"), "\r\n")
	var cmdbuf strings.Builder
	bcmdbuf := bufio.NewWriter(&cmdbuf)
	var fake faker
	fake.ReadWriter = bufio.NewReadWriter(bufio.NewReader(strings.NewReader(server)), bcmdbuf)
	c, err := NewClient(fake, "smtp.example.com")
	if err != nil {
		t.Fatalf("NewClient failed: %s", err)
	}
	return c, func() string {
		if err := bcmdbuf.Flush(); err != nil {
			t.Errorf("flush failed: %s", err)
		}
		return cmdbuf.String()
	}
}

func crlf(s string) string {
	return strings.Join(strings.Split(s, "\n"), "\r\n")
}

var submissionServer = `220 smtp.example.com ESMTP ready
250-smtp.example.com at your service
250-SIZE 35651584
250-AUTH LOGIN PLAIN
250 8BITMIME
235 2.7.0 Accepted
250 2.1.0 Sender OK
250 2.1.5 Receiver OK
550 5.1.1 No such user
354 Go ahead
250 2.0.0 Ok: queued as 4711
250 2.0.0 Reset OK
221 2.0.0 Bye
`

var submissionClient = `EHLO localhost
AUTH PLAIN AHVzZXIAcGFzcw==
MAIL FROM:<user@example.com> BODY=8BITMIME
RCPT TO:<a@example.com>
RCPT TO:<b@example.com>
DATA
Subject: Hooray for Go

Line 1
..Leading dot line .
Goodbye.
.
RSET
QUIT
`

func TestClient_Submission(t *testing.T) {
	c, written := fakeClient(t, submissionServer)
	c.tls = true

	if err := c.Auth(PlainAuth("", "user", "pass", "smtp.example.com", false)); err != nil {
		t.Fatalf("AUTH failed: %s", err)
	}
	if err := c.Mail("user@example.com>\r\nDATA\r\n"); !errors.Is(err, ErrLineBreak) {
		t.Errorf("MAIL with injected line break: expected ErrLineBreak, got %v", err)
	}
	if err := c.Mail("user@example.com"); err != nil {
		t.Fatalf("MAIL failed: %s", err)
	}
	if err := c.Rcpt("a@example.com"); err != nil {
		t.Fatalf("RCPT failed: %s", err)
	}
	err := c.Rcpt("b@example.com")
	var tpErr *textproto.Error
	if !errors.As(err, &tpErr) || tpErr.Code != 550 {
		t.Fatalf("RCPT: expected 550 textproto.Error, got %v", err)
	}
	w, err := c.Data()
	if err != nil {
		t.Fatalf("DATA failed: %s", err)
	}
	if w.ServerResponse() != "" {
		t.Errorf("expected empty server response before close, got %q", w.ServerResponse())
	}
	if _, err = w.Write([]byte("Subject: Hooray for Go\n\nLine 1\n.Leading dot line .\nGoodbye.")); err != nil {
		t.Fatalf("DATA write failed: %s", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("DATA close failed: %s", err)
	}
	if w.ServerResponse() != "2.0.0 Ok: queued as 4711" {
		t.Errorf("unexpected server response: %q", w.ServerResponse())
	}
	if err = c.Reset(); err != nil {
		t.Fatalf("RSET failed: %s", err)
	}
	if err = c.Quit(); err != nil {
		t.Fatalf("QUIT failed: %s", err)
	}
	if c.HasConnection() {
		t.Error("expected connection to be closed after QUIT")
	}
	if actual := written(); actual != crlf(submissionClient) {
		t.Errorf("Got:\n%s\nExpected:\n%s", actual, crlf(submissionClient))
	}
}

func TestClient_Extension(t *testing.T) {
	c, _ := fakeClient(t, `220 hello
250-smtp.example.com
250-AUTH PLAIN LOGIN CRAM-MD5
250-STARTTLS
250 SMTPUTF8
`)
	tests := []struct {
		ext   string
		ok    bool
		param string
	}{
		{"auth", true, "PLAIN LOGIN CRAM-MD5"},
		{"StartTLS", true, ""},
		{"SMTPUTF8", true, ""},
		{"DSN", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			ok, param := c.Extension(tt.ext)
			if ok != tt.ok || param != tt.param {
				t.Errorf("Extension(%s): expected (%t, %q), got (%t, %q)", tt.ext, tt.ok, tt.param, ok, param)
			}
		})
	}
	mechs := c.Auths()
	if strings.Join(mechs, ",") != "PLAIN,LOGIN,CRAM-MD5" {
		t.Errorf("unexpected AUTH mechanisms: %v", mechs)
	}
}

func TestClient_HeloFallback(t *testing.T) {
	c, written := fakeClient(t, `220 hello
502 Unrecognized command
250 old.example.com
`)
	if err := c.Hello("client.example.com"); err != nil {
		t.Fatalf("Hello failed: %s", err)
	}
	if ok, _ := c.Extension("8BITMIME"); ok {
		t.Error("HELO server must not report extensions")
	}
	if err := c.Hello("again"); !errors.Is(err, ErrHelloAfterCommand) {
		t.Errorf("expected ErrHelloAfterCommand, got %v", err)
	}
	expected := crlf("EHLO client.example.com\nHELO client.example.com\n")
	if actual := written(); actual != expected {
		t.Errorf("Got:\n%s\nExpected:\n%s", actual, expected)
	}
}

func TestClient_AuthRejectedKeepsConnection(t *testing.T) {
	c, written := fakeClient(t, `220 hello
250-smtp.example.com
250 AUTH PLAIN
535-5.7.8 Invalid credentials
535 5.7.8 please see www.example.com
235 2.7.0 Accepted
`)
	c.tls = true

	err := c.Auth(PlainAuth("", "user", "pass", "smtp.example.com", false))
	var tpErr *textproto.Error
	if !errors.As(err, &tpErr) {
		t.Fatalf("expected textproto.Error, got %v", err)
	}
	if tpErr.Code != 535 {
		t.Errorf("expected code 535, got %d", tpErr.Code)
	}
	if !c.HasConnection() {
		t.Fatal("rejected AUTH must leave the connection open")
	}
	if err = c.Auth(PlainAuth("", "user", "pass2", "smtp.example.com", false)); err != nil {
		t.Fatalf("second AUTH failed: %s", err)
	}
	expected := crlf("EHLO localhost\nAUTH PLAIN AHVzZXIAcGFzcw==\nAUTH PLAIN AHVzZXIAcGFzczI=\n")
	if actual := written(); actual != expected {
		t.Errorf("Got:\n%s\nExpected:\n%s", actual, expected)
	}
}

func TestClient_AuthLogin(t *testing.T) {
	c, written := fakeClient(t, `220 hello
250-smtp.example.com
250 AUTH LOGIN
334 VXNlcm5hbWU6
334 UGFzc3dvcmQ6
235 2.7.0 Accepted
`)
	c.tls = true
	if err := c.Auth(LoginAuth("user", "pass", "smtp.example.com")); err != nil {
		t.Fatalf("AUTH LOGIN failed: %s", err)
	}
	expected := crlf("EHLO localhost\nAUTH LOGIN\ndXNlcg==\ncGFzcw==\n")
	if actual := written(); actual != expected {
		t.Errorf("Got:\n%s\nExpected:\n%s", actual, expected)
	}
}

func TestClient_AuthAbortOnClientError(t *testing.T) {
	c, written := fakeClient(t, `220 hello
250-smtp.example.com
250 AUTH LOGIN
334 V2hvIGFyZSB5b3U/
501 5.7.0 Aborted
`)
	c.tls = true
	err := c.Auth(LoginAuth("user", "pass", "smtp.example.com"))
	if !errors.Is(err, ErrUnexpectedServerResponse) {
		t.Fatalf("expected ErrUnexpectedServerResponse, got %v", err)
	}
	expected := crlf("EHLO localhost\nAUTH LOGIN\n*\n")
	if actual := written(); actual != expected {
		t.Errorf("Got:\n%s\nExpected:\n%s", actual, expected)
	}
}

func TestClient_AuthUnencrypted(t *testing.T) {
	c, written := fakeClient(t, `220 hello
250-smtp.example.com
250 AUTH PLAIN
`)
	err := c.Auth(PlainAuth("", "user", "pass", "smtp.example.com", false))
	if !errors.Is(err, ErrUnencrypted) {
		t.Fatalf("expected ErrUnencrypted, got %v", err)
	}
	if actual := written(); actual != crlf("EHLO localhost\n") {
		t.Errorf("credentials must not be sent, got:\n%s", actual)
	}
}

func TestClient_DebugLogRedactsAuth(t *testing.T) {
	c, _ := fakeClient(t, `220 hello
250-smtp.example.com
250 AUTH PLAIN
235 2.7.0 Accepted
250 2.1.0 Sender OK
`)
	c.tls = true
	var buf bytes.Buffer
	c.SetLogger(log.New(&buf, log.LevelDebug))
	c.SetDebugLog(true)

	if err := c.Auth(PlainAuth("", "user", "pass", "smtp.example.com", false)); err != nil {
		t.Fatalf("AUTH failed: %s", err)
	}
	if err := c.Mail("user@example.com"); err != nil {
		t.Fatalf("MAIL failed: %s", err)
	}
	out := buf.String()
	if strings.Contains(out, "AHVzZXIAcGFzcw==") {
		t.Errorf("AUTH data leaked into the log: %s", out)
	}
	if !strings.Contains(out, redacted) {
		t.Errorf("expected redaction marker in log: %s", out)
	}
	if !strings.Contains(out, "C --> S: MAIL FROM:<user@example.com>") {
		t.Errorf("expected MAIL FROM in log: %s", out)
	}
	if !strings.Contains(out, "C <-- S: 250 2.1.0 Sender OK") {
		t.Errorf("expected server response in log: %s", out)
	}
}

func TestClient_CloseTwice(t *testing.T) {
	c, _ := fakeClient(t, "220 hello\n")
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %s", err)
	}
	if err := c.Close(); !errors.Is(err, ErrNoConnection) {
		t.Errorf("second Close: expected ErrNoConnection, got %v", err)
	}
	if _, err := c.TLSConnectionState(); !errors.Is(err, ErrNoConnection) {
		t.Errorf("expected ErrNoConnection, got %v", err)
	}
}

func TestClient_TLSConnectionState_NonTLS(t *testing.T) {
	c, _ := fakeClient(t, "220 hello\n")
	if _, err := c.TLSConnectionState(); !errors.Is(err, ErrNonTLSConnection) {
		t.Errorf("expected ErrNonTLSConnection, got %v", err)
	}
	if c.IsTLS() {
		t.Error("fake connection must not report TLS")
	}
}

func TestNewClient_BadGreeting(t *testing.T) {
	var fake faker
	fake.ReadWriter = bufio.NewReadWriter(bufio.NewReader(strings.NewReader("554 go away\r\n")),
		bufio.NewWriter(io.Discard))
	if _, err := NewClient(fake, "smtp.example.com"); err == nil {
		t.Error("expected NewClient to fail on 554 greeting")
	}
}
