// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

package smtp

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/secure/precis"
)

var (
	// ErrSCRAMNoTLSState is returned when a SCRAM-*-PLUS mechanism is used without TLS connection state.
	ErrSCRAMNoTLSState = errors.New("tls connection state is required for SCRAM-SHA-X-PLUS")

	// ErrSCRAMServerSignature is returned when the server signature does not match the computed one.
	ErrSCRAMServerSignature = errors.New("invalid server signature")
)

// scramAuth implements the SCRAM family of RFC 5802 / RFC 7677, with optional
// channel binding for the -PLUS variants.
type scramAuth struct {
	username, password, mech string
	h                        func() hash.Hash
	connState                *tls.ConnectionState
	plus                     bool

	// exchange state
	clientFirstBare []byte
	gs2Header       []byte
	nonce           []byte
	saltedPassword  []byte
	authMessage     []byte
}

// ScramSHA1Auth returns an [Auth] for SCRAM-SHA-1.
func ScramSHA1Auth(username, password string) Auth {
	return &scramAuth{username: username, password: password, mech: "SCRAM-SHA-1", h: sha1.New}
}

// ScramSHA256Auth returns an [Auth] for SCRAM-SHA-256.
func ScramSHA256Auth(username, password string) Auth {
	return &scramAuth{username: username, password: password, mech: "SCRAM-SHA-256", h: sha256.New}
}

// ScramSHA1PlusAuth returns an [Auth] for SCRAM-SHA-1-PLUS bound to the given TLS connection.
func ScramSHA1PlusAuth(username, password string, state *tls.ConnectionState) Auth {
	return &scramAuth{
		username: username, password: password, mech: "SCRAM-SHA-1-PLUS", h: sha1.New,
		plus: true, connState: state,
	}
}

// ScramSHA256PlusAuth returns an [Auth] for SCRAM-SHA-256-PLUS bound to the given TLS connection.
func ScramSHA256PlusAuth(username, password string, state *tls.ConnectionState) Auth {
	return &scramAuth{
		username: username, password: password, mech: "SCRAM-SHA-256-PLUS", h: sha256.New,
		plus: true, connState: state,
	}
}

func (a *scramAuth) Start(_ *ServerInfo) (string, []byte, error) {
	return a.mech, nil, nil
}

// Next walks through the three server messages: the empty initial challenge, the
// server-first message (r=,s=,i=) and the server-final message (v=).
func (a *scramAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	var resp []byte
	var err error
	switch {
	case len(fromServer) == 0:
		a.reset()
		resp, err = a.clientFirst()
	case bytes.HasPrefix(fromServer, []byte("r=")):
		resp, err = a.clientFinal(fromServer)
	case bytes.HasPrefix(fromServer, []byte("v=")):
		resp, err = a.verifyServer(fromServer)
	default:
		err = fmt.Errorf("%w: %s", ErrUnexpectedServerResponse, fromServer)
	}
	if err != nil {
		a.reset()
		return nil, err
	}
	return resp, nil
}

func (a *scramAuth) reset() {
	a.clientFirstBare = nil
	a.gs2Header = nil
	a.nonce = nil
	a.saltedPassword = nil
	a.authMessage = nil
}

// clientFirst builds the client-first message with a fresh nonce
func (a *scramAuth) clientFirst() ([]byte, error) {
	// RFC 5802 section 5.1: ',' and '=' are sent as '=2C' and '=3D'
	username, err := precis.OpaqueString.String(
		strings.NewReplacer("=", "=3D", ",", "=2C").Replace(a.username))
	if err != nil {
		return nil, fmt.Errorf("unable to normalize username: %w", err)
	}

	raw := make([]byte, 24)
	if _, err = rand.Read(raw); err != nil {
		return nil, fmt.Errorf("unable to generate client nonce: %w", err)
	}
	a.nonce = []byte(base64.StdEncoding.EncodeToString(raw))
	a.clientFirstBare = []byte("n=" + username + ",r=" + string(a.nonce))

	a.gs2Header = []byte("n,,")
	if a.plus {
		bindType, _, err := a.channelBinding()
		if err != nil {
			return nil, err
		}
		a.gs2Header = []byte("p=" + bindType + ",,")
	}
	return append(append([]byte{}, a.gs2Header...), a.clientFirstBare...), nil
}

// channelBinding returns the binding type and data of the TLS connection. TLS 1.3 and
// connections without tls-unique use tls-exporter (RFC 9266).
func (a *scramAuth) channelBinding() (string, []byte, error) {
	if a.connState == nil {
		return "", nil, ErrSCRAMNoTLSState
	}
	if a.connState.TLSUnique != nil && a.connState.Version < tls.VersionTLS13 {
		return "tls-unique", a.connState.TLSUnique, nil
	}
	data, err := a.connState.ExportKeyingMaterial("EXPORTER-Channel-Binding", []byte{}, 32)
	if err != nil {
		return "", nil, fmt.Errorf("unable to export keying material: %w", err)
	}
	return "tls-exporter", data, nil
}

// clientFinal answers the server-first message with the client proof
func (a *scramAuth) clientFinal(serverFirst []byte) ([]byte, error) {
	fields := bytes.Split(serverFirst, []byte(","))
	if len(fields) < 3 || !bytes.HasPrefix(fields[1], []byte("s=")) || !bytes.HasPrefix(fields[2], []byte("i=")) {
		return nil, fmt.Errorf("%w: malformed server-first message", ErrUnexpectedServerResponse)
	}
	combinedNonce := fields[0][2:]
	if len(a.nonce) == 0 || !bytes.HasPrefix(combinedNonce, a.nonce) {
		return nil, errors.New("server nonce does not start with our nonce")
	}
	salt, err := base64.StdEncoding.DecodeString(string(fields[1][2:]))
	if err != nil {
		return nil, fmt.Errorf("invalid encoded salt: %w", err)
	}
	iterations, err := strconv.Atoi(string(fields[2][2:]))
	if err != nil {
		return nil, fmt.Errorf("invalid iterations: %w", err)
	}
	password, err := precis.OpaqueString.String(a.password)
	if err != nil {
		return nil, fmt.Errorf("unable to normalize password: %w", err)
	}
	a.saltedPassword = pbkdf2.Key([]byte(password), salt, iterations, a.h().Size(), a.h)

	cbind := append([]byte{}, a.gs2Header...)
	if a.plus {
		_, data, err := a.channelBinding()
		if err != nil {
			return nil, err
		}
		cbind = append(cbind, data...)
	}
	withoutProof := "c=" + base64.StdEncoding.EncodeToString(cbind) + ",r=" + string(combinedNonce)
	a.authMessage = []byte(string(a.clientFirstBare) + "," + string(serverFirst) + "," + withoutProof)

	clientKey := a.hmac(a.saltedPassword, []byte("Client Key"))
	storedKey := a.hash(clientKey)
	signature := a.hmac(storedKey, a.authMessage)
	proof := make([]byte, len(clientKey))
	for i := range clientKey {
		proof[i] = clientKey[i] ^ signature[i]
	}
	return []byte(withoutProof + ",p=" + base64.StdEncoding.EncodeToString(proof)), nil
}

// verifyServer checks the server signature of the server-final message
func (a *scramAuth) verifyServer(serverFinal []byte) ([]byte, error) {
	if a.saltedPassword == nil {
		return nil, fmt.Errorf("%w: server-final message before server-first", ErrUnexpectedServerResponse)
	}
	serverKey := a.hmac(a.saltedPassword, []byte("Server Key"))
	expected := base64.StdEncoding.EncodeToString(a.hmac(serverKey, a.authMessage))
	if !hmac.Equal(serverFinal[2:], []byte(expected)) {
		return nil, ErrSCRAMServerSignature
	}
	return []byte{}, nil
}

func (a *scramAuth) hmac(key, msg []byte) []byte {
	mac := hmac.New(a.h, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

func (a *scramAuth) hash(data []byte) []byte {
	h := a.h()
	h.Write(data)
	return h.Sum(nil)
}
