// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/wneessen/go-mailer/smtp"
)

// SMTPAuthType represents a string to any SMTP AUTH type
type SMTPAuthType string

// Supported SMTP AUTH types
const (
	// SMTPAuthAutoDiscover picks the strongest mechanism the server advertises
	SMTPAuthAutoDiscover SMTPAuthType = "AUTODISCOVER"

	// SMTPAuthCramMD5 is the "CRAM-MD5" SASL authentication mechanism as described in RFC 4954
	SMTPAuthCramMD5 SMTPAuthType = "CRAM-MD5"

	// SMTPAuthLogin is the "LOGIN" SASL authentication mechanism
	SMTPAuthLogin SMTPAuthType = "LOGIN"

	// SMTPAuthNTLM is the Microsoft NTLMv2 authentication mechanism
	SMTPAuthNTLM SMTPAuthType = "NTLM"

	// SMTPAuthPlain is the "PLAIN" authentication mechanism as described in RFC 4616
	SMTPAuthPlain SMTPAuthType = "PLAIN"

	// SMTPAuthXOAUTH2 is the "XOAUTH2" SASL authentication mechanism. The password is used
	// as the access token.
	// https://developers.google.com/gmail/imap/xoauth2-protocol
	SMTPAuthXOAUTH2 SMTPAuthType = "XOAUTH2"

	// SMTPAuthSCRAMSHA1 is the "SCRAM-SHA-1" SASL mechanism as described in RFC 5802
	SMTPAuthSCRAMSHA1 SMTPAuthType = "SCRAM-SHA-1"

	// SMTPAuthSCRAMSHA1PLUS is "SCRAM-SHA-1" with TLS channel binding. It requires a TLS
	// session and is skipped by auto-discovery without one.
	SMTPAuthSCRAMSHA1PLUS SMTPAuthType = "SCRAM-SHA-1-PLUS"

	// SMTPAuthSCRAMSHA256 is the "SCRAM-SHA-256" SASL mechanism as described in RFC 7677
	SMTPAuthSCRAMSHA256 SMTPAuthType = "SCRAM-SHA-256"

	// SMTPAuthSCRAMSHA256PLUS is "SCRAM-SHA-256" with TLS channel binding. It requires a
	// TLS session and is skipped by auto-discovery without one.
	SMTPAuthSCRAMSHA256PLUS SMTPAuthType = "SCRAM-SHA-256-PLUS"
)

// autoDiscoverOrder lists the mechanisms tried by SMTPAuthAutoDiscover, strongest first
var autoDiscoverOrder = []SMTPAuthType{
	SMTPAuthSCRAMSHA256PLUS, SMTPAuthSCRAMSHA256, SMTPAuthSCRAMSHA1PLUS, SMTPAuthSCRAMSHA1,
	SMTPAuthPlain, SMTPAuthLogin, SMTPAuthCramMD5,
}

// SMTP Auth related static errors
var (
	// ErrNoAuthSupport is returned if the server does not offer the AUTH extension
	ErrNoAuthSupport = errors.New("server does not support SMTP AUTH")

	// ErrNoSupportedAuthMechanism is returned if auto-discovery found no usable mechanism
	ErrNoSupportedAuthMechanism = errors.New("server offers no supported SMTP AUTH mechanism")

	// ErrUnsupportedAuthType is returned for an SMTPAuthType this package does not know
	ErrUnsupportedAuthType = errors.New("unsupported SMTP AUTH type")

	// ErrPlainAuthNotSupported should be used if the target server does not support the "PLAIN" schema
	ErrPlainAuthNotSupported = errors.New("server does not support SMTP AUTH type: PLAIN")

	// ErrLoginAuthNotSupported should be used if the target server does not support the "LOGIN" schema
	ErrLoginAuthNotSupported = errors.New("server does not support SMTP AUTH type: LOGIN")

	// ErrCramMD5AuthNotSupported should be used if the target server does not support the "CRAM-MD5" schema
	ErrCramMD5AuthNotSupported = errors.New("server does not support SMTP AUTH type: CRAM-MD5")

	// ErrNTLMAuthNotSupported should be used if the target server does not support the "NTLM" schema
	ErrNTLMAuthNotSupported = errors.New("server does not support SMTP AUTH type: NTLM")

	// ErrXOauth2AuthNotSupported should be used if the target server does not support the "XOAUTH2" schema
	ErrXOauth2AuthNotSupported = errors.New("server does not support SMTP AUTH type: XOAUTH2")

	// ErrSCRAMSHA1AuthNotSupported should be used if the target server does not support the "SCRAM-SHA-1" schema
	ErrSCRAMSHA1AuthNotSupported = errors.New("server does not support SMTP AUTH type: SCRAM-SHA-1")

	// ErrSCRAMSHA1PLUSAuthNotSupported should be used if the target server does not support the
	// "SCRAM-SHA-1-PLUS" schema
	ErrSCRAMSHA1PLUSAuthNotSupported = errors.New("server does not support SMTP AUTH type: SCRAM-SHA-1-PLUS")

	// ErrSCRAMSHA256AuthNotSupported should be used if the target server does not support the "SCRAM-SHA-256" schema
	ErrSCRAMSHA256AuthNotSupported = errors.New("server does not support SMTP AUTH type: SCRAM-SHA-256")

	// ErrSCRAMSHA256PLUSAuthNotSupported should be used if the target server does not support the
	// "SCRAM-SHA-256-PLUS" schema
	ErrSCRAMSHA256PLUSAuthNotSupported = errors.New("server does not support SMTP AUTH type: SCRAM-SHA-256-PLUS")
)

var notSupportedErrors = map[SMTPAuthType]error{
	SMTPAuthCramMD5:         ErrCramMD5AuthNotSupported,
	SMTPAuthLogin:           ErrLoginAuthNotSupported,
	SMTPAuthNTLM:            ErrNTLMAuthNotSupported,
	SMTPAuthPlain:           ErrPlainAuthNotSupported,
	SMTPAuthXOAUTH2:         ErrXOauth2AuthNotSupported,
	SMTPAuthSCRAMSHA1:       ErrSCRAMSHA1AuthNotSupported,
	SMTPAuthSCRAMSHA1PLUS:   ErrSCRAMSHA1PLUSAuthNotSupported,
	SMTPAuthSCRAMSHA256:     ErrSCRAMSHA256AuthNotSupported,
	SMTPAuthSCRAMSHA256PLUS: ErrSCRAMSHA256PLUSAuthNotSupported,
}

// ParseSMTPAuthType returns the SMTPAuthType for s. The lookup is case-insensitive,
// an empty string or "auto" selects SMTPAuthAutoDiscover.
func ParseSMTPAuthType(s string) (SMTPAuthType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "", "AUTO", string(SMTPAuthAutoDiscover):
		return SMTPAuthAutoDiscover, nil
	}
	authType := SMTPAuthType(s)
	if _, ok := notSupportedErrors[authType]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAuthType, s)
	}
	return authType, nil
}

// CredentialFallback produces the alternate representation of a username and password
// used for the second login attempt. It returns false if there is no alternate form
// that differs from the given one.
type CredentialFallback func(username, password string) (string, string, bool)

// Latin1Credentials is the default CredentialFallback. It transcodes both values to
// ISO-8859-1 where the text is representable in that charset and falls back to Unicode
// NFC normalization otherwise.
func Latin1Credentials(username, password string) (string, string, bool) {
	altUser := alternateCredential(username)
	altPass := alternateCredential(password)
	if altUser == username && altPass == password {
		return username, password, false
	}
	return altUser, altPass, true
}

func alternateCredential(value string) string {
	if isASCII(value) {
		return value
	}
	latin1, err := charmap.ISO8859_1.NewEncoder().String(value)
	if err == nil {
		return latin1
	}
	return norm.NFC.String(value)
}

// authFor returns the smtp.Auth for the given type, checking that the server advertised
// the mechanism
func authFor(authType SMTPAuthType, client *smtp.Client, host, username, password string) (smtp.Auth, error) {
	hasAuth, mechs := client.Extension("AUTH")
	if !hasAuth {
		return nil, ErrNoAuthSupport
	}
	offered := strings.Fields(strings.ToUpper(mechs))
	advertises := func(t SMTPAuthType) bool {
		for _, mech := range offered {
			if mech == string(t) {
				return true
			}
		}
		return false
	}

	if authType == SMTPAuthAutoDiscover {
		authType = ""
		for _, candidate := range autoDiscoverOrder {
			if !advertises(candidate) {
				continue
			}
			if (candidate == SMTPAuthSCRAMSHA1PLUS || candidate == SMTPAuthSCRAMSHA256PLUS) && !client.IsTLS() {
				continue
			}
			authType = candidate
			break
		}
		if authType == "" {
			return nil, ErrNoSupportedAuthMechanism
		}
	}

	notSupported, known := notSupportedErrors[authType]
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAuthType, authType)
	}
	if !advertises(authType) {
		return nil, notSupported
	}

	switch authType {
	case SMTPAuthPlain:
		return smtp.PlainAuth("", username, password, host, false), nil
	case SMTPAuthLogin:
		return smtp.LoginAuth(username, password, host), nil
	case SMTPAuthCramMD5:
		return smtp.CRAMMD5Auth(username, password), nil
	case SMTPAuthXOAUTH2:
		return smtp.XOAuth2Auth(username, password, host), nil
	case SMTPAuthNTLM:
		return smtp.NTLMv2Auth(username, password, ""), nil
	case SMTPAuthSCRAMSHA1:
		return smtp.ScramSHA1Auth(username, password), nil
	case SMTPAuthSCRAMSHA256:
		return smtp.ScramSHA256Auth(username, password), nil
	case SMTPAuthSCRAMSHA1PLUS, SMTPAuthSCRAMSHA256PLUS:
		state, err := client.TLSConnectionState()
		if err != nil {
			return nil, err
		}
		if authType == SMTPAuthSCRAMSHA1PLUS {
			return smtp.ScramSHA1PlusAuth(username, password, state), nil
		}
		return smtp.ScramSHA256PlusAuth(username, password, state), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedAuthType, authType)
}
