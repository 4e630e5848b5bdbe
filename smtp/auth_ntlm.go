// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

package smtp

import (
	"errors"

	"github.com/Azure/go-ntlmssp"
)

// ErrNTLMChallengeEmpty is returned when the NTLMv2 ChallengeMessage received from the server is empty.
var ErrNTLMChallengeEmpty = errors.New("NTLMv2 ChallengeMessage is empty")

type ntlmAuth struct {
	domain, password, username, workstation string
	domainNeeded                            bool
}

// NTLMv2Auth returns an [Auth] that implements NTLMv2 authentication. A username
// in the form DOMAIN\user or user@domain carries the domain.
func NTLMv2Auth(username, password, workstation string) Auth {
	user, domain, domainNeeded := ntlmssp.GetDomain(username)
	return &ntlmAuth{
		domain:       domain,
		password:     password,
		username:     user,
		workstation:  workstation,
		domainNeeded: domainNeeded,
	}
}

func (a *ntlmAuth) Start(server *ServerInfo) (string, []byte, error) {
	if err := requireTLS(server, "", false); err != nil {
		return "", nil, err
	}
	negotiate, err := ntlmssp.NewNegotiateMessage(a.domain, a.workstation)
	return "NTLM", negotiate, err
}

func (a *ntlmAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	if len(fromServer) == 0 {
		return nil, ErrNTLMChallengeEmpty
	}
	return ntlmssp.ProcessChallenge(fromServer, a.username, a.password, a.domainNeeded)
}
