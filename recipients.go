// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"fmt"
	"net/mail"
	"strings"
)

// DefaultRecipientDelimiter joins the recipients for display and the To header
const DefaultRecipientDelimiter = ", "

// RecipientSet is an immutable, ordered list of unique recipient addresses. An address
// is kept at the position and in the form of its first occurrence. Addresses are
// compared by their lower-cased envelope address, so "toni@example.com" and
// "Toni <Toni@example.com>" are the same recipient.
type RecipientSet struct {
	addrs []string
}

// NewRecipientSet returns a RecipientSet for one or many recipients. Empty entries
// are dropped.
func NewRecipientSet(recipients ...string) RecipientSet {
	seen := make(map[string]struct{}, len(recipients))
	addrs := make([]string, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		key := recipientKey(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		addrs = append(addrs, r)
	}
	return RecipientSet{addrs: addrs}
}

// String returns the recipients joined by DefaultRecipientDelimiter
func (r RecipientSet) String() string {
	return r.Join(DefaultRecipientDelimiter)
}

// Join returns the recipients joined by the given delimiter
func (r RecipientSet) Join(delim string) string {
	return strings.Join(r.addrs, delim)
}

// Addresses returns a copy of the recipients as discrete list, as needed for
// the SMTP RCPT TO commands.
func (r RecipientSet) Addresses() []string {
	addrs := make([]string, len(r.addrs))
	copy(addrs, r.addrs)
	return addrs
}

// Len returns the number of recipients
func (r RecipientSet) Len() int {
	return len(r.addrs)
}

// Contains reports whether the envelope address of addr is part of the set
func (r RecipientSet) Contains(addr string) bool {
	key := recipientKey(addr)
	for _, a := range r.addrs {
		if recipientKey(a) == key {
			return true
		}
	}
	return false
}

// recipientKey is the form in which recipients are compared
func recipientKey(addr string) string {
	return strings.ToLower(envelopeAddress(addr))
}

// hasLineBreak reports whether s contains CR or LF
func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// envelopeAddress returns the bare address of a display-form address like
// "Toni Tester <toni@example.com>". Unparsable input is returned trimmed.
func envelopeAddress(addr string) string {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return strings.TrimSpace(addr)
	}
	return parsed.Address
}

// headerAddress formats an address for the From and To headers. Display names are
// RFC 2047 encoded when needed, bare addresses are kept bare. Addresses with line
// breaks are refused, they would end the header.
func headerAddress(addr string) (string, error) {
	if hasLineBreak(addr) {
		return "", fmt.Errorf("%w: %q contains a line break", ErrInvalidAddress, addr)
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return strings.TrimSpace(addr), nil
	}
	if parsed.Name == "" {
		return parsed.Address, nil
	}
	return parsed.String(), nil
}
