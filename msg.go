// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"
)

// MessageOption returns a function that can be used for grouping Message options
type MessageOption func(*Message)

// Message is a mail with one text body and any number of file attachments. It is a
// stateless value: the wire document is rebuilt from the current fields on every
// Build, WriteTo or Bytes call.
type Message struct {
	// From is the sender address, optionally in the "Name <address>" form
	From string

	// To is the list of recipient addresses. Duplicates are removed on Build.
	To []string

	// Subject is the subject line
	Subject string

	// Body is the text body. An empty Body still produces a text part.
	Body string

	// Attachments are attached after the text body, in order
	Attachments []*Attachment

	boundary string
	date     time.Time
}

// headerField is a top-level header of a Document
type headerField struct {
	name   Header
	values []string
}

// Document is a built, wire-ready multipart/mixed message.
type Document struct {
	header   []headerField
	boundary string
	parts    []*Part
}

// NewMessage returns a new Message from the sender to one or many recipients
func NewMessage(from string, to []string, opts ...MessageOption) *Message {
	m := &Message{From: from, To: to}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

// WithSubject sets the subject of the Message
func WithSubject(s string) MessageOption {
	return func(m *Message) {
		m.Subject = s
	}
}

// WithBody sets the text body of the Message
func WithBody(b string) MessageOption {
	return func(m *Message) {
		m.Body = b
	}
}

// WithAttachments adds one or many Attachments to the Message
func WithAttachments(a ...*Attachment) MessageOption {
	return func(m *Message) {
		m.Attachments = append(m.Attachments, a...)
	}
}

// WithBoundary sets a fixed multipart boundary instead of a random one
func WithBoundary(b string) MessageOption {
	return func(m *Message) {
		m.boundary = b
	}
}

// WithDate sets a fixed Date header instead of the time of the Build
func WithDate(t time.Time) MessageOption {
	return func(m *Message) {
		m.date = t
	}
}

// Recipients returns the de-duplicated recipients of the Message
func (m *Message) Recipients() RecipientSet {
	return NewRecipientSet(m.To...)
}

// Validate checks that the Message has a sender and at least one recipient, and that
// no address contains a line break
func (m *Message) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return ErrNoFromAddress
	}
	if hasLineBreak(m.From) {
		return fmt.Errorf("%w: sender contains a line break", ErrInvalidAddress)
	}
	rcpts := m.Recipients()
	if rcpts.Len() == 0 {
		return ErrNoRcptAddresses
	}
	for _, r := range rcpts.Addresses() {
		if hasLineBreak(r) {
			return fmt.Errorf("%w: recipient %q contains a line break", ErrInvalidAddress, r)
		}
	}
	return nil
}

// Build assembles the Message into a multipart/mixed Document: the top-level headers,
// exactly one text body part and one part per Attachment.
func (m *Message) Build() (*Document, error) {
	parts := make([]*Part, 0, len(m.Attachments)+1)
	body, err := textPart(m.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to build text body: %w", err)
	}
	parts = append(parts, body)
	for i, a := range m.Attachments {
		if a == nil {
			return nil, fmt.Errorf("%w: attachment %d is nil", ErrInvalidAttachment, i)
		}
		p, err := a.Part()
		if err != nil {
			return nil, fmt.Errorf("failed to build attachment %q: %w", a.Path(), err)
		}
		parts = append(parts, p)
	}

	date := m.date
	if date.IsZero() {
		date = time.Now()
	}
	rcpts := m.Recipients().Addresses()
	to := make([]string, 0, len(rcpts))
	for _, r := range rcpts {
		addr, err := headerAddress(r)
		if err != nil {
			return nil, err
		}
		to = append(to, addr)
	}
	from, err := headerAddress(m.From)
	if err != nil {
		return nil, err
	}
	subject, err := encodeHeaderText(m.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to encode subject: %w", err)
	}

	header := []headerField{
		{HeaderDate, []string{date.Format(time.RFC1123Z)}},
		{HeaderFrom, []string{from}},
		{HeaderTo, to},
		{HeaderSubject, []string{subject}},
		{HeaderMessageID, []string{newMessageID()}},
		{HeaderXMailer, []string{"go-mailer v" + VERSION}},
		{HeaderMIMEVersion, []string{"1.0"}},
	}
	return &Document{header: header, boundary: m.boundary, parts: parts}, nil
}

// WriteTo builds the Message and writes its wire format to w
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	doc, err := m.Build()
	if err != nil {
		return 0, err
	}
	return doc.WriteTo(w)
}

// Bytes builds the Message and returns its wire format
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WireFormat builds the Message and returns its wire format as string. No
// Return-Path header is set, this is the task of the receiving server.
func (m *Message) WireFormat() (string, error) {
	b, err := m.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteTo writes the Document in wire format to w
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	mw := &msgWriter{w: w}
	mw.writeDocument(d)
	return mw.n, mw.err
}

// GetHeader returns the values of a top-level header of the Document
func (d *Document) GetHeader(h Header) []string {
	for _, f := range d.header {
		if f.name == h {
			return append([]string(nil), f.values...)
		}
	}
	return nil
}

// Parts returns the body parts of the Document, the text body first
func (d *Document) Parts() []*Part {
	return append([]*Part(nil), d.parts...)
}

// textPart returns the text/plain body part in the narrowest charset for text
func textPart(text string) (*Part, error) {
	cs := ChooseCharset(text)
	content, err := encodeText(cs, text)
	if err != nil {
		return nil, err
	}
	ct := mime.FormatMediaType(TypeTextPlain.String(), map[string]string{"charset": cs.String()})
	return newPart(ct, transferEncoding(cs), content), nil
}

// encodeHeaderText returns the header-safe form of text. Non-ASCII text is encoded
// as RFC 2047 encoded-words in the narrowest charset. Line breaks are replaced.
func encodeHeaderText(text string) (string, error) {
	text = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(text)
	cs := ChooseCharset(text)
	if cs == CharsetASCII {
		return text, nil
	}
	raw, err := encodeText(cs, text)
	if err != nil {
		return "", err
	}
	return mime.QEncoding.Encode(cs.String(), string(raw)), nil
}
