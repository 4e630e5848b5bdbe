// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package inspect parses wire formatted messages back into their fields. The mailer
// command uses it to print the delivery history.
package inspect

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Attachment describes one attachment of a parsed message
type Attachment struct {
	Filename    string
	ContentType string
	Size        int
}

// Summary holds the decoded fields of a parsed message
type Summary struct {
	Date        time.Time
	From        []string
	To          []string
	Subject     string
	MessageID   string
	Body        string
	Attachments []Attachment
}

// Summarize parses the message in r. Text parts without a disposition are joined
// into Body, every other part is listed as Attachment.
func Summarize(r io.Reader) (*Summary, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	defer func() {
		_ = mr.Close()
	}()

	summary := &Summary{}
	if summary.Subject, err = mr.Header.Subject(); err != nil {
		return nil, fmt.Errorf("failed to decode subject: %w", err)
	}
	if summary.From, err = addresses(mr.Header, "From"); err != nil {
		return nil, err
	}
	if summary.To, err = addresses(mr.Header, "To"); err != nil {
		return nil, err
	}
	if date, err := mr.Header.Date(); err == nil {
		summary.Date = date
	}
	if summary.MessageID, err = mr.Header.MessageID(); err != nil {
		return nil, fmt.Errorf("failed to parse Message-ID: %w", err)
	}

	var body strings.Builder
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}
		content, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read part body: %w", err)
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			body.Write(content)
		case *mail.AttachmentHeader:
			filename, err := header.Filename()
			if err != nil {
				return nil, fmt.Errorf("failed to decode filename: %w", err)
			}
			contentType, _, err := header.ContentType()
			if err != nil {
				return nil, fmt.Errorf("failed to parse content type of %q: %w", filename, err)
			}
			summary.Attachments = append(summary.Attachments, Attachment{
				Filename:    filename,
				ContentType: contentType,
				Size:        len(content),
			})
		}
	}
	summary.Body = body.String()
	return summary, nil
}

func addresses(header mail.Header, key string) ([]string, error) {
	list, err := header.AddressList(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s header: %w", key, err)
	}
	addrs := make([]string, 0, len(list))
	for _, addr := range list {
		addrs = append(addrs, addr.String())
	}
	return addrs, nil
}

// String returns a short, human readable form of the Summary
func (s *Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From:    %s\n", strings.Join(s.From, ", "))
	fmt.Fprintf(&sb, "To:      %s\n", strings.Join(s.To, ", "))
	fmt.Fprintf(&sb, "Subject: %s\n", s.Subject)
	if !s.Date.IsZero() {
		fmt.Fprintf(&sb, "Date:    %s\n", s.Date.Format(time.RFC1123Z))
	}
	for _, a := range s.Attachments {
		fmt.Fprintf(&sb, "Attach:  %s (%s, %d bytes)\n", a.Filename, a.ContentType, a.Size)
	}
	return sb.String()
}
