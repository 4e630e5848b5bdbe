// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import "errors"

// Composition errors. They are returned while building an Attachment or a Message and
// are never retried.
var (
	// ErrInvalidContentType is returned if a content type does not consist of exactly one
	// major and one minor type
	ErrInvalidContentType = errors.New("invalid MIME content type")

	// ErrUnknownReadMode is returned for read modes other than text and binary
	ErrUnknownReadMode = errors.New("unknown read mode, must be text or binary")

	// ErrInvalidAttachment is returned if a Message carries a nil Attachment
	ErrInvalidAttachment = errors.New("invalid attachment")

	// ErrEncoding is returned if a text can not be represented in the required encoding
	ErrEncoding = errors.New("encoding error")

	// ErrFileNotFound is returned if the file of an Attachment does not exist
	ErrFileNotFound = errors.New("attachment file not found")

	// ErrFileUnreadable is returned if the file of an Attachment can not be read
	ErrFileUnreadable = errors.New("attachment file not readable")

	// ErrNoFromAddress is returned if a Message has no sender address
	ErrNoFromAddress = errors.New("no FROM address set")

	// ErrNoRcptAddresses is returned if a Message has no recipient addresses
	ErrNoRcptAddresses = errors.New("no recipient addresses set")

	// ErrInvalidAddress is returned if a sender or recipient address can not be used in
	// a header or an SMTP command
	ErrInvalidAddress = errors.New("invalid mail address")

	// ErrNilMessage is returned if a nil Message is handed to the MailServer
	ErrNilMessage = errors.New("message is nil")
)
