// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

// Header is a type wrapper for a string and represents email header fields in a Message.
type Header string

// List of common headers written by the Message builder
const (
	// HeaderContentDisposition is the "Content-Disposition" header
	HeaderContentDisposition Header = "Content-Disposition"

	// HeaderContentTransferEnc is the "Content-Transfer-Encoding" header
	HeaderContentTransferEnc Header = "Content-Transfer-Encoding"

	// HeaderContentType is the "Content-Type" header
	HeaderContentType Header = "Content-Type"

	// HeaderDate represents the "Date" field
	// See: https://www.rfc-editor.org/rfc/rfc5322#section-3.6.1
	HeaderDate Header = "Date"

	// HeaderFrom is the "From" header field
	HeaderFrom Header = "From"

	// HeaderMessageID represents the "Message-ID" field for message identification
	// See: https://www.rfc-editor.org/rfc/rfc5322#section-3.6.4
	HeaderMessageID Header = "Message-ID"

	// HeaderMIMEVersion represents the "MIME-Version" field as per RFC 2045
	// See: https://datatracker.ietf.org/doc/html/rfc2045#section-4
	HeaderMIMEVersion Header = "MIME-Version"

	// HeaderSubject is the "Subject" header field
	HeaderSubject Header = "Subject"

	// HeaderTo is the "To" header field
	HeaderTo Header = "To"

	// HeaderXMailer represents the non-standard "X-Mailer" header
	HeaderXMailer Header = "X-Mailer"
)

// String returns the header string based on the given Header
func (h Header) String() string {
	return string(h)
}
