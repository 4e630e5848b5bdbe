// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding represents a MIME content transfer encoding like quoted-printable or base64.
type Encoding string

// Charset represents a character set for the text body and the headers
type Charset string

// ContentType represents a MIME media type
type ContentType string

const (
	// EncodingB64 represents the Base64 encoding as specified in RFC 2045.
	EncodingB64 Encoding = "base64"

	// EncodingQP represents the "quoted-printable" encoding as specified in RFC 2045.
	EncodingQP Encoding = "quoted-printable"

	// Encoding7Bit marks content that is 7-bit clean and written as is
	Encoding7Bit Encoding = "7bit"

	// NoEncoding avoids any character encoding (except of the mail headers)
	NoEncoding Encoding = "8bit"
)

// Charsets in order of preference. ChooseCharset picks the first that can
// represent a text without loss.
const (
	// CharsetASCII represents the "us-ascii" charset
	CharsetASCII Charset = "us-ascii"

	// CharsetISO88591 represents the "iso-8859-1" (Latin-1) charset
	CharsetISO88591 Charset = "iso-8859-1"

	// CharsetUTF8 represents the "utf-8" charset
	CharsetUTF8 Charset = "utf-8"
)

// Commonly used content types
const (
	TypeTextPlain      ContentType = "text/plain"
	TypePNG            ContentType = "image/png"
	TypeJPEG           ContentType = "image/jpeg"
	TypeOctetStream    ContentType = "application/octet-stream"
	TypeMultipartMixed ContentType = "multipart/mixed"
)

// String satisfies the fmt.Stringer interface for the Encoding type
func (e Encoding) String() string {
	return string(e)
}

// String satisfies the fmt.Stringer interface for the Charset type
func (c Charset) String() string {
	return string(c)
}

// String satisfies the fmt.Stringer interface for the ContentType type
func (c ContentType) String() string {
	return string(c)
}

// ChooseCharset returns the narrowest charset that represents text without loss:
// us-ascii, then iso-8859-1, then utf-8.
func ChooseCharset(text string) Charset {
	if isASCII(text) {
		return CharsetASCII
	}
	if utf8.ValidString(text) {
		if _, err := charmap.ISO8859_1.NewEncoder().String(text); err == nil {
			return CharsetISO88591
		}
	}
	return CharsetUTF8
}

// encodeText converts text into the byte representation of the given charset
func encodeText(cs Charset, text string) ([]byte, error) {
	switch cs {
	case CharsetASCII:
		if !isASCII(text) {
			return nil, fmt.Errorf("%w: text is not 7-bit clean", ErrEncoding)
		}
		return []byte(text), nil
	case CharsetISO88591:
		b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
		}
		return b, nil
	default:
		return []byte(text), nil
	}
}

// transferEncoding returns the content transfer encoding for a text in the given charset
func transferEncoding(cs Charset) Encoding {
	if cs == CharsetASCII {
		return Encoding7Bit
	}
	return EncodingQP
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
