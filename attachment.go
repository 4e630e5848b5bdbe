// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ReadMode defines how the file of an Attachment is read and encoded
type ReadMode int

const (
	// ReadModeText reads the file as text. 7-bit clean content is attached as is,
	// anything else is quoted-printable encoded.
	ReadModeText ReadMode = iota

	// ReadModeBinary reads the file as raw bytes and attaches them base64 encoded.
	ReadModeBinary
)

// readModes maps the accepted read mode names to their ReadMode
var readModes = map[string]ReadMode{
	"text":   ReadModeText,
	"t":      ReadModeText,
	"plain":  ReadModeText,
	"p":      ReadModeText,
	"r":      ReadModeText,
	"binary": ReadModeBinary,
	"bin":    ReadModeBinary,
	"b":      ReadModeBinary,
	"rb":     ReadModeBinary,
}

// contentTypeAliases maps legacy and experimental media types to their registered form
var contentTypeAliases = map[string]string{
	"image/x-png":         "image/png",
	"image/x-citrix-png":  "image/png",
	"image/pjpeg":         "image/jpeg",
	"image/jpg":           "image/jpeg",
	"image/x-citrix-jpeg": "image/jpeg",
	"application/x-pdf":   "application/pdf",
}

// TypeGuesser returns the media type for a file path, or an empty string if the
// type is unknown
type TypeGuesser func(path string) string

// AttachmentOption returns a function that can be used for grouping Attachment options
type AttachmentOption func(*Attachment)

// Attachment builds a MIME body part from a file. It is a stateless value: the
// Part is rebuilt from the file on every call.
type Attachment struct {
	path        string
	mode        ReadMode
	contentType string
	defaultType string
	guess       TypeGuesser
}

// ParseReadMode returns the ReadMode for one of the names "text", "t", "plain", "p",
// "r", "binary", "bin", "b" or "rb". The comparison is case-insensitive.
func ParseReadMode(s string) (ReadMode, error) {
	mode, ok := readModes[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownReadMode, s)
	}
	return mode, nil
}

// String satisfies the fmt.Stringer interface for the ReadMode type
func (m ReadMode) String() string {
	switch m {
	case ReadModeText:
		return "text"
	case ReadModeBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// NewAttachment returns a new Attachment for the file at path. It is read in text
// mode with a guessed content type by default.
func NewAttachment(path string, opts ...AttachmentOption) *Attachment {
	a := &Attachment{
		path:        path,
		mode:        ReadModeText,
		defaultType: TypeTextPlain.String(),
		guess:       GuessTypeByExtension,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// WithReadMode sets the ReadMode of the Attachment
func WithReadMode(m ReadMode) AttachmentOption {
	return func(a *Attachment) {
		a.mode = m
	}
}

// WithContentType sets an explicit content type and disables guessing
func WithContentType(ct string) AttachmentOption {
	return func(a *Attachment) {
		a.contentType = ct
	}
}

// WithDefaultType sets the content type used when none is given and none can be guessed
func WithDefaultType(ct string) AttachmentOption {
	return func(a *Attachment) {
		a.defaultType = ct
	}
}

// WithTypeGuesser overrides the TypeGuesser of the Attachment
func WithTypeGuesser(g TypeGuesser) AttachmentOption {
	return func(a *Attachment) {
		if g != nil {
			a.guess = g
		}
	}
}

// GuessTypeByExtension is the default TypeGuesser. It looks up the extension of path
// in the system MIME type table.
func GuessTypeByExtension(path string) string {
	return mime.TypeByExtension(filepath.Ext(path))
}

// Path returns the file path of the Attachment
func (a *Attachment) Path() string {
	return a.path
}

// ReadMode returns the ReadMode of the Attachment
func (a *Attachment) ReadMode() ReadMode {
	return a.mode
}

// ContentType resolves the media type of the Attachment and returns its major and
// minor type in lower case: the explicit type if set, else the guessed type with
// legacy aliases normalized, else the default type. Explicit and default types are
// used as given.
func (a *Attachment) ContentType() (string, string, error) {
	ct, guessed := a.contentType, false
	if ct == "" && a.guess != nil {
		ct, guessed = a.guess(a.path), true
	}
	if ct == "" {
		ct, guessed = a.defaultType, false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %w", ErrInvalidContentType, ct, err)
	}
	if alias, ok := contentTypeAliases[mediaType]; ok && guessed {
		mediaType = alias
	}
	major, minor, ok := strings.Cut(mediaType, "/")
	if !ok || major == "" || minor == "" || strings.Contains(minor, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidContentType, ct)
	}
	return major, minor, nil
}

// Basename returns the last element of the path. It fails with ErrEncoding if the
// name is not representable in US-ASCII, as required for the filename parameter.
func (a *Attachment) Basename() (string, error) {
	name := filepath.Base(a.path)
	if !isASCII(name) {
		return "", fmt.Errorf("%w: attachment name %q is not US-ASCII", ErrEncoding, name)
	}
	return name, nil
}

// Part reads the file and returns the MIME body part of the Attachment
func (a *Attachment) Part() (*Part, error) {
	if a.mode != ReadModeText && a.mode != ReadModeBinary {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReadMode, a.mode)
	}
	major, minor, err := a.ContentType()
	if err != nil {
		return nil, err
	}
	name, err := a.Basename()
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(a.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrFileUnreadable, err)
	}

	enc := EncodingB64
	if a.mode == ReadModeText {
		enc = Encoding7Bit
		if !isASCII(string(content)) {
			enc = EncodingQP
		}
	}
	p := newPart(major+"/"+minor, enc, content)
	p.setHeader(HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	return p, nil
}
