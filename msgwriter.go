// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"strings"
)

const (
	// MaxHeaderLength defines the maximum line length for a mail header
	// RFC 2047 suggests 76 characters
	MaxHeaderLength = 76

	// MaxBodyLength defines the maximum line length for the base64 encoded body
	MaxBodyLength = 76

	// SingleNewLine is the line break of the wire format
	SingleNewLine = "\r\n"

	// DoubleNewLine ends a header block
	DoubleNewLine = "\r\n\r\n"
)

// msgWriter serializes a Document into its io.Writer and counts the bytes written
type msgWriter struct {
	err error
	mpw *multipart.Writer
	n   int64
	w   io.Writer
}

// Write implements the io.Writer interface for msgWriter
func (mw *msgWriter) Write(p []byte) (int, error) {
	if mw.err != nil {
		return 0, fmt.Errorf("failed to write due to previous error: %w", mw.err)
	}

	var n int
	n, mw.err = mw.w.Write(p)
	mw.n += int64(n)
	return n, mw.err
}

// writeDocument writes the top-level headers, followed by the multipart/mixed body
func (mw *msgWriter) writeDocument(d *Document) {
	for _, f := range d.header {
		mw.writeHeader(f.name, f.values...)
	}
	mw.startMP(d.boundary)
	mw.writeString(DoubleNewLine)
	for _, p := range d.parts {
		mw.writePart(p)
	}
	mw.stopMP()
}

// startMP starts the multipart/mixed container and writes its Content-Type header
func (mw *msgWriter) startMP(boundary string) {
	mw.mpw = multipart.NewWriter(mw)
	if boundary != "" {
		if err := mw.mpw.SetBoundary(boundary); err != nil {
			mw.err = fmt.Errorf("invalid multipart boundary: %w", err)
			return
		}
	}
	ct := mime.FormatMediaType(TypeMultipartMixed.String(), map[string]string{"boundary": mw.mpw.Boundary()})
	ct = strings.Replace(ct, "; ", ";"+SingleNewLine+" ", 1)
	mw.writeString(fmt.Sprintf("%s: %s", HeaderContentType, ct))
}

// stopMP writes the closing boundary
func (mw *msgWriter) stopMP() {
	if mw.mpw == nil || mw.err != nil {
		return
	}
	mw.err = mw.mpw.Close()
}

// writePart writes the headers of a Part and its transfer-encoded content
func (mw *msgWriter) writePart(p *Part) {
	if mw.err != nil {
		return
	}
	pw, err := mw.mpw.CreatePart(p.header)
	if err != nil {
		mw.err = err
		return
	}
	mw.writeBody(pw, p.content, p.enc)
}

// writeString writes a string into the msgWriter's io.Writer interface
func (mw *msgWriter) writeString(s string) {
	if mw.err != nil {
		return
	}
	var n int
	n, mw.err = io.WriteString(mw.w, s)
	mw.n += int64(n)
}

// writeHeader writes a header and folds it at whitespace so that lines stay within
// MaxHeaderLength. Multiple values are separated by commas.
func (mw *msgWriter) writeHeader(k Header, v ...string) {
	mw.writeString(k.String())
	if len(v) == 0 {
		mw.writeString(":" + SingleNewLine)
		return
	}
	mw.writeString(": ")

	lineLen := len(k) + 2
	for i, value := range v {
		if i > 0 {
			mw.writeString(",")
			lineLen++
		}
		for j, word := range strings.Split(value, " ") {
			sep := " "
			if i == 0 && j == 0 {
				sep = ""
			}
			// CRLF is inserted in front of the separating space
			if sep != "" && word != "" && lineLen+len(sep)+len(word) > MaxHeaderLength-2 {
				mw.writeString(SingleNewLine)
				lineLen = 0
			}
			mw.writeString(sep + word)
			lineLen += len(sep) + len(word)
		}
	}
	mw.writeString(SingleNewLine)
}

// writeBody writes the content into w using the provided Encoding
func (mw *msgWriter) writeBody(w io.Writer, content []byte, e Encoding) {
	if mw.err != nil {
		return
	}
	switch e {
	case EncodingB64:
		lb := &Base64LineBreaker{out: w}
		ew := base64.NewEncoder(base64.StdEncoding, lb)
		if _, mw.err = ew.Write(content); mw.err != nil {
			return
		}
		if mw.err = ew.Close(); mw.err != nil {
			return
		}
		mw.err = lb.Close()
	case EncodingQP:
		ew := quotedprintable.NewWriter(w)
		if _, mw.err = ew.Write(content); mw.err != nil {
			return
		}
		mw.err = ew.Close()
	default:
		_, mw.err = w.Write(normalizeNewlines(content))
	}
}

// normalizeNewlines converts bare LF and CR line breaks into CRLF
func normalizeNewlines(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return bytes.ReplaceAll(b, []byte("\n"), []byte(SingleNewLine))
}
