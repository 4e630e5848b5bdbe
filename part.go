// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import "net/textproto"

// Part is one body part of a multipart Document: its MIME headers and the raw,
// not yet transfer-encoded, content. A Part never carries a MIME-Version header.
type Part struct {
	header  textproto.MIMEHeader
	content []byte
	enc     Encoding
}

// newPart returns a Part with the Content-Type and Content-Transfer-Encoding headers set
func newPart(contentType string, enc Encoding, content []byte) *Part {
	header := textproto.MIMEHeader{}
	header.Set(HeaderContentType.String(), contentType)
	header.Set(HeaderContentTransferEnc.String(), enc.String())
	return &Part{header: header, content: content, enc: enc}
}

// Header returns a copy of the MIME headers of the Part
func (p *Part) Header() textproto.MIMEHeader {
	h := make(textproto.MIMEHeader, len(p.header))
	for k, v := range p.header {
		h[k] = append([]string(nil), v...)
	}
	return h
}

// GetHeader returns the first value of the given header
func (p *Part) GetHeader(h Header) string {
	return p.header.Get(h.String())
}

// ContentType returns the Content-Type header of the Part
func (p *Part) ContentType() string {
	return p.header.Get(HeaderContentType.String())
}

// Content returns the raw content of the Part
func (p *Part) Content() []byte {
	return p.content
}

// Encoding returns the transfer encoding that is applied when the Part is written
func (p *Part) Encoding() Encoding {
	return p.enc
}

// setHeader sets a header of the Part. MIME-Version is reserved for the top level.
func (p *Part) setHeader(h Header, v string) {
	if h == HeaderMIMEVersion {
		return
	}
	p.header.Set(h.String(), v)
}
