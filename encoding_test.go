// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"errors"
	"testing"
)

func TestChooseCharset(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Charset
	}{
		{"empty", "", CharsetASCII},
		{"ascii", "Hello World!\r\n", CharsetASCII},
		{"latin1", "Grüße, Ærø", CharsetISO88591},
		{"latin1 upper half", "ÿ", CharsetISO88591},
		{"euro sign", "100 €", CharsetUTF8},
		{"cyrillic", "Привет", CharsetUTF8},
		{"emoji", "mail 📧", CharsetUTF8},
		{"invalid utf-8", "\xff\xfe", CharsetUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseCharset(tt.text); got != tt.want {
				t.Errorf("expected charset %s, got: %s", tt.want, got)
			}
		})
	}
}

func TestEncodeText(t *testing.T) {
	latin1, err := encodeText(CharsetISO88591, "Grüße")
	if err != nil {
		t.Fatalf("failed to encode text: %s", err)
	}
	if string(latin1) != "Gr\xfc\xdfe" {
		t.Errorf("unexpected latin1 bytes: %q", latin1)
	}
	if _, err = encodeText(CharsetASCII, "Grüße"); !errors.Is(err, ErrEncoding) {
		t.Errorf("expected error %q, got: %v", ErrEncoding, err)
	}
	if _, err = encodeText(CharsetISO88591, "€"); !errors.Is(err, ErrEncoding) {
		t.Errorf("expected error %q, got: %v", ErrEncoding, err)
	}
	utf8Text, err := encodeText(CharsetUTF8, "€")
	if err != nil || string(utf8Text) != "€" {
		t.Errorf("expected utf-8 text to be kept, got: %q, %v", utf8Text, err)
	}
}

func TestTransferEncoding(t *testing.T) {
	tests := []struct {
		charset Charset
		want    Encoding
	}{
		{CharsetASCII, Encoding7Bit},
		{CharsetISO88591, EncodingQP},
		{CharsetUTF8, EncodingQP},
	}
	for _, tt := range tests {
		t.Run(tt.charset.String(), func(t *testing.T) {
			if got := transferEncoding(tt.charset); got != tt.want {
				t.Errorf("expected %s, got: %s", tt.want, got)
			}
		})
	}
}

func TestEncodeHeaderText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"ascii", "Hello World", "Hello World"},
		{"line breaks", "Hello\r\nWorld\nagain", "Hello World again"},
		{"latin1", "Grüße", "=?iso-8859-1?q?Gr=FC=DFe?="},
		{"utf-8", "€", "=?utf-8?q?=E2=82=AC?="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeHeaderText(tt.text)
			if err != nil {
				t.Fatalf("failed to encode header text: %s", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got: %q", tt.want, got)
			}
		})
	}
}
