// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestParseReadMode(t *testing.T) {
	tests := []struct {
		input   string
		want    ReadMode
		wantErr bool
	}{
		{"text", ReadModeText, false},
		{"t", ReadModeText, false},
		{"plain", ReadModeText, false},
		{"p", ReadModeText, false},
		{"r", ReadModeText, false},
		{"PLAIN", ReadModeText, false},
		{"binary", ReadModeBinary, false},
		{"bin", ReadModeBinary, false},
		{"b", ReadModeBinary, false},
		{" RB ", ReadModeBinary, false},
		{"", 0, true},
		{"x", 0, true},
		{"wb", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseReadMode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownReadMode) {
					t.Errorf("expected error %q, got: %v", ErrUnknownReadMode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to parse read mode: %s", err)
			}
			if mode != tt.want {
				t.Errorf("expected read mode %s, got: %s", tt.want, mode)
			}
		})
	}
	if ReadMode(7).String() != "unknown" {
		t.Errorf("expected unknown read mode string, got: %s", ReadMode(7))
	}
}

func TestAttachment_ContentType(t *testing.T) {
	fixed := func(ct string) TypeGuesser {
		return func(string) string { return ct }
	}
	tests := []struct {
		name      string
		path      string
		opts      []AttachmentOption
		wantMajor string
		wantMinor string
		wantErr   bool
	}{
		{"explicit type", "file.bin", []AttachmentOption{WithContentType("application/pdf")}, "application", "pdf", false},
		{"explicit type with params", "file", []AttachmentOption{WithContentType("Text/HTML; charset=utf-8")}, "text", "html", false},
		{"guessed type", "file.png", []AttachmentOption{WithTypeGuesser(fixed("image/png"))}, "image", "png", false},
		{"x-png alias", "file.png", []AttachmentOption{WithTypeGuesser(fixed("image/x-png"))}, "image", "png", false},
		{"citrix png alias", "file.png", []AttachmentOption{WithTypeGuesser(fixed("image/x-citrix-png"))}, "image", "png", false},
		{"pjpeg alias", "file.jpg", []AttachmentOption{WithTypeGuesser(fixed("image/pjpeg"))}, "image", "jpeg", false},
		{"x-pdf alias", "file.pdf", []AttachmentOption{WithTypeGuesser(fixed("application/x-pdf"))}, "application", "pdf", false},
		{"explicit alias is kept", "file.png", []AttachmentOption{WithContentType("image/x-png")}, "image", "x-png", false},
		{
			"default alias is kept", "file",
			[]AttachmentOption{WithTypeGuesser(fixed("")), WithDefaultType("application/x-pdf")},
			"application", "x-pdf", false,
		},
		{"default type", "file", []AttachmentOption{WithTypeGuesser(fixed(""))}, "text", "plain", false},
		{
			"custom default type", "file",
			[]AttachmentOption{WithTypeGuesser(fixed("")), WithDefaultType(TypeOctetStream.String())},
			"application", "octet-stream", false,
		},
		{"nil guesser keeps the default", "file.txt", []AttachmentOption{WithTypeGuesser(nil)}, "text", "plain", false},
		{"missing slash", "file", []AttachmentOption{WithContentType("textplain")}, "", "", true},
		{"empty minor", "file", []AttachmentOption{WithContentType("text/")}, "", "", true},
		{"two slashes", "file", []AttachmentOption{WithContentType("text/plain/extra")}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			major, minor, err := NewAttachment(tt.path, tt.opts...).ContentType()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidContentType) {
					t.Errorf("expected error %q, got: %v", ErrInvalidContentType, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to resolve content type: %s", err)
			}
			if major != tt.wantMajor || minor != tt.wantMinor {
				t.Errorf("expected %s/%s, got: %s/%s", tt.wantMajor, tt.wantMinor, major, minor)
			}
		})
	}
}

func TestAttachment_Basename(t *testing.T) {
	name, err := NewAttachment(filepath.Join("some", "dir", "report.pdf")).Basename()
	if err != nil {
		t.Fatalf("failed to get basename: %s", err)
	}
	if name != "report.pdf" {
		t.Errorf("expected basename report.pdf, got: %s", name)
	}
	if _, err = NewAttachment("bericht-ü.pdf").Basename(); !errors.Is(err, ErrEncoding) {
		t.Errorf("expected error %q, got: %v", ErrEncoding, err)
	}
}

func TestAttachment_Part(t *testing.T) {
	t.Run("text mode", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
			wantEnc Encoding
		}{
			{"7bit text", "hello\r\nworld", Encoding7Bit},
			{"8bit text", "grüße", EncodingQP},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := writeTestFile(t, "notes.txt", []byte(tt.content))
				part, err := NewAttachment(path).Part()
				if err != nil {
					t.Fatalf("failed to build part: %s", err)
				}
				if part.Encoding() != tt.wantEnc {
					t.Errorf("expected encoding %s, got: %s", tt.wantEnc, part.Encoding())
				}
				if part.GetHeader(HeaderContentTransferEnc) != tt.wantEnc.String() {
					t.Errorf("unexpected Content-Transfer-Encoding: %s", part.GetHeader(HeaderContentTransferEnc))
				}
				if string(part.Content()) != tt.content {
					t.Errorf("expected content %q, got: %q", tt.content, part.Content())
				}
				if part.ContentType() != "text/plain" {
					t.Errorf("expected content type text/plain, got: %s", part.ContentType())
				}
			})
		}
	})
	t.Run("binary mode", func(t *testing.T) {
		content := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
		path := writeTestFile(t, "logo.png", content)
		attachment := NewAttachment(path, WithReadMode(ReadModeBinary),
			WithTypeGuesser(func(string) string { return "image/x-png" }))
		part, err := attachment.Part()
		if err != nil {
			t.Fatalf("failed to build part: %s", err)
		}
		if part.Encoding() != EncodingB64 {
			t.Errorf("expected base64 encoding, got: %s", part.Encoding())
		}
		if part.ContentType() != TypePNG.String() {
			t.Errorf("expected content type %s, got: %s", TypePNG, part.ContentType())
		}
		if part.GetHeader(HeaderContentDisposition) != "attachment; filename=logo.png" {
			t.Errorf("unexpected Content-Disposition: %s", part.GetHeader(HeaderContentDisposition))
		}
		if part.GetHeader(HeaderMIMEVersion) != "" {
			t.Error("a part must not carry a MIME-Version header")
		}
	})
	t.Run("filename with space is quoted", func(t *testing.T) {
		path := writeTestFile(t, "my notes.txt", []byte("notes"))
		part, err := NewAttachment(path).Part()
		if err != nil {
			t.Fatalf("failed to build part: %s", err)
		}
		if part.GetHeader(HeaderContentDisposition) != `attachment; filename="my notes.txt"` {
			t.Errorf("unexpected Content-Disposition: %s", part.GetHeader(HeaderContentDisposition))
		}
	})
	t.Run("part is rebuilt on every call", func(t *testing.T) {
		path := writeTestFile(t, "notes.txt", []byte("first"))
		attachment := NewAttachment(path)
		if _, err := attachment.Part(); err != nil {
			t.Fatalf("failed to build part: %s", err)
		}
		if err := os.WriteFile(path, []byte("second"), 0o600); err != nil {
			t.Fatalf("failed to rewrite file: %s", err)
		}
		part, err := attachment.Part()
		if err != nil {
			t.Fatalf("failed to build part: %s", err)
		}
		if string(part.Content()) != "second" {
			t.Errorf("expected the current file content, got: %q", part.Content())
		}
	})
	t.Run("errors", func(t *testing.T) {
		unreadable := t.TempDir()
		tests := []struct {
			name       string
			attachment *Attachment
			wantErr    error
		}{
			{"file not found", NewAttachment(filepath.Join(t.TempDir(), "missing.txt")), ErrFileNotFound},
			{"directory", NewAttachment(unreadable, WithContentType("text/plain")), ErrFileUnreadable},
			{"unknown read mode", NewAttachment("file.txt", WithReadMode(ReadMode(5))), ErrUnknownReadMode},
			{"invalid content type", NewAttachment("file.txt", WithContentType("invalid")), ErrInvalidContentType},
			{"non-ascii name", NewAttachment("grüße.txt"), ErrEncoding},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if tt.name == "directory" && runtime.GOOS == "windows" {
					t.Skip("reading a directory behaves differently on Windows")
				}
				_, err := tt.attachment.Part()
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %q, got: %v", tt.wantErr, err)
				}
			})
		}
	})
}
