// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the layout of Record.Timestamp
const TimestampLayout = "2006-01-02 15:04:05 MST"

// Rejections maps a refused recipient address to the error returned by the server
type Rejections map[string]error

// Record describes one submitted Message
type Record struct {
	// ID identifies the Record
	ID uuid.UUID

	// Message is the submitted Message
	Message *Message

	// From is the envelope sender used for MAIL FROM
	From string

	// Recipients are the envelope recipients used for RCPT TO, in order
	Recipients []string

	// Wire is the serialized document as handed to the server
	Wire string

	// Rejected holds the recipients refused by the server. It is empty if all
	// recipients were accepted.
	Rejected Rejections

	// Timestamp is SentAt in TimestampLayout
	Timestamp string

	// SentAt is the time the submission finished
	SentAt time.Time

	// Response is the final response of the server to the DATA command. It is empty
	// if no recipient was accepted.
	Response string
}

// Accepted returns the recipients that were not rejected
func (r *Record) Accepted() []string {
	accepted := make([]string, 0, len(r.Recipients))
	for _, rcpt := range r.Recipients {
		if _, ok := r.Rejected[rcpt]; !ok {
			accepted = append(accepted, rcpt)
		}
	}
	return accepted
}

// History is an append-only, ordered log of Records. Recording can be switched on and
// off at any time; while it is off, Add drops the Record.
type History struct {
	mu        sync.RWMutex
	recording bool
	records   []*Record
}

// NewHistory returns an empty History with recording switched on or off
func NewHistory(record bool) *History {
	return &History{recording: record}
}

// Timestamp formats t in TimestampLayout
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// SetRecording switches recording of future Records on or off. Records that are
// already stored are kept.
func (h *History) SetRecording(record bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recording = record
}

// IsRecording reports whether Add stores Records
func (h *History) IsRecording() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.recording
}

// Add appends the Record if recording is switched on and reports whether it was stored
func (h *History) Add(r *Record) bool {
	if r == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.recording {
		return false
	}
	h.records = append(h.records, r)
	return true
}

// Clear removes all Records, regardless of the recording state
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}

// Len returns the number of Records
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// At returns the Record at index i. It returns nil if i is out of range.
func (h *History) At(i int) *Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 || i >= len(h.records) {
		return nil
	}
	return h.records[i]
}

// Records returns a copy of the list of Records
func (h *History) Records() []*Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	records := make([]*Record, len(h.records))
	copy(records, h.records)
	return records
}

// All returns an iterator over the index and Record of a snapshot of the History
func (h *History) All() iter.Seq2[int, *Record] {
	records := h.Records()
	return func(yield func(int, *Record) bool) {
		for i, r := range records {
			if !yield(i, r) {
				return
			}
		}
	}
}
