// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"time"
)

// Range of characters for the secure string generation
const cr = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

// Bitmask sizes for the string generator
const (
	letterIdxBits = 6                    // 6 bits to represent a letter index
	letterIdxMask = 1<<letterIdxBits - 1 // All 1-bits, as many as letterIdxBits
	letterIdxMax  = 63 / letterIdxBits   // # of letter indices fitting in 63 bits
)

// randomStringSecure returns a random string of length characters, drawn from
// crypto/rand
func randomStringSecure(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	pool := make([]byte, 8)
	var bits uint64
	rest := 0
	for sb.Len() < length {
		if rest == 0 {
			if _, err := rand.Read(pool); err != nil {
				return "", err
			}
			bits, rest = binary.BigEndian.Uint64(pool), letterIdxMax
		}
		if i := int(bits & letterIdxMask); i < len(cr) {
			sb.WriteByte(cr[i])
		}
		bits >>= letterIdxBits
		rest--
	}
	return sb.String(), nil
}

// newMessageID returns a Message-ID of the form <pid.nanotime.random@hostname>
func newMessageID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost.localdomain"
	}
	random, err := randomStringSecure(16)
	if err != nil {
		random = "0"
	}
	return fmt.Sprintf("<%d.%d.%s@%s>", os.Getpid(), time.Now().UnixNano(), random, hostname)
}
