// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package mailer composes multipart MIME messages with file attachments and delivers
// them in batches over an encrypted and authenticated SMTP session, keeping an optional
// history of what was sent.
package mailer

// VERSION is used in the X-Mailer header
const VERSION = "0.4.0"
