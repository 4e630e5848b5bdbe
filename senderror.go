// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"errors"
	"net/textproto"
	"regexp"
	"strings"
)

// List of SendError reasons
const (
	// ErrConnect is returned if the connection to the SMTP server could not be established
	ErrConnect SendErrReason = iota

	// ErrSecure is returned if the session could not be upgraded with STARTTLS
	ErrSecure

	// ErrSMTPAuth is returned if the SMTP authentication failed with both credential
	// representations
	ErrSMTPAuth

	// ErrSenderRefused is returned if the server refused the MAIL FROM command. It stops
	// the batch.
	ErrSenderRefused

	// ErrSMTPRcptTo is the reason of the per-recipient errors in Record.Rejected
	ErrSMTPRcptTo

	// ErrSMTPData is returned if the Message delivery failed when sending the DATA command
	// to the sending SMTP server
	ErrSMTPData

	// ErrWriteContent is returned if the Message delivery failed when sending the content
	// to the Client writer
	ErrWriteContent

	// ErrSMTPDataClose is returned if the Message delivery failed when trying to close the
	// Client data writer
	ErrSMTPDataClose

	// ErrSMTPReset is returned if the RSET command failed after all recipients were refused
	ErrSMTPReset

	// ErrBuildMessage is returned if a Message of the batch could not be built
	ErrBuildMessage
)

// enhancedStatusRe matches an RFC 3463 enhanced status code
var enhancedStatusRe = regexp.MustCompile(`\b([245])\.\d{1,3}\.\d{1,3}\b`)

// SendError is an error wrapper for delivery errors of the MailServer. It holds the
// reason, the underlying errors, the affected recipients and whether the error is
// temporary.
type SendError struct {
	affectedMsg        *Message
	errcode            int
	enhancedStatusCode string
	errlist            []error
	isTemp             bool
	rcpt               []string
	Reason             SendErrReason
}

// SendErrReason represents a comparable reason on why the delivery failed
type SendErrReason int

// newSendError returns a SendError whose server details are taken from the first
// SMTP reply error in errs
func newSendError(reason SendErrReason, msg *Message, errs ...error) *SendError {
	se := &SendError{Reason: reason, affectedMsg: msg}
	for _, err := range errs {
		if err != nil {
			se.errlist = append(se.errlist, err)
		}
	}
	for _, err := range se.errlist {
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) {
			se.errcode = tpErr.Code
			se.isTemp = tpErr.Code >= 400 && tpErr.Code < 500
			se.enhancedStatusCode = enhancedStatusRe.FindString(tpErr.Msg)
			break
		}
	}
	return se
}

// Error implements the error interface for the SendError type.
func (e *SendError) Error() string {
	if e.Reason > ErrBuildMessage {
		return "unknown reason"
	}

	var errMessage strings.Builder
	errMessage.WriteString(e.Reason.String())
	if len(e.errlist) > 0 {
		errMessage.WriteRune(':')
		for i := range e.errlist {
			errMessage.WriteRune(' ')
			errMessage.WriteString(e.errlist[i].Error())
			if i != len(e.errlist)-1 {
				errMessage.WriteString(",")
			}
		}
	}
	if len(e.rcpt) > 0 {
		errMessage.WriteString(", affected recipient(s): ")
		errMessage.WriteString(strings.Join(e.rcpt, ", "))
	}
	return errMessage.String()
}

// Is implements the errors.Is functionality and compares the SendErrReason and the
// temporary flag.
func (e *SendError) Is(errType error) bool {
	var t *SendError
	if errors.As(errType, &t) && t != nil {
		return e.Reason == t.Reason && e.isTemp == t.isTemp
	}
	return false
}

// Unwrap returns the underlying errors
func (e *SendError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return e.errlist
}

// IsTemp returns true if the delivery error is of a temporary nature (a 4xx reply)
// and can be retried.
func (e *SendError) IsTemp() bool {
	if e == nil {
		return false
	}
	return e.isTemp
}

// Msg returns the Message that caused the error, if any
func (e *SendError) Msg() *Message {
	if e == nil {
		return nil
	}
	return e.affectedMsg
}

// Recipients returns the recipients affected by the error
func (e *SendError) Recipients() []string {
	if e == nil {
		return nil
	}
	return e.rcpt
}

// EnhancedStatusCode returns the RFC 3463 enhanced status code of the server reply,
// or an empty string if the reply carried none.
func (e *SendError) EnhancedStatusCode() string {
	if e == nil {
		return ""
	}
	return e.enhancedStatusCode
}

// ErrorCode returns the SMTP reply code of the server, or 0 if the error was not
// returned by the server.
func (e *SendError) ErrorCode() int {
	if e == nil {
		return 0
	}
	return e.errcode
}

// String satisfies the fmt.Stringer interface for the SendErrReason type.
func (r SendErrReason) String() string {
	switch r {
	case ErrConnect:
		return "connecting to SMTP server"
	case ErrSecure:
		return "upgrading SMTP session with STARTTLS"
	case ErrSMTPAuth:
		return "SMTP authentication"
	case ErrSenderRefused:
		return "sender refused by SMTP server"
	case ErrSMTPRcptTo:
		return "sending SMTP RCPT TO command"
	case ErrSMTPData:
		return "sending SMTP DATA command"
	case ErrWriteContent:
		return "sending message content"
	case ErrSMTPDataClose:
		return "closing SMTP DATA writer"
	case ErrSMTPReset:
		return "sending SMTP RESET command"
	case ErrBuildMessage:
		return "building message"
	}
	return "unknown reason"
}
