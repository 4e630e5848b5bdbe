// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	mailer "github.com/wneessen/go-mailer"
	"github.com/wneessen/go-mailer/internal/inspect"
	"github.com/wneessen/go-mailer/log"
)

var (
	// ErrInvalidAttachSpec is returned for an --attach value that is not of the form
	// path[:mode[:type]]
	ErrInvalidAttachSpec = errors.New("invalid attachment, expected path[:mode[:type]]")

	// ErrBodyConflict is returned if both --body and --body-file are given
	ErrBodyConflict = errors.New("--body and --body-file are mutually exclusive")
)

// messageFlags holds the flags that describe one Message
type messageFlags struct {
	from     string
	to       []string
	subject  string
	body     string
	bodyFile string
	attach   []string
}

func (m *messageFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&m.from, "from", "f", "", "sender address")
	f.StringArrayVarP(&m.to, "to", "t", nil, "recipient address, can be repeated")
	f.StringVarP(&m.subject, "subject", "s", "", "subject line")
	f.StringVarP(&m.body, "body", "b", "", "text body")
	f.StringVar(&m.bodyFile, "body-file", "", "read the text body from a file, - for stdin")
	f.StringArrayVarP(&m.attach, "attach", "a", nil, "attach a file as path[:mode[:type]], can be repeated")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

// message builds the Message described by the flags
func (m *messageFlags) message(stdin io.Reader) (*mailer.Message, error) {
	body := m.body
	if m.bodyFile != "" {
		if m.body != "" {
			return nil, ErrBodyConflict
		}
		var content []byte
		var err error
		if m.bodyFile == "-" {
			content, err = io.ReadAll(stdin)
		} else {
			content, err = os.ReadFile(m.bodyFile)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		body = string(content)
	}

	attachments := make([]*mailer.Attachment, 0, len(m.attach))
	for _, spec := range m.attach {
		a, err := parseAttachment(spec)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}

	msg := mailer.NewMessage(m.from, m.to,
		mailer.WithSubject(m.subject),
		mailer.WithBody(body),
		mailer.WithAttachments(attachments...))
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// parseAttachment parses an --attach value of the form path[:mode[:type]]
func parseAttachment(spec string) (*mailer.Attachment, error) {
	fields := strings.SplitN(spec, ":", 3)
	if fields[0] == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAttachSpec, spec)
	}
	var opts []mailer.AttachmentOption
	if len(fields) > 1 && fields[1] != "" {
		mode, err := mailer.ParseReadMode(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAttachSpec, spec, err)
		}
		opts = append(opts, mailer.WithReadMode(mode))
	}
	if len(fields) > 2 {
		if fields[2] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAttachSpec, spec)
		}
		opts = append(opts, mailer.WithContentType(fields[2]))
	}
	return mailer.NewAttachment(fields[0], opts...), nil
}

func newSendCommand(flags *globalFlags) *cobra.Command {
	msgFlags := &messageFlags{}
	var printHistory bool
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Compose a mail and submit it to the mail server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := msgFlags.message(cmd.InOrStdin())
			if err != nil {
				return err
			}
			server, logger, err := flags.mailServer(cmd)
			if err != nil {
				return err
			}

			records, err := server.SendWithContext(cmd.Context(), msg)
			out := cmd.OutOrStdout()
			for _, record := range records {
				if perr := printRecord(out, record); perr != nil {
					return perr
				}
			}
			if err != nil {
				var sendErr *mailer.SendError
				if errors.As(err, &sendErr) && sendErr.IsTemp() {
					logger.Warnf(log.Log{Format: "temporary failure, retry later: %s", Messages: []interface{}{err}})
				}
				return err
			}
			if printHistory {
				return printHistoryRecords(out, server.History())
			}
			return nil
		},
	}
	msgFlags.register(cmd)
	cmd.Flags().BoolVar(&printHistory, "print-history", false, "print the recorded history after sending")
	return cmd
}

func newComposeCommand() *cobra.Command {
	msgFlags := &messageFlags{}
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a mail and print its wire format without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := msgFlags.message(cmd.InOrStdin())
			if err != nil {
				return err
			}
			_, err = msg.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	msgFlags.register(cmd)
	return cmd
}

func printRecord(w io.Writer, record *mailer.Record) error {
	if err := printf(w, "%s: accepted %d of %d recipient(s)\n", record.ID,
		len(record.Accepted()), len(record.Recipients)); err != nil {
		return err
	}
	rejected := make([]string, 0, len(record.Rejected))
	for rcpt := range record.Rejected {
		rejected = append(rejected, rcpt)
	}
	sort.Strings(rejected)
	for _, rcpt := range rejected {
		if err := printf(w, "  rejected %s: %s\n", rcpt, record.Rejected[rcpt]); err != nil {
			return err
		}
	}
	if record.Response != "" {
		return printf(w, "  server response: %s\n", record.Response)
	}
	return nil
}

func printHistoryRecords(w io.Writer, history *mailer.History) error {
	if !history.IsRecording() {
		return printf(w, "history recording is disabled\n")
	}
	for i, record := range history.All() {
		summary, err := inspect.Summarize(strings.NewReader(record.Wire))
		if err != nil {
			return fmt.Errorf("failed to inspect history record %d: %w", i, err)
		}
		if err = printf(w, "#%d sent %s\n%s", i, record.Timestamp, summary); err != nil {
			return err
		}
	}
	return nil
}
