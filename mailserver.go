// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/wneessen/go-mailer/log"
	"github.com/wneessen/go-mailer/smtp"
)

// Defaults
const (
	// DefaultPort is the default connection port to the SMTP server
	DefaultPort = 587

	// DefaultTimeout is the default connection timeout
	DefaultTimeout = time.Second * 15

	// DefaultTLSMinVersion is the minimum TLS version required for the connection
	// Nowadays TLS1.2 should be the sane default
	DefaultTLSMinVersion = tls.VersionTLS12
)

// DialContextFunc is a type to define custom DialContext function.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// MailServer is the configuration of one mail submission endpoint. A connection only
// exists for the duration of a Send or TestConnectivity call.
type MailServer struct {
	// authType is the SMTP AUTH mechanism to use
	authType SMTPAuthType

	// debug enables the SMTP protocol transcript
	debug bool

	// dialContextFunc is a custom DialContext function to dial target SMTP server
	dialContextFunc DialContextFunc

	// fallback produces the credentials for the second login attempt
	fallback CredentialFallback

	// helo is the HELO/EHLO name of the greeting
	helo string

	// history receives one Record per submitted Message
	history *History

	// host is the hostname of the SMTP server
	host string

	// logger receives lifecycle events and, if debug is set, the protocol transcript
	logger log.Logger

	// password is the SMTP AUTH password
	password string

	// port of the SMTP server
	port int

	// timeout for the dial and for every command of the session
	timeout time.Duration

	// tlsConfig is used for the STARTTLS upgrade
	tlsConfig *tls.Config

	// username is the SMTP AUTH username
	username string
}

// Option returns a function that can be used for grouping MailServer options
type Option func(*MailServer) error

var (
	// ErrInvalidPort should be used if a port is specified that is not valid
	ErrInvalidPort = errors.New("invalid port number")

	// ErrInvalidTimeout should be used if a timeout is set that is zero or negative
	ErrInvalidTimeout = errors.New("timeout cannot be zero or negative")

	// ErrInvalidHELO should be used if an empty HELO sting is provided
	ErrInvalidHELO = errors.New("invalid HELO/EHLO value - must not be empty")

	// ErrInvalidTLSConfig should be used if an empty tls.Config is provided
	ErrInvalidTLSConfig = errors.New("invalid TLS config")

	// ErrNoHostname should be used if a MailServer has no hostname set
	ErrNoHostname = errors.New("hostname for mail server cannot be empty")

	// ErrNoSTARTTLS is returned if the server does not offer the STARTTLS extension
	ErrNoSTARTTLS = errors.New("server does not support STARTTLS")

	// ErrInvalidHistory should be used if a nil History is provided
	ErrInvalidHistory = errors.New("history must not be nil")
)

// NewMailServer returns a new MailServer for host and port. History recording is
// switched off unless enabled with WithRecordHistory or WithHistory.
func NewMailServer(host string, port int, opts ...Option) (*MailServer, error) {
	server := &MailServer{
		authType:  SMTPAuthAutoDiscover,
		fallback:  Latin1Credentials,
		history:   NewHistory(false),
		host:      host,
		port:      port,
		timeout:   DefaultTimeout,
		tlsConfig: &tls.Config{ServerName: host, MinVersion: DefaultTLSMinVersion},
	}
	if server.host == "" {
		return nil, ErrNoHostname
	}
	if port < 1 || port > 65535 {
		return nil, ErrInvalidPort
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to read local hostname: %w", err)
	}
	server.helo = hostname

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err = opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return server, nil
}

// WithCredentials sets the SMTP AUTH username and password. Authentication is only
// performed if both are non-empty.
func WithCredentials(username, password string) Option {
	return func(m *MailServer) error {
		m.username = username
		m.password = password
		return nil
	}
}

// WithHistory makes the MailServer append its Records to h
func WithHistory(h *History) Option {
	return func(m *MailServer) error {
		if h == nil {
			return ErrInvalidHistory
		}
		m.history = h
		return nil
	}
}

// WithRecordHistory switches the recording of the History on or off
func WithRecordHistory(record bool) Option {
	return func(m *MailServer) error {
		m.history.SetRecording(record)
		return nil
	}
}

// WithTimeout overrides the default connection timeout
func WithTimeout(t time.Duration) Option {
	return func(m *MailServer) error {
		if t <= 0 {
			return ErrInvalidTimeout
		}
		m.timeout = t
		return nil
	}
}

// WithTLSConfig overrides the default TLS config used for STARTTLS
func WithTLSConfig(c *tls.Config) Option {
	return func(m *MailServer) error {
		if c == nil {
			return ErrInvalidTLSConfig
		}
		m.tlsConfig = c
		return nil
	}
}

// WithHELO overrides the default HELO/EHLO name, which is the local hostname
func WithHELO(h string) Option {
	return func(m *MailServer) error {
		if h == "" {
			return ErrInvalidHELO
		}
		m.helo = h
		return nil
	}
}

// WithLogger sets the logger for lifecycle events and the protocol transcript
func WithLogger(l log.Logger) Option {
	return func(m *MailServer) error {
		m.logger = l
		return nil
	}
}

// WithDebugLog enables the SMTP protocol transcript
func WithDebugLog() Option {
	return func(m *MailServer) error {
		m.debug = true
		return nil
	}
}

// WithDialContextFunc overrides the net.Dialer used to connect to the server
func WithDialContextFunc(f DialContextFunc) Option {
	return func(m *MailServer) error {
		m.dialContextFunc = f
		return nil
	}
}

// WithSMTPAuth sets the SMTP AUTH mechanism. The default is SMTPAuthAutoDiscover.
func WithSMTPAuth(t SMTPAuthType) Option {
	return func(m *MailServer) error {
		m.authType = t
		return nil
	}
}

// WithCredentialFallback overrides Latin1Credentials as the source of the second login
// attempt. A nil fallback disables the second attempt.
func WithCredentialFallback(f CredentialFallback) Option {
	return func(m *MailServer) error {
		m.fallback = f
		return nil
	}
}

// History returns the History owned by the MailServer
func (m *MailServer) History() *History {
	return m.history
}

// ServerAddr returns the host:port combination of the MailServer
func (m *MailServer) ServerAddr() string {
	return net.JoinHostPort(m.host, strconv.Itoa(m.port))
}

// TestConnectivity connects, secures and authenticates a session and closes it again
// without sending anything.
func (m *MailServer) TestConnectivity() error {
	return m.TestConnectivityWithContext(context.Background())
}

// TestConnectivityWithContext is TestConnectivity with a custom context for the dial
func (m *MailServer) TestConnectivityWithContext(ctx context.Context) error {
	client, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.close(client)
	return m.authenticate(client)
}

// Send delivers the messages over one session, in order. See SendWithContext.
func (m *MailServer) Send(messages ...*Message) ([]*Record, error) {
	return m.SendWithContext(context.Background(), messages...)
}

// SendWithContext delivers the messages over one session, in order, and returns one
// Record per submitted Message. Every Message is built before the connection is opened.
//
// Recipients refused by the server are reported in Record.Rejected and do not stop the
// batch. A refused sender stops the batch: the Records of the earlier messages are
// returned together with a *SendError of reason ErrSenderRefused.
func (m *MailServer) SendWithContext(ctx context.Context, messages ...*Message) ([]*Record, error) {
	wires := make([][]byte, len(messages))
	for i, msg := range messages {
		if msg == nil {
			return nil, newSendError(ErrBuildMessage, nil, ErrNilMessage)
		}
		if err := msg.Validate(); err != nil {
			return nil, newSendError(ErrBuildMessage, msg, err)
		}
		wire, err := msg.Bytes()
		if err != nil {
			return nil, newSendError(ErrBuildMessage, msg, err)
		}
		wires[i] = wire
	}

	client, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.close(client)
	if err = m.authenticate(client); err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(messages))
	for i, msg := range messages {
		record, err := m.submit(client, msg, wires[i])
		if err != nil {
			return records, err
		}
		m.history.Add(record)
		records = append(records, record)
	}
	return records, nil
}

// submit runs one mail transaction
func (m *MailServer) submit(client *smtp.Client, msg *Message, wire []byte) (*Record, error) {
	record := &Record{
		ID:       uuid.New(),
		Message:  msg,
		From:     envelopeAddress(msg.From),
		Wire:     string(wire),
		Rejected: make(Rejections),
	}
	for _, addr := range msg.Recipients().Addresses() {
		record.Recipients = append(record.Recipients, envelopeAddress(addr))
	}

	m.refreshDeadline(client)
	if err := client.Mail(record.From); err != nil {
		if errors.Is(err, smtp.ErrLineBreak) {
			return nil, newSendError(ErrBuildMessage, msg, err)
		}
		m.logf(log.LevelWarn, "sender %s refused: %s", record.From, err)
		se := newSendError(ErrSenderRefused, msg, err)
		se.rcpt = record.Recipients
		return nil, se
	}

	for _, rcpt := range record.Recipients {
		m.refreshDeadline(client)
		err := client.Rcpt(rcpt)
		if err == nil {
			continue
		}
		if errors.Is(err, smtp.ErrLineBreak) {
			return nil, newSendError(ErrBuildMessage, msg, err)
		}
		se := newSendError(ErrSMTPRcptTo, msg, err)
		se.rcpt = []string{rcpt}
		var tpErr *textproto.Error
		if !errors.As(err, &tpErr) {
			return nil, se
		}
		m.logf(log.LevelWarn, "recipient %s rejected: %s", rcpt, err)
		record.Rejected[rcpt] = se
	}

	if len(record.Accepted()) == 0 {
		m.refreshDeadline(client)
		if err := client.Reset(); err != nil {
			return nil, newSendError(ErrSMTPReset, msg, err)
		}
		m.stamp(record)
		return record, nil
	}

	m.refreshDeadline(client)
	writer, err := client.Data()
	if err != nil {
		return nil, newSendError(ErrSMTPData, msg, err)
	}
	if _, err = writer.Write(wire); err != nil {
		return nil, newSendError(ErrWriteContent, msg, err)
	}
	if err = writer.Close(); err != nil {
		return nil, newSendError(ErrSMTPDataClose, msg, err)
	}
	record.Response = writer.ServerResponse()
	m.stamp(record)
	m.logf(log.LevelInfo, "message for %d recipient(s) accepted: %s", len(record.Accepted()), record.Response)
	return record, nil
}

// connect dials the server, greets it and upgrades the session with STARTTLS. The
// upgrade is mandatory.
func (m *MailServer) connect(ctx context.Context) (*smtp.Client, error) {
	dialCtx, cancel := context.WithDeadline(ctx, time.Now().Add(m.timeout))
	defer cancel()

	dial := m.dialContextFunc
	if dial == nil {
		dialer := net.Dialer{}
		dial = dialer.DialContext
	}
	conn, err := dial(dialCtx, "tcp", m.ServerAddr())
	if err != nil {
		return nil, newSendError(ErrConnect, nil, err)
	}
	if err = conn.SetDeadline(time.Now().Add(m.timeout)); err != nil {
		_ = conn.Close()
		return nil, newSendError(ErrConnect, nil, err)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return nil, newSendError(ErrConnect, nil, err)
	}
	if m.logger != nil {
		client.SetLogger(m.logger)
	}
	if m.debug {
		client.SetDebugLog(true)
	}
	m.logf(log.LevelDebug, "connected to %s", m.ServerAddr())

	if err = client.Hello(m.helo); err != nil {
		m.close(client)
		return nil, newSendError(ErrConnect, nil, err)
	}
	if ok, _ := client.Extension("STARTTLS"); !ok {
		m.close(client)
		return nil, newSendError(ErrSecure, nil, ErrNoSTARTTLS)
	}
	if err = client.StartTLS(m.tlsConfig); err != nil {
		// the session is mid-handshake, a QUIT would go unanswered
		_ = client.Close()
		return nil, newSendError(ErrSecure, nil, err)
	}
	m.logf(log.LevelDebug, "session upgraded with STARTTLS")
	return client, nil
}

// authenticate logs in if both username and password are set. A login rejected by the
// server is retried once with the credentials of the CredentialFallback.
func (m *MailServer) authenticate(client *smtp.Client) error {
	if m.username == "" || m.password == "" {
		return nil
	}

	m.refreshDeadline(client)
	err := m.login(client, m.username, m.password)
	if err == nil {
		return nil
	}
	var tpErr *textproto.Error
	if !errors.As(err, &tpErr) || m.fallback == nil {
		return newSendError(ErrSMTPAuth, nil, err)
	}
	username, password, ok := m.fallback(m.username, m.password)
	if !ok {
		return newSendError(ErrSMTPAuth, nil, err)
	}

	m.logf(log.LevelInfo, "login rejected, retrying with alternate credential representation")
	m.refreshDeadline(client)
	if retryErr := m.login(client, username, password); retryErr != nil {
		return newSendError(ErrSMTPAuth, nil, err, retryErr)
	}
	return nil
}

func (m *MailServer) login(client *smtp.Client, username, password string) error {
	auth, err := authFor(m.authType, client, m.host, username, password)
	if err != nil {
		return err
	}
	return client.Auth(auth)
}

// close ends the session with QUIT and drops the connection if QUIT fails
func (m *MailServer) close(client *smtp.Client) {
	m.refreshDeadline(client)
	if err := client.Quit(); err != nil {
		m.logf(log.LevelDebug, "QUIT failed, closing connection: %s", err)
		if client.HasConnection() {
			_ = client.Close()
		}
	}
	m.logf(log.LevelDebug, "connection to %s closed", m.ServerAddr())
}

func (m *MailServer) refreshDeadline(client *smtp.Client) {
	if err := client.UpdateDeadline(m.timeout); err != nil {
		m.logf(log.LevelDebug, "%s", err)
	}
}

func (m *MailServer) stamp(record *Record) {
	record.SentAt = time.Now()
	record.Timestamp = Timestamp(record.SentAt)
}

// logf hands a lifecycle event to the logger, if one is set
func (m *MailServer) logf(level log.Level, format string, args ...interface{}) {
	if m.logger == nil {
		return
	}
	entry := log.Log{Direction: log.DirNone, Format: format, Messages: args}
	switch level {
	case log.LevelError:
		m.logger.Errorf(entry)
	case log.LevelWarn:
		m.logger.Warnf(entry)
	case log.LevelInfo:
		m.logger.Infof(entry)
	default:
		m.logger.Debugf(entry)
	}
}
