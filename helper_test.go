// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mailer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
)

const (
	// TestServerHost is the address the test MTA listens on
	TestServerHost = "127.0.0.1"
	// TestSenderValid is a sender address the test MTA accepts
	TestSenderValid = "valid-from@domain.tld"
	// TestRcptValid is a recipient address the test MTA accepts
	TestRcptValid = "valid-to@domain.tld"
)

// receivedMessage is one message delivered to the test MTA
type receivedMessage struct {
	from  string
	rcpts []string
	data  []byte
}

// testMTA is an in-process SMTP server with STARTTLS and PLAIN authentication
type testMTA struct {
	host      string
	port      int
	tlsConfig *tls.Config

	noTLS        bool
	users        map[string]string
	refuseSender map[string]bool
	refuseRcpt   map[string]int

	mu           sync.Mutex
	authAttempts []string
	closed       int
	dials        int
	messages     []receivedMessage
}

type mtaOption func(*testMTA)

func withoutSTARTTLS() mtaOption {
	return func(m *testMTA) { m.noTLS = true }
}

func withUser(username, password string) mtaOption {
	return func(m *testMTA) { m.users[username] = password }
}

func withRefusedSender(addr string) mtaOption {
	return func(m *testMTA) { m.refuseSender[addr] = true }
}

// withRefusedRcpt makes the test MTA refuse addr with the given reply code
func withRefusedRcpt(addr string, code int) mtaOption {
	return func(m *testMTA) { m.refuseRcpt[addr] = code }
}

// startTestMTA starts a test MTA on a random port of the loopback interface. It is
// shut down when the test ends.
func startTestMTA(t *testing.T, opts ...mtaOption) *testMTA {
	t.Helper()
	mta := &testMTA{
		host:         TestServerHost,
		users:        make(map[string]string),
		refuseSender: make(map[string]bool),
		refuseRcpt:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(mta)
	}

	cert, pool := selfSignedCert(t)
	listener, err := net.Listen("tcp", net.JoinHostPort(TestServerHost, "0"))
	if err != nil {
		t.Fatalf("failed to listen for test MTA: %s", err)
	}
	mta.port = listener.Addr().(*net.TCPAddr).Port
	mta.tlsConfig = &tls.Config{RootCAs: pool, ServerName: TestServerHost, MinVersion: tls.VersionTLS12}

	server := gosmtp.NewServer(&mtaBackend{mta: mta})
	server.Domain = "localhost"
	server.ReadTimeout = 10 * time.Second
	server.WriteTimeout = 10 * time.Second
	server.MaxRecipients = 50
	if !mta.noTLS {
		server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}
	go func() {
		_ = server.Serve(&countingListener{Listener: listener, mta: mta})
	}()
	t.Cleanup(func() {
		_ = server.Close()
	})
	return mta
}

// serverOptions returns the MailServer options that trust the certificate of the MTA
func (m *testMTA) serverOptions(opts ...Option) []Option {
	return append([]Option{WithTLSConfig(m.tlsConfig), WithTimeout(5 * time.Second), WithHELO("client.test")}, opts...)
}

func (m *testMTA) received() []receivedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]receivedMessage(nil), m.messages...)
}

func (m *testMTA) attempts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.authAttempts...)
}

func (m *testMTA) connections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dials
}

// waitForClosed waits until the server side saw n closed connections
func (m *testMTA) waitForClosed(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed >= n {
			if closed > n {
				t.Fatalf("expected %d closed connections, got: %d", n, closed)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d closed connections", n)
}

// countingListener counts the accepted and closed connections of the test MTA
type countingListener struct {
	net.Listener
	mta *testMTA
}

func (l *countingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	l.mta.mu.Lock()
	l.mta.dials++
	l.mta.mu.Unlock()
	return &countingConn{Conn: conn, mta: l.mta}, nil
}

type countingConn struct {
	net.Conn
	mta  *testMTA
	once sync.Once
}

func (c *countingConn) Close() error {
	c.once.Do(func() {
		c.mta.mu.Lock()
		c.mta.closed++
		c.mta.mu.Unlock()
	})
	return c.Conn.Close()
}

type mtaBackend struct {
	mta *testMTA
}

func (b *mtaBackend) NewSession(_ *gosmtp.Conn) (gosmtp.Session, error) {
	return &mtaSession{mta: b.mta}, nil
}

type mtaSession struct {
	mta   *testMTA
	from  string
	rcpts []string
}

func (s *mtaSession) AuthMechanisms() []string {
	if len(s.mta.users) == 0 {
		return nil
	}
	return []string{sasl.Plain}
}

func (s *mtaSession) Auth(_ string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		s.mta.mu.Lock()
		defer s.mta.mu.Unlock()
		s.mta.authAttempts = append(s.mta.authAttempts, password)
		if want, ok := s.mta.users[username]; ok && want == password {
			return nil
		}
		return errors.New("invalid credentials")
	}), nil
}

func (s *mtaSession) Mail(from string, _ *gosmtp.MailOptions) error {
	if s.mta.refuseSender[from] {
		return &gosmtp.SMTPError{
			Code:         553,
			EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
			Message:      "sender address rejected",
		}
	}
	s.from = from
	s.rcpts = nil
	return nil
}

func (s *mtaSession) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	if code, ok := s.mta.refuseRcpt[to]; ok {
		enhanced := gosmtp.EnhancedCode{5, 1, 1}
		if code < 500 {
			enhanced = gosmtp.EnhancedCode{4, 2, 0}
		}
		return &gosmtp.SMTPError{Code: code, EnhancedCode: enhanced, Message: "mailbox unavailable"}
	}
	s.rcpts = append(s.rcpts, to)
	return nil
}

func (s *mtaSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mta.mu.Lock()
	defer s.mta.mu.Unlock()
	s.mta.messages = append(s.mta.messages, receivedMessage{from: s.from, rcpts: s.rcpts, data: data})
	return nil
}

func (s *mtaSession) Reset() {
	s.from = ""
	s.rcpts = nil
}

func (s *mtaSession) Logout() error {
	return nil
}

// selfSignedCert returns an ECDSA P-256 certificate for localhost and 127.0.0.1 and a
// pool that trusts it
func selfSignedCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate ECDSA key: %s", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("failed to generate serial number: %s", err)
	}
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP(TestServerHost)},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %s", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %s", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}

// writeTestFile writes content to name in a temporary directory and returns the path
func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write test file: %s", err)
	}
	return path
}
