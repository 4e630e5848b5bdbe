// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package cli implements the mailer command line tool
package cli

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	mailer "github.com/wneessen/go-mailer"
	"github.com/wneessen/go-mailer/internal/config"
	"github.com/wneessen/go-mailer/internal/logging"
)

// ErrNoCACerts is returned if the CA file holds no PEM certificate
var ErrNoCACerts = errors.New("no certificates found in CA file")

// globalFlags holds the persistent flags shared by all commands
type globalFlags struct {
	configPath    string
	host          string
	port          int
	username      string
	password      string
	auth          string
	timeout       time.Duration
	helo          string
	caFile        string
	recordHistory bool
	logLevel      string
	logFormat     string
	debug         bool
}

// Execute runs the root command with the process arguments
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewRootCommand returns the mailer command tree
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "mailer",
		Short:         "Compose mails with attachments and submit them via SMTP",
		Version:       mailer.VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	pf.StringVarP(&flags.host, "host", "H", "", "hostname of the mail server")
	pf.IntVarP(&flags.port, "port", "P", config.DefaultPort, "port of the mail server")
	pf.StringVarP(&flags.username, "user", "u", "", "SMTP AUTH username")
	pf.StringVarP(&flags.password, "password", "p", "", "SMTP AUTH password")
	pf.StringVar(&flags.auth, "auth", config.DefaultAuth, "SMTP AUTH mechanism or \"auto\"")
	pf.DurationVar(&flags.timeout, "timeout", config.DefaultTimeout, "connection timeout")
	pf.StringVar(&flags.helo, "helo", "", "HELO/EHLO name, defaults to the local hostname")
	pf.StringVar(&flags.caFile, "ca-file", "", "PEM bundle to trust instead of the system roots")
	pf.BoolVar(&flags.recordHistory, "record-history", false, "record the delivery history")
	pf.StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel, "log level")
	pf.StringVar(&flags.logFormat, "log-format", config.DefaultLogFormat, "log format (console or json)")
	pf.BoolVar(&flags.debug, "debug", false, "log the SMTP conversation")

	root.AddCommand(newSendCommand(flags))
	root.AddCommand(newComposeCommand())
	root.AddCommand(newTestCommand(flags))
	return root
}

func newTestCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Connect, secure the session and authenticate without sending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, _, err := flags.mailServer(cmd)
			if err != nil {
				return err
			}
			if err = server.TestConnectivityWithContext(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "connection to %s successful\n", server.ServerAddr())
			return err
		},
	}
}

// loadConfig loads the config file or the environment and applies all flags that
// were set explicitly on top
func (f *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if f.configPath != "" {
		cfg, err = config.LoadFromFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	changed := func(name string) bool {
		flag := cmd.Flag(name)
		return flag != nil && flag.Changed
	}
	if changed("host") {
		cfg.Server.Host = f.host
	}
	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("user") {
		cfg.Server.Username = f.username
	}
	if changed("password") {
		cfg.Server.Password = f.password
	}
	if changed("auth") {
		cfg.Server.Auth = f.auth
	}
	if changed("timeout") {
		cfg.Server.Timeout = f.timeout
	}
	if changed("helo") {
		cfg.Server.HELO = f.helo
	}
	if changed("ca-file") {
		cfg.Server.CAFile = f.caFile
	}
	if changed("record-history") {
		cfg.History.Record = f.recordHistory
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if changed("debug") {
		cfg.Logging.Debug = f.debug
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mailServer returns the MailServer for the effective configuration. Log output
// goes to the error stream of cmd.
func (f *globalFlags) mailServer(cmd *cobra.Command) (*mailer.MailServer, *logging.Logger, error) {
	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	authType, err := mailer.ParseSMTPAuthType(cfg.Server.Auth)
	if err != nil {
		return nil, nil, err
	}
	opts := []mailer.Option{
		mailer.WithTimeout(cfg.Server.Timeout),
		mailer.WithRecordHistory(cfg.History.Record),
		mailer.WithLogger(logger.WithComponent("smtp")),
		mailer.WithSMTPAuth(authType),
	}
	if cfg.AuthEnabled() {
		opts = append(opts, mailer.WithCredentials(cfg.Server.Username, cfg.Server.Password))
	}
	if cfg.Server.HELO != "" {
		opts = append(opts, mailer.WithHELO(cfg.Server.HELO))
	}
	if cfg.Logging.Debug {
		opts = append(opts, mailer.WithDebugLog())
	}
	if cfg.Server.CAFile != "" {
		tlsConfig, err := tlsConfigFromCAFile(cfg.Server.Host, cfg.Server.CAFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, mailer.WithTLSConfig(tlsConfig))
	}

	server, err := mailer.NewMailServer(cfg.Server.Host, cfg.Server.Port, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mail server: %w", err)
	}
	return server, logger, nil
}

func tlsConfigFromCAFile(host, path string) (*tls.Config, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: %s", ErrNoCACerts, path)
	}
	return &tls.Config{
		ServerName: host,
		RootCAs:    pool,
		MinVersion: mailer.DefaultTLSMinVersion,
	}, nil
}

// printf writes to w and drops the byte count
func printf(w io.Writer, format string, args ...interface{}) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
