package main

import (
	"log/slog"

	"github.com/emx-mail/tempmail/pkgs/config"
	"github.com/emx-mail/tempmail/pkgs/email"
)

func newMailbox(cfg *config.Config) (*email.Mailbox, error) {
	if err := cfg.RequireIMAP(); err != nil {
		return nil, err
	}
	dialer := email.IMAPDialer{Config: email.IMAPConfig{
		Host:     cfg.IMAP.Host,
		Port:     cfg.IMAP.Port,
		Username: cfg.IMAP.Username,
		Password: cfg.IMAP.Password,
		SSL:      cfg.IMAP.SSL,
		StartTLS: cfg.IMAP.StartTLS,
	}}
	return email.NewMailbox(dialer, email.MailboxOptions{
		Folder: cfg.IMAP.Mailbox,
		Logger: slog.Default().With("component", "mailbox", "host", cfg.IMAP.Host),
	}), nil
}

func newSMTPClient(cfg *config.Config) (*email.SMTPClient, error) {
	if err := cfg.RequireSMTP(); err != nil {
		return nil, err
	}
	return email.NewSMTPClient(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		SSL:      cfg.SMTP.SSL,
		StartTLS: cfg.SMTP.StartTLS,
	}), nil
}
