package email

import (
	"bytes"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPClient sends mail through a relay. It is used to push probe messages
// at the catch-all domain.
type SMTPClient struct {
	config SMTPConfig
	client *smtp.Client
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
	StartTLS bool

	// TLSConfig is used for SSL and StartTLS when set.
	TLSConfig *tls.Config
}

// SendOptions describes a plain-text message.
type SendOptions struct {
	From     string
	To       []string
	Subject  string
	TextBody string
}

// NewSMTPClient creates a new SMTP client
func NewSMTPClient(config SMTPConfig) *SMTPClient {
	return &SMTPClient{
		config: config,
	}
}

// Connect establishes a connection to the SMTP server
func (c *SMTPClient) Connect() error {
	var dialFn func(addr string, tlsConfig *tls.Config) (*smtp.Client, error)

	tlsCfg := c.config.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{ServerName: c.config.Host}
	}

	if c.config.SSL {
		dialFn = smtp.DialTLS
	} else if c.config.StartTLS {
		dialFn = smtp.DialStartTLS
	} else {
		dialFn = func(addr string, tlsConfig *tls.Config) (*smtp.Client, error) {
			return smtp.Dial(addr)
		}
	}

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	client, err := dialFn(addr, tlsCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	if c.config.Password != "" {
		auth := sasl.NewPlainClient("", c.config.Username, c.config.Password)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	c.client = client
	return nil
}

// Send sends a message, connecting first if needed.
func (c *SMTPClient) Send(opts SendOptions) error {
	if len(opts.To) == 0 {
		return fmt.Errorf("no recipients")
	}
	if c.client == nil {
		if err := c.Connect(); err != nil {
			return err
		}
		defer c.Close()
	}

	msg, err := buildMessage(opts)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	if err := c.client.SendMail(opts.From, opts.To, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// Close closes the SMTP connection
func (c *SMTPClient) Close() error {
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

func buildMessage(opts SendOptions) (*bytes.Buffer, error) {
	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetSubject(opts.Subject)
	header.SetAddressList("From", []*mail.Address{{Address: opts.From}})

	to := make([]*mail.Address, len(opts.To))
	for i, addr := range opts.To {
		to[i] = &mail.Address{Address: addr}
	}
	header.SetAddressList("To", to)
	header.Set("Message-Id", GenerateMessageID(opts.From))
	header.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	w, err := mail.CreateSingleInlineWriter(&buf, header)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(opts.TextBody)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// GenerateMessageID produces a RFC 5322 compliant Message-ID using the
// domain extracted from the sender's email address.
// Format: <timestamp.random@domain>
func GenerateMessageID(fromEmail string) string {
	domain := "localhost"
	if idx := strings.Index(fromEmail, "@"); idx >= 0 {
		domain = fromEmail[idx+1:]
	}

	b := make([]byte, 8)
	_, _ = rand.Read(b)
	randomPart := hex.EncodeToString(b)

	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), randomPart, domain)
}
