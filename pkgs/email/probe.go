package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// probeSubjectPrefix starts the subject of every probe message.
const probeSubjectPrefix = "tempmail probe "

// Sender delivers an outgoing message.
type Sender interface {
	Send(opts SendOptions) error
}

// Fetcher lists the decoded messages for an address.
type Fetcher interface {
	FetchForAddress(address string) ([]Message, error)
}

// Prober checks catch-all routing end to end: it mails a tokened message to
// a disposable address and waits for it to show up in the mailbox.
type Prober struct {
	Sender  Sender
	Fetcher Fetcher
	From    string
	// PollInterval defaults to 5 seconds.
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Send mails a probe to addr and returns the token carried in its subject.
func (p *Prober) Send(addr string) (string, error) {
	token := uuid.NewString()
	err := p.Sender.Send(SendOptions{
		From:     p.From,
		To:       []string{addr},
		Subject:  probeSubjectPrefix + token,
		TextBody: fmt.Sprintf("Delivery probe for %s.\r\nToken: %s\r\n", addr, token),
	})
	if err != nil {
		return "", fmt.Errorf("failed to send probe: %w", err)
	}
	p.logger().Info("probe sent", "to", addr, "token", token)
	return token, nil
}

// Wait polls the mailbox until a probe with token arrives for addr or ctx
// is done.
func (p *Prober) Wait(ctx context.Context, addr, token string) (*Message, error) {
	interval := p.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		msgs, err := p.Fetcher.FetchForAddress(addr)
		if err != nil {
			return nil, err
		}
		for i := range msgs {
			if strings.Contains(msgs[i].Subject, token) {
				return &msgs[i], nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("probe %s not delivered to %s: %w", token, addr, ctx.Err())
		case <-ticker.C:
			p.logger().Debug("probe not delivered yet", "to", addr, "token", token)
		}
	}
}

func (p *Prober) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
