package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/emx-mail/tempmail/pkgs/address"
	"github.com/emx-mail/tempmail/pkgs/config"
	"github.com/emx-mail/tempmail/pkgs/email"
)

type probeFlags struct {
	to       string
	from     string
	wait     time.Duration
	interval time.Duration
}

func parseProbeFlags(args []string) probeFlags {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	f := probeFlags{}
	fs.StringVar(&f.to, "to", "", "Recipient (default: a freshly generated address)")
	fs.StringVar(&f.from, "from", "", "Envelope sender (default: SMTP user)")
	fs.DurationVar(&f.wait, "wait", 0, "Wait this long for delivery (0 sends only)")
	fs.DurationVar(&f.interval, "interval", 5*time.Second, "Mailbox poll interval while waiting")
	if err := fs.Parse(args); err != nil {
		fatal("probe: %v", err)
	}
	return f
}

func handleProbe(cfg *config.Config, opts probeFlags) error {
	smtpClient, err := newSMTPClient(cfg)
	if err != nil {
		return err
	}

	to := opts.to
	if to == "" {
		to, err = address.NewRegistry(cfg.Domain).Generate()
		if err != nil {
			return err
		}
	}
	from := opts.from
	if from == "" {
		from = cfg.SMTP.Username
	}

	prober := &email.Prober{
		Sender:       smtpClient,
		From:         from,
		PollInterval: opts.interval,
		Logger:       slog.Default().With("component", "probe"),
	}

	token, err := prober.Send(to)
	if err != nil {
		return err
	}
	fmt.Printf("Sent probe %s to %s\n", token, to)

	if opts.wait <= 0 {
		return nil
	}

	mb, err := newMailbox(cfg)
	if err != nil {
		return err
	}
	prober.Fetcher = mb

	ctx, cancel := context.WithTimeout(context.Background(), opts.wait)
	defer cancel()

	start := time.Now()
	msg, err := prober.Wait(ctx, to, token)
	if err != nil {
		return err
	}
	fmt.Printf("Delivered after %s: %s\n", time.Since(start).Round(time.Second), msg.Subject)
	return nil
}
