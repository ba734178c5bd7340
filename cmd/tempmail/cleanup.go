package main

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/emx-mail/tempmail/pkgs/config"
)

type cleanupFlags struct {
	days int
}

func parseCleanupFlags(args []string, defaultDays int) cleanupFlags {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	f := cleanupFlags{}
	fs.IntVarP(&f.days, "days", "d", defaultDays, "Retention window in days")
	if err := fs.Parse(args); err != nil {
		fatal("cleanup: %v", err)
	}
	if f.days < 1 {
		fatal("cleanup: --days must be at least 1")
	}
	return f
}

func handleCleanup(cfg *config.Config, opts cleanupFlags) error {
	mb, err := newMailbox(cfg)
	if err != nil {
		return err
	}
	n, err := mb.Cleanup(opts.days)
	if err != nil {
		return err
	}
	fmt.Printf("Flagged and expunged %d message(s) dated more than %d day(s) ago.\n", n, opts.days)
	return nil
}
