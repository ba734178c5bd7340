package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/emx-mail/tempmail/pkgs/address"
	"github.com/emx-mail/tempmail/pkgs/config"
	"github.com/emx-mail/tempmail/pkgs/email"
)

type exportFlags struct {
	address string
	output  string
}

func parseExportFlags(args []string) exportFlags {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	f := exportFlags{}
	fs.StringVarP(&f.address, "address", "a", "", "Address to export")
	fs.StringVarP(&f.output, "output", "o", "", "Output mbox file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		fatal("export: %v", err)
	}
	if f.address == "" {
		fatal("export: --address is required")
	}
	return f
}

func handleExport(cfg *config.Config, opts exportFlags) error {
	if !address.Valid(opts.address, cfg.Domain) {
		return fmt.Errorf("%s is not an address on %s", opts.address, cfg.Domain)
	}
	mb, err := newMailbox(cfg)
	if err != nil {
		return err
	}

	raws, err := mb.FetchRawForAddress(opts.address)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := email.ExportMbox(w, raws); err != nil {
		return err
	}
	if opts.output != "" {
		fmt.Fprintf(os.Stderr, "Exported %d message(s) to %s\n", len(raws), opts.output)
	}
	return nil
}
