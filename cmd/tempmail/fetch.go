package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/emx-mail/tempmail/pkgs/address"
	"github.com/emx-mail/tempmail/pkgs/config"
)

type fetchFlags struct {
	address string
	json    bool
}

func parseFetchFlags(args []string) fetchFlags {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	f := fetchFlags{}
	fs.StringVarP(&f.address, "address", "a", "", "Address to look up")
	fs.BoolVar(&f.json, "json", false, "Print JSON instead of text")
	if err := fs.Parse(args); err != nil {
		fatal("fetch: %v", err)
	}
	if f.address == "" && fs.NArg() > 0 {
		f.address = fs.Arg(0)
	}
	if f.address == "" {
		fatal("fetch: --address is required")
	}
	return f
}

func handleFetch(cfg *config.Config, opts fetchFlags) error {
	if !address.Valid(opts.address, cfg.Domain) {
		return fmt.Errorf("%s is not an address on %s", opts.address, cfg.Domain)
	}
	mb, err := newMailbox(cfg)
	if err != nil {
		return err
	}

	msgs, err := mb.FetchForAddress(opts.address)
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	}

	if len(msgs) == 0 {
		fmt.Println("No messages.")
		return nil
	}
	for i, msg := range msgs {
		if i > 0 {
			fmt.Println("---")
		}
		fmt.Printf("From:    %s\n", msg.From)
		fmt.Printf("Subject: %s\n\n", msg.Subject)
		fmt.Println(msg.Body)
	}
	return nil
}
