package main

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/emx-mail/tempmail/pkgs/address"
	"github.com/emx-mail/tempmail/pkgs/config"
)

type generateFlags struct {
	count int
}

func parseGenerateFlags(args []string) generateFlags {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	f := generateFlags{}
	fs.IntVarP(&f.count, "count", "n", 1, "Number of addresses")
	if err := fs.Parse(args); err != nil {
		fatal("generate: %v", err)
	}
	if f.count < 1 {
		fatal("generate: --count must be at least 1")
	}
	return f
}

func handleGenerate(cfg *config.Config, opts generateFlags) error {
	reg := address.NewRegistry(cfg.Domain)
	for i := 0; i < opts.count; i++ {
		addr, err := reg.Generate()
		if err != nil {
			return err
		}
		fmt.Println(addr)
	}
	return nil
}
