package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

const version = "1.0.0"

// app holds global options parsed from the command line
type app struct {
	configPath string
	logLevel   string
}

func main() {
	a := &app{}

	// Global flags
	flag.StringVar(&a.configPath, "config", "", "YAML config file (environment variables override it)")
	flag.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.CommandLine.SetInterspersed(false)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("tempmail v%s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	// "init" doesn't need config loaded
	if cmd == "init" {
		if err := handleInit(); err != nil {
			fatal("init: %v", err)
		}
		return
	}
	if cmd == "help" {
		printUsage()
		return
	}

	cfg := a.loadConfig()
	setupLogger(cfg.Logging.Level)

	switch cmd {
	case "serve":
		if err := handleServe(cfg); err != nil {
			fatal("serve: %v", err)
		}
	case "generate":
		opts := parseGenerateFlags(cmdArgs)
		if err := handleGenerate(cfg, opts); err != nil {
			fatal("generate: %v", err)
		}
	case "fetch":
		opts := parseFetchFlags(cmdArgs)
		if err := handleFetch(cfg, opts); err != nil {
			fatal("fetch: %v", err)
		}
	case "cleanup":
		opts := parseCleanupFlags(cmdArgs, cfg.Cleanup.RetentionDays)
		if err := handleCleanup(cfg, opts); err != nil {
			fatal("cleanup: %v", err)
		}
	case "export":
		opts := parseExportFlags(cmdArgs)
		if err := handleExport(cfg, opts); err != nil {
			fatal("export: %v", err)
		}
	case "probe":
		opts := parseProbeFlags(cmdArgs)
		if err := handleProbe(cfg, opts); err != nil {
			fatal("probe: %v", err)
		}
	default:
		fatal("unknown command '%s'", cmd)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `tempmail v%s - Disposable email addresses over a catch-all IMAP mailbox

Usage:
  tempmail [global options] <command> [command options]

Commands:
  serve      Run the HTTP API
  generate   Print new random addresses
  fetch      Show the mail received by an address
  cleanup    Delete mail older than the retention window
  export     Write the mail of an address to an mbox file
  probe      Send a test message through SMTP and wait for it to arrive
  init       Print an example YAML config

Global Options:
  --config <path>      YAML config file (environment variables override it)
  --log-level <level>  debug, info, warn or error
  --version            Show version information

Environment:
  DOMAIN, IMAP_HOST, IMAP_USER, IMAP_PASS, IMAP_PORT, IMAP_SSL, IMAP_STARTTLS,
  IMAP_MAILBOX, CLEANUP_SECRET, RETENTION_DAYS, CLEANUP_INTERVAL, LISTEN_ADDR,
  SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS, SMTP_SSL, SMTP_STARTTLS, LOG_LEVEL

Generate Options:
  --count <n>            Number of addresses (default: 1)

Fetch Options:
  --address <addr>       Address to look up (required)
  --json                 Print JSON instead of text

Cleanup Options:
  --days <n>             Retention window in days (default: RETENTION_DAYS or 7)

Export Options:
  --address <addr>       Address to export (required)
  --output <path>        Output mbox file (default: stdout)

Probe Options:
  --to <addr>            Recipient (default: a freshly generated address)
  --from <addr>          Envelope sender (default: SMTP user)
  --wait <duration>      Wait for delivery, e.g. 2m (default: 0, send only)

Examples:
  tempmail serve
  tempmail generate --count 3
  tempmail fetch --address k3v9x0q2m1ab@yourdomain.com
  tempmail cleanup --days 14
  tempmail export --address k3v9x0q2m1ab@yourdomain.com --output box.mbox
  tempmail probe --wait 2m
`, version)
}
