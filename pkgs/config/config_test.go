package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allEnvVars = []string{
	"DOMAIN", "CLEANUP_SECRET", "LISTEN_ADDR", "LOG_LEVEL",
	"IMAP_HOST", "IMAP_USER", "IMAP_PASS", "IMAP_PORT", "IMAP_SSL", "IMAP_STARTTLS", "IMAP_MAILBOX",
	"SMTP_HOST", "SMTP_USER", "SMTP_PASS", "SMTP_PORT", "SMTP_SSL", "SMTP_STARTTLS",
	"RETENTION_DAYS", "CLEANUP_INTERVAL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range allEnvVars {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Domain != "yourdomain.com" {
		t.Errorf("Domain: got %q, want %q", cfg.Domain, "yourdomain.com")
	}
	if cfg.IMAP.Port != 993 {
		t.Errorf("IMAP.Port: got %d, want 993", cfg.IMAP.Port)
	}
	if !cfg.IMAP.SSL {
		t.Error("IMAP.SSL: expected implicit TLS by default")
	}
	if cfg.IMAP.Mailbox != "INBOX" {
		t.Errorf("IMAP.Mailbox: got %q, want INBOX", cfg.IMAP.Mailbox)
	}
	if cfg.Cleanup.RetentionDays != 7 {
		t.Errorf("Cleanup.RetentionDays: got %d, want 7", cfg.Cleanup.RetentionDays)
	}
	if cfg.Cleanup.Interval != 0 {
		t.Errorf("Cleanup.Interval: got %v, want 0", cfg.Cleanup.Interval)
	}
	if cfg.Cleanup.Secret != "" {
		t.Errorf("Cleanup.Secret: got %q, want empty", cfg.Cleanup.Secret)
	}
	if cfg.HTTP.Listen != ":5000" {
		t.Errorf("HTTP.Listen: got %q, want :5000", cfg.HTTP.Listen)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOMAIN", "mail.test")
	t.Setenv("IMAP_HOST", "imap.mail.test")
	t.Setenv("IMAP_USER", "catchall@mail.test")
	t.Setenv("IMAP_PASS", "hunter2")
	t.Setenv("IMAP_PORT", "1993")
	t.Setenv("CLEANUP_SECRET", "s3cret")
	t.Setenv("RETENTION_DAYS", "3")
	t.Setenv("CLEANUP_INTERVAL", "1h")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Domain != "mail.test" {
		t.Errorf("Domain: got %q", cfg.Domain)
	}
	if cfg.IMAP.Host != "imap.mail.test" || cfg.IMAP.Username != "catchall@mail.test" || cfg.IMAP.Password != "hunter2" {
		t.Errorf("IMAP credentials not applied: %+v", cfg.IMAP)
	}
	if cfg.IMAP.Port != 1993 {
		t.Errorf("IMAP.Port: got %d, want 1993", cfg.IMAP.Port)
	}
	if cfg.Cleanup.Secret != "s3cret" {
		t.Errorf("Cleanup.Secret: got %q", cfg.Cleanup.Secret)
	}
	if cfg.Cleanup.RetentionDays != 3 {
		t.Errorf("Cleanup.RetentionDays: got %d, want 3", cfg.Cleanup.RetentionDays)
	}
	if cfg.Cleanup.Interval != time.Hour {
		t.Errorf("Cleanup.Interval: got %v, want 1h", cfg.Cleanup.Interval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_StartTLSDisablesImplicitTLS(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMAP_STARTTLS", "true")
	t.Setenv("IMAP_PORT", "143")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IMAP.SSL {
		t.Error("expected SSL to be switched off when STARTTLS is requested")
	}
	if !cfg.IMAP.StartTLS {
		t.Error("expected StartTLS to be set")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric port", "IMAP_PORT", "abc"},
		{"port out of range", "IMAP_PORT", "70000"},
		{"bad bool", "IMAP_SSL", "maybe"},
		{"zero retention", "RETENTION_DAYS", "0"},
		{"bad interval", "CLEANUP_INTERVAL", "soon"},
		{"domain with at", "DOMAIN", "user@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_SSLAndStartTLSConflict(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMAP_SSL", "true")
	t.Setenv("IMAP_STARTTLS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when both SSL and STARTTLS are set")
	}
}

func TestLoadFile_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	yamlContent := `
domain: file.test
imap:
  host: imap.file.test
  username: box@file.test
  port: 993
  ssl: true
cleanup:
  secret: from-file
  retention_days: 14
  interval: 30m
logging:
  level: warn
`
	path := filepath.Join(t.TempDir(), "tempmail.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLEANUP_SECRET", "from-env")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Domain != "file.test" {
		t.Errorf("Domain: got %q, want file.test", cfg.Domain)
	}
	if cfg.IMAP.Host != "imap.file.test" {
		t.Errorf("IMAP.Host: got %q", cfg.IMAP.Host)
	}
	if cfg.IMAP.Mailbox != "INBOX" {
		t.Errorf("IMAP.Mailbox default lost: got %q", cfg.IMAP.Mailbox)
	}
	if cfg.Cleanup.Secret != "from-env" {
		t.Errorf("Cleanup.Secret: env should win, got %q", cfg.Cleanup.Secret)
	}
	if cfg.Cleanup.RetentionDays != 14 {
		t.Errorf("Cleanup.RetentionDays: got %d, want 14", cfg.Cleanup.RetentionDays)
	}
	if cfg.Cleanup.Interval != 30*time.Minute {
		t.Errorf("Cleanup.Interval: got %v, want 30m", cfg.Cleanup.Interval)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	clearEnv(t)
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("imap: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRequireIMAP(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireIMAP(); err == nil {
		t.Error("expected error without host")
	}
	cfg.IMAP.Host = "imap.example.com"
	if err := cfg.RequireIMAP(); err == nil {
		t.Error("expected error without user")
	}
	cfg.IMAP.Username = "box"
	if err := cfg.RequireIMAP(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExampleYAML_RoundTrips(t *testing.T) {
	clearEnv(t)
	data, err := ExampleYAML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "mail.example.com") {
		t.Errorf("example missing IMAP host:\n%s", data)
	}

	path := filepath.Join(t.TempDir(), "example.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if cfg.Domain != "example.com" {
		t.Errorf("Domain: got %q, want example.com", cfg.Domain)
	}
}
