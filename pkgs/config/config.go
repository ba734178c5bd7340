// Package config loads the service configuration.
//
// Environment variables always take precedence. An optional YAML file can
// provide the base layer; see ExampleYAML for its shape.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDomain is used when DOMAIN is unset.
	DefaultDomain = "yourdomain.com"
	// DefaultRetentionDays is the cleanup retention window.
	DefaultRetentionDays = 7
)

// ProtocolSettings holds connection settings common to IMAP and SMTP.
type ProtocolSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`

	// SSL enables implicit TLS (connect directly over TLS).
	SSL bool `yaml:"ssl"`
	// StartTLS enables opportunistic TLS upgrade after connecting in plaintext.
	StartTLS bool `yaml:"starttls"`

	// Mailbox is the folder holding the catch-all mail. IMAP only.
	Mailbox string `yaml:"mailbox,omitempty"`
}

// CleanupConfig controls age-based purging.
type CleanupConfig struct {
	Secret        string        `yaml:"secret"`
	RetentionDays int           `yaml:"retention_days"`
	Interval      time.Duration `yaml:"interval"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config holds the application configuration.
type Config struct {
	Domain  string           `yaml:"domain"`
	IMAP    ProtocolSettings `yaml:"imap"`
	SMTP    ProtocolSettings `yaml:"smtp"`
	Cleanup CleanupConfig    `yaml:"cleanup"`
	HTTP    HTTPConfig       `yaml:"http"`
	Logging LoggingConfig    `yaml:"logging"`
}

// Load builds the configuration from defaults and environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file as the base layer, then applies environment
// variables on top.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	cfg.applyDefaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that can never work.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	if strings.Contains(c.Domain, "@") {
		return fmt.Errorf("domain must not contain '@': %s", c.Domain)
	}
	if c.IMAP.Port < 1 || c.IMAP.Port > 65535 {
		return fmt.Errorf("imap port out of range: %d", c.IMAP.Port)
	}
	if c.IMAP.SSL && c.IMAP.StartTLS {
		return fmt.Errorf("imap: ssl and starttls are mutually exclusive")
	}
	if c.SMTP.SSL && c.SMTP.StartTLS {
		return fmt.Errorf("smtp: ssl and starttls are mutually exclusive")
	}
	if c.Cleanup.RetentionDays < 1 {
		return fmt.Errorf("retention days must be at least 1, got %d", c.Cleanup.RetentionDays)
	}
	if c.Cleanup.Interval < 0 {
		return fmt.Errorf("cleanup interval must not be negative")
	}
	return nil
}

// RequireIMAP reports whether enough IMAP settings are present to log in.
func (c *Config) RequireIMAP() error {
	if c.IMAP.Host == "" {
		return fmt.Errorf("IMAP_HOST is not set")
	}
	if c.IMAP.Username == "" {
		return fmt.Errorf("IMAP_USER is not set")
	}
	return nil
}

// RequireSMTP reports whether an SMTP relay is configured.
func (c *Config) RequireSMTP() error {
	if c.SMTP.Host == "" {
		return fmt.Errorf("SMTP_HOST is not set")
	}
	return nil
}

// ExampleYAML returns an example configuration file for "init".
func ExampleYAML() ([]byte, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.IMAP.Host = "mail.example.com"
	cfg.IMAP.Username = "catchall@example.com"
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.Username = "probe@example.com"
	cfg.Domain = "example.com"
	cfg.Cleanup.Secret = "change-me"
	return yaml.Marshal(cfg)
}

// --- internal helpers ---

func (c *Config) applyDefaults() {
	c.Domain = DefaultDomain
	c.IMAP = ProtocolSettings{Port: 993, SSL: true, Mailbox: "INBOX"}
	c.SMTP = ProtocolSettings{Port: 587, StartTLS: true}
	c.Cleanup.RetentionDays = DefaultRetentionDays
	c.HTTP.Listen = ":5000"
	c.Logging.Level = "info"
}

// applyEnvVars overrides values with non-empty environment variables.
func (c *Config) applyEnvVars() error {
	setString(&c.Domain, "DOMAIN")
	setString(&c.Cleanup.Secret, "CLEANUP_SECRET")
	setString(&c.HTTP.Listen, "LISTEN_ADDR")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	if err := applyProtocolEnv(&c.IMAP, "IMAP", "IMAP_PASS"); err != nil {
		return err
	}
	setString(&c.IMAP.Mailbox, "IMAP_MAILBOX")
	if err := applyProtocolEnv(&c.SMTP, "SMTP", "SMTP_PASS"); err != nil {
		return err
	}

	if err := setInt(&c.Cleanup.RetentionDays, "RETENTION_DAYS"); err != nil {
		return err
	}
	if v := os.Getenv("CLEANUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CLEANUP_INTERVAL %q: %w", v, err)
		}
		c.Cleanup.Interval = d
	}
	return nil
}

func applyProtocolEnv(p *ProtocolSettings, prefix, passVar string) error {
	setString(&p.Host, prefix+"_HOST")
	setString(&p.Username, prefix+"_USER")
	setString(&p.Password, passVar)
	if err := setInt(&p.Port, prefix+"_PORT"); err != nil {
		return err
	}
	if err := setBool(&p.SSL, prefix+"_SSL"); err != nil {
		return err
	}
	if err := setBool(&p.StartTLS, prefix+"_STARTTLS"); err != nil {
		return err
	}
	// An explicit STARTTLS request switches off the implicit TLS default.
	if p.StartTLS && os.Getenv(prefix+"_SSL") == "" {
		p.SSL = false
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}
