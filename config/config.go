// Package config loads smscview settings from defaults, a YAML file, .env and
// SMSCVIEW_* environment variables.
package config

import "github.com/spachava753/smscview/sms"

// Store kinds.
const (
	StoreMMSSMS = "mmssms"
	StoreIMAP   = "imap"
)

// Config holds all smscview settings.
type Config struct {
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
	Limit    int          `mapstructure:"limit" yaml:"limit"`
	Filter   string       `mapstructure:"filter" yaml:"filter"`
	Store    StoreConfig  `mapstructure:"store" yaml:"store"`
	IMAP     IMAPConfig   `mapstructure:"imap" yaml:"imap"`
	Export   ExportConfig `mapstructure:"export" yaml:"export"`
	SMTP     SMTPConfig   `mapstructure:"smtp" yaml:"smtp"`
}

// StoreConfig selects the message backend.
type StoreConfig struct {
	Kind string `mapstructure:"kind" yaml:"kind"`
	Path string `mapstructure:"path" yaml:"path"`
}

// IMAPConfig configures the SMS backup folder reader.
type IMAPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure"`
}

// ExportConfig configures CSV export. An empty Dir means $HOME/Downloads and
// an empty Timezone means the local zone.
type ExportConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Filename string `mapstructure:"filename" yaml:"filename"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// SMTPConfig configures sharing exports by mail.
type SMTPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	From     string `mapstructure:"from" yaml:"from"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure"`
}

// Default returns configuration with starter defaults.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Limit:    sms.DefaultLimit,
		Filter:   string(sms.FilterBoth),
		Store: StoreConfig{
			Kind: StoreMMSSMS,
			Path: "mmssms.db",
		},
		IMAP: IMAPConfig{
			Addr:    "imap.gmail.com:993",
			Mailbox: "SMS",
		},
		Export: ExportConfig{
			Filename: "sms_export.csv",
		},
		SMTP: SMTPConfig{
			Addr: "smtp.gmail.com:465",
		},
	}
}
