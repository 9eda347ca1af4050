package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix         = "SMSCVIEW"
	envConfigPath     = "SMSCVIEW_CONFIG"
	defaultConfigName = "smscview.yaml"
)

// Load builds configuration and returns the config file path it consulted.
// Precedence: defaults < config file < .env / environment < caller overrides.
// A missing config file is not an error.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) && logger != nil {
		logger.Warn().Err(err).Msg("failed to read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := ResolvePath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
		if logger != nil {
			logger.Debug().Str("path", configPath).Msg("no config file, using defaults")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, configPath, nil
}

// ResolvePath picks the config file: explicitPath, then $SMSCVIEW_CONFIG, then
// smscview.yaml in the working directory.
func ResolvePath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if path := os.Getenv(envConfigPath); path != "" {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

// WriteDefault writes the default configuration to path. Existing files are
// left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("limit", cfg.Limit)
	v.SetDefault("filter", cfg.Filter)
	v.SetDefault("store.kind", cfg.Store.Kind)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("imap.addr", cfg.IMAP.Addr)
	v.SetDefault("imap.username", cfg.IMAP.Username)
	v.SetDefault("imap.password", cfg.IMAP.Password)
	v.SetDefault("imap.mailbox", cfg.IMAP.Mailbox)
	v.SetDefault("imap.insecure", cfg.IMAP.Insecure)
	v.SetDefault("export.dir", cfg.Export.Dir)
	v.SetDefault("export.filename", cfg.Export.Filename)
	v.SetDefault("export.timezone", cfg.Export.Timezone)
	v.SetDefault("smtp.addr", cfg.SMTP.Addr)
	v.SetDefault("smtp.username", cfg.SMTP.Username)
	v.SetDefault("smtp.password", cfg.SMTP.Password)
	v.SetDefault("smtp.from", cfg.SMTP.From)
	v.SetDefault("smtp.insecure", cfg.SMTP.Insecure)
}
