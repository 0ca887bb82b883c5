// Package config loads deepltr settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/valpere/deepltr/internal/auth"
	"github.com/valpere/deepltr/internal/translator"
)

const (
	DefaultSourceLang = "ZH"
	DefaultTargetLang = "EN"
	DefaultTimeout    = translator.DefaultTimeout
	DefaultLogLevel   = "warn"

	envPrefix = "DEEPLTR"
)

type Config struct {
	AuthKey     string        `mapstructure:"auth_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Service     string        `mapstructure:"service"`
	SourceLang  string        `mapstructure:"source_lang"`
	TargetLang  string        `mapstructure:"target_lang"`
	Timeout     time.Duration `mapstructure:"timeout"`
	DBPath      string        `mapstructure:"db"`
	NoCache     bool          `mapstructure:"no_cache"`
	Credentials string        `mapstructure:"credentials"`
	ProjectID   string        `mapstructure:"project_id"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFile     string        `mapstructure:"log_file"`

	// KeySource records where AuthKey came from, for diagnostics.
	KeySource string `mapstructure:"-"`
}

// New returns a viper instance with defaults and environment bindings set.
// DEEPL_AUTH_KEY is honoured alongside DEEPLTR_AUTH_KEY.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("service", "deepl")
	v.SetDefault("source_lang", DefaultSourceLang)
	v.SetDefault("target_lang", DefaultTargetLang)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("auth_key", envPrefix+"_AUTH_KEY", auth.EnvVar)
	_ = v.BindEnv("credentials", envPrefix+"_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS")

	return v
}

// ReadFile loads path, or $HOME/.deepltr.yaml when path is empty. A missing
// default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigName(".deepltr")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// BindFlags maps command flags onto config keys. Flag names use dashes,
// config keys use underscores.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	return bindErr
}

// Load decodes v into a Config. When no key was supplied by flag, env or
// file, the OS keychain is consulted.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.AuthKey = strings.TrimSpace(cfg.AuthKey)
	if cfg.AuthKey != "" {
		cfg.KeySource = "config"
	} else if key, source := auth.GetKey(false); key != "" {
		cfg.AuthKey = key
		cfg.KeySource = source
	}

	if cfg.DBPath != "" {
		cfg.DBPath = filepath.Clean(cfg.DBPath)
	}
	return &cfg, nil
}

// Validate checks settings needed before any network call is made.
func (c *Config) Validate() error {
	switch c.Service {
	case "deepl":
		if c.AuthKey == "" {
			return translator.ErrMissingAuthKey
		}
	case "google":
	default:
		return fmt.Errorf("unknown service %q (expected deepl or google)", c.Service)
	}
	if c.TargetLang == "" {
		return errors.New("target language is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
