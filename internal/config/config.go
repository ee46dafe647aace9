// Package config loads catchlottery settings from defaults, an optional config file,
// CATCHLOTTERY_* environment variables and command-line flags, in increasing order of
// precedence, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata" // time zones on hosts without a zoneinfo database

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/catchlottery/internal/crypto"
	"github.com/pfrederiksen/catchlottery/internal/format"
	"github.com/pfrederiksen/catchlottery/internal/logger"
	"github.com/pfrederiksen/catchlottery/internal/scraper"
)

// EnvPrefix prefixes every environment variable, e.g. CATCHLOTTERY_MAIL_ENABLED
const EnvPrefix = "CATCHLOTTERY"

// Keys shared with command-line flags
const (
	KeySourceURL        = "source_url"
	KeyOutput           = "output"
	KeyCheckLastVersion = "check_last_version"
	KeyTablesFile       = "tables_file"
	KeyDryRun           = "notify.dry_run"
	KeyVerbose          = "verbose"
)

// Config is the complete runtime configuration
type Config struct {
	SourceURL        string          `mapstructure:"source_url" validate:"required,url"`
	Output           string          `mapstructure:"output" validate:"required"`
	Delimiter        DelimiterConfig `mapstructure:"delimiter"`
	CheckLastVersion bool            `mapstructure:"check_last_version"`
	Timezone         string          `mapstructure:"timezone" validate:"required"`
	TablesFile       string          `mapstructure:"tables_file"`
	ContentSelector  string          `mapstructure:"content_selector" validate:"required"`
	Fetch            FetchConfig     `mapstructure:"fetch"`
	Mail             MailConfig      `mapstructure:"mail"`
	Log              LogConfig       `mapstructure:"log"`
	Telegram         TelegramConfig  `mapstructure:"telegram"`
	Twitter          TwitterConfig   `mapstructure:"twitter"`
	Notify           NotifyConfig    `mapstructure:"notify"`
	SecretKey        string          `mapstructure:"secret_key"`
	Verbose          bool            `mapstructure:"verbose"`
}

// DelimiterConfig holds the output file delimiters
type DelimiterConfig struct {
	Info   string `mapstructure:"info" validate:"required"`
	Number string `mapstructure:"number" validate:"required,nefield=Info"`
}

// FetchConfig controls the page download
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

// MailConfig controls failure notification mail
type MailConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	SendTo        []string      `mapstructure:"send_to" validate:"required_if=Enabled true,dive,email"`
	Subject       string        `mapstructure:"subject"`
	Sender        string        `mapstructure:"sender" validate:"required_if=Enabled true"`
	SenderName    string        `mapstructure:"sender_name"`
	SMTPHost      string        `mapstructure:"smtp_host" validate:"required_if=Enabled true"`
	SMTPPort      int           `mapstructure:"smtp_port" validate:"min=0,max=65535"`
	Account       string        `mapstructure:"account"`
	Password      string        `mapstructure:"password"`
	RetryInterval time.Duration `mapstructure:"retry_interval" validate:"min=0"`
	MaxRetries    uint64        `mapstructure:"max_retries"`
	Template      string        `mapstructure:"template"`
}

// LogConfig controls the console log level and the failure log artifacts
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir" validate:"required_if=Enabled true"`
}

// TelegramConfig enables the Telegram notifier when both values are set
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id" validate:"required_with=BotToken"`
}

// Enabled reports whether Telegram notifications are configured
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

// TwitterConfig enables the Twitter direct message notifier when a recipient is set
type TwitterConfig struct {
	APIKey       string `mapstructure:"api_key" validate:"required_with=RecipientID"`
	APISecret    string `mapstructure:"api_secret" validate:"required_with=RecipientID"`
	AccessToken  string `mapstructure:"access_token" validate:"required_with=RecipientID"`
	AccessSecret string `mapstructure:"access_secret" validate:"required_with=RecipientID"`
	RecipientID  string `mapstructure:"recipient_id"`
}

// Enabled reports whether Twitter notifications are configured
func (t TwitterConfig) Enabled() bool {
	return t.RecipientID != ""
}

// NotifyConfig holds settings shared by all notifiers
type NotifyConfig struct {
	DryRun bool `mapstructure:"dry_run"`
}

// SetDefaults registers every key with its default value. Keys must be known to viper
// for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeySourceURL, scraper.ResultsURL)
	v.SetDefault(KeyOutput, "lottery.txt")
	v.SetDefault("delimiter.info", format.DefaultInfoDelimiter)
	v.SetDefault("delimiter.number", format.DefaultNumberDelimiter)
	v.SetDefault(KeyCheckLastVersion, true)
	v.SetDefault("timezone", "Asia/Taipei")
	v.SetDefault(KeyTablesFile, "")
	v.SetDefault("content_selector", scraper.ContentSelector)
	v.SetDefault("fetch.timeout", scraper.Timeout)
	v.SetDefault("fetch.user_agent", scraper.UserAgent)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.send_to", []string{})
	v.SetDefault("mail.subject", "catchlottery run failed")
	v.SetDefault("mail.sender", "")
	v.SetDefault("mail.sender_name", "catchlottery")
	v.SetDefault("mail.smtp_host", "")
	v.SetDefault("mail.smtp_port", 25)
	v.SetDefault("mail.account", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.retry_interval", 30*time.Second)
	v.SetDefault("mail.max_retries", 3)
	v.SetDefault("mail.template", "")

	v.SetDefault("log.level", string(logger.LevelInfo))
	v.SetDefault("log.enabled", true)
	v.SetDefault("log.dir", filepath.Join("App_Data", "Log"))

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetDefault("twitter.api_key", "")
	v.SetDefault("twitter.api_secret", "")
	v.SetDefault("twitter.access_token", "")
	v.SetDefault("twitter.access_secret", "")
	v.SetDefault("twitter.recipient_id", "")

	v.SetDefault(KeyDryRun, false)
	v.SetDefault("secret_key", "")
	v.SetDefault(KeyVerbose, false)
}

// searchPaths lists the config files tried when none is given explicitly
func searchPaths() []string {
	paths := []string{"catchlottery.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".catchlottery.yaml"))
	}
	return paths
}

// Load reads the configuration into v and returns the validated result. An explicit
// configFile must exist; otherwise the first existing file from the search paths is used,
// and running without any config file is allowed.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		for _, p := range searchPaths() {
			if _, err := os.Stat(p); err == nil {
				configFile = p
				break
			}
		}
	} else if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.decryptSecrets(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) decryptSecrets() error {
	enc := crypto.NewEncryptor(c.SecretKey)
	err := enc.DecryptAll(
		&c.Mail.Password,
		&c.Telegram.BotToken,
		&c.Twitter.APIKey,
		&c.Twitter.APISecret,
		&c.Twitter.AccessToken,
		&c.Twitter.AccessSecret,
	)
	if err != nil {
		return fmt.Errorf("decrypting secrets: %w", err)
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	var errs []error

	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	})

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, e := range verrs {
			errs = append(errs, fmt.Errorf("%s %s", fieldKey(e.Namespace()), formatValidationError(e)))
		}
	}

	if c.Mail.Sender != "" {
		if err := validate.Var(c.Mail.Sender, "email"); err != nil {
			errs = append(errs, fmt.Errorf("mail.sender must be a valid email address"))
		}
	}

	d := c.Delimiter
	if d.Info != "" && d.Number != "" && d.Info != d.Number {
		if _, err := format.New(d.Info, d.Number); err != nil {
			errs = append(errs, fmt.Errorf("delimiter: %w", err))
		}
	}

	if c.Log.Level != "" {
		if _, err := logger.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level: %w", err))
		}
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Location returns the configured time zone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// fieldKey turns a validator namespace such as Config.mail.smtp_host into mail.smtp_host
func fieldKey(ns string) string {
	return strings.TrimPrefix(ns, "Config.")
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if", "required_with":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "nefield":
		return fmt.Sprintf("must differ from %s", strings.ToLower(e.Param()))
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
