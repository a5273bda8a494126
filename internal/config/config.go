package config

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Destination
	Token  string `mapstructure:"token" yaml:"token"`
	ChatID string `mapstructure:"chat_id" yaml:"chat_id"`

	// Message settings
	Message     string `mapstructure:"message" yaml:"message,omitempty"`
	MessageFile string `mapstructure:"message_file" yaml:"message_file,omitempty"` // "-" reads stdin
	ParseMode   string `mapstructure:"parse_mode" yaml:"parse_mode"`                // "HTML", "MarkdownV2", "Markdown" or empty for plain text

	// Bot API settings
	APIURL              string        `mapstructure:"api_url" yaml:"api_url"`
	Timeout             time.Duration `mapstructure:"timeout" yaml:"-"`
	DisableNotification bool          `mapstructure:"disable_notification" yaml:"disable_notification"`

	// Markdown delivery
	FallbackToText bool          `mapstructure:"fallback_to_text" yaml:"fallback_to_text"`
	ChunkDelay     time.Duration `mapstructure:"chunk_delay" yaml:"-"`

	// Logging
	Verbose          bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel         string `mapstructure:"log_level" yaml:"log_level,omitempty"`
	LogDir           string `mapstructure:"log_dir" yaml:"log_dir,omitempty"`
	LogRetentionDays int    `mapstructure:"log_retention_days" yaml:"log_retention_days"`

	// Warnings collects non-fatal findings from Validate
	Warnings []string `mapstructure:"-" yaml:"-"`
}

// tokenPattern is the shape of tokens issued by @BotFather: <bot id>:<secret>
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]{25,}$`)

// Load loads configuration from various sources
func Load() (*Config, error) {
	// A .env file is optional and never overrides variables already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	// Set default values
	viper.SetDefault("token", "")
	viper.SetDefault("chat_id", "")
	viper.SetDefault("message", "")
	viper.SetDefault("message_file", "")
	viper.SetDefault("parse_mode", "HTML")
	viper.SetDefault("api_url", "https://api.telegram.org")
	viper.SetDefault("timeout", 10*time.Second)
	viper.SetDefault("disable_notification", false)
	viper.SetDefault("fallback_to_text", true)
	viper.SetDefault("chunk_delay", time.Second)
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_level", "")
	viper.SetDefault("log_dir", "")
	viper.SetDefault("log_retention_days", 30)

	// Set config file name and paths
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/tgreport")
		viper.AddConfigPath("$HOME/.tgreport")
	}

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, continue with defaults and env vars
	}

	// TGR_ prefix for every key (e.g., TGR_CHAT_ID maps to chat_id); the
	// conventional TELEGRAM_* names are accepted for the destination too
	viper.SetEnvPrefix("TGR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.BindEnv("token", "TGR_TOKEN", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token env: %w", err)
	}
	if err := viper.BindEnv("chat_id", "TGR_CHAT_ID", "TELEGRAM_CHAT_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind chat_id env: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required fields and records warnings for suspicious values
func (c *Config) Validate() error {
	c.Token = strings.TrimSpace(c.Token)
	c.ChatID = strings.TrimSpace(c.ChatID)

	if c.Token == "" {
		return fmt.Errorf("token is required (set --token, TGR_TOKEN or TELEGRAM_BOT_TOKEN)")
	}
	if c.ChatID == "" {
		return fmt.Errorf("chat_id is required (set --chat-id, TGR_CHAT_ID or TELEGRAM_CHAT_ID)")
	}

	switch c.ParseMode {
	case "HTML", "MarkdownV2", "Markdown", "":
	default:
		return fmt.Errorf("unsupported parse_mode %q (expected HTML, MarkdownV2, Markdown or empty)", c.ParseMode)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.ChunkDelay < 0 {
		return fmt.Errorf("chunk_delay must not be negative, got %s", c.ChunkDelay)
	}

	c.Warnings = nil
	if !tokenPattern.MatchString(c.Token) {
		c.Warnings = append(c.Warnings, "token does not look like a Telegram bot token (<bot id>:<secret>)")
	}
	if !isChatID(c.ChatID) {
		c.Warnings = append(c.Warnings, fmt.Sprintf("chat_id %q is neither numeric nor an @channel username", c.ChatID))
	}

	return nil
}

// isChatID accepts numeric ids (negative for groups) and @channel usernames
func isChatID(s string) bool {
	if strings.HasPrefix(s, "@") {
		return len(s) > 1
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
