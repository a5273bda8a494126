package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tgreport/internal/config"
	"tgreport/internal/notification"

	"github.com/AlecAivazis/survey/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// NewConfigureCmd creates the configure subcommand
func NewConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactively configure tgreport settings",
		Long: `Configure tgreport in interactive mode.

This command will guide you through setting up:
- Bot token and destination chat
- Default parse mode and Markdown delivery
- Log files

The configuration will be saved to config.yaml and a test message will be sent.`,
		RunE: runConfigure,
	}
}

// ConfigWizard holds the wizard configuration
type ConfigWizard struct {
	// Destination
	Token  string `survey:"token"`
	ChatID string `survey:"chatID"`
	APIURL string `survey:"apiURL"`

	// Messages
	ParseMode      string `survey:"parseMode"`
	FallbackToText bool   `survey:"fallbackToText"`

	// Logging
	Verbose          bool   `survey:"verbose"`
	LogDir           string `survey:"logDir"`
	LogRetentionDays int    `survey:"logRetentionDays"`
}

func runConfigure(cmd *cobra.Command, args []string) error {
	fmt.Println("\ntgreport Configuration Wizard")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	wizard := &ConfigWizard{}

	// Step 1: Bot and chat
	if err := configureTelegram(wizard); err != nil {
		return err
	}

	// Step 2: Message defaults
	if err := configureMessages(wizard); err != nil {
		return err
	}

	// Step 3: Logging
	if err := configureLogging(wizard); err != nil {
		return err
	}

	// Step 4: Test message
	if err := testNotification(wizard); err != nil {
		fmt.Printf("\nWarning: Test message failed: %v\n", err)
		fmt.Println("You can still save the configuration and fix it later.")

		var proceed bool
		prompt := &survey.Confirm{
			Message: "Do you want to save the configuration anyway?",
			Default: true,
		}
		if err := survey.AskOne(prompt, &proceed); err != nil {
			return err
		}
		if !proceed {
			return fmt.Errorf("configuration cancelled")
		}
	} else {
		fmt.Println("\nTest message delivered!")
	}

	// Step 5: Save Configuration
	if err := saveConfiguration(wizard); err != nil {
		return err
	}

	fmt.Println("\nConfiguration saved successfully!")
	fmt.Println("\nYou can now run: tgreport")
	fmt.Println()

	return nil
}

func configureTelegram(wizard *ConfigWizard) error {
	fmt.Println("🤖 Telegram Bot")
	fmt.Println(strings.Repeat("-", 60))

	questions := []*survey.Question{
		{
			Name: "token",
			Prompt: &survey.Password{
				Message: "Bot token:",
				Help:    "Create a bot with @BotFather; format 123456789:ABCdef...",
			},
			Validate: survey.Required,
		},
		{
			Name: "chatID",
			Prompt: &survey.Input{
				Message: "Chat ID:",
				Help:    "Numeric chat id (negative for groups) or @channelusername",
			},
			Validate: survey.Required,
		},
		{
			Name: "apiURL",
			Prompt: &survey.Input{
				Message: "Bot API URL:",
				Default: notification.DefaultAPIURL,
				Help:    "Change only when running a local Bot API server",
			},
		},
	}

	return survey.Ask(questions, wizard)
}

func configureMessages(wizard *ConfigWizard) error {
	fmt.Println("\n✉️ Messages")
	fmt.Println(strings.Repeat("-", 60))

	questions := []*survey.Question{
		{
			Name: "parseMode",
			Prompt: &survey.Select{
				Message: "Default parse mode:",
				Options: []string{"HTML", "MarkdownV2", "Markdown", "none"},
				Default: "HTML",
				Help:    "How Telegram renders the text of the default send command",
			},
		},
		{
			Name: "fallbackToText",
			Prompt: &survey.Confirm{
				Message: "Resend Markdown as plain text when formatting is rejected?",
				Default: true,
			},
		},
	}

	if err := survey.Ask(questions, wizard); err != nil {
		return err
	}
	if wizard.ParseMode == "none" {
		wizard.ParseMode = ""
	}
	return nil
}

func configureLogging(wizard *ConfigWizard) error {
	fmt.Println("\n📝 Logging")
	fmt.Println(strings.Repeat("-", 60))

	questions := []*survey.Question{
		{
			Name: "verbose",
			Prompt: &survey.Confirm{
				Message: "Enable verbose logging?",
				Default: false,
			},
		},
		{
			Name: "logDir",
			Prompt: &survey.Input{
				Message: "Log directory (empty to disable log files):",
				Help:    "Daily app-YYYY-MM-DD.log and errors-YYYY-MM-DD.log files are written here",
			},
		},
		{
			Name: "logRetentionDays",
			Prompt: &survey.Input{
				Message: "Days to keep log files:",
				Default: "30",
			},
		},
	}

	return survey.Ask(questions, wizard)
}

func testNotification(wizard *ConfigWizard) error {
	fmt.Println("\nSending test message...")

	logger := logrus.NewEntry(logrus.New())
	logger.Logger.SetOutput(os.Stderr)        // Send logs to stderr to keep output clean
	logger.Logger.SetLevel(logrus.ErrorLevel) // Only show errors

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var notifier notification.Notifier = notification.NewTelegramNotifierWithClient(
		wizard.Token,
		wizard.ChatID,
		wizard.APIURL,
		nil,
		logger,
	)

	testMessage := "tgreport configuration test\n\nThis is a test message from the configure command.\nIf you see this, your bot and chat are set up correctly!"

	res, err := notifier.Send(ctx, testMessage, "")
	if err != nil {
		return fmt.Errorf("failed to send test message: %w", err)
	}
	return res.Err()
}

// buildConfig maps wizard answers onto the persisted configuration
func buildConfig(wizard *ConfigWizard) *config.Config {
	return &config.Config{
		Token:            wizard.Token,
		ChatID:           wizard.ChatID,
		APIURL:           wizard.APIURL,
		ParseMode:        wizard.ParseMode,
		FallbackToText:   wizard.FallbackToText,
		Verbose:          wizard.Verbose,
		LogDir:           wizard.LogDir,
		LogRetentionDays: wizard.LogRetentionDays,
	}
}

func saveConfiguration(wizard *ConfigWizard) error {
	fmt.Println("\nSaving Configuration")
	fmt.Println(strings.Repeat("-", 60))

	cfg := buildConfig(wizard)

	// Determine config file path
	var configPath string
	prompt := &survey.Input{
		Message: "Config file path:",
		Default: "config.yaml",
		Help:    "Where to save the configuration file",
	}
	if err := survey.AskOne(prompt, &configPath); err != nil {
		return err
	}

	if err := writeConfig(configPath, cfg); err != nil {
		return err
	}

	fmt.Printf("\nConfiguration saved to: %s\n", configPath)

	return nil
}

// writeConfig marshals cfg to YAML at path; the file holds the bot token so it is 0600
func writeConfig(path string, cfg *config.Config) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Marshal to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
