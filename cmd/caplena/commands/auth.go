package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caplena/caplena-go/internal/constants"
	"github.com/caplena/caplena-go/pkg/caplena"
	"github.com/caplena/caplena-go/pkg/caplenaclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// CLIConfig is the persisted shape of $HOME/.caplena/config.yml.
type CLIConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURI string `yaml:"base_uri,omitempty"`
	Output  string `yaml:"output,omitempty"`
}

// NewAuthCommand creates the auth command.
func NewAuthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Store an API key",
		Long:  "Prompt for a Caplena API key, verify it against the API, and persist it to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthCommand()
		},
	}
}

func runAuthCommand() error {
	apiKey, err := promptAPIKey()
	if err != nil {
		return err
	}

	client, err := caplenaclient.New(verificationConfig(apiKey))
	if err != nil {
		return err
	}

	// One cheap call proves the key works before we persist it.
	_, err = client.Projects().List(context.Background(), 1).Collect()
	if err != nil {
		return fmt.Errorf("verifying API key: %w", err)
	}

	err = saveCLIConfig(&CLIConfig{
		APIKey:  apiKey,
		BaseURI: viper.GetString("base_uri"),
		Output:  viper.GetString("output"),
	})
	if err != nil {
		return err
	}

	_, _ = os.Stdout.WriteString("API key verified and saved\n")

	return nil
}

// verificationConfig builds the client configuration for the key check. The
// check is a single tiny list call, so it runs on the short timeout.
func verificationConfig(apiKey string) *caplena.Config {
	return &caplena.Config{
		APIKey:  apiKey,
		BaseURI: viper.GetString("base_uri"),
		Timeout: constants.ShortHTTPTimeout,
	}
}

func promptAPIKey() (string, error) {
	_, _ = os.Stdout.WriteString("Caplena API key: ")

	keyBytes, err := term.ReadPassword(int(syscall.Stdin))

	_, _ = os.Stdout.WriteString("\n")

	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}

	apiKey := strings.TrimSpace(string(keyBytes))
	if apiKey == "" {
		return "", caplena.ErrAPIKeyRequired
	}

	return apiKey, nil
}

func saveCLIConfig(config *CLIConfig) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}

	configDir := filepath.Join(home, ".caplena")

	err = os.MkdirAll(configDir, constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	raw, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yml")

	err = os.WriteFile(configPath, raw, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
