package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change grantsync settings.

Settings are stored in config.toml under the configuration directory.
Credentials are masked when shown; use 'config set-secret' to enter
them without echoing.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a setting so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key>",
	Short: "Set a credential, reading it without echo",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetSecret,
}

// readSecret reads a credential from the terminal. Replaced in tests.
var readSecret = readPassword

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetSecretCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("[Dataset]")
	cmd.Printf("  ID: %s\n", valueOrUnset(settings.Dataset.ID))
	cmd.Printf("  Domain: %s\n", settings.Dataset.Domain)
	cmd.Printf("  Limit: %d\n", settings.Dataset.Limit)
	cmd.Printf("  Requests per second: %g\n", settings.Dataset.RequestsPerSecond)
	cmd.Printf("  Timeout: %s\n", settings.Dataset.Timeout)
	cmd.Printf("  App token: %s\n", maskSecret(settings.Dataset.AppToken))
	cmd.Printf("  Access token: %s\n", maskSecret(settings.Dataset.AccessToken))
	cmd.Println()

	cmd.Println("[Blob]")
	cmd.Printf("  Backend: %s\n", settings.Blob.Backend.Description())
	cmd.Printf("  Container: %s\n", valueOrUnset(settings.Blob.Container))
	cmd.Printf("  Prefix: %s\n", settings.Blob.Prefix)
	switch settings.Blob.Backend {
	case domain.BlobBackendAzure:
		cmd.Printf("  Connection string: %s\n", maskSecret(settings.Blob.ConnectionString))
	case domain.BlobBackendS3:
		cmd.Printf("  Region: %s\n", valueOrUnset(settings.Blob.Region))
		cmd.Printf("  Endpoint: %s\n", valueOrUnset(settings.Blob.Endpoint))
		cmd.Printf("  Access key ID: %s\n", valueOrUnset(settings.Blob.AccessKeyID))
		cmd.Printf("  Secret access key: %s\n", maskSecret(settings.Blob.SecretAccessKey))
		cmd.Printf("  Path style: %t\n", settings.Blob.ForcePathStyle)
	case domain.BlobBackendGCS:
		cmd.Printf("  Endpoint: %s\n", valueOrUnset(settings.Blob.Endpoint))
		cmd.Printf("  Credentials file: %s\n", valueOrUnset(settings.Blob.CredentialsFile))
	}
	cmd.Println()

	cmd.Println("[Output]")
	cmd.Printf("  Directory: %s\n", settings.Output.Dir)
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Bootstrap: %t\n", settings.Sync.Bootstrap)
	cmd.Printf("  History: %t\n", settings.Sync.History)
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'grantsync config set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if svc.IsSecret(key) {
		shown = maskSecret(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runConfigSetSecret(cmd *cobra.Command, args []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}

	key := args[0]
	if !svc.IsSecret(key) {
		return fmt.Errorf("%s is not a credential; use 'grantsync config set'", key)
	}

	cmd.Printf("Enter value for %s: ", key)
	value := readSecret()
	cmd.Println()
	if value == "" {
		return errors.New("value is required")
	}

	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %s\n", key, maskSecret(value))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}

	key := args[0]
	if err := svc.Unset(key); err != nil {
		return fmt.Errorf("failed to unset %s: %w", key, err)
	}
	cmd.Printf("Unset %s\n", key)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}

	for _, key := range svc.Keys() {
		if svc.IsSecret(key) {
			cmd.Printf("%s (secret)\n", key)
			continue
		}
		cmd.Println(key)
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
