package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/intervals-mcp/config"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the intervals.icu API key stored in the OS keyring",
	Long: `Store, inspect or remove the intervals.icu API key in the OS keyring.

A key set through API_KEY or the config file always takes precedence over
the stored one.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set [api-key]",
	Short: "Store the API key (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthSet,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DeleteAPIKey(); err != nil {
			return err
		}
		fmt.Println("✓ API key removed from keyring")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an API key is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.StoredAPIKey()
		if err != nil && !errors.Is(err, config.ErrNoAPIKey) {
			return err
		}
		fmt.Printf("Keyring (%s): %s\n", config.KeyringService, boolToStatus(err == nil))
		fmt.Printf("API_KEY environment variable: %s\n", boolToStatus(os.Getenv("API_KEY") != ""))
		return nil
	},
}

func init() {
	authCmd.AddCommand(authSetCmd, authDeleteCmd, authStatusCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		fmt.Fprint(os.Stderr, "API key: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		key = line
	}

	if err := config.StoreAPIKey(strings.TrimSpace(key)); err != nil {
		return err
	}
	fmt.Println("✓ API key stored in keyring")
	return nil
}

// apiKeySource reports where the active API key came from.
func apiKeySource() string {
	if os.Getenv("API_KEY") != "" {
		return "environment"
	}
	if stored, err := config.StoredAPIKey(); err == nil && stored == cfg.Intervals.APIKey {
		return "keyring"
	}
	return "config file"
}
