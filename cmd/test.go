package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/s0up4200/intervals-mcp/intervals"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to intervals.icu",
	Long:  `Fetch the configured athlete's profile to verify the API key, athlete id and base URL.`,
	PreRunE: initializeApp,
	RunE:    runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to intervals.icu at %s...\n", cfg.Intervals.BaseURL)

	clients := intervals.NewClientManager(logger, intervals.WithUserAgent("intervals-mcp/"+appVersion))
	defer clients.Release()

	executor := intervals.NewExecutor(clients, logger)
	res := executor.Execute(context.Background(), cfg, intervals.RequestSpec{
		Path: "/athlete/" + cfg.Intervals.AthleteID,
	})

	if f := res.Failure(); f != nil {
		err := f.Err()
		var apiErr *intervals.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			fmt.Println("✗ Authentication failed. Check API_KEY or run 'intervals-mcp auth set'.")
		}
		return fmt.Errorf("connection test failed: %w", err)
	}

	fmt.Println("✓ Connection successful!")

	payload, _ := res.Payload()
	profile, _ := payload.(map[string]any)

	fmt.Printf("\nAthlete:\n")
	fmt.Printf("- ID: %s\n", cfg.Intervals.AthleteID)
	if name := cast.ToString(profile["name"]); name != "" {
		fmt.Printf("- Name: %s\n", name)
	}
	if tz := cast.ToString(profile["timezone"]); tz != "" {
		fmt.Printf("- Timezone: %s\n", tz)
	}
	fmt.Printf("- API key source: %s\n", apiKeySource())
	if n := len(cfg.Athlete.Placeholders); n > 0 {
		fmt.Printf("- Extra placeholder tokens: %d\n", n)
	}

	return nil
}
