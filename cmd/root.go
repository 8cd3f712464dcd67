package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/intervals-mcp/config"
)

var (
	cfgFile string
	cfg     config.Config
	logger  zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "intervals-mcp",
	Short: "MCP server exposing intervals.icu activities, events and wellness data",
	Long: `intervals-mcp is a Model Context Protocol server that lets AI assistants
read activities, wellness data and calendar events from intervals.icu, and
plan workouts on the athlete's calendar.

Configuration is read from the environment (API_KEY, ATHLETE_ID,
INTERVALS_API_BASE_URL), an optional .env file and an optional config file.
The API key can also be stored in the OS keyring with "intervals-mcp auth set".`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.intervals-mcp/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads and validates the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	resolved, err := config.NewResolver(cfgFile).Resolve()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = resolved

	logger = setupLogger(cfg.Logging)
	logger.Debug().
		Str("base_url", cfg.Intervals.BaseURL).
		Str("athlete_id", cfg.Intervals.AthleteID).
		Msg("Configuration loaded")

	return nil
}

// setupLogger configures the zerolog logger. Logs always go to stderr so
// they never mix with the stdio transport on stdout.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func boolToStatus(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
