package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	buildTime  = "unknown"
)

// SetVersion records build metadata injected through ldflags in main.
func SetVersion(version, built string) {
	if version != "" {
		appVersion = version
	}
	if built != "" {
		buildTime = built
	}
	rootCmd.Version = appVersion
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("intervals-mcp %s (built %s, %s %s/%s)\n",
			appVersion, buildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
