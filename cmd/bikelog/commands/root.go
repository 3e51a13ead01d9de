package commands

import (
	"bikelog/internal/trip"
	"bikelog/lib/osutil"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// ConfigEnv overrides where the config file is read from.
const ConfigEnv = "BIKELOG_CONFIG"

var exitCode int

var override bool

func init() {
	rootCmd.Flags().BoolVarP(&override, "override", "o", false, "Override network and time of day restrictions.")
}

var rootCmd = &cobra.Command{
	Use:   "bikelog [-o|--override]",
	Short: "bikelog logs your bike commute trip when you're on the right network.",
	Long: `bikelog logs a bike trip to the commute incentive site. It is meant to
be run every so often by cron; it only submits on weekdays, once per delay period,
and only while connected to one of the configured wifi networks.

The config file is read from $` + ConfigEnv + `, config/config.json in the working
directory, or config/config.json next to the directory holding the executable.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runTrip(cmd.Context(), configPath(), override)
	},
}

// ExecuteContext runs the cli and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	exitCode = 0
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return trip.ExitFailed
	}
	return exitCode
}

func configPath() string {
	if path := os.Getenv(ConfigEnv); path != "" {
		return path
	}
	local := filepath.Join("config", "config.json")
	if osutil.Exists(local) {
		return local
	}
	exe, err := os.Executable()
	if err != nil {
		return local
	}
	return filepath.Join(filepath.Dir(exe), "..", "config", "config.json")
}
