package commands

import (
	"bikelog/internal/history"
	"bikelog/internal/settings"
	"bikelog/internal/trip"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "The number of attempts to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [-n <limit>]",
	Short: "Prints the most recent trip submission attempts.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := settings.NewStore(configPath())
		cfg, err := store.Load()
		if err != nil {
			exitCode = fatal(cmd.Context(), "failed to load config", err)
			return
		}
		if cfg.HistoryDB == "" {
			fmt.Fprintln(os.Stderr, "history_db is not set in the config, no attempts are recorded.")
			exitCode = trip.ExitSkipped
			return
		}

		hist, err := history.Open(store.Resolve(cfg.HistoryDB))
		if err != nil {
			exitCode = fatal(cmd.Context(), "failed to open history", err)
			return
		}
		defer hist.Close()

		attempts, err := hist.Recent(cmd.Context(), historyLimit)
		if err != nil {
			exitCode = fatal(cmd.Context(), "failed to read history", err)
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Time", "Outcome", "SSID", "Login", "Submit", "Detail"})
		for _, a := range attempts {
			t.AppendRow(table.Row{
				a.Time.Format(time.DateTime),
				a.Outcome,
				a.SSID,
				a.LoginStatus,
				a.SubmitStatus,
				a.Detail,
			})
		}
		t.Render()
	},
}
