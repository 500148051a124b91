package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show library and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			stats, err := rt.store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, stats)
			}

			doc := rt.settings.Current()
			fmt.Fprintf(out, "Source mode:    %s\n", doc.SourceMode)
			fmt.Fprintf(out, "Auto-scan:      %s\n", formatAutoScan(doc.AutoScanEnabled, doc.AutoScanInterval, doc.AutoScanUnit))
			fmt.Fprintf(out, "Tracked files:  %d\n", stats.TotalFiles)
			if stats.SeriesTotal > 0 {
				fmt.Fprintf(out, "Series:         %d (%d fully linked)\n", stats.SeriesTotal, stats.SeriesLinked)
			}
			fmt.Fprintln(out)

			statuses := make([]string, 0, len(stats.ByStatus))
			for status := range stats.ByStatus {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				rows = append(rows, []string{status, strconv.Itoa(stats.ByStatus[status])})
			}
			fmt.Fprintln(out, renderTable([]string{"Status", "Files"}, rows, 2))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")
	return cmd
}

func formatAutoScan(enabled bool, interval int, unit string) string {
	if !enabled || interval <= 0 {
		return "disabled"
	}
	return fmt.Sprintf("every %d %s", interval, unit)
}
