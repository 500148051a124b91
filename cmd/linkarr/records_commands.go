package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"linkarr/internal/records"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and manage tracked media files",
	}

	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	recordsCmd.AddCommand(newRecordsShowCommand(ctx))
	recordsCmd.AddCommand(newRecordsDeleteCommand(ctx))
	recordsCmd.AddCommand(newRecordsIgnoreCommand(ctx))
	recordsCmd.AddCommand(newRecordsReprocessCommand(ctx))

	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var status, kind, search string
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked media files",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			opts := records.QueryOptions{
				Search: strings.TrimSpace(search),
				Limit:  limit,
				Offset: offset,
			}
			if value := strings.TrimSpace(status); value != "" {
				if !records.ValidStatus(value) {
					return fmt.Errorf("unknown status %q", value)
				}
				opts.Status = records.Status(value)
			}
			if value := strings.TrimSpace(kind); value != "" {
				if !records.ValidKind(value) {
					return fmt.Errorf("unknown kind %q", value)
				}
				opts.Kind = records.MediaKind(value)
			}

			list, err := rt.store.Query(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No records found")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, record := range list {
				rows = append(rows, []string{
					strconv.FormatInt(record.ID, 10),
					string(record.Status),
					string(record.Kind),
					recordTitle(record),
					formatEpisode(record),
					record.SourceFilename,
				})
			}
			if !isTerminal(out) {
				for _, row := range rows {
					fmt.Fprintln(out, strings.Join(row, "\t"))
				}
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Kind", "Title", "Episode", "File"},
				rows, 1))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, matched, linked, failed, manual, ignored)")
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by media kind (movie, tv, unknown)")
	cmd.Flags().StringVar(&search, "search", "", "Filter by title or filename substring")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit records as JSON")
	return cmd
}

func newRecordsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			rt, err := ctx.openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			record, err := rt.store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("record %d not found", id)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, record)
			}

			fmt.Fprintf(out, "ID:          %d\n", record.ID)
			fmt.Fprintf(out, "Status:      %s\n", record.Status)
			fmt.Fprintf(out, "Kind:        %s\n", record.Kind)
			fmt.Fprintf(out, "Source:      %s\n", record.SourcePath)
			fmt.Fprintf(out, "Size:        %d bytes\n", record.FileSize)
			fmt.Fprintf(out, "Parsed:      %s%s\n", record.ParsedTitle, formatParsedDetail(record))
			if record.CatalogID != nil {
				fmt.Fprintf(out, "Catalog:     %s (tmdb %d)\n", catalogLabel(record), *record.CatalogID)
			}
			if record.DestinationPath != "" {
				fmt.Fprintf(out, "Destination: %s\n", record.DestinationPath)
			}
			if record.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:       %s\n", record.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the record as JSON")
	return cmd
}

func newRecordsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record and remove its library link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			rt, err := ctx.openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			removed, err := rt.scanner.DeleteRecord(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("record %d not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted record %d\n", id)
			return nil
		},
	}
}

func newRecordsIgnoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <id>",
		Short: "Mark a record ignored and remove its library link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			rt, err := ctx.openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			record, err := rt.scanner.IgnoreRecord(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ignored %s\n", record.SourceFilename)
			return nil
		},
	}
}

func newRecordsReprocessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <id>",
		Short: "Re-run parse, match, and link for a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			rt, err := ctx.openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			record, err := rt.scanner.ProcessRecord(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", record.SourceFilename, record.Status)
			if record.ErrorMessage != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n", record.ErrorMessage)
			}
			return nil
		},
	}
}

func parseRecordID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", value)
	}
	return id, nil
}

func recordTitle(record *records.Record) string {
	if record.CatalogTitle != "" {
		return record.CatalogTitle
	}
	if record.ParsedTitle != "" {
		return record.ParsedTitle
	}
	return record.SourceFilename
}

func formatEpisode(record *records.Record) string {
	if record.ParsedSeason == nil || record.ParsedEpisode == nil {
		return ""
	}
	return fmt.Sprintf("S%02dE%02d", *record.ParsedSeason, *record.ParsedEpisode)
}

func formatParsedDetail(record *records.Record) string {
	var parts []string
	if record.ParsedYear != nil {
		parts = append(parts, strconv.Itoa(*record.ParsedYear))
	}
	if episode := formatEpisode(record); episode != "" {
		parts = append(parts, episode)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func catalogLabel(record *records.Record) string {
	if record.CatalogYear != nil {
		return fmt.Sprintf("%s (%d)", record.CatalogTitle, *record.CatalogYear)
	}
	return record.CatalogTitle
}
