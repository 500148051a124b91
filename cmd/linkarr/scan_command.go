package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkarr/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var directory string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the source directories once",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			summary, err := rt.scanner.Scan(cmd.Context(), scanner.Options{Directory: directory})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, summary)
			}
			fmt.Fprintf(out, "Scanned:   %d\n", summary.Scanned)
			fmt.Fprintf(out, "New:       %d\n", summary.New)
			fmt.Fprintf(out, "Processed: %d\n", summary.Processed)
			fmt.Fprintf(out, "Linked:    %d\n", summary.Linked)
			fmt.Fprintf(out, "Manual:    %d\n", summary.Manual)
			fmt.Fprintf(out, "Failed:    %d\n", summary.Failed)
			fmt.Fprintf(out, "Deleted:   %d\n", summary.Deleted)
			return nil
		},
	}

	cmd.Flags().StringVarP(&directory, "directory", "d", "", "Limit the scan to one directory under a source root")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the scan summary as JSON")
	return cmd
}
