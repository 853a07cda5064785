package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export the branch table and all records to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err := dashboard.New(st).Load(ctx)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		rows := dashboard.BuildRows(snap)
		if byRisk, _ := cmd.Flags().GetBool("by-risk"); byRisk {
			dashboard.SortByRisk(rows)
		}

		if err := report.ExportFile(args[0], rows, snap); err != nil {
			return err
		}
		fmt.Printf("Exported %d branches and %d records to %s\n", len(rows), len(snap.Records), args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().Bool("by-risk", false, "order the branch sheet by risk score, highest first")
	rootCmd.AddCommand(exportCmd)
}
