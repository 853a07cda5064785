package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/branch-risk/internal/report"
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import performance records from an XLSX workbook",
	Long: `Reads records from the "Records" sheet (or --sheet, or the first sheet).
Required columns: month, sales, rent_cost, staff_count, operating_hours,
complaints, competitor_count, plus branch_id or branch (name). Optional:
nearby_establishments (semicolon separated) and area_class.

Every row is validated before anything is written; one bad row rejects the
whole file.`,
	Args: cobra.ExactArgs(1),
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

		st, closeBroker, err := withAnnouncer(ctx, st, cfg.Notify)
		if err != nil {
			return err
		}
		defer closeBroker()

		branches, err := st.ListBranches(ctx)
		if err != nil {
			return eris.Wrap(err, "import: list branches")
		}

		sheet, _ := cmd.Flags().GetString("sheet")
		records, err := report.ReadRecords(args[0], branches, report.ImportOptions{SheetName: sheet})
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			fmt.Printf("%d records valid, nothing written (dry run)\n", len(records))
			return nil
		}

		n, err := st.ImportRecords(ctx, records)
		if err != nil {
			return eris.Wrap(err, "import: write records")
		}
		zap.L().Info("import complete", zap.String("file", args[0]), zap.Int("records", n))
		fmt.Printf("Imported %d records from %s\n", n, args[0])
		return nil
	},
}

func init() {
	importCmd.Flags().String("sheet", "", "sheet to read (default: Records, then the first sheet)")
	importCmd.Flags().Bool("dry-run", false, "validate the file without writing")
	rootCmd.AddCommand(importCmd)
}
