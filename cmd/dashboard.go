package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/format"
	"github.com/sells-group/branch-risk/internal/model"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the dashboard summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sum, err := dashboard.New(st).Summary(ctx)
		if err != nil {
			return eris.Wrap(err, "dashboard")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, sum)
		}
		formatSummary(os.Stdout, sum)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().Bool("json", false, "print the summary as JSON")
	rootCmd.AddCommand(dashboardCmd)
}

// formatSummary writes the headline figures, profit by type and the
// high-risk list to out.
func formatSummary(out io.Writer, s *dashboard.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Branches:\t%s (%s with data)\n", format.Number(s.TotalBranches), format.Number(s.BranchesWithData))
	_, _ = fmt.Fprintf(w, "Records:\t%s\n", format.Number(s.TotalRecords))
	_, _ = fmt.Fprintf(w, "Latest month:\t%s\n", format.MonthLabel(s.LatestMonth))
	_, _ = fmt.Fprintf(w, "Average profit:\t%s\n", format.Currency(s.AverageProfit))
	_, _ = fmt.Fprintf(w, "Best branch type:\t%s\n", s.BestBranchType)
	_ = w.Flush()

	if len(s.ProfitByType) > 0 {
		_, _ = fmt.Fprintln(out, "\nProfit by type:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, p := range s.ProfitByType {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t(%d)\n", format.BranchTypeLabel(p.BranchType), format.Currency(p.AvgProfit), p.Count)
		}
		_ = w.Flush()
	}

	_, _ = fmt.Fprintln(out, "\nRisk distribution:")
	for _, level := range []model.RiskLevel{model.RiskHigh, model.RiskMedium, model.RiskLow} {
		_, _ = fmt.Fprintf(out, "  %-16s %d\n", format.RiskLabel(level), s.Risk.Count(level))
	}

	if len(s.HighRisk) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "\nHigh-risk branches:")
	for _, r := range s.HighRisk {
		_, _ = fmt.Fprintf(out, "  %3d  %s\n", r.Score, r.Name)
	}
}
