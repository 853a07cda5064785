package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/format"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Print the risk score of every branch",
	Long: `Scores each branch from its latest performance record and history.

Rules: negative profit (35), rent above 35% of sales (20), five or more
competitors (15), ten or more complaints (10), three consecutive months of
falling sales (20). Scores are capped at 100; 67+ is high risk, 34-66 medium.

Examples:
  # Risk table, highest score first
  score

  # Export as CSV
  score --format csv --output scores.csv

  # Factor breakdown for one branch
  score --branch 1f0c...`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("branch", "", "show the factor breakdown for a single branch id")
	f.String("format", "table", "output format: table, csv or json")
	f.String("output", "", "output file path (default: stdout)")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("store"); err != nil {
		return err
	}

	branchID, _ := cmd.Flags().GetString("branch")
	outFormat, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	switch outFormat {
	case "table", "csv", "json":
	default:
		return eris.Errorf("score: --format must be table, csv or json (got %q)", outFormat)
	}

	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	dash := dashboard.New(st)

	w, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	if branchID != "" {
		detail, err := dash.BranchDetail(ctx, branchID)
		if err != nil {
			return eris.Wrapf(err, "score: branch %s", branchID)
		}
		if outFormat == "json" {
			return writeJSON(w, detail)
		}
		writeBranchBreakdown(w, detail)
		return nil
	}

	rows, err := dash.BranchRows(ctx)
	if err != nil {
		return eris.Wrap(err, "score: load branches")
	}
	dashboard.SortByRisk(rows)

	switch outFormat {
	case "csv":
		return writeScoreCSV(w, rows)
	case "json":
		return writeJSON(w, rows)
	default:
		writeScoreTable(w, rows)
		return nil
	}
}

// openOutput returns stdout or a created file, with a matching close func.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output file %s", path)
	}
	return f, func() { f.Close() }, nil //nolint:errcheck
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode json")
}

func writeScoreTable(out io.Writer, rows []dashboard.BranchRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "No branches found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BRANCH\tTYPE\tMONTH\tPROFIT\tRENT %\tSCORE\tLEVEL")
	_, _ = fmt.Fprintln(w, "------\t----\t-----\t------\t------\t-----\t-----")
	for _, r := range rows {
		if !r.HasData {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t-\t-\t-\tno data\n",
				format.Truncate(r.Name, 30), format.BranchTypeLabel(r.BranchType), format.MonthLabel(r.LatestMonth))
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			format.Truncate(r.Name, 30),
			format.BranchTypeLabel(r.BranchType),
			format.MonthLabel(r.LatestMonth),
			format.Currency(r.Profit),
			format.Percent(r.RentRatio),
			r.Score,
			r.Level,
		)
	}
	_ = w.Flush()
}

func writeScoreCSV(out io.Writer, rows []dashboard.BranchRow) error {
	w := csv.NewWriter(out)
	header := []string{"branch_id", "name", "branch_type", "month", "sales", "rent_cost", "profit", "rent_ratio", "complaints", "competitor_count", "score", "level"}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "score: write csv header")
	}
	for _, r := range rows {
		rec := []string{r.BranchID, r.Name, string(r.BranchType), "", "", "", "", "", "", "", "", ""}
		if r.HasData {
			rec = []string{
				r.BranchID,
				r.Name,
				string(r.BranchType),
				r.LatestMonth.String(),
				strconv.FormatFloat(r.Sales, 'f', 2, 64),
				strconv.FormatFloat(r.RentCost, 'f', 2, 64),
				strconv.FormatFloat(r.Profit, 'f', 2, 64),
				strconv.FormatFloat(r.RentRatio, 'f', 4, 64),
				strconv.Itoa(r.Complaints),
				strconv.Itoa(r.CompetitorCount),
				strconv.Itoa(r.Score),
				string(r.Level),
			}
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "score: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "score: flush csv")
}

func writeBranchBreakdown(out io.Writer, d *dashboard.BranchDetail) {
	_, _ = fmt.Fprintf(out, "Branch:  %s\n", d.Branch.Name)
	_, _ = fmt.Fprintf(out, "Type:    %s\n", format.BranchTypeLabel(d.Branch.BranchType))
	_, _ = fmt.Fprintf(out, "Opened:  %s\n", format.DateLabel(d.Branch.OpeningDate))
	if d.Latest == nil {
		_, _ = fmt.Fprintln(out, "\nNo performance records.")
		return
	}

	_, _ = fmt.Fprintf(out, "Month:   %s\n", format.MonthLabel(d.Latest.Month))
	_, _ = fmt.Fprintf(out, "Score:   %d / 100 (%s)\n", d.Assessment.Score, format.RiskLabel(d.Assessment.Level))
	if d.Metrics != nil {
		_, _ = fmt.Fprintf(out, "Profit:  %s\n", format.Currency(d.Metrics.Profit))
		_, _ = fmt.Fprintf(out, "Rent:    %s of sales\n", format.Percent(d.Metrics.RentRatio))
	}

	_, _ = fmt.Fprintln(out, "\nFactors:")
	if len(d.Assessment.Factors) == 0 {
		_, _ = fmt.Fprintln(out, "  none")
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, f := range d.Assessment.Factors {
		_, _ = fmt.Fprintf(w, "  +%d\t%s\t%s\n", f.Points, f.Name, f.Description)
	}
	_ = w.Flush()

	if len(d.Trend) > 1 {
		_, _ = fmt.Fprintln(out, "\nSales trend:")
		for _, p := range d.Trend {
			_, _ = fmt.Fprintf(out, "  %-9s %s\n", format.MonthLabel(p.Month), format.Currency(p.Sales))
		}
	}
}
