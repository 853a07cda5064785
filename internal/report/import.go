package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/branch-risk/internal/model"
)

// Import column names. Either branch_id or branch (the branch name) must be
// present to attach a row to a branch.
const (
	colBranchID        = "branch_id"
	colBranch          = "branch"
	colMonth           = "month"
	colSales           = "sales"
	colRentCost        = "rent_cost"
	colStaffCount      = "staff_count"
	colOperatingHours  = "operating_hours"
	colComplaints      = "complaints"
	colCompetitorCount = "competitor_count"
	colNearby          = "nearby_establishments"
	colAreaClass       = "area_class"
)

// listSeparator joins nearby establishments into one cell.
const listSeparator = ";"

var requiredColumns = []string{
	colMonth, colSales, colRentCost, colStaffCount, colOperatingHours,
	colComplaints, colCompetitorCount,
}

// RowError describes one rejected spreadsheet row. Row is 1-based and
// counts the header.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ImportError collects every rejected row of an import.
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		parts = append(parts, r.Error())
	}
	return fmt.Sprintf("report: %d invalid rows: %s", len(e.Rows), strings.Join(parts, "; "))
}

// ImportOptions configures ReadRecords.
type ImportOptions struct {
	SheetName string // defaults to RecordSheet, then the first sheet
}

// ReadRecords parses performance records from the workbook at path. Rows
// reference branches by id or by name (case-insensitive) from branches.
// Every row is validated; any failure returns an *ImportError listing all
// bad rows and no records.
func ReadRecords(path string, branches []model.Branch, opts ImportOptions) ([]model.PerformanceRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "report: open workbook")
	}
	sheet, err := recordSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("report: record sheet is empty")
	}

	cols, err := headerIndex(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	resolve := branchResolver(branches)
	var (
		records []model.PerformanceRecord
		bad     []RowError
	)
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if blank(cells) {
			continue
		}
		rec, err := parseRecord(cells, cols, resolve)
		if err == nil {
			err = model.Validate(rec)
		}
		if err != nil {
			bad = append(bad, RowError{Row: i + 2, Err: err})
			continue
		}
		records = append(records, rec)
	}
	if len(bad) > 0 {
		return nil, &ImportError{Rows: bad}
	}
	return records, nil
}

func recordSheet(f *xlsx.File, opts ImportOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("report: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if sheet, ok := f.Sheet[RecordSheet]; ok {
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("report: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	_, hasID := cols[colBranchID]
	_, hasName := cols[colBranch]
	if !hasID && !hasName {
		missing = append(missing, colBranchID+" or "+colBranch)
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("report: missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// branchResolver maps a row's branch_id or branch name to a known branch id.
func branchResolver(branches []model.Branch) func(id, name string) (string, error) {
	byID := make(map[string]bool, len(branches))
	byName := make(map[string]string, len(branches))
	for _, b := range branches {
		byID[b.ID] = true
		key := strings.ToLower(strings.TrimSpace(b.Name))
		if _, ok := byName[key]; !ok {
			byName[key] = b.ID
		}
	}
	return func(id, name string) (string, error) {
		if id != "" {
			if !byID[id] {
				return "", eris.Errorf("unknown branch id %q", id)
			}
			return id, nil
		}
		if name == "" {
			return "", eris.New("branch is required")
		}
		found, ok := byName[strings.ToLower(name)]
		if !ok {
			return "", eris.Errorf("unknown branch %q", name)
		}
		return found, nil
	}
}

func parseRecord(cells []string, cols map[string]int, resolve func(id, name string) (string, error)) (model.PerformanceRecord, error) {
	var rec model.PerformanceRecord
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	branchID, err := resolve(get(colBranchID), get(colBranch))
	if err != nil {
		return rec, err
	}
	rec.BranchID = branchID

	if rec.Month, err = model.ParseMonth(get(colMonth)); err != nil {
		return rec, err
	}

	floats := []struct {
		col string
		dst *float64
	}{
		{colSales, &rec.Sales},
		{colRentCost, &rec.RentCost},
	}
	for _, fl := range floats {
		if *fl.dst, err = parseFloat(fl.col, get(fl.col)); err != nil {
			return rec, err
		}
	}

	ints := []struct {
		col string
		dst *int
	}{
		{colStaffCount, &rec.StaffCount},
		{colOperatingHours, &rec.OperatingHours},
		{colComplaints, &rec.Complaints},
		{colCompetitorCount, &rec.CompetitorCount},
	}
	for _, in := range ints {
		if *in.dst, err = parseInt(in.col, get(in.col)); err != nil {
			return rec, err
		}
	}

	rec.NearbyEstablishments = splitList(get(colNearby))
	rec.AreaClass = model.AreaClass(strings.ToLower(get(colAreaClass)))
	return rec, nil
}

func parseFloat(col, v string) (float64, error) {
	v = strings.NewReplacer(",", "", "₱", "").Replace(v)
	if v == "" {
		return 0, eris.Errorf("%s is required", col)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, eris.Errorf("%s: %q is not a number", col, v)
	}
	return f, nil
}

// parseInt accepts whole numbers written as floats ("5" or "5.0").
func parseInt(col, v string) (int, error) {
	f, err := parseFloat(col, v)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, eris.Errorf("%s: %q is not a whole number", col, v)
	}
	return int(f), nil
}

func splitList(v string) []string {
	out := []string{}
	for _, s := range strings.Split(v, listSeparator) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
