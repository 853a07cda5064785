// Package report writes the branch table to XLSX workbooks and reads
// performance records back from them.
package report

import (
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/format"
	"github.com/sells-group/branch-risk/internal/model"
)

// Sheet names used in exported workbooks.
const (
	BranchSheet = "Branches"
	RecordSheet = "Records"
)

var branchHeader = []string{
	"Branch", "Address", "Type", "Latest Month", "Sales", "Rent",
	"Profit", "Rent Ratio", "Sales per Staff", "Complaints", "Competitors",
	"Risk Score", "Risk Level",
}

// recordHeader doubles as the import column set.
var recordHeader = []string{
	colBranchID, colBranch, colMonth, colSales, colRentCost, colStaffCount,
	colOperatingHours, colComplaints, colCompetitorCount, colNearby, colAreaClass,
}

// Export writes a workbook with the branch table and every record in snap.
// Rows follow the order of rows; records are grouped by branch, newest month first.
func Export(w io.Writer, rows []dashboard.BranchRow, snap dashboard.Snapshot) error {
	f, err := workbook(rows, snap)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

// ExportFile writes the workbook to path.
func ExportFile(path string, rows []dashboard.BranchRow, snap dashboard.Snapshot) error {
	f, err := workbook(rows, snap)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func workbook(rows []dashboard.BranchRow, snap dashboard.Snapshot) (*xlsx.File, error) {
	f := xlsx.NewFile()
	if err := writeBranchSheet(f, rows); err != nil {
		return nil, err
	}
	if err := writeRecordSheet(f, snap); err != nil {
		return nil, err
	}
	return f, nil
}

func writeBranchSheet(f *xlsx.File, rows []dashboard.BranchRow) error {
	sheet, err := f.AddSheet(BranchSheet)
	if err != nil {
		return eris.Wrap(err, "report: add branch sheet")
	}
	addStringRow(sheet, branchHeader)

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Name)
		row.AddCell().SetString(r.Address)
		row.AddCell().SetString(format.BranchTypeLabel(r.BranchType))
		if !r.HasData {
			row.AddCell().SetString(dashboard.NotApplicable)
			for range 9 {
				row.AddCell()
			}
			continue
		}
		row.AddCell().SetString(r.LatestMonth.String())
		row.AddCell().SetFloat(r.Sales)
		row.AddCell().SetFloat(r.RentCost)
		row.AddCell().SetFloat(r.Profit)
		row.AddCell().SetFloat(r.RentRatio)
		row.AddCell().SetFloat(r.SalesPerStaff)
		row.AddCell().SetInt(r.Complaints)
		row.AddCell().SetInt(r.CompetitorCount)
		row.AddCell().SetInt(r.Score)
		row.AddCell().SetString(string(r.Level))
	}
	return nil
}

func writeRecordSheet(f *xlsx.File, snap dashboard.Snapshot) error {
	sheet, err := f.AddSheet(RecordSheet)
	if err != nil {
		return eris.Wrap(err, "report: add record sheet")
	}
	addStringRow(sheet, recordHeader)

	for _, b := range snap.Branches {
		for _, rec := range branchRecords(snap.Records, b.ID) {
			addRecordRow(sheet, rec, b.Name)
		}
	}
	return nil
}

func branchRecords(records []model.PerformanceRecord, branchID string) []model.PerformanceRecord {
	var out []model.PerformanceRecord
	for _, r := range records {
		if r.BranchID == branchID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Month.After(out[j].Month)
	})
	return out
}

func addRecordRow(sheet *xlsx.Sheet, rec model.PerformanceRecord, branchName string) {
	row := sheet.AddRow()
	row.AddCell().SetString(rec.BranchID)
	row.AddCell().SetString(branchName)
	row.AddCell().SetString(rec.Month.String())
	row.AddCell().SetFloat(rec.Sales)
	row.AddCell().SetFloat(rec.RentCost)
	row.AddCell().SetInt(rec.StaffCount)
	row.AddCell().SetInt(rec.OperatingHours)
	row.AddCell().SetInt(rec.Complaints)
	row.AddCell().SetInt(rec.CompetitorCount)
	row.AddCell().SetString(strings.Join(rec.NearbyEstablishments, listSeparator))
	row.AddCell().SetString(string(rec.AreaClass))
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
