// Package analytics computes per-record metrics and cross-branch aggregates
// from in-memory performance records. Every function is total: missing data
// yields a documented default rather than an error.
package analytics

import (
	"sort"

	"github.com/sells-group/branch-risk/internal/model"
)

// BranchTypeProfit is the average latest-month profit for one branch type.
type BranchTypeProfit struct {
	BranchType model.BranchType `json:"branch_type"`
	AvgProfit  float64          `json:"avg_profit"`
	Count      int              `json:"count"`
}

// TrendPoint is one month of a branch's sales history.
type TrendPoint struct {
	Month model.Month `json:"month"`
	Sales float64     `json:"sales"`
}

// Profit returns sales minus rent. The result may be negative.
func Profit(sales, rentCost float64) float64 {
	return sales - rentCost
}

// RentRatio returns rent as a fraction of sales. Sales below 1 are floored
// to 1, so near-zero sales report a large ratio rather than dividing by zero.
func RentRatio(sales, rentCost float64) float64 {
	return rentCost / max(sales, 1)
}

// SalesPerStaff returns sales divided by headcount, with headcount floored to 1.
func SalesPerStaff(sales float64, staffCount int) float64 {
	return sales / float64(max(staffCount, 1))
}

// RecordProfit is Profit applied to a record.
func RecordProfit(r model.PerformanceRecord) float64 {
	return Profit(r.Sales, r.RentCost)
}

// RecordRentRatio is RentRatio applied to a record.
func RecordRentRatio(r model.PerformanceRecord) float64 {
	return RentRatio(r.Sales, r.RentCost)
}

// LatestRecord returns the record with the greatest month. When several
// records share that month the earliest one in input order wins. The bool is
// false for empty input.
func LatestRecord(records []model.PerformanceRecord) (model.PerformanceRecord, bool) {
	if len(records) == 0 {
		return model.PerformanceRecord{}, false
	}
	best := 0
	for i := 1; i < len(records); i++ {
		if records[i].Month.After(records[best].Month) {
			best = i
		}
	}
	return records[best], true
}

// SortByMonthDesc returns a copy of records ordered most recent first.
// Records sharing a month keep their input order.
func SortByMonthDesc(records []model.PerformanceRecord) []model.PerformanceRecord {
	out := make([]model.PerformanceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Month.After(out[j].Month)
	})
	return out
}

// SalesDecreasing reports whether the three most recent records show the
// most recent month selling less than the one before, which in turn sold
// less than the one before that. Fewer than three records is never a decline.
func SalesDecreasing(records []model.PerformanceRecord) bool {
	if len(records) < 3 {
		return false
	}
	sorted := SortByMonthDesc(records)
	return sorted[0].Sales < sorted[1].Sales && sorted[1].Sales < sorted[2].Sales
}

// GroupByBranch indexes records by their owning branch ID, preserving input
// order within each branch.
func GroupByBranch(records []model.PerformanceRecord) map[string][]model.PerformanceRecord {
	out := make(map[string][]model.PerformanceRecord)
	for _, r := range records {
		out[r.BranchID] = append(out[r.BranchID], r)
	}
	return out
}

// AverageProfit is the mean profit of each branch's latest record. Branches
// without records are left out of both the sum and the count.
func AverageProfit(branches []model.Branch, records []model.PerformanceRecord) float64 {
	byBranch := GroupByBranch(records)
	avg, _ := averageLatestProfit(branches, byBranch)
	return avg
}

// ProfitByBranchType averages latest-month profit per branch type, in the
// fixed type order. Types with no branches are omitted. Count is the number
// of branches of the type; AvgProfit covers only those with records.
func ProfitByBranchType(branches []model.Branch, records []model.PerformanceRecord) []BranchTypeProfit {
	byBranch := GroupByBranch(records)
	byType := make(map[model.BranchType][]model.Branch)
	for _, b := range branches {
		byType[b.BranchType] = append(byType[b.BranchType], b)
	}

	var out []BranchTypeProfit
	for _, bt := range model.BranchTypes() {
		group := byType[bt]
		if len(group) == 0 {
			continue
		}
		avg, _ := averageLatestProfit(group, byBranch)
		out = append(out, BranchTypeProfit{BranchType: bt, AvgProfit: avg, Count: len(group)})
	}
	return out
}

// BestBranchType returns the type with the strictly highest average profit,
// ties going to the earlier type in the fixed order. The bool is false when
// no type has branches.
func BestBranchType(branches []model.Branch, records []model.PerformanceRecord) (model.BranchType, bool) {
	stats := ProfitByBranchType(branches, records)
	if len(stats) == 0 {
		return "", false
	}
	best := stats[0]
	for _, s := range stats[1:] {
		if s.AvgProfit > best.AvgProfit {
			best = s
		}
	}
	return best.BranchType, true
}

// SalesTrend projects records to month/sales pairs in ascending month order.
// Each call returns a new slice.
func SalesTrend(records []model.PerformanceRecord) []TrendPoint {
	sorted := make([]model.PerformanceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Month.Before(sorted[j].Month)
	})
	out := make([]TrendPoint, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, TrendPoint{Month: r.Month, Sales: r.Sales})
	}
	return out
}

func averageLatestProfit(branches []model.Branch, byBranch map[string][]model.PerformanceRecord) (float64, int) {
	var sum float64
	var n int
	for _, b := range branches {
		latest, ok := LatestRecord(byBranch[b.ID])
		if !ok {
			continue
		}
		sum += RecordProfit(latest)
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
