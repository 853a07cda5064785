package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/branch-risk/internal/model"
)

func rec(id, branchID, month string, sales, rent float64) model.PerformanceRecord {
	return model.PerformanceRecord{
		ID:         id,
		BranchID:   branchID,
		Month:      model.MustParseMonth(month),
		Sales:      sales,
		RentCost:   rent,
		StaffCount: 5,
	}
}

func branch(id string, bt model.BranchType) model.Branch {
	return model.Branch{ID: id, Name: id, BranchType: bt}
}

func TestProfit(t *testing.T) {
	tests := []struct {
		name  string
		sales float64
		rent  float64
		want  float64
	}{
		{"positive", 450000, 120000, 330000},
		{"negative", 80000, 110000, -30000},
		{"zero inputs", 0, 0, 0},
		{"zero sales", 0, 5000, -5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Profit(tt.sales, tt.rent), 1e-9)
		})
	}
}

func TestRentRatio(t *testing.T) {
	tests := []struct {
		name  string
		sales float64
		rent  float64
		want  float64
	}{
		{"normal", 200000, 70000, 0.35},
		{"above threshold", 150000, 95000, 0.6333},
		{"zero sales floors to one", 0, 5000, 5000},
		{"fractional sales floors to one", 0.5, 10, 10},
		{"negative sales floors to one", -100, 10, 10},
		{"zero rent", 1000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RentRatio(tt.sales, tt.rent)
			assert.False(t, math.IsInf(got, 0) || math.IsNaN(got))
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestSalesPerStaff(t *testing.T) {
	assert.InDelta(t, 30000.0, SalesPerStaff(150000, 5), 1e-9)
	assert.InDelta(t, 150000.0, SalesPerStaff(150000, 0), 1e-9)
	assert.InDelta(t, 150000.0, SalesPerStaff(150000, -3), 1e-9)
}

func TestLatestRecord(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok := LatestRecord(nil)
		assert.False(t, ok)
	})

	t.Run("picks greatest month regardless of order", func(t *testing.T) {
		records := []model.PerformanceRecord{
			rec("a", "b1", "2025-12", 1, 0),
			rec("b", "b1", "2026-01", 2, 0),
			rec("c", "b1", "2025-11", 3, 0),
		}
		got, ok := LatestRecord(records)
		require.True(t, ok)
		assert.Equal(t, "b", got.ID)
	})

	t.Run("orders across years numerically", func(t *testing.T) {
		records := []model.PerformanceRecord{
			rec("dec", "b1", "2025-12", 1, 0),
			rec("feb", "b1", "2026-02", 2, 0),
		}
		got, _ := LatestRecord(records)
		assert.Equal(t, "feb", got.ID)
	})

	t.Run("duplicate month keeps first in input order", func(t *testing.T) {
		records := []model.PerformanceRecord{
			rec("old", "b1", "2025-11", 1, 0),
			rec("first", "b1", "2026-01", 2, 0),
			rec("second", "b1", "2026-01", 3, 0),
		}
		got, _ := LatestRecord(records)
		assert.Equal(t, "first", got.ID)
	})
}

func TestSalesDecreasing(t *testing.T) {
	tests := []struct {
		name    string
		records []model.PerformanceRecord
		want    bool
	}{
		{"no records", nil, false},
		{"two records", []model.PerformanceRecord{
			rec("a", "b", "2026-01", 80, 0),
			rec("b", "b", "2025-12", 90, 0),
		}, false},
		{"most recent smallest", []model.PerformanceRecord{
			rec("a", "b", "2026-01", 80, 0),
			rec("b", "b", "2025-12", 90, 0),
			rec("c", "b", "2025-11", 100, 0),
		}, true},
		{"unsorted input", []model.PerformanceRecord{
			rec("b", "b", "2025-12", 90, 0),
			rec("c", "b", "2025-11", 100, 0),
			rec("a", "b", "2026-01", 80, 0),
		}, true},
		{"non monotonic", []model.PerformanceRecord{
			rec("a", "b", "2026-01", 100, 0),
			rec("b", "b", "2025-12", 90, 0),
			rec("c", "b", "2025-11", 95, 0),
		}, false},
		{"growing", []model.PerformanceRecord{
			rec("a", "b", "2026-01", 100, 0),
			rec("b", "b", "2025-12", 90, 0),
			rec("c", "b", "2025-11", 80, 0),
		}, false},
		{"flat is not a decline", []model.PerformanceRecord{
			rec("a", "b", "2026-01", 90, 0),
			rec("b", "b", "2025-12", 90, 0),
			rec("c", "b", "2025-11", 100, 0),
		}, false},
		{"only latest three count", []model.PerformanceRecord{
			rec("a", "b", "2026-01", 70, 0),
			rec("b", "b", "2025-12", 80, 0),
			rec("c", "b", "2025-11", 90, 0),
			rec("d", "b", "2025-10", 10, 0),
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SalesDecreasing(tt.records))
		})
	}
}

func TestAverageProfit(t *testing.T) {
	t.Run("excludes branches without records", func(t *testing.T) {
		branches := []model.Branch{
			branch("b1", model.BranchTypeMall),
			branch("b2", model.BranchTypeRoadside),
			branch("b3", model.BranchTypeCampus),
		}
		records := []model.PerformanceRecord{
			rec("r1", "b1", "2026-01", 30000, 20000),
			rec("r0", "b1", "2025-12", 999999, 0),
			rec("r2", "b2", "2026-01", 10000, 15000),
		}
		assert.InDelta(t, 2500.0, AverageProfit(branches, records), 1e-9)
	})

	t.Run("no branches", func(t *testing.T) {
		assert.Zero(t, AverageProfit(nil, nil))
	})

	t.Run("branches without any records", func(t *testing.T) {
		assert.Zero(t, AverageProfit([]model.Branch{branch("b1", model.BranchTypeMall)}, nil))
	})

	t.Run("ignores records of unknown branches", func(t *testing.T) {
		branches := []model.Branch{branch("b1", model.BranchTypeMall)}
		records := []model.PerformanceRecord{
			rec("r1", "b1", "2026-01", 100, 40),
			rec("r2", "ghost", "2026-01", 1000000, 0),
		}
		assert.InDelta(t, 60.0, AverageProfit(branches, records), 1e-9)
	})
}

func TestProfitByBranchType(t *testing.T) {
	branches := []model.Branch{
		branch("c1", model.BranchTypeCommercial),
		branch("m1", model.BranchTypeMall),
		branch("m2", model.BranchTypeMall),
		branch("m3", model.BranchTypeMall),
		branch("r1", model.BranchTypeRoadside),
	}
	records := []model.PerformanceRecord{
		rec("x1", "m1", "2026-01", 500, 100),
		rec("x2", "m2", "2026-01", 300, 100),
		rec("x3", "c1", "2026-01", 100, 200),
	}

	got := ProfitByBranchType(branches, records)
	require.Len(t, got, 3)

	assert.Equal(t, model.BranchTypeMall, got[0].BranchType)
	assert.Equal(t, 3, got[0].Count)
	assert.InDelta(t, 300.0, got[0].AvgProfit, 1e-9)

	assert.Equal(t, model.BranchTypeRoadside, got[1].BranchType)
	assert.Equal(t, 1, got[1].Count)
	assert.Zero(t, got[1].AvgProfit)

	assert.Equal(t, model.BranchTypeCommercial, got[2].BranchType)
	assert.InDelta(t, -100.0, got[2].AvgProfit, 1e-9)

	assert.Empty(t, ProfitByBranchType(nil, nil))
}

func TestBestBranchType(t *testing.T) {
	t.Run("empty is not applicable", func(t *testing.T) {
		_, ok := BestBranchType(nil, nil)
		assert.False(t, ok)
	})

	t.Run("highest average wins", func(t *testing.T) {
		branches := []model.Branch{
			branch("m1", model.BranchTypeMall),
			branch("c1", model.BranchTypeCampus),
		}
		records := []model.PerformanceRecord{
			rec("x1", "m1", "2026-01", 100, 50),
			rec("x2", "c1", "2026-01", 200, 50),
		}
		got, ok := BestBranchType(branches, records)
		require.True(t, ok)
		assert.Equal(t, model.BranchTypeCampus, got)
	})

	t.Run("ties go to earlier type", func(t *testing.T) {
		branches := []model.Branch{
			branch("c1", model.BranchTypeCommercial),
			branch("r1", model.BranchTypeRoadside),
		}
		records := []model.PerformanceRecord{
			rec("x1", "c1", "2026-01", 100, 50),
			rec("x2", "r1", "2026-01", 100, 50),
		}
		got, ok := BestBranchType(branches, records)
		require.True(t, ok)
		assert.Equal(t, model.BranchTypeRoadside, got)
	})
}

func TestSalesTrend(t *testing.T) {
	records := []model.PerformanceRecord{
		rec("a", "b", "2026-01", 120, 0),
		rec("b", "b", "2025-11", 150, 0),
		rec("c", "b", "2025-12", 135, 0),
	}

	first := SalesTrend(records)
	require.Len(t, first, 3)
	assert.Equal(t, "2025-11", first[0].Month.String())
	assert.Equal(t, "2025-12", first[1].Month.String())
	assert.Equal(t, "2026-01", first[2].Month.String())
	assert.InDelta(t, 150.0, first[0].Sales, 1e-9)

	first[0].Sales = -1
	second := SalesTrend(records)
	assert.InDelta(t, 150.0, second[0].Sales, 1e-9)
	assert.Equal(t, "2026-01", records[0].Month.String(), "input must not be reordered")

	assert.Empty(t, SalesTrend(nil))
	assert.NotNil(t, SalesTrend(nil))
}

func TestGroupByBranch(t *testing.T) {
	records := []model.PerformanceRecord{
		rec("a", "b1", "2026-01", 1, 0),
		rec("b", "b2", "2026-01", 1, 0),
		rec("c", "b1", "2025-12", 1, 0),
	}
	got := GroupByBranch(records)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got["b1"][0].ID)
	assert.Equal(t, "c", got["b1"][1].ID)
}
