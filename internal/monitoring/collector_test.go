package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/model"
)

// stubLoader returns a fixed snapshot or error.
type stubLoader struct {
	snap  dashboard.Snapshot
	err   error
	calls int
}

func (s *stubLoader) Load(context.Context) (dashboard.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

func rec(branchID, month string, sales, rent float64, complaints, competitors int) model.PerformanceRecord {
	return model.PerformanceRecord{
		ID:              branchID + "-" + month,
		BranchID:        branchID,
		Month:           model.MustParseMonth(month),
		Sales:           sales,
		RentCost:        rent,
		StaffCount:      5,
		OperatingHours:  12,
		Complaints:      complaints,
		CompetitorCount: competitors,
	}
}

func testSnapshot() dashboard.Snapshot {
	return dashboard.Snapshot{
		Branches: []model.Branch{
			{ID: "loss", Name: "Agdao Public Market", BranchType: model.BranchTypeRoadside},
			{ID: "ok", Name: "Abreeza Mall", BranchType: model.BranchTypeMall},
			{ID: "new", Name: "Ateneo de Davao", BranchType: model.BranchTypeCampus},
		},
		Records: []model.PerformanceRecord{
			rec("loss", "2026-01", 80000, 110000, 12, 6),
			rec("ok", "2026-01", 450000, 120000, 2, 3),
		},
	}
}

func TestCollector_Collect(t *testing.T) {
	loader := &stubLoader{snap: testSnapshot()}
	c := NewCollector(loader)
	fixed := time.Date(2026, 2, 1, 8, 0, 0, 0, time.FixedZone("PHT", 8*3600))
	c.now = func() time.Time { return fixed }

	ms, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)

	assert.Equal(t, 3, ms.TotalBranches)
	assert.Equal(t, 2, ms.BranchesWithData)
	assert.Equal(t, 2, ms.TotalRecords)
	assert.InDelta(t, (-30000.0+330000.0)/2, ms.AverageProfit, 1e-9)
	assert.Equal(t, model.RiskDistribution{Low: 1, High: 1}, ms.Risk)
	assert.Equal(t, fixed.UTC(), ms.CollectedAt)

	require.Len(t, ms.Scores, 2)
	require.Len(t, ms.HighRisk, 1)
	assert.Equal(t, "loss", ms.HighRisk[0].BranchID)
	assert.Equal(t, 80, ms.HighRisk[0].Score)
}

func TestCollector_CollectError(t *testing.T) {
	c := NewCollector(&stubLoader{err: errors.New("db down")})

	_, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: load snapshot")
}

func TestCollector_SummarizeEmpty(t *testing.T) {
	ms := NewCollector(&stubLoader{}).Summarize(dashboard.Snapshot{})

	assert.Zero(t, ms.TotalBranches)
	assert.NotNil(t, ms.Scores)
	assert.NotNil(t, ms.HighRisk)
}

func TestRecord(t *testing.T) {
	ms := NewCollector(&stubLoader{}).Summarize(testSnapshot())
	Record(ms)

	assert.InDelta(t, 3.0, testutil.ToFloat64(BranchesTotal), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(BranchesWithData), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(RecordsTotal), 1e-9)
	assert.InDelta(t, 150000.0, testutil.ToFloat64(AverageProfit), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(BranchesByLevel.WithLabelValues("high")), 1e-9)
	assert.InDelta(t, 0.0, testutil.ToFloat64(BranchesByLevel.WithLabelValues("medium")), 1e-9)
	assert.InDelta(t, 80.0, testutil.ToFloat64(BranchScoreGauge.WithLabelValues("loss", "roadside")), 1e-9)
	assert.Equal(t, 2, testutil.CollectAndCount(BranchScoreGauge))

	// A later snapshot without the losing branch drops its series.
	snap := testSnapshot()
	snap.Branches = snap.Branches[1:]
	Record(NewCollector(&stubLoader{}).Summarize(snap))
	assert.Equal(t, 1, testutil.CollectAndCount(BranchScoreGauge))
}
