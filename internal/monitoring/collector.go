package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/model"
)

// BranchScore is one branch's current score.
type BranchScore struct {
	BranchID   string           `json:"branch_id"`
	Name       string           `json:"name"`
	BranchType model.BranchType `json:"branch_type"`
	Score      int              `json:"score"`
	Level      model.RiskLevel  `json:"level"`
}

// MetricsSnapshot holds a point-in-time view of branch risk.
type MetricsSnapshot struct {
	TotalBranches    int                    `json:"total_branches"`
	BranchesWithData int                    `json:"branches_with_data"`
	TotalRecords     int                    `json:"total_records"`
	AverageProfit    float64                `json:"average_profit"`
	Risk             model.RiskDistribution `json:"risk"`
	HighRisk         []BranchScore          `json:"high_risk"`
	Scores           []BranchScore          `json:"scores"`
	CollectedAt      time.Time              `json:"collected_at"`
}

// Loader abstracts the dashboard snapshot load needed by the collector.
type Loader interface {
	Load(ctx context.Context) (dashboard.Snapshot, error)
}

// Collector gathers metrics from dashboard snapshots.
type Collector struct {
	loader Loader
	now    func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(loader Loader) *Collector {
	return &Collector{loader: loader, now: time.Now}
}

// Collect loads a fresh snapshot and summarizes it.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	snap, err := c.loader.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: load snapshot")
	}
	return c.Summarize(snap), nil
}

// Summarize builds a MetricsSnapshot from an already loaded snapshot.
func (c *Collector) Summarize(snap dashboard.Snapshot) *MetricsSnapshot {
	sum := dashboard.BuildSummary(snap)
	ms := &MetricsSnapshot{
		TotalBranches:    sum.TotalBranches,
		BranchesWithData: sum.BranchesWithData,
		TotalRecords:     sum.TotalRecords,
		AverageProfit:    sum.AverageProfit,
		Risk:             sum.Risk,
		HighRisk:         []BranchScore{},
		Scores:           []BranchScore{},
		CollectedAt:      c.now().UTC(),
	}
	for _, row := range dashboard.BuildRows(snap) {
		if !row.HasData {
			continue
		}
		bs := BranchScore{
			BranchID:   row.BranchID,
			Name:       row.Name,
			BranchType: row.BranchType,
			Score:      row.Score,
			Level:      row.Level,
		}
		ms.Scores = append(ms.Scores, bs)
		if row.Level == model.RiskHigh {
			ms.HighRisk = append(ms.HighRisk, bs)
		}
	}
	return ms
}

// Record publishes ms to the Prometheus gauges. Per-branch scores are reset
// first so deleted branches disappear from the exposition.
func Record(ms *MetricsSnapshot) {
	BranchesTotal.Set(float64(ms.TotalBranches))
	BranchesWithData.Set(float64(ms.BranchesWithData))
	RecordsTotal.Set(float64(ms.TotalRecords))
	AverageProfit.Set(ms.AverageProfit)
	for _, level := range model.RiskLevels() {
		BranchesByLevel.WithLabelValues(string(level)).Set(float64(ms.Risk.Count(level)))
	}

	BranchScoreGauge.Reset()
	for _, s := range ms.Scores {
		BranchScoreGauge.WithLabelValues(s.BranchID, string(s.BranchType)).Set(float64(s.Score))
	}
}
