// Package dashboard assembles branch tables, summaries and map markers from
// a snapshot of the store.
package dashboard

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/branch-risk/internal/analytics"
	"github.com/sells-group/branch-risk/internal/format"
	"github.com/sells-group/branch-risk/internal/model"
	"github.com/sells-group/branch-risk/internal/scorer"
	"github.com/sells-group/branch-risk/internal/store"
)

// NotApplicable is shown when an aggregate has no data behind it.
const NotApplicable = "N/A"

// Reader is the read side of store.Store used by the dashboard.
type Reader interface {
	GetBranch(ctx context.Context, id string) (*model.Branch, error)
	ListBranches(ctx context.Context) ([]model.Branch, error)
	ListRecords(ctx context.Context, filter store.RecordFilter) ([]model.PerformanceRecord, error)
}

// Snapshot is every branch and record at one point in time.
type Snapshot struct {
	Branches []model.Branch
	Records  []model.PerformanceRecord
}

// Service computes dashboard views on demand.
type Service struct {
	reader Reader
}

// New creates a Service reading from r.
func New(r Reader) *Service {
	return &Service{reader: r}
}

// Load reads branches and records concurrently.
func (s *Service) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		branches, err := s.reader.ListBranches(gctx)
		if err != nil {
			return eris.Wrap(err, "dashboard: load branches")
		}
		snap.Branches = branches
		return nil
	})
	g.Go(func() error {
		records, err := s.reader.ListRecords(gctx, store.RecordFilter{})
		if err != nil {
			return eris.Wrap(err, "dashboard: load records")
		}
		snap.Records = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Summary loads a snapshot and summarizes it.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildSummary(snap), nil
}

// BranchRows loads a snapshot and returns one row per branch.
func (s *Service) BranchRows(ctx context.Context) ([]BranchRow, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildRows(snap), nil
}

// MapMarkers loads a snapshot and returns one marker per branch.
func (s *Service) MapMarkers(ctx context.Context) ([]MapMarker, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildMarkers(snap), nil
}

// BranchDetail returns one branch with its full history and assessment.
func (s *Service) BranchDetail(ctx context.Context, id string) (*BranchDetail, error) {
	var (
		branch  *model.Branch
		records []model.PerformanceRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.reader.GetBranch(gctx, id)
		if err != nil {
			return err
		}
		branch = b
		return nil
	})
	g.Go(func() error {
		rs, err := s.reader.ListRecords(gctx, store.RecordFilter{BranchID: id})
		if err != nil {
			return eris.Wrapf(err, "dashboard: load records of branch %s", id)
		}
		records = rs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return BuildDetail(*branch, records), nil
}

// Summary is the headline view across all branches.
type Summary struct {
	TotalBranches    int                          `json:"total_branches"`
	BranchesWithData int                          `json:"branches_with_data"`
	TotalRecords     int                          `json:"total_records"`
	LatestMonth      model.Month                  `json:"latest_month"`
	AverageProfit    float64                      `json:"average_profit"`
	BestBranchType   string                       `json:"best_branch_type"`
	ProfitByType     []analytics.BranchTypeProfit `json:"profit_by_type"`
	Risk             model.RiskDistribution       `json:"risk_distribution"`
	HighRisk         []BranchRow                  `json:"high_risk"`
}

// BuildSummary computes a Summary from snap.
func BuildSummary(snap Snapshot) *Summary {
	sum := &Summary{
		TotalBranches:  len(snap.Branches),
		TotalRecords:   len(snap.Records),
		AverageProfit:  analytics.AverageProfit(snap.Branches, snap.Records),
		BestBranchType: NotApplicable,
		ProfitByType:   analytics.ProfitByBranchType(snap.Branches, snap.Records),
		Risk:           scorer.Distribution(snap.Branches, snap.Records),
		HighRisk:       []BranchRow{},
	}
	if sum.ProfitByType == nil {
		sum.ProfitByType = []analytics.BranchTypeProfit{}
	}
	if bt, ok := analytics.BestBranchType(snap.Branches, snap.Records); ok {
		sum.BestBranchType = format.BranchTypeLabel(bt)
	}
	if latest, ok := analytics.LatestRecord(snap.Records); ok {
		sum.LatestMonth = latest.Month
	}

	for _, row := range BuildRows(snap) {
		if !row.HasData {
			continue
		}
		sum.BranchesWithData++
		if row.Level == model.RiskHigh {
			sum.HighRisk = append(sum.HighRisk, row)
		}
	}
	SortByRisk(sum.HighRisk)
	return sum
}

// BranchRow is one line of the branch table.
type BranchRow struct {
	BranchID        string           `json:"branch_id"`
	Name            string           `json:"name"`
	Address         string           `json:"address"`
	BranchType      model.BranchType `json:"branch_type"`
	HasData         bool             `json:"has_data"`
	LatestMonth     model.Month      `json:"latest_month"`
	Sales           float64          `json:"sales"`
	RentCost        float64          `json:"rent_cost"`
	Profit          float64          `json:"profit"`
	RentRatio       float64          `json:"rent_ratio"`
	SalesPerStaff   float64          `json:"sales_per_staff"`
	Complaints      int              `json:"complaints"`
	CompetitorCount int              `json:"competitor_count"`
	Score           int              `json:"score"`
	Level           model.RiskLevel  `json:"level,omitempty"`
	Color           string           `json:"color"`
}

// BuildRows returns one row per branch in snapshot order. Branches without
// records get a row with HasData false and no risk level.
func BuildRows(snap Snapshot) []BranchRow {
	byBranch := analytics.GroupByBranch(snap.Records)
	rows := make([]BranchRow, 0, len(snap.Branches))
	for _, b := range snap.Branches {
		rows = append(rows, buildRow(b, byBranch[b.ID]))
	}
	return rows
}

func buildRow(b model.Branch, records []model.PerformanceRecord) BranchRow {
	row := BranchRow{
		BranchID:   b.ID,
		Name:       b.Name,
		Address:    b.Address,
		BranchType: b.BranchType,
		Color:      format.DefaultColor,
	}
	latest, ok := analytics.LatestRecord(records)
	if !ok {
		return row
	}
	a := scorer.Assess(&latest, records)
	row.HasData = true
	row.LatestMonth = latest.Month
	row.Sales = latest.Sales
	row.RentCost = latest.RentCost
	row.Profit = analytics.RecordProfit(latest)
	row.RentRatio = analytics.RecordRentRatio(latest)
	row.SalesPerStaff = analytics.SalesPerStaff(latest.Sales, latest.StaffCount)
	row.Complaints = latest.Complaints
	row.CompetitorCount = latest.CompetitorCount
	row.Score = a.Score
	row.Level = a.Level
	row.Color = format.RiskColor(a.Level)
	return row
}

// SortByRisk orders rows by score, highest first. Rows with equal scores
// keep their relative order.
func SortByRisk(rows []BranchRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})
}

// Metrics are the derived figures for a branch's latest month.
type Metrics struct {
	Profit        float64 `json:"profit"`
	RentRatio     float64 `json:"rent_ratio"`
	SalesPerStaff float64 `json:"sales_per_staff"`
}

// BranchDetail is the single-branch view.
type BranchDetail struct {
	Branch     model.Branch              `json:"branch"`
	Records    []model.PerformanceRecord `json:"records"`
	Latest     *model.PerformanceRecord  `json:"latest,omitempty"`
	Metrics    *Metrics                  `json:"metrics,omitempty"`
	Assessment model.RiskAssessment      `json:"assessment"`
	Trend      []analytics.TrendPoint    `json:"trend"`
}

// BuildDetail assembles a BranchDetail. Records are returned newest first.
func BuildDetail(b model.Branch, records []model.PerformanceRecord) *BranchDetail {
	d := &BranchDetail{
		Branch:     b,
		Records:    analytics.SortByMonthDesc(records),
		Assessment: scorer.Assess(nil, nil),
		Trend:      analytics.SalesTrend(records),
	}
	latest, ok := analytics.LatestRecord(records)
	if !ok {
		return d
	}
	d.Latest = &latest
	d.Metrics = &Metrics{
		Profit:        analytics.RecordProfit(latest),
		RentRatio:     analytics.RecordRentRatio(latest),
		SalesPerStaff: analytics.SalesPerStaff(latest.Sales, latest.StaffCount),
	}
	d.Assessment = scorer.Assess(&latest, records)
	return d
}

// MapMarker places a branch on the map.
type MapMarker struct {
	BranchID   string           `json:"branch_id"`
	Name       string           `json:"name"`
	Address    string           `json:"address"`
	Latitude   float64          `json:"lat"`
	Longitude  float64          `json:"lng"`
	BranchType model.BranchType `json:"branch_type"`
	HasData    bool             `json:"has_data"`
	Score      int              `json:"score"`
	Level      model.RiskLevel  `json:"level,omitempty"`
	Color      string           `json:"color"`
	Profit     float64          `json:"profit"`
}

// BuildMarkers returns one marker per branch.
func BuildMarkers(snap Snapshot) []MapMarker {
	rows := BuildRows(snap)
	markers := make([]MapMarker, 0, len(rows))
	for i, b := range snap.Branches {
		row := rows[i]
		markers = append(markers, MapMarker{
			BranchID:   b.ID,
			Name:       b.Name,
			Address:    b.Address,
			Latitude:   b.Latitude,
			Longitude:  b.Longitude,
			BranchType: b.BranchType,
			HasData:    row.HasData,
			Score:      row.Score,
			Level:      row.Level,
			Color:      row.Color,
			Profit:     row.Profit,
		})
	}
	return markers
}

// MarkerFilter narrows the map. Empty fields match everything.
type MarkerFilter struct {
	BranchType model.BranchType
	Level      model.RiskLevel
}

// FilterMarkers returns the markers matching f, preserving order. Branches
// without data are shown as low risk on the map and match a low filter.
func FilterMarkers(markers []MapMarker, f MarkerFilter) []MapMarker {
	out := make([]MapMarker, 0, len(markers))
	for _, m := range markers {
		if f.BranchType != "" && m.BranchType != f.BranchType {
			continue
		}
		if f.Level != "" && mapLevel(m) != f.Level {
			continue
		}
		out = append(out, m)
	}
	return out
}

func mapLevel(m MapMarker) model.RiskLevel {
	if !m.HasData {
		return model.RiskLow
	}
	return m.Level
}
