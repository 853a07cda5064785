// Package store persists branches and their monthly performance records.
package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"github.com/sells-group/branch-risk/internal/model"
)

// ErrNotFound is returned (wrapped) when a branch or record does not exist.
var ErrNotFound = eris.New("store: not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

// RecordFilter narrows ListRecords. Zero values mean no constraint.
type RecordFilter struct {
	BranchID  string      `json:"branch_id,omitempty"`
	FromMonth model.Month `json:"from_month,omitempty"`
	ToMonth   model.Month `json:"to_month,omitempty"`
	Limit     int         `json:"limit,omitempty"`
}

// Store defines the persistence interface for branches and records.
type Store interface {
	// Branches
	CreateBranch(ctx context.Context, b model.Branch) (*model.Branch, error)
	UpdateBranch(ctx context.Context, b model.Branch) error
	GetBranch(ctx context.Context, id string) (*model.Branch, error)
	ListBranches(ctx context.Context) ([]model.Branch, error)
	DeleteBranch(ctx context.Context, id string) error

	// Performance records
	CreateRecord(ctx context.Context, r model.PerformanceRecord) (*model.PerformanceRecord, error)
	UpdateRecord(ctx context.Context, r model.PerformanceRecord) error
	GetRecord(ctx context.Context, id string) (*model.PerformanceRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.PerformanceRecord, error)
	ImportRecords(ctx context.Context, records []model.PerformanceRecord) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const (
	branchColumns = "id, name, address, lat, lng, branch_type, opening_date, created_at"
	recordColumns = "id, branch_id, month, sales, rent_cost, staff_count, operating_hours, " +
		"complaints, competitor_count, nearby_establishments, area_class, created_at"
)

// recordInsertColumns matches the order of recordColumns.
var recordInsertColumns = []string{
	"id", "branch_id", "month", "sales", "rent_cost", "staff_count", "operating_hours",
	"complaints", "competitor_count", "nearby_establishments", "area_class", "created_at",
}

// listRecordsQuery builds the filtered record listing, newest month first.
func listRecordsQuery(format sq.PlaceholderFormat, f RecordFilter) (string, []any, error) {
	q := sq.Select(recordColumns).
		From("performance_records").
		OrderBy("month DESC", "created_at ASC").
		PlaceholderFormat(format)

	if f.BranchID != "" {
		q = q.Where(sq.Eq{"branch_id": f.BranchID})
	}
	if !f.FromMonth.IsZero() {
		q = q.Where(sq.GtOrEq{"month": f.FromMonth.String()})
	}
	if !f.ToMonth.IsZero() {
		q = q.Where(sq.LtOrEq{"month": f.ToMonth.String()})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build record query")
	}
	return query, args, nil
}

// prepareRecord assigns identity fields to a record about to be inserted.
func prepareRecord(r *model.PerformanceRecord, id string, now time.Time) {
	r.ID = id
	r.CreatedAt = now
	if r.NearbyEstablishments == nil {
		r.NearbyEstablishments = []string{}
	}
}

func notFound(entity, id string) error {
	return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
}
