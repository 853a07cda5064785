package store

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/branch-risk/internal/db"
	"github.com/sells-group/branch-risk/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
	now  func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresStore(pool), nil
}

func newPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS branches (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name         TEXT NOT NULL,
	address      TEXT NOT NULL DEFAULT '',
	lat          DOUBLE PRECISION NOT NULL,
	lng          DOUBLE PRECISION NOT NULL,
	branch_type  TEXT NOT NULL,
	opening_date TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS performance_records (
	id                    TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	branch_id             TEXT NOT NULL REFERENCES branches(id) ON DELETE CASCADE,
	month                 TEXT NOT NULL CHECK (month ~ '^[0-9]{4}-(0[1-9]|1[0-2])$'),
	sales                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	rent_cost             DOUBLE PRECISION NOT NULL DEFAULT 0,
	staff_count           INTEGER NOT NULL DEFAULT 1,
	operating_hours       INTEGER NOT NULL DEFAULT 1,
	complaints            INTEGER NOT NULL DEFAULT 0,
	competitor_count      INTEGER NOT NULL DEFAULT 0,
	nearby_establishments TEXT[] NOT NULL DEFAULT '{}',
	area_class            TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_branches_created_at ON branches(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_records_branch_month ON performance_records(branch_id, month DESC);
CREATE INDEX IF NOT EXISTS idx_records_month ON performance_records(month);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Branches

func (s *PostgresStore) CreateBranch(ctx context.Context, b model.Branch) (*model.Branch, error) {
	b.ID = uuid.New().String()
	b.CreatedAt = s.now()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO branches (`+branchColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.Name, b.Address, b.Latitude, b.Longitude, string(b.BranchType), b.OpeningDate, b.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert branch")
	}
	return &b, nil
}

func (s *PostgresStore) UpdateBranch(ctx context.Context, b model.Branch) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE branches SET name = $1, address = $2, lat = $3, lng = $4, branch_type = $5, opening_date = $6 WHERE id = $7`,
		b.Name, b.Address, b.Latitude, b.Longitude, string(b.BranchType), b.OpeningDate, b.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update branch %s", b.ID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("branch", b.ID)
	}
	return nil
}

func (s *PostgresStore) GetBranch(ctx context.Context, id string) (*model.Branch, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id)
	b, err := scanBranch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("branch", id)
		}
		return nil, eris.Wrapf(err, "postgres: get branch %s", id)
	}
	return b, nil
}

func (s *PostgresStore) ListBranches(ctx context.Context) ([]model.Branch, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+branchColumns+` FROM branches ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list branches")
	}
	defer rows.Close()

	branches := []model.Branch{}
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan branch")
		}
		branches = append(branches, *b)
	}
	return branches, eris.Wrap(rows.Err(), "postgres: list branches iterate")
}

// DeleteBranch removes the branch and all of its records in one transaction.
func (s *PostgresStore) DeleteBranch(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin delete branch")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM performance_records WHERE branch_id = $1`, id); err != nil {
		return eris.Wrapf(err, "postgres: delete records of branch %s", id)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete branch %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound("branch", id)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit delete branch")
}

// Performance records

func (s *PostgresStore) CreateRecord(ctx context.Context, r model.PerformanceRecord) (*model.PerformanceRecord, error) {
	if err := s.branchExists(ctx, r.BranchID); err != nil {
		return nil, err
	}
	prepareRecord(&r, uuid.New().String(), s.now())

	_, err := s.pool.Exec(ctx,
		`INSERT INTO performance_records (`+recordColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		postgresRecordArgs(r)...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert record")
	}
	return &r, nil
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, r model.PerformanceRecord) error {
	nearby := r.NearbyEstablishments
	if nearby == nil {
		nearby = []string{}
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE performance_records SET month = $1, sales = $2, rent_cost = $3, staff_count = $4, operating_hours = $5,
		 complaints = $6, competitor_count = $7, nearby_establishments = $8, area_class = $9 WHERE id = $10`,
		r.Month.String(), r.Sales, r.RentCost, r.StaffCount, r.OperatingHours,
		r.Complaints, r.CompetitorCount, nearby, string(r.AreaClass), r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update record %s", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("record", r.ID)
	}
	return nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.PerformanceRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM performance_records WHERE id = $1`, id)
	r, err := scanPostgresRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("record", id)
		}
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	return r, nil
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM performance_records WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete record %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound("record", id)
	}
	return nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.PerformanceRecord, error) {
	query, args, err := listRecordsQuery(sq.Dollar, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	records := []model.PerformanceRecord{}
	for rows.Next() {
		r, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, *r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

// ImportRecords bulk-loads records with COPY.
func (s *PostgresStore) ImportRecords(ctx context.Context, records []model.PerformanceRecord) (int, error) {
	now := s.now()
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		prepareRecord(&r, uuid.New().String(), now)
		rows = append(rows, postgresRecordArgs(r))
	}
	n, err := db.CopyFrom(ctx, s.pool, "performance_records", recordInsertColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import records")
	}
	return int(n), nil
}

func (s *PostgresStore) branchExists(ctx context.Context, id string) error {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM branches WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("branch", id)
	}
	return eris.Wrapf(err, "postgres: lookup branch %s", id)
}

func scanPostgresRecord(row scannable) (*model.PerformanceRecord, error) {
	var r model.PerformanceRecord
	var month, areaClass string
	err := row.Scan(&r.ID, &r.BranchID, &month, &r.Sales, &r.RentCost, &r.StaffCount, &r.OperatingHours,
		&r.Complaints, &r.CompetitorCount, &r.NearbyEstablishments, &areaClass, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if r.Month, err = model.ParseMonth(month); err != nil {
		return nil, err
	}
	if r.NearbyEstablishments == nil {
		r.NearbyEstablishments = []string{}
	}
	r.AreaClass = model.AreaClass(areaClass)
	return &r, nil
}

func postgresRecordArgs(r model.PerformanceRecord) []any {
	return []any{
		r.ID, r.BranchID, r.Month.String(), r.Sales, r.RentCost, r.StaffCount, r.OperatingHours,
		r.Complaints, r.CompetitorCount, r.NearbyEstablishments, string(r.AreaClass), r.CreatedAt,
	}
}
