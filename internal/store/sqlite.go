package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/branch-risk/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS branches (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	address      TEXT NOT NULL DEFAULT '',
	lat          REAL NOT NULL,
	lng          REAL NOT NULL,
	branch_type  TEXT NOT NULL,
	opening_date TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS performance_records (
	id                    TEXT PRIMARY KEY,
	branch_id             TEXT NOT NULL REFERENCES branches(id) ON DELETE CASCADE,
	month                 TEXT NOT NULL,
	sales                 REAL NOT NULL DEFAULT 0,
	rent_cost             REAL NOT NULL DEFAULT 0,
	staff_count           INTEGER NOT NULL DEFAULT 1,
	operating_hours       INTEGER NOT NULL DEFAULT 1,
	complaints            INTEGER NOT NULL DEFAULT 0,
	competitor_count      INTEGER NOT NULL DEFAULT 0,
	nearby_establishments TEXT NOT NULL DEFAULT '[]',
	area_class            TEXT NOT NULL DEFAULT '',
	created_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_branches_created_at ON branches(created_at);
CREATE INDEX IF NOT EXISTS idx_records_branch_month ON performance_records(branch_id, month);
CREATE INDEX IF NOT EXISTS idx_records_month ON performance_records(month);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Branches

func (s *SQLiteStore) CreateBranch(ctx context.Context, b model.Branch) (*model.Branch, error) {
	b.ID = uuid.New().String()
	b.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO branches (`+branchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Address, b.Latitude, b.Longitude, string(b.BranchType), b.OpeningDate, b.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert branch")
	}
	return &b, nil
}

func (s *SQLiteStore) UpdateBranch(ctx context.Context, b model.Branch) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE branches SET name = ?, address = ?, lat = ?, lng = ?, branch_type = ?, opening_date = ? WHERE id = ?`,
		b.Name, b.Address, b.Latitude, b.Longitude, string(b.BranchType), b.OpeningDate, b.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update branch %s", b.ID)
	}
	return checkRowsAffected(res, "branch", b.ID)
}

func (s *SQLiteStore) GetBranch(ctx context.Context, id string) (*model.Branch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE id = ?`, id,
	)
	b, err := scanBranch(row)
	if err == sql.ErrNoRows {
		return nil, notFound("branch", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get branch %s", id)
	}
	return b, nil
}

func (s *SQLiteStore) ListBranches(ctx context.Context) ([]model.Branch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+branchColumns+` FROM branches ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list branches")
	}
	defer rows.Close() //nolint:errcheck

	branches := []model.Branch{}
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan branch")
		}
		branches = append(branches, *b)
	}
	return branches, eris.Wrap(rows.Err(), "sqlite: list branches iterate")
}

// DeleteBranch removes the branch and all of its records in one transaction.
func (s *SQLiteStore) DeleteBranch(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete branch")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM performance_records WHERE branch_id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: delete records of branch %s", id)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM branches WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete branch %s", id)
	}
	if err := checkRowsAffected(res, "branch", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete branch")
}

// Performance records

func (s *SQLiteStore) CreateRecord(ctx context.Context, r model.PerformanceRecord) (*model.PerformanceRecord, error) {
	if err := s.branchExists(ctx, r.BranchID); err != nil {
		return nil, err
	}
	prepareRecord(&r, uuid.New().String(), s.now())

	args, err := sqliteRecordArgs(r)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO performance_records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert record")
	}
	return &r, nil
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, r model.PerformanceRecord) error {
	nearby, err := marshalNearby(r.NearbyEstablishments)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE performance_records SET month = ?, sales = ?, rent_cost = ?, staff_count = ?, operating_hours = ?,
		 complaints = ?, competitor_count = ?, nearby_establishments = ?, area_class = ? WHERE id = ?`,
		r.Month.String(), r.Sales, r.RentCost, r.StaffCount, r.OperatingHours,
		r.Complaints, r.CompetitorCount, nearby, string(r.AreaClass), r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update record %s", r.ID)
	}
	return checkRowsAffected(res, "record", r.ID)
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.PerformanceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM performance_records WHERE id = ?`, id,
	)
	r, err := scanSQLiteRecord(row)
	if err == sql.ErrNoRows {
		return nil, notFound("record", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM performance_records WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete record %s", id)
	}
	return checkRowsAffected(res, "record", id)
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.PerformanceRecord, error) {
	query, args, err := listRecordsQuery(sq.Question, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close() //nolint:errcheck

	records := []model.PerformanceRecord{}
	for rows.Next() {
		r, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, *r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

// ImportRecords inserts records in a single transaction. Either all rows
// are written or none are.
func (s *SQLiteStore) ImportRecords(ctx context.Context, records []model.PerformanceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO performance_records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close() //nolint:errcheck

	now := s.now()
	for i := range records {
		r := records[i]
		prepareRecord(&r, uuid.New().String(), now)
		args, err := sqliteRecordArgs(r)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: import record %d (branch %s, %s)", i, r.BranchID, r.Month)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return len(records), nil
}

func (s *SQLiteStore) branchExists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM branches WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return notFound("branch", id)
	}
	return eris.Wrapf(err, "sqlite: lookup branch %s", id)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBranch(row scannable) (*model.Branch, error) {
	var b model.Branch
	var branchType string
	if err := row.Scan(&b.ID, &b.Name, &b.Address, &b.Latitude, &b.Longitude, &branchType, &b.OpeningDate, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.BranchType = model.BranchType(branchType)
	return &b, nil
}

func scanSQLiteRecord(row scannable) (*model.PerformanceRecord, error) {
	var r model.PerformanceRecord
	var month, nearby, areaClass string
	err := row.Scan(&r.ID, &r.BranchID, &month, &r.Sales, &r.RentCost, &r.StaffCount, &r.OperatingHours,
		&r.Complaints, &r.CompetitorCount, &nearby, &areaClass, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if r.Month, err = model.ParseMonth(month); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(nearby), &r.NearbyEstablishments); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal nearby establishments")
	}
	r.AreaClass = model.AreaClass(areaClass)
	return &r, nil
}

func sqliteRecordArgs(r model.PerformanceRecord) ([]any, error) {
	nearby, err := marshalNearby(r.NearbyEstablishments)
	if err != nil {
		return nil, err
	}
	return []any{
		r.ID, r.BranchID, r.Month.String(), r.Sales, r.RentCost, r.StaffCount, r.OperatingHours,
		r.Complaints, r.CompetitorCount, nearby, string(r.AreaClass), r.CreatedAt,
	}, nil
}

func marshalNearby(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal nearby establishments")
	}
	return string(data), nil
}
