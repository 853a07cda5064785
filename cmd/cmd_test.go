package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/branch-risk/internal/config"
	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/model"
	"github.com/sells-group/branch-risk/internal/notify"
	"github.com/sells-group/branch-risk/internal/seed"
	"github.com/sells-group/branch-risk/internal/store"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "score", "dashboard", "seed", "export", "import", "migrate"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "branch-risk", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd  string
		flag string
		def  string
	}{
		{"serve", "port", "0"},
		{"score", "format", "table"},
		{"score", "branch", ""},
		{"score", "output", ""},
		{"dashboard", "json", "false"},
		{"seed", "file", ""},
		{"export", "by-risk", "false"},
		{"import", "sheet", ""},
		{"import", "dry-run", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd+"/"+tt.flag, func(t *testing.T) {
			c, _, err := rootCmd.Find([]string{tt.cmd})
			require.NoError(t, err)
			f := c.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

// seededSnapshot loads the demo dataset into a temp SQLite store.
func seededSnapshot(t *testing.T) (store.Store, dashboard.Snapshot) {
	t.Helper()
	ctx := context.Background()
	st, err := initStore(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "cli.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	ds, err := seed.Demo()
	require.NoError(t, err)
	_, err = seed.Apply(ctx, st, ds)
	require.NoError(t, err)

	snap, err := dashboard.New(st).Load(ctx)
	require.NoError(t, err)
	return st, snap
}

func TestWriteScoreTable(t *testing.T) {
	_, snap := seededSnapshot(t)
	snap.Branches = append(snap.Branches, model.Branch{ID: "new", Name: "Lanang Kiosk", BranchType: model.BranchTypeCommercial})
	rows := dashboard.BuildRows(snap)
	dashboard.SortByRisk(rows)

	var buf bytes.Buffer
	writeScoreTable(&buf, rows)
	out := buf.String()

	assert.Contains(t, out, "BRANCH")
	assert.Contains(t, out, "J.P. Laurel Ave Branch")
	assert.Contains(t, out, "₱25,000.00")
	assert.Contains(t, out, "79.2%")
	assert.Contains(t, out, "medium")
	assert.Contains(t, out, "no data")
}

func TestWriteScoreTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	writeScoreTable(&buf, nil)
	assert.Equal(t, "No branches found.\n", buf.String())
}

func TestWriteScoreCSV(t *testing.T) {
	_, snap := seededSnapshot(t)
	rows := dashboard.BuildRows(snap)
	dashboard.SortByRisk(rows)

	var buf bytes.Buffer
	require.NoError(t, writeScoreCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, "branch_id", records[0][0])

	top := records[1]
	assert.Equal(t, "J.P. Laurel Ave Branch", top[1])
	assert.Equal(t, "2026-01", top[3])
	assert.Equal(t, "25000.00", top[6])
	assert.Equal(t, "65", top[10])
	assert.Equal(t, "medium", top[11])
}

func TestWriteBranchBreakdown(t *testing.T) {
	st, snap := seededSnapshot(t)

	var roadID string
	for _, b := range snap.Branches {
		if b.BranchType == model.BranchTypeRoadside {
			roadID = b.ID
		}
	}
	require.NotEmpty(t, roadID)

	detail, err := dashboard.New(st).BranchDetail(context.Background(), roadID)
	require.NoError(t, err)

	var buf bytes.Buffer
	writeBranchBreakdown(&buf, detail)
	out := buf.String()

	assert.Contains(t, out, "Branch:  J.P. Laurel Ave Branch")
	assert.Contains(t, out, "Opened:  Feb 1, 2023")
	assert.Contains(t, out, "Score:   65 / 100")
	assert.Contains(t, out, "+20")
	assert.Contains(t, out, "Sales trend:")
	assert.Contains(t, out, "Nov 2025")
}

func TestWriteBranchBreakdown_NoRecords(t *testing.T) {
	d := dashboard.BuildDetail(model.Branch{Name: "Empty", BranchType: model.BranchTypeCampus}, nil)

	var buf bytes.Buffer
	writeBranchBreakdown(&buf, d)
	assert.Contains(t, buf.String(), "No performance records.")
	assert.Contains(t, buf.String(), "Opened:  N/A")
}

func TestFormatSummary(t *testing.T) {
	_, snap := seededSnapshot(t)
	sum := dashboard.BuildSummary(snap)

	var buf bytes.Buffer
	formatSummary(&buf, sum)
	out := buf.String()

	assert.Contains(t, out, "5 (5 with data)")
	assert.Contains(t, out, "Records:")
	assert.Contains(t, out, "Jan 2026")
	assert.Contains(t, out, "Best branch type:  Mall")
	assert.Contains(t, out, "Profit by type:")
	assert.Contains(t, out, "Risk distribution:")
	assert.NotContains(t, out, "High-risk branches:")
}

func TestInitStore(t *testing.T) {
	ctx := context.Background()

	st, err := initStore(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	branches, err := st.ListBranches(ctx)
	require.NoError(t, err)
	assert.Empty(t, branches)
	require.NoError(t, st.Close())

	_, err = initStore(ctx, config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitBroker(t *testing.T) {
	ctx := context.Background()

	br, err := initBroker(ctx, config.NotifyConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &notify.Hub{}, br)
	require.NoError(t, br.Close())

	mr := miniredis.RunT(t)
	br, err = initBroker(ctx, config.NotifyConfig{Driver: "redis", RedisAddr: mr.Addr(), Channel: "test:changes"})
	require.NoError(t, err)
	assert.IsType(t, &notify.RedisBroker{}, br)
	require.NoError(t, br.Close())

	_, err = initBroker(ctx, config.NotifyConfig{Driver: "kafka"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported notify driver")
}

func TestWithAnnouncer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := initStore(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "a.db")})
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	same, closeFn, err := withAnnouncer(ctx, st, config.NotifyConfig{Driver: "memory"})
	require.NoError(t, err)
	closeFn()
	assert.Same(t, st, same)

	mr := miniredis.RunT(t)
	nc := config.NotifyConfig{Driver: "redis", RedisAddr: mr.Addr(), Channel: "test:changes"}

	listener, err := initBroker(ctx, nc)
	require.NoError(t, err)
	defer listener.Close() //nolint:errcheck
	events, err := listener.Subscribe(ctx)
	require.NoError(t, err)

	wrapped, closeFn, err := withAnnouncer(ctx, st, nc)
	require.NoError(t, err)
	defer closeFn()

	created, err := wrapped.CreateBranch(ctx, model.Branch{Name: "Announced", BranchType: model.BranchTypeMall})
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, notify.KindBranch, e.Kind)
		assert.Equal(t, notify.OpCreated, e.Op)
		assert.Equal(t, created.ID, e.ID)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}

func TestIgnoreCanceled(t *testing.T) {
	assert.NoError(t, ignoreCanceled(context.Canceled))
	assert.NoError(t, ignoreCanceled(context.DeadlineExceeded))
	assert.NoError(t, ignoreCanceled(nil))

	boom := errors.New("boom")
	assert.Equal(t, boom, ignoreCanceled(boom))
}
