package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    Month
		wantErr bool
	}{
		{"2026-01", Month{2026, time.January}, false},
		{"1999-12", Month{1999, time.December}, false},
		{"2026-13", Month{}, true},
		{"2026-00", Month{}, true},
		{"2026-1", Month{}, true},
		{"26-01", Month{}, true},
		{"2026/01", Month{}, true},
		{"abcd-01", Month{}, true},
		{"", Month{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestMonthCompare(t *testing.T) {
	a := MustParseMonth("2025-11")
	b := MustParseMonth("2025-12")
	c := MustParseMonth("2026-01")

	assert.True(t, a.Before(b))
	assert.True(t, c.After(b))
	assert.Equal(t, 0, b.Compare(MustParseMonth("2025-12")))
	assert.Equal(t, -1, a.Compare(c))
	assert.Equal(t, 1, c.Compare(a))
}

func TestMonthOrderMatchesCanonicalString(t *testing.T) {
	months := []string{"2024-02", "2024-10", "2025-01", "2025-09", "2025-12"}
	for i := 1; i < len(months); i++ {
		prev := MustParseMonth(months[i-1])
		cur := MustParseMonth(months[i])
		assert.True(t, prev.Before(cur), "%s before %s", prev, cur)
		assert.Less(t, prev.String(), cur.String())
	}
}

func TestMonthAddMonths(t *testing.T) {
	m := MustParseMonth("2025-11")
	assert.Equal(t, "2025-12", m.AddMonths(1).String())
	assert.Equal(t, "2026-01", m.AddMonths(2).String())
	assert.Equal(t, "2024-11", m.AddMonths(-12).String())
}

func TestMonthZero(t *testing.T) {
	var m Month
	assert.True(t, m.IsZero())
	assert.Equal(t, "", m.String())
}

func TestMonthJSON(t *testing.T) {
	type wrapper struct {
		Month Month `json:"month"`
	}

	data, err := json.Marshal(wrapper{Month: MustParseMonth("2026-01")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"2026-01"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"month":"2025-07"}`), &w))
	assert.Equal(t, MustParseMonth("2025-07"), w.Month)

	assert.Error(t, json.Unmarshal([]byte(`{"month":"July 2025"}`), &w))
}

func TestMonthOf(t *testing.T) {
	ts := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03", MonthOf(ts).String())
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), MonthOf(ts).Time())
}
