package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/branch-risk/internal/model"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₱0.00"},
		{1234.5, "₱1,234.50"},
		{450000, "₱450,000.00"},
		{-30000, "-₱30,000.00"},
		{999.999, "₱1,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(tt.in))
		})
	}
}

func TestNumbers(t *testing.T) {
	assert.Equal(t, "1,234,567", Number(1234567))
	assert.Equal(t, "12", Number(12))
	assert.Equal(t, "30,000", Amount(30000))
	assert.Equal(t, "30,000.5", Amount(30000.5))
	assert.Equal(t, "1,234.568", Amount(1234.5678))
	assert.Equal(t, "0.25", Amount(0.25))
	assert.Equal(t, "0", Amount(0))
	assert.Equal(t, "63.3%", Percent(95000.0/150000.0))
	assert.Equal(t, "0.0%", Percent(0))
}

func TestMonthAndDateLabels(t *testing.T) {
	assert.Equal(t, "Jan 2026", MonthLabel(model.MustParseMonth("2026-01")))
	assert.Equal(t, "N/A", MonthLabel(model.Month{}))
	assert.Equal(t, "Nov 2025", DateLabel("2025-11"))
	assert.Equal(t, "Jan 15, 2023", DateLabel("2023-01-15"))
	assert.Equal(t, "N/A", DateLabel(""))
	assert.Equal(t, "someday", DateLabel("someday"))
}

func TestEnumLabels(t *testing.T) {
	assert.Equal(t, "Mall", BranchTypeLabel(model.BranchTypeMall))
	assert.Equal(t, "Roadside", BranchTypeLabel(model.BranchTypeRoadside))
	assert.Equal(t, "Campus", BranchTypeLabel(model.BranchTypeCampus))
	assert.Equal(t, "Commercial", BranchTypeLabel(model.BranchTypeCommercial))
	assert.Equal(t, "kiosk", BranchTypeLabel("kiosk"))

	assert.Equal(t, "Residential", AreaClassLabel(model.AreaClassResidential))
	assert.Equal(t, "Mixed Use", AreaClassLabel(model.AreaClassMixed))
	assert.Equal(t, "Commercial", AreaClassLabel(model.AreaClassCommercial))
	assert.Equal(t, "rural", AreaClassLabel("rural"))
}

func TestRiskPresentation(t *testing.T) {
	assert.Equal(t, "🟢 Low Risk", RiskLabel(model.RiskLow))
	assert.Equal(t, "🟡 Medium Risk", RiskLabel(model.RiskMedium))
	assert.Equal(t, "🔴 High Risk", RiskLabel(model.RiskHigh))
	assert.Equal(t, "Unknown", RiskLabel("extreme"))

	assert.Equal(t, "#10b981", RiskColor(model.RiskLow))
	assert.Equal(t, "#f59e0b", RiskColor(model.RiskMedium))
	assert.Equal(t, "#ef4444", RiskColor(model.RiskHigh))
	assert.Equal(t, DefaultColor, RiskColor(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "SM Ci...", Truncate("SM City Davao", 5))
	assert.Equal(t, "", Truncate("", 5))
}
