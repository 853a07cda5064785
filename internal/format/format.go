// Package format renders amounts, months and enum values for display.
package format

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/branch-risk/internal/model"
)

// CurrencySymbol is the Philippine peso sign.
const CurrencySymbol = "₱"

// DefaultColor is used for unknown risk levels.
const DefaultColor = "#64748b"

var printer = message.NewPrinter(language.English)

// Currency formats an amount as pesos with two decimals and grouped
// thousands, e.g. "₱1,234.50" or "-₱30,000.00".
func Currency(amount float64) string {
	if amount < 0 {
		return "-" + CurrencySymbol + printer.Sprintf("%.2f", math.Abs(amount))
	}
	return CurrencySymbol + printer.Sprintf("%.2f", amount)
}

// Amount formats an amount with grouped thousands and no symbol, keeping
// up to three fraction digits without trailing zeros: 30000.5 -> "30,000.5".
func Amount(amount float64) string {
	s := printer.Sprintf("%.3f", amount)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// Number formats an integer with grouped thousands.
func Number(n int) string {
	return printer.Sprintf("%d", n)
}

// Percent formats a ratio as a percentage with one decimal, e.g. 0.6333 -> "63.3%".
func Percent(ratio float64) string {
	return printer.Sprintf("%.1f%%", ratio*100)
}

// MonthLabel renders a month as "Jan 2026". The zero month renders "N/A".
func MonthLabel(m model.Month) string {
	if m.IsZero() {
		return "N/A"
	}
	return m.Time().Format("Jan 2006")
}

// DateLabel renders a YYYY-MM-DD or YYYY-MM string for display. Unparseable
// input is returned unchanged and empty input renders "N/A".
func DateLabel(s string) string {
	if s == "" {
		return "N/A"
	}
	if m, err := model.ParseMonth(s); err == nil {
		return MonthLabel(m)
	}
	t, err := parseDate(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// BranchTypeLabel returns the display name of a branch type.
func BranchTypeLabel(t model.BranchType) string {
	switch t {
	case model.BranchTypeMall:
		return "Mall"
	case model.BranchTypeRoadside:
		return "Roadside"
	case model.BranchTypeCampus:
		return "Campus"
	case model.BranchTypeCommercial:
		return "Commercial"
	}
	return string(t)
}

// AreaClassLabel returns the display name of an area class.
func AreaClassLabel(c model.AreaClass) string {
	switch c {
	case model.AreaClassResidential:
		return "Residential"
	case model.AreaClassMixed:
		return "Mixed Use"
	case model.AreaClassCommercial:
		return "Commercial"
	}
	return string(c)
}

// RiskLabel returns the badge text for a risk level.
func RiskLabel(l model.RiskLevel) string {
	switch l {
	case model.RiskLow:
		return "🟢 Low Risk"
	case model.RiskMedium:
		return "🟡 Medium Risk"
	case model.RiskHigh:
		return "🔴 High Risk"
	}
	return "Unknown"
}

// RiskColor returns the hex colour used for a risk level on charts and maps.
func RiskColor(l model.RiskLevel) string {
	switch l {
	case model.RiskLow:
		return "#10b981"
	case model.RiskMedium:
		return "#f59e0b"
	case model.RiskHigh:
		return "#ef4444"
	}
	return DefaultColor
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
