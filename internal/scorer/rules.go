// Package scorer turns a branch's performance records into a bounded risk
// score, a risk level and the list of rules that contributed to it.
package scorer

import (
	"fmt"
	"math"

	"github.com/sells-group/branch-risk/internal/analytics"
	"github.com/sells-group/branch-risk/internal/format"
	"github.com/sells-group/branch-risk/internal/model"
)

// Rule names, in the order they are evaluated and reported.
const (
	RuleNegativeProfit  = "Negative Profit"
	RuleHighRentRatio   = "High Rent Ratio"
	RuleHighCompetition = "High Competition"
	RuleHighComplaints  = "High Complaints"
	RuleDecliningSales  = "Declining Sales"
)

// Thresholds.
const (
	RentRatioThreshold  = 0.35
	CompetitorThreshold = 5
	ComplaintThreshold  = 10
	TrendWindow         = 3
)

// Score bounds and level cut-offs. A score at a cut-off belongs to the higher level.
const (
	MinScore       = 0
	MaxScore       = 100
	MediumAtOrOver = 34
	HighAtOrOver   = 67
)

type rule struct {
	name     string
	points   int
	fires    func(latest model.PerformanceRecord, history []model.PerformanceRecord) bool
	describe func(latest model.PerformanceRecord) string
}

// rules are fixed. Their points sum to MaxScore.
var rules = []rule{
	{
		name:   RuleNegativeProfit,
		points: 35,
		fires: func(latest model.PerformanceRecord, _ []model.PerformanceRecord) bool {
			return analytics.RecordProfit(latest) < 0
		},
		describe: func(latest model.PerformanceRecord) string {
			loss := math.Abs(analytics.RecordProfit(latest))
			return fmt.Sprintf("Losing %s%s per month", format.CurrencySymbol, format.Amount(loss))
		},
	},
	{
		name:   RuleHighRentRatio,
		points: 20,
		fires: func(latest model.PerformanceRecord, _ []model.PerformanceRecord) bool {
			return analytics.RecordRentRatio(latest) > RentRatioThreshold
		},
		describe: func(latest model.PerformanceRecord) string {
			return fmt.Sprintf("Rent is %s of sales (threshold: %.0f%%)",
				format.Percent(analytics.RecordRentRatio(latest)), RentRatioThreshold*100)
		},
	},
	{
		name:   RuleHighCompetition,
		points: 15,
		fires: func(latest model.PerformanceRecord, _ []model.PerformanceRecord) bool {
			return latest.CompetitorCount >= CompetitorThreshold
		},
		describe: func(latest model.PerformanceRecord) string {
			return fmt.Sprintf("%s competitors nearby", format.Number(latest.CompetitorCount))
		},
	},
	{
		name:   RuleHighComplaints,
		points: 10,
		fires: func(latest model.PerformanceRecord, _ []model.PerformanceRecord) bool {
			return latest.Complaints >= ComplaintThreshold
		},
		describe: func(latest model.PerformanceRecord) string {
			return fmt.Sprintf("%s customer complaints this month", format.Number(latest.Complaints))
		},
	},
	{
		name:   RuleDecliningSales,
		points: 20,
		fires: func(_ model.PerformanceRecord, history []model.PerformanceRecord) bool {
			return len(history) >= TrendWindow && analytics.SalesDecreasing(history)
		},
		describe: func(model.PerformanceRecord) string {
			return fmt.Sprintf("Sales decreased for %d consecutive months", TrendWindow)
		},
	},
}

// RuleNames returns the rule names in evaluation order.
func RuleNames() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.name
	}
	return out
}

// MaxPoints returns the sum of every rule's points.
func MaxPoints() int {
	var sum int
	for _, r := range rules {
		sum += r.points
	}
	return sum
}
