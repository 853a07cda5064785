package scorer

import (
	"github.com/sells-group/branch-risk/internal/analytics"
	"github.com/sells-group/branch-risk/internal/model"
)

// Factors returns every rule that fires for latest, in evaluation order.
// history is the branch's full record set and only feeds the trend rule.
// A nil latest record means no data yet and yields no factors.
func Factors(latest *model.PerformanceRecord, history []model.PerformanceRecord) []model.RiskFactor {
	factors := []model.RiskFactor{}
	if latest == nil {
		return factors
	}
	for _, r := range rules {
		if !r.fires(*latest, history) {
			continue
		}
		factors = append(factors, model.RiskFactor{
			Name:        r.name,
			Points:      r.points,
			Description: r.describe(*latest),
		})
	}
	return factors
}

// Score returns the sum of fired rule points clamped to [MinScore, MaxScore].
// A nil latest record scores zero.
func Score(latest *model.PerformanceRecord, history []model.PerformanceRecord) int {
	return clamp(rawScore(Factors(latest, history)))
}

// Level maps a score onto its risk level.
func Level(score int) model.RiskLevel {
	switch {
	case score >= HighAtOrOver:
		return model.RiskHigh
	case score >= MediumAtOrOver:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Assess computes score, level and factors in a single pass.
func Assess(latest *model.PerformanceRecord, history []model.PerformanceRecord) model.RiskAssessment {
	factors := Factors(latest, history)
	score := clamp(rawScore(factors))
	return model.RiskAssessment{
		Score:   score,
		Level:   Level(score),
		Factors: factors,
	}
}

// AssessBranch assesses a branch from its own records, using the latest
// one as the snapshot. The bool is false when the branch has no records.
func AssessBranch(records []model.PerformanceRecord) (model.RiskAssessment, bool) {
	latest, ok := analytics.LatestRecord(records)
	if !ok {
		return Assess(nil, nil), false
	}
	return Assess(&latest, records), true
}

// Distribution counts branches per risk level using each branch's latest
// record. Branches without records are not counted.
func Distribution(branches []model.Branch, records []model.PerformanceRecord) model.RiskDistribution {
	var dist model.RiskDistribution
	byBranch := analytics.GroupByBranch(records)
	for _, b := range branches {
		a, ok := AssessBranch(byBranch[b.ID])
		if !ok {
			continue
		}
		dist.Add(a.Level)
	}
	return dist
}

func rawScore(factors []model.RiskFactor) int {
	var sum int
	for _, f := range factors {
		sum += f.Points
	}
	return sum
}

func clamp(score int) int {
	return min(max(score, MinScore), MaxScore)
}
