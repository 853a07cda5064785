package model

// RiskLevel is the categorical bucket derived from a risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevels returns every level from least to most severe.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh}
}

// RiskFactor is one scoring rule that fired, with its evidence.
type RiskFactor struct {
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// RiskAssessment is computed on demand from a branch's records and never stored.
type RiskAssessment struct {
	Score   int          `json:"score"`
	Level   RiskLevel    `json:"level"`
	Factors []RiskFactor `json:"factors"`
}

// RiskDistribution counts branches per risk level.
type RiskDistribution struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Add increments the bucket for level.
func (d *RiskDistribution) Add(level RiskLevel) {
	switch level {
	case RiskLow:
		d.Low++
	case RiskMedium:
		d.Medium++
	case RiskHigh:
		d.High++
	}
}

// Count returns the bucket size for level.
func (d RiskDistribution) Count(level RiskLevel) int {
	switch level {
	case RiskLow:
		return d.Low
	case RiskMedium:
		return d.Medium
	case RiskHigh:
		return d.High
	}
	return 0
}

// Total returns the number of branches counted.
func (d RiskDistribution) Total() int {
	return d.Low + d.Medium + d.High
}
