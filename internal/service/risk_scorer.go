package service

import (
	"github.com/medsafe-engine/internal/domain"
)

// MaxRiskScore caps the additive score
const MaxRiskScore = 10

// Highest score in each of the lower tiers
const (
	lowTierMax    = 3
	mediumTierMax = 6
)

// RiskScorer turns matched criteria into a score and tier
type RiskScorer struct{}

// NewRiskScorer creates a new risk scorer
func NewRiskScorer() *RiskScorer {
	return &RiskScorer{}
}

// Score sums severity points over the matches, caps the total and assigns its tier
func (s *RiskScorer) Score(matches []domain.CriteriaEntry) domain.RiskAssessment {
	score := 0
	for _, m := range matches {
		score += m.Severity.Points()
		if score >= MaxRiskScore {
			score = MaxRiskScore
			break
		}
	}
	return domain.RiskAssessment{Score: score, Tier: TierForScore(score)}
}

// TierForScore is the single score-to-tier mapping: 0-3 LOW, 4-6 MEDIUM, 7-10 HIGH
func TierForScore(score int) domain.RiskTier {
	switch {
	case score <= lowTierMax:
		return domain.RISK_LOW
	case score <= mediumTierMax:
		return domain.RISK_MEDIUM
	default:
		return domain.RISK_HIGH
	}
}
