package service

import (
	"fmt"
	"strings"

	"github.com/medsafe-engine/internal/domain"
)

// VerdictAssembler packages matches, risk assessment and an optional dosage result into a
// verdict. It never alters the scores or the matches it is given.
type VerdictAssembler struct{}

// NewVerdictAssembler creates a new verdict assembler
func NewVerdictAssembler() *VerdictAssembler {
	return &VerdictAssembler{}
}

// Assemble builds the verdict. Recommendations are the non-empty alternative suggestions in
// match order.
func (a *VerdictAssembler) Assemble(matches []domain.CriteriaEntry, assessment domain.RiskAssessment, dosage *domain.DosageVerdict) *domain.SafetyVerdict {
	copied := make([]domain.CriteriaEntry, len(matches))
	recommendations := make([]string, 0, len(matches))
	for i, m := range matches {
		copied[i] = m.Clone()
		if m.AlternativeSuggestion != "" {
			recommendations = append(recommendations, m.AlternativeSuggestion)
		}
	}

	var dosageCopy *domain.DosageVerdict
	if dosage != nil {
		d := *dosage
		dosageCopy = &d
	}

	return &domain.SafetyVerdict{
		RiskScore:       assessment.Score,
		RiskTier:        assessment.Tier,
		MatchedCriteria: copied,
		Recommendations: recommendations,
		Summary:         summarize(matches, assessment, dosageCopy),
		Dosage:          dosageCopy,
	}
}

func summarize(matches []domain.CriteriaEntry, assessment domain.RiskAssessment, dosage *domain.DosageVerdict) string {
	var b strings.Builder

	if len(matches) == 0 {
		b.WriteString("No age-related contraindications found")
	} else {
		parts := make([]string, len(matches))
		for i, m := range matches {
			parts[i] = fmt.Sprintf("%s (%s, %s)", m.DrugPattern, m.Severity, m.Source)
		}
		fmt.Fprintf(&b, "%d contraindication(s) matched: %s", len(matches), strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, ". Risk %s (score %d)", assessment.Tier, assessment.Score)

	if dosage != nil {
		fmt.Fprintf(&b, ". Dosage %s: %s", dosage.Status, dosage.Reason)
	}
	b.WriteString(".")
	return b.String()
}
