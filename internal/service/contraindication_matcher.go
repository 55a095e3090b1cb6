package service

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/medsafe-engine/internal/domain"
)

// ContraindicationMatcher selects the catalog entries that apply to a drug and age category
type ContraindicationMatcher struct {
	logger     *logrus.Logger
	lookup     domain.CriteriaLookup
	conditions domain.ConditionEvaluator
}

// NewContraindicationMatcher creates a new matcher. conditions may be nil, in which case
// conditional entries are always kept.
func NewContraindicationMatcher(logger *logrus.Logger, lookup domain.CriteriaLookup, conditions domain.ConditionEvaluator) *ContraindicationMatcher {
	return &ContraindicationMatcher{
		logger:     logger,
		lookup:     lookup,
		conditions: conditions,
	}
}

// Match returns the entries for drugName that list category, most severe first.
// Entries of equal severity keep catalog order. Patient conditions are not evaluated.
func (m *ContraindicationMatcher) Match(drugName string, category domain.AgeCategory) []domain.CriteriaEntry {
	candidates := m.lookup.FindByDrug(drugName)

	matches := make([]domain.CriteriaEntry, 0, len(candidates))
	for _, entry := range candidates {
		if entry.AppliesTo(category) {
			matches = append(matches, entry)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Severity.Rank() > matches[j].Severity.Rank()
	})
	return matches
}

// MatchPatient is Match followed by dropping entries whose condition does not hold for the
// patient. A condition that fails to evaluate keeps its entry.
func (m *ContraindicationMatcher) MatchPatient(drugName string, category domain.AgeCategory, patient domain.PatientProfile) []domain.CriteriaEntry {
	matches := m.Match(drugName, category)
	if m.conditions == nil {
		return matches
	}

	kept := matches[:0]
	for _, entry := range matches {
		if entry.Condition == "" {
			kept = append(kept, entry)
			continue
		}

		holds, err := m.conditions.ConditionHolds(entry, patient, category)
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"criteria_id": entry.ID,
				"condition":   entry.Condition,
			}).WithError(err).Warn("Condition evaluation failed, keeping entry")
			holds = true
		}
		if holds {
			kept = append(kept, entry)
		}
	}
	return kept
}
