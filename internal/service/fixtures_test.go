package service

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/medsafe-engine/internal/catalog"
)

const fixtureCatalog = `
version: service-test
criteria:
  - id: drug-x-geriatric
    drug_pattern: Drug X
    applicable_categories: [GERIATRIC]
    severity: HIGH
    rationale: Strong anticholinergic effects
    alternative_suggestion: Consider a non-sedating alternative
  - id: warfexin-low
    drug_pattern: warfexin
    applicable_categories: [GERIATRIC]
    severity: LOW
    rationale: Monitor bleeding
  - id: warfexin-high
    drug_pattern: warfexin
    applicable_categories: [GERIATRIC]
    severity: HIGH
    rationale: Bleeding risk
    alternative_suggestion: Reduce dose
  - id: warfexin-medium
    drug_pattern: warfexin
    applicable_categories: [GERIATRIC, ADULT]
    severity: MEDIUM
    rationale: Interaction risk
    alternative_suggestion: Check INR weekly
  - id: warfexin-high-2
    drug_pattern: warfexin
    applicable_categories: [GERIATRIC]
    severity: HIGH
    rationale: Falls risk
  - id: pedimycin-young
    drug_pattern: pedimycin
    applicable_categories: [NEONATAL, PEDIATRIC]
    severity: HIGH
    rationale: Tooth discoloration under 8 years
    alternative_suggestion: Consider amoxicillin
    condition: patient.age < 8
  - id: asthmazol-asthma
    drug_pattern: asthmazol
    applicable_categories: [ADULT]
    severity: MEDIUM
    rationale: May trigger bronchospasm
    condition: '"asthma" in patient.conditions'
dosage_guidelines:
  - drug_pattern: Drug X
    mg_per_kg_low: 5
    mg_per_kg_high: 10
    max_daily_mg: 500
  - drug_pattern: fixodine
    adult_fixed_range_low: 100
    adult_fixed_range_high: 200
    age_adjustment_factor:
      GERIATRIC: 0.5
    renal_adjustment_factor:
      SEVERE_IMPAIRMENT: 0.5
    max_daily_mg: 400
  - drug_pattern: kilodone
    mg_per_kg_low: 1
    mg_per_kg_high: 2
    max_daily_mg: 1000
  - drug_pattern: cappamine
    adult_fixed_range_low: 100
    adult_fixed_range_high: 300
    max_daily_mg: 50
products:
  - ndc: "12345-6789-01"
    drug: Drug X
`

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func loadTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load(strings.NewReader(fixtureCatalog))
	require.NoError(t, err)
	return c
}
