package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsafe-engine/internal/domain"
	"github.com/medsafe-engine/pkg/similarity"
)

const fixtureYAML = `
version: test
criteria:
  - id: x-geriatric
    drug_pattern: drugx
    aliases: [brandx]
    applicable_categories: [GERIATRIC]
    severity: MEDIUM
    rationale: Sedation in older adults
    alternative_suggestion: Use drugy
  - id: x-pediatric
    drug_pattern: drugx
    applicable_categories: [PEDIATRIC]
    severity: HIGH
    rationale: Not studied under 6 years
    condition: patient.age < 6
  - id: z-any
    drug_pattern: drugz extended
    applicable_categories: [ADULT, GERIATRIC]
    severity: LOW
    rationale: Monitor
dosage_guidelines:
  - drug_pattern: drugx
    aliases: [brandx]
    mg_per_kg_low: 5
    mg_per_kg_high: 10
    max_daily_mg: 500
  - drug_pattern: drugy
    adult_fixed_range_low: 100
    adult_fixed_range_high: 200
    renal_adjustment_factor:
      severe: 0.5
    max_daily_mg: 400
products:
  - ndc: "12345-6789-01"
    drug: drugx
`

func loadFixture(t *testing.T, opts ...Option) *Catalog {
	t.Helper()
	c, err := Load(strings.NewReader(fixtureYAML), opts...)
	require.NoError(t, err)
	return c
}

func TestLoadFixture(t *testing.T) {
	c := loadFixture(t)

	stats := c.Stats()
	assert.Equal(t, "test", stats.Version)
	assert.Equal(t, 3, stats.Criteria)
	assert.Equal(t, 2, stats.DosageGuidelines)
	assert.Equal(t, 1, stats.Products)
	assert.Equal(t, 1, stats.Conditional)

	entries := c.Criteria()
	require.Len(t, entries, 3)
	assert.Equal(t, domain.SOURCE_BEERS, entries[0].Source)
	assert.Equal(t, domain.SOURCE_PEDIATRIC, entries[1].Source)

	g := c.DosageGuidelines()[1]
	assert.Equal(t, 0.5, g.RenalAdjustmentFactor[domain.RENAL_SEVERE])
}

func TestLoadDefault(t *testing.T) {
	c, err := LoadDefault()
	require.NoError(t, err)

	stats := c.Stats()
	assert.NotEmpty(t, stats.Version)
	assert.Greater(t, stats.Criteria, 10)
	assert.Greater(t, stats.DosageGuidelines, 5)
	assert.Greater(t, stats.Conditional, 0)

	matches := c.FindByDrug("Benadryl 25mg tablet")
	require.Len(t, matches, 1)
	assert.Equal(t, "diphenhydramine", matches[0].DrugPattern)
	assert.Equal(t, domain.SEVERITY_HIGH, matches[0].Severity)

	g, err := c.FindDosageGuideline("Tylenol")
	require.NoError(t, err)
	assert.Equal(t, "acetaminophen", g.DrugPattern)

	for _, name := range []string{"prednisolone", "lisinoprilat", "amoxicilin"} {
		_, err := c.FindDosageGuideline(name)
		assert.True(t, errors.Is(err, domain.ErrNotFound), name)
	}

	drug, ok := c.ResolveNDC("0045-0181-01")
	assert.True(t, ok)
	assert.Equal(t, "diphenhydramine", drug)
}

func TestFindByDrug(t *testing.T) {
	c := loadFixture(t)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"Exact pattern", "drugx", []string{"x-geriatric", "x-pediatric"}},
		{"Case insensitive", "DRUGX", []string{"x-geriatric", "x-pediatric"}},
		{"Alias", "BrandX 20 mg", []string{"x-geriatric"}},
		{"Token run", "drugz extended release", []string{"z-any"}},
		{"Fuzzy", "drugxx", []string{"x-geriatric", "x-pediatric"}},
		{"Unknown", "unobtainium", []string{}},
		{"Empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := c.FindByDrug(tt.query)
			require.NotNil(t, matches)
			ids := make([]string, 0, len(matches))
			for _, m := range matches {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestFindByDrugReturnsCopies(t *testing.T) {
	c := loadFixture(t)

	first := c.FindByDrug("drugx")
	first[0].Aliases[0] = "tampered"
	first[0].ApplicableCategories[0] = domain.ADULT

	second := c.FindByDrug("drugx")
	assert.Equal(t, "brandx", second[0].Aliases[0])
	assert.Equal(t, domain.GERIATRIC, second[0].ApplicableCategories[0])
}

func TestFindByDrugThreshold(t *testing.T) {
	strict := loadFixture(t, WithThreshold(1.0))
	assert.Empty(t, strict.FindByDrug("drugxx"))

	loose := loadFixture(t, WithStrategy(similarity.NewJaroWinkler()), WithThreshold(0.9))
	assert.Len(t, loose.FindByDrug("drugxx"), 2)
}

func TestFindDosageGuideline(t *testing.T) {
	c := loadFixture(t)

	g, err := c.FindDosageGuideline("brandx")
	require.NoError(t, err)
	assert.Equal(t, "drugx", g.DrugPattern)
	assert.True(t, g.HasWeightBasedRange())
	assert.False(t, g.HasFixedRange())

	g.MaxDailyMg = 1
	again, err := c.FindDosageGuideline("drugx")
	require.NoError(t, err)
	assert.Equal(t, 500.0, again.MaxDailyMg)

	g, err = c.FindDosageGuideline("drugx 20 mg twice daily")
	require.NoError(t, err)
	assert.Equal(t, "drugx", g.DrugPattern)

	// Near misses never borrow another drug's range
	_, err = c.FindDosageGuideline("drugxx")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = c.FindDosageGuideline("")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = c.FindDosageGuideline("unobtainium")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	var notFound *domain.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "unobtainium", notFound.Key)
}

func TestResolveNDC(t *testing.T) {
	c := loadFixture(t)

	drug, ok := c.ResolveNDC("12345678901")
	assert.True(t, ok)
	assert.Equal(t, "drugx", drug)

	_, ok = c.ResolveNDC("99999-9999-99")
	assert.False(t, ok)

	_, ok = c.ResolveNDC("not-an-ndc")
	assert.False(t, ok)
}

func TestConditionHolds(t *testing.T) {
	c := loadFixture(t)
	entries := c.Criteria()
	geriatric, pediatric := entries[0], entries[1]

	held, err := c.ConditionHolds(geriatric, domain.PatientProfile{Age: 80}, domain.GERIATRIC)
	require.NoError(t, err)
	assert.True(t, held)

	held, err = c.ConditionHolds(pediatric, domain.PatientProfile{Age: 4}, domain.PEDIATRIC)
	require.NoError(t, err)
	assert.True(t, held)

	held, err = c.ConditionHolds(pediatric, domain.PatientProfile{Age: 9}, domain.PEDIATRIC)
	require.NoError(t, err)
	assert.False(t, held)

	foreign := pediatric
	foreign.ID = "not-in-catalog"
	_, err = c.ConditionHolds(foreign, domain.PatientProfile{Age: 4}, domain.PEDIATRIC)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConditionActivation(t *testing.T) {
	data := ReferenceData{Criteria: []CriteriaRecord{{
		ID:                   "hf",
		DrugPattern:          "drugx",
		ApplicableCategories: []string{"ADULT"},
		Severity:             "MEDIUM",
		Rationale:            "Fluid retention",
		Condition:            `"heart_failure" in patient.conditions && patient.has_weight && patient.weight_kg > 50.0 && patient.renal_function == "SEVERE_IMPAIRMENT" && patient.age_category == "ADULT"`,
	}}}
	c, err := New(data)
	require.NoError(t, err)
	entry := c.Criteria()[0]

	patient := domain.PatientProfile{
		Age:           50,
		WeightKg:      domain.Float64Ptr(70),
		RenalFunction: domain.RENAL_SEVERE,
		Conditions:    []string{" Heart_Failure "},
	}
	held, err := c.ConditionHolds(entry, patient, domain.ADULT)
	require.NoError(t, err)
	assert.True(t, held)

	patient.WeightKg = nil
	held, err = c.ConditionHolds(entry, patient, domain.ADULT)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestLoadRejectsMalformedRecords(t *testing.T) {
	valid := CriteriaRecord{
		ID:                   "x1",
		DrugPattern:          "drugx",
		ApplicableCategories: []string{"GERIATRIC"},
		Severity:             "HIGH",
		Rationale:            "reason",
	}
	validGuideline := GuidelineRecord{
		DrugPattern: "drugx",
		MgPerKgLow:  domain.Float64Ptr(5),
		MgPerKgHigh: domain.Float64Ptr(10),
		MaxDailyMg:  500,
	}

	tests := []struct {
		name  string
		data  ReferenceData
		field string
	}{
		{
			name:  "Missing drug pattern",
			data:  ReferenceData{Criteria: []CriteriaRecord{func() CriteriaRecord { r := valid; r.DrugPattern = " "; return r }()}},
			field: "criteria[0].drug_pattern",
		},
		{
			name:  "Unknown severity",
			data:  ReferenceData{Criteria: []CriteriaRecord{func() CriteriaRecord { r := valid; r.Severity = "CRITICAL"; return r }()}},
			field: "criteria[0].severity",
		},
		{
			name:  "Unknown category",
			data:  ReferenceData{Criteria: []CriteriaRecord{func() CriteriaRecord { r := valid; r.ApplicableCategories = []string{"ELDERLY"}; return r }()}},
			field: "criteria[0].applicable_categories",
		},
		{
			name:  "Empty categories",
			data:  ReferenceData{Criteria: []CriteriaRecord{func() CriteriaRecord { r := valid; r.ApplicableCategories = nil; return r }()}},
			field: "criteria[0].applicable_categories",
		},
		{
			name:  "Condition does not compile",
			data:  ReferenceData{Criteria: []CriteriaRecord{func() CriteriaRecord { r := valid; r.Condition = "patient.age <"; return r }()}},
			field: "criteria[0].condition",
		},
		{
			name:  "Condition is not boolean",
			data:  ReferenceData{Criteria: []CriteriaRecord{func() CriteriaRecord { r := valid; r.Condition = "'yes'"; return r }()}},
			field: "criteria[0].condition",
		},
		{
			name:  "Duplicate id",
			data:  ReferenceData{Criteria: []CriteriaRecord{valid, valid}},
			field: "criteria[1].id",
		},
		{
			name: "Inverted mg/kg bounds",
			data: ReferenceData{DosageGuidelines: []GuidelineRecord{func() GuidelineRecord {
				g := validGuideline
				g.MgPerKgLow = domain.Float64Ptr(20)
				return g
			}()}},
			field: "dosage_guidelines[0].mg_per_kg_low",
		},
		{
			name: "Negative fixed bound",
			data: ReferenceData{DosageGuidelines: []GuidelineRecord{func() GuidelineRecord {
				g := validGuideline
				g.AdultFixedRangeLow = domain.Float64Ptr(-1)
				g.AdultFixedRangeHigh = domain.Float64Ptr(10)
				return g
			}()}},
			field: "dosage_guidelines[0].adult_fixed_range_low",
		},
		{
			name:  "No usable range",
			data:  ReferenceData{DosageGuidelines: []GuidelineRecord{{DrugPattern: "drugx", MaxDailyMg: 10}}},
			field: "dosage_guidelines[0].drug_pattern",
		},
		{
			name: "Non-positive max daily dose",
			data: ReferenceData{DosageGuidelines: []GuidelineRecord{func() GuidelineRecord {
				g := validGuideline
				g.MaxDailyMg = 0
				return g
			}()}},
			field: "dosage_guidelines[0].max_daily_mg",
		},
		{
			name: "Renal factor above one",
			data: ReferenceData{DosageGuidelines: []GuidelineRecord{func() GuidelineRecord {
				g := validGuideline
				g.RenalAdjustmentFactor = map[string]float64{"SEVERE_IMPAIRMENT": 1.5}
				return g
			}()}},
			field: "dosage_guidelines[0].renal_adjustment_factor",
		},
		{
			name: "Age factor of zero",
			data: ReferenceData{DosageGuidelines: []GuidelineRecord{func() GuidelineRecord {
				g := validGuideline
				g.AgeAdjustmentFactor = map[string]float64{"GERIATRIC": 0}
				return g
			}()}},
			field: "dosage_guidelines[0].age_adjustment_factor",
		},
		{
			name:  "Duplicate guideline",
			data:  ReferenceData{DosageGuidelines: []GuidelineRecord{validGuideline, validGuideline}},
			field: "dosage_guidelines[1].drug_pattern",
		},
		{
			name:  "Malformed NDC",
			data:  ReferenceData{Products: []ProductRecord{{NDC: "12-34", Drug: "drugx"}}},
			field: "products[0].ndc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))

			var validationErr *domain.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("criteria:\n  - drug_patern: drugx\n"))
	assert.Error(t, err)
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.json")
	json := `{"version": "json", "criteria": [{"drug_pattern": "drugx", "applicable_categories": ["ADULT"], "severity": "LOW", "rationale": "r"}]}`
	require.NoError(t, os.WriteFile(path, []byte(json), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "json", c.Version())
	assert.Len(t, c.FindByDrug("drugx"), 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOptionsValidated(t *testing.T) {
	_, err := Load(strings.NewReader(fixtureYAML), WithThreshold(0))
	assert.Error(t, err)

	_, err = Load(strings.NewReader(fixtureYAML), WithStrategy(nil))
	assert.Error(t, err)
}
