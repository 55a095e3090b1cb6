package domain

import (
	"math"
	"strings"
)

// PatientProfile describes the patient a drug is evaluated for.
// It is treated as immutable for the duration of one evaluation.
type PatientProfile struct {
	Age           int           `json:"age"`
	WeightKg      *float64      `json:"weight_kg,omitempty"`
	RenalFunction RenalFunction `json:"renal_function,omitempty"`
	Conditions    []string      `json:"conditions,omitempty"`
}

// DrugQuery identifies the drug being evaluated. Name is the case-insensitive match key;
// NDCCode, when known to the catalog, resolves the drug exactly.
type DrugQuery struct {
	Name    string `json:"name"`
	NDCCode string `json:"ndc_code,omitempty"`
}

// CriteriaEntry is one row of contraindication reference data
type CriteriaEntry struct {
	ID                    string         `json:"id"`
	DrugPattern           string         `json:"drug_pattern"`
	Aliases               []string       `json:"aliases,omitempty"`
	ApplicableCategories  []AgeCategory  `json:"applicable_categories"`
	Severity              Severity       `json:"severity"`
	Rationale             string         `json:"rationale"`
	AlternativeSuggestion string         `json:"alternative_suggestion,omitempty"`
	Source                CriteriaSource `json:"source"`
	Condition             string         `json:"condition,omitempty"`
}

// DosageGuideline is one row of the dosage reference table
type DosageGuideline struct {
	DrugPattern           string                    `json:"drug_pattern"`
	Aliases               []string                  `json:"aliases,omitempty"`
	MgPerKgLow            float64                   `json:"mg_per_kg_low,omitempty"`
	MgPerKgHigh           float64                   `json:"mg_per_kg_high,omitempty"`
	AdultFixedRangeLow    *float64                  `json:"adult_fixed_range_low,omitempty"`
	AdultFixedRangeHigh   *float64                  `json:"adult_fixed_range_high,omitempty"`
	AgeAdjustmentFactor   map[AgeCategory]float64   `json:"age_adjustment_factor,omitempty"`
	RenalAdjustmentFactor map[RenalFunction]float64 `json:"renal_adjustment_factor,omitempty"`
	MaxDailyMg            float64                   `json:"max_daily_mg"`
}

// RiskAssessment carries a risk score together with its tier.
// Only the risk scorer produces it, so the pair is always consistent.
type RiskAssessment struct {
	Score int      `json:"risk_score"`
	Tier  RiskTier `json:"risk_tier"`
}

// SafetyVerdict is the age-safety result returned to collaborators
type SafetyVerdict struct {
	RiskScore       int             `json:"risk_score"`
	RiskTier        RiskTier        `json:"risk_tier"`
	MatchedCriteria []CriteriaEntry `json:"matched_criteria"`
	Recommendations []string        `json:"recommendations"`
	Summary         string          `json:"summary"`
	Dosage          *DosageVerdict  `json:"dosage,omitempty"`
}

// DosageVerdict is the dosage-check result returned to collaborators
type DosageVerdict struct {
	PrescribedMg      float64      `json:"prescribed_mg"`
	RecommendedLowMg  float64      `json:"recommended_low_mg"`
	RecommendedHighMg float64      `json:"recommended_high_mg"`
	Status            DosageStatus `json:"status"`
	Reason            string       `json:"reason"`
}

// Validate checks the profile for malformed values
func (p PatientProfile) Validate() error {
	if p.Age < 0 {
		return NewInvalidInputError("age", "age must not be negative", p.Age)
	}
	if p.WeightKg != nil {
		w := *p.WeightKg
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return NewInvalidInputError("weight_kg", "weight must be a positive number", w)
		}
	}
	if !p.RenalFunction.IsValid() {
		return NewInvalidInputError("renal_function", "unknown renal function level", string(p.RenalFunction))
	}
	return nil
}

// HasWeight reports whether a weight was supplied
func (p PatientProfile) HasWeight() bool {
	return p.WeightKg != nil
}

// HasCondition reports whether the patient has the condition, ignoring case
func (p PatientProfile) HasCondition(condition string) bool {
	for _, c := range p.Conditions {
		if strings.EqualFold(strings.TrimSpace(c), condition) {
			return true
		}
	}
	return false
}

// Validate checks that the query names a drug
func (q DrugQuery) Validate() error {
	if strings.TrimSpace(q.Name) == "" && strings.TrimSpace(q.NDCCode) == "" {
		return NewInvalidInputError("name", "drug name is required", q.Name)
	}
	return nil
}

// AppliesTo reports whether the entry lists the category
func (e CriteriaEntry) AppliesTo(category AgeCategory) bool {
	for _, c := range e.ApplicableCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot reach shared catalog slices
func (e CriteriaEntry) Clone() CriteriaEntry {
	out := e
	if e.Aliases != nil {
		out.Aliases = append([]string(nil), e.Aliases...)
	}
	if e.ApplicableCategories != nil {
		out.ApplicableCategories = append([]AgeCategory(nil), e.ApplicableCategories...)
	}
	return out
}

// HasWeightBasedRange reports whether mg/kg bounds are defined
func (g DosageGuideline) HasWeightBasedRange() bool {
	return g.MgPerKgLow > 0 && g.MgPerKgHigh > 0
}

// HasFixedRange reports whether the fixed adult range is defined
func (g DosageGuideline) HasFixedRange() bool {
	return g.AdultFixedRangeLow != nil && g.AdultFixedRangeHigh != nil
}

// Clone returns a deep copy so callers cannot reach shared catalog maps
func (g DosageGuideline) Clone() DosageGuideline {
	out := g
	if g.Aliases != nil {
		out.Aliases = append([]string(nil), g.Aliases...)
	}
	if g.AdultFixedRangeLow != nil {
		v := *g.AdultFixedRangeLow
		out.AdultFixedRangeLow = &v
	}
	if g.AdultFixedRangeHigh != nil {
		v := *g.AdultFixedRangeHigh
		out.AdultFixedRangeHigh = &v
	}
	if g.AgeAdjustmentFactor != nil {
		out.AgeAdjustmentFactor = make(map[AgeCategory]float64, len(g.AgeAdjustmentFactor))
		for k, v := range g.AgeAdjustmentFactor {
			out.AgeAdjustmentFactor[k] = v
		}
	}
	if g.RenalAdjustmentFactor != nil {
		out.RenalAdjustmentFactor = make(map[RenalFunction]float64, len(g.RenalAdjustmentFactor))
		for k, v := range g.RenalAdjustmentFactor {
			out.RenalAdjustmentFactor[k] = v
		}
	}
	return out
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
