package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/medsafe-engine/internal/domain"
	"github.com/medsafe-engine/pkg/ndc"
)

// ReferenceData is the on-disk layout of the reference tables. JSON documents are accepted
// since JSON is a subset of YAML.
type ReferenceData struct {
	Version          string            `yaml:"version"`
	Criteria         []CriteriaRecord  `yaml:"criteria"`
	DosageGuidelines []GuidelineRecord `yaml:"dosage_guidelines"`
	Products         []ProductRecord   `yaml:"products"`
}

// CriteriaRecord is one raw contraindication row
type CriteriaRecord struct {
	ID                    string   `yaml:"id"`
	DrugPattern           string   `yaml:"drug_pattern"`
	Aliases               []string `yaml:"aliases"`
	ApplicableCategories  []string `yaml:"applicable_categories"`
	Severity              string   `yaml:"severity"`
	Rationale             string   `yaml:"rationale"`
	AlternativeSuggestion string   `yaml:"alternative_suggestion"`
	Source                string   `yaml:"source"`
	Condition             string   `yaml:"condition"`
}

// GuidelineRecord is one raw dosage row
type GuidelineRecord struct {
	DrugPattern           string             `yaml:"drug_pattern"`
	Aliases               []string           `yaml:"aliases"`
	MgPerKgLow            *float64           `yaml:"mg_per_kg_low"`
	MgPerKgHigh           *float64           `yaml:"mg_per_kg_high"`
	AdultFixedRangeLow    *float64           `yaml:"adult_fixed_range_low"`
	AdultFixedRangeHigh   *float64           `yaml:"adult_fixed_range_high"`
	AgeAdjustmentFactor   map[string]float64 `yaml:"age_adjustment_factor"`
	RenalAdjustmentFactor map[string]float64 `yaml:"renal_adjustment_factor"`
	MaxDailyMg            float64            `yaml:"max_daily_mg"`
}

// ProductRecord ties a National Drug Code to a drug name
type ProductRecord struct {
	NDC         string `yaml:"ndc"`
	Drug        string `yaml:"drug"`
	Description string `yaml:"description"`
}

// Load decodes reference data from r and builds a Catalog
func Load(r io.Reader, opts ...Option) (*Catalog, error) {
	var data ReferenceData
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.NewValidationError("reference_data", "reference data is empty", nil)
		}
		return nil, fmt.Errorf("failed to decode reference data: %w", err)
	}
	return New(data, opts...)
}

// LoadFile loads reference data from a YAML or JSON file
func LoadFile(path string, opts ...Option) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference data %s: %w", path, err)
	}
	defer f.Close()

	c, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data %s: %w", path, err)
	}
	return c, nil
}

// LoadDefault loads the reference data compiled into the binary
func LoadDefault(opts ...Option) (*Catalog, error) {
	return Load(bytes.NewReader(defaultReferenceData), opts...)
}

func parseCriteriaRecord(i int, rec CriteriaRecord) (domain.CriteriaEntry, error) {
	field := func(name string) string { return fmt.Sprintf("criteria[%d].%s", i, name) }

	pattern := strings.TrimSpace(rec.DrugPattern)
	if pattern == "" {
		return domain.CriteriaEntry{}, domain.NewValidationError(field("drug_pattern"), "drug pattern is required", rec.DrugPattern)
	}
	if NormalizeDrugName(pattern) == "" {
		return domain.CriteriaEntry{}, domain.NewValidationError(field("drug_pattern"), "drug pattern has no matchable name", rec.DrugPattern)
	}

	severity, err := domain.ParseSeverity(rec.Severity)
	if err != nil {
		return domain.CriteriaEntry{}, domain.NewValidationError(field("severity"), "unknown severity", rec.Severity)
	}

	if len(rec.ApplicableCategories) == 0 {
		return domain.CriteriaEntry{}, domain.NewValidationError(field("applicable_categories"), "at least one age category is required", nil)
	}
	categories := make([]domain.AgeCategory, 0, len(rec.ApplicableCategories))
	for _, raw := range rec.ApplicableCategories {
		c, err := domain.ParseAgeCategory(raw)
		if err != nil {
			return domain.CriteriaEntry{}, domain.NewValidationError(field("applicable_categories"), "unknown age category", raw)
		}
		categories = append(categories, c)
	}

	if strings.TrimSpace(rec.Rationale) == "" {
		return domain.CriteriaEntry{}, domain.NewValidationError(field("rationale"), "rationale is required", rec.Rationale)
	}

	source := domain.CriteriaSource(strings.ToUpper(strings.TrimSpace(rec.Source)))
	if source == "" {
		source = defaultSource(categories, rec.Condition)
	}
	if !source.IsValid() {
		return domain.CriteriaEntry{}, domain.NewValidationError(field("source"), "unknown criteria source", rec.Source)
	}

	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = fmt.Sprintf("%s-%03d", strings.ToLower(string(source)), i+1)
	}

	return domain.CriteriaEntry{
		ID:                    id,
		DrugPattern:           pattern,
		Aliases:               trimAll(rec.Aliases),
		ApplicableCategories:  categories,
		Severity:              severity,
		Rationale:             strings.TrimSpace(rec.Rationale),
		AlternativeSuggestion: strings.TrimSpace(rec.AlternativeSuggestion),
		Source:                source,
		Condition:             strings.TrimSpace(rec.Condition),
	}, nil
}

// defaultSource infers the list an unlabelled entry belongs to
func defaultSource(categories []domain.AgeCategory, condition string) domain.CriteriaSource {
	geriatricOnly := true
	for _, c := range categories {
		if c != domain.GERIATRIC {
			geriatricOnly = false
		}
	}
	switch {
	case geriatricOnly && strings.TrimSpace(condition) == "":
		return domain.SOURCE_BEERS
	case strings.TrimSpace(condition) != "" && !containsYoung(categories):
		return domain.SOURCE_CONDITION
	default:
		return domain.SOURCE_PEDIATRIC
	}
}

func containsYoung(categories []domain.AgeCategory) bool {
	for _, c := range categories {
		if c == domain.NEONATAL || c == domain.PEDIATRIC {
			return true
		}
	}
	return false
}

func parseGuidelineRecord(i int, rec GuidelineRecord) (domain.DosageGuideline, error) {
	field := func(name string) string { return fmt.Sprintf("dosage_guidelines[%d].%s", i, name) }

	pattern := strings.TrimSpace(rec.DrugPattern)
	if pattern == "" {
		return domain.DosageGuideline{}, domain.NewValidationError(field("drug_pattern"), "drug pattern is required", rec.DrugPattern)
	}
	if NormalizeDrugName(pattern) == "" {
		return domain.DosageGuideline{}, domain.NewValidationError(field("drug_pattern"), "drug pattern has no matchable name", rec.DrugPattern)
	}

	g := domain.DosageGuideline{
		DrugPattern: pattern,
		Aliases:     trimAll(rec.Aliases),
		MaxDailyMg:  rec.MaxDailyMg,
	}

	if (rec.MgPerKgLow == nil) != (rec.MgPerKgHigh == nil) {
		return domain.DosageGuideline{}, domain.NewValidationError(field("mg_per_kg_low"), "mg/kg bounds must be given together", nil)
	}
	if rec.MgPerKgLow != nil {
		if err := checkBounds(*rec.MgPerKgLow, *rec.MgPerKgHigh); err != "" {
			return domain.DosageGuideline{}, domain.NewValidationError(field("mg_per_kg_low"), err, []float64{*rec.MgPerKgLow, *rec.MgPerKgHigh})
		}
		g.MgPerKgLow = *rec.MgPerKgLow
		g.MgPerKgHigh = *rec.MgPerKgHigh
	}

	if (rec.AdultFixedRangeLow == nil) != (rec.AdultFixedRangeHigh == nil) {
		return domain.DosageGuideline{}, domain.NewValidationError(field("adult_fixed_range_low"), "fixed range bounds must be given together", nil)
	}
	if rec.AdultFixedRangeLow != nil {
		if err := checkBounds(*rec.AdultFixedRangeLow, *rec.AdultFixedRangeHigh); err != "" {
			return domain.DosageGuideline{}, domain.NewValidationError(field("adult_fixed_range_low"), err, []float64{*rec.AdultFixedRangeLow, *rec.AdultFixedRangeHigh})
		}
		g.AdultFixedRangeLow = domain.Float64Ptr(*rec.AdultFixedRangeLow)
		g.AdultFixedRangeHigh = domain.Float64Ptr(*rec.AdultFixedRangeHigh)
	}

	if !g.HasWeightBasedRange() && !g.HasFixedRange() {
		return domain.DosageGuideline{}, domain.NewValidationError(field("drug_pattern"), "a weight-based or fixed dosage range is required", pattern)
	}

	if !isPositive(rec.MaxDailyMg) {
		return domain.DosageGuideline{}, domain.NewValidationError(field("max_daily_mg"), "max daily dose must be positive", rec.MaxDailyMg)
	}

	if len(rec.AgeAdjustmentFactor) > 0 {
		g.AgeAdjustmentFactor = make(map[domain.AgeCategory]float64, len(rec.AgeAdjustmentFactor))
		for raw, factor := range rec.AgeAdjustmentFactor {
			c, err := domain.ParseAgeCategory(raw)
			if err != nil {
				return domain.DosageGuideline{}, domain.NewValidationError(field("age_adjustment_factor"), "unknown age category", raw)
			}
			if !isFactor(factor) {
				return domain.DosageGuideline{}, domain.NewValidationError(field("age_adjustment_factor"), "factor must be in (0, 1]", factor)
			}
			g.AgeAdjustmentFactor[c] = factor
		}
	}

	if len(rec.RenalAdjustmentFactor) > 0 {
		g.RenalAdjustmentFactor = make(map[domain.RenalFunction]float64, len(rec.RenalAdjustmentFactor))
		for raw, factor := range rec.RenalAdjustmentFactor {
			r, err := domain.ParseRenalFunction(raw)
			if err != nil || r == domain.RENAL_UNKNOWN {
				return domain.DosageGuideline{}, domain.NewValidationError(field("renal_adjustment_factor"), "unknown renal function level", raw)
			}
			if !isFactor(factor) {
				return domain.DosageGuideline{}, domain.NewValidationError(field("renal_adjustment_factor"), "factor must be in (0, 1]", factor)
			}
			g.RenalAdjustmentFactor[r] = factor
		}
	}

	return g, nil
}

func parseProductRecord(i int, rec ProductRecord) (string, string, error) {
	field := func(name string) string { return fmt.Sprintf("products[%d].%s", i, name) }

	code, err := ndc.Normalize(rec.NDC)
	if err != nil {
		return "", "", domain.NewValidationError(field("ndc"), "malformed NDC code", rec.NDC)
	}
	drug := strings.TrimSpace(rec.Drug)
	if drug == "" {
		return "", "", domain.NewValidationError(field("drug"), "drug name is required", rec.Drug)
	}
	return code, drug, nil
}

func checkBounds(low, high float64) string {
	if !isPositive(low) || !isPositive(high) {
		return "bounds must be positive"
	}
	if low > high {
		return "low bound exceeds high bound"
	}
	return ""
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func isFactor(v float64) bool {
	return v > 0 && v <= 1
}

func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
