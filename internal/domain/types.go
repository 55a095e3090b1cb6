// Package domain contains the core entities and types for age- and dose-based medication
// safety evaluation.
//
// Geriatric entries follow the structure of the American Geriatrics Society Beers Criteria
// (potentially inappropriate medications for older adults); pediatric entries follow common
// pediatric contraindication lists.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AgeCategory represents the life stage a patient age falls into.
// It is always derived from a PatientProfile and never stored on its own.
type AgeCategory string

const (
	NEONATAL  AgeCategory = "NEONATAL"
	PEDIATRIC AgeCategory = "PEDIATRIC"
	ADULT     AgeCategory = "ADULT"
	GERIATRIC AgeCategory = "GERIATRIC"
)

// Severity represents how strongly a criteria entry advises against a drug.
type Severity string

const (
	SEVERITY_LOW    Severity = "LOW"
	SEVERITY_MEDIUM Severity = "MEDIUM"
	SEVERITY_HIGH   Severity = "HIGH"
)

// RiskTier is the discrete band a risk score maps to.
type RiskTier string

const (
	RISK_LOW    RiskTier = "LOW"
	RISK_MEDIUM RiskTier = "MEDIUM"
	RISK_HIGH   RiskTier = "HIGH"
)

// RenalFunction represents the patient's kidney function level.
// The zero value means the caller did not supply it.
type RenalFunction string

const (
	RENAL_UNKNOWN  RenalFunction = ""
	RENAL_NORMAL   RenalFunction = "NORMAL"
	RENAL_MILD     RenalFunction = "MILD_IMPAIRMENT"
	RENAL_MODERATE RenalFunction = "MODERATE_IMPAIRMENT"
	RENAL_SEVERE   RenalFunction = "SEVERE_IMPAIRMENT"
)

// DosageStatus is the final dosage classification. There are exactly two values.
type DosageStatus string

const (
	WITHIN_RANGE DosageStatus = "WITHIN_RANGE"
	UNSAFE       DosageStatus = "UNSAFE"
)

// CriteriaSource identifies which reference list an entry comes from.
type CriteriaSource string

const (
	SOURCE_BEERS     CriteriaSource = "BEERS"
	SOURCE_PEDIATRIC CriteriaSource = "PEDIATRIC"
	SOURCE_CONDITION CriteriaSource = "CONDITION"
)

// IsValid reports whether the category is one of the four known life stages.
func (c AgeCategory) IsValid() bool {
	switch c {
	case NEONATAL, PEDIATRIC, ADULT, GERIATRIC:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c AgeCategory) String() string {
	return string(c)
}

// Description returns a human-readable label for reports.
func (c AgeCategory) Description() string {
	switch c {
	case NEONATAL:
		return "neonatal (under 1 year)"
	case PEDIATRIC:
		return "pediatric (1 to 17 years)"
	case ADULT:
		return "adult (18 to 64 years)"
	case GERIATRIC:
		return "geriatric (65 years and over)"
	default:
		return "unknown age category"
	}
}

// ParseAgeCategory parses a category name case-insensitively.
func ParseAgeCategory(s string) (AgeCategory, error) {
	c := AgeCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", NewValidationError("age_category", "unknown age category", s)
	}
	return c, nil
}

// IsValid reports whether the severity is known.
func (s Severity) IsValid() bool {
	switch s {
	case SEVERITY_LOW, SEVERITY_MEDIUM, SEVERITY_HIGH:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Rank orders severities so that HIGH sorts first. Unknown severities rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SEVERITY_HIGH:
		return 3
	case SEVERITY_MEDIUM:
		return 2
	case SEVERITY_LOW:
		return 1
	default:
		return 0
	}
}

// Points is the contribution of one match of this severity to the risk score.
func (s Severity) Points() int {
	switch s {
	case SEVERITY_HIGH:
		return 4
	case SEVERITY_MEDIUM:
		return 2
	case SEVERITY_LOW:
		return 1
	default:
		return 0
	}
}

// ParseSeverity parses a severity name case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", NewValidationError("severity", "unknown severity", s)
	}
	return sev, nil
}

// IsValid reports whether the tier is known.
func (t RiskTier) IsValid() bool {
	switch t {
	case RISK_LOW, RISK_MEDIUM, RISK_HIGH:
		return true
	default:
		return false
	}
}

// String returns the string representation of the tier.
func (t RiskTier) String() string {
	return string(t)
}

// IsValid reports whether the renal function level is known. RENAL_UNKNOWN is valid.
func (r RenalFunction) IsValid() bool {
	switch r {
	case RENAL_UNKNOWN, RENAL_NORMAL, RENAL_MILD, RENAL_MODERATE, RENAL_SEVERE:
		return true
	default:
		return false
	}
}

// IsImpaired reports whether a renal adjustment may apply.
func (r RenalFunction) IsImpaired() bool {
	switch r {
	case RENAL_MILD, RENAL_MODERATE, RENAL_SEVERE:
		return true
	default:
		return false
	}
}

// String returns the string representation of the renal function.
func (r RenalFunction) String() string {
	return string(r)
}

// ParseRenalFunction accepts the canonical names as well as the short forms
// "mild", "moderate" and "severe". An empty string yields RENAL_UNKNOWN.
func ParseRenalFunction(s string) (RenalFunction, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")

	switch normalized {
	case "":
		return RENAL_UNKNOWN, nil
	case "NORMAL":
		return RENAL_NORMAL, nil
	case "MILD", "MILD_IMPAIRMENT":
		return RENAL_MILD, nil
	case "MODERATE", "MODERATE_IMPAIRMENT":
		return RENAL_MODERATE, nil
	case "SEVERE", "SEVERE_IMPAIRMENT":
		return RENAL_SEVERE, nil
	default:
		return RENAL_UNKNOWN, NewValidationError("renal_function", "unknown renal function level", s)
	}
}

// UnmarshalText accepts every spelling ParseRenalFunction does. An unrecognised value is kept
// as given so that PatientProfile.Validate reports it against the renal_function field.
func (r *RenalFunction) UnmarshalText(text []byte) error {
	parsed, err := ParseRenalFunction(string(text))
	if err != nil {
		*r = RenalFunction(text)
		return nil
	}
	*r = parsed
	return nil
}

// UnmarshalJSON decodes a JSON string through UnmarshalText. null leaves the value unchanged.
func (r *RenalFunction) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("renal_function must be a string: %w", err)
	}
	if s == nil {
		return nil
	}
	return r.UnmarshalText([]byte(*s))
}

// IsValid reports whether the status is one of the two dosage outcomes.
func (s DosageStatus) IsValid() bool {
	return s == WITHIN_RANGE || s == UNSAFE
}

// String returns the string representation of the status.
func (s DosageStatus) String() string {
	return string(s)
}

// IsValid reports whether the source is known.
func (s CriteriaSource) IsValid() bool {
	switch s {
	case SOURCE_BEERS, SOURCE_PEDIATRIC, SOURCE_CONDITION:
		return true
	default:
		return false
	}
}

// String returns the string representation of the source.
func (s CriteriaSource) String() string {
	return string(s)
}
