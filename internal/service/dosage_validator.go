package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/medsafe-engine/internal/domain"
)

// Absorbs floating point noise from factor multiplication at the range bounds
const doseTolerance = 1e-9

// DosageValidator checks a prescribed amount against the recommended range for a patient
type DosageValidator struct {
	logger *logrus.Logger
	lookup domain.CriteriaLookup
}

// NewDosageValidator creates a new dosage validator
func NewDosageValidator(logger *logrus.Logger, lookup domain.CriteriaLookup) *DosageValidator {
	return &DosageValidator{
		logger: logger,
		lookup: lookup,
	}
}

// Validate computes the recommended range for drugName and patient and classifies
// prescribedMg against it. Both bounds are inclusive.
func (v *DosageValidator) Validate(drugName string, patient domain.PatientProfile, prescribedMg float64) (*domain.DosageVerdict, error) {
	if math.IsNaN(prescribedMg) || math.IsInf(prescribedMg, 0) || prescribedMg < 0 {
		return nil, domain.NewInvalidInputError("prescribed_mg", "prescribed dose must be a non-negative number", prescribedMg)
	}
	if err := patient.Validate(); err != nil {
		return nil, err
	}

	category, err := ClassifyAge(patient.Age)
	if err != nil {
		return nil, err
	}

	guideline, err := v.lookup.FindDosageGuideline(drugName)
	if err != nil {
		return nil, fmt.Errorf("failed to find dosage guideline: %w", err)
	}

	low, high, notes, err := recommendedRange(guideline, patient, category)
	if err != nil {
		return nil, err
	}

	status := domain.UNSAFE
	if prescribedMg >= low-doseTolerance && prescribedMg <= high+doseTolerance {
		status = domain.WITHIN_RANGE
	}

	verdict := &domain.DosageVerdict{
		PrescribedMg:      prescribedMg,
		RecommendedLowMg:  low,
		RecommendedHighMg: high,
		Status:            status,
		Reason:            dosageReason(prescribedMg, low, high, status, notes),
	}

	v.logger.WithFields(logrus.Fields{
		"drug_pattern":  guideline.DrugPattern,
		"age_category":  category,
		"prescribed_mg": prescribedMg,
		"low_mg":        low,
		"high_mg":       high,
		"status":        status,
	}).Debug("Dosage validated")

	return verdict, nil
}

// recommendedRange applies base range, age factor, renal factor and the daily cap in that order
func recommendedRange(g *domain.DosageGuideline, patient domain.PatientProfile, category domain.AgeCategory) (float64, float64, []string, error) {
	var low, high float64
	var notes []string

	switch {
	case patient.HasWeight() && g.HasWeightBasedRange():
		w := *patient.WeightKg
		low, high = g.MgPerKgLow*w, g.MgPerKgHigh*w
		notes = append(notes, fmt.Sprintf("weight-based %s-%s mg/kg for %s kg",
			formatMg(g.MgPerKgLow), formatMg(g.MgPerKgHigh), formatMg(w)))
	case g.HasFixedRange():
		low, high = *g.AdultFixedRangeLow, *g.AdultFixedRangeHigh
		notes = append(notes, "fixed adult range")
	default:
		return 0, 0, nil, domain.NewInvalidInputError("weight_kg",
			fmt.Sprintf("weight is required to dose %s", g.DrugPattern), nil)
	}

	if factor, ok := g.AgeAdjustmentFactor[category]; ok && factor != 1 {
		low, high = low*factor, high*factor
		notes = append(notes, fmt.Sprintf("%s adjustment x%s", strings.ToLower(category.String()), formatMg(factor)))
	}

	if patient.RenalFunction.IsImpaired() {
		factor, ok := g.RenalAdjustmentFactor[patient.RenalFunction]
		if !ok {
			factor = 1.0
		}
		if factor != 1 {
			low, high = low*factor, high*factor
			notes = append(notes, fmt.Sprintf("renal adjustment x%s (%s)", formatMg(factor), patient.RenalFunction))
		}
	}

	if high > g.MaxDailyMg {
		high = g.MaxDailyMg
		notes = append(notes, fmt.Sprintf("capped at max daily %s mg", formatMg(g.MaxDailyMg)))
	}
	if low > high {
		low = high
	}

	return low, high, notes, nil
}

func dosageReason(prescribed, low, high float64, status domain.DosageStatus, notes []string) string {
	var b strings.Builder
	switch {
	case status == domain.WITHIN_RANGE:
		fmt.Fprintf(&b, "Prescribed %s mg is within the recommended range %s-%s mg", formatMg(prescribed), formatMg(low), formatMg(high))
	case prescribed < low:
		fmt.Fprintf(&b, "Prescribed %s mg is below the recommended range %s-%s mg", formatMg(prescribed), formatMg(low), formatMg(high))
	default:
		fmt.Fprintf(&b, "Prescribed %s mg exceeds the recommended range %s-%s mg", formatMg(prescribed), formatMg(low), formatMg(high))
	}
	if len(notes) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(notes, "; "))
		b.WriteString(")")
	}
	return b.String()
}

func formatMg(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
