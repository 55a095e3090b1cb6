package service

import (
	"math"

	"github.com/medsafe-engine/internal/domain"
)

// Creatinine clearance cut-offs in mL/min
const (
	crclNormalMin   = 80.0
	crclMildMin     = 50.0
	crclModerateMin = 30.0
)

// ClassifyCreatinineClearance maps a creatinine clearance in mL/min to a renal function level
func ClassifyCreatinineClearance(crcl float64) (domain.RenalFunction, error) {
	if math.IsNaN(crcl) || math.IsInf(crcl, 0) || crcl < 0 {
		return domain.RENAL_UNKNOWN, domain.NewInvalidInputError("creatinine_clearance", "creatinine clearance must be a non-negative number", crcl)
	}

	switch {
	case crcl >= crclNormalMin:
		return domain.RENAL_NORMAL, nil
	case crcl >= crclMildMin:
		return domain.RENAL_MILD, nil
	case crcl >= crclModerateMin:
		return domain.RENAL_MODERATE, nil
	default:
		return domain.RENAL_SEVERE, nil
	}
}

// EstimateCreatinineClearance applies the Cockcroft-Gault equation:
// (140 - age) * weight * (0.85 if female) / (72 * serum creatinine in mg/dL).
// Ages of 140 and above yield 0.
func EstimateCreatinineClearance(age int, weightKg, serumCreatinine float64, female bool) (float64, error) {
	if age < 0 {
		return 0, domain.NewInvalidInputError("age", "age must not be negative", age)
	}
	if math.IsNaN(weightKg) || math.IsInf(weightKg, 0) || weightKg <= 0 {
		return 0, domain.NewInvalidInputError("weight_kg", "weight must be a positive number", weightKg)
	}
	if math.IsNaN(serumCreatinine) || math.IsInf(serumCreatinine, 0) || serumCreatinine <= 0 {
		return 0, domain.NewInvalidInputError("serum_creatinine", "serum creatinine must be a positive number", serumCreatinine)
	}

	sexFactor := 1.0
	if female {
		sexFactor = 0.85
	}

	crcl := float64(140-age) * weightKg * sexFactor / (72 * serumCreatinine)
	if crcl < 0 {
		return 0, nil
	}
	return crcl, nil
}
