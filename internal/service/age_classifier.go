package service

import (
	"github.com/medsafe-engine/internal/domain"
)

// Lower bounds of each age category, in whole years. Each range is closed below and open above.
const (
	PediatricMinAge = 1
	AdultMinAge     = 18
	GeriatricMinAge = 65
)

// ClassifyAge maps an age in whole years to its category
func ClassifyAge(age int) (domain.AgeCategory, error) {
	switch {
	case age < 0:
		return "", domain.NewInvalidInputError("age", "age must not be negative", age)
	case age < PediatricMinAge:
		return domain.NEONATAL, nil
	case age < AdultMinAge:
		return domain.PEDIATRIC, nil
	case age < GeriatricMinAge:
		return domain.ADULT, nil
	default:
		return domain.GERIATRIC, nil
	}
}
