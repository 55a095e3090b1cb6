// Package ndc normalises National Drug Codes to the 11-digit 5-4-2 form used as an exact
// catalog key.
package ndc

import (
	"regexp"
	"strings"

	"github.com/medsafe-engine/internal/domain"
)

var (
	// Hyphenated label-product-package forms: 4-4-2, 5-3-2, 5-4-1 and 5-4-2
	segmentedPattern = regexp.MustCompile(`^(\d{4,5})-(\d{3,4})-(\d{1,2})$`)

	digitsPattern = regexp.MustCompile(`^\d{10,11}$`)

	// Candidate codes embedded in free text, e.g. OCR output from a label
	textPattern = regexp.MustCompile(`\b\d{4,5}-\d{3,4}-\d{1,2}\b|\b\d{10,11}\b`)
)

// Normalize returns the code as LLLLL-PPPP-KK.
// Unhyphenated 10-digit codes are read as 4-4-2, the most common labeler layout.
func Normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", domain.NewValidationError("ndc_code", "NDC code cannot be empty", code)
	}

	if m := segmentedPattern.FindStringSubmatch(code); m != nil {
		labeler, product, pkg := m[1], m[2], m[3]
		if len(labeler)+len(product)+len(pkg) < 10 {
			return "", domain.NewValidationError("ndc_code", "NDC code must have 10 or 11 digits", code)
		}
		return pad(labeler, 5) + "-" + pad(product, 4) + "-" + pad(pkg, 2), nil
	}

	if strings.Contains(code, "-") {
		return "", domain.NewValidationError("ndc_code", "unrecognised NDC segment layout", code)
	}

	digits := strings.ReplaceAll(code, " ", "")
	if !digitsPattern.MatchString(digits) {
		return "", domain.NewValidationError("ndc_code", "invalid NDC code format", code)
	}

	if len(digits) == 10 {
		return "0" + digits[:4] + "-" + digits[4:8] + "-" + digits[8:], nil
	}
	return digits[:5] + "-" + digits[5:9] + "-" + digits[9:], nil
}

// IsValid reports whether Normalize accepts the code
func IsValid(code string) bool {
	_, err := Normalize(code)
	return err == nil
}

// ExtractFromText returns the first normalisable NDC found in text
func ExtractFromText(text string) (string, bool) {
	for _, candidate := range textPattern.FindAllString(text, -1) {
		if normalized, err := Normalize(candidate); err == nil {
			return normalized, true
		}
	}
	return "", false
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
