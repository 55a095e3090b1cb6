package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// "25", "25mg", "0.5mcg", "10%"
	doseToken = regexp.MustCompile(`^\d+(\.\d+)?(mg|mcg|g|ml|iu|units?|%)?$`)

	formTokens = map[string]struct{}{
		"mg": {}, "mcg": {}, "ml": {}, "g": {}, "iu": {}, "unit": {}, "units": {},
		"tablet": {}, "tablets": {}, "tab": {}, "tabs": {},
		"capsule": {}, "capsules": {}, "cap": {}, "caps": {},
		"pill": {}, "pills": {}, "oral": {}, "chewable": {},
		"syrup": {}, "solution": {}, "suspension": {}, "elixir": {}, "drops": {},
		"injection": {}, "cream": {}, "ointment": {}, "patch": {},
		"hcl": {}, "hydrochloride": {},
	}
)

// NormalizeDrugName folds a free-form drug name to its match key: accents stripped, case
// folded, punctuation collapsed to single spaces, dose and dosage-form tokens removed.
// "Benadryl® 25mg Tablets" becomes "benadryl".
func NormalizeDrugName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = cases.Fold().String(folded)

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '%'
	})

	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f == "" {
			continue
		}
		if _, ok := formTokens[f]; ok {
			continue
		}
		if doseToken.MatchString(f) {
			continue
		}
		kept = append(kept, strings.ReplaceAll(f, "%", ""))
	}
	return strings.Join(kept, " ")
}
