package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/medsafe-engine/internal/domain"
)

var intervalPattern = regexp.MustCompile(`^q(\d{1,2})h$`)

var dosesPerDay = map[string]int{
	"once":              1,
	"once daily":        1,
	"daily":             1,
	"qd":                1,
	"od":                1,
	"bid":               2,
	"twice daily":       2,
	"tid":               3,
	"three times daily": 3,
	"qid":               4,
	"four times daily":  4,
}

// DosesPerDay converts a dosing frequency such as "bid", "three times daily" or "q6h" into a
// count of administrations per day. Interval forms must divide 24 hours evenly. An empty
// frequency means one dose a day.
func DosesPerDay(frequency string) (int, error) {
	f := strings.Join(strings.Fields(strings.ToLower(frequency)), " ")
	if f == "" {
		return 1, nil
	}
	if n, ok := dosesPerDay[f]; ok {
		return n, nil
	}
	if m := intervalPattern.FindStringSubmatch(f); m != nil {
		hours, _ := strconv.Atoi(m[1])
		if hours > 0 && hours <= 24 && 24%hours == 0 {
			return 24 / hours, nil
		}
	}
	return 0, domain.NewInvalidInputError("frequency", "unrecognised dosing frequency", frequency)
}

// DailyDose multiplies a single administered dose by the number of doses per day
func DailyDose(doseMg float64, frequency string) (float64, error) {
	if math.IsNaN(doseMg) || math.IsInf(doseMg, 0) || doseMg < 0 {
		return 0, domain.NewInvalidInputError("dose_mg", "dose must be a non-negative number", doseMg)
	}
	n, err := DosesPerDay(frequency)
	if err != nil {
		return 0, err
	}
	return doseMg * float64(n), nil
}
