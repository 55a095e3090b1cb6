// Package similarity provides pluggable string-similarity strategies used for fuzzy
// drug-name matching. Every strategy returns a score in [0, 1] where 1 means identical.
package similarity

import (
	"fmt"
	"strings"

	"github.com/xrash/smetrics"
)

// Algorithm names accepted by New
const (
	AlgorithmLevenshtein  = "levenshtein"
	AlgorithmJaroWinkler  = "jaro_winkler"
	AlgorithmTokenOverlap = "token_overlap"
	AlgorithmCombined     = "combined"
)

// DefaultThreshold is the minimum score accepted as a fuzzy match
const DefaultThreshold = 0.8

// Strategy compares two normalised strings
type Strategy interface {
	Similar(a, b string) float64
}

// StrategyFunc adapts a plain function to Strategy
type StrategyFunc func(a, b string) float64

// Similar implements Strategy
func (f StrategyFunc) Similar(a, b string) float64 {
	return f(a, b)
}

// Levenshtein scores 1 - editDistance/maxLen
type Levenshtein struct{}

// Similar implements Strategy
func (Levenshtein) Similar(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 || a == "" || b == "" {
		return 0.0
	}

	distance := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return clamp(1.0 - float64(distance)/float64(maxLen))
}

// JaroWinkler favours strings sharing a common prefix, which suits truncated OCR reads
type JaroWinkler struct {
	BoostThreshold float64
	PrefixSize     int
}

// NewJaroWinkler returns the strategy with the conventional 0.7 boost threshold and 4-rune prefix
func NewJaroWinkler() JaroWinkler {
	return JaroWinkler{BoostThreshold: 0.7, PrefixSize: 4}
}

// Similar implements Strategy
func (j JaroWinkler) Similar(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	return clamp(smetrics.JaroWinkler(a, b, j.BoostThreshold, j.PrefixSize))
}

// TokenOverlap is the Jaccard index of the whitespace-separated token sets
type TokenOverlap struct{}

// Similar implements Strategy
func (TokenOverlap) Similar(a, b string) float64 {
	if a == b {
		return 1.0
	}

	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Combined weights edit-distance similarity against token overlap.
// Single-word names get no token credit unless identical, so pair it with a lower threshold.
type Combined struct {
	SequenceWeight float64
	TokenWeight    float64
}

// NewCombined returns the 0.7 / 0.3 weighting
func NewCombined() Combined {
	return Combined{SequenceWeight: 0.7, TokenWeight: 0.3}
}

// Similar implements Strategy
func (c Combined) Similar(a, b string) float64 {
	if a == b {
		return 1.0
	}
	total := c.SequenceWeight + c.TokenWeight
	if total <= 0 {
		return 0.0
	}
	score := c.SequenceWeight*Levenshtein{}.Similar(a, b) + c.TokenWeight*TokenOverlap{}.Similar(a, b)
	return clamp(score / total)
}

// New returns the strategy registered under name. An empty name selects Levenshtein.
func New(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AlgorithmLevenshtein:
		return Levenshtein{}, nil
	case AlgorithmJaroWinkler:
		return NewJaroWinkler(), nil
	case AlgorithmTokenOverlap:
		return TokenOverlap{}, nil
	case AlgorithmCombined:
		return NewCombined(), nil
	default:
		return nil, fmt.Errorf("unknown similarity algorithm: %s", name)
	}
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
