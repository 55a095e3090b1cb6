// Package catalog holds the immutable reference tables the evaluation core reads from:
// contraindication criteria, dosage guidelines and NDC product codes.
//
// A Catalog is built once by Load, LoadFile or LoadDefault. Malformed records are rejected
// at that point, so every entry a Catalog returns is well formed. After construction a
// Catalog is never mutated and may be shared by any number of goroutines without locking.
package catalog

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/medsafe-engine/internal/domain"
	"github.com/medsafe-engine/pkg/ndc"
	"github.com/medsafe-engine/pkg/similarity"
)

// Option configures catalog matching
type Option func(*options) error

type options struct {
	strategy  similarity.Strategy
	threshold float64
}

// WithStrategy sets the fuzzy matching strategy
func WithStrategy(s similarity.Strategy) Option {
	return func(o *options) error {
		if s == nil {
			return fmt.Errorf("similarity strategy cannot be nil")
		}
		o.strategy = s
		return nil
	}
}

// WithThreshold sets the minimum similarity accepted as a fuzzy match
func WithThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold <= 0 || threshold > 1 {
			return domain.NewValidationError("similarity_threshold", "threshold must be in (0, 1]", threshold)
		}
		o.threshold = threshold
		return nil
	}
}

// Catalog is the loaded reference data
type Catalog struct {
	version    string
	criteria   []domain.CriteriaEntry
	programs   []cel.Program // parallel to criteria; nil when the entry has no condition
	guidelines []domain.DosageGuideline
	products   map[string]string
	byID       map[string]int

	criteriaIndex  *nameIndex
	guidelineIndex *nameIndex

	strategy  similarity.Strategy
	threshold float64
}

// Stats summarises what a catalog holds
type Stats struct {
	Version          string `json:"version"`
	Criteria         int    `json:"criteria"`
	DosageGuidelines int    `json:"dosage_guidelines"`
	Products         int    `json:"products"`
	Conditional      int    `json:"conditional_criteria"`
}

// New validates data and builds a Catalog from it
func New(data ReferenceData, opts ...Option) (*Catalog, error) {
	o := options{strategy: similarity.Levenshtein{}, threshold: similarity.DefaultThreshold}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	env, err := newConditionEnv()
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		version:        data.Version,
		criteria:       make([]domain.CriteriaEntry, 0, len(data.Criteria)),
		programs:       make([]cel.Program, 0, len(data.Criteria)),
		guidelines:     make([]domain.DosageGuideline, 0, len(data.DosageGuidelines)),
		products:       make(map[string]string, len(data.Products)),
		byID:           make(map[string]int, len(data.Criteria)),
		criteriaIndex:  newNameIndex(),
		guidelineIndex: newNameIndex(),
		strategy:       o.strategy,
		threshold:      o.threshold,
	}

	for i, rec := range data.Criteria {
		entry, err := parseCriteriaRecord(i, rec)
		if err != nil {
			return nil, err
		}
		if prev, dup := c.byID[entry.ID]; dup {
			return nil, domain.NewValidationError(fmt.Sprintf("criteria[%d].id", i),
				fmt.Sprintf("duplicate id, first used by criteria[%d]", prev), entry.ID)
		}

		var prog cel.Program
		if entry.Condition != "" {
			prog, err = env.compile(entry.Condition)
			if err != nil {
				return nil, domain.NewValidationError(fmt.Sprintf("criteria[%d].condition", i), err.Error(), entry.Condition)
			}
		}

		pos := len(c.criteria)
		c.byID[entry.ID] = pos
		c.criteria = append(c.criteria, entry)
		c.programs = append(c.programs, prog)
		c.criteriaIndex.add(pos, append([]string{entry.DrugPattern}, entry.Aliases...)...)
	}

	patterns := make(map[string]int, len(data.DosageGuidelines))
	for i, rec := range data.DosageGuidelines {
		g, err := parseGuidelineRecord(i, rec)
		if err != nil {
			return nil, err
		}
		key := NormalizeDrugName(g.DrugPattern)
		if prev, dup := patterns[key]; dup {
			return nil, domain.NewValidationError(fmt.Sprintf("dosage_guidelines[%d].drug_pattern", i),
				fmt.Sprintf("duplicate guideline, first defined by dosage_guidelines[%d]", prev), g.DrugPattern)
		}
		patterns[key] = i

		pos := len(c.guidelines)
		c.guidelines = append(c.guidelines, g)
		c.guidelineIndex.add(pos, append([]string{g.DrugPattern}, g.Aliases...)...)
	}

	for i, rec := range data.Products {
		code, drug, err := parseProductRecord(i, rec)
		if err != nil {
			return nil, err
		}
		if existing, dup := c.products[code]; dup && existing != drug {
			return nil, domain.NewValidationError(fmt.Sprintf("products[%d].ndc", i), "NDC code mapped to two drugs", rec.NDC)
		}
		c.products[code] = drug
	}

	return c, nil
}

// FindByDrug returns every criteria entry whose pattern or alias matches name, in catalog
// order. An empty result is not an error.
func (c *Catalog) FindByDrug(name string) []domain.CriteriaEntry {
	hits := c.criteriaIndex.lookup(NormalizeDrugName(name), c.strategy, c.threshold)
	if len(hits) == 0 {
		return []domain.CriteriaEntry{}
	}
	out := make([]domain.CriteriaEntry, 0, len(hits))
	for _, h := range hits {
		out = append(out, c.criteria[h.pos].Clone())
	}
	return out
}

// FindDosageGuideline returns the guideline whose pattern or alias equals the normalised name
// or a contiguous token run of it, the earliest row winning. Dosage is never matched fuzzily:
// a near miss such as "prednisolone" for "prednisone" is NotFound.
func (c *Catalog) FindDosageGuideline(name string) (*domain.DosageGuideline, error) {
	hits := c.guidelineIndex.exactHits(NormalizeDrugName(name))
	if len(hits) == 0 {
		return nil, domain.NewNotFoundError("dosage guideline", name)
	}

	g := c.guidelines[hits[0].pos].Clone()
	return &g, nil
}

// ResolveNDC returns the drug name registered for code
func (c *Catalog) ResolveNDC(code string) (string, bool) {
	normalized, err := ndc.Normalize(code)
	if err != nil {
		return "", false
	}
	drug, ok := c.products[normalized]
	return drug, ok
}

// ConditionHolds evaluates the entry's patient condition. Entries without one always hold.
func (c *Catalog) ConditionHolds(entry domain.CriteriaEntry, patient domain.PatientProfile, category domain.AgeCategory) (bool, error) {
	if entry.Condition == "" {
		return true, nil
	}

	pos, ok := c.byID[entry.ID]
	if !ok || c.criteria[pos].Condition != entry.Condition || c.programs[pos] == nil {
		return false, domain.NewNotFoundError("compiled condition", entry.ID)
	}

	held, err := evalCondition(c.programs[pos], patient, category)
	if err != nil {
		return false, fmt.Errorf("condition of %s failed: %w", entry.ID, err)
	}
	return held, nil
}

// Criteria returns a copy of every criteria entry in catalog order
func (c *Catalog) Criteria() []domain.CriteriaEntry {
	out := make([]domain.CriteriaEntry, len(c.criteria))
	for i, e := range c.criteria {
		out[i] = e.Clone()
	}
	return out
}

// DosageGuidelines returns a copy of every dosage guideline in catalog order
func (c *Catalog) DosageGuidelines() []domain.DosageGuideline {
	out := make([]domain.DosageGuideline, len(c.guidelines))
	for i, g := range c.guidelines {
		out[i] = g.Clone()
	}
	return out
}

// Version is the version string declared by the reference data
func (c *Catalog) Version() string {
	return c.version
}

// Stats reports table sizes
func (c *Catalog) Stats() Stats {
	conditional := 0
	for _, p := range c.programs {
		if p != nil {
			conditional++
		}
	}
	return Stats{
		Version:          c.version,
		Criteria:         len(c.criteria),
		DosageGuidelines: len(c.guidelines),
		Products:         len(c.products),
		Conditional:      conditional,
	}
}
