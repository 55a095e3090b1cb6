package service

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/medsafe-engine/internal/catalog"
	"github.com/medsafe-engine/internal/domain"
	"github.com/medsafe-engine/internal/metrics"
)

type guidelineResult struct {
	guideline *domain.DosageGuideline
	err       error
}

// CachedCatalog memoises name lookups of an underlying catalog in bounded LRU caches keyed
// by normalised drug name. The wrapped catalog is immutable, so entries never go stale.
type CachedCatalog struct {
	inner      domain.ReferenceCatalog
	criteria   *lru.Cache[string, []domain.CriteriaEntry]
	guidelines *lru.Cache[string, guidelineResult]
}

// NewCachedCatalog wraps inner with caches holding up to size names each
func NewCachedCatalog(inner domain.ReferenceCatalog, size int) (*CachedCatalog, error) {
	criteria, err := lru.New[string, []domain.CriteriaEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create criteria cache: %w", err)
	}
	guidelines, err := lru.New[string, guidelineResult](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create guideline cache: %w", err)
	}

	return &CachedCatalog{
		inner:      inner,
		criteria:   criteria,
		guidelines: guidelines,
	}, nil
}

// FindByDrug implements domain.CriteriaLookup
func (c *CachedCatalog) FindByDrug(name string) []domain.CriteriaEntry {
	key := catalog.NormalizeDrugName(name)
	if cached, ok := c.criteria.Get(key); ok {
		metrics.CatalogCacheRequests.WithLabelValues("hit").Inc()
		return cloneEntries(cached)
	}
	metrics.CatalogCacheRequests.WithLabelValues("miss").Inc()

	entries := c.inner.FindByDrug(name)
	c.criteria.Add(key, cloneEntries(entries))
	return entries
}

// FindDosageGuideline implements domain.CriteriaLookup. Not-found results are cached too.
func (c *CachedCatalog) FindDosageGuideline(name string) (*domain.DosageGuideline, error) {
	key := catalog.NormalizeDrugName(name)
	if cached, ok := c.guidelines.Get(key); ok {
		metrics.CatalogCacheRequests.WithLabelValues("hit").Inc()
		if cached.err != nil {
			return nil, cached.err
		}
		g := cached.guideline.Clone()
		return &g, nil
	}
	metrics.CatalogCacheRequests.WithLabelValues("miss").Inc()

	g, err := c.inner.FindDosageGuideline(name)
	if err != nil {
		c.guidelines.Add(key, guidelineResult{err: err})
		return nil, err
	}
	stored := g.Clone()
	c.guidelines.Add(key, guidelineResult{guideline: &stored})
	return g, nil
}

// ConditionHolds implements domain.ConditionEvaluator
func (c *CachedCatalog) ConditionHolds(entry domain.CriteriaEntry, patient domain.PatientProfile, category domain.AgeCategory) (bool, error) {
	return c.inner.ConditionHolds(entry, patient, category)
}

// ResolveNDC implements domain.DrugResolver
func (c *CachedCatalog) ResolveNDC(code string) (string, bool) {
	return c.inner.ResolveNDC(code)
}

// Len reports how many names are cached for criteria and guideline lookups
func (c *CachedCatalog) Len() (int, int) {
	return c.criteria.Len(), c.guidelines.Len()
}

func cloneEntries(entries []domain.CriteriaEntry) []domain.CriteriaEntry {
	out := make([]domain.CriteriaEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
