package service

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsafe-engine/internal/domain"
	"github.com/medsafe-engine/internal/metrics"
)

func TestCachedCatalogFindByDrug(t *testing.T) {
	cached, err := NewCachedCatalog(loadTestCatalog(t), 16)
	require.NoError(t, err)

	hits := metrics.CatalogCacheRequests.WithLabelValues("hit")
	misses := metrics.CatalogCacheRequests.WithLabelValues("miss")
	hitsBefore, missesBefore := testutil.ToFloat64(hits), testutil.ToFloat64(misses)

	first := cached.FindByDrug("Warfexin")
	second := cached.FindByDrug("warfexin 5 mg")

	assert.Equal(t, first, second)
	assert.Len(t, second, 4)
	assert.Equal(t, missesBefore+1, testutil.ToFloat64(misses))
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(hits))

	first[0].ApplicableCategories[0] = domain.NEONATAL
	third := cached.FindByDrug("warfexin")
	assert.Equal(t, domain.GERIATRIC, third[0].ApplicableCategories[0])

	criteriaLen, _ := cached.Len()
	assert.Equal(t, 1, criteriaLen)
}

func TestCachedCatalogFindDosageGuideline(t *testing.T) {
	cached, err := NewCachedCatalog(loadTestCatalog(t), 16)
	require.NoError(t, err)

	g, err := cached.FindDosageGuideline("fixodine")
	require.NoError(t, err)
	g.MaxDailyMg = 1

	again, err := cached.FindDosageGuideline("FIXODINE")
	require.NoError(t, err)
	assert.Equal(t, 400.0, again.MaxDailyMg)

	_, err = cached.FindDosageGuideline("unobtainium")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = cached.FindDosageGuideline("unobtainium")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, guidelineLen := cached.Len()
	assert.Equal(t, 2, guidelineLen)
}

func TestCachedCatalogEvictsBeyondSize(t *testing.T) {
	cached, err := NewCachedCatalog(loadTestCatalog(t), 2)
	require.NoError(t, err)

	cached.FindByDrug("warfexin")
	cached.FindByDrug("pedimycin")
	cached.FindByDrug("asthmazol")

	criteriaLen, _ := cached.Len()
	assert.Equal(t, 2, criteriaLen)
}

func TestCachedCatalogRejectsBadSize(t *testing.T) {
	_, err := NewCachedCatalog(loadTestCatalog(t), 0)
	assert.Error(t, err)
}

func TestEvaluatorOverCachedCatalog(t *testing.T) {
	cached, err := NewCachedCatalog(loadTestCatalog(t), 16)
	require.NoError(t, err)
	e := NewEvaluator(testLogger(), cached, 2)

	verdict, err := e.Evaluate(domain.DrugQuery{NDCCode: "12345-6789-01"}, domain.PatientProfile{Age: 80, WeightKg: domain.Float64Ptr(40)}, domain.Float64Ptr(600))
	require.NoError(t, err)
	assert.Equal(t, 4, verdict.RiskScore)
	assert.Equal(t, domain.UNSAFE, verdict.Dosage.Status)

	young := domain.PatientProfile{Age: 5}
	verdict, err = e.EvaluateAgeSafety(domain.DrugQuery{Name: "pedimycin"}, young)
	require.NoError(t, err)
	assert.Len(t, verdict.MatchedCriteria, 1)
}
