package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsafe-engine/internal/domain"
)

func TestClassifyAge(t *testing.T) {
	tests := []struct {
		age      int
		expected domain.AgeCategory
	}{
		{0, domain.NEONATAL},
		{1, domain.PEDIATRIC},
		{17, domain.PEDIATRIC},
		{18, domain.ADULT},
		{64, domain.ADULT},
		{65, domain.GERIATRIC},
		{75, domain.GERIATRIC},
		{120, domain.GERIATRIC},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			category, err := ClassifyAge(tt.age)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, category, "age %d", tt.age)
		})
	}
}

func TestClassifyAgeRejectsNegative(t *testing.T) {
	for _, age := range []int{-1, -18, -1000} {
		_, err := ClassifyAge(age)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))

		var inputErr *domain.InvalidInputError
		require.True(t, errors.As(err, &inputErr))
		assert.Equal(t, "age", inputErr.Field)
	}
}
