package tech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
)

func TestPoints(t *testing.T) {
	assert.Equal(t, int64(0), Points(999_999))
	assert.Equal(t, int64(1), Points(1_000_000))
	assert.Equal(t, int64(42), Points(42_900_000))
	assert.Equal(t, int64(0), Points(-5))
}

func TestCatalogShape(t *testing.T) {
	ids := map[string]Tech{}
	for _, tc := range Catalog {
		_, dup := ids[tc.ID]
		require.False(t, dup, tc.ID)
		ids[tc.ID] = tc
	}
	assert.Len(t, ids, 19)

	for _, tc := range Catalog {
		for _, p := range tc.Prerequisites {
			prereq, ok := ids[p]
			require.True(t, ok, "%s requires unknown %s", tc.ID, p)
			assert.Less(t, prereq.Tier, tc.Tier+1, "%s prerequisite %s sits in a later tier", tc.ID, p)
		}
	}
}

func TestPrestigeTechsGatedByLevel(t *testing.T) {
	var boost Tech
	for _, tc := range Catalog {
		if tc.ID == "prestige_boost" {
			boost = tc
		}
	}
	assert.False(t, boost.Available(progress.View{PrestigeLevel: 2}))
	assert.True(t, boost.Available(progress.View{PrestigeLevel: 3}))
}
