package upgrade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorCostProgression(t *testing.T) {
	cursor, ok := ByID(CursorID)
	require.True(t, ok)

	assert.Equal(t, 15.0, Cost(cursor.BaseCost, 0))
	assert.Equal(t, 17.0, Cost(cursor.BaseCost, 1))
	assert.Equal(t, 19.0, Cost(cursor.BaseCost, 2))
}

func TestCostStrictlyIncreases(t *testing.T) {
	for _, u := range Catalog {
		prev := Cost(u.BaseCost, 0)
		for q := 1; q < 50; q++ {
			next := Cost(u.BaseCost, q)
			assert.Greater(t, next, prev, "%s at quantity %d", u.ID, q)
			prev = next
		}
	}
}

func TestDiscountedCost(t *testing.T) {
	assert.Equal(t, 50.0, DiscountedCost(100, 0, 0.5))
	assert.Equal(t, 57.0, DiscountedCost(100, 1, 0.5))
}

func TestClickPower(t *testing.T) {
	assert.Equal(t, 1.0, ClickPower(0))
	assert.InDelta(t, 2.0, ClickPower(10), 1e-9)
}

func TestCatalogIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, u := range Catalog {
		require.False(t, seen[u.ID], u.ID)
		seen[u.ID] = true
	}
	assert.Len(t, seen, 8)
}
