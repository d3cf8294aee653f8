package prestige

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoints(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		want  int64
	}{
		{"below threshold", 999_999_999, 0},
		{"exact threshold", 1e9, 1},
		{"just under four", 3.99e9, 1},
		{"four billion", 4e9, 2},
		{"hundred billion", 1e11, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Points(tt.total))
		})
	}
}

func TestAwardFloorsAfterMultiplier(t *testing.T) {
	assert.Equal(t, int64(11), Award(1e11, 1.1))
	assert.Equal(t, int64(1), Award(1e9, 1.375))
	assert.Equal(t, int64(0), Award(5e8, 10))
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, Multiplier(0, 1))
	assert.InDelta(t, 1.5, Multiplier(50, 1), 1e-9)
	assert.InDelta(t, 1.75, Multiplier(50, 1.5), 1e-9)
}

func TestPrerequisitesReferenceCatalog(t *testing.T) {
	ids := map[string]bool{}
	for _, u := range Catalog {
		ids[u.ID] = true
	}
	require.Len(t, ids, 11)
	for _, u := range Catalog {
		for _, p := range u.Requires() {
			assert.True(t, ids[p], "%s requires unknown %s", u.ID, p)
		}
	}
}
