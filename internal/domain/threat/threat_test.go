package threat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
)

func ids(threats []Threat) []string {
	out := make([]string, 0, len(threats))
	for _, t := range threats {
		out = append(out, t.ID)
	}
	return out
}

func TestAvailable(t *testing.T) {
	fresh := ids(Available(progress.View{}))
	assert.ElementsMatch(t, []string{CookieThiefID, OvenBreakdownID, ClickFrenzyID}, fresh)

	late := ids(Available(progress.View{
		TotalCookiesEarned:     20_000_000,
		Upgrades:               map[string]int{"grandma": 1},
		GoldenCookiesCollected: 10,
	}))
	assert.Len(t, late, len(Catalog))
}

func TestPreventionZeroesProbability(t *testing.T) {
	oven, ok := ByID(OvenBreakdownID)
	require.True(t, ok)

	assert.Equal(t, 0.05, Probability(oven, nil))
	assert.Equal(t, 0.0, Probability(oven, map[string]bool{"backup_generator": true}))
	// insurance only reduces theft damage
	thief, _ := ByID(CookieThiefID)
	assert.Equal(t, 0.10, Probability(thief, map[string]bool{"cookie_insurance": true}))
}

func TestDamage(t *testing.T) {
	thief, _ := ByID(CookieThiefID)
	owned := map[string]bool{"cookie_insurance": true}

	assert.Equal(t, 50.0, Damage(thief, 50, nil, effect.Defense{}))
	assert.Equal(t, 20.0, Damage(thief, 50, owned, effect.Defense{}))
	assert.Equal(t, 8.0, Damage(thief, 50, owned, effect.Defense{Reduction: 0.6}))
}

func TestLossFunctions(t *testing.T) {
	thief, _ := ByID(CookieThiefID)
	spoil, _ := ByID(CookieSpoilageID)
	v := progress.View{CookieCount: 1999, TotalCookiesEarned: 12345}

	assert.Equal(t, 99.0, thief.Loss(v))
	assert.Equal(t, 1234.0, spoil.Loss(v))
}

func TestDefensesCoverRealThreats(t *testing.T) {
	for _, d := range Defenses {
		for _, id := range d.ProtectsAgainst {
			_, ok := ByID(id)
			assert.True(t, ok, "%s protects unknown %s", d.ID, id)
		}
	}
}

func TestAbilityLookup(t *testing.T) {
	a, ok := AbilityByID(EmergencyProductionID)
	require.True(t, ok)
	assert.Equal(t, 10.0, a.Multiplier)

	_, ok = AbilityByID("laser")
	assert.False(t, ok)
}
