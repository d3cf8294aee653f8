package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KottenAlin/reb-wbsite/internal/engine"
	"github.com/KottenAlin/reb-wbsite/internal/network"
)

func TestNextActionPrefersGolden(t *testing.T) {
	st := engine.State{Golden: engine.GoldenCookieState{Active: true}}
	assert.Equal(t, network.ActionCollectGolden, nextAction(st, 10, 10).Type)
}

func TestNextActionBuysCheapestAffordable(t *testing.T) {
	st := engine.State{
		CookieCount: 120,
		Upgrades: []engine.UpgradeStatus{
			{ID: "grandma", Cost: 100},
			{ID: "cursor", Cost: 15},
			{ID: "farm", Cost: 1100},
		},
	}
	a := nextAction(st, 10, 10)
	assert.Equal(t, network.ActionBuyUpgrade, a.Type)
	assert.Equal(t, "cursor", a.ID)

	assert.Equal(t, network.ActionClick, nextAction(st, 9, 10).Type)
	assert.Equal(t, network.ActionClick, nextAction(st, 10, 0).Type, "buying disabled")
	assert.Equal(t, network.ActionClick, nextAction(engine.State{CookieCount: 1, Upgrades: st.Upgrades}, 10, 10).Type)
}

func TestStatsRecordClassifiesResults(t *testing.T) {
	s := &Stats{}
	s.record([]byte(`{"type":"ACTION_RESULT","payload":{"action":"BUY_UPGRADE","ok":true}}`))
	s.record([]byte(`{"type":"ACTION_RESULT","payload":{"action":"CLICK","ok":false,"message":"rate limited"}}`))
	s.record([]byte(`{"type":"ACTION_RESULT","payload":{"action":"PRESTIGE","ok":false,"message":"refused"}}`))
	s.record([]byte(`{"type":"STATE","payload":{"cookie_count":42}}`))
	s.record([]byte(`not json`))

	assert.Equal(t, int64(1), s.Purchases)
	assert.Equal(t, int64(1), s.RateLimited)
	assert.Equal(t, int64(1), s.Refused)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(5), s.MessagesReceived)
	assert.Equal(t, 42.0, s.snapshot().CookieCount)
}
