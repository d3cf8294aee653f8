package network

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/KottenAlin/reb-wbsite/internal/engine"
)

// Inbound action types.
const (
	ActionClick              = "CLICK"
	ActionBuyUpgrade         = "BUY_UPGRADE"
	ActionBuySpecial         = "BUY_SPECIAL"
	ActionBuyPrestigeUpgrade = "BUY_PRESTIGE_UPGRADE"
	ActionBuyDefensive       = "BUY_DEFENSIVE"
	ActionResearch           = "RESEARCH"
	ActionCollectGolden      = "COLLECT_GOLDEN"
	ActionActivateAbility    = "ACTIVATE_ABILITY"
	ActionPrestige           = "PRESTIGE"
	ActionPause              = "PAUSE"
	ActionResume             = "RESUME"
	ActionAckAchievements    = "ACK_ACHIEVEMENTS"
	ActionSetAutoBuy         = "SET_AUTO_BUY"
)

// Outbound frame types.
const (
	FrameState        = "STATE"
	FrameNotification = "NOTIFICATION"
	FrameActionResult = "ACTION_RESULT"
)

// Game is the slice of the engine a connected player can drive.
// *engine.Engine satisfies it.
type Game interface {
	Click() float64
	BuyUpgrade(id string) bool
	BuySpecialUpgrade(id string) bool
	BuyPrestigeUpgrade(id string) bool
	BuyDefensiveUpgrade(id string) bool
	ResearchTech(id string) bool
	CollectGoldenCookie() (engine.GoldenReward, bool)
	ActivateAbility(id string) bool
	Prestige() (int64, bool)
	Pause()
	Resume()
	AcknowledgeAchievements() []string
	SetAutoBuy(enabled bool) bool
	State() engine.State
}

var _ Game = (*engine.Engine)(nil)

// PlayerAction represents an incoming command from a client.
type PlayerAction struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`      // upgrade, tech or ability id
	Enabled bool   `json:"enabled,omitempty"` // SET_AUTO_BUY
}

// ActionResult answers one PlayerAction.
type ActionResult struct {
	Action  string      `json:"action"`
	ID      string      `json:"id,omitempty"`
	OK      bool        `json:"ok"`
	Message string      `json:"message,omitempty"`
	Value   interface{} `json:"value,omitempty"`
}

// Frame is the envelope of every server-to-client message.
type Frame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func encodeFrame(kind string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(Frame{Type: kind, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", kind, err)
	}
	return raw, nil
}

// Dispatch routes one action to the game. Refusals are reported in the
// result, never as errors.
func Dispatch(g Game, a PlayerAction) ActionResult {
	res := ActionResult{Action: a.Type, ID: a.ID}
	switch a.Type {
	case ActionClick:
		earned := g.Click()
		res.OK = true
		res.Value = earned
	case ActionBuyUpgrade:
		res.OK = g.BuyUpgrade(a.ID)
	case ActionBuySpecial:
		res.OK = g.BuySpecialUpgrade(a.ID)
	case ActionBuyPrestigeUpgrade:
		res.OK = g.BuyPrestigeUpgrade(a.ID)
	case ActionBuyDefensive:
		res.OK = g.BuyDefensiveUpgrade(a.ID)
	case ActionResearch:
		res.OK = g.ResearchTech(a.ID)
	case ActionCollectGolden:
		reward, ok := g.CollectGoldenCookie()
		res.OK = ok
		if ok {
			res.Value = reward
			res.Message = fmt.Sprintf("%gx production for %s", reward.Multiplier, reward.Duration)
		}
	case ActionActivateAbility:
		res.OK = g.ActivateAbility(a.ID)
	case ActionPrestige:
		points, ok := g.Prestige()
		res.OK = ok
		if ok {
			res.Value = points
			res.Message = fmt.Sprintf("Gained %s prestige points", humanize.Comma(points))
		}
	case ActionPause:
		g.Pause()
		res.OK = true
	case ActionResume:
		g.Resume()
		res.OK = true
	case ActionAckAchievements:
		res.OK = true
		res.Value = g.AcknowledgeAchievements()
	case ActionSetAutoBuy:
		res.OK = g.SetAutoBuy(a.Enabled)
	default:
		res.Message = "unknown action"
		return res
	}
	if !res.OK && res.Message == "" {
		res.Message = "refused"
	}
	return res
}
