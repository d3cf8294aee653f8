// Package achievement holds the achievement catalog and its evaluation rules.
// This package is PURE and must NOT import any infrastructure packages.
package achievement

import (
	"math"

	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
)

type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryProduction Category = "production"
	CategoryCollection Category = "collection"
	CategoryTime       Category = "time"
	CategoryUpgrades   Category = "upgrades"
	CategorySpecial    Category = "special"
	CategorySecret     Category = "secret"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryGeneral, CategoryProduction, CategoryCollection, CategoryTime,
	CategoryUpgrades, CategorySpecial, CategorySecret,
}

// Achievement is a one-way milestone. Check must be a pure function of v.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    Category
	Check       func(v progress.View) bool
}

var allUpgradeTypes = []string{"cursor", "grandma", "farm", "mine", "factory", "bank", "temple", "wizard_tower"}

func clicks(n int64) func(progress.View) bool {
	return func(v progress.View) bool { return v.TotalClicks >= n }
}

func earned(n float64) func(progress.View) bool {
	return func(v progress.View) bool { return v.TotalCookiesEarned >= n }
}

func cps(n float64) func(progress.View) bool {
	return func(v progress.View) bool { return v.CookiesPerSecond >= n }
}

func owned(n int) func(progress.View) bool {
	return func(v progress.View) bool { return v.TotalUpgrades() >= n }
}

func ownedOf(id string, n int) func(progress.View) bool {
	return func(v progress.View) bool { return v.Owned(id) >= n }
}

func played(seconds int64) func(progress.View) bool {
	return func(v progress.View) bool { return v.PlayTime >= seconds }
}

func golden(n int64) func(progress.View) bool {
	return func(v progress.View) bool { return v.GoldenCookiesCollected >= n }
}

func prestiged(n int64) func(progress.View) bool {
	return func(v progress.View) bool { return v.PrestigeLevel >= n }
}

// exactly compares whole cookies; fractional production never lands on an
// exact float.
func exactly(n float64) func(progress.View) bool {
	return func(v progress.View) bool { return math.Floor(v.CookieCount) == n }
}

var Catalog = []Achievement{
	{ID: "first_click", Name: "First Steps", Description: "Click the cookie once", Icon: "[!]", Category: CategoryGeneral, Check: clicks(1)},
	{ID: "cookie_rookie", Name: "Cookie Rookie", Description: "Click the cookie 100 times", Icon: "[1]", Category: CategoryGeneral, Check: clicks(100)},
	{ID: "click_master", Name: "Click Master", Description: "Click the cookie 1,000 times", Icon: "[*]", Category: CategoryGeneral, Check: clicks(1000)},
	{ID: "cookie_collector", Name: "Cookie Collector", Description: "Earn 1,000 total cookies", Icon: "(o)", Category: CategoryGeneral, Check: earned(1e3)},
	{ID: "wealthy_baker", Name: "Wealthy Baker", Description: "Earn 1,000,000 total cookies", Icon: "[$]", Category: CategoryGeneral, Check: earned(1e6)},
	{ID: "cookie_billionaire", Name: "Cookie Billionaire", Description: "Earn 1,000,000,000 total cookies", Icon: "<>", Category: CategoryGeneral, Check: earned(1e9)},
	{ID: "upgrade_beginner", Name: "Upgrade Beginner", Description: "Buy your first upgrade", Icon: "[+]", Category: CategoryGeneral, Check: owned(1)},
	{ID: "upgrade_master", Name: "Upgrade Master", Description: "Own 50 total upgrades", Icon: "{+}", Category: CategoryGeneral, Check: owned(50)},
	{ID: "production_power", Name: "Production Power", Description: "Reach 10 cookies per second", Icon: ">>", Category: CategoryGeneral, Check: cps(10)},
	{ID: "cookie_empire", Name: "Cookie Empire", Description: "Reach 100 cookies per second", Icon: "|||", Category: CategoryGeneral, Check: cps(100)},

	{ID: "cookie_mega_factory", Name: "Cookie Mega Factory", Description: "Reach 100,000 cookies per second", Icon: "[M]", Category: CategoryProduction, Check: cps(1e5)},
	{ID: "cookie_galaxy", Name: "Cookie Galaxy", Description: "Reach 1,000,000 cookies per second", Icon: "[*]", Category: CategoryProduction, Check: cps(1e6)},
	{ID: "cookie_universe", Name: "Cookie Universe", Description: "Reach 10,000,000 cookies per second", Icon: "<*>", Category: CategoryProduction, Check: cps(1e7)},
	{ID: "infinite_cookies", Name: "Infinite Cookies", Description: "Reach 100,000,000 cookies per second", Icon: "{*}", Category: CategoryProduction, Check: cps(1e8)},

	{ID: "cookie_trillionaire", Name: "Cookie Trillionaire", Description: "Earn 1,000,000,000,000 total cookies", Icon: "[T]", Category: CategoryCollection, Check: earned(1e12)},
	{ID: "cookie_quadrillionaire", Name: "Cookie Quadrillionaire", Description: "Earn 1,000,000,000,000,000 total cookies", Icon: "[Q]", Category: CategoryCollection, Check: earned(1e15)},

	{ID: "ancient_baker", Name: "Ancient Baker", Description: "Play for 1 hour", Icon: "[1h]", Category: CategoryTime, Check: played(3600)},
	{ID: "dedicated_baker", Name: "Dedicated Baker", Description: "Play for 10 hours", Icon: "[10h]", Category: CategoryTime, Check: played(36000)},
	{ID: "cookie_legend", Name: "Cookie Legend", Description: "Play for 100 hours", Icon: "[100h]", Category: CategoryTime, Check: played(360000)},

	{ID: "upgrade_collector", Name: "Upgrade Collector", Description: "Own 100 total upgrades", Icon: "<+>", Category: CategoryUpgrades, Check: owned(100)},
	{ID: "upgrade_hoarder", Name: "Upgrade Hoarder", Description: "Own 250 total upgrades", Icon: "<<+>>", Category: CategoryUpgrades, Check: owned(250)},
	{ID: "upgrade_lord", Name: "Upgrade Lord", Description: "Own 500 total upgrades", Icon: "{++}", Category: CategoryUpgrades, Check: owned(500)},
	{ID: "max_cursor", Name: "Cursor Master", Description: "Own 100 cursors", Icon: "[>]", Category: CategoryUpgrades, Check: ownedOf("cursor", 100)},
	{ID: "max_grandma", Name: "Grandma's Favorite", Description: "Own 100 grandmas", Icon: "[&]", Category: CategoryUpgrades, Check: ownedOf("grandma", 100)},
	{ID: "max_factory", Name: "Industrial Mogul", Description: "Own 100 factories", Icon: "[F]", Category: CategoryUpgrades, Check: ownedOf("factory", 100)},

	{ID: "speed_clicker", Name: "Speed Clicker", Description: "Click 10 times in 1 second", Icon: "[!!]", Category: CategorySpecial,
		Check: func(v progress.View) bool { return v.SpeedClickRecord >= 10 }},
	{ID: "click_combo", Name: "Click Combo", Description: "Click 100 times in 10 seconds", Icon: "[!!!]", Category: CategorySpecial,
		Check: func(v progress.View) bool { return v.ClickComboRecord >= 100 }},
	{ID: "golden_master", Name: "Golden Master", Description: "Collect 100 golden cookies", Icon: "<GG>", Category: CategorySpecial, Check: golden(100)},
	{ID: "golden_legend", Name: "Golden Legend", Description: "Collect 500 golden cookies", Icon: "{GG}", Category: CategorySpecial, Check: golden(500)},
	{ID: "prestigious_baker", Name: "Prestigious Baker", Description: "Complete your first prestige", Icon: "[P]", Category: CategorySpecial, Check: prestiged(1)},
	{ID: "prestige_master", Name: "Prestige Master", Description: "Complete 10 prestiges", Icon: "<P>", Category: CategorySpecial, Check: prestiged(10)},

	{ID: "lucky_seven", Name: "Lucky Seven", Description: "Have exactly 7,777,777 cookies", Icon: "[7]", Category: CategorySecret, Check: exactly(7777777)},
	{ID: "the_answer", Name: "The Answer", Description: "Have exactly 42,000,000 cookies", Icon: "[42]", Category: CategorySecret, Check: exactly(42000000)},
	{ID: "minimalist", Name: "Minimalist", Description: "Reach 1,000 CPS with only cursors", Icon: "[>_<]", Category: CategorySecret,
		Check: func(v progress.View) bool { return v.CookiesPerSecond >= 1000 && v.OnlyOwns("cursor") }},
	{ID: "diversified", Name: "Diversified Portfolio", Description: "Own at least 1 of every upgrade type", Icon: "[ALL]", Category: CategorySecret,
		Check: func(v progress.View) bool { return v.OwnsEach(allUpgradeTypes) }},
}

// Evaluate returns catalog entries that newly hold for v, in catalog order.
// Entries already in unlocked are skipped, so unlocking is one-way.
func Evaluate(v progress.View, unlocked map[string]bool) []Achievement {
	var out []Achievement
	for _, a := range Catalog {
		if unlocked[a.ID] {
			continue
		}
		if a.Check(v) {
			out = append(out, a)
		}
	}
	return out
}

// Known reports whether id names a catalog entry.
func Known(id string) bool {
	for _, a := range Catalog {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Progress counts unlocked entries of a group.
type Progress struct {
	Total      int `json:"total"`
	Unlocked   int `json:"unlocked"`
	Percentage int `json:"percentage"`
}

type Summary struct {
	Progress
	ByCategory map[Category]Progress `json:"by_category"`
}

func percent(unlocked, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(unlocked) / float64(total) * 100))
}

// Stats summarizes unlock progress overall and per category. Ids that are
// not in the catalog are ignored.
func Stats(unlocked map[string]bool) Summary {
	s := Summary{ByCategory: make(map[Category]Progress, len(Categories))}
	for _, a := range Catalog {
		p := s.ByCategory[a.Category]
		p.Total++
		s.Total++
		if unlocked[a.ID] {
			p.Unlocked++
			s.Unlocked++
		}
		s.ByCategory[a.Category] = p
	}
	for c, p := range s.ByCategory {
		p.Percentage = percent(p.Unlocked, p.Total)
		s.ByCategory[c] = p
	}
	s.Percentage = percent(s.Unlocked, s.Total)
	return s
}
