package engine

import (
	"sort"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
	"github.com/KottenAlin/reb-wbsite/internal/domain/upgrade"
)

// Offer is a catalog entry sold once by a Ledger.
type Offer interface {
	Key() string
	Price() float64
	Requires() []string
	Available(v progress.View) bool
	Grants() effect.Effect
}

// Wallet is the resource a ledger charges.
type Wallet interface {
	Balance() float64
	Debit(amount float64)
}

// Ledger tracks one-time ownership of a catalog. Purchases are atomic: the
// wallet is debited and ownership recorded together, or nothing changes.
type Ledger[T Offer] struct {
	catalog []T
	index   map[string]int
	owned   map[string]bool
}

func NewLedger[T Offer](catalog []T) *Ledger[T] {
	l := &Ledger[T]{
		catalog: catalog,
		index:   make(map[string]int, len(catalog)),
		owned:   make(map[string]bool),
	}
	for i, item := range catalog {
		l.index[item.Key()] = i
	}
	return l
}

// Lookup finds a catalog entry by id.
func (l *Ledger[T]) Lookup(id string) (T, bool) {
	i, ok := l.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return l.catalog[i], true
}

func (l *Ledger[T]) Catalog() []T {
	return l.catalog
}

func (l *Ledger[T]) Owns(id string) bool {
	return l.owned[id]
}

// PrerequisitesMet reports whether every prerequisite of item is owned.
func (l *Ledger[T]) PrerequisitesMet(item T) bool {
	for _, p := range item.Requires() {
		if !l.owned[p] {
			return false
		}
	}
	return true
}

// Unlocked reports whether item is visible for v: its own unlock condition
// holds and its prerequisites are owned.
func (l *Ledger[T]) Unlocked(item T, v progress.View) bool {
	return item.Available(v) && l.PrerequisitesMet(item)
}

// CanAfford reports whether item could be bought right now with balance.
func (l *Ledger[T]) CanAfford(item T, balance float64, v progress.View) bool {
	return !l.owned[item.Key()] && l.Unlocked(item, v) && balance >= item.Price()
}

// Purchase buys id from w. Unknown, owned, locked or unaffordable items are
// refused with no state change.
func (l *Ledger[T]) Purchase(id string, w Wallet, v progress.View) bool {
	item, ok := l.Lookup(id)
	if !ok || !l.CanAfford(item, w.Balance(), v) {
		return false
	}
	w.Debit(item.Price())
	l.owned[id] = true
	return true
}

// Owned lists owned entries in catalog order.
func (l *Ledger[T]) Owned() []T {
	out := make([]T, 0, len(l.owned))
	for _, item := range l.catalog {
		if l.owned[item.Key()] {
			out = append(out, item)
		}
	}
	return out
}

// OwnedSet returns a copy of the ownership flags.
func (l *Ledger[T]) OwnedSet() map[string]bool {
	out := make(map[string]bool, len(l.owned))
	for id := range l.owned {
		out[id] = true
	}
	return out
}

// OwnedIDs lists owned ids in catalog order.
func (l *Ledger[T]) OwnedIDs() []string {
	ids := make([]string, 0, len(l.owned))
	for _, item := range l.Owned() {
		ids = append(ids, item.Key())
	}
	return ids
}

// Effects collects the effects granted by owned entries.
func (l *Ledger[T]) Effects() []effect.Effect {
	var out []effect.Effect
	for _, item := range l.Owned() {
		if e := item.Grants(); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Restore replaces ownership. Ids missing from the catalog are dropped.
func (l *Ledger[T]) Restore(ids []string) {
	l.owned = make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := l.index[id]; ok {
			l.owned[id] = true
		}
	}
}

// UpgradeLedger tracks quantities of repeatable base upgrades.
type UpgradeLedger struct {
	quantities map[string]int
}

func NewUpgradeLedger() *UpgradeLedger {
	return &UpgradeLedger{quantities: make(map[string]int)}
}

func (l *UpgradeLedger) Quantity(id string) int {
	return l.quantities[id]
}

// Quantities returns a copy including zero entries for every catalog upgrade.
func (l *UpgradeLedger) Quantities() map[string]int {
	out := make(map[string]int, len(upgrade.Catalog))
	for _, u := range upgrade.Catalog {
		out[u.ID] = l.quantities[u.ID]
	}
	return out
}

// Cost is the price of the next unit of id after reduction.
func (l *UpgradeLedger) Cost(id string, reduction float64) (float64, bool) {
	u, ok := upgrade.ByID(id)
	if !ok {
		return 0, false
	}
	return upgrade.DiscountedCost(u.BaseCost, l.quantities[id], reduction), true
}

func (l *UpgradeLedger) CanAfford(id string, balance, reduction float64) bool {
	cost, ok := l.Cost(id, reduction)
	return ok && balance >= cost
}

// Purchase buys one unit of id from w.
func (l *UpgradeLedger) Purchase(id string, w Wallet, reduction float64) bool {
	cost, ok := l.Cost(id, reduction)
	if !ok || w.Balance() < cost {
		return false
	}
	w.Debit(cost)
	l.quantities[id]++
	return true
}

// Cheapest returns the affordable upgrade with the lowest next cost.
func (l *UpgradeLedger) Cheapest(balance, reduction float64) (string, bool) {
	type priced struct {
		id   string
		cost float64
	}
	var options []priced
	for _, u := range upgrade.Catalog {
		cost, _ := l.Cost(u.ID, reduction)
		if cost <= balance {
			options = append(options, priced{u.ID, cost})
		}
	}
	if len(options) == 0 {
		return "", false
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].cost < options[j].cost })
	return options[0].id, true
}

func (l *UpgradeLedger) Reset() {
	l.quantities = make(map[string]int)
}

// Restore replaces quantities. Unknown ids and negative counts are dropped.
func (l *UpgradeLedger) Restore(q map[string]int) {
	l.quantities = make(map[string]int, len(q))
	for id, n := range q {
		if _, ok := upgrade.ByID(id); ok && n > 0 {
			l.quantities[id] = n
		}
	}
}

// cookieWallet charges the cookie balance.
type cookieWallet struct{ r *resources }

func (w cookieWallet) Balance() float64 { return w.r.CookieCount }
func (w cookieWallet) Debit(amount float64) {
	w.r.CookieCount -= amount
	if w.r.CookieCount < 0 {
		w.r.CookieCount = 0
	}
}

// prestigeWallet charges unspent prestige points.
type prestigeWallet struct{ p *prestigeState }

func (w prestigeWallet) Balance() float64 { return float64(w.p.Points) }
func (w prestigeWallet) Debit(amount float64) {
	w.p.Points -= int64(amount)
}

// techWallet charges tech points derived from lifetime production.
type techWallet struct {
	r     *resources
	spent *int64
}

func (w techWallet) Balance() float64 {
	return float64(availableTechPoints(w.r.TotalCookiesEarned, *w.spent))
}

func (w techWallet) Debit(amount float64) {
	*w.spent += int64(amount)
}
