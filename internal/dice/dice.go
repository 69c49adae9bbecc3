// Package dice settles two-dice wagers. Settlement is pure: it computes
// the outcome and the signed balance delta, and the caller is responsible
// for applying the delta atomically.
package dice

import "math/rand/v2"

// Result of one settled roll. Delta is the signed amount (minor units)
// the caller must apply to the player's balance: a win pays out the bet
// amount on top of the untouched stake, a loss removes it.
type Result struct {
	DiceA int
	DiceB int
	Total int
	Won   bool
	Delta int64
}

// Roller draws dice. The zero value is not usable; construct with New.
type Roller struct {
	roll func(sides int) int
}

// New returns a Roller backed by the shared math/rand/v2 source.
func New() *Roller {
	return &Roller{roll: func(sides int) int { return rand.IntN(sides) + 1 }}
}

// newWithRoll injects a deterministic die for tests.
func newWithRoll(roll func(sides int) int) *Roller {
	return &Roller{roll: roll}
}

// Settle rolls 2d6 for a bet of the given size. Total >= 7 wins.
func (r *Roller) Settle(bet int64) Result {
	a := r.roll(6)
	b := r.roll(6)
	total := a + b

	res := Result{DiceA: a, DiceB: b, Total: total}
	if total >= 7 {
		res.Won = true
		res.Delta = bet
	} else {
		res.Delta = -bet
	}

	return res
}
