package shop

import "github.com/tifye/bungeoppang/assert"

// Inventory is the serving plate: finished, unclaimed bungeoppang by
// filling. Counts never go negative.
type Inventory struct {
	counts [len(fillingNames)]int
}

func (inv *Inventory) Count(f Filling) int {
	if !f.Valid() {
		return 0
	}
	return inv.counts[f]
}

func (inv *Inventory) Add(f Filling, n int) {
	assert.Assert(f.Valid(), "add of invalid filling")
	assert.AssertNonNegative(n, "inventory add")
	inv.counts[f] += n
}

// Covers reports whether every filling in the order is available in the
// requested quantity.
func (inv *Inventory) Covers(o Order) bool {
	for f, q := range o {
		if inv.Count(f) < q {
			return false
		}
	}
	return true
}

// Take removes the order from the plate. It reports false and leaves the
// plate untouched if the order is not covered.
func (inv *Inventory) Take(o Order) bool {
	if !inv.Covers(o) {
		return false
	}
	for f, q := range o {
		inv.counts[f] -= q
		assert.AssertNonNegative(inv.counts[f], "inventory count")
	}
	return true
}

// Total is the number of units on the plate.
func (inv *Inventory) Total() int {
	n := 0
	for _, c := range inv.counts {
		n += c
	}
	return n
}

// Counts returns a copy of the non-zero counts.
func (inv *Inventory) Counts() map[Filling]int {
	m := map[Filling]int{}
	for _, f := range Fillings {
		if inv.counts[f] > 0 {
			m[f] = inv.counts[f]
		}
	}
	return m
}
