package economy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/shop"
)

type Category uint8

const (
	MoldCount Category = iota
	CookSpeed
	PatienceTime
	Crust
	Decoration
	FasterServing
	AutoBake
	AutoServe

	numCategories
)

// Categories lists every upgrade category in display order.
var Categories = [numCategories]Category{
	MoldCount,
	CookSpeed,
	PatienceTime,
	Crust,
	Decoration,
	FasterServing,
	AutoBake,
	AutoServe,
}

var categoryNames = [numCategories]string{
	MoldCount:     "MOLD_COUNT",
	CookSpeed:     "COOK_SPEED",
	PatienceTime:  "PATIENCE_TIME",
	Crust:         "BUNGEOPPANG_CRUST",
	Decoration:    "BUNGEOPPANG_DECORATION",
	FasterServing: "FASTER_SERVING",
	AutoBake:      "AUTO_BAKE",
	AutoServe:     "AUTO_SERVE",
}

func (c Category) String() string {
	if c >= numCategories {
		return fmt.Sprintf("Category(%d)", c)
	}
	return categoryNames[c]
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if categoryNames[c] == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown upgrade category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Level is one purchasable step of an upgrade. Cost is the price of moving
// into this level; level 0 is free.
type Level struct {
	Cost  int
	Value int
	// Bonus is the per-unit price bonus. Only crust levels carry one.
	Bonus int
}

// table is exhaustive: every category has at least one level.
var table = [numCategories][]Level{
	MoldCount: {
		{Cost: 0, Value: 6},
		{Cost: 10000, Value: 8},
		{Cost: 30000, Value: 9},
		{Cost: 70000, Value: 12},
	},
	// milliseconds
	CookSpeed: {
		{Cost: 0, Value: 1200},
		{Cost: 7000, Value: 800},
		{Cost: 20000, Value: 500},
		{Cost: 50000, Value: 300},
	},
	// milliseconds
	PatienceTime: {
		{Cost: 0, Value: 45000},
		{Cost: 8000, Value: 55000},
		{Cost: 20000, Value: 65000},
		{Cost: 45000, Value: 75000},
	},
	Crust: {
		{Cost: 0, Value: 0, Bonus: 0},
		{Cost: 8000, Value: 1, Bonus: 10},
		{Cost: 20000, Value: 2, Bonus: 25},
		{Cost: 45000, Value: 3, Bonus: 50},
		{Cost: 80000, Value: 4, Bonus: 100},
	},
	Decoration: {
		{Cost: 0, Value: 0},
		{Cost: 12000, Value: 1},
		{Cost: 30000, Value: 2},
		{Cost: 60000, Value: 3},
		{Cost: 100000, Value: 4},
		{Cost: 150000, Value: 5},
	},
	// milliseconds
	FasterServing: {
		{Cost: 0, Value: 1000},
		{Cost: 6000, Value: 750},
		{Cost: 16000, Value: 500},
		{Cost: 35000, Value: 250},
		{Cost: 70000, Value: 100},
	},
	AutoBake: {
		{Cost: 0, Value: 0},
		{Cost: 75000, Value: 1},
	},
	// milliseconds between auto collections
	AutoServe: {
		{Cost: 0, Value: 6000},
		{Cost: 25000, Value: 3000},
		{Cost: 80000, Value: 1500},
		{Cost: 200000, Value: 750},
	},
}

// MaxLevel is the highest level index of the category.
func MaxLevel(c Category) int {
	return len(levels(c)) - 1
}

func levels(c Category) []Level {
	assert.AssertInRange(int(c), 0, int(numCategories), "upgrade category")
	return table[c]
}

func lookup(c Category, level int) Level {
	ls := levels(c)
	assert.AssertInRange(level, 0, len(ls), fmt.Sprintf("%s level", c))
	return ls[level]
}

// EffectFor is the value of the category at level. An unknown category or
// level is a programmer error and panics.
func EffectFor(c Category, level int) int {
	return lookup(c, level).Value
}

// CrustBonusFor is the per-unit price bonus of a crust level.
func CrustBonusFor(level int) int {
	return lookup(Crust, level).Bonus
}

// CostFor is the price of moving from level to level+1. It reports false
// when level is already the maximum.
func CostFor(c Category, level int) (int, bool) {
	ls := levels(c)
	assert.AssertInRange(level, 0, len(ls), fmt.Sprintf("%s level", c))
	if level+1 >= len(ls) {
		return 0, false
	}
	return ls[level+1].Cost, true
}

// Levels is the player's current level per category.
type Levels [numCategories]int

func (l Levels) Of(c Category) int {
	assert.AssertInRange(int(c), 0, int(numCategories), "upgrade category")
	return l[c]
}

// Next returns a copy with the category raised by one.
func (l Levels) Next(c Category) Levels {
	assert.Assert(l.Of(c) < MaxLevel(c), "upgrade already at max level")
	l[c]++
	return l
}

func (l Levels) Maxed(c Category) bool {
	return l.Of(c) >= MaxLevel(c)
}

func (l Levels) Validate() error {
	for _, c := range Categories {
		if l[c] < 0 || l[c] > MaxLevel(c) {
			return fmt.Errorf("%s level %d out of range [0, %d]", c, l[c], MaxLevel(c))
		}
	}
	return nil
}

// MarshalJSON writes levels keyed by category name.
func (l Levels) MarshalJSON() ([]byte, error) {
	m := make(map[Category]int, numCategories)
	for _, c := range Categories {
		m[c] = l[c]
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts a partial object; missing categories stay at 0 so
// saves from before a category existed keep loading.
func (l *Levels) UnmarshalJSON(b []byte) error {
	var m map[Category]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out Levels
	for c, lvl := range m {
		out[c] = lvl
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*l = out
	return nil
}

// Config resolves the upgrade effects into the shop configuration for one
// day. The filling bonus of a daily special is applied by the caller.
func (l Levels) Config() shop.Config {
	cfg := shop.DefaultConfig()
	cfg.MoldCount = EffectFor(MoldCount, l[MoldCount])
	cfg.CookDuration = ms(EffectFor(CookSpeed, l[CookSpeed]))
	cfg.PatienceDuration = ms(EffectFor(PatienceTime, l[PatienceTime]))
	cfg.ServingDelay = ms(EffectFor(FasterServing, l[FasterServing]))
	cfg.CrustBonus = CrustBonusFor(l[Crust])
	cfg.Decoration = EffectFor(Decoration, l[Decoration])
	cfg.AutoBake = EffectFor(AutoBake, l[AutoBake]) > 0
	// the base level is not purchased and does not collect
	if l[AutoServe] > 0 {
		cfg.AutoCollectInterval = ms(EffectFor(AutoServe, l[AutoServe]))
	}
	return cfg
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
