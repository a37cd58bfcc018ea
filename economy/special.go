package economy

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/tifye/bungeoppang/shop"
)

type SpecialKind uint8

const (
	UpgradeDiscount SpecialKind = iota + 1
	FillingBonus
)

const (
	DiscountMultiplier = 0.7
	BonusMultiplier    = 1.5
)

func (k SpecialKind) String() string {
	switch k {
	case UpgradeDiscount:
		return "UPGRADE_DISCOUNT"
	case FillingBonus:
		return "FILLING_BONUS"
	default:
		return fmt.Sprintf("SpecialKind(%d)", k)
	}
}

// DailySpecial is either a discount on one upgrade category or a revenue
// bonus on one filling. Only the field matching Kind is meaningful.
type DailySpecial struct {
	Kind     SpecialKind
	Category Category
	Filling  shop.Filling
	Value    float64
}

type specialJSON struct {
	Type   string  `json:"type"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

func (s DailySpecial) MarshalJSON() ([]byte, error) {
	out := specialJSON{Type: s.Kind.String(), Value: s.Value}
	switch s.Kind {
	case UpgradeDiscount:
		out.Target = s.Category.String()
	case FillingBonus:
		out.Target = s.Filling.String()
	}
	return json.Marshal(out)
}

// DailySpecialFor picks the special of a day. The choice only depends on
// the day and on which categories are not yet maxed, so reloading a save
// yields the same special.
func DailySpecialFor(day int, levels Levels) DailySpecial {
	rnd := shop.SeededRand(int64(day) * 1234)

	var open []Category
	for _, c := range Categories {
		if !levels.Maxed(c) {
			open = append(open, c)
		}
	}

	roll := rnd.Float64()
	if len(open) > 0 && roll < 0.5 {
		return DailySpecial{
			Kind:     UpgradeDiscount,
			Category: open[rnd.IntN(len(open))],
			Value:    DiscountMultiplier,
		}
	}
	return DailySpecial{
		Kind:    FillingBonus,
		Filling: shop.Fillings[rnd.IntN(len(shop.Fillings))],
		Value:   BonusMultiplier,
	}
}

// Bonus converts a filling bonus special into the shop's revenue bonus.
func (s DailySpecial) Bonus() *shop.Bonus {
	if s.Kind != FillingBonus {
		return nil
	}
	return &shop.Bonus{Filling: s.Filling, Multiplier: s.Value}
}

// UpgradeCost is the cost of moving category from level to level+1 with
// the special applied.
func UpgradeCost(c Category, level int, special *DailySpecial) (int, bool) {
	cost, ok := CostFor(c, level)
	if !ok {
		return 0, false
	}
	if special != nil && special.Kind == UpgradeDiscount && special.Category == c {
		cost = int(math.Floor(float64(cost) * special.Value))
	}
	return cost, true
}
