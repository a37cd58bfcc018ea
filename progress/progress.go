package progress

import (
	"errors"
	"fmt"

	"github.com/tifye/bungeoppang/economy"
	"github.com/tifye/bungeoppang/shop"
)

var (
	ErrMaxLevel     = errors.New("upgrade already at max level")
	ErrInsufficient = errors.New("insufficient revenue")
)

// Snapshot is everything that survives between days.
type Snapshot struct {
	CurrentDay        int            `json:"day"`
	CumulativeRevenue int            `json:"totalRevenue"`
	Upgrades          economy.Levels `json:"upgrades"`
}

func New() Snapshot {
	return Snapshot{CurrentDay: 1}
}

func (s Snapshot) Validate() error {
	if s.CurrentDay < 1 {
		return fmt.Errorf("day must be at least 1, got %d", s.CurrentDay)
	}
	if s.CumulativeRevenue < 0 {
		return fmt.Errorf("revenue must not be negative, got %d", s.CumulativeRevenue)
	}
	return s.Upgrades.Validate()
}

// Goal is the revenue target of the current day.
func (s Snapshot) Goal() int {
	return economy.GoalForDay(s.CurrentDay)
}

func (s Snapshot) Special() economy.DailySpecial {
	return economy.DailySpecialFor(s.CurrentDay, s.Upgrades)
}

// ApplyDayEnd folds a finished day into the snapshot. A failed day leaves
// the snapshot unchanged so the same day is replayed.
func ApplyDayEnd(s Snapshot, sum shop.Summary) Snapshot {
	if !sum.Success {
		return s
	}
	s.CumulativeRevenue += sum.Revenue
	s.CurrentDay++
	return s
}

// ApplyBonus adds a bonus stage reward. Non-positive amounts are ignored.
func ApplyBonus(s Snapshot, amount int) Snapshot {
	if amount > 0 {
		s.CumulativeRevenue += amount
	}
	return s
}

// Purchase buys the next level of category, paying with cumulative revenue.
func Purchase(s Snapshot, c economy.Category, special *economy.DailySpecial) (Snapshot, int, error) {
	cost, ok := economy.UpgradeCost(c, s.Upgrades.Of(c), special)
	if !ok {
		return s, 0, ErrMaxLevel
	}
	if s.CumulativeRevenue < cost {
		return s, cost, fmt.Errorf("%w: have %d, need %d", ErrInsufficient, s.CumulativeRevenue, cost)
	}
	s.CumulativeRevenue -= cost
	s.Upgrades = s.Upgrades.Next(c)
	return s, cost, nil
}
