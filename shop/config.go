package shop

import (
	"fmt"
	"time"
)

const (
	BurnDuration     = 1500 * time.Millisecond
	SpawnMinInterval = 4000 * time.Millisecond
	SpawnMaxInterval = 10000 * time.Millisecond
	MaxCustomers     = 4

	// MaxFrameDelta is the largest frame delta that still advances cooking
	// and patience timers. Larger gaps (tab switches, GC pauses) are dropped.
	MaxFrameDelta = 100 * time.Millisecond
)

// Bonus multiplies the revenue of units with a matching filling.
type Bonus struct {
	Filling    Filling
	Multiplier float64
}

// Config is the read-only snapshot of upgrade effects a shop runs with for
// a whole day.
type Config struct {
	MoldCount        int
	CookDuration     time.Duration
	BurnDuration     time.Duration
	PatienceDuration time.Duration
	ServingDelay     time.Duration

	// CrustBonus is added to the price of every unit sold.
	CrustBonus int
	// Decoration is cosmetic only.
	Decoration int

	AutoBake bool
	// AutoCollectInterval is how often ready slots are moved to the plate
	// without player input. Zero disables auto collection.
	AutoCollectInterval time.Duration

	SpawnMinInterval time.Duration
	SpawnMaxInterval time.Duration
	MaxCustomers     int

	// Bonus is the active daily filling bonus, if any.
	Bonus *Bonus
}

func DefaultConfig() Config {
	return Config{
		MoldCount:        6,
		CookDuration:     1200 * time.Millisecond,
		BurnDuration:     BurnDuration,
		PatienceDuration: 45 * time.Second,
		ServingDelay:     time.Second,
		SpawnMinInterval: SpawnMinInterval,
		SpawnMaxInterval: SpawnMaxInterval,
		MaxCustomers:     MaxCustomers,
	}
}

func (c Config) Validate() error {
	if c.MoldCount <= 0 {
		return fmt.Errorf("mold count must be positive, got %d", c.MoldCount)
	}
	if c.CookDuration <= 0 || c.BurnDuration <= 0 {
		return fmt.Errorf("cook and burn durations must be positive")
	}
	if c.PatienceDuration <= 0 {
		return fmt.Errorf("patience duration must be positive")
	}
	if c.ServingDelay < 0 || c.AutoCollectInterval < 0 {
		return fmt.Errorf("serving delay and auto collect interval must not be negative")
	}
	if c.SpawnMinInterval <= 0 || c.SpawnMaxInterval < c.SpawnMinInterval {
		return fmt.Errorf("invalid spawn interval [%s, %s]", c.SpawnMinInterval, c.SpawnMaxInterval)
	}
	if c.MaxCustomers <= 0 {
		return fmt.Errorf("max customers must be positive, got %d", c.MaxCustomers)
	}
	if c.Bonus != nil && (!c.Bonus.Filling.Valid() || c.Bonus.Multiplier <= 0) {
		return fmt.Errorf("invalid filling bonus %+v", *c.Bonus)
	}
	return nil
}
