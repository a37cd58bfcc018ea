package autoplay

import "time"

type BotConfig struct {
	// Chance out of 100 per frame that an empty slot gets a filling a
	// waiting customer still needs
	LoadProbability uint
	// Chance out of 100 per frame that a ready slot is collected
	CollectProbability uint
	// Chance out of 100 that a load picks a random filling instead
	MistakeProbability uint
	// Chance out of 100 per frame that burnt slots are cleaned
	CleanProbability uint
	// Chance out of 100 between days that the cheapest affordable upgrade
	// is bought
	ShopProbability uint
	// Upper bound of the mini-game bonus paid after a won day
	MaxBonus int

	FrameStep     time.Duration
	DaySeconds    int
	PriceModifier float64
}

func DefaultBotConfig() BotConfig {
	return BotConfig{
		LoadProbability:    30,
		CollectProbability: 20,
		MistakeProbability: 5,
		CleanProbability:   10,
		ShopProbability:    80,
		MaxBonus:           3000,
		FrameStep:          16 * time.Millisecond,
		DaySeconds:         90,
		PriceModifier:      1.0,
	}
}

// IdleBotConfig never touches the molds.
func IdleBotConfig() BotConfig {
	cfg := DefaultBotConfig()
	cfg.LoadProbability = 0
	cfg.CollectProbability = 0
	cfg.CleanProbability = 0
	return cfg
}
