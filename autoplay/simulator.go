package autoplay

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/economy"
	"github.com/tifye/bungeoppang/game"
	"github.com/tifye/bungeoppang/shop"
)

// maxDaySeconds bounds a single day in case the countdown never fires.
const maxDaySeconds = 10 * economy.MaxDaySeconds

// Simulator plays whole days against a game service with a fake clock.
type Simulator struct {
	logger *log.Logger
	seed1  uint64
	seed2  uint64

	config BotConfig
	svc    *game.Service
	rnd    *rand.Rand
	now    time.Time

	numLoads    uint
	numMistakes uint
	numCleans   uint
	numUpgrades uint
}

type Result struct {
	Day     int
	Summary shop.Summary
	Bonus   int
}

func NewSimulator(logger *log.Logger, svc *game.Service, seed1, seed2 uint64, config BotConfig) *Simulator {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(svc)
	assert.Assert(config.FrameStep > 0 && config.FrameStep < shop.MaxFrameDelta, "frame step must be in (0, 100ms)")

	return &Simulator{
		logger: logger,
		seed1:  seed1,
		seed2:  seed2,
		config: config,
		svc:    svc,
		// the bot draws from its own stream so the shop's spawns do not
		// depend on how often the bot rolls
		rnd: rand.New(rand.NewPCG(seed2, seed1)),
		now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *Simulator) Run(ctx context.Context, days int) ([]Result, error) {
	s.logger.Info("Simulator started", "seed1", s.seed1, "seed2", s.seed2, "days", days)
	defer func() {
		s.logger.Info("Simulator finished",
			"seed1", s.seed1, "seed2", s.seed2,
			"loads", s.numLoads,
			"mistakes", s.numMistakes,
			"cleans", s.numCleans,
			"upgrades", s.numUpgrades,
		)
	}()

	results := make([]Result, 0, days)
	for range days {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if err := s.buyUpgrade(ctx); err != nil {
			return results, err
		}
		res, err := s.PlayDay(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// PlayDay plays one day from start to the day end screen and leaves it.
func (s *Simulator) PlayDay(ctx context.Context) (Result, error) {
	day := s.svc.Snapshot().CurrentDay
	err := s.svc.StartDay(game.DayOptions{
		DurationSec:   s.config.DaySeconds,
		PriceModifier: s.config.PriceModifier,
	})
	if err != nil {
		return Result{}, fmt.Errorf("start day %d: %s", day, err)
	}

	framesPerSecond := int(time.Second / s.config.FrameStep)
	for range maxDaySeconds {
		for range framesPerSecond {
			s.now = s.now.Add(s.config.FrameStep)
			s.svc.Frame(s.now)
			s.step()
		}

		sum, ended, err := s.svc.Second(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("day %d second: %s", day, err)
		}
		if !ended {
			continue
		}

		bonus := 0
		if sum.Success && s.config.MaxBonus > 0 {
			bonus = s.rnd.IntN(s.config.MaxBonus + 1)
		}
		if err := s.svc.FinishDay(ctx, bonus); err != nil {
			return Result{}, fmt.Errorf("finish day %d: %s", day, err)
		}

		s.logger.Debug("day played",
			"day", day,
			"revenue", sum.Revenue,
			"goal", sum.Goal,
			"success", sum.Success,
			"served", sum.CustomersServed,
			"lost", sum.CustomersLost)
		return Result{Day: day, Summary: sum, Bonus: bonus}, nil
	}
	return Result{}, fmt.Errorf("day %d did not end", day)
}

func (s *Simulator) step() {
	v := s.svc.State().Shop
	if v == nil {
		return
	}

	need := map[shop.Filling]int{}
	for _, c := range v.Customers {
		for f, n := range c.Order {
			need[f] += n
		}
	}
	for f, n := range v.Plate {
		need[f] -= n
	}

	burnt := 0
	for _, slot := range v.Slots {
		switch slot.State {
		case shop.Cooking, shop.Ready:
			need[slot.Filling]--
		case shop.Burnt:
			burnt++
		}
	}

	if burnt > 0 && Chance(s.rnd, s.config.CleanProbability) {
		s.numCleans++
		s.svc.CleanAll()
		return
	}

	for _, slot := range v.Slots {
		switch slot.State {
		case shop.Ready:
			if Chance(s.rnd, s.config.CollectProbability) {
				s.svc.Collect(slot.ID)
			}
		case shop.Empty:
			if !Chance(s.rnd, s.config.LoadProbability) {
				continue
			}
			f, ok := s.pick(need)
			if !ok {
				continue
			}
			if s.svc.Load(slot.ID, f) {
				s.numLoads++
				need[f]--
			}
		}
	}
}

func (s *Simulator) pick(need map[shop.Filling]int) (shop.Filling, bool) {
	if Chance(s.rnd, s.config.MistakeProbability) {
		s.numMistakes++
		return shop.Fillings[s.rnd.IntN(len(shop.Fillings))], true
	}
	for _, f := range shop.Fillings {
		if need[f] > 0 {
			return f, true
		}
	}
	return shop.NoFilling, false
}

// buyUpgrade buys the cheapest affordable upgrade, maybe.
func (s *Simulator) buyUpgrade(ctx context.Context) error {
	if !Chance(s.rnd, s.config.ShopProbability) {
		return nil
	}

	var best *game.UpgradeOffer
	for _, offer := range s.svc.State().Upgrades {
		if !offer.Affordable {
			continue
		}
		if best == nil || offer.Cost < best.Cost {
			best = &offer
		}
	}
	if best == nil {
		return nil
	}

	cost, err := s.svc.PurchaseUpgrade(ctx, best.Category)
	if err != nil {
		return fmt.Errorf("purchase %s: %s", best.Category, err)
	}
	s.numUpgrades++
	s.logger.Debug("bought upgrade", "category", best.Category, "cost", cost)
	return nil
}
