package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/economy"
	"github.com/tifye/bungeoppang/progress"
	"github.com/tifye/bungeoppang/shop"
	"github.com/tifye/bungeoppang/storage"
)

var ErrWrongPhase = errors.New("not allowed in the current phase")

type Phase uint8

const (
	Idle Phase = iota
	Playing
	DayEnd
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "IDLE"
	case Playing:
		return "PLAYING"
	case DayEnd:
		return "DAY_END"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Store persists progress between days.
type Store interface {
	LoadSnapshot(ctx context.Context, slot string) (progress.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, slot string, snap progress.Snapshot) error
	DeleteSlot(ctx context.Context, slot string) error
	AppendSummary(ctx context.Context, slot string, day int, sum shop.Summary) (storage.DayRecord, error)
}

// EventSink receives shop events while a day is played. It is called with
// the service lock held and must not call back into the service.
type EventSink func(kind string, payload any)

type DayOptions struct {
	DurationSec   int     `json:"durationSec"`
	PriceModifier float64 `json:"priceModifier"`
}

type UpgradeOffer struct {
	Category   economy.Category `json:"category"`
	Level      int              `json:"level"`
	MaxLevel   int              `json:"maxLevel"`
	Effect     int              `json:"effect"`
	Cost       int              `json:"cost"`
	Available  bool             `json:"available"`
	Affordable bool             `json:"affordable"`
}

// State is a deep copy of the service for rendering.
type State struct {
	Phase       Phase                `json:"phase"`
	Progress    progress.Snapshot    `json:"progress"`
	Goal        int                  `json:"goal"`
	Special     economy.DailySpecial `json:"special"`
	Upgrades    []UpgradeOffer       `json:"upgrades"`
	Shop        *shop.View           `json:"shop,omitempty"`
	LastSummary *shop.Summary        `json:"lastSummary,omitempty"`
}

type Service struct {
	mu     sync.Mutex
	logger *log.Logger
	store  Store
	slot   string
	rnd    *rand.Rand
	sink   EventSink

	snap   progress.Snapshot
	phase  Phase
	shop   *shop.Shop
	active economy.DailySpecial
	last   *shop.Summary
}

func NewService(logger *log.Logger, store Store, slot string, rnd *rand.Rand) *Service {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(store)
	assert.AssertNotNil(rnd)
	assert.AssertNotEmpty(slot)
	return &Service{
		logger: logger,
		store:  store,
		slot:   slot,
		rnd:    rnd,
		snap:   progress.New(),
		phase:  Idle,
	}
}

// SetEventSink replaces the sink used for days started afterwards.
func (s *Service) SetEventSink(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Restore reads the saved snapshot of the service's slot. A missing save
// starts a fresh game.
func (s *Service) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Idle {
		return ErrWrongPhase
	}

	snap, found, err := s.store.LoadSnapshot(ctx, s.slot)
	if err != nil {
		return fmt.Errorf("load snapshot: %s", err)
	}
	if !found {
		s.logger.Info("no save found, starting fresh", "slot", s.slot)
		s.snap = progress.New()
		return nil
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %s", err)
	}
	s.snap = snap
	s.logger.Info("restored save", "slot", s.slot, "day", snap.CurrentDay, "revenue", snap.CumulativeRevenue)
	return nil
}

func (s *Service) StartDay(opts DayOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Idle {
		return ErrWrongPhase
	}

	special := s.snap.Special()
	cfg := s.snap.Upgrades.Config()
	cfg.Bonus = special.Bonus()

	sh, err := shop.New(s.logger.WithPrefix("shop"), cfg, s.rnd)
	if err != nil {
		return fmt.Errorf("new shop: %s", err)
	}
	s.wire(sh)

	duration := economy.DaySeconds(opts.DurationSec)
	modifier := opts.PriceModifier
	if modifier == 0 {
		modifier = economy.DefaultPriceModifier
	}
	price := economy.PricePerUnit(modifier)
	sh.Start(duration, s.snap.Goal(), price)

	s.shop = sh
	s.active = special
	s.last = nil
	s.phase = Playing
	s.logger.Info("day started",
		"day", s.snap.CurrentDay,
		"goal", s.snap.Goal(),
		"durationSec", duration,
		"price", price,
		"special", special.Kind)
	return nil
}

func (s *Service) wire(sh *shop.Shop) {
	sink := s.sink
	if sink == nil {
		return
	}
	sh.AddSaleHook(func(sale shop.Sale) { sink("sale", sale) })
	sh.AddCustomerHook(func(c shop.Customer, arrived bool) {
		if arrived {
			sink("customerArrived", c.ID)
		} else {
			sink("customerLeft", c.ID)
		}
	})
	sh.AddDayEndHook(func(sum shop.Summary) { sink("dayEnd", sum) })
}

// Frame advances the running day to now.
func (s *Service) Frame(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Playing {
		return
	}
	s.shop.Frame(now)
}

// Second ticks the countdown. When the day ends the summary is persisted
// and returned.
func (s *Service) Second(ctx context.Context) (shop.Summary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Playing {
		return shop.Summary{}, false, nil
	}

	sum, ended := s.shop.Second()
	if !ended {
		return shop.Summary{}, false, nil
	}

	day := s.snap.CurrentDay
	s.snap = progress.ApplyDayEnd(s.snap, sum)
	s.last = &sum
	s.phase = DayEnd
	s.logger.Info("day ended",
		"day", day,
		"revenue", sum.Revenue,
		"goal", sum.Goal,
		"success", sum.Success)

	if _, err := s.store.AppendSummary(ctx, s.slot, day, sum); err != nil {
		return sum, true, fmt.Errorf("append summary: %s", err)
	}
	if err := s.store.SaveSnapshot(ctx, s.slot, s.snap); err != nil {
		return sum, true, fmt.Errorf("save snapshot: %s", err)
	}
	return sum, true, nil
}

// FinishDay leaves the day end screen. The bonus is only paid after a
// successful day.
func (s *Service) FinishDay(ctx context.Context, bonus int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != DayEnd {
		return ErrWrongPhase
	}

	s.phase = Idle
	s.shop = nil
	if s.last == nil || !s.last.Success || bonus <= 0 {
		return nil
	}

	s.snap = progress.ApplyBonus(s.snap, bonus)
	s.logger.Info("bonus paid", "amount", bonus, "revenue", s.snap.CumulativeRevenue)
	if err := s.store.SaveSnapshot(ctx, s.slot, s.snap); err != nil {
		return fmt.Errorf("save snapshot: %s", err)
	}
	return nil
}

func (s *Service) PurchaseUpgrade(ctx context.Context, c economy.Category) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Idle {
		return 0, ErrWrongPhase
	}

	special := s.snap.Special()
	next, cost, err := progress.Purchase(s.snap, c, &special)
	if err != nil {
		return cost, err
	}
	if err := s.store.SaveSnapshot(ctx, s.slot, next); err != nil {
		return cost, fmt.Errorf("save snapshot: %s", err)
	}
	s.snap = next
	s.logger.Info("upgrade purchased", "category", c, "level", next.Upgrades.Of(c), "cost", cost)
	return cost, nil
}

// Reset wipes the slot and starts over from day 1. A day in progress is
// abandoned.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteSlot(ctx, s.slot); err != nil {
		return fmt.Errorf("delete slot: %s", err)
	}
	s.snap = progress.New()
	s.phase = Idle
	s.shop = nil
	s.last = nil
	s.logger.Info("progress reset", "slot", s.slot)
	return nil
}

func (s *Service) Load(slotID int, f shop.Filling) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Playing {
		return false
	}
	return s.shop.Load(slotID, f)
}

func (s *Service) Collect(slotID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Playing {
		return false
	}
	return s.shop.Collect(slotID)
}

func (s *Service) CleanAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Playing {
		return 0
	}
	return s.shop.CleanAll()
}

func (s *Service) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Service) Snapshot() progress.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Phase:    s.phase,
		Progress: s.snap,
		Goal:     s.snap.Goal(),
		Special:  s.snap.Special(),
	}
	if s.phase == Playing {
		st.Special = s.active
	}
	if s.shop != nil {
		v := s.shop.View()
		st.Shop = &v
	}
	if s.last != nil {
		sum := *s.last
		sum.FillingsSold = make(map[shop.Filling]int, len(s.last.FillingsSold))
		for f, n := range s.last.FillingsSold {
			sum.FillingsSold[f] = n
		}
		st.LastSummary = &sum
	}

	special := st.Special
	for _, c := range economy.Categories {
		level := s.snap.Upgrades.Of(c)
		offer := UpgradeOffer{
			Category: c,
			Level:    level,
			MaxLevel: economy.MaxLevel(c),
			Effect:   economy.EffectFor(c, level),
		}
		offer.Cost, offer.Available = economy.UpgradeCost(c, level, &special)
		offer.Affordable = offer.Available && s.snap.CumulativeRevenue >= offer.Cost
		st.Upgrades = append(st.Upgrades, offer)
	}
	return st
}
