package shop

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tifye/bungeoppang/assert"
)

// Shop is the simulation context for one day. It owns every component and
// is driven by Frame at render rate and Second at 1 Hz. It is not safe for
// concurrent use; the host serializes all calls.
type Shop struct {
	*hooks
	logger *log.Logger
	cfg    Config

	station *Station
	queue   *Queue
	plate   Inventory
	matcher *Matcher
	day     *Day

	lastFrame    time.Time
	framed       bool
	sinceCollect time.Duration
}

func New(logger *log.Logger, cfg Config, rnd *rand.Rand) (*Shop, error) {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(rnd)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("shop config: %s", err)
	}

	return &Shop{
		hooks:   newHooks(),
		logger:  logger,
		cfg:     cfg,
		station: NewStation(cfg.MoldCount, cfg.CookDuration, cfg.BurnDuration),
		queue:   NewQueue(rnd, cfg.PatienceDuration, cfg.SpawnMinInterval, cfg.SpawnMaxInterval, cfg.MaxCustomers),
		day:     NewDay(),
	}, nil
}

// Start opens the shop for a day. A shop runs exactly one day.
func (s *Shop) Start(durationSec, goal, pricePerUnit int) {
	assert.Assert(s.day.Phase() == NotStarted, "shop already started")
	s.day.Start(durationSec, goal, pricePerUnit)
	s.matcher = NewMatcher(s.cfg.ServingDelay, pricePerUnit+s.cfg.CrustBonus, s.cfg.Bonus)
	s.logger.Debug("day started", "duration", durationSec, "goal", goal, "price", pricePerUnit, "molds", s.cfg.MoldCount)
}

func (s *Shop) Phase() Phase {
	return s.day.Phase()
}

func (s *Shop) Config() Config {
	return s.cfg
}

// Frame advances the simulation to at. The first frame only records the
// timestamp. Deltas outside (0, MaxFrameDelta) do not move cooking or
// patience timers, but a pending serve still counts the elapsed time.
func (s *Shop) Frame(at time.Time) MatchResult {
	if s.day.Phase() != Running {
		return MatchResult{}
	}

	var delta time.Duration
	if s.framed {
		delta = at.Sub(s.lastFrame)
	}
	s.lastFrame = at
	s.framed = true

	step := delta
	if step <= 0 || step >= MaxFrameDelta {
		if step != 0 {
			s.logger.Debug("frame delta dropped", "delta", delta)
		}
		step = 0
	}

	for _, t := range s.station.Advance(step) {
		s.runSlotHooks(t)
	}
	s.queue.Advance(step)
	s.autoCollect(step)
	s.autoBake()

	if c, ok := s.queue.TrySpawn(at); ok {
		s.logger.Debug("customer arrived", "id", c.ID, "units", c.Order.Units())
		s.runCustomerHooks(c, true)
	}

	res := s.matcher.Step(max(0, delta), s.queue, &s.plate, s.day)
	s.report(res)
	return res
}

// Second counts the day down by one second. When the day ends any pending
// serve is dropped and the summary is returned.
func (s *Shop) Second() (Summary, bool) {
	if !s.day.Tick1Hz() {
		return Summary{}, false
	}

	s.report(s.matcher.Drop())
	summary := s.day.Summary()
	s.logger.Info("day ended", "revenue", summary.Revenue, "goal", summary.Goal, "success", summary.Success)
	s.runDayEndHooks(summary)
	return summary, true
}

// Summary of the day so far.
func (s *Shop) Summary() Summary {
	return s.day.Summary()
}

func (s *Shop) Load(slotID int, f Filling) bool {
	if s.day.Phase() != Running {
		return false
	}
	if !s.station.Load(slotID, f) {
		return false
	}
	s.runSlotHooks(SlotTransition{SlotID: slotID, Filling: f, From: Empty, To: Cooking})
	return true
}

func (s *Shop) Collect(slotID int) bool {
	if s.day.Phase() != Running {
		return false
	}
	before, ok := s.station.Slot(slotID)
	if !ok {
		return false
	}
	if _, ok := s.station.Collect(slotID, &s.plate); !ok {
		return false
	}
	s.runSlotHooks(SlotTransition{SlotID: slotID, Filling: before.Filling, From: before.State, To: Empty})
	return true
}

// CleanAll empties every slot. Nothing reaches the plate.
func (s *Shop) CleanAll() int {
	if s.day.Phase() != Running {
		return 0
	}
	before := s.station.Slots()
	n := s.station.CleanAll()
	for _, slot := range before {
		if slot.State != Empty {
			s.runSlotHooks(SlotTransition{SlotID: slot.ID, Filling: slot.Filling, From: slot.State, To: Empty})
		}
	}
	return n
}

func (s *Shop) autoBake() {
	if !s.cfg.AutoBake {
		return
	}
	for _, id := range s.station.EmptySlots() {
		if s.station.Load(id, RedBean) {
			s.runSlotHooks(SlotTransition{SlotID: id, Filling: RedBean, From: Empty, To: Cooking})
		}
	}
}

func (s *Shop) autoCollect(step time.Duration) {
	if s.cfg.AutoCollectInterval <= 0 {
		return
	}
	s.sinceCollect += step
	if s.sinceCollect < s.cfg.AutoCollectInterval {
		return
	}
	s.sinceCollect = 0
	for _, slot := range s.station.Slots() {
		if slot.State != Ready {
			continue
		}
		if _, ok := s.station.Collect(slot.ID, &s.plate); ok {
			s.runSlotHooks(SlotTransition{SlotID: slot.ID, Filling: slot.Filling, From: Ready, To: Empty})
		}
	}
}

func (s *Shop) report(res MatchResult) {
	for _, c := range res.Lost {
		s.logger.Debug("customer left", "id", c.ID)
		s.runCustomerHooks(c, false)
	}
	s.day.RecordLost(len(res.Lost))

	if res.Started != 0 {
		s.logger.Debug("serving", "customer", res.Started)
	}
	if res.Cancelled != 0 {
		s.logger.Debug("serve cancelled", "customer", res.Cancelled, "reason", res.Reason)
	}
	if res.Committed != nil {
		sale := *res.Committed
		s.logger.Debug("sale", "customer", sale.CustomerID, "units", sale.Units, "earnings", sale.Earnings, "tip", sale.Tip)
		s.runSaleHooks(sale)
		s.runCustomerHooks(Customer{ID: sale.CustomerID, Order: sale.Order}, false)
	}
}
