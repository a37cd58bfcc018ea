package shop

import (
	"fmt"
	"math"

	"github.com/tifye/bungeoppang/assert"
)

type Phase uint8

const (
	NotStarted Phase = iota
	Running
	Ended
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "NOT_STARTED"
	case Running:
		return "RUNNING"
	case Ended:
		return "ENDED"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Summary is the immutable result of a finished day.
type Summary struct {
	Revenue                int             `json:"revenue"`
	Goal                   int             `json:"goal"`
	Success                bool            `json:"success"`
	UnitsSold              int             `json:"unitsSold"`
	CustomersServed        int             `json:"customersServed"`
	CustomersLost          int             `json:"customersLost"`
	AvgSatisfactionPercent int             `json:"avgSatisfactionPercent"`
	MostPopularFilling     Filling         `json:"mostPopularFilling,omitempty"`
	FillingsSold           map[Filling]int `json:"fillingsSold"`
}

// Day owns the countdown and the running totals of one day.
type Day struct {
	phase         Phase
	timeRemaining int
	goal          int
	pricePerUnit  int

	revenue         int
	unitsSold       int
	served          int
	lost            int
	satisfactionSum float64
	fillingsSold    [len(fillingNames)]int
}

func NewDay() *Day {
	return &Day{}
}

// Start resets all totals and begins the countdown.
func (d *Day) Start(durationSec, goal, pricePerUnit int) {
	assert.Assert(durationSec > 0, "day duration must be positive")
	assert.AssertNonNegative(goal, "goal")
	assert.AssertNonNegative(pricePerUnit, "price per unit")
	*d = Day{
		phase:         Running,
		timeRemaining: durationSec,
		goal:          goal,
		pricePerUnit:  pricePerUnit,
	}
}

func (d *Day) Phase() Phase         { return d.phase }
func (d *Day) TimeRemaining() int   { return d.timeRemaining }
func (d *Day) Revenue() int         { return d.revenue }
func (d *Day) Goal() int            { return d.goal }
func (d *Day) PricePerUnit() int    { return d.pricePerUnit }
func (d *Day) CustomersServed() int { return d.served }

// Tick1Hz counts down one second. It reports true on the tick that ends the
// day.
func (d *Day) Tick1Hz() bool {
	if d.phase != Running {
		return false
	}
	d.timeRemaining--
	if d.timeRemaining > 0 {
		return false
	}
	d.timeRemaining = 0
	d.phase = Ended
	return true
}

// Record adds a committed sale to the totals.
func (d *Day) Record(s Sale) {
	assert.Assert(d.phase == Running, "sale recorded outside a running day")
	d.revenue += s.Total()
	d.unitsSold += s.Units
	d.served++
	d.satisfactionSum += s.Satisfaction
	for f, q := range s.Order {
		d.fillingsSold[f] += q
	}
}

func (d *Day) RecordLost(n int) {
	d.lost += n
}

func (d *Day) Summary() Summary {
	s := Summary{
		Revenue:         d.revenue,
		Goal:            d.goal,
		Success:         d.revenue >= d.goal,
		UnitsSold:       d.unitsSold,
		CustomersServed: d.served,
		CustomersLost:   d.lost,
		FillingsSold:    map[Filling]int{},
	}
	if d.served > 0 {
		s.AvgSatisfactionPercent = int(math.Round(d.satisfactionSum / float64(d.served) * 100))
	}

	best := 0
	for _, f := range Fillings {
		n := d.fillingsSold[f]
		if n == 0 {
			continue
		}
		s.FillingsSold[f] = n
		if n > best {
			best = n
			s.MostPopularFilling = f
		}
	}
	return s
}
