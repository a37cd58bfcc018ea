package shop

import (
	"math"
	"slices"
	"time"

	"github.com/tifye/bungeoppang/assert"
)

// Sale is a committed serve.
type Sale struct {
	CustomerID   uint64  `json:"customerId"`
	Order        Order   `json:"order"`
	Units        int     `json:"units"`
	Earnings     int     `json:"earnings"`
	Tip          int     `json:"tip"`
	Satisfaction float64 `json:"satisfaction"`
}

func (s Sale) Total() int {
	return s.Earnings + s.Tip
}

type CancelReason uint8

const (
	// CustomerGone means the customer left the queue before the serve
	// committed.
	CustomerGone CancelReason = iota + 1
	// CustomerExpired means the customer's patience ran out during the
	// serving delay.
	CustomerExpired
	// PlateShort means the plate no longer covered the order at commit.
	PlateShort
	// DayOver means the day ended before the serve committed.
	DayOver
)

func (r CancelReason) String() string {
	switch r {
	case CustomerGone:
		return "customer gone"
	case CustomerExpired:
		return "customer expired"
	case PlateShort:
		return "plate short"
	case DayOver:
		return "day over"
	default:
		return "unknown"
	}
}

// MatchResult reports what a matcher step did.
type MatchResult struct {
	Started   uint64
	Committed *Sale
	Cancelled uint64
	Reason    CancelReason
	Lost      []Customer
}

type pendingServe struct {
	customerID uint64
	order      Order
	remaining  time.Duration
}

// Matcher pairs plate contents with waiting customers. At most one serve
// is in flight; it commits after the serving delay.
type Matcher struct {
	delay     time.Duration
	unitPrice int
	bonus     *Bonus

	pending *pendingServe
}

func NewMatcher(delay time.Duration, unitPrice int, bonus *Bonus) *Matcher {
	assert.Assert(delay >= 0, "serving delay must not be negative")
	assert.AssertNonNegative(unitPrice, "unit price")
	return &Matcher{
		delay:     delay,
		unitPrice: unitPrice,
		bonus:     bonus,
	}
}

// Serving returns the customer whose serve is in flight.
func (m *Matcher) Serving() (uint64, bool) {
	if m.pending == nil {
		return 0, false
	}
	return m.pending.customerID, true
}

// Step advances an in-flight serve by elapsed, evicts customers who ran out
// of patience, and starts a new serve for the earliest waiting customer the
// plate covers.
func (m *Matcher) Step(elapsed time.Duration, q *Queue, inv *Inventory, day *Day) MatchResult {
	assert.AssertNotNil(q)
	assert.AssertNotNil(inv)
	assert.AssertNotNil(day)

	var res MatchResult
	if m.pending != nil {
		m.pending.remaining -= max(0, elapsed)
		if m.pending.remaining <= 0 {
			m.resolve(q, inv, day, &res)
		}
	}

	res.Lost = q.Evict()

	if m.pending == nil {
		m.match(q, inv, day, &res)
	}
	return res
}

// Drop abandons the in-flight serve at day end. The plate and queue are
// left as they are.
func (m *Matcher) Drop() MatchResult {
	if m.pending == nil {
		return MatchResult{}
	}
	id := m.pending.customerID
	m.pending = nil
	return MatchResult{Cancelled: id, Reason: DayOver}
}

func (m *Matcher) match(q *Queue, inv *Inventory, day *Day, res *MatchResult) {
	i := slices.IndexFunc(q.customers, func(c Customer) bool {
		return c.Waiting() && inv.Covers(c.Order)
	})
	if i < 0 {
		return
	}

	c := q.customers[i]
	m.pending = &pendingServe{
		customerID: c.ID,
		order:      c.Order.clone(),
		remaining:  m.delay,
	}
	res.Started = c.ID

	if m.delay <= 0 {
		m.resolve(q, inv, day, res)
	}
}

func (m *Matcher) resolve(q *Queue, inv *Inventory, day *Day, res *MatchResult) {
	p := m.pending
	m.pending = nil

	c, ok := q.Customer(p.customerID)
	switch {
	case !ok:
		res.Cancelled, res.Reason = p.customerID, CustomerGone
		return
	case !c.Waiting():
		res.Cancelled, res.Reason = p.customerID, CustomerExpired
		return
	case !inv.Take(c.Order):
		res.Cancelled, res.Reason = p.customerID, PlateShort
		return
	}

	q.Remove(c.ID)
	earnings := Price(c.Order, m.unitPrice, m.bonus)
	sale := Sale{
		CustomerID:   c.ID,
		Order:        c.Order,
		Units:        c.Order.Units(),
		Earnings:     earnings,
		Tip:          Tip(earnings, c.Satisfaction()),
		Satisfaction: c.Satisfaction(),
	}
	day.Record(sale)
	res.Committed = &sale
}

// Price is the revenue of an order before tip. Units of the bonus filling
// earn the bonus multiplier, rounded down per filling.
func Price(o Order, unitPrice int, bonus *Bonus) int {
	total := 0
	for f, q := range o {
		line := q * unitPrice
		if bonus != nil && bonus.Filling == f {
			line = int(math.Floor(float64(line) * bonus.Multiplier))
		}
		total += line
	}
	return total
}

// Tip is 20% of earnings above 80% satisfaction, 10% above 50%, else
// nothing. Rounded down.
func Tip(earnings int, satisfaction float64) int {
	switch {
	case satisfaction > 0.8:
		return earnings / 5
	case satisfaction > 0.5:
		return earnings / 10
	default:
		return 0
	}
}
