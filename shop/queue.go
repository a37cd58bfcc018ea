package shop

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/tifye/bungeoppang/assert"
)

const maxOrderUnits = 3

type Customer struct {
	ID          uint64
	Order       Order
	Patience    time.Duration
	MaxPatience time.Duration
	ArrivedAt   time.Time
}

// Satisfaction is the fraction of patience left, in [0, 1].
func (c Customer) Satisfaction() float64 {
	if c.MaxPatience <= 0 {
		return 0
	}
	return float64(c.Patience) / float64(c.MaxPatience)
}

func (c Customer) Waiting() bool {
	return c.Patience > 0
}

func (c Customer) clone() Customer {
	c.Order = c.Order.clone()
	return c
}

// Queue holds waiting customers in arrival order.
type Queue struct {
	rnd *rand.Rand

	customers []Customer
	nextID    uint64
	nextSpawn time.Time
	spawned   bool

	patience    time.Duration
	minInterval time.Duration
	maxInterval time.Duration
	capacity    int
}

func NewQueue(rnd *rand.Rand, patience, minInterval, maxInterval time.Duration, capacity int) *Queue {
	assert.AssertNotNil(rnd)
	assert.Assert(patience > 0, "patience must be positive")
	assert.Assert(minInterval > 0 && maxInterval >= minInterval, "invalid spawn interval")
	assert.Assert(capacity > 0, "queue capacity must be positive")
	return &Queue{
		rnd:         rnd,
		customers:   []Customer{},
		nextID:      1,
		patience:    patience,
		minInterval: minInterval,
		maxInterval: maxInterval,
		capacity:    capacity,
	}
}

func (q *Queue) Len() int {
	return len(q.customers)
}

// Customers returns a deep copy of the queue in arrival order.
func (q *Queue) Customers() []Customer {
	out := make([]Customer, len(q.customers))
	for i, c := range q.customers {
		out[i] = c.clone()
	}
	return out
}

func (q *Queue) Customer(id uint64) (Customer, bool) {
	i := q.index(id)
	if i < 0 {
		return Customer{}, false
	}
	return q.customers[i].clone(), true
}

// Advance drains patience from every waiting customer, clamping at zero.
// Customers are not removed here; see Evict.
func (q *Queue) Advance(delta time.Duration) {
	if delta <= 0 {
		return
	}
	for i := range q.customers {
		q.customers[i].Patience = max(0, q.customers[i].Patience-delta)
	}
}

// NextSpawn is when TrySpawn will next consider adding a customer. The zero
// time means on the first call.
func (q *Queue) NextSpawn() time.Time {
	return q.nextSpawn
}

// TrySpawn adds a customer with a random order once the spawn time has been
// reached. The next spawn is scheduled whenever the spawn time passes, even
// when the queue is full and nobody is added.
func (q *Queue) TrySpawn(now time.Time) (Customer, bool) {
	if q.spawned && now.Before(q.nextSpawn) {
		return Customer{}, false
	}
	q.spawned = true
	q.nextSpawn = now.Add(q.spawnInterval())

	if len(q.customers) >= q.capacity {
		return Customer{}, false
	}

	c := Customer{
		ID:          q.nextID,
		Order:       q.randomOrder(),
		Patience:    q.patience,
		MaxPatience: q.patience,
		ArrivedAt:   now,
	}
	q.nextID++
	q.customers = append(q.customers, c)
	return c.clone(), true
}

// Remove takes the customer out of the queue.
func (q *Queue) Remove(id uint64) (Customer, bool) {
	i := q.index(id)
	if i < 0 {
		return Customer{}, false
	}
	c := q.customers[i]
	q.customers = slices.Delete(q.customers, i, i+1)
	return c, true
}

// Evict removes every customer who ran out of patience and returns them in
// arrival order.
func (q *Queue) Evict() []Customer {
	var gone []Customer
	q.customers = slices.DeleteFunc(q.customers, func(c Customer) bool {
		if c.Waiting() {
			return false
		}
		gone = append(gone, c)
		return true
	})
	return gone
}

func (q *Queue) index(id uint64) int {
	return slices.IndexFunc(q.customers, func(c Customer) bool {
		return c.ID == id
	})
}

func (q *Queue) spawnInterval() time.Duration {
	spread := q.maxInterval - q.minInterval
	if spread <= 0 {
		return q.minInterval
	}
	return q.minInterval + time.Duration(q.rnd.Int64N(int64(spread)))
}

// randomOrder picks one to three units, each of a random filling. Repeats
// add to the same filling's quantity.
func (q *Queue) randomOrder() Order {
	order := Order{}
	units := 1 + q.rnd.IntN(maxOrderUnits)
	for range units {
		f := Fillings[q.rnd.IntN(len(Fillings))]
		order[f]++
	}
	return order
}
