package shop

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 16 * time.Millisecond

func newTestShop(t *testing.T, cfg Config) *Shop {
	t.Helper()
	s, err := New(log.New(io.Discard), cfg, SeededRand(1))
	require.NoError(t, err)
	return s
}

// quietConfig never spawns customers on its own after the first frame.
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.SpawnMinInterval = 24 * time.Hour
	cfg.SpawnMaxInterval = 24 * time.Hour
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MoldCount = 0
	_, err := New(log.New(io.Discard), cfg, SeededRand(1))
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Bonus = &Bonus{Filling: NoFilling, Multiplier: 1.5}
	_, err = New(log.New(io.Discard), cfg, SeededRand(1))
	assert.Error(t, err)
}

func TestShopIgnoresInputBeforeStart(t *testing.T) {
	s := newTestShop(t, DefaultConfig())
	assert.False(t, s.Load(0, RedBean))
	assert.False(t, s.Collect(0))
	assert.Zero(t, s.CleanAll())
	s.Frame(epoch)
	assert.Empty(t, s.View().Customers)
	_, ended := s.Second()
	assert.False(t, ended)
}

func TestShopFirstFrameSpawnsCustomer(t *testing.T) {
	s := newTestShop(t, quietConfig())
	s.Start(90, 5000, 500)

	var arrivals []Customer
	s.AddCustomerHook(func(c Customer, arrived bool) {
		if arrived {
			arrivals = append(arrivals, c)
		}
	})

	s.Frame(epoch)
	s.Frame(epoch.Add(frame))
	assert.Len(t, arrivals, 1)
	assert.Len(t, s.View().Customers, 1)
}

func TestShopCookAndServe(t *testing.T) {
	cfg := quietConfig()
	cfg.ServingDelay = 100 * time.Millisecond
	s := newTestShop(t, cfg)
	s.Start(90, 5000, 500)

	var sales []Sale
	s.AddSaleHook(func(sale Sale) { sales = append(sales, sale) })

	now := epoch
	s.Frame(now)
	require.Len(t, s.queue.customers, 1)
	s.queue.customers[0].Order = Order{RedBean: 1}

	require.True(t, s.Load(0, RedBean))
	for range 80 {
		now = now.Add(frame)
		s.Frame(now)
	}
	slot, _ := s.station.Slot(0)
	require.Equal(t, Ready, slot.State)
	require.True(t, s.Collect(0))

	for range 10 {
		now = now.Add(frame)
		s.Frame(now)
	}
	require.Len(t, sales, 1)
	assert.Equal(t, 1, sales[0].Units)
	assert.Equal(t, 500+100, s.View().Revenue)
	assert.Empty(t, s.View().Customers)
	assert.Empty(t, s.View().Plate)
}

func TestShopDropsStutterFrames(t *testing.T) {
	s := newTestShop(t, quietConfig())
	s.Start(90, 5000, 500)

	s.Frame(epoch)
	require.True(t, s.Load(0, RedBean))
	patience := s.queue.customers[0].Patience

	s.Frame(epoch.Add(5 * time.Second))
	slot, _ := s.station.Slot(0)
	assert.Equal(t, Cooking, slot.State)
	assert.Equal(t, 1200*time.Millisecond, slot.Remaining)
	assert.Equal(t, patience, s.queue.customers[0].Patience)

	s.Frame(epoch.Add(5*time.Second + 99*time.Millisecond))
	slot, _ = s.station.Slot(0)
	assert.Equal(t, 1101*time.Millisecond, slot.Remaining)
	assert.Equal(t, patience-99*time.Millisecond, s.queue.customers[0].Patience)

	s.Frame(epoch.Add(5*time.Second + 199*time.Millisecond))
	slot, _ = s.station.Slot(0)
	assert.Equal(t, 1101*time.Millisecond, slot.Remaining, "a delta of exactly 100ms is dropped")
}

func TestShopCleanAllKeepsPlate(t *testing.T) {
	s := newTestShop(t, quietConfig())
	s.Start(90, 5000, 500)
	s.Frame(epoch)
	s.queue.customers = s.queue.customers[:0]

	s.plate.Add(Pizza, 2)
	s.Load(0, RedBean)
	s.Load(1, Honey)

	var cleared []SlotTransition
	s.AddSlotHook(func(tr SlotTransition) { cleared = append(cleared, tr) })

	assert.Equal(t, 2, s.CleanAll())
	assert.Len(t, cleared, 2)
	assert.Equal(t, map[Filling]int{Pizza: 2}, s.View().Plate)
	for _, slot := range s.View().Slots {
		assert.Equal(t, Empty, slot.State)
	}
}

func TestShopDayEndDropsPendingServe(t *testing.T) {
	cfg := quietConfig()
	cfg.ServingDelay = time.Second
	s := newTestShop(t, cfg)
	s.Start(1, 100, 500)

	s.Frame(epoch)
	s.queue.customers[0].Order = Order{RedBean: 1}
	s.plate.Add(RedBean, 1)
	s.Frame(epoch.Add(frame))
	_, serving := s.matcher.Serving()
	require.True(t, serving)

	var ended []Summary
	s.AddDayEndHook(func(sum Summary) { ended = append(ended, sum) })

	sum, ok := s.Second()
	require.True(t, ok)
	assert.Equal(t, 0, sum.Revenue)
	assert.False(t, sum.Success)
	assert.Len(t, ended, 1)
	assert.Zero(t, sum.CustomersLost, "dropped serve is not a lost customer")
	_, serving = s.matcher.Serving()
	assert.False(t, serving)

	s.Frame(epoch.Add(2 * time.Second))
	assert.Equal(t, 0, s.View().Revenue, "no commits after close")
	assert.Equal(t, 1, s.View().Plate[RedBean])
	assert.False(t, s.Load(0, RedBean))
}

func TestShopAutoBake(t *testing.T) {
	cfg := quietConfig()
	cfg.AutoBake = true
	s := newTestShop(t, cfg)
	s.Start(90, 5000, 500)

	s.Frame(epoch)
	for _, slot := range s.View().Slots {
		assert.Equal(t, Cooking, slot.State)
		assert.Equal(t, RedBean, slot.Filling)
	}
}

func TestShopAutoCollect(t *testing.T) {
	cfg := quietConfig()
	cfg.CookDuration = 50 * time.Millisecond
	cfg.AutoCollectInterval = 80 * time.Millisecond
	s := newTestShop(t, cfg)
	s.Start(90, 5000, 500)
	s.queue.capacity = 1

	now := epoch
	s.Frame(now)
	s.queue.customers[0].Order = Order{Honey: 9}
	s.Load(0, Chocolate)

	for range 6 {
		now = now.Add(frame)
		s.Frame(now)
	}
	assert.Equal(t, 1, s.View().Plate[Chocolate])
	slot, _ := s.station.Slot(0)
	assert.Equal(t, Empty, slot.State)
}

func TestShopViewIsCopy(t *testing.T) {
	s := newTestShop(t, quietConfig())
	s.Start(90, 5000, 500)
	s.Frame(epoch)
	s.plate.Add(RedBean, 1)

	v := s.View()
	v.Plate[RedBean] = 50
	v.Customers[0].Order[Pizza] = 50
	v.Slots[0].State = Burnt

	v2 := s.View()
	assert.Equal(t, 1, v2.Plate[RedBean])
	assert.Zero(t, v2.Customers[0].Order[Pizza])
	assert.Equal(t, Empty, v2.Slots[0].State)
}

func TestShopScenarioTwoIdenticalOrders(t *testing.T) {
	cfg := quietConfig()
	cfg.ServingDelay = 0
	s := newTestShop(t, cfg)
	s.Start(90, 5000, 500)
	s.Frame(epoch)
	s.queue.customers = s.queue.customers[:0]

	first := enqueue(s.queue, Order{Chocolate: 1})
	second := enqueue(s.queue, Order{Chocolate: 1})

	var served []uint64
	s.AddSaleHook(func(sale Sale) { served = append(served, sale.CustomerID) })

	s.plate.Add(Chocolate, 1)
	s.Frame(epoch.Add(frame))
	s.plate.Add(Chocolate, 1)
	s.Frame(epoch.Add(2 * frame))

	assert.Equal(t, []uint64{first.ID, second.ID}, served)
}
