package shop

import (
	"sync"
)

// SlotHooks get called when a slot changes state on its own or through a
// player action.
type SlotHook func(t SlotTransition)

// CustomerHooks get called when a customer arrives or leaves.
//
// arrived is false when the customer left, either served or out of
// patience.
type CustomerHook func(c Customer, arrived bool)

type SaleHook func(s Sale)

// DayEndHooks are called once, with the summary of the day that just ended.
type DayEndHook func(s Summary)

type hooks struct {
	slot     []SlotHook
	customer []CustomerHook
	sale     []SaleHook
	dayEnd   []DayEndHook
	mu       sync.RWMutex
}

func newHooks() *hooks {
	return &hooks{
		slot:     []SlotHook{},
		customer: []CustomerHook{},
		sale:     []SaleHook{},
		dayEnd:   []DayEndHook{},
	}
}

func (h *hooks) runSlotHooks(t SlotTransition) {
	h.mu.RLock()
	funcs := make([]SlotHook, len(h.slot))
	copy(funcs, h.slot)
	h.mu.RUnlock()

	for _, f := range funcs {
		f(t)
	}
}
func (h *hooks) AddSlotHook(f SlotHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.slot = append(h.slot, f)
}

func (h *hooks) runCustomerHooks(c Customer, arrived bool) {
	h.mu.RLock()
	funcs := make([]CustomerHook, len(h.customer))
	copy(funcs, h.customer)
	h.mu.RUnlock()

	for _, f := range funcs {
		f(c, arrived)
	}
}
func (h *hooks) AddCustomerHook(f CustomerHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.customer = append(h.customer, f)
}

func (h *hooks) runSaleHooks(s Sale) {
	h.mu.RLock()
	funcs := make([]SaleHook, len(h.sale))
	copy(funcs, h.sale)
	h.mu.RUnlock()

	for _, f := range funcs {
		f(s)
	}
}
func (h *hooks) AddSaleHook(f SaleHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sale = append(h.sale, f)
}

func (h *hooks) runDayEndHooks(s Summary) {
	h.mu.RLock()
	funcs := make([]DayEndHook, len(h.dayEnd))
	copy(funcs, h.dayEnd)
	h.mu.RUnlock()

	for _, f := range funcs {
		f(s)
	}
}
func (h *hooks) AddDayEndHook(f DayEndHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dayEnd = append(h.dayEnd, f)
}
