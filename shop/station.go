package shop

import (
	"fmt"
	"time"

	"github.com/tifye/bungeoppang/assert"
)

type SlotState uint8

const (
	Empty SlotState = iota
	Cooking
	Ready
	Burnt
)

func (s SlotState) String() string {
	switch s {
	case Empty:
		return "EMPTY"
	case Cooking:
		return "COOKING"
	case Ready:
		return "READY"
	case Burnt:
		return "BURNT"
	default:
		return fmt.Sprintf("SlotState(%d)", s)
	}
}

func (s SlotState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Slot is one mold on the grill.
//
// Filling is NoFilling exactly when State is Empty.
type Slot struct {
	ID        int
	State     SlotState
	Filling   Filling
	Remaining time.Duration
}

// SlotTransition describes a single slot changing state.
type SlotTransition struct {
	SlotID  int
	Filling Filling
	From    SlotState
	To      SlotState
}

// Station is the fixed set of molds. Invalid player actions are no-ops that
// report false.
type Station struct {
	slots []Slot
	cook  time.Duration
	burn  time.Duration
}

func NewStation(count int, cook, burn time.Duration) *Station {
	assert.Assert(count > 0, "station needs at least one slot")
	assert.Assert(cook > 0 && burn > 0, "cook and burn durations must be positive")
	slots := make([]Slot, count)
	for i := range slots {
		slots[i] = Slot{ID: i, State: Empty}
	}
	return &Station{
		slots: slots,
		cook:  cook,
		burn:  burn,
	}
}

func (s *Station) Len() int {
	return len(s.slots)
}

// Slot returns a copy of the slot with the given id.
func (s *Station) Slot(id int) (Slot, bool) {
	if id < 0 || id >= len(s.slots) {
		return Slot{}, false
	}
	return s.slots[id], true
}

func (s *Station) Slots() []Slot {
	slots := make([]Slot, len(s.slots))
	copy(slots, s.slots)
	return slots
}

// Advance moves every cooking or ready slot forward by delta. A slot makes
// at most one transition per call: leftover time after Cooking→Ready is not
// carried into the burn countdown.
func (s *Station) Advance(delta time.Duration) []SlotTransition {
	if delta <= 0 {
		return nil
	}

	var transitions []SlotTransition
	for i := range s.slots {
		slot := &s.slots[i]
		switch slot.State {
		case Cooking:
			slot.Remaining -= delta
			if slot.Remaining <= 0 {
				slot.State = Ready
				slot.Remaining = s.burn
				transitions = append(transitions, SlotTransition{slot.ID, slot.Filling, Cooking, Ready})
			}
		case Ready:
			slot.Remaining -= delta
			if slot.Remaining <= 0 {
				slot.State = Burnt
				slot.Remaining = 0
				transitions = append(transitions, SlotTransition{slot.ID, slot.Filling, Ready, Burnt})
			}
		}
	}
	return transitions
}

// Load starts cooking the filling in an empty slot.
func (s *Station) Load(id int, f Filling) bool {
	if id < 0 || id >= len(s.slots) || !f.Valid() {
		return false
	}
	slot := &s.slots[id]
	if slot.State != Empty {
		return false
	}
	slot.State = Cooking
	slot.Filling = f
	slot.Remaining = s.cook
	return true
}

// Collect empties a ready or burnt slot. A ready slot's unit goes to the
// inventory; a burnt one is thrown away. The returned filling is the one
// credited, or NoFilling.
func (s *Station) Collect(id int, inv *Inventory) (Filling, bool) {
	assert.AssertNotNil(inv)
	if id < 0 || id >= len(s.slots) {
		return NoFilling, false
	}
	slot := &s.slots[id]
	switch slot.State {
	case Ready:
		f := slot.Filling
		inv.Add(f, 1)
		s.reset(slot)
		return f, true
	case Burnt:
		s.reset(slot)
		return NoFilling, true
	default:
		return NoFilling, false
	}
}

// CleanAll empties every slot without crediting the inventory.
func (s *Station) CleanAll() int {
	cleared := 0
	for i := range s.slots {
		if s.slots[i].State != Empty {
			cleared++
		}
		s.reset(&s.slots[i])
	}
	return cleared
}

// EmptySlots returns the ids of empty slots in ascending order.
func (s *Station) EmptySlots() []int {
	var ids []int
	for _, slot := range s.slots {
		if slot.State == Empty {
			ids = append(ids, slot.ID)
		}
	}
	return ids
}

func (s *Station) reset(slot *Slot) {
	slot.State = Empty
	slot.Filling = NoFilling
	slot.Remaining = 0
}
