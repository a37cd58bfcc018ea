package stream

import (
	"encoding/json"
	"fmt"

	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/shop"
)

// Player is the set of in-day actions a connected player may issue.
type Player interface {
	Load(slotID int, f shop.Filling) bool
	Collect(slotID int) bool
	CleanAll() int
}

type loadAction struct {
	Slot    int          `json:"slot"`
	Filling shop.Filling `json:"filling"`
}

type collectAction struct {
	Slot int `json:"slot"`
}

// Ack answers every action so the client can tell ignored input apart from
// accepted input.
type Ack struct {
	Action  string `json:"action"`
	OK      bool   `json:"ok"`
	Cleared int    `json:"cleared,omitempty"`
}

func RegisterActions(m *Mux, p Player) {
	assert.AssertNotNil(m)
	assert.AssertNotNil(p)

	m.RegisterHandler("load", func(id ID, payload json.RawMessage) error {
		var a loadAction
		if err := json.Unmarshal(payload, &a); err != nil {
			return fmt.Errorf("decode load: %s", err)
		}
		if !a.Filling.Valid() {
			return fmt.Errorf("invalid filling %q", a.Filling)
		}
		return m.Send(id, "ack", Ack{Action: "load", OK: p.Load(a.Slot, a.Filling)})
	})

	m.RegisterHandler("collect", func(id ID, payload json.RawMessage) error {
		var a collectAction
		if err := json.Unmarshal(payload, &a); err != nil {
			return fmt.Errorf("decode collect: %s", err)
		}
		return m.Send(id, "ack", Ack{Action: "collect", OK: p.Collect(a.Slot)})
	})

	m.RegisterHandler("clean", func(id ID, _ json.RawMessage) error {
		n := p.CleanAll()
		return m.Send(id, "ack", Ack{Action: "clean", OK: n > 0, Cleared: n})
	})
}
