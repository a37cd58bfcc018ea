package stream

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tifye/bungeoppang/assert"
)

const (
	MessageSizeLimit = 65_535
	MessageTypeLen   = 16
)

type ID = uint32

type Handler func(id ID, payload json.RawMessage) error

// Mux fans shop frames out to connected players and routes their typed
// messages to handlers.
type Mux struct {
	logger *log.Logger
	rnd    *rand.Rand
	rndMu  sync.Mutex

	handlers        map[string]Handler
	disconnectHooks []func(id ID)
	connectHooks    []func(id ID, user *User)
	handlersMu      sync.RWMutex

	users   map[ID]*User
	usersMu sync.RWMutex
}

func NewMux(logger *log.Logger, rnd *rand.Rand) *Mux {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(rnd)
	return &Mux{
		logger:          logger,
		rnd:             rnd,
		users:           map[ID]*User{},
		handlers:        map[string]Handler{},
		connectHooks:    []func(id ID, user *User){},
		disconnectHooks: []func(id ID){},
	}
}

func (m *Mux) Connect(write func(id ID, data []byte)) ID {
	for {
		id := m.NewID()
		if m.tryConnect(id, write) {
			return id
		}
	}
}

// NewID draws a non-zero id that no connected player holds. It is not
// reserved; ConnectAs fails if someone else takes it first.
func (m *Mux) NewID() ID {
	for {
		m.rndMu.Lock()
		id := m.rnd.Uint32()
		m.rndMu.Unlock()

		if id != 0 && !m.IsConnected(id) {
			return id
		}
	}
}

func (m *Mux) IsConnected(id ID) bool {
	m.usersMu.RLock()
	defer m.usersMu.RUnlock()
	_, ok := m.users[id]
	return ok
}

// ConnectAs connects a player under a chosen id, such as the one a
// returning player held before.
func (m *Mux) ConnectAs(id ID, write func(id ID, data []byte)) error {
	if !m.tryConnect(id, write) {
		return fmt.Errorf("player id %d unavailable", id)
	}
	return nil
}

func (m *Mux) tryConnect(id ID, write func(id ID, data []byte)) bool {
	user := &User{
		id:     id,
		writer: write,
	}

	m.usersMu.Lock()
	if _, exists := m.users[id]; exists || id == 0 {
		m.usersMu.Unlock()
		return false
	}
	m.users[id] = user
	m.usersMu.Unlock()

	m.logger.Debug("player connected", "id", id)

	m.handlersMu.RLock()
	hooks := make([]func(ID, *User), len(m.connectHooks))
	copy(hooks, m.connectHooks)
	m.handlersMu.RUnlock()

	for _, hook := range hooks {
		assert.AssertNotNil(hook)
		hook(id, user)
	}
	return true
}

func (m *Mux) Disconnect(id ID) {
	m.usersMu.Lock()
	_, existed := m.users[id]
	delete(m.users, id)
	m.usersMu.Unlock()

	if !existed {
		return
	}
	m.logger.Debug("player disconnected", "id", id)

	m.handlersMu.RLock()
	hooks := make([]func(ID), len(m.disconnectHooks))
	copy(hooks, m.disconnectHooks)
	m.handlersMu.RUnlock()

	for _, hook := range hooks {
		assert.AssertNotNil(hook)
		hook(id)
	}
}

func (m *Mux) Connected() int {
	m.usersMu.RLock()
	defer m.usersMu.RUnlock()
	return len(m.users)
}

func (m *Mux) RegisterHandler(typ string, handler Handler) {
	assert.AssertNotNil(handler)
	assert.AssertNotEmpty(typ)
	assert.Assert(len(typ) <= MessageTypeLen, "message type too long")

	m.handlersMu.Lock()
	m.handlers[typ] = handler
	m.handlersMu.Unlock()
}

func (m *Mux) RegisterDisconnectHook(hook func(id ID)) {
	assert.AssertNotNil(hook)

	m.handlersMu.Lock()
	m.disconnectHooks = append(m.disconnectHooks, hook)
	m.handlersMu.Unlock()
}

func (m *Mux) RegisterConnectHook(hook func(id ID, user *User)) {
	assert.AssertNotNil(hook)

	m.handlersMu.Lock()
	m.connectHooks = append(m.connectHooks, hook)
	m.handlersMu.Unlock()
}

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UserMessage decodes a message from a player and runs its handler.
// Unknown types are logged and ignored.
func (m *Mux) UserMessage(id ID, data []byte) error {
	if len(data) >= MessageSizeLimit {
		return fmt.Errorf("message too big: %d", len(data))
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("unmarshal message: %s", err)
	}
	if len(msg.Type) > MessageTypeLen {
		return fmt.Errorf("message type too long, expect length of %d but got %d", MessageTypeLen, len(msg.Type))
	}

	m.logger.Debug("player message", "id", id, "type", msg.Type)

	m.handlersMu.RLock()
	handler, ok := m.handlers[msg.Type]
	m.handlersMu.RUnlock()
	if !ok {
		m.logger.Warnf("could not find handler for message type %s", msg.Type)
		return nil
	}

	if err := handler(id, msg.Payload); err != nil {
		return fmt.Errorf("handler[%s]: %s", msg.Type, err)
	}
	return nil
}

func encode(typ string, payload any) ([]byte, error) {
	assert.AssertNotEmpty(typ)
	assert.Assert(len(typ) <= MessageTypeLen, "message type too long")

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("json marshal payload: %s", err)
	}
	if len(raw) >= MessageSizeLimit {
		return nil, fmt.Errorf("message too big: %d", len(raw))
	}
	data, err := json.Marshal(Message{Type: typ, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("json marshal: %s", err)
	}
	return data, nil
}

func (m *Mux) Send(id ID, typ string, payload any) error {
	data, err := encode(typ, payload)
	if err != nil {
		return err
	}

	m.usersMu.RLock()
	user, ok := m.users[id]
	m.usersMu.RUnlock()
	if !ok {
		return fmt.Errorf("no player found with id %d", id)
	}

	user.write(data)
	return nil
}

// Broadcast sends to every player the filter accepts. A nil filter accepts
// everyone.
func (m *Mux) Broadcast(typ string, payload any, filter func(id ID) bool) error {
	data, err := encode(typ, payload)
	if err != nil {
		return err
	}

	if filter == nil {
		filter = func(ID) bool { return true }
	}

	m.usersMu.RLock()
	users := make([]*User, 0, len(m.users))
	for _, user := range m.users {
		if filter(user.id) {
			users = append(users, user)
		}
	}
	m.usersMu.RUnlock()

	for _, user := range users {
		user.write(data)
	}
	return nil
}

type User struct {
	id     ID
	writer func(id ID, data []byte)
}

func (u *User) ID() ID {
	return u.id
}

func (u *User) write(data []byte) {
	if u.writer != nil {
		u.writer(u.id, data)
	}
}
