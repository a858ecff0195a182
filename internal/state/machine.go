// Package state serializes every state transition of the exchange behind a
// single writer and makes each transition all-or-nothing.
//
// Mutating components record an undo closure for every write they perform;
// if the transaction body fails (or panics) the closures are replayed in
// reverse and buffered events are dropped.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/model"
)

// CommitHook observes the events of a committed transaction.
type CommitHook func(events []model.Event)

// Machine is the single-writer execution context shared by all components.
type Machine struct {
	mu sync.Mutex

	clock  func() time.Time
	logger *zap.Logger

	inTx   bool
	pinned bool
	now    uint64
	undo   []func()
	events []model.Event
	seq    uint64
	hooks  []CommitHook
}

// New builds a Machine. A nil clock defaults to time.Now.
func New(clock func() time.Time, logger *zap.Logger) *Machine {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{clock: clock, logger: logger}
}

// SetClock replaces the host clock. The replay runner sets it per operation.
func (m *Machine) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if clock == nil {
		clock = time.Now
	}
	m.clock = clock
}

// OnCommit registers a hook invoked, under the writer lock, after every
// successful transaction that emitted at least one event.
func (m *Machine) OnCommit(hook CommitHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Exec runs fn as one atomic transaction. fn must not call Exec or View.
func (m *Machine) Exec(fn func() error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inTx = true
	m.pinned = true
	m.now = uint64(m.clock().Unix())
	m.undo = m.undo[:0]
	m.events = m.events[:0]

	committed := false
	defer func() {
		if !committed {
			m.rollback()
		}
		m.inTx = false
		m.pinned = false
		if r := recover(); r != nil {
			panic(r)
		}
	}()

	if err = fn(); err != nil {
		return err
	}
	committed = true

	if len(m.events) > 0 {
		out := make([]model.Event, len(m.events))
		for i, ev := range m.events {
			m.seq++
			ev.Seq = m.seq
			out[i] = ev
		}
		for _, hook := range m.hooks {
			hook(out)
		}
	}
	m.undo = m.undo[:0]
	m.events = m.events[:0]
	return nil
}

// View runs a read-only fn under the writer lock.
func (m *Machine) View(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned = true
	m.now = uint64(m.clock().Unix())
	defer func() { m.pinned = false }()
	return fn()
}

func (m *Machine) rollback() {
	for i := len(m.undo) - 1; i >= 0; i-- {
		m.undo[i]()
	}
	if len(m.undo) > 0 {
		m.logger.Debug("transaction reverted", zap.Int("writes", len(m.undo)), zap.Int("events", len(m.events)))
	}
	m.undo = m.undo[:0]
	m.events = m.events[:0]
}

// Record registers the inverse of a write. Writes outside a transaction
// (genesis wiring) are permanent and are not journaled.
func (m *Machine) Record(undo func()) {
	if !m.inTx {
		return
	}
	m.undo = append(m.undo, undo)
}

// Emit buffers an event for the current transaction.
func (m *Machine) Emit(emitter common.Address, data model.EventData) {
	if !m.inTx {
		return
	}
	m.events = append(m.events, model.Event{
		Timestamp: m.now,
		Emitter:   emitter.Hex(),
		Name:      data.EventName(),
		Data:      data,
	})
}

// Now returns the host timestamp, in unix seconds, of the running
// transaction or view.
func (m *Machine) Now() uint64 {
	if m.pinned {
		return m.now
	}
	return uint64(m.clock().Unix())
}

// Seq returns the sequence number of the last committed event.
func (m *Machine) Seq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

func (m *Machine) String() string {
	return fmt.Sprintf("state.Machine{seq=%d}", m.seq)
}
