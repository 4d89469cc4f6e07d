// Package jobs runs queued background work on a single worker so
// adapter calls never block the UI thread and never overlap.
package jobs

import (
	"sync"
	"sync/atomic"
	"time"
)

// debug hook, set from main; should print only when -d enabled
var debugf func(format string, args ...interface{})

// SetDebug installs a debug logger used when -d flag is on.
func SetDebug(fn func(format string, args ...interface{})) { debugf = fn }

func dbg(format string, args ...interface{}) {
	if debugf != nil {
		debugf("jobs: "+format, args...)
	}
}

// Manager coordinates queueing and background processing (single worker).
type Manager struct {
	mu          sync.Mutex
	cond        *sync.Cond
	queue       []*Task
	closed      bool
	nextID      int64
	subscribers []func()
	current     *Task
	history     []*Task
	historyMax  int
}

// NewManager constructs and starts a Manager.
func NewManager() *Manager {
	m := &Manager{historyMax: 100}
	m.cond = sync.NewCond(&m.mu)
	go m.worker()
	dbg("manager created; worker started")
	return m
}

// Subscribe registers a callback called on state changes.
func (m *Manager) Subscribe(cb func()) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, cb)
	n := len(m.subscribers)
	m.mu.Unlock()
	dbg("subscriber added (total=%d)", n)
}

func (m *Manager) notify() {
	// call without holding the lock to avoid re-entrancy
	m.mu.Lock()
	subs := append([]func(){}, m.subscribers...)
	m.mu.Unlock()
	for _, cb := range subs {
		// best-effort; UI should marshal to main thread as needed
		cb()
	}
}

// Submit enqueues a named task and returns immediately.
func (m *Manager) Submit(name string, fn func()) *Task {
	t := &Task{
		ID:         atomic.AddInt64(&m.nextID, 1),
		Name:       name,
		Status:     StatusPending,
		EnqueuedAt: time.Now(),
		fn:         fn,
	}
	m.mu.Lock()
	m.queue = append(m.queue, t)
	m.mu.Unlock()
	dbg("submit id=%d name=%s", t.ID, name)
	m.notify()
	m.cond.Signal()
	return t
}

// Close stops the worker after the current task finishes.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Signal()
}

// List returns snapshots of the running task, the queue, then recent
// history (newest first).
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, 0, len(m.queue)+1+len(m.history))
	if m.current != nil {
		out = append(out, m.current.snapshot())
	}
	for _, t := range m.queue {
		out = append(out, t.snapshot())
	}
	for i := len(m.history) - 1; i >= 0; i-- {
		out = append(out, m.history[i].snapshot())
	}
	return out
}

func (m *Manager) worker() {
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if m.closed {
			m.mu.Unlock()
			return
		}
		// pop head
		t := m.queue[0]
		m.queue = m.queue[1:]
		m.current = t
		m.mu.Unlock()

		t.Status = StatusRunning
		t.StartedAt = time.Now()
		dbg("start task id=%d name=%s", t.ID, t.Name)
		m.notify()

		t.fn()

		t.Status = StatusCompleted
		t.DoneAt = time.Now()
		dbg("task completed id=%d", t.ID)
		m.mu.Lock()
		m.current = nil
		m.addHistoryLocked(t)
		m.mu.Unlock()
		m.notify()
	}
}

// addHistoryLocked appends a finished task to history and trims oldest; caller must hold m.mu
func (m *Manager) addHistoryLocked(t *Task) {
	m.history = append(m.history, t)
	if m.historyMax > 0 && len(m.history) > m.historyMax {
		drop := len(m.history) - m.historyMax
		m.history = append([]*Task{}, m.history[drop:]...)
	}
}
