package scorecard

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"changerisk/internal/utils"
)

const defaultHistoryLength = 16

// ReloadEvent records the outcome of one load attempt.
type ReloadEvent struct {
	At       time.Time `json:"at"`
	Path     string    `json:"path"`
	Version  int       `json:"version"`
	Features []string  `json:"features,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ReloadListener is called after every reload attempt, successful or not.
type ReloadListener func(ReloadEvent)

// Manager owns the live scorecard snapshot.
// Readers take the current snapshot without locking; a reload builds a complete new
// snapshot first and only then swaps the pointer, so a reader holding the previous
// snapshot keeps scoring against it undisturbed.
type Manager struct {
	path    string
	current atomic.Pointer[Scorecard]

	reloadMu  sync.Mutex // serializes reloads
	history   *utils.RingBuffer[ReloadEvent]
	listeners []ReloadListener
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithHistory sets how many reload events are retained.
func WithHistory(length int) ManagerOption {
	return func(m *Manager) {
		if length > 0 {
			m.history = utils.NewRingBuffer[ReloadEvent](length)
		}
	}
}

// WithReloadListener registers a callback invoked after each reload attempt.
func WithReloadListener(fn ReloadListener) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.listeners = append(m.listeners, fn)
		}
	}
}

// NewManager loads the document at path and makes it the live snapshot.
// An error means the manager could not leave the uninitialized state; callers treat
// it as fatal.
func NewManager(path string, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{path: path}
	for _, opt := range opts {
		opt(m)
	}
	if m.history == nil {
		m.history = utils.NewRingBuffer[ReloadEvent](defaultHistoryLength)
	}

	if _, err := m.Reload(path); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the document path the manager was created with.
func (m *Manager) Path() string {
	return m.path
}

// Current returns the live snapshot. The snapshot must be treated as read-only.
func (m *Manager) Current() *Scorecard {
	return m.current.Load()
}

// Reload builds a new snapshot from path and publishes it.
// On failure the previous snapshot stays live and the error is returned.
func (m *Manager) Reload(path string) (*Scorecard, error) {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	event := ReloadEvent{At: time.Now(), Path: path}
	card, err := Load(path)
	if err != nil {
		if prev := m.current.Load(); prev != nil {
			event.Version = prev.Version
		}
		event.Error = err.Error()
		m.record(event)
		slog.Error("Scorecard reload failed", "path", path, "error", err)
		return nil, err
	}

	m.current.Store(card)
	event.Version = card.Version
	event.Features = card.Features()
	m.record(event)

	slog.Info("Scorecard loaded",
		"path", path,
		"version", card.Version,
		"features", len(event.Features),
		"bins", card.BinCount(),
	)
	for _, issue := range card.Lint() {
		slog.Warn("Scorecard coverage issue", "feature", issue.Feature, "issue", issue.Message)
	}

	return card, nil
}

// History returns the retained reload events, oldest first.
func (m *Manager) History() []ReloadEvent {
	return m.history.ToSlice()
}

// LastReload returns the most recent reload event.
func (m *Manager) LastReload() (ReloadEvent, bool) {
	return m.history.Last()
}

func (m *Manager) record(event ReloadEvent) {
	m.history.Push(event)
	for _, fn := range m.listeners {
		fn(event)
	}
}

// ErrUninitialized is returned when scoring is attempted before any snapshot was loaded.
var ErrUninitialized = errors.New("scorecard not loaded")
