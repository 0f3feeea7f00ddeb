package session

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/domain"
)

// Config tunes a Manager. Zero values take defaults.
type Config struct {
	DebounceWindow    time.Duration
	ValidationTimeout time.Duration
	TokenKey          string
	ValidatedAtKey    string
	EndingFlag        string
	ClosedFlag        string
	LandingPath       string
	SignInPath        string
	// AllowedRoles restricts which roles may stay on the current page.
	// Empty admits every role.
	AllowedRoles []domain.Role
	QueueSize    int
}

func (c Config) withDefaults() Config {
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = 5 * time.Second
	}
	if c.ValidationTimeout <= 0 {
		c.ValidationTimeout = 10 * time.Second
	}
	if c.TokenKey == "" {
		c.TokenKey = auth.DefaultCookieName
	}
	if c.ValidatedAtKey == "" {
		c.ValidatedAtKey = c.TokenKey + "-validated-at"
	}
	if c.EndingFlag == "" {
		c.EndingFlag = "session-ending"
	}
	if c.ClosedFlag == "" {
		c.ClosedFlag = "session-closed"
	}
	if c.LandingPath == "" {
		c.LandingPath = "/"
	}
	if c.SignInPath == "" {
		c.SignInPath = auth.DefaultSignInPath
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	return c
}

// Navigator moves the client to another page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Deps are the manager's collaborators.
type Deps struct {
	// Shared holds the token and is visible to every tab.
	Shared Storage
	// Local is private to this tab.
	Local     Storage
	Validator Validator
	Navigator Navigator
	Logger    *zap.Logger
	Now       func() time.Time
}

type validationOutcome struct {
	generation uint64
	result     Result
	err        error
}

// Manager keeps one tab's auth state in sync with the server and with other
// tabs. All mutable state is owned by the goroutine running Run; other
// goroutines only Dispatch events and read State.
type Manager struct {
	cfg  Config
	deps Deps

	events   chan Event
	outcomes chan validationOutcome
	state    atomic.Int32
	done     chan struct{}

	// reactor-owned
	generation  uint64
	lastTrigger time.Time
	runCtx      context.Context
}

// NewManager builds a manager; call Run to start it.
func NewManager(cfg Config, deps Deps) *Manager {
	cfg = cfg.withDefaults()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Local == nil {
		deps.Local = NewMemoryStore()
	}
	if deps.Navigator == nil {
		deps.Navigator = NavigatorFunc(func(string) {})
	}
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		events:   make(chan Event, cfg.QueueSize),
		outcomes: make(chan validationOutcome, cfg.QueueSize),
		done:     make(chan struct{}),
	}
}

// State returns the current state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Dispatch queues an event. It returns false once the manager has stopped.
func (m *Manager) Dispatch(ev Event) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

// Run processes events until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	m.runCtx = ctx

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-m.events:
			m.handle(ev)
		case out := <-m.outcomes:
			m.apply(out)
		}
	}
}

func (m *Manager) handle(ev Event) {
	m.deps.Logger.Debug("session event", zap.Stringer("kind", ev.Kind), zap.String("key", ev.Key))

	switch ev.Kind {
	case EventVisible, EventFocus:
		m.revalidate(false)
	case EventStorage:
		m.onStorage(ev)
	case EventBeforeUnload:
		m.deps.Local.Set(m.cfg.EndingFlag, "1")
	case EventLoad:
		_, ending := m.deps.Local.Get(m.cfg.EndingFlag)
		_, closed := m.deps.Local.Get(m.cfg.ClosedFlag)
		if ending || closed {
			m.deps.Local.Remove(m.cfg.EndingFlag)
			m.deps.Local.Remove(m.cfg.ClosedFlag)
			m.revalidate(true)
			return
		}
		m.revalidate(false)
	case EventLogout:
		m.generation++
		m.deps.Shared.Remove(m.cfg.TokenKey)
		m.deps.Shared.Remove(m.cfg.ValidatedAtKey)
		m.deps.Local.Set(m.cfg.ClosedFlag, "1")
		m.setState(StateInvalid)
		m.deps.Navigator.Navigate(m.cfg.LandingPath)
	}
}

func (m *Manager) onStorage(ev Event) {
	switch {
	case ev.Key == "", ev.Key == m.cfg.TokenKey && ev.NewValue == "":
		// Another tab logged out.
		m.generation++
		m.setState(StateInvalid)
		m.deps.Navigator.Navigate(m.cfg.LandingPath)
	case ev.Key == m.cfg.TokenKey:
		// Another tab logged in with a new token.
		m.revalidate(true)
	}
}

func (m *Manager) revalidate(force bool) {
	now := m.deps.Now()
	if !force && !m.lastTrigger.IsZero() && now.Sub(m.lastTrigger) < m.cfg.DebounceWindow {
		return
	}
	m.lastTrigger = now

	token, ok := m.deps.Shared.Get(m.cfg.TokenKey)
	if !ok || token == "" {
		m.generation++
		m.setState(StateInvalid)
		return
	}

	m.generation++
	gen := m.generation
	parent := m.runCtx
	if parent == nil {
		parent = context.Background()
	}

	go func() {
		ctx, cancel := context.WithTimeout(parent, m.cfg.ValidationTimeout)
		defer cancel()
		result, err := m.deps.Validator.Validate(ctx, token)
		select {
		case m.outcomes <- validationOutcome{generation: gen, result: result, err: err}:
		case <-parent.Done():
		}
	}()
}

func (m *Manager) apply(out validationOutcome) {
	if out.generation != m.generation {
		m.deps.Logger.Debug("discarding stale validation",
			zap.Uint64("generation", out.generation),
			zap.Uint64("current", m.generation))
		return
	}

	if out.err != nil {
		if !errors.Is(out.err, ErrValidationUnreachable) {
			out.err = errors.Join(ErrValidationUnreachable, out.err)
		}
		m.deps.Logger.Warn("session validation unreachable; keeping session", zap.Error(out.err))
		return
	}

	if reason, ok := m.rejects(out.result); ok {
		m.deps.Logger.Info("session invalidated", zap.String("reason", reason))
		m.invalidate()
		return
	}

	m.deps.Shared.Set(m.cfg.ValidatedAtKey, m.deps.Now().UTC().Format(time.RFC3339))
	m.setState(StateValid)
}

func (m *Manager) rejects(res Result) (string, bool) {
	switch {
	case !res.Valid:
		if res.Reason != "" {
			return res.Reason, true
		}
		return "invalid", true
	case res.Claims == nil:
		return "no claims", true
	case !res.Claims.IsActive:
		return string(auth.KindDeactivated), true
	case len(m.cfg.AllowedRoles) > 0 && !slices.Contains(m.cfg.AllowedRoles, res.Claims.Role):
		return "role mismatch", true
	}
	return "", false
}

func (m *Manager) invalidate() {
	m.setState(StateInvalidating)
	m.generation++
	m.deps.Shared.Remove(m.cfg.TokenKey)
	m.deps.Shared.Remove(m.cfg.ValidatedAtKey)
	m.setState(StateInvalid)
	m.deps.Navigator.Navigate(m.cfg.SignInPath)
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
}
