package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/events"
)

var errBackendDown = errors.New("backend down")

type memOperators struct {
	mu  sync.Mutex
	ops map[string]domain.Identity
	err error
}

func newMemOperators() *memOperators {
	return &memOperators{ops: map[string]domain.Identity{}}
}

func (m *memOperators) find(match func(domain.Identity) bool) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, op := range m.ops {
		if match(op) {
			cp := op
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memOperators) Create(_ context.Context, op *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	op.OperatorID = uuid.NewString()
	m.ops[op.OperatorID] = *op
	return nil
}

func (m *memOperators) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	return m.find(func(op domain.Identity) bool { return op.OperatorID == id })
}

func (m *memOperators) GetByUsername(_ context.Context, username string) (*domain.Identity, error) {
	return m.find(func(op domain.Identity) bool { return op.Username == username })
}

func (m *memOperators) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	return m.find(func(op domain.Identity) bool {
		return op.Email != nil && strings.EqualFold(*op.Email, email)
	})
}

func (m *memOperators) SetActive(_ context.Context, customerID, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	if !ok || op.CustomerID != customerID {
		return pgx.ErrNoRows
	}
	op.IsActive = active
	m.ops[id] = op
	return nil
}

type memAPIKeys struct {
	mu   sync.Mutex
	keys []domain.APIKey
}

func (m *memAPIKeys) CountByCustomer(_ context.Context, customerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, k := range m.keys {
		if k.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (m *memAPIKeys) ListByCustomer(_ context.Context, customerID string) ([]domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.APIKey
	for _, k := range m.keys {
		if k.CustomerID == customerID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memAPIKeys) Create(_ context.Context, key *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, *key)
	return nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) subscribe(d events.Dispatcher, types ...events.EventType) {
	for _, et := range types {
		d.Subscribe(et, func(_ context.Context, ev events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, ev)
			return nil
		})
	}
}

func (r *recordedEvents) ofType(et events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Type == et {
			out = append(out, ev)
		}
	}
	return out
}

func testConfig(mode string) config.Config {
	return config.Config{
		App: config.AppConfig{Env: "test"},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			TokenTTLMinutes:         60,
			BcryptCost:              4,
			APIKeyCap:               30,
			CookieName:              "auth-token",
			RevocationMode:          mode,
			ActivityCacheTTLSeconds: 30,
			SignInPath:              "/auth/signin",
		},
	}
}
