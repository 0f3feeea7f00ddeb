package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
)

var testSecret = []byte("test-secret")

type fakeOperators struct {
	mu  sync.Mutex
	ops map[string]*domain.Identity
	err error
}

func newFakeOperators(ops ...*domain.Identity) *fakeOperators {
	f := &fakeOperators{ops: map[string]*domain.Identity{}}
	for _, op := range ops {
		f.ops[op.OperatorID] = op
	}
	return f
}

func (f *fakeOperators) find(match func(*domain.Identity) bool) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, op := range f.ops {
		if match(op) {
			cp := *op
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeOperators) Create(_ context.Context, op *domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op.OperatorID == "" {
		op.OperatorID = "op-" + op.Username
	}
	cp := *op
	f.ops[op.OperatorID] = &cp
	return nil
}

func (f *fakeOperators) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	return f.find(func(op *domain.Identity) bool { return op.OperatorID == id })
}

func (f *fakeOperators) GetByUsername(_ context.Context, username string) (*domain.Identity, error) {
	return f.find(func(op *domain.Identity) bool { return op.Username == username })
}

func (f *fakeOperators) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	return f.find(func(op *domain.Identity) bool {
		return op.Email != nil && strings.EqualFold(*op.Email, email)
	})
}

func (f *fakeOperators) SetActive(_ context.Context, customerID, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[id]
	if !ok || op.CustomerID != customerID {
		return pgx.ErrNoRows
	}
	op.IsActive = active
	return nil
}

type fakeAPIKeys struct {
	mu         sync.Mutex
	keys       map[string][]domain.APIKey
	duplicates int
	countErr   error
	createErr  error
	// countDelay widens the count-then-insert window in race tests.
	countDelay time.Duration
}

func newFakeAPIKeys() *fakeAPIKeys {
	return &fakeAPIKeys{keys: map[string][]domain.APIKey{}}
}

func (f *fakeAPIKeys) CountByCustomer(_ context.Context, customerID string) (int, error) {
	f.mu.Lock()
	n, err := len(f.keys[customerID]), f.countErr
	delay := f.countDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return n, err
}

func (f *fakeAPIKeys) ListByCustomer(_ context.Context, customerID string) ([]domain.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.APIKey(nil), f.keys[customerID]...), nil
}

func (f *fakeAPIKeys) Create(_ context.Context, key *domain.APIKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.duplicates > 0 {
		f.duplicates--
		return repository.ErrDuplicateAPIKey
	}
	f.keys[key.CustomerID] = append(f.keys[key.CustomerID], *key)
	return nil
}

func (f *fakeAPIKeys) stored(customerID string) []domain.APIKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.APIKey(nil), f.keys[customerID]...)
}

type stubActivity struct {
	mu     sync.Mutex
	active bool
	err    error
	calls  int
}

func (s *stubActivity) IsActive(context.Context, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.active, s.err
}

func (s *stubActivity) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var errBackendDown = errors.New("backend down")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestCodec(t *testing.T, now func() time.Time) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(Settings{Secret: testSecret, Now: now})
	require.NoError(t, err)
	return codec
}

func newIdentity(t *testing.T, username, password string, role domain.Role) *domain.Identity {
	t.Helper()
	hash, err := HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	email := username + "@example.com"
	return &domain.Identity{
		OperatorID:   "op-" + username,
		CustomerID:   "cust-1",
		Username:     username,
		Email:        &email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
}

func sampleClaims(issuedAt time.Time) Claims {
	email := "admin@example.com"
	return Claims{
		CustomerID: "cust-1",
		OperatorID: "op-admin",
		Username:   "admin",
		Email:      &email,
		Role:       domain.RoleAdmin,
		IsActive:   true,
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(time.Hour),
	}
}

// tokenFor mints a currently valid token for role.
func tokenFor(t *testing.T, codec *TokenCodec, role domain.Role) string {
	t.Helper()
	claims := sampleClaims(time.Now().UTC().Truncate(time.Second))
	claims.Role = role
	claims.Username = string(role) + "-user"
	token, err := codec.Encode(claims)
	require.NoError(t, err)
	return token
}
