package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/repository"
)

// Credentials is a login attempt. Either Username or Email identifies the
// operator; Role, when set, must match the stored role.
type Credentials struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// CredentialStore resolves operators and checks their secrets.
type CredentialStore struct {
	operators repository.OperatorRepository
	// dummyHash is compared against when the operator does not exist so that
	// unknown usernames cost the same as wrong passwords.
	dummyHash string
}

// NewCredentialStore builds a store over the operator repository.
func NewCredentialStore(operators repository.OperatorRepository, bcryptCost int) (*CredentialStore, error) {
	dummy, err := HashPassword("not-a-real-password", bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy secret: %w", err)
	}
	return &CredentialStore{operators: operators, dummyHash: dummy}, nil
}

// FindIdentity looks an operator up by username.
func (s *CredentialStore) FindIdentity(ctx context.Context, username string) (*domain.Identity, error) {
	return mapLookup(s.operators.GetByUsername(ctx, strings.TrimSpace(username)))
}

// FindIdentityByEmail looks an operator up by email.
func (s *CredentialStore) FindIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return mapLookup(s.operators.GetByEmail(ctx, strings.TrimSpace(email)))
}

// VerifySecret checks a raw password against a stored hash.
func (s *CredentialStore) VerifySecret(raw, storedHash string) bool {
	return VerifySecret(raw, storedHash)
}

// IsActive performs a live activity lookup. Unknown operators are inactive.
func (s *CredentialStore) IsActive(ctx context.Context, operatorID string) (bool, error) {
	identity, err := mapLookup(s.operators.GetByID(ctx, operatorID))
	if errors.Is(err, ErrIdentityNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return identity.IsActive, nil
}

// Authenticate resolves the identity and verifies the secret. It returns the
// internal errors ErrIdentityNotFound, ErrSecretMismatch or ErrRoleMismatch;
// any other error means the backend is unavailable.
func (s *CredentialStore) Authenticate(ctx context.Context, creds Credentials) (*domain.Identity, error) {
	var (
		identity *domain.Identity
		err      error
	)
	if creds.Username != "" {
		identity, err = s.FindIdentity(ctx, creds.Username)
	} else {
		identity, err = s.FindIdentityByEmail(ctx, creds.Email)
	}
	if errors.Is(err, ErrIdentityNotFound) {
		_ = s.VerifySecret(creds.Password, s.dummyHash)
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIssuanceFailure, err)
	}

	if !s.VerifySecret(creds.Password, identity.PasswordHash) {
		return nil, ErrSecretMismatch
	}
	if creds.Role != "" && creds.Role != identity.Role {
		return nil, ErrRoleMismatch
	}
	return identity, nil
}

func mapLookup(identity *domain.Identity, err error) (*domain.Identity, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}
