package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// ErrDuplicateAPIKey is returned when a generated key collides with a stored one.
var ErrDuplicateAPIKey = errors.New("api key already exists")

const uniqueViolation = "23505"

// APIKeyRepository manages tenant API keys.
type APIKeyRepository interface {
	CountByCustomer(ctx context.Context, customerID string) (int, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.APIKey, error)
	Create(ctx context.Context, key *domain.APIKey) error
}

type apiKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository constructs repository.
func NewAPIKeyRepository(pool *pgxpool.Pool) APIKeyRepository {
	return &apiKeyRepository{pool: pool}
}

func (r *apiKeyRepository) CountByCustomer(ctx context.Context, customerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM api_keys WHERE customer_id=$1`
	var count int
	if err := r.pool.QueryRow(ctx, query, customerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *apiKeyRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.APIKey, error) {
	const query = `
        SELECT id, customer_id, key, created_at
        FROM api_keys WHERE customer_id=$1
        ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]domain.APIKey, 0)
	for rows.Next() {
		var key domain.APIKey
		if err := rows.Scan(&key.ID, &key.CustomerID, &key.Key, &key.CreatedAt); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	const query = `
        INSERT INTO api_keys (id, customer_id, key)
        VALUES ($1, $2, $3)
        RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, key.ID, key.CustomerID, key.Key).Scan(&key.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateAPIKey
	}
	return err
}
