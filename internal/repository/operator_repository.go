package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// OperatorRepository defines persistence access for operator identities.
// Lookups return pgx.ErrNoRows when nothing matches.
type OperatorRepository interface {
	Create(ctx context.Context, op *domain.Identity) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByUsername(ctx context.Context, username string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	SetActive(ctx context.Context, customerID, id string, active bool) error
}

type operatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository returns a Postgres-backed implementation.
func NewOperatorRepository(pool *pgxpool.Pool) OperatorRepository {
	return &operatorRepository{pool: pool}
}

const operatorColumns = `id, customer_id, username, email, password_hash, role, is_active, created_at, updated_at`

func (r *operatorRepository) Create(ctx context.Context, op *domain.Identity) error {
	const query = `
        INSERT INTO operators (customer_id, username, email, password_hash, role, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		op.CustomerID,
		op.Username,
		op.Email,
		op.PasswordHash,
		op.Role,
		op.IsActive,
	).Scan(&op.OperatorID, &op.CreatedAt, &op.UpdatedAt)
}

func (r *operatorRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	const query = `SELECT ` + operatorColumns + ` FROM operators WHERE id=$1`
	return scanOperator(r.pool.QueryRow(ctx, query, id))
}

func (r *operatorRepository) GetByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	const query = `SELECT ` + operatorColumns + ` FROM operators WHERE username=$1`
	return scanOperator(r.pool.QueryRow(ctx, query, username))
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	const query = `SELECT ` + operatorColumns + ` FROM operators WHERE lower(email)=lower($1)`
	return scanOperator(r.pool.QueryRow(ctx, query, email))
}

func (r *operatorRepository) SetActive(ctx context.Context, customerID, id string, active bool) error {
	const query = `
        UPDATE operators SET is_active=$1, updated_at=NOW()
        WHERE id=$2 AND customer_id=$3`

	cmd, err := r.pool.Exec(ctx, query, active, id, customerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanOperator(row pgx.Row) (*domain.Identity, error) {
	var op domain.Identity
	if err := row.Scan(
		&op.OperatorID,
		&op.CustomerID,
		&op.Username,
		&op.Email,
		&op.PasswordHash,
		&op.Role,
		&op.IsActive,
		&op.CreatedAt,
		&op.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &op, nil
}
