package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"impactx/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PoolRepository struct {
	db *sqlx.DB
}

func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

const poolColumns = `id, name, start_at, end_at, budget, contributions, distributions, created_at`

func (r *PoolRepository) Create(ctx context.Context, pool *models.Pool) error {
	query := `
		INSERT INTO pool (
			id, name, start_at, end_at, budget, contributions, distributions, created_at
		) VALUES (
			:id, :name, :start_at, :end_at, :budget, :contributions, :distributions, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, pool)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}

	return nil
}

func (r *PoolRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Pool, error) {
	var pool models.Pool
	query := `SELECT ` + poolColumns + ` FROM pool WHERE id = $1`

	err := r.db.GetContext(ctx, &pool, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pool not found")
		}
		return nil, fmt.Errorf("failed to get pool by id: %w", err)
	}

	return &pool, nil
}

func (r *PoolRepository) GetAll(ctx context.Context) ([]models.Pool, error) {
	var pools []models.Pool
	query := `SELECT ` + poolColumns + ` FROM pool ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &pools, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pools: %w", err)
	}

	return pools, nil
}

// Update persists the mutable pool fields. Contributions and distributions are
// stored whole as JSONB arrays, matching how they are read.
func (r *PoolRepository) Update(ctx context.Context, pool *models.Pool) error {
	query := `
		UPDATE pool SET
			name = :name,
			start_at = :start_at,
			end_at = :end_at,
			budget = :budget,
			contributions = :contributions,
			distributions = :distributions
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, pool)
	if err != nil {
		return fmt.Errorf("failed to update pool: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("pool not found")
	}

	return nil
}

func (r *PoolRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pool`); err != nil {
		return fmt.Errorf("failed to delete pools: %w", err)
	}
	return nil
}
