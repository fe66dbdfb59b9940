package repository

import (
	"context"
	"fmt"

	"impactx/internal/models"

	"github.com/jmoiron/sqlx"
)

type ChallengeRepository struct {
	db *sqlx.DB
}

func NewChallengeRepository(db *sqlx.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	query := `
		INSERT INTO challenge (id, title, action_type, target, week, created_at)
		VALUES (:id, :title, :action_type, :target, :week, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, challenge)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	return nil
}

func (r *ChallengeRepository) GetAll(ctx context.Context) ([]models.Challenge, error) {
	var challenges []models.Challenge
	query := `SELECT id, title, action_type, target, week, created_at FROM challenge ORDER BY created_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &challenges, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenges: %w", err)
	}

	return challenges, nil
}

func (r *ChallengeRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM challenge`); err != nil {
		return fmt.Errorf("failed to delete challenges: %w", err)
	}
	return nil
}
