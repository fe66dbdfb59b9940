package repository

import (
	"context"
	"fmt"

	"impactx/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(ctx context.Context, verification *models.Verification) error {
	query := `
		INSERT INTO verification (id, wallet, action, status, ai_score, timestamp, impact_id)
		VALUES (:id, :wallet, :action, :status, :ai_score, :timestamp, :impact_id)`

	_, err := r.db.NamedExecContext(ctx, query, verification)
	if err != nil {
		return fmt.Errorf("failed to create verification: %w", err)
	}

	return nil
}

func (r *VerificationRepository) GetAll(ctx context.Context, limit int) ([]models.Verification, error) {
	var verifications []models.Verification
	query := `
		SELECT id, wallet, action, status, ai_score, timestamp, impact_id
		FROM verification
		ORDER BY timestamp DESC`

	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	err := r.db.SelectContext(ctx, &verifications, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get verifications: %w", err)
	}

	return verifications, nil
}

// SyncStatus mirrors the finalized status and score of an impact onto its
// verification feed row.
func (r *VerificationRepository) SyncStatus(ctx context.Context, impactID uuid.UUID, status models.ImpactStatus, aiScore *int) error {
	query := `UPDATE verification SET status = $1, ai_score = $2 WHERE impact_id = $3`

	if _, err := r.db.ExecContext(ctx, query, status, aiScore, impactID); err != nil {
		return fmt.Errorf("failed to sync verification status: %w", err)
	}

	return nil
}

func (r *VerificationRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM verification`); err != nil {
		return fmt.Errorf("failed to delete verifications: %w", err)
	}
	return nil
}
