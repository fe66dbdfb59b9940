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

type ImpactRepository struct {
	db *sqlx.DB
}

func NewImpactRepository(db *sqlx.DB) *ImpactRepository {
	return &ImpactRepository{db: db}
}

const impactColumns = `id, wallet_address, action_type, description, image, status,
	       ai_score, reward, nft_minted, ai_photo_flag, ai_photo_prob,
	       moderation, human_review, created_at, referral_code`

// Create inserts a new impact row.
func (r *ImpactRepository) Create(ctx context.Context, impact *models.Impact) error {
	query := `
		INSERT INTO impact (
			id, wallet_address, action_type, description, image, status,
			ai_score, reward, nft_minted, ai_photo_flag, ai_photo_prob,
			moderation, human_review, created_at, referral_code
		) VALUES (
			:id, :wallet_address, :action_type, :description, :image, :status,
			:ai_score, :reward, :nft_minted, :ai_photo_flag, :ai_photo_prob,
			:moderation, :human_review, :created_at, :referral_code
		)`

	_, err := r.db.NamedExecContext(ctx, query, impact)
	if err != nil {
		return fmt.Errorf("failed to create impact: %w", err)
	}

	return nil
}

// GetByID retrieves an impact by its ID
func (r *ImpactRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Impact, error) {
	var impact models.Impact
	query := `SELECT ` + impactColumns + ` FROM impact WHERE id = $1`

	err := r.db.GetContext(ctx, &impact, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("impact not found")
		}
		return nil, fmt.Errorf("failed to get impact by id: %w", err)
	}

	return &impact, nil
}

// GetAll retrieves impacts newest first, with optional filters.
func (r *ImpactRepository) GetAll(ctx context.Context, filters map[string]interface{}) ([]models.Impact, error) {
	var impacts []models.Impact
	query, args := buildImpactListQuery(filters)

	err := r.db.SelectContext(ctx, &impacts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get impacts: %w", err)
	}

	return impacts, nil
}

// buildImpactListQuery assembles the filtered listing query. Wallet addresses
// compare case-insensitively: EIP-55 checksum casing varies between clients
// for the same address.
func buildImpactListQuery(filters map[string]interface{}) (string, []interface{}) {
	query := `SELECT ` + impactColumns + ` FROM impact WHERE 1=1`

	args := []interface{}{}
	argCount := 1

	if wallet, ok := filters["wallet_address"].(string); ok {
		query += fmt.Sprintf(" AND LOWER(wallet_address) = LOWER($%d)", argCount)
		args = append(args, wallet)
		argCount++
	}

	if status, ok := filters["status"].(models.ImpactStatus); ok {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, status)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	if limit, ok := filters["limit"].(int); ok && limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, limit)
		argCount++
	}

	return query, args
}

// GetVerifiedInWindow retrieves verified impacts whose creation time falls
// inside [startAt, endAt], epoch milliseconds inclusive.
func (r *ImpactRepository) GetVerifiedInWindow(ctx context.Context, startAt, endAt int64) ([]models.Impact, error) {
	var impacts []models.Impact
	query := `SELECT ` + impactColumns + `
		FROM impact
		WHERE status = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &impacts, query, models.ImpactVerified, startAt, endAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get verified impacts in window: %w", err)
	}

	return impacts, nil
}

// Update persists the mutable verdict fields of an impact.
func (r *ImpactRepository) Update(ctx context.Context, impact *models.Impact) error {
	query := `
		UPDATE impact SET
			status = :status,
			ai_score = :ai_score,
			reward = :reward,
			nft_minted = :nft_minted,
			ai_photo_flag = :ai_photo_flag,
			ai_photo_prob = :ai_photo_prob,
			moderation = :moderation,
			human_review = :human_review
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, impact)
	if err != nil {
		return fmt.Errorf("failed to update impact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("impact not found")
	}

	return nil
}

// Exists checks if an impact exists by ID
func (r *ImpactRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM impact WHERE id = $1)`

	err := r.db.GetContext(ctx, &exists, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to check impact existence: %w", err)
	}

	return exists, nil
}

// DeleteAll wipes the impact table. Used by the dev seeding endpoint only.
func (r *ImpactRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM impact`); err != nil {
		return fmt.Errorf("failed to delete impacts: %w", err)
	}
	return nil
}
