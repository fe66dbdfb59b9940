package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"impactx/internal/models"

	"github.com/jmoiron/sqlx"
)

type ReferralRepository struct {
	db *sqlx.DB
}

func NewReferralRepository(db *sqlx.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	query := `
		INSERT INTO referral (code, owner_wallet, uses, created_at)
		VALUES (:code, :owner_wallet, :uses, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, referral)
	if err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}

	return nil
}

func (r *ReferralRepository) GetByCode(ctx context.Context, code string) (*models.Referral, error) {
	var referral models.Referral
	query := `SELECT code, owner_wallet, uses, created_at FROM referral WHERE code = $1`

	err := r.db.GetContext(ctx, &referral, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("referral not found")
		}
		return nil, fmt.Errorf("failed to get referral by code: %w", err)
	}

	return &referral, nil
}

func (r *ReferralRepository) GetAll(ctx context.Context) ([]models.Referral, error) {
	var referrals []models.Referral
	query := `SELECT code, owner_wallet, uses, created_at FROM referral ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &referrals, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}

	return referrals, nil
}

// IncrementUses bumps the use counter for a code. A missing code is not an
// error; stale codes on old impacts should never fail a finalization.
func (r *ReferralRepository) IncrementUses(ctx context.Context, code string) error {
	query := `UPDATE referral SET uses = uses + 1 WHERE code = $1`

	if _, err := r.db.ExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("failed to increment referral uses: %w", err)
	}

	return nil
}

func (r *ReferralRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM referral`); err != nil {
		return fmt.Errorf("failed to delete referrals: %w", err)
	}
	return nil
}
