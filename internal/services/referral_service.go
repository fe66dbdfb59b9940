package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"impactx/internal/models"
	"impactx/internal/repository"
)

// ReferralService manages invite codes. Use counts only move when a referred
// impact is finalized; see ModerationService.
type ReferralService struct {
	referralRepo *repository.ReferralRepository
}

func NewReferralService(referralRepo *repository.ReferralRepository) *ReferralService {
	return &ReferralService{referralRepo: referralRepo}
}

func (s *ReferralService) CreateReferral(ctx context.Context, wallet string) (*models.Referral, error) {
	if wallet == "" {
		return nil, fmt.Errorf("wallet is required")
	}

	referral := &models.Referral{
		Code:        generateReferralCode(),
		OwnerWallet: wallet,
		Uses:        0,
		CreatedAt:   time.Now().UnixMilli(),
	}

	if err := s.referralRepo.Create(ctx, referral); err != nil {
		return nil, err
	}

	slog.Info("Referral created", "code", referral.Code, "wallet", wallet)
	return referral, nil
}

func (s *ReferralService) GetReferrals(ctx context.Context) ([]models.Referral, error) {
	referrals, err := s.referralRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if referrals == nil {
		referrals = []models.Referral{}
	}
	return referrals, nil
}

func (s *ReferralService) GetReferral(ctx context.Context, code string) (*models.Referral, error) {
	return s.referralRepo.GetByCode(ctx, code)
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateReferralCode() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in serious trouble; a
		// time-derived code keeps the endpoint alive regardless.
		return fmt.Sprintf("IMP-%06d", time.Now().UnixNano()%1000000)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return "IMP-" + string(b)
}
