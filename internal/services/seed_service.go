package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"impactx/internal/models"
	"impactx/internal/repository"

	"github.com/google/uuid"
)

// SeedService populates demo data for local development. It is wired only to
// the dev seeding endpoint and never runs in normal request flow.
type SeedService struct {
	impactRepo       *repository.ImpactRepository
	verificationRepo *repository.VerificationRepository
	poolRepo         *repository.PoolRepository
	referralRepo     *repository.ReferralRepository
	challengeRepo    *repository.ChallengeRepository
	metrics          *MetricsService
}

func NewSeedService(
	impactRepo *repository.ImpactRepository,
	verificationRepo *repository.VerificationRepository,
	poolRepo *repository.PoolRepository,
	referralRepo *repository.ReferralRepository,
	challengeRepo *repository.ChallengeRepository,
	metrics *MetricsService,
) *SeedService {
	return &SeedService{
		impactRepo:       impactRepo,
		verificationRepo: verificationRepo,
		poolRepo:         poolRepo,
		referralRepo:     referralRepo,
		challengeRepo:    challengeRepo,
		metrics:          metrics,
	}
}

var (
	seedWallets = []string{
		"0x1a2B3c4D5e6F70819283a4B5C6d7E8F901234567",
		"0x9f8E7d6C5b4A39281706f5E4D3c2B1A098765432",
		"0x4Bc1D2e3F4a5B6c7D8e9F0a1B2c3D4e5F6a7B8c9",
		"0x7710aBcDeF0123456789aBcDeF0123456789aBcD",
	}
	seedActions = []struct {
		action      string
		description string
	}{
		{"Tree Planting", "Planted 15 saplings along the river bank with the neighborhood group."},
		{"Beach Cleanup", "Collected 12 bags of plastic waste during the Saturday cleanup."},
		{"Recycling Drive", "Organized a drive that gathered 40 kg of recyclable material."},
		{"Community Garden", "Prepared two new vegetable beds at the shared garden plot."},
	}
)

// Seed inserts count demo impacts with mixed outcomes, one open pool and one
// referral code. When reset is set all collections are wiped first.
func (s *SeedService) Seed(ctx context.Context, reset bool, count int) (map[string]any, error) {
	if count <= 0 {
		count = 12
	}
	if count > 200 {
		count = 200
	}

	if reset {
		for name, wipe := range map[string]func(context.Context) error{
			"impacts":       s.impactRepo.DeleteAll,
			"verifications": s.verificationRepo.DeleteAll,
			"pools":         s.poolRepo.DeleteAll,
			"referrals":     s.referralRepo.DeleteAll,
			"challenges":    s.challengeRepo.DeleteAll,
		} {
			if err := wipe(ctx); err != nil {
				return nil, fmt.Errorf("failed to reset %s: %w", name, err)
			}
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()

	for i := 0; i < count; i++ {
		wallet := seedWallets[rng.Intn(len(seedWallets))]
		entry := seedActions[rng.Intn(len(seedActions))]
		createdAt := now.Add(-time.Duration(rng.Intn(21*24)) * time.Hour)

		impact := &models.Impact{
			ID:            uuid.New(),
			WalletAddress: wallet,
			ActionType:    entry.action,
			Description:   entry.description,
			Image:         fmt.Sprintf("https://picsum.photos/seed/impact-%d/640/480", i),
			CreatedAt:     createdAt.UnixMilli(),
		}

		switch rng.Intn(10) {
		case 0, 1:
			impact.Status = models.ImpactRejected
			score, reward := 0, 0.0
			impact.AIScore = &score
			impact.Reward = &reward
		case 2:
			impact.Status = models.ImpactPending
		default:
			impact.Status = models.ImpactVerified
			score := 85 + rng.Intn(15)
			reward := round2(10 + rng.Float64()*20)
			impact.AIScore = &score
			impact.Reward = &reward
			impact.NFTMinted = true
		}

		if err := s.impactRepo.Create(ctx, impact); err != nil {
			return nil, err
		}

		verification := &models.Verification{
			ID:        fmt.Sprintf("VR-%04d", 1000+rng.Intn(9000)),
			Wallet:    ShortWallet(wallet),
			Action:    entry.action,
			Status:    impact.Status,
			AIScore:   impact.AIScore,
			Timestamp: createdAt.Format(time.RFC3339),
			ImpactID:  impact.ID,
		}
		if err := s.verificationRepo.Create(ctx, verification); err != nil {
			return nil, err
		}
	}

	pool := &models.Pool{
		ID:            uuid.New(),
		Name:          "Community Green Fund",
		StartAt:       now.AddDate(0, -1, 0).UnixMilli(),
		EndAt:         now.AddDate(0, 1, 0).UnixMilli(),
		Budget:        1000,
		Contributions: models.Contributions{{Sponsor: "EcoSponsor DAO", Amount: 250}},
		Distributions: models.Distributions{},
		CreatedAt:     now.UnixMilli(),
	}
	if err := s.poolRepo.Create(ctx, pool); err != nil {
		return nil, err
	}

	referral := &models.Referral{
		Code:        "IMP-DEMO42",
		OwnerWallet: seedWallets[0],
		Uses:        0,
		CreatedAt:   now.UnixMilli(),
	}
	if err := s.referralRepo.Create(ctx, referral); err != nil {
		return nil, err
	}

	s.metrics.InvalidateAggregates(ctx)

	slog.Info("Demo data seeded", "impacts", count, "reset", reset)

	return map[string]any{
		"impacts":  count,
		"pool_id":  pool.ID,
		"referral": referral.Code,
		"reset":    reset,
	}, nil
}
