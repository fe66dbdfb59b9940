package services

import (
	"context"
	"log/slog"
	"time"

	"impactx/internal/models"
)

// challengeStore is the slice of the challenge repository the service needs.
type challengeStore interface {
	GetAll(ctx context.Context) ([]models.Challenge, error)
	Create(ctx context.Context, challenge *models.Challenge) error
}

// ChallengeService serves the weekly challenge list. The list is seeded
// lazily on first read; progress against it is computed by the frontend from
// the impact feed.
type ChallengeService struct {
	challengeRepo challengeStore
}

func NewChallengeService(challengeRepo challengeStore) *ChallengeService {
	return &ChallengeService{challengeRepo: challengeRepo}
}

// defaultChallenges is the seed set, stamped with the given ISO week.
func defaultChallenges(week string, createdAt int64) []models.Challenge {
	return []models.Challenge{
		{ID: "ch1", Title: "Plant 3 Trees", ActionType: "Tree Planting", Target: 3, Week: week, CreatedAt: createdAt},
		{ID: "ch2", Title: "Beach Cleanup Duo", ActionType: "Beach Cleanup", Target: 2, Week: week, CreatedAt: createdAt},
		{ID: "ch3", Title: "Teach & Inspire", ActionType: "Teaching", Target: 1, Week: week, CreatedAt: createdAt},
	}
}

// GetChallenges lists challenges, seeding the defaults when the table is
// empty so a fresh install always has a populated challenges page.
func (s *ChallengeService) GetChallenges(ctx context.Context) ([]models.Challenge, error) {
	challenges, err := s.challengeRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(challenges) > 0 {
		return challenges, nil
	}

	now := time.Now()
	seeded := defaultChallenges(isoWeek(now.UnixMilli()), now.UnixMilli())
	for i := range seeded {
		if err := s.challengeRepo.Create(ctx, &seeded[i]); err != nil {
			slog.Error("Failed to seed challenge", "challenge_id", seeded[i].ID, "error", err)
			return nil, err
		}
	}

	slog.Info("Seeded default weekly challenges", "count", len(seeded), "week", seeded[0].Week)
	return seeded, nil
}
