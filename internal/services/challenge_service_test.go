package services

import (
	"context"
	"regexp"
	"testing"

	"impactx/internal/models"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type fakeChallengeStore struct {
	challenges []models.Challenge
	creates    int
}

func (f *fakeChallengeStore) GetAll(ctx context.Context) ([]models.Challenge, error) {
	return f.challenges, nil
}

func (f *fakeChallengeStore) Create(ctx context.Context, challenge *models.Challenge) error {
	f.challenges = append(f.challenges, *challenge)
	f.creates++
	return nil
}

// ============================================================================
// TEST SUITE 1: LAZY SEEDING
// ============================================================================

func TestGetChallenges_SeedsDefaultsOnEmptyTable(t *testing.T) {
	store := &fakeChallengeStore{}
	service := NewChallengeService(store)

	challenges, err := service.GetChallenges(context.Background())

	assert.NoError(t, err)
	assert.Len(t, challenges, 3)
	assert.Equal(t, 3, store.creates)

	assert.Equal(t, "ch1", challenges[0].ID)
	assert.Equal(t, "Plant 3 Trees", challenges[0].Title)
	assert.Equal(t, "Tree Planting", challenges[0].ActionType)
	assert.Equal(t, 3, challenges[0].Target)

	assert.Equal(t, "ch2", challenges[1].ID)
	assert.Equal(t, 2, challenges[1].Target)

	assert.Equal(t, "ch3", challenges[2].ID)
	assert.Equal(t, "Teaching", challenges[2].ActionType)

	weekFormat := regexp.MustCompile(`^\d{4}-W\d{2}$`)
	for _, challenge := range challenges {
		assert.Regexp(t, weekFormat, challenge.Week)
		assert.Positive(t, challenge.CreatedAt)
	}
}

func TestGetChallenges_DoesNotReseedPopulatedTable(t *testing.T) {
	store := &fakeChallengeStore{challenges: []models.Challenge{
		{ID: "ch-custom", Title: "River Restoration", ActionType: "Cleanup", Target: 4, Week: "2026-W36"},
	}}
	service := NewChallengeService(store)

	challenges, err := service.GetChallenges(context.Background())

	assert.NoError(t, err)
	assert.Len(t, challenges, 1)
	assert.Equal(t, "ch-custom", challenges[0].ID)
	assert.Equal(t, 0, store.creates)
}
