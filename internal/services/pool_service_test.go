package services

import (
	"testing"
	"time"

	"impactx/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func verifiedImpact(wallet string, score int, createdAt int64) models.Impact {
	return models.Impact{
		ID:            uuid.New(),
		WalletAddress: wallet,
		ActionType:    "Tree Planting",
		Status:        models.ImpactVerified,
		AIScore:       &score,
		CreatedAt:     createdAt,
	}
}

func testPool(budget float64, contributions ...models.Contribution) *models.Pool {
	now := time.Now().UnixMilli()
	return &models.Pool{
		ID:            uuid.New(),
		Name:          "Test Pool",
		StartAt:       now - 1000,
		EndAt:         now + 1000,
		Budget:        budget,
		Contributions: contributions,
	}
}

// ============================================================================
// TEST SUITE 1: SCORE-WEIGHTED ALLOCATION
// ============================================================================

func TestComputeDistribution_ScoreWeighted(t *testing.T) {
	pool := testPool(1000, models.Contribution{Sponsor: "EcoSponsor", Amount: 250})
	now := time.Now().UnixMilli()

	eligible := []models.Impact{
		verifiedImpact("0xaaa", 80, now),
		verifiedImpact("0xbbb", 20, now),
	}

	distribution := ComputeDistribution(pool, eligible, now)

	// totalWeight 100, totalBudget 1250
	assert.Len(t, distribution.Allocations, 2)
	assert.Equal(t, 1000.00, distribution.Allocations[0].Amount)
	assert.Equal(t, 250.00, distribution.Allocations[1].Amount)
	assert.Equal(t, 1250.00, distribution.TotalDistributed)
	assert.Equal(t, now, distribution.At)
}

func TestComputeDistribution_ZeroScoreCountFallback(t *testing.T) {
	pool := testPool(100)
	now := time.Now().UnixMilli()

	eligible := []models.Impact{
		verifiedImpact("0xaaa", 0, now),
		verifiedImpact("0xbbb", 0, now),
	}

	distribution := ComputeDistribution(pool, eligible, now)

	// All scores zero: denominator falls back to count, each gets half.
	assert.Equal(t, 50.00, distribution.Allocations[0].Amount)
	assert.Equal(t, 50.00, distribution.Allocations[1].Amount)
	assert.Equal(t, 100.00, distribution.TotalDistributed)
}

func TestComputeDistribution_NilScoreGetsFloorWeight(t *testing.T) {
	pool := testPool(300)
	now := time.Now().UnixMilli()

	noScore := models.Impact{
		ID:            uuid.New(),
		WalletAddress: "0xccc",
		Status:        models.ImpactVerified,
		CreatedAt:     now,
	}
	eligible := []models.Impact{
		verifiedImpact("0xaaa", 99, now),
		noScore,
	}

	distribution := ComputeDistribution(pool, eligible, now)

	// totalWeight 99, the scoreless impact still earns the floor weight 1.
	assert.Equal(t, 300.00, distribution.Allocations[0].Amount)
	assert.InDelta(t, 3.03, distribution.Allocations[1].Amount, 0.001)
}

func TestComputeDistribution_SingleImpactTakesWholeBudget(t *testing.T) {
	pool := testPool(500)
	now := time.Now().UnixMilli()

	distribution := ComputeDistribution(pool, []models.Impact{verifiedImpact("0xaaa", 90, now)}, now)

	assert.Equal(t, 500.00, distribution.Allocations[0].Amount)
	assert.Equal(t, 500.00, distribution.TotalDistributed)
}

func TestComputeDistribution_RoundingDriftIsAccepted(t *testing.T) {
	pool := testPool(100)
	now := time.Now().UnixMilli()

	eligible := []models.Impact{
		verifiedImpact("0xaaa", 1, now),
		verifiedImpact("0xbbb", 1, now),
		verifiedImpact("0xccc", 1, now),
	}

	distribution := ComputeDistribution(pool, eligible, now)

	// 100/3 rounds to 33.33 each; the cent of drift stays uncorrected.
	for _, allocation := range distribution.Allocations {
		assert.Equal(t, 33.33, allocation.Amount)
	}
	assert.Equal(t, 99.99, distribution.TotalDistributed)
}

// ============================================================================
// TEST SUITE 2: POOL MODEL HELPERS
// ============================================================================

func TestPoolTotalBudget(t *testing.T) {
	pool := testPool(1000,
		models.Contribution{Sponsor: "a", Amount: 250},
		models.Contribution{Sponsor: "b", Amount: 50},
	)

	assert.Equal(t, 1300.0, pool.TotalBudget())
}

func TestPoolInWindow_InclusiveBounds(t *testing.T) {
	pool := &models.Pool{StartAt: 100, EndAt: 200}

	assert.True(t, pool.InWindow(100))
	assert.True(t, pool.InWindow(200))
	assert.True(t, pool.InWindow(150))
	assert.False(t, pool.InWindow(99))
	assert.False(t, pool.InWindow(201))
}
