package services

import (
	"testing"
	"time"

	"impactx/internal/models"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST SUITE 1: WALLET DISPLAY AND WEEK BUCKETS
// ============================================================================

func TestShortWallet(t *testing.T) {
	assert.Equal(t, "0x1a2B...4567", ShortWallet("0x1a2B3c4D5e6F70819283a4B5C6d7E8F901234567"))
	assert.Equal(t, "0xshort", ShortWallet("0xshort"))
}

func TestIsoWeek(t *testing.T) {
	// 2026-01-05 is a Monday in ISO week 2.
	ts := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2026-W02", isoWeek(ts))
}

// ============================================================================
// TEST SUITE 2: SUBMISSION STREAK
// ============================================================================

func TestSubmissionStreak_ConsecutiveDays(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	impacts := []models.Impact{
		{Status: models.ImpactVerified, CreatedAt: now.UnixMilli()},
		{Status: models.ImpactVerified, CreatedAt: now.AddDate(0, 0, -1).UnixMilli()},
		{Status: models.ImpactVerified, CreatedAt: now.AddDate(0, 0, -2).UnixMilli()},
		{Status: models.ImpactVerified, CreatedAt: now.AddDate(0, 0, -5).UnixMilli()}, // gap breaks the run
	}

	assert.Equal(t, 3, submissionStreak(impacts, now))
}

func TestSubmissionStreak_OnlyVerifiedDaysCount(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	// A pending submission today does not extend the verified run, and a
	// rejected one yesterday does not bridge the gap.
	impacts := []models.Impact{
		{Status: models.ImpactPending, CreatedAt: now.UnixMilli()},
		{Status: models.ImpactRejected, CreatedAt: now.AddDate(0, 0, -1).UnixMilli()},
		{Status: models.ImpactVerified, CreatedAt: now.AddDate(0, 0, -2).UnixMilli()},
	}

	assert.Equal(t, 0, submissionStreak(impacts, now))
}

func TestSubmissionStreak_EndsYesterday(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	impacts := []models.Impact{
		{Status: models.ImpactVerified, CreatedAt: now.AddDate(0, 0, -1).UnixMilli()},
		{Status: models.ImpactVerified, CreatedAt: now.AddDate(0, 0, -2).UnixMilli()},
	}

	assert.Equal(t, 2, submissionStreak(impacts, now))
}

func TestSubmissionStreak_NoRecentSubmissions(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	impacts := []models.Impact{
		{Status: models.ImpactVerified, CreatedAt: now.AddDate(0, 0, -4).UnixMilli()},
	}

	assert.Equal(t, 0, submissionStreak(impacts, now))
}

func TestSubmissionStreak_Empty(t *testing.T) {
	assert.Equal(t, 0, submissionStreak(nil, time.Now()))
}

// ============================================================================
// TEST SUITE 3: ACHIEVEMENTS
// ============================================================================

func TestAchievementsFor_Progression(t *testing.T) {
	assert.Empty(t, achievementsFor(0, 0, 0, 0))

	first := achievementsFor(1, 0, 0, 0)
	assert.Len(t, first, 1)
	assert.Equal(t, "first_impact", first[0].Key)

	all := achievementsFor(20, 10, 5, 9)
	keys := make([]string, 0, len(all))
	for _, a := range all {
		keys = append(keys, a.Key)
	}
	assert.ElementsMatch(t, []string{"first_impact", "changemaker", "tree_planter", "streak_week"}, keys)
}

// ============================================================================
// TEST SUITE 4: AGGREGATE ORDERING
// ============================================================================

func TestSortedActionCounts_ByCountThenName(t *testing.T) {
	counts := sortedActionCounts(map[string]int{
		"Recycling":     2,
		"Tree Planting": 5,
		"Beach Cleanup": 5,
	})

	assert.Equal(t, "Beach Cleanup", counts[0].Action)
	assert.Equal(t, "Tree Planting", counts[1].Action)
	assert.Equal(t, "Recycling", counts[2].Action)
}

func TestTopWallets_LimitAndOrder(t *testing.T) {
	wallets := map[string]int{
		"0xaaa": 10,
		"0xbbb": 30,
		"0xccc": 20,
	}

	top := topWallets(wallets, 2)

	assert.Len(t, top, 2)
	assert.Equal(t, 30, top[0].Points)
	assert.Equal(t, 20, top[1].Points)
}

func TestSortedWeeklyCounts_Chronological(t *testing.T) {
	weeks := sortedWeeklyCounts(map[string]int{
		"2026-W10": 1,
		"2026-W02": 4,
		"2026-W07": 2,
	})

	assert.Equal(t, "2026-W02", weeks[0].Week)
	assert.Equal(t, "2026-W07", weeks[1].Week)
	assert.Equal(t, "2026-W10", weeks[2].Week)
}
