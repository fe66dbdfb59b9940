package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"impactx/internal/database/redis"
	"impactx/internal/models"
	"impactx/internal/repository"
	"impactx/utils"
)

const (
	leaderboardCacheKey = "impactx:leaderboard"
	metricsCacheKey     = "impactx:metrics"
	aggregateCacheTTL   = 30 * time.Second
)

// MetricsService computes the public aggregates: leaderboard, community
// metrics and per-wallet profiles. Results are cached briefly in Redis since
// every computation is a full scan of the impact set.
type MetricsService struct {
	impactRepo *repository.ImpactRepository
	cache      *redis.Client
}

func NewMetricsService(impactRepo *repository.ImpactRepository, cache *redis.Client) *MetricsService {
	return &MetricsService{impactRepo: impactRepo, cache: cache}
}

// GetLeaderboard ranks wallets by total verified score, highest first.
func (s *MetricsService) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardRow, error) {
	if s.cache != nil {
		if data, err := s.cache.GetCached(ctx, leaderboardCacheKey); err == nil {
			var rows []models.LeaderboardRow
			if utils.DeserializeModel(data, &rows) == nil {
				return capRows(rows, limit), nil
			}
		} else if !redis.IsCacheMiss(err) {
			slog.Warn("Leaderboard cache read failed", "error", err)
		}
	}

	verified, err := s.impactRepo.GetAll(ctx, map[string]interface{}{"status": models.ImpactVerified})
	if err != nil {
		return nil, err
	}

	type agg struct {
		points  int
		actions int
		rewards float64
	}
	byWallet := map[string]*agg{}
	for _, impact := range verified {
		a := byWallet[impact.WalletAddress]
		if a == nil {
			a = &agg{}
			byWallet[impact.WalletAddress] = a
		}
		if impact.AIScore != nil {
			a.points += *impact.AIScore
		}
		a.actions++
		if impact.Reward != nil {
			a.rewards += *impact.Reward
		}
	}

	rows := make([]models.LeaderboardRow, 0, len(byWallet))
	for wallet, a := range byWallet {
		rows = append(rows, models.LeaderboardRow{
			Username:        ShortWallet(wallet),
			Wallet:          wallet,
			ImpactPoints:    a.points,
			ActionsVerified: a.actions,
			RewardsEarned:   round2(a.rewards),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ImpactPoints != rows[j].ImpactPoints {
			return rows[i].ImpactPoints > rows[j].ImpactPoints
		}
		return rows[i].Wallet < rows[j].Wallet
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	s.storeCache(ctx, leaderboardCacheKey, rows)
	return capRows(rows, limit), nil
}

// GetPublicMetrics computes the community dashboard numbers.
func (s *MetricsService) GetPublicMetrics(ctx context.Context) (*models.PublicMetrics, error) {
	if s.cache != nil {
		if data, err := s.cache.GetCached(ctx, metricsCacheKey); err == nil {
			var metrics models.PublicMetrics
			if utils.DeserializeModel(data, &metrics) == nil {
				return &metrics, nil
			}
		} else if !redis.IsCacheMiss(err) {
			slog.Warn("Metrics cache read failed", "error", err)
		}
	}

	verified, err := s.impactRepo.GetAll(ctx, map[string]interface{}{"status": models.ImpactVerified})
	if err != nil {
		return nil, err
	}

	wallets := map[string]int{}
	weeks := map[string]int{}
	actions := map[string]int{}
	totalRewards := 0.0

	for _, impact := range verified {
		if impact.AIScore != nil {
			wallets[impact.WalletAddress] += *impact.AIScore
		} else {
			wallets[impact.WalletAddress] += 0
		}
		weeks[isoWeek(impact.CreatedAt)]++
		actions[impact.ActionType]++
		if impact.Reward != nil {
			totalRewards += *impact.Reward
		}
	}

	metrics := &models.PublicMetrics{
		Totals: models.MetricsTotals{
			VerifiedActions: len(verified),
			UniqueWallets:   len(wallets),
			TotalRewards:    round2(totalRewards),
		},
		WeeklyTimeSeries: sortedWeeklyCounts(weeks),
		ByAction:         sortedActionCounts(actions),
		TopWallets:       topWallets(wallets, 10),
	}

	s.storeCache(ctx, metricsCacheKey, metrics)
	return metrics, nil
}

// GetProfile summarizes one wallet: totals over verified impacts, submission
// streak and earned achievements.
func (s *MetricsService) GetProfile(ctx context.Context, wallet string) (*models.ProfileSummary, error) {
	if wallet == "" {
		return nil, fmt.Errorf("wallet is required")
	}

	impacts, err := s.impactRepo.GetAll(ctx, map[string]interface{}{"wallet_address": wallet})
	if err != nil {
		return nil, err
	}

	totalRewards := 0.0
	scoreSum := 0
	verifiedCount := 0
	treeCount := 0
	actions := map[string]int{}

	for _, impact := range impacts {
		actions[impact.ActionType]++
		if impact.Status != models.ImpactVerified {
			continue
		}
		verifiedCount++
		if impact.AIScore != nil {
			scoreSum += *impact.AIScore
		}
		if impact.Reward != nil {
			totalRewards += *impact.Reward
		}
		if strings.Contains(strings.ToLower(impact.ActionType), "tree") {
			treeCount++
		}
	}

	avgScore := 0
	if verifiedCount > 0 {
		avgScore = scoreSum / verifiedCount
	}

	streak := submissionStreak(impacts, time.Now())

	summary := &models.ProfileSummary{
		Wallet: wallet,
		Totals: models.ProfileTotals{
			TotalImpacts: len(impacts),
			TotalRewards: round2(totalRewards),
			AvgScore:     avgScore,
		},
		StreakDays:   streak,
		Achievements: achievementsFor(len(impacts), verifiedCount, treeCount, streak),
		TopActions:   capActions(sortedActionCounts(actions), 3),
	}

	return summary, nil
}

// InvalidateAggregates drops the cached leaderboard and metrics. Called after
// writes that change verified totals, and by the dev seeder.
func (s *MetricsService) InvalidateAggregates(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, leaderboardCacheKey, metricsCacheKey); err != nil {
		slog.Warn("Failed to invalidate aggregate caches", "error", err)
	}
}

func (s *MetricsService) storeCache(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	data, err := utils.SerializeModel(v)
	if err != nil {
		return
	}
	if err := s.cache.SetCached(ctx, key, data, aggregateCacheTTL); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
}

func isoWeek(epochMs int64) string {
	year, week := time.UnixMilli(epochMs).UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// submissionStreak counts consecutive UTC days with at least one verified
// impact, ending today or yesterday. Pending and rejected submissions do not
// hold a streak.
func submissionStreak(impacts []models.Impact, now time.Time) int {
	days := map[string]bool{}
	for _, impact := range impacts {
		if impact.Status != models.ImpactVerified {
			continue
		}
		days[time.UnixMilli(impact.CreatedAt).UTC().Format("2006-01-02")] = true
	}

	day := now.UTC()
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
		if !days[day.Format("2006-01-02")] {
			return 0
		}
	}

	streak := 0
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func achievementsFor(total, verified, trees, streak int) []models.Achievement {
	achievements := []models.Achievement{}
	if total >= 1 {
		achievements = append(achievements, models.Achievement{Key: "first_impact", Label: "First Impact"})
	}
	if verified >= 5 {
		achievements = append(achievements, models.Achievement{Key: "changemaker", Label: "Changemaker"})
	}
	if trees >= 3 {
		achievements = append(achievements, models.Achievement{Key: "tree_planter", Label: "Tree Planter"})
	}
	if streak >= 7 {
		achievements = append(achievements, models.Achievement{Key: "streak_week", Label: "7-Day Streak"})
	}
	return achievements
}

func sortedWeeklyCounts(weeks map[string]int) []models.WeeklyCount {
	out := make([]models.WeeklyCount, 0, len(weeks))
	for week, count := range weeks {
		out = append(out, models.WeeklyCount{Week: week, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out
}

func sortedActionCounts(actions map[string]int) []models.ActionCount {
	out := make([]models.ActionCount, 0, len(actions))
	for action, count := range actions {
		out = append(out, models.ActionCount{Action: action, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Action < out[j].Action
	})
	return out
}

func topWallets(wallets map[string]int, limit int) []models.WalletPoints {
	out := make([]models.WalletPoints, 0, len(wallets))
	for wallet, points := range wallets {
		out = append(out, models.WalletPoints{Wallet: ShortWallet(wallet), Points: points})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Wallet < out[j].Wallet
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func capRows(rows []models.LeaderboardRow, limit int) []models.LeaderboardRow {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func capActions(actions []models.ActionCount, limit int) []models.ActionCount {
	if limit > 0 && len(actions) > limit {
		return actions[:limit]
	}
	return actions
}
