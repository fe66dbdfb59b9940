package models

// ============================================================================
// REQUEST / RESPONSE SHAPES
// ============================================================================

// SubmitImpactRequest carries the multipart form fields of a submission.
// The photo itself arrives as the "photo" file part.
type SubmitImpactRequest struct {
	WalletAddress string `form:"walletAddress" json:"wallet_address"`
	ActionType    string `form:"actionType" json:"action_type"`
	Description   string `form:"description" json:"description"`
	ReferralCode  string `form:"referralCode" json:"referral_code"`
}

// ReviewImpactRequest is the human-review decision payload.
type ReviewImpactRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

type CreatePoolRequest struct {
	Name    string  `json:"name"`
	StartAt int64   `json:"start_at"`
	EndAt   int64   `json:"end_at"`
	Budget  float64 `json:"budget"`
}

type ContributeRequest struct {
	Sponsor string  `json:"sponsor"`
	Amount  float64 `json:"amount"`
}

type NewReferralRequest struct {
	Wallet string `json:"wallet"`
}

type SeedRequest struct {
	Reset   bool `json:"reset"`
	Impacts int  `json:"impacts"`
}

// ============================================================================
// AGGREGATES (LEADERBOARD / METRICS / PROFILE)
// ============================================================================

type LeaderboardRow struct {
	Rank            int     `json:"rank"`
	Username        string  `json:"username"`
	Wallet          string  `json:"wallet"`
	ImpactPoints    int     `json:"impact_points"`
	ActionsVerified int     `json:"actions_verified"`
	RewardsEarned   float64 `json:"rewards_earned"`
}

type MetricsTotals struct {
	VerifiedActions int     `json:"verified_actions"`
	UniqueWallets   int     `json:"unique_wallets"`
	TotalRewards    float64 `json:"total_rewards"`
}

type WeeklyCount struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

type WalletPoints struct {
	Wallet string `json:"wallet"`
	Points int    `json:"points"`
}

type PublicMetrics struct {
	Totals           MetricsTotals  `json:"totals"`
	WeeklyTimeSeries []WeeklyCount  `json:"weekly_time_series"`
	ByAction         []ActionCount  `json:"by_action"`
	TopWallets       []WalletPoints `json:"top_wallets"`
}

type ProfileTotals struct {
	TotalImpacts int     `json:"total_impacts"`
	TotalRewards float64 `json:"total_rewards"`
	AvgScore     int     `json:"avg_score"`
}

type Achievement struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type ProfileSummary struct {
	Wallet       string        `json:"wallet"`
	Totals       ProfileTotals `json:"totals"`
	StreakDays   int           `json:"streak_days"`
	Achievements []Achievement `json:"achievements"`
	TopActions   []ActionCount `json:"top_actions"`
}
