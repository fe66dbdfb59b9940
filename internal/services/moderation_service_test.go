package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"impactx/internal/config"
	"impactx/internal/models"
	"impactx/internal/oracle"
	"impactx/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// newTestModerationService runs without a model, without a database and
// without a broker. Moderate and the decision helpers never touch those.
func newTestModerationService(cfg config.ModerationConfig) *ModerationService {
	return &ModerationService{
		oracle:        oracle.NewClient(nil, nil, "http://localhost:8787"),
		cfg:           cfg,
		alternateNext: true,
		rng:           rand.New(rand.NewSource(1)),
	}
}

func defaultModerationConfig() config.ModerationConfig {
	return config.ModerationConfig{
		AIThreshold: 0.5,
		AutoVerify:  true,
	}
}

// fakeImpactStore keeps impacts in memory. Reads hand out copies so mutations
// only land through Update, the same contract the sqlx repository gives.
type fakeImpactStore struct {
	impacts map[uuid.UUID]*models.Impact
	updates int
}

func newFakeImpactStore() *fakeImpactStore {
	return &fakeImpactStore{impacts: map[uuid.UUID]*models.Impact{}}
}

func (f *fakeImpactStore) Create(ctx context.Context, impact *models.Impact) error {
	copied := *impact
	f.impacts[impact.ID] = &copied
	return nil
}

func (f *fakeImpactStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Impact, error) {
	impact, ok := f.impacts[id]
	if !ok {
		return nil, fmt.Errorf("impact not found")
	}
	copied := *impact
	return &copied, nil
}

func (f *fakeImpactStore) GetAll(ctx context.Context, filters map[string]interface{}) ([]models.Impact, error) {
	out := make([]models.Impact, 0, len(f.impacts))
	for _, impact := range f.impacts {
		out = append(out, *impact)
	}
	return out, nil
}

func (f *fakeImpactStore) Update(ctx context.Context, impact *models.Impact) error {
	copied := *impact
	f.impacts[impact.ID] = &copied
	f.updates++
	return nil
}

type fakeVerificationStore struct {
	rows      []models.Verification
	lastLimit int
	syncs     int
}

func (f *fakeVerificationStore) Create(ctx context.Context, verification *models.Verification) error {
	f.rows = append(f.rows, *verification)
	return nil
}

func (f *fakeVerificationStore) GetAll(ctx context.Context, limit int) ([]models.Verification, error) {
	f.lastLimit = limit
	if limit > 0 && limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeVerificationStore) SyncStatus(ctx context.Context, impactID uuid.UUID, status models.ImpactStatus, aiScore *int) error {
	f.syncs++
	for i := range f.rows {
		if f.rows[i].ImpactID == impactID {
			f.rows[i].Status = status
			f.rows[i].AIScore = aiScore
		}
	}
	return nil
}

type fakeReferralStore struct {
	increments map[string]int
}

func (f *fakeReferralStore) IncrementUses(ctx context.Context, code string) error {
	f.increments[code]++
	return nil
}

// newFakeBackedModerationService wires the service to in-memory stores so the
// mutation paths of FinalizeAuto and FinalizeHuman run end to end.
func newFakeBackedModerationService(cfg config.ModerationConfig) (*ModerationService, *fakeImpactStore, *fakeVerificationStore, *fakeReferralStore) {
	impacts := newFakeImpactStore()
	verifications := &fakeVerificationStore{}
	referrals := &fakeReferralStore{increments: map[string]int{}}

	service := NewModerationService(impacts, verifications, referrals,
		oracle.NewClient(nil, nil, "http://localhost:8787"), nil, nil, cfg)
	service.rng = rand.New(rand.NewSource(1))

	return service, impacts, verifications, referrals
}

func newPendingImpact(referralCode string) *models.Impact {
	impact := &models.Impact{
		ID:            uuid.New(),
		WalletAddress: "0x1111111111111111111111111111111111111111",
		ActionType:    "Tree Planting",
		Description:   "Planted saplings along the river bank today.",
		Image:         "/uploads/river-bank.jpg",
		Status:        models.ImpactPending,
		CreatedAt:     time.Now().UnixMilli(),
	}
	if referralCode != "" {
		impact.ReferralCode = &referralCode
	}
	return impact
}

// ============================================================================
// TEST SUITE 1: VERDICT ARBITRATION
// ============================================================================

func TestModerate_HardOverrideWinsOverEverything(t *testing.T) {
	service := newTestModerationService(defaultModerationConfig())

	// Filename heuristic yields probability 0.95, at or above the threshold.
	verdict := service.Moderate(context.Background(),
		"Tree Planting We planted saplings along the river bank today.",
		"/uploads/stable-diffusion-render.png")

	assert.Equal(t, models.DecisionReject, verdict.Decision)
	assert.Equal(t, models.AuthenticityAI, verdict.Authenticity)
	assert.NotNil(t, verdict.Image)
	assert.Equal(t, 0.95, verdict.Image.AIGeneratedProbability)
	assert.Contains(t, verdict.Explanation, "95%")
}

func TestModerate_HeuristicApprovalPath(t *testing.T) {
	service := newTestModerationService(defaultModerationConfig())

	// No model: judgment is absent, probability 0.3 < 0.4, text is long
	// enough, so the heuristic path approves.
	verdict := service.Moderate(context.Background(),
		"Beach Cleanup Collected twelve bags of plastic waste.",
		"/uploads/beach-photo.jpg")

	assert.Equal(t, models.DecisionApprove, verdict.Decision)
	assert.Equal(t, models.AuthenticityUnknown, verdict.Authenticity)
	assert.Contains(t, verdict.Explanation, "Heuristically approved")
}

func TestModerate_ShortTextStaysPending(t *testing.T) {
	service := newTestModerationService(defaultModerationConfig())

	verdict := service.Moderate(context.Background(), "Tree", "/uploads/photo.jpg")

	assert.Equal(t, models.DecisionPending, verdict.Decision)
	assert.Contains(t, verdict.Explanation, "Requires human review")
}

func TestModerate_ProbabilityNearThresholdStaysPending(t *testing.T) {
	cfg := defaultModerationConfig()
	// No-image probability is 0.2; with the threshold at 0.25 the margin
	// band [0.15, 0.25) blocks the heuristic approval.
	cfg.AIThreshold = 0.25

	service := newTestModerationService(cfg)
	verdict := service.Moderate(context.Background(),
		"Recycling Drive gathered forty kilograms of material.", "")

	assert.Equal(t, models.DecisionPending, verdict.Decision)
}

func TestModerate_VerdictRecordsModel(t *testing.T) {
	service := newTestModerationService(defaultModerationConfig())

	verdict := service.Moderate(context.Background(), "Tree Planting near the school today.", "")

	assert.Equal(t, "heuristic", verdict.Model)
}

// ============================================================================
// TEST SUITE 2: ALTERNATE MODE ROTATION
// ============================================================================

func TestFlipAlternate_Rotates(t *testing.T) {
	service := newTestModerationService(defaultModerationConfig())

	assert.True(t, service.flipAlternate())
	assert.False(t, service.flipAlternate())
	assert.True(t, service.flipAlternate())
	assert.False(t, service.flipAlternate())
}

// ============================================================================
// TEST SUITE 3: HUMAN REVIEW VALIDATION
// ============================================================================

func TestFinalizeHuman_InvalidDecisionRejectedBeforeAnyMutation(t *testing.T) {
	service := newTestModerationService(defaultModerationConfig())

	// Validation runs before any repository access, so a nil repo proves
	// nothing was touched.
	_, err := service.FinalizeHuman(context.Background(), uuid.New(), "escalate", "reviewer-1", "")

	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestFinalizeHuman_AcceptedDecisionWords(t *testing.T) {
	for _, decision := range []string{"approve", "reject", "rejected", "disapprove"} {
		service := newTestModerationService(defaultModerationConfig())
		service.impactRepo = nil

		// Reaching the repository lookup means the decision word passed
		// validation; the nil repo then panics, which we trap here.
		func() {
			defer func() { recover() }()
			_, err := service.FinalizeHuman(context.Background(), uuid.New(), decision, "reviewer-1", "")
			assert.NotErrorIs(t, err, ErrInvalidDecision)
		}()
	}
}

// ============================================================================
// TEST SUITE 4: SCORE AND REWARD RANGES
// ============================================================================

func TestRandInt_InclusiveBounds(t *testing.T) {
	service := newTestModerationService(defaultModerationConfig())

	for i := 0; i < 1000; i++ {
		score := service.randInt(85, 99)
		assert.GreaterOrEqual(t, score, 85)
		assert.LessOrEqual(t, score, 99)
	}
}

func TestRandFloat_Bounds(t *testing.T) {
	service := newTestModerationService(defaultModerationConfig())

	for i := 0; i < 1000; i++ {
		reward := service.randFloat(10, 30)
		assert.GreaterOrEqual(t, reward, 10.0)
		assert.Less(t, reward, 30.0)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 12.35, round2(12.345001))
	assert.Equal(t, 1000.0, round2(1000.0))
	assert.Equal(t, 0.4, round2(0.4))
}

// ============================================================================
// TEST SUITE 5: FLAGGED PENALTY MATH
// ============================================================================

func TestFlaggedRewardPenalty(t *testing.T) {
	service := newTestModerationService(defaultModerationConfig())

	for i := 0; i < 200; i++ {
		reward := round2(0.4 * service.randFloat(10, 30))
		assert.GreaterOrEqual(t, reward, 4.0)
		assert.LessOrEqual(t, reward, 12.0)
	}
}

// ============================================================================
// TEST SUITE 6: DECISION PROPERTIES
// ============================================================================

// Human review is an override authority: re-reviewing an already verified
// impact applies the new decision in full, and the audit entry records the
// last reviewer.
func TestFinalizeHuman_RejectAfterApproveLastWriteWins(t *testing.T) {
	service, impacts, _, _ := newFakeBackedModerationService(defaultModerationConfig())

	impact := newPendingImpact("")
	assert.NoError(t, impacts.Create(context.Background(), impact))

	approved, err := service.FinalizeHuman(context.Background(), impact.ID, "approve", "reviewer-1", "")
	assert.NoError(t, err)
	assert.Equal(t, models.ImpactVerified, approved.Status)
	assert.True(t, approved.NFTMinted)
	assert.GreaterOrEqual(t, *approved.AIScore, 85)
	assert.Greater(t, *approved.Reward, 0.0)

	rejected, err := service.FinalizeHuman(context.Background(), impact.ID, "reject", "reviewer-2", "second look")
	assert.NoError(t, err)
	assert.Equal(t, models.ImpactRejected, rejected.Status)
	assert.Equal(t, 0, *rejected.AIScore)
	assert.Equal(t, 0.0, *rejected.Reward)
	assert.False(t, rejected.NFTMinted)
	assert.Equal(t, "reviewer-2", rejected.HumanReview.Reviewer)

	stored, err := impacts.GetByID(context.Background(), impact.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ImpactRejected, stored.Status)
	assert.Equal(t, 0, *stored.AIScore)
	assert.Equal(t, 0.0, *stored.Reward)
	assert.False(t, stored.NFTMinted)
}

// The referral counter moves exactly once, at auto finalization. Submission
// never touches it, a repeat finalization pass is skipped by the pending
// guard, and human review does not move it either.
func TestReferralIncrement_OnceAtFinalizationNeverAtSubmission(t *testing.T) {
	cfg := defaultModerationConfig()
	cfg.Alternate = true

	service, impacts, verifications, referrals := newFakeBackedModerationService(cfg)

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svcCfg := &config.ImpactServiceConfig{ModerationCfg: cfg}
	svcCfg.ModerationCfg.FinalizeDelay = time.Hour

	impactService := NewImpactService(appCtx, impacts, verifications, service,
		nil, worker.NewWorkingPool(1, 4), svcCfg)

	req := models.SubmitImpactRequest{
		WalletAddress: "0x1111111111111111111111111111111111111111",
		ActionType:    "Tree Planting",
		Description:   "Planted saplings along the river bank today.",
		ReferralCode:  "IMPACT-TREE",
	}
	impact, err := impactService.SubmitImpact(context.Background(), req, nil, "", "/uploads/river-bank.jpg")
	assert.NoError(t, err)
	assert.Equal(t, models.ImpactPending, impact.Status)
	assert.Equal(t, 0, referrals.increments["IMPACT-TREE"])

	// First pass settles the impact (alternate mode starts on approve) and
	// moves the counter.
	assert.NoError(t, service.FinalizeAuto(context.Background(), impact.ID))
	finalized, err := impacts.GetByID(context.Background(), impact.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ImpactVerified, finalized.Status)
	assert.Equal(t, 1, referrals.increments["IMPACT-TREE"])

	// Second pass finds a settled impact and does nothing.
	assert.NoError(t, service.FinalizeAuto(context.Background(), impact.ID))
	assert.Equal(t, 1, referrals.increments["IMPACT-TREE"])

	// Human override never moves the counter.
	_, err = service.FinalizeHuman(context.Background(), impact.ID, "approve", "reviewer-1", "")
	assert.NoError(t, err)
	assert.Equal(t, 1, referrals.increments["IMPACT-TREE"])
}

// A pending impact carries neither a score nor a reward; a settled one always
// carries both. The three fields move together.
func TestPendingImpactsCarryNoScoreOrReward(t *testing.T) {
	// No model configured, no alternate mode: the auto pass holds the impact
	// for a human and writes no score or reward.
	service, impacts, _, _ := newFakeBackedModerationService(defaultModerationConfig())

	impact := newPendingImpact("")
	assert.NoError(t, impacts.Create(context.Background(), impact))

	assert.NoError(t, service.FinalizeAuto(context.Background(), impact.ID))

	held, err := impacts.GetByID(context.Background(), impact.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ImpactPending, held.Status)
	assert.Nil(t, held.AIScore)
	assert.Nil(t, held.Reward)
	assert.False(t, held.NFTMinted)

	// Settling the impact fills both fields, on approval and on rejection.
	approved, err := service.FinalizeHuman(context.Background(), impact.ID, "approve", "reviewer-1", "")
	assert.NoError(t, err)
	assert.Equal(t, models.ImpactVerified, approved.Status)
	assert.NotNil(t, approved.AIScore)
	assert.NotNil(t, approved.Reward)

	rejected, err := service.FinalizeHuman(context.Background(), impact.ID, "reject", "reviewer-1", "")
	assert.NoError(t, err)
	assert.Equal(t, models.ImpactRejected, rejected.Status)
	assert.NotNil(t, rejected.AIScore)
	assert.NotNil(t, rejected.Reward)
}
