package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"impactx/internal/config"
	"impactx/internal/database/minio"
	"impactx/internal/event"
	"impactx/internal/models"
	"impactx/internal/oracle"
	"impactx/utils"

	"github.com/google/uuid"
)

// ErrInvalidDecision is returned when a human review carries a decision word
// outside the accepted set. No mutation happens in that case.
var ErrInvalidDecision = errors.New("invalid decision")

// The stores below are the slices of the repositories the submission and
// decision flows touch. The sqlx repositories satisfy them.
type impactStore interface {
	Create(ctx context.Context, impact *models.Impact) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Impact, error)
	GetAll(ctx context.Context, filters map[string]interface{}) ([]models.Impact, error)
	Update(ctx context.Context, impact *models.Impact) error
}

type verificationStore interface {
	Create(ctx context.Context, verification *models.Verification) error
	GetAll(ctx context.Context, limit int) ([]models.Verification, error)
	SyncStatus(ctx context.Context, impactID uuid.UUID, status models.ImpactStatus, aiScore *int) error
}

type referralStore interface {
	IncrementUses(ctx context.Context, code string) error
}

// ModerationService is the decision engine. It reconciles the combined LLM
// judgment, the image-authenticity probability and the heuristic text score
// into one verdict per submission, then finalizes status, score and reward.
type ModerationService struct {
	impactRepo       impactStore
	verificationRepo verificationStore
	referralRepo     referralStore
	oracle           *oracle.Client
	publisher        *event.ImpactPublisher
	storage          *minio.MinioClient
	cfg              config.ModerationConfig

	// alternateNext is the rotating approve/reject flag for test mode. It is
	// owned by this service instance, not package state.
	mu            sync.Mutex
	alternateNext bool
	rng           *rand.Rand
}

func NewModerationService(
	impactRepo impactStore,
	verificationRepo verificationStore,
	referralRepo referralStore,
	oracleClient *oracle.Client,
	publisher *event.ImpactPublisher,
	storage *minio.MinioClient,
	cfg config.ModerationConfig,
) *ModerationService {
	return &ModerationService{
		impactRepo:       impactRepo,
		verificationRepo: verificationRepo,
		referralRepo:     referralRepo,
		oracle:           oracleClient,
		publisher:        publisher,
		storage:          storage,
		cfg:              cfg,
		alternateNext:    true,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Moderate produces the verdict for one submission. Arbitration order is
// fixed: the image hard override wins over everything, then the model
// judgment, then the heuristic approval path, then pending.
func (s *ModerationService) Moderate(ctx context.Context, text, imageRef string) *models.ModerationVerdict {
	caption := ""
	if c, err := s.oracle.Caption(ctx, imageRef); err == nil {
		caption = c
	}

	judgment, err := s.oracle.Judge(ctx, text, caption, imageRef)
	if err != nil {
		judgment = nil
		if !errors.Is(err, oracle.ErrNoModel) {
			slog.Warn("Combined judgment unavailable, arbitrating without it", "error", err)
		}
	}

	imageVerdict := s.oracle.AssessImageAuthenticity(ctx, imageRef)

	verdict := &models.ModerationVerdict{
		Authenticity: models.AuthenticityUnknown,
		Relevance:    models.RelevanceHigh,
		Decision:     models.DecisionPending,
		Explanation:  "Model-assisted moderation",
		Image:        &imageVerdict,
		Model:        s.oracle.ModelName(),
	}
	if judgment != nil {
		if judgment.Authenticity != "" {
			verdict.Authenticity = judgment.Authenticity
		}
		if judgment.Relevance != "" {
			verdict.Relevance = judgment.Relevance
		}
		if judgment.Decision != "" {
			verdict.Decision = judgment.Decision
		}
		if judgment.Explanation != "" {
			verdict.Explanation = judgment.Explanation
		}
	}

	prob := imageVerdict.AIGeneratedProbability

	// Hard override. A flagged image rejects the post no matter what the
	// text judgment said.
	if prob >= s.cfg.AIThreshold {
		verdict.Authenticity = models.AuthenticityAI
		verdict.Decision = models.DecisionReject
		verdict.Explanation = fmt.Sprintf("%s Image flagged as AI-generated (%.0f%%).", verdict.Explanation, prob*100)
		return verdict
	}

	if judgment != nil &&
		judgment.Decision == models.DecisionApprove &&
		(verdict.Authenticity == models.AuthenticityReal || verdict.Authenticity == models.AuthenticityUnknown) &&
		verdict.Relevance != models.RelevanceLow {
		verdict.Decision = models.DecisionApprove
		return verdict
	}

	judgmentUsable := judgment != nil && judgment.Decision != "" && judgment.Decision != models.DecisionPending
	if !judgmentUsable && len(text) > 20 && prob < s.cfg.AIThreshold-0.1 {
		verdict.Decision = models.DecisionApprove
		verdict.Explanation = "Heuristically approved from claim text."
		return verdict
	}

	verdict.Decision = models.DecisionPending
	verdict.Explanation = verdict.Explanation + " Requires human review."
	return verdict
}

// FinalizeAuto is the deferred finalization pass that runs once per
// submission, a short delay after it is accepted. It re-runs moderation
// fresh rather than trusting any pre-check done at submission time.
func (s *ModerationService) FinalizeAuto(ctx context.Context, impactID uuid.UUID) error {
	impact, err := s.impactRepo.GetByID(ctx, impactID)
	if err != nil {
		return fmt.Errorf("failed to load impact for finalization: %w", err)
	}

	if impact.Status != models.ImpactPending {
		slog.Info("Impact already finalized, skipping auto pass", "impact_id", impactID, "status", impact.Status)
		return nil
	}

	if s.cfg.RequireHuman || !s.cfg.AutoVerify {
		slog.Info("Automatic finalization disabled, impact stays pending", "impact_id", impactID)
		return nil
	}

	text := impact.ActionType + " " + impact.Description
	verdict := s.Moderate(ctx, text, impact.Image)

	prob := verdict.Image.AIGeneratedProbability
	flagged := verdict.Flagged(s.cfg.AIThreshold)

	impact.Moderation = verdict
	impact.AIPhotoFlag = flagged
	impact.AIPhotoProb = &prob

	switch {
	case flagged:
		// Flagged posts still settle, but with a reduced score and a
		// penalized payout, and never a mint.
		impact.Status = models.ImpactVerified
		score := s.randInt(30, 49)
		reward := round2(0.4 * s.randFloat(10, 30))
		impact.AIScore = &score
		impact.Reward = &reward
		impact.NFTMinted = false

	case s.cfg.Alternate:
		if s.flipAlternate() {
			s.approveAuto(impact)
		} else {
			s.rejectAuto(impact)
		}

	case s.oracle.HasModel():
		s.approveAuto(impact)

	default:
		// No model configured and no test mode: leave pending for a human.
		slog.Info("No scoring model configured, impact held for human review", "impact_id", impactID)
	}

	// The referral counter moves here, once per finalization pass, never at
	// submission time.
	if impact.ReferralCode != nil && *impact.ReferralCode != "" {
		if err := s.referralRepo.IncrementUses(ctx, *impact.ReferralCode); err != nil {
			slog.Error("Failed to increment referral uses", "code", *impact.ReferralCode, "error", err)
		}
	}

	if err := s.impactRepo.Update(ctx, impact); err != nil {
		return fmt.Errorf("failed to persist finalized impact: %w", err)
	}

	if err := s.verificationRepo.SyncStatus(ctx, impact.ID, impact.Status, impact.AIScore); err != nil {
		slog.Error("Failed to sync verification feed", "impact_id", impact.ID, "error", err)
	}

	if impact.Status != models.ImpactPending {
		s.publishFinalized(ctx, impact, "auto")
	}
	s.archiveReport(ctx, impact)

	slog.Info("Impact auto-finalized",
		"impact_id", impact.ID,
		"status", impact.Status,
		"flagged", flagged,
		"ai_photo_prob", prob)

	return nil
}

// FinalizeHuman applies a reviewer decision. It is an override authority: it
// may run against an already-finalized impact and the last decision wins,
// with the audit entry recording who decided.
func (s *ModerationService) FinalizeHuman(ctx context.Context, impactID uuid.UUID, decision, reviewer, note string) (*models.Impact, error) {
	approve := false
	switch decision {
	case "approve":
		approve = true
	case "reject", "rejected", "disapprove":
		approve = false
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	impact, err := s.impactRepo.GetByID(ctx, impactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load impact for review: %w", err)
	}

	impact.HumanReview = &models.HumanReview{
		Reviewer:   reviewer,
		Decision:   decision,
		Note:       note,
		ReviewedAt: time.Now(),
	}

	if approve {
		impact.Status = models.ImpactVerified
		if impact.AIScore == nil || *impact.AIScore < 50 {
			score := s.randInt(85, 99)
			impact.AIScore = &score
		}
		if impact.Reward == nil || *impact.Reward <= 0 {
			reward := round2(s.randFloat(10, 30))
			impact.Reward = &reward
		}
		// Never mint over a flagged image, even on human approval.
		impact.NFTMinted = !impact.AIPhotoFlag
	} else {
		impact.Status = models.ImpactRejected
		score := 0
		reward := 0.0
		impact.AIScore = &score
		impact.Reward = &reward
		impact.NFTMinted = false
	}

	if err := s.impactRepo.Update(ctx, impact); err != nil {
		return nil, fmt.Errorf("failed to persist reviewed impact: %w", err)
	}

	if err := s.verificationRepo.SyncStatus(ctx, impact.ID, impact.Status, impact.AIScore); err != nil {
		slog.Error("Failed to sync verification feed", "impact_id", impact.ID, "error", err)
	}

	s.publishFinalized(ctx, impact, reviewer)
	s.archiveReport(ctx, impact)

	slog.Info("Impact finalized by human review",
		"impact_id", impact.ID,
		"status", impact.Status,
		"reviewer", reviewer)

	return impact, nil
}

func (s *ModerationService) approveAuto(impact *models.Impact) {
	impact.Status = models.ImpactVerified
	score := s.randInt(85, 99)
	reward := round2(s.randFloat(10, 30))
	impact.AIScore = &score
	impact.Reward = &reward
	impact.NFTMinted = true
}

func (s *ModerationService) rejectAuto(impact *models.Impact) {
	impact.Status = models.ImpactRejected
	score := 0
	reward := 0.0
	impact.AIScore = &score
	impact.Reward = &reward
	impact.NFTMinted = false
}

// flipAlternate consumes the rotating flag: returns its current value and
// inverts it for the next caller.
func (s *ModerationService) flipAlternate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.alternateNext
	s.alternateNext = !s.alternateNext
	return current
}

func (s *ModerationService) publishFinalized(ctx context.Context, impact *models.Impact, finalizedBy string) {
	if s.publisher == nil {
		return
	}
	evt := event.ImpactFinalizedEvent{
		ImpactID:      impact.ID,
		WalletAddress: impact.WalletAddress,
		Status:        impact.Status,
		AIScore:       impact.AIScore,
		Reward:        impact.Reward,
		NFTMinted:     impact.NFTMinted,
		AIPhotoFlag:   impact.AIPhotoFlag,
		FinalizedBy:   finalizedBy,
		FinalizedAt:   time.Now().UnixMilli(),
	}
	if err := s.publisher.PublishFinalized(ctx, evt); err != nil {
		slog.Error("Failed to publish impact finalized event", "impact_id", impact.ID, "error", err)
	}
}

// archiveReport stores the full finalization record in the reports bucket,
// one object per finalization pass. Best effort, audit only.
func (s *ModerationService) archiveReport(ctx context.Context, impact *models.Impact) {
	if s.storage == nil {
		return
	}

	data, err := utils.SerializeModel(impact)
	if err != nil {
		return
	}

	objectName := fmt.Sprintf("%s/%d.json", impact.ID, time.Now().UnixMilli())
	if err := s.storage.UploadBytes(ctx, minio.Storage.Reports, objectName, data, "application/json"); err != nil {
		slog.Warn("Failed to archive moderation report", "impact_id", impact.ID, "error", err)
	}
}

// randInt returns a uniform integer in [min, max] inclusive.
func (s *ModerationService) randInt(min, max int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Intn(max-min+1)
}

func (s *ModerationService) randFloat(min, max float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Float64()*(max-min)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
