package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"impactx/internal/config"
	"impactx/internal/database/minio"
	"impactx/internal/models"
	"impactx/internal/worker"

	"github.com/google/uuid"
)

// ImpactService handles submission intake: photo storage, the pending record,
// the verifier-feed mirror row and the deferred finalization job.
type ImpactService struct {
	impactRepo       impactStore
	verificationRepo verificationStore
	moderation       *ModerationService
	storage          *minio.MinioClient
	pool             *worker.WorkingPool
	cfg              *config.ImpactServiceConfig

	// appCtx bounds deferred jobs; it is the same context the worker pool
	// runs under, so pending finalizations die with the pool.
	appCtx context.Context
}

func NewImpactService(
	appCtx context.Context,
	impactRepo impactStore,
	verificationRepo verificationStore,
	moderation *ModerationService,
	storage *minio.MinioClient,
	pool *worker.WorkingPool,
	cfg *config.ImpactServiceConfig,
) *ImpactService {
	return &ImpactService{
		impactRepo:       impactRepo,
		verificationRepo: verificationRepo,
		moderation:       moderation,
		storage:          storage,
		pool:             pool,
		cfg:              cfg,
		appCtx:           appCtx,
	}
}

// SubmitImpact accepts a claim. When photo bytes are present they are stored
// and the impact references the stored object; otherwise imageURL is used
// as-is. The returned impact is always pending; finalization runs later.
func (s *ImpactService) SubmitImpact(ctx context.Context, req models.SubmitImpactRequest, photo []byte, photoName, imageURL string) (*models.Impact, error) {
	if req.WalletAddress == "" || req.ActionType == "" {
		return nil, fmt.Errorf("walletAddress and actionType are required")
	}

	imageRef := imageURL
	if len(photo) > 0 {
		objectName := uuid.New().String() + safeExt(photoName)
		contentType := http.DetectContentType(photo)

		if err := s.storage.UploadBytes(ctx, minio.Storage.Uploads, objectName, photo, contentType); err != nil {
			return nil, fmt.Errorf("failed to store photo: %w", err)
		}
		imageRef = "/uploads/" + objectName
	}

	impact := &models.Impact{
		ID:            uuid.New(),
		WalletAddress: req.WalletAddress,
		ActionType:    req.ActionType,
		Description:   req.Description,
		Image:         imageRef,
		Status:        models.ImpactPending,
		CreatedAt:     time.Now().UnixMilli(),
	}
	if req.ReferralCode != "" {
		code := req.ReferralCode
		impact.ReferralCode = &code
	}

	if err := s.impactRepo.Create(ctx, impact); err != nil {
		return nil, err
	}

	verification := &models.Verification{
		ID:        fmt.Sprintf("VR-%04d", 1000+s.moderation.randInt(0, 8999)),
		Wallet:    ShortWallet(impact.WalletAddress),
		Action:    impact.ActionType,
		Status:    models.ImpactPending,
		Timestamp: time.Now().Format(time.RFC3339),
		ImpactID:  impact.ID,
	}
	if err := s.verificationRepo.Create(ctx, verification); err != nil {
		slog.Error("Failed to create verification feed row", "impact_id", impact.ID, "error", err)
	}

	impactID := impact.ID
	s.pool.SubmitAfter(s.appCtx, s.cfg.ModerationCfg.FinalizeDelay, func(jobCtx context.Context) error {
		return s.moderation.FinalizeAuto(jobCtx, impactID)
	})

	slog.Info("Impact submitted",
		"impact_id", impact.ID,
		"wallet", impact.WalletAddress,
		"action", impact.ActionType,
		"image", imageRef)

	return impact, nil
}

// GetImpacts lists impacts newest first, optionally filtered by wallet and
// status. limit <= 0 means no limit.
func (s *ImpactService) GetImpacts(ctx context.Context, wallet string, status models.ImpactStatus, limit int) ([]models.Impact, error) {
	filters := map[string]interface{}{}
	if wallet != "" {
		filters["wallet_address"] = wallet
	}
	if status != "" {
		if !models.IsValidImpactStatus(status) {
			return nil, fmt.Errorf("invalid status filter: %s", status)
		}
		filters["status"] = status
	}
	if limit > 0 {
		filters["limit"] = limit
	}

	impacts, err := s.impactRepo.GetAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	if impacts == nil {
		impacts = []models.Impact{}
	}
	return impacts, nil
}

func (s *ImpactService) GetImpactByID(ctx context.Context, id uuid.UUID) (*models.Impact, error) {
	return s.impactRepo.GetByID(ctx, id)
}

// defaultVerificationFeedLimit bounds the verifier feed when no limit is
// requested.
const defaultVerificationFeedLimit = 100

// GetVerifications returns the verifier feed, newest first.
func (s *ImpactService) GetVerifications(ctx context.Context, limit int) ([]models.Verification, error) {
	if limit <= 0 {
		limit = defaultVerificationFeedLimit
	}
	verifications, err := s.verificationRepo.GetAll(ctx, limit)
	if err != nil {
		return nil, err
	}
	if verifications == nil {
		verifications = []models.Verification{}
	}
	return verifications, nil
}

// GetUploadedPhoto reads a stored photo back out of object storage.
func (s *ImpactService) GetUploadedPhoto(ctx context.Context, objectName string) ([]byte, error) {
	if strings.Contains(objectName, "/") || strings.Contains(objectName, "..") {
		return nil, fmt.Errorf("invalid object name")
	}
	return s.storage.GetFileBytes(ctx, minio.Storage.Uploads, objectName)
}

// ShortWallet renders a wallet address in the feed-friendly 0x1234...abcd form.
func ShortWallet(wallet string) string {
	if len(wallet) <= 10 {
		return wallet
	}
	return wallet[:6] + "..." + wallet[len(wallet)-4:]
}

// safeExt keeps only a plain extension from an uploaded filename.
func safeExt(name string) string {
	ext := strings.ToLower(path.Ext(path.Base(name)))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return ext
	default:
		return ".jpg"
	}
}
