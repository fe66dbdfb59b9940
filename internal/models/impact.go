package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// IMPACT (SUBMITTED PROOF-OF-IMPACT CLAIMS)
// ============================================================================

type Impact struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	WalletAddress string             `json:"wallet_address" db:"wallet_address"`
	ActionType    string             `json:"action_type" db:"action_type"`
	Description   string             `json:"description" db:"description"`
	Image         string             `json:"image" db:"image"`
	Status        ImpactStatus       `json:"status" db:"status"`
	AIScore       *int               `json:"ai_score" db:"ai_score"`
	Reward        *float64           `json:"reward" db:"reward"`
	NFTMinted     bool               `json:"nft_minted" db:"nft_minted"`
	AIPhotoFlag   bool               `json:"ai_photo_flag" db:"ai_photo_flag"`
	AIPhotoProb   *float64           `json:"ai_photo_prob,omitempty" db:"ai_photo_prob"`
	Moderation    *ModerationVerdict `json:"moderation,omitempty" db:"moderation"`
	HumanReview   *HumanReview       `json:"human_review,omitempty" db:"human_review"`
	CreatedAt     int64              `json:"created_at" db:"created_at"`
	ReferralCode  *string            `json:"referral_code,omitempty" db:"referral_code"`
}

// ModerationVerdict is the full arbitration output retained on the impact for audit.
type ModerationVerdict struct {
	Authenticity Authenticity  `json:"authenticity"`
	Relevance    Relevance     `json:"relevance"`
	Decision     Decision      `json:"decision"`
	Explanation  string        `json:"explanation"`
	Image        *ImageVerdict `json:"image,omitempty"`
	Model        string        `json:"model"`
}

// ImageVerdict is the image-authenticity sub-signal.
type ImageVerdict struct {
	AIGeneratedProbability float64    `json:"ai_generated_probability"`
	Label                  ImageLabel `json:"label"`
	Reasoning              string     `json:"reasoning"`
}

// HumanReview is the audit entry written by the human-review endpoint.
type HumanReview struct {
	Reviewer   string    `json:"reviewer"`
	Decision   string    `json:"decision"`
	Note       string    `json:"note,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Verification is a verifier-feed row mirroring an impact.
type Verification struct {
	ID        string       `json:"id" db:"id"`
	Wallet    string       `json:"wallet" db:"wallet"`
	Action    string       `json:"action" db:"action"`
	Status    ImpactStatus `json:"status" db:"status"`
	AIScore   *int         `json:"ai_score" db:"ai_score"`
	Timestamp string       `json:"timestamp" db:"timestamp"`
	ImpactID  uuid.UUID    `json:"impact_id" db:"impact_id"`
}

// Flagged reports whether the image sub-signal crossed the given threshold.
func (v *ModerationVerdict) Flagged(threshold float64) bool {
	return v.Image != nil && v.Image.AIGeneratedProbability >= threshold
}

func (v ModerationVerdict) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *ModerationVerdict) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("ModerationVerdict: Scan failed, expected []byte but got %T", value)
	}
	return json.Unmarshal(b, v)
}

func (h HumanReview) Value() (driver.Value, error) {
	return json.Marshal(h)
}

func (h *HumanReview) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("HumanReview: Scan failed, expected []byte but got %T", value)
	}
	return json.Unmarshal(b, h)
}
