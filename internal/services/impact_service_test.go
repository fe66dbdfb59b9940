package services

import (
	"context"
	"testing"

	"impactx/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST SUITE 1: VERIFICATION FEED LIMIT
// ============================================================================

func TestGetVerifications_DefaultsToLatestHundred(t *testing.T) {
	verifications := &fakeVerificationStore{}
	service := &ImpactService{verificationRepo: verifications}

	_, err := service.GetVerifications(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 100, verifications.lastLimit)
}

func TestGetVerifications_ExplicitLimitHonored(t *testing.T) {
	verifications := &fakeVerificationStore{}
	for i := 0; i < 5; i++ {
		verifications.rows = append(verifications.rows, models.Verification{
			ID:       "VR-100" + string(rune('0'+i)),
			Status:   models.ImpactPending,
			ImpactID: uuid.New(),
		})
	}
	service := &ImpactService{verificationRepo: verifications}

	feed, err := service.GetVerifications(context.Background(), 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, verifications.lastLimit)
	assert.Len(t, feed, 3)
}

func TestGetVerifications_EmptyFeedIsNotNil(t *testing.T) {
	service := &ImpactService{verificationRepo: &fakeVerificationStore{}}

	feed, err := service.GetVerifications(context.Background(), 0)

	assert.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

// ============================================================================
// TEST SUITE 2: UPLOAD FILENAME SANITIZATION
// ============================================================================

func TestSafeExt(t *testing.T) {
	assert.Equal(t, ".png", safeExt("photo.PNG"))
	assert.Equal(t, ".webp", safeExt("nested/dir/pic.webp"))
	assert.Equal(t, ".jpg", safeExt("script.sh"))
	assert.Equal(t, ".jpg", safeExt(""))
}
