package oracle

import (
	"context"
	"testing"

	"impactx/internal/models"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// noModelClient has no selector, so every model path reports ErrNoModel and
// the heuristics carry the verdicts.
func noModelClient() *Client {
	return NewClient(nil, nil, "http://localhost:8787")
}

// ============================================================================
// TEST SUITE 1: HEURISTIC CLAIM SCORING
// ============================================================================

func TestHeuristicScore_TreePlantingExample(t *testing.T) {
	client := noModelClient()

	result := client.HeuristicScore("Tree Planting", "We planted 10 saplings near the river.")

	// base 50, +10 tree, +5 digit run; combined text is under 120 chars
	assert.Equal(t, 65, result.Score)
	assert.NotEmpty(t, result.Reasoning)
}

func TestHeuristicScore_Deterministic(t *testing.T) {
	client := noModelClient()

	first := client.HeuristicScore("Beach Cleanup", "Collected 25 bags of plastic.")
	second := client.HeuristicScore("Beach Cleanup", "Collected 25 bags of plastic.")

	assert.Equal(t, first, second)
}

func TestHeuristicScore_AllBonusesClamped(t *testing.T) {
	client := noModelClient()

	longDescription := "We planted 120 trees during the beach cleanup event and spent the whole afternoon watering every sapling along the shoreline path."
	result := client.HeuristicScore("Tree Planting Beach Cleanup", longDescription)

	// base 50 +10 tree +8 beach/cleanup +10 length +5 digits = 83, under clamp
	assert.Equal(t, 83, result.Score)
}

func TestHeuristicScore_NoKeywords(t *testing.T) {
	client := noModelClient()

	result := client.HeuristicScore("Donation", "Gave away old clothes.")

	assert.Equal(t, 50, result.Score)
}

func TestHeuristicScore_ClampUpperBound(t *testing.T) {
	client := noModelClient()

	result := client.HeuristicScore("x", "y")

	assert.LessOrEqual(t, result.Score, 95)
	assert.GreaterOrEqual(t, result.Score, 0)
}

// ============================================================================
// TEST SUITE 2: IMAGE AUTHENTICITY FALLBACKS
// ============================================================================

func TestAssessImageAuthenticity_NoImage(t *testing.T) {
	client := noModelClient()

	verdict := client.AssessImageAuthenticity(context.Background(), "")

	assert.Equal(t, 0.2, verdict.AIGeneratedProbability)
	assert.Equal(t, models.ImageLabelUnknown, verdict.Label)
}

func TestAssessImageAuthenticity_SyntheticFilename(t *testing.T) {
	client := noModelClient()

	for _, name := range []string{
		"/uploads/stable-diffusion-output.png",
		"https://example.com/midjourney_art.jpg",
		"/uploads/generated-12.png",
		"/uploads/synthetic.webp",
	} {
		verdict := client.AssessImageAuthenticity(context.Background(), name)
		assert.Equal(t, 0.95, verdict.AIGeneratedProbability, "name %q should be flagged", name)
		assert.Equal(t, models.ImageLabelAI, verdict.Label)
	}
}

func TestAssessImageAuthenticity_OrganicFilename(t *testing.T) {
	client := noModelClient()

	verdict := client.AssessImageAuthenticity(context.Background(), "/uploads/beach-photo.jpg")

	assert.Equal(t, 0.3, verdict.AIGeneratedProbability)
	assert.Equal(t, models.ImageLabelUnknown, verdict.Label)
}

// ============================================================================
// TEST SUITE 3: MODEL-PATH TYPED ERRORS
// ============================================================================

func TestScoreClaim_NoModelConfigured(t *testing.T) {
	client := noModelClient()

	_, err := client.ScoreClaim(context.Background(), "Tree Planting", "desc", "")

	assert.ErrorIs(t, err, ErrNoModel)
}

func TestCaption_NoModelConfigured(t *testing.T) {
	client := noModelClient()

	_, err := client.Caption(context.Background(), "/uploads/photo.jpg")

	assert.ErrorIs(t, err, ErrNoModel)
}

func TestJudge_NoModelConfigured(t *testing.T) {
	client := noModelClient()

	judgment, err := client.Judge(context.Background(), "text", "", "")

	assert.Nil(t, judgment)
	assert.ErrorIs(t, err, ErrNoModel)
}

// ============================================================================
// TEST SUITE 4: JUDGMENT PARSING
// ============================================================================

func TestParseCombinedJudgment_FullResponse(t *testing.T) {
	judgment := parseCombinedJudgment(map[string]any{
		"authenticity": "real",
		"relevance":    "high",
		"decision":     "approve",
		"explanation":  "Looks like a genuine cleanup photo.",
	})

	assert.Equal(t, models.AuthenticityReal, judgment.Authenticity)
	assert.Equal(t, models.RelevanceHigh, judgment.Relevance)
	assert.Equal(t, models.DecisionApprove, judgment.Decision)
}

func TestParseCombinedJudgment_InvalidFieldsLeftEmpty(t *testing.T) {
	judgment := parseCombinedJudgment(map[string]any{
		"authenticity": "definitely-real",
		"decision":     "maybe",
	})

	assert.Empty(t, judgment.Authenticity)
	assert.Empty(t, judgment.Decision)
	assert.Empty(t, judgment.Relevance)
}

func TestParseCombinedJudgment_CaseInsensitive(t *testing.T) {
	judgment := parseCombinedJudgment(map[string]any{
		"decision": "APPROVE",
	})

	assert.Equal(t, models.DecisionApprove, judgment.Decision)
}

// ============================================================================
// TEST SUITE 5: SMALL HELPERS
// ============================================================================

func TestHasDigitRun(t *testing.T) {
	assert.True(t, hasDigitRun("planted 25 trees"))
	assert.True(t, hasDigitRun("planted 250 trees"))
	assert.False(t, hasDigitRun("planted 5 trees"))
	assert.False(t, hasDigitRun("no digits at all"))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.4))
	assert.Equal(t, 1.0, clamp01(1.7))
	assert.Equal(t, 0.5, clamp01(0.5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
