package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"impactx/internal/ai/gemini"
	"impactx/internal/database/minio"
	"impactx/internal/models"
)

// Failure taxonomy. The moderation engine decides what fallback to apply;
// the adapter only reports why the model path was unusable.
var (
	ErrNoModel          = errors.New("no scoring model configured")
	ErrImageUnavailable = errors.New("image unavailable")
	ErrUnparseableReply = errors.New("unparseable model reply")
)

// ClaimScore is the text-scoring result: a 0-100 confidence plus reasoning.
type ClaimScore struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// CombinedJudgment is the structured LLM judgment on a post. A nil
// *CombinedJudgment means "no usable judgment", which is distinct from a
// judgment whose decision is pending.
type CombinedJudgment struct {
	Authenticity models.Authenticity `json:"authenticity"`
	Relevance    models.Relevance    `json:"relevance"`
	Decision     models.Decision     `json:"decision"`
	Explanation  string              `json:"explanation"`
}

// Client wraps the Gemini-backed scoring oracle and its local heuristics
// behind one contract, so callers never branch on whether an API key exists.
type Client struct {
	selector   *gemini.GeminiClientSelector
	minioStore *minio.MinioClient
	httpClient *http.Client
	serviceURL string
}

func NewClient(selector *gemini.GeminiClientSelector, minioStore *minio.MinioClient, serviceURL string) *Client {
	return &Client{
		selector:   selector,
		minioStore: minioStore,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		serviceURL: strings.TrimSuffix(serviceURL, "/"),
	}
}

// HasModel reports whether a generative model is configured.
func (c *Client) HasModel() bool {
	return c.selector != nil && c.selector.GetClientCount() > 0
}

// ModelName identifies which scoring path is active, for verdict audit fields.
func (c *Client) ModelName() string {
	if c.HasModel() {
		return "gemini-pro+flash"
	}
	return "heuristic"
}

// ScoreClaim asks the model for a 0-100 confidence that the claim is genuine.
// Callers fall back to HeuristicScore when this errors.
func (c *Client) ScoreClaim(ctx context.Context, actionType, description, imageRef string) (ClaimScore, error) {
	if !c.HasModel() {
		return ClaimScore{}, ErrNoModel
	}

	prompt := gemini.BuildClaimScorePrompt(actionType, description, imageRef)
	resp, err := gemini.SendTextWithRetry(ctx, prompt, c.selector)
	if err != nil {
		return ClaimScore{}, fmt.Errorf("claim score request failed: %w", err)
	}

	raw, ok := resp["score"].(float64)
	if !ok {
		return ClaimScore{}, fmt.Errorf("%w: missing score field", ErrUnparseableReply)
	}

	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	reasoning := "No reasoning"
	if s, ok := resp["reasoning"].(string); ok && s != "" {
		reasoning = truncate(s, 280)
	}

	return ClaimScore{Score: score, Reasoning: reasoning}, nil
}

// AssessImageAuthenticity estimates the probability the referenced photo is
// synthetic. Every failure mode maps to a documented verdict value, so this
// never blocks a submission.
func (c *Client) AssessImageAuthenticity(ctx context.Context, imageRef string) models.ImageVerdict {
	if imageRef == "" {
		return models.ImageVerdict{AIGeneratedProbability: 0.2, Label: models.ImageLabelUnknown, Reasoning: "No image provided"}
	}

	if !c.HasModel() {
		return keywordImageVerdict(imageRef)
	}

	data, err := c.FetchImageBytes(ctx, imageRef)
	if err != nil {
		slog.Warn("Image fetch failed for authenticity assessment", "image", imageRef, "error", err)
		return models.ImageVerdict{AIGeneratedProbability: 0.4, Label: models.ImageLabelUnknown, Reasoning: "Could not fetch image"}
	}

	resp, err := gemini.SendWithImageAndRetry(ctx, gemini.BuildForensicPrompt(), data, c.selector)
	if err != nil {
		slog.Warn("Forensic assessment request failed", "image", imageRef, "error", err)
		return models.ImageVerdict{AIGeneratedProbability: 0.7, Label: models.ImageLabelUnknown, Reasoning: "Unparseable model output"}
	}

	prob, ok := resp["aiGeneratedProbability"].(float64)
	if !ok {
		return models.ImageVerdict{AIGeneratedProbability: 0.7, Label: models.ImageLabelUnknown, Reasoning: "Unparseable model output"}
	}
	prob = clamp01(prob)

	label := models.ImageLabelReal
	if prob > 0.5 {
		label = models.ImageLabelAI
	}
	if s, ok := resp["label"].(string); ok {
		switch models.ImageLabel(s) {
		case models.ImageLabelAI, models.ImageLabelReal, models.ImageLabelUnknown:
			label = models.ImageLabel(s)
		}
	}

	reasoning := "Model output"
	if s, ok := resp["reasoning"].(string); ok && s != "" {
		reasoning = truncate(s, 200)
	}

	return models.ImageVerdict{AIGeneratedProbability: prob, Label: label, Reasoning: reasoning}
}

// Caption produces a best-effort one-sentence literal description of the image.
func (c *Client) Caption(ctx context.Context, imageRef string) (string, error) {
	if !c.HasModel() {
		return "", ErrNoModel
	}
	if imageRef == "" {
		return "", ErrImageUnavailable
	}

	data, err := c.FetchImageBytes(ctx, imageRef)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}

	text, err := gemini.SendCaptionWithRetry(ctx, gemini.BuildCaptionPrompt(), data, c.selector)
	if err != nil {
		return "", fmt.Errorf("caption request failed: %w", err)
	}

	return truncate(strings.ReplaceAll(text, "\n", " "), 240), nil
}

// Judge runs the combined text+vision moderation prompt. A nil judgment with
// a nil error never occurs; callers treat any error as "judgment absent".
func (c *Client) Judge(ctx context.Context, text, caption, imageRef string) (*CombinedJudgment, error) {
	if !c.HasModel() {
		return nil, ErrNoModel
	}

	prompt := gemini.BuildCombinedModerationPrompt(text, caption)

	// The image is attached when available; the judgment can stand on text
	// plus caption alone.
	var imageData []byte
	if imageRef != "" {
		if data, err := c.FetchImageBytes(ctx, imageRef); err == nil {
			imageData = data
		}
	}

	resp, err := gemini.SendWithImageAndRetry(ctx, prompt, imageData, c.selector)
	if err != nil {
		return nil, fmt.Errorf("combined judgment request failed: %w", err)
	}

	return parseCombinedJudgment(resp), nil
}

func parseCombinedJudgment(resp map[string]any) *CombinedJudgment {
	j := &CombinedJudgment{}

	if s, ok := resp["authenticity"].(string); ok {
		switch models.Authenticity(strings.ToLower(s)) {
		case models.AuthenticityReal, models.AuthenticityAI, models.AuthenticityUnknown:
			j.Authenticity = models.Authenticity(strings.ToLower(s))
		}
	}
	if s, ok := resp["relevance"].(string); ok {
		switch models.Relevance(strings.ToLower(s)) {
		case models.RelevanceHigh, models.RelevanceLow:
			j.Relevance = models.Relevance(strings.ToLower(s))
		}
	}
	if s, ok := resp["decision"].(string); ok {
		switch models.Decision(strings.ToLower(s)) {
		case models.DecisionApprove, models.DecisionReject, models.DecisionPending:
			j.Decision = models.Decision(strings.ToLower(s))
		}
	}
	if s, ok := resp["explanation"].(string); ok {
		j.Explanation = s
	}

	return j
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
