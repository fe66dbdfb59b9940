package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	Client     *genai.Client
	FlashModel *genai.GenerativeModel
	ProModel   *genai.GenerativeModel
}

func NewGenAIClient(apiKey, flashModelName, proModelName string) (*GeminiClient, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	return &GeminiClient{
		Client:     client,
		FlashModel: client.GenerativeModel(flashModelName),
		ProModel:   client.GenerativeModel(proModelName),
	}, nil
}

// SendText sends a text-only prompt to the flash model and parses a strict-JSON reply.
func (g *GeminiClient) SendText(ctx context.Context, prompt string) (map[string]any, error) {
	resp, err := g.FlashModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	return parseJSONResponse(resp)
}

// SendWithImage sends a prompt plus one image to the pro model and parses a
// strict-JSON reply. MIME type is detected from the image's magic bytes.
func (g *GeminiClient) SendWithImage(ctx context.Context, prompt string, imageData []byte) (map[string]any, error) {
	parts := []genai.Part{genai.Text(prompt)}
	if len(imageData) > 0 {
		parts = append(parts, genai.Blob{
			MIMEType: detectImageMIMEType(imageData),
			Data:     imageData,
		})
	}

	resp, err := g.ProModel.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with image: %w", err)
	}
	return parseJSONResponse(resp)
}

// SendWithImageText sends a prompt plus one image to the flash model and
// returns the raw text reply. Used for captions, where the output is prose.
func (g *GeminiClient) SendWithImageText(ctx context.Context, prompt string, imageData []byte) (string, error) {
	parts := []genai.Part{genai.Text(prompt)}
	if len(imageData) > 0 {
		parts = append(parts, genai.Blob{
			MIMEType: detectImageMIMEType(imageData),
			Data:     imageData,
		})
	}

	resp, err := g.FlashModel.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with image: %w", err)
	}

	text, err := firstTextPart(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// SendTextWithRetry attempts the request with automatic failover across multiple clients
func SendTextWithRetry(ctx context.Context, prompt string, selector *GeminiClientSelector) (map[string]any, error) {
	var result map[string]any

	err := selector.TryAllClients(func(client *GeminiClient, clientIdx int) error {
		resp, err := client.SendText(ctx, prompt)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SendWithImageAndRetry attempts the request with automatic failover across multiple clients
func SendWithImageAndRetry(ctx context.Context, prompt string, imageData []byte, selector *GeminiClientSelector) (map[string]any, error) {
	var result map[string]any

	err := selector.TryAllClients(func(client *GeminiClient, clientIdx int) error {
		resp, err := client.SendWithImage(ctx, prompt, imageData)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SendCaptionWithRetry attempts a caption request with automatic failover across multiple clients
func SendCaptionWithRetry(ctx context.Context, prompt string, imageData []byte, selector *GeminiClientSelector) (string, error) {
	var result string

	err := selector.TryAllClients(func(client *GeminiClient, clientIdx int) error {
		resp, err := client.SendWithImageText(ctx, prompt, imageData)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return "", err
	}

	return result, nil
}

func firstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content returned from AI")
	}
	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("response part is not text, received %T", resp.Candidates[0].Content.Parts[0])
	}
	return string(textPart), nil
}

func parseJSONResponse(resp *genai.GenerateContentResponse) (map[string]any, error) {
	aiResponse, err := firstTextPart(resp)
	if err != nil {
		return nil, err
	}

	// Clean up markdown JSON wrapper if present
	if strings.HasPrefix(aiResponse, "```json") {
		aiResponse = strings.TrimPrefix(aiResponse, "```json\n")
		aiResponse = strings.TrimSuffix(aiResponse, "\n```")
	}
	aiResponse = strings.TrimSpace(aiResponse)

	// Some replies wrap the JSON in prose; keep only the outermost object
	if start := strings.Index(aiResponse, "{"); start >= 0 {
		if end := strings.LastIndex(aiResponse, "}"); end > start {
			aiResponse = aiResponse[start : end+1]
		}
	}

	var resultMap map[string]any
	err = json.Unmarshal([]byte(aiResponse), &resultMap)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal AI response to JSON: %w. \nRaw response was: %s", err, aiResponse)
	}

	return resultMap, nil
}

// detectImageMIMEType detects the MIME type of an image based on magic bytes
func detectImageMIMEType(data []byte) string {
	if len(data) < 8 {
		return "image/jpeg" // default fallback
	}

	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}

	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}

	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}

	// WebP: 52 49 46 46 ... 57 45 42 50
	if data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 {
		if len(data) > 11 && data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
			return "image/webp"
		}
	}

	// BMP: 42 4D
	if data[0] == 0x42 && data[1] == 0x4D {
		return "image/bmp"
	}

	// Default to JPEG as it's most common
	return "image/jpeg"
}
