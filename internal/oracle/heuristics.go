package oracle

import (
	"strings"

	"impactx/internal/models"
)

var syntheticNameMarkers = []string{"stable", "midjourney", "generated", "ai", "synthetic"}

// HeuristicScore is the deterministic fallback scorer used when no model is
// configured or the model path fails. Same inputs always yield the same score.
func (c *Client) HeuristicScore(actionType, description string) ClaimScore {
	score := 50
	combined := strings.ToLower(actionType + " " + description)

	if strings.Contains(combined, "tree") {
		score += 10
	}
	if strings.Contains(combined, "beach") || strings.Contains(combined, "cleanup") {
		score += 8
	}
	if len(combined) > 120 {
		score += 10
	}
	if hasDigitRun(combined) {
		score += 5
	}

	if score < 0 {
		score = 0
	} else if score > 95 {
		score = 95
	}

	return ClaimScore{Score: score, Reasoning: "Heuristic assessment from claim text"}
}

// keywordImageVerdict guesses from the reference alone. Only used when no
// model is configured.
func keywordImageVerdict(imageRef string) models.ImageVerdict {
	name := strings.ToLower(imageRef)
	for _, marker := range syntheticNameMarkers {
		if strings.Contains(name, marker) {
			return models.ImageVerdict{
				AIGeneratedProbability: 0.95,
				Label:                  models.ImageLabelAI,
				Reasoning:              "Filename suggests synthetic origin",
			}
		}
	}
	return models.ImageVerdict{
		AIGeneratedProbability: 0.3,
		Label:                  models.ImageLabelUnknown,
		Reasoning:              "No model configured, filename looks organic",
	}
}

// hasDigitRun reports whether s contains two or more consecutive digits,
// which reads as a concrete quantity in a claim ("planted 25 trees").
func hasDigitRun(s string) bool {
	run := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			run++
			if run >= 2 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}
