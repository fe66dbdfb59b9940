package gemini

import "fmt"

const claimScorePromptTemplate = `You are an expert verifier for environmental impact claims.
Given an action type, short description, and optional image reference, estimate a confidence score (0-100) that the claim is likely genuine and meaningful.
Consider clarity, specificity, plausibility, and presence of verifiable details. Do NOT hallucinate facts.
Output STRICT JSON only in the shape: {"score": number (0-100), "reasoning": string (max 280 chars)}.

Data:
- actionType: %s
- description: %s
- imageRef: %s
`

const forensicPromptTemplate = `You are a forensic image analyst.
Assess whether this photo is likely AI-generated (synthetic) versus a real-world capture.
Consider common artifacts (unnatural textures, inconsistent lighting, deformed hands/text, metadata absence) but avoid overconfidence.
Respond with STRICT JSON: {"aiGeneratedProbability": number (0-1), "label": "ai"|"real"|"unknown", "reasoning": string (<=200 chars)}.`

const captionPrompt = `Provide a short, literal caption for this image in one sentence.`

const combinedModerationPromptTemplate = `You are an AI verifier for an impact-tracking dApp.
Evaluate the uploaded post for authenticity and relevance.

Inputs:
Text: %s
Image description (from vision model): %s

Determine:
- Is the image likely real (not AI-generated)?
- Does the text match the image?
- Should this post be approved?

Respond with STRICT JSON:
{"authenticity": "real"|"ai_generated"|"unknown", "relevance": "high"|"low", "decision": "approve"|"reject"|"pending", "explanation": "..."}`

// BuildClaimScorePrompt builds the text-only confidence-scoring prompt.
func BuildClaimScorePrompt(actionType, description, imageRef string) string {
	if imageRef == "" {
		imageRef = "n/a"
	}
	return fmt.Sprintf(claimScorePromptTemplate, actionType, description, imageRef)
}

// BuildForensicPrompt builds the image-authenticity assessment prompt.
func BuildForensicPrompt() string {
	return forensicPromptTemplate
}

// BuildCaptionPrompt builds the literal-caption prompt.
func BuildCaptionPrompt() string {
	return captionPrompt
}

// BuildCombinedModerationPrompt builds the text+caption combined-judgment prompt.
func BuildCombinedModerationPrompt(text, caption string) string {
	if caption == "" {
		caption = "n/a"
	}
	return fmt.Sprintf(combinedModerationPromptTemplate, text, caption)
}
