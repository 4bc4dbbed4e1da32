// Package ai produces personalized risk assessments from a generative text
// model. The model has no strict output contract, so parsing is defensive
// and every failure degrades to a fixed fallback instead of an error.
package ai

import (
	"fmt"
	"strings"

	"labellens/models"
)

// Request carries everything the prompt template needs.
type Request struct {
	ProductName      string
	Ingredients      string
	HealthConditions []string
	Allergies        []string
}

// Assessment is the JSON object the model is instructed to return. Pointer
// and zero-value fields distinguish "omitted" from "set", so the orchestrator
// can override baseline fields one by one.
type Assessment struct {
	RiskScore          *int                       `json:"riskScore"`
	Verdict            string                     `json:"verdict"`
	AnalysisSummary    string                     `json:"analysisSummary"`
	FlaggedIngredients []models.FlaggedIngredient `json:"flaggedIngredients"`
	Alternatives       []string                   `json:"alternatives"`
	CleanedIngredients string                     `json:"cleanedIngredients"`
	ProductName        string                     `json:"productName"`
}

func listOrNone(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return "None"
	}
	return strings.Join(cleaned, ", ")
}

// BuildPrompt renders the fixed template for ingredient-text analysis.
func BuildPrompt(req Request) string {
	return fmt.Sprintf(`You are a food safety analyst for packaged foods sold in India. Assume the
Indian packaged-food market by default. Be conservative and factual. Never
give medical advice.

Product name: %s
Ingredients (verbatim): %s
User health conditions: %s
User allergies: %s

Rules:
- If any ingredient conflicts with a stated allergy, increase the risk score
  and flag that ingredient.
- riskScore is an integer from 0 to 100 where higher means riskier.
- verdict must be one of "Safe", "Moderate", "Risky" or "Hazardous".
- analysisSummary is one sentence.

Return ONLY a JSON object matching this schema, with no extra text:
{"riskScore": 0, "verdict": "Safe", "analysisSummary": "", "flaggedIngredients": [{"name": "", "risk": "Low", "reason": ""}], "alternatives": ["", ""]}`,
		req.ProductName, req.Ingredients, listOrNone(req.HealthConditions), listOrNone(req.Allergies))
}

// BuildImagePrompt extends the template for the image flow: the model also
// reads the label photo, cleans the OCR'd ingredient text and estimates the
// product name.
func BuildImagePrompt(req Request) string {
	return fmt.Sprintf(`You are a food safety analyst for packaged foods sold in India. Assume the
Indian packaged-food market by default. Be conservative and factual. Never
give medical advice.

The attached image is a photo of a food product label. Read the ingredient
list from the image, clean up any OCR noise, and analyse it.

User health conditions: %s
User allergies: %s

Rules:
- If any ingredient conflicts with a stated allergy, increase the risk score
  and flag that ingredient.
- riskScore is an integer from 0 to 100 where higher means riskier.
- verdict must be one of "Safe", "Moderate", "Risky" or "Hazardous".
- analysisSummary is one sentence.
- productName is your best estimate of the product's name from the label.
- cleanedIngredients is the ingredient list from the label, cleaned of OCR noise.

Return ONLY a JSON object matching this schema, with no extra text:
{"productName": "", "cleanedIngredients": "", "riskScore": 0, "verdict": "Safe", "analysisSummary": "", "flaggedIngredients": [{"name": "", "risk": "Low", "reason": ""}], "alternatives": ["", ""]}`,
		listOrNone(req.HealthConditions), listOrNone(req.Allergies))
}
