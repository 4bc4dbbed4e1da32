package ai

import (
	"encoding/json"
	"log"
	"strings"

	"labellens/models"
)

// ExtractJSON pulls a JSON object out of a model response that may be
// wrapped in Markdown code fences or surrounded by stray prose: fences are
// stripped, then the substring between the first '{' and the last '}' is
// returned.
func ExtractJSON(text string) (string, bool) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// FallbackAssessment is the documented degraded result used whenever the
// model's output cannot be parsed.
func FallbackAssessment() *Assessment {
	score := 50
	return &Assessment{
		RiskScore:          &score,
		Verdict:            "Unknown",
		AnalysisSummary:    "AI Analysis failed. Showing raw ingredients.",
		FlaggedIngredients: []models.FlaggedIngredient{},
		Alternatives:       []string{},
	}
}

// ParseAssessment never fails: malformed output yields FallbackAssessment.
func ParseAssessment(text string) *Assessment {
	raw, ok := ExtractJSON(text)
	if !ok {
		log.Printf("ai: no JSON object in model response")
		return FallbackAssessment()
	}

	var assessment Assessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		log.Printf("ai: unparseable model response: %v", err)
		return FallbackAssessment()
	}

	assessment.Verdict = CanonicalVerdict(assessment.Verdict)
	if assessment.RiskScore != nil {
		clamped := clamp(*assessment.RiskScore, 0, 100)
		assessment.RiskScore = &clamped
	}

	return &assessment
}

// CanonicalVerdict folds the verdict spellings seen across model outputs
// into the four-value backend enum. Unrecognized values map to empty so the
// baseline verdict survives.
func CanonicalVerdict(verdict string) string {
	switch strings.ToLower(strings.TrimSpace(verdict)) {
	case "safe":
		return models.VerdictSafe
	case "moderate", "caution":
		return models.VerdictModerate
	case "risky", "unsafe", "danger":
		return models.VerdictRisky
	case "hazardous":
		return models.VerdictHazardous
	default:
		return ""
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
