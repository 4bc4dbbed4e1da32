package handlers

import (
	"fmt"
	"strings"

	"labellens/models"
	"labellens/offclient"
)

const (
	unknownProduct         = "Unknown Product"
	unknownBrand           = "Unknown Brand"
	ingredientsPlaceholder = "Ingredients list not available."

	// scan_history.scanned_image_url is NOT NULL; this stands in when the
	// product has no photo.
	placeholderImageURL = "https://placehold.co/400x300?text=No+Image"
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// normalizeProduct maps a raw OpenFoodFacts record onto the canonical scan
// result. The risk score and verdict derive deterministically from the
// NutriScore grade: A/B safe, C/D moderate, E risky. A missing or
// unrecognized grade gets the neutral Moderate/50 default.
func normalizeProduct(p *offclient.Product) models.ScanResult {
	name := firstNonEmpty(p.ProductName, p.ProductNameEn, unknownProduct)
	brand := firstNonEmpty(p.Brands, unknownBrand)

	var image *string
	if u := firstNonEmpty(p.ImageFrontURL, p.ImageURL); u != "" {
		image = &u
	}

	ingredients := firstNonEmpty(p.IngredientsText, p.IngredientsTextEn, ingredientsPlaceholder)

	grade := strings.ToLower(strings.TrimSpace(p.NutriscoreGrade))
	verdict := models.VerdictModerate
	score := 50

	switch grade {
	case "a", "b":
		verdict, score = models.VerdictSafe, 15
	case "c", "d":
		verdict, score = models.VerdictModerate, 55
	case "e":
		verdict, score = models.VerdictRisky, 85
	}

	flagged := []models.FlaggedIngredient{}
	if verdict == models.VerdictRisky {
		flagged = append(flagged, models.FlaggedIngredient{
			Name:   "High Risk Additives",
			Risk:   "High",
			Reason: "Product flagged due to low NutriScore (E).",
		})
	}

	summary := "This product has no NutriScore grade, so a neutral risk assessment is shown."
	if grade != "" {
		summary = fmt.Sprintf("This product has a NutriScore of %s.", strings.ToUpper(grade))
	}

	return models.ScanResult{
		ProductName:        name,
		Brand:              brand,
		Image:              image,
		Ingredients:        ingredients,
		RiskScore:          score,
		Verdict:            verdict,
		AnalysisSummary:    summary,
		FlaggedIngredients: flagged,
		Alternatives:       []models.Alternative{},
	}
}
