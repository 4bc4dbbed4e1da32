package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"labellens/ai"
	"labellens/database"
	"labellens/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BarcodeLookup runs the full scan flow: fetch product, normalize, enrich
// with AI when the caller is authenticated and ingredients are known, attach
// alternative images, save history best-effort, respond.
func (h *Handler) BarcodeLookup(c *gin.Context) {
	var req struct {
		Barcode string `json:"barcode"`
	}
	_ = c.ShouldBindJSON(&req)

	if strings.TrimSpace(req.Barcode) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No barcode provided."})
		return
	}

	ctx := c.Request.Context()

	product, err := h.Products.FetchByBarcode(ctx, req.Barcode)
	if err != nil {
		serverError(c, "Server error connecting to product database.", err)
		return
	}
	if product == nil {
		// Absent from every endpoint variant: a valid outcome, not a fault.
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Product not found. Please try scanning again."})
		return
	}

	result := normalizeProduct(product)
	user := currentUser(c)

	if h.AI != nil && user != nil && result.Ingredients != ingredientsPlaceholder {
		assessment, err := h.AI.AnalyzeIngredients(ctx, ai.Request{
			ProductName:      result.ProductName,
			Ingredients:      result.Ingredients,
			HealthConditions: user.HealthCondition,
			Allergies:        user.Allergies,
		})
		if err != nil {
			// Degraded AI never fails the scan; the baseline result stands.
			log.Printf("AI enrichment skipped: %v", err)
		} else {
			applyAssessment(&result, assessment)
		}
	}

	h.enrichAlternatives(ctx, result.Alternatives)

	if user != nil {
		h.saveHistory(user.ID, models.ScanTypeBarcode, req.Barcode, result)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// ProcessScan handles the image flow. There is no product record here: the
// model reads the label photo, cleans the ingredient text and estimates the
// product name, and the flow proceeds from there.
func (h *Handler) ProcessScan(c *gin.Context) {
	user := currentUser(c)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No image file provided."})
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	if !strings.HasPrefix(mimeType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unsupported file type."})
		return
	}

	image, err := io.ReadAll(file)
	if err != nil {
		serverError(c, "Server error reading the uploaded image.", err)
		return
	}

	if h.AI == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Image scan is not available right now."})
		return
	}

	ctx := c.Request.Context()

	req := ai.Request{}
	if user != nil {
		req.HealthConditions = user.HealthCondition
		req.Allergies = user.Allergies
	}

	assessment, err := h.AI.AnalyzeImage(ctx, mimeType, image, req)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Could not analyse the label image. Please try again."})
		return
	}

	result := models.ScanResult{
		ProductName:        unknownProduct,
		Brand:              unknownBrand,
		Ingredients:        ingredientsPlaceholder,
		RiskScore:          50,
		Verdict:            models.VerdictModerate,
		FlaggedIngredients: []models.FlaggedIngredient{},
		Alternatives:       []models.Alternative{},
	}
	applyAssessment(&result, assessment)

	h.enrichAlternatives(ctx, result.Alternatives)

	if user != nil {
		h.saveHistory(user.ID, models.ScanTypeImageOCR, "", result)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// applyAssessment overrides baseline fields one by one; fields the model
// omitted keep their baseline values.
func applyAssessment(result *models.ScanResult, a *ai.Assessment) {
	if a == nil {
		return
	}

	if a.ProductName != "" {
		result.ProductName = a.ProductName
	}
	if a.CleanedIngredients != "" {
		result.Ingredients = a.CleanedIngredients
	}
	if a.RiskScore != nil {
		result.RiskScore = *a.RiskScore
	}
	if a.Verdict != "" {
		result.Verdict = a.Verdict
	}
	if a.AnalysisSummary != "" {
		result.AnalysisSummary = a.AnalysisSummary
	}
	if a.FlaggedIngredients != nil {
		result.FlaggedIngredients = a.FlaggedIngredients
	}
	if a.Alternatives != nil {
		alternatives := make([]models.Alternative, 0, len(a.Alternatives))
		for _, name := range a.Alternatives {
			if strings.TrimSpace(name) != "" {
				alternatives = append(alternatives, models.Alternative{Name: name})
			}
		}
		result.Alternatives = alternatives
	}
}

// enrichAlternatives attaches a representative image to each alternative by
// free-text search. Lookups are independent, so they fan out in parallel and
// the batch waits for all of them; a miss simply leaves the image nil.
func (h *Handler) enrichAlternatives(ctx context.Context, alternatives []models.Alternative) {
	if len(alternatives) == 0 {
		return
	}

	var wg sync.WaitGroup
	for i := range alternatives {
		wg.Add(1)
		go func(alt *models.Alternative) {
			defer wg.Done()

			lookupCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()

			product, err := h.Products.SearchTop(lookupCtx, alt.Name)
			if err != nil || product == nil {
				return
			}
			if u := firstNonEmpty(product.ImageFrontURL, product.ImageURL); u != "" {
				alt.Image = &u
			}
			if alt.Brand == "" {
				alt.Brand = product.Brands
			}
		}(&alternatives[i])
	}
	wg.Wait()
}

// saveHistory persists a snapshot of the scan. Best effort: a failed write
// is logged and the response is unaffected.
func (h *Handler) saveHistory(userID uuid.UUID, scanType, barcode string, result models.ScanResult) {
	imageURL := placeholderImageURL
	if result.Image != nil && *result.Image != "" {
		imageURL = *result.Image
	}

	flagged, _ := json.Marshal(result.FlaggedIngredients)
	alternatives, _ := json.Marshal(result.Alternatives)

	query := `
		INSERT INTO scan_history (id, user_id, scanned_at, scan_type, product_name, barcode,
			scanned_image_url, risk_score, verdict, analysis_summary, flagged_ingredients, alternatives)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := database.DB.Exec(query,
		uuid.New(), userID, time.Now(), scanType, result.ProductName, barcode,
		imageURL, result.RiskScore, result.Verdict, result.AnalysisSummary, flagged, alternatives)
	if err != nil {
		log.Printf("Failed to save scan history: %v", err)
	}
}
