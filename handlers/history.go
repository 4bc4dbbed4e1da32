package handlers

import (
	"net/http"

	"labellens/database"
	"labellens/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) GetHistory(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)

	rows, err := database.DB.Query(`
		SELECT id, user_id, scanned_at, scan_type, product_name, barcode,
			scanned_image_url, risk_score, verdict, analysis_summary, flagged_ingredients, alternatives
		FROM scan_history
		WHERE user_id = $1
		ORDER BY scanned_at DESC
	`, userID)
	if err != nil {
		serverError(c, "Failed to fetch history", err)
		return
	}
	defer rows.Close()

	entries := []models.ScanHistory{}
	for rows.Next() {
		var entry models.ScanHistory
		var barcode *string
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.ScannedAt, &entry.ScanType, &entry.ProductName, &barcode,
			&entry.ScannedImageURL, &entry.RiskScore, &entry.Verdict, &entry.AnalysisSummary,
			&entry.FlaggedIngredients, &entry.Alternatives,
		)
		if err != nil {
			continue
		}
		if barcode != nil {
			entry.Barcode = *barcode
		}
		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "history": entries})
}

func (h *Handler) DeleteHistory(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)
	historyID := c.Param("id")

	result, err := database.DB.Exec(`
		DELETE FROM scan_history
		WHERE id = $1 AND user_id = $2
	`, historyID, userID)
	if err != nil {
		serverError(c, "Failed to delete history item", err)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "History item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "History item deleted successfully"})
}

// ClearAllHistory is a stub: the bulk-clear semantics were never settled, so
// the route answers 501 rather than guessing.
func (h *Handler) ClearAllHistory(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"success": false, "message": "Not implemented."})
}
