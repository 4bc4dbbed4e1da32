package handlers

import (
	"context"
	"log"
	"net/http"
	"os"

	"labellens/ai"
	"labellens/mailer"
	"labellens/models"
	"labellens/offclient"

	"github.com/gin-gonic/gin"
)

// ProductSource is the external product database. A nil product with a nil
// error means "not found", which is a normal business outcome.
type ProductSource interface {
	FetchByBarcode(ctx context.Context, barcode string) (*offclient.Product, error)
	SearchTop(ctx context.Context, query string) (*offclient.Product, error)
}

// Analyzer is the generative-text backend.
type Analyzer interface {
	AnalyzeIngredients(ctx context.Context, req ai.Request) (*ai.Assessment, error)
	AnalyzeImage(ctx context.Context, mimeType string, image []byte, req ai.Request) (*ai.Assessment, error)
}

// Handler carries the external clients, constructed once at process start.
type Handler struct {
	Products ProductSource
	AI       Analyzer // nil when no generative backend is configured
	Mail     mailer.Sender
}

func New(products ProductSource, analyzer Analyzer, mail mailer.Sender) *Handler {
	return &Handler{
		Products: products,
		AI:       analyzer,
		Mail:     mail,
	}
}

func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// serverError writes the generic 500 body. Error detail is exposed only
// outside production.
func serverError(c *gin.Context, message string, err error) {
	log.Printf("Server error: %v", err)

	body := gin.H{"success": false, "message": message}
	if os.Getenv("APP_ENV") != "production" && err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}
