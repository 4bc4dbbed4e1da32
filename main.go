package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"labellens/ai"
	"labellens/auth"
	"labellens/database"
	"labellens/handlers"
	"labellens/mailer"
	"labellens/middleware"
	"labellens/offclient"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.CloseDB()

	auth.InitOAuth()

	products := offclient.New()

	var analyzer handlers.Analyzer
	gemini, err := ai.NewGemini(context.Background())
	if err != nil {
		log.Printf("AI enrichment disabled: %v", err)
	} else {
		analyzer = gemini
		defer gemini.Close()
	}

	h := handlers.New(products, analyzer, mailer.NewSMTP())

	router := gin.Default()

	api := router.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/signup", h.SignUp)
		users.POST("/verify-email", h.VerifyEmail)
		users.POST("/login", h.Login)
		users.POST("/logout", middleware.AuthRequired(), h.Logout)
		users.POST("/forgot-password", h.ForgotPassword)
		users.POST("/verify-otp/:email", h.VerifyOtp)
		users.POST("/change-password/:email", h.ChangePassword)
		users.PUT("/update-user", middleware.AuthRequired(), h.UpdateUser)
	}

	ocr := api.Group("/ocr")
	{
		ocr.POST("/barcode-lookup", middleware.OptionalAuth(), h.BarcodeLookup)
		ocr.POST("/process-scan", middleware.AuthRequired(), h.ProcessScan)
	}

	history := api.Group("/history", middleware.AuthRequired())
	{
		history.GET("", h.GetHistory)
		history.DELETE("/:id", h.DeleteHistory)
		history.DELETE("", h.ClearAllHistory)
	}

	router.GET("/auth/google", handlers.GoogleAuth)
	router.GET("/auth/google/callback", handlers.GoogleCallback)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	log.Printf("Server is running on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
