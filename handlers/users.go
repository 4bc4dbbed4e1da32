package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"labellens/auth"
	"labellens/database"
	"labellens/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SignUp creates an unverified account and mails a short-lived verification
// token.
func (h *Handler) SignUp(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
		return
	}

	var exists bool
	err := database.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, req.Email).Scan(&exists)
	if err != nil {
		serverError(c, "Internal server error", err)
		return
	}
	if exists {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "User already exists with this email"})
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		serverError(c, "Internal server error", err)
		return
	}

	now := time.Now()
	user := models.User{
		ID:              uuid.New(),
		Username:        req.Username,
		Email:           req.Email,
		HealthCondition: []string{},
		Allergies:       []string{},
		AuthProvider:    "local",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	insertQuery := `INSERT INTO users (id, username, email, password, health_condition, allergies, auth_provider, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = database.DB.Exec(insertQuery,
		user.ID, user.Username, user.Email, hashed, []byte("[]"), []byte("[]"), user.AuthProvider, now, now)
	if err != nil {
		serverError(c, "Internal server error", err)
		return
	}

	token, err := auth.GenerateToken(user.ID, 10*time.Minute)
	if err != nil {
		serverError(c, "Internal server error", err)
		return
	}

	if err := h.Mail.SendVerification(user.Email, token); err != nil {
		// The account exists either way; verification can be re-requested.
		log.Printf("Failed to send verification mail: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization token is missing or invalid"})
		return
	}

	userID, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Token has expired"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid token"})
		return
	}

	result, err := database.DB.Exec(`UPDATE users SET is_verified = TRUE, updated_at = $1 WHERE id = $2`, time.Now(), userID)
	if err != nil {
		serverError(c, "Email verification failed", err)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email verified successfully"})
}

// Login checks credentials, issues access and refresh tokens and replaces
// any existing session row, keeping one active session per user.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
		return
	}

	user, err := auth.GetUserByEmail(req.Email)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Unauthorized Access"})
		return
	}
	if err != nil {
		serverError(c, "Login failed", err)
		return
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}
	if !user.IsVerified {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Verify Your Email to Login"})
		return
	}

	accessToken, err := auth.GenerateToken(user.ID, 10*24*time.Hour)
	if err != nil {
		serverError(c, "Login failed", err)
		return
	}
	refreshToken, err := auth.GenerateToken(user.ID, 30*24*time.Hour)
	if err != nil {
		serverError(c, "Login failed", err)
		return
	}

	if _, err := database.DB.Exec(`UPDATE users SET is_logged_in = TRUE, updated_at = $1 WHERE id = $2`, time.Now(), user.ID); err != nil {
		serverError(c, "Login failed", err)
		return
	}

	if _, err := database.DB.Exec(`DELETE FROM sessions WHERE user_id = $1`, user.ID); err != nil {
		serverError(c, "Login failed", err)
		return
	}
	if _, err := database.DB.Exec(`INSERT INTO sessions (id, user_id, created_at) VALUES ($1, $2, $3)`,
		uuid.New(), user.ID, time.Now()); err != nil {
		serverError(c, "Login failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Login successful",
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         user,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)

	if _, err := database.DB.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		serverError(c, "Logout failed", err)
		return
	}
	if _, err := database.DB.Exec(`UPDATE users SET is_logged_in = FALSE, updated_at = $1 WHERE id = $2`, time.Now(), userID); err != nil {
		serverError(c, "Logout failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

// ForgotPassword stores a 6-digit OTP with a 10-minute expiry and mails it.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	_ = c.ShouldBindJSON(&req)

	user, err := auth.GetUserByEmail(req.Email)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	if err != nil {
		serverError(c, "Something went wrong", err)
		return
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		serverError(c, "Something went wrong", err)
		return
	}
	expiry := time.Now().Add(10 * time.Minute)

	if _, err := database.DB.Exec(`UPDATE users SET otp = $1, otp_expiry = $2, updated_at = $3 WHERE id = $4`,
		otp, expiry, time.Now(), user.ID); err != nil {
		serverError(c, "Something went wrong", err)
		return
	}

	if err := h.Mail.SendOTP(user.Email, otp); err != nil {
		serverError(c, "Something went wrong", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent to your email Successfully"})
}

func (h *Handler) VerifyOtp(c *gin.Context) {
	var req struct {
		OTP string `json:"otp"`
	}
	_ = c.ShouldBindJSON(&req)
	email := c.Param("email")

	if req.OTP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "OTP is required"})
		return
	}

	user, err := auth.GetUserByEmail(email)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	if err != nil {
		serverError(c, "Something went wrong", err)
		return
	}

	if user.OTP == nil || *user.OTP != req.OTP || user.OTPExpiry == nil || time.Now().After(*user.OTPExpiry) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or expired OTP request a new one"})
		return
	}

	if _, err := database.DB.Exec(`UPDATE users SET otp = NULL, otp_expiry = NULL, updated_at = $1 WHERE id = $2`,
		time.Now(), user.ID); err != nil {
		serverError(c, "Something went wrong", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP verified successfully"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	_ = c.ShouldBindJSON(&req)
	email := c.Param("email")

	if req.NewPassword == "" || req.ConfirmPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Passwords do not match"})
		return
	}

	user, err := auth.GetUserByEmail(email)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	if err != nil {
		serverError(c, "Something went wrong", err)
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		serverError(c, "Something went wrong", err)
		return
	}

	if _, err := database.DB.Exec(`UPDATE users SET password = $1, updated_at = $2 WHERE id = $3`,
		hashed, time.Now(), user.ID); err != nil {
		serverError(c, "Something went wrong", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}

// UpdateUser updates the profile fields the request includes; the health
// profile feeds AI enrichment on later scans.
func (h *Handler) UpdateUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization token is missing or invalid"})
		return
	}

	var req struct {
		Username        *string   `json:"username"`
		HealthCondition *[]string `json:"healthCondition"`
		Allergies       *[]string `json:"allergies"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.HealthCondition != nil {
		user.HealthCondition = *req.HealthCondition
	}
	if req.Allergies != nil {
		user.Allergies = *req.Allergies
	}

	health, _ := json.Marshal(user.HealthCondition)
	allergies, _ := json.Marshal(user.Allergies)

	if _, err := database.DB.Exec(`UPDATE users SET username = $1, health_condition = $2, allergies = $3, updated_at = $4 WHERE id = $5`,
		user.Username, health, allergies, time.Now(), user.ID); err != nil {
		serverError(c, "Something went wrong", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User profile updated successfully",
		"user":    user,
	})
}
