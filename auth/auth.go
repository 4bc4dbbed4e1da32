package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"time"

	"labellens/database"
	"labellens/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var googleOAuthConfig *oauth2.Config

const userColumns = `id, username, email, password, health_condition, allergies,
	is_verified, is_logged_in, otp, otp_expiry, google_id, auth_provider, created_at, updated_at`

func InitOAuth() {
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:5000/auth/google/callback"
	}

	googleOAuthConfig = &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func GetGoogleOAuthConfig() *oauth2.Config {
	return googleOAuthConfig
}

func GenerateStateOauthCookie(c *gin.Context) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	c.SetCookie("oauthstate", state, 3600, "/", "", false, true)
	return state
}

// GoogleUserInfo fetches the authenticated user's profile from Google.
func GoogleUserInfo(token string) (map[string]interface{}, error) {
	client := &http.Client{}
	req, err := http.NewRequest("GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}

	return user, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken issues an HS256 JWT whose subject is the user id.
func GenerateToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, fmt.Errorf("token has no subject")
	}
	return uuid.Parse(claims.Subject)
}

// GenerateOTP returns a 6-digit one-time code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func GetUserByID(userID uuid.UUID) (*models.User, error) {
	row := database.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

func GetUserByEmail(email string) (*models.User, error) {
	row := database.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var health, allergies []byte

	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &health, &allergies,
		&user.IsVerified, &user.IsLoggedIn, &user.OTP, &user.OTPExpiry,
		&user.GoogleID, &user.AuthProvider, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(health, &user.HealthCondition); err != nil {
		user.HealthCondition = []string{}
	}
	if err := json.Unmarshal(allergies, &user.Allergies); err != nil {
		user.Allergies = []string{}
	}

	return &user, nil
}

// CreateOrGetGoogleUser looks a user up by Google id, creating a verified
// account on first login.
func CreateOrGetGoogleUser(googleID, email, username string) (*models.User, error) {
	row := database.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
	user, err := scanUser(row)

	if err == sql.ErrNoRows {
		now := time.Now()
		user = &models.User{
			ID:              uuid.New(),
			Username:        username,
			Email:           email,
			HealthCondition: []string{},
			Allergies:       []string{},
			IsVerified:      true,
			GoogleID:        &googleID,
			AuthProvider:    "google",
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		insertQuery := `INSERT INTO users (id, username, email, password, health_condition, allergies,
			is_verified, google_id, auth_provider, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err := database.DB.Exec(insertQuery,
			user.ID, user.Username, user.Email, "", []byte("[]"), []byte("[]"),
			true, googleID, user.AuthProvider, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return user, nil
}
