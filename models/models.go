package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Verdict values used by the backend contract. Frontend display labels
// ("safe", "unsafe", "caution") are mapped on the client side.
const (
	VerdictSafe      = "Safe"
	VerdictModerate  = "Moderate"
	VerdictRisky     = "Risky"
	VerdictHazardous = "Hazardous"
)

const (
	ScanTypeBarcode      = "barcode"
	ScanTypeImageOCR     = "image_ocr"
	ScanTypeManualSearch = "manual_search"
)

type User struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Username        string     `json:"username" db:"username"`
	Email           string     `json:"email" db:"email"`
	Password        string     `json:"-" db:"password"`
	HealthCondition []string   `json:"healthCondition" db:"health_condition"`
	Allergies       []string   `json:"allergies" db:"allergies"`
	IsVerified      bool       `json:"isVerified" db:"is_verified"`
	IsLoggedIn      bool       `json:"isLoggedIn" db:"is_logged_in"`
	OTP             *string    `json:"-" db:"otp"`
	OTPExpiry       *time.Time `json:"-" db:"otp_expiry"`
	GoogleID        *string    `json:"-" db:"google_id"`
	AuthProvider    string     `json:"authProvider" db:"auth_provider"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// Session holds the single active login per user; login replaces any
// existing row.
type Session struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type FlaggedIngredient struct {
	Name   string `json:"name"`
	Risk   string `json:"risk,omitempty"` // Low, Medium or High
	Reason string `json:"reason"`
}

type Alternative struct {
	Name  string  `json:"name"`
	Image *string `json:"image"`
	Brand string  `json:"brand,omitempty"`
}

// ScanResult is the canonical lookup response shape. It is transient; a
// snapshot of it is persisted as a ScanHistory row.
type ScanResult struct {
	ProductName        string              `json:"productName"`
	Brand              string              `json:"brand"`
	Image              *string             `json:"image"`
	Ingredients        string              `json:"ingredients"`
	RiskScore          int                 `json:"riskScore"`
	Verdict            string              `json:"verdict"`
	AnalysisSummary    string              `json:"analysisSummary"`
	FlaggedIngredients []FlaggedIngredient `json:"flaggedIngredients"`
	Alternatives       []Alternative       `json:"alternatives"`
}

// ScanHistory is an immutable point-in-time snapshot of one completed scan.
// Rows are created and deleted, never updated.
type ScanHistory struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	ScannedAt          time.Time       `json:"scannedAt" db:"scanned_at"`
	ScanType           string          `json:"scanType" db:"scan_type"`
	ProductName        string          `json:"productName" db:"product_name"`
	Barcode            string          `json:"barcode" db:"barcode"`
	ScannedImageURL    string          `json:"scannedImageUrl" db:"scanned_image_url"`
	RiskScore          int             `json:"riskScore" db:"risk_score"`
	Verdict            string          `json:"verdict" db:"verdict"`
	AnalysisSummary    string          `json:"analysisSummary" db:"analysis_summary"`
	FlaggedIngredients json.RawMessage `json:"flaggedIngredients" db:"flagged_ingredients"` // JSONB stored as []byte
	Alternatives       json.RawMessage `json:"alternatives" db:"alternatives"`              // JSONB stored as []byte
}
