package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "type" claim. Handlers use them to gate routes
// to the audience the token was minted for.
const (
	TokenTypeOutpatient = "outpatient"
	TokenTypeHealthcare = "healthcare"
	TokenTypeAdmin      = "admin"
)

// Device types recorded on patient tokens.
const (
	DeviceTerminal = "terminal"
	DeviceMobile   = "mobile"
	DeviceUnknown  = "unknown"
)

// Token lifetimes per audience.
const (
	PatientTokenTTL = 24 * time.Hour
	StaffTokenTTL   = 8 * time.Hour
	AdminTokenTTL   = 8 * time.Hour
)

// Claims is the JWT payload for all three audiences. Only the fields relevant
// to the audience are populated.
type Claims struct {
	jwt.RegisteredClaims
	Type           string `json:"type"`
	ID             string `json:"id,omitempty"`
	PatientID      string `json:"patientId,omitempty"`
	StaffID        string `json:"staffId,omitempty"`
	AdminID        string `json:"adminId,omitempty"`
	Role           string `json:"role,omitempty"`
	Name           string `json:"name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	DepartmentID   int    `json:"department_id,omitempty"`
	Position       string `json:"position,omitempty"`
	DeviceType     string `json:"deviceType,omitempty"`
	LoginMethod    string `json:"loginMethod,omitempty"`
}

// StaffTokenInput is the staff record subset minted into a healthcare token.
type StaffTokenInput struct {
	ID             string
	StaffID        string
	Name           string
	Role           string
	Specialization string
	DepartmentID   int
}

// AdminTokenInput is the admin record subset minted into an admin token.
type AdminTokenInput struct {
	ID            string
	HealthAdminID string
	Name          string
	Position      string
}

// Issuer mints and verifies HMAC-signed tokens.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// PatientToken mints a 24-hour outpatient token. deviceType must be one of
// terminal, mobile or unknown; anything else is recorded as unknown.
func (i *Issuer) PatientToken(patientID, deviceType, loginMethod string) (string, error) {
	switch deviceType {
	case DeviceTerminal, DeviceMobile:
	default:
		deviceType = DeviceUnknown
	}
	claims := &Claims{
		RegisteredClaims: i.registered(patientID, PatientTokenTTL),
		Type:             TokenTypeOutpatient,
		PatientID:        patientID,
		DeviceType:       deviceType,
		LoginMethod:      loginMethod,
	}
	return i.sign(claims)
}

// StaffToken mints an 8-hour healthcare token.
func (i *Issuer) StaffToken(in StaffTokenInput) (string, error) {
	claims := &Claims{
		RegisteredClaims: i.registered(in.StaffID, StaffTokenTTL),
		Type:             TokenTypeHealthcare,
		ID:               in.ID,
		StaffID:          in.StaffID,
		Role:             in.Role,
		Name:             in.Name,
		Specialization:   in.Specialization,
		DepartmentID:     in.DepartmentID,
	}
	return i.sign(claims)
}

// AdminToken mints an 8-hour admin token.
func (i *Issuer) AdminToken(in AdminTokenInput) (string, error) {
	claims := &Claims{
		RegisteredClaims: i.registered(in.HealthAdminID, AdminTokenTTL),
		Type:             TokenTypeAdmin,
		ID:               in.ID,
		AdminID:          in.HealthAdminID,
		Name:             in.Name,
		Position:         in.Position,
	}
	return i.sign(claims)
}

func (i *Issuer) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (i *Issuer) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string and returns its claims.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
