package otp

import (
	"time"

	"github.com/google/uuid"
)

const (
	ContactTypeEmail = "email"
	ContactTypePhone = "phone"

	// CodeTTL is how long a verification code stays valid.
	CodeTTL = 5 * time.Minute
)

// Verification maps to the otp_verification table. PatientID holds the public
// hospital identifier, stored uppercase.
type Verification struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	ContactInfo string    `db:"contact_info" json:"contact_info"`
	ContactType string    `db:"contact_type" json:"contact_type"`
	OTPCode     string    `db:"otp_code" json:"-"`
	Attempts    int       `db:"attempts" json:"attempts"`
	IsVerified  bool      `db:"is_verified" json:"is_verified"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SendInput carries the send-otp request fields.
type SendInput struct {
	PatientID   string `json:"patientId"`
	ContactInfo string `json:"contactInfo"`
	ContactType string `json:"contactType"`
}

// VerifyInput carries the verify-otp request fields.
type VerifyInput struct {
	PatientID   string `json:"patientId"`
	ContactInfo string `json:"contactInfo"`
	OTP         string `json:"otp"`
	DeviceType  string `json:"deviceType"`
}
