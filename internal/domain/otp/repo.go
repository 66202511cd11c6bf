package otp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no matching verification record exists.
var ErrNotFound = errors.New("verification code not found")

type Repository interface {
	Create(ctx context.Context, v *Verification) error
	// GetActive returns the newest unverified, unexpired code for the
	// patient and contact pair.
	GetActive(ctx context.Context, patientID, contactInfo string, now time.Time) (*Verification, error)
	DeleteByContact(ctx context.Context, patientID, contactInfo string) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
}
