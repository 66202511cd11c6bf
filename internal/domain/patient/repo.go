package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a patient does not exist.
var ErrNotFound = errors.New("patient not found")

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	CreateEmergencyContact(ctx context.Context, ec *EmergencyContact) error
	ListEmergencyContacts(ctx context.Context, patientID uuid.UUID) ([]*EmergencyContact, error)
}
