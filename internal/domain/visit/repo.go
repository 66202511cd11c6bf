package visit

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clicare/clicare/internal/domain/patient"
)

var (
	// ErrVisitNotFound is returned when no visit row matches.
	ErrVisitNotFound = errors.New("visit not found")
	// ErrQueueNotFound is returned when no queue row matches.
	ErrQueueNotFound = errors.New("queue entry not found")
	// ErrDepartmentNotFound is returned for unknown department ids.
	ErrDepartmentNotFound = errors.New("department not found")
)

type Repository interface {
	CreateVisit(ctx context.Context, v *Visit) error
	GetVisitForDate(ctx context.Context, patientID uuid.UUID, date string) (*Visit, error)

	// CreateQueue inserts a queue entry, assigning the next queue number
	// for the department on visitDate in the same statement. Numbers start
	// at 1 each day per department; the assigned number is written back to
	// q.QueueNo.
	CreateQueue(ctx context.Context, q *Queue, visitDate string) error
	GetQueueDetail(ctx context.Context, queueID uuid.UUID) (*QueueDetail, error)
	UpdateQueueStatus(ctx context.Context, queueID uuid.UUID, status string) (*Queue, error)
	ListDepartmentQueue(ctx context.Context, departmentID int, date string) ([]*QueueEntry, error)

	DepartmentName(ctx context.Context, id int) (string, error)
	ListActiveSymptoms(ctx context.Context) ([]*Symptom, error)

	// DiagnosedVisitIDs filters visitIDs down to those the given doctor has
	// signed a diagnosis for.
	DiagnosedVisitIDs(ctx context.Context, staffID uuid.UUID, visitIDs []uuid.UUID) ([]uuid.UUID, error)
	// DepartmentPatients lists unique patients who have queued in a
	// department, most recent first.
	DepartmentPatients(ctx context.Context, departmentID int) ([]*patient.Patient, error)
	// CompletedPatients lists unique patients whose consultation the given
	// doctor completed on a date.
	CompletedPatients(ctx context.Context, staffID uuid.UUID, departmentID int, date string) ([]*MyPatient, error)
	History(ctx context.Context, patientID uuid.UUID) ([]*HistoryEntry, error)
}
