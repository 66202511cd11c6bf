package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrStaffNotFound is returned when no staff row matches.
	ErrStaffNotFound = errors.New("staff not found")
	// ErrAdminNotFound is returned when no admin row matches.
	ErrAdminNotFound = errors.New("admin not found")
)

type Repository interface {
	GetStaffByStaffID(ctx context.Context, staffID string) (*Staff, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	// FirstDoctorInDepartment returns the longest-serving doctor in a
	// department, used for walk-in assignment.
	FirstDoctorInDepartment(ctx context.Context, departmentID int) (*Staff, error)
	GetAdminByAdminID(ctx context.Context, healthAdminID string) (*Admin, error)
}
