package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clicare/clicare/internal/domain/patient"
)

// Time-series periods.
const (
	PeriodDaily  = "daily"
	PeriodWeekly = "weekly"
	PeriodYearly = "yearly"
)

type Repository interface {
	// DiagnosedToday lists the unique patients a doctor diagnosed in their
	// department on a date, most recent diagnosis first.
	DiagnosedToday(ctx context.Context, staffID uuid.UUID, departmentID int, date string) ([]*TodayPatient, error)
	CountDiagnosedToday(ctx context.Context, staffID uuid.UUID, departmentID int, date string) (int, error)
	// CountActiveQueue counts waiting and in-progress queue entries for a
	// department on a date.
	CountActiveQueue(ctx context.Context, departmentID int, date string) (int, error)
	CountCompletedLabRequests(ctx context.Context, staffID uuid.UUID) (int, error)

	AdminCounts(ctx context.Context, date string) (*AdminStats, error)
	// RecentActivities merges the latest registrations, diagnoses, and lab
	// uploads, newest first.
	RecentActivities(ctx context.Context, limit int) ([]*Activity, error)
	// TimeSeries buckets registrations, visits, and completed consultations
	// from the period's start, keyed by bucket label.
	TimeSeries(ctx context.Context, period string, since time.Time) (map[string]*TimePoint, error)

	ListStaff(ctx context.Context, search string) ([]*StaffRow, error)
	ListPatients(ctx context.Context, search string) ([]*patient.Patient, error)
}
