package lab

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrRequestNotFound is returned when no lab request matches.
var ErrRequestNotFound = errors.New("lab request not found")

// RequestRow is a lab request joined with its visit, patient, and uploads.
type RequestRow struct {
	Request
	VisitDate string
	Patient   RequestPatient
	Results   []*Result
}

// ResultRow is an uploaded file joined with its request and patient.
type ResultRow struct {
	Result
	TestType  string
	VisitDate string
	Patient   RequestPatient
}

// PatientRequestRow is a lab request joined with the ordering doctor, the
// patient's first upload (if any), and the total upload count.
type PatientRequestRow struct {
	Request
	VisitDate            string
	DoctorName           string
	DoctorSpecialization string
	Result               *Result
	ResultCount          int
}

// HistoryRow is a completed request joined with its doctor, upload count, and
// earliest upload date.
type HistoryRow struct {
	Request
	DoctorName           string
	DoctorSpecialization string
	DepartmentName       string
	FileCount            int
	FirstUpload          *string
}

// FileRow is an uploaded file joined with its request's test panel.
type FileRow struct {
	Result
	TestType string
}

type Repository interface {
	CreateRequest(ctx context.Context, r *Request) error
	GetRequest(ctx context.Context, requestID uuid.UUID) (*Request, error)
	UpdateRequestStatus(ctx context.Context, requestID uuid.UUID, status string) error

	CreateResult(ctx context.Context, r *Result) error
	// ListResultsByRequest returns a request's uploads oldest first.
	ListResultsByRequest(ctx context.Context, requestID uuid.UUID) ([]*Result, error)

	// LinkMedicalRecord points the patient's medical record for a visit at
	// the given lab result, creating the record if none exists yet.
	LinkMedicalRecord(ctx context.Context, patientID, visitID, resultID uuid.UUID) error

	ListDoctorRequests(ctx context.Context, staffID uuid.UUID) ([]*RequestRow, error)
	ListDoctorResults(ctx context.Context, staffID uuid.UUID) ([]*ResultRow, error)
	ListPatientRequests(ctx context.Context, patientID uuid.UUID) ([]*PatientRequestRow, error)
	// CompletedHistory lists a patient's completed requests newest first.
	// Completion is derived from upload counts, not the stored status.
	CompletedHistory(ctx context.Context, patientID uuid.UUID) ([]*HistoryRow, error)
	// ListRequestFiles returns a patient's uploads for one request, oldest
	// first.
	ListRequestFiles(ctx context.Context, requestID, patientID uuid.UUID) ([]*FileRow, error)

	Stats(ctx context.Context, staffID uuid.UUID) (*Stats, error)
}
