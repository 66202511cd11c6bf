package diagnosis

import (
	"time"

	"github.com/google/uuid"
)

// Defaults applied when the closing doctor leaves fields blank. Z00.00 is the
// ICD-10 code for a general examination without complaint.
const (
	DefaultCode     = "Z00.00"
	DefaultType     = "primary"
	DefaultSeverity = "moderate"
)

// Diagnosis maps to the diagnosis table.
type Diagnosis struct {
	DiagnosisID          uuid.UUID `db:"diagnosis_id" json:"diagnosis_id"`
	VisitID              uuid.UUID `db:"visit_id" json:"visit_id"`
	PatientID            uuid.UUID `db:"patient_id" json:"patient_id"`
	StaffID              uuid.UUID `db:"staff_id" json:"staff_id"`
	DiagnosisCode        string    `db:"diagnosis_code" json:"diagnosis_code"`
	DiagnosisDescription string    `db:"diagnosis_description" json:"diagnosis_description"`
	DiagnosisType        string    `db:"diagnosis_type" json:"diagnosis_type"`
	Severity             string    `db:"severity" json:"severity"`
	Notes                string    `db:"notes" json:"notes"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// MedicalRecord maps to the medical_record table. ResultID links an optional
// lab result.
type MedicalRecord struct {
	RecordID  uuid.UUID  `db:"record_id" json:"record_id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	VisitID   uuid.UUID  `db:"visit_id" json:"visit_id"`
	ResultID  *uuid.UUID `db:"result_id" json:"result_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// RecordVisit is the visit summary embedded in a medical record listing.
type RecordVisit struct {
	VisitID         uuid.UUID `json:"visit_id"`
	VisitDate       string    `json:"visit_date"`
	VisitTime       string    `json:"visit_time"`
	AppointmentType string    `json:"appointment_type"`
	Symptoms        string    `json:"symptoms"`
}

// RecordLabResult is the lab result summary embedded in a medical record
// listing.
type RecordLabResult struct {
	ResultID       uuid.UUID `json:"result_id"`
	FilePath       string    `json:"file_path"`
	UploadDate     string    `json:"upload_date"`
	Results        string    `json:"results"`
	Interpretation string    `json:"interpretation"`
}

// MedicalRecordEntry is one row of a patient's complete record history.
type MedicalRecordEntry struct {
	MedicalRecord
	Visit     RecordVisit      `json:"visit"`
	LabResult *RecordLabResult `json:"labResult,omitempty"`
}

// CreateInput carries a direct diagnosis submission from the doctor UI.
type CreateInput struct {
	VisitID              uuid.UUID
	PatientPublicID      string
	StaffID              uuid.UUID
	DiagnosisCode        string
	DiagnosisDescription string
	DiagnosisType        string
	Severity             string
	Notes                string
	ResultID             *uuid.UUID
}

// QueueCompletionInput records the diagnosis captured when a consultation is
// marked completed from the queue board.
type QueueCompletionInput struct {
	VisitID     uuid.UUID
	PatientID   uuid.UUID
	StaffID     uuid.UUID
	Description string
	Code        string
	Severity    string
	Notes       string
}
