package visit

import (
	"time"

	"github.com/google/uuid"
)

// Queue statuses.
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Department maps to the department table.
type Department struct {
	ID   int    `db:"department_id" json:"department_id"`
	Name string `db:"name" json:"name"`
}

// Visit maps to the visit table. Dates and times are stored as strings in the
// hospital's local time.
type Visit struct {
	VisitID           uuid.UUID `db:"visit_id" json:"visit_id"`
	PatientID         uuid.UUID `db:"patient_id" json:"patient_id"`
	VisitDate         string    `db:"visit_date" json:"visit_date"`
	VisitTime         string    `db:"visit_time" json:"visit_time"`
	AppointmentType   string    `db:"appointment_type" json:"appointment_type"`
	Symptoms          string    `db:"symptoms" json:"symptoms"`
	Duration          string    `db:"duration" json:"duration,omitempty"`
	Severity          string    `db:"severity" json:"severity,omitempty"`
	PreviousTreatment string    `db:"previous_treatment" json:"previous_treatment,omitempty"`
	Allergies         string    `db:"allergies" json:"allergies,omitempty"`
	Medications       string    `db:"medications" json:"medications,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Queue maps to the queue table.
type Queue struct {
	QueueID      uuid.UUID `db:"queue_id" json:"queue_id"`
	VisitID      uuid.UUID `db:"visit_id" json:"visit_id"`
	DepartmentID int       `db:"department_id" json:"department_id"`
	QueueNo      int       `db:"queue_no" json:"queue_no"`
	Status       string    `db:"status" json:"status"`
	CreatedTime  time.Time `db:"created_time" json:"created_time"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// QueuePatient is the patient summary embedded in queue listings.
type QueuePatient struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Sex       string `json:"sex"`
	ContactNo string `json:"contact_no"`
}

// QueueEntry is one row of a department's daily queue board.
type QueueEntry struct {
	QueueID         uuid.UUID    `json:"queue_id"`
	QueueNo         int          `json:"queue_no"`
	Status          string       `json:"status"`
	CreatedTime     time.Time    `json:"created_time"`
	VisitID         uuid.UUID    `json:"visit_id"`
	Symptoms        string       `json:"symptoms"`
	VisitDate       string       `json:"visit_date"`
	VisitTime       string       `json:"visit_time"`
	AppointmentType string       `json:"appointment_type"`
	Patient         QueuePatient `json:"patient"`
	Department      string       `json:"department"`
	DiagnosedByMe   bool         `json:"diagnosedByMe"`
}

// Symptom maps to the symptom table used by the self-service terminal.
type Symptom struct {
	Name          string `db:"name" json:"name"`
	Category      string `db:"category" json:"category"`
	DepartmentID  int    `db:"department_id" json:"department_id"`
	AgeGroup      string `db:"age_group" json:"age_group"`
	Priority      string `db:"priority" json:"priority"`
	EstimatedWait string `db:"estimated_wait" json:"estimated_wait"`
	IsActive      bool   `db:"is_active" json:"-"`
}

// SymptomMeta is the per-symptom detail kept alongside the flat name list.
type SymptomMeta struct {
	Name          string `json:"name"`
	Priority      string `json:"priority"`
	EstimatedWait string `json:"estimated_wait"`
	AgeGroup      string `json:"age_group"`
}

// SymptomCategory groups symptoms for the terminal UI.
type SymptomCategory struct {
	Category string        `json:"category"`
	Symptoms []string      `json:"symptoms"`
	Count    int           `json:"count"`
	Metadata []SymptomMeta `json:"metadata"`
}

// BookInput carries the appointment booking form.
type BookInput struct {
	PatientID         string   `json:"patient_id"`
	Symptoms          []string `json:"symptoms"`
	Duration          string   `json:"duration"`
	Severity          string   `json:"severity"`
	PreviousTreatment string   `json:"previous_treatment"`
	Allergies         string   `json:"allergies"`
	Medications       string   `json:"medications"`
	AppointmentType   string   `json:"appointment_type"`
}

// BookResult reports a booked visit and its queue placement.
type BookResult struct {
	Visit          *Visit
	QueueNumber    int
	Department     string
	AssignedDoctor string
}

// QueueDetail is a queue row joined with its visit's patient keys, used when
// closing out a consultation.
type QueueDetail struct {
	Queue
	PatientUUID     uuid.UUID `json:"-"`
	PatientPublicID string    `json:"-"`
}

// MyPatient is one row of a doctor's completed-consultation list.
type MyPatient struct {
	PatientID    string `json:"patient_id"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Sex          string `json:"sex"`
	ContactNo    string `json:"contact_no"`
	Email        string `json:"email"`
	LastVisit    string `json:"lastVisit"`
	LastSymptoms string `json:"lastSymptoms"`
	QueueStatus  string `json:"queueStatus"`
	VisitTime    string `json:"visitTime"`
	IsInQueue    bool   `json:"isInQueue"`
}

// HistoryDiagnosis is a diagnosis with its signing doctor, embedded in visit
// history.
type HistoryDiagnosis struct {
	DiagnosisID          uuid.UUID `json:"diagnosis_id"`
	DiagnosisDescription string    `json:"diagnosis_description"`
	DiagnosisCode        string    `json:"diagnosis_code"`
	DiagnosisType        string    `json:"diagnosis_type"`
	Severity             string    `json:"severity"`
	Notes                string    `json:"notes"`
	CreatedAt            time.Time `json:"created_at"`
	DoctorName           string    `json:"doctor_name"`
	DoctorSpecialization string    `json:"doctor_specialization"`
	DoctorRole           string    `json:"doctor_role"`
	DoctorLicenseNo      string    `json:"doctor_license_no"`
	Department           string    `json:"department"`
}

// HistoryQueue is the queue placement embedded in visit history.
type HistoryQueue struct {
	QueueNo    int    `json:"queue_no"`
	Status     string `json:"status"`
	Department string `json:"department"`
}

// HistoryLabRequest is a lab order embedded in visit history.
type HistoryLabRequest struct {
	RequestID            uuid.UUID `json:"request_id"`
	TestType             string    `json:"test_type"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	DoctorName           string    `json:"doctor_name"`
	DoctorSpecialization string    `json:"doctor_specialization"`
	Department           string    `json:"department"`
}

// HistoryEntry is one visit in a patient's history, newest first.
type HistoryEntry struct {
	VisitID           uuid.UUID           `json:"visit_id"`
	VisitDate         string              `json:"visit_date"`
	VisitTime         string              `json:"visit_time"`
	AppointmentType   string              `json:"appointment_type"`
	Symptoms          string              `json:"symptoms"`
	Duration          string              `json:"duration,omitempty"`
	Severity          string              `json:"severity,omitempty"`
	PreviousTreatment string              `json:"previous_treatment,omitempty"`
	Allergies         string              `json:"allergies,omitempty"`
	Medications       string              `json:"medications,omitempty"`
	Diagnosis         []HistoryDiagnosis  `json:"diagnosis"`
	Queue             *HistoryQueue       `json:"queue,omitempty"`
	LabRequests       []HistoryLabRequest `json:"labRequest"`
}

// StatusUpdateInput carries a queue status change, optionally with the
// closing diagnosis.
type StatusUpdateInput struct {
	Status               string `json:"status"`
	DiagnosisDescription string `json:"diagnosis_description"`
	DiagnosisCode        string `json:"diagnosis_code"`
	Severity             string `json:"severity"`
	Notes                string `json:"notes"`
}
