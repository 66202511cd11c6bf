package lab

import (
	"time"

	"github.com/google/uuid"
)

// Request statuses. A request stays pending until every ordered test has a
// file uploaded against it.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// TestTypeSeparator joins the individual tests of a grouped order into the
// single test_type column, and splits them back out on read.
const TestTypeSeparator = ", "

// testTypes is the set of orderable test types. Order forms only offer these
// values, so anything else is a malformed request.
var testTypes = map[string]bool{
	"Blood Test": true,
	"Urine Test": true,
	"Stool Test": true,
	"X-Ray":      true,
	"CT Scan":    true,
	"MRI":        true,
	"Ultrasound": true,
	"ECG":        true,
	"Echo":       true,
	"Biopsy":     true,
	"Culture":    true,
	"Other":      true,
}

// ValidTestType reports whether t is one of the orderable test types.
func ValidTestType(t string) bool { return testTypes[t] }

// DeriveStatus computes a request's effective status from its upload count.
// Status is never read back from storage: a request is completed exactly when
// uploads cover every ordered test, and pending otherwise.
func DeriveStatus(uploaded, expected int) string {
	if expected > 0 && uploaded >= expected {
		return StatusCompleted
	}
	return StatusPending
}

// Request maps to the lab_request table. TestType holds the full ordered
// panel, separator-joined when the doctor groups several tests.
type Request struct {
	RequestID    uuid.UUID `db:"request_id" json:"request_id"`
	VisitID      uuid.UUID `db:"visit_id" json:"visit_id"`
	StaffID      uuid.UUID `db:"staff_id" json:"staff_id"`
	TestType     string    `db:"test_type" json:"test_type"`
	Priority     string    `db:"priority" json:"priority"`
	Instructions string    `db:"instructions" json:"instructions"`
	DueDate      *string   `db:"due_date" json:"due_date"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Result maps to the lab_result table. Results carries a JSON document
// describing the uploaded file (see ResultInfo).
type Result struct {
	ResultID       uuid.UUID `db:"result_id" json:"result_id"`
	RequestID      uuid.UUID `db:"request_id" json:"request_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	FilePath       string    `db:"file_path" json:"file_path"`
	UploadDate     string    `db:"upload_date" json:"upload_date"`
	Results        string    `db:"results" json:"results"`
	Interpretation string    `db:"interpretation" json:"interpretation"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ResultInfo is the JSON payload stored in Result.Results. TestName ties the
// file back to one test of a grouped order; single-file uploads omit it.
type ResultInfo struct {
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimeType"`
	TestName     string `json:"testName,omitempty"`
}

// TestItem is one test of a grouped order form.
type TestItem struct {
	TestName string `json:"test_name"`
	TestType string `json:"test_type"`
}

// GroupInput carries the doctor's grouped lab order.
type GroupInput struct {
	PatientID    string     `json:"patient_id"`
	TestRequests []TestItem `json:"test_requests"`
	Priority     string     `json:"priority"`
	Instructions string     `json:"instructions"`
	DueDate      *string    `json:"due_date"`
	GroupName    string     `json:"group_name"`
}

// UploadInput carries one patient-side file upload. TestName is set for
// per-test uploads against a grouped order and empty for whole-request
// uploads. Either way the file counts toward the request's upload total.
type UploadInput struct {
	RequestID       uuid.UUID
	PatientPublicID string
	TestName        string
	OriginalName    string
	MimeType        string
	Content         []byte
}

// UploadOutcome reports a stored lab result file.
type UploadOutcome struct {
	ResultID   uuid.UUID `json:"result_id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	UploadDate string    `json:"upload_date"`
	TestName   string    `json:"testName,omitempty"`
}

// RequestPatient is the patient summary embedded in doctor-side listings.
type RequestPatient struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Sex       string `json:"sex"`
	ContactNo string `json:"contact_no"`
}

// ResultFile is one uploaded file of a multi-test order.
type ResultFile struct {
	ResultID   uuid.UUID `json:"result_id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	UploadDate string    `json:"upload_date"`
	TestName   string    `json:"testName"`
	TestType   string    `json:"testType"`
}

// RequestResult summarizes the uploads attached to a request. Multi-test
// orders with several files list them all; otherwise the first file is
// flattened inline.
type RequestResult struct {
	IsMultiple bool         `json:"isMultiple"`
	Files      []ResultFile `json:"files,omitempty"`
	TotalFiles int          `json:"totalFiles,omitempty"`
	UploadDate string       `json:"upload_date"`
	ResultID   *uuid.UUID   `json:"result_id,omitempty"`
	FileName   string       `json:"file_name,omitempty"`
	FileURL    string       `json:"file_url,omitempty"`
	TestName   string       `json:"testName,omitempty"`
	Results    string       `json:"results,omitempty"`
}

// DoctorRequest is one row of a doctor's lab request board.
type DoctorRequest struct {
	RequestID         uuid.UUID      `json:"request_id"`
	TestName          string         `json:"test_name"`
	TestType          string         `json:"test_type"`
	Priority          string         `json:"priority"`
	Status            string         `json:"status"`
	Instructions      string         `json:"instructions"`
	DueDate           *string        `json:"due_date"`
	CreatedAt         string         `json:"created_at"`
	HasMultipleTests  bool           `json:"hasMultipleTests"`
	ExpectedFileCount int            `json:"expectedFileCount"`
	UploadedFileCount int            `json:"uploadedFileCount"`
	Patient           RequestPatient `json:"patient"`
	LabResult         *RequestResult `json:"labResult"`
}

// DoctorResult is one uploaded file in the doctor's flat results listing.
type DoctorResult struct {
	ResultID       uuid.UUID      `json:"result_id"`
	RequestID      uuid.UUID      `json:"request_id"`
	FileName       string         `json:"file_name"`
	FileURL        string         `json:"file_url"`
	UploadDate     string         `json:"upload_date"`
	Results        string         `json:"results"`
	Interpretation string         `json:"interpretation"`
	TestType       string         `json:"test_type"`
	Patient        RequestPatient `json:"patient"`
	VisitDate      string         `json:"visit_date"`
}

// RequestDoctor is the ordering doctor embedded in patient-side listings.
type RequestDoctor struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

// PatientResult is the uploaded file attached to a patient-side request row.
type PatientResult struct {
	ResultID   uuid.UUID `json:"result_id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	UploadDate string    `json:"upload_date"`
	Results    string    `json:"results"`
}

// PatientRequest is one row of the patient's pending-uploads dashboard.
type PatientRequest struct {
	RequestID    uuid.UUID      `json:"request_id"`
	TestName     string         `json:"test_name"`
	TestType     string         `json:"test_type"`
	Priority     string         `json:"priority"`
	Status       string         `json:"status"`
	Instructions string         `json:"instructions"`
	DueDate      *string        `json:"due_date"`
	CreatedAt    string         `json:"created_at"`
	Doctor       RequestDoctor  `json:"doctor"`
	LabResult    *PatientResult `json:"labResult"`
}

// HistoryDoctor is the ordering doctor embedded in lab history rows.
type HistoryDoctor struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Department     string `json:"department"`
}

// HistoryItem is one completed request in the patient's lab history.
type HistoryItem struct {
	RequestID      uuid.UUID     `json:"request_id"`
	TestName       string        `json:"test_name"`
	TestType       string        `json:"test_type"`
	RequestDate    time.Time     `json:"request_date"`
	CompletionDate *string       `json:"completion_date"`
	Status         string        `json:"status"`
	FileCount      int           `json:"file_count"`
	Doctor         HistoryDoctor `json:"doctor"`
}

// HistoryFile is one file of a completed request in the patient's history.
type HistoryFile struct {
	ResultID   uuid.UUID `json:"result_id"`
	TestName   string    `json:"test_name"`
	FileName   string    `json:"file_name"`
	FilePath   *string   `json:"file_path"`
	UploadDate string    `json:"upload_date"`
}

// Stats aggregates a doctor's lab workload.
type Stats struct {
	TotalRequests      int `json:"totalRequests"`
	PendingRequests    int `json:"pendingRequests"`
	CompletedRequests  int `json:"completedRequests"`
	TotalFilesUploaded int `json:"totalFilesUploaded"`
}
