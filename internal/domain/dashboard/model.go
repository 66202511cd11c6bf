package dashboard

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TodayPatient is one patient a doctor consulted today.
type TodayPatient struct {
	PatientID    string    `json:"patient_id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Sex          string    `json:"sex"`
	ContactNo    string    `json:"contact_no"`
	Email        string    `json:"email"`
	LastVisit    string    `json:"lastVisit"`
	LastSymptoms string    `json:"lastSymptoms"`
	QueueStatus  string    `json:"queueStatus"`
	QueueNumber  int       `json:"queueNumber"`
	VisitTime    string    `json:"visitTime"`
	IsInQueue    bool      `json:"isInQueue"`
	DiagnosedAt  time.Time `json:"diagnosedAt"`
}

// Breakdown splits a doctor's daily patient count by progress.
type Breakdown struct {
	Consulted int `json:"consulted"`
	InQueue   int `json:"inQueue"`
	Total     int `json:"total"`
}

// StaffStats is the doctor dashboard headline.
type StaffStats struct {
	MyPatientsToday int       `json:"myPatientsToday"`
	TotalLabResults int       `json:"totalLabResults"`
	Breakdown       Breakdown `json:"breakdown"`
}

// AdminStats is the admin dashboard headline.
type AdminStats struct {
	TotalRegisteredPatients int `json:"totalRegisteredPatients"`
	OutPatientToday         int `json:"outPatientToday"`
	ActiveConsultants       int `json:"activeConsultants"`
	AppointmentsToday       int `json:"appointmentsToday"`
}

// Activity is one row of the admin activity feed. Time is a humanized age
// ("5 min"); At carries the underlying timestamp.
type Activity struct {
	ID     int       `json:"id"`
	Time   string    `json:"time"`
	Action string    `json:"action"`
	User   string    `json:"user"`
	Status string    `json:"status"`
	At     time.Time `json:"-"`
}

// SystemStatus reports coarse component health for the admin dashboard.
type SystemStatus struct {
	Server   string `json:"server"`
	Database string `json:"database"`
	Backup   string `json:"backup"`
}

// TimePoint is one bucket of the registrations/visits chart.
type TimePoint struct {
	Date          string `json:"date"`
	Registrations int    `json:"registrations"`
	Appointments  int    `json:"appointments"`
	Completed     int    `json:"completed"`
}

// StaffRow is one row of the admin staff directory.
type StaffRow struct {
	ID             uuid.UUID `json:"id"`
	StaffID        string    `json:"staff_id"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	Specialization string    `json:"specialization"`
	DepartmentID   int       `json:"department_id"`
	DepartmentName string    `json:"department_name"`
	LicenseNo      string    `json:"license_no"`
	ContactNo      string    `json:"contact_no"`
	IsOnline       bool      `json:"is_online"`
	CreatedAt      time.Time `json:"created_at"`
}

// AnalyzeInput carries an admin assistant query. HospitalData is the
// aggregated snapshot the client already holds; it is passed through to the
// model verbatim.
type AnalyzeInput struct {
	Query        string          `json:"query"`
	HospitalData json.RawMessage `json:"hospitalData"`
}

// AnalyzeResult is the assistant's answer with an optional chart directive.
// ChartType "none" means text only.
type AnalyzeResult struct {
	TextResponse string          `json:"textResponse"`
	ChartType    string          `json:"chartType"`
	ChartData    json.RawMessage `json:"chartData,omitempty"`
	ChartTitle   string          `json:"chartTitle,omitempty"`
}
