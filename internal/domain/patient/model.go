package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the out_patient table. PatientID is the public hospital
// identifier (e.g. PAT123456789); ID is the internal key.
type Patient struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        string    `db:"patient_id" json:"patient_id"`
	Name             string    `db:"name" json:"name"`
	Birthday         string    `db:"birthday" json:"birthday"`
	Age              int       `db:"age" json:"age"`
	Sex              string    `db:"sex" json:"sex"`
	Address          string    `db:"address" json:"address"`
	ContactNo        string    `db:"contact_no" json:"contact_no"`
	Email            string    `db:"email" json:"email"`
	RegistrationDate string    `db:"registration_date" json:"registration_date"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`

	// Populated for profile responses only.
	EmergencyContacts []*EmergencyContact `db:"-" json:"emergencyContact,omitempty"`
}

// EmergencyContact maps to the emergency_contact table.
type EmergencyContact struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	Name          string    `db:"name" json:"name"`
	ContactNumber string    `db:"contact_number" json:"contact_number"`
	Relationship  string    `db:"relationship" json:"relationship"`
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Name                         string   `json:"name"`
	Birthday                     string   `json:"birthday"`
	Age                          int      `json:"age"`
	Sex                          string   `json:"sex"`
	Address                      string   `json:"address"`
	ContactNo                    string   `json:"contact_no"`
	Email                        string   `json:"email"`
	EmergencyContactName         string   `json:"emergency_contact_name"`
	EmergencyContactRelationship string   `json:"emergency_contact_relationship"`
	EmergencyContactNo           string   `json:"emergency_contact_no"`
	Symptoms                     []string `json:"symptoms"`
}
