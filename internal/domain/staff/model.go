package staff

import (
	"time"

	"github.com/google/uuid"
)

// Staff maps to the health_staff table. StaffID is the public provider
// identifier (e.g. DOC001).
type Staff struct {
	ID             uuid.UUID `db:"id" json:"id"`
	StaffID        string    `db:"staff_id" json:"staff_id"`
	Name           string    `db:"name" json:"name"`
	Role           string    `db:"role" json:"role"`
	Specialization string    `db:"specialization" json:"specialization"`
	DepartmentID   int       `db:"department_id" json:"department_id"`
	LicenseNo      string    `db:"license_no" json:"license_no"`
	ContactNo      string    `db:"contact_no" json:"contact_no"`
	Password       string    `db:"password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Admin maps to the health_admin table.
type Admin struct {
	ID            uuid.UUID `db:"id" json:"id"`
	HealthAdminID string    `db:"healthadmin_id" json:"healthadmin_id"`
	Name          string    `db:"name" json:"name"`
	Position      string    `db:"position" json:"position"`
	Password      string    `db:"password" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
