package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const staffCols = `id, staff_id, name, role, specialization, department_id, license_no, contact_no, password, created_at`

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.StaffID, &s.Name, &s.Role, &s.Specialization, &s.DepartmentID,
		&s.LicenseNo, &s.ContactNo, &s.Password, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) GetStaffByStaffID(ctx context.Context, staffID string) (*Staff, error) {
	return scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffCols+` FROM health_staff WHERE staff_id = $1`, staffID))
}

func (r *repoPG) GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffCols+` FROM health_staff WHERE id = $1`, id))
}

func (r *repoPG) FirstDoctorInDepartment(ctx context.Context, departmentID int) (*Staff, error) {
	return scanStaff(r.pool.QueryRow(ctx, `
		SELECT `+staffCols+` FROM health_staff
		WHERE department_id = $1 AND role = 'Doctor'
		ORDER BY created_at ASC
		LIMIT 1`, departmentID))
}

func (r *repoPG) GetAdminByAdminID(ctx context.Context, healthAdminID string) (*Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id, healthadmin_id, name, position, password, created_at
		FROM health_admin WHERE healthadmin_id = $1`, healthAdminID).
		Scan(&a.ID, &a.HealthAdminID, &a.Name, &a.Position, &a.Password, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
