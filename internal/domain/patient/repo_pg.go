package patient

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

const patientCols = `id, patient_id, name, birthday, age, sex, address, contact_no, email,
	registration_date, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PatientID, &p.Name, &p.Birthday, &p.Age, &p.Sex, &p.Address,
		&p.ContactNo, &p.Email, &p.RegistrationDate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO out_patient (id, patient_id, name, birthday, age, sex, address, contact_no, email, registration_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.PatientID, p.Name, p.Birthday, p.Age, p.Sex, p.Address, p.ContactNo, p.Email, p.RegistrationDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM out_patient WHERE id = $1`, id))
}

func (r *repoPG) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM out_patient WHERE patient_id = $1`, patientID))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM out_patient`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM out_patient ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CreateEmergencyContact(ctx context.Context, ec *EmergencyContact) error {
	if ec.ID == uuid.Nil {
		ec.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO emergency_contact (id, patient_id, name, contact_number, relationship)
		VALUES ($1,$2,$3,$4,$5)`,
		ec.ID, ec.PatientID, ec.Name, ec.ContactNumber, ec.Relationship)
	return err
}

func (r *repoPG) ListEmergencyContacts(ctx context.Context, patientID uuid.UUID) ([]*EmergencyContact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, name, contact_number, relationship
		FROM emergency_contact WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*EmergencyContact
	for rows.Next() {
		var ec EmergencyContact
		if err := rows.Scan(&ec.ID, &ec.PatientID, &ec.Name, &ec.ContactNumber, &ec.Relationship); err != nil {
			return nil, err
		}
		items = append(items, &ec)
	}
	return items, rows.Err()
}
