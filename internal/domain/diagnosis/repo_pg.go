package diagnosis

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) CreateDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.DiagnosisID == uuid.Nil {
		d.DiagnosisID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO diagnosis (diagnosis_id, visit_id, patient_id, staff_id, diagnosis_code,
			diagnosis_description, diagnosis_type, severity, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		d.DiagnosisID, d.VisitID, d.PatientID, d.StaffID, d.DiagnosisCode,
		d.DiagnosisDescription, d.DiagnosisType, d.Severity, d.Notes).
		Scan(&d.CreatedAt)
}

func (r *repoPG) CreateMedicalRecord(ctx context.Context, m *MedicalRecord) error {
	if m.RecordID == uuid.Nil {
		m.RecordID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO medical_record (record_id, patient_id, visit_id, result_id)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		m.RecordID, m.PatientID, m.VisitID, m.ResultID).
		Scan(&m.CreatedAt)
}

func (r *repoPG) ListMedicalRecords(ctx context.Context, patientID uuid.UUID) ([]*MedicalRecordEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.record_id, m.patient_id, m.visit_id, m.result_id, m.created_at,
			v.visit_id, v.visit_date, v.visit_time, v.appointment_type, v.symptoms,
			lr.result_id, lr.file_path, lr.upload_date, lr.results, lr.interpretation
		FROM medical_record m
		JOIN visit v ON v.visit_id = m.visit_id
		LEFT JOIN lab_result lr ON lr.result_id = m.result_id
		WHERE m.patient_id = $1
		ORDER BY m.created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*MedicalRecordEntry
	for rows.Next() {
		var e MedicalRecordEntry
		var resultID *uuid.UUID
		var filePath, uploadDate, results, interpretation sql.NullString
		if err := rows.Scan(&e.RecordID, &e.PatientID, &e.VisitID, &e.ResultID, &e.CreatedAt,
			&e.Visit.VisitID, &e.Visit.VisitDate, &e.Visit.VisitTime, &e.Visit.AppointmentType,
			&e.Visit.Symptoms,
			&resultID, &filePath, &uploadDate, &results, &interpretation); err != nil {
			return nil, err
		}
		if resultID != nil {
			e.LabResult = &RecordLabResult{
				ResultID:       *resultID,
				FilePath:       filePath.String,
				UploadDate:     uploadDate.String,
				Results:        results.String,
				Interpretation: interpretation.String,
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
