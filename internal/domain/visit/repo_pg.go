package visit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clicare/clicare/internal/domain/patient"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const visitCols = `visit_id, patient_id, visit_date, visit_time, appointment_type, symptoms,
	duration, severity, previous_treatment, allergies, medications, created_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.VisitID, &v.PatientID, &v.VisitDate, &v.VisitTime, &v.AppointmentType,
		&v.Symptoms, &v.Duration, &v.Severity, &v.PreviousTreatment, &v.Allergies, &v.Medications,
		&v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repoPG) CreateVisit(ctx context.Context, v *Visit) error {
	if v.VisitID == uuid.Nil {
		v.VisitID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visit (visit_id, patient_id, visit_date, visit_time, appointment_type, symptoms,
			duration, severity, previous_treatment, allergies, medications)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.VisitID, v.PatientID, v.VisitDate, v.VisitTime, v.AppointmentType, v.Symptoms,
		v.Duration, v.Severity, v.PreviousTreatment, v.Allergies, v.Medications)
	return err
}

func (r *repoPG) GetVisitForDate(ctx context.Context, patientID uuid.UUID, date string) (*Visit, error) {
	return scanVisit(r.pool.QueryRow(ctx, `
		SELECT `+visitCols+` FROM visit
		WHERE patient_id = $1 AND visit_date = $2
		ORDER BY created_at DESC
		LIMIT 1`, patientID, date))
}

// CreateQueue numbers the entry within its department and day inside the
// INSERT itself, so there is no read-then-insert gap between picking the
// number and claiming it.
func (r *repoPG) CreateQueue(ctx context.Context, q *Queue, visitDate string) error {
	if q.QueueID == uuid.Nil {
		q.QueueID = uuid.New()
	}
	if q.Status == "" {
		q.Status = StatusWaiting
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO queue (queue_id, visit_id, department_id, queue_no, status)
		SELECT $1, $2, $3,
			COALESCE((
				SELECT MAX(q.queue_no)
				FROM queue q
				JOIN visit v ON v.visit_id = q.visit_id
				WHERE q.department_id = $3 AND v.visit_date = $4
			), 0) + 1,
			$5
		RETURNING queue_no`,
		q.QueueID, q.VisitID, q.DepartmentID, visitDate, q.Status).
		Scan(&q.QueueNo)
}

func (r *repoPG) GetQueueDetail(ctx context.Context, queueID uuid.UUID) (*QueueDetail, error) {
	var d QueueDetail
	err := r.pool.QueryRow(ctx, `
		SELECT q.queue_id, q.visit_id, q.department_id, q.queue_no, q.status, q.created_time, q.updated_at,
			p.id, p.patient_id
		FROM queue q
		JOIN visit v ON v.visit_id = q.visit_id
		JOIN out_patient p ON p.id = v.patient_id
		WHERE q.queue_id = $1`, queueID).
		Scan(&d.QueueID, &d.VisitID, &d.DepartmentID, &d.QueueNo, &d.Status, &d.CreatedTime,
			&d.UpdatedAt, &d.PatientUUID, &d.PatientPublicID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQueueNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) UpdateQueueStatus(ctx context.Context, queueID uuid.UUID, status string) (*Queue, error) {
	var q Queue
	err := r.pool.QueryRow(ctx, `
		UPDATE queue SET status = $2, updated_at = now()
		WHERE queue_id = $1
		RETURNING queue_id, visit_id, department_id, queue_no, status, created_time, updated_at`,
		queueID, status).
		Scan(&q.QueueID, &q.VisitID, &q.DepartmentID, &q.QueueNo, &q.Status, &q.CreatedTime, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQueueNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repoPG) ListDepartmentQueue(ctx context.Context, departmentID int, date string) ([]*QueueEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.queue_id, q.queue_no, q.status, q.created_time,
			v.visit_id, v.symptoms, v.visit_date, v.visit_time, v.appointment_type,
			p.patient_id, p.name, p.age, p.sex, p.contact_no,
			d.name
		FROM queue q
		JOIN visit v ON v.visit_id = q.visit_id
		JOIN out_patient p ON p.id = v.patient_id
		JOIN department d ON d.department_id = q.department_id
		WHERE q.department_id = $1 AND v.visit_date = $2
		ORDER BY q.queue_no ASC`, departmentID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*QueueEntry
	for rows.Next() {
		var e QueueEntry
		if err := rows.Scan(&e.QueueID, &e.QueueNo, &e.Status, &e.CreatedTime,
			&e.VisitID, &e.Symptoms, &e.VisitDate, &e.VisitTime, &e.AppointmentType,
			&e.Patient.PatientID, &e.Patient.Name, &e.Patient.Age, &e.Patient.Sex, &e.Patient.ContactNo,
			&e.Department); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *repoPG) DepartmentName(ctx context.Context, id int) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM department WHERE department_id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrDepartmentNotFound
	}
	return name, err
}

func (r *repoPG) ListActiveSymptoms(ctx context.Context) ([]*Symptom, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, category, department_id, age_group, priority, estimated_wait
		FROM symptom
		WHERE is_active = true
		ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Symptom
	for rows.Next() {
		var s Symptom
		if err := rows.Scan(&s.Name, &s.Category, &s.DepartmentID, &s.AgeGroup, &s.Priority,
			&s.EstimatedWait); err != nil {
			return nil, err
		}
		s.IsActive = true
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) DiagnosedVisitIDs(ctx context.Context, staffID uuid.UUID, visitIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(visitIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT visit_id FROM diagnosis WHERE staff_id = $1 AND visit_id = ANY($2)`,
		staffID, visitIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repoPG) DepartmentPatients(ctx context.Context, departmentID int) ([]*patient.Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (p.patient_id)
			p.id, p.patient_id, p.name, p.birthday, p.age, p.sex, p.address, p.contact_no,
			p.email, p.registration_date, p.created_at
		FROM queue q
		JOIN visit v ON v.visit_id = q.visit_id
		JOIN out_patient p ON p.id = v.patient_id
		WHERE q.department_id = $1
		ORDER BY p.patient_id, q.created_time DESC`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*patient.Patient
	for rows.Next() {
		var p patient.Patient
		if err := rows.Scan(&p.ID, &p.PatientID, &p.Name, &p.Birthday, &p.Age, &p.Sex, &p.Address,
			&p.ContactNo, &p.Email, &p.RegistrationDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

func (r *repoPG) CompletedPatients(ctx context.Context, staffID uuid.UUID, departmentID int, date string) ([]*MyPatient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (p.patient_id)
			p.patient_id, p.name, p.age, p.sex, p.contact_no, p.email,
			v.visit_date, v.symptoms, v.visit_time
		FROM diagnosis dg
		JOIN visit v ON v.visit_id = dg.visit_id
		JOIN out_patient p ON p.id = v.patient_id
		JOIN queue q ON q.visit_id = v.visit_id
		WHERE dg.staff_id = $1 AND v.visit_date = $2 AND q.department_id = $3 AND q.status = 'completed'
		ORDER BY p.patient_id, dg.created_at DESC`, staffID, date, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MyPatient
	for rows.Next() {
		var m MyPatient
		if err := rows.Scan(&m.PatientID, &m.Name, &m.Age, &m.Sex, &m.ContactNo, &m.Email,
			&m.LastVisit, &m.LastSymptoms, &m.VisitTime); err != nil {
			return nil, err
		}
		m.QueueStatus = StatusCompleted
		items = append(items, &m)
	}
	return items, rows.Err()
}

func (r *repoPG) History(ctx context.Context, patientID uuid.UUID) ([]*HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT visit_id, visit_date, visit_time, appointment_type, symptoms,
			duration, severity, previous_treatment, allergies, medications
		FROM visit
		WHERE patient_id = $1
		ORDER BY visit_date DESC, visit_time DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*HistoryEntry
	byVisit := make(map[uuid.UUID]*HistoryEntry)
	var visitIDs []uuid.UUID
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.VisitID, &e.VisitDate, &e.VisitTime, &e.AppointmentType, &e.Symptoms,
			&e.Duration, &e.Severity, &e.PreviousTreatment, &e.Allergies, &e.Medications); err != nil {
			return nil, err
		}
		e.Diagnosis = []HistoryDiagnosis{}
		e.LabRequests = []HistoryLabRequest{}
		entries = append(entries, &e)
		byVisit[e.VisitID] = &e
		visitIDs = append(visitIDs, e.VisitID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	if err := r.attachDiagnoses(ctx, byVisit, visitIDs); err != nil {
		return nil, err
	}
	if err := r.attachQueues(ctx, byVisit, visitIDs); err != nil {
		return nil, err
	}
	if err := r.attachLabRequests(ctx, byVisit, visitIDs); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repoPG) attachDiagnoses(ctx context.Context, byVisit map[uuid.UUID]*HistoryEntry, visitIDs []uuid.UUID) error {
	rows, err := r.pool.Query(ctx, `
		SELECT dg.visit_id, dg.diagnosis_id, dg.diagnosis_description, dg.diagnosis_code,
			dg.diagnosis_type, dg.severity, dg.notes, dg.created_at,
			s.name, s.specialization, s.role, s.license_no, d.name
		FROM diagnosis dg
		JOIN health_staff s ON s.id = dg.staff_id
		JOIN department d ON d.department_id = s.department_id
		WHERE dg.visit_id = ANY($1)
		ORDER BY dg.created_at DESC`, visitIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var visitID uuid.UUID
		var hd HistoryDiagnosis
		if err := rows.Scan(&visitID, &hd.DiagnosisID, &hd.DiagnosisDescription, &hd.DiagnosisCode,
			&hd.DiagnosisType, &hd.Severity, &hd.Notes, &hd.CreatedAt,
			&hd.DoctorName, &hd.DoctorSpecialization, &hd.DoctorRole, &hd.DoctorLicenseNo,
			&hd.Department); err != nil {
			return err
		}
		if e, ok := byVisit[visitID]; ok {
			e.Diagnosis = append(e.Diagnosis, hd)
		}
	}
	return rows.Err()
}

func (r *repoPG) attachQueues(ctx context.Context, byVisit map[uuid.UUID]*HistoryEntry, visitIDs []uuid.UUID) error {
	rows, err := r.pool.Query(ctx, `
		SELECT q.visit_id, q.queue_no, q.status, d.name
		FROM queue q
		JOIN department d ON d.department_id = q.department_id
		WHERE q.visit_id = ANY($1)`, visitIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var visitID uuid.UUID
		var hq HistoryQueue
		if err := rows.Scan(&visitID, &hq.QueueNo, &hq.Status, &hq.Department); err != nil {
			return err
		}
		if e, ok := byVisit[visitID]; ok {
			e.Queue = &hq
		}
	}
	return rows.Err()
}

func (r *repoPG) attachLabRequests(ctx context.Context, byVisit map[uuid.UUID]*HistoryEntry, visitIDs []uuid.UUID) error {
	rows, err := r.pool.Query(ctx, `
		SELECT lr.visit_id, lr.request_id, lr.test_type, lr.status, lr.created_at,
			s.name, s.specialization, d.name
		FROM lab_request lr
		JOIN health_staff s ON s.id = lr.staff_id
		JOIN department d ON d.department_id = s.department_id
		WHERE lr.visit_id = ANY($1)
		ORDER BY lr.created_at DESC`, visitIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var visitID uuid.UUID
		var hl HistoryLabRequest
		if err := rows.Scan(&visitID, &hl.RequestID, &hl.TestType, &hl.Status, &hl.CreatedAt,
			&hl.DoctorName, &hl.DoctorSpecialization, &hl.Department); err != nil {
			return err
		}
		if e, ok := byVisit[visitID]; ok {
			e.LabRequests = append(e.LabRequests, hl)
		}
	}
	return rows.Err()
}
