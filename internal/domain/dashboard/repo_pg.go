package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clicare/clicare/internal/domain/patient"
	"github.com/clicare/clicare/internal/domain/visit"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) DiagnosedToday(ctx context.Context, staffID uuid.UUID, departmentID int, date string) ([]*TodayPatient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (p.patient_id)
			p.patient_id, p.name, p.age, p.sex, p.contact_no, p.email,
			v.visit_date, v.symptoms, q.queue_no, v.visit_time, d.created_at
		FROM diagnosis d
		JOIN visit v ON v.visit_id = d.visit_id
		JOIN out_patient p ON p.id = v.patient_id
		JOIN queue q ON q.visit_id = v.visit_id
		WHERE d.staff_id = $1 AND v.visit_date = $2 AND q.department_id = $3
		ORDER BY p.patient_id, d.created_at DESC`,
		staffID, date, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TodayPatient
	for rows.Next() {
		var p TodayPatient
		if err := rows.Scan(&p.PatientID, &p.Name, &p.Age, &p.Sex, &p.ContactNo, &p.Email,
			&p.LastVisit, &p.LastSymptoms, &p.QueueNumber, &p.VisitTime, &p.DiagnosedAt); err != nil {
			return nil, err
		}
		p.QueueStatus = visit.StatusCompleted
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *repoPG) CountDiagnosedToday(ctx context.Context, staffID uuid.UUID, departmentID int, date string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM diagnosis d
		JOIN visit v ON v.visit_id = d.visit_id
		JOIN queue q ON q.visit_id = v.visit_id
		WHERE d.staff_id = $1 AND v.visit_date = $2 AND q.department_id = $3`,
		staffID, date, departmentID).Scan(&n)
	return n, err
}

func (r *repoPG) CountActiveQueue(ctx context.Context, departmentID int, date string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM queue q
		JOIN visit v ON v.visit_id = q.visit_id
		WHERE q.department_id = $1 AND v.visit_date = $2 AND q.status = ANY($3)`,
		departmentID, date, []string{visit.StatusWaiting, visit.StatusInProgress}).Scan(&n)
	return n, err
}

func (r *repoPG) CountCompletedLabRequests(ctx context.Context, staffID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM lab_request WHERE staff_id = $1 AND status = 'completed'`,
		staffID).Scan(&n)
	return n, err
}

func (r *repoPG) AdminCounts(ctx context.Context, date string) (*AdminStats, error) {
	var s AdminStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM out_patient),
			(SELECT COUNT(DISTINCT patient_id) FROM visit WHERE visit_date = $1),
			(SELECT COUNT(*) FROM health_staff WHERE role = 'Doctor'),
			(SELECT COUNT(*) FROM visit WHERE visit_date = $1)`, date).
		Scan(&s.TotalRegisteredPatients, &s.OutPatientToday, &s.ActiveConsultants,
			&s.AppointmentsToday)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) RecentActivities(ctx context.Context, limit int) ([]*Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT at, action, actor, status FROM (
			SELECT created_at AS at, 'New patient registration' AS action,
				name AS actor, 'success' AS status
			FROM out_patient
			UNION ALL
			SELECT d.created_at, 'Diagnosis recorded', s.name, 'success'
			FROM diagnosis d
			JOIN health_staff s ON s.id = d.staff_id
			UNION ALL
			SELECT res.created_at, 'Lab results uploaded', p.name, 'info'
			FROM lab_result res
			JOIN out_patient p ON p.id = res.patient_id
		) activity
		ORDER BY at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.At, &a.Action, &a.User, &a.Status); err != nil {
			return nil, err
		}
		a.ID = len(out) + 1
		out = append(out, &a)
	}
	return out, rows.Err()
}

// bucketArgs maps a period onto date_trunc and to_char arguments.
func bucketArgs(period string) (unit, format string) {
	switch period {
	case PeriodWeekly:
		return "week", "YYYY-MM-DD"
	case PeriodYearly:
		return "month", "YYYY-MM"
	default:
		return "day", "YYYY-MM-DD"
	}
}

func (r *repoPG) TimeSeries(ctx context.Context, period string, since time.Time) (map[string]*TimePoint, error) {
	unit, format := bucketArgs(period)
	points := make(map[string]*TimePoint)

	point := func(bucket string) *TimePoint {
		if p, ok := points[bucket]; ok {
			return p
		}
		p := &TimePoint{Date: bucket}
		points[bucket] = p
		return p
	}

	collect := func(query string, assign func(*TimePoint, int)) error {
		rows, err := r.pool.Query(ctx, query, unit, format, since)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var bucket string
			var n int
			if err := rows.Scan(&bucket, &n); err != nil {
				return err
			}
			assign(point(bucket), n)
		}
		return rows.Err()
	}

	if err := collect(`
		SELECT to_char(date_trunc($1, created_at), $2), COUNT(*)
		FROM out_patient WHERE created_at >= $3 GROUP BY 1`,
		func(p *TimePoint, n int) { p.Registrations = n }); err != nil {
		return nil, err
	}
	if err := collect(`
		SELECT to_char(date_trunc($1, created_at), $2), COUNT(*)
		FROM visit WHERE created_at >= $3 GROUP BY 1`,
		func(p *TimePoint, n int) { p.Appointments = n }); err != nil {
		return nil, err
	}
	if err := collect(`
		SELECT to_char(date_trunc($1, updated_at), $2), COUNT(*)
		FROM queue WHERE status = 'completed' AND updated_at >= $3 GROUP BY 1`,
		func(p *TimePoint, n int) { p.Completed = n }); err != nil {
		return nil, err
	}
	return points, nil
}

func (r *repoPG) ListStaff(ctx context.Context, search string) ([]*StaffRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.staff_id, s.name, s.role, s.specialization, s.department_id,
			d.name, s.license_no, s.contact_no, s.created_at
		FROM health_staff s
		JOIN department d ON d.department_id = s.department_id
		WHERE $1 = ''
			OR s.name ILIKE '%' || $1 || '%'
			OR s.staff_id ILIKE '%' || $1 || '%'
			OR s.role ILIKE '%' || $1 || '%'
			OR s.specialization ILIKE '%' || $1 || '%'
		ORDER BY s.name ASC`, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*StaffRow
	for rows.Next() {
		var s StaffRow
		if err := rows.Scan(&s.ID, &s.StaffID, &s.Name, &s.Role, &s.Specialization,
			&s.DepartmentID, &s.DepartmentName, &s.LicenseNo, &s.ContactNo,
			&s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) ListPatients(ctx context.Context, search string) ([]*patient.Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, name, birthday, age, sex, address, contact_no, email,
			registration_date, created_at
		FROM out_patient
		WHERE $1 = ''
			OR name ILIKE '%' || $1 || '%'
			OR patient_id ILIKE '%' || $1 || '%'
			OR email ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC`, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*patient.Patient
	for rows.Next() {
		var p patient.Patient
		if err := rows.Scan(&p.ID, &p.PatientID, &p.Name, &p.Birthday, &p.Age, &p.Sex,
			&p.Address, &p.ContactNo, &p.Email, &p.RegistrationDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
