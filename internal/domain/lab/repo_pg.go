package lab

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

const requestCols = `request_id, visit_id, staff_id, test_type, priority, instructions, due_date,
	status, created_at`

const resultCols = `result_id, request_id, patient_id, file_path, upload_date, results,
	interpretation, created_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	err := row.Scan(&r.RequestID, &r.VisitID, &r.StaffID, &r.TestType, &r.Priority,
		&r.Instructions, &r.DueDate, &r.Status, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *repoPG) CreateRequest(ctx context.Context, req *Request) error {
	if req.RequestID == uuid.Nil {
		req.RequestID = uuid.New()
	}
	if req.Status == "" {
		req.Status = StatusPending
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO lab_request (request_id, visit_id, staff_id, test_type, priority,
			instructions, due_date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		req.RequestID, req.VisitID, req.StaffID, req.TestType, req.Priority,
		req.Instructions, req.DueDate, req.Status).
		Scan(&req.CreatedAt)
}

func (r *repoPG) GetRequest(ctx context.Context, requestID uuid.UUID) (*Request, error) {
	return scanRequest(r.pool.QueryRow(ctx, `
		SELECT `+requestCols+` FROM lab_request WHERE request_id = $1`, requestID))
}

func (r *repoPG) UpdateRequestStatus(ctx context.Context, requestID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lab_request SET status = $2 WHERE request_id = $1`, requestID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *repoPG) CreateResult(ctx context.Context, res *Result) error {
	if res.ResultID == uuid.Nil {
		res.ResultID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO lab_result (result_id, request_id, patient_id, file_path, upload_date,
			results, interpretation)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		res.ResultID, res.RequestID, res.PatientID, res.FilePath, res.UploadDate,
		res.Results, res.Interpretation).
		Scan(&res.CreatedAt)
}

func (r *repoPG) ListResultsByRequest(ctx context.Context, requestID uuid.UUID) ([]*Result, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+resultCols+` FROM lab_result
		WHERE request_id = $1
		ORDER BY upload_date ASC, created_at ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows)
}

func collectResults(rows pgx.Rows) ([]*Result, error) {
	var out []*Result
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.ResultID, &res.RequestID, &res.PatientID, &res.FilePath,
			&res.UploadDate, &res.Results, &res.Interpretation, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

func (r *repoPG) LinkMedicalRecord(ctx context.Context, patientID, visitID, resultID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medical_record SET result_id = $3, updated_at = now()
		WHERE patient_id = $1 AND visit_id = $2`,
		patientID, visitID, resultID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO medical_record (record_id, patient_id, visit_id, result_id)
		VALUES ($1,$2,$3,$4)`,
		uuid.New(), patientID, visitID, resultID)
	return err
}

func (r *repoPG) ListDoctorRequests(ctx context.Context, staffID uuid.UUID) ([]*RequestRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lr.request_id, lr.visit_id, lr.staff_id, lr.test_type, lr.priority,
			lr.instructions, lr.due_date, lr.status, lr.created_at, v.visit_date,
			p.patient_id, p.name, p.age, p.sex, p.contact_no
		FROM lab_request lr
		JOIN visit v ON v.visit_id = lr.visit_id
		JOIN out_patient p ON p.id = v.patient_id
		WHERE lr.staff_id = $1
		ORDER BY lr.created_at DESC`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*RequestRow
	byRequest := make(map[uuid.UUID]*RequestRow)
	var ids []uuid.UUID
	for rows.Next() {
		var row RequestRow
		if err := rows.Scan(&row.RequestID, &row.VisitID, &row.StaffID, &row.TestType,
			&row.Priority, &row.Instructions, &row.DueDate, &row.Status, &row.CreatedAt,
			&row.VisitDate, &row.Patient.PatientID, &row.Patient.Name, &row.Patient.Age,
			&row.Patient.Sex, &row.Patient.ContactNo); err != nil {
			return nil, err
		}
		out = append(out, &row)
		byRequest[row.RequestID] = &row
		ids = append(ids, row.RequestID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	resRows, err := r.pool.Query(ctx, `
		SELECT `+resultCols+` FROM lab_result
		WHERE request_id = ANY($1)
		ORDER BY upload_date ASC, created_at ASC`, ids)
	if err != nil {
		return nil, err
	}
	defer resRows.Close()
	results, err := collectResults(resRows)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if row, ok := byRequest[res.RequestID]; ok {
			row.Results = append(row.Results, res)
		}
	}
	return out, nil
}

func (r *repoPG) ListDoctorResults(ctx context.Context, staffID uuid.UUID) ([]*ResultRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT res.result_id, res.request_id, res.patient_id, res.file_path, res.upload_date,
			res.results, res.interpretation, res.created_at,
			lr.test_type, v.visit_date, p.patient_id, p.name, p.age, p.sex, p.contact_no
		FROM lab_result res
		JOIN lab_request lr ON lr.request_id = res.request_id
		JOIN visit v ON v.visit_id = lr.visit_id
		JOIN out_patient p ON p.id = v.patient_id
		WHERE lr.staff_id = $1
		ORDER BY res.upload_date DESC, res.created_at DESC`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ResultRow
	for rows.Next() {
		var row ResultRow
		if err := rows.Scan(&row.ResultID, &row.RequestID, &row.PatientID, &row.FilePath,
			&row.UploadDate, &row.Results, &row.Interpretation, &row.CreatedAt,
			&row.TestType, &row.VisitDate, &row.Patient.PatientID, &row.Patient.Name,
			&row.Patient.Age, &row.Patient.Sex, &row.Patient.ContactNo); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

func (r *repoPG) ListPatientRequests(ctx context.Context, patientID uuid.UUID) ([]*PatientRequestRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lr.request_id, lr.visit_id, lr.staff_id, lr.test_type, lr.priority,
			lr.instructions, lr.due_date, lr.status, lr.created_at, v.visit_date,
			s.name, s.specialization
		FROM lab_request lr
		JOIN visit v ON v.visit_id = lr.visit_id
		JOIN health_staff s ON s.id = lr.staff_id
		WHERE v.patient_id = $1
		ORDER BY lr.created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PatientRequestRow
	byRequest := make(map[uuid.UUID]*PatientRequestRow)
	var ids []uuid.UUID
	for rows.Next() {
		var row PatientRequestRow
		if err := rows.Scan(&row.RequestID, &row.VisitID, &row.StaffID, &row.TestType,
			&row.Priority, &row.Instructions, &row.DueDate, &row.Status, &row.CreatedAt,
			&row.VisitDate, &row.DoctorName, &row.DoctorSpecialization); err != nil {
			return nil, err
		}
		out = append(out, &row)
		byRequest[row.RequestID] = &row
		ids = append(ids, row.RequestID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	resRows, err := r.pool.Query(ctx, `
		SELECT `+resultCols+` FROM lab_result
		WHERE patient_id = $1 AND request_id = ANY($2)
		ORDER BY upload_date ASC, created_at ASC`, patientID, ids)
	if err != nil {
		return nil, err
	}
	defer resRows.Close()
	results, err := collectResults(resRows)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if row, ok := byRequest[res.RequestID]; ok {
			row.ResultCount++
			if row.Result == nil {
				row.Result = res
			}
		}
	}
	return out, nil
}

// CompletedHistory derives completion from the upload count against the
// ordered panel size rather than trusting the stored status column.
func (r *repoPG) CompletedHistory(ctx context.Context, patientID uuid.UUID) ([]*HistoryRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lr.request_id, lr.visit_id, lr.staff_id, lr.test_type, lr.priority,
			lr.instructions, lr.due_date, lr.status, lr.created_at,
			s.name, s.specialization, d.name,
			COUNT(res.result_id), MIN(res.upload_date)
		FROM lab_request lr
		JOIN visit v ON v.visit_id = lr.visit_id
		JOIN health_staff s ON s.id = lr.staff_id
		JOIN department d ON d.department_id = s.department_id
		LEFT JOIN lab_result res ON res.request_id = lr.request_id
		WHERE v.patient_id = $1
		GROUP BY lr.request_id, lr.visit_id, lr.staff_id, lr.test_type, lr.priority,
			lr.instructions, lr.due_date, lr.status, lr.created_at,
			s.name, s.specialization, d.name
		HAVING COUNT(res.result_id) >= array_length(string_to_array(lr.test_type, $2), 1)
		ORDER BY lr.created_at DESC`, patientID, TestTypeSeparator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*HistoryRow
	for rows.Next() {
		var row HistoryRow
		if err := rows.Scan(&row.RequestID, &row.VisitID, &row.StaffID, &row.TestType,
			&row.Priority, &row.Instructions, &row.DueDate, &row.Status, &row.CreatedAt,
			&row.DoctorName, &row.DoctorSpecialization, &row.DepartmentName,
			&row.FileCount, &row.FirstUpload); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

func (r *repoPG) ListRequestFiles(ctx context.Context, requestID, patientID uuid.UUID) ([]*FileRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT res.result_id, res.request_id, res.patient_id, res.file_path, res.upload_date,
			res.results, res.interpretation, res.created_at, lr.test_type
		FROM lab_result res
		JOIN lab_request lr ON lr.request_id = res.request_id
		WHERE res.request_id = $1 AND res.patient_id = $2
		ORDER BY res.upload_date ASC, res.created_at ASC`, requestID, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*FileRow
	for rows.Next() {
		var row FileRow
		if err := rows.Scan(&row.ResultID, &row.RequestID, &row.PatientID, &row.FilePath,
			&row.UploadDate, &row.Results, &row.Interpretation, &row.CreatedAt,
			&row.TestType); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

// Stats classifies each request as pending or completed by comparing its
// upload count against the ordered panel size.
func (r *repoPG) Stats(ctx context.Context, staffID uuid.UUID) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE uploaded < expected),
			COUNT(*) FILTER (WHERE uploaded >= expected)
		FROM (
			SELECT array_length(string_to_array(lr.test_type, $2), 1) AS expected,
				COUNT(res.result_id) AS uploaded
			FROM lab_request lr
			LEFT JOIN lab_result res ON res.request_id = lr.request_id
			WHERE lr.staff_id = $1
			GROUP BY lr.request_id
		) counted`,
		staffID, TestTypeSeparator).
		Scan(&s.TotalRequests, &s.PendingRequests, &s.CompletedRequests)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM lab_result res
		JOIN lab_request lr ON lr.request_id = res.request_id
		WHERE lr.staff_id = $1`, staffID).
		Scan(&s.TotalFilesUploaded)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
