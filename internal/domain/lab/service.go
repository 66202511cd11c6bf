package lab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/patient"
	"github.com/clicare/clicare/internal/domain/visit"
	"github.com/clicare/clicare/internal/platform/blobstore"
)

// Grouped-order validation failures.
var (
	ErrMissingFields   = errors.New("patient id and test requests are required")
	ErrInvalidTestItem = errors.New("every test needs a name and a type")
	ErrUnknownTestType = errors.New("unknown test type")
	ErrMissingDueDate  = errors.New("due date is required")
)

// ResultsURLPrefix is the public path under which uploaded lab result files
// are served.
const ResultsURLPrefix = "/uploads/lab-results/"

type Service struct {
	repo     Repository
	patients patient.Repository
	visits   visit.Repository
	files    blobstore.BlobStore
	baseURL  string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService constructs the lab service. baseURL is the externally reachable
// server address used to build absolute file links in patient history.
func NewService(repo Repository, patients patient.Repository, visits visit.Repository,
	files blobstore.BlobStore, baseURL string, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		visits:   visits,
		files:    files,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) today() string { return s.now().Format("2006-01-02") }

func splitTests(testType string) []string {
	parts := strings.Split(testType, TestTypeSeparator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func parseInfo(raw string) (ResultInfo, bool) {
	var info ResultInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return ResultInfo{}, false
	}
	return info, true
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// CreateGrouped files one lab request covering every test the doctor ordered.
// The request attaches to the patient's visit for today, creating a lab-only
// visit when none exists.
func (s *Service) CreateGrouped(ctx context.Context, staffID uuid.UUID, in GroupInput) (*Request, error) {
	if in.PatientID == "" || len(in.TestRequests) == 0 {
		return nil, ErrMissingFields
	}
	for _, t := range in.TestRequests {
		if strings.TrimSpace(t.TestName) == "" || t.TestType == "" {
			return nil, ErrInvalidTestItem
		}
		if !ValidTestType(t.TestType) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTestType, t.TestType)
		}
	}
	if in.DueDate == nil || *in.DueDate == "" {
		return nil, ErrMissingDueDate
	}

	p, err := s.patients.GetByPatientID(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	v, err := s.visits.GetVisitForDate(ctx, p.ID, today)
	if errors.Is(err, visit.ErrVisitNotFound) {
		v = &visit.Visit{
			PatientID:       p.ID,
			VisitDate:       today,
			VisitTime:       s.now().Format("15:04:05"),
			AppointmentType: "Lab Request",
			Symptoms:        "Multiple lab tests requested",
		}
		err = s.visits.CreateVisit(ctx, v)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve visit: %w", err)
	}

	types := make([]string, len(in.TestRequests))
	for i, t := range in.TestRequests {
		types[i] = t.TestType
	}

	priority := in.Priority
	if priority == "" {
		priority = "normal"
	}
	req := &Request{
		VisitID:      v.VisitID,
		StaffID:      staffID,
		TestType:     strings.Join(types, TestTypeSeparator),
		Priority:     priority,
		Instructions: in.Instructions,
		DueDate:      in.DueDate,
		Status:       StatusPending,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create lab request: %w", err)
	}

	s.logger.Info().
		Str("patient_id", p.PatientID).
		Str("request_id", req.RequestID.String()).
		Int("tests", len(in.TestRequests)).
		Msg("grouped lab request created")
	return req, nil
}

// Upload stores one result file against a request. Every upload, named or
// not, counts toward the request's total; the request completes only once
// uploads cover the full ordered panel. The patient's medical record for the
// visit is pointed at the newest upload.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadOutcome, error) {
	p, err := s.patients.GetByPatientID(ctx, in.PatientPublicID)
	if err != nil {
		return nil, err
	}
	req, err := s.repo.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}

	stored, err := s.files.Upload(ctx, blobstore.FileMetadata{
		OriginalName: in.OriginalName,
		ContentType:  in.MimeType,
		PatientID:    in.PatientPublicID,
		RequestID:    in.RequestID.String(),
	}, bytes.NewReader(in.Content))
	if err != nil {
		return nil, err
	}

	info, err := json.Marshal(ResultInfo{
		OriginalName: in.OriginalName,
		Size:         stored.Size,
		MimeType:     in.MimeType,
		TestName:     in.TestName,
	})
	if err != nil {
		return nil, fmt.Errorf("encode result info: %w", err)
	}

	res := &Result{
		RequestID:  in.RequestID,
		PatientID:  p.ID,
		FilePath:   ResultsURLPrefix + stored.FileName,
		UploadDate: s.today(),
		Results:    string(info),
	}
	if err := s.repo.CreateResult(ctx, res); err != nil {
		return nil, fmt.Errorf("save lab result: %w", err)
	}

	s.syncStatus(ctx, req)

	if err := s.repo.LinkMedicalRecord(ctx, p.ID, req.VisitID, res.ResultID); err != nil {
		s.logger.Warn().Err(err).
			Str("request_id", req.RequestID.String()).
			Msg("medical record link failed")
	}

	return &UploadOutcome{
		ResultID:   res.ResultID,
		FileName:   in.OriginalName,
		FileURL:    res.FilePath,
		UploadDate: res.UploadDate,
		TestName:   in.TestName,
	}, nil
}

// syncStatus rewrites the stored status from the current upload count. The
// stored column is a convenience mirror only: every read path re-derives
// status itself, so failures here just log.
func (s *Service) syncStatus(ctx context.Context, req *Request) {
	results, err := s.repo.ListResultsByRequest(ctx, req.RequestID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("completion check failed")
		return
	}
	status := DeriveStatus(len(results), len(splitTests(req.TestType)))
	if status == req.Status {
		return
	}
	if err := s.repo.UpdateRequestStatus(ctx, req.RequestID, status); err != nil {
		s.logger.Warn().Err(err).
			Str("request_id", req.RequestID.String()).
			Msg("request status update failed")
	}
}

// DoctorRequests lists a doctor's lab orders with their uploads, flattening
// single-file orders and grouping multi-test panels.
func (s *Service) DoctorRequests(ctx context.Context, staffID uuid.UUID) ([]*DoctorRequest, error) {
	rows, err := s.repo.ListDoctorRequests(ctx, staffID)
	if err != nil {
		return nil, err
	}

	out := make([]*DoctorRequest, 0, len(rows))
	for _, row := range rows {
		tests := splitTests(row.TestType)
		dr := &DoctorRequest{
			RequestID:         row.RequestID,
			TestName:          row.TestType,
			TestType:          row.TestType,
			Priority:          row.Priority,
			Status:            DeriveStatus(len(row.Results), len(tests)),
			Instructions:      row.Instructions,
			DueDate:           row.DueDate,
			CreatedAt:         row.VisitDate,
			HasMultipleTests:  len(tests) > 1,
			ExpectedFileCount: len(tests),
			UploadedFileCount: len(row.Results),
			Patient:           row.Patient,
			LabResult:         formatRequestResult(row, tests),
		}
		out = append(out, dr)
	}
	return out, nil
}

func formatRequestResult(row *RequestRow, tests []string) *RequestResult {
	if len(row.Results) == 0 {
		return nil
	}

	if len(tests) > 1 && len(row.Results) > 1 {
		files := make([]ResultFile, len(row.Results))
		for i, res := range row.Results {
			testName := ""
			fileName := ""
			if info, ok := parseInfo(res.Results); ok {
				testName = info.TestName
				fileName = info.OriginalName
			}
			if testName == "" {
				if i < len(tests) {
					testName = tests[i]
				} else {
					testName = fmt.Sprintf("Test %d", i+1)
				}
			}
			if fileName == "" {
				fileName = baseName(res.FilePath)
			}
			if fileName == "" {
				fileName = "uploaded_file"
			}
			testType := "Unknown Type"
			if i < len(tests) {
				testType = tests[i]
			}
			files[i] = ResultFile{
				ResultID:   res.ResultID,
				FileName:   fileName,
				FileURL:    res.FilePath,
				UploadDate: res.UploadDate,
				TestName:   testName,
				TestType:   testType,
			}
		}
		return &RequestResult{
			IsMultiple: true,
			Files:      files,
			TotalFiles: len(row.Results),
			UploadDate: row.Results[0].UploadDate,
		}
	}

	res := row.Results[0]
	testName := row.TestType
	fileName := ""
	if info, ok := parseInfo(res.Results); ok {
		if info.TestName != "" {
			testName = info.TestName
		}
		fileName = info.OriginalName
	}
	if fileName == "" {
		fileName = baseName(res.FilePath)
	}
	if fileName == "" {
		fileName = "uploaded_file"
	}
	id := res.ResultID
	return &RequestResult{
		IsMultiple: false,
		ResultID:   &id,
		FileName:   fileName,
		FileURL:    res.FilePath,
		UploadDate: res.UploadDate,
		TestName:   testName,
		Results:    res.Results,
	}
}

// DoctorResults lists every file uploaded against a doctor's requests, newest
// first.
func (s *Service) DoctorResults(ctx context.Context, staffID uuid.UUID) ([]*DoctorResult, error) {
	rows, err := s.repo.ListDoctorResults(ctx, staffID)
	if err != nil {
		return nil, err
	}
	out := make([]*DoctorResult, 0, len(rows))
	for _, row := range rows {
		fileName := baseName(row.FilePath)
		if fileName == "" {
			fileName = "Unknown File"
		}
		out = append(out, &DoctorResult{
			ResultID:       row.ResultID,
			RequestID:      row.RequestID,
			FileName:       fileName,
			FileURL:        row.FilePath,
			UploadDate:     row.UploadDate,
			Results:        row.Results,
			Interpretation: row.Interpretation,
			TestType:       row.TestType,
			Patient:        row.Patient,
			VisitDate:      row.VisitDate,
		})
	}
	return out, nil
}

// PatientRequests lists a patient's lab orders for the upload dashboard.
func (s *Service) PatientRequests(ctx context.Context, patientPublicID string) ([]*PatientRequest, error) {
	p, err := s.patients.GetByPatientID(ctx, patientPublicID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPatientRequests(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	out := make([]*PatientRequest, 0, len(rows))
	for _, row := range rows {
		pr := &PatientRequest{
			RequestID:    row.RequestID,
			TestName:     row.TestType,
			TestType:     row.TestType,
			Priority:     row.Priority,
			Status:       DeriveStatus(row.ResultCount, len(splitTests(row.TestType))),
			Instructions: row.Instructions,
			DueDate:      row.DueDate,
			CreatedAt:    row.VisitDate,
			Doctor: RequestDoctor{
				Name:       row.DoctorName,
				Department: row.DoctorSpecialization,
			},
		}
		if row.Result != nil {
			fileName := baseName(row.Result.FilePath)
			if fileName == "" {
				fileName = "Uploaded File"
			}
			pr.LabResult = &PatientResult{
				ResultID:   row.Result.ResultID,
				FileName:   fileName,
				FileURL:    row.Result.FilePath,
				UploadDate: row.Result.UploadDate,
				Results:    row.Result.Results,
			}
		}
		out = append(out, pr)
	}
	return out, nil
}

// History lists a patient's completed lab requests with doctor and file
// summaries.
func (s *Service) History(ctx context.Context, patientPublicID string) ([]*HistoryItem, error) {
	p, err := s.patients.GetByPatientID(ctx, patientPublicID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.CompletedHistory(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	out := make([]*HistoryItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, &HistoryItem{
			RequestID:      row.RequestID,
			TestName:       row.TestType,
			TestType:       row.TestType,
			RequestDate:    row.CreatedAt,
			CompletionDate: row.FirstUpload,
			Status:         StatusCompleted,
			FileCount:      row.FileCount,
			Doctor: HistoryDoctor{
				Name:           row.DoctorName,
				Specialization: row.DoctorSpecialization,
				Department:     row.DepartmentName,
			},
		})
	}
	return out, nil
}

// HistoryFiles lists the files a patient uploaded for one request, with
// absolute download links.
func (s *Service) HistoryFiles(ctx context.Context, patientPublicID string, requestID uuid.UUID) ([]*HistoryFile, error) {
	p, err := s.patients.GetByPatientID(ctx, patientPublicID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListRequestFiles(ctx, requestID, p.ID)
	if err != nil {
		return nil, err
	}

	out := make([]*HistoryFile, 0, len(rows))
	for _, row := range rows {
		testName := row.TestType
		fileName := "Uploaded File"
		if info, ok := parseInfo(row.Results); ok {
			if info.TestName != "" {
				testName = info.TestName
			}
			if info.OriginalName != "" {
				fileName = info.OriginalName
			}
		} else if row.FilePath != "" {
			fileName = baseName(row.FilePath)
		}

		hf := &HistoryFile{
			ResultID:   row.ResultID,
			TestName:   testName,
			FileName:   fileName,
			UploadDate: row.UploadDate,
		}
		if row.FilePath != "" {
			link := s.baseURL + row.FilePath
			hf.FilePath = &link
		}
		out = append(out, hf)
	}
	return out, nil
}

// DoctorStats aggregates a doctor's lab request and upload counts.
func (s *Service) DoctorStats(ctx context.Context, staffID uuid.UUID) (*Stats, error) {
	return s.repo.Stats(ctx, staffID)
}
