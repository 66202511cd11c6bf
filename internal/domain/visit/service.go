package visit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/diagnosis"
	"github.com/clicare/clicare/internal/domain/patient"
	"github.com/clicare/clicare/internal/domain/staff"
)

var (
	// ErrMissingFields is returned when a booking lacks a patient id or
	// symptoms.
	ErrMissingFields = errors.New("patient id and symptoms are required")
	// ErrInvalidStatus is returned for queue statuses outside the known set.
	ErrInvalidStatus = errors.New("invalid queue status")
)

// DiagnosisRecorder stores the closing diagnosis when a consultation is
// completed from the queue board.
type DiagnosisRecorder interface {
	RecordQueueCompletion(ctx context.Context, in diagnosis.QueueCompletionInput) (*diagnosis.Diagnosis, *diagnosis.MedicalRecord, error)
}

// DepartmentInfo identifies the doctor's department in listing responses.
type DepartmentInfo struct {
	ID             int    `json:"id"`
	Specialization string `json:"specialization"`
}

type Service struct {
	repo      Repository
	patients  patient.Repository
	staffRepo staff.Repository
	diag      DiagnosisRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService constructs the visit service. diag may be set later with
// SetDiagnosisRecorder to break the construction cycle with the diagnosis
// service.
func NewService(repo Repository, patients patient.Repository, staffRepo staff.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		patients:  patients,
		staffRepo: staffRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) SetDiagnosisRecorder(d DiagnosisRecorder) { s.diag = d }

func (s *Service) today() string { return s.now().Format("2006-01-02") }

func (s *Service) timeOfDay() string { return s.now().Format("15:04:05") }

// enqueue creates a visit plus its queue placement and resolves the
// department name and assigned doctor.
func (s *Service) enqueue(ctx context.Context, p *patient.Patient, symptoms []string, in BookInput, appointmentType string) (*BookResult, error) {
	departmentID := DepartmentFor(symptoms, p.Age)

	v := &Visit{
		PatientID:         p.ID,
		VisitDate:         s.today(),
		VisitTime:         s.timeOfDay(),
		AppointmentType:   appointmentType,
		Symptoms:          strings.Join(symptoms, ", "),
		Duration:          in.Duration,
		Severity:          in.Severity,
		PreviousTreatment: in.PreviousTreatment,
		Allergies:         in.Allergies,
		Medications:       in.Medications,
	}
	if err := s.repo.CreateVisit(ctx, v); err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}

	q := &Queue{
		VisitID:      v.VisitID,
		DepartmentID: departmentID,
		Status:       StatusWaiting,
	}
	if err := s.repo.CreateQueue(ctx, q, v.VisitDate); err != nil {
		return nil, fmt.Errorf("create queue entry: %w", err)
	}

	deptName, err := s.repo.DepartmentName(ctx, departmentID)
	if err != nil {
		deptName = "Internal Medicine"
	}

	doctor := "Not assigned"
	if d, err := s.staffRepo.FirstDoctorInDepartment(ctx, departmentID); err == nil {
		doctor = d.Name
	}

	s.logger.Info().Str("patient_id", p.PatientID).Str("department", deptName).
		Int("queue_no", q.QueueNo).Msg("patient enqueued")

	return &BookResult{Visit: v, QueueNumber: q.QueueNo, Department: deptName, AssignedDoctor: doctor}, nil
}

// BookWalkIn enqueues a patient straight from the registration terminal.
func (s *Service) BookWalkIn(ctx context.Context, p *patient.Patient, symptoms []string, appointmentType string) (*patient.WalkInBooking, error) {
	res, err := s.enqueue(ctx, p, symptoms, BookInput{}, appointmentType)
	if err != nil {
		return nil, err
	}
	return &patient.WalkInBooking{QueueNo: res.QueueNumber, Department: res.Department}, nil
}

// Book creates a visit and queue placement for an appointment request.
func (s *Service) Book(ctx context.Context, in BookInput) (*BookResult, error) {
	if in.PatientID == "" || len(in.Symptoms) == 0 {
		return nil, ErrMissingFields
	}

	p, err := s.patients.GetByPatientID(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}

	appointmentType := in.AppointmentType
	if appointmentType == "" {
		appointmentType = "Walk-in"
	}
	return s.enqueue(ctx, p, in.Symptoms, in, appointmentType)
}

// DepartmentQueue returns today's queue board for the doctor's department,
// flagging completed consultations the doctor closed personally.
func (s *Service) DepartmentQueue(ctx context.Context, staffPublicID string) ([]*QueueEntry, *DepartmentInfo, error) {
	st, err := s.staffRepo.GetStaffByStaffID(ctx, staffPublicID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.repo.ListDepartmentQueue(ctx, st.DepartmentID, s.today())
	if err != nil {
		return nil, nil, fmt.Errorf("list department queue: %w", err)
	}

	var completed []uuid.UUID
	for _, e := range entries {
		if e.Status == StatusCompleted {
			completed = append(completed, e.VisitID)
		}
	}
	mine, err := s.repo.DiagnosedVisitIDs(ctx, st.ID, completed)
	if err != nil {
		return nil, nil, fmt.Errorf("diagnosed visits: %w", err)
	}
	byMe := make(map[uuid.UUID]bool, len(mine))
	for _, id := range mine {
		byMe[id] = true
	}
	for _, e := range entries {
		e.DiagnosedByMe = e.Status == StatusCompleted && byMe[e.VisitID]
	}

	return entries, &DepartmentInfo{ID: st.DepartmentID, Specialization: st.Specialization}, nil
}

// UpdateQueueStatus moves a queue entry through its lifecycle. Marking an
// entry completed with a diagnosis description also records the diagnosis and
// its medical record under the acting doctor.
func (s *Service) UpdateQueueStatus(ctx context.Context, staffPublicID string, queueID uuid.UUID, in StatusUpdateInput) (*Queue, *diagnosis.Diagnosis, *diagnosis.MedicalRecord, error) {
	switch in.Status {
	case StatusWaiting, StatusInProgress, StatusCompleted:
	default:
		return nil, nil, nil, ErrInvalidStatus
	}

	st, err := s.staffRepo.GetStaffByStaffID(ctx, staffPublicID)
	if err != nil {
		return nil, nil, nil, err
	}

	detail, err := s.repo.GetQueueDetail(ctx, queueID)
	if err != nil {
		return nil, nil, nil, err
	}

	updated, err := s.repo.UpdateQueueStatus(ctx, queueID, in.Status)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("update queue status: %w", err)
	}

	var d *diagnosis.Diagnosis
	var m *diagnosis.MedicalRecord
	if in.Status == StatusCompleted && in.DiagnosisDescription != "" && s.diag != nil {
		d, m, err = s.diag.RecordQueueCompletion(ctx, diagnosis.QueueCompletionInput{
			VisitID:     detail.VisitID,
			PatientID:   detail.PatientUUID,
			StaffID:     st.ID,
			Description: in.DiagnosisDescription,
			Code:        in.DiagnosisCode,
			Severity:    in.Severity,
			Notes:       in.Notes,
		})
		if err != nil {
			// The status change already landed; surface the consultation
			// as completed without a stored diagnosis.
			s.logger.Error().Err(err).Str("queue_id", queueID.String()).Msg("closing diagnosis not recorded")
			d, m = nil, nil
		}
	}

	return updated, d, m, nil
}

// GetOrCreateTodayVisit finds the patient's visit for today or opens a fresh
// consultation visit.
func (s *Service) GetOrCreateTodayVisit(ctx context.Context, patientPublicID string) (uuid.UUID, bool, error) {
	p, err := s.patients.GetByPatientID(ctx, patientPublicID)
	if err != nil {
		return uuid.Nil, false, err
	}

	if v, err := s.repo.GetVisitForDate(ctx, p.ID, s.today()); err == nil {
		return v.VisitID, false, nil
	} else if !errors.Is(err, ErrVisitNotFound) {
		return uuid.Nil, false, fmt.Errorf("find today's visit: %w", err)
	}

	v := &Visit{
		PatientID:       p.ID,
		VisitDate:       s.today(),
		VisitTime:       s.timeOfDay(),
		AppointmentType: "Diagnosis Consultation",
		Symptoms:        "Diagnosis consultation",
	}
	if err := s.repo.CreateVisit(ctx, v); err != nil {
		return uuid.Nil, false, fmt.Errorf("create visit: %w", err)
	}
	return v.VisitID, true, nil
}

// SymptomCatalog groups the active symptom list for the self-service
// terminal. General Symptoms lead, Routine Care trails, other categories sort
// alphabetically.
func (s *Service) SymptomCatalog(ctx context.Context) ([]*SymptomCategory, int, error) {
	symptoms, err := s.repo.ListActiveSymptoms(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list symptoms: %w", err)
	}

	grouped := make(map[string][]*Symptom)
	for _, sym := range symptoms {
		category := sym.Category
		if category == "" {
			category = "General"
		}
		grouped[category] = append(grouped[category], sym)
	}

	categories := make([]*SymptomCategory, 0, len(grouped))
	for name, items := range grouped {
		cat := &SymptomCategory{Category: name, Count: len(items)}
		for _, sym := range items {
			cat.Symptoms = append(cat.Symptoms, sym.Name)
			cat.Metadata = append(cat.Metadata, SymptomMeta{
				Name:          sym.Name,
				Priority:      sym.Priority,
				EstimatedWait: sym.EstimatedWait,
				AgeGroup:      sym.AgeGroup,
			})
		}
		categories = append(categories, cat)
	}

	sort.Slice(categories, func(i, j int) bool {
		a, b := categories[i].Category, categories[j].Category
		switch {
		case a == "General Symptoms":
			return true
		case b == "General Symptoms":
			return false
		case a == "Routine Care":
			return false
		case b == "Routine Care":
			return true
		default:
			return a < b
		}
	})

	return categories, len(symptoms), nil
}

// History returns the patient's visit history with diagnoses, queue
// placements, and lab orders.
func (s *Service) History(ctx context.Context, patientPublicID string) ([]*HistoryEntry, error) {
	p, err := s.patients.GetByPatientID(ctx, patientPublicID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.History(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("visit history: %w", err)
	}
	return entries, nil
}

// AllPatients lists every unique patient who has queued in the doctor's
// department.
func (s *Service) AllPatients(ctx context.Context, staffPublicID string) ([]*patient.Patient, *DepartmentInfo, error) {
	st, err := s.staffRepo.GetStaffByStaffID(ctx, staffPublicID)
	if err != nil {
		return nil, nil, err
	}
	patients, err := s.repo.DepartmentPatients(ctx, st.DepartmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("department patients: %w", err)
	}
	return patients, &DepartmentInfo{ID: st.DepartmentID, Specialization: st.Specialization}, nil
}

// MyPatients lists patients whose consultation the doctor completed on the
// given date (today when blank).
func (s *Service) MyPatients(ctx context.Context, staffPublicID, date string) ([]*MyPatient, *DepartmentInfo, error) {
	st, err := s.staffRepo.GetStaffByStaffID(ctx, staffPublicID)
	if err != nil {
		return nil, nil, err
	}
	if date == "" {
		date = s.today()
	}
	patients, err := s.repo.CompletedPatients(ctx, st.ID, st.DepartmentID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("completed patients: %w", err)
	}
	return patients, &DepartmentInfo{ID: st.DepartmentID, Specialization: st.Specialization}, nil
}
