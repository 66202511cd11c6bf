package diagnosis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/patient"
)

// ErrMissingFields is returned when a diagnosis submission lacks its required
// identifiers or description.
var ErrMissingFields = errors.New("visit id, patient id, and diagnosis description are required")

type Service struct {
	repo     Repository
	patients patient.Repository
	logger   zerolog.Logger
}

func NewService(repo Repository, patients patient.Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, logger: logger}
}

// Create stores a diagnosis submitted directly from the doctor UI, plus its
// medical record entry. The record entry is best-effort: a failure there
// never rolls back the diagnosis.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Diagnosis, *MedicalRecord, error) {
	if in.VisitID == uuid.Nil || in.PatientPublicID == "" || in.DiagnosisDescription == "" {
		return nil, nil, ErrMissingFields
	}

	p, err := s.patients.GetByPatientID(ctx, in.PatientPublicID)
	if err != nil {
		return nil, nil, err
	}

	d := &Diagnosis{
		VisitID:              in.VisitID,
		PatientID:            p.ID,
		StaffID:              in.StaffID,
		DiagnosisCode:        in.DiagnosisCode,
		DiagnosisDescription: in.DiagnosisDescription,
		DiagnosisType:        in.DiagnosisType,
		Severity:             in.Severity,
		Notes:                in.Notes,
	}
	if d.DiagnosisType == "" {
		d.DiagnosisType = DefaultType
	}
	if d.Severity == "" {
		d.Severity = DefaultSeverity
	}
	if err := s.repo.CreateDiagnosis(ctx, d); err != nil {
		return nil, nil, fmt.Errorf("create diagnosis: %w", err)
	}

	m := &MedicalRecord{PatientID: p.ID, VisitID: in.VisitID, ResultID: in.ResultID}
	if err := s.repo.CreateMedicalRecord(ctx, m); err != nil {
		s.logger.Warn().Err(err).Str("patient_id", in.PatientPublicID).
			Msg("medical record not created, diagnosis saved")
		m = nil
	}

	return d, m, nil
}

// RecordQueueCompletion stores the diagnosis captured when a consultation is
// closed from the queue board, filling hospital defaults for blank fields.
func (s *Service) RecordQueueCompletion(ctx context.Context, in QueueCompletionInput) (*Diagnosis, *MedicalRecord, error) {
	d := &Diagnosis{
		VisitID:              in.VisitID,
		PatientID:            in.PatientID,
		StaffID:              in.StaffID,
		DiagnosisCode:        in.Code,
		DiagnosisDescription: in.Description,
		DiagnosisType:        DefaultType,
		Severity:             in.Severity,
		Notes:                in.Notes,
	}
	if d.DiagnosisCode == "" {
		d.DiagnosisCode = DefaultCode
	}
	if d.Severity == "" {
		d.Severity = DefaultSeverity
	}
	if err := s.repo.CreateDiagnosis(ctx, d); err != nil {
		return nil, nil, fmt.Errorf("create diagnosis: %w", err)
	}

	m := &MedicalRecord{PatientID: in.PatientID, VisitID: in.VisitID}
	if err := s.repo.CreateMedicalRecord(ctx, m); err != nil {
		s.logger.Warn().Err(err).Msg("medical record not created, diagnosis saved")
		m = nil
	}
	return d, m, nil
}

// MedicalRecords returns a patient's complete record history.
func (s *Service) MedicalRecords(ctx context.Context, patientPublicID string) (*patient.Patient, []*MedicalRecordEntry, error) {
	p, err := s.patients.GetByPatientID(ctx, patientPublicID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.repo.ListMedicalRecords(ctx, p.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list medical records: %w", err)
	}
	return p, entries, nil
}
