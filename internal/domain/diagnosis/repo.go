package diagnosis

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateDiagnosis(ctx context.Context, d *Diagnosis) error
	CreateMedicalRecord(ctx context.Context, m *MedicalRecord) error
	// ListMedicalRecords returns a patient's records newest first, each with
	// its visit and any linked lab result.
	ListMedicalRecords(ctx context.Context, patientID uuid.UUID) ([]*MedicalRecordEntry, error)
}
