package patient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingFields is returned when the registration form is incomplete.
var ErrMissingFields = errors.New("missing required fields")

// WalkInBooking describes the queue placement created during registration.
type WalkInBooking struct {
	QueueNo    int    `json:"queue_no"`
	Department string `json:"department"`
}

// VisitBooker creates a walk-in visit and queue entry for a newly registered
// patient who reported symptoms.
type VisitBooker interface {
	BookWalkIn(ctx context.Context, p *Patient, symptoms []string, appointmentType string) (*WalkInBooking, error)
}

type Service struct {
	repo   Repository
	visits VisitBooker
	logger zerolog.Logger
}

// NewService constructs the patient service. visits may be nil, in which case
// registration never enqueues.
func NewService(repo Repository, visits VisitBooker, logger zerolog.Logger) *Service {
	return &Service{repo: repo, visits: visits, logger: logger}
}

// generatePatientID builds a public patient identifier from the registration
// time and a random suffix, e.g. PAT482913057.
func generatePatientID(now time.Time, n int) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	return fmt.Sprintf("PAT%s%03d", millis[len(millis)-6:], n%1000)
}

// Register validates the form, stores the patient and emergency contact, and
// enqueues a walk-in visit when symptoms were reported.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Patient, *WalkInBooking, error) {
	if in.Name == "" || in.Birthday == "" || in.Age <= 0 || in.Sex == "" ||
		in.Address == "" || in.ContactNo == "" || in.Email == "" {
		return nil, nil, ErrMissingFields
	}

	p := &Patient{
		PatientID:        generatePatientID(time.Now(), rand.Intn(1000)),
		Name:             in.Name,
		Birthday:         in.Birthday,
		Age:              in.Age,
		Sex:              in.Sex,
		Address:          in.Address,
		ContactNo:        in.ContactNo,
		Email:            strings.ToLower(in.Email),
		RegistrationDate: time.Now().Format("2006-01-02"),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("create patient: %w", err)
	}

	if in.EmergencyContactName != "" || in.EmergencyContactRelationship != "" || in.EmergencyContactNo != "" {
		ec := &EmergencyContact{
			PatientID:     p.ID,
			Name:          in.EmergencyContactName,
			ContactNumber: in.EmergencyContactNo,
			Relationship:  in.EmergencyContactRelationship,
		}
		if err := s.repo.CreateEmergencyContact(ctx, ec); err != nil {
			// Registration already succeeded; contact failure is non-fatal
			s.logger.Warn().Err(err).Str("patient_id", p.PatientID).Msg("emergency contact not saved")
		}
	}

	var booking *WalkInBooking
	if len(in.Symptoms) > 0 && s.visits != nil {
		b, err := s.visits.BookWalkIn(ctx, p, in.Symptoms, "Walk-in Registration")
		if err != nil {
			s.logger.Warn().Err(err).Str("patient_id", p.PatientID).Msg("walk-in queue entry not created")
		} else {
			booking = b
		}
	}

	s.logger.Info().Str("patient_id", p.PatientID).Str("name", p.Name).Msg("patient registered")
	return p, booking, nil
}

// Get returns a patient by public identifier.
func (s *Service) Get(ctx context.Context, patientID string) (*Patient, error) {
	return s.repo.GetByPatientID(ctx, patientID)
}

// Profile returns a patient with emergency contacts attached.
func (s *Service) Profile(ctx context.Context, patientID string) (*Patient, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	contacts, err := s.repo.ListEmergencyContacts(ctx, p.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", patientID).Msg("emergency contacts not loaded")
	} else {
		p.EmergencyContacts = contacts
	}
	return p, nil
}

// List returns a page of patients with the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}
