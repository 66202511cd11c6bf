package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/patient"
	"github.com/clicare/clicare/internal/platform/auth"
	"github.com/clicare/clicare/internal/platform/notification"
)

var (
	// ErrSMSNotConfigured is returned when a phone code is requested but no
	// SMS provider is configured.
	ErrSMSNotConfigured = errors.New("sms verification not configured")
	// ErrContactMismatch is returned when the submitted contact does not
	// match the patient record.
	ErrContactMismatch = errors.New("contact does not match records")
	// ErrCodeMismatch is returned when an active code exists but the
	// submitted digits are wrong.
	ErrCodeMismatch = errors.New("invalid verification code")
	// ErrSendFailed wraps delivery failures from the email or SMS channel.
	ErrSendFailed = errors.New("verification code delivery failed")
)

// SendResult reports a successfully dispatched code.
type SendResult struct {
	Message   string
	ExpiresIn int
	Provider  string
}

// PatientSnapshot is the patient payload returned on a successful login,
// with the primary emergency contact flattened in.
type PatientSnapshot struct {
	PatientID                    string `json:"patient_id"`
	Name                         string `json:"name"`
	Email                        string `json:"email"`
	ContactNo                    string `json:"contact_no"`
	Birthday                     string `json:"birthday"`
	Age                          int    `json:"age"`
	Sex                          string `json:"sex"`
	Address                      string `json:"address"`
	RegistrationDate             string `json:"registration_date"`
	EmergencyContactName         string `json:"emergency_contact_name"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship"`
	EmergencyContactNo           string `json:"emergency_contact_no"`
}

// LoginResult carries the minted token and patient snapshot.
type LoginResult struct {
	Token   string
	Patient *PatientSnapshot
}

type Service struct {
	repo     Repository
	patients patient.Repository
	notifier *notification.Notifier
	issuer   *auth.Issuer
	smsOK    bool
	provider string
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients patient.Repository, notifier *notification.Notifier,
	issuer *auth.Issuer, smsConfigured bool, smsProvider string, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		notifier: notifier,
		issuer:   issuer,
		smsOK:    smsConfigured,
		provider: smsProvider,
		logger:   logger,
		now:      time.Now,
	}
}

// generateCode returns a uniformly random 6-digit code in [100000, 999999].
// crypto/rand keeps codes unguessable and is safe for concurrent senders.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", 100000+n.Int64()), nil
}

// Send validates the patient's contact details, replaces any previous code for
// the pair, and dispatches a fresh one. A delivery failure removes the stored
// code so a stale secret never stays live.
func (s *Service) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	patientID := strings.ToUpper(in.PatientID)

	if in.ContactType == ContactTypePhone && !s.smsOK {
		return nil, ErrSMSNotConfigured
	}

	p, err := s.patients.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	onRecord := p.Email
	if in.ContactType == ContactTypePhone {
		onRecord = p.ContactNo
	}
	if onRecord != in.ContactInfo {
		return nil, ErrContactMismatch
	}

	if err := s.repo.DeleteByContact(ctx, patientID, in.ContactInfo); err != nil {
		return nil, fmt.Errorf("clear previous codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	v := &Verification{
		PatientID:   patientID,
		ContactInfo: in.ContactInfo,
		ContactType: in.ContactType,
		OTPCode:     code,
		ExpiresAt:   s.now().Add(CodeTTL),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("store verification code: %w", err)
	}

	data := map[string]string{"patient_name": p.Name, "code": v.OTPCode}
	templateID := "otp-email"
	if in.ContactType == ContactTypePhone {
		templateID = "otp-sms"
	}

	if _, err := s.notifier.SendFromTemplate(ctx, templateID, data, in.ContactInfo); err != nil {
		if delErr := s.repo.DeleteByID(ctx, v.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("patient_id", patientID).Msg("undelivered code not removed")
		}
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	s.logger.Info().Str("patient_id", patientID).Str("contact_type", in.ContactType).Msg("verification code sent")

	res := &SendResult{ExpiresIn: int(CodeTTL.Seconds())}
	if in.ContactType == ContactTypePhone {
		res.Message = "Verification code sent to your phone"
		res.Provider = s.provider
	} else {
		res.Message = "Verification code sent to your email"
	}
	return res, nil
}

// Verify checks the submitted code, consumes it, and mints a patient session
// token. A wrong code increments the attempt counter on the stored record.
func (s *Service) Verify(ctx context.Context, in VerifyInput) (*LoginResult, error) {
	patientID := strings.ToUpper(in.PatientID)

	v, err := s.repo.GetActive(ctx, patientID, in.ContactInfo, s.now())
	if err != nil {
		return nil, err
	}

	if v.OTPCode != in.OTP {
		if err := s.repo.IncrementAttempts(ctx, v.ID); err != nil {
			s.logger.Error().Err(err).Str("patient_id", patientID).Msg("attempt counter not updated")
		}
		return nil, ErrCodeMismatch
	}

	if err := s.repo.MarkVerified(ctx, v.ID); err != nil {
		return nil, fmt.Errorf("consume verification code: %w", err)
	}

	p, err := s.patients.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	snapshot := &PatientSnapshot{
		PatientID:        p.PatientID,
		Name:             p.Name,
		Email:            p.Email,
		ContactNo:        p.ContactNo,
		Birthday:         p.Birthday,
		Age:              p.Age,
		Sex:              p.Sex,
		Address:          p.Address,
		RegistrationDate: p.RegistrationDate,
	}
	if contacts, err := s.patients.ListEmergencyContacts(ctx, p.ID); err == nil && len(contacts) > 0 {
		snapshot.EmergencyContactName = contacts[0].Name
		snapshot.EmergencyContactRelationship = contacts[0].Relationship
		snapshot.EmergencyContactNo = contacts[0].ContactNumber
	}

	token, err := s.issuer.PatientToken(p.PatientID, in.DeviceType, v.ContactType)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info().Str("patient_id", patientID).Str("login_method", v.ContactType).Msg("patient logged in")
	return &LoginResult{Token: token, Patient: snapshot}, nil
}
