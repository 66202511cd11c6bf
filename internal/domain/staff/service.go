package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clicare/clicare/internal/platform/auth"
)

// ErrBadPassword is returned when the account exists but the password is
// wrong.
var ErrBadPassword = errors.New("incorrect password")

// ThrottledError reports a temporarily locked account.
type ThrottledError struct {
	MinutesLeft int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %d minutes", e.MinutesLeft)
}

// StaffLogin is the successful healthcare login payload.
type StaffLogin struct {
	Token string
	Staff *Staff
}

// AdminLogin is the successful admin login payload.
type AdminLogin struct {
	Token string
	Admin *Admin
}

type Service struct {
	repo     Repository
	issuer   *auth.Issuer
	throttle *auth.LoginThrottle
	logger   zerolog.Logger
}

func NewService(repo Repository, issuer *auth.Issuer, throttle *auth.LoginThrottle, logger zerolog.Logger) *Service {
	return &Service{repo: repo, issuer: issuer, throttle: throttle, logger: logger}
}

// passwordMatches accepts either a stored bcrypt hash or a legacy plaintext
// password. Seed accounts predate hashing; a failed bcrypt compare on those
// rows is expected and not an error.
func passwordMatches(stored, candidate string) bool {
	if stored == candidate {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
}

// LoginStaff authenticates a healthcare provider. Failed attempts count
// toward a per-account lockout, including attempts against unknown IDs.
func (s *Service) LoginStaff(ctx context.Context, staffID, password string) (*StaffLogin, error) {
	key := s.throttle.Key("healthcare", staffID)
	if blocked, minutes := s.throttle.Check(key); blocked {
		return nil, &ThrottledError{MinutesLeft: minutes}
	}

	st, err := s.repo.GetStaffByStaffID(ctx, staffID)
	if err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			s.throttle.Record(key)
		}
		return nil, err
	}

	if !passwordMatches(st.Password, password) {
		s.throttle.Record(key)
		return nil, ErrBadPassword
	}
	s.throttle.Clear(key)

	token, err := s.issuer.StaffToken(auth.StaffTokenInput{
		ID:             st.ID.String(),
		StaffID:        st.StaffID,
		Name:           st.Name,
		Role:           st.Role,
		Specialization: st.Specialization,
		DepartmentID:   st.DepartmentID,
	})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info().Str("staff_id", st.StaffID).Str("role", st.Role).Msg("healthcare staff logged in")
	return &StaffLogin{Token: token, Staff: st}, nil
}

// LoginAdmin authenticates an administrator.
func (s *Service) LoginAdmin(ctx context.Context, healthAdminID, password string) (*AdminLogin, error) {
	key := s.throttle.Key("admin", healthAdminID)
	if blocked, minutes := s.throttle.Check(key); blocked {
		return nil, &ThrottledError{MinutesLeft: minutes}
	}

	a, err := s.repo.GetAdminByAdminID(ctx, healthAdminID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			s.throttle.Record(key)
		}
		return nil, err
	}

	if !passwordMatches(a.Password, password) {
		s.throttle.Record(key)
		return nil, ErrBadPassword
	}
	s.throttle.Clear(key)

	token, err := s.issuer.AdminToken(auth.AdminTokenInput{
		ID:            a.ID.String(),
		HealthAdminID: a.HealthAdminID,
		Name:          a.Name,
		Position:      a.Position,
	})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info().Str("healthadmin_id", a.HealthAdminID).Msg("admin logged in")
	return &AdminLogin{Token: token, Admin: a}, nil
}

// StaffProfile returns the staff row for a verified token subject.
func (s *Service) StaffProfile(ctx context.Context, staffID string) (*Staff, error) {
	return s.repo.GetStaffByStaffID(ctx, staffID)
}

// AdminProfile returns the admin row for a verified token subject.
func (s *Service) AdminProfile(ctx context.Context, healthAdminID string) (*Admin, error) {
	return s.repo.GetAdminByAdminID(ctx, healthAdminID)
}
