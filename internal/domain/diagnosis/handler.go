package diagnosis

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/patient"
	"github.com/clicare/clicare/internal/domain/staff"
	"github.com/clicare/clicare/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	staff  staff.Repository
	logger zerolog.Logger
}

func NewHandler(svc *Service, staffRepo staff.Repository, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, staff: staffRepo, logger: logger}
}

func (h *Handler) RegisterRoutes(protected *echo.Group) {
	protected.POST("/healthcare/diagnosis", h.create)
	protected.GET("/healthcare/medical-records/:patientId", h.medicalRecords)
}

// requireStaff resolves the authenticated doctor's row, enforcing the
// healthcare token type.
func (h *Handler) requireStaff(c echo.Context) (*staff.Staff, error) {
	claims := auth.ClaimsFrom(c)
	if claims == nil || claims.Type != auth.TokenTypeHealthcare {
		return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
	}
	st, err := h.staff.GetStaffByStaffID(c.Request().Context(), claims.StaffID)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "Staff not found"})
		}
		h.logger.Error().Err(err).Msg("staff lookup failed")
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	return st, nil
}

func (h *Handler) create(c echo.Context) error {
	st, errResp := h.requireStaff(c)
	if st == nil {
		return errResp
	}

	var body struct {
		VisitID              uuid.UUID  `json:"visit_id"`
		PatientID            string     `json:"patient_id"`
		DiagnosisCode        string     `json:"diagnosis_code"`
		DiagnosisDescription string     `json:"diagnosis_description"`
		DiagnosisType        string     `json:"diagnosis_type"`
		Severity             string     `json:"severity"`
		Notes                string     `json:"notes"`
		ResultID             *uuid.UUID `json:"result_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	d, m, err := h.svc.Create(c.Request().Context(), CreateInput{
		VisitID:              body.VisitID,
		PatientPublicID:      body.PatientID,
		StaffID:              st.ID,
		DiagnosisCode:        body.DiagnosisCode,
		DiagnosisDescription: body.DiagnosisDescription,
		DiagnosisType:        body.DiagnosisType,
		Severity:             body.Severity,
		Notes:                body.Notes,
		ResultID:             body.ResultID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Visit ID, patient ID, and diagnosis description are required",
			})
		case errors.Is(err, patient.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
		}
		h.logger.Error().Err(err).Msg("diagnosis creation failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create diagnosis"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":       true,
		"diagnosis":     d,
		"medicalRecord": m,
		"message":       "Diagnosis and medical record created successfully",
	})
}

func (h *Handler) medicalRecords(c echo.Context) error {
	st, errResp := h.requireStaff(c)
	if st == nil {
		return errResp
	}

	p, entries, err := h.svc.MedicalRecords(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
		}
		h.logger.Error().Err(err).Msg("medical records fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch medical records"})
	}

	if entries == nil {
		entries = []*MedicalRecordEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"patient": echo.Map{
			"id":         p.ID,
			"patient_id": p.PatientID,
			"name":       p.Name,
		},
		"medicalRecords": entries,
	})
}
