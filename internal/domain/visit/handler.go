package visit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/patient"
	"github.com/clicare/clicare/internal/domain/staff"
	"github.com/clicare/clicare/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the terminal-facing routes on the public group and
// the staff/patient routes on the authenticated group.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.GET("/symptoms", h.symptoms)
	public.POST("/patient/visit", h.book)

	protected.GET("/patient/history/:patientId", h.patientHistory)
	protected.GET("/healthcare/patient-history/:patientId", h.staffHistory)
	protected.GET("/healthcare/patient-queue", h.patientQueue)
	protected.PATCH("/healthcare/queue/:queueId/status", h.updateQueueStatus)
	protected.POST("/healthcare/patient-visit", h.getOrCreateVisit)
	protected.GET("/healthcare/all-patients", h.allPatients)
	protected.GET("/healthcare/my-patients", h.myPatients)
}

func requireType(c echo.Context, tokenType string) *auth.Claims {
	claims := auth.ClaimsFrom(c)
	if claims == nil || claims.Type != tokenType {
		return nil
	}
	return claims
}

func accessDenied(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
}

func (h *Handler) symptoms(c echo.Context) error {
	categories, total, err := h.svc.SymptomCatalog(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("symptom catalog fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch symptoms from database"})
	}

	if total == 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"success":  true,
			"symptoms": []*SymptomCategory{},
			"message":  "No symptoms available",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"symptoms":        categories,
		"totalCategories": len(categories),
		"totalSymptoms":   total,
		"message":         "Symptoms loaded successfully",
	})
}

// symptomList accepts either a JSON array of names or a single
// comma-separated string, which the kiosk frontend sends interchangeably.
func symptomList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return strings.Split(one, ", ")
	}
	return nil
}

func (h *Handler) book(c echo.Context) error {
	var body struct {
		PatientID         string          `json:"patient_id"`
		Symptoms          json.RawMessage `json:"symptoms"`
		Duration          string          `json:"duration"`
		Severity          string          `json:"severity"`
		PreviousTreatment string          `json:"previous_treatment"`
		Allergies         string          `json:"allergies"`
		Medications       string          `json:"medications"`
		AppointmentType   string          `json:"appointment_type"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	res, err := h.svc.Book(c.Request().Context(), BookInput{
		PatientID:         body.PatientID,
		Symptoms:          symptomList(body.Symptoms),
		Duration:          body.Duration,
		Severity:          body.Severity,
		PreviousTreatment: body.PreviousTreatment,
		Allergies:         body.Allergies,
		Medications:       body.Medications,
		AppointmentType:   body.AppointmentType,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Patient ID and symptoms are required"})
		case errors.Is(err, patient.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
		}
		h.logger.Error().Err(err).Msg("visit booking failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create visit record"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":         true,
		"visit":           res.Visit,
		"queue_number":    res.QueueNumber,
		"department":      res.Department,
		"assigned_doctor": res.AssignedDoctor,
		"estimated_wait":  "15-30 minutes",
		"message":         "Appointment booked successfully",
	})
}

func (h *Handler) patientHistory(c echo.Context) error {
	if requireType(c, auth.TokenTypeOutpatient) == nil {
		return accessDenied(c)
	}
	return h.history(c)
}

func (h *Handler) staffHistory(c echo.Context) error {
	if requireType(c, auth.TokenTypeHealthcare) == nil {
		return accessDenied(c)
	}
	return h.history(c)
}

func (h *Handler) history(c echo.Context) error {
	entries, err := h.svc.History(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
		}
		h.logger.Error().Err(err).Msg("visit history fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch visit history"})
	}
	if entries == nil {
		entries = []*HistoryEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "visitHistory": entries})
}

func (h *Handler) patientQueue(c echo.Context) error {
	claims := requireType(c, auth.TokenTypeHealthcare)
	if claims == nil {
		return accessDenied(c)
	}

	entries, dept, err := h.svc.DepartmentQueue(c.Request().Context(), claims.StaffID)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Staff not found"})
		}
		h.logger.Error().Err(err).Msg("patient queue fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if entries == nil {
		entries = []*QueueEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "queue": entries, "department": dept})
}

func (h *Handler) updateQueueStatus(c echo.Context) error {
	claims := requireType(c, auth.TokenTypeHealthcare)
	if claims == nil {
		return accessDenied(c)
	}

	queueID, err := uuid.Parse(c.Param("queueId"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Queue entry not found"})
	}

	var in StatusUpdateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	q, d, m, err := h.svc.UpdateQueueStatus(c.Request().Context(), claims.StaffID, queueID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid status"})
		case errors.Is(err, ErrQueueNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Queue entry not found"})
		case errors.Is(err, staff.ErrStaffNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Staff not found"})
		}
		h.logger.Error().Err(err).Msg("queue status update failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update queue status"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"queue":         q,
		"diagnosis":     d,
		"medicalRecord": m,
		"message":       "Queue status updated successfully",
	})
}

func (h *Handler) getOrCreateVisit(c echo.Context) error {
	if requireType(c, auth.TokenTypeHealthcare) == nil {
		return accessDenied(c)
	}

	var body struct {
		PatientID string `json:"patient_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if body.PatientID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Patient ID is required"})
	}

	visitID, created, err := h.svc.GetOrCreateTodayVisit(c.Request().Context(), body.PatientID)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
		}
		h.logger.Error().Err(err).Msg("patient visit lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create visit record"})
	}

	if created {
		return c.JSON(http.StatusCreated, echo.Map{
			"success":  true,
			"visit_id": visitID,
			"message":  "New visit created",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"visit_id": visitID,
		"message":  "Existing visit found",
	})
}

func (h *Handler) allPatients(c echo.Context) error {
	claims := requireType(c, auth.TokenTypeHealthcare)
	if claims == nil {
		return accessDenied(c)
	}

	patients, dept, err := h.svc.AllPatients(c.Request().Context(), claims.StaffID)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Staff not found"})
		}
		h.logger.Error().Err(err).Msg("all patients fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch patients"})
	}
	if patients == nil {
		patients = []*patient.Patient{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"patients":   patients,
		"totalCount": len(patients),
		"department": dept,
	})
}

func (h *Handler) myPatients(c echo.Context) error {
	claims := requireType(c, auth.TokenTypeHealthcare)
	if claims == nil {
		return accessDenied(c)
	}

	patients, dept, err := h.svc.MyPatients(c.Request().Context(), claims.StaffID, c.QueryParam("date"))
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Staff not found"})
		}
		h.logger.Error().Err(err).Msg("my patients fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch patients"})
	}
	if patients == nil {
		patients = []*MyPatient{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "patients": patients, "department": dept})
}
