package lab

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/patient"
	"github.com/clicare/clicare/internal/domain/staff"
	"github.com/clicare/clicare/internal/platform/auth"
	"github.com/clicare/clicare/internal/platform/blobstore"
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
	protected.POST("/healthcare/lab-requests-grouped", h.createGrouped)
	protected.GET("/healthcare/lab-requests", h.doctorRequests)
	protected.GET("/healthcare/lab-results", h.doctorResults)
	protected.GET("/healthcare/lab-stats", h.doctorStats)

	protected.POST("/patient/upload-lab-result", h.upload)
	protected.POST("/patient/upload-lab-result-by-test", h.uploadByTest)
	protected.GET("/patient/lab-requests/:patientId", h.patientRequests)
	protected.GET("/patient/lab-history/:patientId", h.history)
	protected.GET("/patient/lab-history-files/:requestId", h.historyFiles)
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

// requirePatient enforces the outpatient token type and returns the claims.
func requirePatient(c echo.Context) (*auth.Claims, error) {
	claims := auth.ClaimsFrom(c)
	if claims == nil || claims.Type != auth.TokenTypeOutpatient {
		return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
	}
	return claims, nil
}

func (h *Handler) createGrouped(c echo.Context) error {
	st, errResp := h.requireStaff(c)
	if st == nil {
		return errResp
	}

	var in GroupInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	req, err := h.svc.CreateGrouped(c.Request().Context(), st.ID, in)
	switch {
	case errors.Is(err, ErrMissingFields):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Patient ID and test requests are required"})
	case errors.Is(err, ErrInvalidTestItem):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Each test requires a name and a type"})
	case errors.Is(err, ErrUnknownTestType):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid test type"})
	case errors.Is(err, ErrMissingDueDate):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Due date is required"})
	case errors.Is(err, patient.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
	case err != nil:
		h.logger.Error().Err(err).Msg("grouped lab request creation failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create lab request"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":    true,
		"labRequest": req,
		"testsCount": len(in.TestRequests),
		"message":    "Grouped lab request created successfully",
	})
}

func (h *Handler) doctorRequests(c echo.Context) error {
	st, errResp := h.requireStaff(c)
	if st == nil {
		return errResp
	}

	requests, err := h.svc.DoctorRequests(c.Request().Context(), st.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("lab requests fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch lab requests"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"labRequests": requests,
	})
}

func (h *Handler) doctorResults(c echo.Context) error {
	st, errResp := h.requireStaff(c)
	if st == nil {
		return errResp
	}

	results, err := h.svc.DoctorResults(c.Request().Context(), st.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("lab results fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch lab results"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"labResults": results,
	})
}

func (h *Handler) doctorStats(c echo.Context) error {
	st, errResp := h.requireStaff(c)
	if st == nil {
		return errResp
	}

	stats, err := h.svc.DoctorStats(c.Request().Context(), st.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("lab stats fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"labStats": stats,
	})
}

func (h *Handler) upload(c echo.Context) error {
	claims, errResp := requirePatient(c)
	if claims == nil {
		return errResp
	}

	requestID := c.FormValue("labRequestId")
	patientID := c.FormValue("patientId")
	fileHeader, err := c.FormFile("labResultFile")
	if err != nil || requestID == "" || patientID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "File, lab request ID and patient ID are required"})
	}

	outcome, errResp := h.storeUpload(c, claims, fileHeader, requestID, patientID, "")
	if outcome == nil {
		return errResp
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":   true,
		"labResult": outcome,
		"message":   "Lab result uploaded and medical record updated successfully",
	})
}

func (h *Handler) uploadByTest(c echo.Context) error {
	claims, errResp := requirePatient(c)
	if claims == nil {
		return errResp
	}

	requestID := c.FormValue("labRequestId")
	patientID := c.FormValue("patientId")
	testName := c.FormValue("testName")
	fileHeader, err := c.FormFile("labResultFile")
	if err != nil || requestID == "" || patientID == "" || testName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "File, lab request ID, patient ID, and test name are required"})
	}

	outcome, errResp := h.storeUpload(c, claims, fileHeader, requestID, patientID, testName)
	if outcome == nil {
		return errResp
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":   true,
		"labResult": outcome,
		"message":   fmt.Sprintf("Lab result for %s uploaded successfully", testName),
	})
}

// storeUpload runs the shared upload path. A nil outcome means the error
// response has already been written.
func (h *Handler) storeUpload(c echo.Context, claims *auth.Claims, fileHeader *multipart.FileHeader,
	requestID, patientID, testName string) (*UploadOutcome, error) {
	if claims.PatientID != patientID {
		return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
	}

	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "Lab request not found"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.logger.Error().Err(err).Msg("upload open failed")
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during file upload"})
	}
	defer src.Close()
	content, err := io.ReadAll(io.LimitReader(src, blobstore.MaxFileSize+1))
	if err != nil {
		h.logger.Error().Err(err).Msg("upload read failed")
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during file upload"})
	}

	outcome, err := h.svc.Upload(c.Request().Context(), UploadInput{
		RequestID:       reqID,
		PatientPublicID: patientID,
		TestName:        testName,
		OriginalName:    fileHeader.Filename,
		MimeType:        fileHeader.Header.Get("Content-Type"),
		Content:         content,
	})
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
	case errors.Is(err, ErrRequestNotFound):
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "Lab request not found"})
	case errors.Is(err, blobstore.ErrInvalidFileType):
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid file type. Only images, PDFs, and documents are allowed."})
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "File too large. Maximum size is 10MB."})
	case err != nil:
		h.logger.Error().Err(err).Msg("lab result upload failed")
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during file upload"})
	}
	return outcome, nil
}

func (h *Handler) patientRequests(c echo.Context) error {
	claims, errResp := requirePatient(c)
	if claims == nil {
		return errResp
	}
	patientID := c.Param("patientId")
	if claims.PatientID != patientID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied to other patient data"})
	}

	requests, err := h.svc.PatientRequests(c.Request().Context(), patientID)
	if errors.Is(err, patient.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("patient lab requests fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch lab requests"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"labRequests": requests,
	})
}

func (h *Handler) history(c echo.Context) error {
	claims, errResp := requirePatient(c)
	if claims == nil {
		return errResp
	}
	patientID := c.Param("patientId")
	if claims.PatientID != patientID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied to other patient data"})
	}

	items, err := h.svc.History(c.Request().Context(), patientID)
	if errors.Is(err, patient.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("lab history fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch lab history"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"labHistory": items,
	})
}

func (h *Handler) historyFiles(c echo.Context) error {
	claims, errResp := requirePatient(c)
	if claims == nil {
		return errResp
	}

	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Lab request not found"})
	}

	files, err := h.svc.HistoryFiles(c.Request().Context(), claims.PatientID, requestID)
	if errors.Is(err, patient.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("lab files fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch lab files"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"files":   files,
	})
}
