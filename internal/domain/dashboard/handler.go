package dashboard

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

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
	protected.GET("/healthcare/dashboard-stats", h.staffStats)
	protected.GET("/healthcare/my-patients-today", h.myPatientsToday)

	protected.GET("/admin/dashboard-stats", h.adminStats)
	protected.GET("/admin/time-series-stats", h.timeSeries)
	protected.GET("/admin/staff", h.listStaff)
	protected.GET("/admin/patients", h.listPatients)
	protected.POST("/admin/analyze-data", h.analyze)
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

// requireAdmin enforces the admin token type.
func requireAdmin(c echo.Context) (*auth.Claims, error) {
	claims := auth.ClaimsFrom(c)
	if claims == nil || claims.Type != auth.TokenTypeAdmin {
		return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
	}
	return claims, nil
}

func (h *Handler) staffStats(c echo.Context) error {
	st, errResp := h.requireStaff(c)
	if st == nil {
		return errResp
	}

	stats, err := h.svc.StaffDashboard(c.Request().Context(), st.ID, st.DepartmentID, c.QueryParam("date"))
	if err != nil {
		h.logger.Error().Err(err).Msg("staff dashboard stats failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch dashboard stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"stats":   stats,
		"department": echo.Map{
			"id":             st.DepartmentID,
			"specialization": st.Specialization,
		},
	})
}

func (h *Handler) myPatientsToday(c echo.Context) error {
	st, errResp := h.requireStaff(c)
	if st == nil {
		return errResp
	}

	patients, err := h.svc.MyPatientsToday(c.Request().Context(), st.ID, st.DepartmentID, c.QueryParam("date"))
	if err != nil {
		h.logger.Error().Err(err).Msg("my patients today failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch today's patients"})
	}
	if patients == nil {
		patients = []*TodayPatient{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"patients": patients,
		"department": echo.Map{
			"id":             st.DepartmentID,
			"specialization": st.Specialization,
		},
		"totalToday": len(patients),
	})
}

func (h *Handler) adminStats(c echo.Context) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}

	board, err := h.svc.Admin(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("admin dashboard stats failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch dashboard stats"})
	}
	activities := board.RecentActivities
	if activities == nil {
		activities = []*Activity{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":          true,
		"stats":            board.Stats,
		"recentActivities": activities,
		"systemStatus":     board.SystemStatus,
	})
}

func (h *Handler) timeSeries(c echo.Context) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}

	points, err := h.svc.TimeSeries(c.Request().Context(), c.QueryParam("period"))
	if err != nil {
		h.logger.Error().Err(err).Msg("time series stats failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch time series stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"timeSeriesData": points,
	})
}

func (h *Handler) listStaff(c echo.Context) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}

	rows, err := h.svc.Staff(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		h.logger.Error().Err(err).Msg("staff directory fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch staff"})
	}
	if rows == nil {
		rows = []*StaffRow{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"staff":   rows,
	})
}

func (h *Handler) listPatients(c echo.Context) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}

	patients, err := h.svc.Patients(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		h.logger.Error().Err(err).Msg("patient directory fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch patients"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"patients": patients,
	})
}

func (h *Handler) analyze(c echo.Context) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}

	var in AnalyzeInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if in.Query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Query is required"})
	}

	res, err := h.svc.Analyze(c.Request().Context(), in)
	switch {
	case errors.Is(err, ErrAssistantNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "AI assistant is not configured"})
	case err != nil:
		h.logger.Error().Err(err).Msg("data analysis failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to analyze data"})
	}

	return c.JSON(http.StatusOK, res)
}
