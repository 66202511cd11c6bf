package staff

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts logins on the rate-limited public group and profiles
// on the authenticated group.
func (h *Handler) RegisterRoutes(login, protected *echo.Group) {
	login.POST("/healthcare/login", h.loginStaff)
	login.POST("/admin/login", h.loginAdmin)
	protected.GET("/healthcare/profile", h.staffProfile)
	protected.GET("/admin/profile", h.adminProfile)
}

func throttleMessage(e *ThrottledError) string {
	return fmt.Sprintf("Too many failed login attempts for this account. Try again in %d minutes.", e.MinutesLeft)
}

func (h *Handler) loginStaff(c echo.Context) error {
	var in struct {
		StaffID  string `json:"staffId"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if in.StaffID == "" || in.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Staff ID and password are required"})
	}

	res, err := h.svc.LoginStaff(c.Request().Context(), in.StaffID, in.Password)
	if err != nil {
		var throttled *ThrottledError
		switch {
		case errors.As(err, &throttled):
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": throttleMessage(throttled)})
		case errors.Is(err, ErrStaffNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Healthcare Provider ID not found"})
		case errors.Is(err, ErrBadPassword):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Incorrect password"})
		}
		h.logger.Error().Err(err).Msg("healthcare login failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during login"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   res.Token,
		"staff":   res.Staff,
		"message": "Login successful",
	})
}

func (h *Handler) loginAdmin(c echo.Context) error {
	var in struct {
		HealthAdminID string `json:"healthadminid"`
		Password      string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if in.HealthAdminID == "" || in.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Admin ID and password are required"})
	}

	res, err := h.svc.LoginAdmin(c.Request().Context(), in.HealthAdminID, in.Password)
	if err != nil {
		var throttled *ThrottledError
		switch {
		case errors.As(err, &throttled):
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": throttleMessage(throttled)})
		case errors.Is(err, ErrAdminNotFound), errors.Is(err, ErrBadPassword):
			// Unknown ID and wrong password are indistinguishable on
			// purpose.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
		}
		h.logger.Error().Err(err).Msg("admin login failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error during login"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   res.Token,
		"admin":   res.Admin,
		"message": "Login successful",
	})
}

func (h *Handler) staffProfile(c echo.Context) error {
	claims := auth.ClaimsFrom(c)
	if claims == nil || claims.Type != auth.TokenTypeHealthcare {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
	}

	st, err := h.svc.StaffProfile(c.Request().Context(), claims.StaffID)
	if err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Staff not found"})
		}
		h.logger.Error().Err(err).Msg("staff profile fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) adminProfile(c echo.Context) error {
	claims := auth.ClaimsFrom(c)
	if claims == nil || claims.Type != auth.TokenTypeAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
	}

	a, err := h.svc.AdminProfile(c.Request().Context(), claims.AdminID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Admin not found"})
		}
		h.logger.Error().Err(err).Msg("admin profile fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "admin": a})
}
