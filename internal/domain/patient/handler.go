package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/platform/auth"
	"github.com/clicare/clicare/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts registration on the public group and the profile on
// the authenticated group.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.POST("/patient/register", h.register)
	protected.GET("/patient/profile", h.profile)
	protected.GET("/admin/patient-registry", h.registry)
}

func (h *Handler) register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	p, _, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
		}
		h.logger.Error().Err(err).Msg("patient registration failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Patient registration failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"patient": p,
		"message": "Patient registered successfully",
	})
}

func (h *Handler) profile(c echo.Context) error {
	claims := auth.ClaimsFrom(c)
	if claims == nil || claims.Type != auth.TokenTypeOutpatient {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
	}

	p, err := h.svc.Profile(c.Request().Context(), claims.PatientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient not found"})
		}
		h.logger.Error().Err(err).Msg("patient profile fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "patient": p})
}

// registry is the paged patient listing for the admin console.
func (h *Handler) registry(c echo.Context) error {
	claims := auth.ClaimsFrom(c)
	if claims == nil || claims.Type != auth.TokenTypeAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
	}

	params := pagination.FromContext(c)
	patients, total, err := h.svc.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("patient registry fetch failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch patients"})
	}
	if patients == nil {
		patients = []*Patient{}
	}

	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, params))
}
