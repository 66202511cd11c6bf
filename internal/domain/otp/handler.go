package otp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/patient"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the patient login flow. The group is expected to carry
// the login rate limiter.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/outpatient/send-otp", h.send)
	g.POST("/outpatient/verify-otp", h.verify)
}

func (h *Handler) send(c echo.Context) error {
	var in SendInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	if in.PatientID == "" || in.ContactInfo == "" || in.ContactType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Patient ID, contact information, and contact type are required",
		})
	}
	if in.ContactType != ContactTypeEmail && in.ContactType != ContactTypePhone {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Contact type must be email or phone"})
	}

	res, err := h.svc.Send(c.Request().Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrSMSNotConfigured):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "SMS verification is not configured. Please use email verification or contact support.",
			})
		case errors.Is(err, patient.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Patient ID not found. Please check your Patient ID.",
			})
		case errors.Is(err, ErrContactMismatch):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": fmt.Sprintf("The %s doesn't match our records for this Patient ID", in.ContactType),
			})
		case errors.Is(err, ErrSendFailed):
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": fmt.Sprintf("Failed to send verification code via %s. Please try again.", in.ContactType),
			})
		}
		h.logger.Error().Err(err).Msg("send otp failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	resp := echo.Map{
		"success":   true,
		"message":   res.Message,
		"expiresIn": res.ExpiresIn,
	}
	if res.Provider != "" {
		resp["provider"] = res.Provider
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) verify(c echo.Context) error {
	var in VerifyInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	if in.PatientID == "" || in.ContactInfo == "" || in.OTP == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Patient ID, contact info, and OTP are required",
		})
	}

	res, err := h.svc.Verify(c.Request().Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired verification code"})
		case errors.Is(err, ErrCodeMismatch):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid verification code"})
		case errors.Is(err, patient.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Patient data not found"})
		}
		h.logger.Error().Err(err).Msg("verify otp failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Login successful",
		"token":   res.Token,
		"patient": res.Patient,
	})
}
