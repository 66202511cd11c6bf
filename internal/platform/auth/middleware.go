package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ClaimsKey is the echo context key under which verified claims are stored.
const ClaimsKey = "auth_claims"

// Middleware validates the Authorization bearer token and stores the verified
// claims on the context. A missing token yields 401; a token that fails
// verification yields 403.
func Middleware(issuer *Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			claims, err := issuer.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid or expired token")
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// RequireType restricts a route to tokens of the given types. It must run
// after Middleware.
func RequireType(types ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}
			if !allowed[claims.Type] {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the verified claims stored by Middleware, or nil.
func ClaimsFrom(c echo.Context) *Claims {
	claims, _ := c.Get(ClaimsKey).(*Claims)
	return claims
}
