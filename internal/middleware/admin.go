package middleware

import (
	"github.com/labstack/echo/v4"

	"medibook/internal/auth"
	apperrors "medibook/internal/errors"
	"medibook/internal/service"
)

// RequireAdmin lets a request through only when the caller's stored role is
// ADMIN. The role is read from storage, not from the token, so a demoted
// user loses access before their token expires.
func RequireAdmin(identity service.IdentityProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := auth.FromContext(c)
			if err != nil {
				return apperrors.ToEcho(apperrors.ErrUnauthorized)
			}

			user, err := identity.ResolveUser(c.Request().Context(), claims.Email())
			if err != nil {
				return apperrors.ToEcho(err)
			}
			if !user.IsAdmin() {
				return apperrors.ToEcho(apperrors.ErrAdminRequired)
			}
			return next(c)
		}
	}
}
