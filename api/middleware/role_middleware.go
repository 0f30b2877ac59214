package middleware

import (
	"parsfix/internal/entity"
	"parsfix/internal/service"

	"github.com/labstack/echo/v4"
)

// RequireRoles must run after RequireAuth. It trusts the principal already
// on the context and never reloads the account.
func RequireRoles(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFromContext(c)
			if !ok {
				return service.ErrForbidden
			}
			if err := service.Authorize(principal, roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}
