package middleware

import (
	"parsfix/internal/entity"
	"parsfix/internal/utils"

	"github.com/labstack/echo/v4"
)

const (
	contextPrincipalKey = "auth_principal"
	contextClaimsKey    = "auth_claims"
)

func SetAuthContext(c echo.Context, principal entity.Principal, claims *utils.SessionClaims) {
	c.Set(contextPrincipalKey, principal)
	c.Set(contextClaimsKey, claims)
}

func PrincipalFromContext(c echo.Context) (entity.Principal, bool) {
	principal, ok := c.Get(contextPrincipalKey).(entity.Principal)
	return principal, ok
}

func ClaimsFromContext(c echo.Context) (*utils.SessionClaims, bool) {
	claims, ok := c.Get(contextClaimsKey).(*utils.SessionClaims)
	return claims, ok && claims != nil
}
