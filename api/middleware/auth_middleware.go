package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"parsfix/internal/service"

	"github.com/labstack/echo/v4"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Session, error)
}

type AuthMiddleware struct {
	Authenticator Authenticator
	Cookie        SessionCookie
}

// RequireAuth resolves the session cookie, or a bearer header for non-browser
// clients, into a principal. Failures are returned to the error handler.
func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.Authenticator == nil {
			return service.ErrUnauthenticated
		}
		token := m.Cookie.Read(c)
		if token == "" {
			token = extractBearerToken(c.Request())
		}
		session, err := m.Authenticator.Authenticate(c.Request().Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrSessionAccountMissing) {
				m.Cookie.Clear(c, http.SameSiteStrictMode)
			}
			return err
		}
		SetAuthContext(c, session.Principal, session.Claims)
		return next(c)
	}
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
