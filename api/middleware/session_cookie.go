package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const SessionCookieName = "authToken"

// SessionCookie carries the session token between browser and API.
type SessionCookie struct {
	Name   string
	Domain string
	Secure bool
}

func NewSessionCookie(domain string, secure bool) SessionCookie {
	return SessionCookie{Name: SessionCookieName, Domain: domain, Secure: secure}
}

// Set stores the token for ttl. MaxAge is in seconds.
func (s SessionCookie) Set(c echo.Context, token string, ttl time.Duration, sameSite http.SameSite) {
	if token == "" {
		return
	}
	maxAge := int(ttl / time.Second)
	if maxAge < 0 {
		maxAge = 0
	}
	cookie := s.base(sameSite)
	cookie.Value = token
	cookie.MaxAge = maxAge
	cookie.Expires = time.Now().Add(ttl)
	c.SetCookie(cookie)
}

func (s SessionCookie) Clear(c echo.Context, sameSite http.SameSite) {
	cookie := s.base(sameSite)
	cookie.MaxAge = -1
	c.SetCookie(cookie)
}

func (s SessionCookie) Read(c echo.Context) string {
	cookie, err := c.Cookie(s.name())
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s SessionCookie) base(sameSite http.SameSite) *http.Cookie {
	return &http.Cookie{
		Name:     s.name(),
		Path:     "/",
		Domain:   s.Domain,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: sameSite,
	}
}

func (s SessionCookie) name() string {
	if s.Name == "" {
		return SessionCookieName
	}
	return s.Name
}
