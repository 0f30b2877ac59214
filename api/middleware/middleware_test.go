package middleware_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parsfix/api/middleware"
	"parsfix/internal/entity"
	"parsfix/internal/repository"
	"parsfix/internal/service"
	"parsfix/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	accounts *repository.MemoryAccountRepository
	codec    *utils.TokenCodec
	auth     middleware.AuthMiddleware
}

func newFixture() *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	accounts := repository.NewMemoryAccountRepository()
	codec := &utils.TokenCodec{Secret: []byte("middleware-secret"), Issuer: "parsfix", TTL: time.Hour}
	return &fixture{
		accounts: accounts,
		codec:    codec,
		auth: middleware.AuthMiddleware{
			Authenticator: service.NewSessionAuthenticator(codec, accounts, repository.NewMemoryRevocationStore(), logger),
			Cookie:        middleware.NewSessionCookie("", true),
		},
	}
}

func (f *fixture) account(t *testing.T, role entity.Role, activated bool) (*entity.Account, string) {
	t.Helper()
	account := &entity.Account{Email: strings.ToLower(string(role)) + "@b.com", Role: role, IsActivated: activated}
	require.NoError(t, f.accounts.Create(context.Background(), account))
	token, err := f.codec.Issue(account.ID.String(), string(role), time.Hour)
	require.NoError(t, err)
	return account, token
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func withCookie(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	return req
}

func reachedHandler(reached *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*reached = true
		return c.NoContent(http.StatusOK)
	}
}

func TestRequireAuth_AttachesPrincipal(t *testing.T) {
	f := newFixture()
	account, token := f.account(t, entity.RoleUser, true)
	c, _ := newContext(withCookie(token))

	var principal entity.Principal
	err := f.auth.RequireAuth(func(c echo.Context) error {
		var ok bool
		principal, ok = middleware.PrincipalFromContext(c)
		require.True(t, ok)
		claims, ok := middleware.ClaimsFromContext(c)
		require.True(t, ok)
		assert.Equal(t, account.ID.String(), claims.Subject)
		return nil
	})(c)

	require.NoError(t, err)
	assert.Equal(t, account.ID, principal.ID)
	assert.Equal(t, entity.RoleUser, principal.Role)
}

func TestRequireAuth_AcceptsBearerHeader(t *testing.T) {
	f := newFixture()
	_, token := f.account(t, entity.RoleAdmin, true)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c, _ := newContext(req)

	reached := false
	require.NoError(t, f.auth.RequireAuth(reachedHandler(&reached))(c))
	assert.True(t, reached)
}

func TestRequireAuth_Failures(t *testing.T) {
	f := newFixture()
	_, expired := func() (*entity.Account, string) {
		account := &entity.Account{Email: "old@b.com", Role: entity.RoleUser, IsActivated: true}
		require.NoError(t, f.accounts.Create(context.Background(), account))
		past := utils.TokenCodec{Secret: f.codec.Secret, Issuer: f.codec.Issuer, Now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
		token, err := past.Issue(account.ID.String(), "USER", time.Hour)
		require.NoError(t, err)
		return account, token
	}()
	_, pending := f.account(t, entity.RoleUser, false)

	tests := []struct {
		name    string
		req     *http.Request
		wantErr error
	}{
		{name: "no cookie", req: httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), wantErr: service.ErrUnauthenticated},
		{name: "garbage cookie", req: withCookie("garbage"), wantErr: service.ErrTokenInvalid},
		{name: "expired cookie", req: withCookie(expired), wantErr: service.ErrTokenExpired},
		{name: "not activated", req: withCookie(pending), wantErr: service.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(tt.req)
			reached := false

			err := f.auth.RequireAuth(reachedHandler(&reached))(c)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, reached)
			assert.Empty(t, rec.Header().Values("Set-Cookie"))
		})
	}
}

func TestRequireAuth_ClearsCookieOnlyForMissingAccount(t *testing.T) {
	f := newFixture()
	account, token := f.account(t, entity.RoleUser, true)
	require.NoError(t, f.accounts.SetBlocked(context.Background(), account.ID, true, nil))

	c, rec := newContext(withCookie(token))
	err := f.auth.RequireAuth(func(echo.Context) error { return nil })(c)
	assert.ErrorIs(t, err, service.ErrAccountBlocked)
	assert.Empty(t, rec.Header().Values("Set-Cookie"))

	require.NoError(t, f.accounts.Delete(context.Background(), account.ID))
	c, rec = newContext(withCookie(token))
	err = f.auth.RequireAuth(func(echo.Context) error { return nil })(c)
	assert.ErrorIs(t, err, service.ErrSessionAccountMissing)

	cleared := rec.Header().Get("Set-Cookie")
	assert.Contains(t, cleared, middleware.SessionCookieName+"=;")
	assert.Contains(t, cleared, "Max-Age=0")
	assert.Contains(t, cleared, "HttpOnly")
	assert.Contains(t, cleared, "SameSite=Strict")
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name    string
		role    entity.Role
		allowed []entity.Role
		wantErr bool
	}{
		{name: "user on admin route", role: entity.RoleUser, allowed: []entity.Role{entity.RoleAdmin, entity.RoleSuperAdmin}, wantErr: true},
		{name: "admin on super admin route", role: entity.RoleAdmin, allowed: []entity.Role{entity.RoleSuperAdmin}, wantErr: true},
		{name: "admin on admin route", role: entity.RoleAdmin, allowed: []entity.Role{entity.RoleAdmin, entity.RoleSuperAdmin}},
		{name: "super admin on super admin route", role: entity.RoleSuperAdmin, allowed: []entity.Role{entity.RoleSuperAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
			middleware.SetAuthContext(c, entity.Principal{Role: tt.role}, nil)
			reached := false

			err := middleware.RequireRoles(tt.allowed...)(reachedHandler(&reached))(c)
			if tt.wantErr {
				assert.ErrorIs(t, err, service.ErrForbidden)
				assert.False(t, reached)
				return
			}
			require.NoError(t, err)
			assert.True(t, reached)
		})
	}
}

func TestRequireRoles_WithoutPrincipal(t *testing.T) {
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	err := middleware.RequireRoles(entity.RoleUser)(func(echo.Context) error { return nil })(c)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestSessionCookie_Set(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/api/auth/google", nil))
	middleware.NewSessionCookie("parsfix.app", true).Set(c, "token-value", 30*24*time.Hour, http.SameSiteLaxMode)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "authToken", cookie.Name)
	assert.Equal(t, "token-value", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 30*24*60*60, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	limiter := middleware.NewRateLimiter(1, 2, time.Minute)
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.POST("/login", ok, limiter.Middleware())
	e.POST("/signup", ok, limiter.Middleware())

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("/login").Code)
	assert.Equal(t, http.StatusNoContent, send("/login").Code)
	limited := send("/login")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, send("/signup").Code)
}
