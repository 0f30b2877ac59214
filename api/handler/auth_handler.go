package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"parsfix/api/middleware"
	"parsfix/internal/dto"
	"parsfix/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Accounts *service.AccountService
	Identity *service.IdentityService
	Tokens   service.SessionTokenVerifier
	Validate *validator.Validate
	Cookie   middleware.SessionCookie
}

func NewAuthHandler(
	accounts *service.AccountService,
	identity *service.IdentityService,
	tokens service.SessionTokenVerifier,
	validate *validator.Validate,
	cookie middleware.SessionCookie,
) *AuthHandler {
	return &AuthHandler{
		Accounts: accounts,
		Identity: identity,
		Tokens:   tokens,
		Validate: validate,
		Cookie:   cookie,
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req dto.SignupRequest
	if err := bind(c, h.Validate, &req); err != nil {
		return err
	}
	result, err := h.Accounts.Signup(c.Request().Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}
	h.Cookie.Set(c, result.Token, result.TokenTTL, http.SameSiteStrictMode)
	return c.JSON(http.StatusCreated, dto.SuccessResponse{
		Status:  "success",
		Message: "account created, enter the activation code sent to your email",
		Data:    dto.UserData{User: result.Principal()},
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := bind(c, h.Validate, &req); err != nil {
		return err
	}
	result, err := h.Accounts.Login(c.Request().Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: stringPtr(c.RealIP()),
	})
	if err != nil {
		return err
	}
	h.Cookie.Set(c, result.Token, result.TokenTTL, http.SameSiteStrictMode)
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status: "success",
		Data:   dto.UserData{User: result.Principal()},
	})
}

// Logout always succeeds. A still-valid token is revoked; an expired or
// garbled one only has its cookie cleared.
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := h.Cookie.Read(c); token != "" && h.Tokens != nil {
		if claims, err := h.Tokens.Verify(token); err == nil {
			var accountID *uuid.UUID
			if id, err := uuid.Parse(claims.Subject); err == nil {
				accountID = &id
			}
			h.Accounts.Logout(c.Request().Context(), accountID, claims.ID, claims.ExpiresAt.Time, stringPtr(c.RealIP()))
		}
	}
	h.Cookie.Clear(c, http.SameSiteStrictMode)
	return c.JSON(http.StatusOK, dto.SuccessResponse{Status: "success", Message: "signed out"})
}

func (h *AuthHandler) Activate(c echo.Context) error {
	var req dto.ActivateRequest
	if err := bind(c, h.Validate, &req); err != nil {
		return err
	}
	result, err := h.Accounts.ActivateAndSignIn(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return err
	}
	h.Cookie.Set(c, result.Token, result.TokenTTL, http.SameSiteStrictMode)
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status:  "success",
		Message: "account activated",
		Data:    dto.UserData{User: result.Principal()},
	})
}

func (h *AuthHandler) ResendActivation(c echo.Context) error {
	var req dto.EmailRequest
	if err := bind(c, h.Validate, &req); err != nil {
		return err
	}
	result, err := h.Accounts.ResendActivation(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status:  "success",
		Code:    result.Code,
		Message: result.Message,
		Data:    map[string]string{"email": result.Email},
	})
}

func (h *AuthHandler) CheckEmail(c echo.Context) error {
	var req dto.EmailRequest
	if err := bind(c, h.Validate, &req); err != nil {
		return err
	}
	status, err := h.Accounts.CheckEmailExists(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status: "success",
		Data: dto.EmailStatusResponse{
			Exists:      status.Exists,
			IsActivated: status.IsActivated,
			IsBlocked:   status.IsBlocked,
			Email:       status.Email,
		},
	})
}

func (h *AuthHandler) GoogleSignIn(c echo.Context) error {
	var req dto.GoogleSignInRequest
	if err := bind(c, h.Validate, &req); err != nil {
		return err
	}
	if h.Identity == nil {
		return service.ExternalTokenInvalid(errors.New("external sign-in is disabled"))
	}
	result, err := h.Identity.VerifyAndSignIn(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}
	// lax so the cookie survives the redirect back from the provider
	h.Cookie.Set(c, result.Token, result.TokenTTL, http.SameSiteLaxMode)
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status: "success",
		Data:   dto.UserData{User: result.Principal()},
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return service.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{
		Status: "success",
		Data:   dto.UserData{User: principal},
	})
}

// bind decodes a JSON body strictly and validates it. An empty body decodes
// as an empty object so validation can name the missing fields.
func bind(c echo.Context, validate *validator.Validate, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if validate == nil {
		return nil
	}
	return validate.Struct(target)
}

func parseLimitOffset(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
