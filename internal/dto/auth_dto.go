package dto

import (
	"reflect"
	"strings"
	"time"

	"parsfix/internal/entity"

	"github.com/go-playground/validator/v10"
)

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"omitempty,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ActivateRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// EmailRequest is the body of resend-activation and check-email.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN SUPER_ADMIN"`
}

type BlockRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type SuccessResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status  string            `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Email   string            `json:"email,omitempty"`
	Reason  *string           `json:"reason,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Detail  string            `json:"detail,omitempty"`
}

type UserData struct {
	User entity.Principal `json:"user"`
}

type EmailStatusResponse struct {
	Exists      bool   `json:"exists"`
	IsActivated bool   `json:"isActivated"`
	IsBlocked   bool   `json:"isBlocked"`
	Email       string `json:"email"`
}

// AccountResponse is the admin view of an account. It is still free of
// credentials and activation state.
type AccountResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	IsActivated bool      `json:"isActivated"`
	IsBlocked   bool      `json:"isBlocked"`
	BlockReason *string   `json:"blockReason,omitempty"`
	Provider    *string   `json:"provider,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func AccountResponseFromEntity(account *entity.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID.String(),
		Email:       account.Email,
		Name:        account.DisplayName,
		Role:        string(account.Role),
		IsActivated: account.IsActivated,
		IsBlocked:   account.IsBlocked,
		BlockReason: account.BlockReason,
		Provider:    account.ExternalProvider,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}
}

func AccountResponsesFromEntities(accounts []entity.Account) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, AccountResponseFromEntity(&accounts[i]))
	}
	return responses
}

// NewValidator reports field errors under their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}
