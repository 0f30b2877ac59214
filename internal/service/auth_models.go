package service

import (
	"time"

	"parsfix/internal/entity"
)

type SignupInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress *string
}

// AuthResult is returned by every operation that starts a session.
type AuthResult struct {
	Account  *entity.Account
	Token    string
	TokenTTL time.Duration
}

func (r *AuthResult) Principal() entity.Principal {
	return entity.PrincipalFromAccount(r.Account)
}

type ResendResult struct {
	Code    string
	Message string
	Email   string
}

type EmailStatus struct {
	Exists      bool
	IsActivated bool
	IsBlocked   bool
	Email       string
}
