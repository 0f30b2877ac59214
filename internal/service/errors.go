package service

import (
	"fmt"
	"net/http"
)

// Kind is the stable, machine-readable code of an operational error.
type Kind string

const (
	KindInvalidInput          Kind = "INVALID_INPUT"
	KindInvalidCredentials    Kind = "INVALID_CREDENTIALS"
	KindActivationPending     Kind = "ACTIVATION_PENDING"
	KindDuplicateEmail        Kind = "DUPLICATE_EMAIL"
	KindAccountBlocked        Kind = "ACCOUNT_BLOCKED"
	KindAccountNotFound       Kind = "ACCOUNT_NOT_FOUND"
	KindCodeExpired           Kind = "CODE_EXPIRED"
	KindCodeMismatch          Kind = "CODE_MISMATCH"
	KindActivationLocked      Kind = "ACTIVATION_LOCKED"
	KindTokenInvalid          Kind = "TOKEN_INVALID"
	KindTokenExpired          Kind = "TOKEN_EXPIRED"
	KindUnauthenticated       Kind = "UNAUTHENTICATED"
	KindSessionAccountMissing Kind = "SESSION_ACCOUNT_MISSING"
	KindForbidden             Kind = "FORBIDDEN"
	KindExternalTokenInvalid  Kind = "EXTERNAL_TOKEN_INVALID"
	KindSelfActionForbidden   Kind = "SELF_ACTION_FORBIDDEN"
	KindRoleNotAssignable     Kind = "ROLE_NOT_ASSIGNABLE"
)

// CodeActivationResent is returned on a successful resend so clients can
// route to the same screen as for ACTIVATION_PENDING.
const CodeActivationResent = "ACTIVATION_RESENT"

// Error is an expected failure that is safe to show to the caller. Email is
// only set for ACTIVATION_PENDING, Reason only for ACCOUNT_BLOCKED.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Email   string
	Reason  *string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so payload-carrying errors still compare equal to the
// package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

var (
	ErrInvalidInput          = newError(KindInvalidInput, http.StatusBadRequest, "invalid input")
	ErrInvalidCredentials    = newError(KindInvalidCredentials, http.StatusUnauthorized, "invalid email or password")
	ErrActivationPending     = newError(KindActivationPending, http.StatusUnauthorized, "account is not activated yet, please enter the activation code sent to your email")
	ErrDuplicateEmail        = newError(KindDuplicateEmail, http.StatusConflict, "an account with this email already exists")
	ErrAccountBlocked        = newError(KindAccountBlocked, http.StatusForbidden, "account is blocked")
	ErrAccountNotFound       = newError(KindAccountNotFound, http.StatusNotFound, "account not found or already activated")
	ErrCodeExpired           = newError(KindCodeExpired, http.StatusBadRequest, "activation code has expired, please request a new one")
	ErrCodeMismatch          = newError(KindCodeMismatch, http.StatusBadRequest, "activation code is incorrect")
	ErrActivationLocked      = newError(KindActivationLocked, http.StatusTooManyRequests, "too many incorrect attempts, please request a new activation code")
	ErrTokenInvalid          = newError(KindTokenInvalid, http.StatusUnauthorized, "invalid session, please sign in again")
	ErrTokenExpired          = newError(KindTokenExpired, http.StatusUnauthorized, "session has expired, please sign in again")
	ErrUnauthenticated       = newError(KindUnauthenticated, http.StatusUnauthorized, "you are not signed in")
	ErrSessionAccountMissing = newError(KindSessionAccountMissing, http.StatusUnauthorized, "the account for this session no longer exists")
	ErrForbidden             = newError(KindForbidden, http.StatusForbidden, "you do not have permission to perform this action")
	ErrNotActivated          = newError(KindForbidden, http.StatusForbidden, "account is not activated")
	ErrExternalTokenInvalid  = newError(KindExternalTokenInvalid, http.StatusUnauthorized, "external sign-in could not be verified")
	ErrSelfActionForbidden   = newError(KindSelfActionForbidden, http.StatusForbidden, "you cannot perform this action on your own account")
	ErrRoleNotAssignable     = newError(KindRoleNotAssignable, http.StatusBadRequest, "role can only be changed to USER or ADMIN")
)

// ActivationPending carries the email so the client can jump straight to
// the activation screen.
func ActivationPending(email string) *Error {
	err := *ErrActivationPending
	err.Email = email
	return &err
}

func AccountBlocked(reason *string) *Error {
	err := *ErrAccountBlocked
	if reason != nil && *reason != "" {
		r := *reason
		err.Reason = &r
		err.Message = fmt.Sprintf("account is blocked: %s", r)
	}
	return &err
}

func ExternalTokenInvalid(cause error) *Error {
	err := *ErrExternalTokenInvalid
	err.Err = cause
	return &err
}
