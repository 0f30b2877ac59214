package service

import (
	"context"
	"errors"
	"time"

	"parsfix/internal/entity"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 10

var ErrEmptyPassword = errors.New("password must not be empty")

// AuthConfig tunes the activation flow. Session lifetime belongs to the
// token codec.
type AuthConfig struct {
	ActivationCodeTTL     time.Duration
	ActivationMaxAttempts int
}

type EmailSender interface {
	SendActivationEmail(ctx context.Context, email string, code string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type SessionTokenIssuer interface {
	IssueSessionToken(account *entity.Account) (string, time.Duration, error)
}

type ActivationCodeGenerator interface {
	Generate() (string, error)
}

// RevocationStore remembers session token ids that were signed out before
// their natural expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ExternalIdentity is what an identity provider vouches for.
type ExternalIdentity struct {
	Provider   string
	Subject    string
	Email      string
	Name       string
	PictureURL string
}

type IdentityVerifier interface {
	VerifyAssertion(ctx context.Context, token string) (ExternalIdentity, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	cost := h.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
