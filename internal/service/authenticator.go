package service

import (
	"context"
	"errors"
	"strings"

	"parsfix/internal/entity"
	"parsfix/internal/repository"
	"parsfix/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type SessionTokenVerifier interface {
	Verify(token string) (*utils.SessionClaims, error)
}

// Session is the outcome of a successful authentication.
type Session struct {
	Principal entity.Principal
	Claims    *utils.SessionClaims
}

// SessionAuthenticator turns a presented session token into a Principal.
// The account row is always reloaded so blocks and deletions take effect
// on the next request.
type SessionAuthenticator struct {
	tokens      SessionTokenVerifier
	accounts    repository.AccountRepository
	revocations RevocationStore
	logger      logrus.FieldLogger
}

func NewSessionAuthenticator(
	tokens SessionTokenVerifier,
	accounts repository.AccountRepository,
	revocations RevocationStore,
	logger logrus.FieldLogger,
) *SessionAuthenticator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SessionAuthenticator{
		tokens:      tokens,
		accounts:    accounts,
		revocations: revocations,
		logger:      logger,
	}
}

func (a *SessionAuthenticator) Authenticate(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if a.revocations != nil && claims.ID != "" {
		revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			// a store outage must not lock every user out
			a.logger.WithError(err).Warn("revocation lookup failed")
		} else if revoked {
			return nil, ErrTokenInvalid
		}
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	account, err := a.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrSessionAccountMissing
	}
	if account.IsBlocked {
		return nil, AccountBlocked(account.BlockReason)
	}
	if !account.IsActivated {
		return nil, ErrNotActivated
	}

	return &Session{
		Principal: entity.PrincipalFromAccount(account),
		Claims:    claims,
	}, nil
}

// Authorize admits the principal when its role is one of allowed. An empty
// allowed list admits nobody.
func Authorize(principal entity.Principal, allowed ...entity.Role) error {
	if !principal.HasAnyRole(allowed...) {
		return ErrForbidden
	}
	return nil
}
