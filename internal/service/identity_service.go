package service

import (
	"context"
	"errors"
	"strings"

	"parsfix/internal/entity"
	"parsfix/internal/repository"
	"parsfix/internal/utils"

	"github.com/sirupsen/logrus"
)

// IdentityService signs in accounts vouched for by an external identity
// provider. The provider has already proven email ownership, so accounts
// are activated without a code.
type IdentityService struct {
	accounts     repository.AccountRepository
	securityLogs repository.SecurityLogRepository
	verifier     IdentityVerifier
	sessions     SessionTokenIssuer
	logger       logrus.FieldLogger
}

func NewIdentityService(
	accounts repository.AccountRepository,
	securityLogs repository.SecurityLogRepository,
	verifier IdentityVerifier,
	sessions SessionTokenIssuer,
	logger logrus.FieldLogger,
) *IdentityService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &IdentityService{
		accounts:     accounts,
		securityLogs: securityLogs,
		verifier:     verifier,
		sessions:     sessions,
		logger:       logger,
	}
}

func (s *IdentityService) VerifyAndSignIn(ctx context.Context, identityToken string) (*AuthResult, error) {
	if strings.TrimSpace(identityToken) == "" {
		return nil, ErrInvalidInput
	}
	if s.verifier == nil {
		return nil, ExternalTokenInvalid(errors.New("no identity provider configured"))
	}

	identity, err := s.verifier.VerifyAssertion(ctx, identityToken)
	if err != nil {
		s.logger.WithError(err).Info("external identity assertion rejected")
		return nil, ExternalTokenInvalid(err)
	}
	email := utils.NormalizeEmail(identity.Email)
	if email == "" || identity.Subject == "" {
		return nil, ExternalTokenInvalid(errors.New("assertion is missing subject or email"))
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	created := false
	if account == nil {
		account, err = s.createAccount(ctx, email, identity)
		switch {
		case err == nil:
			created = true
		case errors.Is(err, repository.ErrDuplicateEmail):
			// A parallel first sign-in created the row; join it.
			account, err = s.accounts.FindByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if account == nil {
				return nil, ErrAccountNotFound
			}
		default:
			return nil, err
		}
	}
	if !created {
		if account.IsBlocked {
			return nil, AccountBlocked(account.BlockReason)
		}
		if account, err = s.linkAccount(ctx, account, identity); err != nil {
			return nil, err
		}
	}

	token, ttl, err := s.sessions.IssueSessionToken(account)
	if err != nil {
		return nil, err
	}
	writeSecurityLog(ctx, s.securityLogs, s.logger, &account.ID, nil, entity.ExternalSignIn, map[string]any{
		"provider": identity.Provider,
		"created":  created,
	})
	return &AuthResult{Account: account, Token: token, TokenTTL: ttl}, nil
}

func (s *IdentityService) createAccount(ctx context.Context, email string, identity ExternalIdentity) (*entity.Account, error) {
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = utils.EmailLocalPart(email)
	}
	provider := identity.Provider
	subject := identity.Subject
	account := &entity.Account{
		Email:            email,
		DisplayName:      name,
		Role:             entity.RoleUser,
		IsActivated:      true,
		ExternalProvider: &provider,
		ExternalSubject:  &subject,
	}
	if identity.PictureURL != "" {
		picture := identity.PictureURL
		account.ProfilePictureURL = &picture
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// linkAccount attaches the external subject to an existing account without
// touching its password, and completes a pending activation. The account is
// read back afterwards so that a block or role change made meanwhile is what
// the session is issued against.
func (s *IdentityService) linkAccount(ctx context.Context, account *entity.Account, identity ExternalIdentity) (*entity.Account, error) {
	var picture *string
	if identity.PictureURL != "" {
		url := identity.PictureURL
		picture = &url
	}
	needsLink := account.ExternalSubject == nil || (account.ProfilePictureURL == nil && picture != nil)
	if !needsLink && account.IsActivated {
		return account, nil
	}

	if needsLink {
		if err := s.accounts.LinkExternalIdentity(ctx, account.ID, identity.Provider, identity.Subject, picture); err != nil {
			return nil, err
		}
	}
	if !account.IsActivated {
		if err := s.accounts.Activate(ctx, account.ID); err != nil {
			return nil, err
		}
	}

	current, err := s.accounts.FindByID(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrAccountNotFound
	}
	if current.IsBlocked {
		return nil, AccountBlocked(current.BlockReason)
	}
	return current, nil
}
