package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"parsfix/internal/entity"
	"parsfix/internal/repository"
	"parsfix/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// dummyPasswordHash is compared against when the email is unknown so that
// both failure paths of Login spend a bcrypt round.
const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

const (
	defaultActivationCodeTTL     = 15 * time.Minute
	defaultActivationMaxAttempts = 5

	activationResentMessage = "if the account is waiting for activation, a new code has been sent to the email address"
)

type AccountService struct {
	accounts     repository.AccountRepository
	securityLogs repository.SecurityLogRepository
	revocations  RevocationStore

	emailSender  EmailSender
	passwordHash PasswordHasher
	sessions     SessionTokenIssuer
	codes        ActivationCodeGenerator
	clock        Clock
	logger       logrus.FieldLogger
	config       AuthConfig
}

func NewAccountService(
	accounts repository.AccountRepository,
	securityLogs repository.SecurityLogRepository,
	revocations RevocationStore,
	emailSender EmailSender,
	passwordHash PasswordHasher,
	sessions SessionTokenIssuer,
	codes ActivationCodeGenerator,
	clock Clock,
	logger logrus.FieldLogger,
	config AuthConfig,
) *AccountService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AccountService{
		accounts:     accounts,
		securityLogs: securityLogs,
		revocations:  revocations,
		emailSender:  emailSender,
		passwordHash: passwordHash,
		sessions:     sessions,
		codes:        codes,
		clock:        clock,
		logger:       logger,
		config:       config,
	}
}

func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = utils.EmailLocalPart(email)
	}
	account := &entity.Account{
		Email:        email,
		PasswordHash: &hash,
		DisplayName:  name,
		Role:         entity.RoleUser,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	code, err := s.issueActivationCode(ctx, account)
	if err != nil {
		return nil, err
	}
	s.sendActivationEmail(ctx, account.Email, code)

	result, err := s.startSession(account)
	if err != nil {
		return nil, err
	}
	s.logSecurity(ctx, &account.ID, nil, entity.Signup, nil)
	return result, nil
}

func (s *AccountService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		s.logSecurity(ctx, nil, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if account.IsBlocked {
		s.logSecurity(ctx, &account.ID, input.IPAddress, entity.LoginFailed, map[string]any{"reason": "blocked"})
		return nil, AccountBlocked(account.BlockReason)
	}

	if account.PasswordHash == nil || !s.passwordHash.Verify(*account.PasswordHash, input.Password) {
		s.logSecurity(ctx, &account.ID, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if !account.IsActivated {
		return nil, ActivationPending(account.Email)
	}

	result, err := s.startSession(account)
	if err != nil {
		return nil, err
	}
	s.logSecurity(ctx, &account.ID, input.IPAddress, entity.LoginSuccess, nil)
	return result, nil
}

// Activate confirms the code sent at signup or resend. A second call after
// success fails with ErrAccountNotFound because no code is pending anymore.
func (s *AccountService) Activate(ctx context.Context, email string, code string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}

	account, err := s.accounts.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if account == nil || account.IsActivated || !account.HasPendingActivation() {
		return ErrAccountNotFound
	}

	if !s.now().Before(*account.ActivationCodeExpiresAt) {
		return ErrCodeExpired
	}
	// The attempt is claimed before the comparison so that parallel guesses
	// cannot outrun the limit.
	if err := s.accounts.ClaimActivationAttempt(ctx, account.ID, s.activationMaxAttempts()); err != nil {
		if errors.Is(err, repository.ErrActivationAttemptsExhausted) {
			return ErrActivationLocked
		}
		return err
	}
	if !utils.EqualSecret(*account.ActivationCode, strings.TrimSpace(code)) {
		s.logSecurity(ctx, &account.ID, nil, entity.ActivationFailed, nil)
		return ErrCodeMismatch
	}

	if err := s.accounts.Activate(ctx, account.ID); err != nil {
		return err
	}
	s.logSecurity(ctx, &account.ID, nil, entity.ActivationSuccess, nil)
	return nil
}

// ActivateAndSignIn activates the account and starts a session for it, so
// the client lands signed in after entering the code.
func (s *AccountService) ActivateAndSignIn(ctx context.Context, email string, code string) (*AuthResult, error) {
	if err := s.Activate(ctx, email, code); err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return s.startSession(account)
}

// ResendActivation answers identically whether or not the account exists
// or is already active, so the response does not reveal either.
func (s *AccountService) ResendActivation(ctx context.Context, email string) (*ResendResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrInvalidInput
	}

	normalized := utils.NormalizeEmail(email)
	result := &ResendResult{
		Code:    CodeActivationResent,
		Message: activationResentMessage,
		Email:   normalized,
	}

	account, err := s.accounts.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if account == nil || account.IsActivated {
		return result, nil
	}

	code, err := s.issueActivationCode(ctx, account)
	if err != nil {
		return nil, err
	}
	s.sendActivationEmail(ctx, account.Email, code)
	s.logSecurity(ctx, &account.ID, nil, entity.ActivationResent, nil)
	return result, nil
}

func (s *AccountService) CheckEmailExists(ctx context.Context, email string) (*EmailStatus, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrInvalidInput
	}

	normalized := utils.NormalizeEmail(email)
	account, err := s.accounts.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &EmailStatus{Email: normalized}, nil
	}
	return &EmailStatus{
		Exists:      true,
		IsActivated: account.IsActivated,
		IsBlocked:   account.IsBlocked,
		Email:       account.Email,
	}, nil
}

// Logout revokes the token id when a revocation store is configured. It
// never fails: the caller clears the cookie regardless.
func (s *AccountService) Logout(ctx context.Context, accountID *uuid.UUID, tokenID string, expiresAt time.Time, ipAddress *string) {
	if s.revocations != nil && tokenID != "" {
		if err := s.revocations.Revoke(ctx, tokenID, expiresAt); err != nil {
			s.logger.WithError(err).WithField("token_id", tokenID).Warn("session revocation failed")
		}
	}
	s.logSecurity(ctx, accountID, ipAddress, entity.Logout, nil)
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountService) issueActivationCode(ctx context.Context, account *entity.Account) (string, error) {
	code, err := s.codes.Generate()
	if err != nil {
		return "", err
	}
	expiresAt := s.now().Add(s.activationCodeTTL())
	if err := s.accounts.SetActivationCode(ctx, account.ID, code, expiresAt); err != nil {
		return "", err
	}
	account.ActivationCode = &code
	account.ActivationCodeExpiresAt = &expiresAt
	account.ActivationFailedAttempts = 0
	return code, nil
}

// sendActivationEmail is best effort: the code stays valid and resendable
// when delivery fails.
func (s *AccountService) sendActivationEmail(ctx context.Context, email string, code string) {
	if s.emailSender == nil {
		return
	}
	if err := s.emailSender.SendActivationEmail(ctx, email, code); err != nil {
		s.logger.WithError(err).WithField("email", email).Error("activation email delivery failed")
	}
}

func (s *AccountService) startSession(account *entity.Account) (*AuthResult, error) {
	token, ttl, err := s.sessions.IssueSessionToken(account)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: account, Token: token, TokenTTL: ttl}, nil
}

func (s *AccountService) logSecurity(
	ctx context.Context,
	accountID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) {
	writeSecurityLog(ctx, s.securityLogs, s.logger, accountID, ipAddress, action, metadata)
}

func (s *AccountService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *AccountService) activationCodeTTL() time.Duration {
	if s.config.ActivationCodeTTL > 0 {
		return s.config.ActivationCodeTTL
	}
	return defaultActivationCodeTTL
}

func (s *AccountService) activationMaxAttempts() int {
	if s.config.ActivationMaxAttempts > 0 {
		return s.config.ActivationMaxAttempts
	}
	return defaultActivationMaxAttempts
}

func writeSecurityLog(
	ctx context.Context,
	logs repository.SecurityLogRepository,
	logger logrus.FieldLogger,
	accountID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) {
	if logs == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			logger.WithError(err).WithField("action", action).Warn("security log metadata encoding failed")
			return
		}
		payload = datatypes.JSON(bytes)
	}

	entry := &entity.SecurityLog{
		AccountID: accountID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	if err := logs.Log(ctx, entry); err != nil {
		logger.WithError(err).WithField("action", action).Warn("security log write failed")
	}
}
