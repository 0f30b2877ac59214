package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"parsfix/internal/entity"
	"parsfix/internal/repository"
	"parsfix/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mutex sync.Mutex
	now   time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

// sequenceCodes hands out codes in order and repeats the last one.
type sequenceCodes struct {
	mutex sync.Mutex
	codes []string
	next  int
}

func (g *sequenceCodes) Generate() (string, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	code := g.codes[g.next]
	if g.next < len(g.codes)-1 {
		g.next++
	}
	return code, nil
}

type sentEmail struct {
	email string
	code  string
}

type recordingEmailSender struct {
	mutex sync.Mutex
	sent  []sentEmail
	err   error
}

func (s *recordingEmailSender) SendActivationEmail(_ context.Context, email string, code string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sent = append(s.sent, sentEmail{email: email, code: code})
	return s.err
}

func (s *recordingEmailSender) last() sentEmail {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.sent) == 0 {
		return sentEmail{}
	}
	return s.sent[len(s.sent)-1]
}

type stubVerifier struct {
	identity ExternalIdentity
	err      error
}

func (v stubVerifier) VerifyAssertion(context.Context, string) (ExternalIdentity, error) {
	return v.identity, v.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type testEnv struct {
	accounts    *repository.MemoryAccountRepository
	logs        *repository.MemorySecurityLogRepository
	revocations *repository.MemoryRevocationStore
	mail        *recordingEmailSender
	codes       *sequenceCodes
	clock       *testClock
	codec       *utils.TokenCodec
	hasher      BcryptPasswordHasher
	service     *AccountService
}

func newTestEnv(t *testing.T, codes ...string) *testEnv {
	t.Helper()
	if len(codes) == 0 {
		codes = []string{"123456"}
	}
	env := &testEnv{
		accounts:    repository.NewMemoryAccountRepository(),
		logs:        repository.NewMemorySecurityLogRepository(),
		revocations: repository.NewMemoryRevocationStore(),
		mail:        &recordingEmailSender{},
		codes:       &sequenceCodes{codes: codes},
		clock:       newTestClock(),
		hasher:      BcryptPasswordHasher{Cost: bcrypt.MinCost},
	}
	env.codec = &utils.TokenCodec{
		Secret: []byte("test-secret"),
		Issuer: "parsfix",
		TTL:    30 * 24 * time.Hour,
		Now:    env.clock.Now,
	}
	env.service = NewAccountService(
		env.accounts,
		env.logs,
		env.revocations,
		env.mail,
		env.hasher,
		JWTSessionIssuer{Codec: env.codec},
		env.codes,
		env.clock,
		quietLogger(),
		AuthConfig{ActivationCodeTTL: 15 * time.Minute, ActivationMaxAttempts: 5},
	)
	return env
}

// seedAccount stores an activated account with a local password.
func (e *testEnv) seedAccount(t *testing.T, email string, role entity.Role) *entity.Account {
	t.Helper()
	hash, err := e.hasher.Hash("longenough1")
	require.NoError(t, err)
	account := &entity.Account{
		Email:        email,
		PasswordHash: &hash,
		DisplayName:  utils.EmailLocalPart(email),
		Role:         role,
		IsActivated:  true,
	}
	require.NoError(t, e.accounts.Create(context.Background(), account))
	return account
}

func (e *testEnv) reload(t *testing.T, email string) *entity.Account {
	t.Helper()
	account, err := e.accounts.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, account)
	return account
}

// interleavedAccounts calls afterFindByEmail right after every email lookup,
// letting a test slot another writer between a read and the write it feeds.
type interleavedAccounts struct {
	*repository.MemoryAccountRepository
	afterFindByEmail func(account *entity.Account)
}

func (r *interleavedAccounts) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	account, err := r.MemoryAccountRepository.FindByEmail(ctx, email)
	if err == nil && r.afterFindByEmail != nil {
		r.afterFindByEmail(account)
	}
	return account, err
}

// serviceWith builds an AccountService like the env's but over accounts.
func (e *testEnv) serviceWith(accounts repository.AccountRepository) *AccountService {
	return NewAccountService(
		accounts,
		e.logs,
		e.revocations,
		e.mail,
		e.hasher,
		JWTSessionIssuer{Codec: e.codec},
		e.codes,
		e.clock,
		quietLogger(),
		AuthConfig{ActivationCodeTTL: 15 * time.Minute, ActivationMaxAttempts: 5},
	)
}
