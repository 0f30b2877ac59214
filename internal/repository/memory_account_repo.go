package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"parsfix/internal/entity"

	"github.com/google/uuid"
)

var (
	ErrDuplicateEmail              = errors.New("duplicate email")
	ErrActivationAttemptsExhausted = errors.New("activation attempts exhausted")
)

// MemoryAccountRepository keeps accounts in process memory. It backs local
// runs without DATABASE_URL and the test suites.
type MemoryAccountRepository struct {
	mutex    sync.RWMutex
	accounts map[uuid.UUID]entity.Account
	now      func() time.Time
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[uuid.UUID]entity.Account),
		now:      time.Now,
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *entity.Account) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return ErrDuplicateEmail
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.Role == "" {
		account.Role = entity.RoleUser
	}
	now := r.now()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = *account
	return nil
}

func (r *MemoryAccountRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (r *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, account := range r.accounts {
		if account.Email == email {
			found := account
			return &found, nil
		}
	}
	return nil, nil
}

func (r *MemoryAccountRepository) LinkExternalIdentity(_ context.Context, id uuid.UUID, provider string, subject string, pictureURL *string) error {
	return r.mutate(id, func(account *entity.Account) {
		if account.ExternalSubject == nil {
			account.ExternalProvider = &provider
			account.ExternalSubject = &subject
		}
		if account.ProfilePictureURL == nil && pictureURL != nil {
			picture := *pictureURL
			account.ProfilePictureURL = &picture
		}
	})
}

func (r *MemoryAccountRepository) SetActivationCode(_ context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	return r.mutate(id, func(account *entity.Account) {
		account.ActivationCode = &code
		account.ActivationCodeExpiresAt = &expiresAt
		account.ActivationFailedAttempts = 0
	})
}

func (r *MemoryAccountRepository) ClaimActivationAttempt(_ context.Context, id uuid.UUID, maxAttempts int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	account, ok := r.accounts[id]
	if !ok || account.ActivationFailedAttempts >= maxAttempts {
		return ErrActivationAttemptsExhausted
	}
	account.ActivationFailedAttempts++
	account.UpdatedAt = r.now()
	r.accounts[id] = account
	return nil
}

func (r *MemoryAccountRepository) Activate(_ context.Context, id uuid.UUID) error {
	return r.mutate(id, func(account *entity.Account) {
		account.IsActivated = true
		account.ActivationCode = nil
		account.ActivationCodeExpiresAt = nil
		account.ActivationFailedAttempts = 0
	})
}

func (r *MemoryAccountRepository) SetBlocked(_ context.Context, id uuid.UUID, blocked bool, reason *string) error {
	return r.mutate(id, func(account *entity.Account) {
		account.IsBlocked = blocked
		account.BlockReason = reason
	})
}

func (r *MemoryAccountRepository) SetRole(_ context.Context, id uuid.UUID, role entity.Role) error {
	return r.mutate(id, func(account *entity.Account) {
		account.Role = role
	})
}

func (r *MemoryAccountRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.accounts, id)
	return nil
}

func (r *MemoryAccountRepository) List(_ context.Context, limit, offset int) ([]entity.Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	accounts := make([]entity.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	if offset > 0 {
		if offset >= len(accounts) {
			return []entity.Account{}, nil
		}
		accounts = accounts[offset:]
	}
	if limit > 0 && limit < len(accounts) {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

func (r *MemoryAccountRepository) mutate(id uuid.UUID, apply func(account *entity.Account)) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil
	}
	apply(&account)
	account.UpdatedAt = r.now()
	r.accounts[id] = account
	return nil
}
