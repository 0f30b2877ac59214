package repository

import (
	"context"
	"errors"
	"time"

	"parsfix/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository is the storage contract of the auth core. Every method
// touches a single row so the database provides the atomicity.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	LinkExternalIdentity(ctx context.Context, id uuid.UUID, provider string, subject string, pictureURL *string) error
	SetActivationCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error
	ClaimActivationAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) error
	Activate(ctx context.Context, id uuid.UUID) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool, reason *string) error
	SetRole(ctx context.Context, id uuid.UUID, role entity.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]entity.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Create(account).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account entity.Account
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &account, err
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var account entity.Account
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &account, err
}

// LinkExternalIdentity fills the external identity and picture columns only
// where they are still empty, so a concurrent admin change to the row is
// never written over.
func (r *accountRepository) LinkExternalIdentity(ctx context.Context, id uuid.UUID, provider string, subject string, pictureURL *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entity.Account{}).
			Where("id = ? AND external_subject IS NULL", id).
			Updates(map[string]any{
				"external_provider": provider,
				"external_subject":  subject,
			}).Error
		if err != nil || pictureURL == nil {
			return err
		}
		return tx.Model(&entity.Account{}).
			Where("id = ? AND profile_picture_url IS NULL", id).
			Update("profile_picture_url", *pictureURL).
			Error
	})
}

func (r *accountRepository) SetActivationCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"activation_code":            code,
			"activation_code_expires_at": expiresAt,
			"activation_failed_attempts": 0,
		}).Error
}

// ClaimActivationAttempt counts an attempt against the pending code before
// it is compared. Once maxAttempts are spent it returns
// ErrActivationAttemptsExhausted; a successful Activate or a reissued code
// resets the counter.
func (r *accountRepository) ClaimActivationAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Account{}).
		Where("id = ? AND activation_failed_attempts < ?", id, maxAttempts).
		Update("activation_failed_attempts", gorm.Expr("activation_failed_attempts + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrActivationAttemptsExhausted
	}
	return nil
}

func (r *accountRepository) Activate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_activated":               true,
			"activation_code":            nil,
			"activation_code_expires_at": nil,
			"activation_failed_attempts": 0,
		}).Error
}

func (r *accountRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool, reason *string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_blocked":   blocked,
			"block_reason": reason,
		}).Error
}

func (r *accountRepository) SetRole(ctx context.Context, id uuid.UUID, role entity.Role) error {
	return r.db.WithContext(ctx).
		Model(&entity.Account{}).
		Where("id = ?", id).
		Update("role", role).
		Error
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.Account{}).
		Error
}

func (r *accountRepository) List(ctx context.Context, limit, offset int) ([]entity.Account, error) {
	var accounts []entity.Account
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
