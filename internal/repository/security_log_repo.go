package repository

import (
	"context"
	"sync"

	"parsfix/internal/entity"

	"gorm.io/gorm"
)

type SecurityLogRepository interface {
	Log(ctx context.Context, log *entity.SecurityLog) error
}

type securityLogRepository struct {
	db *gorm.DB
}

func NewSecurityLogRepository(db *gorm.DB) SecurityLogRepository {
	return &securityLogRepository{db: db}
}

func (r *securityLogRepository) Log(ctx context.Context, log *entity.SecurityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// MemorySecurityLogRepository collects audit entries in order of arrival.
type MemorySecurityLogRepository struct {
	mutex   sync.Mutex
	entries []entity.SecurityLog
}

func NewMemorySecurityLogRepository() *MemorySecurityLogRepository {
	return &MemorySecurityLogRepository{}
}

func (r *MemorySecurityLogRepository) Log(_ context.Context, log *entity.SecurityLog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.entries = append(r.entries, *log)
	return nil
}

func (r *MemorySecurityLogRepository) Actions() []entity.SecurityAction {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	actions := make([]entity.SecurityAction, 0, len(r.entries))
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}
