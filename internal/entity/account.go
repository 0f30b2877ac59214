package entity

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string   `gorm:"type:text"`
	DisplayName  string    `gorm:"type:varchar(255)"`
	Role         Role      `gorm:"type:varchar(20);default:'USER';not null"`

	IsActivated bool    `gorm:"default:false;not null"`
	IsBlocked   bool    `gorm:"default:false;not null"`
	BlockReason *string `gorm:"type:text"`

	ActivationCode           *string `gorm:"type:varchar(6)"`
	ActivationCodeExpiresAt  *time.Time
	ActivationFailedAttempts int `gorm:"default:0;not null"`

	ExternalProvider *string `gorm:"type:varchar(50)"`
	ExternalSubject  *string `gorm:"type:varchar(255);index"`

	ProfilePictureURL *string `gorm:"type:text"`
	DateOfBirth       *time.Time
	Gender            *string `gorm:"type:varchar(20)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPendingActivation reports whether a code is waiting to be confirmed.
func (a *Account) HasPendingActivation() bool {
	return a.ActivationCode != nil && a.ActivationCodeExpiresAt != nil
}

// IsExternalOnly is true for accounts created through an external identity
// that never set a local password.
func (a *Account) IsExternalOnly() bool {
	return a.PasswordHash == nil && a.ExternalSubject != nil
}
