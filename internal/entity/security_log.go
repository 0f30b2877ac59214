package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SecurityAction string

const (
	Signup            SecurityAction = "signup"
	LoginSuccess      SecurityAction = "login_success"
	LoginFailed       SecurityAction = "login_failed"
	ActivationSuccess SecurityAction = "activation_success"
	ActivationFailed  SecurityAction = "activation_failed"
	ActivationResent  SecurityAction = "activation_resent"
	ExternalSignIn    SecurityAction = "external_sign_in"
	Logout            SecurityAction = "logout"
	AccountBlocked    SecurityAction = "account_blocked"
	AccountUnblocked  SecurityAction = "account_unblocked"
	RoleChanged       SecurityAction = "role_changed"
	AccountDeleted    SecurityAction = "account_deleted"
)

type SecurityLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	AccountID *uuid.UUID `gorm:"type:uuid;index"`

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
