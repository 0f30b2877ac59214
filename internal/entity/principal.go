package entity

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the sanitized view of an Account handed to request handlers
// once the session has been authenticated. It never carries credentials,
// activation codes or attempt counters.
type Principal struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Role              Role       `json:"role"`
	IsActivated       bool       `json:"isActivated"`
	ProfilePictureURL *string    `json:"profilePictureUrl,omitempty"`
	DateOfBirth       *time.Time `json:"dateOfBirth,omitempty"`
	Gender            *string    `json:"gender,omitempty"`
}

func PrincipalFromAccount(account *Account) Principal {
	return Principal{
		ID:                account.ID,
		Email:             account.Email,
		Name:              account.DisplayName,
		Role:              account.Role,
		IsActivated:       account.IsActivated,
		ProfilePictureURL: account.ProfilePictureURL,
		DateOfBirth:       account.DateOfBirth,
		Gender:            account.Gender,
	}
}

func (p Principal) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}
