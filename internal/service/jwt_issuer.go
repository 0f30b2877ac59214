package service

import (
	"time"

	"parsfix/internal/entity"
	"parsfix/internal/utils"
)

type JWTSessionIssuer struct {
	Codec *utils.TokenCodec
}

func (j JWTSessionIssuer) IssueSessionToken(account *entity.Account) (string, time.Duration, error) {
	if j.Codec == nil {
		return "", 0, utils.ErrTokenInvalid
	}
	ttl := j.Codec.TTL
	if ttl <= 0 {
		ttl = utils.DefaultSessionTTL
	}
	token, err := j.Codec.Issue(account.ID.String(), string(account.Role), ttl)
	if err != nil {
		return "", 0, err
	}
	return token, ttl, nil
}
