package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// DefaultSessionTTL is used when no ttl is configured or the configured
// value cannot be parsed.
const DefaultSessionTTL = 7 * 24 * time.Hour

type TokenCodec struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseTTL reads durations such as "30d" or "12h". Any other shape falls
// back to DefaultSessionTTL rather than failing.
func ParseTTL(value string) time.Duration {
	value = strings.TrimSpace(strings.ToLower(value))
	if len(value) < 2 {
		return DefaultSessionTTL
	}
	amount, err := strconv.Atoi(value[:len(value)-1])
	if err != nil || amount <= 0 {
		return DefaultSessionTTL
	}
	switch value[len(value)-1] {
	case 'd':
		return time.Duration(amount) * 24 * time.Hour
	case 'h':
		return time.Duration(amount) * time.Hour
	}
	return DefaultSessionTTL
}

func (m TokenCodec) Issue(subjectID string, role string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.ttl()
	}
	now := m.now()
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.Issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.Secret)
}

// Verify checks the signature and expiry of a session token. Signature and
// structure problems map to ErrTokenInvalid, an elapsed exp to ErrTokenExpired.
func (m TokenCodec) Verify(tokenString string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.Secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m TokenCodec) ttl() time.Duration {
	if m.TTL > 0 {
		return m.TTL
	}
	return DefaultSessionTTL
}

func (m TokenCodec) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
