package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	GoogleProvider = "google"
	GoogleJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

var (
	errAssertionIssuer     = errors.New("assertion issuer is not google")
	errAssertionUnverified = errors.New("assertion email is not verified")
	errAssertionIncomplete = errors.New("assertion is missing subject or email")
)

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// GoogleIdentityVerifier checks Google ID tokens against the published
// signing keys and the configured OAuth client id.
type GoogleIdentityVerifier struct {
	ClientID string
	Keys     jwt.Keyfunc
	Now      func() time.Time
}

func NewGoogleIdentityVerifier(clientID string, keys jwt.Keyfunc) *GoogleIdentityVerifier {
	return &GoogleIdentityVerifier{ClientID: clientID, Keys: keys}
}

// LoadGoogleKeys fetches the JWKS once and keeps it refreshed in the
// background until ctx is cancelled.
func LoadGoogleKeys(ctx context.Context, jwksURL string, logger logrus.FieldLogger) (*keyfunc.JWKS, error) {
	if strings.TrimSpace(jwksURL) == "" {
		jwksURL = GoogleJWKSURL
	}
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx: ctx,
		RefreshErrorHandler: func(err error) {
			logger.WithError(err).Warn("google jwks refresh failed")
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load google jwks: %w", err)
	}
	return jwks, nil
}

func (v *GoogleIdentityVerifier) VerifyAssertion(_ context.Context, token string) (ExternalIdentity, error) {
	if v.Keys == nil || v.ClientID == "" {
		return ExternalIdentity{}, errors.New("google verifier not configured")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.ClientID),
		jwt.WithExpirationRequired(),
	}
	if v.Now != nil {
		options = append(options, jwt.WithTimeFunc(v.Now))
	}

	claims := &googleClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, v.Keys, options...); err != nil {
		return ExternalIdentity{}, err
	}
	if !validGoogleIssuer(claims.Issuer) {
		return ExternalIdentity{}, errAssertionIssuer
	}
	if claims.Subject == "" || strings.TrimSpace(claims.Email) == "" {
		return ExternalIdentity{}, errAssertionIncomplete
	}
	if !emailVerified(claims.EmailVerified) {
		return ExternalIdentity{}, errAssertionUnverified
	}

	return ExternalIdentity{
		Provider:   GoogleProvider,
		Subject:    claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		PictureURL: claims.Picture,
	}, nil
}

func validGoogleIssuer(issuer string) bool {
	for _, allowed := range googleIssuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}

// Google has sent email_verified both as a JSON bool and as a string.
func emailVerified(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}
