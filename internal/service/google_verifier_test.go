package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "parsfix-web.apps.googleusercontent.com"

type googleFixture struct {
	key      *rsa.PrivateKey
	verifier *GoogleIdentityVerifier
	now      time.Time
}

func newGoogleFixture(t *testing.T) *googleFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		"google-kid": keyfunc.NewGivenCustom(&key.PublicKey, keyfunc.GivenKeyOptions{Algorithm: "RS256"}),
	})
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	verifier := NewGoogleIdentityVerifier(testClientID, jwks.Keyfunc)
	verifier.Now = func() time.Time { return now }
	return &googleFixture{key: key, verifier: verifier, now: now}
}

func (f *googleFixture) claims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            testClientID,
		"sub":            "10987654321",
		"email":          "buff@gmail.com",
		"email_verified": true,
		"name":           "Film Buff",
		"picture":        "https://lh3.example.com/photo.jpg",
		"iat":            f.now.Unix(),
		"exp":            f.now.Add(time.Hour).Unix(),
	}
}

func (f *googleFixture) sign(t *testing.T, claims jwt.MapClaims, kid string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func TestGoogleVerifier_AcceptsValidAssertion(t *testing.T) {
	f := newGoogleFixture(t)

	identity, err := f.verifier.VerifyAssertion(context.Background(), f.sign(t, f.claims(), "google-kid"))
	require.NoError(t, err)
	assert.Equal(t, ExternalIdentity{
		Provider:   GoogleProvider,
		Subject:    "10987654321",
		Email:      "buff@gmail.com",
		Name:       "Film Buff",
		PictureURL: "https://lh3.example.com/photo.jpg",
	}, identity)
}

func TestGoogleVerifier_AcceptsBareIssuerAndStringVerified(t *testing.T) {
	f := newGoogleFixture(t)
	claims := f.claims()
	claims["iss"] = "accounts.google.com"
	claims["email_verified"] = "true"

	_, err := f.verifier.VerifyAssertion(context.Background(), f.sign(t, claims, "google-kid"))
	assert.NoError(t, err)
}

func TestGoogleVerifier_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(claims jwt.MapClaims)
		kid    string
	}{
		{name: "foreign issuer", mutate: func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" }},
		{name: "other audience", mutate: func(c jwt.MapClaims) { c["aud"] = "someone-else" }},
		{name: "expired", mutate: func(c jwt.MapClaims) { c["exp"] = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).Unix() }},
		{name: "missing expiry", mutate: func(c jwt.MapClaims) { delete(c, "exp") }},
		{name: "unverified email", mutate: func(c jwt.MapClaims) { c["email_verified"] = false }},
		{name: "verified flag absent", mutate: func(c jwt.MapClaims) { delete(c, "email_verified") }},
		{name: "missing email", mutate: func(c jwt.MapClaims) { delete(c, "email") }},
		{name: "missing subject", mutate: func(c jwt.MapClaims) { delete(c, "sub") }},
		{name: "unknown key id", mutate: func(jwt.MapClaims) {}, kid: "rotated-away"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGoogleFixture(t)
			claims := f.claims()
			tt.mutate(claims)
			kid := tt.kid
			if kid == "" {
				kid = "google-kid"
			}

			_, err := f.verifier.VerifyAssertion(context.Background(), f.sign(t, claims, kid))
			assert.Error(t, err)
		})
	}
}

func TestGoogleVerifier_RejectsForeignSigner(t *testing.T) {
	f := newGoogleFixture(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, f.claims())
	token.Header["kid"] = "google-kid"
	signed, err := token.SignedString(other)
	require.NoError(t, err)

	_, err = f.verifier.VerifyAssertion(context.Background(), signed)
	assert.Error(t, err)
}

func TestGoogleVerifier_Unconfigured(t *testing.T) {
	_, err := (&GoogleIdentityVerifier{}).VerifyAssertion(context.Background(), "token")
	assert.Error(t, err)
}
