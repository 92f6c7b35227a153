package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func testClaims() Claims {
	return Claims{SubjectID: uuid.New(), TaxRegistrationNumber: "500100144"}
}

func TestGenerateAndValidateToken(t *testing.T) {
	want := testClaims()

	token, err := GenerateToken(want, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestValidateToken(t *testing.T) {
	validToken, err := GenerateToken(testClaims(), testSecret, time.Hour)
	require.NoError(t, err)

	expiredToken, err := GenerateToken(testClaims(), testSecret, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{
			name:      "expired token",
			token:     expiredToken,
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenExpired,
		},
		{
			name:      "wrong secret",
			token:     validToken,
			secret:    "wrong-secret",
			wantErrIs: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:      "malformed token",
			token:     "not.a.valid.jwt",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
		{
			name:      "empty token",
			token:     "",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, tc.secret)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErrIs)
		})
	}
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims tokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestValidateToken_RejectsBadClaims(t *testing.T) {
	now := time.Now()
	registered := func(subject string) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		}
	}

	tests := []struct {
		name  string
		token string
	}{
		{
			name: "unsigned",
			token: signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType,
				tokenClaims{RegisteredClaims: registered(uuid.NewString()), TaxRegistrationNumber: "500100144"}),
		},
		{
			name: "other hmac size",
			token: signRaw(t, jwt.SigningMethodHS512, []byte(testSecret),
				tokenClaims{RegisteredClaims: registered(uuid.NewString()), TaxRegistrationNumber: "500100144"}),
		},
		{
			name: "subject not a uuid",
			token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret),
				tokenClaims{RegisteredClaims: registered("alice"), TaxRegistrationNumber: "500100144"}),
		},
		{
			name: "missing taxpayer",
			token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret),
				tokenClaims{RegisteredClaims: registered(uuid.NewString())}),
		},
		{
			name: "no expiry",
			token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret),
				tokenClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}, TaxRegistrationNumber: "500100144"}),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, testSecret)
			assert.Error(t, err)
		})
	}
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	c := testClaims()
	got, ok := ClaimsFromContext(ContextWithClaims(context.Background(), &c))
	require.True(t, ok)
	assert.Equal(t, c, *got)
}
