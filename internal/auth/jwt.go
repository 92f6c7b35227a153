package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims identify the submitter and the taxpayer whose audit files the
// submitter may validate.
type Claims struct {
	SubjectID             uuid.UUID
	TaxRegistrationNumber string
}

type tokenClaims struct {
	jwt.RegisteredClaims
	TaxRegistrationNumber string `json:"tax_registration_number"`
}

func GenerateToken(c Claims, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.SubjectID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TaxRegistrationNumber: c.TaxRegistrationNumber,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("ValidateToken: invalid token claims")
	}

	subject, err := uuid.Parse(tc.Subject)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: invalid subject: %w", err)
	}
	if tc.TaxRegistrationNumber == "" {
		return nil, errors.New("ValidateToken: missing tax_registration_number")
	}

	return &Claims{
		SubjectID:             subject,
		TaxRegistrationNumber: tc.TaxRegistrationNumber,
	}, nil
}
