// Package signer builds and verifies the chained document signatures carried
// in the audit file. Each document hash signs its own key fields plus the hash
// of the previous document in the same series.
package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // the audit file format mandates RSA-SHA1
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/audit-validator/internal/domain"
)

var ErrInvalidKey = errors.New("invalid key")

// Signer verifies one link of a signature chain.
type Signer interface {
	Verify(hash string, date domain.Date, systemEntry domain.DateTime, number string, gross decimal.Decimal, prevHash string) bool
}

// Message is the signed payload: date;systemEntryDate;number;gross;prevHash.
func Message(date domain.Date, systemEntry domain.DateTime, number string, gross decimal.Decimal, prevHash string) string {
	return fmt.Sprintf("%s;%s;%s;%s;%s",
		date.String(), systemEntry.String(), number, gross.StringFixed(2), prevHash)
}

type RSAVerifier struct {
	key *rsa.PublicKey
}

func NewRSAVerifier(key *rsa.PublicKey) *RSAVerifier {
	return &RSAVerifier{key: key}
}

func (v *RSAVerifier) PublicKey() *rsa.PublicKey { return v.key }

func (v *RSAVerifier) Verify(hash string, date domain.Date, systemEntry domain.DateTime, number string, gross decimal.Decimal, prevHash string) bool {
	sig, err := base64.StdEncoding.DecodeString(hash)
	if err != nil || len(sig) == 0 {
		return false
	}
	digest := sha1.Sum([]byte(Message(date, systemEntry, number, gross, prevHash))) //nolint:gosec
	return rsa.VerifyPKCS1v15(v.key, crypto.SHA1, digest[:], sig) == nil
}

type RSASigner struct {
	key *rsa.PrivateKey
}

func NewRSASigner(key *rsa.PrivateKey) *RSASigner {
	return &RSASigner{key: key}
}

// Sign returns the base64 signature for the given document fields.
func (s *RSASigner) Sign(date domain.Date, systemEntry domain.DateTime, number string, gross decimal.Decimal, prevHash string) (string, error) {
	digest := sha1.Sum([]byte(Message(date, systemEntry, number, gross, prevHash))) //nolint:gosec
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA1, digest[:])
	if err != nil {
		return "", fmt.Errorf("RSASigner.Sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

func (s *RSASigner) Verifier() *RSAVerifier {
	return NewRSAVerifier(&s.key.PublicKey)
}

// Accept is a Signer that trusts every hash. It stands in when no public key
// is configured.
type Accept struct{}

func (Accept) Verify(string, domain.Date, domain.DateTime, string, decimal.Decimal, string) bool {
	return true
}

func LoadPublicKeyFile(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadPublicKeyFile: %w", err)
	}
	key, err := ParsePublicKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("LoadPublicKeyFile: %w", err)
	}
	return key, nil
}

// ParsePublicKeyPEM accepts PKIX ("PUBLIC KEY") and PKCS#1 ("RSA PUBLIC KEY")
// blocks.
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("ParsePublicKeyPEM: no PEM block: %w", ErrInvalidKey)
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("ParsePublicKeyPEM: %w: %v", ErrInvalidKey, err)
		}
		return key, nil
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("ParsePublicKeyPEM: %w: %v", ErrInvalidKey, err)
		}
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ParsePublicKeyPEM: not an RSA key: %w", ErrInvalidKey)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("ParsePublicKeyPEM: unexpected block %q: %w", block.Type, ErrInvalidKey)
	}
}

// EncodePublicKeyPEM is the inverse of ParsePublicKeyPEM for PKIX keys.
func EncodePublicKeyPEM(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("EncodePublicKeyPEM: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
