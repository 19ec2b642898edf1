package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the shortest HMAC key accepted, in bytes (256 bits).
const MinKeyLength = 32

var (
	ErrWeakKey         = fmt.Errorf("signing key must be at least %d bytes", MinKeyLength)
	ErrInvalidValidity = errors.New("token validity must be positive")
)

// TokenIssuer signs JWTs with a process-wide symmetric key. The HMAC
// variant is picked from the key length, strongest first, so any standard
// verifier holding the same key can check the token.
type TokenIssuer struct {
	key      []byte
	validity time.Duration
	method   jwt.SigningMethod
	now      func() time.Time
}

func NewTokenIssuer(key []byte, validity time.Duration) (*TokenIssuer, error) {
	if len(key) < MinKeyLength {
		return nil, ErrWeakKey
	}
	if validity <= 0 {
		return nil, ErrInvalidValidity
	}

	return &TokenIssuer{
		key:      append([]byte(nil), key...),
		validity: validity,
		method:   methodForKey(key),
		now:      time.Now,
	}, nil
}

// Issue returns a compact JWT whose subject is the given username.
func (i *TokenIssuer) Issue(subject string) (string, error) {
	// JWT NumericDate has second precision.
	now := i.now().UTC().Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Algorithm reports the JWS algorithm name, e.g. "HS256".
func (i *TokenIssuer) Algorithm() string {
	return i.method.Alg()
}

// Validity reports the configured token lifetime.
func (i *TokenIssuer) Validity() time.Duration {
	return i.validity
}

func methodForKey(key []byte) jwt.SigningMethod {
	switch {
	case len(key) >= 64:
		return jwt.SigningMethodHS512
	case len(key) >= 48:
		return jwt.SigningMethodHS384
	default:
		return jwt.SigningMethodHS256
	}
}
