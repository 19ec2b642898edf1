package security

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func parse(t *testing.T, token string, key []byte) (*jwt.Token, *jwt.RegisteredClaims) {
	t.Helper()
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return key, nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	return parsed, claims
}

func TestTokenIssuer_Issue_Claims(t *testing.T) {
	key := bytes.Repeat([]byte("k"), 32)
	issuer, err := NewTokenIssuer(key, 90*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	issuer.now = func() time.Time { return now }

	token, err := issuer.Issue("testuser")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	_, claims := parse(t, token, key)
	if claims.Subject != "testuser" {
		t.Errorf("expected subject testuser, got %q", claims.Subject)
	}
	if !claims.IssuedAt.Time.Equal(now) {
		t.Errorf("iat: want %v, got %v", now, claims.IssuedAt.Time)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(90 * time.Minute)) {
		t.Errorf("exp: want %v, got %v", now.Add(90*time.Minute), claims.ExpiresAt.Time)
	}
}

func TestTokenIssuer_AlgorithmFollowsKeyLength(t *testing.T) {
	cases := []struct {
		keyLen int
		want   string
	}{
		{32, "HS256"},
		{47, "HS256"},
		{48, "HS384"},
		{63, "HS384"},
		{64, "HS512"},
		{128, "HS512"},
	}

	for _, tc := range cases {
		key := bytes.Repeat([]byte{0x5a}, tc.keyLen)
		issuer, err := NewTokenIssuer(key, time.Hour)
		if err != nil {
			t.Fatalf("keyLen=%d: %v", tc.keyLen, err)
		}
		if issuer.Algorithm() != tc.want {
			t.Errorf("keyLen=%d: expected %s, got %s", tc.keyLen, tc.want, issuer.Algorithm())
		}

		token, err := issuer.Issue("alice")
		if err != nil {
			t.Fatalf("keyLen=%d: issue: %v", tc.keyLen, err)
		}
		parsed, _ := parse(t, token, key)
		if parsed.Method.Alg() != tc.want {
			t.Errorf("keyLen=%d: header alg %s, want %s", tc.keyLen, parsed.Method.Alg(), tc.want)
		}
	}
}

func TestTokenIssuer_RejectsWeakKey(t *testing.T) {
	if _, err := NewTokenIssuer([]byte("short"), time.Hour); !errors.Is(err, ErrWeakKey) {
		t.Fatalf("expected ErrWeakKey, got %v", err)
	}
}

func TestTokenIssuer_RejectsNonPositiveValidity(t *testing.T) {
	key := bytes.Repeat([]byte("k"), 32)
	if _, err := NewTokenIssuer(key, 0); !errors.Is(err, ErrInvalidValidity) {
		t.Fatalf("expected ErrInvalidValidity, got %v", err)
	}
}

func TestTokenIssuer_WrongKeyFailsVerification(t *testing.T) {
	issuer, err := NewTokenIssuer(bytes.Repeat([]byte("a"), 32), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return bytes.Repeat([]byte("b"), 32), nil
	})
	if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		t.Fatalf("expected signature failure, got %v", err)
	}
}

func TestTokenIssuer_ExpiredTokenRejected(t *testing.T) {
	key := bytes.Repeat([]byte("k"), 32)
	issuer, err := NewTokenIssuer(key, time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, err = jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return key, nil })
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenIssuer_CopiesKey(t *testing.T) {
	key := bytes.Repeat([]byte("k"), 32)
	issuer, err := NewTokenIssuer(key, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	original := append([]byte(nil), key...)
	key[0] = 'X'

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parse(t, token, original)
}
