package jwt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
)

var testSecret = []byte(strings.Repeat("k", 64))

func newIssuer(t *testing.T, c clocker) *Symmetric {
	t.Helper()

	s, err := NewHS512(Config{
		Secret:    testSecret,
		Issuer:    "otpauth",
		Audiences: []string{"otpauth-api"},
		Clock:     c,
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}
	return s
}

func decodePayload(t *testing.T, token string) map[string]any {
	t.Helper()

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d parts", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return out
}

func TestNewHS512_ShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	if !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("NewHS512() error = %v, want ErrSigningKeyTooShort", err)
	}
}

func TestGeneratePair_Claims(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newIssuer(t, clock.NewFake(now))

	pair, err := s.GeneratePair(Subject{UserID: 42, Username: "alice", PhoneNumber: "88888888888"})
	if err != nil {
		t.Fatalf("GeneratePair() error = %v", err)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("tokens must differ")
	}

	access := decodePayload(t, pair.AccessToken)
	if access["token_type"] != "access" || access["phone_number"] != "88888888888" || access["sub"] != "42" {
		t.Fatalf("access claims = %v", access)
	}
	if exp := int64(access["exp"].(float64)); exp != now.Add(15*time.Minute).Unix() {
		t.Fatalf("access exp = %d", exp)
	}

	refresh := decodePayload(t, pair.RefreshToken)
	if refresh["token_type"] != "refresh" || refresh["sub"] != "42" {
		t.Fatalf("refresh claims = %v", refresh)
	}
	if _, ok := refresh["phone_number"]; ok {
		t.Fatal("refresh token must not carry contact info")
	}
	if exp := int64(refresh["exp"].(float64)); exp != now.Add(7*24*time.Hour).Unix() {
		t.Fatalf("refresh exp = %d", exp)
	}
	if access["jti"] == refresh["jti"] {
		t.Fatal("token ids must differ")
	}

	if !pair.AccessExpiresAt.Equal(now.Add(DefaultAccessTTL)) || !pair.RefreshExpiresAt.Equal(now.Add(DefaultRefreshTTL)) {
		t.Fatalf("pair expiries = %s / %s", pair.AccessExpiresAt, pair.RefreshExpiresAt)
	}
}

func TestVerify_TypeDiscriminator(t *testing.T) {
	s := newIssuer(t, clock.New())
	pair, err := s.GeneratePair(Subject{UserID: 42, Username: "alice", PhoneNumber: "88888888888"})
	if err != nil {
		t.Fatalf("GeneratePair() error = %v", err)
	}

	claims, err := s.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess(access) error = %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := s.VerifyRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("VerifyRefresh(refresh) error = %v", err)
	}
	if _, err := s.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("VerifyAccess(refresh) error = %v, want ErrWrongTokenType", err)
	}
	if _, err := s.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("VerifyRefresh(access) error = %v, want ErrWrongTokenType", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	fake := clock.NewFake(time.Now())
	s := newIssuer(t, fake)

	pair, err := s.GeneratePair(Subject{UserID: 7})
	if err != nil {
		t.Fatalf("GeneratePair() error = %v", err)
	}

	fake.Advance(16 * time.Minute)
	if _, err := s.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("VerifyAccess() error = %v, want ErrTokenExpired", err)
	}
	if _, err := s.VerifyRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("VerifyRefresh() error = %v", err)
	}
}

func TestVerify_ForeignSignature(t *testing.T) {
	s := newIssuer(t, clock.New())
	other, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("x", 64)),
		Issuer:    "otpauth",
		Audiences: []string{"otpauth-api"},
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}

	pair, _ := other.GeneratePair(Subject{UserID: 1})
	if _, err := s.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyAccess() error = %v, want ErrInvalidToken", err)
	}
	if _, err := s.VerifyAccess("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyAccess(garbage) error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthContext(t *testing.T) {
	ctx := context.Background()
	if GetAuth(ctx) != nil {
		t.Fatal("empty context must have no claims")
	}

	ctx = SetAuth(ctx, Claims{UserID: 9, TokenType: TokenTypeAccess})
	if got := GetAuth(ctx); got == nil || got.UserID != 9 {
		t.Fatalf("GetAuth() = %+v", got)
	}
}
