package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const (
	// DefaultAccessTTL is the lifetime of an access token.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is the lifetime of a refresh token.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongTokenType is returned when a token of the other type is presented.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Issuer mints and verifies session token pairs.
type Issuer interface {
	// GeneratePair signs a new access and refresh token for subject.
	GeneratePair(subject Subject) (TokenPair, error)
	// VerifyAccess accepts only valid access tokens.
	VerifyAccess(tokenStr string) (Claims, error)
	// VerifyRefresh accepts only valid refresh tokens.
	VerifyRefresh(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building an Issuer.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// AccessTTL defaults to DefaultAccessTTL.
	AccessTTL time.Duration
	// RefreshTTL defaults to DefaultRefreshTTL.
	RefreshTTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Subject is the identity a token pair is minted for.
type Subject struct {
	UserID      int64
	Username    string
	PhoneNumber string
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Claims is the payload of both token types. Username and PhoneNumber are
// empty on refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID      int64     `json:"user_id,string"`
	Username    string    `json:"username,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	TokenType   TokenType `json:"token_type"`
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
