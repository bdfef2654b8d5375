package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
)

// Symmetric implements Issuer using an HMAC secret.
type Symmetric struct {
	secret     []byte
	issuer     string
	audiences  []string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clocker
	uuid       generator
}

// NewHS512 constructs a Symmetric issuer using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.UUID == nil {
		cfg.UUID = uid.NewUUID()
	}

	return &Symmetric{
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		audiences:  cfg.Audiences,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      cfg.Clock,
		uuid:       cfg.UUID,
	}, nil
}

// GeneratePair signs an access token and a refresh token for subject.
func (s *Symmetric) GeneratePair(subject Subject) (TokenPair, error) {
	now := s.clock.Now()

	access := Claims{
		RegisteredClaims: s.registered(subject.UserID, now, s.accessTTL),
		UserID:           subject.UserID,
		Username:         subject.Username,
		PhoneNumber:      subject.PhoneNumber,
		TokenType:        TokenTypeAccess,
	}
	accessToken, err := s.sign(access)
	if err != nil {
		return TokenPair{}, err
	}

	refresh := Claims{
		RegisteredClaims: s.registered(subject.UserID, now, s.refreshTTL),
		UserID:           subject.UserID,
		TokenType:        TokenTypeRefresh,
	}
	refreshToken, err := s.sign(refresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  access.ExpiresAt.Time,
		RefreshExpiresAt: refresh.ExpiresAt.Time,
	}, nil
}

// VerifyAccess parses tokenStr and accepts it only when it is an access token.
func (s *Symmetric) VerifyAccess(tokenStr string) (Claims, error) {
	return s.verify(tokenStr, TokenTypeAccess)
}

// VerifyRefresh parses tokenStr and accepts it only when it is a refresh token.
func (s *Symmetric) VerifyRefresh(tokenStr string) (Claims, error) {
	return s.verify(tokenStr, TokenTypeRefresh)
}

func (s *Symmetric) registered(uid int64, now time.Time, ttl time.Duration) libJWT.RegisteredClaims {
	return libJWT.RegisteredClaims{
		ID:        s.uuid.Generate(),
		Subject:   strconv.FormatInt(uid, 10),
		Issuer:    s.issuer,
		Audience:  s.audiences,
		IssuedAt:  libJWT.NewNumericDate(now),
		NotBefore: libJWT.NewNumericDate(now),
		ExpiresAt: libJWT.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Symmetric) sign(claims Claims) (string, error) {
	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.secret)
}

func (s *Symmetric) verify(tokenStr string, want TokenType) (Claims, error) {
	var claims Claims

	token, err := libJWT.ParseWithClaims(tokenStr, &claims,
		func(t *libJWT.Token) (any, error) {
			if t.Method != libJWT.SigningMethodHS512 {
				return nil, ErrInvalidSigningMethod
			}
			return s.secret, nil
		},
		libJWT.WithIssuer(s.issuer),
		libJWT.WithAudience(s.audiences...),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.TokenType != want {
		return Claims{}, ErrWrongTokenType
	}

	return claims, nil
}
