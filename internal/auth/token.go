package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = time.Hour

var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
)

// Claims carried by every issued token: userId, iat and exp.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 signed tokens. It keeps no state
// besides the key, so a token stays valid until it expires.
type TokenService struct {
	secret []byte
	ttl    time.Duration

	// NowFunc is the clock used for iat, exp and verification.
	NowFunc func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{
		secret:  []byte(secret),
		ttl:     ttl,
		NowFunc: time.Now,
	}, nil
}

func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("issue token: empty user id")
	}

	now := s.NowFunc()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString. Every failure is
// reported as exactly one of ErrTokenMalformed, ErrTokenInvalidSignature or
// ErrTokenExpired, with the parser's reason wrapped in.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.NowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classify(err)
	}

	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("%w: invalid userId claim", ErrTokenMalformed)
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrTokenInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
}
