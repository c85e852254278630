package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/tracing"
	"github.com/Ayooluwabami/Blogging-API/pkg"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	megabyte = 1024 * 1024
	// users never change after signup, the expiry only bounds memory churn
	authorCacheExpireSeconds = 60 * 60
)

type userRepo interface {
	Add(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

type tokenIssuer interface {
	Issue(userID string) (string, error)
}

type Service struct {
	repo        userRepo
	tokens      tokenIssuer
	authorCache *freecache.Cache

	// HashPassword defaults to pkg.HashPassword.
	HashPassword func(password string) (string, error)
	NowFunc      func() time.Time
}

func NewService(repo userRepo, tokens tokenIssuer) *Service {
	return &Service{
		repo:         repo,
		tokens:       tokens,
		authorCache:  freecache.NewCache(8 * megabyte),
		HashPassword: pkg.HashPassword,
		NowFunc:      time.Now,
	}
}

// Signup registers a new user. An email that is already taken gives
// ErrUserExists, whether caught by the lookup or by the unique index.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersService.Signup")
	defer span.End()

	_, err := s.repo.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		span.SetStatus(codes.Error, "user-exists")
		return nil, ErrUserExists
	case !errors.Is(err, ErrUserNotFound):
		span.RecordError(err)
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	passwordHash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    s.NowFunc().UTC(),
	}
	if err := s.repo.Add(ctx, user); err != nil {
		if !errors.Is(err, ErrUserExists) {
			span.RecordError(err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return user, nil
}

// Signin checks the credentials and returns a fresh token. Unknown email and
// wrong password are both ErrInvalidCredentials.
func (s *Service) Signin(ctx context.Context, req SigninRequest) (string, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersService.Signin")
	defer span.End()

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			span.SetStatus(codes.Error, "unknown-email")
			return "", ErrInvalidCredentials
		}
		span.RecordError(err)
		return "", fmt.Errorf("get user: %w", err)
	}

	if !pkg.CheckPasswordHash(req.Password, user.PasswordHash) {
		span.SetStatus(codes.Error, "wrong-password")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// Author returns the public projection of the user with the given id.
func (s *Service) Author(ctx context.Context, id uuid.UUID) (*Author, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersService.Author")
	span.SetAttributes(attribute.String("id", id.String()))
	defer span.End()

	cacheKey := []byte("author::" + id.String())
	if authorBytes, err := s.authorCache.Get(cacheKey); err == nil {
		var author Author
		if err := json.Unmarshal(authorBytes, &author); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &author, nil
		} else {
			log.Errorf("unmarshal cached author %s: %s", id, err)
		}
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	author := user.Author()
	if authorBytes, err := json.Marshal(author); err != nil {
		log.Errorf("marshal author %s: %s", id, err)
	} else if err := s.authorCache.Set(cacheKey, authorBytes, authorCacheExpireSeconds); err != nil {
		log.Errorf("set author cache %s: %s", id, err)
	}

	return author, nil
}
