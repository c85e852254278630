package users

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Ayooluwabami/Blogging-API/internal/auth"
	"github.com/Ayooluwabami/Blogging-API/internal/db"
	"github.com/Ayooluwabami/Blogging-API/pkg"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(t *testing.T) (*Service, *repoMock, *auth.TokenService) {
	t.Helper()
	repo := newRepoMock()
	tokens, err := auth.NewTokenService("users-test-secret", time.Hour)
	require.NoError(t, err)

	s := NewService(repo, tokens)
	s.HashPassword = func(password string) (string, error) {
		return pkg.HashPasswordWithCost(password, bcrypt.MinCost)
	}
	return s, repo, tokens
}

func fakeSignup() SignupRequest {
	return SignupRequest{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Password:  gofakeit.Password(true, true, true, false, false, 10),
	}
}

func TestService_SignupAndSignin(t *testing.T) {
	ctx := context.Background()
	s, repo, tokens := newTestService(t)
	req := fakeSignup()

	user, err := s.Signup(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, req.Email, user.Email)
	assert.NotEqual(t, req.Password, user.PasswordHash)
	assert.True(t, pkg.CheckPasswordHash(req.Password, repo.users[user.ID].PasswordHash))

	// the hash never leaks through JSON
	userJson, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(userJson), user.PasswordHash)
	assert.NotContains(t, string(userJson), "password")

	token, err := s.Signin(ctx, SigninRequest{Email: req.Email, Password: req.Password})
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
}

func TestService_Signup_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService(t)
	req := fakeSignup()

	_, err := s.Signup(ctx, req)
	require.NoError(t, err)

	other := fakeSignup()
	other.Email = req.Email
	_, err = s.Signup(ctx, other)
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Len(t, repo.users, 1)
}

func TestService_Signin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	req := fakeSignup()
	_, err := s.Signup(ctx, req)
	require.NoError(t, err)

	_, err = s.Signin(ctx, SigninRequest{Email: req.Email, Password: req.Password + "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Signin(ctx, SigninRequest{Email: "nobody@example.com", Password: req.Password})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_StoreFailure(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService(t)
	repo.err = db.StoreError("get user", errors.New("connection refused"))

	_, err := s.Signup(ctx, fakeSignup())
	assert.ErrorIs(t, err, db.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrUserExists)

	_, err = s.Signin(ctx, SigninRequest{Email: "a@b.co", Password: "secret1"})
	assert.ErrorIs(t, err, db.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Author_Cached(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestService(t)
	user, err := s.Signup(ctx, fakeSignup())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		author, err := s.Author(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, author.ID)
		assert.Equal(t, user.FirstName, author.FirstName)
		assert.Equal(t, user.LastName, author.LastName)
		assert.Equal(t, user.Email, author.Email)
	}
	assert.Equal(t, 1, repo.getByIDHits)

	_, err = s.Author(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
