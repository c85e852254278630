//go:build integration_test || all_tests

package users

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Ayooluwabami/Blogging-API/internal/db"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepoSetup(t *testing.T) (*Repo, func()) {
	t.Helper()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	t.Logf("using postres host: %s", host)

	connString := fmt.Sprintf("postgres://postgres@%s:5432/blogging_api_test?sslmode=disable", host)
	require.NoError(t, db.Migrate(timeoutCtx, connString))

	dbPool, err := db.NewDBPool(timeoutCtx, db.NewDBPoolParams{
		ConnString:     connString,
		TracingEnabled: false,
	})
	require.NoError(t, err)

	return NewRepo(dbPool), func() {
		dbPool.Close()
	}
}

func newFakeUser() *User {
	return &User{
		ID:           uuid.New(),
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		Email:        fmt.Sprintf("%s-%s", uuid.NewString()[:8], gofakeit.Email()),
		PasswordHash: "$2a$04$notarealhashnotarealhashnotarealhashnotarealhashnot",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRepo_Add_Get(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	u := newFakeUser()
	require.NoError(t, repo.Add(ctx, u))

	byEmail, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, u.FirstName, byEmail.FirstName)
	assert.Equal(t, u.PasswordHash, byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
	assert.True(t, u.CreatedAt.Equal(byID.CreatedAt))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "missing-"+u.Email)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepo_Add_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	u := newFakeUser()
	require.NoError(t, repo.Add(ctx, u))

	dup := newFakeUser()
	dup.Email = u.Email
	assert.ErrorIs(t, repo.Add(ctx, dup), ErrUserExists)
}
