package users

import (
	"context"
	"errors"

	"github.com/Ayooluwabami/Blogging-API/internal/db"
	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/tracing"
	"github.com/Ayooluwabami/Blogging-API/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var _ userRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user *User) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersRepo.Add")
	defer span.End()

	err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO app_user (id, first_name, last_name, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at;
		`,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.CreatedAt,
	).Scan(&user.CreatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrUserExists
		}
		return db.StoreError("add user", err)
	}

	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersRepo.GetByEmail")
	defer span.End()

	return r.getOne(
		ctx,
		`SELECT id, first_name, last_name, email, password_hash, created_at FROM app_user WHERE email = $1;`,
		email,
	)
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersRepo.GetByID")
	span.SetAttributes(attribute.String("id", id.String()))
	defer span.End()

	return r.getOne(
		ctx,
		`SELECT id, first_name, last_name, email, password_hash, created_at FROM app_user WHERE id = $1;`,
		id,
	)
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, db.StoreError("get user", err)
	}
	return &u, nil
}
