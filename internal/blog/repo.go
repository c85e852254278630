package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ayooluwabami/Blogging-API/internal/db"
	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/tracing"
	"github.com/Ayooluwabami/Blogging-API/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const blogColumns = `id, title, description, body, author_id, state, tags, read_count, reading_time, deleted, timestamp`

// listFilter is shared by List and Count, $1..$4 are author, title pattern,
// tags and state; NULL disables a filter.
const listFilter = `
	WHERE deleted = FALSE
		AND ($1::uuid IS NULL OR author_id = $1)
		AND ($2::text IS NULL OR title ILIKE $2)
		AND ($3::text[] IS NULL OR tags && $3)
		AND ($4::text IS NULL OR state = $4)
`

// blogUpdate is the set of columns an update may touch; nil keeps the column.
type blogUpdate struct {
	Title       *string
	Description *string
	Body        *string
	ReadingTime *int
	Tags        []string
	State       *State
}

var _ blogRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Create(ctx context.Context, blog *Blog) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.Create")
	defer span.End()

	if blog.Tags == nil {
		blog.Tags = []string{}
	}

	err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO blog (`+blogColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING timestamp;
		`,
		blog.ID, blog.Title, blog.Description, blog.Body, blog.AuthorID, string(blog.State),
		blog.Tags, blog.ReadCount, blog.ReadingTime, blog.Deleted, blog.Timestamp,
	).Scan(&blog.Timestamp)
	if err != nil {
		switch {
		case pkg.IsUniqueViolationError(err):
			return ErrDuplicateTitle
		case pkg.IsForeignKeyViolationError(err):
			return ErrUnknownAuthor
		default:
			span.RecordError(err)
			return db.StoreError("create blog", err)
		}
	}

	return nil
}

// Update applies upd to the blog only if it exists, is not deleted and
// belongs to authorID, in a single statement.
func (r *Repo) Update(ctx context.Context, id, authorID uuid.UUID, upd blogUpdate) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.Update")
	span.SetAttributes(attribute.String("id", id.String()))
	defer span.End()

	var state *string
	if upd.State != nil {
		s := string(*upd.State)
		state = &s
	}

	blog, err := scanBlog(r.db.QueryRow(
		ctx,
		`
			UPDATE blog SET
				title = COALESCE($3, title),
				description = COALESCE($4, description),
				body = COALESCE($5, body),
				reading_time = COALESCE($6, reading_time),
				tags = COALESCE($7, tags),
				state = COALESCE($8, state)
			WHERE id = $1 AND author_id = $2 AND deleted = FALSE
			RETURNING `+blogColumns+`;
		`,
		id, authorID, upd.Title, upd.Description, upd.Body, upd.ReadingTime, upd.Tags, state,
	))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrBlogNotFound
		case pkg.IsUniqueViolationError(err):
			return nil, ErrDuplicateTitle
		default:
			span.RecordError(err)
			return nil, db.StoreError("update blog", err)
		}
	}

	return blog, nil
}

func (r *Repo) SoftDelete(ctx context.Context, id, authorID uuid.UUID) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.SoftDelete")
	span.SetAttributes(attribute.String("id", id.String()))
	defer span.End()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE blog SET deleted = TRUE WHERE id = $1 AND author_id = $2 AND deleted = FALSE;`,
		id, authorID,
	)
	if err != nil {
		span.RecordError(err)
		return db.StoreError("delete blog", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// IncrementAndGet bumps the read count of a non-deleted blog and returns it
// as updated, in a single statement.
func (r *Repo) IncrementAndGet(ctx context.Context, id uuid.UUID) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.IncrementAndGet")
	span.SetAttributes(attribute.String("id", id.String()))
	defer span.End()

	blog, err := scanBlog(r.db.QueryRow(
		ctx,
		`
			UPDATE blog SET read_count = read_count + 1
			WHERE id = $1 AND deleted = FALSE
			RETURNING `+blogColumns+`;
		`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		span.RecordError(err)
		return nil, db.StoreError("get blog", err)
	}

	return blog, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.List")
	span.SetAttributes(attribute.Int("page", q.Page))
	span.SetAttributes(attribute.Int("limit", q.Limit))
	defer span.End()

	args := append(filterArgs(q), q.Limit, q.Skip())
	rows, err := r.db.Query(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM blog %s ORDER BY %s LIMIT $5 OFFSET $6;`,
			blogColumns, listFilter, q.OrderBy(),
		),
		args...,
	)
	if err != nil {
		span.RecordError(err)
		return nil, db.StoreError("list blogs", err)
	}
	defer rows.Close()

	blogs := []*Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, db.StoreError("scan blog", err)
		}
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, db.StoreError("list blogs", err)
	}

	return blogs, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.Count")
	defer span.End()

	var count int
	if err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM blog `+listFilter+`;`,
		filterArgs(q)...,
	).Scan(&count); err != nil {
		span.RecordError(err)
		return 0, db.StoreError("count blogs", err)
	}

	return count, nil
}

func filterArgs(q ListQuery) []any {
	var title *string
	if pattern := q.TitlePattern(); pattern != "" {
		title = &pattern
	}
	var state *string
	if q.State != nil {
		s := string(*q.State)
		state = &s
	}
	var tags []string
	if len(q.Tags) > 0 {
		tags = q.Tags
	}
	return []any{q.AuthorID, title, tags, state}
}

func scanBlog(row pgx.Row) (*Blog, error) {
	var b Blog
	var state string
	if err := row.Scan(
		&b.ID, &b.Title, &b.Description, &b.Body, &b.AuthorID, &state,
		&b.Tags, &b.ReadCount, &b.ReadingTime, &b.Deleted, &b.Timestamp,
	); err != nil {
		return nil, err
	}
	b.State = State(state)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return &b, nil
}
