package blog

import (
	"context"
	"fmt"
	"time"

	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/tracing"
	"github.com/Ayooluwabami/Blogging-API/internal/users"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type blogRepo interface {
	Create(ctx context.Context, blog *Blog) error
	Update(ctx context.Context, id, authorID uuid.UUID, upd blogUpdate) (*Blog, error)
	SoftDelete(ctx context.Context, id, authorID uuid.UUID) error
	IncrementAndGet(ctx context.Context, id uuid.UUID) (*Blog, error)
	List(ctx context.Context, q ListQuery) ([]*Blog, error)
	Count(ctx context.Context, q ListQuery) (int, error)
}

type authorLookup interface {
	Author(ctx context.Context, id uuid.UUID) (*users.Author, error)
}

type Service struct {
	repo    blogRepo
	authors authorLookup
	NowFunc func() time.Time
}

func NewService(repo blogRepo, authors authorLookup) *Service {
	return &Service{
		repo:    repo,
		authors: authors,
		NowFunc: time.Now,
	}
}

func (s *Service) Create(ctx context.Context, authorID uuid.UUID, req CreateBlogRequest) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogService.Create")
	defer span.End()

	blog := &Blog{
		ID:          uuid.New(),
		Title:       req.Title,
		Body:        req.Body,
		AuthorID:    authorID,
		State:       StateDraft,
		Tags:        req.Tags,
		ReadCount:   0,
		ReadingTime: ReadingTime(req.Body),
		Timestamp:   s.NowFunc().UTC(),
	}
	if req.Description != nil {
		blog.Description = *req.Description
	}
	if req.State != nil {
		blog.State = *req.State
	}
	if blog.Tags == nil {
		blog.Tags = []string{}
	}

	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("id", blog.ID.String()))
	return blog, nil
}

// Update changes the given fields of a blog owned by authorID. A blog that
// does not exist, is deleted or belongs to someone else is ErrBlogNotFound.
func (s *Service) Update(ctx context.Context, blogID string, authorID uuid.UUID, req UpdateBlogRequest) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogService.Update")
	span.SetAttributes(attribute.String("id", blogID))
	defer span.End()

	id, err := uuid.Parse(blogID)
	if err != nil {
		return nil, ErrBlogNotFound
	}

	upd := blogUpdate{
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		Tags:        req.Tags,
		State:       req.State,
	}
	if req.Body != nil {
		readingTime := ReadingTime(*req.Body)
		upd.ReadingTime = &readingTime
	}

	return s.repo.Update(ctx, id, authorID, upd)
}

func (s *Service) SoftDelete(ctx context.Context, blogID string, authorID uuid.UUID) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogService.SoftDelete")
	span.SetAttributes(attribute.String("id", blogID))
	defer span.End()

	id, err := uuid.Parse(blogID)
	if err != nil {
		return ErrBlogNotFound
	}

	return s.repo.SoftDelete(ctx, id, authorID)
}

// GetByID counts a read and returns the blog with its author expanded.
func (s *Service) GetByID(ctx context.Context, blogID string) (*BlogWithAuthor, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogService.GetByID")
	span.SetAttributes(attribute.String("id", blogID))
	defer span.End()

	id, err := uuid.Parse(blogID)
	if err != nil {
		return nil, ErrBlogNotFound
	}

	blog, err := s.repo.IncrementAndGet(ctx, id)
	if err != nil {
		return nil, err
	}

	// the read is already counted at this point
	author, err := s.authors.Author(ctx, blog.AuthorID)
	if err != nil {
		log.WithFields(log.Fields{
			"blog_id":   blog.ID.String(),
			"author_id": blog.AuthorID.String(),
		}).Errorf("read counted but author lookup failed: %s", err)
		span.SetStatus(codes.Error, "author-lookup")
		return nil, fmt.Errorf("get author %s: %w", blog.AuthorID, err)
	}

	return &BlogWithAuthor{
		Blog:   blog,
		Author: author,
	}, nil
}

func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogService.List")
	defer span.End()

	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	blogs := []*Blog{}
	if total > q.Skip() {
		if blogs, err = s.repo.List(ctx, q); err != nil {
			return nil, err
		}
	}

	return &Page{
		Blogs: blogs,
		Meta:  newMeta(total, q.Page, q.Limit),
	}, nil
}

// ListMine lists the author's own blogs, drafts included.
func (s *Service) ListMine(ctx context.Context, authorID uuid.UUID, q ListQuery) (*Page, error) {
	q.AuthorID = &authorID
	return s.List(ctx, q)
}
