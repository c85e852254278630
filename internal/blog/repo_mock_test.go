package blog

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Ayooluwabami/Blogging-API/internal/users"

	"github.com/google/uuid"
)

var _ blogRepo = (*repoMock)(nil)

// repoMock keeps blogs in memory and follows the postgres repo's filtering,
// ordering and ownership rules.
type repoMock struct {
	blogs map[uuid.UUID]*Blog
	// authors known to the store, an unknown author fails Create
	authors map[uuid.UUID]bool
	err     error
	mutex   sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		blogs:   make(map[uuid.UUID]*Blog),
		authors: make(map[uuid.UUID]bool),
	}
}

func copyBlog(b *Blog) *Blog {
	c := *b
	c.Tags = slices.Clone(b.Tags)
	return &c
}

func (r *repoMock) titleTaken(title string, except uuid.UUID) bool {
	for id, b := range r.blogs {
		if id != except && b.Title == title {
			return true
		}
	}
	return false
}

func (r *repoMock) Create(_ context.Context, blog *Blog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return r.err
	}

	if !r.authors[blog.AuthorID] {
		return ErrUnknownAuthor
	}
	if r.titleTaken(blog.Title, uuid.Nil) {
		return ErrDuplicateTitle
	}
	r.blogs[blog.ID] = copyBlog(blog)
	return nil
}

func (r *repoMock) Update(_ context.Context, id, authorID uuid.UUID, upd blogUpdate) (*Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	b, ok := r.blogs[id]
	if !ok || b.Deleted || b.AuthorID != authorID {
		return nil, ErrBlogNotFound
	}
	if upd.Title != nil && r.titleTaken(*upd.Title, id) {
		return nil, ErrDuplicateTitle
	}

	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	if upd.Body != nil {
		b.Body = *upd.Body
	}
	if upd.ReadingTime != nil {
		b.ReadingTime = *upd.ReadingTime
	}
	if upd.Tags != nil {
		b.Tags = slices.Clone(upd.Tags)
	}
	if upd.State != nil {
		b.State = *upd.State
	}
	return copyBlog(b), nil
}

func (r *repoMock) SoftDelete(_ context.Context, id, authorID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return r.err
	}

	b, ok := r.blogs[id]
	if !ok || b.Deleted || b.AuthorID != authorID {
		return ErrBlogNotFound
	}
	b.Deleted = true
	return nil
}

func (r *repoMock) IncrementAndGet(_ context.Context, id uuid.UUID) (*Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	b, ok := r.blogs[id]
	if !ok || b.Deleted {
		return nil, ErrBlogNotFound
	}
	b.ReadCount++
	return copyBlog(b), nil
}

func (r *repoMock) matching(q ListQuery) []*Blog {
	var res []*Blog
	for _, b := range r.blogs {
		if b.Deleted {
			continue
		}
		if q.AuthorID != nil && b.AuthorID != *q.AuthorID {
			continue
		}
		if q.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(q.Title)) {
			continue
		}
		if len(q.Tags) > 0 && !slices.ContainsFunc(q.Tags, func(tag string) bool {
			return slices.Contains(b.Tags, tag)
		}) {
			continue
		}
		if q.State != nil && b.State != *q.State {
			continue
		}
		res = append(res, b)
	}
	return res
}

func (r *repoMock) List(_ context.Context, q ListQuery) ([]*Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	res := r.matching(q)
	sort.Slice(res, func(i, j int) bool {
		a, b := res[i], res[j]
		switch q.SortBy {
		case SortByReadCount:
			if a.ReadCount != b.ReadCount {
				return a.ReadCount > b.ReadCount
			}
		case SortByReadingTime:
			if a.ReadingTime != b.ReadingTime {
				return a.ReadingTime < b.ReadingTime
			}
		default:
			if !a.Timestamp.Equal(b.Timestamp) {
				return a.Timestamp.After(b.Timestamp)
			}
		}
		return a.ID.String() < b.ID.String()
	})

	blogs := []*Blog{}
	for i := q.Skip(); i < len(res) && len(blogs) < q.Limit; i++ {
		blogs = append(blogs, copyBlog(res[i]))
	}
	return blogs, nil
}

func (r *repoMock) Count(_ context.Context, q ListQuery) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return len(r.matching(q)), nil
}

type authorsMock struct {
	authors map[uuid.UUID]*users.Author
}

func (a *authorsMock) Author(_ context.Context, id uuid.UUID) (*users.Author, error) {
	author, ok := a.authors[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return author, nil
}
