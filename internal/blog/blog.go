package blog

import (
	"errors"
	"strings"
	"time"

	"github.com/Ayooluwabami/Blogging-API/internal/users"

	"github.com/google/uuid"
)

var (
	ErrBlogNotFound   = errors.New("blog not found")
	ErrDuplicateTitle = errors.New("blog title already exists")
	ErrUnknownAuthor  = errors.New("blog author does not exist")
)

type State string

const (
	StateDraft     State = "draft"
	StatePublished State = "published"
)

func (s State) Valid() bool {
	return s == StateDraft || s == StatePublished
}

const wordsPerMinute = 200

type Blog struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	AuthorID    uuid.UUID `json:"author"`
	State       State     `json:"state"`
	Tags        []string  `json:"tags"`
	ReadCount   int       `json:"read_count"`
	ReadingTime int       `json:"reading_time"` // minutes
	Deleted     bool      `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
}

// BlogWithAuthor is a blog with its author expanded to the public projection.
// The outer Author field shadows Blog.AuthorID in JSON.
type BlogWithAuthor struct {
	*Blog
	Author *users.Author `json:"author"`
}

type Meta struct {
	Total      int `json:"total"`
	Limit      int `json:"limit"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

type Page struct {
	Blogs []*Blog `json:"blogs"`
	Meta  Meta    `json:"meta"`
}

func newMeta(total, page, limit int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Meta{
		Total:      total,
		Limit:      limit,
		Page:       page,
		TotalPages: totalPages,
	}
}

// ReadingTime is the body's reading time in whole minutes, rounded up. Any
// non-empty body takes at least a minute.
func ReadingTime(body string) int {
	if body == "" {
		return 0
	}
	words := max(len(strings.Fields(body)), 1)
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

type CreateBlogRequest struct {
	Title       string   `json:"title" validate:"required"`
	Body        string   `json:"body" validate:"required"`
	Description *string  `json:"description" validate:"omitnil,min=1"`
	Tags        []string `json:"tags" validate:"omitempty,dive,min=1"`
	State       *State   `json:"state" validate:"omitnil,oneof=draft published"`
}

// UpdateBlogRequest carries only the fields to change; nil means unchanged.
type UpdateBlogRequest struct {
	Title       *string  `json:"title" validate:"omitnil,min=1"`
	Body        *string  `json:"body" validate:"omitnil,min=1"`
	Description *string  `json:"description" validate:"omitnil,min=1"`
	Tags        []string `json:"tags" validate:"omitempty,dive,min=1"`
	State       *State   `json:"state" validate:"omitnil,oneof=draft published"`
}
