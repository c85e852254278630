package blog

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Ayooluwabami/Blogging-API/internal/validation"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

type SortField string

const (
	SortByTimestamp   SortField = "timestamp"
	SortByReadCount   SortField = "read_count"
	SortByReadingTime SortField = "reading_time"
)

// ListQuery is a store-independent description of a blog listing. Deleted
// blogs are always excluded.
type ListQuery struct {
	AuthorID *uuid.UUID
	Title    string // case-insensitive substring, empty matches all
	Tags     []string
	State    *State
	SortBy   SortField
	Page     int
	Limit    int
}

// Skip is the row offset of the page. It saturates at math.MaxInt instead of
// overflowing, so a huge page is just past the end.
func (q ListQuery) Skip() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// TitlePattern is the ILIKE pattern for the title filter, with the LIKE
// wildcards of the user input escaped. Empty when there is no filter.
func (q ListQuery) TitlePattern() string {
	if q.Title == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(q.Title) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// OrderBy returns the SQL ordering for the sort field. Only fixed strings
// come out of here, never user input.
func (q ListQuery) OrderBy() string {
	switch q.SortBy {
	case SortByReadCount:
		return "read_count DESC, id ASC"
	case SortByReadingTime:
		return "reading_time ASC, id ASC"
	default:
		return "timestamp DESC, id ASC"
	}
}

// BuildListQuery turns the public listing's query parameters into a
// ListQuery. Only a malformed author id is an error; unknown sort fields and
// bad paging values fall back to the defaults.
func BuildListQuery(params url.Values) (ListQuery, error) {
	q := ListQuery{
		Title:  strings.TrimSpace(params.Get("title")),
		Tags:   parseTags(params.Get("tags")),
		SortBy: parseSortField(params.Get("orderBy")),
		Page:   parsePositive(params.Get("page"), DefaultPage, 0),
		Limit:  parsePositive(params.Get("limit"), DefaultLimit, MaxLimit),
	}

	if author := strings.TrimSpace(params.Get("author")); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			return ListQuery{}, &validation.Error{Message: `"author" must be a valid id`}
		}
		q.AuthorID = &authorID
	}

	return q, nil
}

// BuildMyBlogsQuery builds the listing of the caller's own blogs. Only state,
// orderBy, page and limit are honored.
func BuildMyBlogsQuery(authorID uuid.UUID, params url.Values) (ListQuery, error) {
	q := ListQuery{
		AuthorID: &authorID,
		SortBy:   parseSortField(params.Get("orderBy")),
		Page:     parsePositive(params.Get("page"), DefaultPage, 0),
		Limit:    parsePositive(params.Get("limit"), DefaultLimit, MaxLimit),
	}

	if state := strings.TrimSpace(params.Get("state")); state != "" {
		s := State(state)
		if !s.Valid() {
			return ListQuery{}, &validation.Error{Message: `"state" must be one of [draft, published]`}
		}
		q.State = &s
	}

	return q, nil
}

func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseSortField(raw string) SortField {
	switch SortField(raw) {
	case SortByReadCount:
		return SortByReadCount
	case SortByReadingTime:
		return SortByReadingTime
	default:
		return SortByTimestamp
	}
}

// parsePositive parses raw as a positive integer, falling back to def.
// A non-zero upper bound caps the result.
func parsePositive(raw string, def, upper int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	if upper > 0 && n > upper {
		return upper
	}
	return n
}
