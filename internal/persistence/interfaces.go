// Package persistence stores articles in PostgreSQL or SQLite behind one repository interface.
package persistence

import (
	"blogsmith/internal/core"
	"context"
	"errors"
)

var (
	// ErrNotFound means no article has the requested id.
	ErrNotFound = errors.New("article not found")
	// ErrDuplicateTitle means the store rejected a title that already exists.
	ErrDuplicateTitle = errors.New("a blog with this title already exists")
)

// Pagination defaults for List.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ArticleRepository handles article persistence operations
type ArticleRepository interface {
	// Create inserts a new article and fills in its id and timestamps
	Create(ctx context.Context, article *core.Article) error

	// Get retrieves an article by id, regardless of its visibility flags
	Get(ctx context.Context, id int64) (*core.Article, error)

	// List retrieves one page of articles, newest first
	List(ctx context.Context, filter ArticleFilter) (*ArticlePage, error)

	// Update applies the non-nil fields of the update and returns the result
	Update(ctx context.Context, id int64, update ArticleUpdate) (*core.Article, error)

	// Delete removes an article by id
	Delete(ctx context.Context, id int64) error

	// ExistsByTitle reports whether an article has exactly this trimmed title
	ExistsByTitle(ctx context.Context, title string) (bool, error)

	// ExistsContentContaining reports whether any article's content contains s
	ExistsContentContaining(ctx context.Context, s string) (bool, error)

	// ListPublic retrieves up to limit public articles, newest first
	ListPublic(ctx context.Context, limit int) ([]core.Article, error)
}

// Database is the article store as a whole.
type Database interface {
	Articles() ArticleRepository
	Ping(ctx context.Context) error
	Close() error
	Driver() string
}

// ArticleFilter selects a page of articles. Nil flags match either value.
type ArticleFilter struct {
	Page     int
	Limit    int
	Search   string
	Archived *bool
	Private  *bool
}

// Normalize applies pagination defaults and bounds.
func (f ArticleFilter) Normalize() ArticleFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// Offset is the number of rows skipped before this page.
func (f ArticleFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// PageCount is ceil(total / limit).
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ArticlePage is one page of a List call.
type ArticlePage struct {
	Articles   []core.Article `json:"blogs"`
	Pagination Pagination     `json:"pagination"`
}

// ArticleUpdate carries the fields to change. Nil means leave as is.
type ArticleUpdate struct {
	Title           *string `json:"title,omitempty"`
	MetaDescription *string `json:"metaDescription,omitempty"`
	Content         *string `json:"content,omitempty"`
	Image           *string `json:"image,omitempty"`
	Topic           *string `json:"topic,omitempty"`
	IsArchived      *bool   `json:"isArchived,omitempty"`
	IsPrivate       *bool   `json:"isPrivate,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ArticleUpdate) Empty() bool {
	return u.Title == nil && u.MetaDescription == nil && u.Content == nil &&
		u.Image == nil && u.Topic == nil && u.IsArchived == nil && u.IsPrivate == nil
}
