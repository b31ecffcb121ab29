package persistence

import (
	"blogsmith/internal/config"
	"blogsmith/internal/core"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func createArticle(t *testing.T, repo ArticleRepository, title string, mutate ...func(*core.Article)) *core.Article {
	t.Helper()
	a := &core.Article{
		Title:           title,
		MetaDescription: "meta for " + title,
		Content:         "<p>content for " + title + "</p>",
		Topic:           "technology",
	}
	for _, m := range mutate {
		m(a)
	}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))

	ran, err := NewMigrator(db).Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, ran)

	status, err := NewMigrator(db).Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Equal(t, 1, status[0].Version)
	assert.Equal(t, "create articles", status[0].Description)
	assert.True(t, status[0].Applied)
}

func TestMigrator_ReadsOnlyItsDialect(t *testing.T) {
	for _, d := range []dialect{postgresDialect, sqliteDialect} {
		all, err := readMigrations(migrationFiles, d.migrationsDir)
		require.NoError(t, err, d.name)
		require.NotEmpty(t, all, d.name)
		assert.Equal(t, 1, all[0].Version)
		assert.Contains(t, all[0].SQL, "articles")
		assert.Contains(t, d.migrationsDDL, "schema_migrations")
	}
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		name        string
		version     int
		description string
		ok          bool
	}{
		{"001_create_articles.sql", 1, "create articles", true},
		{"012_add_index.sql", 12, "add index", true},
		{"README.md", 0, "", false},
		{"abc_create.sql", 0, "", false},
		{"003.sql", 0, "", false},
		{"000_zero.sql", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, description, ok := parseMigrationName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.description, description)
		})
	}
}

func TestCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := db.Articles()
	ctx := context.Background()

	a := createArticle(t, repo, "  Padded Title  ")
	assert.NotZero(t, a.ID)
	assert.Equal(t, "Padded Title", a.Title)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Padded Title", got.Title)
	assert.Equal(t, a.Content, got.Content)
	assert.Equal(t, "technology", got.Topic)
	assert.False(t, got.IsArchived)
	assert.False(t, got.IsPrivate)

	_, err = repo.Get(ctx, a.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_DuplicateTitle(t *testing.T) {
	db := newTestDB(t)
	repo := db.Articles()

	createArticle(t, repo, "Same Title")
	err := repo.Create(context.Background(), &core.Article{Title: "Same Title", Content: "x", Topic: "t"})
	assert.ErrorIs(t, err, ErrDuplicateTitle)
}

func TestList_Pagination(t *testing.T) {
	db := newTestDB(t)
	repo := db.Articles()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		createArticle(t, repo, fmt.Sprintf("Article number %02d", i))
	}

	page, err := repo.List(ctx, ArticleFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Articles, 5)
	assert.Equal(t, Pagination{Page: 3, Limit: 10, Total: 25, Pages: 3}, page.Pagination)

	first, err := repo.List(ctx, ArticleFilter{})
	require.NoError(t, err)
	require.Len(t, first.Articles, DefaultPageSize)
	assert.Equal(t, "Article number 24", first.Articles[0].Title)
	assert.Equal(t, 1, first.Pagination.Page)

	beyond, err := repo.List(ctx, ArticleFilter{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Articles)
	assert.NotNil(t, beyond.Articles)
}

func TestList_SearchTreatsWildcardsLiterally(t *testing.T) {
	db := newTestDB(t)
	repo := db.Articles()
	ctx := context.Background()

	createArticle(t, repo, "Uptime hits 100% again")
	createArticle(t, repo, "Using snake_case in Go")
	createArticle(t, repo, `Paths like C:\temp`)
	createArticle(t, repo, "Plain title here")

	for search, want := range map[string]string{
		"%":    "Uptime hits 100% again",
		"_":    "Using snake_case in Go",
		"e_c":  "Using snake_case in Go",
		`\`:    `Paths like C:\temp`,
		"100%": "Uptime hits 100% again",
	} {
		page, err := repo.List(ctx, ArticleFilter{Search: search})
		require.NoError(t, err, search)
		require.Len(t, page.Articles, 1, "search %q", search)
		assert.Equal(t, want, page.Articles[0].Title)
	}
}

func TestList_SearchAndFlags(t *testing.T) {
	db := newTestDB(t)
	repo := db.Articles()
	ctx := context.Background()

	createArticle(t, repo, "Kubernetes at scale")
	createArticle(t, repo, "Archived post", func(a *core.Article) { a.IsArchived = true })
	createArticle(t, repo, "Private post", func(a *core.Article) { a.IsPrivate = true })
	createArticle(t, repo, "Security news", func(a *core.Article) { a.Topic = "cybersecurity" })

	page, err := repo.List(ctx, ArticleFilter{Search: "kubernetes"})
	require.NoError(t, err)
	require.Len(t, page.Articles, 1)
	assert.Equal(t, "Kubernetes at scale", page.Articles[0].Title)

	page, err = repo.List(ctx, ArticleFilter{Search: "CYBER"})
	require.NoError(t, err)
	require.Len(t, page.Articles, 1)
	assert.Equal(t, "Security news", page.Articles[0].Title)

	page, err = repo.List(ctx, ArticleFilter{Archived: boolPtr(false), Private: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Total)

	page, err = repo.List(ctx, ArticleFilter{Archived: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, page.Articles, 1)
	assert.Equal(t, "Archived post", page.Articles[0].Title)

	all, err := repo.List(ctx, ArticleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Pagination.Total)
}

func TestUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := db.Articles()
	ctx := context.Background()

	a := createArticle(t, repo, "Original")
	createArticle(t, repo, "Taken")

	updated, err := repo.Update(ctx, a.ID, ArticleUpdate{Title: strPtr("Renamed"), IsPrivate: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.True(t, updated.IsPrivate)
	assert.Equal(t, a.Content, updated.Content)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = repo.Update(ctx, a.ID, ArticleUpdate{Title: strPtr("Taken")})
	assert.ErrorIs(t, err, ErrDuplicateTitle)

	_, err = repo.Update(ctx, a.ID+100, ArticleUpdate{Content: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	same, err := repo.Update(ctx, a.ID, ArticleUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", same.Title)
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	repo := db.Articles()
	ctx := context.Background()

	a := createArticle(t, repo, "Doomed")
	require.NoError(t, repo.Delete(ctx, a.ID))

	_, err := repo.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), ErrNotFound)
}

func TestExistsPredicates(t *testing.T) {
	db := newTestDB(t)
	repo := db.Articles()
	ctx := context.Background()

	createArticle(t, repo, "Known Title", func(a *core.Article) {
		a.Content = `<p>body</p><h2>Source</h2><p><a href="https://reddit.com/r/go/comments/abc/x">link</a></p>`
	})

	ok, err := repo.ExistsByTitle(ctx, " Known Title ")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByTitle(ctx, "known title")
	require.NoError(t, err)
	assert.False(t, ok, "title match is exact")

	ok, err = repo.ExistsByTitle(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ExistsContentContaining(ctx, "https://reddit.com/r/go/comments/abc/x")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsContentContaining(ctx, "https://reddit.com/r/go/comments/zzz")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ExistsContentContaining(ctx, "100%_literal")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListPublic(t *testing.T) {
	db := newTestDB(t)
	repo := db.Articles()
	ctx := context.Background()

	createArticle(t, repo, "Public one")
	createArticle(t, repo, "Hidden", func(a *core.Article) { a.IsPrivate = true })
	createArticle(t, repo, "Old", func(a *core.Article) { a.IsArchived = true })
	createArticle(t, repo, "Public two")

	all, err := repo.ListPublic(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Public two", all[0].Title)

	limited, err := repo.ListPublic(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFilterNormalize(t *testing.T) {
	f := ArticleFilter{Page: -2, Limit: 500}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.Limit)
	assert.Equal(t, 0, f.Offset())

	f = ArticleFilter{Page: 3, Limit: 0}.Normalize()
	assert.Equal(t, DefaultPageSize, f.Limit)
	assert.Equal(t, 20, f.Offset())

	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 2, PageCount(11, 10))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.Database{Driver: "mysql"})
	assert.Error(t, err)
}
