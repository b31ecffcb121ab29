package persistence

import (
	"blogsmith/internal/core"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var articleColumns = []string{
	"id", "title", "meta_description", "content", "image", "topic",
	"is_archived", "is_private", "created_at", "updated_at",
}

// sqlArticleRepo implements ArticleRepository for both SQL dialects
type sqlArticleRepo struct {
	db      *sql.DB
	dialect dialect
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*core.Article, error) {
	var a core.Article
	err := row.Scan(
		&a.ID, &a.Title, &a.MetaDescription, &a.Content, &a.Image, &a.Topic,
		&a.IsArchived, &a.IsPrivate, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	return &a, nil
}

func (r *sqlArticleRepo) Create(ctx context.Context, article *core.Article) error {
	now := time.Now().UTC()
	article.Title = strings.TrimSpace(article.Title)

	query, args, err := r.dialect.builder().
		Insert("articles").
		Columns("title", "meta_description", "content", "image", "topic",
			"is_archived", "is_private", "created_at", "updated_at").
		Values(article.Title, article.MetaDescription, article.Content, article.Image, article.Topic,
			article.IsArchived, article.IsPrivate, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&article.ID); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("failed to insert article: %w", err)
	}
	article.CreatedAt = now
	article.UpdatedAt = now
	return nil
}

func (r *sqlArticleRepo) Get(ctx context.Context, id int64) (*core.Article, error) {
	query, args, err := r.dialect.builder().
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	return scanArticle(r.db.QueryRowContext(ctx, query, args...))
}

func (r *sqlArticleRepo) filterWhere(f ArticleFilter) sq.And {
	where := sq.And{}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, r.dialect.searchClause(s))
	}
	if f.Archived != nil {
		where = append(where, sq.Eq{"is_archived": *f.Archived})
	}
	if f.Private != nil {
		where = append(where, sq.Eq{"is_private": *f.Private})
	}
	return where
}

func (r *sqlArticleRepo) List(ctx context.Context, filter ArticleFilter) (*ArticlePage, error) {
	f := filter.Normalize()
	where := r.filterWhere(f)

	countQuery, countArgs, err := r.dialect.builder().
		Select("COUNT(*)").
		From("articles").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	query, args, err := r.dialect.builder().
		Select(articleColumns...).
		From("articles").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list: %w", err)
	}

	articles, err := r.queryArticles(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &ArticlePage{
		Articles: articles,
		Pagination: Pagination{
			Page:  f.Page,
			Limit: f.Limit,
			Total: total,
			Pages: PageCount(total, f.Limit),
		},
	}, nil
}

func (r *sqlArticleRepo) queryArticles(ctx context.Context, query string, args ...any) ([]core.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := []core.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func (r *sqlArticleRepo) Update(ctx context.Context, id int64, update ArticleUpdate) (*core.Article, error) {
	if update.Empty() {
		return r.Get(ctx, id)
	}

	set := map[string]any{"updated_at": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = strings.TrimSpace(*update.Title)
	}
	if update.MetaDescription != nil {
		set["meta_description"] = *update.MetaDescription
	}
	if update.Content != nil {
		set["content"] = *update.Content
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if update.Topic != nil {
		set["topic"] = *update.Topic
	}
	if update.IsArchived != nil {
		set["is_archived"] = *update.IsArchived
	}
	if update.IsPrivate != nil {
		set["is_private"] = *update.IsPrivate
	}

	query, args, err := r.dialect.builder().
		Update("articles").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *sqlArticleRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := r.dialect.builder().
		Delete("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlArticleRepo) exists(ctx context.Context, pred sq.Sqlizer) (bool, error) {
	query, args, err := r.dialect.builder().
		Select("1").
		From("articles").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build lookup: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up article: %w", err)
	}
	return true, nil
}

func (r *sqlArticleRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, nil
	}
	return r.exists(ctx, sq.Eq{"title": title})
}

func (r *sqlArticleRepo) ExistsContentContaining(ctx context.Context, s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return r.exists(ctx, sq.Expr(r.dialect.containsExpr, s))
}

func (r *sqlArticleRepo) ListPublic(ctx context.Context, limit int) ([]core.Article, error) {
	b := r.dialect.builder().
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"is_archived": false, "is_private": false}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list: %w", err)
	}
	return r.queryArticles(ctx, query, args...)
}
