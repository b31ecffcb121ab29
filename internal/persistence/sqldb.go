package persistence

import (
	"blogsmith/internal/config"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// dialect holds what differs between the two SQL backends.
type dialect struct {
	name        string
	placeholder sq.PlaceholderFormat
	// containsExpr is a boolean SQL expression testing column for a literal substring.
	containsExpr string
	// migrationsDir is the embedded directory holding this backend's schema files.
	migrationsDir string
	migrationsDDL string
}

var (
	postgresDialect = dialect{
		name:          DriverPostgres,
		placeholder:   sq.Dollar,
		containsExpr:  "strpos(content, ?) > 0",
		migrationsDir: "migrations/postgres",
		migrationsDDL: `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INT PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	}
	sqliteDialect = dialect{
		name:          DriverSQLite,
		placeholder:   sq.Question,
		containsExpr:  "instr(content, ?) > 0",
		migrationsDir: "migrations/sqlite",
		migrationsDDL: `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	}
)

func (d dialect) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.placeholder)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchClause matches s case-insensitively against title, content and topic.
// LIKE wildcards in s match literally.
func (d dialect) searchClause(s string) sq.Sqlizer {
	pattern := "%" + likeEscaper.Replace(s) + "%"
	// SQLite LIKE is case-insensitive for ASCII.
	op := "LIKE"
	if d.name == DriverPostgres {
		op = "ILIKE"
	}
	or := sq.Or{}
	for _, col := range []string{"title", "content", "topic"} {
		or = append(or, sq.Expr(col+" "+op+" ? ESCAPE '\\'", pattern))
	}
	return or
}

// isUniqueViolation recognizes unique constraint errors from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// SQLDB implements Database over database/sql.
type SQLDB struct {
	db       *sql.DB
	dialect  dialect
	articles ArticleRepository
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*SQLDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return finishOpen(db, postgresDialect)
}

// NewSQLiteDB opens (creating if needed) a SQLite database file. Use
// ":memory:" only with a single connection; the pool is capped at one.
func NewSQLiteDB(path string) (*SQLDB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return finishOpen(db, sqliteDialect)
}

// Open picks the backend named in the database configuration.
func Open(cfg config.Database) (*SQLDB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return NewPostgresDB(cfg.URL)
	case DriverSQLite, "":
		return NewSQLiteDB(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func finishOpen(db *sql.DB, d dialect) (*SQLDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLDB{db: db, dialect: d}
	s.articles = &sqlArticleRepo{db: db, dialect: d}
	return s, nil
}

func (s *SQLDB) Articles() ArticleRepository { return s.articles }
func (s *SQLDB) Driver() string              { return s.dialect.name }

func (s *SQLDB) Close() error {
	return s.db.Close()
}

func (s *SQLDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies pending schema migrations for this backend.
func (s *SQLDB) Migrate(ctx context.Context) error {
	_, err := NewMigrator(s).Up(ctx)
	return err
}
