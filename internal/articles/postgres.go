package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/postgres"
	"github.com/lib/pq"
)

const schema = `CREATE TABLE IF NOT EXISTS articles (
    id       BIGSERIAL PRIMARY KEY,
    filename TEXT NOT NULL UNIQUE,
    title    TEXT NOT NULL,
    body     TEXT NOT NULL,
    topics   TEXT[] NOT NULL DEFAULT '{}'
)`

// invalidRegex is SQLSTATE 2201B, raised by ~* on a malformed pattern.
const invalidRegex = "2201B"

const selectColumns = `SELECT id, filename, title, body, topics FROM articles`

// PostgresStore keeps articles in the articles table.
type PostgresStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: slog.Default().With("component", "article-store"),
	}
}

// EnsureSchema creates the articles table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return s.db.Exec(ctx, schema)
}

// Replace deletes every stored article and bulk-loads articles with COPY,
// in one transaction. Ids restart from 1 in input order.
func (s *PostgresStore) Replace(ctx context.Context, articles []Article) (int, error) {
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE articles RESTART IDENTITY`); err != nil {
			return fmt.Errorf("clearing articles: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("articles", "filename", "title", "body", "topics"))
		if err != nil {
			return fmt.Errorf("preparing copy: %w", err)
		}
		for _, a := range articles {
			topics := a.Topics
			if topics == nil {
				topics = []string{}
			}
			if _, err := stmt.ExecContext(ctx, a.Filename, a.Title, a.Body, pq.Array(topics)); err != nil {
				stmt.Close()
				return fmt.Errorf("copying article %s: %w", a.Filename, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return fmt.Errorf("flushing copy: %w", err)
		}
		return stmt.Close()
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("articles replaced", "count", len(articles))
	return len(articles), nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Article, error) {
	rows, err := s.db.DB.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return scanAll(rows)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Article, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return Article{}, fmt.Errorf("article %q: %w", id, apperrors.ErrArticleNotFound)
	}
	row := s.db.DB.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, n)
	a, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Article{}, fmt.Errorf("article %q: %w", id, apperrors.ErrArticleNotFound)
	}
	return a, err
}

// FindByTitle returns the lowest-id article whose title matches pattern.
func (s *PostgresStore) FindByTitle(ctx context.Context, pattern string) (Article, error) {
	row := s.db.DB.QueryRowContext(ctx, selectColumns+` WHERE title ~* $1 ORDER BY id LIMIT 1`, pattern)
	a, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Article{}, fmt.Errorf("title %q: %w", pattern, apperrors.ErrArticleNotFound)
	}
	return a, classify(err)
}

func (s *PostgresStore) FindByBody(ctx context.Context, pattern string) ([]Article, error) {
	rows, err := s.db.DB.QueryContext(ctx, selectColumns+` WHERE body ~* $1 ORDER BY id`, pattern)
	if err != nil {
		return nil, classify(fmt.Errorf("searching bodies: %w", err))
	}
	out, err := scanAll(rows)
	return out, classify(err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Article, error) {
	var (
		a  Article
		id int64
	)
	if err := row.Scan(&id, &a.Filename, &a.Title, &a.Body, pq.Array(&a.Topics)); err != nil {
		return Article{}, err
	}
	a.ID = strconv.FormatInt(id, 10)
	return a, nil
}

func scanAll(rows *sql.Rows) ([]Article, error) {
	defer rows.Close()
	out := []Article{}
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// classify maps a malformed-regex error to ErrInvalidInput.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == invalidRegex {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, pqErr.Message)
	}
	return err
}
