package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/postgres"
)

const schema = `CREATE TABLE IF NOT EXISTS search_history (
    id          BIGSERIAL PRIMARY KEY,
    searched_at TIMESTAMP NOT NULL,
    search_type TEXT NOT NULL,
    query       TEXT NOT NULL,
    result      JSONB NOT NULL
)`

// PostgresRecorder appends entries to the search_history table.
type PostgresRecorder struct {
	db *postgres.Client
}

func NewPostgresRecorder(db *postgres.Client) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	return r.db.Exec(ctx, schema)
}

func (r *PostgresRecorder) Record(ctx context.Context, entry Entry) error {
	at, err := time.ParseInLocation(TimestampLayout, entry.Timestamp, time.Local)
	if err != nil {
		return fmt.Errorf("parsing entry timestamp: %w", err)
	}
	result, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("encoding entry result: %w", err)
	}
	_, err = r.db.DB.ExecContext(ctx,
		`INSERT INTO search_history (searched_at, search_type, query, result) VALUES ($1, $2, $3, $4)`,
		at, string(entry.SearchType), entry.Query, result,
	)
	if err != nil {
		return fmt.Errorf("recording search history: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT searched_at, search_type, query, result FROM search_history ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing search history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			at     time.Time
			typ    string
			e      Entry
			result []byte
		)
		if err := rows.Scan(&at, &typ, &e.Query, &result); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Timestamp = at.Format(TimestampLayout)
		e.SearchType = SearchType(typ)
		var decoded any
		if err := json.Unmarshal(result, &decoded); err != nil {
			return nil, fmt.Errorf("decoding history result: %w", err)
		}
		e.Result = decoded
		out = append(out, e)
	}
	return out, rows.Err()
}
