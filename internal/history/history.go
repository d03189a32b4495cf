// Package history records every API lookup with its result, either to a
// JSON file or to Postgres.
package history

import (
	"context"
	"time"
)

// TimestampLayout is the entry timestamp format, local time.
const TimestampLayout = "2006-01-02 15:04:05"

// SearchType names the API route that produced an entry.
type SearchType string

const (
	TypeSearch         SearchType = "search"
	TypeAllArticles    SearchType = "all_articles"
	TypeArticleByID    SearchType = "article_by_id"
	TypeArticleByTitle SearchType = "article_by_title"
	TypeArticlesByBody SearchType = "articles_by_body"
)

// NoQuery is recorded for routes that take no query.
const NoQuery = "N/A"

type Entry struct {
	Timestamp  string     `json:"timestamp"`
	SearchType SearchType `json:"search_type"`
	Query      string     `json:"query"`
	Result     any        `json:"result"`
}

// NewEntry stamps an entry with the current local time.
func NewEntry(searchType SearchType, query string, result any) Entry {
	return Entry{
		Timestamp:  time.Now().Format(TimestampLayout),
		SearchType: searchType,
		Query:      query,
		Result:     result,
	}
}

// Recorder persists entries. Callers log failures instead of failing the
// request.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
