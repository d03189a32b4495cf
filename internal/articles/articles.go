// Package articles stores corpus articles for the browsing endpoints. The
// Postgres store backs production; the memory store serves straight from a
// loaded corpus.
package articles

import (
	"context"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/corpus"
)

// Article is the stored form of a corpus article.
type Article struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Topics   []string `json:"topics"`
}

// JoinedTopics returns the topics comma separated.
func (a Article) JoinedTopics() string { return strings.Join(a.Topics, ",") }

// FromCorpus converts loaded articles, keeping their order.
func FromCorpus(in []corpus.Article) []Article {
	out := make([]Article, len(in))
	for i, a := range in {
		out[i] = Article{
			Filename: a.FileID,
			Title:    a.Title,
			Body:     a.Body,
			Topics:   a.Topics,
		}
	}
	return out
}

// Store is implemented by PostgresStore and MemoryStore. Get, FindByTitle
// return ErrArticleNotFound on a miss; patterns are case-insensitive
// regular expressions and an invalid one yields ErrInvalidInput.
type Store interface {
	Replace(ctx context.Context, articles []Article) (int, error)
	List(ctx context.Context) ([]Article, error)
	Get(ctx context.Context, id string) (Article, error)
	FindByTitle(ctx context.Context, pattern string) (Article, error)
	FindByBody(ctx context.Context, pattern string) ([]Article, error)
}
