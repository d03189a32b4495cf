package articles

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/errors"
)

// MemoryStore holds articles in a slice. Ids are 1-based positions.
type MemoryStore struct {
	mu       sync.RWMutex
	articles []Article
}

func NewMemoryStore(articles []Article) *MemoryStore {
	s := &MemoryStore{}
	s.Replace(context.Background(), articles)
	return s
}

func (s *MemoryStore) Replace(ctx context.Context, articles []Article) (int, error) {
	stored := make([]Article, len(articles))
	for i, a := range articles {
		a.ID = strconv.Itoa(i + 1)
		stored[i] = a
	}
	s.mu.Lock()
	s.articles = stored
	s.mu.Unlock()
	return len(stored), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Article, len(s.articles))
	copy(out, s.articles)
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Article, error) {
	n, err := strconv.Atoi(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err != nil || n < 1 || n > len(s.articles) {
		return Article{}, fmt.Errorf("article %q: %w", id, apperrors.ErrArticleNotFound)
	}
	return s.articles[n-1], nil
}

func (s *MemoryStore) FindByTitle(ctx context.Context, pattern string) (Article, error) {
	re, err := compile(pattern)
	if err != nil {
		return Article{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if re.MatchString(a.Title) {
			return a, nil
		}
	}
	return Article{}, fmt.Errorf("title %q: %w", pattern, apperrors.ErrArticleNotFound)
}

func (s *MemoryStore) FindByBody(ctx context.Context, pattern string) ([]Article, error) {
	re, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Article{}
	for _, a := range s.articles {
		if re.MatchString(a.Body) {
			out = append(out, a)
		}
	}
	return out, nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return re, nil
}
