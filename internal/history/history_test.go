package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/postgres/postgrestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntryTimestamp(t *testing.T) {
	e := NewEntry(TypeSearch, "cocoa", nil)
	_, err := time.ParseInLocation(TimestampLayout, e.Timestamp, time.Local)
	assert.NoError(t, err)
	assert.Equal(t, TypeSearch, e.SearchType)
}

func TestFileRecorderAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search_results.json")
	r := NewFileRecorder(path)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, NewEntry(TypeSearch, "cocoa", []map[string]string{{"title": "COCOA"}})))
	require.NoError(t, r.Record(ctx, NewEntry(TypeAllArticles, NoQuery, []string{})))

	entries, err := r.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cocoa", entries[0].Query)
	assert.Equal(t, TypeAllArticles, entries[1].SearchType)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n    {\n        \"timestamp\""), "four-space indent:\n%s", data)
}

func TestFileRecorderConcurrent(t *testing.T) {
	r := NewFileRecorder(filepath.Join(t.TempDir(), "h.json"))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Record(context.Background(), NewEntry(TypeArticleByID, "1", nil)))
		}()
	}
	wg.Wait()
	entries, err := r.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestFileRecorderCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.json")
	require.NoError(t, os.WriteFile(path, []byte("{not an array"), 0o644))
	err := NewFileRecorder(path).Record(context.Background(), NewEntry(TypeSearch, "x", nil))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Record(context.Background(), Entry{}))
}

func TestPostgresRecorder(t *testing.T) {
	db := postgrestest.Open(t)
	r := NewPostgresRecorder(db)
	ctx := context.Background()
	require.NoError(t, r.EnsureSchema(ctx))

	entry := NewEntry(TypeArticleByTitle, "cocoa", map[string]string{"error": "Article not found"})
	require.NoError(t, r.Record(ctx, entry))

	recent, err := r.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, entry.Timestamp, recent[0].Timestamp)
	assert.Equal(t, TypeArticleByTitle, recent[0].SearchType)
	assert.Equal(t, map[string]any{"error": "Article not found"}, recent[0].Result)
}
