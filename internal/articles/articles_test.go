package articles

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/postgres/postgrestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []Article {
	return FromCorpus([]corpus.Article{
		{FileID: "training/1", Title: "COCOA EXPORTS RISE", Body: "Ghana cocoa exports rose.", Topics: []string{"cocoa"}},
		{FileID: "training/2", Title: "OIL PRICES FALL", Body: "Crude OIL fell; cocoa steady.", Topics: []string{"crude", "nat-gas"}},
		{FileID: "test/3", Title: "Grain shipments", Body: "Wheat.", Topics: nil},
	})
}

// exercise runs the shared contract against any Store.
func exercise(t *testing.T, s Store) {
	ctx := context.Background()
	n, err := s.Replace(ctx, sample())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "training/1", all[0].Filename)

	got, err := s.Get(ctx, all[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "OIL PRICES FALL", got.Title)
	assert.Equal(t, "crude,nat-gas", got.JoinedTopics())

	for _, id := range []string{"999", "abc", "0", "-1"} {
		_, err = s.Get(ctx, id)
		assert.ErrorIs(t, err, apperrors.ErrArticleNotFound, "id %q", id)
	}

	got, err = s.FindByTitle(ctx, "prices")
	require.NoError(t, err)
	assert.Equal(t, "training/2", got.Filename)

	got, err = s.FindByTitle(ctx, "^(cocoa|grain)")
	require.NoError(t, err)
	assert.Equal(t, "training/1", got.Filename, "first match wins")

	_, err = s.FindByTitle(ctx, "zebra")
	assert.ErrorIs(t, err, apperrors.ErrArticleNotFound)

	bodies, err := s.FindByBody(ctx, "COCOA")
	require.NoError(t, err)
	assert.Len(t, bodies, 2)

	bodies, err = s.FindByBody(ctx, "zebra")
	require.NoError(t, err)
	assert.NotNil(t, bodies)
	assert.Empty(t, bodies)

	_, err = s.FindByBody(ctx, "(unclosed")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	n, err = s.Replace(ctx, sample()[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	all, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "replace clears previous articles")
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore(nil))
}

func TestPostgresStore(t *testing.T) {
	db := postgrestest.Open(t)
	s := NewPostgresStore(db)
	require.NoError(t, s.EnsureSchema(context.Background()))
	exercise(t, s)
}
