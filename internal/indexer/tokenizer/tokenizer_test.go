package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := New(NewStopwords("the", "are", "on", "and"), DefaultOptions())
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"stopwords and short words", "The cat sat on the mat", []string{"cat", "sat", "mat"}},
		{"entity noise", "Shares of &lt;Acme Corp> rose", []string{"shares", "acme", "corp", "rose"}},
		{"pct expansion", "rates fell 2 pct", []string{"rates", "fell", "percent"}},
		{"apostrophes stripped", "the company's shares", []string{"companys", "shares"}},
		{"digits dropped", "in 1987 sales rose", []string{"sales", "rose"}},
		{"mixed alnum dropped", "abc123 world", []string{"world"}},
		{"non ascii removed", "café naïve résumé", []string{"caf", "nave", "rsum"}},
		{"control whitespace", "grain\r\nexports\tsurged", []string{"grain", "exports", "surged"}},
		{"punctuation", "oil-prices, (brent) crude!", []string{"oilprices", "brent", "crude"}},
		{"underscore stripped", "foo_bar baz", []string{"foobar", "baz"}},
		{"only digits", "123456", []string{}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalizeLengthBounds(t *testing.T) {
	n := New(nil, DefaultOptions())
	twenty := strings.Repeat("a", 20)
	twentyOne := strings.Repeat("b", 21)
	got := n.Normalize("ab abc " + twenty + " " + twentyOne)
	assert.Equal(t, []string{"abc", twenty}, got)
}

func TestNormalizeKeepsStopwordsWhenDisabled(t *testing.T) {
	n := New(NewStopwords("the"), Options{DropStopwords: false})
	assert.Equal(t, []string{"the", "cat"}, n.Normalize("the cat"))
}

func TestNormalizeStemming(t *testing.T) {
	n := New(DefaultStopwords(), Options{DropStopwords: true, Stem: true})
	got := n.Normalize("running shipments")
	assert.Equal(t, []string{"run", "shipment"}, got)
}

func TestNormalizeText(t *testing.T) {
	n := New(DefaultStopwords(), DefaultOptions())
	tokens, joined := n.NormalizeText("Dogs are loyal animals")
	assert.Equal(t, []string{"dogs", "loyal", "animals"}, tokens)
	assert.Equal(t, "dogs loyal animals", joined)
}

func TestNormalizeDeterministicAndValid(t *testing.T) {
	sw := DefaultStopwords()
	n := New(sw, DefaultOptions())
	inputs := []string{
		"U.S. GRAIN EXPORTS &amp; IMPORTS ROSE 12.5 PCT IN MARCH",
		"Der Übergang – ein Test… 東京",
		"   \t\n ",
		"&&&&;;;''''",
		"it's their company's 'quoted' text",
	}
	for _, in := range inputs {
		first := n.Normalize(in)
		second := n.Normalize(in)
		require.Equal(t, first, second, "input %q", in)
		for _, tok := range first {
			assert.GreaterOrEqual(t, len(tok), 3, tok)
			assert.LessOrEqual(t, len(tok), 20, tok)
			assert.Equal(t, strings.ToLower(tok), tok)
			assert.True(t, isAlpha(tok), tok)
			assert.False(t, sw.Contains(tok), tok)
		}
	}
}

func TestParseStopwords(t *testing.T) {
	sw, err := ParseStopwords(strings.NewReader("The\n\n  and \nthe\ndon't\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "and", "dont"}, sw.Words())
	assert.True(t, sw.Contains("dont"))
	assert.False(t, sw.Contains("don't"))
	assert.Equal(t, 3, sw.Len())
}

func TestNormalizeDropsContractionStopwords(t *testing.T) {
	n := New(NewStopwords("don't", "isn't"), DefaultOptions())
	assert.Equal(t, []string{"panic"}, n.Normalize("Don't panic, it isnt"))
}

func TestDefaultStopwords(t *testing.T) {
	sw := DefaultStopwords()
	assert.Greater(t, sw.Len(), 100)
	for _, w := range []string{"the", "are", "and", "with", "isnt"} {
		assert.True(t, sw.Contains(w), w)
	}
}

func TestLoadStopwordsMissingFile(t *testing.T) {
	_, err := LoadStopwords("/nonexistent/stopwords")
	assert.Error(t, err)
}

func BenchmarkNormalize(b *testing.B) {
	n := New(DefaultStopwords(), DefaultOptions())
	text := strings.Repeat("JAPAN TO REVISE LONG-TERM ENERGY DEMAND DOWNWARDS &lt;MITI> said 12 pct ", 20)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = n.Normalize(text)
	}
}
