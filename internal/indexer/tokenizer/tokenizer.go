// Package tokenizer turns raw document text into the canonical token
// sequence used by the vectorizer. It lower-cases input, removes entity
// noise and non-ASCII bytes, keeps alphabetic tokens of 3 to 20 characters,
// drops stopwords, and can optionally apply a snowball stemmer.
//
// Stopword entries are compared in their punctuation-stripped form, the
// same form tokens take, so listing "don't" also removes the token "dont".
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
)

const (
	minTokenLength = 3
	maxTokenLength = 20
)

var entityPattern = regexp.MustCompile(`&[a-z0-9#]*;?`)

// Options toggles the optional stages of the pipeline.
type Options struct {
	DropStopwords bool
	Stem          bool
}

// DefaultOptions drops stopwords and leaves stemming off.
func DefaultOptions() Options {
	return Options{DropStopwords: true}
}

// Normalizer applies the normalization pipeline. It holds no mutable state
// and is safe for concurrent use.
type Normalizer struct {
	stopwords *Stopwords
	opts      Options
}

// New creates a Normalizer. A nil stopword set disables stopword removal
// regardless of opts.
func New(stopwords *Stopwords, opts Options) *Normalizer {
	return &Normalizer{stopwords: stopwords, opts: opts}
}

// Normalize returns the surviving tokens of text in their original order.
// It never fails; malformed input yields an empty slice.
func (n *Normalizer) Normalize(text string) []string {
	fields := strings.Fields(clean(text))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		word := stripPunctuation(field)
		if !n.keep(word) {
			continue
		}
		if n.opts.Stem {
			word = snowballeng.Stem(word, false)
			if !isAlpha(word) || !validLength(word) {
				continue
			}
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// NormalizeText returns the tokens together with their single-space joined
// form, which is what the vectorizer consumes.
func (n *Normalizer) NormalizeText(text string) ([]string, string) {
	tokens := n.Normalize(text)
	return tokens, strings.Join(tokens, " ")
}

func (n *Normalizer) keep(word string) bool {
	if !isAlpha(word) || !validLength(word) {
		return false
	}
	if n.opts.DropStopwords && n.stopwords.Contains(word) {
		return false
	}
	return true
}

// clean runs the character-level stages: lowercasing, entity stripping,
// abbreviation expansion, removal of anything that is not a word
// character, apostrophe or whitespace, and removal of non-ASCII bytes. A
// text made only of digits is discarded.
func clean(text string) string {
	text = strings.ToLower(text)
	text = entityPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "pct", "percent")
	text = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\'' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
	if isDigits(text) {
		return ""
	}
	return text
}

func stripPunctuation(word string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r)) {
			return -1
		}
		return r
	}, word)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAlpha(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

func validLength(word string) bool {
	return len(word) >= minTokenLength && len(word) <= maxTokenLength
}
