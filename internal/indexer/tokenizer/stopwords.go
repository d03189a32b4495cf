package tokenizer

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed stopwords.txt
var defaultStopwordList string

// Stopwords is a read-only word set loaded once at startup. Entries are
// stored in the same form tokens take after punctuation stripping, so
// "don't" in the source list matches the token "dont".
type Stopwords struct {
	words   map[string]struct{}
	ordered []string
}

// DefaultStopwords returns the embedded English stopword list.
func DefaultStopwords() *Stopwords {
	sw, _ := ParseStopwords(strings.NewReader(defaultStopwordList))
	return sw
}

// LoadStopwords reads a newline-separated word list from path.
func LoadStopwords(path string) (*Stopwords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stopword list %s: %w", path, err)
	}
	defer f.Close()
	sw, err := ParseStopwords(f)
	if err != nil {
		return nil, fmt.Errorf("reading stopword list %s: %w", path, err)
	}
	return sw, nil
}

// ParseStopwords reads one word per line. Blank lines are skipped and
// duplicates collapse onto their first occurrence.
func ParseStopwords(r io.Reader) (*Stopwords, error) {
	sw := &Stopwords{words: make(map[string]struct{})}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := stripPunctuation(strings.ToLower(strings.TrimSpace(scanner.Text())))
		if word == "" {
			continue
		}
		if _, seen := sw.words[word]; seen {
			continue
		}
		sw.words[word] = struct{}{}
		sw.ordered = append(sw.ordered, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sw, nil
}

// NewStopwords builds a set from an in-memory list.
func NewStopwords(words ...string) *Stopwords {
	sw, _ := ParseStopwords(strings.NewReader(strings.Join(words, "\n")))
	return sw
}

// Contains reports whether word is a stopword. A nil set contains nothing.
func (s *Stopwords) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[word]
	return ok
}

// Len returns the number of distinct stopwords.
func (s *Stopwords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ordered)
}

// Words returns a copy of the list in load order.
func (s *Stopwords) Words() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)
	return out
}
