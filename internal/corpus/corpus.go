// Package corpus reads a Reuters-21578 style corpus: one plain-text file
// per article under training/ and test/, plus a cats.txt file listing each
// article's topics. Files are ISO-8859-2 encoded.
package corpus

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	SplitTraining = "training"
	SplitTest     = "test"

	categoriesFile = "cats.txt"
)

// Article is one corpus file. FileID is the slash-separated path relative
// to the corpus root, e.g. "training/123".
type Article struct {
	FileID string   `json:"filename"`
	Split  string   `json:"split"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Topics []string `json:"topics"`
	Raw    string   `json:"-"`
}

// Document converts the article into an indexer document keyed by FileID.
func (a Article) Document() indexer.Document {
	return indexer.Document{ID: a.FileID, Text: a.Raw}
}

type Options struct {
	// Encoding names the file charset: "iso-8859-2" (default), "iso-8859-1"
	// or "utf-8".
	Encoding string
}

// Corpus holds every article in lexicographic FileID order.
type Corpus struct {
	articles []Article
	byID     map[string]int
}

// Load reads the corpus rooted at fsys. A missing cats.txt leaves every
// article without topics; a missing split directory is an error only when
// both are missing.
func Load(fsys fs.FS, opts Options) (*Corpus, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "corpus")

	topics, err := readCategories(fsys, enc)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, split := range []string{SplitTraining, SplitTest} {
		entries, err := fs.ReadDir(fsys, split)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("corpus split missing", "split", split)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", split, err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			ids = append(ids, path.Join(split, e.Name()))
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("loading corpus: %w: no articles found", apperrors.ErrEmptyCorpus)
	}
	sort.Strings(ids)

	c := &Corpus{
		articles: make([]Article, 0, len(ids)),
		byID:     make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		raw, err := readFile(fsys, id, enc)
		if err != nil {
			return nil, err
		}
		a := Parse(id, raw)
		a.Topics = topics[id]
		c.byID[id] = len(c.articles)
		c.articles = append(c.articles, a)
	}
	logger.Info("corpus loaded",
		"articles", len(c.articles),
		"training", len(c.Split(SplitTraining)),
		"test", len(c.Split(SplitTest)),
	)
	return c, nil
}

// New builds a corpus from already parsed articles, sorting them by FileID.
// Duplicate ids are rejected.
func New(articles []Article) (*Corpus, error) {
	sorted := make([]Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FileID < sorted[j].FileID })
	c := &Corpus{articles: sorted, byID: make(map[string]int, len(sorted))}
	for i, a := range sorted {
		if _, dup := c.byID[a.FileID]; dup {
			return nil, fmt.Errorf("%w: duplicate article %q", apperrors.ErrInvalidInput, a.FileID)
		}
		c.byID[a.FileID] = i
	}
	return c, nil
}

// Parse splits raw article text into title (the first line) and body (the
// rest). The split is taken from the FileID's first path element.
func Parse(fileID, raw string) Article {
	title, body, _ := strings.Cut(raw, "\n")
	split, _, _ := strings.Cut(fileID, "/")
	return Article{
		FileID: fileID,
		Split:  split,
		Title:  title,
		Body:   body,
		Raw:    raw,
	}
}

// Articles returns every article in FileID order.
func (c *Corpus) Articles() []Article { return c.articles }

// Split returns the articles of one split in FileID order.
func (c *Corpus) Split(split string) []Article {
	var out []Article
	for _, a := range c.articles {
		if a.Split == split {
			out = append(out, a)
		}
	}
	return out
}

// Documents returns the indexer documents of a split, ordinal i being the
// i-th article of the split in FileID order.
func (c *Corpus) Documents(split string) []indexer.Document {
	articles := c.Split(split)
	docs := make([]indexer.Document, len(articles))
	for i, a := range articles {
		docs[i] = a.Document()
	}
	return docs
}

// Lookup resolves a FileID.
func (c *Corpus) Lookup(fileID string) (Article, bool) {
	i, ok := c.byID[fileID]
	if !ok {
		return Article{}, false
	}
	return c.articles[i], true
}

func (c *Corpus) Len() int { return len(c.articles) }

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "iso-8859-2", "latin2":
		return charmap.ISO8859_2, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	return nil, fmt.Errorf("%w: unsupported corpus encoding %q", apperrors.ErrInvalidInput, name)
}

func readFile(fsys fs.FS, name string, enc encoding.Encoding) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(enc.NewDecoder().Reader(f))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", name, err)
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}

// readCategories parses cats.txt lines of the form
// "training/5 grain wheat".
func readCategories(fsys fs.FS, enc encoding.Encoding) (map[string][]string, error) {
	raw, err := readFile(fsys, categoriesFile, enc)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	topics := make(map[string][]string)
	scanner := bufio.NewScanner(bytes.NewBufferString(raw))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		topics[fields[0]] = append(topics[fields[0]], fields[1:]...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", categoriesFile, err)
	}
	return topics, nil
}
