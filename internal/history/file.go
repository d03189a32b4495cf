package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileRecorder keeps all entries as one JSON array, indented by four
// spaces. Each Record rewrites the file atomically through a temp file.
type FileRecorder struct {
	path string
	mu   sync.Mutex
}

func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

func (r *FileRecorder) Record(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding history entry: %w", err)
	}
	entries = append(entries, raw)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	return r.write(buf.Bytes())
}

// Entries returns the stored entries in insertion order.
func (r *FileRecorder) Entries() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raw))
	for _, m := range raw {
		var e Entry
		if err := json.Unmarshal(m, &e); err != nil {
			return nil, fmt.Errorf("decoding history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *FileRecorder) load() ([]json.RawMessage, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", r.path, err)
	}
	return entries, nil
}

func (r *FileRecorder) write(data []byte) error {
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("creating temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing history: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replacing history %s: %w", r.path, err)
	}
	return nil
}
