// Package store is a filesystem-backed document store. Packages are kept
// as <id>.docx in one directory; writes are buffered and committed
// atomically on Close, with at most one writer per id at a time.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const ext = ".docx"

var (
	// ErrBusy is returned by OpenWrite while another writer holds the id.
	ErrBusy = errors.New("document is being written")
	// ErrNotFound is returned for ids with no stored document.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned for ids that do not name a file.
	ErrInvalidID = errors.New("invalid document id")
	// ErrClosed is returned by writes after Close or Abort.
	ErrClosed = errors.New("writer closed")
)

// Info describes one stored document.
type Info struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Store manages the documents in one directory.
type Store struct {
	dir string

	mu      sync.Mutex
	writing map[string]bool
}

// New opens the store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir, writing: make(map[string]bool)}, nil
}

// NewID returns a fresh document id.
func NewID() string {
	return uuid.NewString() + ext
}

// CleanID reduces id to a base file name with the package extension.
func CleanID(id string) (string, error) {
	id = filepath.Base(strings.TrimSpace(strings.ReplaceAll(id, "\\", "/")))
	if id == "." || id == "/" || id == ".." || id == "" || strings.HasPrefix(id, ".") {
		return "", ErrInvalidID
	}
	if !strings.EqualFold(filepath.Ext(id), ext) {
		id += ext
	}
	return id, nil
}

func (s *Store) path(id string) (string, string, error) {
	id, err := CleanID(id)
	if err != nil {
		return "", "", err
	}
	return id, filepath.Join(s.dir, id), nil
}

// OpenRead opens the stored package for reading.
func (s *Store) OpenRead(id string) (io.ReadCloser, error) {
	_, p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Stat describes one stored document.
func (s *Store) Stat(id string) (Info, error) {
	id, p, err := s.path(id)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return Info{}, ErrNotFound
	}
	if err != nil {
		return Info{}, err
	}
	return infoFor(id, fi), nil
}

// OpenWrite reserves id for writing. The returned Writer buffers
// everything; Close commits it with a rename, Abort discards it. A second
// OpenWrite for the same id fails with ErrBusy until then.
func (s *Store) OpenWrite(id string) (*Writer, error) {
	id, p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writing[id] {
		return nil, ErrBusy
	}
	s.writing[id] = true
	return &Writer{store: s, id: id, path: p}, nil
}

// Remove deletes a stored document. A document being written cannot be
// removed.
func (s *Store) Remove(id string) error {
	id, p, err := s.path(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writing[id] {
		return ErrBusy
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.writing, id)
}

// List returns the stored documents sorted by id.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, infoFor(name, fi))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func infoFor(id string, fi os.FileInfo) Info {
	return Info{
		ID:      id,
		Name:    strings.TrimSuffix(id, filepath.Ext(id)),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}
}

// Writer is a single-flight buffered write to one document.
type Writer struct {
	store *Store
	id    string
	path  string
	buf   bytes.Buffer
	done  bool
}

// ID returns the cleaned document id being written.
func (w *Writer) ID() string { return w.id }

func (w *Writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrClosed
	}
	return w.buf.Write(p)
}

// Close commits the buffered bytes and releases the id.
func (w *Writer) Close() error {
	if w.done {
		return ErrClosed
	}
	w.done = true
	defer w.store.release(w.id)

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".tmp-*"+ext)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(w.buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("commit document: %w", err)
	}
	return nil
}

// Abort drops the buffered bytes and releases the id. It is safe to call
// after Close.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.buf.Reset()
	w.store.release(w.id)
}
