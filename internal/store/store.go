// Package store implements schemaflow.Store backed by the file system or
// by memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/schemaflow"
)

// Ext is the file extension of stored documents.
const Ext = ".msgpack"

var (
	_ schemaflow.Store = (*FileStore)(nil)
	_ schemaflow.Store = (*MemoryStore)(nil)
)

// FileStore keeps one msgpack encoded file per document in a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("schemaflow: store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("schemaflow: create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Get reads the document with the given id.
func (s *FileStore) Get(ctx context.Context, id string) (*schemaflow.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	b, err := os.ReadFile(path)
	s.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, schemaflow.NewNotFoundErrorWithID("document", id)
	}
	if err != nil {
		return nil, fmt.Errorf("schemaflow: read document %s: %w", id, err)
	}
	doc := &schemaflow.Document{}
	if err := msgpack.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("schemaflow: decode document %s: %w", id, err)
	}
	return doc, nil
}

// Put writes doc, replacing any previous version. The file is written to
// a temporary name and renamed into place.
func (s *FileStore) Put(ctx context.Context, doc *schemaflow.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(doc.ID)
	if err != nil {
		return err
	}
	b, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("schemaflow: encode document %s: %w", doc.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("schemaflow: write document %s: %w", doc.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("schemaflow: write document %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes the document file.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("schemaflow: delete document %s: %w", id, err)
	}
	return nil
}

// List returns the ids of the stored documents in sorted order.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entries, err := os.ReadDir(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("schemaflow: list documents: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), Ext))
	}
	slices.Sort(ids)
	return ids, nil
}

// path maps an id to its file. Ids that are not a single path element are
// rejected.
func (s *FileStore) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("schemaflow: invalid document id %q", id)
	}
	return filepath.Join(s.dir, id+Ext), nil
}

// MemoryStore keeps documents in memory. It is used by tests and by the
// server when no store directory is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*schemaflow.Document
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*schemaflow.Document)}
}

// Get returns a copy of the document.
func (s *MemoryStore) Get(_ context.Context, id string) (*schemaflow.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, schemaflow.NewNotFoundErrorWithID("document", id)
	}
	return doc.Clone(), nil
}

// Put stores a copy of doc.
func (s *MemoryStore) Put(_ context.Context, doc *schemaflow.Document) error {
	if doc.ID == "" {
		return errors.New("schemaflow: document id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc.Clone()
	return nil
}

// Delete removes the document.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// List returns the sorted document ids.
func (s *MemoryStore) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
