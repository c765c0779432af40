package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNotFound signals that no catalog document exists for a key. Catalog
// coverage is incomplete for some key combinations; callers treat this as a
// normal condition, not a failure.
var ErrNotFound = errors.New("catalog: document not found")

// DocumentStore is the read side of the catalog document storage. Keys
// follow the CatalogKey.ID scheme, e.g. "DRY-COMPLETE-2".
type DocumentStore interface {
	// Get returns the raw document text for a key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Keys lists every stored document key.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// WritableStore extends DocumentStore with the import path used by catalog
// tooling. The serving path never writes.
type WritableStore interface {
	DocumentStore
	Put(ctx context.Context, key, body string) error
}

// FSStore serves catalog documents from a directory of "<KEY>.csv" files,
// the layout the merchandising team hand-maintains.
type FSStore struct {
	dir string
}

// NewFS creates a filesystem-backed document store rooted at dir.
func NewFS(dir string) *FSStore {
	return &FSStore{dir: dir}
}

func (s *FSStore) Get(_ context.Context, key string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, key+".csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", eris.Wrapf(err, "catalog: read document %s", key)
	}
	return string(raw), nil
}

func (s *FSStore) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: list documents in %s", s.dir)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".csv"); ok {
			keys = append(keys, name)
		}
	}
	return keys, nil
}

func (s *FSStore) Put(_ context.Context, key, body string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrapf(err, "catalog: create directory %s", s.dir)
	}
	path := filepath.Join(s.dir, key+".csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return eris.Wrapf(err, "catalog: write document %s", key)
	}
	return nil
}

func (s *FSStore) Close() error { return nil }
