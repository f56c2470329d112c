package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
)

// FileStore is a file-based snapshot store for CLI usage.
// Snapshots are stored as <dir>/<name>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file store rooted at dir.
// If dir is empty, defaults to ~/.local/share/nodel/diagrams.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "share", "nodel", "diagrams")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the snapshot files.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Save(ctx context.Context, name string, snap nodel.Snapshot) error {
	data, err := encode(name, snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(name), data, 0600); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, name string) (nodel.Snapshot, error) {
	if err := nerrors.ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name)
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return decode(name, data)
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := nerrors.ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot file: %w", err)
	}
	return nil
}

// List reads every snapshot file to count its nodes. Files that fail to
// decode are skipped.
func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		snap, err := decode(name, data)
		if err != nil {
			continue
		}
		infos = append(infos, Info{Name: name, Nodes: len(snap), UpdatedAt: fi.ModTime().UTC()})
	}
	sortInfos(infos)
	return infos, nil
}

// Close does nothing for file store.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
