package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/nodel/pkg/config"
	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
	"github.com/matzehuels/nodel/pkg/observability"
	"github.com/matzehuels/nodel/pkg/snapshot"
)

// ErrNotFound is returned (wrapped) when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Info describes a stored snapshot without loading it.
type Info struct {
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists snapshots by name.
type Store interface {
	// Save creates or replaces the snapshot stored under name.
	Save(ctx context.Context, name string, snap nodel.Snapshot) error

	// Load returns the snapshot stored under name.
	Load(ctx context.Context, name string) (nodel.Snapshot, error)

	// Delete removes the snapshot stored under name.
	Delete(ctx context.Context, name string) error

	// List returns every stored snapshot sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Close releases backend resources.
	Close() error
}

// Open creates the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.StorageMemory:
		s = NewMemoryStore()
	case config.StorageFile:
		s, err = NewFileStore(config.ExpandHome(cfg.Dir))
	case config.StorageSQLite:
		s, err = NewSQLiteStore(ctx, config.ExpandHome(cfg.SQLitePath))
	case config.StorageRedis:
		s, err = NewRedisStore(ctx, cfg.RedisURL)
	case config.StorageMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, nerrors.New(nerrors.ErrCodeUnsupported, "unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}
	return Instrument(s, cfg.Backend), nil
}

// notFound builds the error returned for a missing snapshot.
func notFound(name string) error {
	return nerrors.Wrap(nerrors.ErrCodeSnapshotNotFound, ErrNotFound, "snapshot %q not found", name)
}

// encode validates name and returns the canonical JSON of snap.
func encode(name string, snap nodel.Snapshot) ([]byte, error) {
	if err := nerrors.ValidateName(name); err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snapshot.Marshal(snap, snapshot.FormatJSON)
}

func sortInfos(infos []Info) {
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
}

func decode(name string, data []byte) (nodel.Snapshot, error) {
	snap, err := snapshot.Unmarshal(data, snapshot.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", name, err)
	}
	return snap, nil
}

// =============================================================================
// Instrumentation
// =============================================================================

type instrumented struct {
	Store
	backend string
}

// Instrument wraps s so that Save and Load report to observability.Storage().
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (i *instrumented) Save(ctx context.Context, name string, snap nodel.Snapshot) error {
	start := time.Now()
	err := i.Store.Save(ctx, name, snap)
	observability.Storage().OnSave(ctx, i.backend, name, len(snap), time.Since(start), err)
	return err
}

func (i *instrumented) Load(ctx context.Context, name string) (nodel.Snapshot, error) {
	start := time.Now()
	snap, err := i.Store.Load(ctx, name)
	observability.Storage().OnLoad(ctx, i.backend, name, time.Since(start), err)
	return snap, err
}
