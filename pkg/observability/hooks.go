// Package observability lets a binary observe graph stores, the render cache
// and snapshot storage without those packages depending on a metrics or
// tracing backend.
//
// Libraries report events through [Store], [Cache] and [Storage]. A binary
// installs implementations once at startup:
//
//	observability.SetStoreHooks(myStoreHooks{})
//	observability.SetCacheHooks(myCacheHooks{})
//
// Until then every hook is a no-op. [LogHooks] implements all three
// interfaces on top of a charm logger.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// StoreHooks receives events from graph stores.
type StoreHooks interface {
	// OnOperation is called after every mutating store operation with the
	// node count afterwards. err is nil on success.
	OnOperation(op string, nodeCount int, err error)

	// OnDraw is called once per delivered redraw.
	OnDraw(nodeCount int, duration time.Duration)
}

// CacheHooks receives render cache events. keyType names the kind of entry,
// e.g. "render".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// StorageHooks receives events from snapshot persistence backends.
type StorageHooks interface {
	OnSave(ctx context.Context, backend, name string, nodeCount int, duration time.Duration, err error)
	OnLoad(ctx context.Context, backend, name string, duration time.Duration, err error)
}

type NoopStoreHooks struct{}

func (NoopStoreHooks) OnOperation(string, int, error) {}
func (NoopStoreHooks) OnDraw(int, time.Duration)      {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopStorageHooks struct{}

func (NoopStorageHooks) OnSave(context.Context, string, string, int, time.Duration, error) {}
func (NoopStorageHooks) OnLoad(context.Context, string, string, time.Duration, error)      {}

// hookSet is swapped as a whole so readers never see a partial update.
type hookSet struct {
	store   StoreHooks
	cache   CacheHooks
	storage StorageHooks
}

var current atomic.Pointer[hookSet]

func init() { Reset() }

func update(f func(*hookSet)) {
	for {
		old := current.Load()
		next := *old
		f(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetStoreHooks installs h. A nil h is ignored.
func SetStoreHooks(h StoreHooks) {
	if h != nil {
		update(func(s *hookSet) { s.store = h })
	}
}

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetStorageHooks installs h. A nil h is ignored.
func SetStorageHooks(h StorageHooks) {
	if h != nil {
		update(func(s *hookSet) { s.storage = h })
	}
}

func Store() StoreHooks     { return current.Load().store }
func Cache() CacheHooks     { return current.Load().cache }
func Storage() StorageHooks { return current.Load().storage }

// Reset restores the no-op hooks.
func Reset() {
	current.Store(&hookSet{
		store:   NoopStoreHooks{},
		cache:   NoopCacheHooks{},
		storage: NoopStorageHooks{},
	})
}
