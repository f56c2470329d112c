package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug line on a charm logger. Failed
// operations are logged as warnings.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks logging to l, or to log.Default() when l is nil.
func NewLogHooks(l *log.Logger) LogHooks {
	if l == nil {
		l = log.Default()
	}
	return LogHooks{Logger: l.WithPrefix("hooks")}
}

// Install registers h for stores, the cache and storage.
func (h LogHooks) Install() {
	SetStoreHooks(h)
	SetCacheHooks(h)
	SetStorageHooks(h)
}

func (h LogHooks) OnOperation(op string, nodeCount int, err error) {
	if err != nil {
		h.Logger.Warn("store operation failed", "op", op, "nodes", nodeCount, "err", err)
		return
	}
	h.Logger.Debug("store operation", "op", op, "nodes", nodeCount)
}

func (h LogHooks) OnDraw(nodeCount int, d time.Duration) {
	h.Logger.Debug("draw", "nodes", nodeCount, "took", d)
}

func (h LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "key", keyType)
}

func (h LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "key", keyType)
}

func (h LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "key", keyType, "bytes", size)
}

func (h LogHooks) OnSave(_ context.Context, backend, name string, nodeCount int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("save failed", "backend", backend, "name", name, "err", err)
		return
	}
	h.Logger.Debug("saved", "backend", backend, "name", name, "nodes", nodeCount, "took", d)
}

func (h LogHooks) OnLoad(_ context.Context, backend, name string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("load failed", "backend", backend, "name", name, "err", err)
		return
	}
	h.Logger.Debug("loaded", "backend", backend, "name", name, "took", d)
}

var (
	_ StoreHooks   = LogHooks{}
	_ CacheHooks   = LogHooks{}
	_ StorageHooks = LogHooks{}
)
