package cache

// ScopedKeyer wraps a Keyer with a prefix, so several diagrams or
// deployments can share one Redis without colliding.
//
// Example usage:
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "nodel:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(snapshotHash, opts)
}
