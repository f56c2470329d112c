package cache

// Keyer builds cache keys. Keys are namespaced by kind so backends can share
// one keyspace with other data.
type Keyer interface {
	// RenderKey identifies rendered output of the snapshot with the given
	// content hash.
	RenderKey(snapshotHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the render settings that change the output bytes.
type RenderKeyOpts struct {
	Format     string `json:"format"`      // "dot", "svg" or "png"
	ConfigHash string `json:"config_hash"` // hash of the template and relation styles
}

// DefaultKeyer hashes every key component.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey returns "render:<sha256>" over the hash and options.
func (DefaultKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return renderKey(snapshotHash, opts)
}
