package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data. Snapshots, renderer settings and file
// cache paths are all addressed by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// renderKey namespaces the hash of a snapshot hash and its render options.
func renderKey(snapshotHash string, opts RenderKeyOpts) string {
	data, _ := json.Marshal(struct {
		Snapshot string        `json:"snapshot"`
		Opts     RenderKeyOpts `json:"opts"`
	}{snapshotHash, opts})
	return "render:" + Hash(data)
}
