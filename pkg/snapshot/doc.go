// Package snapshot reads and writes diagram snapshots as JSON or YAML.
//
// A snapshot is the exported form of a [nodel.Store]: a list of node records
// in creation order. This package is the serialization boundary used by the
// CLI, the HTTP server, the storage backends, and the render cache.
//
// # Formats
//
// JSON is the canonical format. YAML carries the same fields and is meant for
// hand-written fixtures. The format of a file is chosen from its extension
// with [FormatFromPath]:
//
//	.json        → [FormatJSON]
//	.yaml, .yml  → [FormatYAML]
//
// A record looks like this in JSON:
//
//	{
//	  "id": "n1",
//	  "template": "box",
//	  "x": 0,
//	  "y": 0,
//	  "data": {"name": "api"},
//	  "parents": {},
//	  "children": {"default": ["n2"]},
//	  "group": {"name": null, "collapsed": false, "ends": []}
//	}
//
// Relation types and data keys keep their order across a round trip.
//
// # Validation
//
// Every read validates the decoded snapshot with [nodel.Snapshot.Validate],
// so a snapshot returned by this package can always be loaded.
//
// # Hashing
//
// [Hash] returns a content hash of the canonical JSON encoding, used as the
// cache key component for rendered output.
package snapshot
