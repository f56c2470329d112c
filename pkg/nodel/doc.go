// Package nodel provides the in-memory model of an interactive node-link
// diagram: nodes with typed parent/child adjacency, collapsible groups, and a
// store that owns them and batches redraw requests.
//
// # Overview
//
// A diagram is a set of [Node] values kept by a [Store]. Edges are not stored
// separately: each node records its neighbors in two [Relations] maps keyed
// by relation type ("default" unless the caller names another). The store
// keeps both sides symmetric, so c is a child of p under t exactly when p is
// a parent of c under t. Cycles are allowed, and every traversal carries a
// [Visited] set so it terminates on them.
//
// # Basic Usage
//
// Create a store with [NewStore], add nodes with [Store.AddNode], and connect
// them with [Store.ConnectNodes]:
//
//	s := nodel.NewStore(nil)
//	root, _ := s.AddNode("box", 0, 0, nodel.NewData("name", "root"))
//	leaf, _ := s.AddNode("box", 0, 100, nodel.NewData("name", "leaf"))
//	_ = s.ConnectNodes(root, leaf, "")
//
// The [Renderer] passed to NewStore decides which templates exist and
// receives a [Graph] view every time the store draws.
//
// # Groups
//
// Any node can become a group head with [Store.CreateGroup] or implicitly via
// [Store.ToggleGroup]. A group records the leaves reachable from its head at
// creation time as its ends. Its members are the nodes on paths from the head
// to one of those ends. A collapsed group hides its members: [Node.Visible]
// is false for every node with a collapsed group among [Node.InvolvedGroups].
// [Graph.Edges] redirects connectors into hidden nodes to the collapsed head
// that stands in for them.
//
// # Redraw Batching
//
// Every successful mutation requests a redraw. Between [Store.PauseDraw] and
// the matching [Store.UnpauseDraw], requests are only remembered, and one draw
// is delivered when the outermost pause ends. Pauses nest.
//
// # Snapshots
//
// [Store.Snapshot] exports the diagram as a list of [Record] values and
// [Store.Load] replaces it from one. Records are plain data with JSON and YAML
// tags; see package snapshot for file IO.
//
// # Concurrency
//
// A Store is single-threaded. Callers that share one across goroutines must
// serialize access, as the HTTP server in this module does.
package nodel
