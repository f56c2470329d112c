// Package pkg holds the public libraries of nodel.
//
// The packages build on each other from the bottom up:
//
//   - [errors]: coded errors shared by every layer
//   - [nodel]: the diagram model (nodes, typed relations, groups, redraws)
//   - [snapshot]: JSON and YAML encoding of diagram snapshots
//   - [render]: output formats, with the Graphviz renderer in render/nodelink
//   - [cache]: render cache backends (file, Redis, null)
//   - [storage]: snapshot persistence (memory, file, SQLite, Redis, MongoDB)
//   - [config]: the TOML configuration file
//   - [observability]: hooks for metrics and tracing
//
// A typical embedding loads a snapshot and draws it:
//
//	snap, err := snapshot.ReadFile("diagram.json")
//	if err != nil {
//	    return err
//	}
//	r := nodelink.New(config.Default().Render)
//	s := nodel.NewStore(r)
//	if err := s.Load(snap); err != nil {
//	    return err
//	}
//	s.Redraw()
//	fmt.Print(r.Last())
package pkg
