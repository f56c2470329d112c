// Package nodelink renders nodel diagrams as Graphviz node-link drawings.
//
// # Overview
//
// [Renderer] is the presentation collaborator of a [nodel.Store]: it answers
// the store's template checks and, on every delivered redraw, converts the
// visible part of the diagram into Graphviz DOT. Node positions are pinned,
// so the drawing keeps the layout the user chose.
//
// # Usage
//
//	r := nodelink.New(cfg.Render)
//	s := nodel.NewStore(r)
//	// ... mutate s ...
//	svg, err := nodelink.RenderSVG(ctx, r.Last())
//
// # Templates
//
// Templates come from [config.RenderConfig]. A template label may contain
// {key} placeholders, filled from the node data. A collapsed group fills
// them from its group instead, with the keys name, collapsed and ends, and
// is drawn with a double outline.
//
// # Connectors
//
// Each edge is coloured and labelled by its relation type. Edges that point
// at a node hidden inside a collapsed group are redirected to that group and
// drawn dashed. [ConnectorKind] picks the connector shape from the distance
// between the two nodes; it is emitted as the SVG class of the edge.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering. No external Graphviz installation is needed.
package nodelink
