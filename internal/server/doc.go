// Package server exposes diagrams over a JSON HTTP API.
//
// A [Workspace] holds the open diagrams, one [nodel.Store] each, behind a
// single mutex: every request that touches a diagram runs to completion
// before the next one starts, which is the concurrency model the store
// expects. Diagrams are created on first use and persisted explicitly with
// the save route.
//
// Routes (all bodies are JSON):
//
//	GET    /healthz
//	GET    /diagrams                              open and stored diagrams
//	DELETE /diagrams/{name}                       close and delete
//	POST   /diagrams/{name}/save                  persist to storage
//	POST   /diagrams/{name}/open                  load from storage
//	GET    /diagrams/{name}/snapshot              ?format=yaml for YAML
//	PUT    /diagrams/{name}/snapshot              replace the diagram
//	POST   /diagrams/{name}/nodes                 {template, x, y, data}
//	GET    /diagrams/{name}/nodes/{id}
//	DELETE /diagrams/{name}/nodes/{id}
//	PUT    /diagrams/{name}/nodes/{id}/position   {x, y}
//	POST   /diagrams/{name}/nodes/{id}/group      {name}
//	POST   /diagrams/{name}/nodes/{id}/toggle     optional {collapsed}
//	GET    /diagrams/{name}/nodes/{id}/map        group subtree map
//	POST   /diagrams/{name}/maps                  {map, x, y}
//	GET    /diagrams/{name}/edges                 drawn connectors
//	POST   /diagrams/{name}/edges                 {parent, child, type}
//	DELETE /diagrams/{name}/edges                 ?parent=&child=&type=
//	POST   /diagrams/{name}/edges/toggle          {parent, child, type}
//	GET    /diagrams/{name}/edges/type            ?parent=&child=
//	PUT    /diagrams/{name}/edges/type            {parent, child, type, from}
//	GET    /diagrams/{name}/query/{kind}          heads, leaves, groups, visible
//	POST   /diagrams/{name}/batch                 {ops: [...]}, one redraw
//	POST   /diagrams/{name}/events                hit-test a pointer event
//	GET    /diagrams/{name}/render.{format}       dot, svg or png
//
// Errors are returned as {"code", "message"} with a status derived from the
// error code: not-found codes map to 404, invalid input to 400, rejected
// operations to 409 and everything else to 500.
package server
