// Package render holds the output formats shared by diagram renderers.
//
// # Overview
//
// Renderers turn a [nodel.Graph] into a picture. The only renderer today is
// the Graphviz node-link renderer in the [nodelink] subpackage; this package
// names the formats it can produce so the CLI and the HTTP server can agree
// on them:
//
//	dot  → Graphviz source text
//	svg  → rendered in-process by Graphviz
//	png  → rendered in-process by Graphviz
//
// Use [ParseFormat] for user input and [FormatFromPath] for output files.
//
// [nodelink]: github.com/matzehuels/nodel/pkg/render/nodelink
package render
