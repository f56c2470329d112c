package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodel/pkg/nodel"
	"github.com/matzehuels/nodel/pkg/render"
)

// Connector is the shape of an edge between two nodes.
type Connector string

// Connector shapes.
const (
	ConnectorLoop     Connector = "loop"
	ConnectorStraight Connector = "straight"
	ConnectorCurved   Connector = "curved"
)

// MinCurveDistance is the node distance from which connectors are curved.
const MinCurveDistance = 300

// ConnectorKind picks the connector between from and to: a loop for a node
// connected to itself, a straight line for nearby nodes and a curve otherwise.
func ConnectorKind(from, to *nodel.Node) Connector {
	switch {
	case from.ID == to.ID:
		return ConnectorLoop
	case from.DistanceTo(to) < MinCurveDistance:
		return ConnectorStraight
	default:
		return ConnectorCurved
	}
}

// ToDOT converts the visible part of g to Graphviz DOT. Nodes are pinned at
// their diagram positions, shifted and scaled by the viewport; the diagram's
// y axis points down, so it is flipped for Graphviz.
func (r *Renderer) ToDOT(g nodel.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [penwidth=3, arrowsize=0.8];\n")
	buf.WriteString("\n")

	for _, n := range g.Visible() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(r.nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		from, _ := g.Nodes.Get(e.From)
		to, _ := g.Nodes.Get(e.To)
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(r.edgeAttrs(e, from, to), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func (r *Renderer) nodeAttrs(n *nodel.Node) []string {
	x := (n.X + r.view.X) * r.view.Scale
	y := -(n.Y + r.view.Y) * r.view.Scale
	attrs := []string{
		fmt.Sprintf("label=%q", r.Label(n)),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(x), fmtFloat(y)),
	}
	if t, ok := r.templates[n.Template]; ok {
		if t.Shape != "" {
			attrs = append(attrs, "shape="+t.Shape)
		}
		if t.Color != "" {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", t.Color))
		}
	}
	if n.IsCollapsedGroup(true) {
		attrs = append(attrs, "style=\"rounded,filled,bold\"", "peripheries=2", "class=\"group\"")
	}
	return attrs
}

func (r *Renderer) edgeAttrs(e nodel.DrawEdge, from, to *nodel.Node) []string {
	attrs := []string{fmt.Sprintf("color=%q", r.ConnectionColor(e.Type))}
	if label := r.ConnectionLabel(e.Type); label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", label))
	}
	if e.Dashed {
		attrs = append(attrs, "style=dashed")
	}
	if from != nil && to != nil {
		attrs = append(attrs, fmt.Sprintf("class=%q", ConnectorKind(from, to)))
	}
	return attrs
}

// fmtFloat formats f without trailing zeros, printing negative zero as 0.
func fmtFloat(f float64) string {
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// =============================================================================
// Graphviz rendering
// =============================================================================

// Render renders DOT source in format. DOT is returned unchanged.
func Render(ctx context.Context, dot string, format render.Format) ([]byte, error) {
	switch format {
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatSVG:
		return RenderSVG(ctx, dot)
	case render.FormatPNG:
		return RenderPNG(ctx, dot)
	default:
		_, err := render.ParseFormat(string(format))
		return nil, err
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderGraphviz(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderGraphviz(ctx, dot, graphviz.PNG)
}

func renderGraphviz(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
