package nodel

import (
	"time"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/observability"
)

// Redraw asks the renderer to draw the current diagram. While drawing is
// paused the request is remembered instead, and any number of requests made
// during one pause collapse into a single draw on resume.
func (s *Store) Redraw() {
	if s.suspend > 0 {
		s.owed = true
		s.logger.Debug("draw deferred", "depth", s.suspend)
		return
	}
	s.deliver()
}

// PauseDraw suspends drawing. Pauses nest: drawing resumes only after a
// matching number of [Store.UnpauseDraw] calls.
func (s *Store) PauseDraw() {
	s.suspend++
	s.logger.Debug("drawing paused", "depth", s.suspend)
}

// UnpauseDraw ends one pause. When the last pause ends and a redraw was
// requested meanwhile, exactly one draw is delivered. Unpausing when drawing
// is not paused fails with INVALID_STATE and changes nothing.
func (s *Store) UnpauseDraw() error {
	if s.suspend == 0 {
		return s.fail("unpause", nerrors.New(nerrors.ErrCodeInvalidState, "drawing is not paused"))
	}
	s.suspend--
	s.logger.Debug("drawing unpaused", "depth", s.suspend)
	if s.suspend == 0 && s.owed {
		s.deliver()
	}
	return nil
}

// DrawPaused reports whether drawing is currently suspended.
func (s *Store) DrawPaused() bool { return s.suspend > 0 }

// OnDraw registers fn to run right after every delivered draw. Callbacks run
// synchronously in registration order.
func (s *Store) OnDraw(fn func()) {
	if fn != nil {
		s.onDraw = append(s.onDraw, fn)
	}
}

func (s *Store) deliver() {
	s.owed = false
	start := time.Now()
	s.render.Draw(s.Graph())
	for _, fn := range s.onDraw {
		fn()
	}
	observability.Store().OnDraw(len(s.nodes), time.Since(start))
}

// =============================================================================
// Graph - read-only view for renderers
// =============================================================================

// Graph is the view of a diagram handed to renderers: the live node mapping
// plus the creation order for deterministic iteration. Renderers must treat
// it as read-only.
type Graph struct {
	Nodes Nodes
	Order []string
}

// Ordered returns every node in creation order.
func (g Graph) Ordered() []*Node {
	out := make([]*Node, 0, len(g.Order))
	for _, id := range g.Order {
		if n, ok := g.Nodes.Get(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// Visible returns the nodes not hidden by a collapsed group, in creation order.
func (g Graph) Visible() []*Node {
	var out []*Node
	for _, n := range g.Ordered() {
		if n.Visible(g.Nodes) {
			out = append(out, n)
		}
	}
	return out
}

// DrawEdge is one connector a renderer should draw.
type DrawEdge struct {
	From   string // visible source node
	To     string // visible target node
	Type   string // relation type
	Dashed bool   // target stands in for a node hidden inside a collapsed group
}

// Edges derives the connectors between visible nodes.
//
// A visible node draws the edges of its own children, or of its ends'
// children when it is a collapsed group. A child hidden inside a collapsed
// group is replaced by the outermost visible collapsed group containing it
// and the connector is dashed. Edges that would start and end on the same
// collapsed group are internal to it and dropped.
func (g Graph) Edges() []DrawEdge {
	visible := g.Visible()
	isVisible := make(map[string]bool, len(visible))
	for _, n := range visible {
		isVisible[n.ID] = true
	}

	seen := make(map[DrawEdge]bool)
	var out []DrawEdge
	for _, n := range visible {
		sources := []string{n.ID}
		if n.IsCollapsedGroup(true) {
			sources = n.Group.Ends
		}
		for _, srcID := range sources {
			src, ok := g.Nodes.Get(srcID)
			if !ok {
				continue
			}
			for _, e := range src.Children.Edges() {
				child, ok := g.Nodes.Get(e.ID)
				if !ok {
					continue
				}
				edge := DrawEdge{From: n.ID, To: child.ID, Type: e.Type}
				if !isVisible[child.ID] {
					rep := g.representative(child, isVisible)
					if rep == "" || rep == n.ID {
						continue
					}
					edge.To, edge.Dashed = rep, true
				}
				if !seen[edge] {
					seen[edge] = true
					out = append(out, edge)
				}
			}
		}
	}
	return out
}

// representative returns the visible collapsed group that hides n, or "".
func (g Graph) representative(n *Node, isVisible map[string]bool) string {
	groups := n.InvolvedGroups(g.Nodes)
	for i := len(groups) - 1; i >= 0; i-- {
		if grp := groups[i]; grp.Group.Collapsed && isVisible[grp.ID] {
			return grp.ID
		}
	}
	return ""
}
