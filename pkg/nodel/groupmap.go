package nodel

import (
	"slices"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
)

// GroupMap is a portable copy of a group's bounded subtree. Positions are
// stored as offsets from the parent entry (the head's offset is zero), so a
// map can be instantiated anywhere on the canvas.
type GroupMap struct {
	ID       string      `json:"id" yaml:"id"`
	Template string      `json:"template" yaml:"template"`
	Data     Data        `json:"data" yaml:"data"`
	OffsetX  float64     `json:"offset_x" yaml:"offset_x"`
	OffsetY  float64     `json:"offset_y" yaml:"offset_y"`
	Children []GroupLink `json:"children,omitempty" yaml:"children,omitempty"`
}

// GroupLink connects a GroupMap entry to a child. Exactly one of Node and Ref
// is set: Ref names an entry already present elsewhere in the map, which
// keeps diamonds and cycles finite.
type GroupLink struct {
	Type string    `json:"type" yaml:"type"`
	Node *GroupMap `json:"node,omitempty" yaml:"node,omitempty"`
	Ref  string    `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// GroupMap exports the bounded subtree of the group headed by id: the head,
// its descendants, and its ends, without following children past an end.
func (s *Store) GroupMap(id string) (*GroupMap, error) {
	head, ok := s.nodes.Get(id)
	if !ok {
		return nil, s.notFound("group-map", id)
	}
	if head.Group == nil {
		return nil, s.fail("group-map", nerrors.New(nerrors.ErrCodeInvalidOperation, "node %q is not a group", id))
	}

	ends := make(map[string]bool, len(head.Group.Ends))
	for _, e := range head.Group.Ends {
		ends[e] = true
	}

	var build func(n *Node, originX, originY float64) *GroupMap
	mapped := Visited{}
	build = func(n *Node, originX, originY float64) *GroupMap {
		mapped.Add(n.ID)
		m := &GroupMap{
			ID:       n.ID,
			Template: n.Template,
			Data:     n.Data.Clone(),
			OffsetX:  n.X - originX,
			OffsetY:  n.Y - originY,
		}
		if ends[n.ID] && n != head {
			return m
		}
		for _, e := range n.Children.Edges() {
			child, ok := s.nodes.Get(e.ID)
			if !ok {
				continue
			}
			if mapped.Has(child.ID) {
				m.Children = append(m.Children, GroupLink{Type: e.Type, Ref: child.ID})
				continue
			}
			m.Children = append(m.Children, GroupLink{Type: e.Type, Node: build(child, n.X, n.Y)})
		}
		return m
	}
	return build(head, head.X, head.Y), nil
}

// Instantiate creates fresh nodes for every entry of m, placing the head at
// (x, y) and each entry at its offset from its parent, and recreates the
// links between them. It returns the new head ID. Templates are checked up
// front; if a node still cannot be created, the nodes created so far are
// removed again and the store is left as it was. One redraw is delivered.
func (s *Store) Instantiate(m *GroupMap, x, y float64) (string, error) {
	if m == nil {
		return "", s.fail("instantiate", nerrors.New(nerrors.ErrCodeInvalidInput, "empty group map"))
	}
	if err := s.verifyMap(m, Visited{}); err != nil {
		return "", s.fail("instantiate", err)
	}

	s.PauseDraw()
	defer func() { _ = s.UnpauseDraw() }()

	created := make(map[string]*Node)
	var order []*Node
	type pending struct {
		parent *Node
		link   GroupLink
	}
	var refs []pending

	var build func(gm *GroupMap, px, py float64) (*Node, error)
	build = func(gm *GroupMap, px, py float64) (*Node, error) {
		id, err := s.AddNode(gm.Template, px+gm.OffsetX, py+gm.OffsetY, gm.Data)
		if err != nil {
			return nil, err
		}
		n := s.nodes[id]
		created[gm.ID] = n
		order = append(order, n)
		for _, link := range gm.Children {
			if link.Node == nil {
				refs = append(refs, pending{parent: n, link: link})
				continue
			}
			child, err := build(link.Node, n.X, n.Y)
			if err != nil {
				return nil, err
			}
			s.connect(n, child, relationOrDefault(link.Type))
		}
		return n, nil
	}
	head, err := build(m, x-m.OffsetX, y-m.OffsetY)
	if err != nil {
		for _, n := range slices.Backward(order) {
			s.remove(n)
		}
		s.logger.Debug("rolled back group map", "entry", m.ID, "removed", len(order))
		return "", s.fail("instantiate", err)
	}

	for _, p := range refs {
		if child, ok := created[p.link.Ref]; ok && child != p.parent {
			s.connect(p.parent, child, relationOrDefault(p.link.Type))
		}
	}

	s.logger.Debug("instantiated group map", "head", head.ID, "nodes", len(created))
	s.done("instantiate", nil)
	s.Redraw()
	return head.ID, nil
}

func (s *Store) verifyMap(m *GroupMap, seen Visited) error {
	if seen.Has(m.ID) {
		return nerrors.New(nerrors.ErrCodeInvalidInput, "group map repeats entry %q", m.ID)
	}
	seen.Add(m.ID)
	if !s.render.Verify(m.Template, true) {
		return nerrors.New(nerrors.ErrCodeTemplateNotFound, "template %q not found", m.Template)
	}
	for _, link := range m.Children {
		if link.Node == nil {
			continue
		}
		if err := s.verifyMap(link.Node, seen); err != nil {
			return err
		}
	}
	return nil
}
