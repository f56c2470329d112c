package nodel

import (
	"slices"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
)

// Snapshot is the exported form of a whole diagram: one record per node, in
// creation order. It is the only persisted shape nodel defines.
type Snapshot []Record

// Record is the exported form of a single node.
type Record struct {
	ID       string      `json:"id" yaml:"id"`
	Template string      `json:"template" yaml:"template"`
	X        float64     `json:"x" yaml:"x"`
	Y        float64     `json:"y" yaml:"y"`
	Data     Data        `json:"data" yaml:"data"`
	Parents  Relations   `json:"parents" yaml:"parents"`
	Children Relations   `json:"children" yaml:"children"`
	Group    GroupRecord `json:"group" yaml:"group"`
}

// GroupRecord is the exported group state. Plain nodes carry a null name and
// no ends; group heads always carry a (possibly empty) name.
type GroupRecord struct {
	Name      *string  `json:"name" yaml:"name"`
	Collapsed bool     `json:"collapsed" yaml:"collapsed"`
	Ends      []string `json:"ends" yaml:"ends"`
}

// IsGroup reports whether the record describes a group head. A record with a
// null name but non-empty ends is treated as an unnamed group.
func (g GroupRecord) IsGroup() bool { return g.Name != nil || len(g.Ends) > 0 }

// Record exports the node. The result shares no state with n.
func (n *Node) Record() Record {
	r := Record{
		ID:       n.ID,
		Template: n.Template,
		X:        n.X,
		Y:        n.Y,
		Data:     n.Data.Clone(),
		Parents:  n.Parents.Clone(),
		Children: n.Children.Clone(),
		Group:    GroupRecord{Ends: []string{}},
	}
	if n.Group != nil {
		name := n.Group.Name
		r.Group.Name = &name
		r.Group.Collapsed = n.Group.Collapsed
		r.Group.Ends = append(r.Group.Ends, n.Group.Ends...)
	}
	return r
}

// NodeFromRecord rebuilds a node from its exported form, preserving its ID.
func NodeFromRecord(r Record) *Node {
	n := &Node{
		ID:       r.ID,
		Template: r.Template,
		X:        r.X,
		Y:        r.Y,
		Data:     r.Data.Clone(),
		Parents:  r.Parents.Clone(),
		Children: r.Children.Clone(),
	}
	if r.Group.IsGroup() {
		n.Group = &Group{Collapsed: r.Group.Collapsed}
		if r.Group.Name != nil {
			n.Group.Name = *r.Group.Name
		}
		if len(r.Group.Ends) > 0 {
			n.Group.Ends = slices.Clone(r.Group.Ends)
		}
	}
	return n
}

// Snapshot exports every node in creation order.
func (s *Store) Snapshot() Snapshot {
	out := make(Snapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Record())
	}
	return out
}

// Load replaces the whole diagram with snap. The snapshot must have unique,
// non-empty IDs and symmetric adjacency between existing nodes; otherwise
// Load fails with INVALID_INPUT and the store is left unchanged. Group ends
// may name nodes that do not exist.
func (s *Store) Load(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return s.fail("load", err)
	}

	s.nodes = make(Nodes, len(snap))
	s.order = make([]string, 0, len(snap))
	for _, r := range snap {
		s.insert(NodeFromRecord(r))
	}

	s.logger.Debug("loaded snapshot", "nodes", len(snap))
	s.done("load", nil)
	s.Redraw()
	return nil
}

// Validate checks the structural invariants a snapshot must satisfy before
// it can be loaded.
func (snap Snapshot) Validate() error {
	byID := make(map[string]*Record, len(snap))
	for i := range snap {
		r := &snap[i]
		if r.ID == "" {
			return nerrors.New(nerrors.ErrCodeInvalidInput, "record %d has an empty id", i)
		}
		if _, dup := byID[r.ID]; dup {
			return nerrors.New(nerrors.ErrCodeInvalidInput, "duplicate node id %q", r.ID)
		}
		byID[r.ID] = r
	}

	for _, r := range snap {
		for _, e := range r.Children.Edges() {
			child, ok := byID[e.ID]
			switch {
			case !ok:
				return nerrors.New(nerrors.ErrCodeInvalidInput, "node %q has unknown child %q", r.ID, e.ID)
			case e.ID == r.ID:
				return nerrors.New(nerrors.ErrCodeInvalidInput, "node %q is connected to itself", r.ID)
			case !child.Parents.Has(e.Type, r.ID):
				return nerrors.New(nerrors.ErrCodeInvalidInput,
					"edge %q → %q (%s) missing from child parents", r.ID, e.ID, e.Type)
			}
		}
		for _, e := range r.Parents.Edges() {
			parent, ok := byID[e.ID]
			switch {
			case !ok:
				return nerrors.New(nerrors.ErrCodeInvalidInput, "node %q has unknown parent %q", r.ID, e.ID)
			case !parent.Children.Has(e.Type, r.ID):
				return nerrors.New(nerrors.ErrCodeInvalidInput,
					"edge %q → %q (%s) missing from parent children", e.ID, r.ID, e.Type)
			}
		}
	}
	return nil
}

// Equal reports whether two snapshots describe structurally identical diagrams.
func (snap Snapshot) Equal(other Snapshot) bool {
	if len(snap) != len(other) {
		return false
	}
	for i := range snap {
		if !snap[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two records are identical field by field.
func (r Record) Equal(o Record) bool {
	return r.ID == o.ID &&
		r.Template == o.Template &&
		r.X == o.X && r.Y == o.Y &&
		r.Data.Equal(o.Data) &&
		r.Parents.Equal(o.Parents) &&
		r.Children.Equal(o.Children) &&
		r.Group.Equal(o.Group)
}

// Equal reports whether two group records are identical.
func (g GroupRecord) Equal(o GroupRecord) bool {
	if (g.Name == nil) != (o.Name == nil) {
		return false
	}
	if g.Name != nil && *g.Name != *o.Name {
		return false
	}
	return g.Collapsed == o.Collapsed && slices.Equal(g.Ends, o.Ends)
}
