package nodel

import (
	"math"
	"slices"
)

// Group marks a node as the collapsible head of a subtree.
//
// Ends is the set of leaf IDs reachable from the head when the group was
// created. It is a snapshot: growing the graph below the head afterwards does
// not grow Ends, and IDs in Ends may dangle once their nodes are deleted.
type Group struct {
	Name      string
	Collapsed bool
	Ends      []string
}

// Clone returns a deep copy of g, or nil for a nil group.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	return &Group{Name: g.Name, Collapsed: g.Collapsed, Ends: slices.Clone(g.Ends)}
}

// Node is a vertex of the diagram.
//
// A node with a nil Group is plain; a non-nil Group makes it a group head.
// Parents and Children are kept symmetric by [Store]: c is in n.Children
// under type t exactly when n is in c.Parents under t.
type Node struct {
	ID       string
	Template string
	X, Y     float64
	Data     Data
	Parents  Relations
	Children Relations
	Group    *Group
}

// Nodes is the ID → node mapping every traversal runs over.
type Nodes map[string]*Node

// Get returns the node with id, tolerating dangling IDs.
func (ns Nodes) Get(id string) (*Node, bool) {
	n, ok := ns[id]
	return n, ok && n != nil
}

// IsLeaf reports whether the node has no children under any relation type.
func (n *Node) IsLeaf() bool { return n.Children.Empty() }

// IsHead reports whether the node has no parents under any relation type.
func (n *Node) IsHead() bool { return n.Parents.Empty() }

// IsGroup reports whether the node is a group head.
func (n *Node) IsGroup() bool { return n.Group != nil }

// IsCollapsedGroup reports whether the node is a group head whose collapsed
// state equals collapsed.
func (n *Node) IsCollapsedGroup(collapsed bool) bool {
	return n.Group != nil && n.Group.Collapsed == collapsed
}

// IsDirectChild reports whether id is a child of n under relType.
func (n *Node) IsDirectChild(id, relType string) bool {
	return n.Children.Has(relType, id)
}

// DistanceTo returns the euclidean distance between the two node positions.
func (n *Node) DistanceTo(other *Node) float64 {
	return math.Hypot(n.X-other.X, n.Y-other.Y)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	return &Node{
		ID:       n.ID,
		Template: n.Template,
		X:        n.X,
		Y:        n.Y,
		Data:     n.Data.Clone(),
		Parents:  n.Parents.Clone(),
		Children: n.Children.Clone(),
		Group:    n.Group.Clone(),
	}
}
