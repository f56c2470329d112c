package nodel

import "slices"

// Visited is the set of node IDs a traversal has already entered.
//
// Every traversal in this package checks and fills a Visited before expanding
// a node, so all of them terminate on cyclic graphs. Passing the same Visited
// to several calls makes later calls skip what earlier ones covered.
type Visited map[string]struct{}

// Has reports whether id was visited.
func (v Visited) Has(id string) bool {
	_, ok := v[id]
	return ok
}

// Add marks id as visited.
func (v Visited) Add(id string) { v[id] = struct{}{} }

// Leaves returns the leaf IDs reachable from n through children of any
// relation type, in depth-first order. A node without children is its own
// sole leaf.
func (n *Node) Leaves(nodes Nodes) []string {
	return n.CollectLeaves(nodes, Visited{})
}

// CollectLeaves is [Node.Leaves] with a caller-owned visited set. It returns
// nothing if n is already in visited.
func (n *Node) CollectLeaves(nodes Nodes, visited Visited) []string {
	var leaves []string
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(cur.ID) {
			continue
		}
		visited.Add(cur.ID)

		if cur.IsLeaf() {
			leaves = append(leaves, cur.ID)
			continue
		}
		stack = pushReversed(stack, nodes, cur.Children.Edges(), visited)
	}
	return leaves
}

// AncestorGroups returns the IDs of every group head reachable upward from n
// through parents of any relation type, nearest first. n itself is never
// included, even when a cycle leads back to it.
func (n *Node) AncestorGroups(nodes Nodes) []string {
	return n.CollectAncestorGroups(nodes, Visited{})
}

// CollectAncestorGroups is [Node.AncestorGroups] with a caller-owned visited set.
func (n *Node) CollectAncestorGroups(nodes Nodes, visited Visited) []string {
	if visited.Has(n.ID) {
		return nil
	}
	visited.Add(n.ID)

	var groups []string
	stack := pushReversed(nil, nodes, n.Parents.Edges(), visited)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(cur.ID) {
			continue
		}
		visited.Add(cur.ID)

		if cur.IsGroup() {
			groups = append(groups, cur.ID)
		}
		stack = pushReversed(stack, nodes, cur.Parents.Edges(), visited)
	}
	return groups
}

// ContainsDescendant reports whether target is n itself or reachable from n
// through children. A branch that reaches stop before finding target is not
// expanded further. An empty stop bounds nothing.
func (n *Node) ContainsDescendant(nodes Nodes, target, stop string) bool {
	visited := Visited{}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(cur.ID) {
			continue
		}
		visited.Add(cur.ID)

		if cur.ID == target {
			return true
		}
		if stop != "" && cur.ID == stop {
			continue
		}
		stack = pushReversed(stack, nodes, cur.Children.Edges(), visited)
	}
	return false
}

// GroupContains reports whether id lies inside the bounded subtree of the
// group headed by n, testing one bound per entry of Group.Ends. Ends whose
// nodes no longer exist are skipped. A plain node contains nothing.
func (n *Node) GroupContains(nodes Nodes, id string) bool {
	if n.Group == nil {
		return false
	}
	for _, end := range n.Group.Ends {
		if _, ok := nodes.Get(end); !ok {
			continue
		}
		if n.ContainsDescendant(nodes, id, end) {
			return true
		}
	}
	return false
}

// InvolvedGroups returns the ancestor group heads whose bounded subtree
// actually contains n, nearest first.
func (n *Node) InvolvedGroups(nodes Nodes) []*Node {
	var groups []*Node
	for _, id := range n.AncestorGroups(nodes) {
		g, ok := nodes.Get(id)
		if !ok || g.ID == n.ID {
			continue
		}
		if g.GroupContains(nodes, n.ID) {
			groups = append(groups, g)
		}
	}
	return groups
}

// Visible reports whether no group that n is nested inside is collapsed.
func (n *Node) Visible(nodes Nodes) bool {
	return !slices.ContainsFunc(n.InvolvedGroups(nodes), func(g *Node) bool {
		return g.Group.Collapsed
	})
}

// pushReversed pushes the unvisited, existing neighbors of edges onto stack in
// reverse so they pop in their stored order.
func pushReversed(stack []*Node, nodes Nodes, edges []Edge, visited Visited) []*Node {
	for i := len(edges) - 1; i >= 0; i-- {
		next, ok := nodes.Get(edges[i].ID)
		if !ok || visited.Has(next.ID) {
			continue
		}
		stack = append(stack, next)
	}
	return stack
}
