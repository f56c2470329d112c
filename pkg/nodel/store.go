package nodel

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/observability"
)

// Renderer is the presentation collaborator of a [Store].
//
// Verify reports whether template is known (exists=true) or unknown
// (exists=false). Draw receives a read-only view of the whole diagram every
// time the store delivers a redraw; it must not mutate the nodes it is given.
type Renderer interface {
	Verify(template string, exists bool) bool
	Draw(g Graph)
}

// NopRenderer accepts every non-empty template and draws nothing.
type NopRenderer struct{}

// Verify reports exists for any non-empty template.
func (NopRenderer) Verify(template string, exists bool) bool { return (template != "") == exists }

// Draw does nothing.
func (NopRenderer) Draw(Graph) {}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger that receives diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the random UUID generator used by AddNode.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Store owns the nodes of one diagram and is the only way to mutate their
// structure. Every public mutation either succeeds completely or returns an
// error from pkg/errors and leaves the graph untouched.
//
// Store is not safe for concurrent use; callers that share one across
// goroutines must serialize access themselves.
type Store struct {
	nodes  Nodes
	order  []string
	render Renderer
	logger *log.Logger
	newID  func() string

	suspend int
	owed    bool
	onDraw  []func()
}

// NewStore creates an empty store drawing through r. A nil r is replaced by
// [NopRenderer].
func NewStore(r Renderer, opts ...Option) *Store {
	if r == nil {
		r = NopRenderer{}
	}
	s := &Store{
		nodes:  make(Nodes),
		render: r,
		logger: log.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Lookups
// =============================================================================

// IsEmpty reports whether the store holds no nodes.
func (s *Store) IsEmpty() bool { return len(s.nodes) == 0 }

// Len returns the number of nodes.
func (s *Store) Len() int { return len(s.nodes) }

// Exists reports whether a node with id exists.
func (s *Store) Exists(id string) bool {
	_, ok := s.nodes.Get(id)
	return ok
}

// Node returns the live node with id. Callers may assign its position and
// data directly; structural fields must only change through the store.
func (s *Store) Node(id string) (*Node, bool) { return s.nodes.Get(id) }

// Nodes returns the live nodes in creation order.
func (s *Store) Nodes() []*Node {
	out := make([]*Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Graph returns a read-only view of the current diagram.
func (s *Store) Graph() Graph { return Graph{Nodes: s.nodes, Order: slices.Clone(s.order)} }

// Heads returns the nodes without parents, in creation order.
func (s *Store) Heads() []*Node { return s.filter((*Node).IsHead) }

// Leaves returns the nodes without children, in creation order.
func (s *Store) Leaves() []*Node { return s.filter((*Node).IsLeaf) }

// Groups returns the group heads, in creation order.
func (s *Store) Groups() []*Node { return s.filter((*Node).IsGroup) }

// VisibleNodes returns the nodes not hidden by a collapsed group.
func (s *Store) VisibleNodes() []*Node { return s.Graph().Visible() }

func (s *Store) filter(keep func(*Node) bool) []*Node {
	var out []*Node
	for _, id := range s.order {
		if n := s.nodes[id]; keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// =============================================================================
// Node lifecycle
// =============================================================================

// AddNode creates a node from template at (x, y) and returns its fresh ID.
// It fails with TEMPLATE_NOT_FOUND when the renderer does not know template.
func (s *Store) AddNode(template string, x, y float64, data Data) (string, error) {
	if !s.render.Verify(template, true) {
		return "", s.fail("add", nerrors.New(nerrors.ErrCodeTemplateNotFound, "template %q not found", template))
	}

	id := s.newID()
	for id == "" || s.Exists(id) {
		id = uuid.NewString()
	}
	s.insert(&Node{ID: id, Template: template, X: x, Y: y, Data: data.Clone()})
	s.logger.Debug("added node", "id", id, "template", template)
	s.done("add", nil)
	s.Redraw()
	return id, nil
}

func (s *Store) insert(n *Node) {
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
}

// DeleteNode removes the node and retracts every adjacency entry that
// references it. Group ends naming the node are left dangling.
func (s *Store) DeleteNode(id string) error {
	n, ok := s.nodes.Get(id)
	if !ok {
		return s.notFound("delete", id)
	}

	s.remove(n)
	s.logger.Debug("deleted node", "id", id)
	s.done("delete", nil)
	s.Redraw()
	return nil
}

// remove drops n and retracts its adjacency entries from its neighbours.
func (s *Store) remove(n *Node) {
	delete(s.nodes, n.ID)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == n.ID })

	// Edges() copies, so retraction never mutates a list being iterated.
	for _, e := range n.Children.Edges() {
		if child, ok := s.nodes.Get(e.ID); ok {
			child.Parents.Remove(e.Type, n.ID)
		}
	}
	for _, e := range n.Parents.Edges() {
		if parent, ok := s.nodes.Get(e.ID); ok {
			parent.Children.Remove(e.Type, n.ID)
		}
	}
}

// MoveNode sets the position of a node. Moving a collapsed group also shifts
// every node in its Ends by the same delta; intermediate nodes between the
// head and its ends stay where they are.
func (s *Store) MoveNode(id string, x, y float64) error {
	n, ok := s.nodes.Get(id)
	if !ok {
		return s.notFound("move", id)
	}

	dx, dy := x-n.X, y-n.Y
	n.X, n.Y = x, y

	if n.IsCollapsedGroup(true) {
		for _, endID := range n.Group.Ends {
			end, ok := s.nodes.Get(endID)
			if !ok || end == n {
				continue
			}
			end.X += dx
			end.Y += dy
		}
	}

	s.logger.Debug("moved node", "id", id, "x", x, "y", y)
	s.done("move", nil)
	s.Redraw()
	return nil
}

// =============================================================================
// Connections
// =============================================================================

// ConnectNodes adds the edge parent → child under relType ("" means
// [DefaultRelation]). Connecting an existing edge again changes nothing.
func (s *Store) ConnectNodes(parentID, childID, relType string) error {
	relType = relationOrDefault(relType)
	parent, child, err := s.pair("connect", parentID, childID)
	if err != nil {
		return err
	}
	if parent == child {
		return s.fail("connect", nerrors.New(nerrors.ErrCodeInvalidOperation, "cannot connect %s to itself", parentID))
	}

	if s.connect(parent, child, relType) {
		s.logger.Debug("connected", "parent", parentID, "child", childID, "type", relType)
		s.Redraw()
	}
	s.done("connect", nil)
	return nil
}

// DisconnectNodes removes the edge parent → child under relType ("" means
// [DefaultRelation]). Removing an edge that does not exist is a no-op.
func (s *Store) DisconnectNodes(parentID, childID, relType string) error {
	relType = relationOrDefault(relType)
	parent, child, err := s.pair("disconnect", parentID, childID)
	if err != nil {
		return err
	}

	if s.disconnect(parent, child, relType) {
		s.logger.Debug("disconnected", "parent", parentID, "child", childID, "type", relType)
		s.Redraw()
	} else {
		s.logger.Debug("no edge to disconnect", "parent", parentID, "child", childID, "type", relType)
	}
	s.done("disconnect", nil)
	return nil
}

// ToggleConnect disconnects parent → child under relType if that edge exists
// and connects it otherwise. When parent is a collapsed group the toggle is
// applied from each of its ends instead. Exactly one redraw is requested.
func (s *Store) ToggleConnect(parentID, childID, relType string) error {
	relType = relationOrDefault(relType)
	parent, child, err := s.pair("toggle-connect", parentID, childID)
	if err != nil {
		return err
	}

	sources := []*Node{parent}
	if parent.IsCollapsedGroup(true) {
		sources = sources[:0]
		for _, endID := range parent.Group.Ends {
			if end, ok := s.nodes.Get(endID); ok {
				sources = append(sources, end)
			}
		}
	}

	if slices.Contains(sources, child) {
		if len(sources) == 1 {
			return s.fail("toggle-connect", nerrors.New(nerrors.ErrCodeInvalidOperation, "cannot connect %s to itself", childID))
		}
		s.logger.Debug("skipping group end equal to child", "group", parentID, "child", childID)
	}

	s.PauseDraw()
	for _, src := range sources {
		if src == child {
			continue
		}
		if src.IsDirectChild(child.ID, relType) {
			s.disconnect(src, child, relType)
		} else {
			s.connect(src, child, relType)
		}
	}
	s.Redraw()
	s.done("toggle-connect", nil)
	return s.UnpauseDraw()
}

// ConnectionType returns the relation type of the edge parent → child. When
// several types connect the pair, the one first used on parent wins.
func (s *Store) ConnectionType(parentID, childID string) (string, error) {
	parent, _, err := s.pair("connection-type", parentID, childID)
	if err != nil {
		return "", err
	}
	t, ok := parent.Children.TypeOf(childID)
	if !ok {
		return "", s.fail("connection-type", nerrors.New(nerrors.ErrCodeNotFound, "no edge %s → %s", parentID, childID))
	}
	return t, nil
}

// SetConnectionType moves the edge parent → child from its current relation
// type (see [Store.ConnectionType]) to newType.
func (s *Store) SetConnectionType(parentID, childID, newType string) error {
	oldType, err := s.ConnectionType(parentID, childID)
	if err != nil {
		return err
	}
	return s.ReassignRelation(parentID, childID, oldType, newType)
}

// ReassignRelation moves the edge parent → child from oldType to newType on
// both endpoints. It fails with INVALID_OPERATION if the edge is not
// currently under oldType.
func (s *Store) ReassignRelation(parentID, childID, oldType, newType string) error {
	newType = relationOrDefault(newType)
	parent, child, err := s.pair("reassign", parentID, childID)
	if err != nil {
		return err
	}
	if !parent.Children.Has(oldType, childID) || !child.Parents.Has(oldType, parentID) {
		return s.fail("reassign", nerrors.New(nerrors.ErrCodeInvalidOperation,
			"edge %s → %s is not under relation %q", parentID, childID, oldType))
	}

	// Both endpoints were checked, neither Reassign can fail.
	_ = parent.Children.Reassign(childID, oldType, newType)
	_ = child.Parents.Reassign(parentID, oldType, newType)

	s.logger.Debug("reassigned relation", "parent", parentID, "child", childID, "from", oldType, "to", newType)
	s.done("reassign", nil)
	s.Redraw()
	return nil
}

func (s *Store) connect(parent, child *Node, relType string) bool {
	added := parent.Children.Add(relType, child.ID)
	return child.Parents.Add(relType, parent.ID) || added
}

func (s *Store) disconnect(parent, child *Node, relType string) bool {
	removed := parent.Children.Remove(relType, child.ID)
	return child.Parents.Remove(relType, parent.ID) || removed
}

// =============================================================================
// Groups
// =============================================================================

// CreateGroup turns the node into a group head named name. Its ends are the
// leaves reachable from it right now; later graph changes do not update them.
// An existing group keeps its collapsed state.
func (s *Store) CreateGroup(id, name string) error {
	if err := s.createGroup(id, name); err != nil {
		return err
	}
	s.done("group", nil)
	s.Redraw()
	return nil
}

func (s *Store) createGroup(id, name string) error {
	n, ok := s.nodes.Get(id)
	if !ok {
		return s.notFound("group", id)
	}
	collapsed := n.Group != nil && n.Group.Collapsed
	n.Group = &Group{Name: name, Collapsed: collapsed, Ends: n.Leaves(s.nodes)}
	s.logger.Debug("created group", "id", id, "name", name, "ends", len(n.Group.Ends))
	return nil
}

// ToggleGroup flips the collapsed state of a group. A plain node is first
// promoted to a group named "<data name> group".
func (s *Store) ToggleGroup(id string) error { return s.toggleGroup(id, nil) }

// SetCollapsed sets the collapsed state of a group, promoting a plain node
// the same way as [Store.ToggleGroup].
func (s *Store) SetCollapsed(id string, collapsed bool) error { return s.toggleGroup(id, &collapsed) }

func (s *Store) toggleGroup(id string, collapsed *bool) error {
	n, ok := s.nodes.Get(id)
	if !ok {
		return s.notFound("toggle-group", id)
	}
	if n.Group == nil {
		if err := s.createGroup(id, defaultGroupName(n)); err != nil {
			return err
		}
	}

	if collapsed != nil {
		n.Group.Collapsed = *collapsed
	} else {
		n.Group.Collapsed = !n.Group.Collapsed
	}

	s.logger.Debug("toggled group", "id", id, "collapsed", n.Group.Collapsed)
	s.done("toggle-group", nil)
	s.Redraw()
	return nil
}

func defaultGroupName(n *Node) string {
	name := n.Data.String("name")
	if name == "" {
		name = n.ID
	}
	return name + " group"
}

// =============================================================================
// Diagnostics
// =============================================================================

func relationOrDefault(relType string) string {
	if relType == "" {
		return DefaultRelation
	}
	return relType
}

// pair resolves both endpoints of an edge operation.
func (s *Store) pair(op, parentID, childID string) (*Node, *Node, error) {
	parent, ok := s.nodes.Get(parentID)
	if !ok {
		return nil, nil, s.notFound(op, parentID)
	}
	child, ok := s.nodes.Get(childID)
	if !ok {
		return nil, nil, s.notFound(op, childID)
	}
	return parent, child, nil
}

func (s *Store) notFound(op, id string) error {
	return s.fail(op, nerrors.New(nerrors.ErrCodeNotFound, "node %q not found", id))
}

// fail reports err as a diagnostic and returns it.
func (s *Store) fail(op string, err error) error {
	switch {
	case nerrors.SeverityOf(err) == nerrors.SeverityExpected:
		s.logger.Debug("operation skipped", "op", op, "err", err)
	case nerrors.Is(err, nerrors.ErrCodeInvalidState):
		s.logger.Error("invalid store state", "op", op, "err", err)
	default:
		s.logger.Warn("operation rejected", "op", op, "err", err)
	}
	s.done(op, err)
	return err
}

func (s *Store) done(op string, err error) {
	observability.Store().OnOperation(op, len(s.nodes), err)
}
