package nodel

import (
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
)

// recorder is a Renderer that knows a fixed set of templates and counts draws.
type recorder struct {
	templates map[string]bool
	draws     int
	last      Graph
}

func (r *recorder) Verify(template string, exists bool) bool { return r.templates[template] == exists }

func (r *recorder) Draw(g Graph) {
	r.draws++
	r.last = g
}

func newTestStore(t *testing.T) (*Store, *recorder) {
	t.Helper()
	r := &recorder{templates: map[string]bool{"box": true, "circle": true}}
	seq := 0
	s := NewStore(r,
		WithLogger(log.New(io.Discard)),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("n%d", seq)
		}),
	)
	return s, r
}

func mustAdd(t *testing.T, s *Store, name string) string {
	t.Helper()
	id, err := s.AddNode("box", 0, 0, NewData("name", name))
	if err != nil {
		t.Fatalf("AddNode(%s): %v", name, err)
	}
	return id
}

func mustConnect(t *testing.T, s *Store, parent, child string) {
	t.Helper()
	if err := s.ConnectNodes(parent, child, ""); err != nil {
		t.Fatalf("ConnectNodes(%s, %s): %v", parent, child, err)
	}
}

func TestAddNode(t *testing.T) {
	s, r := newTestStore(t)

	if !s.IsEmpty() {
		t.Fatal("new store should be empty")
	}

	id, err := s.AddNode("box", 10, 20, NewData("name", "root", "weight", 3))
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if id != "n1" {
		t.Errorf("id = %q, want n1", id)
	}
	n, ok := s.Node(id)
	if !ok {
		t.Fatal("node not found after add")
	}
	if n.X != 10 || n.Y != 20 || n.Template != "box" {
		t.Errorf("node = %+v", n)
	}
	if n.IsGroup() || !n.IsLeaf() || !n.IsHead() {
		t.Error("new node should be a plain leaf head")
	}
	if got := n.Data.String("weight"); got != "3" {
		t.Errorf("weight = %q, want 3", got)
	}
	if r.draws != 1 {
		t.Errorf("draws = %d, want 1", r.draws)
	}
}

func TestAddNodeUnknownTemplate(t *testing.T) {
	s, r := newTestStore(t)

	_, err := s.AddNode("hexagon", 0, 0, Data{})
	if !nerrors.Is(err, nerrors.ErrCodeTemplateNotFound) {
		t.Fatalf("err = %v, want TEMPLATE_NOT_FOUND", err)
	}
	if s.Len() != 0 || r.draws != 0 {
		t.Errorf("store changed: len=%d draws=%d", s.Len(), r.draws)
	}
}

func TestAddNodeRegeneratesCollidingIDs(t *testing.T) {
	s := NewStore(nil, WithLogger(log.New(io.Discard)), WithIDGenerator(func() string { return "fixed" }))

	a, err := s.AddNode("box", 0, 0, Data{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.AddNode("box", 0, 0, Data{})
	if err != nil {
		t.Fatal(err)
	}
	if a != "fixed" || b == a || b == "" {
		t.Errorf("ids = %q, %q; want distinct", a, b)
	}
}

func TestAddNodeCopiesData(t *testing.T) {
	s, _ := newTestStore(t)
	d := NewData("name", "a")
	id, _ := s.AddNode("box", 0, 0, d)
	d.Set("name", "b")

	n, _ := s.Node(id)
	if got := n.Data.String("name"); got != "a" {
		t.Errorf("name = %q, caller mutation leaked into node", got)
	}
}

func TestConnectNodes(t *testing.T) {
	tests := []struct {
		name     string
		parent   string
		child    string
		relType  string
		wantCode nerrors.Code
	}{
		{name: "DefaultType", parent: "n1", child: "n2"},
		{name: "NamedType", parent: "n1", child: "n2", relType: "owns"},
		{name: "SelfLoop", parent: "n1", child: "n1", wantCode: nerrors.ErrCodeInvalidOperation},
		{name: "UnknownParent", parent: "ghost", child: "n2", wantCode: nerrors.ErrCodeNotFound},
		{name: "UnknownChild", parent: "n1", child: "ghost", wantCode: nerrors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			mustAdd(t, s, "a")
			mustAdd(t, s, "b")
			before := s.Snapshot()

			err := s.ConnectNodes(tt.parent, tt.child, tt.relType)
			if tt.wantCode != "" {
				if !nerrors.Is(err, tt.wantCode) {
					t.Fatalf("err = %v, want %s", err, tt.wantCode)
				}
				if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
					t.Errorf("failed connect changed the store (-before +after):\n%s", diff)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConnectNodes: %v", err)
			}

			want := tt.relType
			if want == "" {
				want = DefaultRelation
			}
			p, _ := s.Node(tt.parent)
			c, _ := s.Node(tt.child)
			if !p.Children.Has(want, c.ID) || !c.Parents.Has(want, p.ID) {
				t.Errorf("edge %s → %s (%s) not symmetric", p.ID, c.ID, want)
			}
		})
	}
}

func TestConnectNodesIdempotent(t *testing.T) {
	s, r := newTestStore(t)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")

	mustConnect(t, s, a, b)
	draws := r.draws
	mustConnect(t, s, a, b)

	p, _ := s.Node(a)
	c, _ := s.Node(b)
	if got := p.Children.IDs(DefaultRelation); !slices.Equal(got, []string{b}) {
		t.Errorf("children = %v, want [%s]", got, b)
	}
	if got := c.Parents.IDs(DefaultRelation); !slices.Equal(got, []string{a}) {
		t.Errorf("parents = %v, want [%s]", got, a)
	}
	if r.draws != draws {
		t.Errorf("repeated connect drew %d times", r.draws-draws)
	}
}

func TestDisconnectNodes(t *testing.T) {
	s, r := newTestStore(t)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	mustConnect(t, s, a, b)

	draws := r.draws
	if err := s.DisconnectNodes(a, b, "other"); err != nil {
		t.Fatalf("disconnect missing type: %v", err)
	}
	if r.draws != draws {
		t.Error("no-op disconnect should not draw")
	}

	if err := s.DisconnectNodes(a, b, ""); err != nil {
		t.Fatalf("DisconnectNodes: %v", err)
	}
	p, _ := s.Node(a)
	c, _ := s.Node(b)
	if !p.IsLeaf() || !c.IsHead() {
		t.Error("edge still present after disconnect")
	}
}

func TestDeleteNodeRetractsAdjacency(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	c := mustAdd(t, s, "c")
	mustConnect(t, s, a, b)
	mustConnect(t, s, b, c)
	if err := s.ConnectNodes(a, b, "owns"); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteNode(b); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if s.Exists(b) {
		t.Error("deleted node still exists")
	}
	na, _ := s.Node(a)
	nc, _ := s.Node(c)
	if !na.IsLeaf() {
		t.Errorf("a still has children %v", na.Children.Edges())
	}
	if !nc.IsHead() {
		t.Errorf("c still has parents %v", nc.Parents.Edges())
	}
	if got := len(s.Nodes()); got != 2 {
		t.Errorf("Nodes() = %d, want 2", got)
	}

	if err := s.DeleteNode(b); !nerrors.Is(err, nerrors.ErrCodeNotFound) {
		t.Errorf("second delete err = %v, want NOT_FOUND", err)
	}
}

func TestDeleteNodeLeavesGroupEndsDangling(t *testing.T) {
	s, _ := newTestStore(t)
	g := mustAdd(t, s, "g")
	e := mustAdd(t, s, "e")
	mustConnect(t, s, g, e)
	if err := s.CreateGroup(g, "grp"); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteNode(e); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Node(g)
	if !slices.Equal(n.Group.Ends, []string{e}) {
		t.Errorf("ends = %v, want dangling [%s]", n.Group.Ends, e)
	}
	if n.GroupContains(s.nodes, e) {
		t.Error("dangling end should be skipped")
	}
}

func TestToggleConnect(t *testing.T) {
	s, r := newTestStore(t)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	before := s.Snapshot()

	draws := r.draws
	if err := s.ToggleConnect(a, b, ""); err != nil {
		t.Fatal(err)
	}
	if r.draws != draws+1 {
		t.Errorf("toggle drew %d times, want 1", r.draws-draws)
	}
	if n, _ := s.Node(a); !n.IsDirectChild(b, DefaultRelation) {
		t.Fatal("first toggle should connect")
	}

	if err := s.ToggleConnect(a, b, ""); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("toggling twice changed the store (-before +after):\n%s", diff)
	}
}

func TestToggleConnectFromCollapsedGroup(t *testing.T) {
	s, r := newTestStore(t)
	g := mustAdd(t, s, "g")
	e1 := mustAdd(t, s, "e1")
	e2 := mustAdd(t, s, "e2")
	x := mustAdd(t, s, "x")
	mustConnect(t, s, g, e1)
	mustConnect(t, s, g, e2)
	if err := s.SetCollapsed(g, true); err != nil {
		t.Fatal(err)
	}

	draws := r.draws
	if err := s.ToggleConnect(g, x, "feeds"); err != nil {
		t.Fatal(err)
	}
	if r.draws != draws+1 {
		t.Errorf("toggle drew %d times, want 1", r.draws-draws)
	}

	for _, id := range []string{e1, e2} {
		n, _ := s.Node(id)
		if !n.IsDirectChild(x, "feeds") {
			t.Errorf("end %s not connected to x", id)
		}
	}
	if n, _ := s.Node(g); n.IsDirectChild(x, "feeds") {
		t.Error("collapsed head itself should not be connected")
	}
}

func TestToggleConnectSelf(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustAdd(t, s, "a")

	if err := s.ToggleConnect(a, a, ""); !nerrors.Is(err, nerrors.ErrCodeInvalidOperation) {
		t.Errorf("err = %v, want INVALID_OPERATION", err)
	}
	if s.DrawPaused() {
		t.Error("failed toggle left drawing paused")
	}
}

func TestConnectionType(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	c := mustAdd(t, s, "c")
	if err := s.ConnectNodes(a, b, "owns"); err != nil {
		t.Fatal(err)
	}
	if err := s.ConnectNodes(a, c, "uses"); err != nil {
		t.Fatal(err)
	}
	if err := s.ConnectNodes(a, c, "owns"); err != nil {
		t.Fatal(err)
	}

	// "owns" was used first on a, so it wins for c.
	got, err := s.ConnectionType(a, c)
	if err != nil || got != "owns" {
		t.Errorf("ConnectionType(a, c) = %q, %v; want owns", got, err)
	}

	if _, err := s.ConnectionType(b, a); !nerrors.Is(err, nerrors.ErrCodeNotFound) {
		t.Errorf("reverse edge err = %v, want NOT_FOUND", err)
	}
}

func TestSetConnectionType(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	mustConnect(t, s, a, b)

	if err := s.SetConnectionType(a, b, "owns"); err != nil {
		t.Fatal(err)
	}
	p, _ := s.Node(a)
	c, _ := s.Node(b)
	if p.IsDirectChild(b, DefaultRelation) || !p.IsDirectChild(b, "owns") {
		t.Errorf("parent children = %v", p.Children.Edges())
	}
	if c.Parents.Has(DefaultRelation, a) || !c.Parents.Has("owns", a) {
		t.Errorf("child parents = %v", c.Parents.Edges())
	}
}

func TestReassignRelation(t *testing.T) {
	tests := []struct {
		name     string
		oldType  string
		newType  string
		wantCode nerrors.Code
	}{
		{name: "Moves", oldType: DefaultRelation, newType: "owns"},
		{name: "SameType", oldType: DefaultRelation, newType: DefaultRelation},
		{name: "WrongOldType", oldType: "owns", newType: "uses", wantCode: nerrors.ErrCodeInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			a := mustAdd(t, s, "a")
			b := mustAdd(t, s, "b")
			mustConnect(t, s, a, b)

			err := s.ReassignRelation(a, b, tt.oldType, tt.newType)
			if tt.wantCode != "" {
				if !nerrors.Is(err, tt.wantCode) {
					t.Fatalf("err = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got, _ := s.ConnectionType(a, b)
			if got != tt.newType {
				t.Errorf("type = %q, want %q", got, tt.newType)
			}
		})
	}
}

func TestCreateGroupEndsAreFixed(t *testing.T) {
	s, _ := newTestStore(t)
	g := mustAdd(t, s, "g")
	b := mustAdd(t, s, "b")
	mustConnect(t, s, g, b)

	if err := s.CreateGroup(g, "grp"); err != nil {
		t.Fatal(err)
	}
	c := mustAdd(t, s, "c")
	mustConnect(t, s, b, c)

	n, _ := s.Node(g)
	if n.Group.Name != "grp" || n.Group.Collapsed {
		t.Errorf("group = %+v", n.Group)
	}
	if !slices.Equal(n.Group.Ends, []string{b}) {
		t.Errorf("ends = %v, want [%s]", n.Group.Ends, b)
	}
	if got := s.Groups(); len(got) != 1 || got[0].ID != g {
		t.Errorf("Groups() = %v", got)
	}
}

func TestCreateGroupKeepsCollapsedState(t *testing.T) {
	s, _ := newTestStore(t)
	g := mustAdd(t, s, "g")
	if err := s.SetCollapsed(g, true); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateGroup(g, "renamed"); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Node(g)
	if !n.IsCollapsedGroup(true) || n.Group.Name != "renamed" {
		t.Errorf("group = %+v", n.Group)
	}
}

func TestToggleGroup(t *testing.T) {
	s, _ := newTestStore(t)
	named := mustAdd(t, s, "root")
	unnamed, _ := s.AddNode("box", 0, 0, Data{})

	if err := s.ToggleGroup(named); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Node(named)
	if n.Group == nil || n.Group.Name != "root group" || !n.Group.Collapsed {
		t.Errorf("group = %+v, want collapsed \"root group\"", n.Group)
	}
	if !slices.Equal(n.Group.Ends, []string{named}) {
		t.Errorf("ends of a lone node = %v, want itself", n.Group.Ends)
	}

	if err := s.ToggleGroup(named); err != nil {
		t.Fatal(err)
	}
	if n.Group.Collapsed {
		t.Error("second toggle should expand")
	}

	if err := s.ToggleGroup(unnamed); err != nil {
		t.Fatal(err)
	}
	u, _ := s.Node(unnamed)
	if want := unnamed + " group"; u.Group.Name != want {
		t.Errorf("name = %q, want %q", u.Group.Name, want)
	}

	if err := s.ToggleGroup("ghost"); !nerrors.Is(err, nerrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestCollapsedGroupHidesMembers(t *testing.T) {
	s, _ := newTestStore(t)
	n1 := mustAdd(t, s, "n1")
	n2 := mustAdd(t, s, "n2")
	mustConnect(t, s, n1, n2)
	if err := s.CreateGroup(n1, "grp"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCollapsed(n1, true); err != nil {
		t.Fatal(err)
	}

	head, _ := s.Node(n1)
	member, _ := s.Node(n2)
	if !slices.Equal(head.Group.Ends, []string{n2}) {
		t.Fatalf("ends = %v, want [%s]", head.Group.Ends, n2)
	}
	if member.Visible(s.nodes) {
		t.Error("member of collapsed group should be hidden")
	}
	if !head.Visible(s.nodes) {
		t.Error("collapsed head should stay visible")
	}

	visible := s.VisibleNodes()
	if len(visible) != 1 || visible[0].ID != n1 {
		t.Errorf("VisibleNodes() = %v", visible)
	}
}

func TestUnrelatedCollapsedGroupHidesNothing(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	other := mustAdd(t, s, "other")
	mustConnect(t, s, a, b)
	if err := s.SetCollapsed(other, true); err != nil {
		t.Fatal(err)
	}

	if got := len(s.VisibleNodes()); got != 3 {
		t.Errorf("visible = %d, want 3", got)
	}
}

func TestMoveNode(t *testing.T) {
	s, _ := newTestStore(t)
	g, _ := s.AddNode("box", 0, 0, Data{})
	mid, _ := s.AddNode("box", 0, 50, Data{})
	end, _ := s.AddNode("box", 0, 100, Data{})
	mustConnect(t, s, g, mid)
	mustConnect(t, s, mid, end)

	// Expanded groups move alone.
	if err := s.CreateGroup(g, "grp"); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveNode(g, 5, 5); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Node(end); n.X != 0 || n.Y != 100 {
		t.Errorf("end moved with expanded group: (%v, %v)", n.X, n.Y)
	}

	// Collapsed groups drag their ends, but only their ends.
	if err := s.SetCollapsed(g, true); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveNode(g, 15, 25); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Node(end); n.X != 10 || n.Y != 120 {
		t.Errorf("end = (%v, %v), want (10, 120)", n.X, n.Y)
	}
	if n, _ := s.Node(mid); n.X != 0 || n.Y != 50 {
		t.Errorf("intermediate node moved to (%v, %v)", n.X, n.Y)
	}

	if err := s.MoveNode("ghost", 0, 0); !nerrors.Is(err, nerrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestHeadsAndLeaves(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	c := mustAdd(t, s, "c")
	mustConnect(t, s, a, b)
	mustConnect(t, s, a, c)

	ids := func(ns []*Node) []string {
		var out []string
		for _, n := range ns {
			out = append(out, n.ID)
		}
		return out
	}
	if got := ids(s.Heads()); !slices.Equal(got, []string{a}) {
		t.Errorf("Heads() = %v", got)
	}
	if got := ids(s.Leaves()); !slices.Equal(got, []string{b, c}) {
		t.Errorf("Leaves() = %v", got)
	}
}

func TestEvents(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	mustConnect(t, s, a, b)

	ev := s.NodeEvent(a, 3, 4)
	if ev.Kind != NodeEvent || ev.Node == nil || ev.Node.ID != a {
		t.Errorf("NodeEvent = %+v", ev)
	}
	if ev := s.NodeEvent("", 0, 0); ev.Node != nil {
		t.Error("canvas event should carry no node")
	}

	ce, err := s.ConnectionEvent(a, b, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if ce.Kind.String() != "connection" || len(ce.Nodes) != 2 || ce.Nodes[0].ID != a || ce.Nodes[1].ID != b {
		t.Errorf("ConnectionEvent = %+v", ce)
	}
	if _, err := s.ConnectionEvent(a, "ghost", 0, 0); !nerrors.Is(err, nerrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestDistanceTo(t *testing.T) {
	a := &Node{X: 0, Y: 0}
	b := &Node{X: 3, Y: 4}
	if got := a.DistanceTo(b); got != 5 {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
}

// checkAdjacency fails unless every child entry has its mirrored parent
// entry, every parent entry has its mirrored child entry, and no entry names
// a deleted node.
func checkAdjacency(t *testing.T, s *Store, step string) {
	t.Helper()
	for _, n := range s.Nodes() {
		for _, e := range n.Children.Edges() {
			c, ok := s.Node(e.ID)
			if !ok {
				t.Fatalf("%s: %s has child %s which no longer exists", step, n.ID, e.ID)
			}
			if !c.Parents.Has(e.Type, n.ID) {
				t.Fatalf("%s: %s → %s (%s) missing from %s's parents", step, n.ID, e.ID, e.Type, e.ID)
			}
		}
		for _, e := range n.Parents.Edges() {
			p, ok := s.Node(e.ID)
			if !ok {
				t.Fatalf("%s: %s has parent %s which no longer exists", step, n.ID, e.ID)
			}
			if !p.Children.Has(e.Type, n.ID) {
				t.Fatalf("%s: %s → %s (%s) missing from %s's children", step, e.ID, n.ID, e.Type, e.ID)
			}
		}
	}
}

func TestAdjacencySymmetryUnderRandomEdits(t *testing.T) {
	types := []string{DefaultRelation, "uses", "owns"}

	for _, seed := range []uint64{1, 7, 42, 1234} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			s, _ := newTestStore(t)
			rng := rand.New(rand.NewPCG(seed, seed*31+1))
			var ids []string
			for i := range 6 {
				ids = append(ids, mustAdd(t, s, fmt.Sprintf("n%d", i)))
			}
			pick := func() string { return ids[rng.IntN(len(ids))] }

			for i := range 400 {
				var step string
				switch op := rng.IntN(10); {
				case op < 4:
					p, c, rt := pick(), pick(), types[rng.IntN(len(types))]
					step = fmt.Sprintf("connect %s %s %s", p, c, rt)
					_ = s.ConnectNodes(p, c, rt)
				case op < 6:
					p, c, rt := pick(), pick(), types[rng.IntN(len(types))]
					step = fmt.Sprintf("disconnect %s %s %s", p, c, rt)
					_ = s.DisconnectNodes(p, c, rt)
				case op < 7:
					p, c, rt := pick(), pick(), types[rng.IntN(len(types))]
					step = fmt.Sprintf("toggle %s %s %s", p, c, rt)
					_ = s.ToggleConnect(p, c, rt)
				case op < 8:
					id := pick()
					step = "delete " + id
					_ = s.DeleteNode(id)
				default:
					id, err := s.AddNode("box", 0, 0, Data{})
					if err != nil {
						t.Fatalf("AddNode: %v", err)
					}
					step = "add " + id
					ids = append(ids, id)
				}
				checkAdjacency(t, s, fmt.Sprintf("step %d (%s)", i, step))
			}
		})
	}
}

func TestAdjacencySymmetrySequences(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *Store, a, b, c string)
	}{
		{
			name: "ConnectBothWaysThenDeleteMiddle",
			run: func(s *Store, a, b, c string) {
				_ = s.ConnectNodes(a, b, "")
				_ = s.ConnectNodes(b, c, "uses")
				_ = s.ConnectNodes(c, b, "")
				_ = s.DeleteNode(b)
			},
		},
		{
			name: "DisconnectWrongType",
			run: func(s *Store, a, b, _ string) {
				_ = s.ConnectNodes(a, b, "uses")
				_ = s.DisconnectNodes(a, b, DefaultRelation)
			},
		},
		{
			name: "ReassignThenDeleteChild",
			run: func(s *Store, a, b, _ string) {
				_ = s.ConnectNodes(a, b, "")
				_ = s.ReassignRelation(a, b, DefaultRelation, "owns")
				_ = s.DeleteNode(b)
			},
		},
		{
			name: "SelfConnectRejected",
			run: func(s *Store, a, _, _ string) {
				_ = s.ConnectNodes(a, a, "")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			a, b, c := mustAdd(t, s, "a"), mustAdd(t, s, "b"), mustAdd(t, s, "c")
			tt.run(s, a, b, c)
			checkAdjacency(t, s, tt.name)
		})
	}
}
