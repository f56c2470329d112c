package nodel

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
)

func TestGroupMap(t *testing.T) {
	s, _ := newTestStore(t)
	g, _ := s.AddNode("box", 100, 100, NewData("name", "g"))
	a, _ := s.AddNode("box", 80, 150, NewData("name", "a"))
	b, _ := s.AddNode("circle", 120, 150, NewData("name", "b"))
	d, _ := s.AddNode("box", 100, 200, NewData("name", "d"))
	mustConnect(t, s, g, a)
	mustConnect(t, s, g, b)
	mustConnect(t, s, a, d)
	if err := s.ConnectNodes(b, d, "weak"); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateGroup(g, "diamond"); err != nil {
		t.Fatal(err)
	}
	beyond := mustAdd(t, s, "beyond")
	mustConnect(t, s, d, beyond)

	m, err := s.GroupMap(g)
	if err != nil {
		t.Fatalf("GroupMap: %v", err)
	}
	if m.ID != g || m.OffsetX != 0 || m.OffsetY != 0 || len(m.Children) != 2 {
		t.Fatalf("head entry = %+v", m)
	}
	ma := m.Children[0].Node
	if ma == nil || ma.ID != a || ma.OffsetX != -20 || ma.OffsetY != 50 {
		t.Fatalf("first child = %+v", m.Children[0])
	}
	md := ma.Children[0].Node
	if md == nil || md.ID != d || len(md.Children) != 0 {
		t.Fatalf("end entry = %+v; ends must not be expanded", ma.Children[0])
	}
	if link := m.Children[1].Node.Children[0]; link.Ref != d || link.Type != "weak" {
		t.Errorf("shared end should be a ref, got %+v", link)
	}

	t.Run("Instantiate", func(t *testing.T) {
		before := s.Len()
		r := s.render.(*recorder)
		draws := r.draws

		head, err := s.Instantiate(m, 500, 500)
		if err != nil {
			t.Fatalf("Instantiate: %v", err)
		}
		if got := s.Len() - before; got != 4 {
			t.Errorf("created %d nodes, want 4", got)
		}
		if r.draws != draws+1 {
			t.Errorf("instantiate drew %d times, want 1", r.draws-draws)
		}

		h, _ := s.Node(head)
		if h.X != 500 || h.Y != 500 || h.Data.String("name") != "g" {
			t.Errorf("head = %+v", h)
		}
		leaves := h.Leaves(s.nodes)
		if len(leaves) != 1 {
			t.Fatalf("copy leaves = %v, want one shared end", leaves)
		}
		end, _ := s.Node(leaves[0])
		if end.X != 500 || end.Y != 600 {
			t.Errorf("end at (%v, %v), want (500, 600)", end.X, end.Y)
		}
		if end.Parents.Len() != 2 {
			t.Errorf("end parents = %v, want both branches", end.Parents.Edges())
		}
		if end.ID == d {
			t.Error("instantiate reused an existing node")
		}
	})
}

func TestGroupMapErrors(t *testing.T) {
	s, _ := newTestStore(t)
	plain := mustAdd(t, s, "plain")

	if _, err := s.GroupMap("ghost"); !nerrors.Is(err, nerrors.ErrCodeNotFound) {
		t.Errorf("unknown id err = %v, want NOT_FOUND", err)
	}
	if _, err := s.GroupMap(plain); !nerrors.Is(err, nerrors.ErrCodeInvalidOperation) {
		t.Errorf("plain node err = %v, want INVALID_OPERATION", err)
	}
}

func TestInstantiateUnknownTemplateCreatesNothing(t *testing.T) {
	s, _ := newTestStore(t)
	m := &GroupMap{
		ID: "h", Template: "box",
		Children: []GroupLink{{Type: DefaultRelation, Node: &GroupMap{ID: "c", Template: "hexagon"}}},
	}

	if _, err := s.Instantiate(m, 0, 0); !nerrors.Is(err, nerrors.ErrCodeTemplateNotFound) {
		t.Fatalf("err = %v, want TEMPLATE_NOT_FOUND", err)
	}
	if !s.IsEmpty() {
		t.Errorf("store holds %d nodes after failed instantiate", s.Len())
	}
	if _, err := s.Instantiate(nil, 0, 0); !nerrors.Is(err, nerrors.ErrCodeInvalidInput) {
		t.Errorf("nil map err = %v, want INVALID_INPUT", err)
	}
}

// revokingRenderer accepts template once and rejects it afterwards.
type revokingRenderer struct {
	*recorder
	template string
	checks   int
}

func (r *revokingRenderer) Verify(template string, exists bool) bool {
	if template == r.template {
		r.checks++
		return (r.checks == 1) == exists
	}
	return r.recorder.Verify(template, exists)
}

func TestInstantiateRollsBackWhenTemplateDisappears(t *testing.T) {
	r := &revokingRenderer{
		recorder: &recorder{templates: map[string]bool{"box": true, "circle": true}},
		template: "circle",
	}
	s := NewStore(r, WithLogger(log.New(io.Discard)))
	keep, err := s.AddNode("box", 0, 0, Data{})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	m := &GroupMap{
		ID: "h", Template: "box",
		Children: []GroupLink{
			{Type: DefaultRelation, Node: &GroupMap{ID: "a", Template: "box"}},
			{Type: DefaultRelation, Node: &GroupMap{ID: "c", Template: "circle"}},
		},
	}
	if _, err := s.Instantiate(m, 0, 0); !nerrors.Is(err, nerrors.ErrCodeTemplateNotFound) {
		t.Fatalf("err = %v, want TEMPLATE_NOT_FOUND", err)
	}

	ids := make([]string, 0, s.Len())
	for _, n := range s.Nodes() {
		ids = append(ids, n.ID)
	}
	if diff := cmp.Diff([]string{keep}, ids); diff != "" {
		t.Errorf("nodes after rollback (-want +got):\n%s", diff)
	}
	n, _ := s.Node(keep)
	if !n.Children.Empty() || !n.Parents.Empty() {
		t.Errorf("surviving node has edges: %v %v", n.Children.Edges(), n.Parents.Edges())
	}
}
