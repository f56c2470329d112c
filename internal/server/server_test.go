package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodel/pkg/cache"
	"github.com/matzehuels/nodel/pkg/config"
	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
	"github.com/matzehuels/nodel/pkg/snapshot"
	"github.com/matzehuels/nodel/pkg/storage"
)

// memCache is a Cache backed by a map.
type memCache struct {
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func newTestServer(t *testing.T) (*Server, *memCache) {
	t.Helper()
	seq := 0
	c := &memCache{data: make(map[string][]byte)}
	s := New(config.Default(), storage.NewMemoryStore(),
		WithLogger(log.New(io.Discard)),
		WithCache(c),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("n%d", seq)
		}),
	)
	return s, c
}

func call(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, status, rec.Body.String())
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

// seed builds api → db, api → cache in diagram d.
func seed(t *testing.T, s *Server) {
	t.Helper()
	for _, body := range []string{
		`{"template":"box","x":0,"y":0,"data":{"name":"api"}}`,
		`{"template":"database","x":0,"y":100,"data":{"name":"db"}}`,
		`{"template":"database","x":200,"y":100,"data":{"name":"cache"}}`,
	} {
		expect(t, call(t, s, "POST", "/diagrams/d/nodes", body), http.StatusCreated)
	}
	expect(t, call(t, s, "POST", "/diagrams/d/edges", `{"parent":"n1","child":"n2"}`), http.StatusNoContent)
	expect(t, call(t, s, "POST", "/diagrams/d/edges", `{"parent":"n1","child":"n3","type":"uses"}`), http.StatusNoContent)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := call(t, s, "GET", "/healthz", "")
	expect(t, rec, http.StatusOK)
	if got := decodeBody[map[string]string](t, rec)["status"]; got != "ok" {
		t.Errorf("status = %q", got)
	}
}

func TestAddNode(t *testing.T) {
	s, _ := newTestServer(t)

	rec := call(t, s, "POST", "/diagrams/d/nodes", `{"x":5,"y":6,"data":{"name":"api","replicas":3}}`)
	expect(t, rec, http.StatusCreated)
	got := decodeBody[nodel.Record](t, rec)
	if got.ID != "n1" || got.Template != "box" || got.X != 5 || got.Data.String("replicas") != "3" {
		t.Errorf("record = %+v", got)
	}

	rec = call(t, s, "POST", "/diagrams/d/nodes", `{"template":"hexagon"}`)
	expect(t, rec, http.StatusNotFound)
	if e := decodeBody[ErrorResponse](t, rec); e.Code != nerrors.ErrCodeTemplateNotFound {
		t.Errorf("code = %s, want TEMPLATE_NOT_FOUND", e.Code)
	}

	expect(t, call(t, s, "POST", "/diagrams/d/nodes", `{"template":`), http.StatusBadRequest)
	expect(t, call(t, s, "GET", "/diagrams/d/nodes/n1", ""), http.StatusOK)
	expect(t, call(t, s, "GET", "/diagrams/d/nodes/n9", ""), http.StatusNotFound)
	expect(t, call(t, s, "DELETE", "/diagrams/d/nodes/n1", ""), http.StatusNoContent)
	expect(t, call(t, s, "DELETE", "/diagrams/d/nodes/n1", ""), http.StatusNotFound)
}

func TestInvalidDiagramName(t *testing.T) {
	s, _ := newTestServer(t)
	rec := call(t, s, "GET", "/diagrams/.hidden/snapshot", "")
	expect(t, rec, http.StatusBadRequest)
	if e := decodeBody[ErrorResponse](t, rec); e.Code != nerrors.ErrCodeInvalidName {
		t.Errorf("code = %s, want INVALID_NAME", e.Code)
	}
}

func TestEdges(t *testing.T) {
	s, _ := newTestServer(t)
	seed(t, s)

	rec := call(t, s, "GET", "/diagrams/d/edges/type?parent=n1&child=n3", "")
	expect(t, rec, http.StatusOK)
	if got := decodeBody[map[string]string](t, rec)["type"]; got != "uses" {
		t.Errorf("type = %q, want uses", got)
	}

	expect(t, call(t, s, "POST", "/diagrams/d/edges", `{"parent":"n1","child":"n1"}`), http.StatusConflict)
	expect(t, call(t, s, "POST", "/diagrams/d/edges", `{"parent":"n1","child":"n7"}`), http.StatusNotFound)
	expect(t, call(t, s, "PUT", "/diagrams/d/edges/type", `{"parent":"n1","child":"n3","type":"feeds","from":"default"}`), http.StatusConflict)
	expect(t, call(t, s, "PUT", "/diagrams/d/edges/type", `{"parent":"n1","child":"n3","type":"feeds","from":"uses"}`), http.StatusNoContent)
	expect(t, call(t, s, "PUT", "/diagrams/d/edges/type", `{"parent":"n1","child":"n2","type":"owns"}`), http.StatusNoContent)

	rec = call(t, s, "GET", "/diagrams/d/edges", "")
	expect(t, rec, http.StatusOK)
	edges := decodeBody[[]edgeResponse](t, rec)
	want := []edgeResponse{{From: "n1", To: "n3", Type: "feeds"}, {From: "n1", To: "n2", Type: "owns"}}
	if fmt.Sprint(edges) != fmt.Sprint(want) {
		t.Errorf("edges = %v, want %v", edges, want)
	}

	expect(t, call(t, s, "DELETE", "/diagrams/d/edges?parent=n1&child=n2&type=owns", ""), http.StatusNoContent)
	expect(t, call(t, s, "POST", "/diagrams/d/edges/toggle", `{"parent":"n1","child":"n3","type":"feeds"}`), http.StatusNoContent)

	rec = call(t, s, "GET", "/diagrams/d/query/leaves", "")
	expect(t, rec, http.StatusOK)
	if got := len(decodeBody[[]nodel.Record](t, rec)); got != 3 {
		t.Errorf("leaves = %d, want 3 after removing both edges", got)
	}
}

func TestGroups(t *testing.T) {
	s, _ := newTestServer(t)
	seed(t, s)

	rec := call(t, s, "POST", "/diagrams/d/nodes/n1/group", `{"name":"svc"}`)
	expect(t, rec, http.StatusOK)
	got := decodeBody[nodel.Record](t, rec)
	if got.Group.Name == nil || *got.Group.Name != "svc" || len(got.Group.Ends) != 2 {
		t.Errorf("group = %+v", got.Group)
	}

	expect(t, call(t, s, "POST", "/diagrams/d/nodes/n1/toggle", ""), http.StatusOK)
	rec = call(t, s, "GET", "/diagrams/d/query/visible", "")
	expect(t, rec, http.StatusOK)
	if visible := decodeBody[[]nodel.Record](t, rec); len(visible) != 1 || visible[0].ID != "n1" {
		t.Errorf("visible = %v, want only n1", visible)
	}

	rec = call(t, s, "POST", "/diagrams/d/nodes/n1/toggle", `{"collapsed":false}`)
	expect(t, rec, http.StatusOK)
	if decodeBody[nodel.Record](t, rec).Group.Collapsed {
		t.Error("group should be expanded")
	}

	expect(t, call(t, s, "GET", "/diagrams/d/query/groups", ""), http.StatusOK)
	expect(t, call(t, s, "GET", "/diagrams/d/query/everything", ""), http.StatusNotFound)
}

func TestGroupMapInstantiate(t *testing.T) {
	s, _ := newTestServer(t)
	seed(t, s)
	expect(t, call(t, s, "GET", "/diagrams/d/nodes/n3/map", ""), http.StatusConflict)

	expect(t, call(t, s, "POST", "/diagrams/d/nodes/n1/group", `{"name":"svc"}`), http.StatusOK)
	rec := call(t, s, "GET", "/diagrams/d/nodes/n1/map", "")
	expect(t, rec, http.StatusOK)
	m := rec.Body.String()

	rec = call(t, s, "POST", "/diagrams/d/maps", `{"map":`+m+`,"x":500,"y":0}`)
	expect(t, rec, http.StatusCreated)
	head := decodeBody[nodel.Record](t, rec)
	if head.X != 500 || head.Children.Len() != 2 {
		t.Errorf("instantiated head = %+v", head)
	}
}

func TestSnapshotRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	seed(t, s)

	rec := call(t, s, "GET", "/diagrams/d/snapshot", "")
	expect(t, rec, http.StatusOK)
	snap, err := snapshot.Unmarshal(rec.Body.Bytes(), snapshot.FormatJSON)
	if err != nil || len(snap) != 3 {
		t.Fatalf("snapshot = %v, %v", snap, err)
	}

	rec = call(t, s, "GET", "/diagrams/d/snapshot?format=yaml", "")
	expect(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "- id: n1") {
		t.Errorf("yaml body:\n%s", rec.Body.String())
	}
	expect(t, call(t, s, "GET", "/diagrams/d/snapshot?format=xml", ""), http.StatusBadRequest)

	// Replace a second diagram with the first one's snapshot.
	body, _ := snapshot.Marshal(snap, snapshot.FormatJSON)
	rec = call(t, s, "PUT", "/diagrams/copy/snapshot", string(body))
	expect(t, rec, http.StatusOK)

	bad := `[{"id":"a","children":{"default":["b"]}},{"id":"b"}]`
	expect(t, call(t, s, "PUT", "/diagrams/copy/snapshot", bad), http.StatusBadRequest)
	rec = call(t, s, "GET", "/diagrams/copy/query/heads", "")
	if heads := decodeBody[[]nodel.Record](t, rec); len(heads) != 1 || heads[0].ID != "n1" {
		t.Errorf("rejected snapshot changed the diagram: heads = %v", heads)
	}
}

func TestSaveOpenList(t *testing.T) {
	s, _ := newTestServer(t)
	seed(t, s)

	expect(t, call(t, s, "POST", "/diagrams/fresh/open", ""), http.StatusNotFound)
	rec := call(t, s, "POST", "/diagrams/d/save", "")
	expect(t, rec, http.StatusOK)
	if info := decodeBody[storage.Info](t, rec); info.Nodes != 3 {
		t.Errorf("saved info = %+v", info)
	}

	expect(t, call(t, s, "DELETE", "/diagrams/d/nodes/n3", ""), http.StatusNoContent)
	rec = call(t, s, "POST", "/diagrams/d/open", "")
	expect(t, rec, http.StatusOK)
	if got := decodeBody[[]nodel.Record](t, rec); len(got) != 3 {
		t.Errorf("open restored %d nodes, want 3", len(got))
	}

	rec = call(t, s, "GET", "/diagrams", "")
	expect(t, rec, http.StatusOK)
	list := decodeBody[listResponse](t, rec)
	if len(list.Stored) != 1 || list.Stored[0].Name != "d" || fmt.Sprint(list.Open) != "[d]" {
		t.Errorf("list = %+v", list)
	}

	expect(t, call(t, s, "DELETE", "/diagrams/d", ""), http.StatusNoContent)
	rec = call(t, s, "GET", "/diagrams", "")
	if list := decodeBody[listResponse](t, rec); len(list.Stored) != 0 || len(list.Open) != 0 {
		t.Errorf("list after delete = %+v", list)
	}
}

func TestBatch(t *testing.T) {
	s, _ := newTestServer(t)
	seed(t, s)

	rec := call(t, s, "POST", "/diagrams/d/batch", `{"ops":[
		{"op":"move","id":"n2","x":10,"y":10},
		{"op":"move","id":"n3","x":20,"y":20},
		{"op":"group","id":"n1","name":"svc"},
		{"op":"collapse","id":"n1"}
	]}`)
	expect(t, rec, http.StatusOK)
	res := decodeBody[batchResponse](t, rec)
	if res.Applied != 4 || res.Draws != 1 || res.Error != nil {
		t.Errorf("batch = %+v, want 4 applied with one draw", res)
	}

	rec = call(t, s, "POST", "/diagrams/d/batch", `{"ops":[
		{"op":"expand","id":"n1"},
		{"op":"connect","parent":"n2","child":"n2"},
		{"op":"move","id":"n2","x":0,"y":0}
	]}`)
	expect(t, rec, http.StatusConflict)
	res = decodeBody[batchResponse](t, rec)
	if res.Applied != 1 || res.Draws != 1 || res.Error == nil || res.Error.Code != nerrors.ErrCodeInvalidOperation {
		t.Errorf("failed batch = %+v", res)
	}

	expect(t, call(t, s, "POST", "/diagrams/d/batch", `{"ops":[{"op":"explode"}]}`), http.StatusBadRequest)
}

func TestEvents(t *testing.T) {
	s, _ := newTestServer(t)
	seed(t, s)

	rec := call(t, s, "POST", "/diagrams/d/events", `{"kind":"node","id":"n2","x":3,"y":4}`)
	expect(t, rec, http.StatusOK)
	ev := decodeBody[eventResponse](t, rec)
	if ev.Kind != "node" || ev.Node == nil || ev.Node.ID != "n2" || ev.X != 3 {
		t.Errorf("node event = %+v", ev)
	}

	rec = call(t, s, "POST", "/diagrams/d/events", `{"kind":"node","x":1,"y":1}`)
	if ev := decodeBody[eventResponse](t, rec); ev.Node != nil {
		t.Errorf("canvas event should have no node: %+v", ev)
	}

	rec = call(t, s, "POST", "/diagrams/d/events", `{"kind":"connection","parent":"n1","child":"n3"}`)
	expect(t, rec, http.StatusOK)
	if ev := decodeBody[eventResponse](t, rec); ev.Kind != "connection" || len(ev.Nodes) != 2 {
		t.Errorf("connection event = %+v", ev)
	}

	expect(t, call(t, s, "POST", "/diagrams/d/events", `{"kind":"connection","parent":"n1","child":"x"}`), http.StatusNotFound)
	expect(t, call(t, s, "POST", "/diagrams/d/events", `{"kind":"wheel"}`), http.StatusBadRequest)
}

func TestRender(t *testing.T) {
	s, c := newTestServer(t)
	seed(t, s)

	rec := call(t, s, "GET", "/diagrams/d/render.dot", "")
	expect(t, rec, http.StatusOK)
	if !strings.HasPrefix(rec.Body.String(), "digraph G {") {
		t.Errorf("dot body:\n%s", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}

	expect(t, call(t, s, "GET", "/diagrams/d/render.pdf", ""), http.StatusNotFound)

	// A cached SVG is served without rendering.
	var key string
	_ = s.Workspace().Do("d", func(d *Diagram) error {
		hash, err := snapshot.Hash(d.Store.Snapshot())
		if err != nil {
			return err
		}
		key = cache.NewDefaultKeyer().RenderKey(hash, cache.RenderKeyOpts{Format: "svg", ConfigHash: d.Renderer.ConfigHash()})
		return nil
	})
	c.data[key] = []byte("<svg>cached</svg>")

	rec = call(t, s, "GET", "/diagrams/d/render.svg", "")
	expect(t, rec, http.StatusOK)
	if rec.Body.String() != "<svg>cached</svg>" || rec.Header().Get("Content-Type") != "image/svg+xml" {
		t.Errorf("svg = %q (%s)", rec.Body.String(), rec.Header().Get("Content-Type"))
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nerrors.New(nerrors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{nerrors.New(nerrors.ErrCodeSnapshotNotFound, "x"), http.StatusNotFound},
		{nerrors.New(nerrors.ErrCodeTemplateNotFound, "x"), http.StatusNotFound},
		{fmt.Errorf("load demo: %w", nerrors.New(nerrors.ErrCodeSnapshotNotFound, "x")), http.StatusNotFound},
		{nerrors.New(nerrors.ErrCodeInvalidName, "x"), http.StatusBadRequest},
		{nerrors.New(nerrors.ErrCodeUnsupported, "x"), http.StatusBadRequest},
		{nerrors.New(nerrors.ErrCodeInvalidOperation, "x"), http.StatusConflict},
		{nerrors.New(nerrors.ErrCodeInvalidState, "x"), http.StatusConflict},
		{nerrors.New(nerrors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
