package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nodel/pkg/cache"
	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
	"github.com/matzehuels/nodel/pkg/render"
	"github.com/matzehuels/nodel/pkg/render/nodelink"
	"github.com/matzehuels/nodel/pkg/snapshot"
	"github.com/matzehuels/nodel/pkg/storage"
)

// =============================================================================
// Request and response bodies
// =============================================================================

type addNodeRequest struct {
	Template string     `json:"template"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Data     nodel.Data `json:"data"`
}

type positionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type groupRequest struct {
	Name string `json:"name"`
}

type toggleRequest struct {
	Collapsed *bool `json:"collapsed"`
}

type edgeRequest struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Type   string `json:"type"`
	From   string `json:"from,omitempty"`
}

type instantiateRequest struct {
	Map *nodel.GroupMap `json:"map"`
	X   float64         `json:"x"`
	Y   float64         `json:"y"`
}

type edgeResponse struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Type   string `json:"type"`
	Dashed bool   `json:"dashed"`
}

type listResponse struct {
	Open   []string       `json:"open"`
	Stored []storage.Info `json:"stored"`
}

func records(nodes []*nodel.Node) []nodel.Record {
	out := make([]nodel.Record, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Record())
	}
	return out
}

// =============================================================================
// Diagrams
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	stored, err := s.storage.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, listResponse{Open: s.ws.Names(), Stored: stored}, http.StatusOK)
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.storage.Delete(r.Context(), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ws.Close(name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var snap nodel.Snapshot
	if !s.do(w, r, func(d *Diagram) error {
		snap = d.Store.Snapshot()
		return nil
	}) {
		return
	}
	if err := s.storage.Save(r.Context(), name, snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, storage.Info{Name: name, Nodes: len(snap)}, http.StatusOK)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	snap, err := s.storage.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.replace(w, r, name, snap)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap nodel.Snapshot
	if !s.do(w, r, func(d *Diagram) error {
		snap = d.Store.Snapshot()
		return nil
	}) {
		return
	}

	format := snapshot.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		var err error
		if format, err = snapshot.ParseFormat(f); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if format == snapshot.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	if err := snapshot.Write(w, snap, format); err != nil {
		s.logger.Error("failed to write snapshot", "err", err)
	}
}

func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	format := snapshot.FormatJSON
	if isYAML(r.Header.Get("Content-Type")) {
		format = snapshot.FormatYAML
	}
	snap, err := snapshot.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes), format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.replace(w, r, chi.URLParam(r, "name"), snap)
}

// replace loads snap into the named diagram and echoes the loaded snapshot.
func (s *Server) replace(w http.ResponseWriter, r *http.Request, name string, snap nodel.Snapshot) {
	var out nodel.Snapshot
	err := s.ws.Do(name, func(d *Diagram) error {
		if err := d.Store.Load(snap); err != nil {
			return err
		}
		out = d.Store.Snapshot()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, out, http.StatusOK)
}

// do runs fn on the diagram named in the URL and writes its error, if any.
// It reports whether fn succeeded.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(d *Diagram) error) bool {
	if err := s.ws.Do(chi.URLParam(r, "name"), fn); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

// =============================================================================
// Nodes
// =============================================================================

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	var rec nodel.Record
	ok := s.do(w, r, func(d *Diagram) error {
		template := req.Template
		if template == "" {
			template = d.Renderer.DefaultTemplate()
		}
		id, err := d.Store.AddNode(template, req.X, req.Y, req.Data)
		if err != nil {
			return err
		}
		n, _ := d.Store.Node(id)
		rec = n.Record()
		return nil
	})
	if ok {
		s.writeJSON(w, rec, http.StatusCreated)
	}
}

// withNode runs fn on the node named in the URL and replies with its record.
func (s *Server) withNode(w http.ResponseWriter, r *http.Request, status int, fn func(d *Diagram, id string) error) {
	id := chi.URLParam(r, "id")
	var rec nodel.Record
	ok := s.do(w, r, func(d *Diagram) error {
		if err := fn(d, id); err != nil {
			return err
		}
		n, found := d.Store.Node(id)
		if !found {
			return nerrors.New(nerrors.ErrCodeNotFound, "node %q not found", id)
		}
		rec = n.Record()
		return nil
	})
	if ok {
		s.writeJSON(w, rec, status)
	}
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	s.withNode(w, r, http.StatusOK, func(*Diagram, string) error { return nil })
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.do(w, r, func(d *Diagram) error { return d.Store.DeleteNode(id) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withNode(w, r, http.StatusOK, func(d *Diagram, id string) error {
		return d.Store.MoveNode(id, req.X, req.Y)
	})
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decode(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withNode(w, r, http.StatusOK, func(d *Diagram, id string) error {
		return d.Store.CreateGroup(id, req.Name)
	})
}

func (s *Server) handleToggleGroup(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decode(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withNode(w, r, http.StatusOK, func(d *Diagram, id string) error {
		if req.Collapsed != nil {
			return d.Store.SetCollapsed(id, *req.Collapsed)
		}
		return d.Store.ToggleGroup(id)
	})
}

func (s *Server) handleGroupMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var m *nodel.GroupMap
	ok := s.do(w, r, func(d *Diagram) error {
		var err error
		m, err = d.Store.GroupMap(id)
		return err
	})
	if ok {
		s.writeJSON(w, m, http.StatusOK)
	}
}

func (s *Server) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	var req instantiateRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	var rec nodel.Record
	ok := s.do(w, r, func(d *Diagram) error {
		id, err := d.Store.Instantiate(req.Map, req.X, req.Y)
		if err != nil {
			return err
		}
		n, _ := d.Store.Node(id)
		rec = n.Record()
		return nil
	})
	if ok {
		s.writeJSON(w, rec, http.StatusCreated)
	}
}

// =============================================================================
// Edges
// =============================================================================

func (s *Server) handleListEdges(w http.ResponseWriter, r *http.Request) {
	var edges []edgeResponse
	ok := s.do(w, r, func(d *Diagram) error {
		for _, e := range d.Store.Graph().Edges() {
			edges = append(edges, edgeResponse(e))
		}
		return nil
	})
	if ok {
		if edges == nil {
			edges = []edgeResponse{}
		}
		s.writeJSON(w, edges, http.StatusOK)
	}
}

func (s *Server) edgeOp(w http.ResponseWriter, r *http.Request, fn func(st *nodel.Store) error) {
	if s.do(w, r, func(d *Diagram) error { return fn(d.Store) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.edgeOp(w, r, func(st *nodel.Store) error {
		return st.ConnectNodes(req.Parent, req.Child, req.Type)
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := edgeRequest{Parent: q.Get("parent"), Child: q.Get("child"), Type: q.Get("type")}
	s.edgeOp(w, r, func(st *nodel.Store) error {
		return st.DisconnectNodes(req.Parent, req.Child, req.Type)
	})
}

func (s *Server) handleToggleConnect(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.edgeOp(w, r, func(st *nodel.Store) error {
		return st.ToggleConnect(req.Parent, req.Child, req.Type)
	})
}

func (s *Server) handleConnectionType(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var relType string
	ok := s.do(w, r, func(d *Diagram) error {
		var err error
		relType, err = d.Store.ConnectionType(q.Get("parent"), q.Get("child"))
		return err
	})
	if ok {
		s.writeJSON(w, map[string]string{"type": relType}, http.StatusOK)
	}
}

// handleSetConnectionType moves the edge to req.Type. With req.From set only
// the edge under that type is moved, and it must exist.
func (s *Server) handleSetConnectionType(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.edgeOp(w, r, func(st *nodel.Store) error {
		if req.From != "" {
			return st.ReassignRelation(req.Parent, req.Child, req.From, req.Type)
		}
		return st.SetConnectionType(req.Parent, req.Child, req.Type)
	})
}

// =============================================================================
// Queries, batches and events
// =============================================================================

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	var out []nodel.Record
	ok := s.do(w, r, func(d *Diagram) error {
		switch kind {
		case "heads":
			out = records(d.Store.Heads())
		case "leaves":
			out = records(d.Store.Leaves())
		case "groups":
			out = records(d.Store.Groups())
		case "visible":
			out = records(d.Store.VisibleNodes())
		default:
			return nerrors.New(nerrors.ErrCodeNotFound, "unknown query %q", kind)
		}
		return nil
	})
	if ok {
		s.writeJSON(w, out, http.StatusOK)
	}
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	var res batchResponse
	ok := s.do(w, r, func(d *Diagram) error {
		res = applyBatch(d, req.Ops)
		return nil
	})
	if !ok {
		return
	}
	status := http.StatusOK
	if res.Error != nil {
		status = StatusFor(res.err)
	}
	s.writeJSON(w, res, status)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	var resp eventResponse
	ok := s.do(w, r, func(d *Diagram) error {
		var err error
		resp, err = correlate(d.Store, req)
		return err
	})
	if ok {
		s.writeJSON(w, resp, http.StatusOK)
	}
}

// =============================================================================
// Rendering
// =============================================================================

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, nerrors.Wrap(nerrors.ErrCodeNotFound, err, "unknown render format"))
		return
	}

	var (
		dot        string
		snap       nodel.Snapshot
		configHash string
	)
	if !s.do(w, r, func(d *Diagram) error {
		dot = d.Renderer.ToDOT(d.Store.Graph())
		snap = d.Store.Snapshot()
		configHash = d.Renderer.ConfigHash()
		return nil
	}) {
		return
	}

	out, err := s.renderCached(r.Context(), dot, snap, format, configHash)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(out)
}

// renderCached renders dot in format, caching SVG and PNG output under the
// snapshot hash. Cache failures are logged and never fail the request.
func (s *Server) renderCached(ctx context.Context, dot string, snap nodel.Snapshot, format render.Format, configHash string) ([]byte, error) {
	if format == render.FormatDOT {
		return []byte(dot), nil
	}
	hash, err := snapshot.Hash(snap)
	if err != nil {
		return nil, err
	}
	key := s.keyer.RenderKey(hash, cache.RenderKeyOpts{Format: string(format), ConfigHash: configHash})

	if data, hit, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("render cache read failed", "err", err)
	} else if hit {
		s.logger.Debug("render cache hit", "format", format)
		return data, nil
	}

	out, err := nodelink.Render(ctx, dot, format)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out, s.cacheTTL); err != nil {
		s.logger.Warn("render cache write failed", "err", err)
	}
	return out, nil
}
