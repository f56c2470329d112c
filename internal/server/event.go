package server

import (
	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
)

// eventRequest describes a pointer action reported by a client. Kind is
// "node" (ID may be empty for the bare canvas) or "connection" (Parent and
// Child name the connector).
type eventRequest struct {
	Kind   string  `json:"kind"`
	ID     string  `json:"id,omitempty"`
	Parent string  `json:"parent,omitempty"`
	Child  string  `json:"child,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type eventResponse struct {
	Kind  string         `json:"kind"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Node  *nodel.Record  `json:"node"`
	Nodes []nodel.Record `json:"nodes,omitempty"`
}

// correlate resolves the diagram identities an event refers to.
func correlate(st *nodel.Store, req eventRequest) (eventResponse, error) {
	var ev nodel.Event
	switch req.Kind {
	case "", "node":
		ev = st.NodeEvent(req.ID, req.X, req.Y)
	case "connection":
		var err error
		if ev, err = st.ConnectionEvent(req.Parent, req.Child, req.X, req.Y); err != nil {
			return eventResponse{}, err
		}
	default:
		return eventResponse{}, nerrors.New(nerrors.ErrCodeInvalidInput, "unknown event kind %q", req.Kind)
	}

	resp := eventResponse{Kind: ev.Kind.String(), X: ev.X, Y: ev.Y}
	if ev.Node != nil {
		rec := ev.Node.Record()
		resp.Node = &rec
	}
	if len(ev.Nodes) > 0 {
		resp.Nodes = records(ev.Nodes)
	}
	return resp, nil
}
