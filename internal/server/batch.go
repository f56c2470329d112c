package server

import (
	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
)

// batchOp is one mutation of a batch. The fields used depend on Op.
type batchOp struct {
	Op     string  `json:"op"`
	ID     string  `json:"id,omitempty"`
	Parent string  `json:"parent,omitempty"`
	Child  string  `json:"child,omitempty"`
	Type   string  `json:"type,omitempty"`
	Name   string  `json:"name,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
}

type batchRequest struct {
	Ops []batchOp `json:"ops"`
}

// batchResponse reports how far a batch got. Operations before a failure
// stay applied.
type batchResponse struct {
	Applied int            `json:"applied"`
	Draws   int            `json:"draws"`
	Error   *ErrorResponse `json:"error,omitempty"`

	err error
}

// applyBatch runs ops in order with drawing paused, so the whole batch
// produces at most one redraw. It stops at the first failing operation.
func applyBatch(d *Diagram, ops []batchOp) batchResponse {
	before := d.Renderer.Draws()
	res := applyPaused(d.Store, ops)
	res.Draws = d.Renderer.Draws() - before
	return res
}

func applyPaused(st *nodel.Store, ops []batchOp) batchResponse {
	st.PauseDraw()
	defer func() { _ = st.UnpauseDraw() }()

	for i, op := range ops {
		if err := applyOp(st, op); err != nil {
			return batchResponse{
				Applied: i,
				Error:   &ErrorResponse{Code: nerrors.GetCode(err), Message: nerrors.UserMessage(err)},
				err:     err,
			}
		}
	}
	return batchResponse{Applied: len(ops)}
}

func applyOp(st *nodel.Store, op batchOp) error {
	switch op.Op {
	case "move":
		return st.MoveNode(op.ID, op.X, op.Y)
	case "delete":
		return st.DeleteNode(op.ID)
	case "connect":
		return st.ConnectNodes(op.Parent, op.Child, op.Type)
	case "disconnect":
		return st.DisconnectNodes(op.Parent, op.Child, op.Type)
	case "toggle-connect":
		return st.ToggleConnect(op.Parent, op.Child, op.Type)
	case "set-type":
		return st.SetConnectionType(op.Parent, op.Child, op.Type)
	case "group":
		return st.CreateGroup(op.ID, op.Name)
	case "toggle":
		return st.ToggleGroup(op.ID)
	case "collapse":
		return st.SetCollapsed(op.ID, true)
	case "expand":
		return st.SetCollapsed(op.ID, false)
	default:
		return nerrors.New(nerrors.ErrCodeInvalidInput, "unknown batch operation %q", op.Op)
	}
}
