package nodel

// EventKind tells what a UI event landed on.
type EventKind int

const (
	// NodeEvent is an event on the canvas, possibly over a node.
	NodeEvent EventKind = iota
	// ConnectionEvent is an event on a drawn connector.
	ConnectionEvent
)

func (k EventKind) String() string {
	if k == ConnectionEvent {
		return "connection"
	}
	return "node"
}

// Event correlates a UI event back to diagram identities. X and Y are the
// canvas coordinates supplied by the caller.
type Event struct {
	Kind  EventKind
	X, Y  float64
	Node  *Node   // node under the pointer for NodeEvent, nil over empty canvas
	Nodes []*Node // parent and child for ConnectionEvent
}

// NodeEvent builds the event for a pointer action at (x, y) targeting id. An
// empty or unknown id yields an event with a nil Node.
func (s *Store) NodeEvent(id string, x, y float64) Event {
	ev := Event{Kind: NodeEvent, X: x, Y: y}
	if n, ok := s.nodes.Get(id); ok {
		ev.Node = n
	}
	return ev
}

// ConnectionEvent builds the event for a pointer action on the connector
// from parent to child.
func (s *Store) ConnectionEvent(parentID, childID string, x, y float64) (Event, error) {
	parent, child, err := s.pair("connection-event", parentID, childID)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: ConnectionEvent, X: x, Y: y, Nodes: []*Node{parent, child}}, nil
}
