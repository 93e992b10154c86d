package relay

import "github.com/quarrylabs/quarry/internal/canvas"

// Message kinds carried over the relay. The five structural kinds flow in
// either direction; "users" is emitted by the relay only.
const (
	KindPosition = "position"
	KindEdge     = "edge"
	KindPreview  = "preview"
	KindNode     = "node"
	KindText     = "text"
	KindUsers    = "users"
)

// Message is the wire envelope: one JSON object per frame. Only the fields
// relevant to the kind are populated.
type Message struct {
	Kind     string           `json:"type"`
	NodeID   string           `json:"nodeId,omitempty"`
	Position *canvas.Position `json:"position,omitempty"`
	Edge     *canvas.Edge     `json:"edge,omitempty"`
	Preview  *canvas.Preview  `json:"preview,omitempty"`
	Node     *canvas.Node     `json:"node,omitempty"`
	Text     *string          `json:"text,omitempty"`
	Count    int              `json:"count,omitempty"`
}

// Forwardable reports whether the relay fans the message out to the other
// room members. Anything else (including client-sent "users" frames) is
// dropped.
func (m Message) Forwardable() bool {
	switch m.Kind {
	case KindPosition, KindEdge, KindPreview, KindNode, KindText:
		return true
	}
	return false
}

// UsersMessage builds the membership-count announcement for a room.
func UsersMessage(count int) Message {
	return Message{Kind: KindUsers, Count: count}
}
