package collab

import (
	"github.com/quarrylabs/quarry/internal/canvas"
	"github.com/quarrylabs/quarry/internal/relay"
)

// BindCanvas registers handlers for the five structural kinds that apply
// incoming messages onto the canvas. Application is immediate and does not
// re-emit through the session, so remote mutations never echo back out.
func BindCanvas(s *Session, cv *canvas.Canvas) {
	s.Handle(relay.KindPosition, func(msg relay.Message) {
		if msg.Position == nil {
			return
		}
		cv.SetPosition(msg.NodeID, *msg.Position)
	})

	s.Handle(relay.KindEdge, func(msg relay.Message) {
		if msg.Edge == nil {
			return
		}
		cv.AddEdge(*msg.Edge)
	})

	s.Handle(relay.KindPreview, func(msg relay.Message) {
		if msg.Preview == nil {
			return
		}
		cv.SetPreview(msg.NodeID, msg.Preview)
	})

	s.Handle(relay.KindNode, func(msg relay.Message) {
		if msg.Node == nil {
			return
		}
		cv.UpsertNode(*msg.Node)
	})

	s.Handle(relay.KindText, func(msg relay.Message) {
		if msg.Text == nil {
			return
		}
		cv.SetText(msg.NodeID, *msg.Text)
	})
}
