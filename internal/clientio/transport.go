// Package clientio is the client side of the spec §4.A frame codec and §6
// wire protocol: a thin wrapper over one gorilla/websocket connection that
// sends AudioFrames and receives ResultFrames. Both the capture pipeline (G)
// and the file pipeline (H) share this transport; it owns nothing about
// segmentation or recognition, mirroring how the teacher's client-facing
// code in internal/api/server.go keeps the websocket plumbing separate from
// session/business logic.
package clientio

import (
	"fmt"

	"github.com/gorilla/websocket"

	"dictation/internal/wire"
)

// Conn is one client->server dictation connection.
type Conn struct {
	ws *websocket.Conn
}

// Dial opens a websocket connection to addr, negotiating the "binary"
// subprotocol the server's connection manager expects (spec §4.F).
func Dial(addr string) (*Conn, error) {
	dialer := websocket.Dialer{Subprotocols: []string{"binary"}}
	ws, _, err := dialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("clientio: dial %s: %w", addr, err)
	}
	return &Conn{ws: ws}, nil
}

// Send writes one AudioFrame as the connection's single logical message
// (spec §4.A: no sub-message framing).
func (c *Conn) Send(frame wire.AudioFrame) error {
	if err := c.ws.WriteJSON(frame); err != nil {
		return fmt.Errorf("clientio: send: %w", err)
	}
	return nil
}

// Recv blocks for the next ResultFrame.
func (c *Conn) Recv() (wire.ResultFrame, error) {
	var frame wire.ResultFrame
	if err := c.ws.ReadJSON(&frame); err != nil {
		return wire.ResultFrame{}, fmt.Errorf("clientio: recv: %w", err)
	}
	return frame, nil
}

// Close ends the connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
