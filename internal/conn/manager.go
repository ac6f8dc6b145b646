// Package conn is the connection manager of spec §4.F: it upgrades incoming
// HTTP requests to WebSocket, runs one receive loop per connection feeding
// the shared task queue, and a single sender loop that routes results back
// to the connection that submitted them. Grounded on the teacher's
// internal/api/server.go client-map/broadcast shape (backend/internal/api/server.go),
// narrowed from fan-out broadcast to per-socket_id unicast since each result
// belongs to exactly one caller here.
package conn

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/google/uuid"

	"dictation/internal/queue"
	"dictation/internal/recognize"
	"dictation/internal/segment"
	"dictation/internal/task"
	"dictation/internal/wire"
)

// upgrader accepts the "binary" subprotocol clients negotiate (spec §4.A);
// origin checking is left permissive, matching the teacher's CheckOrigin.
var upgrader = websocket.Upgrader{
	CheckOrigin:    func(r *http.Request) bool { return true },
	Subprotocols:   []string{"binary"},
	ReadBufferSize: 1 << 16,
}

// Manager owns the live-socket set, the per-socket send channels, and the
// queues connecting to the recognizer worker(s).
type Manager struct {
	Live *recognize.LiveSet
	In   *queue.TaskQueue
	Out  *queue.ResultQueue

	mu      sync.Mutex
	clients map[string]*socket
}

type socket struct {
	conn  *websocket.Conn
	send  chan wire.ResultFrame
	cache *segment.Cache
}

// NewManager wires a connection manager over the shared task/result queues
// and live-socket set the worker also holds (internal/recognize.Worker).
func NewManager(live *recognize.LiveSet, in *queue.TaskQueue, out *queue.ResultQueue) *Manager {
	return &Manager{
		Live:    live,
		In:      in,
		Out:     out,
		clients: make(map[string]*socket),
	}
}

// ServeHTTP upgrades the request and runs the connection's receive loop
// until the client disconnects or sends a malformed frame.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("conn: upgrade failed: %v", err)
		return
	}

	socketID := uuid.NewString()
	sock := &socket{conn: conn, send: make(chan wire.ResultFrame, 32), cache: segment.NewCache()}

	m.mu.Lock()
	m.clients[socketID] = sock
	m.mu.Unlock()
	m.Live.Add(socketID)

	log.Printf("conn: socket_id=%s connected", socketID)

	go m.senderLoop(socketID, sock)
	m.receiveLoop(socketID, sock)

	m.Live.Remove(socketID)
	m.mu.Lock()
	delete(m.clients, socketID)
	m.mu.Unlock()
	close(sock.send)
	conn.Close()
	log.Printf("conn: socket_id=%s disconnected", socketID)
}

// receiveLoop decodes one AudioFrame per message, feeds it through this
// connection's segment cache, and enqueues the resulting Tasks. A malformed
// frame (spec §7 BadFrame) ends the connection.
func (m *Manager) receiveLoop(socketID string, sock *socket) {
	for {
		_, raw, err := sock.conn.ReadMessage()
		if err != nil {
			return
		}

		frame, err := wire.DecodeAudioFrame(raw)
		if err != nil {
			log.Printf("conn: socket_id=%s bad frame, closing: %v", socketID, err)
			return
		}

		pcm, err := frame.DecodePCM()
		if err != nil {
			log.Printf("conn: socket_id=%s bad frame, closing: %v", socketID, err)
			return
		}

		tasks := sock.cache.Accept(pcm, frame.SegDuration, frame.SegOverlap, frame.IsFinal,
			task.Source(frame.Source), frame.TaskID, socketID, frame.TimeStart)
		for _, t := range tasks {
			m.In.Put(t)
		}
	}
}

// senderLoop is the single writer for this connection's websocket.Conn;
// gorilla/websocket does not allow concurrent writers, so every outbound
// frame for this socket_id funnels through here.
func (m *Manager) senderLoop(socketID string, sock *socket) {
	for frame := range sock.send {
		if err := sock.conn.WriteJSON(frame); err != nil {
			log.Printf("conn: socket_id=%s write failed: %v", socketID, err)
			return
		}
	}
}

// Dispatch runs the manager's result fan-in: every Result the worker
// produces gets routed to its socket_id's send channel, or dropped if that
// connection is already gone (spec §5 "Shared-resource policy").
func (m *Manager) Dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-m.Out.Chan():
			m.route(r)
		}
	}
}

func (m *Manager) route(r task.Result) {
	m.mu.Lock()
	sock, ok := m.clients[r.SocketID]
	m.mu.Unlock()
	if !ok {
		log.Printf("conn: dropping result for task_id=%s, socket_id=%s no longer connected", r.TaskID, r.SocketID)
		return
	}

	select {
	case sock.send <- wire.ResultFrameFrom(r):
	default:
		log.Printf("conn: send buffer full for socket_id=%s, dropping result for task_id=%s", r.SocketID, r.TaskID)
	}
}
