package recognize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// CloudEngineConfig dials a hosted ASR endpoint instead of loading a local
// model, for deployments that want to swap the offline engine for a vendor
// API without touching the segmenter or the worker. The wire shape here is
// deliberately generic (one JSON request, one JSON response per segment)
// rather than tied to any one vendor's framing.
type CloudEngineConfig struct {
	URL       string
	AuthToken string
	Timeout   time.Duration
}

// cloudEngine is a Recognizer that re-dials (or reuses) a websocket
// connection per Decode call. Grounded on the request/response/reconnect
// shape of a hosted streaming-ASR client: one full-duplex connection, a JSON
// request frame per audio chunk, a JSON response frame with text back.
type cloudEngine struct {
	cfg CloudEngineConfig

	mu   sync.Mutex
	conn *websocket.Conn
}

var _ Recognizer = (*cloudEngine)(nil)

// NewCloudEngine validates configuration and lazily dials on first Decode —
// dialing eagerly here would fail engine construction whenever the network
// blips at startup, which is worse than a hosted engine's first request
// taking one extra round trip.
func NewCloudEngine(cfg CloudEngineConfig) (Recognizer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("recognize: cloud engine requires a URL")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &cloudEngine{cfg: cfg}, nil
}

type cloudRequest struct {
	Samples    []float32 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
}

type cloudResponse struct {
	Tokens     []string  `json:"tokens"`
	Timestamps []float64 `json:"timestamps"`
	Error      string    `json:"error,omitempty"`
}

func (e *cloudEngine) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if e.cfg.AuthToken != "" {
		header.Set("Authorization", "Bearer "+e.cfg.AuthToken)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, e.cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("recognize: cloud engine dial: %w", err)
	}
	return conn, nil
}

// Decode sends one segment's samples as a JSON request frame and waits for
// the matching JSON response frame. A dead connection is torn down and
// re-dialed on the next call rather than retried inline, keeping this call
// bounded by a single Timeout.
func (e *cloudEngine) Decode(samples []float32, sampleRate int) (Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Timeout)
	defer cancel()

	if e.conn == nil {
		conn, err := e.dial(ctx)
		if err != nil {
			return Segment{}, err
		}
		e.conn = conn
	}

	req := cloudRequest{Samples: samples, SampleRate: sampleRate}
	payload, err := json.Marshal(req)
	if err != nil {
		return Segment{}, fmt.Errorf("recognize: cloud engine encode request: %w", err)
	}

	if err := e.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		e.conn.Close()
		e.conn = nil
		return Segment{}, fmt.Errorf("recognize: cloud engine write: %w", err)
	}

	e.conn.SetReadDeadline(time.Now().Add(e.cfg.Timeout))
	_, raw, err := e.conn.ReadMessage()
	if err != nil {
		e.conn.Close()
		e.conn = nil
		return Segment{}, fmt.Errorf("recognize: cloud engine read: %w", err)
	}

	var resp cloudResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Segment{}, fmt.Errorf("recognize: cloud engine decode response: %w", err)
	}
	if resp.Error != "" {
		return Segment{}, fmt.Errorf("recognize: cloud engine returned error: %s", resp.Error)
	}

	return Segment{Tokens: resp.Tokens, Timestamps: resp.Timestamps}, nil
}

func (e *cloudEngine) Name() string { return "cloud" }

func (e *cloudEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil {
		e.conn.Close()
		e.conn = nil
	}
}
