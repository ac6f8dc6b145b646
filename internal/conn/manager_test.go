package conn

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"dictation/internal/queue"
	"dictation/internal/recognize"
	"dictation/internal/task"
	"dictation/internal/wire"
)

func TestManagerRoundTrip(t *testing.T) {
	live := recognize.NewLiveSet()
	in := queue.NewTaskQueue()
	out := queue.NewResultQueue()
	mgr := NewManager(live, in, out)

	srv := httptest.NewServer(mgr)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Dispatch(ctx)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// 1 second of silence, final segment.
	pcm := make([]byte, task.SampleWidth*task.SampleRate)
	frame := wire.AudioFrame{
		TaskID:  "t1",
		IsFinal: true,
		Source:  string(task.SourceMic),
		Data:    wire.EncodePCM(pcm),
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	var queued task.Task
	select {
	case queued = <-in.Chan():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task to reach the in-queue")
	}
	if queued.TaskID != "t1" || !queued.IsFinal {
		t.Fatalf("unexpected task: %+v", queued)
	}

	// Simulate the worker replying, and verify it's routed back to the
	// same connection that submitted the task.
	out.Put(task.Result{TaskID: "t1", SocketID: queued.SocketID, Text: "hi", IsFinal: true})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var rf wire.ResultFrame
	if err := json.Unmarshal(raw, &rf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rf.Text != "hi" || !rf.IsFinal {
		t.Fatalf("unexpected result frame: %+v", rf)
	}
}

func TestManagerClosesOnBadFrame(t *testing.T) {
	live := recognize.NewLiveSet()
	in := queue.NewTaskQueue()
	out := queue.NewResultQueue()
	mgr := NewManager(live, in, out)

	srv := httptest.NewServer(mgr)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"not":"a valid frame"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected connection to be closed after a bad frame")
	}
}
