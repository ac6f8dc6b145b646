package clientio

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dictation/internal/conn"
	"dictation/internal/queue"
	"dictation/internal/recognize"
	"dictation/internal/task"
	"dictation/internal/wire"
)

// TestConnSendRecvRoundTrip drives clientio.Conn against the real server
// connection manager over httptest, the same harness conn/manager_test.go
// uses from the server side — this is the client-side half of that
// round-trip.
func TestConnSendRecvRoundTrip(t *testing.T) {
	live := recognize.NewLiveSet()
	in := queue.NewTaskQueue()
	out := queue.NewResultQueue()
	mgr := conn.NewManager(live, in, out)

	srv := httptest.NewServer(mgr)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Dispatch(ctx)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := Dial(url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	pcm := make([]byte, task.SampleWidth*task.SampleRate)
	frame := wire.AudioFrame{
		TaskID:  "t1",
		IsFinal: true,
		Source:  string(task.SourceMic),
		Data:    wire.EncodePCM(pcm),
	}
	if err := c.Send(frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var queued task.Task
	select {
	case queued = <-in.Chan():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task to reach the in-queue")
	}
	if queued.TaskID != "t1" {
		t.Fatalf("unexpected task: %+v", queued)
	}

	out.Put(task.Result{TaskID: "t1", SocketID: queued.SocketID, Text: "hi", IsFinal: true})

	resultCh := make(chan wire.ResultFrame, 1)
	errCh := make(chan error, 1)
	go func() {
		rf, err := c.Recv()
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- rf
	}()

	select {
	case rf := <-resultCh:
		if rf.Text != "hi" || !rf.IsFinal {
			t.Fatalf("unexpected result frame: %+v", rf)
		}
	case err := <-errCh:
		t.Fatalf("Recv: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result frame")
	}
}
