package hotkey

import (
	"bufio"
	"strings"
	"testing"
	"time"
)

func TestStdinListenerBeginThenStop(t *testing.T) {
	l := &StdinListener{scanner: bufio.NewScanner(strings.NewReader("begin\nstop\n"))}

	done := make(chan struct{})
	go func() {
		l.WaitBegin()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitBegin did not return on the first line")
	}

	stop := l.WaitStop()
	select {
	case <-stop:
	case <-time.After(time.Second):
		t.Fatal("WaitStop channel did not close on the second line")
	}
}
