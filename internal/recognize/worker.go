package recognize

import (
	"context"
	"log"
	"time"

	"dictation/internal/queue"
	"dictation/internal/task"
)

// LiveSet is the shared, synchronized set of connection ids the connection
// manager keeps live. The worker consults it — and only reads it — before
// decoding a task, so a task whose connection has already gone away is
// dropped for free (spec §4.D, §5 "Shared-resource policy"). It is the only
// mutable state crossing the I/O-loop/worker boundary, mirroring the
// teacher's use of a small sync-guarded map for cross-goroutine state
// (ai/engine_manager.go's mutex-guarded activeEngine) generalized to a set.
type LiveSet struct {
	mu   chanMutex
	live map[string]struct{}
}

// chanMutex is a tiny sync.Mutex substitute kept local to this file. A
// LiveSet must come from NewLiveSet, which allocates both the map and the
// mutex channel; the zero value has a nil map.
type chanMutex struct{ ch chan struct{} }

func (m *chanMutex) lock() {
	if m.ch == nil {
		m.ch = make(chan struct{}, 1)
	}
	m.ch <- struct{}{}
}

func (m *chanMutex) unlock() { <-m.ch }

// NewLiveSet returns an empty live-socket set.
func NewLiveSet() *LiveSet {
	return &LiveSet{mu: chanMutex{ch: make(chan struct{}, 1)}, live: make(map[string]struct{})}
}

// Add marks socketID live.
func (s *LiveSet) Add(socketID string) {
	s.mu.lock()
	defer s.mu.unlock()
	s.live[socketID] = struct{}{}
}

// Remove marks socketID no longer live.
func (s *LiveSet) Remove(socketID string) {
	s.mu.lock()
	defer s.mu.unlock()
	delete(s.live, socketID)
}

// IsLive reports whether socketID is currently live.
func (s *LiveSet) IsLive(socketID string) bool {
	s.mu.lock()
	defer s.mu.unlock()
	_, ok := s.live[socketID]
	return ok
}

// PostProcessor applies the final-only text transforms of spec §4.E: CJK/
// ASCII whitespace normalization, punctuation, Chinese-number ITN, then
// whitespace normalization again. Each stage is optional per ServerConfig.
type PostProcessor struct {
	FormatSpell bool
	FormatPunc  bool
	FormatNum   bool

	Punc Punctuator
	ITN  ITN
}

// Apply runs the enabled stages in the fixed order the spec requires.
func (p PostProcessor) Apply(text string) string {
	if p.FormatSpell {
		text = collapseCJKSpaces(text)
	}
	if p.FormatPunc && p.Punc != nil && text != "" {
		if out, err := p.Punc.Punctuate(text); err == nil {
			text = out
		} else {
			log.Printf("recognize: punctuation model error, keeping unpunctuated text: %v", err)
		}
	}
	if p.FormatNum && p.ITN != nil {
		text = p.ITN.Apply(text)
	}
	if p.FormatSpell {
		text = collapseCJKSpaces(text)
	}
	return text
}

// Worker is the recognizer worker of spec §4.D: loads the recognizer once,
// pulls tasks from the in-queue with a short poll timeout so it can notice
// shutdown, drops tasks for dead connections, and otherwise runs them
// through the dedup engine and emits a Result.
type Worker struct {
	Recognizer Recognizer
	Post       PostProcessor
	Live       *LiveSet

	results map[string]*task.Result // RESULTS accumulator, private to the worker
}

// NewWorker constructs a worker over an already-loaded recognizer.
func NewWorker(r Recognizer, post PostProcessor, live *LiveSet) *Worker {
	return &Worker{
		Recognizer: r,
		Post:       post,
		Live:       live,
		results:    make(map[string]*task.Result),
	}
}

// pollTimeout bounds how long Run blocks between shutdown checks, mirroring
// the 1-second in_queue.get(timeout) poll of spec §5.
const pollTimeout = 1 * time.Second

// Run drains in, pushing produced Results to out, until ctx is canceled.
func (w *Worker) Run(ctx context.Context, in *queue.TaskQueue, out *queue.ResultQueue) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-in.Chan():
			w.handle(t, out)
		case <-time.After(pollTimeout):
			// just a wakeup to re-check ctx.Done()
		}
	}
}

func (w *Worker) handle(t task.Task, out *queue.ResultQueue) {
	if !w.Live.IsLive(t.SocketID) {
		log.Printf("worker: dropping task_id=%s, socket_id=%s no longer live", t.TaskID, t.SocketID)
		return
	}

	result, err := w.process(t)
	if err != nil {
		log.Printf("worker: segment decode failed for task_id=%s: %v (skipping segment)", t.TaskID, err)
		return
	}
	out.Put(*result)
}

// process runs one Task through the recognizer and the dedup engine and
// returns a copy of the accumulated Result: a partial one for a non-final
// task, and the post-processed final one once the task's is_final segment
// has been merged (at which point the accumulator entry is popped — spec §3
// lifecycle).
func (w *Worker) process(t task.Task) (*task.Result, error) {
	acc, ok := w.results[t.TaskID]
	if !ok {
		acc = &task.Result{TaskID: t.TaskID, SocketID: t.SocketID, Source: t.Source}
		w.results[t.TaskID] = acc
	}
	acc.TimeStart = t.TimeStart
	acc.TimeSubmit = t.TimeSubmit

	samples := t.Samples()
	duration := t.Duration()

	seg, err := w.Recognizer.Decode(samples, t.SampleRate)
	if err != nil {
		return nil, err
	}

	Merge(acc, seg, duration, t.Overlap, t.Offset, t.IsFinal)
	acc.Text = RenderText(acc.Tokens)

	if !t.IsFinal {
		out := acc.Clone()
		return &out, nil
	}

	acc.Text = w.Post.Apply(acc.Text)
	acc.TimeComplete = task.Now()
	acc.IsFinal = true

	final := acc.Clone()
	delete(w.results, t.TaskID)
	return &final, nil
}
