package batch

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordRunner struct {
	mu      sync.Mutex
	order   []string
	ctxs    []context.Context
	started chan string
	release chan struct{}
}

func (r *recordRunner) TranslateChapter(ctx context.Context, _, chapterID string, _ bool) error {
	r.mu.Lock()
	r.ctxs = append(r.ctxs, ctx)
	r.mu.Unlock()
	if r.started != nil {
		r.started <- chapterID
	}
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	r.order = append(r.order, chapterID)
	r.mu.Unlock()
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSchedulerProcessesFIFO(t *testing.T) {
	runner := &recordRunner{}
	s := NewScheduler(runner)

	jobs := []Job{
		{ProjectID: "p", ChapterID: "c1"},
		{ProjectID: "p", ChapterID: "c2"},
		{ProjectID: "p", ChapterID: "c3"},
	}
	if _, err := s.Enqueue(context.Background(), jobs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor(t, func() bool { return !s.Active() })

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.order) != 3 {
		t.Fatalf("expected 3 chapters processed, got %v", runner.order)
	}
	for i, want := range []string{"c1", "c2", "c3"} {
		if runner.order[i] != want {
			t.Fatalf("out of order: %v", runner.order)
		}
	}
}

func TestSchedulerStopClearsQueue(t *testing.T) {
	runner := &recordRunner{
		started: make(chan string, 3),
		release: make(chan struct{}),
	}
	s := NewScheduler(runner)

	jobs := []Job{
		{ProjectID: "p", ChapterID: "c1"},
		{ProjectID: "p", ChapterID: "c2"},
		{ProjectID: "p", ChapterID: "c3"},
	}
	if _, err := s.Enqueue(context.Background(), jobs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 第一章开始后停止，剩余的不再执行
	<-runner.started
	s.Stop()
	if s.Pending() != 0 {
		t.Fatalf("expected empty queue after stop, got %d", s.Pending())
	}
	close(runner.release)

	waitFor(t, func() bool { return !s.Active() })

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.order) != 1 || runner.order[0] != "c1" {
		t.Fatalf("expected only first chapter processed, got %v", runner.order)
	}
}

func TestSchedulerStopKeepsInFlightRunning(t *testing.T) {
	runner := &recordRunner{
		started: make(chan string, 2),
		release: make(chan struct{}),
	}
	s := NewScheduler(runner)

	jobs := []Job{
		{ProjectID: "p", ChapterID: "c1"},
		{ProjectID: "p", ChapterID: "c2"},
	}
	if _, err := s.Enqueue(context.Background(), jobs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Stop 只清队列，在途章节的上下文不能被取消
	<-runner.started
	s.Stop()

	runner.mu.Lock()
	inflight := runner.ctxs[0]
	runner.mu.Unlock()
	if err := inflight.Err(); err != nil {
		t.Fatalf("in-flight context canceled by stop: %v", err)
	}
	close(runner.release)

	waitFor(t, func() bool { return !s.Active() })

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.order) != 1 || runner.order[0] != "c1" {
		t.Fatalf("expected first chapter to finish naturally, got %v", runner.order)
	}
}

func TestSchedulerShutdownCancelsInFlight(t *testing.T) {
	runner := &recordRunner{
		started: make(chan string, 2),
		release: make(chan struct{}),
	}
	s := NewScheduler(runner)

	if _, err := s.Enqueue(context.Background(), []Job{{ProjectID: "p", ChapterID: "c1"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	<-runner.started
	s.Shutdown()

	runner.mu.Lock()
	inflight := runner.ctxs[0]
	runner.mu.Unlock()
	if inflight.Err() == nil {
		t.Fatal("expected shutdown to cancel the run context")
	}
	close(runner.release)

	waitFor(t, func() bool { return !s.Active() })
}

func TestSchedulerEnqueueWhileRunning(t *testing.T) {
	runner := &recordRunner{
		started: make(chan string, 4),
		release: make(chan struct{}),
	}
	s := NewScheduler(runner)

	if _, err := s.Enqueue(context.Background(), []Job{{ProjectID: "p", ChapterID: "c1"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-runner.started

	queued, err := s.Enqueue(context.Background(), []Job{{ProjectID: "p", ChapterID: "c2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 1 {
		t.Fatalf("expected 1 queued, got %d", queued)
	}
	close(runner.release)

	waitFor(t, func() bool { return !s.Active() })

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.order) != 2 || runner.order[1] != "c2" {
		t.Fatalf("expected c2 appended to running batch, got %v", runner.order)
	}
}

func TestSchedulerRejectsEmptyEnqueue(t *testing.T) {
	s := NewScheduler(&recordRunner{})
	if _, err := s.Enqueue(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty job list")
	}
}
