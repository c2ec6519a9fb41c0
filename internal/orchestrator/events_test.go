package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/R3E-Network/scenario-engine/internal/scenario"
)

type fakeEventSource struct {
	mu        sync.Mutex
	callbacks map[string][]func(map[string]any)
	started   bool
	stopped   bool
}

func newFakeEventSource() *fakeEventSource {
	return &fakeEventSource{callbacks: make(map[string][]func(map[string]any))}
}

func (f *fakeEventSource) Start(ctx context.Context) error {
	f.started = true
	return nil
}

func (f *fakeEventSource) Stop() error {
	f.stopped = true
	return nil
}

func (f *fakeEventSource) OnEvent(name string, callback func(map[string]any)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks[name] = append(f.callbacks[name], callback)
	return func() {}
}

func (f *fakeEventSource) emit(name string, data map[string]any) {
	f.mu.Lock()
	callbacks := append([]func(map[string]any){}, f.callbacks[name]...)
	f.mu.Unlock()
	for _, cb := range callbacks {
		cb(data)
	}
}

func TestAwaitEvents_ReceivesBeforeTimeout(t *testing.T) {
	source := newFakeEventSource()
	events := []scenario.ExpectedEvent{
		{Name: "order.filled", Required: true, TimeoutMs: scenario.Millis(200 * time.Millisecond)},
	}

	resultsCh := make(chan []scenario.EventResult, 1)
	go func() { resultsCh <- awaitEvents(source, nil, events) }()

	time.Sleep(10 * time.Millisecond)
	source.emit("order.filled", map[string]any{"id": "o1"})

	results := <-resultsCh
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if !results[0].Received {
		t.Error("event should have been received")
	}
	if results[0].Data["id"] != "o1" {
		t.Errorf("event data = %v, want id o1", results[0].Data)
	}
}

func TestAwaitEvents_TimesOutWithoutEmitter(t *testing.T) {
	events := []scenario.ExpectedEvent{
		{Name: "order.filled", Required: true, TimeoutMs: scenario.Millis(20 * time.Millisecond)},
	}
	results := awaitEvents(nil, nil, events)
	if len(results) != 1 || results[0].Received {
		t.Errorf("results = %+v, want a single timed-out result", results)
	}
}

func TestAwaitEvents_FallsBackToPrimaryInstance(t *testing.T) {
	fallback := newFakeEventSource()
	events := []scenario.ExpectedEvent{
		{Name: "order.filled", Required: true, TimeoutMs: scenario.Millis(200 * time.Millisecond)},
	}

	resultsCh := make(chan []scenario.EventResult, 1)
	go func() { resultsCh <- awaitEvents(nil, fallback, events) }()

	time.Sleep(10 * time.Millisecond)
	fallback.emit("order.filled", map[string]any{"id": "o2"})

	results := <-resultsCh
	if !results[0].Received {
		t.Error("event should have been received via fallback")
	}
}

func TestAwaitEvents_MultipleConcurrentWaiters(t *testing.T) {
	source := newFakeEventSource()
	events := []scenario.ExpectedEvent{
		{Name: "a", Required: true, TimeoutMs: scenario.Millis(200 * time.Millisecond)},
		{Name: "b", Required: true, TimeoutMs: scenario.Millis(200 * time.Millisecond)},
		{Name: "c", Required: false, TimeoutMs: scenario.Millis(20 * time.Millisecond)},
	}

	resultsCh := make(chan []scenario.EventResult, 1)
	go func() { resultsCh <- awaitEvents(source, nil, events) }()

	time.Sleep(10 * time.Millisecond)
	source.emit("a", map[string]any{})
	source.emit("b", map[string]any{})

	results := <-resultsCh
	if !results[0].Received || !results[1].Received {
		t.Errorf("results = %+v, want a and b received", results)
	}
	if results[2].Received {
		t.Error("event c was never emitted and should have timed out")
	}
}
