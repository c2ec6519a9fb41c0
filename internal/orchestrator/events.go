package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/R3E-Network/scenario-engine/internal/scenario"
)

const defaultEventTimeout = 5 * time.Second

// EventSource is implemented by any registry class that can drive a
// scenario's event waiters: an authenticated WebSocket-backed adapter
// (constructed per-scenario from `scenario.EventSource.TargetClass`) or,
// absent one, the scenario's own primary target instance (§4.5 step 5:
// "observed on the active event source, or on the primary target instance
// if no event source is active"). Start/Stop bracket the source's
// lifetime; OnEvent registers one callback for one named event and
// returns a function that revokes it.
type EventSource interface {
	Start(ctx context.Context) error
	Stop() error
	OnEvent(name string, callback func(map[string]any)) (cancel func())
}

// activateEventSource resolves and starts scenario's declared event
// source, if any. Per §4.5 step 4, a construction or start failure is
// logged but never aborts the scenario — event waiters simply time out
// against a source that never delivers.
func (e *Engine) activateEventSource(ctx context.Context, s scenario.Scenario) EventSource {
	if s.EventSource == nil {
		return nil
	}

	instance, err := e.registry.GetInstance(s.EventSource.TargetClass)
	if err != nil {
		e.logf("event source %q: resolve failed: %v", s.EventSource.TargetClass, err)
		return nil
	}

	source, ok := instance.(EventSource)
	if !ok {
		e.logf("event source %q: class does not implement EventSource", s.EventSource.TargetClass)
		return nil
	}

	if err := source.Start(ctx); err != nil {
		e.logf("event source %q: start failed: %v", s.EventSource.TargetClass, err)
		return nil
	}
	return source
}

// awaitEvents registers one waiter goroutine per declared expected event
// and blocks until every waiter has resolved, per §5's "awaiting N event
// waiters simultaneously" concurrency model. source may be nil (no active
// event source); fallback is consulted in that case and may also be nil,
// in which case every waiter times out.
func awaitEvents(source EventSource, fallback any, events []scenario.ExpectedEvent) []scenario.EventResult {
	if len(events) == 0 {
		return nil
	}

	results := make([]scenario.EventResult, len(events))
	var wg sync.WaitGroup
	for i, ev := range events {
		wg.Add(1)
		go func(i int, ev scenario.ExpectedEvent) {
			defer wg.Done()
			results[i] = awaitOneEvent(source, fallback, ev)
		}(i, ev)
	}
	wg.Wait()
	return results
}

func awaitOneEvent(source EventSource, fallback any, ev scenario.ExpectedEvent) scenario.EventResult {
	timeout := ev.TimeoutMs.Duration()
	if timeout <= 0 {
		timeout = defaultEventTimeout
	}

	var emitter EventSource
	if source != nil {
		emitter = source
	} else if fb, ok := fallback.(EventSource); ok {
		emitter = fb
	}

	if emitter == nil {
		<-time.After(timeout)
		return scenario.EventResult{Name: ev.Name, Received: false, TimeoutMs: timeout.Milliseconds()}
	}

	received := make(chan map[string]any, 1)
	cancel := emitter.OnEvent(ev.Name, func(data map[string]any) {
		select {
		case received <- data:
		default:
		}
	})
	defer cancel()

	select {
	case data := <-received:
		return scenario.EventResult{Name: ev.Name, Received: true, Data: data, TimeoutMs: timeout.Milliseconds()}
	case <-time.After(timeout):
		return scenario.EventResult{Name: ev.Name, Received: false, TimeoutMs: timeout.Milliseconds()}
	}
}
