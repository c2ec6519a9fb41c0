// Package orchestrator implements the scenario orchestrator (C5): the
// 11-step per-scenario lifecycle from §4.5 — skip gates, setup, event
// source activation, dynamic parameter resolution, primary dispatch,
// event awaiting, validation, and cleanup.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	appconfig "github.com/R3E-Network/scenario-engine/infrastructure/config"
	"github.com/R3E-Network/scenario-engine/infrastructure/logging"
	"github.com/R3E-Network/scenario-engine/internal/registry"
	"github.com/R3E-Network/scenario-engine/internal/scenario"
	"github.com/R3E-Network/scenario-engine/internal/targets"
)

// Engine is the sole unit of isolation (§9): a test harness can construct
// N independent Engines in one process, each with its own registry and
// context, sharing no state.
type Engine struct {
	registry       *registry.Registry
	providerConfig *appconfig.ProviderConfig
	logger         *logging.Logger
	ctx            *Context
}

// New constructs an Engine bound to reg and cfg. logger may be nil.
func New(reg *registry.Registry, cfg *appconfig.ProviderConfig, logger *logging.Logger) *Engine {
	return &Engine{
		registry:       reg,
		providerConfig: cfg,
		logger:         logger,
		ctx:            newContext(),
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Info(context.Background(), fmt.Sprintf(format, args...), nil)
}

// Run executes every scenario in order, clearing context after each
// (§9 Open Question 2: clear at both ends), and returns one
// ExecutionResult per scenario.
func (e *Engine) Run(ctx context.Context, scenarios []scenario.Scenario) []scenario.ExecutionResult {
	results := make([]scenario.ExecutionResult, 0, len(scenarios))
	for _, s := range scenarios {
		results = append(results, e.RunScenario(ctx, s))
		e.ctx.Clear()
	}
	return results
}

// RunScenario executes the 11-step algorithm from §4.5 for a single
// scenario.
func (e *Engine) RunScenario(ctx context.Context, s scenario.Scenario) scenario.ExecutionResult {
	start := time.Now()

	// Step 1: reset context.
	e.ctx.Clear()

	// Step 2: skip gates.
	if !s.IsEnabled() {
		return skippedResult(s, start, "Skipped (disabled)")
	}
	if s.Environment.RequiresLiveConnection && !e.credentialsUsable(s.Environment.Provider) {
		return skippedResult(s, start, "Skipped (requires live connection, no credentials in CI)")
	}

	// Step 3: setup steps.
	setupResults, abortErr := e.runSetupSteps(s.Setup)
	if abortErr != nil {
		return scenario.ExecutionResult{
			ScenarioID:   s.ID,
			ScenarioName: s.Name,
			Passed:       false,
			Error:        abortErr.Error(),
			Elapsed:      time.Since(start),
			ElapsedMs:    time.Since(start).Milliseconds(),
			SetupResults: setupResults,
		}
	}

	// Step 4: activate event source.
	source := e.activateEventSource(ctx, s)
	defer func() {
		// Step 11: deactivate event source.
		if source != nil {
			if err := source.Stop(); err != nil {
				e.logf("event source stop failed: %v", err)
			}
		}
	}()

	primaryInstance, instanceErr := e.registry.GetInstance(s.TargetClass)
	if instanceErr != nil {
		return scenario.ExecutionResult{
			ScenarioID:   s.ID,
			ScenarioName: s.Name,
			Passed:       false,
			Error:        instanceErr.Error(),
			Elapsed:      time.Since(start),
			ElapsedMs:    time.Since(start).Milliseconds(),
			SetupResults: setupResults,
		}
	}

	// Step 5: register event waiters (awaited concurrently with the
	// primary invocation, collected at step 8).
	eventResultsCh := make(chan []scenario.EventResult, 1)
	go func() {
		eventResultsCh <- awaitEvents(source, primaryInstance, s.Expected.Events)
	}()

	// Step 6: dynamic parameter resolution, then step 7: dispatch.
	actual, invokeErr := e.invokePrimary(ctx, s, primaryInstance)

	// Step 8: await all event waiters.
	eventResults := <-eventResultsCh

	// Step 9: validate.
	details := validateResult(actual, invokeErr, s.Expected, s.Validation)
	for i, ev := range s.Expected.Events {
		if ev.Required && !eventResults[i].Received {
			details = append(details, scenario.ValidationDetail{
				Field:    "event:" + ev.Name,
				Expected: true,
				Actual:   false,
				Passed:   false,
				Message:  "required event timed out",
			})
		}
	}
	passed := allDetailsPassed(details)

	// Step 10: cleanup steps (runs regardless of pass/fail; deactivation
	// happens in the deferred call above, step 11).
	cleanupResults := e.runCleanupSteps(s.Cleanup)

	result := scenario.ExecutionResult{
		ScenarioID:        s.ID,
		ScenarioName:      s.Name,
		Passed:            passed,
		Actual:            actual,
		Elapsed:           time.Since(start),
		ElapsedMs:         time.Since(start).Milliseconds(),
		ValidationDetails: details,
		SetupResults:      setupResults,
		CleanupResults:    cleanupResults,
		EventResults:      eventResults,
	}
	if invokeErr != nil {
		result.Error = invokeErr.Error()
	}
	return result
}

func skippedResult(s scenario.Scenario, start time.Time, reason string) scenario.ExecutionResult {
	return scenario.ExecutionResult{
		ScenarioID:   s.ID,
		ScenarioName: s.Name,
		Passed:       true,
		Elapsed:      time.Since(start),
		ElapsedMs:    time.Since(start).Milliseconds(),
		ValidationDetails: []scenario.ValidationDetail{{
			Field:   "skip",
			Passed:  true,
			Message: reason,
		}},
	}
}

func (e *Engine) credentialsUsable(provider string) bool {
	if e.providerConfig == nil {
		return false
	}
	return e.providerConfig.CredentialsUsable(provider)
}

func (e *Engine) runSetupSteps(steps []scenario.SetupStep) ([]scenario.StepResult, error) {
	results := make([]scenario.StepResult, 0, len(steps))
	for _, step := range steps {
		stepResult, value, err := e.runStep(step.TargetClass, step.TargetMethod, step.Parameters, step.ID)
		results = append(results, stepResult)
		if err != nil {
			if step.Required {
				return results, fmt.Errorf("required setup step %q failed: %w", step.ID, err)
			}
			continue
		}
		if step.StoreResultAs != "" {
			e.ctx.Set(step.StoreResultAs, extractStoreValue(value))
		}
	}
	return results, nil
}

func (e *Engine) runCleanupSteps(steps []scenario.CleanupStep) []scenario.StepResult {
	results := make([]scenario.StepResult, 0, len(steps))
	for _, step := range steps {
		stepResult, _, err := e.runStep(step.TargetClass, step.TargetMethod, step.Parameters, step.ID)
		results = append(results, stepResult)
		if err != nil && !step.ContinueOnError {
			break
		}
	}
	return results
}

func (e *Engine) runStep(targetClass, targetMethod string, parameters map[string]any, id string) (scenario.StepResult, any, error) {
	resolved, err := resolveParameters(parameters, e.ctx)
	if err != nil {
		return scenario.StepResult{ID: id, Passed: false, Error: err.Error()}, nil, err
	}
	value, err := e.registry.InvokeMethod(targetClass, targetMethod, resolved)
	if err != nil {
		return scenario.StepResult{ID: id, Passed: false, Error: err.Error()}, nil, err
	}
	return scenario.StepResult{ID: id, Passed: true}, value, nil
}

func extractStoreValue(result any) any {
	if m, ok := result.(map[string]any); ok {
		if data, exists := m["data"]; exists {
			return data
		}
	}
	return result
}

// invokePrimary implements steps 6-7: resolve context expressions, then
// dynamic sentinels (if any are present, requiring a market-data lookup),
// then dispatch through the registry.
func (e *Engine) invokePrimary(ctx context.Context, s scenario.Scenario, primaryInstance any) (any, error) {
	resolved, err := resolveParameters(s.Input.Parameters, e.ctx)
	if err != nil {
		return nil, err
	}

	if hasSentinel(resolved) {
		ticker, err := e.resolveTicker(ctx, primaryInstance, resolved)
		if err != nil {
			return nil, err
		}
		resolved, err = resolveDynamicSentinels(resolved, ticker)
		if err != nil {
			return nil, err
		}
	}

	return e.registry.InvokeMethod(s.TargetClass, s.TargetMethod, resolved)
}

func hasSentinel(params map[string]any) bool {
	for _, v := range params {
		if s, ok := v.(string); ok && isDynamicSentinel(s) {
			return true
		}
	}
	return false
}

// resolveTicker obtains the bid/ask/last triple dynamic sentinels need
// from primaryInstance itself, type-asserted to targets.MarketData —
// the same registry-resolved instance the primary method is dispatched
// on, per §4.5's implementation note that "the trading-client's
// market-data endpoints" is not a separate collaborator.
func (e *Engine) resolveTicker(ctx context.Context, primaryInstance any, params map[string]any) (targets.Ticker, error) {
	md, ok := primaryInstance.(targets.MarketData)
	if !ok {
		return targets.Ticker{}, fmt.Errorf("target does not implement market-data lookups required by dynamic parameter sentinels")
	}
	instrument, _ := stringParam(params, "symbol")
	if instrument == "" {
		instrument, _ = stringParam(params, "instrument")
	}
	return md.Ticker(ctx, instrument)
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
