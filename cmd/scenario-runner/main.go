// Package main provides the scenario-runner CLI: it loads a declarative
// scenario file for one provider, registers that provider's trading
// clients into a registry, runs every selected scenario through the
// orchestrator, prints a pass/fail/skip summary, and exits non-zero on
// any failure. Flag-based subcommand-free CLI, in cmd/slcli's
// os.Args/flag.Parse style.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	appconfig "github.com/R3E-Network/scenario-engine/infrastructure/config"
	"github.com/R3E-Network/scenario-engine/infrastructure/httpstatus"
	"github.com/R3E-Network/scenario-engine/infrastructure/logging"
	"github.com/R3E-Network/scenario-engine/infrastructure/metrics"
	"github.com/R3E-Network/scenario-engine/infrastructure/middleware"
	"github.com/R3E-Network/scenario-engine/internal/orchestrator"
	"github.com/R3E-Network/scenario-engine/internal/registry"
	"github.com/R3E-Network/scenario-engine/internal/scenario"
	"github.com/R3E-Network/scenario-engine/internal/targets"
)

func main() {
	provider := flag.String("provider", "", "provider to run scenarios for: kraken or binance (required)")
	scenarioFile := flag.String("file", "", "scenario file base name under <scenarios-dir>/<provider>/ (required)")
	scenariosDir := flag.String("scenarios-dir", "scenarios", "root directory scenario files are loaded from")
	tags := flag.String("tags", "", "comma-separated tag filter; empty runs every enabled scenario")
	suite := flag.String("suite", "", "named suite (config/suites.yaml, or built-in smoke/rest/websocket/regression) to resolve tags from; -tags is appended to it")
	includeDisabled := flag.Bool("include-disabled", false, "run scenarios with enabled: false too")
	envFile := flag.String("env-file", ".env", "path to a .env file with provider credentials")
	listen := flag.String("listen", "", "address to serve /healthz, /metrics, /results on (e.g. :8090); empty disables the status surface")
	flag.Parse()

	log := logging.NewFromEnv("scenario-runner")
	ctx := context.Background()

	if *provider == "" || *scenarioFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: scenario-runner -provider=<kraken|binance> -file=<name> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := appconfig.LoadProviderConfig(*envFile)
	if err != nil {
		log.Fatal(ctx, "load provider config", err)
	}

	reg := registry.New(cfg)
	targets.Register(reg)

	loader := scenario.New(os.DirFS(*scenariosDir))
	loaded := loader.Load(*provider, *scenarioFile)
	if len(loaded.Scenarios) == 0 {
		fmt.Fprintf(os.Stderr, "no scenarios loaded: %s\n", loaded.Description)
		os.Exit(1)
	}

	var tagList []string
	if strings.TrimSpace(*suite) != "" {
		tagList = append(tagList, appconfig.GetSuiteTags(*suite)...)
	}
	tagList = append(tagList, appconfig.SplitAndTrimCSV(*tags)...)
	selected := scenario.Filter(loaded, tagList, *includeDisabled)

	met := metrics.Init("scenario-runner")
	statusServer := httpstatus.New(log)
	registerProviderHealthChecks(statusServer, cfg)
	var srv *http.Server
	var shutdown *middleware.GracefulShutdown
	if *listen != "" {
		srv = &http.Server{Addr: *listen, Handler: statusServer.Router()}
		shutdown = middleware.NewGracefulShutdown(srv, 10*time.Second)
		shutdown.ListenForSignals()
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(ctx, "status server stopped", err, nil)
			}
		}()
	}

	engine := orchestrator.New(reg, cfg, log)

	scenarios := make([]scenario.Scenario, 0, len(selected))
	for _, sel := range selected {
		scenarios = append(scenarios, sel.Scenario)
	}
	results := engine.Run(ctx, scenarios)
	statusServer.SetResults(results)

	passed, failed, skipped := summarize(results)
	for i, r := range results {
		recordScenarioMetrics(met, scenarios[i].Environment.Provider, scenarios[i].TargetClass, r)
	}
	printSummary(results, passed, failed, skipped)

	if shutdown != nil {
		shutdown.Wait()
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// registerProviderHealthChecks wires each configured provider's REST base
// URL into the status server's /healthz/deep probe.
func registerProviderHealthChecks(statusServer *httpstatus.Server, cfg *appconfig.ProviderConfig) {
	const pingTimeout = 5 * time.Second
	if cfg.Kraken.RESTURL != "" {
		statusServer.RegisterHealthCheck("kraken-rest", httpstatus.HTTPHealthCheck("kraken-rest", cfg.Kraken.RESTURL, pingTimeout))
	}
	if cfg.Binance.RESTURL != "" {
		statusServer.RegisterHealthCheck("binance-rest", httpstatus.HTTPHealthCheck("binance-rest", cfg.Binance.RESTURL, pingTimeout))
	}
}

func summarize(results []scenario.ExecutionResult) (passed, failed, skipped int) {
	for _, r := range results {
		switch {
		case isSkipped(r):
			skipped++
		case r.Passed:
			passed++
		default:
			failed++
		}
	}
	return passed, failed, skipped
}

func isSkipped(r scenario.ExecutionResult) bool {
	return len(r.ValidationDetails) == 1 && r.ValidationDetails[0].Field == "skip"
}

func recordScenarioMetrics(met *metrics.Metrics, provider, targetClass string, r scenario.ExecutionResult) {
	result := "failed"
	switch {
	case isSkipped(r):
		result = "skipped"
	case r.Passed:
		result = "passed"
	}
	met.RecordScenarioRun(provider, targetClass, result, r.Elapsed)
	for _, detail := range r.ValidationDetails {
		if !detail.Passed {
			met.RecordValidationFailure(provider, detail.Field)
		}
	}
	for _, ev := range r.EventResults {
		if !ev.Received {
			met.RecordEventTimeout(provider, ev.Name)
		}
	}
}

func printSummary(results []scenario.ExecutionResult, passed, failed, skipped int) {
	for _, r := range results {
		status := "FAIL"
		switch {
		case isSkipped(r):
			status = "SKIP"
		case r.Passed:
			status = "PASS"
		}
		fmt.Printf("[%s] %s (%s)\n", status, r.ScenarioName, r.Elapsed)
		if status == "FAIL" {
			for _, d := range r.ValidationDetails {
				if !d.Passed {
					fmt.Printf("    %s: expected=%v actual=%v %s\n", d.Field, d.Expected, d.Actual, d.Message)
				}
			}
			if r.Error != "" {
				fmt.Printf("    error: %s\n", r.Error)
			}
		}
	}
	fmt.Printf("\n%d passed, %d failed, %d skipped (of %d)\n", passed, failed, skipped, len(results))
}
