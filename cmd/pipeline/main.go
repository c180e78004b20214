// Package main provides the fixture-driven end-to-end pipeline entry point.
// Executes: fixtures → transformers → analytics → report, all in memory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"

	"cs-match-lab/internal/analytics"
	"cs-match-lab/internal/orchestrator"
	"cs-match-lab/internal/reporting"
	"cs-match-lab/internal/storage/memory"
	"cs-match-lab/internal/transform"
)

func main() {
	// Parse flags
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New()
	logger.SetOutput(os.Stdout)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling pipeline...\n", sig)
		cancel()
	}()

	// Create all memory stores
	matches := memory.NewMatchStore()
	rounds := memory.NewRoundStore()
	players := memory.NewPlayerStore()
	events := memory.NewEventStore()
	kills := memory.NewKillStore()
	stats := memory.NewRoundPlayerStatStore()
	replay := memory.NewReplayEventStore()
	metricsCache := memory.NewPlayerMetricsStore()

	stores := orchestrator.Stores{
		Matches: matches,
		Rounds:  rounds,
		Players: players,
		Events:  events,
		Kills:   kills,
		Stats:   stats,
		Replay:  replay,
	}

	// Seed the synthetic fixture match
	if err := orchestrator.LoadFixtures(ctx, stores); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
		os.Exit(1)
	}

	// Run the transformer pipeline
	fmt.Println("=== Match Pipeline ===")
	runner := orchestrator.NewRunner(stores).
		WithPipeline(orchestrator.NewPipeline(orchestrator.DefaultTransformers(stores)...).WithLogger(logger))

	agg, err := runner.Run(ctx, orchestrator.FixtureMatchID, transform.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Pipeline completed (success=%v):\n", agg.Success)
	for _, res := range agg.Results {
		fmt.Printf("  %-16s records=%-4d duration=%dms\n", res.Name, res.RecordsWritten, res.DurationMs)
	}
	for _, sk := range agg.Skipped {
		fmt.Printf("  %-16s skipped: %s\n", sk.Name, sk.Reason)
	}
	if !agg.Success {
		os.Exit(1)
	}

	// Compute analytics
	fmt.Println("\n=== Analytics ===")
	engine := analytics.NewEngine(analytics.EngineOptions{
		MatchStore:         matches,
		RoundStore:         rounds,
		PlayerStore:        players,
		KillStore:          kills,
		StatStore:          stats,
		PlayerMetricsStore: metricsCache,
	})
	playerMetrics, err := engine.ComputeAndStore(ctx, orchestrator.FixtureMatchID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analytics error: %v\n", err)
		os.Exit(1)
	}
	for _, m := range playerMetrics {
		fmt.Printf("  %-8s rating=%.2f adr=%.1f kast=%.1f%%\n",
			m.DisplayName, m.Rating.Rating, m.Combat.DamagePerRound, m.Rating.KASTPercent)
	}

	// Render the match report
	fmt.Println("\n=== Report ===")
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	gen := reporting.NewGenerator(matches, rounds, engine)
	report, err := gen.Generate(ctx, orchestrator.FixtureMatchID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report error: %v\n", err)
		os.Exit(1)
	}

	files := map[string]string{
		"REPORT.md":   reporting.RenderMarkdown(report),
		"players.csv": reporting.RenderScoreboardCSV(report.Scoreboard),
		"rounds.csv":  reporting.RenderRoundsCSV(report.Rounds),
	}
	for name, content := range files {
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  wrote %s\n", path)
	}

	fmt.Println("\nDone.")
}
