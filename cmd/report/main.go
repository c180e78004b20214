// Package main renders per-match markdown and CSV reports from persisted
// records and cached player metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cs-match-lab/internal/analytics"
	"cs-match-lab/internal/reporting"
	"cs-match-lab/internal/storage/migrations"
	pgstore "cs-match-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	matchID := flag.String("match-id", "", "Match to report on")
	listMatches := flag.Bool("list", false, "List stored matches and exit")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	flag.Parse()

	ctx := context.Background()

	if *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required")
		os.Exit(1)
	}
	if !*listMatches && *matchID == "" {
		fmt.Fprintln(os.Stderr, "Error: --match-id is required (or use --list)")
		os.Exit(1)
	}

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Error running migrations: %v\n", err)
		os.Exit(1)
	}

	matches := pgstore.NewMatchStore(pool)

	if *listMatches {
		all, err := matches.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing matches: %v\n", err)
			os.Exit(1)
		}
		if len(all) == 0 {
			fmt.Println("No matches stored.")
			return
		}
		for _, m := range all {
			fmt.Printf("%s  %-14s  %s\n", m.MatchID, m.MapName,
				time.UnixMilli(m.PlayedAt).UTC().Format(time.RFC3339))
		}
		return
	}

	rounds := pgstore.NewRoundStore(pool)
	engine := analytics.NewEngine(analytics.EngineOptions{
		MatchStore:         matches,
		RoundStore:         rounds,
		PlayerStore:        pgstore.NewPlayerStore(pool),
		KillStore:          pgstore.NewKillStore(pool),
		StatStore:          pgstore.NewRoundPlayerStatStore(pool),
		PlayerMetricsStore: pgstore.NewPlayerMetricsStore(pool),
	})

	gen := reporting.NewGenerator(matches, rounds, engine)
	report, err := gen.Generate(ctx, *matchID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	files := map[string]string{
		fmt.Sprintf("REPORT_%s.md", *matchID):   reporting.RenderMarkdown(report),
		fmt.Sprintf("players_%s.csv", *matchID): reporting.RenderScoreboardCSV(report.Scoreboard),
		fmt.Sprintf("rounds_%s.csv", *matchID):  reporting.RenderRoundsCSV(report.Rounds),
	}
	for name, content := range files {
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	}
}
