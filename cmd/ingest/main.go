// Package main provides a one-shot demo ingestion CLI: stream a demo file
// through the parser service and load the parsed match into the stores.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"cs-match-lab/internal/ingestion"
	"cs-match-lab/internal/storage"
	chstore "cs-match-lab/internal/storage/clickhouse"
	"cs-match-lab/internal/storage/memory"
	"cs-match-lab/internal/storage/migrations"
	pgstore "cs-match-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	demoPath := flag.String("demo", "", "Path to the .dem file to ingest")
	matchID := flag.String("match-id", "", "Match id to assign (default: derived from the file)")
	parserURL := flag.String("parser-url", "http://localhost:8000", "Demo parser service base URL")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (dry run)")
	batchSize := flag.Int("batch-size", ingestion.DefaultLoadBatchSize, "Event insert batch size")
	flag.Parse()

	logger := log.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if *demoPath == "" {
		logger.Fatal("--demo is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for a dry run)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("Received signal %v, cancelling ingestion", sig)
		cancel()
	}()

	// Open the demo file
	f, err := os.Open(*demoPath)
	if err != nil {
		logger.Fatalf("Failed to open demo: %v", err)
	}
	defer f.Close()

	id := *matchID
	if id == "" {
		id, err = deriveMatchID(f)
		if err != nil {
			logger.Fatalf("Failed to derive match id: %v", err)
		}
	}

	// Create stores
	matches, rounds, players, events, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Check the parser is reachable before streaming a large upload
	client := ingestion.NewClient(*parserURL).WithLogger(logger)
	if err := client.Health(ctx); err != nil {
		logger.Fatalf("Parser service unavailable: %v", err)
	}

	loader := ingestion.NewLoader(client, matches, rounds, players, events).WithBatchSize(*batchSize)

	start := time.Now()
	parsed, err := loader.IngestDemo(ctx, id, filepath.Base(*demoPath), f)
	if err != nil {
		logger.Fatalf("Ingestion failed: %v", err)
	}

	logger.WithFields(log.Fields{
		"match_id": id,
		"map":      parsed.Match.MapName,
		"rounds":   len(parsed.Rounds),
		"players":  len(parsed.Roster),
		"events":   len(parsed.Events),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Demo ingested")
}

// deriveMatchID hashes the demo content so re-ingesting the same file maps
// to the same match id. Rewinds the reader afterwards.
func deriveMatchID(f *os.File) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	sum := hex.EncodeToString(h.Sum(nil))
	return "demo-" + strings.ToLower(sum[:16]), nil
}

// createStores creates the stores the loader writes to.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (
	storage.MatchStore, storage.RoundStore, storage.PlayerStore, storage.EventStore, func(), error) {

	if useMemory {
		return memory.NewMatchStore(), memory.NewRoundStore(), memory.NewPlayerStore(),
			memory.NewEventStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return pgstore.NewMatchStore(pool), pgstore.NewRoundStore(pool), pgstore.NewPlayerStore(pool),
		chstore.NewEventStore(conn), cleanup, nil
}
