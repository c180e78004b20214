// Package main provides the unified match service:
// - Ingestion (scheduled): scan a demo directory, stream new files through
//   the parser service and load them
// - Pipeline (per match): transformer chain over freshly loaded events
// - Analytics (per match): compute and cache player metrics
// It exposes /health, /status and Prometheus /metrics over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"cs-match-lab/internal/analytics"
	"cs-match-lab/internal/ingestion"
	"cs-match-lab/internal/observability"
	"cs-match-lab/internal/orchestrator"
	"cs-match-lab/internal/storage"
	chstore "cs-match-lab/internal/storage/clickhouse"
	"cs-match-lab/internal/storage/memory"
	"cs-match-lab/internal/storage/migrations"
	pgstore "cs-match-lab/internal/storage/postgres"
	"cs-match-lab/internal/transform"
)

// Server holds all components of the unified service.
type Server struct {
	// Configuration
	parserURL    string
	demoDir      string
	scanInterval time.Duration

	// Components
	stores  *allStores
	loader  *ingestion.Loader
	runner  *orchestrator.Runner
	engine  *analytics.Engine
	metrics *observability.Metrics
	logger  *log.Logger

	// Transformer option overrides from flags
	pipelineOpts transform.Options

	// State
	mu            sync.Mutex
	processed     map[string]bool // demo file name -> done
	lastScan      time.Time
	started       time.Time
	demosIngested int
	pipelineRuns  int
	scanRunning   bool
}

// allStores holds all storage implementations.
type allStores struct {
	matches storage.MatchStore
	rounds  storage.RoundStore
	players storage.PlayerStore
	events  storage.EventStore
	kills   storage.KillStore
	stats   storage.RoundPlayerStatStore
	replay  storage.ReplayEventStore
	cache   storage.PlayerMetricsStore
}

func main() {
	// Parse flags (env vars as defaults)
	parserURL := flag.String("parser-url", envOr("PARSER_URL", "http://localhost:8000"), "Demo parser service base URL")
	demoDir := flag.String("demo-dir", envOr("DEMO_DIR", "demos"), "Directory scanned for .dem files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	scanInterval := flag.Duration("scan-interval", 1*time.Minute, "Demo directory scan interval")
	tradeWindow := flag.Int64("trade-window-ticks", 0, "Trade window override in ticks (0 = default)")
	clutchMinEnemies := flag.Int("clutch-min-enemies", 0, "Minimum enemies for a clutch situation (0 = default)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	httpAddr := flag.String("http-addr", ":9090", "HTTP address for health/status/metrics")
	flag.Parse()

	// Setup logger
	logger := log.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// Validate required flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	metrics := observability.NewMetrics("")

	orchStores := orchestrator.Stores{
		Matches: stores.matches,
		Rounds:  stores.rounds,
		Players: stores.players,
		Events:  stores.events,
		Kills:   stores.kills,
		Stats:   stores.stats,
		Replay:  stores.replay,
	}
	pipeline := orchestrator.NewPipeline(orchestrator.DefaultTransformers(orchStores)...).
		WithLogger(logger).
		WithObserver(metrics)

	server := &Server{
		parserURL:    *parserURL,
		demoDir:      *demoDir,
		scanInterval: *scanInterval,
		stores:       stores,
		loader: ingestion.NewLoader(
			ingestion.NewClient(*parserURL).WithLogger(logger),
			stores.matches, stores.rounds, stores.players, stores.events,
		),
		runner: orchestrator.NewRunner(orchStores).WithPipeline(pipeline),
		engine: analytics.NewEngine(analytics.EngineOptions{
			MatchStore:         stores.matches,
			RoundStore:         stores.rounds,
			PlayerStore:        stores.players,
			KillStore:          stores.kills,
			StatStore:          stores.stats,
			PlayerMetricsStore: stores.cache,
		}).WithCacheObserver(func(hit bool) {
			if hit {
				metrics.MetricsCacheHits.Inc()
			} else {
				metrics.MetricsCacheMisses.Inc()
			}
		}),
		metrics:   metrics,
		logger:    logger,
		processed: make(map[string]bool),
		started:   time.Now(),
	}
	server.pipelineOpts = transform.Options{
		TradeWindowTicks: *tradeWindow,
		ClutchMinEnemies: *clutchMinEnemies,
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Infof("Received signal %v, initiating graceful shutdown", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Infof("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*httpAddr)

	// Run the scan loop
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Info("Shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// createStores creates all required stores, running migrations for the
// database-backed ones.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		return &allStores{
			matches: memory.NewMatchStore(),
			rounds:  memory.NewRoundStore(),
			players: memory.NewPlayerStore(),
			events:  memory.NewEventStore(),
			kills:   memory.NewKillStore(),
			stats:   memory.NewRoundPlayerStatStore(),
			replay:  memory.NewReplayEventStore(),
			cache:   memory.NewPlayerMetricsStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse
	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		// PostgreSQL stores (normalized relational records)
		matches: pgstore.NewMatchStore(pool),
		rounds:  pgstore.NewRoundStore(pool),
		players: pgstore.NewPlayerStore(pool),
		kills:   pgstore.NewKillStore(pool),
		stats:   pgstore.NewRoundPlayerStatStore(pool),
		cache:   pgstore.NewPlayerMetricsStore(pool),

		// ClickHouse stores (high-volume append-only)
		events: chstore.NewEventStore(conn),
		replay: chstore.NewReplayEventStore(conn),
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// Run starts the demo scan loop.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Infof("Watching %s every %v (parser: %s)", s.demoDir, s.scanInterval, s.parserURL)

	// Scan immediately on start
	s.scan(ctx)

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

// scan picks up new demo files and runs them through ingest, pipeline and
// analytics. One file at a time; a failure on one file does not block the
// rest.
func (s *Server) scan(ctx context.Context) {
	s.mu.Lock()
	if s.scanRunning {
		s.mu.Unlock()
		s.logger.Debug("Scan already running, skipping")
		return
	}
	s.scanRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanRunning = false
		s.lastScan = time.Now()
		s.mu.Unlock()
	}()

	paths, err := filepath.Glob(filepath.Join(s.demoDir, "*.dem"))
	if err != nil {
		s.logger.Errorf("Scan failed: %v", err)
		return
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}

		name := filepath.Base(path)
		s.mu.Lock()
		seen := s.processed[name]
		s.mu.Unlock()
		if seen {
			continue
		}

		if err := s.processDemo(ctx, path); err != nil {
			s.logger.WithField("demo", name).Errorf("Processing failed: %v", err)
			continue
		}

		s.mu.Lock()
		s.processed[name] = true
		s.mu.Unlock()
	}
}

func (s *Server) processDemo(ctx context.Context, path string) error {
	name := filepath.Base(path)
	matchID := strings.TrimSuffix(name, filepath.Ext(name))
	logger := s.logger.WithFields(log.Fields{"demo": name, "match_id": matchID})

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open demo: %w", err)
	}
	defer f.Close()

	// Ingest
	start := time.Now()
	parsed, err := s.loader.IngestDemo(ctx, matchID, name, f)
	s.metrics.RecordIngestion(lenEvents(parsed), time.Since(start), err)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			logger.Info("Match already ingested, marking processed")
			return nil
		}
		return fmt.Errorf("ingest: %w", err)
	}
	logger.WithFields(log.Fields{
		"rounds": len(parsed.Rounds),
		"events": len(parsed.Events),
	}).Info("Demo ingested")

	s.mu.Lock()
	s.demosIngested++
	s.mu.Unlock()

	// Pipeline
	agg, err := s.runner.Run(ctx, matchID, s.pipelineOpts)
	if err != nil {
		s.metrics.RecordPipelineRun(false)
		return fmt.Errorf("pipeline: %w", err)
	}
	s.metrics.RecordPipelineRun(agg.Success)
	if !agg.Success {
		return fmt.Errorf("pipeline failed after %d transformers", agg.Summary.SucceededCount)
	}
	logger.WithFields(log.Fields{
		"records":     agg.Summary.TotalRecordsWritten,
		"duration_ms": agg.Summary.TotalDurationMs,
	}).Info("Pipeline completed")

	s.mu.Lock()
	s.pipelineRuns++
	s.mu.Unlock()

	// Analytics
	if _, err := s.engine.ComputeAndStore(ctx, matchID); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	s.metrics.MetricsComputed.Inc()
	logger.Info("Player metrics computed")
	return nil
}

func lenEvents(parsed *ingestion.ParsedMatch) int {
	if parsed == nil {
		return 0
	}
	return len(parsed.Events)
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Infof("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Errorf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	LastScan      time.Time `json:"last_scan,omitempty"`
	DemosIngested int       `json:"demos_ingested"`
	PipelineRuns  int       `json:"pipeline_runs"`
	ScanRunning   bool      `json:"scan_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).String(),
		LastScan:      s.lastScan,
		DemosIngested: s.demosIngested,
		PipelineRuns:  s.pipelineRuns,
		ScanRunning:   s.scanRunning,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
