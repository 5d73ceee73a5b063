// Command loreingestd runs the ingestion pipeline: a directory watcher, an
// HTTP API, or both, wired from environment configuration. Grounded on
// cmd/sercha-core/main.go's mode switch, signal handling, and
// constructor-injection wiring.

// @title           lore-ingest API
// @version         1.0
// @description     Document ingestion, segmentation, and search API.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8088
// @BasePath  /v1
// @schemes   http
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ljramones/lore-ingest-go/internal/events"
	"github.com/ljramones/lore-ingest-go/internal/httpapi"
	"github.com/ljramones/lore-ingest-go/internal/ingest"
	"github.com/ljramones/lore-ingest-go/internal/parsers"
	"github.com/ljramones/lore-ingest-go/internal/store/sqlite"
	"github.com/ljramones/lore-ingest-go/internal/watcher"
)

var version = "dev"

func main() {
	mode := "all"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	if envMode := os.Getenv("RUN_MODE"); envMode != "" {
		mode = envMode
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	logger.Info("loreingestd starting", "version", version, "mode", mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	dbPath := getEnv("DB_PATH", "./lore.db")
	db, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensuring schema: %v", err)
	}
	if err := db.EnsureChunkFTS(ctx); err != nil {
		log.Fatalf("ensuring fts schema: %v", err)
	}
	logger.Info("database ready", "path", dbPath)

	store := sqlite.NewWorkStore(db)
	registry := parsers.DefaultRegistry()
	orch := ingest.New(registry, store)

	evManager := events.NewManager(logger, events.SinksFromEnv(logger)...)
	logger.Info("event sinks configured", "sinks", evManager.SinkNames())

	switch mode {
	case "api":
		runAPI(ctx, logger, store, orch, registry, evManager)

	case "watcher":
		runWatcher(ctx, logger, orch, evManager)

	case "all":
		go runWatcher(ctx, logger, orch, evManager)
		runAPI(ctx, logger, store, orch, registry, evManager)

	default:
		log.Fatalf("unknown mode: %s (use: api, watcher, or all)", mode)
	}
}

func runAPI(ctx context.Context, logger *slog.Logger, store *sqlite.WorkStore, orch *ingest.Orchestrator, registry *parsers.Registry, ev *events.Manager) {
	cfg := httpapi.DefaultConfig()
	cfg.Addr = fmt.Sprintf(":%d", getEnvInt("PORT", 8088))

	server := httpapi.New(cfg, logger, store, orch, registry, ev)
	logger.Info("http server starting", "addr", cfg.Addr)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("http server error: %v", err)
	}
}

func runWatcher(ctx context.Context, logger *slog.Logger, orch *ingest.Orchestrator, ev *events.Manager) {
	cfg := watcher.LoadConfigFromEnv()
	w := watcher.New(cfg, orch, ev, logger)

	logger.Info("watcher starting", "inbox", cfg.Inbox, "workers", cfg.Workers)
	if err := w.Start(ctx); err != nil {
		log.Fatalf("watcher start error: %v", err)
	}

	<-ctx.Done()
	logger.Info("watcher stopping")
	w.Stop()
	logger.Info("watcher stopped")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}
