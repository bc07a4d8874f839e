package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/replaygraph-mcp/internal/config"
	"github.com/usestring/replaygraph-mcp/internal/logging"
	"github.com/usestring/replaygraph-mcp/internal/mcp"
	"github.com/usestring/replaygraph-mcp/internal/mcp/tools"
	"github.com/usestring/replaygraph-mcp/internal/oracle"
)

func main() {
	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration is loaded from environment variables:
	// - LOG_LEVEL: debug, info, warn, error (default: info)
	// - LOG_FILE: path to log file (default: stderr only)
	// - GEMINI_API_KEY: enables the Gemini oracle; heuristic fallback otherwise
	// - STEP_BUDGET, ORACLE_MODEL, etc. (see internal/config for all options)
	cfg := config.Load()

	cleanup, err := logging.Setup(cfg)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	orc, err := buildOracle(ctx, cfg)
	if err != nil {
		slog.Error("failed to create oracle", "error", err)
		os.Exit(1)
	}

	server, err := mcp.NewServer(tools.NewDeps(cfg, orc), mcp.WithBuiltinTools())
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}

	// Run the server with stdio transport
	slog.Info("starting replaygraph MCP server on stdio")
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// buildOracle picks the Gemini backend when an API key is configured and the
// deterministic heuristic otherwise, wrapping either in the answer cache.
func buildOracle(ctx context.Context, cfg *config.Config) (oracle.Oracle, error) {
	var inner oracle.Oracle
	if os.Getenv("GEMINI_API_KEY") != "" {
		gem, err := oracle.NewGemini(ctx, cfg.OracleModel, cfg.OracleTimeout)
		if err != nil {
			return nil, err
		}
		inner = gem
		slog.Info("using Gemini oracle", "model", cfg.OracleModel)
	} else {
		inner = oracle.NewHeuristic()
		slog.Info("using heuristic oracle; set GEMINI_API_KEY for LLM-backed resolution")
	}
	cached, err := oracle.NewCached(inner, cfg.OracleCacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
