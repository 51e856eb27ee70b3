// Package main provides the entry point for the ClaimBoundary fact-checking
// MCP server.
//
// This server is designed to be spawned as a child process by an MCP host
// and communicates via stdio using the Model Context Protocol. It exposes
// one tool, run-claim-boundary-analysis, that decomposes, researches,
// clusters, debates, and aggregates a fact-check verdict for a single
// claim or question.
//
// Environment variables:
//   - ANTHROPIC_API_KEY: Anthropic API key (required)
//   - SERPAPI_API_KEY: SerpAPI key for web search (required)
//   - FCB_*: engine configuration overrides, see internal/config
package main

import (
	"context"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/claimboundary/factcheck/internal/config"
	"github.com/claimboundary/factcheck/internal/events"
	"github.com/claimboundary/factcheck/internal/fetch"
	"github.com/claimboundary/factcheck/internal/llmclient"
	"github.com/claimboundary/factcheck/internal/mcpserver"
	"github.com/claimboundary/factcheck/internal/orchestrator"
	"github.com/claimboundary/factcheck/internal/search"
)

func main() {
	if os.Getenv("DEBUG") == "true" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("Starting ClaimBoundary fact-check server in debug mode...")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Loaded configuration for environment %q", cfg.Server.Environment)

	anthropic, err := llmclient.NewAnthropicProvider()
	if err != nil {
		log.Fatalf("Failed to initialize Anthropic provider: %v", err)
	}

	searchProvider := search.NewSerpAPIProvider(os.Getenv("SERPAPI_API_KEY"))
	httpFetcher := fetch.NewHTTPFetcher(0, "")
	sink := events.NewChannelSink(256)
	go drainEvents(sink)

	orch, err := orchestrator.New(cfg, anthropic, searchProvider, search.NoopTranslator{}, httpFetcher, sink)
	if err != nil {
		log.Fatalf("Failed to initialize orchestrator: %v", err)
	}
	log.Println("Initialized orchestrator")

	srv := mcpserver.New(orch)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)
	log.Println("Created MCP server")

	srv.RegisterTools(mcpServer)
	log.Println("Registered tool: run-claim-boundary-analysis")

	transport := &mcp.StdioTransport{}
	log.Println("Created stdio transport")

	ctx := context.Background()
	log.Println("Starting MCP server...")
	if err := mcpServer.Run(ctx, transport); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// loadConfig loads a JSON config file named by FCB_CONFIG_FILE if set,
// otherwise falls back to environment-variable-only configuration.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("FCB_CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// drainEvents logs stage-lifecycle events fired by the orchestrator. A
// dedicated goroutine keeps Emit non-blocking for the run loop.
func drainEvents(sink *events.ChannelSink) {
	for e := range sink.Events() {
		log.Printf("event=%s stage=%s duration=%s", e.Name, e.Stage, e.Duration)
	}
}
