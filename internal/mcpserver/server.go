// Package mcpserver exposes the ClaimBoundary orchestrator as an MCP
// (Model Context Protocol) tool over stdio, in the same single-tool-per-run
// shape a dedicated MCP server package uses for its own tools.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/orchestrator"
)

// Server adapts an orchestrator.Orchestrator to the MCP tool surface.
type Server struct {
	orch *orchestrator.Orchestrator
}

// New builds a Server over an already-constructed Orchestrator.
func New(orch *orchestrator.Orchestrator) *Server {
	return &Server{orch: orch}
}

// RunClaimBoundaryAnalysisRequest is the MCP tool input.
type RunClaimBoundaryAnalysisRequest struct {
	Text          string `json:"text"`
	Kind          string `json:"kind,omitempty"` // "claim" | "question", defaults to "claim"
	Deterministic bool   `json:"deterministic,omitempty"`
}

// RunClaimBoundaryAnalysisResponse wraps the full resultJson payload
// (spec.md §6) as the MCP tool's structured output.
type RunClaimBoundaryAnalysisResponse struct {
	Result *domain.Result `json:"result"`
}

// RegisterTools registers the run-claim-boundary-analysis tool on mcpServer.
func (s *Server) RegisterTools(mcpServer *mcp.Server) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "run-claim-boundary-analysis",
		Description: "Decompose a claim or question into atomic sub-claims, research evidence per context, cluster claim boundaries, debate and weight verdicts by source reliability, and return an aggregated fact-check assessment.",
	}, s.handleRun)
}

func (s *Server) handleRun(ctx context.Context, req *mcp.CallToolRequest, input RunClaimBoundaryAnalysisRequest) (*mcp.CallToolResult, *RunClaimBoundaryAnalysisResponse, error) {
	if input.Text == "" {
		return nil, nil, fmt.Errorf("text is required")
	}

	result, err := s.orch.Run(ctx, domain.Input{
		Text:          input.Text,
		Kind:          resolveKind(input.Kind),
		Deterministic: input.Deterministic,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("run-claim-boundary-analysis: %w", err)
	}
	return nil, &RunClaimBoundaryAnalysisResponse{Result: result}, nil
}

// resolveKind defaults an MCP request's advisory kind string to "claim"
// unless it's exactly "question" (domain.Input.Kind is advisory — spec.md §4).
func resolveKind(kind string) domain.InputKind {
	if kind == string(domain.InputQuestion) {
		return domain.InputQuestion
	}
	return domain.InputClaim
}
