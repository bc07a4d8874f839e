package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/replaygraph-mcp/internal/mcp/tools"
)

// Resource URI scheme: replaygraph://
// Supported URIs:
//   replaygraph://run/{run_id}

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "replaygraph://run/{run_id}",
		Name:        "Resolution Run",
		Description: "Complete dependency graph of a run as JSON, including full node payloads. High context cost - replaygraph_get_run already returns the graph structure. Only fetch for raw graph data export.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourceRun)
}

func (s *Server) handleResourceRun(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	runID, err := parseRunURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	result, _, ok := s.deps.Run(runID)
	if !ok {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	return toResourceResult(req.Params.URI, result.Graph.ToExport())
}

// parseRunURI extracts the run id from a replaygraph:// URI.
func parseRunURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, "replaygraph://") {
		return "", tools.ErrInvalidInput("invalid URI scheme: expected replaygraph://")
	}

	path := strings.TrimPrefix(uri, "replaygraph://")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "run" || parts[1] == "" {
		return "", tools.ErrInvalidInput("run URI requires a run id")
	}
	return parts[1], nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
