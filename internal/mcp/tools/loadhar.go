package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/replaygraph-mcp/internal/corpus"
)

// LoadHARInput is the input for replaygraph_load_har.
type LoadHARInput struct {
	Path string `json:"path" jsonschema:"required,Path to a HAR capture file"`
}

// LoadHAROutput is the output for replaygraph_load_har.
type LoadHAROutput struct {
	Entries     int    `json:"entries"`
	Interesting int    `json:"interesting"`
	Cookies     int    `json:"cookies"`
	Hint        string `json:"hint,omitempty"`
}

// ToolLoadHAR loads and indexes a HAR capture, replacing any previous corpus.
func ToolLoadHAR(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input LoadHARInput) (*sdkmcp.CallToolResult, LoadHAROutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input LoadHARInput) (*sdkmcp.CallToolResult, LoadHAROutput, error) {
		if input.Path == "" {
			return nil, LoadHAROutput{}, ErrInvalidInput("path is required")
		}

		entries, cookies, err := corpus.LoadHAR(ctx, input.Path, d.Config.DecodeWorkers, d.Config.MaxBodyBytes)
		if err != nil {
			return nil, LoadHAROutput{}, &CodedError{
				Code:    ErrCodeInvalidInput,
				Message: fmt.Sprintf("loading %s", input.Path),
				Cause:   err,
			}
		}

		idx := corpus.New(entries, cookies, corpus.Options{
			IndexBodyTokens: d.Config.IndexBodyTokens,
			NoiseDomains:    splitCSV(d.Config.NoiseDomainsCSV),
			MinTokenLen:     d.Config.MinTokenLen,
		})
		d.SetCorpus(idx)

		output := LoadHAROutput{
			Entries:     len(idx.Entries()),
			Interesting: len(idx.InterestingEntries()),
			Cookies:     len(idx.Cookies()),
		}
		if output.Interesting == 0 {
			output.Hint = "No interesting endpoints found. The capture may contain only static assets or noise-domain traffic."
		} else {
			output.Hint = "Call replaygraph_list_endpoints to see candidate targets, then replaygraph_resolve with a goal."
		}
		return nil, output, nil
	}
}

func splitCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
