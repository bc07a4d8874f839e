// Package tools contains MCP tool implementations for replaygraph.
package tools

import (
	"github.com/usestring/replaygraph-mcp/internal/graph"
	"github.com/usestring/replaygraph-mcp/pkg/replay"
	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// MIME type constant.
const MimeJSON = "application/json"

// NodeView is the wire shape of one graph node.
type NodeView struct {
	ID             string            `json:"id"`
	Kind           string            `json:"kind"`
	Method         string            `json:"method,omitempty"`
	URL            string            `json:"url,omitempty"`
	CookieName     string            `json:"cookie_name,omitempty"`
	Literal        string            `json:"literal,omitempty"`
	DynamicParts   []string          `json:"dynamic_parts,omitempty"`
	ExtractedParts []string          `json:"extracted_parts,omitempty"`
	InputVariables map[string]string `json:"input_variables,omitempty"`
	SourcePaths    map[string]string `json:"source_paths,omitempty"`
}

// EdgeView is the wire shape of one dependency edge.
type EdgeView struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphView converts a graph into wire shapes, nodes in insertion order.
func GraphView(g *graph.Store) ([]NodeView, []EdgeView) {
	nodes := make([]NodeView, 0, g.Len())
	for _, node := range g.Nodes() {
		nodes = append(nodes, buildNodeView(node))
	}

	edges := make([]EdgeView, 0)
	for _, edge := range g.Edges() {
		edges = append(edges, EdgeView{From: edge.From, To: edge.To})
	}
	return nodes, edges
}

func buildNodeView(node *types.Node) NodeView {
	view := NodeView{
		ID:             node.ID,
		Kind:           string(node.Kind),
		Literal:        node.Literal,
		DynamicParts:   node.DynamicParts,
		ExtractedParts: node.ExtractedParts,
		InputVariables: node.InputVariables,
		SourcePaths:    node.SourcePaths,
	}
	if node.Entry != nil && node.Entry.Request != nil {
		view.Method = node.Entry.Request.Method
		view.URL = replay.URLWithQuery(node.Entry.Request)
	}
	if node.Cookie != nil {
		view.CookieName = node.Cookie.Name
	}
	return view
}

// countKind counts graph nodes of one kind.
func countKind(g *graph.Store, kind types.NodeKind) int {
	n := 0
	for _, node := range g.Nodes() {
		if node.Kind == kind {
			n++
		}
	}
	return n
}
