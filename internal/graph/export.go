package graph

import (
	"fmt"
	"strings"

	"github.com/usestring/replaygraph-mcp/pkg/replay"
	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// Export is the serializable form of a graph.
type Export struct {
	Nodes []types.Node `json:"nodes"`
	Edges []types.Edge `json:"edges"`
}

// ToExport snapshots the graph into a serializable structure.
func (s *Store) ToExport() *Export {
	exp := &Export{
		Nodes: make([]types.Node, 0, len(s.order)),
		Edges: s.Edges(),
	}
	for _, node := range s.Nodes() {
		exp.Nodes = append(exp.Nodes, *node)
	}
	return exp
}

// ToDOT renders the graph in Graphviz DOT format. Request nodes are labeled
// with method and URL, cookie nodes with the cookie name, unresolved nodes
// with the literal value that could not be traced.
func (s *Store) ToDOT() string {
	var b strings.Builder
	b.WriteString("digraph deps {\n")
	b.WriteString("  rankdir=LR;\n")

	for _, node := range s.Nodes() {
		fmt.Fprintf(&b, "  %s [label=%q%s];\n", node.ID, nodeLabel(node), nodeStyle(node))
	}
	for _, edge := range s.Edges() {
		fmt.Fprintf(&b, "  %s -> %s;\n", edge.From, edge.To)
	}

	b.WriteString("}\n")
	return b.String()
}

func nodeLabel(node *types.Node) string {
	switch node.Kind {
	case types.KindMaster, types.KindRequest:
		if node.Entry != nil && node.Entry.Request != nil {
			return node.Entry.Request.Method + " " + replay.URLWithQuery(node.Entry.Request)
		}
		return string(node.Kind)
	case types.KindCookie:
		if node.Cookie != nil {
			return "cookie: " + node.Cookie.Name
		}
		return "cookie"
	case types.KindUnresolved:
		return "unresolved: " + truncate(node.Literal, 40)
	}
	return string(node.Kind)
}

func nodeStyle(node *types.Node) string {
	switch node.Kind {
	case types.KindMaster:
		return ", shape=doubleoctagon"
	case types.KindCookie:
		return ", shape=note"
	case types.KindUnresolved:
		return ", shape=box, style=dashed"
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
