package graph

import (
	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// DFS colors.
const (
	colorWhite = iota // unvisited
	colorGray         // on the recursion stack
	colorBlack        // fully explored
)

// frame is one entry of the explicit DFS stack: a node and a cursor into its
// successor list. Using an explicit stack keeps pathological graphs from
// blowing the goroutine stack.
type frame struct {
	id   string
	next int
}

// DetectCycle runs a full-graph DFS and returns the edges of the first cycle
// found: any back edge into a node currently on the DFS stack, together with
// the stack path that closes the loop. Returns nil for an acyclic graph.
//
// The graph is expected to be acyclic; a cycle indicates either a logical
// loop in the target application or a resolution error. DetectCycle is
// read-only and may be called repeatedly, including on a partial graph.
func (s *Store) DetectCycle() []types.Edge {
	color := make(map[string]int, len(s.nodes))

	for _, start := range s.order {
		if color[start] != colorWhite {
			continue
		}

		stack := []frame{{id: start}}
		color[start] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succs := sortedKeys(s.out[top.id])

			if top.next >= len(succs) {
				color[top.id] = colorBlack
				stack = stack[:len(stack)-1]
				continue
			}

			next := succs[top.next]
			top.next++

			switch color[next] {
			case colorWhite:
				color[next] = colorGray
				stack = append(stack, frame{id: next})
			case colorGray:
				// Back edge: close the loop from next through the stack tail.
				return cycleEdges(stack, next, top.id)
			}
		}
	}
	return nil
}

// cycleEdges builds the edge list of the detected cycle: the stack segment
// from the back-edge target down to the current node, plus the back edge.
func cycleEdges(stack []frame, target, current string) []types.Edge {
	start := 0
	for i, f := range stack {
		if f.id == target {
			start = i
			break
		}
	}

	var edges []types.Edge
	for i := start; i+1 < len(stack); i++ {
		edges = append(edges, types.Edge{From: stack[i].id, To: stack[i+1].id})
	}
	edges = append(edges, types.Edge{From: current, To: target})
	return edges
}

// TopoOrder returns node ids in dependency order. With sinkFirst true,
// suppliers come before their dependents (execution order for replay);
// otherwise dependents come first. Nodes on a cycle are appended last in
// insertion order so a partial ordering is still usable.
func (s *Store) TopoOrder(sinkFirst bool) []string {
	color := make(map[string]int, len(s.nodes))
	var finished []string // post-order: sinks first

	for _, start := range s.order {
		if color[start] != colorWhite {
			continue
		}

		stack := []frame{{id: start}}
		color[start] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succs := sortedKeys(s.out[top.id])

			if top.next >= len(succs) {
				color[top.id] = colorBlack
				finished = append(finished, top.id)
				stack = stack[:len(stack)-1]
				continue
			}

			next := succs[top.next]
			top.next++
			if color[next] == colorWhite {
				color[next] = colorGray
				stack = append(stack, frame{id: next})
			}
		}
	}

	if sinkFirst {
		return finished
	}

	reversed := make([]string, len(finished))
	for i, id := range finished {
		reversed[len(finished)-1-i] = id
	}
	return reversed
}
