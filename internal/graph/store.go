// Package graph provides the mutable dependency graph built during a
// resolution run: a labeled digraph whose nodes carry tagged payloads
// (master, request, cookie, unresolved) and whose edges point from a
// dependent request to the node supplying one of its dynamic values.
//
// The store itself is a plain labeled digraph. Node identity rules differ by
// kind, so dedup maps (canonical replay -> id, cookie name -> id) are owned
// by the run that drives the store, not by the store.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// ErrNodeNotFound is returned when an operation references an unknown node id.
// Given correct dedup-map discipline this indicates a bug, not a data problem.
var ErrNodeNotFound = errors.New("graph: node not found")

// Store is a mutable node/edge store. Not safe for concurrent use; each
// resolution run owns its own Store.
type Store struct {
	nodes map[string]*types.Node
	out   map[string]map[string]bool
	in    map[string]map[string]bool

	// order preserves node insertion order for deterministic traversal.
	order  []string
	nextID int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		nodes: make(map[string]*types.Node),
		out:   make(map[string]map[string]bool),
		in:    make(map[string]map[string]bool),
	}
}

// AddNode inserts a new node and returns its assigned id. It always creates;
// callers are responsible for consulting their dedup maps first.
func (s *Store) AddNode(node *types.Node) string {
	s.nextID++
	id := fmt.Sprintf("n%d", s.nextID)
	node.ID = id

	s.nodes[id] = node
	s.out[id] = make(map[string]bool)
	s.in[id] = make(map[string]bool)
	s.order = append(s.order, id)
	return id
}

// NodeUpdate carries the fields of a partial node update. Nil fields are
// left untouched.
type NodeUpdate struct {
	DynamicParts   []string
	ExtractedParts []string // appended, deduplicated
	InputVariables map[string]string
	SourcePaths    map[string]string
}

// UpdateNode applies a partial update to an existing node.
func (s *Store) UpdateNode(id string, upd NodeUpdate) error {
	node, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	if upd.DynamicParts != nil {
		node.DynamicParts = upd.DynamicParts
	}
	for _, part := range upd.ExtractedParts {
		if !containsString(node.ExtractedParts, part) {
			node.ExtractedParts = append(node.ExtractedParts, part)
		}
	}
	if upd.InputVariables != nil {
		if node.InputVariables == nil {
			node.InputVariables = make(map[string]string, len(upd.InputVariables))
		}
		for k, v := range upd.InputVariables {
			node.InputVariables[k] = v
		}
	}
	if upd.SourcePaths != nil {
		if node.SourcePaths == nil {
			node.SourcePaths = make(map[string]string, len(upd.SourcePaths))
		}
		for k, v := range upd.SourcePaths {
			node.SourcePaths[k] = v
		}
	}
	return nil
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (*types.Node, error) {
	node, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return node, nil
}

// AddEdge adds a directed edge from a dependent node to its supplier.
// Adding an edge that already exists is a no-op.
func (s *Store) AddEdge(from, to string) error {
	if _, ok := s.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if _, ok := s.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	s.out[from][to] = true
	s.in[to][from] = true
	return nil
}

// Successors returns the ids of nodes this node depends on, in sorted order.
func (s *Store) Successors(id string) ([]string, error) {
	set, ok := s.out[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return sortedKeys(set), nil
}

// Predecessors returns the ids of nodes depending on this node, in sorted order.
func (s *Store) Predecessors(id string) ([]string, error) {
	set, ok := s.in[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return sortedKeys(set), nil
}

// SourceNodes returns all nodes with zero predecessors, in insertion order.
func (s *Store) SourceNodes() []*types.Node {
	var sources []*types.Node
	for _, id := range s.order {
		if len(s.in[id]) == 0 {
			sources = append(sources, s.nodes[id])
		}
	}
	return sources
}

// Nodes returns all nodes in insertion order.
func (s *Store) Nodes() []*types.Node {
	nodes := make([]*types.Node, 0, len(s.order))
	for _, id := range s.order {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

// Edges returns all edges, ordered by source insertion order then target id.
func (s *Store) Edges() []types.Edge {
	var edges []types.Edge
	for _, from := range s.order {
		for _, to := range sortedKeys(s.out[from]) {
			edges = append(edges, types.Edge{From: from, To: to})
		}
	}
	return edges
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
