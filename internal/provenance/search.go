// Package provenance finds which earlier response (or cookie) produced a
// given dynamic value. It is the search half of the resolution engine; the
// pipeline in internal/resolve drives it once per unresolved dynamic part.
package provenance

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/usestring/replaygraph-mcp/internal/corpus"
	"github.com/usestring/replaygraph-mcp/internal/graph"
	"github.com/usestring/replaygraph-mcp/internal/oracle"
	"github.com/usestring/replaygraph-mcp/pkg/contenttype"
	"github.com/usestring/replaygraph-mcp/pkg/replay"
	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// Outcome classifies how a value was accounted for.
type Outcome string

const (
	// OutcomeCookie means the value came from the cookie store. Cookies are
	// leaves; no further search happens.
	OutcomeCookie Outcome = "cookie"
	// OutcomeProducer means an earlier response produced the value.
	OutcomeProducer Outcome = "producer"
	// OutcomeUnresolved means nothing in the corpus produced the value.
	OutcomeUnresolved Outcome = "unresolved"
	// OutcomeNoise means the only producers were script assets or HTML
	// documents; the value was dropped without an edge.
	OutcomeNoise Outcome = "noise"
)

// Result reports one resolved value.
type Result struct {
	Outcome Outcome
	// NodeID is the cookie/producer/unresolved node, empty for noise.
	NodeID string
	// Enqueued is true when a new request node was created and needs
	// expansion by the pipeline.
	Enqueued bool
}

// Run carries the per-run mutable state the searcher writes through: the
// graph under construction and the dedup maps owned by the run. Keeping
// these on the run (not package-level) is what lets independent runs share
// one corpus safely.
type Run struct {
	Graph *graph.Store
	// RequestNodes maps canonical replay form -> node id.
	RequestNodes map[string]string
	// CookieNodes maps cookie name -> node id.
	CookieNodes map[string]string
}

// NewRun creates empty run state around a graph.
func NewRun(g *graph.Store) *Run {
	return &Run{
		Graph:        g,
		RequestNodes: make(map[string]string),
		CookieNodes:  make(map[string]string),
	}
}

// Searcher resolves dynamic values against a corpus.
type Searcher struct {
	corpus        *corpus.Index
	oracle        oracle.Oracle
	maxCandidates int
}

// New creates a Searcher. maxCandidates bounds how many ambiguous producers
// are handed to the oracle's pick-simplest judgment.
func New(idx *corpus.Index, orc oracle.Oracle, maxCandidates int) *Searcher {
	if maxCandidates <= 0 {
		maxCandidates = 20
	}
	return &Searcher{corpus: idx, oracle: orc, maxCandidates: maxCandidates}
}

// Resolve traces one dynamic value of the node fromID to its producer and
// extends the graph accordingly. Every outcome leaves the graph valid; the
// only returned errors are graph-consistency bugs (unknown node ids).
func (s *Searcher) Resolve(ctx context.Context, value, fromID string, run *Run) (*Result, error) {
	// Cookies first: a cookie match consumes the value outright, no corpus
	// scan. Cookies are supplied by the browser, not produced by a request
	// we could replay.
	if cookie := s.corpus.LookupCookieByValue(value); cookie != nil {
		return s.resolveCookie(cookie, value, fromID, run)
	}

	matches := s.scanCorpus(value)

	if len(matches) == 0 {
		slog.Info("no producer found in corpus", "value", clipValue(value))
		id := run.Graph.AddNode(&types.Node{
			Kind:    types.KindUnresolved,
			Literal: value,
		})
		if err := run.Graph.AddEdge(fromID, id); err != nil {
			return nil, err
		}
		return &Result{Outcome: OutcomeUnresolved, NodeID: id}, nil
	}

	producer := matches[0]
	if len(matches) > 1 {
		producer = s.disambiguate(ctx, value, matches)
	}

	// Producer requests for script assets and HTML documents are decorative
	// matches (the value echoed into markup), not real data dependencies.
	if contenttype.IsAssetURL(producer.Request.URL) || contenttype.IsHTML(producer.Response.ContentType) {
		slog.Debug("dropping noise producer", "url", producer.Request.URL, "value", clipValue(value))
		return &Result{Outcome: OutcomeNoise}, nil
	}

	return s.materialize(producer, value, fromID, run)
}

// resolveCookie binds the value to a cookie node, reusing the run's cookie
// dedup map.
func (s *Searcher) resolveCookie(cookie *types.Cookie, value, fromID string, run *Run) (*Result, error) {
	id, ok := run.CookieNodes[cookie.Name]
	if ok {
		if err := run.Graph.UpdateNode(id, graph.NodeUpdate{ExtractedParts: []string{value}}); err != nil {
			return nil, err
		}
	} else {
		id = run.Graph.AddNode(&types.Node{
			Kind:           types.KindCookie,
			Cookie:         cookie,
			ExtractedParts: []string{value},
		})
		run.CookieNodes[cookie.Name] = id
	}
	if err := run.Graph.AddEdge(fromID, id); err != nil {
		return nil, err
	}
	slog.Debug("value resolved to cookie", "cookie", cookie.Name, "value", clipValue(value))
	return &Result{Outcome: OutcomeCookie, NodeID: id}, nil
}

// scanCorpus collects every entry whose response contains the value (verbatim
// or URL-decoded) while its own request does not. The exclusion rule prevents
// a request from being judged to depend on itself.
func (s *Searcher) scanCorpus(value string) []*types.CorpusEntry {
	entries, narrowed := s.corpus.CandidateEntries(value)
	matches := scanEntries(entries, value)
	if len(matches) == 0 && narrowed {
		// The token prefilter can miss values glued to neighboring
		// characters; verify against the full corpus before giving up.
		matches = scanEntries(s.corpus.Entries(), value)
	}
	return matches
}

func scanEntries(entries []*types.CorpusEntry, value string) []*types.CorpusEntry {
	decoded, err := url.QueryUnescape(value)
	if err != nil || decoded == value {
		decoded = ""
	}

	var matches []*types.CorpusEntry
	for _, entry := range entries {
		if entry.Request == nil || entry.Response == nil {
			continue
		}
		if isProducer(entry, value) || (decoded != "" && isProducer(entry, decoded)) {
			matches = append(matches, entry)
		}
	}
	return matches
}

func isProducer(entry *types.CorpusEntry, value string) bool {
	return strings.Contains(entry.Response.Body, value) && !replay.Contains(entry.Request, value)
}

// disambiguate asks the oracle which candidate is simplest; on any failure it
// deterministically falls back to the first candidate in corpus order.
func (s *Searcher) disambiguate(ctx context.Context, value string, matches []*types.CorpusEntry) *types.CorpusEntry {
	candidates := matches
	if len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}

	forms := make([]string, len(candidates))
	for i, entry := range candidates {
		forms[i] = replay.String(entry.Request)
	}

	idx, err := s.oracle.PickSimplest(ctx, forms)
	if err != nil {
		slog.Warn("pick-simplest failed, falling back to first candidate",
			"value", clipValue(value), "candidates", len(candidates), "error", err)
		return candidates[0]
	}
	if idx < 0 || idx >= len(candidates) {
		slog.Warn("pick-simplest answer out of range, clamping",
			"index", idx, "candidates", len(candidates))
		idx = 0
	}
	return candidates[idx]
}

// materialize reuses or creates the request node for the producer and adds
// the dependency edge.
func (s *Searcher) materialize(producer *types.CorpusEntry, value, fromID string, run *Run) (*Result, error) {
	key := replay.String(producer.Request)

	if id, ok := run.RequestNodes[key]; ok {
		if err := run.Graph.UpdateNode(id, graph.NodeUpdate{ExtractedParts: []string{value}}); err != nil {
			return nil, err
		}
		if err := run.Graph.AddEdge(fromID, id); err != nil {
			return nil, err
		}
		return &Result{Outcome: OutcomeProducer, NodeID: id}, nil
	}

	node := &types.Node{
		Kind:           types.KindRequest,
		Entry:          producer,
		ExtractedParts: []string{value},
	}
	if path := sourcePath(producer.Response, value); path != "" {
		node.SourcePaths = map[string]string{value: path}
	}

	id := run.Graph.AddNode(node)
	run.RequestNodes[key] = id
	if err := run.Graph.AddEdge(fromID, id); err != nil {
		return nil, err
	}
	slog.Info("value resolved to producer",
		"url", producer.Request.URL, "node", id, "value", clipValue(value))
	return &Result{Outcome: OutcomeProducer, NodeID: id, Enqueued: true}, nil
}

func clipValue(v string) string {
	if len(v) > 32 {
		return v[:32] + "..."
	}
	return v
}
