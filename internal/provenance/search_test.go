package provenance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/replaygraph-mcp/internal/corpus"
	"github.com/usestring/replaygraph-mcp/internal/graph"
	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// scriptedOracle answers pick-simplest with a fixed index (or error) and
// counts how often it was consulted.
type scriptedOracle struct {
	pickIndex int
	pickErr   error
	pickCalls int
}

func (o *scriptedOracle) IdentifyTarget(context.Context, string, []string) (string, error) {
	return "NONE", nil
}

func (o *scriptedOracle) IdentifyDynamicParts(context.Context, string) ([]string, error) {
	return nil, nil
}

func (o *scriptedOracle) IdentifyBoundInputs(context.Context, string, map[string]string) (map[string]string, error) {
	return nil, nil
}

func (o *scriptedOracle) PickSimplest(context.Context, []string) (int, error) {
	o.pickCalls++
	return o.pickIndex, o.pickErr
}

func jsonEntry(method, url, respBody string) *types.CorpusEntry {
	return &types.CorpusEntry{
		Request:  &types.Request{Method: method, URL: url},
		Response: &types.Response{Body: respBody, ContentType: "application/json", Status: 200},
	}
}

func newFixture(t *testing.T, entries []*types.CorpusEntry, cookies []*types.Cookie, orc *scriptedOracle) (*Searcher, *Run, string) {
	t.Helper()
	idx := corpus.New(entries, cookies, corpus.Options{IndexBodyTokens: true, MinTokenLen: 6})
	s := New(idx, orc, 20)

	run := NewRun(graph.New())
	masterID := run.Graph.AddNode(&types.Node{
		Kind: types.KindMaster,
		Entry: &types.CorpusEntry{
			Request:  &types.Request{Method: "GET", URL: "https://a.com/orders"},
			Response: &types.Response{},
		},
	})
	return s, run, masterID
}

func TestResolve_CookieShortCircuit(t *testing.T) {
	// The value occurs both in a cookie and in a response body; the cookie
	// wins and no corpus node is created.
	entries := []*types.CorpusEntry{
		jsonEntry("POST", "https://a.com/login", `{"sid":"sess_9f3abc"}`),
	}
	cookies := []*types.Cookie{{Name: "session", Value: "sess_9f3abc"}}
	orc := &scriptedOracle{}
	s, run, master := newFixture(t, entries, cookies, orc)

	res, err := s.Resolve(context.Background(), "sess_9f3abc", master, run)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCookie, res.Outcome)
	assert.False(t, res.Enqueued)

	node, err := run.Graph.Node(res.NodeID)
	require.NoError(t, err)
	assert.Equal(t, types.KindCookie, node.Kind)
	assert.Equal(t, "session", node.Cookie.Name)
	assert.Equal(t, 2, run.Graph.Len())
	assert.Equal(t, 0, orc.pickCalls)
}

func TestResolve_SingleProducer(t *testing.T) {
	entries := []*types.CorpusEntry{
		jsonEntry("POST", "https://a.com/login", `{"token":"tok_abc123"}`),
		jsonEntry("GET", "https://a.com/other", `{"noise":"irrelevant"}`),
	}
	orc := &scriptedOracle{}
	s, run, master := newFixture(t, entries, nil, orc)

	res, err := s.Resolve(context.Background(), "tok_abc123", master, run)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProducer, res.Outcome)
	assert.True(t, res.Enqueued)
	assert.Equal(t, 0, orc.pickCalls)

	node, err := run.Graph.Node(res.NodeID)
	require.NoError(t, err)
	assert.Equal(t, types.KindRequest, node.Kind)
	assert.Equal(t, "https://a.com/login", node.Entry.Request.URL)
	assert.Equal(t, []string{"tok_abc123"}, node.ExtractedParts)
	assert.Equal(t, ".token", node.SourcePaths["tok_abc123"])

	succs, err := run.Graph.Successors(master)
	require.NoError(t, err)
	assert.Equal(t, []string{res.NodeID}, succs)
}

func TestResolve_SelfMatchExcluded(t *testing.T) {
	// The only entry echoing the value also carries it in its own request:
	// not a producer.
	echo := jsonEntry("GET", "https://a.com/echo", `{"q":"tok_abc123"}`)
	echo.Request.Query = map[string]string{"q": "tok_abc123"}
	orc := &scriptedOracle{}
	s, run, master := newFixture(t, []*types.CorpusEntry{echo}, nil, orc)

	res, err := s.Resolve(context.Background(), "tok_abc123", master, run)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnresolved, res.Outcome)

	node, err := run.Graph.Node(res.NodeID)
	require.NoError(t, err)
	assert.Equal(t, types.KindUnresolved, node.Kind)
	assert.Equal(t, "tok_abc123", node.Literal)
}

func TestResolve_URLDecodedMatch(t *testing.T) {
	// The dynamic part was captured URL-encoded; the response carries it raw.
	entries := []*types.CorpusEntry{
		jsonEntry("POST", "https://a.com/login", `{"next":"/account/settings"}`),
	}
	orc := &scriptedOracle{}
	s, run, master := newFixture(t, entries, nil, orc)

	res, err := s.Resolve(context.Background(), "%2Faccount%2Fsettings", master, run)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProducer, res.Outcome)
}

func TestResolve_Unresolved(t *testing.T) {
	entries := []*types.CorpusEntry{
		jsonEntry("GET", "https://a.com/other", `{"noise":"irrelevant"}`),
	}
	orc := &scriptedOracle{}
	s, run, master := newFixture(t, entries, nil, orc)

	res, err := s.Resolve(context.Background(), "tok_never_seen", master, run)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnresolved, res.Outcome)
	assert.False(t, res.Enqueued)

	// The unresolved node still hangs off its dependent.
	succs, err := run.Graph.Successors(master)
	require.NoError(t, err)
	assert.Equal(t, []string{res.NodeID}, succs)
}

func TestResolve_AmbiguousUsesOracle(t *testing.T) {
	entries := []*types.CorpusEntry{
		jsonEntry("GET", "https://a.com/first", `{"token":"tok_abc123"}`),
		jsonEntry("GET", "https://a.com/second", `{"token":"tok_abc123"}`),
	}
	orc := &scriptedOracle{pickIndex: 1}
	s, run, master := newFixture(t, entries, nil, orc)

	res, err := s.Resolve(context.Background(), "tok_abc123", master, run)
	require.NoError(t, err)
	assert.Equal(t, 1, orc.pickCalls)

	node, err := run.Graph.Node(res.NodeID)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/second", node.Entry.Request.URL)
}

func TestResolve_AmbiguousOracleFailureFallsBack(t *testing.T) {
	entries := []*types.CorpusEntry{
		jsonEntry("GET", "https://a.com/first", `{"token":"tok_abc123"}`),
		jsonEntry("GET", "https://a.com/second", `{"token":"tok_abc123"}`),
	}
	orc := &scriptedOracle{pickErr: errors.New("oracle down")}
	s, run, master := newFixture(t, entries, nil, orc)

	res, err := s.Resolve(context.Background(), "tok_abc123", master, run)
	require.NoError(t, err)

	// First candidate in capture order wins.
	node, err := run.Graph.Node(res.NodeID)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/first", node.Entry.Request.URL)
}

func TestResolve_AmbiguousOutOfRangeClamped(t *testing.T) {
	entries := []*types.CorpusEntry{
		jsonEntry("GET", "https://a.com/first", `{"token":"tok_abc123"}`),
		jsonEntry("GET", "https://a.com/second", `{"token":"tok_abc123"}`),
	}
	orc := &scriptedOracle{pickIndex: 99}
	s, run, master := newFixture(t, entries, nil, orc)

	res, err := s.Resolve(context.Background(), "tok_abc123", master, run)
	require.NoError(t, err)

	node, err := run.Graph.Node(res.NodeID)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/first", node.Entry.Request.URL)
}

func TestResolve_NoiseProducerDropped(t *testing.T) {
	tests := []struct {
		name  string
		entry *types.CorpusEntry
	}{
		{
			"html response",
			&types.CorpusEntry{
				Request:  &types.Request{Method: "GET", URL: "https://a.com/page"},
				Response: &types.Response{Body: `<div>tok_abc123</div>`, ContentType: "text/html"},
			},
		},
		{
			"script asset",
			&types.CorpusEntry{
				Request:  &types.Request{Method: "GET", URL: "https://a.com/bundle.js"},
				Response: &types.Response{Body: `var t="tok_abc123"`, ContentType: "application/javascript"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orc := &scriptedOracle{}
			s, run, master := newFixture(t, []*types.CorpusEntry{tt.entry}, nil, orc)

			res, err := s.Resolve(context.Background(), "tok_abc123", master, run)
			require.NoError(t, err)
			assert.Equal(t, OutcomeNoise, res.Outcome)
			assert.Empty(t, res.NodeID)

			// No node, no edge: only the master remains.
			assert.Equal(t, 1, run.Graph.Len())
			assert.Empty(t, run.Graph.Edges())
		})
	}
}

func TestResolve_DedupSecondParentSharesNode(t *testing.T) {
	entries := []*types.CorpusEntry{
		jsonEntry("POST", "https://a.com/login", `{"token":"tok_abc123","csrf":"csrf_xyz789"}`),
	}
	orc := &scriptedOracle{}
	s, run, master := newFixture(t, entries, nil, orc)

	first, err := s.Resolve(context.Background(), "tok_abc123", master, run)
	require.NoError(t, err)
	assert.True(t, first.Enqueued)

	other := run.Graph.AddNode(&types.Node{
		Kind: types.KindRequest,
		Entry: &types.CorpusEntry{
			Request:  &types.Request{Method: "GET", URL: "https://a.com/profile"},
			Response: &types.Response{},
		},
	})

	second, err := s.Resolve(context.Background(), "csrf_xyz789", other, run)
	require.NoError(t, err)
	assert.Equal(t, first.NodeID, second.NodeID)
	// Only materialization of a new node asks for expansion.
	assert.False(t, second.Enqueued)

	node, err := run.Graph.Node(first.NodeID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tok_abc123", "csrf_xyz789"}, node.ExtractedParts)

	preds, err := run.Graph.Predecessors(first.NodeID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{master, other}, preds)
}
