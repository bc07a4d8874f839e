package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/replaygraph-mcp/internal/config"
	"github.com/usestring/replaygraph-mcp/internal/corpus"
	"github.com/usestring/replaygraph-mcp/internal/oracle"
	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// fakeOracle scripts answers by substring of the question.
type fakeOracle struct {
	// target is returned from IdentifyTarget when present among candidates.
	target string
	// parts maps a replay-form substring to the dynamic parts of that request.
	parts map[string][]string
	// partsErr fails every IdentifyDynamicParts call.
	partsErr error
}

func (f *fakeOracle) IdentifyTarget(_ context.Context, _ string, candidates []string) (string, error) {
	for _, c := range candidates {
		if c == f.target {
			return c, nil
		}
	}
	return oracle.AnswerNone, nil
}

func (f *fakeOracle) IdentifyDynamicParts(_ context.Context, replayForm string) ([]string, error) {
	if f.partsErr != nil {
		return nil, f.partsErr
	}
	for needle, parts := range f.parts {
		if strings.Contains(replayForm, needle) {
			return parts, nil
		}
	}
	return nil, nil
}

func (f *fakeOracle) IdentifyBoundInputs(_ context.Context, replayForm string, candidates map[string]string) (map[string]string, error) {
	bound := make(map[string]string)
	for name, value := range candidates {
		if strings.Contains(replayForm, value) {
			bound[name] = value
		}
	}
	return bound, nil
}

func (f *fakeOracle) PickSimplest(context.Context, []string) (int, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		StepBudget:      config.DefaultStepBudgetValue,
		TargetChunkSize: config.DefaultTargetChunkSizeValue,
		MaxCandidates:   config.DefaultMaxCandidatesValue,
	}
}

// loginCorpus models the canonical session: a login that issues a token, and
// an orders endpoint that spends it.
func loginCorpus() *corpus.Index {
	login := &types.CorpusEntry{
		Request: &types.Request{
			Method: "POST",
			URL:    "https://shop.example.com/api/login",
			Body:   `{"user":"alice","pass":"hunter2secret"}`,
		},
		Response: &types.Response{
			Body:        `{"token":"sess_9f3abc"}`,
			ContentType: "application/json",
			Status:      200,
		},
	}
	orders := &types.CorpusEntry{
		Request: &types.Request{
			Method:  "GET",
			URL:     "https://shop.example.com/api/orders/42",
			Headers: map[string]string{"Authorization": "Bearer sess_9f3abc"},
		},
		Response: &types.Response{
			Body:        `{"orders":[]}`,
			ContentType: "application/json",
			Status:      200,
		},
	}
	return corpus.New([]*types.CorpusEntry{login, orders}, nil, corpus.Options{
		IndexBodyTokens: true,
		MinTokenLen:     6,
	})
}

func loginOracle() *fakeOracle {
	return &fakeOracle{
		target: "https://shop.example.com/api/orders/42",
		parts: map[string][]string{
			"/api/orders/42": {"sess_9f3abc"},
			"/api/login":     {"hunter2secret"},
		},
	}
}

func TestRun_LoginScenario(t *testing.T) {
	p := New(loginCorpus(), loginOracle(), testConfig())

	result, err := p.Run(context.Background(), "fetch order 42", map[string]string{
		"password": "hunter2secret",
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusComplete, result.Status)
	assert.Equal(t, "https://shop.example.com/api/orders/42", result.TargetURL)
	assert.Empty(t, result.Cycles)

	// Two nodes: master and the login producer.
	require.Equal(t, 2, result.Graph.Len())

	master, err := result.Graph.Node(result.MasterID)
	require.NoError(t, err)
	assert.Equal(t, types.KindMaster, master.Kind)
	assert.Equal(t, []string{"sess_9f3abc"}, master.DynamicParts)

	succs, err := result.Graph.Successors(result.MasterID)
	require.NoError(t, err)
	require.Len(t, succs, 1)

	login, err := result.Graph.Node(succs[0])
	require.NoError(t, err)
	assert.Equal(t, types.KindRequest, login.Kind)
	assert.Equal(t, "https://shop.example.com/api/login", login.Entry.Request.URL)
	assert.Equal(t, []string{"sess_9f3abc"}, login.ExtractedParts)
	assert.Equal(t, ".token", login.SourcePaths["sess_9f3abc"])

	// The password was bound to the caller input, not traced further.
	assert.Equal(t, "hunter2secret", login.InputVariables["password"])
	assert.Empty(t, login.DynamicParts)
}

func TestRun_HTMLProducerStripsDynamicPart(t *testing.T) {
	// The only producer of the token is an HTML page, so the search drops the
	// value as noise. The committed node must not keep listing it.
	page := &types.CorpusEntry{
		Request: &types.Request{
			Method: "GET",
			URL:    "https://shop.example.com/dashboard",
		},
		Response: &types.Response{
			Body:        `<html><body data-token="tok_widget99"></body></html>`,
			ContentType: "text/html",
			Status:      200,
		},
	}
	widgets := &types.CorpusEntry{
		Request: &types.Request{
			Method: "GET",
			URL:    "https://shop.example.com/api/widgets?t=tok_widget99",
		},
		Response: &types.Response{
			Body:        `{"widgets":[]}`,
			ContentType: "application/json",
			Status:      200,
		},
	}
	idx := corpus.New([]*types.CorpusEntry{page, widgets}, nil, corpus.Options{
		IndexBodyTokens: true,
		MinTokenLen:     6,
	})
	orc := &fakeOracle{
		target: "https://shop.example.com/api/widgets?t=tok_widget99",
		parts: map[string][]string{
			"/api/widgets": {"tok_widget99"},
		},
	}
	p := New(idx, orc, testConfig())

	result, err := p.Run(context.Background(), "list widgets", nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, result.Status)

	// No edge to the HTML page, and the dropped value is gone from the
	// master's part list.
	require.Equal(t, 1, result.Graph.Len())
	succs, err := result.Graph.Successors(result.MasterID)
	require.NoError(t, err)
	assert.Empty(t, succs)

	master, err := result.Graph.Node(result.MasterID)
	require.NoError(t, err)
	assert.Empty(t, master.DynamicParts)
}

func TestRun_UnboundInputBecomesUnresolved(t *testing.T) {
	// Without the password input, the login's dynamic part has no producer.
	p := New(loginCorpus(), loginOracle(), testConfig())

	result, err := p.Run(context.Background(), "fetch order 42", nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, result.Status)

	var unresolved *types.Node
	for _, node := range result.Graph.Nodes() {
		if node.Kind == types.KindUnresolved {
			unresolved = node
		}
	}
	require.NotNil(t, unresolved)
	assert.Equal(t, "hunter2secret", unresolved.Literal)
}

func TestRun_BudgetExhaustion(t *testing.T) {
	cfg := testConfig()
	cfg.StepBudget = 5 // setup (2) plus exactly one iteration (3)
	p := New(loginCorpus(), loginOracle(), cfg)

	result, err := p.Run(context.Background(), "fetch order 42", nil)
	require.NoError(t, err)

	assert.Equal(t, types.StatusBudget, result.Status)
	assert.Equal(t, 5, result.StepsUsed)

	// The master was expanded and the login node materialized, but the login
	// itself never got its turn.
	assert.Equal(t, 2, result.Graph.Len())
	succs, err := result.Graph.Successors(result.MasterID)
	require.NoError(t, err)
	require.Len(t, succs, 1)

	login, err := result.Graph.Node(succs[0])
	require.NoError(t, err)
	assert.Empty(t, login.DynamicParts)
}

func TestRun_NoTarget(t *testing.T) {
	orc := loginOracle()
	orc.target = "https://elsewhere.example.com/nope"
	p := New(loginCorpus(), orc, testConfig())

	_, err := p.Run(context.Background(), "do something unrelated", nil)
	assert.ErrorIs(t, err, ErrNoTargetFound)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	p := New(loginCorpus(), loginOracle(), testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, "fetch order 42", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_OracleFailureAbortsWithPartialGraph(t *testing.T) {
	orc := loginOracle()
	orc.partsErr = errors.New("oracle down")
	p := New(loginCorpus(), orc, testConfig())

	result, err := p.Run(context.Background(), "fetch order 42", nil)
	require.NoError(t, err)

	assert.Equal(t, types.StatusOracleError, result.Status)
	assert.Contains(t, result.Reason, "oracle down")
	// The master node survives for inspection.
	assert.Equal(t, 1, result.Graph.Len())
}
