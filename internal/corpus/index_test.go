package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/replaygraph-mcp/pkg/types"
)

func makeEntry(method, url, respBody string) *types.CorpusEntry {
	return &types.CorpusEntry{
		Request:  &types.Request{Method: method, URL: url},
		Response: &types.Response{Body: respBody, ContentType: "application/json", Status: 200},
	}
}

func newTestIndex(entries []*types.CorpusEntry, cookies []*types.Cookie) *Index {
	return New(entries, cookies, Options{
		IndexBodyTokens: true,
		NoiseDomains:    []string{"google-analytics.com"},
		MinTokenLen:     6,
	})
}

func TestNew_InterestingFilter(t *testing.T) {
	entries := []*types.CorpusEntry{
		makeEntry("GET", "https://shop.example.com/api/orders", "{}"),
		makeEntry("GET", "https://shop.example.com/static/app.js", "var x"),
		makeEntry("POST", "https://www.google-analytics.com/collect", "{}"),
	}
	idx := newTestIndex(entries, nil)

	assert.Len(t, idx.Entries(), 3)
	require.Len(t, idx.InterestingEntries(), 1)
	assert.Equal(t, "https://shop.example.com/api/orders", idx.InterestingEntries()[0].Request.URL)
}

func TestInterestingURLs_DedupCaptureOrder(t *testing.T) {
	entries := []*types.CorpusEntry{
		makeEntry("GET", "https://a.com/second", "{}"),
		makeEntry("GET", "https://a.com/first", "{}"),
		makeEntry("GET", "https://a.com/second", "{}"),
	}
	idx := newTestIndex(entries, nil)

	assert.Equal(t, []string{"https://a.com/second", "https://a.com/first"}, idx.InterestingURLs())
}

func TestOperationDiscriminator_GraphQL(t *testing.T) {
	gql := func(op string) *types.CorpusEntry {
		e := makeEntry("POST", "https://a.com/graphql", "{}")
		e.Request.Body = `{"operationName":"` + op + `","query":"..."}`
		return e
	}
	entries := []*types.CorpusEntry{gql("GetOrders"), gql("Login")}
	idx := newTestIndex(entries, nil)

	urls := idx.InterestingURLs()
	assert.Equal(t, []string{"https://a.com/graphql#GetOrders", "https://a.com/graphql#Login"}, urls)

	entry := idx.LookupByURL("https://a.com/graphql#Login")
	require.NotNil(t, entry)
	assert.Contains(t, entry.Request.Body, "Login")
}

func TestOperationDiscriminator_JSONRPC(t *testing.T) {
	e := makeEntry("POST", "https://a.com/rpc", "{}")
	e.Request.Body = `{"jsonrpc":"2.0","method":"eth_getBalance","params":[]}`
	idx := newTestIndex([]*types.CorpusEntry{e}, nil)

	assert.Equal(t, []string{"https://a.com/rpc#eth_getBalance"}, idx.InterestingURLs())
}

func TestLookupByURL_Fuzzy(t *testing.T) {
	entries := []*types.CorpusEntry{
		makeEntry("GET", "https://shop.example.com/api/orders", "{}"),
	}
	idx := newTestIndex(entries, nil)

	// Exact.
	assert.NotNil(t, idx.LookupByURL("https://shop.example.com/api/orders"))
	// Oracle answer truncated: answer is a substring of the key.
	assert.NotNil(t, idx.LookupByURL("shop.example.com/api/orders"))
	// Oracle answer embellished: key is a substring of the answer.
	assert.NotNil(t, idx.LookupByURL("https://shop.example.com/api/orders/recent"))
	// No match.
	assert.Nil(t, idx.LookupByURL("https://other.com/api"))
	assert.Nil(t, idx.LookupByURL(""))
}

func TestLookupCookieByValue(t *testing.T) {
	cookies := []*types.Cookie{
		{Name: "session", Value: "sess_9f3abc"},
		{Name: "tracking", Value: "sess_9f3abc"}, // same value, later
	}
	idx := newTestIndex(nil, cookies)

	c := idx.LookupCookieByValue("sess_9f3abc")
	require.NotNil(t, c)
	assert.Equal(t, "session", c.Name)

	// Substring of the cookie value also matches.
	c = idx.LookupCookieByValue("9f3abc")
	require.NotNil(t, c)
	assert.Equal(t, "session", c.Name)

	assert.Nil(t, idx.LookupCookieByValue("missing"))
	assert.Nil(t, idx.LookupCookieByValue(""))
}

func TestCandidateEntries_Narrows(t *testing.T) {
	entries := []*types.CorpusEntry{
		makeEntry("POST", "https://a.com/login", `{"token":"tok_abc999xyz"}`),
		makeEntry("GET", "https://a.com/other", `{"data":"nothing here"}`),
	}
	idx := newTestIndex(entries, nil)

	got, narrowed := idx.CandidateEntries("tok_abc999xyz")
	assert.True(t, narrowed)
	require.Len(t, got, 1)
	assert.Equal(t, "https://a.com/login", got[0].Request.URL)
}

func TestCandidateEntries_FallsBackToFullList(t *testing.T) {
	entries := []*types.CorpusEntry{
		makeEntry("POST", "https://a.com/login", `{"token":"tok_abc999xyz"}`),
	}
	idx := newTestIndex(entries, nil)

	// Unknown token: superset semantics require the full list back.
	got, narrowed := idx.CandidateEntries("completely_absent_value")
	assert.False(t, narrowed)
	assert.Len(t, got, 1)

	// Indexing disabled: always the full list.
	plain := New(entries, nil, Options{IndexBodyTokens: false})
	got, narrowed = plain.CandidateEntries("tok_abc999xyz")
	assert.False(t, narrowed)
	assert.Len(t, got, 1)
}
