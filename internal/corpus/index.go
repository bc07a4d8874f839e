// Package corpus provides the immutable, queryable view over a parsed
// traffic log: the entry list, a canonical-URL lookup map with operation
// discriminators for multiplexed endpoints, the cookie store, and a roaring
// posting-list index over response bodies used to narrow provenance scans.
package corpus

import (
	"encoding/json"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/replaygraph-mcp/pkg/contenttype"
	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// Options controls index construction.
type Options struct {
	// IndexBodyTokens enables roaring posting lists over response bodies.
	IndexBodyTokens bool
	// NoiseDomains are host suffixes excluded from the interesting set
	// (analytics, telemetry).
	NoiseDomains []string
	// MinTokenLen is the shortest body token worth indexing.
	MinTokenLen int
}

// Index is a read-only view over the parsed corpus. Safe for concurrent
// readers; it is never mutated after New returns.
type Index struct {
	entries     []*types.CorpusEntry
	interesting []*types.CorpusEntry

	// byURL maps canonical URL (plus "#op" discriminator for endpoints that
	// multiplex several logical operations behind one URL) to its entry.
	byURL    map[string]*types.CorpusEntry
	urlOrder []string

	cookies []*types.Cookie

	tokens      map[string]*roaring.Bitmap
	minTokenLen int
}

// New builds an Index over parsed entries and cookies.
func New(entries []*types.CorpusEntry, cookies []*types.Cookie, opts Options) *Index {
	if opts.MinTokenLen <= 0 {
		opts.MinTokenLen = 6
	}

	idx := &Index{
		entries:     entries,
		byURL:       make(map[string]*types.CorpusEntry, len(entries)),
		cookies:     cookies,
		minTokenLen: opts.MinTokenLen,
	}
	if opts.IndexBodyTokens {
		idx.tokens = make(map[string]*roaring.Bitmap)
	}

	for i, entry := range entries {
		if entry.Request == nil {
			continue
		}

		key := entry.Request.URL
		if op := operationKey(entry.Request); op != "" {
			key += "#" + op
		}
		if _, dup := idx.byURL[key]; !dup {
			idx.byURL[key] = entry
			idx.urlOrder = append(idx.urlOrder, key)
		}

		if isInteresting(entry.Request.URL, opts.NoiseDomains) {
			idx.interesting = append(idx.interesting, entry)
		}

		if idx.tokens != nil && entry.Response != nil {
			for _, token := range Tokenize(entry.Response.Body, opts.MinTokenLen) {
				bm, ok := idx.tokens[token]
				if !ok {
					bm = roaring.New()
					idx.tokens[token] = bm
				}
				bm.Add(uint32(i))
			}
		}
	}

	return idx
}

// Entries returns all corpus entries in capture order.
func (idx *Index) Entries() []*types.CorpusEntry {
	return idx.entries
}

// InterestingEntries returns the entries that survived the asset/noise filter.
func (idx *Index) InterestingEntries() []*types.CorpusEntry {
	return idx.interesting
}

// InterestingURLs returns the deduplicated canonical URL keys of the
// interesting set, in capture order. These are the candidate endpoints
// offered to the oracle during target identification.
func (idx *Index) InterestingURLs() []string {
	seen := make(map[string]bool, len(idx.interesting))
	urls := make([]string, 0, len(idx.interesting))
	for _, entry := range idx.interesting {
		key := entry.Request.URL
		if op := operationKey(entry.Request); op != "" {
			key += "#" + op
		}
		if !seen[key] {
			seen[key] = true
			urls = append(urls, key)
		}
	}
	return urls
}

// LookupByURL resolves a URL to its corpus entry: exact match first, then
// best-effort fuzzy match (substring containment either direction). Fuzzy
// matching covers oracle-returned URLs that come back truncated or
// embellished with an extra path suffix. Returns nil when nothing matches.
func (idx *Index) LookupByURL(url string) *types.CorpusEntry {
	if url == "" {
		return nil
	}
	if entry, ok := idx.byURL[url]; ok {
		return entry
	}
	for _, key := range idx.urlOrder {
		if strings.Contains(key, url) || strings.Contains(url, key) {
			return idx.byURL[key]
		}
	}
	return nil
}

// LookupCookieByValue returns the first cookie whose value contains the
// given substring. Returns nil when no cookie matches.
func (idx *Index) LookupCookieByValue(substr string) *types.Cookie {
	if substr == "" {
		return nil
	}
	for _, c := range idx.cookies {
		if strings.Contains(c.Value, substr) {
			return c
		}
	}
	return nil
}

// Cookies returns the cookie store in insertion order.
func (idx *Index) Cookies() []*types.Cookie {
	return idx.cookies
}

// CandidateEntries returns the entries whose response body may contain the
// value, in capture order, by intersecting the posting lists of the value's
// tokens. narrowed reports whether the posting lists were actually usable;
// when false the caller gets the full entry list and must scan it all.
// Candidates are a superset filter only: callers still verify verbatim
// occurrence.
func (idx *Index) CandidateEntries(value string) (entries []*types.CorpusEntry, narrowed bool) {
	if idx.tokens == nil {
		return idx.entries, false
	}
	valueTokens := Tokenize(value, idx.minTokenLen)
	if len(valueTokens) == 0 {
		return idx.entries, false
	}

	var result *roaring.Bitmap
	for _, token := range valueTokens {
		bm, ok := idx.tokens[token]
		if !ok {
			// Token absent from every indexed body. The value may still sit
			// glued to neighbor characters, so fall back to the full scan.
			return idx.entries, false
		}
		if result == nil {
			result = bm.Clone()
		} else {
			result.And(bm)
		}
	}
	if result == nil || result.IsEmpty() {
		return idx.entries, false
	}

	entries = make([]*types.CorpusEntry, 0, result.GetCardinality())
	iter := result.Iterator()
	for iter.HasNext() {
		entries = append(entries, idx.entries[iter.Next()])
	}
	return entries, true
}

// operationKey extracts the logical-operation discriminator for endpoints
// that multiplex many operations behind one URL: the GraphQL operationName,
// or the JSON-RPC method.
func operationKey(req *types.Request) string {
	if req.Body == "" || !strings.HasPrefix(strings.TrimSpace(req.Body), "{") {
		return ""
	}

	var probe struct {
		OperationName string `json:"operationName"`
		JSONRPC       string `json:"jsonrpc"`
		Method        string `json:"method"`
	}
	if err := json.Unmarshal([]byte(req.Body), &probe); err != nil {
		return ""
	}
	if probe.OperationName != "" {
		return probe.OperationName
	}
	if probe.JSONRPC != "" && probe.Method != "" {
		return probe.Method
	}
	return ""
}

// isInteresting filters static assets and known noise domains out of the
// candidate-endpoint set.
func isInteresting(url string, noiseDomains []string) bool {
	if contenttype.IsAssetURL(url) {
		return false
	}
	host := hostOf(url)
	for _, suffix := range noiseDomains {
		if suffix != "" && strings.HasSuffix(host, suffix) {
			return false
		}
	}
	return true
}

func hostOf(url string) string {
	rest := url
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
