// Package replay builds the canonical replay form of a captured request: a
// curl-style command line that fully reproduces the call. The string is
// order-stable, so it doubles as the dedup identity of a request and as the
// representation shown to the oracle.
package replay

import (
	"net/url"
	"sort"
	"strings"

	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// Skipped headers carry no replay-relevant information and would make the
// canonical form unstable across capture runs.
var skippedHeaders = map[string]bool{
	"content-length":  true,
	"accept-encoding": true,
	"connection":      true,
	"host":            true,
}

// String renders the canonical replay form of a request.
// Headers and query parameters are emitted in sorted order so that two
// captures of the same logical call produce byte-identical output.
func String(req *types.Request) string {
	var b strings.Builder
	b.WriteString("curl -X ")
	if req.Method != "" {
		b.WriteString(req.Method)
	} else {
		b.WriteString("GET")
	}
	b.WriteString(" '")
	b.WriteString(URLWithQuery(req))
	b.WriteString("'")

	for _, name := range sortedHeaderNames(req.Headers) {
		b.WriteString(" -H '")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(req.Headers[name])
		b.WriteString("'")
	}

	if req.Body != "" {
		b.WriteString(" --data '")
		b.WriteString(req.Body)
		b.WriteString("'")
	}

	return b.String()
}

// URLWithQuery reassembles the request URL with its query string, parameters
// in sorted order.
func URLWithQuery(req *types.Request) string {
	if len(req.Query) == 0 {
		return req.URL
	}

	keys := make([]string, 0, len(req.Query))
	for k := range req.Query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(req.URL)
	for i, k := range keys {
		if i == 0 {
			b.WriteString("?")
		} else {
			b.WriteString("&")
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(req.Query[k]))
	}
	return b.String()
}

// Contains reports whether value occurs anywhere in the request's replay
// form: URL, query string, headers, or body.
func Contains(req *types.Request, value string) bool {
	if value == "" {
		return false
	}
	return strings.Contains(String(req), value)
}

func sortedHeaderNames(headers map[string]string) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		if skippedHeaders[strings.ToLower(name)] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
