// Package types provides shared types for replaygraph-mcp.
// These types are used across multiple packages and are designed for external consumption.
package types

import (
	"strings"
	"time"
)

// Request is a single captured HTTP request. The URL never carries a query
// string; query parameters live in Query. Immutable once parsed.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Header returns the value for the given header name (case-insensitive).
// Returns an empty string if the header is not present.
func (r *Request) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Response is the response paired 1:1 with the request that produced it.
type Response struct {
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	Status      int    `json:"status,omitempty"`
}

// CorpusEntry is one captured request/response pair.
type CorpusEntry struct {
	Request  *Request  `json:"request"`
	Response *Response `json:"response"`
}

// Cookie is a browser cookie captured alongside the traffic log.
// Supplied separately from the corpus; immutable per run.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitzero"`
}
