package corpus

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// HAR 1.2 wire structures, reduced to the fields ingestion needs.
type harFile struct {
	Log struct {
		Entries []harEntry `json:"entries"`
	} `json:"log"`
}

type harEntry struct {
	Request struct {
		Method      string     `json:"method"`
		URL         string     `json:"url"`
		Headers     []harPair  `json:"headers"`
		QueryString []harPair  `json:"queryString"`
		Cookies     []harCookie `json:"cookies"`
		PostData    *struct {
			MimeType string `json:"mimeType"`
			Text     string `json:"text"`
		} `json:"postData"`
	} `json:"request"`
	Response struct {
		Status  int        `json:"status"`
		Cookies []harCookie `json:"cookies"`
		Content struct {
			MimeType string `json:"mimeType"`
			Text     string `json:"text"`
			Encoding string `json:"encoding"`
		} `json:"content"`
	} `json:"response"`
}

type harPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harCookie struct {
	Name    string     `json:"name"`
	Value   string     `json:"value"`
	Domain  string     `json:"domain"`
	Path    string     `json:"path"`
	Expires *time.Time `json:"expires"`
}

// LoadHAR reads a HAR 1.2 file and returns the parsed corpus entries in
// capture order plus the cookie store. Response bodies marked base64 are
// decoded concurrently with a bounded worker pool; bodies longer than
// maxBodyBytes are truncated.
func LoadHAR(ctx context.Context, path string, decodeWorkers, maxBodyBytes int) ([]*types.CorpusEntry, []*types.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading HAR file: %w", err)
	}
	return ParseHAR(ctx, data, decodeWorkers, maxBodyBytes)
}

// ParseHAR parses HAR bytes. See LoadHAR.
func ParseHAR(ctx context.Context, data []byte, decodeWorkers, maxBodyBytes int) ([]*types.CorpusEntry, []*types.Cookie, error) {
	var har harFile
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, nil, fmt.Errorf("parsing HAR: %w", err)
	}
	if decodeWorkers <= 0 {
		decodeWorkers = 8
	}

	entries := make([]*types.CorpusEntry, len(har.Log.Entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(decodeWorkers)
	for i := range har.Log.Entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i] = convertEntry(&har.Log.Entries[i], maxBodyBytes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return entries, collectCookies(har.Log.Entries), nil
}

// convertEntry maps one HAR entry onto the corpus data model: URL stripped
// of its query string, query parameters as a map, decoded bodies.
func convertEntry(he *harEntry, maxBodyBytes int) *types.CorpusEntry {
	req := &types.Request{
		Method: he.Request.Method,
		URL:    stripQuery(he.Request.URL),
	}
	if len(he.Request.Headers) > 0 {
		req.Headers = make(map[string]string, len(he.Request.Headers))
		for _, h := range he.Request.Headers {
			req.Headers[h.Name] = h.Value
		}
	}
	if len(he.Request.QueryString) > 0 {
		req.Query = make(map[string]string, len(he.Request.QueryString))
		for _, q := range he.Request.QueryString {
			req.Query[q.Name] = q.Value
		}
	}
	if he.Request.PostData != nil {
		req.Body = clip(he.Request.PostData.Text, maxBodyBytes)
	}

	body := he.Response.Content.Text
	if he.Response.Content.Encoding == "base64" {
		if decoded, err := base64.StdEncoding.DecodeString(body); err == nil {
			body = string(decoded)
		}
	}

	return &types.CorpusEntry{
		Request: req,
		Response: &types.Response{
			Body:        clip(body, maxBodyBytes),
			ContentType: he.Response.Content.MimeType,
			Status:      he.Response.Status,
		},
	}
}

// collectCookies gathers the cookie store in capture order. The first
// occurrence of a name wins, matching the index's first-inserted lookup
// semantics.
func collectCookies(entries []harEntry) []*types.Cookie {
	seen := make(map[string]bool)
	var cookies []*types.Cookie

	add := func(hc harCookie) {
		if hc.Name == "" || seen[hc.Name] {
			return
		}
		seen[hc.Name] = true
		c := &types.Cookie{
			Name:   hc.Name,
			Value:  hc.Value,
			Domain: hc.Domain,
			Path:   hc.Path,
		}
		if hc.Expires != nil {
			c.Expires = *hc.Expires
		}
		cookies = append(cookies, c)
	}

	for _, e := range entries {
		for _, hc := range e.Request.Cookies {
			add(hc)
		}
		for _, hc := range e.Response.Cookies {
			add(hc)
		}
	}
	return cookies
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func clip(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
