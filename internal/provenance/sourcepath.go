package provenance

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/replaygraph-mcp/pkg/contenttype"
	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// pathQuery finds the first scalar location whose stringified value contains
// the needle. Compiled once; gojq compilation is not free.
var pathQuery *gojq.Code

func init() {
	q, err := gojq.Parse(`[paths(scalars) as $p | select((getpath($p) | tostring) | contains($needle)) | $p] | first`)
	if err != nil {
		panic(fmt.Sprintf("provenance: parsing path query: %v", err))
	}
	code, err := gojq.Compile(q, gojq.WithVariables([]string{"$needle"}))
	if err != nil {
		panic(fmt.Sprintf("provenance: compiling path query: %v", err))
	}
	pathQuery = code
}

// sourcePath returns the jq-style path at which value sits inside a JSON
// response body, or "" when the body is not JSON or the value is not a
// scalar field. The path feeds downstream replay generation; resolution
// itself never depends on it.
func sourcePath(resp *types.Response, value string) string {
	if resp == nil || !contenttype.IsJSON(resp.ContentType) {
		return ""
	}

	var doc any
	if err := json.Unmarshal([]byte(resp.Body), &doc); err != nil {
		return ""
	}

	iter := pathQuery.Run(doc, value)
	v, ok := iter.Next()
	if !ok || v == nil {
		return ""
	}
	if _, isErr := v.(error); isErr {
		return ""
	}

	segments, ok := v.([]any)
	if !ok {
		return ""
	}
	return formatPath(segments)
}

// formatPath renders a gojq path array as a jq expression: .data.items[0].id
func formatPath(segments []any) string {
	var b strings.Builder
	for _, seg := range segments {
		switch s := seg.(type) {
		case string:
			if isIdent(s) {
				b.WriteString(".")
				b.WriteString(s)
			} else {
				fmt.Fprintf(&b, `.[%q]`, s)
			}
		case int:
			fmt.Fprintf(&b, "[%d]", s)
		case float64:
			fmt.Fprintf(&b, "[%d]", int(s))
		}
	}
	if b.Len() == 0 {
		return "."
	}
	return b.String()
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
