package oracle

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// Heuristic is a deterministic, offline Oracle. It is the default backend
// when no Gemini API key is configured, and doubles as a reference for the
// conservative behavior the pipeline expects from any oracle: no answer is
// ever fatal, unknown is expressed as NONE or an empty set.
type Heuristic struct{}

// NewHeuristic creates the offline oracle.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Patterns for values that look server-assigned rather than user-typed.
var (
	uuidValue   = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	jwtValue    = regexp.MustCompile(`eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{4,}`)
	hexValue    = regexp.MustCompile(`\b[0-9a-f]{16,}\b`)
	opaqueValue = regexp.MustCompile(`\b[A-Za-z0-9_-]*(?:sess|tok|csrf|auth|key|nonce|ticket)[A-Za-z0-9_-]*[=:]\s*["']?([\w.~+/-]{8,})`)
)

// Generic browser headers whose values are never dynamic dependencies.
var genericHeaders = []string{
	"user-agent", "accept", "accept-language", "referer", "origin",
	"sec-ch-ua", "sec-fetch", "cookie", "pragma", "cache-control",
}

// IdentifyTarget scores candidates by word overlap with the goal text and
// returns the best scorer, or AnswerNone when nothing overlaps.
func (h *Heuristic) IdentifyTarget(_ context.Context, goal string, candidates []string) (string, error) {
	words := strings.Fields(strings.ToLower(goal))
	best, bestScore := "", 0
	for _, c := range candidates {
		lower := strings.ToLower(c)
		score := 0
		for _, w := range words {
			if len(w) >= 3 && strings.Contains(lower, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if best == "" {
		return AnswerNone, nil
	}
	return best, nil
}

// IdentifyDynamicParts extracts high-entropy values (UUIDs, JWTs, long hex,
// named token parameters) from the replay form, skipping cookie and generic
// browser header segments.
func (h *Heuristic) IdentifyDynamicParts(_ context.Context, replayForm string) ([]string, error) {
	seen := make(map[string]bool)
	var parts []string
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			parts = append(parts, v)
		}
	}

	scannable := stripGenericHeaderSegments(replayForm)

	for _, m := range jwtValue.FindAllString(scannable, -1) {
		add(m)
	}
	for _, m := range uuidValue.FindAllString(scannable, -1) {
		add(m)
	}
	for _, m := range hexValue.FindAllString(scannable, -1) {
		add(m)
	}
	for _, m := range opaqueValue.FindAllStringSubmatch(scannable, -1) {
		add(m[1])
	}

	sort.Strings(parts)
	return parts, nil
}

// IdentifyBoundInputs returns candidates whose value occurs verbatim in the
// replay form.
func (h *Heuristic) IdentifyBoundInputs(_ context.Context, replayForm string, candidates map[string]string) (map[string]string, error) {
	bound := make(map[string]string)
	for name, value := range candidates {
		if value != "" && strings.Contains(replayForm, value) {
			bound[name] = value
		}
	}
	return bound, nil
}

// PickSimplest prefers the shortest replay form: fewer headers, parameters,
// and body bytes correlate with fewer dependencies of its own.
func (h *Heuristic) PickSimplest(_ context.Context, replayForms []string) (int, error) {
	best, bestLen := 0, -1
	for i, form := range replayForms {
		if bestLen < 0 || len(form) < bestLen {
			best, bestLen = i, len(form)
		}
	}
	return best, nil
}

// stripGenericHeaderSegments removes `-H '<generic>: ...'` segments from a
// curl-form request so their values never register as dynamic.
func stripGenericHeaderSegments(replayForm string) string {
	segments := strings.Split(replayForm, " -H '")
	var b strings.Builder
	b.WriteString(segments[0])
	for _, seg := range segments[1:] {
		lower := strings.ToLower(seg)
		generic := false
		for _, name := range genericHeaders {
			if strings.HasPrefix(lower, name) {
				generic = true
				break
			}
		}
		if generic {
			// Keep anything after the closing quote of the header segment.
			if end := strings.Index(seg, "'"); end >= 0 {
				b.WriteString(seg[end+1:])
			}
			continue
		}
		b.WriteString(" -H '")
		b.WriteString(seg)
	}
	return b.String()
}
