// Package oracle defines the judgment interface the resolution pipeline
// consults for the decisions it cannot make algorithmically, plus the
// shipped implementations: a Gemini-backed client and a deterministic
// heuristic fallback.
//
// Every answer is untrusted. Callers must tolerate NONE answers, empty
// sets, and out-of-range indices with the conservative fallbacks documented
// at the call sites; an oracle error never crashes a run.
package oracle

import (
	"context"
	"errors"
)

// AnswerNone is the sentinel a target-identification answer uses to say
// "no candidate in this chunk matches the goal."
const AnswerNone = "NONE"

var (
	// ErrUnavailable wraps transport failures and timeouts.
	ErrUnavailable = errors.New("oracle: unavailable")
	// ErrInvalidAnswer means the reply did not validate against the
	// expected answer schema.
	ErrInvalidAnswer = errors.New("oracle: invalid answer")
)

// Oracle is the judgment service contract. Calls are stateless and may be
// retried by the caller.
type Oracle interface {
	// IdentifyTarget picks the candidate endpoint matching the goal text,
	// or returns AnswerNone when no candidate in the chunk matches.
	IdentifyTarget(ctx context.Context, goal string, candidates []string) (string, error)

	// IdentifyDynamicParts returns the literal substrings of the request's
	// replay form that are session/identity specific: not cookie headers,
	// not generic browser headers, not arbitrary user-entered data.
	IdentifyDynamicParts(ctx context.Context, replayForm string) ([]string, error)

	// IdentifyBoundInputs returns the subset of candidate named inputs whose
	// values actually appear in the request.
	IdentifyBoundInputs(ctx context.Context, replayForm string, candidates map[string]string) (map[string]string, error)

	// PickSimplest returns the 0-based index of the candidate request with
	// the fewest likely dependencies. Callers clamp out-of-range answers.
	PickSimplest(ctx context.Context, replayForms []string) (int, error)
}
