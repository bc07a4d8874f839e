package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

// Gemini is an Oracle backed by the Gemini API. The client reads its API key
// from the environment (GEMINI_API_KEY).
type Gemini struct {
	cli     *genai.Client
	model   string
	timeout time.Duration

	targetSchema *answerSchema
	partsSchema  *answerSchema
	inputsSchema *answerSchema
	pickSchema   *answerSchema
}

// NewGemini creates a Gemini-backed oracle for the given model.
func NewGemini(ctx context.Context, model string, timeout time.Duration) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	g := &Gemini{cli: cli, model: model, timeout: timeout}
	for _, s := range []struct {
		dst  **answerSchema
		zero any
	}{
		{&g.targetSchema, &targetAnswer{}},
		{&g.partsSchema, &dynamicPartsAnswer{}},
		{&g.inputsSchema, &boundInputsAnswer{}},
		{&g.pickSchema, &pickAnswer{}},
	} {
		schema, err := newAnswerSchema(s.zero)
		if err != nil {
			return nil, err
		}
		*s.dst = schema
	}
	return g, nil
}

// IdentifyTarget implements Oracle.
func (g *Gemini) IdentifyTarget(ctx context.Context, goal string, candidates []string) (string, error) {
	prompt := fmt.Sprintf(`You are analyzing a recorded browser traffic log.
The user wants to accomplish this goal:

%s

Below is a numbered list of captured endpoint URLs. Pick the ONE endpoint whose
call directly accomplishes the goal. If none of them does, answer with the
string %q in the url field.

%s`, goal, AnswerNone, numberedList(candidates))

	var ans targetAnswer
	if err := g.generate(ctx, prompt, g.targetSchema, &ans); err != nil {
		return "", err
	}
	return strings.TrimSpace(ans.URL), nil
}

// IdentifyDynamicParts implements Oracle.
func (g *Gemini) IdentifyDynamicParts(ctx context.Context, replayForm string) ([]string, error) {
	prompt := fmt.Sprintf(`Below is an HTTP request in curl form. List every literal
substring of it that is a dynamic session or identity value: session ids,
auth tokens, CSRF tokens, server-assigned object ids.

Rules:
- Do NOT include anything from the cookie header.
- Do NOT include generic browser headers (user-agent, accept, referer, origin).
- Do NOT include arbitrary user-entered data (names, search text, quantities).
- Each part must be copied verbatim from the request.

%s`, replayForm)

	var ans dynamicPartsAnswer
	if err := g.generate(ctx, prompt, g.partsSchema, &ans); err != nil {
		return nil, err
	}
	return ans.Parts, nil
}

// IdentifyBoundInputs implements Oracle.
func (g *Gemini) IdentifyBoundInputs(ctx context.Context, replayForm string, candidates map[string]string) (map[string]string, error) {
	var list strings.Builder
	for name, value := range candidates {
		fmt.Fprintf(&list, "- %s = %q\n", name, value)
	}
	prompt := fmt.Sprintf(`Below is an HTTP request in curl form, followed by named
input variables supplied by the caller. Return the subset of variables whose
values actually appear in the request, keyed by variable name.

%s

Input variables:
%s`, replayForm, list.String())

	var ans boundInputsAnswer
	if err := g.generate(ctx, prompt, g.inputsSchema, &ans); err != nil {
		return nil, err
	}
	return ans.Inputs, nil
}

// PickSimplest implements Oracle.
func (g *Gemini) PickSimplest(ctx context.Context, replayForms []string) (int, error) {
	prompt := fmt.Sprintf(`Below is a numbered list of HTTP requests in curl form that
all produced the same value. Pick the request that most likely requires the
FEWEST prior requests to reproduce (fewest tokens, ids, or other dynamic
values of its own). Answer with its 0-based index.

%s`, numberedList(replayForms))

	var ans pickAnswer
	if err := g.generate(ctx, prompt, g.pickSchema, &ans); err != nil {
		return 0, err
	}
	return ans.Index, nil
}

// generate performs one model call and decodes the schema-validated answer.
func (g *Gemini) generate(ctx context.Context, prompt string, schema *answerSchema, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	full := prompt + "\n\nAnswer with a single JSON object matching this schema:\n" + schema.promptJSON

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("%w: empty response", ErrInvalidAnswer)
	}

	return schema.decode([]byte(resp.Candidates[0].Content.Parts[0].Text), out)
}

func numberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i, item)
	}
	return b.String()
}
