package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Answer wire shapes. Each oracle operation expects exactly one of these
// back from the model, and rejects anything that does not validate.
type targetAnswer struct {
	URL string `json:"url" jsonschema:"description=Chosen endpoint URL or NONE"`
}

type dynamicPartsAnswer struct {
	Parts []string `json:"parts" jsonschema:"description=Literal dynamic substrings of the request"`
}

type boundInputsAnswer struct {
	Inputs map[string]string `json:"inputs" jsonschema:"description=Input variables present in the request"`
}

type pickAnswer struct {
	Index int `json:"index" jsonschema:"description=0-based index of the simplest candidate"`
}

// answerSchema couples the prompt-side schema text with the compiled
// validator for one answer shape.
type answerSchema struct {
	promptJSON string
	compiled   *jsonschema.Schema
}

// newAnswerSchema reflects a Go answer struct into a JSON schema (embedded in
// the prompt so the model knows the exact shape) and compiles the same schema
// for validating the reply.
func newAnswerSchema(zero any) (*answerSchema, error) {
	reflector := invopop.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	raw, err := json.Marshal(reflector.Reflect(zero))
	if err != nil {
		return nil, fmt.Errorf("marshaling answer schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parsing answer schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("answer.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile("answer.json")
	if err != nil {
		return nil, fmt.Errorf("compiling answer schema: %w", err)
	}

	return &answerSchema{promptJSON: string(raw), compiled: compiled}, nil
}

// decode validates raw model output against the schema and unmarshals it.
func (a *answerSchema) decode(raw []byte, out any) error {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("%w: not JSON: %v", ErrInvalidAnswer, err)
	}
	if err := a.compiled.Validate(value); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAnswer, strings.Join(validationMessages(err), "; "))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}
	return nil
}

// printer is a default English printer for localized validation messages.
var printer = message.NewPrinter(language.English)

// validationMessages flattens a jsonschema validation error into
// human-readable leaf messages.
func validationMessages(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}

	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if e.ErrorKind != nil && len(e.Causes) == 0 {
			msg := e.ErrorKind.LocalizedString(printer)
			path := ""
			if len(e.InstanceLocation) > 0 {
				path = "/" + strings.Join(e.InstanceLocation, "/") + ": "
			}
			msgs = append(msgs, path+msg)
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	if len(msgs) == 0 {
		msgs = []string{ve.Error()}
	}
	return msgs
}
