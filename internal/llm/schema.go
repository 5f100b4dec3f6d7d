package llm

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// OutputSchema is a compiled JSON Schema describing the structured output a
// completion must conform to. Schemas are compiled once at package init time;
// a schema that fails to compile is a programming error and panics at load,
// never at call time.
type OutputSchema struct {
	// Name labels the schema in prompts and error messages.
	Name string

	// Raw is the JSON Schema document, also injected verbatim into the
	// model instructions so the model knows the exact expected shape.
	Raw string

	// compiled is the validator built from Raw.
	compiled *jsonschema.Schema
}

// MustSchema compiles raw into an OutputSchema, panicking on compile failure.
// Intended for package-level schema declarations.
func MustSchema(name, raw string) *OutputSchema {
	s, err := NewSchema(name, raw)
	if err != nil {
		panic(err)
	}
	return s
}

// NewSchema compiles raw into an OutputSchema.
func NewSchema(name, raw string) (*OutputSchema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("llm: schema %q is not valid JSON: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	resource := name + ".schema.json"
	if err := compiler.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("llm: adding schema resource %q: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("llm: compiling schema %q: %w", name, err)
	}

	return &OutputSchema{Name: name, Raw: raw, compiled: compiled}, nil
}

// Validate checks data (a JSON document) against the schema. A nil return
// means the document conforms.
func (s *OutputSchema) Validate(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}
	if err := s.compiled.Validate(inst); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	return nil
}
