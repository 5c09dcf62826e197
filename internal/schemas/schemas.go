// Package schemas validates generated documents against embedded JSON
// Schema definitions before the pipeline accepts them. Every schema
// declares additionalProperties: false, so a document with an undeclared
// field is rejected rather than silently narrowed.
package schemas

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	ErrUnknownSchema   = errors.New("unknown schema")
	ErrInvalidDocument = errors.New("document is not valid JSON")
)

// Name identifies one declared document schema.
type Name string

const (
	ParsedInput     Name = "parsed_input"
	PhotoAnalysis   Name = "photo_analysis"
	AnnotationBatch Name = "annotation_batch"
	ArcAnalysis     Name = "arc_analysis"
	Outline         Name = "outline"
	Article         Name = "article"
	ContentDocument Name = "content_document"
)

var names = []Name{
	ParsedInput,
	PhotoAnalysis,
	AnnotationBatch,
	ArcAnalysis,
	Outline,
	Article,
	ContentDocument,
}

// Names returns the list of declared schemas.
func Names() []Name {
	return names
}

// Result reports one validation pass. Errors is empty when Valid.
type Result struct {
	Schema Name    `json:"schema"`
	Valid  bool    `json:"valid"`
	Errors []Issue `json:"errors,omitempty"`
}

// Messages flattens the result's issues into printable strings for the
// session error record and revision prompts.
func (r Result) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		msgs = append(msgs, issue.String())
	}
	return msgs
}

// Validator holds every declared schema, compiled once at construction.
type Validator struct {
	compiled map[Name]*jsonschema.Schema
}

// New loads and compiles the embedded schema set. An uncompilable schema
// is a build defect, so callers treat an error here as fatal.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	for _, name := range names {
		raw, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.json", name))
		if err != nil {
			return nil, fmt.Errorf("read %s schema: %w", name, err)
		}

		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse %s schema: %w", name, err)
		}

		if err := compiler.AddResource(resourceURL(name), doc); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", name, err)
		}
	}

	compiled := make(map[Name]*jsonschema.Schema, len(names))
	for _, name := range names {
		schema, err := compiler.Compile(resourceURL(name))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		compiled[name] = schema
	}

	return &Validator{compiled: compiled}, nil
}

// Validate checks raw JSON against the named schema. Schema violations are
// reported in the Result, not as an error; the error path is reserved for
// unknown schema names and undecodable input.
func (v *Validator) Validate(name Name, raw []byte) (Result, error) {
	schema, ok := v.compiled[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	err := schema.Validate(doc)
	if err == nil {
		return Result{Schema: name, Valid: true}, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return Result{}, fmt.Errorf("validate %s: %w", name, err)
	}

	return Result{Schema: name, Errors: collect(ve, nil)}, nil
}

func resourceURL(name Name) string {
	return fmt.Sprintf("%s.json", name)
}
