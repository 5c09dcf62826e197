package schemas

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Issue is one normalized schema violation. Paths are JSON-pointer style,
// rooted at "/". Missing-field and unknown-field violations are expanded to
// one issue per field so a revision prompt can name each one.
type Issue struct {
	Path    string         `json:"path"`
	Keyword string         `json:"keyword"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// collect walks the validation error tree and appends one issue per leaf
// cause. Interior nodes only group their causes and carry no detail of
// their own.
func collect(ve *jsonschema.ValidationError, issues []Issue) []Issue {
	if len(ve.Causes) == 0 {
		return append(issues, expand(ve)...)
	}
	for _, cause := range ve.Causes {
		issues = collect(cause, issues)
	}
	return issues
}

func expand(ve *jsonschema.ValidationError) []Issue {
	path := pointer(ve.InstanceLocation)

	switch k := ve.ErrorKind.(type) {
	case *kind.Required:
		issues := make([]Issue, 0, len(k.Missing))
		for _, field := range k.Missing {
			issues = append(issues, Issue{
				Path:    path,
				Keyword: "required",
				Message: fmt.Sprintf("missing required field %q", field),
				Params:  map[string]any{"field": field},
			})
		}
		return issues
	case *kind.AdditionalProperties:
		issues := make([]Issue, 0, len(k.Properties))
		for _, field := range k.Properties {
			issues = append(issues, Issue{
				Path:    path,
				Keyword: "additionalProperties",
				Message: fmt.Sprintf("unknown field %q", field),
				Params:  map[string]any{"field": field},
			})
		}
		return issues
	case *kind.Enum:
		return []Issue{{
			Path:    path,
			Keyword: "enum",
			Message: fmt.Sprintf("value must be one of %s", formatAllowed(k.Want)),
			Params:  map[string]any{"allowed": k.Want},
		}}
	default:
		return []Issue{{
			Path:    path,
			Keyword: strings.Join(ve.ErrorKind.KeywordPath(), "/"),
			Message: ve.ErrorKind.LocalizedString(printer),
		}}
	}
}

func pointer(location []string) string {
	if len(location) == 0 {
		return "/"
	}
	return "/" + strings.Join(location, "/")
}

func formatAllowed(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%q", fmt.Sprintf("%v", v)))
	}
	return strings.Join(parts, ", ")
}
