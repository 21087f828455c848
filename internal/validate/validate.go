// Package validate checks every record of an upload against the schema
// inferred from its sample, so that drift outside the sample is caught before
// rows are written.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// Draft is the JSON Schema dialect of generated schemas.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// DefaultMaxIssues bounds how many failing records a Report lists.
const DefaultMaxIssues = 20

// SchemaFor builds a JSON Schema from an analysis result. Field paths become
// nested properties; top-level keys present in every sampled record are
// required. Null is accepted everywhere, and text or json fields accept any
// value since they store whatever they are given.
func SchemaFor(res *analyzer.Result) *jsonschema.Schema {
	root := &jsonschema.Schema{
		Version:    Draft,
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}

	for pair := res.Fields.Oldest(); pair != nil; pair = pair.Next() {
		parts := strings.Split(pair.Key, analyzer.PathSeparator)
		parent := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := parent.Properties.Get(part)
			if !ok || child.Properties == nil {
				child = &jsonschema.Schema{Properties: jsonschema.NewProperties()}
				parent.Properties.Set(part, child)
			}
			parent = child
		}
		last := parts[len(parts)-1]
		if _, exists := parent.Properties.Get(last); !exists {
			parent.Properties.Set(last, leafSchema(pair.Value))
		}
	}

	if res.KeyConsistency != nil {
		for pair := res.KeyConsistency.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value >= 1 {
				root.Required = append(root.Required, pair.Key)
			}
		}
	}
	return root
}

func leafSchema(t analyzer.Type) *jsonschema.Schema {
	types := jsonTypes(t)
	if len(types) == 0 {
		return &jsonschema.Schema{}
	}
	types = append(types, "null")

	s := &jsonschema.Schema{}
	seen := make(map[string]bool, len(types))
	for _, typ := range types {
		if seen[typ] {
			continue
		}
		seen[typ] = true
		s.AnyOf = append(s.AnyOf, &jsonschema.Schema{Type: typ})
	}
	return s
}

// jsonTypes lists the JSON Schema types t admits. Nil means unconstrained.
func jsonTypes(t analyzer.Type) []string {
	switch t.Kind {
	case analyzer.KindBoolean:
		return []string{"boolean"}
	case analyzer.KindInteger:
		return []string{"integer"}
	case analyzer.KindFloat:
		return []string{"number"}
	case analyzer.KindArray:
		return []string{"array"}
	case analyzer.KindUnion:
		var out []string
		for _, m := range t.Members {
			if m.Kind == analyzer.KindNull {
				continue
			}
			sub := jsonTypes(m)
			if sub == nil {
				return nil
			}
			out = append(out, sub...)
		}
		return out
	default:
		return nil
	}
}

// Issue lists the schema violations of one record.
type Issue struct {
	Record int      `json:"record"`
	Errors []string `json:"errors"`
}

// KeyGap names a top-level key that only some of the checked records carry.
// Missing lists the first indices of records lacking it.
type KeyGap struct {
	Key     string   `json:"key"`
	Present int      `json:"present"`
	Missing []uint32 `json:"missing"`
}

// Report is the outcome of checking a set of records. KeyGaps is
// informational; optional keys do not make a record invalid.
type Report struct {
	Checked int      `json:"checked"`
	Invalid int      `json:"invalid"`
	Issues  []Issue  `json:"issues,omitempty"`
	KeyGaps []KeyGap `json:"key_gaps,omitempty"`
}

// OK reports whether every checked record conformed.
func (r *Report) OK() bool {
	return r.Invalid == 0
}

// Validator validates records against a compiled schema.
type Validator struct {
	schema    *sjsonschema.Schema
	maxIssues int
}

// NewValidator compiles s.
func NewValidator(s *jsonschema.Schema) (*Validator, error) {
	// Convert to JSON and back to get a clean map[string]any
	schemaJSON, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var schemaValue any
	if err := json.Unmarshal(schemaJSON, &schemaValue); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := sjsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", schemaValue); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Validator{schema: compiled, maxIssues: DefaultMaxIssues}, nil
}

// ForResult builds and compiles the schema of res.
func ForResult(res *analyzer.Result) (*Validator, error) {
	return NewValidator(SchemaFor(res))
}

// Check validates each record. Non-object records are reported as invalid
// because the root schema is an object.
func (v *Validator) Check(records []any) *Report {
	report := &Report{Checked: len(records)}
	scorer := analyzer.NewKeyScorer()
	for i, rec := range records {
		scorer.Observe(rec)
		err := v.schema.Validate(analyzer.ToPlain(rec))
		if err == nil {
			continue
		}
		report.Invalid++
		if len(report.Issues) < v.maxIssues {
			report.Issues = append(report.Issues, Issue{Record: i, Errors: extractValidationErrors(err)})
		}
	}
	report.KeyGaps = v.keyGaps(scorer, len(records))
	return report
}

func (v *Validator) keyGaps(scorer *analyzer.KeyScorer, n int) []KeyGap {
	var gaps []KeyGap
	for _, key := range scorer.Keys() {
		present := scorer.Count(key)
		if present == n {
			continue
		}
		missing := scorer.Missing(key)
		if len(missing) > v.maxIssues {
			missing = missing[:v.maxIssues]
		}
		gaps = append(gaps, KeyGap{Key: key, Present: present, Missing: missing})
	}
	return gaps
}

// extractValidationErrors extracts human-readable error messages from a validation error.
func extractValidationErrors(err error) []string {
	var validationErr *sjsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	errorsByPath := make(map[string][]string)
	collectErrors(validationErr, errorsByPath)

	var result []string
	for path, msgs := range errorsByPath {
		seen := make(map[string]bool)
		for _, msg := range msgs {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, fmt.Sprintf("%s: %s", path, msg))
			} else {
				result = append(result, msg)
			}
		}
	}
	sort.Strings(result)
	return result
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *sjsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		// $ref and anyOf wrappers are not useful on their own
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
