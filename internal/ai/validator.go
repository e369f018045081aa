package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RequiredDecisionKeys must all be present in a model response. Extra keys
// are tolerated.
var RequiredDecisionKeys = []string{"decision", "reasoning", "confidence", "riskScore", "flags"}

var decisionSchema = map[string]any{
	"$schema":  "https://json-schema.org/draft/2020-12/schema",
	"type":     "object",
	"required": RequiredDecisionKeys,
}

// Validator checks raw model output against the decision shape.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	return compileValidator(decisionSchema)
}

func compileValidator(doc map[string]any) (*Validator, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("decision.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("decision.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustValidator panics if the built-in schema fails to compile.
func MustValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate returns the parsed object when raw satisfies the decision schema,
// otherwise a reason suitable for logs and the failed-result payload.
func (v *Validator) Validate(raw string) (map[string]any, string, bool) {
	body := stripCodeFence(raw)

	var value any
	if err := json.Unmarshal([]byte(body), &value); err != nil {
		return nil, "invalid JSON: " + err.Error(), false
	}
	if err := v.schema.Validate(value); err != nil {
		return nil, schemaReason(err), false
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, "not a JSON object", false
	}
	return obj, "", true
}

var quotedName = regexp.MustCompile(`'([^']*)'`)

// schemaReason flattens a schema failure into "not a JSON object" or
// "missing keys: a, b" with the keys sorted.
func schemaReason(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "json does not match schema: " + err.Error()
	}

	var (
		missing   []string
		notObject bool
		other     []string
	)
	for _, leaf := range leafErrors(ve) {
		switch {
		case strings.HasSuffix(leaf.KeywordLocation, "/type"):
			notObject = true
		case strings.HasSuffix(leaf.KeywordLocation, "/required"):
			for _, m := range quotedName.FindAllStringSubmatch(leaf.Message, -1) {
				missing = append(missing, m[1])
			}
		default:
			other = append(other, leaf.Message)
		}
	}

	switch {
	case notObject:
		return "not a JSON object"
	case len(missing) > 0:
		sort.Strings(missing)
		return "missing keys: " + strings.Join(missing, ", ")
	case len(other) > 0:
		return "json does not match schema: " + strings.Join(other, "; ")
	}
	return "json does not match schema: " + ve.Error()
}

func leafErrors(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		leaves = append(leaves, leafErrors(cause)...)
	}
	return leaves
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
