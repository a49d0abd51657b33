package generator

import (
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sourcemeta-go/registryindex/frame"
	"github.com/sourcemeta-go/registryindex/metapack"
)

// healthReport is the `{score, errors}` shape spec.md §4.6 requires.
type healthReport struct {
	Score  int           `json:"score"`
	Errors []HealthError `json:"errors"`
}

// DefaultHealthRules is the lint rule bundle spec.md §4.6.1 (SUPPLEMENT)
// restores in place of the distilled spec's generic "bundle of schema-
// quality rules" — grounded on GENERATE_HEALTH's
// AlterSchemaMode::Readability + ValidExamples/ValidDefault bundle,
// reimplemented as pure functions since neither AlterSchema nor Blaze exist
// in the corpus.
func DefaultHealthRules() []HealthRule {
	return []HealthRule{
		{
			Name:        "examples-validate",
			Weight:      15,
			Description: "every entry in \"examples\" must validate against the schema it is attached to",
			Check:       checkExamplesValidate,
		},
		{
			Name:        "default-validates",
			Weight:      15,
			Description: "\"default\", if present, must validate against the schema it is attached to",
			Check:       checkDefaultValidates,
		},
		{
			Name:        "redundant-type-array",
			Weight:      5,
			Description: "a single-element \"type\" array should be written as a bare string",
			Check:       checkRedundantTypeArray,
		},
		{
			Name:        "no-ref-siblings",
			Weight:      5,
			Description: "keywords sitting next to \"$ref\" are ignored by this dialect and should be removed",
			Check:       checkNoRefSiblings,
		},
		{
			Name:        "title-or-description-present",
			Weight:      2,
			Description: "schema objects should document themselves with a \"title\" or \"description\"",
			Check:       checkTitleOrDescription,
		},
	}
}

// Health runs the lint rule bundle over the materialised schema, writing a
// `{score, errors}` report. Grounded on GENERATE_HEALTH.
func Health(destination string, dependencies []string, addDynamic func(string), ctxAny any) error {
	gctx := ctxAny.(*Context)

	var schema map[string]any
	if _, err := metapack.ReadJSON(dependencies[0], &schema); err != nil {
		return err
	}

	rules := gctx.Rules
	if rules == nil {
		rules = DefaultHealthRules()
	}

	compiler := newCompiler(gctx.Resolver)
	if _, err := compiler.Compile(gctx.Identifier); err != nil {
		return fmt.Errorf("generator: compiling %s for health checks: %w", gctx.Identifier, err)
	}

	var errors []HealthError
	score := 100
	validator := &identifierCompiler{compiler: compiler, identifier: gctx.Identifier}
	for _, rule := range rules {
		violations := rule.Check(schema, validator)
		if len(violations) == 0 {
			continue
		}
		errors = append(errors, violations...)
		score -= rule.Weight * len(violations)
	}
	if score < 0 {
		score = 0
	}
	if errors == nil {
		errors = []HealthError{}
	}

	_, err := metapack.WriteJSON(destination, healthReport{Score: score, Errors: errors}, metapack.WriteOptions{
		MIME:     "application/json",
		Encoding: metapack.EncodingGzip,
	})
	_ = addDynamic
	return err
}

// identifierCompiler adapts a compiler plus the root identifier it was
// seeded with into the narrow CompiledValidator contract each rule needs,
// resolving a subschema by JSON Pointer fragment on demand.
type identifierCompiler struct {
	compiler   *jsonschema.Compiler
	identifier string
}

func (c *identifierCompiler) Validate(v any) error {
	sub, err := c.compiler.Compile(c.identifier)
	if err != nil {
		return err
	}
	return sub.Validate(v)
}

// checkExamplesValidate walks every subschema and validates each of its
// "examples" entries against that subschema's own location.
func checkExamplesValidate(doc map[string]any, compiled CompiledValidator) []HealthError {
	var out []HealthError
	walkObjects(doc, "", func(pointer string, obj map[string]any) {
		examples, ok := obj["examples"].([]any)
		if !ok {
			return
		}
		sub, err := subschemaValidator(compiled, pointer)
		if err != nil {
			return
		}
		for _, example := range examples {
			if err := sub.Validate(example); err != nil {
				detail := err.Error()
				out = append(out, HealthError{
					Pointer:     pointer + "/examples",
					Name:        "examples-validate",
					Message:     "an example does not validate against its schema",
					Description: &detail,
				})
			}
		}
	})
	return out
}

// checkDefaultValidates validates every subschema's "default" value, if any.
func checkDefaultValidates(doc map[string]any, compiled CompiledValidator) []HealthError {
	var out []HealthError
	walkObjects(doc, "", func(pointer string, obj map[string]any) {
		value, ok := obj["default"]
		if !ok {
			return
		}
		sub, err := subschemaValidator(compiled, pointer)
		if err != nil {
			return
		}
		if err := sub.Validate(value); err != nil {
			detail := err.Error()
			out = append(out, HealthError{
				Pointer:     pointer + "/default",
				Name:        "default-validates",
				Message:     "the default value does not validate against its schema",
				Description: &detail,
			})
		}
	})
	return out
}

func checkRedundantTypeArray(doc map[string]any, _ CompiledValidator) []HealthError {
	var out []HealthError
	walkObjects(doc, "", func(pointer string, obj map[string]any) {
		arr, ok := obj["type"].([]any)
		if !ok || len(arr) != 1 {
			return
		}
		out = append(out, HealthError{
			Pointer:     pointer + "/type",
			Name:        "redundant-type-array",
			Message:     "a single-element type array should be a bare string",
			Description: nil,
		})
	})
	return out
}

func checkNoRefSiblings(doc map[string]any, _ CompiledValidator) []HealthError {
	dialectID, _ := doc["$schema"].(string)
	switch frame.ClassifyDialect(dialectID) {
	case frame.BaseDialect2019, frame.BaseDialect2020:
		return nil
	}
	var out []HealthError
	walkObjects(doc, "", func(pointer string, obj map[string]any) {
		if _, ok := obj["$ref"]; !ok {
			return
		}
		for key := range obj {
			if key == "$ref" {
				continue
			}
			out = append(out, HealthError{
				Pointer:     pointer + "/" + key,
				Name:        "no-ref-siblings",
				Message:     fmt.Sprintf("%q sits next to $ref and is silently ignored under this dialect", key),
				Description: nil,
			})
		}
	})
	return out
}

func checkTitleOrDescription(doc map[string]any, _ CompiledValidator) []HealthError {
	var out []HealthError
	walkObjects(doc, "", func(pointer string, obj map[string]any) {
		if _, ok := obj["$ref"]; ok {
			return
		}
		_, hasTitle := obj["title"]
		_, hasDescription := obj["description"]
		if hasTitle || hasDescription {
			return
		}
		out = append(out, HealthError{
			Pointer:     pointer,
			Name:        "title-or-description-present",
			Message:     "schema object has neither a title nor a description",
			Description: nil,
		})
	})
	return out
}

// subschemaValidator narrows compiled down to the schema rooted at pointer.
func subschemaValidator(compiled CompiledValidator, pointer string) (CompiledValidator, error) {
	ic, ok := compiled.(*identifierCompiler)
	if !ok {
		return compiled, nil
	}
	return &pointerValidator{parent: ic, pointer: pointer}, nil
}

type pointerValidator struct {
	parent  *identifierCompiler
	pointer string
}

func (p *pointerValidator) Validate(v any) error {
	location := p.parent.identifier
	if p.pointer != "" {
		location += "#" + p.pointer
	}
	sub, err := p.parent.compiler.Compile(location)
	if err != nil {
		return err
	}
	return sub.Validate(v)
}
