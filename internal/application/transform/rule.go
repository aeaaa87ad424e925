package transform

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// RuleKind identifies how a rule maps a source value onto a destination
// field.
type RuleKind string

const (
	RuleDirect   RuleKind = "direct"
	RuleMultiply RuleKind = "multiply"
	RuleDivide   RuleKind = "divide"
	RuleLookup   RuleKind = "lookup"
)

// RuleSpec is the JSON shape a tenant configures custom field rules in.
// Specs are compiled once per sync run, then applied per variation.
type RuleSpec struct {
	SourcePath      string            `json:"sourcePath"`
	DestinationPath string            `json:"destinationPath"`
	Transform       RuleKind          `json:"transform"`
	Factor          *decimal.Decimal  `json:"factor,omitempty"`
	Lookup          map[string]string `json:"lookup,omitempty"`
	LookupDefault   *string           `json:"lookupDefault,omitempty"`
	Required        bool              `json:"required"`
	Default         any               `json:"default,omitempty"`
}

// Rule is a compiled RuleSpec with both paths parsed.
type Rule struct {
	spec        RuleSpec
	source      FieldPath
	destination FieldPath
}

// CompileRule validates a spec and pre-parses its paths.
func CompileRule(spec RuleSpec) (Rule, error) {
	source, err := ParsePath(spec.SourcePath)
	if err != nil {
		return Rule{}, fmt.Errorf("source path: %w", err)
	}
	destination, err := ParsePath(spec.DestinationPath)
	if err != nil {
		return Rule{}, fmt.Errorf("destination path: %w", err)
	}

	switch spec.Transform {
	case "", RuleDirect:
		spec.Transform = RuleDirect
	case RuleMultiply, RuleDivide:
		if spec.Factor == nil {
			return Rule{}, fmt.Errorf("%w: %s rule %q needs a factor", ErrInvalidRule, spec.Transform, spec.SourcePath)
		}
		if spec.Transform == RuleDivide && spec.Factor.IsZero() {
			return Rule{}, fmt.Errorf("%w: divide rule %q has zero factor", ErrInvalidRule, spec.SourcePath)
		}
	case RuleLookup:
		if len(spec.Lookup) == 0 {
			return Rule{}, fmt.Errorf("%w: lookup rule %q has an empty table", ErrInvalidRule, spec.SourcePath)
		}
	default:
		return Rule{}, fmt.Errorf("%w: unknown transform %q", ErrInvalidRule, spec.Transform)
	}

	return Rule{spec: spec, source: source, destination: destination}, nil
}

// CompileRules compiles a slice of specs, failing on the first invalid one.
func CompileRules(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := CompileRule(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Apply resolves the rule's source value from doc and writes the transformed
// result into out. A missing optional value without a default is a no-op.
func (r Rule) Apply(doc map[string]any, out map[string]any) error {
	value, found := r.source.Resolve(doc)
	if !found {
		if r.spec.Default != nil {
			return r.destination.Set(out, r.spec.Default)
		}
		if r.spec.Required {
			return fmt.Errorf("%w: %q", ErrMissingValue, r.spec.SourcePath)
		}
		return nil
	}

	transformed, err := r.transform(value)
	if err != nil {
		return err
	}
	return r.destination.Set(out, transformed)
}

func (r Rule) transform(value any) (any, error) {
	switch r.spec.Transform {
	case RuleDirect:
		return value, nil

	case RuleMultiply, RuleDivide:
		number, err := toDecimal(value)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", r.spec.SourcePath, err)
		}
		if r.spec.Transform == RuleMultiply {
			return number.Mul(*r.spec.Factor), nil
		}
		return number.Div(*r.spec.Factor), nil

	case RuleLookup:
		key := lookupKey(value)
		if mapped, ok := r.spec.Lookup[key]; ok {
			return mapped, nil
		}
		if r.spec.LookupDefault != nil {
			return *r.spec.LookupDefault, nil
		}
		return nil, fmt.Errorf("%w: %q has no entry for %q", ErrLookupMiss, r.spec.SourcePath, key)

	default:
		return nil, fmt.Errorf("%w: unknown transform %q", ErrInvalidRule, r.spec.Transform)
	}
}

func lookupKey(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return decimal.NewFromFloat(v).String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrValueNotNumeric, v)
		}
		return parsed, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: %T", ErrValueNotNumeric, value)
	}
}
