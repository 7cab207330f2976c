package suite

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vlad89buzan/dataquality/internal/dataset"
	"github.com/vlad89buzan/dataquality/internal/dq"
)

// Named predicates available to rules.
const (
	PredicateNotFuture = "not_future"
	PredicateNotBlank  = "not_blank"
	PredicatePositive  = "positive"
)

// RuleSpec is the YAML form of a column rule. Every field set adds a
// constraint; a row is invalid when it violates any of them.
type RuleSpec struct {
	Column string `yaml:"column"`

	// Min and Max are inclusive bounds. Numbers compare numerically, dates
	// and timestamps chronologically, strings lexically.
	Min any `yaml:"min,omitempty"`
	Max any `yaml:"max,omitempty"`

	// OneOf lists the allowed values.
	OneOf []any `yaml:"one_of,omitempty"`

	// Predicate names a built-in condition.
	Predicate string `yaml:"predicate,omitempty"`

	// Pattern is a regular expression non-null values must match.
	Pattern string `yaml:"pattern,omitempty"`
}

// predicates builds the named conditions. now is only read by not_future.
var predicates = map[string]func(now func() time.Time) func(any) bool{
	// Null passes; use not_null to require a value.
	PredicateNotFuture: func(now func() time.Time) func(any) bool {
		return func(v any) bool {
			if v == nil {
				return true
			}
			ts, ok := dataset.ToTime(v)
			return ok && !ts.After(now())
		}
	},
	PredicateNotBlank: func(func() time.Time) func(any) bool {
		return func(v any) bool {
			if v == nil {
				return false
			}
			return strings.TrimSpace(dataset.FormatValue(v)) != ""
		}
	},
	PredicatePositive: func(func() time.Time) func(any) bool {
		return func(v any) bool {
			if v == nil {
				return true
			}
			d, ok := dataset.ToDecimal(v)
			return ok && d.IsPositive()
		}
	},
}

func (r RuleSpec) validate() error {
	if r.Column == "" {
		return fmt.Errorf("column is required")
	}
	if r.Predicate != "" {
		if _, ok := predicates[r.Predicate]; !ok {
			return fmt.Errorf("unknown predicate %q", r.Predicate)
		}
	}
	if r.Pattern != "" {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}
	return nil
}

// Rule converts the YAML rule into a dq.Rule.
func (r RuleSpec) Rule(now func() time.Time) (dq.Rule, error) {
	if err := r.validate(); err != nil {
		return dq.Rule{}, err
	}

	rule := dq.Rule{Column: r.Column}
	if r.Min != nil || r.Max != nil {
		rule.Constraints = append(rule.Constraints, dq.Bounds{Min: r.Min, Max: r.Max})
	}
	if r.OneOf != nil {
		rule.Constraints = append(rule.Constraints, dq.OneOf{Values: r.OneOf})
	}
	if r.Predicate != "" {
		rule.Constraints = append(rule.Constraints, dq.Predicate{
			Name: r.Predicate,
			Fn:   predicates[r.Predicate](now),
		})
	}
	if r.Pattern != "" {
		re := regexp.MustCompile(r.Pattern)
		rule.Constraints = append(rule.Constraints, dq.Predicate{
			Name: "pattern " + r.Pattern,
			Fn: func(v any) bool {
				return v == nil || re.MatchString(dataset.FormatValue(v))
			},
		})
	}
	return rule, nil
}

// Rules converts a list of specs.
func Rules(specs []RuleSpec, now func() time.Time) ([]dq.Rule, error) {
	out := make([]dq.Rule, len(specs))
	for i, spec := range specs {
		rule, err := spec.Rule(now)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out[i] = rule
	}
	return out, nil
}
