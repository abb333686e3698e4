package predicate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrUnknownKind is returned when compiling a rule with an unrecognised Kind.
var ErrUnknownKind = errors.New("unknown rule kind")

// exprEnv is the environment exposed to Expr rules.
type exprEnv struct {
	Value string `expr:"value"`
}

// Matcher is a compiled Rule, safe for concurrent use.
type Matcher struct {
	rule     Rule
	patterns []*regexp.Regexp
	pattern  *regexp.Regexp
	selector func(context.Context, any) (any, error)
	program  *vm.Program
}

// Compile compiles every regex and expression in rule.
func Compile(rule Rule) (*Matcher, error) {
	m := &Matcher{rule: rule}

	switch rule.Kind {
	case KindAllPresent, KindAnyPresent, KindNonePresent:
		for i, p := range rule.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("patterns[%d] %q: %w", i, p, err)
			}
			m.patterns = append(m.patterns, re)
		}

	case KindRegex:
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", rule.Pattern, err)
		}
		m.pattern = re

	case KindJSONPath:
		if rule.Path == "" {
			return nil, fmt.Errorf("json_path: path is required")
		}
		sel, err := jsonpath.New(rule.Path)
		if err != nil {
			return nil, fmt.Errorf("json_path %q: %w", rule.Path, err)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", rule.Pattern, err)
		}
		m.selector = sel
		m.pattern = re

	case KindExpr:
		program, err := expr.Compile(rule.Expression, expr.Env(exprEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("expr %q: %w", rule.Expression, err)
		}
		m.program = program

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rule.Kind)
	}

	return m, nil
}

// Rule returns the rule the matcher was compiled from.
func (m *Matcher) Rule() Rule {
	return m.rule
}

// Match reports whether value satisfies the rule. When it does not, the
// returned string explains the most specific reason.
func (m *Matcher) Match(value string) (bool, string) {
	switch m.rule.Kind {
	case KindAllPresent:
		return m.matchAll(value)
	case KindAnyPresent:
		return m.matchAny(value)
	case KindNonePresent:
		return m.matchNone(value)
	case KindRegex:
		if m.pattern.MatchString(value) {
			return true, ""
		}
		return false, fmt.Sprintf("line [%s] does not match pattern '%s'", value, m.rule.Pattern)
	case KindJSONPath:
		return m.matchJSONPath(value)
	case KindExpr:
		return m.matchExpr(value)
	default:
		return false, fmt.Sprintf("unknown rule kind %q", m.rule.Kind)
	}
}

func (m *Matcher) matchAll(value string) (bool, string) {
	if len(m.patterns) == 0 {
		return true, ""
	}
	if value == "" {
		return false, fmt.Sprintf("value is empty but %d pattern(s) are required", len(m.patterns))
	}

	var missing []string
	for i, re := range m.patterns {
		if !re.MatchString(value) {
			missing = append(missing, explainMissing(m.rule.Patterns[i], value))
		}
	}
	if len(missing) > 0 {
		return false, strings.Join(missing, "; ")
	}
	return true, ""
}

func (m *Matcher) matchAny(value string) (bool, string) {
	if len(m.patterns) == 0 {
		return true, ""
	}
	if value != "" {
		for _, re := range m.patterns {
			if re.MatchString(value) {
				return true, ""
			}
		}
	}
	return false, fmt.Sprintf("none of patterns [%s] is present in line [%s]",
		strings.Join(m.rule.Patterns, ", "), value)
}

func (m *Matcher) matchNone(value string) (bool, string) {
	for i, re := range m.patterns {
		if re.MatchString(value) {
			return false, fmt.Sprintf("forbidden pattern '%s' is present in line [%s]", m.rule.Patterns[i], value)
		}
	}
	return true, ""
}

func (m *Matcher) matchJSONPath(value string) (bool, string) {
	var doc any
	if err := json.Unmarshal([]byte(value), &doc); err != nil {
		return false, fmt.Sprintf("line [%s] is not valid JSON: %v", value, err)
	}

	selected, err := m.selector(context.Background(), doc)
	if err != nil {
		return false, fmt.Sprintf("path '%s' is absent in line [%s]", m.rule.Path, value)
	}

	rendered := fmt.Sprintf("%v", selected)
	if m.pattern.MatchString(rendered) {
		return true, ""
	}
	return false, fmt.Sprintf("path '%s' in line [%s] has value '%s' but expected '%s'",
		m.rule.Path, value, rendered, m.rule.Pattern)
}

func (m *Matcher) matchExpr(value string) (bool, string) {
	out, err := expr.Run(m.program, exprEnv{Value: value})
	if err != nil {
		return false, fmt.Sprintf("expression '%s' failed on line [%s]: %v", m.rule.Expression, value, err)
	}
	if ok, _ := out.(bool); ok {
		return true, ""
	}
	return false, fmt.Sprintf("expression '%s' is false for line [%s]", m.rule.Expression, value)
}

// Evaluate compiles rule and matches value against it in one step.
func Evaluate(value string, rule Rule) (bool, string, error) {
	m, err := Compile(rule)
	if err != nil {
		return false, "", err
	}
	ok, why := m.Match(value)
	return ok, why, nil
}
