// Package predicate evaluates field values against match rules and explains
// why a value did not satisfy a rule.
package predicate

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a Rule.
type Kind string

const (
	// KindAllPresent requires every pattern to match.
	KindAllPresent Kind = "all_present"

	// KindAnyPresent requires at least one pattern to match.
	KindAnyPresent Kind = "any_present"

	// KindNonePresent requires that no pattern matches.
	KindNonePresent Kind = "none_present"

	// KindRegex requires a single raw regular expression to match.
	KindRegex Kind = "regex"

	// KindJSONPath requires a JSONPath selection of the value to match a pattern.
	KindJSONPath Kind = "json_path"

	// KindExpr requires a boolean expression over the value to be true.
	KindExpr Kind = "expr"
)

// Rule describes how a field value is judged. Build rules with the
// constructor functions rather than by setting fields directly.
type Rule struct {
	Kind Kind

	// Patterns holds the regexes for the list kinds.
	Patterns []string

	// Pattern holds the regex for KindRegex and KindJSONPath.
	Pattern string

	// Path holds the JSONPath selector for KindJSONPath.
	Path string

	// Expression holds the source for KindExpr.
	Expression string
}

// AllPresent returns a rule that matches when every pattern matches.
func AllPresent(patterns ...string) Rule {
	return Rule{Kind: KindAllPresent, Patterns: patterns}
}

// AnyPresent returns a rule that matches when at least one pattern matches.
func AnyPresent(patterns ...string) Rule {
	return Rule{Kind: KindAnyPresent, Patterns: patterns}
}

// NonePresent returns a rule that matches when no pattern matches.
func NonePresent(patterns ...string) Rule {
	return Rule{Kind: KindNonePresent, Patterns: patterns}
}

// Regex returns a rule that matches a single raw regular expression.
func Regex(pattern string) Rule {
	return Rule{Kind: KindRegex, Pattern: pattern}
}

// JSONPath returns a rule that parses the value as JSON, selects path and
// matches the rendered selection against pattern.
func JSONPath(path, pattern string) Rule {
	return Rule{Kind: KindJSONPath, Path: path, Pattern: pattern}
}

// Expr returns a rule evaluating a boolean expression. The value is
// available to the expression as `value`.
func Expr(expression string) Rule {
	return Rule{Kind: KindExpr, Expression: expression}
}

// String renders the rule for logs and reports.
func (r Rule) String() string {
	switch r.Kind {
	case KindAllPresent, KindAnyPresent, KindNonePresent:
		return fmt.Sprintf("%s[%s]", r.Kind, strings.Join(r.Patterns, ", "))
	case KindRegex:
		return fmt.Sprintf("regex[%s]", r.Pattern)
	case KindJSONPath:
		return fmt.Sprintf("json_path[%s ~ %s]", r.Path, r.Pattern)
	case KindExpr:
		return fmt.Sprintf("expr[%s]", r.Expression)
	default:
		return fmt.Sprintf("unknown[%s]", r.Kind)
	}
}
