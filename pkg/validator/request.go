package validator

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ccollicutt/tracecheck/pkg/predicate"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

// Field selects which part of a trace record a check examines.
type Field string

const (
	// FieldPath is the request path including the query string.
	FieldPath Field = "path"

	// FieldBody is the request body.
	FieldBody Field = "body"
)

// Expectation is the polarity of a check.
type Expectation string

const (
	// Present succeeds on the first record in the window satisfying the rule.
	Present Expectation = "present"

	// Absent fails on the first record in the window violating the rule and
	// succeeds when the window expires without one.
	Absent Expectation = "absent"
)

// DefaultOriginOffset is the symmetric window used by OriginRequest when
// offset is zero.
const DefaultOriginOffset = 60 * time.Second

// Check is one independently polled group of criteria.
type Check struct {
	// Name identifies the check in results and logs.
	Name string

	// Field is the record field the rule is applied to.
	Field Field

	// Rule decides whether a single record satisfies the check.
	Rule predicate.Rule

	// Expect is Present when omitted.
	Expect Expectation
}

// Request describes what a validation looks for and when.
type Request struct {
	// URIContains lists patterns that must all match the path of one record.
	URIContains []string

	// URINotContains lists patterns no record path may match.
	URINotContains []string

	// BodyContains lists patterns that must all match the body of one record.
	BodyContains []string

	// BodyNotContains lists patterns no record body may match.
	BodyNotContains []string

	// Checks holds additional typed checks.
	Checks []Check

	// From and To bound the window records are examined in.
	From window.Bound
	To   window.Bound

	// Verbose logs the outcome at info level instead of debug.
	Verbose bool
}

// AllChecks returns the contains lists followed by the extra checks, in
// the order they are polled. Empty lists are omitted.
func (r Request) AllChecks() []Check {
	var checks []Check
	if len(r.URIContains) > 0 {
		checks = append(checks, Check{Name: "uri_contains", Field: FieldPath, Rule: predicate.AllPresent(r.URIContains...), Expect: Present})
	}
	if len(r.URINotContains) > 0 {
		checks = append(checks, Check{Name: "uri_not_contains", Field: FieldPath, Rule: predicate.NonePresent(r.URINotContains...), Expect: Absent})
	}
	if len(r.BodyContains) > 0 {
		checks = append(checks, Check{Name: "body_contains", Field: FieldBody, Rule: predicate.AllPresent(r.BodyContains...), Expect: Present})
	}
	if len(r.BodyNotContains) > 0 {
		checks = append(checks, Check{Name: "body_not_contains", Field: FieldBody, Rule: predicate.NonePresent(r.BodyNotContains...), Expect: Absent})
	}

	for i, c := range r.Checks {
		if c.Name == "" {
			c.Name = fmt.Sprintf("checks[%d]", i)
		}
		if c.Expect == "" {
			c.Expect = Present
		}
		checks = append(checks, c)
	}
	return checks
}

// OriginRequest builds the single-substring request used by older callers:
// origin must appear literally in the path of a record captured within
// offset either side of now.
func OriginRequest(origin string, offset time.Duration) Request {
	if offset <= 0 {
		offset = DefaultOriginOffset
	}
	return Request{
		URIContains: []string{regexp.QuoteMeta(origin)},
		From:        window.Offset(offset),
		To:          window.Offset(offset),
	}
}
