// Package pattern builds regex fragments that match a single query or form
// parameter anywhere in a field value.
//
// Every fragment has the shape (^|[?&])name=<value>(&|$), so it matches the
// parameter whether it starts the string, follows a '?' or follows an '&'.
// Literal names and values are escaped with regexp.QuoteMeta.
package pattern

import (
	"regexp"
	"strings"
)

const (
	prefix = `(^|[?&])`
	suffix = `(&|$)`

	// valueChars matches any run of characters inside one parameter value.
	valueChars = `[^&]*`
)

func fragment(name, value string) string {
	return prefix + regexp.QuoteMeta(name) + "=" + value + suffix
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = regexp.QuoteMeta(v)
	}
	return out
}

// Exists matches name with any value, including an empty one.
func Exists(name string) string {
	return fragment(name, valueChars)
}

// NonBlank matches name with a non-empty value.
func NonBlank(name string) string {
	return fragment(name, `[^&]+`)
}

// NonBlankNonNumeric matches name with a value that has at least one non-digit.
func NonBlankNonNumeric(name string) string {
	return fragment(name, `[^&]*[^&0-9][^&]*`)
}

// PositiveInt matches name with an integer greater than zero.
func PositiveInt(name string) string {
	return fragment(name, `[1-9][0-9]*`)
}

// Integer matches name with a signed integer of 1 to 18 digits.
func Integer(name string) string {
	return fragment(name, `-?[0-9]{1,18}`)
}

// Equals matches name with exactly value.
func Equals(name, value string) string {
	return fragment(name, regexp.QuoteMeta(value))
}

// EqualsOneOf matches name with exactly one of values.
func EqualsOneOf(name string, values ...string) string {
	return fragment(name, "("+strings.Join(quoteAll(values), "|")+")")
}

// Contains matches name with a value containing sub.
func Contains(name, sub string) string {
	return fragment(name, valueChars+regexp.QuoteMeta(sub)+valueChars)
}

// ContainsOneOf matches name with a value containing at least one of subs.
func ContainsOneOf(name string, subs ...string) string {
	return fragment(name, valueChars+"("+strings.Join(quoteAll(subs), "|")+")"+valueChars)
}

// ContainsAll returns one Contains fragment per distinct substring. The
// value contains every substring, in any order and possibly overlapping,
// only when all of them match.
func ContainsAll(name string, subs ...string) []string {
	if len(subs) == 0 {
		return []string{Exists(name)}
	}
	seen := make(map[string]bool, len(subs))
	out := make([]string, 0, len(subs))
	for _, sub := range subs {
		if seen[sub] {
			continue
		}
		seen[sub] = true
		out = append(out, Contains(name, sub))
	}
	return out
}

// Matches matches name with a value satisfying the raw regex valueRE.
func Matches(name, valueRE string) string {
	return fragment(name, valueRE)
}

// Raw returns re unchanged.
func Raw(re string) string {
	return re
}
