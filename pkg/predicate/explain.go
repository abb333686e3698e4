package predicate

import (
	"fmt"
	"regexp"
	"strings"
)

// Anchor prefixes emitted by the pattern builder and found in hand-written patterns.
var anchorPrefixes = []string{`(^|[?&])`, `(^|&)`, `^`}

const anchorSuffix = `(&|$)`

var (
	rawKeyRE   = regexp.MustCompile(`^(?:\\.|[A-Za-z0-9_%.\-])+$`)
	unescapeRE = regexp.MustCompile(`\\(.)`)
)

// explainMissing describes why pattern did not match value. Patterns of
// the form key=value are decomposed so the message can say whether the key
// was absent or carried a different value.
func explainMissing(pattern, value string) string {
	key, expected, ok := splitKeyPattern(pattern)
	if !ok {
		return fmt.Sprintf("pattern '%s' is absent in line [%s]", pattern, value)
	}

	actual, found := lookupParam(value, key)
	if !found {
		return fmt.Sprintf("parameter '%s' is absent in line [%s]", key, value)
	}
	return fmt.Sprintf("parameter '%s' is present in line [%s] with value '%s' but expected '%s'",
		key, value, actual, expected)
}

func splitKeyPattern(pattern string) (key, expected string, ok bool) {
	p := pattern
	for _, prefix := range anchorPrefixes {
		if strings.HasPrefix(p, prefix) {
			p = p[len(prefix):]
			break
		}
	}

	rawKey, rest, found := strings.Cut(p, "=")
	if !found || !rawKeyRE.MatchString(rawKey) {
		return "", "", false
	}

	key = unescapeRE.ReplaceAllString(rawKey, "$1")
	expected = strings.TrimSuffix(rest, anchorSuffix)
	if lit := unescapeRE.ReplaceAllString(expected, "$1"); regexp.QuoteMeta(lit) == expected {
		expected = lit
	}
	return key, expected, true
}

func lookupParam(value, key string) (string, bool) {
	re := regexp.MustCompile(`(?:^|[?&])` + regexp.QuoteMeta(key) + `=([^&]*)`)
	m := re.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	return m[1], true
}
