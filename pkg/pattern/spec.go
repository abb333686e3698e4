package pattern

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoIntent is returned when a Spec does not say what to match.
var ErrNoIntent = errors.New("parameter has no match intent")

// ErrConflictingIntent is returned when a Spec sets more than one intent.
var ErrConflictingIntent = errors.New("parameter has more than one match intent")

// Spec declares what a single parameter must look like.
// Exactly one intent field must be set.
type Spec struct {
	Name string

	Exists             bool
	NonBlank           bool
	NonBlankNonNumeric bool
	PositiveInt        bool
	Integer            bool
	Equals             string
	OneOf              []string
	Contains           string
	ContainsAll        []string
	ContainsOneOf      []string
	Matches            string
}

// Fragments returns the regex fragments for the declared parameter intent.
func (s Spec) Fragments() ([]string, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("parameter name is required")
	}

	var out [][]string
	add := func(set bool, fragments ...string) {
		if set {
			out = append(out, fragments)
		}
	}

	add(s.Exists, Exists(s.Name))
	add(s.NonBlank, NonBlank(s.Name))
	add(s.NonBlankNonNumeric, NonBlankNonNumeric(s.Name))
	add(s.PositiveInt, PositiveInt(s.Name))
	add(s.Integer, Integer(s.Name))
	add(s.Equals != "", Equals(s.Name, s.Equals))
	add(len(s.OneOf) > 0, EqualsOneOf(s.Name, s.OneOf...))
	add(s.Contains != "", Contains(s.Name, s.Contains))
	add(len(s.ContainsAll) > 0, ContainsAll(s.Name, s.ContainsAll...)...)
	add(len(s.ContainsOneOf) > 0, ContainsOneOf(s.Name, s.ContainsOneOf...))
	if s.Matches != "" {
		if _, err := regexp.Compile(s.Matches); err != nil {
			return nil, fmt.Errorf("parameter %s: matches: %w", s.Name, err)
		}
		add(true, Matches(s.Name, s.Matches))
	}

	switch len(out) {
	case 0:
		return nil, fmt.Errorf("parameter %s: %w", s.Name, ErrNoIntent)
	case 1:
		return out[0], nil
	default:
		return nil, fmt.Errorf("parameter %s: %w", s.Name, ErrConflictingIntent)
	}
}
