// Package window resolves relative and absolute bounds into the time range
// in which trace records are examined.
package window

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingFrom is returned when the lower bound is unset.
	ErrMissingFrom = errors.New("window start is not set")

	// ErrMissingTo is returned when the upper bound is unset.
	ErrMissingTo = errors.New("window end is not set")

	// ErrEmptyWindow is returned when the start is not before the end.
	ErrEmptyWindow = errors.New("window start must be before window end")
)

type boundKind int

const (
	unset boundKind = iota
	offset
	absolute
)

// Bound is one end of a window, either an offset from now or an absolute
// instant. The zero Bound is unset.
type Bound struct {
	kind   boundKind
	offset time.Duration
	at     time.Time
}

// Offset returns a bound relative to now. For the start of a window the
// offset is subtracted from now; for the end it is added.
func Offset(d time.Duration) Bound {
	return Bound{kind: offset, offset: d}
}

// At returns a bound at an absolute instant.
func At(t time.Time) Bound {
	return Bound{kind: absolute, at: t}
}

// IsSet reports whether the bound has a value.
func (b Bound) IsSet() bool {
	return b.kind != unset
}

func (b Bound) String() string {
	switch b.kind {
	case offset:
		return b.offset.String()
	case absolute:
		return b.at.Format(TimestampLayout)
	default:
		return "unset"
	}
}

// Window is an open time interval. Records are inside only when their
// timestamp is strictly after From and strictly before To.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies strictly inside the window.
func (w Window) Contains(t time.Time) bool {
	return t.After(w.From) && t.Before(w.To)
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.To.Sub(w.From)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.From.Format(TimestampLayout), w.To.Format(TimestampLayout))
}

// Resolve turns from and to into absolute instants using now.
func Resolve(now time.Time, from, to Bound) (Window, error) {
	if !from.IsSet() {
		return Window{}, ErrMissingFrom
	}
	if !to.IsSet() {
		return Window{}, ErrMissingTo
	}

	w := Window{From: from.at, To: to.at}
	if from.kind == offset {
		w.From = now.Add(-from.offset)
	}
	if to.kind == offset {
		w.To = now.Add(to.offset)
	}

	if !w.From.Before(w.To) {
		return Window{}, fmt.Errorf("%w: %s", ErrEmptyWindow, w)
	}
	return w, nil
}
