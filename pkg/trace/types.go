// Package trace reads network capture dumps and parses them into records.
package trace

import "time"

// Record represents a single request line from a capture dump.
type Record struct {
	// Timestamp is the capture time, parsed in the configured location.
	Timestamp time.Time

	// Host is the destination host of the request.
	Host string

	// Path is the request path including the query string.
	Path string

	// Body is the request body, empty when the line has none.
	Body string

	// Line is the 1-based line number in the dump.
	Line int
}

// Skip explains why a dump line did not produce a Record.
type Skip int

const (
	// SkipNone means the line was parsed.
	SkipNone Skip = iota

	// SkipTooFewFields means the line is shorter than the capture format.
	SkipTooFewFields

	// SkipHostMismatch means the line belongs to another host.
	SkipHostMismatch

	// SkipBadTimestamp means the date and time columns could not be parsed.
	SkipBadTimestamp
)

func (s Skip) String() string {
	switch s {
	case SkipNone:
		return "none"
	case SkipTooFewFields:
		return "too_few_fields"
	case SkipHostMismatch:
		return "host_mismatch"
	case SkipBadTimestamp:
		return "bad_timestamp"
	default:
		return "unknown"
	}
}
