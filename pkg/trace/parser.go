package trace

import (
	"strings"
	"time"
)

// TimestampLayout matches the date and time columns of the capture tool,
// concatenated without a separator.
const TimestampLayout = "2006-01-0215:04:05"

// Column positions in a whitespace-delimited dump line.
const (
	fieldDate = 0
	fieldTime = 1
	fieldHost = 5
	fieldPath = 8
	fieldBody = 10

	minFields = fieldPath + 1
)

// Parser turns dump lines into records for a single host.
type Parser struct {
	host string
	loc  *time.Location
}

// NewParser creates a parser that keeps lines for host and reads timestamps in loc.
// An empty host accepts every line. A nil loc means UTC.
func NewParser(host string, loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{host: host, loc: loc}
}

// Host returns the host filter.
func (p *Parser) Host() string {
	return p.host
}

// Location returns the location timestamps are parsed in.
func (p *Parser) Location() *time.Location {
	return p.loc
}

// Parse parses a single dump line. Lines that are malformed or belong to
// another host return a zero Record and the reason they were skipped.
func (p *Parser) Parse(line string) (Record, Skip) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return Record{}, SkipTooFewFields
	}

	host := fields[fieldHost]
	if p.host != "" && host != p.host {
		return Record{}, SkipHostMismatch
	}

	ts, err := time.ParseInLocation(TimestampLayout, fields[fieldDate]+fields[fieldTime], p.loc)
	if err != nil {
		return Record{}, SkipBadTimestamp
	}

	rec := Record{
		Timestamp: ts,
		Host:      host,
		Path:      fields[fieldPath],
	}
	if len(fields) > fieldBody {
		rec.Body = fields[fieldBody]
	}
	return rec, SkipNone
}
