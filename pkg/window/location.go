package window

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimestampLayout is the layout of absolute bounds in configuration and flags.
const TimestampLayout = "2006-01-02 15:04:05"

var utcOffsetRE = regexp.MustCompile(`^([+-])(\d{2}):?(\d{2})$`)

// ParseTimestamp parses an absolute bound in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(TimestampLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q (want %s): %w", s, TimestampLayout, err)
	}
	return t, nil
}

// Location resolves the time zone trace timestamps are written in.
// A utcOffset such as "-05:00" takes precedence over a zone name because it
// is unambiguous across daylight saving changes. Both empty means UTC.
func Location(name, utcOffset string) (*time.Location, error) {
	if utcOffset != "" {
		m := utcOffsetRE.FindStringSubmatch(utcOffset)
		if m == nil {
			return nil, fmt.Errorf("invalid utc offset %q (want +HH:MM or -HH:MM)", utcOffset)
		}
		hours, _ := strconv.Atoi(m[2])
		minutes, _ := strconv.Atoi(m[3])
		if hours > 14 || minutes > 59 {
			return nil, fmt.Errorf("utc offset %q out of range", utcOffset)
		}
		secs := hours*3600 + minutes*60
		if m[1] == "-" {
			secs = -secs
		}
		return time.FixedZone("UTC"+m[1]+m[2]+":"+m[3], secs), nil
	}

	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}
