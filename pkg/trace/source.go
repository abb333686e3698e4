package trace

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Source provides repeatable access to parsed trace records.
// Every call to Scan re-reads the dump from the beginning, so records
// appended since the previous call are visible.
type Source interface {
	// Scan calls fn for each parsed record in file order.
	// Returning false from fn stops the scan without error.
	// Lines that cannot be parsed are skipped.
	Scan(ctx context.Context, fn func(Record) bool) error
}

// FileSource implements Source for a dump file on disk.
// Files ending in .zst are decompressed on the fly.
type FileSource struct {
	path   string
	parser *Parser
}

// NewFileSource creates a Source reading the dump at path.
func NewFileSource(path string, parser *Parser) *FileSource {
	return &FileSource{
		path:   path,
		parser: parser,
	}
}

// Path returns the dump file path.
func (s *FileSource) Path() string {
	return s.path
}

// Scan re-reads the dump and calls fn for every record the parser accepts.
func (s *FileSource) Scan(ctx context.Context, fn func(Record) bool) error {
	return s.lines(ctx, func(num int, line string) bool {
		rec, skip := s.parser.Parse(line)
		if skip != SkipNone {
			return true
		}
		rec.Line = num
		return fn(rec)
	})
}

// Summary describes the contents of a dump file.
type Summary struct {
	// Lines is the number of lines read.
	Lines int

	// Parsed is the number of lines accepted by the parser.
	Parsed int

	// Skipped counts rejected lines by reason.
	Skipped map[Skip]int

	// Hosts counts well-formed lines per host, regardless of the host filter.
	Hosts map[string]int

	// First and Last are the earliest and latest accepted timestamps.
	First time.Time
	Last  time.Time
}

// Inspect reads the whole dump and summarizes what the parser sees.
func (s *FileSource) Inspect(ctx context.Context) (*Summary, error) {
	anyHost := NewParser("", s.parser.Location())
	sum := &Summary{
		Skipped: make(map[Skip]int),
		Hosts:   make(map[string]int),
	}

	err := s.lines(ctx, func(_ int, line string) bool {
		sum.Lines++

		if rec, skip := anyHost.Parse(line); skip == SkipNone {
			sum.Hosts[rec.Host]++
		}

		rec, skip := s.parser.Parse(line)
		if skip != SkipNone {
			sum.Skipped[skip]++
			return true
		}

		sum.Parsed++
		if sum.First.IsZero() || rec.Timestamp.Before(sum.First) {
			sum.First = rec.Timestamp
		}
		if rec.Timestamp.After(sum.Last) {
			sum.Last = rec.Timestamp
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *FileSource) lines(ctx context.Context, fn func(num int, line string) bool) error {
	f, err := os.Open(s.path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening trace file %s: %w", s.path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(s.path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("opening compressed trace file %s: %w", s.path, err)
		}
		defer dec.Close()
		r = dec
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line size

	num := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		num++
		if !fn(num, scanner.Text()) {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}
	return nil
}
