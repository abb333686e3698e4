package trace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

const sampleDump = `2024-01-15 10:00:00 - - - ads.example 1 2 /ad?a=1 - body1
garbage line
2024-01-15 10:00:01 - - - other.example 1 2 /ad?a=2 - body2
2024-01-15 10:00:02 - - - ads.example 1 2 /ad?a=3
2024-99-15 10:00:03 - - - ads.example 1 2 /ad?a=4 - body4
2024-01-15 10:00:04 - - - ads.example 1 2 /ad?a=5 - body5
`

func writeDump(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func collect(t *testing.T, src Source) []Record {
	t.Helper()
	var records []Record
	err := src.Scan(context.Background(), func(r Record) bool {
		records = append(records, r)
		return true
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return records
}

func TestFileSource_Scan(t *testing.T) {
	path := writeDump(t, "dump.txt", sampleDump)
	src := NewFileSource(path, NewParser("ads.example", time.UTC))

	records := collect(t, src)
	if len(records) != 3 {
		t.Fatalf("Got %d records, want 3", len(records))
	}

	wantLines := []int{1, 4, 6}
	wantPaths := []string{"/ad?a=1", "/ad?a=3", "/ad?a=5"}
	for i, rec := range records {
		if rec.Line != wantLines[i] {
			t.Errorf("records[%d].Line = %d, want %d", i, rec.Line, wantLines[i])
		}
		if rec.Path != wantPaths[i] {
			t.Errorf("records[%d].Path = %q, want %q", i, rec.Path, wantPaths[i])
		}
	}
	if records[1].Body != "" {
		t.Errorf("records[1].Body = %q, want empty", records[1].Body)
	}
}

func TestFileSource_ScanStopsEarly(t *testing.T) {
	path := writeDump(t, "dump.txt", sampleDump)
	src := NewFileSource(path, NewParser("ads.example", time.UTC))

	calls := 0
	err := src.Scan(context.Background(), func(Record) bool {
		calls++
		return false
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestFileSource_RereadsAppendedLines(t *testing.T) {
	path := writeDump(t, "dump.txt", "2024-01-15 10:00:00 - - - ads.example 1 2 /first\n")
	src := NewFileSource(path, NewParser("ads.example", time.UTC))

	if got := len(collect(t, src)); got != 1 {
		t.Fatalf("first pass got %d records, want 1", got)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("2024-01-15 10:00:01 - - - ads.example 1 2 /second\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if got := len(collect(t, src)); got != 2 {
		t.Errorf("second pass got %d records, want 2", got)
	}
}

func TestFileSource_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.txt.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Write([]byte(sampleDump)); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path, NewParser("ads.example", time.UTC))
	if got := len(collect(t, src)); got != 3 {
		t.Errorf("Got %d records, want 3", got)
	}
}

func TestFileSource_FileNotFound(t *testing.T) {
	src := NewFileSource("/nonexistent/dump.txt", NewParser("ads.example", time.UTC))

	err := src.Scan(context.Background(), func(Record) bool { return true })
	if err == nil {
		t.Error("Scan() expected error for missing file")
	}
}

func TestFileSource_ContextCancellation(t *testing.T) {
	path := writeDump(t, "dump.txt", sampleDump)
	src := NewFileSource(path, NewParser("ads.example", time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := src.Scan(ctx, func(Record) bool { return true })
	if err != context.Canceled {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestFileSource_Inspect(t *testing.T) {
	path := writeDump(t, "dump.txt", sampleDump)
	src := NewFileSource(path, NewParser("ads.example", time.UTC))

	sum, err := src.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	if sum.Lines != 6 {
		t.Errorf("Lines = %d, want 6", sum.Lines)
	}
	if sum.Parsed != 3 {
		t.Errorf("Parsed = %d, want 3", sum.Parsed)
	}
	if sum.Skipped[SkipTooFewFields] != 1 {
		t.Errorf("Skipped[too_few_fields] = %d, want 1", sum.Skipped[SkipTooFewFields])
	}
	if sum.Skipped[SkipHostMismatch] != 1 {
		t.Errorf("Skipped[host_mismatch] = %d, want 1", sum.Skipped[SkipHostMismatch])
	}
	if sum.Skipped[SkipBadTimestamp] != 1 {
		t.Errorf("Skipped[bad_timestamp] = %d, want 1", sum.Skipped[SkipBadTimestamp])
	}
	if sum.Hosts["ads.example"] != 3 || sum.Hosts["other.example"] != 1 {
		t.Errorf("Hosts = %v, want ads.example:3 other.example:1", sum.Hosts)
	}

	wantFirst := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	wantLast := time.Date(2024, 1, 15, 10, 0, 4, 0, time.UTC)
	if !sum.First.Equal(wantFirst) || !sum.Last.Equal(wantLast) {
		t.Errorf("span = %v..%v, want %v..%v", sum.First, sum.Last, wantFirst, wantLast)
	}
}
