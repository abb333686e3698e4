package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/valyala/fastjson"
)

// LoggedEvent is an event read back from a log.
type LoggedEvent struct {
	Time       time.Time
	Level      string
	Type       Type
	RunID      string
	Test       string
	Element    map[string]string
	Screenshot string
	Error      string

	// Data is the raw JSON of event.data, nil when absent.
	Data []byte

	// Line is the 1-based line number in the log.
	Line int
}

// Validation decodes Data of a validation event.
func (e *LoggedEvent) Validation() (*ValidationData, error) {
	if e.Type != TypeValidation {
		return nil, fmt.Errorf("line %d: event type %q is not %q", e.Line, e.Type, TypeValidation)
	}
	var data ValidationData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("line %d: decoding validation data: %w", e.Line, err)
	}
	return &data, nil
}

// Reader reads events from a log written by Logger.
type Reader struct {
	scanner *bufio.Scanner
	parser  fastjson.Parser
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line size
	return &Reader{scanner: scanner}
}

// Next returns the next event. It returns io.EOF after the last one.
// Blank lines are skipped.
func (r *Reader) Next() (*LoggedEvent, error) {
	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		v, err := r.parser.ParseBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return r.decode(v)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}
	return nil, io.EOF
}

func (r *Reader) decode(v *fastjson.Value) (*LoggedEvent, error) {
	e := &LoggedEvent{
		Level:      string(v.GetStringBytes("level")),
		Type:       Type(v.GetStringBytes("event", "type")),
		RunID:      string(v.GetStringBytes("run_id")),
		Test:       string(v.GetStringBytes("test")),
		Screenshot: string(v.GetStringBytes("screenshot")),
		Error:      string(v.GetStringBytes("error", "message")),
		Line:       r.line,
	}
	if e.Type == "" {
		return nil, fmt.Errorf("line %d: missing event.type", r.line)
	}

	if ts := v.GetStringBytes("time"); len(ts) > 0 {
		t, err := time.Parse(time.RFC3339Nano, string(ts))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid time: %w", r.line, err)
		}
		e.Time = t
	}

	if data := v.Get("event", "data"); data != nil {
		e.Data = data.MarshalTo(nil)
	}

	if obj := v.GetObject("element"); obj != nil {
		e.Element = make(map[string]string, obj.Len())
		obj.Visit(func(key []byte, val *fastjson.Value) {
			e.Element[string(key)] = string(val.GetStringBytes())
		})
	}

	return e, nil
}
