package eventlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Logger writes events as JSON lines. Each line carries the run ID and the
// test name, so logs from several runs can share a file.
type Logger struct {
	logger *slog.Logger
	closer io.Closer
	runID  string
	test   string
}

// New creates a Logger writing to w.
func New(w io.Writer, test string) *Logger {
	runID := uuid.NewString()
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{
		logger: slog.New(handler).With("run_id", runID, "test", test),
		runID:  runID,
		test:   test,
	}
}

// Open creates a Logger appending to <dir>/<test>.log, creating dir if needed.
func Open(dir, test string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}

	path := filepath.Join(dir, test+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- path built from configured dir
	if err != nil {
		return nil, fmt.Errorf("opening event log %s: %w", path, err)
	}

	l := New(f, test)
	l.closer = f
	return l, nil
}

// RunID returns the ID attached to every event of this logger.
func (l *Logger) RunID() string {
	return l.runID
}

// Test returns the test name.
func (l *Logger) Test() string {
	return l.test
}

// Close closes the underlying file when the logger was opened with Open.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Record implements Sink.
func (l *Logger) Record(ctx context.Context, e Event) {
	eventAttrs := []any{slog.String("type", string(e.Type))}
	if e.Data != nil {
		eventAttrs = append(eventAttrs, slog.Any("data", e.Data))
	}

	attrs := []slog.Attr{slog.Group("event", eventAttrs...)}
	if len(e.Element) > 0 {
		attrs = append(attrs, slog.Any("element", e.Element))
	}
	if e.Screenshot != "" {
		attrs = append(attrs, slog.String("screenshot", e.Screenshot))
	}

	level := slog.LevelInfo
	if e.Err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.Group("error", slog.String("message", e.Err.Error())))
	}

	l.logger.LogAttrs(ctx, level, string(e.Type), attrs...)
}

// Start records the start of a test with its capabilities.
func (l *Logger) Start(ctx context.Context, data any) {
	l.Record(ctx, Event{Type: TypeStart, Data: data})
}

// Stop records the end of a test.
func (l *Logger) Stop(ctx context.Context) {
	l.Record(ctx, Event{Type: TypeStop})
}

// Click records a click on element.
func (l *Logger) Click(ctx context.Context, element map[string]string) {
	l.Record(ctx, Event{Type: TypeClick, Element: element})
}

// SendKeys records text typed into element.
func (l *Logger) SendKeys(ctx context.Context, text string, element map[string]string) {
	l.Record(ctx, Event{Type: TypeSendKeys, Data: text, Element: element})
}

// AcceptAlert records an accepted alert dialog.
func (l *Logger) AcceptAlert(ctx context.Context) {
	l.Record(ctx, Event{Type: TypeAcceptAlert})
}

// DismissAlert records a dismissed alert dialog.
func (l *Logger) DismissAlert(ctx context.Context) {
	l.Record(ctx, Event{Type: TypeDismissAlert})
}

// Screenshot records a screenshot saved at path.
func (l *Logger) Screenshot(ctx context.Context, path string) {
	l.Record(ctx, Event{Type: TypeScreenshot, Screenshot: path})
}

// ValidateTCP records a trace validation to be checked after the run.
func (l *Logger) ValidateTCP(ctx context.Context, host string, uriContains []string, screenshot string) {
	l.Validation(ctx, ValidationData{Host: host, URIContains: uriContains}, screenshot)
}

// Validation records a trace validation, checked or pending.
func (l *Logger) Validation(ctx context.Context, data ValidationData, screenshot string) {
	l.Record(ctx, Event{Type: TypeValidation, Data: data, Screenshot: screenshot})
}

// Error records a failure, optionally tied to an element.
func (l *Logger) Error(ctx context.Context, err error, element map[string]string) {
	l.Record(ctx, Event{Type: TypeError, Element: element, Err: err})
}
