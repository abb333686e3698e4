package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ccollicutt/tracecheck/pkg/eventlog"
	"github.com/ccollicutt/tracecheck/pkg/validator"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

var (
	// ErrAlertsUnsupported is returned when the driver cannot handle alerts.
	ErrAlertsUnsupported = errors.New("driver does not support alerts")

	// ErrScreenshotsUnsupported is returned when the driver cannot capture the screen.
	ErrScreenshotsUnsupported = errors.New("driver does not support screenshots")

	// ErrAlertTimeout is returned when no alert appears in time.
	ErrAlertTimeout = errors.New("alert did not appear")
)

// DefaultScreenshotDir is where screenshots are saved.
const DefaultScreenshotDir = "./screenshots"

// Session runs steps for one test and records them to a Sink.
type Session struct {
	name          string
	driver        Driver
	sink          eventlog.Sink
	screenshotDir string
	pollInterval  time.Duration
	now           func() time.Time
}

// New creates a session named after the test it runs.
func New(name string, driver Driver, sink eventlog.Sink) *Session {
	return &Session{
		name:          name,
		driver:        driver,
		sink:          sink,
		screenshotDir: DefaultScreenshotDir,
		pollInterval:  time.Second,
		now:           time.Now,
	}
}

// SetScreenshotDir changes where screenshots are saved.
func (s *Session) SetScreenshotDir(dir string) {
	s.screenshotDir = dir
}

// Name returns the test name.
func (s *Session) Name() string {
	return s.name
}

// Start records the test start with the capabilities the driver was
// created with. Callers should pass capabilities without credentials.
func (s *Session) Start(ctx context.Context, capabilities map[string]any) {
	s.sink.Record(ctx, eventlog.Event{Type: eventlog.TypeStart, Data: capabilities})
}

// Click finds the element at loc and clicks it.
func (s *Session) Click(ctx context.Context, loc Locator) error {
	el, err := s.find(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		s.fail(ctx, err, loc)
		return fmt.Errorf("clicking %s=%s: %w", loc.By, loc.Value, err)
	}
	s.sink.Record(ctx, eventlog.Event{Type: eventlog.TypeClick, Element: loc.element()})
	return nil
}

// SendKeys finds the element at loc and types text into it.
func (s *Session) SendKeys(ctx context.Context, loc Locator, text string) error {
	el, err := s.find(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.SendKeys(ctx, text); err != nil {
		s.fail(ctx, err, loc)
		return fmt.Errorf("sending keys to %s=%s: %w", loc.By, loc.Value, err)
	}
	s.sink.Record(ctx, eventlog.Event{Type: eventlog.TypeSendKeys, Data: text, Element: loc.element()})
	return nil
}

// AcceptAlert waits up to timeout for an alert and accepts it.
func (s *Session) AcceptAlert(ctx context.Context, timeout time.Duration) error {
	return s.alert(ctx, timeout, eventlog.TypeAcceptAlert, func(a AlertDriver) error {
		return a.AcceptAlert(ctx)
	})
}

// DismissAlert waits up to timeout for an alert and dismisses it.
func (s *Session) DismissAlert(ctx context.Context, timeout time.Duration) error {
	return s.alert(ctx, timeout, eventlog.TypeDismissAlert, func(a AlertDriver) error {
		return a.DismissAlert(ctx)
	})
}

// Screenshot saves a screenshot and returns its path.
func (s *Session) Screenshot(ctx context.Context) (string, error) {
	sd, ok := s.driver.(ScreenshotDriver)
	if !ok {
		return "", ErrScreenshotsUnsupported
	}
	if err := os.MkdirAll(s.screenshotDir, 0o750); err != nil {
		return "", fmt.Errorf("creating screenshot directory: %w", err)
	}

	path := filepath.Join(s.screenshotDir, fmt.Sprintf("%s-%d.png", s.name, s.now().UnixNano()))
	if err := sd.SaveScreenshot(ctx, path); err != nil {
		return "", fmt.Errorf("saving screenshot: %w", err)
	}
	s.sink.Record(ctx, eventlog.Event{Type: eventlog.TypeScreenshot, Screenshot: path})
	return path, nil
}

// ValidateTrace runs req against v and records the outcome as a
// validation event.
func (s *Session) ValidateTrace(ctx context.Context, v *validator.Validator, req validator.Request) (*validator.Result, error) {
	res, err := v.Validate(ctx, req)
	if err != nil {
		s.sink.Record(ctx, eventlog.Event{Type: eventlog.TypeError, Err: err})
		return nil, err
	}

	passed := res.Passed
	s.sink.Record(ctx, eventlog.Event{
		Type: eventlog.TypeValidation,
		Data: eventlog.ValidationData{
			Host:            v.Config().Host,
			URIContains:     req.URIContains,
			URINotContains:  req.URINotContains,
			BodyContains:    req.BodyContains,
			BodyNotContains: req.BodyNotContains,
			Passed:          &passed,
			Diagnostic:      res.Diagnostic,
			From:            res.Window.From.Format(window.TimestampLayout),
			To:              res.Window.To.Format(window.TimestampLayout),
		},
	})
	return res, nil
}

// Close records the test stop and quits the driver.
func (s *Session) Close(ctx context.Context) error {
	s.sink.Record(ctx, eventlog.Event{Type: eventlog.TypeStop})
	if s.driver == nil {
		return nil
	}
	return s.driver.Quit(ctx)
}

func (s *Session) find(ctx context.Context, loc Locator) (Element, error) {
	el, err := s.driver.FindElement(ctx, loc)
	if err != nil {
		s.fail(ctx, err, loc)
		return nil, fmt.Errorf("finding %s=%s: %w", loc.By, loc.Value, err)
	}
	return el, nil
}

func (s *Session) fail(ctx context.Context, err error, loc Locator) {
	s.sink.Record(ctx, eventlog.Event{Type: eventlog.TypeError, Element: loc.element(), Err: err})
}

func (s *Session) alert(ctx context.Context, timeout time.Duration, typ eventlog.Type, act func(AlertDriver) error) error {
	a, ok := s.driver.(AlertDriver)
	if !ok {
		return ErrAlertsUnsupported
	}

	deadline := s.now().Add(timeout)
	for {
		present, err := a.AlertPresent(ctx)
		if err != nil {
			return fmt.Errorf("checking for alert: %w", err)
		}
		if present {
			break
		}
		if s.now().After(deadline) {
			return fmt.Errorf("%w in %s", ErrAlertTimeout, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}

	if err := act(a); err != nil {
		return fmt.Errorf("%s: %w", typ, err)
	}
	s.sink.Record(ctx, eventlog.Event{Type: typ})
	return nil
}
