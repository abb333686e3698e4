// Package session runs UI automation steps against a remote driver and
// records each step in an event log.
package session

import (
	"context"
	"errors"
)

// ErrNoSuchElement is returned by drivers when a locator matches nothing.
var ErrNoSuchElement = errors.New("no such element")

// Locator strategies.
const (
	ByName  = "name"
	ByXPath = "xpath"
)

// Locator identifies a UI element.
type Locator struct {
	By    string
	Value string
}

// Name locates an element by its name attribute.
func Name(name string) Locator {
	return Locator{By: ByName, Value: name}
}

// XPath locates an element by an XPath expression.
func XPath(expr string) Locator {
	return Locator{By: ByXPath, Value: expr}
}

// element returns the locator in the form recorded in event logs.
func (l Locator) element() map[string]string {
	return map[string]string{l.By: l.Value}
}

// Element is a UI element returned by a Driver.
type Element interface {
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
}

// Driver is a remote browser or device automation session.
type Driver interface {
	FindElement(ctx context.Context, loc Locator) (Element, error)
	Quit(ctx context.Context) error
}

// AlertDriver is implemented by drivers that can handle alert dialogs.
type AlertDriver interface {
	AlertPresent(ctx context.Context) (bool, error)
	AcceptAlert(ctx context.Context) error
	DismissAlert(ctx context.Context) error
}

// ScreenshotDriver is implemented by drivers that can capture the screen.
type ScreenshotDriver interface {
	SaveScreenshot(ctx context.Context, path string) error
}
