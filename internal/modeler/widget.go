// Package modeler bridges server-side diagram updates into the browser's
// BPMN editor widget. The widget initializes asynchronously after page mount
// and connects back over a WebSocket; all mutation of it funnels through the
// Bridge.
package modeler

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotReady is returned when no editor widget is connected and ready for
// the user. Callers may retry after a short delay; the Bridge already does
// one such retry itself.
var ErrNotReady = errors.New("modeler widget not ready")

// ImportError reports that the widget rejected a diagram document.
type ImportError struct {
	Reason string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("widget rejected diagram: %s", e.Reason)
}

// Widget is the capability interface of one connected diagram editor.
type Widget interface {
	// ImportXML replaces the widget's document with xml. A rejection
	// (malformed XML, unknown element types) surfaces as *ImportError.
	ImportXML(ctx context.Context, xml string) error

	// SaveXML exports the widget's current document.
	SaveXML(ctx context.Context) (string, error)

	// FitViewport asks the widget to re-fit its viewport to the content.
	// Purely cosmetic; failures are ignored by callers.
	FitViewport(ctx context.Context) error

	// Ready reports whether the widget can accept commands.
	Ready() bool
}

// Events are pushed by the widget as the user edits the diagram by hand.
type Events interface {
	// OnSelectionChanged is invoked with the selected element id.
	OnSelectionChanged(fn func(elementID string))

	// OnModelChanged is invoked with the exported XML after each edit.
	OnModelChanged(fn func(xml string))
}
