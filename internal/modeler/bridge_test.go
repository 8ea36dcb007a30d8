package modeler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeWidget struct {
	ready     atomic.Bool
	importErr error
	fitErr    error
	imported  atomic.Int64
	lastXML   string
	savedXML  string
}

func (f *fakeWidget) ImportXML(_ context.Context, xml string) error {
	f.imported.Add(1)
	f.lastXML = xml
	return f.importErr
}

func (f *fakeWidget) SaveXML(_ context.Context) (string, error) {
	return f.savedXML, nil
}

func (f *fakeWidget) FitViewport(_ context.Context) error {
	return f.fitErr
}

func (f *fakeWidget) Ready() bool {
	return f.ready.Load()
}

func TestBridgeApply(t *testing.T) {
	hub := NewHub()
	w := &fakeWidget{}
	w.ready.Store(true)
	hub.Register("u1", w)

	b := NewBridgeWithRetryDelay(hub, time.Millisecond)
	if err := b.Apply(context.Background(), "u1", "<xml/>"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if w.imported.Load() != 1 {
		t.Errorf("Expected 1 import, got %d", w.imported.Load())
	}
	if w.lastXML != "<xml/>" {
		t.Errorf("Unexpected imported xml: %q", w.lastXML)
	}
}

func TestBridgeApplyNoWidget(t *testing.T) {
	b := NewBridgeWithRetryDelay(NewHub(), time.Millisecond)

	err := b.Apply(context.Background(), "u1", "<xml/>")
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady, got %v", err)
	}
}

func TestBridgeApplyRetriesOnceForLateWidget(t *testing.T) {
	hub := NewHub()
	w := &fakeWidget{}
	hub.Register("u1", w)

	// Widget becomes ready during the retry window.
	go func() {
		time.Sleep(5 * time.Millisecond)
		w.ready.Store(true)
	}()

	b := NewBridgeWithRetryDelay(hub, 50*time.Millisecond)
	if err := b.Apply(context.Background(), "u1", "<xml/>"); err != nil {
		t.Fatalf("Apply should succeed after retry: %v", err)
	}
}

func TestBridgeApplyImportError(t *testing.T) {
	hub := NewHub()
	w := &fakeWidget{importErr: &ImportError{Reason: "unparsable"}}
	w.ready.Store(true)
	hub.Register("u1", w)

	b := NewBridgeWithRetryDelay(hub, time.Millisecond)
	err := b.Apply(context.Background(), "u1", "bad")

	var importErr *ImportError
	if !errors.As(err, &importErr) {
		t.Fatalf("Expected ImportError, got %v", err)
	}
}

func TestBridgeApplyIgnoresFitFailure(t *testing.T) {
	hub := NewHub()
	w := &fakeWidget{fitErr: errors.New("no viewport")}
	w.ready.Store(true)
	hub.Register("u1", w)

	b := NewBridgeWithRetryDelay(hub, time.Millisecond)
	if err := b.Apply(context.Background(), "u1", "<xml/>"); err != nil {
		t.Errorf("Fit failure should not fail the apply: %v", err)
	}
}

func TestBridgeCurrentXML(t *testing.T) {
	hub := NewHub()
	w := &fakeWidget{savedXML: "<current/>"}
	w.ready.Store(true)
	hub.Register("u1", w)

	b := NewBridge(hub)
	xml, err := b.CurrentXML(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CurrentXML failed: %v", err)
	}
	if xml != "<current/>" {
		t.Errorf("Unexpected xml: %q", xml)
	}

	if _, err := b.CurrentXML(context.Background(), "nobody"); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady for unknown user, got %v", err)
	}
}

func TestHubReplaceAndStaleUnregister(t *testing.T) {
	hub := NewHub()
	first := &fakeWidget{}
	second := &fakeWidget{}

	hub.Register("u1", first)
	hub.Register("u1", second)

	// The first widget's deferred unregister must not evict its successor.
	hub.Unregister("u1", first)
	if hub.Get("u1") != second {
		t.Error("Stale unregister evicted the current widget")
	}

	hub.Unregister("u1", second)
	if hub.Get("u1") != nil {
		t.Error("Expected no widget after unregister")
	}
}
