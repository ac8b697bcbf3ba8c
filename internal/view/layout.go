package view

import (
	"fmt"
	"sync"
)

// CompactWidth is the widest viewport still rendered in compact mode.
const CompactWidth = 768

// ResizeSource delivers viewport widths. Subscribe returns a release function
// that must be called exactly once.
type ResizeSource interface {
	SubscribeResize(fn func(width int)) (release func(), err error)
}

// WidthReporter is implemented by sources that already know the current
// width. Activate applies it so the layout is right before the first event.
type WidthReporter interface {
	CurrentWidth() (width int, ok bool)
}

// LayoutTracker derives the compact flag from resize events.
type LayoutTracker struct {
	compact  bool
	onChange func(compact bool)
	release  func()
}

// NewLayoutTracker creates a tracker. onChange may be nil.
func NewLayoutTracker(onChange func(compact bool)) *LayoutTracker {
	return &LayoutTracker{onChange: onChange}
}

// Compact reports the current layout flag. It is false until the first
// width is known.
func (t *LayoutTracker) Compact() bool {
	return t.compact
}

// Active reports whether the tracker holds a subscription.
func (t *LayoutTracker) Active() bool {
	return t.release != nil
}

// Activate subscribes to src, releasing any previous subscription first.
// A failed subscription leaves the tracker in its default layout.
func (t *LayoutTracker) Activate(src ResizeSource) error {
	t.Deactivate()
	if src == nil {
		return fmt.Errorf("layout: nil resize source")
	}
	release, err := src.SubscribeResize(t.Resize)
	if err != nil {
		t.compact = false
		return fmt.Errorf("layout: subscribe resize: %w", err)
	}
	t.release = release
	if wr, ok := src.(WidthReporter); ok {
		if width, known := wr.CurrentWidth(); known {
			t.Resize(width)
		}
	}
	return nil
}

// Deactivate releases the subscription. Safe to call when inactive.
func (t *LayoutTracker) Deactivate() {
	if t.release == nil {
		return
	}
	release := t.release
	t.release = nil
	release()
}

// Run activates against src for the duration of fn. The subscription is
// released on every exit path, including a panic in fn. An activation error
// does not prevent fn from running; it is returned when fn itself succeeds.
func (t *LayoutTracker) Run(src ResizeSource, fn func() error) error {
	activateErr := t.Activate(src)
	defer t.Deactivate()
	if err := fn(); err != nil {
		return err
	}
	return activateErr
}

// Resize recomputes the compact flag for width and notifies on a flip.
func (t *LayoutTracker) Resize(width int) {
	compact := width <= CompactWidth
	if compact == t.compact {
		return
	}
	t.compact = compact
	if t.onChange != nil {
		t.onChange(compact)
	}
}

// ResizeFeed is a ResizeSource fed by the caller, e.g. from terminal size
// messages. It is safe for concurrent use.
type ResizeFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(int)
	width  int
	known  bool
}

// NewResizeFeed creates an empty feed.
func NewResizeFeed() *ResizeFeed {
	return &ResizeFeed{subs: make(map[int]func(int))}
}

// SubscribeResize implements ResizeSource.
func (f *ResizeFeed) SubscribeResize(fn func(width int)) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("layout: nil resize handler")
	}
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}, nil
}

// Publish delivers width to every subscriber.
func (f *ResizeFeed) Publish(width int) {
	f.mu.Lock()
	f.width, f.known = width, true
	handlers := make([]func(int), 0, len(f.subs))
	for _, fn := range f.subs {
		handlers = append(handlers, fn)
	}
	f.mu.Unlock()
	for _, fn := range handlers {
		fn(width)
	}
}

// CurrentWidth returns the last published width.
func (f *ResizeFeed) CurrentWidth() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.known
}

// Subscribers returns the number of live subscriptions.
func (f *ResizeFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
