package loader

import (
	"sync"

	"github.com/agentstation/plantmap/pkg/catalog"
)

// Hook function types for loader events.
type (
	// StateChangeHook is called with a copy of the state after every transition.
	StateChangeHook func(state State)

	// PageLoadedHook is called when a non-empty page has been merged.
	PageLoadedHook func(page int, entries []catalog.Entry)

	// ErrorHook is called when a fetch fails.
	ErrorHook func(err error)
)

// hooks manages observer callbacks. Callbacks run on the goroutine that
// caused the transition, never under the loader lock.
type hooks struct {
	mu            sync.RWMutex
	onStateChange []StateChangeHook
	onPageLoaded  []PageLoadedHook
	onError       []ErrorHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnStateChange registers a callback for state transitions.
func (l *Loader) OnStateChange(fn StateChangeHook) {
	l.hooks.mu.Lock()
	defer l.hooks.mu.Unlock()
	l.hooks.onStateChange = append(l.hooks.onStateChange, fn)
}

// OnPageLoaded registers a callback for merged pages.
func (l *Loader) OnPageLoaded(fn PageLoadedHook) {
	l.hooks.mu.Lock()
	defer l.hooks.mu.Unlock()
	l.hooks.onPageLoaded = append(l.hooks.onPageLoaded, fn)
}

// OnError registers a callback for fetch failures.
func (l *Loader) OnError(fn ErrorHook) {
	l.hooks.mu.Lock()
	defer l.hooks.mu.Unlock()
	l.hooks.onError = append(l.hooks.onError, fn)
}

func (h *hooks) observingState() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.onStateChange) > 0
}

func (h *hooks) stateChanged(state State) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onStateChange {
		fn(state)
	}
}

func (h *hooks) pageLoaded(page int, entries []catalog.Entry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onPageLoaded {
		fn(page, entries)
	}
}

func (h *hooks) failed(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onError {
		fn(err)
	}
}
