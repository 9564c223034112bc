package contact

import (
	"context"
	"sync"
)

// SubmitHandler reacts to a submit intent.
type SubmitHandler func(ctx context.Context)

// InputHandler reacts to a new value typed into a field.
type InputHandler func(value string)

// Bus is the event source a controller subscribes to.  Handlers run
// synchronously, in subscription order, on the dispatching goroutine.
type Bus struct {
	mu     sync.RWMutex
	submit []SubmitHandler
	input  map[Field][]InputHandler
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{input: make(map[Field][]InputHandler)}
}

// OnSubmit subscribes h to submit events.
func (b *Bus) OnSubmit(h SubmitHandler) {
	b.mu.Lock()
	b.submit = append(b.submit, h)
	b.mu.Unlock()
}

// OnInput subscribes h to input events on f.
func (b *Bus) OnInput(f Field, h InputHandler) {
	b.mu.Lock()
	b.input[f] = append(b.input[f], h)
	b.mu.Unlock()
}

// DispatchSubmit delivers a submit event.
func (b *Bus) DispatchSubmit(ctx context.Context) {
	b.mu.RLock()
	hs := append([]SubmitHandler(nil), b.submit...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(ctx)
	}
}

// DispatchInput delivers an input event for f carrying value.
func (b *Bus) DispatchInput(f Field, value string) {
	b.mu.RLock()
	hs := append([]InputHandler(nil), b.input[f]...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(value)
	}
}
