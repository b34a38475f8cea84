package app

import (
	"fmt"
	"slices"
	"sync"
)

// LoopbackHost is an in-process host. It accepts one subscription per
// hook point and delivers events when Fire is called.
type LoopbackHost struct {
	mu    sync.Mutex
	subs  map[string]func(args ...any)
	order []string
}

// NewLoopbackHost creates an empty loopback host.
func NewLoopbackHost() *LoopbackHost {
	return &LoopbackHost{subs: make(map[string]func(args ...any))}
}

// Subscribe implements hook.Host.
func (h *LoopbackHost) Subscribe(point string, fn func(args ...any)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[point]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, point)
	}
	h.subs[point] = fn
	h.order = append(h.order, point)
	return nil
}

// Fire delivers an event to the point's subscriber. It reports false when
// nothing is subscribed.
func (h *LoopbackHost) Fire(point string, args ...any) bool {
	h.mu.Lock()
	fn := h.subs[point]
	h.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(args...)
	return true
}

// Points returns the subscribed points in subscription order.
func (h *LoopbackHost) Points() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.order)
}
