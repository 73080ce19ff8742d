package session

import (
	"context"
	"sync"
)

// Host owns the live session of one client. Opening a session fully tears
// down the previous one first, so two sessions never hold a call at once.
type Host struct {
	mu      sync.Mutex
	current *Synchronizer
}

func NewHost() *Host {
	return &Host{}
}

// Open starts a session from cfg. ctx bounds the lifetime of the session.
func (h *Host) Open(ctx context.Context, cfg Config) (*Synchronizer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.closeLocked(ctx); err != nil {
		return nil, err
	}

	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	h.current = s
	return s, nil
}

// Current returns the live session, or nil.
func (h *Host) Current() *Synchronizer {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return nil
	}
	select {
	case <-h.current.Done():
		h.current = nil
	default:
	}
	return h.current
}

func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeLocked(ctx)
}

func (h *Host) closeLocked(ctx context.Context) error {
	if h.current == nil {
		return nil
	}
	if err := h.current.Leave(ctx); err != nil {
		return err
	}
	h.current = nil
	return nil
}
