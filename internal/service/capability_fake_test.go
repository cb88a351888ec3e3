package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"famledger/internal/capability"
	"famledger/models"
)

// memHandle is an in-memory capability.Handle with an adjustable scope, so
// tests can revoke and re-grant access without touching a filesystem.
type memHandle struct {
	mu          sync.Mutex
	displayName string
	data        []byte
	scope       models.Scope
	grantNext   bool
	writes      int
	failWrites  int
}

func (h *memHandle) DisplayName() string { return h.displayName }

func (h *memHandle) Read(ctx context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.scope.AllowsRead() {
		return nil, capability.ErrNoScope
	}
	out := make([]byte, len(h.data))
	copy(out, h.data)
	return out, nil
}

func (h *memHandle) Write(ctx context.Context, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.scope.AllowsWrite() {
		return capability.ErrNoScope
	}
	if h.failWrites > 0 {
		h.failWrites--
		return errors.New("device busy")
	}
	h.data = make([]byte, len(data))
	copy(h.data, data)
	h.writes++
	return nil
}

func (h *memHandle) CurrentScope() models.Scope {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scope
}

func (h *memHandle) RequestScope(ctx context.Context, desired models.Scope) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.grantNext {
		return false, nil
	}
	h.scope = desired
	return true, nil
}

func (h *memHandle) setScope(s models.Scope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scope = s
}

func (h *memHandle) contents() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]byte, len(h.data))
	copy(out, h.data)
	return out
}

func (h *memHandle) writeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writes
}

// memProvider keeps handles by location so a capability persisted in one
// session can be restored in the next.
type memProvider struct {
	mu        sync.Mutex
	supported bool
	handles   map[string]*memHandle
	nextID    int
}

func newMemProvider() *memProvider {
	return &memProvider{supported: true, handles: make(map[string]*memHandle)}
}

func (p *memProvider) Kind() string { return "mem" }

func (p *memProvider) Supported() bool { return p.supported }

func (p *memProvider) Restore(cap models.Capability) (capability.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.handles[cap.Location]
	if !ok {
		return nil, fmt.Errorf("restore capability: unknown location %q", cap.Location)
	}
	return h, nil
}

func (p *memProvider) Pick(ctx context.Context, req capability.PickRequest) (capability.Handle, models.Capability, error) {
	if req.Location == "" {
		return nil, models.Capability{}, capability.ErrCancelled
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.handles[req.Location]
	if !ok {
		h = &memHandle{displayName: req.Location, scope: models.ScopeReadWrite, grantNext: true}
		p.handles[req.Location] = h
	}

	p.nextID++
	descriptor := models.Capability{
		ID:          fmt.Sprintf("mem-%d", p.nextID),
		Kind:        "mem",
		Location:    req.Location,
		DisplayName: req.Location,
		Scope:       h.CurrentScope(),
		GrantedAt:   time.Now().UTC(),
	}
	return h, descriptor, nil
}

func (p *memProvider) handle(location string) *memHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handles[location]
}
