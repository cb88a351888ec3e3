package crypto

import "sync"

// SessionKeyCache holds the user's sync-file password in volatile memory for
// the current session, so repeated debounced saves do not re-prompt. It is
// strictly opt-in ("remember password for this session"), is never written to
// any store, and is wiped on Clear (session end or disconnect).
type SessionKeyCache struct {
	mu       sync.Mutex
	password string
	set      bool
}

// NewSessionKeyCache returns an empty cache.
func NewSessionKeyCache() *SessionKeyCache {
	return &SessionKeyCache{}
}

// Remember stores password until Clear is called.
func (c *SessionKeyCache) Remember(password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.password = password
	c.set = true
}

// Lookup returns the remembered password and whether one is set.
func (c *SessionKeyCache) Lookup() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.password, c.set
}

// Clear wipes the cached password.
func (c *SessionKeyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.password = ""
	c.set = false
}
