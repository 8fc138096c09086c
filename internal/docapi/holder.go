package docapi

import "sync/atomic"

// Holder publishes the current Client so it can be swapped when the backend
// configuration changes while requests are in flight.
type Holder struct {
	p atomic.Pointer[Client]
}

// NewHolder returns a holder for c (which may be nil).
func NewHolder(c *Client) *Holder {
	h := &Holder{}
	if c != nil {
		h.p.Store(c)
	}
	return h
}

// Load returns the current client, or nil before one is set.
func (h *Holder) Load() *Client {
	if h == nil {
		return nil
	}
	return h.p.Load()
}

// Store replaces the current client.
func (h *Holder) Store(c *Client) {
	h.p.Store(c)
}
