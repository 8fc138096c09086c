package viewer

import (
	"fmt"
	"sync"
)

// PageRef identifies one page of one document. Page is 1-based.
type PageRef struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Page       int    `json:"page" yaml:"page"`
}

// Valid reports whether the ref names a document and a page number.
func (r PageRef) Valid() bool {
	return r.DocumentID != "" && r.Page >= 1
}

func (r PageRef) String() string {
	return fmt.Sprintf("%s#%d", r.DocumentID, r.Page)
}

// Ticket tags one page request. Only the most recently issued ticket is
// current.
type Ticket struct {
	Ref PageRef
	seq uint64
}

// Tracker hands out tickets so that the last request wins, whatever order the
// responses arrive in.
type Tracker struct {
	mu  sync.Mutex
	seq uint64
}

// Begin issues a ticket for ref, superseding every earlier ticket.
func (t *Tracker) Begin(ref PageRef) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	return Ticket{Ref: ref, seq: t.seq}
}

// Current reports whether tk is still the latest ticket.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tk.seq == t.seq
}
