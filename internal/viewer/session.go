// Package viewer composes layer state and coordinate mapping into a page
// viewing session: which page is selected, which layers are drawn, and the
// overlay plan that results.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackzampolin/layerscope/internal/docapi"
	"github.com/jackzampolin/layerscope/internal/geometry"
	"github.com/jackzampolin/layerscope/internal/layers"
)

// ErrStaleResponse is returned by Load when a newer page request was issued
// while this one was in flight. The response was discarded.
var ErrStaleResponse = errors.New("page response superseded by a newer request")

// Fetcher loads page bundles. *docapi.Client satisfies it.
type Fetcher interface {
	GetPageBundle(ctx context.Context, documentID string, page int) (*docapi.PageBundle, error)
}

// Options configures page geometry defaults for a session.
type Options struct {
	DefaultPageWidth  float64
	DefaultPageHeight float64
	MarkerInset       float64
	MarkerSize        float64

	// Now is used for idle tracking; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns US Letter page defaults and the standard marker
// geometry.
func DefaultOptions() Options {
	return Options{
		DefaultPageWidth:  612,
		DefaultPageHeight: 792,
		MarkerInset:       geometry.DefaultMarkerInset,
		MarkerSize:        geometry.DefaultMarkerSize,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DefaultPageWidth <= 0 {
		o.DefaultPageWidth = def.DefaultPageWidth
	}
	if o.DefaultPageHeight <= 0 {
		o.DefaultPageHeight = def.DefaultPageHeight
	}
	if o.MarkerInset <= 0 {
		o.MarkerInset = def.MarkerInset
	}
	if o.MarkerSize <= 0 {
		o.MarkerSize = def.MarkerSize
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session is one viewer: a selected page, its bundle and the layer state the
// user has built up. Safe for concurrent use.
type Session struct {
	id   string
	opts Options

	tracker Tracker

	mu          sync.Mutex
	store       *layers.Store
	bundle      *docapi.PageBundle
	loaded      PageRef
	requested   PageRef
	pending     bool
	loadErr     string
	showMarkers bool
	created     time.Time
	lastUsed    time.Time
}

// NewSession returns an empty session. Nothing is loaded until Load.
func NewSession(id string, opts Options) *Session {
	opts = opts.withDefaults()
	now := opts.Now()
	return &Session{
		id:       id,
		opts:     opts,
		store:    layers.NewStore(),
		created:  now,
		lastUsed: now,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Load fetches the bundle for ref and makes it current. The fetch runs
// without holding the session lock; if another Load started in the meantime,
// the result is dropped and ErrStaleResponse returned.
//
// Overrides carry over between pages of the same document. Switching to a
// different document starts from a fresh layer state.
func (s *Session) Load(ctx context.Context, f Fetcher, ref PageRef) error {
	if !ref.Valid() {
		return fmt.Errorf("invalid page reference %q", ref)
	}

	s.mu.Lock()
	ticket := s.tracker.Begin(ref)
	s.requested = ref
	s.pending = true
	s.loadErr = ""
	s.lastUsed = s.opts.Now()
	s.mu.Unlock()

	bundle, err := f.GetPageBundle(ctx, ref.DocumentID, ref.Page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tracker.Current(ticket) {
		return ErrStaleResponse
	}
	s.pending = false
	if err != nil {
		s.loadErr = err.Error()
		return fmt.Errorf("load %s: %w", ref, err)
	}

	if ref.DocumentID != s.loaded.DocumentID {
		s.store = layers.NewStore()
		s.showMarkers = false
	}
	s.bundle = bundle
	s.loaded = ref
	s.store.Initialize(bundle.Layers)
	return nil
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastUsed = s.opts.Now()
	s.mu.Unlock()
}

// IdleSince returns the last time the session was used.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// update runs fn against the store under the lock.
func (s *Session) update(fn func(st *layers.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
	s.lastUsed = s.opts.Now()
}

func (s *Session) ToggleAllLayers() { s.update((*layers.Store).ToggleAllLayers) }
func (s *Session) ToggleOutlining() { s.update((*layers.Store).ToggleOutlining) }

func (s *Session) ToggleLayerVisibility(zIndex int) {
	s.update(func(st *layers.Store) { st.ToggleLayerVisibility(zIndex) })
}

func (s *Session) ToggleLayerOutlining(zIndex int) {
	s.update(func(st *layers.Store) { st.ToggleLayerOutlining(zIndex) })
}

// ToggleMarkers flips whether zero-area markers are drawn.
func (s *Session) ToggleMarkers() {
	s.update(func(*layers.Store) { s.showMarkers = !s.showMarkers })
}

// Reset restores every layer to visible, outlining off and markers hidden.
func (s *Session) Reset() {
	s.update(func(st *layers.Store) {
		st.Reset()
		s.showMarkers = false
	})
}

// State is a point-in-time view of a session.
type State struct {
	ID                  string             `json:"id" yaml:"id"`
	DocumentID          string             `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	Page                int                `json:"page,omitempty" yaml:"page,omitempty"`
	Requested           PageRef            `json:"requested" yaml:"requested"`
	Loading             bool               `json:"loading" yaml:"loading"`
	Error               string             `json:"error,omitempty" yaml:"error,omitempty"`
	ShowZeroAreaMarkers bool               `json:"show_zero_area_markers" yaml:"show_zero_area_markers"`
	Layers              []layers.LayerView `json:"layers" yaml:"layers"`
	Flags               layers.Snapshot    `json:"flags" yaml:"flags"`
	CreatedAt           time.Time          `json:"created_at" yaml:"created_at"`
	LastUsed            time.Time          `json:"last_used" yaml:"last_used"`
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:                  s.id,
		DocumentID:          s.loaded.DocumentID,
		Page:                s.loaded.Page,
		Requested:           s.requested,
		Loading:             s.pending,
		Error:               s.loadErr,
		ShowZeroAreaMarkers: s.showMarkers,
		Layers:              s.store.Derive(),
		Flags:               s.store.Snapshot(),
		CreatedAt:           s.created,
		LastUsed:            s.lastUsed,
	}
}

// Plan builds the render plan for the loaded page.
func (s *Session) Plan() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildPlan(PlanInput{
		Ref:         s.loaded,
		Bundle:      s.bundle,
		Store:       s.store,
		ShowMarkers: s.showMarkers,
		Options:     s.opts,
	})
}
