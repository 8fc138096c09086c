// Package layers holds per-page layer visibility and outlining state.
//
// Both visibility and outlining are sparse override maps whose default doubles
// as the "all layers" summary. Every single-layer toggle first makes the map
// explicit for all known layers and then recomputes the summary, so flipping
// the summary never retroactively changes a sibling layer.
package layers

import "slices"

// Store is the layer state for one page view. It is not safe for concurrent
// use; callers that share a Store serialise access themselves.
type Store struct {
	visibility     Overrides
	outlining      Overrides
	outlineObjects bool

	// layers is the most recent layer list, in bundle order.
	layers []Layer
}

// NewStore returns a store with every layer visible and outlining off.
func NewStore() *Store {
	return &Store{
		visibility: newOverrides(true),
		outlining:  newOverrides(false),
	}
}

// Initialize adopts a new layer list. Layers whose key has no entry yet are
// seeded from the current defaults; existing entries are never overwritten, so
// overrides survive refetches that reuse the same zIndex.
//
// A new layer that starts hidden is never seeded as outlined.
func (s *Store) Initialize(layers []Layer) {
	s.layers = slices.Clone(layers)
	for _, l := range s.layers {
		key := l.Key()
		if !s.visibility.Has(key) {
			s.visibility.Set(key, s.visibility.Default)
		}
		if !s.outlining.Has(key) {
			s.outlining.Set(key, s.outlining.Default && s.visibility.Resolve(key))
		}
	}
}

// ToggleAllLayers flips the all-layers flag and applies it to every known
// layer. Hiding everything while outlining is on also clears every outline.
func (s *Store) ToggleAllLayers() {
	visible := !s.visibility.Default
	s.visibility.Default = visible
	for _, l := range s.layers {
		s.visibility.Set(l.Key(), visible)
	}

	if !visible && s.outlineObjects {
		s.outlining.Default = false
		for _, l := range s.layers {
			s.outlining.Set(l.Key(), false)
		}
	}
}

// ToggleLayerVisibility flips one layer's visibility and recomputes the
// all-layers summary. Hiding an outlined layer clears its outline. Unknown
// zIndex values just gain an entry.
func (s *Store) ToggleLayerVisibility(zIndex int) {
	key := KeyFor(zIndex)
	wasVisible := s.visibility.Resolve(key)
	wasOutlined := s.outlining.Resolve(key)

	s.visibility.Set(key, !wasVisible)
	s.backfill(&s.visibility, key)
	s.visibility.Default = s.allVisible()

	if wasVisible && wasOutlined {
		s.outlining.Set(key, false)
		s.backfill(&s.outlining, key)
		s.outlining.Default = s.allVisibleOutlined()
	}
}

// ToggleOutlining flips the global outline gate. Turning it on outlines
// exactly the layers that are currently visible; turning it off leaves the
// per-layer entries in place for the next time.
func (s *Store) ToggleOutlining() {
	s.outlineObjects = !s.outlineObjects
	if !s.outlineObjects {
		return
	}

	s.outlining.Default = true
	for _, l := range s.layers {
		key := l.Key()
		s.outlining.Set(key, s.visibility.Resolve(key))
	}
}

// ToggleLayerOutlining flips one layer's outline. Hidden layers are ignored.
// If the global gate is off it is switched on first, dropping any outline
// entry left on a layer that was hidden while the gate was off.
func (s *Store) ToggleLayerOutlining(zIndex int) {
	key := KeyFor(zIndex)
	if !s.visibility.Resolve(key) {
		return
	}
	if !s.outlineObjects {
		s.outlineObjects = true
		for _, l := range s.layers {
			k := l.Key()
			if !s.visibility.Resolve(k) && s.outlining.Resolve(k) {
				s.outlining.Set(k, false)
			}
		}
	}

	s.outlining.Set(key, !s.outlining.Resolve(key))
	s.backfill(&s.outlining, key)
	s.outlining.Default = s.allVisibleOutlined()
}

// Reset returns to the initial state (all visible, outlining off) for the
// current layer list.
func (s *Store) Reset() {
	s.visibility = newOverrides(true)
	s.outlining = newOverrides(false)
	s.outlineObjects = false
	s.Initialize(s.layers)
}

// backfill gives every known layer other than skip an explicit entry equal to
// its current effective value. It must run before the default changes.
func (s *Store) backfill(o *Overrides, skip Key) {
	for _, l := range s.layers {
		key := l.Key()
		if key != skip && !o.Has(key) {
			o.Set(key, o.Default)
		}
	}
}

func (s *Store) allVisible() bool {
	for _, l := range s.layers {
		if !s.visibility.Resolve(l.Key()) {
			return false
		}
	}
	return true
}

// allVisibleOutlined is the outline consensus. Hidden layers are skipped
// rather than counted as not outlined.
func (s *Store) allVisibleOutlined() bool {
	for _, l := range s.layers {
		key := l.Key()
		if !s.visibility.Resolve(key) {
			continue
		}
		if !s.outlining.Resolve(key) {
			return false
		}
	}
	return true
}

// AllVisible returns the all-layers visibility summary.
func (s *Store) AllVisible() bool { return s.visibility.Default }

// AllOutlined returns the all-layers outline summary.
func (s *Store) AllOutlined() bool { return s.outlining.Default }

// OutlineObjects returns the global outline gate.
func (s *Store) OutlineObjects() bool { return s.outlineObjects }

// Visible returns a layer's resolved visibility.
func (s *Store) Visible(zIndex int) bool {
	return s.visibility.Resolve(KeyFor(zIndex))
}

// Outlined returns whether a layer's outlines are drawn: the global gate and
// the layer's resolved outline entry must both be on.
func (s *Store) Outlined(zIndex int) bool {
	return s.outlineObjects && s.outlining.Resolve(KeyFor(zIndex))
}

// Layers returns the known layers in bundle order.
func (s *Store) Layers() []Layer {
	return slices.Clone(s.layers)
}
