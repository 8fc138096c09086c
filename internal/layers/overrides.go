package layers

import "maps"

// Overrides is a sparse per-layer boolean map with a default.
// Keys without an explicit entry resolve to Default at read time.
type Overrides struct {
	Default  bool
	explicit map[Key]bool
}

func newOverrides(def bool) Overrides {
	return Overrides{Default: def, explicit: make(map[Key]bool)}
}

// Resolve returns the explicit entry for key, or Default.
func (o Overrides) Resolve(key Key) bool {
	if v, ok := o.explicit[key]; ok {
		return v
	}
	return o.Default
}

// Has reports whether key has an explicit entry.
func (o Overrides) Has(key Key) bool {
	_, ok := o.explicit[key]
	return ok
}

// Set writes an explicit entry.
func (o *Overrides) Set(key Key, v bool) {
	if o.explicit == nil {
		o.explicit = make(map[Key]bool)
	}
	o.explicit[key] = v
}

// Entries returns a copy of the explicit entries.
func (o Overrides) Entries() map[Key]bool {
	return maps.Clone(o.explicit)
}

// Len returns the number of explicit entries.
func (o Overrides) Len() int { return len(o.explicit) }

func (o Overrides) clone() Overrides {
	return Overrides{Default: o.Default, explicit: maps.Clone(o.explicit)}
}
