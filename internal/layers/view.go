package layers

// LayerView is the fully resolved state of one layer, ready for rendering.
type LayerView struct {
	ZIndex      int    `json:"z_index" yaml:"z_index"`
	Type        Type   `json:"type" yaml:"type"`
	ObjectCount int    `json:"object_count" yaml:"object_count"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Visible     bool   `json:"visible" yaml:"visible"`
	Outlined    bool   `json:"outlined" yaml:"outlined"`
}

// Derive resolves every known layer, in the order the layers arrived.
func (s *Store) Derive() []LayerView {
	views := make([]LayerView, 0, len(s.layers))
	for _, l := range s.layers {
		views = append(views, LayerView{
			ZIndex:      l.ZIndex,
			Type:        l.Type,
			ObjectCount: l.ObjectCount,
			URL:         l.ImageURL,
			Visible:     s.Visible(l.ZIndex),
			Outlined:    s.Outlined(l.ZIndex),
		})
	}
	return views
}

// Snapshot is a serialisable copy of the store's maps and flags.
type Snapshot struct {
	AllLayers      bool            `json:"all_layers" yaml:"all_layers"`
	AllOutlined    bool            `json:"all_outlined" yaml:"all_outlined"`
	OutlineObjects bool            `json:"outline_objects" yaml:"outline_objects"`
	Visibility     map[string]bool `json:"visibility" yaml:"visibility"`
	Outlining      map[string]bool `json:"outlining" yaml:"outlining"`
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		AllLayers:      s.visibility.Default,
		AllOutlined:    s.outlining.Default,
		OutlineObjects: s.outlineObjects,
		Visibility:     stringKeys(s.visibility.Entries()),
		Outlining:      stringKeys(s.outlining.Entries()),
	}
}

func stringKeys(m map[Key]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
