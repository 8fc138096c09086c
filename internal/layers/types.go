package layers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackzampolin/layerscope/internal/geometry"
)

// Type tags the kind of structural objects a layer holds.
type Type string

const (
	TypeText       Type = "text"
	TypeImage      Type = "image"
	TypePath       Type = "path"
	TypeForm       Type = "form"
	TypeAnnotation Type = "annotation"
	TypeUnknown    Type = "unknown"
)

// ParseType maps a backend type string onto a known Type.
// Unrecognised strings become TypeUnknown.
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeText, TypeImage, TypePath, TypeForm, TypeAnnotation:
		return t
	default:
		return TypeUnknown
	}
}

// UnmarshalJSON normalises the type while decoding.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("layer type: %w", err)
	}
	*t = ParseType(s)
	return nil
}

// ObjectID is a structural object id. The backend sends either strings or
// numbers; both decode to their textual form.
type ObjectID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ObjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ObjectID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("object id must be a string or number: %w", err)
	}
	*id = ObjectID(n.String())
	return nil
}

// Coords is an object's raw bbox list. Decoding never fails: a bbox that is
// not an array, or that holds anything other than numbers, decodes to nil so
// the object is skipped at render time instead of failing the whole page.
type Coords []float64

// UnmarshalJSON decodes a coordinate list leniently.
func (c *Coords) UnmarshalJSON(data []byte) error {
	*c = nil
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil
	}
	out := make(Coords, 0, len(raw))
	for _, elem := range raw {
		v, ok := elem.(float64)
		if !ok {
			return nil
		}
		out = append(out, v)
	}
	*c = out
	return nil
}

// Object is a structural primitive on a page.
type Object struct {
	ID   ObjectID `json:"id" yaml:"id"`
	Type string   `json:"type,omitempty" yaml:"type,omitempty"`
	BBox Coords   `json:"bbox" yaml:"bbox"`
}

// EffectiveType returns the object's own type, falling back to the layer's.
func (o Object) EffectiveType(layerType Type) string {
	if o.Type != "" {
		return o.Type
	}
	return string(layerType)
}

// Box parses the object's bbox. It returns false for anything that is not a
// four-value tuple of finite numbers, including bboxes that failed to decode.
func (o Object) Box() (geometry.BBox, bool) {
	return geometry.ParseBBox(o.BBox)
}

// Layer is one z-ordered group of objects from a page bundle.
type Layer struct {
	ZIndex      int      `json:"z_index" yaml:"z_index"`
	Type        Type     `json:"type" yaml:"type"`
	ObjectCount int      `json:"object_count" yaml:"object_count"`
	ImageURL    string   `json:"url,omitempty" yaml:"url,omitempty"`
	Objects     []Object `json:"objects,omitempty" yaml:"objects,omitempty"`
}

// Key is the map key used for a layer's override entries.
type Key string

// KeyFor returns the override key for a zIndex.
func KeyFor(zIndex int) Key {
	return Key("layer_" + strconv.Itoa(zIndex))
}

// Key returns the layer's override key.
func (l Layer) Key() Key { return KeyFor(l.ZIndex) }

// SortedObjects returns the layer's objects in draw order (by id, numeric
// when possible). The layer itself is not modified.
func (l Layer) SortedObjects() []Object {
	out := slices.Clone(l.Objects)
	slices.SortStableFunc(out, func(a, b Object) int {
		return geometry.CompareIDs(string(a.ID), string(b.ID))
	})
	return out
}
