package viewer

import (
	"slices"

	"github.com/jackzampolin/layerscope/internal/docapi"
	"github.com/jackzampolin/layerscope/internal/geometry"
	"github.com/jackzampolin/layerscope/internal/layers"
)

// Mode selects how the page image is drawn.
type Mode string

const (
	// ModeFullRaster draws the single pre-rendered page image.
	ModeFullRaster Mode = "full_raster"
	// ModeLayers stacks the per-layer images of visible layers.
	ModeLayers Mode = "layers"
)

// AnomalyZeroArea is the anomaly type for zero-area objects.
const AnomalyZeroArea = "zero-area"

// maxAnomalyExamples is how many object ids an anomaly summary lists.
const maxAnomalyExamples = 2

// ViewBox is the overlay coordinate space, equal to the page size in points.
type ViewBox struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// RasterLayer is one layer image to draw, bottom to top.
type RasterLayer struct {
	ZIndex int         `json:"z_index" yaml:"z_index"`
	Type   layers.Type `json:"type" yaml:"type"`
	URL    string      `json:"url" yaml:"url"`
}

// Outline is one object rectangle drawn over the page.
type Outline struct {
	ZIndex   int           `json:"z_index" yaml:"z_index"`
	ObjectID string        `json:"object_id" yaml:"object_id"`
	Type     string        `json:"type" yaml:"type"`
	Color    string        `json:"color" yaml:"color"`
	Rect     geometry.Rect `json:"rect" yaml:"rect"`
}

// ZeroAreaObject is an object whose box collapsed to a line or point.
// ZIndex is nil for objects the backend reported without a layer.
type ZeroAreaObject struct {
	ObjectID string                  `json:"object_id" yaml:"object_id"`
	Type     string                  `json:"type,omitempty" yaml:"type,omitempty"`
	ZIndex   *int                    `json:"z_index,omitempty" yaml:"z_index,omitempty"`
	BBox     geometry.BBox           `json:"bbox" yaml:"bbox"`
	Kind     geometry.DegenerateKind `json:"kind" yaml:"kind"`
}

// AnomalySummary counts one kind of anomaly on the page.
type AnomalySummary struct {
	Type     string   `json:"type" yaml:"type"`
	Count    int      `json:"count" yaml:"count"`
	Examples []string `json:"examples" yaml:"examples"`
	// More is set when Examples does not list every object.
	More bool `json:"more" yaml:"more"`
}

// MarkerPlacement is a zero-area marker ready to draw.
type MarkerPlacement struct {
	ObjectID string          `json:"object_id" yaml:"object_id"`
	Marker   geometry.Marker `json:"marker" yaml:"marker"`
	Glyph    string          `json:"glyph" yaml:"glyph"`
	Size     float64         `json:"size" yaml:"size"`
}

// Plan is everything needed to draw one page: which images to stack and
// which vector overlays to put on top.
type Plan struct {
	Loaded          bool               `json:"loaded" yaml:"loaded"`
	DocumentID      string             `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	Page            int                `json:"page,omitempty" yaml:"page,omitempty"`
	ViewBox         ViewBox            `json:"view_box" yaml:"view_box"`
	Mode            Mode               `json:"mode" yaml:"mode"`
	FullRasterURL   string             `json:"full_raster_url,omitempty" yaml:"full_raster_url,omitempty"`
	Layers          []RasterLayer      `json:"layers" yaml:"layers"`
	NoVisibleLayers bool               `json:"no_visible_layers" yaml:"no_visible_layers"`
	LayerViews      []layers.LayerView `json:"layer_views" yaml:"layer_views"`
	Outlines        []Outline          `json:"outlines" yaml:"outlines"`
	ZeroArea        []ZeroAreaObject   `json:"zero_area" yaml:"zero_area"`
	Anomalies       []AnomalySummary   `json:"anomalies" yaml:"anomalies"`
	Markers         []MarkerPlacement  `json:"markers" yaml:"markers"`
}

// PlanInput is what BuildPlan needs from a session.
type PlanInput struct {
	Ref         PageRef
	Bundle      *docapi.PageBundle
	Store       *layers.Store
	ShowMarkers bool
	Options     Options
}

// BuildPlan derives the render plan. A nil bundle yields an empty plan sized
// to the default page.
func BuildPlan(in PlanInput) Plan {
	opts := in.Options.withDefaults()
	w, h := in.Bundle.Dimensions(opts.DefaultPageWidth, opts.DefaultPageHeight)

	plan := Plan{
		ViewBox:    ViewBox{Width: w, Height: h},
		Mode:       ModeLayers,
		Layers:     []RasterLayer{},
		Outlines:   []Outline{},
		ZeroArea:   []ZeroAreaObject{},
		Anomalies:  []AnomalySummary{},
		Markers:    []MarkerPlacement{},
		LayerViews: []layers.LayerView{},
	}
	if in.Bundle == nil || in.Store == nil {
		plan.NoVisibleLayers = true
		return plan
	}

	plan.Loaded = true
	plan.DocumentID = in.Ref.DocumentID
	plan.Page = in.Ref.Page
	plan.LayerViews = in.Store.Derive()

	if in.Store.AllVisible() && in.Bundle.FullRasterURL != "" {
		plan.Mode = ModeFullRaster
		plan.FullRasterURL = in.Bundle.FullRasterURL
	} else {
		plan.Layers = rasterLayers(plan.LayerViews)
		plan.NoVisibleLayers = len(plan.Layers) == 0
	}

	if in.Store.OutlineObjects() {
		plan.Outlines = outlines(in.Bundle.Layers, in.Store, h)
	}

	plan.ZeroArea = zeroAreaObjects(in.Bundle)
	if n := len(plan.ZeroArea); n > 0 {
		summary := AnomalySummary{Type: AnomalyZeroArea, Count: n, Examples: []string{}}
		for _, z := range plan.ZeroArea[:min(n, maxAnomalyExamples)] {
			summary.Examples = append(summary.Examples, z.ObjectID)
		}
		summary.More = n > maxAnomalyExamples
		plan.Anomalies = append(plan.Anomalies, summary)
	}

	if in.ShowMarkers {
		for _, z := range plan.ZeroArea {
			m := geometry.ToMarkerPosition(z.BBox, w, h, opts.MarkerInset)
			plan.Markers = append(plan.Markers, MarkerPlacement{
				ObjectID: z.ObjectID,
				Marker:   m,
				Glyph:    m.Kind.Glyph(),
				Size:     opts.MarkerSize,
			})
		}
	}
	return plan
}

func rasterLayers(views []layers.LayerView) []RasterLayer {
	out := []RasterLayer{}
	for _, v := range views {
		if v.Visible && v.URL != "" {
			out = append(out, RasterLayer{ZIndex: v.ZIndex, Type: v.Type, URL: v.URL})
		}
	}
	slices.SortStableFunc(out, func(a, b RasterLayer) int { return a.ZIndex - b.ZIndex })
	return out
}

// outlines walks visible, outlined layers in ascending zIndex and their
// objects in id order. Unparseable and degenerate boxes are skipped.
func outlines(ls []layers.Layer, st *layers.Store, pageHeight float64) []Outline {
	ordered := slices.Clone(ls)
	slices.SortStableFunc(ordered, func(a, b layers.Layer) int { return a.ZIndex - b.ZIndex })

	out := []Outline{}
	for _, l := range ordered {
		if !st.Visible(l.ZIndex) || !st.Outlined(l.ZIndex) {
			continue
		}
		for _, obj := range l.SortedObjects() {
			box, ok := obj.Box()
			if !ok {
				continue
			}
			rect, ok := geometry.ToScreenRect(box, pageHeight)
			if !ok {
				continue
			}
			typ := obj.EffectiveType(l.Type)
			out = append(out, Outline{
				ZIndex:   l.ZIndex,
				ObjectID: string(obj.ID),
				Type:     typ,
				Color:    geometry.TypeColor(typ),
				Rect:     rect,
			})
		}
	}
	return out
}

type zeroAreaKey struct {
	id   string
	bbox geometry.BBox
}

// zeroAreaObjects collects degenerate objects from the layers and from the
// bundle's own zero_area_objects list. The same object reported in both
// places (same id and box) appears once, with its layer.
func zeroAreaObjects(b *docapi.PageBundle) []ZeroAreaObject {
	out := []ZeroAreaObject{}
	seen := make(map[zeroAreaKey]bool)
	add := func(obj layers.Object, typ string, z *int) {
		box, ok := obj.Box()
		if !ok || geometry.Classify(box) != geometry.ClassZeroArea {
			return
		}
		key := zeroAreaKey{id: string(obj.ID), bbox: box}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, ZeroAreaObject{
			ObjectID: string(obj.ID),
			Type:     typ,
			ZIndex:   z,
			BBox:     box,
			Kind:     geometry.Degenerate(box),
		})
	}

	for _, l := range b.Layers {
		z := l.ZIndex
		for _, obj := range l.SortedObjects() {
			add(obj, obj.EffectiveType(l.Type), &z)
		}
	}
	for _, obj := range b.ZeroAreaObjects {
		add(obj, obj.Type, nil)
	}
	return out
}
