package viewer

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	outlineStrokeWidth = "2.5"
	outlineDashArray   = "4 3"

	markerFill            = "#F59E0B"
	markerOutOfBoundsFill = "#DC2626"
)

// RenderSVG writes the plan as a standalone SVG document whose viewBox is the
// page size in points, so it scales onto the page image without any extra
// transform.
func RenderSVG(w io.Writer, plan Plan) error {
	bw := bufio.NewWriter(w)
	vw, vh := num(plan.ViewBox.Width), num(plan.ViewBox.Height)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s" preserveAspectRatio="xMinYMin meet">`+"\n",
		vw, vh, vw, vh)

	switch {
	case plan.Mode == ModeFullRaster && plan.FullRasterURL != "":
		writeImage(bw, "page", plan.FullRasterURL, vw, vh)
	case len(plan.Layers) > 0:
		bw.WriteString(`<g class="layers">` + "\n")
		for _, l := range plan.Layers {
			writeImage(bw, "layer-"+strconv.Itoa(l.ZIndex), l.URL, vw, vh)
		}
		bw.WriteString("</g>\n")
	}

	if len(plan.Outlines) > 0 {
		bw.WriteString(`<g class="outlines" fill="none">` + "\n")
		for _, o := range plan.Outlines {
			fmt.Fprintf(bw, `<rect data-layer="%d" data-object-id="%s" x="%s" y="%s" width="%s" height="%s" stroke="%s" stroke-width="%s" stroke-dasharray="%s"/>`+"\n",
				o.ZIndex, escape(o.ObjectID), num(o.Rect.X), num(o.Rect.Y), num(o.Rect.Width), num(o.Rect.Height),
				escape(o.Color), outlineStrokeWidth, outlineDashArray)
		}
		bw.WriteString("</g>\n")
	}

	if len(plan.Markers) > 0 {
		bw.WriteString(`<g class="zero-area-markers">` + "\n")
		for _, m := range plan.Markers {
			fill := markerFill
			if m.Marker.OutOfBounds {
				fill = markerOutOfBoundsFill
			}
			half := m.Size / 2
			fmt.Fprintf(bw, `<rect data-object-id="%s" x="%s" y="%s" width="%s" height="%s" fill="%s" fill-opacity="0.85"/>`+"\n",
				escape(m.ObjectID), num(m.Marker.X-half), num(m.Marker.Y-half), num(m.Size), num(m.Size), fill)
			fmt.Fprintf(bw, `<text x="%s" y="%s" font-size="%s" font-family="monospace" fill="#FFFFFF" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
				num(m.Marker.X), num(m.Marker.Y), num(m.Size*0.7), escape(m.Glyph))
		}
		bw.WriteString("</g>\n")
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writeImage(w *bufio.Writer, id, href, width, height string) {
	fmt.Fprintf(w, `<image id="%s" href="%s" x="0" y="0" width="%s" height="%s" preserveAspectRatio="none"/>`+"\n",
		escape(id), escape(href), width, height)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escape(s string) string {
	var b strings.Builder
	// strings.Builder never fails, so neither does EscapeText.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
