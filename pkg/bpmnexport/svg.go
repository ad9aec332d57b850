// Package bpmnexport implements the three wire formats spec.md §6.1 names:
// BPMN 2.0 XML import/export, an SVG visualization, and a JSON dump of the
// diagram model. Grounded on the teacher's pkg/export package, which
// renders a dungeon.Artifact to SVG/JSON the same way.
package bpmnexport

import (
	"bytes"
	"fmt"
	"sort"

	svg "github.com/ajstarks/svgo"

	"github.com/dshills/bpmnlayout/pkg/model"
)

// SVGOptions configures the rendered diagram, mirroring the teacher's
// SVGOptions shape (width/height/margin/labels) narrowed to what a BPMN
// diagram needs -- no heatmap or archetype coloring, since those are
// dungeon-specific concepts with no BPMN equivalent.
type SVGOptions struct {
	Width      int
	Height     int
	Margin     int
	ShowLabels bool
}

// DefaultSVGOptions returns sensible defaults, as the teacher's
// DefaultSVGOptions does.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 1600, Height: 1200, Margin: 40, ShowLabels: true}
}

// ExportSVG renders d as an SVG diagram: shapes as rects/circles/diamonds
// by element type, edges as orthogonal polylines.
func ExportSVG(d *model.Diagram, opts SVGOptions) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot export a nil diagram")
	}
	if opts.Width <= 0 {
		opts.Width = 1600
	}
	if opts.Height <= 0 {
		opts.Height = 1200
	}
	if opts.Margin <= 0 {
		opts.Margin = 40
	}

	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:#ffffff")

	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		drawElement(canvas, el, opts)
	}
	for _, id := range sortedEdgeIDs(d) {
		drawEdge(canvas, d.Edges[id], opts)
	}

	canvas.End()
	return buf.Bytes(), nil
}

func drawElement(canvas *svg.SVG, el *model.Element, opts SVGOptions) {
	x, y := int(el.Position.X), int(el.Position.Y)
	w, h := int(el.Size.Width), int(el.Size.Height)
	style := styleFor(el.Type)

	switch {
	case el.Type.IsEvent():
		r := w / 2
		canvas.Circle(x+w/2, y+h/2, r, style)
	case el.Type.IsGateway():
		canvas.Polygon(
			[]int{x + w/2, x + w, x + w/2, x},
			[]int{y, y + h/2, y + h, y + h/2},
			style,
		)
	default:
		canvas.Roundrect(x, y, w, h, 8, 8, style)
	}

	if opts.ShowLabels && el.Name != "" {
		canvas.Text(x+w/2, y+h+14, el.Name, "text-anchor:middle;font-size:11px;font-family:sans-serif")
	}
}

func styleFor(t model.ElementType) string {
	switch {
	case t.IsEvent():
		return "fill:#fdf2e3;stroke:#c0392b;stroke-width:2"
	case t.IsGateway():
		return "fill:#fef9e7;stroke:#d4ac0d;stroke-width:2"
	case t == model.Pool || t == model.Lane:
		return "fill:none;stroke:#2c3e50;stroke-width:2"
	default:
		return "fill:#eaf2f8;stroke:#2980b9;stroke-width:2"
	}
}

func drawEdge(canvas *svg.SVG, e *model.Edge, opts SVGOptions) {
	if len(e.Waypoints) < 2 {
		return
	}
	xs := make([]int, len(e.Waypoints))
	ys := make([]int, len(e.Waypoints))
	for i, p := range e.Waypoints {
		xs[i], ys[i] = int(p.X), int(p.Y)
	}
	style := "fill:none;stroke:#34495e;stroke-width:1.5"
	if e.Type == model.MessageFlow {
		style = "fill:none;stroke:#7f8c8d;stroke-width:1.5;stroke-dasharray:4,3"
	}
	canvas.Polyline(xs, ys, style)

	if opts.ShowLabels && e.Label != "" {
		mid := len(e.Waypoints) / 2
		canvas.Text(xs[mid], ys[mid]-6, e.Label, "text-anchor:middle;font-size:10px;font-family:sans-serif")
	}
}

func sortedElementIDs(d *model.Diagram) []string {
	ids := make([]string, 0, len(d.Elements))
	for id := range d.Elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedEdgeIDs(d *model.Diagram) []string {
	ids := make([]string, 0, len(d.Edges))
	for id := range d.Edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
