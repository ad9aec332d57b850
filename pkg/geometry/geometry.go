// Package geometry implements the layout pipeline's geometry passes:
// node snapping, happy-path alignment, boundary-event placement, gateway
// branch re-routing, loopback routing, element-avoidance rerouting,
// waypoint simplification, label placement, origin normalisation, and
// crossing counting. Grounded on the teacher's
// pkg/carving package, where a tile map goes through a sequence of
// discrete, independently-testable spatial mutation passes (stamp rooms,
// route corridors, generate walls, place doors) rather than one monolithic
// transform, and on pkg/embedding/layout.go's Pose/Rect overlap primitives.
package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/layeredlayout"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// Pass is the signature every geometry pass and pipeline step shares: it
// mutates d in place and reports how many shapes moved more than 1px,
// matching the teacher's validator.go pattern of named functions each
// returning a structured result rather than mutating global state
// invisibly.
type Pass func(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (delta int, err error)

const eps = 1.0

func moved(before, after model.Point) bool {
	return math.Hypot(before.X-after.X, before.Y-after.Y) > eps
}

func boundsOf(el *model.Element) (minX, minY, maxX, maxY float64) {
	return el.Bounds()
}

func overlapsAABB(a, b [4]float64) bool {
	return a[0] < b[2] && b[0] < a[2] && a[1] < b[3] && b[1] < a[3]
}

func aabbOf(el *model.Element) [4]float64 {
	minX, minY, maxX, maxY := el.Bounds()
	return [4]float64{minX, minY, maxX, maxY}
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

// ApplyNodePositions is pipeline step 1: write the
// LayeredLayoutAdapter-computed positions to the model.
func ApplyNodePositions(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	if lr == nil {
		return 0, fmt.Errorf("applyNodePositions: no layout result to apply")
	}
	delta := 0
	for id, pos := range lr.Positions {
		el, ok := d.Elements[id]
		if !ok {
			continue
		}
		before := el.Position
		el.Position = pos
		if moved(before, pos) {
			delta++
		}
	}
	return delta, nil
}

// ApplyEdgeRoutes is pipeline step 12: write the
// LayeredLayoutAdapter-computed routes to the model, then place every
// labelled edge's and shape's label box (§4.4 GeometryPasses label
// placement), since by this step every element's position is settled and
// every edge's waypoints are freshly written, giving PlaceLabel's
// overlap/negative-coordinate scoring stable references to work from.
func ApplyEdgeRoutes(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	if lr == nil {
		return 0, fmt.Errorf("applyEdgeRoutes: no layout result to apply")
	}
	delta := 0
	for id, route := range lr.Routes {
		e, ok := d.Edges[id]
		if !ok {
			continue
		}
		if len(e.Waypoints) != len(route) {
			delta++
		}
		e.Waypoints = append([]model.Point{}, route...)
	}
	placeAllLabels(d, cfg, log)
	return delta, nil
}

// placeAllLabels runs PlaceLabel for every named element and every labelled
// edge, in deterministic ID order so earlier-placed labels are visible to
// later scoring passes as overlap candidates.
func placeAllLabels(d *model.Diagram, cfg *config.LayoutConfig, log zerolog.Logger) {
	var placed [][4]float64
	var segments [][2]model.Point
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		for i := 1; i < len(e.Waypoints); i++ {
			segments = append(segments, [2]model.Point{e.Waypoints[i-1], e.Waypoints[i]})
		}
	}

	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		if el.Name == "" {
			continue
		}
		size := labelSize(el.Name, cfg)
		_, _, _, maxY := el.Bounds()
		ref := model.Point{X: el.Position.X + el.Size.Width/2, Y: maxY + 8}
		box := PlaceLabel(ref, size, placed, segments, log)
		el.LabelBounds = &model.LabelBox{X: box[0], Y: box[1], Width: box[2] - box[0], Height: box[3] - box[1]}
		placed = append(placed, box)
	}

	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if e.Label == "" || len(e.Waypoints) == 0 {
			continue
		}
		size := labelSize(e.Label, cfg)
		mid := e.Waypoints[len(e.Waypoints)/2]
		box := PlaceLabel(mid, size, placed, segments, log)
		e.LabelBounds = &model.LabelBox{X: box[0], Y: box[1], Width: box[2] - box[0], Height: box[3] - box[1]}
		placed = append(placed, box)
	}
}
