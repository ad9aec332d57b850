package geometry

import (
	"math"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/layeredlayout"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// RepairAndSimplifyEdges is pipeline step 14: it runs nine repair-and-
// simplify sub-passes in a fixed order, since each later sub-pass assumes
// the geometry the previous one produced (e.g. simplifyCollinearWaypoints
// expects rebuildOffRowGatewayRoutes to have already produced a clean
// L-bend to simplify).
func RepairAndSimplifyEdges(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	total := 0
	steps := []func(*model.Diagram) int{
		fixDisconnectedEdges,
		croppingDockPass,
		rebuildOffRowGatewayRoutes,
		separateOverlappingGatewayFlows,
		simplifyCollinearWaypoints,
		removeMicroBends,
		routeLoopbacksBelow,
		bundleParallelFlows,
		snapAllConnectionsOrthogonal,
	}
	for _, step := range steps {
		total += step(d)
	}
	return total, nil
}

// fixDisconnectedEdges re-attaches an edge's dangling endpoint waypoint to
// its element's current centre whenever it drifted more than 5px away, the
// common symptom of an element having moved after its edges were routed.
func fixDisconnectedEdges(d *model.Diagram) int {
	const tolerance = 5.0
	delta := 0
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if len(e.Waypoints) == 0 {
			continue
		}
		src, okS := d.Elements[e.SourceID]
		tgt, okT := d.Elements[e.TargetID]
		if !okS || !okT {
			continue
		}
		if dist(e.Waypoints[0], src.Center()) > tolerance {
			e.Waypoints[0] = src.Center()
			delta++
		}
		last := len(e.Waypoints) - 1
		if dist(e.Waypoints[last], tgt.Center()) > tolerance {
			e.Waypoints[last] = tgt.Center()
			delta++
		}
	}
	return delta
}

func dist(a, b model.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Hypot(dx, dy)
}

// croppingDockPass replaces each edge's first/last waypoint -- which
// fixDisconnectedEdges and the layout adapter both anchor at an element's
// centre -- with the point where the segment actually crosses that
// element's boundary, so the rendered arrow docks at the shape's edge
// rather than floating inside it.
func croppingDockPass(d *model.Diagram) int {
	delta := 0
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if len(e.Waypoints) < 2 {
			continue
		}
		src, okS := d.Elements[e.SourceID]
		tgt, okT := d.Elements[e.TargetID]
		if !okS || !okT {
			continue
		}
		if cropped, ok := cropToBoundary(e.Waypoints[0], e.Waypoints[1], aabbOf(src)); ok {
			if moved(e.Waypoints[0], cropped) {
				delta++
			}
			e.Waypoints[0] = cropped
		}
		last := len(e.Waypoints) - 1
		if cropped, ok := cropToBoundary(e.Waypoints[last], e.Waypoints[last-1], aabbOf(tgt)); ok {
			if moved(e.Waypoints[last], cropped) {
				delta++
			}
			e.Waypoints[last] = cropped
		}
	}
	return delta
}

// cropToBoundary moves `inside` (assumed to be the shape's centre) to the
// point where the ray toward `outside` crosses the shape's AABB.
func cropToBoundary(inside, outside model.Point, box [4]float64) (model.Point, bool) {
	cx, cy := (box[0]+box[2])/2, (box[1]+box[3])/2
	dx, dy := outside.X-cx, outside.Y-cy
	if dx == 0 && dy == 0 {
		return inside, false
	}
	halfW, halfH := (box[2]-box[0])/2, (box[3]-box[1])/2
	var scale float64 = 1e18
	if dx != 0 {
		scale = min64(scale, halfW/abs64(dx))
	}
	if dy != 0 {
		scale = min64(scale, halfH/abs64(dy))
	}
	return model.Point{X: cx + dx*scale, Y: cy + dy*scale}, true
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// rebuildOffRowGatewayRoutes is triggered when a gateway's outgoing edge
// lands on a target that is neither in the same row nor the same column
// (an "off-row" exit): the straight-then-turn Manhattan path would cut
// across other shapes, so this rebuilds it as an explicit two-segment
// L-bend leaving the gateway on whichever side faces the target.
func rebuildOffRowGatewayRoutes(d *model.Diagram) int {
	delta := 0
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		src, okS := d.Elements[e.SourceID]
		tgt, okT := d.Elements[e.TargetID]
		if !okS || !okT || !src.Type.IsGateway() {
			continue
		}
		a, b := src.Center(), tgt.Center()
		if abs64(a.X-b.X) < 1 || abs64(a.Y-b.Y) < 1 {
			continue // already axis-aligned, no off-row bend needed
		}
		route := []model.Point{a, {X: a.X, Y: b.Y}, b}
		e.Waypoints = route
		delta++
	}
	return delta
}

// separateOverlappingGatewayFlows offsets the edges leaving any gateway
// with two or more outgoing edges by ±5px multiples around the middle edge
// (in edge-ID order), so each is individually visible rather than drawn on
// top of its siblings. It shifts the first waypoint's Y, and the second's
// on longer routes, without checking whether the edges overlapped.
func separateOverlappingGatewayFlows(d *model.Diagram) int {
	const step = 5.0
	delta := 0
	bySource := make(map[string][]*model.Edge)
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		src, ok := d.Elements[e.SourceID]
		if !ok || !src.Type.IsGateway() {
			continue
		}
		bySource[e.SourceID] = append(bySource[e.SourceID], e)
	}
	for _, edges := range bySource {
		if len(edges) < 2 {
			continue
		}
		mid := len(edges) / 2
		for i, e := range edges {
			offset := step * float64(i-mid)
			if offset == 0 || len(e.Waypoints) < 2 {
				continue
			}
			e.Waypoints[0].Y += offset
			if len(e.Waypoints) > 2 {
				e.Waypoints[1].Y += offset
			}
			delta++
		}
	}
	return delta
}

// simplifyCollinearWaypoints removes a middle waypoint whenever it sits
// within 1px of the line through its neighbours, the standard Douglas-
// Peucker-style degenerate case for orthogonal routes.
func simplifyCollinearWaypoints(d *model.Diagram) int {
	const tolerance = 1.0
	delta := 0
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if len(e.Waypoints) < 3 {
			continue
		}
		out := []model.Point{e.Waypoints[0]}
		for i := 1; i < len(e.Waypoints)-1; i++ {
			prev, cur, next := out[len(out)-1], e.Waypoints[i], e.Waypoints[i+1]
			if isCollinear(prev, cur, next, tolerance) {
				delta++
				continue
			}
			out = append(out, cur)
		}
		out = append(out, e.Waypoints[len(e.Waypoints)-1])
		e.Waypoints = out
	}
	return delta
}

func isCollinear(a, b, c model.Point, tolerance float64) bool {
	if abs64(a.X-b.X) < tolerance && abs64(b.X-c.X) < tolerance {
		return true
	}
	if abs64(a.Y-b.Y) < tolerance && abs64(b.Y-c.Y) < tolerance {
		return true
	}
	return false
}

// removeMicroBends drops an interior waypoint that lies less than 3px from
// the previous kept waypoint, the visual artifact left behind by overlap
// pushes of only a pixel or two.
func removeMicroBends(d *model.Diagram) int {
	const minSegment = 3.0
	delta := 0
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if len(e.Waypoints) < 3 {
			continue
		}
		out := []model.Point{e.Waypoints[0]}
		for i := 1; i < len(e.Waypoints)-1; i++ {
			prev := out[len(out)-1]
			cur := e.Waypoints[i]
			if segmentLength(prev, cur) < minSegment {
				delta++
				continue
			}
			out = append(out, cur)
		}
		out = append(out, e.Waypoints[len(e.Waypoints)-1])
		e.Waypoints = out
	}
	return delta
}

func segmentLength(a, b model.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// routeLoopbacksBelow re-routes any flow whose target sits more than 20px
// to the left of its source (the cycle-broken back-edges
// layeredlayout.breakCycles found) as an explicit U-shape that dips below
// every shape in the diagram, with 20px clearance, rather than crossing
// back over intervening shapes.
func routeLoopbacksBelow(d *model.Diagram) int {
	const threshold = 20.0
	const clearance = 20.0
	delta := 0

	maxY := 0.0
	for _, el := range d.Elements {
		_, _, _, y := el.Bounds()
		if y > maxY {
			maxY = y
		}
	}
	belowY := maxY + clearance

	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if e.Type != model.SequenceFlow {
			continue
		}
		src, okS := d.Elements[e.SourceID]
		tgt, okT := d.Elements[e.TargetID]
		if !okS || !okT {
			continue
		}
		a, b := src.Center(), tgt.Center()
		if b.X >= a.X-threshold {
			continue
		}
		e.Waypoints = []model.Point{
			a,
			{X: a.X, Y: belowY},
			{X: b.X, Y: belowY},
			b,
		}
		delta++
	}
	return delta
}

// bundleParallelFlows snaps near-parallel edge segments running the same
// direction within a 10px corridor onto a shared line, so visually
// parallel flows (e.g. several branches out of a parallel gateway) read as
// a clean bundle instead of a scatter of almost-identical lines.
func bundleParallelFlows(d *model.Diagram) int {
	const corridor = 10.0
	delta := 0
	type segRef struct {
		edgeID string
		idx    int
	}
	vertical := make(map[string][]segRef) // keyed by rounded X bucket
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		for i := 0; i+1 < len(e.Waypoints); i++ {
			a, b := e.Waypoints[i], e.Waypoints[i+1]
			if abs64(a.X-b.X) > 0.5 {
				continue // not a vertical segment
			}
			key := formatBucket(a.X, corridor)
			vertical[key] = append(vertical[key], segRef{edgeID: id, idx: i})
		}
	}
	for _, refs := range vertical {
		if len(refs) < 2 {
			continue
		}
		targetX := d.Edges[refs[0].edgeID].Waypoints[refs[0].idx].X
		for _, r := range refs[1:] {
			e := d.Edges[r.edgeID]
			if e.Waypoints[r.idx].X != targetX {
				e.Waypoints[r.idx].X = targetX
				e.Waypoints[r.idx+1].X = targetX
				delta++
			}
		}
	}
	return delta
}

// snapAllConnectionsOrthogonal is the final repair sub-step: any segment
// whose endpoints differ by less than 2px on one axis gets coerced to
// exactly equal on that axis, guaranteeing every rendered segment is
// perfectly horizontal or vertical (I6).
func snapAllConnectionsOrthogonal(d *model.Diagram) int {
	const tolerance = 2.0
	delta := 0
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		for i := 0; i+1 < len(e.Waypoints); i++ {
			a := &e.Waypoints[i]
			b := &e.Waypoints[i+1]
			if dy := abs64(a.Y - b.Y); dy > 0 && dy < tolerance {
				b.Y = a.Y
				delta++
			} else if dx := abs64(a.X - b.X); dx > 0 && dx < tolerance {
				b.X = a.X
				delta++
			}
		}
	}
	return delta
}
