package geometry

import (
	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/layeredlayout"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// reorderByBarycenter re-runs a single barycenter sweep over elements
// sharing a parent and a near-identical X, swapping their row order when
// doing so reduces the diagram's total flow-crossing count. This is a
// lighter, model-space echo of layeredlayout.reduceCrossings, run again
// after the geometry passes above may have shifted things enough to
// introduce new crossings that the original layered-graph pass never saw.
// Per spec.md §4.3's "swap channel assignments if it reduces total
// crossings" contract, a candidate swap is measured (not assumed): it is
// kept only on a strict reduction in DetectCrossingFlows' count, and
// reverted otherwise.
func reorderByBarycenter(d *model.Diagram) int {
	delta := 0
	byColumn := make(map[string][]*model.Element)
	for _, el := range d.Elements {
		if el.ParentID == "" && el.Type != model.Pool && el.Type != model.Lane {
			key := columnKey(el.Position.X)
			byColumn[key] = append(byColumn[key], el)
		}
	}
	for _, col := range byColumn {
		if len(col) < 2 {
			continue
		}
		for i := 0; i < len(col); i++ {
			for j := i + 1; j < len(col); j++ {
				before := DetectCrossingFlows(d).Count
				snapshot := snapshotWaypoints(d)
				col[i].Position.Y, col[j].Position.Y = col[j].Position.Y, col[i].Position.Y
				fixDisconnectedEdges(d)
				if after := DetectCrossingFlows(d).Count; after < before {
					delta++
				} else {
					col[i].Position.Y, col[j].Position.Y = col[j].Position.Y, col[i].Position.Y
					restoreWaypoints(d, snapshot)
				}
			}
		}
	}
	return delta
}

// snapshotWaypoints captures each edge's current waypoint slice so a trial
// swap's effect on routing (via fixDisconnectedEdges re-docking endpoints to
// their element's new centre) can be undone if it doesn't pay off.
func snapshotWaypoints(d *model.Diagram) map[string][]model.Point {
	snap := make(map[string][]model.Point, len(d.Edges))
	for id, e := range d.Edges {
		snap[id] = append([]model.Point(nil), e.Waypoints...)
	}
	return snap
}

func restoreWaypoints(d *model.Diagram, snap map[string][]model.Point) {
	for id, wp := range snap {
		if e, ok := d.Edges[id]; ok {
			e.Waypoints = wp
		}
	}
}

func columnKey(x float64) string {
	return formatBucket(x, 10)
}

func formatBucket(v, bucket float64) string {
	n := int64(v / bucket)
	return itoa(n)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ReduceCrossings1st is pipeline step 17.
func ReduceCrossings1st(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	return reorderByBarycenter(d), nil
}

// ReduceCrossings2nd is pipeline step 19.
func ReduceCrossings2nd(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	return reorderByBarycenter(d), nil
}

// avoidElementIntersections detours any edge segment that passes through
// an element's bounding box (other than its own endpoints), by inserting
// a two-point step around whichever side of the box is closer.
func avoidElementIntersections(d *model.Diagram) int {
	delta := 0
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		changed := false
		route := append([]model.Point{}, e.Waypoints...)
		for _, elID := range sortedElementIDs(d) {
			el := d.Elements[elID]
			if elID == e.SourceID || elID == e.TargetID || el.Type.IsContainer() {
				continue
			}
			box := aabbOf(el)
			for i := 0; i+1 < len(route); i++ {
				if !segmentCrossesBox(route[i], route[i+1], box) {
					continue
				}
				detour := detourAround(route[i], route[i+1], box)
				newRoute := make([]model.Point, 0, len(route)+len(detour))
				newRoute = append(newRoute, route[:i+1]...)
				newRoute = append(newRoute, detour...)
				newRoute = append(newRoute, route[i+1:]...)
				route = newRoute
				changed = true
				break
			}
		}
		if changed {
			e.Waypoints = route
			delta++
		}
	}
	return delta
}

func segmentCrossesBox(a, b model.Point, box [4]float64) bool {
	segMinX, segMaxX := minMax(a.X, b.X)
	segMinY, segMaxY := minMax(a.Y, b.Y)
	return overlapsAABB([4]float64{segMinX, segMinY, segMaxX, segMaxY}, box)
}

func minMax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}

// detourAround steps the route above the obstacle when the segment is
// mostly horizontal, or to the right of it when mostly vertical.
func detourAround(a, b model.Point, box [4]float64) []model.Point {
	const clearance = 15.0
	if abs64(a.X-b.X) >= abs64(a.Y-b.Y) {
		y := box[1] - clearance
		return []model.Point{{X: a.X, Y: y}, {X: b.X, Y: y}}
	}
	x := box[2] + clearance
	return []model.Point{{X: x, Y: a.Y}, {X: x, Y: b.Y}}
}

// AvoidElementIntersections is pipeline step 18.
func AvoidElementIntersections(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	return avoidElementIntersections(d), nil
}

// AvoidElementIntersections2nd is pipeline step 20.
func AvoidElementIntersections2nd(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	return avoidElementIntersections(d), nil
}

// CrossingReport is DetectCrossingFlows' output: the number of flow-segment
// pairs that cross, attached to the diagram as metadata for callers (the
// PipelineRunner's Metrics, surfaced over the lint/diagnostics channel) --
// it never mutates the model, so its delta is always 0.
type CrossingReport struct {
	Count int
}

// DetectCrossingFlows is pipeline step 21: the terminal,
// read-only pass. It sweeps every pair of SequenceFlow segments and counts
// how many intersect, the near-zero-crossings metric layout quality is
// judged on. Grounded on the teacher's corridor-overlap detector in
// pkg/embedding, generalized from grid-cell adjacency to continuous
// segment intersection.
func DetectCrossingFlows(d *model.Diagram) CrossingReport {
	var segments [][2]model.Point
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if e.Type != model.SequenceFlow {
			continue
		}
		for i := 0; i+1 < len(e.Waypoints); i++ {
			segments = append(segments, [2]model.Point{e.Waypoints[i], e.Waypoints[i+1]})
		}
	}
	count := 0
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			if segmentsIntersect(segments[i][0], segments[i][1], segments[j][0], segments[j][1]) {
				count++
			}
		}
	}
	return CrossingReport{Count: count}
}

// segmentsIntersect tests two axis-aligned (orthogonal) segments for a
// proper crossing, the common case once snapAllConnectionsOrthogonal has
// run.
func segmentsIntersect(a1, a2, b1, b2 model.Point) bool {
	aHoriz := abs64(a1.Y-a2.Y) < 0.5
	bHoriz := abs64(b1.Y-b2.Y) < 0.5
	if aHoriz == bHoriz {
		return false // parallel orthogonal segments don't "cross" in the X shape sense
	}
	var h1, h2, v1, v2 model.Point
	if aHoriz {
		h1, h2, v1, v2 = a1, a2, b1, b2
	} else {
		h1, h2, v1, v2 = b1, b2, a1, a2
	}
	hMinX, hMaxX := minMax(h1.X, h2.X)
	vMinY, vMaxY := minMax(v1.Y, v2.Y)
	return v1.X > hMinX && v1.X < hMaxX && h1.Y > vMinY && h1.Y < vMaxY
}
