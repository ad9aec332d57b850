package geometry

import (
	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/layeredlayout"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// PositionEventSubprocesses resizes every SubProcess that has children to
// the bounding box of those children, wherever earlier passes left them,
// plus a fixed 30px padding. It does not move subprocesses below the main
// process or side by side, and it runs no separate layout of their
// children.
func PositionEventSubprocesses(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	const padding = 30.0
	delta := 0
	for _, id := range sortedElementIDs(d) {
		sp := d.Elements[id]
		if sp.Type != model.SubProcess {
			continue
		}
		children := d.Children(sp.ID)
		if len(children) == 0 {
			continue
		}
		minX, minY, maxX, maxY := boundingBoxOf(d, children)
		newPos := model.Point{X: minX - padding, Y: minY - padding}
		newSize := model.Size{Width: (maxX - minX) + 2*padding, Height: (maxY - minY) + 2*padding}
		if moved(sp.Position, newPos) || sp.Size != newSize {
			delta++
		}
		sp.Position = newPos
		sp.Size = newSize
	}
	return delta, nil
}

func boundingBoxOf(d *model.Diagram, ids []string) (minX, minY, maxX, maxY float64) {
	first := true
	for _, id := range ids {
		el, ok := d.Elements[id]
		if !ok {
			continue
		}
		eMinX, eMinY, eMaxX, eMaxY := el.Bounds()
		if first {
			minX, minY, maxX, maxY = eMinX, eMinY, eMaxX, eMaxY
			first = false
			continue
		}
		if eMinX < minX {
			minX = eMinX
		}
		if eMinY < minY {
			minY = eMinY
		}
		if eMaxX > maxX {
			maxX = eMaxX
		}
		if eMaxY > maxY {
			maxY = eMaxY
		}
	}
	return
}

// FinalisePoolsAndLanes grows every pool and lane shape to the bounding
// box of its direct and indirect flow-element children, then stacks
// sibling lanes within a pool so each lane's width matches the pool and
// lanes do not overlap vertically. Grounded on the
// teacher's carving stage that derives room/corridor tile extents from
// their placed contents rather than fixing container size up front.
func FinalisePoolsAndLanes(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	const padding = 40.0
	const headerWidth = 30.0
	delta := 0

	for _, id := range sortedElementIDs(d) {
		lane := d.Elements[id]
		if lane.Type != model.Lane {
			continue
		}
		children := allDescendants(d, lane.ID)
		if len(children) == 0 {
			continue
		}
		minX, minY, maxX, maxY := boundingBoxOf(d, children)
		newPos := model.Point{X: minX - padding, Y: minY - padding}
		newSize := model.Size{Width: (maxX - minX) + 2*padding, Height: (maxY - minY) + 2*padding}
		if moved(lane.Position, newPos) || lane.Size != newSize {
			delta++
		}
		lane.Position = newPos
		lane.Size = newSize
	}

	for _, id := range sortedElementIDs(d) {
		pool := d.Elements[id]
		if pool.Type != model.Pool {
			continue
		}
		lanes := laneChildren(d, pool.ID)
		if len(lanes) > 0 {
			width := 0.0
			for _, l := range lanes {
				if l.Size.Width > width {
					width = l.Size.Width
				}
			}
			cursorY := lanes[0].Position.Y
			for _, l := range lanes {
				newPos := model.Point{X: pool.Position.X + headerWidth, Y: cursorY}
				newSize := model.Size{Width: width, Height: l.Size.Height}
				if moved(l.Position, newPos) || l.Size != newSize {
					delta++
				}
				l.Position = newPos
				l.Size = newSize
				cursorY += l.Size.Height
			}
			minX, minY, maxX, maxY := boundingBoxOf(d, laneIDs(lanes))
			newPos := model.Point{X: minX - headerWidth, Y: minY}
			newSize := model.Size{Width: (maxX - minX) + headerWidth, Height: maxY - minY}
			if moved(pool.Position, newPos) || pool.Size != newSize {
				delta++
			}
			pool.Position = newPos
			pool.Size = newSize
			continue
		}

		children := allDescendants(d, pool.ID)
		if len(children) == 0 {
			continue
		}
		minX, minY, maxX, maxY := boundingBoxOf(d, children)
		newPos := model.Point{X: minX - headerWidth, Y: minY - padding}
		newSize := model.Size{Width: (maxX - minX) + headerWidth + padding, Height: (maxY - minY) + 2*padding}
		if moved(pool.Position, newPos) || pool.Size != newSize {
			delta++
		}
		pool.Position = newPos
		pool.Size = newSize
	}
	return delta, nil
}

func allDescendants(d *model.Diagram, parentID string) []string {
	var out []string
	direct := d.Children(parentID)
	for _, id := range direct {
		el := d.Elements[id]
		if el.Type.IsContainer() {
			out = append(out, allDescendants(d, id)...)
			continue
		}
		out = append(out, id)
	}
	return out
}

func laneChildren(d *model.Diagram, poolID string) []*model.Element {
	var out []*model.Element
	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		if el.Type == model.Lane && el.ParentID == poolID {
			out = append(out, el)
		}
	}
	return out
}

func laneIDs(lanes []*model.Element) []string {
	out := make([]string, len(lanes))
	for i, l := range lanes {
		out[i] = l.ID
	}
	return out
}

// FinaliseBoundaryTargets retargets boundary flows: once hosts have
// their final positions (post finalisePoolsAndLanes), re-snap each
// boundary event to its host's border -- the earlier fixBoundaryEvents
// pass ran before containers were resized, so boundary events can have
// drifted off their host's edge.
func FinaliseBoundaryTargets(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	return FixBoundaryEvents(d, g, lr, cfg, log)
}

// ClampFlowsToLaneBounds clamps back to a lane's interior any edge
// waypoint that strayed outside the lane containing both its endpoints (a
// side effect of earlier overlap pushes).
func ClampFlowsToLaneBounds(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	delta := 0
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		src, okS := d.Elements[e.SourceID]
		tgt, okT := d.Elements[e.TargetID]
		if !okS || !okT {
			continue
		}
		lane := commonLane(d, src, tgt)
		if lane == nil {
			continue
		}
		minX, minY, maxX, maxY := lane.Bounds()
		for i := range e.Waypoints {
			wp := e.Waypoints[i]
			clamped := model.Point{
				X: clamp(wp.X, minX, maxX),
				Y: clamp(wp.Y, minY, maxY),
			}
			if clamped != wp {
				e.Waypoints[i] = clamped
				delta++
			}
		}
	}
	return delta, nil
}

func commonLane(d *model.Diagram, a, b *model.Element) *model.Element {
	laneA := ancestorLane(d, a)
	laneB := ancestorLane(d, b)
	if laneA != nil && laneA == laneB {
		return laneA
	}
	return nil
}

func ancestorLane(d *model.Diagram, el *model.Element) *model.Element {
	cur := el
	for cur.ParentID != "" {
		parent, ok := d.Elements[cur.ParentID]
		if !ok {
			return nil
		}
		if parent.Type == model.Lane {
			return parent
		}
		cur = parent
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RouteCrossLaneStaircase gives a flow crossing between two lanes in the
// same pool an explicit staircase (horizontal-vertical-horizontal) route
// through the lane boundary rather than a diagonal or a route that clips
// through an unrelated lane.
func RouteCrossLaneStaircase(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	delta := 0
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
		laneA := ancestorLane(d, src)
		laneB := ancestorLane(d, tgt)
		if laneA == nil || laneB == nil || laneA.ID == laneB.ID {
			continue
		}
		a, b := src.Center(), tgt.Center()
		boundaryY := (laneA.Position.Y + laneA.Size.Height + laneB.Position.Y) / 2
		route := []model.Point{
			a,
			{X: a.X, Y: boundaryY},
			{X: b.X, Y: boundaryY},
			b,
		}
		e.Waypoints = route
		delta++
	}
	return delta, nil
}
