package geometry

import (
	"math"
	"sort"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/layeredlayout"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// border identifies which side of a host a boundary event sits on.
type border int

const (
	borderBottom border = iota
	borderRight
	borderTop
)

// FixBoundaryEvents is pipeline step 2. For each boundary event,
// pick a preferred border (bottom by default, right if the event's own
// recovery flow exits rightward, top if another element occupies the space
// below the host), then spread
// events sharing a border evenly along its usable length.
func FixBoundaryEvents(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	byHostBorder := make(map[string]map[border][]*model.Element)

	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		if el.Type != model.BoundaryEvent {
			continue
		}
		host, ok := d.Elements[el.HostID]
		if !ok {
			continue
		}
		b := preferredBorder(d, host, el)
		if byHostBorder[host.ID] == nil {
			byHostBorder[host.ID] = make(map[border][]*model.Element)
		}
		byHostBorder[host.ID][b] = append(byHostBorder[host.ID][b], el)
	}

	delta := 0
	hostIDs := make([]string, 0, len(byHostBorder))
	for id := range byHostBorder {
		hostIDs = append(hostIDs, id)
	}
	sort.Strings(hostIDs)

	for _, hostID := range hostIDs {
		host := d.Elements[hostID]
		borders := byHostBorder[hostID]
		for b, events := range borders {
			sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
			if placeOnBorder(host, events, b) {
				delta += len(events)
			}
		}
	}
	return delta, nil
}

// preferredBorder picks bottom by default. It switches to right when the
// boundary event's own recovery path exits to an element positioned level
// with and to the right of the host, so the outgoing edge leaves cleanly
// rightward instead of crossing under the host; it switches to top when
// another element already occupies the space directly below the host,
// which a bottom placement would collide with.
func preferredBorder(d *model.Diagram, host *model.Element, ev *model.Element) border {
	minX, minY, maxX, maxY := host.Bounds()
	hc := host.Center()
	hh := maxY - minY

	for _, eid := range d.Outgoing(ev.ID) {
		e, ok := d.Edges[eid]
		if !ok || e.Type != model.SequenceFlow {
			continue
		}
		target, ok := d.Elements[e.TargetID]
		if !ok {
			continue
		}
		tc := target.Center()
		if tc.X > maxX && math.Abs(tc.Y-hc.Y) < hh {
			return borderRight
		}
	}

	r := ev.Size.Width / 2
	bottomZone := [4]float64{minX, maxY, maxX, maxY + 2*r + 10}
	for _, id := range sortedElementIDs(d) {
		other := d.Elements[id]
		if other.ID == host.ID || other.ID == ev.ID || other.Type == model.BoundaryEvent {
			continue
		}
		if overlapsAABB(bottomZone, aabbOf(other)) {
			return borderTop
		}
	}

	return borderBottom
}

// placeOnBorder spreads N boundary events' centres evenly along the host's
// usable border length (the border inset by R at each end): a single event
// is centred, otherwise the first and last sit at the two ends of that
// length. Returns true if any event's centre moved.
func placeOnBorder(host *model.Element, events []*model.Element, b border) bool {
	minX, minY, maxX, maxY := host.Bounds()
	changed := false
	n := len(events)

	for i, ev := range events {
		r := ev.Size.Width / 2
		var usableStart, usableEnd, fixedCoord float64
		var centerX, centerY float64

		switch b {
		case borderBottom:
			usableStart, usableEnd = minX+r, maxX-r
			fixedCoord = maxY
			centerX = spreadOffset(usableStart, usableEnd, i, n)
			centerY = fixedCoord
		case borderTop:
			usableStart, usableEnd = minX+r, maxX-r
			fixedCoord = minY
			centerX = spreadOffset(usableStart, usableEnd, i, n)
			centerY = fixedCoord
		case borderRight:
			usableStart, usableEnd = minY+r, maxY-r
			fixedCoord = maxX
			centerY = spreadOffset(usableStart, usableEnd, i, n)
			centerX = fixedCoord
		}

		newPos := model.Point{X: centerX - ev.Size.Width/2, Y: centerY - ev.Size.Height/2}
		if moved(ev.Position, newPos) {
			changed = true
		}
		ev.Position = newPos
	}
	return changed
}

// spreadOffset divides [start,end] into n evenly-spaced centre positions,
// both ends included (a step of (end-start)/(n-1)), and returns the i-th;
// for n <= 1 it returns the midpoint.
func spreadOffset(start, end float64, i, n int) float64 {
	if n <= 1 {
		return (start + end) / 2
	}
	step := (end - start) / float64(n-1)
	return start + step*float64(i)
}
