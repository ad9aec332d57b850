package model

import (
	"fmt"
	"math"
)

// originMargin is the minimum distance every shape must keep from the
// diagram origin after layout normalisation. Resolved as 20 units, matching
// the teacher's own default canvas margin convention in its SVG exporter.
const originMargin = 20.0

// boundaryTolerance is the maximum distance a boundary event's centre may
// sit from its host's perimeter.
const boundaryTolerance = 2.0

// CheckInvariants runs every structural well-formedness check against d and
// returns every violation found; a nil/empty slice means the diagram is
// well-formed. Grounded on the teacher's validator.go pattern of
// accumulating named checks into a report rather than failing fast on the
// first violation.
func CheckInvariants(d *Diagram) []error {
	var errs []error
	errs = append(errs, checkReferentialIntegrity(d)...)
	errs = append(errs, checkUniqueIDs(d)...)
	errs = append(errs, checkBoundaryHost(d)...)
	errs = append(errs, checkCrossPoolSemantics(d)...)
	errs = append(errs, checkPoolContainment(d)...)
	errs = append(errs, checkOrthogonality(d)...)
	errs = append(errs, checkEndpointAttachment(d)...)
	errs = append(errs, checkNoOverlap(d)...)
	errs = append(errs, checkBoundaryProximity(d)...)
	errs = append(errs, checkNonNegativeOrigin(d)...)
	return errs
}

// checkReferentialIntegrity verifies every edge references elements that
// exist, and every element's ParentID refers to an existing element
// (HostID is checked by checkBoundaryHost).
func checkReferentialIntegrity(d *Diagram) []error {
	var errs []error
	for _, e := range d.Edges {
		if _, ok := d.Elements[e.SourceID]; !ok {
			errs = append(errs, fmt.Errorf("referential integrity: edge %s: source %s does not exist", e.ID, e.SourceID))
		}
		if _, ok := d.Elements[e.TargetID]; !ok {
			errs = append(errs, fmt.Errorf("referential integrity: edge %s: target %s does not exist", e.ID, e.TargetID))
		}
	}
	for _, el := range d.Elements {
		if el.ParentID != "" {
			if _, ok := d.Elements[el.ParentID]; !ok {
				errs = append(errs, fmt.Errorf("referential integrity: element %s: parent %s does not exist", el.ID, el.ParentID))
			}
		}
	}
	return errs
}

// checkUniqueIDs verifies element IDs are unique within a diagram. Map keys
// already guarantee this for elements and edges separately; the one gap a
// Go map can't close is the two namespaces colliding with each other.
func checkUniqueIDs(d *Diagram) []error {
	var errs []error
	for id := range d.Elements {
		if _, clash := d.Edges[id]; clash {
			errs = append(errs, fmt.Errorf("duplicate ID: %s used by both an element and an edge", id))
		}
	}
	return errs
}

// checkBoundaryHost verifies a boundary event's host is an activity.
func checkBoundaryHost(d *Diagram) []error {
	var errs []error
	for _, el := range d.Elements {
		if el.Type != BoundaryEvent {
			continue
		}
		host, ok := d.Elements[el.HostID]
		if !ok {
			errs = append(errs, fmt.Errorf("boundary host: boundary event %s: host %s does not exist", el.ID, el.HostID))
			continue
		}
		if !host.Type.IsActivity() {
			errs = append(errs, fmt.Errorf("boundary host: boundary event %s: host %s is not an activity (%s)", el.ID, el.HostID, host.Type))
		}
	}
	return errs
}

// checkCrossPoolSemantics verifies an edge whose endpoints belong to
// different pools is a MessageFlow, and same-pool edges are never one.
func checkCrossPoolSemantics(d *Diagram) []error {
	var errs []error
	for _, e := range d.Edges {
		if e.Type != SequenceFlow && e.Type != MessageFlow {
			continue
		}
		src, srcOK := d.Elements[e.SourceID]
		dst, dstOK := d.Elements[e.TargetID]
		if !srcOK || !dstOK {
			continue
		}
		crossesPools := topPool(d, src) != topPool(d, dst)
		if crossesPools && e.Type != MessageFlow {
			errs = append(errs, fmt.Errorf("cross-pool semantics: edge %s crosses pools but is not a MessageFlow (%s -> %s)", e.ID, e.SourceID, e.TargetID))
		}
		if !crossesPools && e.Type == MessageFlow {
			errs = append(errs, fmt.Errorf("cross-pool semantics: edge %s is a MessageFlow within a single pool (%s -> %s)", e.ID, e.SourceID, e.TargetID))
		}
	}
	return errs
}

func topPool(d *Diagram, el *Element) string {
	cur := el
	pool := ""
	for cur.ParentID != "" {
		parent, ok := d.Elements[cur.ParentID]
		if !ok {
			break
		}
		if parent.Type == Pool {
			pool = parent.ID
		}
		cur = parent
	}
	return pool
}

// checkPoolContainment verifies every flow element sits inside its parent
// pool's content rectangle (approximated here as ParentID chain
// containment, since the precise label-band geometry belongs to the layout
// layer; the structural half model-level code can check is that a child's
// bounds never exceed its parent container's bounds once both are
// positioned).
func checkPoolContainment(d *Diagram) []error {
	var errs []error
	for _, el := range d.Elements {
		if el.ParentID == "" {
			continue
		}
		parent, ok := d.Elements[el.ParentID]
		if !ok || !parent.Type.IsContainer() {
			continue
		}
		if parent.Size.Width == 0 && parent.Size.Height == 0 {
			continue // container not yet sized by layout
		}
		pMinX, pMinY, pMaxX, pMaxY := parent.Bounds()
		cMinX, cMinY, cMaxX, cMaxY := el.Bounds()
		if cMinX < pMinX || cMinY < pMinY || cMaxX > pMaxX || cMaxY > pMaxY {
			errs = append(errs, fmt.Errorf("pool containment: element %s escapes parent %s content bounds", el.ID, el.ParentID))
		}
	}
	return errs
}

// checkOrthogonality verifies every edge segment is strictly horizontal or
// vertical (|Δx|<1 or |Δy|<1).
func checkOrthogonality(d *Diagram) []error {
	var errs []error
	const tolerance = 1.0
	for _, e := range d.Edges {
		for i := 0; i+1 < len(e.Waypoints); i++ {
			a, b := e.Waypoints[i], e.Waypoints[i+1]
			dx, dy := math.Abs(a.X-b.X), math.Abs(a.Y-b.Y)
			if dx >= tolerance && dy >= tolerance {
				errs = append(errs, fmt.Errorf("orthogonality: edge %s segment %d is diagonal (dx=%.2f dy=%.2f)", e.ID, i, dx, dy))
			}
		}
	}
	return errs
}

// checkEndpointAttachment verifies the first waypoint sits within 5px of
// the source boundary, and the last within 5px of the target boundary.
func checkEndpointAttachment(d *Diagram) []error {
	var errs []error
	const tolerance = 5.0
	for _, e := range d.Edges {
		if len(e.Waypoints) == 0 {
			continue
		}
		src, srcOK := d.Elements[e.SourceID]
		dst, dstOK := d.Elements[e.TargetID]
		if srcOK {
			if dist := distanceToBoundary(e.Waypoints[0], src); dist > tolerance {
				errs = append(errs, fmt.Errorf("endpoint attachment: edge %s start point is %.2f from source %s boundary", e.ID, dist, e.SourceID))
			}
		}
		if dstOK {
			last := e.Waypoints[len(e.Waypoints)-1]
			if dist := distanceToBoundary(last, dst); dist > tolerance {
				errs = append(errs, fmt.Errorf("endpoint attachment: edge %s end point is %.2f from target %s boundary", e.ID, dist, e.TargetID))
			}
		}
	}
	return errs
}

func distanceToBoundary(p Point, el *Element) float64 {
	minX, minY, maxX, maxY := el.Bounds()
	dx := 0.0
	if p.X < minX {
		dx = minX - p.X
	} else if p.X > maxX {
		dx = p.X - maxX
	}
	dy := 0.0
	if p.Y < minY {
		dy = minY - p.Y
	} else if p.Y > maxY {
		dy = p.Y - maxY
	}
	return math.Hypot(dx, dy)
}

// checkNoOverlap verifies no two non-nested, non-boundary shapes have
// overlapping bounding boxes (margin 2).
func checkNoOverlap(d *Diagram) []error {
	var errs []error
	const margin = 2.0
	ids := make([]string, 0, len(d.Elements))
	for id := range d.Elements {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := d.Elements[ids[i]], d.Elements[ids[j]]
			if a.Type == BoundaryEvent || b.Type == BoundaryEvent {
				continue // boundary events intentionally sit on their host's perimeter
			}
			if nested(d, a, b) {
				continue
			}
			if overlapsWithMargin(a, b, margin) {
				errs = append(errs, fmt.Errorf("no overlap: elements %s and %s overlap", a.ID, b.ID))
			}
		}
	}
	return errs
}

// nested reports whether a is an ancestor of b or vice versa via ParentID.
func nested(d *Diagram, a, b *Element) bool {
	return isAncestor(d, a, b) || isAncestor(d, b, a)
}

func isAncestor(d *Diagram, ancestor, el *Element) bool {
	cur := el
	for cur.ParentID != "" {
		if cur.ParentID == ancestor.ID {
			return true
		}
		parent, ok := d.Elements[cur.ParentID]
		if !ok {
			return false
		}
		cur = parent
	}
	return false
}

func overlapsWithMargin(a, b *Element, margin float64) bool {
	aMinX, aMinY, aMaxX, aMaxY := a.Bounds()
	bMinX, bMinY, bMaxX, bMaxY := b.Bounds()
	return aMinX < bMaxX-margin && bMinX < aMaxX-margin && aMinY < bMaxY-margin && bMinY < aMaxY-margin
}

// checkBoundaryProximity verifies a boundary event's centre lies within
// boundaryTolerance of its host's perimeter.
func checkBoundaryProximity(d *Diagram) []error {
	var errs []error
	for _, el := range d.Elements {
		if el.Type != BoundaryEvent {
			continue
		}
		host, ok := d.Elements[el.HostID]
		if !ok {
			continue
		}
		dist := perimeterDistance(el.Center(), host)
		if dist > boundaryTolerance {
			errs = append(errs, fmt.Errorf("boundary proximity: boundary event %s is %.2f from host %s perimeter (max %.2f)", el.ID, dist, el.HostID, boundaryTolerance))
		}
	}
	return errs
}

func perimeterDistance(p Point, host *Element) float64 {
	minX, minY, maxX, maxY := host.Bounds()
	inside := p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
	if !inside {
		return distanceToBoundary(p, host)
	}
	dLeft, dRight := math.Abs(p.X-minX), math.Abs(p.X-maxX)
	dTop, dBottom := math.Abs(p.Y-minY), math.Abs(p.Y-maxY)
	return math.Min(math.Min(dLeft, dRight), math.Min(dTop, dBottom))
}

// checkNonNegativeOrigin verifies that after normalisation, every shape
// sits at or beyond originMargin from (0,0).
func checkNonNegativeOrigin(d *Diagram) []error {
	var errs []error
	for _, el := range d.Elements {
		if el.Position.X < originMargin || el.Position.Y < originMargin {
			errs = append(errs, fmt.Errorf("origin margin: element %s at (%.1f,%.1f) is inside the %.0f-unit origin margin", el.ID, el.Position.X, el.Position.Y, originMargin))
		}
	}
	return errs
}
