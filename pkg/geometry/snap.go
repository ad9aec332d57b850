package geometry

import (
	"math"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/layeredlayout"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

const gridSize = 10.0

func snapToGrid(v float64) float64 {
	return math.Round(v/gridSize) * gridSize
}

// SnapAndAlignLayers is pipeline step 3: round layer
// X-coordinates to a 10px grid.
func SnapAndAlignLayers(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	delta := 0
	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		before := el.Position
		el.Position.X = snapToGrid(el.Position.X)
		if moved(before, el.Position) {
			delta++
		}
	}
	return delta, nil
}

// minGapFor returns the minimum horizontal gap gridSnapAndResolveOverlaps
// wants between two element types: a larger gap between an event and a
// task than between two tasks of the same kind.
func minGapFor(a, b model.ElementType) float64 {
	if a.IsEvent() != b.IsEvent() {
		return 30
	}
	return 20
}

// GridSnapAndResolveOverlaps is pipeline step 4: type-aware
// X-gap adjustment, then vertical overlap resolution via resolveOverlaps
// with a 50px minimum gap. Happy-path membership does not decide which
// element of an overlapping pair moves, and the moved element is pushed
// one way only, not outward symmetrically.
func GridSnapAndResolveOverlaps(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	delta := 0
	ids := sortedElementIDs(d)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := d.Elements[ids[i]], d.Elements[ids[j]]
			if a.ParentID != b.ParentID {
				continue
			}
			gap := minGapFor(a.Type, b.Type)
			if horizontallyTooClose(a, b, gap) {
				if pushApartHorizontally(a, b, gap) {
					delta++
				}
			}
		}
	}
	return resolveOverlaps(d, g, 50, delta)
}

func horizontallyTooClose(a, b *model.Element, gap float64) bool {
	aMinX, aMinY, aMaxX, aMaxY := a.Bounds()
	bMinX, bMinY, bMaxX, bMaxY := b.Bounds()
	if aMaxY < bMinY || bMaxY < aMinY {
		return false // different rows, horizontal gap is irrelevant
	}
	if aMaxX <= bMinX {
		return bMinX-aMaxX < gap
	}
	if bMaxX <= aMinX {
		return aMinX-bMaxX < gap
	}
	return false
}

func pushApartHorizontally(a, b *model.Element, gap float64) bool {
	_, _, aMaxX, _ := a.Bounds()
	bMinX, _, _, _ := b.Bounds()
	if aMaxX <= bMinX {
		shift := gap - (bMinX - aMaxX)
		if shift <= 0 {
			return false
		}
		b.Position.X += shift
		return true
	}
	return false
}

// resolveOverlaps is the shared implementation behind
// resolveOverlaps-2nd/3rd: push overlapping siblings apart vertically. For
// each overlapping pair, visited in ID order, the element with the lower ID
// stays put and the other moves away from it until minGap separates them.
func resolveOverlaps(d *model.Diagram, g *graphbuild.Graph, minGap float64, priorDelta int) (int, error) {
	delta := priorDelta
	ids := sortedElementIDs(d)
	for pass := 0; pass < 5; pass++ {
		changedThisPass := false
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := d.Elements[ids[i]], d.Elements[ids[j]]
				if a.ParentID != b.ParentID {
					continue
				}
				if a.Type == model.BoundaryEvent || b.Type == model.BoundaryEvent {
					continue
				}
				if !overlapsAABB(aabbOf(a), aabbOf(b)) {
					continue
				}
				moveB := verticalOverlapAmount(a, b) + minGap
				if moveB <= 0 {
					continue
				}
				before := b.Position
				if a.Position.Y <= b.Position.Y {
					b.Position.Y += moveB
				} else {
					b.Position.Y -= moveB
				}
				if moved(before, b.Position) {
					delta++
					changedThisPass = true
				}
			}
		}
		if !changedThisPass {
			break
		}
	}
	return delta, nil
}

func verticalOverlapAmount(a, b *model.Element) float64 {
	_, aMinY, _, aMaxY := a.Bounds()
	_, bMinY, _, bMaxY := b.Bounds()
	if aMaxY < bMinY || bMaxY < aMinY {
		return math.Max(aMaxY, bMaxY) // no overlap: treat as already satisfied
	}
	return math.Min(aMaxY, bMaxY) - math.Max(aMinY, bMinY)
}

// ResolveOverlaps2nd is pipeline step 7.
func ResolveOverlaps2nd(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	return resolveOverlaps(d, g, 50, 0)
}

// ResolveOverlaps3rd is pipeline step 11.
func ResolveOverlaps3rd(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	return resolveOverlaps(d, g, 50, 0)
}

// NormaliseOrigin is pipeline step 13: translate the entire
// diagram so the smallest X and the smallest Y among top-level shapes'
// positions each equal a small positive margin, satisfying I10; nested
// shapes and waypoints are shifted by the same amount but do not anchor it. Grounded on the teacher's
// dungeon.normalizeEmbeddingLayout, which performs the identical
// translate-to-non-negative-origin step before the carving stage.
func NormaliseOrigin(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	for _, el := range d.Elements {
		if el.ParentID != "" {
			continue // only top-plane shapes anchor the translation
		}
		if el.Position.X < minX {
			minX = el.Position.X
		}
		if el.Position.Y < minY {
			minY = el.Position.Y
		}
	}
	if math.IsInf(minX, 1) {
		return 0, nil
	}

	const margin = originMarginUnits
	dx := margin - minX
	dy := margin - minY
	if math.Abs(dx) < 0.5 && math.Abs(dy) < 0.5 {
		return 0, nil
	}

	delta := 0
	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		before := el.Position
		el.Position.X += dx
		el.Position.Y += dy
		if moved(before, el.Position) {
			delta++
		}
	}
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		for i := range e.Waypoints {
			e.Waypoints[i].X += dx
			e.Waypoints[i].Y += dy
		}
	}
	return delta, nil
}

// originMarginUnits matches model.originMargin; duplicated here (rather
// than exported from pkg/model) because the geometry layer should not
// reach into model's invariant-checking internals, only agree with its
// contract.
const originMarginUnits = 20.0
