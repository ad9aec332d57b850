package geometry

import (
	"sort"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/layeredlayout"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// RepositionArtifacts is pipeline step 5: text annotations,
// data objects, and data stores aren't part of the flow graph, so they
// never get a LayeredLayoutAdapter position. Place each just above
// whichever flow element it is associated with, centred on it with a 30px
// gap; collisions with other shapes are not checked. This matches the teacher's approach of positioning decorative tiles
// relative to the room they annotate rather than laying them out
// independently.
func RepositionArtifacts(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	delta := 0
	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		if !isArtifact(el.Type) {
			continue
		}
		anchor := associatedElement(d, el.ID)
		if anchor == nil {
			continue
		}
		const gap = 30.0
		newPos := model.Point{
			X: anchor.Position.X + anchor.Size.Width/2 - el.Size.Width/2,
			Y: anchor.Position.Y - el.Size.Height - gap,
		}
		if moved(el.Position, newPos) {
			delta++
		}
		el.Position = newPos
	}
	return delta, nil
}

func isArtifact(t model.ElementType) bool {
	switch t {
	case model.TextAnnotation, model.DataObject, model.DataStore, model.Group:
		return true
	default:
		return false
	}
}

// associatedElement finds the first Association/DataAssociation edge
// touching artifactID and returns the other endpoint.
func associatedElement(d *model.Diagram, artifactID string) *model.Element {
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if e.Type != model.Association && e.Type != model.DataAssociation {
			continue
		}
		if e.SourceID == artifactID {
			if el, ok := d.Elements[e.TargetID]; ok {
				return el
			}
		}
		if e.TargetID == artifactID {
			if el, ok := d.Elements[e.SourceID]; ok {
				return el
			}
		}
	}
	return nil
}

// AlignHappyPathAndOffPathEvents is pipeline step 6. The happy
// path (graphbuild.Graph.HappyPath, derived via a DFS from start events
// preferring isDefault branches) is snapped to a single shared Y, its
// median, to within 1px; every other (off-path) end event is instead
// pulled toward its immediate predecessor's Y, within 5px, so a
// side-branch terminator doesn't drift far from the branch it ends.
func AlignHappyPathAndOffPathEvents(d *model.Diagram, g *graphbuild.Graph, lr *layeredlayout.Result, cfg *config.LayoutConfig, log zerolog.Logger) (int, error) {
	if g == nil || len(g.HappyPath) == 0 {
		return 0, nil
	}
	delta := 0

	var happyYs []float64
	for id := range g.HappyPath {
		if el, ok := d.Elements[id]; ok {
			happyYs = append(happyYs, el.Center().Y)
		}
	}
	if len(happyYs) == 0 {
		return 0, nil
	}
	sort.Float64s(happyYs)
	medianY := happyYs[len(happyYs)/2]

	ids := sortedElementIDs(d)
	for _, id := range ids {
		el := d.Elements[id]
		if !g.HappyPath[id] {
			continue
		}
		targetY := medianY - el.Size.Height/2
		if abs64(el.Position.Y-targetY) > 1 {
			el.Position.Y = targetY
			delta++
		}
	}

	for _, id := range ids {
		el := d.Elements[id]
		if el.Type != model.EndEvent || g.HappyPath[id] {
			continue
		}
		pred := firstPredecessor(d, id)
		if pred == nil {
			continue
		}
		targetY := pred.Center().Y - el.Size.Height/2
		if abs64(el.Position.Y-targetY) > 5 {
			el.Position.Y = targetY
			delta++
		}
	}
	return delta, nil
}

func firstPredecessor(d *model.Diagram, elementID string) *model.Element {
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if e.Type == model.SequenceFlow && e.TargetID == elementID {
			if el, ok := d.Elements[e.SourceID]; ok {
				return el
			}
		}
	}
	return nil
}

func abs64(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
