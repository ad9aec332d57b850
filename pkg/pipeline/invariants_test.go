package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
	"pgregory.net/rapid"
)

// genChainDiagram builds a random-length linear chain of tasks between a
// start and end event, the minimal shape every layout property test below
// exercises.
func genChainDiagram(t *rapid.T) *model.Diagram {
	n := rapid.IntRange(1, 8).Draw(t, "taskCount")
	d := model.NewDiagram("Diagram_1", "generated chain")

	must := func(err error) {
		if err != nil {
			t.Fatalf("unexpected model error: %v", err)
		}
	}

	must(d.AddElement(&model.Element{ID: "Start_1", Type: model.StartEvent, Size: model.Size{Width: 36, Height: 36}}))
	prev := "Start_1"
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("Task_%d", i)
		must(d.AddElement(&model.Element{ID: id, Type: model.Task, Size: model.Size{Width: 100, Height: 80}}))
		must(d.AddEdge(&model.Edge{ID: "Flow_" + id, SourceID: prev, TargetID: id, Type: model.SequenceFlow}))
		prev = id
	}
	must(d.AddElement(&model.Element{ID: "End_1", Type: model.EndEvent, Size: model.Size{Width: 36, Height: 36}}))
	must(d.AddEdge(&model.Edge{ID: "Flow_End", SourceID: prev, TargetID: "End_1", Type: model.SequenceFlow}))
	return d
}

// TestPipelineKeepsNonNegativeOrigin checks that no shape ever lands at a
// negative coordinate after layout, across randomly-sized chains.
func TestPipelineKeepsNonNegativeOrigin(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := genChainDiagram(rt)
		g, err := graphbuild.Build(d, graphbuild.Options{Direction: "RIGHT", PreserveHappyPath: true})
		if err != nil {
			rt.Fatalf("graphbuild.Build: %v", err)
		}
		if _, err := Run(context.Background(), d, g, config.DefaultLayoutConfig(), "RIGHT", zerolog.Nop()); err != nil {
			rt.Fatalf("Run: %v", err)
		}
		for _, el := range d.Elements {
			if el.Position.X < 0 || el.Position.Y < 0 {
				rt.Fatalf("element %s has negative origin: %+v", el.ID, el.Position)
			}
		}
	})
}

// TestPipelineKeepsOrthogonalRoutes checks that every edge segment is
// axis-aligned after the pipeline's snapAllConnectionsOrthogonal sub-step
// runs.
func TestPipelineKeepsOrthogonalRoutes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := genChainDiagram(rt)
		g, err := graphbuild.Build(d, graphbuild.Options{Direction: "RIGHT", PreserveHappyPath: true})
		if err != nil {
			rt.Fatalf("graphbuild.Build: %v", err)
		}
		if _, err := Run(context.Background(), d, g, config.DefaultLayoutConfig(), "RIGHT", zerolog.Nop()); err != nil {
			rt.Fatalf("Run: %v", err)
		}
		const tolerance = 1.0
		for _, e := range d.Edges {
			for i := 0; i+1 < len(e.Waypoints); i++ {
				dx := e.Waypoints[i].X - e.Waypoints[i+1].X
				dy := e.Waypoints[i].Y - e.Waypoints[i+1].Y
				if absf(dx) > tolerance && absf(dy) > tolerance {
					rt.Fatalf("edge %s segment %d is diagonal: %+v -> %+v", e.ID, i, e.Waypoints[i], e.Waypoints[i+1])
				}
			}
		}
	})
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
