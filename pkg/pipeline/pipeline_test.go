package pipeline

import (
	"context"
	"testing"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// linearChainDiagram builds Start -> Task -> End, the §8 "Linear chain"
// scenario.
func linearChainDiagram(t *testing.T) *model.Diagram {
	t.Helper()
	d := model.NewDiagram("Diagram_1", "Linear chain")
	start := &model.Element{ID: "Start_1", Type: model.StartEvent, Size: model.Size{Width: 36, Height: 36}}
	task := &model.Element{ID: "Task_1", Type: model.Task, Size: model.Size{Width: 100, Height: 80}}
	end := &model.Element{ID: "End_1", Type: model.EndEvent, Size: model.Size{Width: 36, Height: 36}}
	for _, el := range []*model.Element{start, task, end} {
		if err := d.AddElement(el); err != nil {
			t.Fatalf("AddElement(%s): %v", el.ID, err)
		}
	}
	edges := []*model.Edge{
		{ID: "Flow_1", SourceID: "Start_1", TargetID: "Task_1", Type: model.SequenceFlow},
		{ID: "Flow_2", SourceID: "Task_1", TargetID: "End_1", Type: model.SequenceFlow},
	}
	for _, e := range edges {
		if err := d.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.ID, err)
		}
	}
	return d
}

func TestRunLinearChainProducesLeftToRightLayout(t *testing.T) {
	d := linearChainDiagram(t)
	g, err := graphbuild.Build(d, graphbuild.Options{Direction: "RIGHT", PreserveHappyPath: true})
	if err != nil {
		t.Fatalf("graphbuild.Build: %v", err)
	}

	metrics, err := Run(context.Background(), d, g, config.DefaultLayoutConfig(), "RIGHT", zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(metrics.Steps) == 0 {
		t.Fatalf("expected step metrics to be recorded")
	}

	start := d.Elements["Start_1"]
	task := d.Elements["Task_1"]
	end := d.Elements["End_1"]
	if start.Position.X >= task.Position.X || task.Position.X >= end.Position.X {
		t.Fatalf("expected monotonically increasing X along the happy path: %v, %v, %v",
			start.Position.X, task.Position.X, end.Position.X)
	}
	if start.Position.X < 0 || start.Position.Y < 0 {
		t.Fatalf("expected non-negative origin after normaliseOrigin, got %+v", start.Position)
	}
}

func TestRunXORSplitJoinKeepsDefaultBranchOnHappyPathRow(t *testing.T) {
	d := model.NewDiagram("Diagram_1", "XOR split/join")
	elements := []*model.Element{
		{ID: "Start_1", Type: model.StartEvent, Size: model.Size{Width: 36, Height: 36}},
		{ID: "Gateway_Split", Type: model.ExclusiveGateway, Size: model.Size{Width: 50, Height: 50}},
		{ID: "Task_Yes", Type: model.Task, Size: model.Size{Width: 100, Height: 80}},
		{ID: "Task_No", Type: model.Task, Size: model.Size{Width: 100, Height: 80}},
		{ID: "Gateway_Join", Type: model.ExclusiveGateway, Size: model.Size{Width: 50, Height: 50}},
		{ID: "End_1", Type: model.EndEvent, Size: model.Size{Width: 36, Height: 36}},
	}
	for _, el := range elements {
		if err := d.AddElement(el); err != nil {
			t.Fatalf("AddElement(%s): %v", el.ID, err)
		}
	}
	edges := []*model.Edge{
		{ID: "Flow_1", SourceID: "Start_1", TargetID: "Gateway_Split", Type: model.SequenceFlow},
		{ID: "Flow_Default", SourceID: "Gateway_Split", TargetID: "Task_No", Type: model.SequenceFlow, IsDefault: true},
		{ID: "Flow_Yes", SourceID: "Gateway_Split", TargetID: "Task_Yes", Type: model.SequenceFlow},
		{ID: "Flow_2", SourceID: "Task_Yes", TargetID: "Gateway_Join", Type: model.SequenceFlow},
		{ID: "Flow_3", SourceID: "Task_No", TargetID: "Gateway_Join", Type: model.SequenceFlow},
		{ID: "Flow_4", SourceID: "Gateway_Join", TargetID: "End_1", Type: model.SequenceFlow},
	}
	for _, e := range edges {
		if err := d.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.ID, err)
		}
	}

	g, err := graphbuild.Build(d, graphbuild.Options{Direction: "RIGHT", PreserveHappyPath: true})
	if err != nil {
		t.Fatalf("graphbuild.Build: %v", err)
	}
	if !g.HappyPath["Task_No"] {
		t.Fatalf("expected the default branch (Task_No) to be on the happy path")
	}

	if _, err := Run(context.Background(), d, g, config.DefaultLayoutConfig(), "RIGHT", zerolog.Nop()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	start := d.Elements["Start_1"]
	happyEnd := d.Elements["Task_No"]
	startY, happyY := start.Center().Y, happyEnd.Center().Y
	if startY != happyY {
		// within 1px per alignHappyPathAndOffPathEvents' contract
		diff := startY - happyY
		if diff < -1 || diff > 1 {
			t.Fatalf("expected happy-path element aligned to the start row, got start=%v happy=%v", startY, happyY)
		}
	}
}
