package graphbuild

import (
	"testing"

	"github.com/dshills/bpmnlayout/pkg/model"
)

func buildXORDiagram(t *testing.T) *model.Diagram {
	t.Helper()
	d := model.NewDiagram("Process_1", "XOR")
	add := func(id string, typ model.ElementType) {
		if err := d.AddElement(&model.Element{ID: id, Type: typ, Size: model.Size{Width: 40, Height: 40}, Position: model.Point{X: 20, Y: 20}}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	add("Start_1", model.StartEvent)
	add("GW_Check", model.ExclusiveGateway)
	add("Task_A", model.Task)
	add("Task_B", model.Task)
	add("GW_Merge", model.ExclusiveGateway)
	add("End_1", model.EndEvent)

	connect := func(id, from, to string, isDefault bool) {
		if err := d.AddEdge(&model.Edge{ID: id, Type: model.SequenceFlow, SourceID: from, TargetID: to, IsDefault: isDefault}); err != nil {
			t.Fatalf("connect %s: %v", id, err)
		}
	}
	connect("Flow_1", "Start_1", "GW_Check", false)
	connect("Flow_Yes", "GW_Check", "Task_A", false)
	connect("Flow_No", "GW_Check", "Task_B", true)
	connect("Flow_2", "Task_A", "GW_Merge", false)
	connect("Flow_3", "Task_B", "GW_Merge", false)
	connect("Flow_4", "GW_Merge", "End_1", false)
	return d
}

func TestBuildIncludesAllElements(t *testing.T) {
	d := buildXORDiagram(t)
	g, err := Build(d, Options{PreserveHappyPath: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Nodes) != 6 {
		t.Fatalf("expected 6 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 6 {
		t.Fatalf("expected 6 edges, got %d", len(g.Edges))
	}
}

func TestHappyPathPrefersDefaultBranch(t *testing.T) {
	d := buildXORDiagram(t)
	g, err := Build(d, Options{PreserveHappyPath: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []string{"Start_1", "GW_Check", "Task_B", "GW_Merge", "End_1"} {
		if !g.HappyPath[id] {
			t.Errorf("expected %s on the happy path", id)
		}
	}
	if g.HappyPath["Task_A"] {
		t.Error("expected Task_A (non-default branch) to be off-path")
	}
}

func TestBuildSubsetPinsExternalEndpoints(t *testing.T) {
	d := buildXORDiagram(t)
	g, err := Build(d, Options{SubsetIDs: []string{"Task_A", "GW_Merge"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node, ok := g.Nodes["GW_Check"]
	if !ok {
		t.Fatal("expected GW_Check to be pinned in as an external endpoint")
	}
	if !node.Pinned {
		t.Error("expected external endpoint to be marked Pinned")
	}
}
