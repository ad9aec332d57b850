package layeredlayout

import (
	"testing"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/model"
)

func linearChainGraph() *graphbuild.Graph {
	g := &graphbuild.Graph{
		Nodes:     make(map[string]*graphbuild.Node),
		Edges:     make(map[string]*graphbuild.Edge),
		Adjacency: make(map[string][]string),
		HappyPath: make(map[string]bool),
	}
	g.Nodes["Start_1"] = &graphbuild.Node{ID: "Start_1", Size: model.Size{Width: 36, Height: 36}}
	g.Nodes["Task_1"] = &graphbuild.Node{ID: "Task_1", Size: model.Size{Width: 100, Height: 80}}
	g.Nodes["End_1"] = &graphbuild.Node{ID: "End_1", Size: model.Size{Width: 36, Height: 36}}
	g.Edges["Flow_1"] = &graphbuild.Edge{ID: "Flow_1", From: "Start_1", To: "Task_1", Type: model.SequenceFlow}
	g.Edges["Flow_2"] = &graphbuild.Edge{ID: "Flow_2", From: "Task_1", To: "End_1", Type: model.SequenceFlow}
	g.Adjacency["Start_1"] = []string{"Task_1"}
	g.Adjacency["Task_1"] = []string{"End_1"}
	return g
}

func TestRunAssignsIncreasingLayersAlongChain(t *testing.T) {
	g := linearChainGraph()
	res, err := Run(g, config.DefaultLayoutConfig(), "RIGHT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Positions["Start_1"].X >= res.Positions["Task_1"].X {
		t.Fatalf("expected Task_1 to sit to the right of Start_1: %+v vs %+v", res.Positions["Start_1"], res.Positions["Task_1"])
	}
	if res.Positions["Task_1"].X >= res.Positions["End_1"].X {
		t.Fatalf("expected End_1 to sit to the right of Task_1")
	}
}

func TestRunProducesOrthogonalRoutes(t *testing.T) {
	g := linearChainGraph()
	res, err := Run(g, config.DefaultLayoutConfig(), "RIGHT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for id, route := range res.Routes {
		for i := 0; i+1 < len(route); i++ {
			dx := route[i].X - route[i+1].X
			dy := route[i].Y - route[i+1].Y
			if abs(dx) > 0.1 && abs(dy) > 0.1 {
				t.Errorf("edge %s segment %d is diagonal: %+v -> %+v", id, i, route[i], route[i+1])
			}
		}
	}
}

func TestBreakCyclesDetectsBackEdge(t *testing.T) {
	g := linearChainGraph()
	g.Adjacency["End_1"] = []string{"Start_1"} // artificial back-edge
	g.Edges["Flow_Loop"] = &graphbuild.Edge{ID: "Flow_Loop", From: "End_1", To: "Start_1", Type: model.SequenceFlow}

	reversed := breakCycles(g)
	if len(reversed) != 1 {
		t.Fatalf("expected exactly one back-edge detected, got %d", len(reversed))
	}
}
