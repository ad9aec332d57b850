package geometry

import (
	"math"
	"testing"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/layeredlayout"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

func newDiagramWithElements(t *testing.T, elements ...*model.Element) *model.Diagram {
	t.Helper()
	d := model.NewDiagram("Diagram_1", "test")
	for _, el := range elements {
		if err := d.AddElement(el); err != nil {
			t.Fatalf("AddElement(%s): %v", el.ID, err)
		}
	}
	return d
}

func TestNormaliseOriginTranslatesToPositiveMargin(t *testing.T) {
	start := &model.Element{ID: "Start_1", Type: model.StartEvent, Position: model.Point{X: -40, Y: -10}, Size: model.Size{Width: 36, Height: 36}}
	task := &model.Element{ID: "Task_1", Type: model.Task, Position: model.Point{X: 50, Y: -10}, Size: model.Size{Width: 100, Height: 80}}
	d := newDiagramWithElements(t, start, task)

	delta, err := NormaliseOrigin(d, nil, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta == 0 {
		t.Fatalf("expected normalisation to move at least one element")
	}
	if d.Elements["Start_1"].Position.X < 0 || d.Elements["Start_1"].Position.Y < 0 {
		t.Fatalf("expected non-negative origin, got %+v", d.Elements["Start_1"].Position)
	}
}

func TestGridSnapAndResolveOverlapsSeparatesCloseSiblings(t *testing.T) {
	a := &model.Element{ID: "Task_A", Type: model.Task, Position: model.Point{X: 100, Y: 100}, Size: model.Size{Width: 100, Height: 80}}
	b := &model.Element{ID: "Task_B", Type: model.Task, Position: model.Point{X: 100, Y: 110}, Size: model.Size{Width: 100, Height: 80}}
	d := newDiagramWithElements(t, a, b)

	_, err := GridSnapAndResolveOverlaps(d, nil, nil, config.DefaultLayoutConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overlapsAABB(aabbOf(d.Elements["Task_A"]), aabbOf(d.Elements["Task_B"])) {
		t.Fatalf("expected overlap to be resolved, got %+v / %+v", d.Elements["Task_A"].Position, d.Elements["Task_B"].Position)
	}
}

func TestFixBoundaryEventsSpreadsAlongBottomBorder(t *testing.T) {
	host := &model.Element{ID: "Activity_1", Type: model.Task, Position: model.Point{X: 100, Y: 100}, Size: model.Size{Width: 100, Height: 80}}
	b1 := &model.Element{ID: "Boundary_1", Type: model.BoundaryEvent, HostID: "Activity_1", Size: model.Size{Width: 36, Height: 36}}
	b2 := &model.Element{ID: "Boundary_2", Type: model.BoundaryEvent, HostID: "Activity_1", Size: model.Size{Width: 36, Height: 36}}
	d := newDiagramWithElements(t, host, b1, b2)

	_, err := FixBoundaryEvents(d, nil, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Elements["Boundary_1"].Position.X == d.Elements["Boundary_2"].Position.X {
		t.Fatalf("expected boundary events to spread apart, both at X=%v", d.Elements["Boundary_1"].Position.X)
	}
}

func TestFixBoundaryEventsUsesRightBorderWhenRecoveryExitsRightward(t *testing.T) {
	host := &model.Element{ID: "Activity_1", Type: model.Task, Position: model.Point{X: 100, Y: 100}, Size: model.Size{Width: 100, Height: 80}}
	boundary := &model.Element{ID: "Boundary_1", Type: model.BoundaryEvent, HostID: "Activity_1", Position: model.Point{X: 100, Y: 100}, Size: model.Size{Width: 36, Height: 36}}
	recovery := &model.Element{ID: "Task_Recover", Type: model.Task, Position: model.Point{X: 300, Y: 100}, Size: model.Size{Width: 100, Height: 80}}
	d := newDiagramWithElements(t, host, boundary, recovery)
	if err := d.AddEdge(&model.Edge{ID: "Flow_Recover", Type: model.SequenceFlow, SourceID: "Boundary_1", TargetID: "Task_Recover"}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	if _, err := FixBoundaryEvents(d, nil, nil, nil, zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := d.Elements["Boundary_1"]
	_, _, hMaxX, hMaxY := host.Bounds()
	centerX := b.Position.X + b.Size.Width/2
	centerY := b.Position.Y + b.Size.Height/2
	if math.Abs(centerX-hMaxX) > 1 {
		t.Fatalf("expected boundary event centred on the host's right border (x=%v), got centerX=%v", hMaxX, centerX)
	}
	if math.Abs(centerY-hMaxY) < 1 {
		t.Fatalf("expected boundary event to move off the bottom border, got centerY=%v same as host bottom %v", centerY, hMaxY)
	}
}

func TestFixBoundaryEventsUsesTopBorderWhenBottomIsOccupied(t *testing.T) {
	host := &model.Element{ID: "Activity_1", Type: model.Task, Position: model.Point{X: 100, Y: 100}, Size: model.Size{Width: 100, Height: 80}}
	boundary := &model.Element{ID: "Boundary_1", Type: model.BoundaryEvent, HostID: "Activity_1", Position: model.Point{X: 100, Y: 100}, Size: model.Size{Width: 36, Height: 36}}
	blocker := &model.Element{ID: "Task_Below", Type: model.Task, Position: model.Point{X: 100, Y: 220}, Size: model.Size{Width: 100, Height: 80}}
	d := newDiagramWithElements(t, host, boundary, blocker)

	if _, err := FixBoundaryEvents(d, nil, nil, nil, zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := d.Elements["Boundary_1"]
	_, hMinY, _, hMaxY := host.Bounds()
	centerY := b.Position.Y + b.Size.Height/2
	if math.Abs(centerY-hMinY) > 1 {
		t.Fatalf("expected boundary event centred on the host's top border (y=%v), got centerY=%v", hMinY, centerY)
	}
	if math.Abs(centerY-hMaxY) < 1 {
		t.Fatalf("expected boundary event to move off the bottom border, got centerY=%v same as host bottom %v", centerY, hMaxY)
	}
}

func TestSimplifyCollinearWaypointsDropsMiddlePoint(t *testing.T) {
	e := &model.Edge{ID: "Flow_1", SourceID: "A", TargetID: "B", Waypoints: []model.Point{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 100, Y: 0},
	}}
	d := newDiagramWithElements(t,
		&model.Element{ID: "A", Type: model.Task, Size: model.Size{Width: 10, Height: 10}},
		&model.Element{ID: "B", Type: model.Task, Position: model.Point{X: 100}, Size: model.Size{Width: 10, Height: 10}},
	)
	if err := d.AddEdge(e); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	delta := simplifyCollinearWaypoints(d)
	if delta != 1 {
		t.Fatalf("expected 1 simplification, got %d", delta)
	}
	if len(d.Edges["Flow_1"].Waypoints) != 2 {
		t.Fatalf("expected collinear middle point removed, got %+v", d.Edges["Flow_1"].Waypoints)
	}
}

func TestDetectCrossingFlowsCountsIntersection(t *testing.T) {
	d := newDiagramWithElements(t,
		&model.Element{ID: "A", Type: model.Task, Size: model.Size{Width: 10, Height: 10}},
		&model.Element{ID: "B", Type: model.Task, Size: model.Size{Width: 10, Height: 10}},
		&model.Element{ID: "C", Type: model.Task, Size: model.Size{Width: 10, Height: 10}},
		&model.Element{ID: "E", Type: model.Task, Size: model.Size{Width: 10, Height: 10}},
	)
	horiz := &model.Edge{ID: "Flow_H", SourceID: "A", TargetID: "B", Waypoints: []model.Point{{X: 0, Y: 50}, {X: 100, Y: 50}}}
	vert := &model.Edge{ID: "Flow_V", SourceID: "C", TargetID: "E", Waypoints: []model.Point{{X: 50, Y: 0}, {X: 50, Y: 100}}}
	if err := d.AddEdge(horiz); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := d.AddEdge(vert); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	report := DetectCrossingFlows(d)
	if report.Count != 1 {
		t.Fatalf("expected exactly 1 crossing, got %d", report.Count)
	}
}

func TestReduceCrossingsOnlySwapsWhenItReducesCrossings(t *testing.T) {
	colA := &model.Element{ID: "Col_A", Type: model.Task, Position: model.Point{X: 300, Y: 20}}
	colB := &model.Element{ID: "Col_B", Type: model.Task, Position: model.Point{X: 300, Y: 180}}
	anchorA := &model.Element{ID: "Anchor_A", Type: model.Pool, Position: model.Point{X: 300, Y: 250}}
	anchorB := &model.Element{ID: "Anchor_B", Type: model.Pool, Position: model.Point{X: 300, Y: 0}}
	barrierLeft := &model.Element{ID: "Barrier_Left", Type: model.Task, Position: model.Point{X: 250, Y: 100}}
	barrierRight := &model.Element{ID: "Barrier_Right", Type: model.Task, Position: model.Point{X: 350, Y: 100}}
	d := newDiagramWithElements(t, colA, colB, anchorA, anchorB, barrierLeft, barrierRight)

	edges := []*model.Edge{
		{ID: "Flow_A", Type: model.SequenceFlow, SourceID: "Col_A", TargetID: "Anchor_A",
			Waypoints: []model.Point{colA.Position, anchorA.Position}},
		{ID: "Flow_B", Type: model.SequenceFlow, SourceID: "Col_B", TargetID: "Anchor_B",
			Waypoints: []model.Point{colB.Position, anchorB.Position}},
		{ID: "Flow_Barrier", Type: model.SequenceFlow, SourceID: "Barrier_Left", TargetID: "Barrier_Right",
			Waypoints: []model.Point{barrierLeft.Position, barrierRight.Position}},
	}
	for _, e := range edges {
		if err := d.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.ID, err)
		}
	}

	before := DetectCrossingFlows(d).Count
	if before != 2 {
		t.Fatalf("expected the crossed assignment to start with 2 crossings, got %d", before)
	}

	if _, err := ReduceCrossings1st(d, nil, nil, nil, zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := DetectCrossingFlows(d).Count
	if after >= before {
		t.Fatalf("expected ReduceCrossings1st to strictly reduce crossings, got %d -> %d", before, after)
	}
	if after != 0 {
		t.Fatalf("expected the swap to fully untangle this crossing pair, got %d remaining", after)
	}
}

func TestReduceCrossingsLeavesAnAlreadyOptimalOrderAlone(t *testing.T) {
	colA := &model.Element{ID: "Col_A", Type: model.Task, Position: model.Point{X: 300, Y: 180}}
	colB := &model.Element{ID: "Col_B", Type: model.Task, Position: model.Point{X: 300, Y: 20}}
	anchorA := &model.Element{ID: "Anchor_A", Type: model.Pool, Position: model.Point{X: 300, Y: 250}}
	anchorB := &model.Element{ID: "Anchor_B", Type: model.Pool, Position: model.Point{X: 300, Y: 0}}
	barrierLeft := &model.Element{ID: "Barrier_Left", Type: model.Task, Position: model.Point{X: 250, Y: 100}}
	barrierRight := &model.Element{ID: "Barrier_Right", Type: model.Task, Position: model.Point{X: 350, Y: 100}}
	d := newDiagramWithElements(t, colA, colB, anchorA, anchorB, barrierLeft, barrierRight)

	edges := []*model.Edge{
		{ID: "Flow_A", Type: model.SequenceFlow, SourceID: "Col_A", TargetID: "Anchor_A",
			Waypoints: []model.Point{colA.Position, anchorA.Position}},
		{ID: "Flow_B", Type: model.SequenceFlow, SourceID: "Col_B", TargetID: "Anchor_B",
			Waypoints: []model.Point{colB.Position, anchorB.Position}},
		{ID: "Flow_Barrier", Type: model.SequenceFlow, SourceID: "Barrier_Left", TargetID: "Barrier_Right",
			Waypoints: []model.Point{barrierLeft.Position, barrierRight.Position}},
	}
	for _, e := range edges {
		if err := d.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.ID, err)
		}
	}

	before := DetectCrossingFlows(d).Count
	if before != 0 {
		t.Fatalf("expected the untangled assignment to start with 0 crossings, got %d", before)
	}

	if _, err := ReduceCrossings1st(d, nil, nil, nil, zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := DetectCrossingFlows(d).Count; got != 0 {
		t.Fatalf("expected an already-optimal order to stay untangled, got %d crossings", got)
	}
	if colA.Position.Y != 180 || colB.Position.Y != 20 {
		t.Fatalf("expected no swap since it would not reduce crossings, got Col_A.Y=%v Col_B.Y=%v", colA.Position.Y, colB.Position.Y)
	}
}

func TestApplyEdgeRoutesPlacesElementAndEdgeLabels(t *testing.T) {
	task := &model.Element{ID: "Task_1", Type: model.Task, Name: "Review Application", Position: model.Point{X: 100, Y: 100}, Size: model.Size{Width: 100, Height: 80}}
	gw := &model.Element{ID: "Gateway_1", Type: model.ExclusiveGateway, Name: "Approved?", Position: model.Point{X: 300, Y: 100}, Size: model.Size{Width: 50, Height: 50}}
	d := newDiagramWithElements(t, task, gw)
	flow := &model.Edge{ID: "Flow_1", Type: model.SequenceFlow, SourceID: "Task_1", TargetID: "Gateway_1", Label: "submit", Waypoints: []model.Point{{X: 200, Y: 140}, {X: 300, Y: 140}, {X: 300, Y: 125}}}
	if err := d.AddEdge(flow); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	lr := &layeredlayout.Result{Routes: map[string][]model.Point{"Flow_1": flow.Waypoints}}
	cfg := config.DefaultLayoutConfig()

	if _, err := ApplyEdgeRoutes(d, nil, lr, cfg, zerolog.Nop()); err != nil {
		t.Fatalf("ApplyEdgeRoutes: %v", err)
	}

	if d.Elements["Task_1"].LabelBounds == nil {
		t.Fatal("expected Task_1 to have a placed label box")
	}
	if d.Elements["Gateway_1"].LabelBounds == nil {
		t.Fatal("expected Gateway_1 to have a placed label box")
	}
	if d.Edges["Flow_1"].LabelBounds == nil {
		t.Fatal("expected Flow_1 to have a placed label box")
	}
	lb := d.Edges["Flow_1"].LabelBounds
	if lb.Width <= 0 || lb.Height <= 0 {
		t.Fatalf("expected a non-degenerate label box, got %+v", lb)
	}
}

