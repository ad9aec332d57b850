package model

import "testing"

func newTestElement(id string, typ ElementType, x, y, w, h float64) *Element {
	return &Element{ID: id, Type: typ, Position: Point{X: x, Y: y}, Size: Size{Width: w, Height: h}}
}

func mustAddElement(t *testing.T, d *Diagram, el *Element) {
	t.Helper()
	if err := d.AddElement(el); err != nil {
		t.Fatalf("failed to add element %s: %v", el.ID, err)
	}
}

func mustAddEdge(t *testing.T, d *Diagram, e *Edge) {
	t.Helper()
	if err := d.AddEdge(e); err != nil {
		t.Fatalf("failed to add edge %s: %v", e.ID, err)
	}
}

func TestNewDiagramEmpty(t *testing.T) {
	d := NewDiagram("d1", "Process")
	if len(d.Elements) != 0 || len(d.Edges) != 0 {
		t.Fatalf("expected empty diagram, got %d elements, %d edges", len(d.Elements), len(d.Edges))
	}
}

func TestAddElementRejectsDuplicateID(t *testing.T) {
	d := NewDiagram("d1", "Process")
	mustAddElement(t, d, newTestElement("Start_1", StartEvent, 20, 20, 36, 36))
	if err := d.AddElement(newTestElement("Start_1", EndEvent, 100, 20, 36, 36)); err == nil {
		t.Fatal("expected error adding duplicate element ID")
	}
}

func TestAddEdgeRejectsMissingEndpoints(t *testing.T) {
	d := NewDiagram("d1", "Process")
	mustAddElement(t, d, newTestElement("Start_1", StartEvent, 20, 20, 36, 36))
	e := &Edge{ID: "Flow_1", Type: SequenceFlow, SourceID: "Start_1", TargetID: "MissingTask"}
	if err := d.AddEdge(e); err == nil {
		t.Fatal("expected error for edge referencing missing target")
	}
}

func TestBoundaryEventRequiresActivityHost(t *testing.T) {
	d := NewDiagram("d1", "Process")
	mustAddElement(t, d, newTestElement("Start_1", StartEvent, 20, 20, 36, 36))
	be := newTestElement("Boundary_1", BoundaryEvent, 80, 56, 32, 32)
	be.HostID = "Start_1"
	if err := d.AddElement(be); err == nil {
		t.Fatal("expected error attaching boundary event to a non-activity host")
	}
}

func TestRemoveElementCascadesEdges(t *testing.T) {
	d := NewDiagram("d1", "Process")
	mustAddElement(t, d, newTestElement("Start_1", StartEvent, 20, 20, 36, 36))
	mustAddElement(t, d, newTestElement("Task_1", Task, 120, 20, 100, 80))
	mustAddEdge(t, d, &Edge{ID: "Flow_1", Type: SequenceFlow, SourceID: "Start_1", TargetID: "Task_1"})

	if err := d.RemoveElement("Task_1"); err != nil {
		t.Fatalf("unexpected error removing element: %v", err)
	}
	if _, exists := d.Edges["Flow_1"]; exists {
		t.Fatal("expected edge Flow_1 to be removed along with its target element")
	}
}

func TestSuccessorsFollowsSequenceFlowOnly(t *testing.T) {
	d := NewDiagram("d1", "Process")
	mustAddElement(t, d, newTestElement("Start_1", StartEvent, 20, 20, 36, 36))
	mustAddElement(t, d, newTestElement("Task_1", Task, 120, 20, 100, 80))
	mustAddElement(t, d, newTestElement("Pool_2_Task", Task, 400, 20, 100, 80))
	mustAddEdge(t, d, &Edge{ID: "Flow_1", Type: SequenceFlow, SourceID: "Start_1", TargetID: "Task_1"})
	mustAddEdge(t, d, &Edge{ID: "Msg_1", Type: MessageFlow, SourceID: "Task_1", TargetID: "Pool_2_Task"})

	succ := d.Successors("Task_1")
	if len(succ) != 0 {
		t.Fatalf("expected message flows to be excluded from Successors, got %v", succ)
	}
}

func TestCheckInvariantsDetectsOverlap(t *testing.T) {
	d := NewDiagram("d1", "Process")
	mustAddElement(t, d, newTestElement("Task_1", Task, 100, 100, 100, 80))
	mustAddElement(t, d, newTestElement("Task_2", Task, 120, 110, 100, 80))

	errs := CheckInvariants(d)
	found := false
	for _, e := range errs {
		if e != nil {
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one invariant violation for overlapping siblings")
	}
}

func TestCheckInvariantsCleanDiagram(t *testing.T) {
	d := NewDiagram("d1", "Process")
	mustAddElement(t, d, newTestElement("Start_1", StartEvent, 20, 20, 36, 36))
	mustAddElement(t, d, newTestElement("Task_1", Task, 150, 20, 100, 60))
	mustAddElement(t, d, newTestElement("End_1", EndEvent, 320, 20, 36, 36))
	mustAddEdge(t, d, &Edge{ID: "Flow_1", Type: SequenceFlow, SourceID: "Start_1", TargetID: "Task_1",
		Waypoints: []Point{{X: 56, Y: 38}, {X: 150, Y: 38}}})
	mustAddEdge(t, d, &Edge{ID: "Flow_2", Type: SequenceFlow, SourceID: "Task_1", TargetID: "End_1",
		Waypoints: []Point{{X: 250, Y: 38}, {X: 320, Y: 38}}})

	if errs := CheckInvariants(d); len(errs) != 0 {
		t.Fatalf("expected no invariant violations, got %v", errs)
	}
}
