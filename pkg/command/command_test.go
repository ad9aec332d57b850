package command

import (
	"testing"

	"github.com/dshills/bpmnlayout/pkg/gateway"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

func newTestService() *Service {
	return New(nil, nil, zerolog.Nop())
}

func TestUndoRestoresPreMutationState(t *testing.T) {
	s := newTestService()
	d, err := s.CreateDiagram(CreateDiagramOptions{Name: "Order Process"})
	if err != nil {
		t.Fatalf("create diagram: %v", err)
	}

	start, err := s.AddElement(AddElementOptions{DiagramID: d.ID, Type: model.StartEvent, Name: "Start"})
	if err != nil {
		t.Fatalf("add start: %v", err)
	}
	countBefore := len(d.Elements)

	task, err := s.AddElement(AddElementOptions{DiagramID: d.ID, Type: model.Task, Name: "Review"})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := s.ConnectElements(ConnectElementsOptions{DiagramID: d.ID, SourceID: start.ID, TargetID: task.ID}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if len(d.Elements) == countBefore {
		t.Fatalf("expected element count to grow after adding task, got %d", len(d.Elements))
	}

	if err := s.Undo(d.ID); err != nil {
		t.Fatalf("undo connect: %v", err)
	}
	if err := s.Undo(d.ID); err != nil {
		t.Fatalf("undo add task: %v", err)
	}

	restored, err := s.store.Get(d.ID)
	if err != nil {
		t.Fatalf("get after undo: %v", err)
	}
	if len(restored.Elements) != countBefore {
		t.Fatalf("expected %d elements after undoing back to start, got %d", countBefore, len(restored.Elements))
	}
	if _, ok := restored.Elements[task.ID]; ok {
		t.Fatalf("task %s should not exist after undo", task.ID)
	}

	if err := s.Redo(d.ID); err != nil {
		t.Fatalf("redo: %v", err)
	}
	afterRedo, _ := s.store.Get(d.ID)
	if _, ok := afterRedo.Elements[task.ID]; !ok {
		t.Fatalf("task %s should be restored after redo", task.ID)
	}
}

func TestUndoSnapshotIsIndependentOfLiveDiagram(t *testing.T) {
	// Regression test: checkpointed() must snapshot a deep copy before the
	// caller mutates the live diagram in place, or the undo stack entry
	// mutates along with it.
	s := newTestService()
	d, _ := s.CreateDiagram(CreateDiagramOptions{Name: "P"})
	start, _ := s.AddElement(AddElementOptions{DiagramID: d.ID, Type: model.StartEvent, Name: "Start"})
	countAfterFirstAdd := len(d.Elements)

	if _, err := s.AddElement(AddElementOptions{DiagramID: d.ID, Type: model.Task, Name: "T"}); err != nil {
		t.Fatalf("add task: %v", err)
	}

	if err := s.Undo(d.ID); err != nil {
		t.Fatalf("undo: %v", err)
	}
	restored, _ := s.store.Get(d.ID)
	if len(restored.Elements) != countAfterFirstAdd {
		t.Fatalf("undo snapshot was corrupted by later mutation: want %d elements, got %d", countAfterFirstAdd, len(restored.Elements))
	}
	if _, ok := restored.Elements[start.ID]; !ok {
		t.Fatalf("start event missing from restored snapshot")
	}
}

func TestSetLoopCharacteristicsRejectsNonActivity(t *testing.T) {
	s := newTestService()
	d, _ := s.CreateDiagram(CreateDiagramOptions{Name: "P"})
	start, _ := s.AddElement(AddElementOptions{DiagramID: d.ID, Type: model.StartEvent, Name: "Start"})

	if err := s.SetLoopCharacteristics(d.ID, start.ID, "standard", true); err == nil {
		t.Fatalf("expected TypeMismatch setting loop characteristics on a start event")
	}

	task, _ := s.AddElement(AddElementOptions{DiagramID: d.ID, Type: model.Task, Name: "Review"})
	if err := s.SetLoopCharacteristics(d.ID, task.ID, "multiInstanceParallel", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMoveElementAppliesPartialResizeThroughCheckpoint(t *testing.T) {
	s := newTestService()
	d, _ := s.CreateDiagram(CreateDiagramOptions{Name: "P"})
	task, _ := s.AddElement(AddElementOptions{DiagramID: d.ID, Type: model.Task, Name: "Review"})
	origX := task.Position.X

	width := 200.0
	if err := s.MoveElement(d.ID, task.ID, gateway.MoveElementOptions{Width: &width}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Size.Width != 200 {
		t.Fatalf("expected width 200, got %v", task.Size.Width)
	}
	if task.Position.X != origX {
		t.Fatalf("expected position untouched by a resize-only move")
	}

	if err := s.MoveElement(d.ID, task.ID, gateway.MoveElementOptions{}); err == nil {
		t.Fatal("expected error moving with no fields set")
	}
}

func TestCreateCollaborationAssignsExistingElementsToFirstParticipant(t *testing.T) {
	s := newTestService()
	d, _ := s.CreateDiagram(CreateDiagramOptions{Name: "P"})
	start, _ := s.AddElement(AddElementOptions{DiagramID: d.ID, Type: model.StartEvent, Name: "Start"})

	pools, err := s.CreateCollaboration(CreateCollaborationOptions{DiagramID: d.ID, Participants: []string{"Customer", "Sales"}})
	if err != nil {
		t.Fatalf("create collaboration: %v", err)
	}
	if len(pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(pools))
	}
	got := d.Elements[start.ID]
	if got.ParentID != pools[0].ID {
		t.Fatalf("expected pre-existing start event reassigned to first pool %s, got parent %s", pools[0].ID, got.ParentID)
	}
}

func TestBatchOperationsStopOnErrorAbortsAndReports(t *testing.T) {
	s := newTestService()
	d, _ := s.CreateDiagram(CreateDiagramOptions{Name: "P"})

	ops := []BatchOperation{
		{Kind: "addElement", Add: &AddElementOptions{DiagramID: d.ID, Type: model.StartEvent, Name: "Start"}},
		{Kind: "connect", Conn: &ConnectElementsOptions{DiagramID: d.ID, SourceID: "missing", TargetID: "also-missing"}},
	}
	report, err := s.BatchOperations(d.ID, ops, true)
	if err == nil {
		t.Fatalf("expected the batch to abort on the failing connect op")
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("expected 1 succeeded, 1 failed; got succeeded=%d failed=%d", report.Succeeded, report.Failed)
	}
}
