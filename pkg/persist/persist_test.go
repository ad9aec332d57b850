package persist

import (
	"path/filepath"
	"testing"

	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

func TestSaveSyncAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := Store{Dir: dir, Log: zerolog.Nop()}

	d := model.NewDiagram("diagram_test_abc123def456", "Order Process")
	start := &model.Element{ID: "StartEvent_Start", Type: model.StartEvent, Position: model.Point{X: 0, Y: 0}, Size: model.Size{Width: 36, Height: 36}}
	if err := d.AddElement(start); err != nil {
		t.Fatalf("add element: %v", err)
	}

	if err := s.SaveSync(d); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.Load(d.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := loaded.Elements[start.ID]; !ok {
		t.Fatalf("expected loaded diagram to contain %s", start.ID)
	}
}

func TestDisabledStoreIsNoOp(t *testing.T) {
	s := Store{}
	if s.Enabled() {
		t.Fatalf("expected a Store with no Dir to be disabled")
	}
	if err := s.SaveSync(model.NewDiagram("d1", "x")); err != nil {
		t.Fatalf("expected SaveSync to no-op when disabled, got %v", err)
	}
	if _, err := s.Load("d1"); err == nil {
		t.Fatalf("expected Load to fail when disabled")
	}
}

func TestDeleteRemovesPersistedFiles(t *testing.T) {
	dir := t.TempDir()
	s := Store{Dir: dir, Log: zerolog.Nop()}
	d := model.NewDiagram("diagram_test_del", "Del Me")
	if err := s.SaveSync(d); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(d.ID); err == nil {
		t.Fatalf("expected load to fail after delete")
	}
	if _, statErr := filepath.Abs(dir); statErr != nil {
		t.Fatalf("unexpected path error: %v", statErr)
	}
}
