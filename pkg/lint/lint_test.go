package lint

import (
	"testing"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/model"
)

func TestRunFlagsMissingStartAndEndEvent(t *testing.T) {
	d := model.NewDiagram("Diagram_1", "no endpoints")
	if err := d.AddElement(&model.Element{ID: "Task_1", Type: model.Task, Size: model.Size{Width: 100, Height: 80}}); err != nil {
		t.Fatalf("AddElement: %v", err)
	}

	report := Run(d, config.DefaultLintConfig())
	var sawStart, sawEnd bool
	for _, f := range report.Findings {
		switch f.Rule {
		case "missing-start-event":
			sawStart = true
		case "missing-end-event":
			sawEnd = true
		}
	}
	if !sawStart || !sawEnd {
		t.Fatalf("expected both missing-start-event and missing-end-event findings, got %+v", report.Findings)
	}
}

func TestRunIncrementalExcludesWarnings(t *testing.T) {
	d := model.NewDiagram("Diagram_1", "no endpoints")
	findings := RunIncremental(d, config.DefaultLintConfig())
	for _, f := range findings {
		if f.Severity != SeverityError {
			t.Fatalf("expected only error-severity findings from RunIncremental, got %+v", f)
		}
	}
}

func TestCheckAmbiguousGatewayDefaultFlagsMultipleDefaults(t *testing.T) {
	d := model.NewDiagram("Diagram_1", "test")
	elements := []*model.Element{
		{ID: "Gateway_1", Type: model.ExclusiveGateway, Size: model.Size{Width: 50, Height: 50}},
		{ID: "Task_A", Type: model.Task, Size: model.Size{Width: 100, Height: 80}},
		{ID: "Task_B", Type: model.Task, Size: model.Size{Width: 100, Height: 80}},
	}
	for _, el := range elements {
		if err := d.AddElement(el); err != nil {
			t.Fatalf("AddElement(%s): %v", el.ID, err)
		}
	}
	edges := []*model.Edge{
		{ID: "Flow_A", SourceID: "Gateway_1", TargetID: "Task_A", Type: model.SequenceFlow, IsDefault: true},
		{ID: "Flow_B", SourceID: "Gateway_1", TargetID: "Task_B", Type: model.SequenceFlow, IsDefault: true},
	}
	for _, e := range edges {
		if err := d.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.ID, err)
		}
	}

	report := Run(d, config.DefaultLintConfig())
	found := false
	for _, f := range report.Findings {
		if f.Rule == "ambiguous-gateway-default" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ambiguous-gateway-default finding, got %+v", report.Findings)
	}
}
