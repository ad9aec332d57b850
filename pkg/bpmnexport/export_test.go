package bpmnexport

import (
	"testing"

	"github.com/dshills/bpmnlayout/pkg/model"
)

func sampleDiagram(t *testing.T) *model.Diagram {
	t.Helper()
	d := model.NewDiagram("Diagram_1", "Sample")
	elements := []*model.Element{
		{ID: "Start_1", Type: model.StartEvent, Position: model.Point{X: 20, Y: 20}, Size: model.Size{Width: 36, Height: 36}},
		{ID: "Task_1", Type: model.Task, Name: "Do work", Position: model.Point{X: 100, Y: 10}, Size: model.Size{Width: 100, Height: 80}},
		{ID: "End_1", Type: model.EndEvent, Position: model.Point{X: 250, Y: 20}, Size: model.Size{Width: 36, Height: 36}},
	}
	for _, el := range elements {
		if err := d.AddElement(el); err != nil {
			t.Fatalf("AddElement(%s): %v", el.ID, err)
		}
	}
	edges := []*model.Edge{
		{ID: "Flow_1", Type: model.SequenceFlow, SourceID: "Start_1", TargetID: "Task_1",
			Waypoints: []model.Point{{X: 56, Y: 38}, {X: 100, Y: 38}}},
		{ID: "Flow_2", Type: model.SequenceFlow, SourceID: "Task_1", TargetID: "End_1",
			Label: "approved", ConditionExpression: "${approved == true}",
			Waypoints: []model.Point{{X: 200, Y: 38}, {X: 250, Y: 38}}},
	}
	for _, e := range edges {
		if err := d.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.ID, err)
		}
	}
	return d
}

func TestJSONRoundTripPreservesElementsAndEdges(t *testing.T) {
	d := sampleDiagram(t)
	data, err := ExportJSON(d)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(data)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if len(got.Elements) != len(d.Elements) || len(got.Edges) != len(d.Edges) {
		t.Fatalf("round trip element/edge count mismatch: got %d/%d want %d/%d",
			len(got.Elements), len(got.Edges), len(d.Elements), len(d.Edges))
	}
	if got.Elements["Task_1"].Position.X != 100 {
		t.Fatalf("expected Task_1 X=100, got %v", got.Elements["Task_1"].Position.X)
	}
	if got.Edges["Flow_2"].ConditionExpression != "${approved == true}" {
		t.Fatalf("expected Flow_2 conditionExpression preserved, got %q", got.Edges["Flow_2"].ConditionExpression)
	}
}

func TestXMLRoundTripPreservesGeometry(t *testing.T) {
	d := sampleDiagram(t)
	data, err := ExportXML(d)
	if err != nil {
		t.Fatalf("ExportXML: %v", err)
	}
	got, err := ImportXML(data)
	if err != nil {
		t.Fatalf("ImportXML: %v", err)
	}
	task, ok := got.Elements["Task_1"]
	if !ok {
		t.Fatalf("expected Task_1 to survive the round trip")
	}
	if task.Position.X != 100 || task.Size.Width != 100 {
		t.Fatalf("expected Task_1 geometry preserved, got pos=%+v size=%+v", task.Position, task.Size)
	}
	flow, ok := got.Edges["Flow_1"]
	if !ok || len(flow.Waypoints) != 2 {
		t.Fatalf("expected Flow_1 waypoints preserved, got %+v", flow)
	}
	flow2, ok := got.Edges["Flow_2"]
	if !ok {
		t.Fatalf("expected Flow_2 to survive the round trip")
	}
	if flow2.Label != "approved" || flow2.ConditionExpression != "${approved == true}" {
		t.Fatalf("expected Flow_2 label/conditionExpression preserved distinctly, got label=%q condition=%q",
			flow2.Label, flow2.ConditionExpression)
	}
}

func TestXMLRoundTripPreservesElementSubtypesAndBusinessObject(t *testing.T) {
	d := model.NewDiagram("Diagram_2", "Subtypes")
	elements := []*model.Element{
		{ID: "Start_1", Type: model.StartEvent, Size: model.Size{Width: 36, Height: 36}},
		{ID: "Script_1", Type: model.ScriptTask, Name: "Run script", Size: model.Size{Width: 100, Height: 80},
			BO: model.BusinessObject{Script: "1+1", ScriptFormat: "groovy"}},
		{ID: "Send_1", Type: model.SendTask, Name: "Notify", Size: model.Size{Width: 100, Height: 80}},
		{ID: "Receive_1", Type: model.ReceiveTask, Name: "Wait", Size: model.Size{Width: 100, Height: 80}},
		{ID: "Manual_1", Type: model.ManualTask, Name: "Inspect", Size: model.Size{Width: 100, Height: 80}},
		{ID: "Rule_1", Type: model.BusinessRuleTask, Name: "Decide", Size: model.Size{Width: 100, Height: 80}},
		{ID: "Call_1", Type: model.CallActivity, Name: "Sub process", Size: model.Size{Width: 100, Height: 80},
			BO: model.BusinessObject{CalledElement: "Process_Other"}},
		{ID: "EBG_1", Type: model.EventBasedGateway, Size: model.Size{Width: 50, Height: 50}},
		{ID: "CG_1", Type: model.ComplexGateway, Size: model.Size{Width: 50, Height: 50}},
		{ID: "Task_1", Type: model.Task, Name: "Review", Size: model.Size{Width: 100, Height: 80},
			BO: model.BusinessObject{
				LoopType: "multiInstanceParallel", IsSequential: false,
				FormFields:    []string{"approver", "notes"},
				InputMapping:  map[string]string{"in1": "${foo}"},
				OutputMapping: map[string]string{"out1": "${bar}"},
				CamundaErrorRef: "Error_1", CamundaErrorCode: "ERR-1",
				Extra: map[string]string{"vendor:flag": "true"},
			}},
		{ID: "End_1", Type: model.EndEvent, Size: model.Size{Width: 36, Height: 36}},
	}
	for _, el := range elements {
		if err := d.AddElement(el); err != nil {
			t.Fatalf("AddElement(%s): %v", el.ID, err)
		}
	}

	data, err := ExportXML(d)
	if err != nil {
		t.Fatalf("ExportXML: %v", err)
	}
	got, err := ImportXML(data)
	if err != nil {
		t.Fatalf("ImportXML: %v", err)
	}

	wantTypes := map[string]model.ElementType{
		"Script_1": model.ScriptTask, "Send_1": model.SendTask, "Receive_1": model.ReceiveTask,
		"Manual_1": model.ManualTask, "Rule_1": model.BusinessRuleTask, "Call_1": model.CallActivity,
		"EBG_1": model.EventBasedGateway, "CG_1": model.ComplexGateway,
	}
	for id, want := range wantTypes {
		el, ok := got.Elements[id]
		if !ok {
			t.Fatalf("expected %s to survive the round trip", id)
		}
		if el.Type != want {
			t.Fatalf("expected %s to keep type %v, got %v", id, want, el.Type)
		}
	}

	script := got.Elements["Script_1"]
	if script.BO.Script != "1+1" || script.BO.ScriptFormat != "groovy" {
		t.Fatalf("expected Script_1's script/scriptFormat preserved, got %+v", script.BO)
	}
	call := got.Elements["Call_1"]
	if call.BO.CalledElement != "Process_Other" {
		t.Fatalf("expected Call_1's calledElement preserved, got %q", call.BO.CalledElement)
	}

	task := got.Elements["Task_1"]
	if task.BO.LoopType != "multiInstanceParallel" {
		t.Fatalf("expected Task_1's loopType preserved, got %q", task.BO.LoopType)
	}
	if len(task.BO.FormFields) != 2 || task.BO.FormFields[0] != "approver" {
		t.Fatalf("expected Task_1's form fields preserved, got %+v", task.BO.FormFields)
	}
	if task.BO.InputMapping["in1"] != "${foo}" || task.BO.OutputMapping["out1"] != "${bar}" {
		t.Fatalf("expected Task_1's I/O mappings preserved, got %+v / %+v", task.BO.InputMapping, task.BO.OutputMapping)
	}
	if task.BO.CamundaErrorRef != "Error_1" || task.BO.CamundaErrorCode != "ERR-1" {
		t.Fatalf("expected Task_1's Camunda error ref/code preserved, got %+v", task.BO)
	}
	if task.BO.Extra["vendor:flag"] != "true" {
		t.Fatalf("expected Task_1's extension attribute bag preserved, got %+v", task.BO.Extra)
	}
}

func TestExportSVGProducesNonEmptyOutput(t *testing.T) {
	d := sampleDiagram(t)
	data, err := ExportSVG(d, DefaultSVGOptions())
	if err != nil {
		t.Fatalf("ExportSVG: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty SVG output")
	}
}
