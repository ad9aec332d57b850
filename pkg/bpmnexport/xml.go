package bpmnexport

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/dshills/bpmnlayout/pkg/model"
)

// The XML shapes below are a pragmatic subset of the BPMN 2.0 / BPMNDI
// schema: one bpmn:process holding events, activities, gateways and
// sequence flows, plus a bpmndi:BPMNDiagram with a shape per element and an
// edge per flow. Events, activities, gateways and sequence flows round-trip
// with their IDs, types, connectivity and geometry. Pools, lanes and
// artifacts are written as BPMNShapes only, and message flows as BPMNEdges
// only, so ImportXML does not restore them; an element's ParentID is not
// written at all. Using encoding/xml directly
// rather than a third-party library is a deliberate stdlib exception: none
// of the examples this project draws its dependency stack from ship a
// BPMN/moddle-aware XML binding, and a hand-rolled schema subset is
// considerably simpler than adapting a generic XML-to-struct library to
// BPMN's attribute-heavy, deeply-nested element model.
type xmlDefinitions struct {
	XMLName       xml.Name         `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL definitions"`
	Process       xmlProcess       `xml:"process"`
	BPMNDiagram   xmlBPMNDiagram   `xml:"BPMNDiagram"`
}

type xmlProcess struct {
	ID                string             `xml:"id,attr"`
	Name              string             `xml:"name,attr,omitempty"`
	StartEvents       []xmlFlowNode      `xml:"startEvent"`
	EndEvents         []xmlFlowNode      `xml:"endEvent"`
	Tasks             []xmlFlowNode      `xml:"task"`
	UserTasks         []xmlFlowNode      `xml:"userTask"`
	ServiceTasks      []xmlFlowNode      `xml:"serviceTask"`
	ScriptTasks       []xmlFlowNode      `xml:"scriptTask"`
	SendTasks         []xmlFlowNode      `xml:"sendTask"`
	ReceiveTasks      []xmlFlowNode      `xml:"receiveTask"`
	ManualTasks       []xmlFlowNode      `xml:"manualTask"`
	BusinessRuleTasks []xmlFlowNode      `xml:"businessRuleTask"`
	ExclusiveGWs      []xmlFlowNode      `xml:"exclusiveGateway"`
	ParallelGWs       []xmlFlowNode      `xml:"parallelGateway"`
	InclusiveGWs      []xmlFlowNode      `xml:"inclusiveGateway"`
	EventBasedGWs     []xmlFlowNode      `xml:"eventBasedGateway"`
	ComplexGWs        []xmlFlowNode      `xml:"complexGateway"`
	BoundaryEvents    []xmlBoundaryEvent `xml:"boundaryEvent"`
	SubProcesses      []xmlFlowNode      `xml:"subProcess"`
	CallActivities    []xmlFlowNode      `xml:"callActivity"`
	SequenceFlows     []xmlSequenceFlow  `xml:"sequenceFlow"`
}

type xmlFlowNode struct {
	ID                  string                `xml:"id,attr"`
	Name                string                `xml:"name,attr,omitempty"`
	ConditionExpression string                `xml:"conditionExpression,omitempty"`
	Ext                 *xmlExtensionElements `xml:"extensionElements>properties,omitempty"`
}

// xmlExtensionElements carries the Camunda-style business-object attributes
// spec §9 requires to round-trip verbatim: loop characteristics, script,
// form fields, I/O mappings, the error-event reference, callActivity's
// calledElement, and any unrecognised moddle extension attribute preserved
// in BusinessObject.Extra.
type xmlExtensionElements struct {
	CalledElement    string    `xml:"calledElement,attr,omitempty"`
	LoopType         string    `xml:"loopType,attr,omitempty"`
	IsSequential     bool      `xml:"isSequential,attr,omitempty"`
	Script           string    `xml:"script,omitempty"`
	ScriptFormat     string    `xml:"scriptFormat,attr,omitempty"`
	FormFields       []string  `xml:"formField,omitempty"`
	InputMapping     []xmlKV   `xml:"inputParameter,omitempty"`
	OutputMapping    []xmlKV   `xml:"outputParameter,omitempty"`
	CamundaErrorRef  string    `xml:"errorRef,attr,omitempty"`
	CamundaErrorCode string    `xml:"errorCode,attr,omitempty"`
	Extra            []xmlKV   `xml:"extra,omitempty"`
}

// xmlKV is a generic name/value pair, used for I/O mappings and the
// passthrough extension-attribute bag.
type xmlKV struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlBoundaryEvent struct {
	xmlFlowNode
	AttachedToRef  string `xml:"attachedToRef,attr"`
	CancelActivity bool   `xml:"cancelActivity,attr"`
}

type xmlSequenceFlow struct {
	ID                  string `xml:"id,attr"`
	SourceRef           string `xml:"sourceRef,attr"`
	TargetRef           string `xml:"targetRef,attr"`
	Name                string `xml:"name,attr,omitempty"`
	ConditionExpression string `xml:"conditionExpression,omitempty"`
}

type xmlBPMNDiagram struct {
	Plane xmlBPMNPlane `xml:"BPMNPlane"`
}

type xmlBPMNPlane struct {
	Shapes []xmlBPMNShape `xml:"BPMNShape"`
	Edges  []xmlBPMNEdge  `xml:"BPMNEdge"`
}

type xmlBPMNShape struct {
	BPMNElement string      `xml:"bpmnElement,attr"`
	Bounds      xmlBounds   `xml:"Bounds"`
}

type xmlBounds struct {
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

type xmlBPMNEdge struct {
	BPMNElement string       `xml:"bpmnElement,attr"`
	Waypoints   []xmlWaypoint `xml:"waypoint"`
}

type xmlWaypoint struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}

// ExportXML serializes d into the BPMN 2.0 / BPMNDI subset above.
func ExportXML(d *model.Diagram) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot export a nil diagram")
	}
	proc := xmlProcess{ID: d.ID, Name: d.Name}
	plane := xmlBPMNPlane{}

	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		node := xmlFlowNode{ID: el.ID, Name: el.Name, ConditionExpression: el.BO.ConditionExpression, Ext: extensionFromBO(el.BO)}
		switch el.Type {
		case model.StartEvent:
			proc.StartEvents = append(proc.StartEvents, node)
		case model.EndEvent:
			proc.EndEvents = append(proc.EndEvents, node)
		case model.Task:
			proc.Tasks = append(proc.Tasks, node)
		case model.UserTask:
			proc.UserTasks = append(proc.UserTasks, node)
		case model.ServiceTask:
			proc.ServiceTasks = append(proc.ServiceTasks, node)
		case model.ScriptTask:
			proc.ScriptTasks = append(proc.ScriptTasks, node)
		case model.SendTask:
			proc.SendTasks = append(proc.SendTasks, node)
		case model.ReceiveTask:
			proc.ReceiveTasks = append(proc.ReceiveTasks, node)
		case model.ManualTask:
			proc.ManualTasks = append(proc.ManualTasks, node)
		case model.BusinessRuleTask:
			proc.BusinessRuleTasks = append(proc.BusinessRuleTasks, node)
		case model.ExclusiveGateway:
			proc.ExclusiveGWs = append(proc.ExclusiveGWs, node)
		case model.ParallelGateway:
			proc.ParallelGWs = append(proc.ParallelGWs, node)
		case model.InclusiveGateway:
			proc.InclusiveGWs = append(proc.InclusiveGWs, node)
		case model.EventBasedGateway:
			proc.EventBasedGWs = append(proc.EventBasedGWs, node)
		case model.ComplexGateway:
			proc.ComplexGWs = append(proc.ComplexGWs, node)
		case model.BoundaryEvent:
			proc.BoundaryEvents = append(proc.BoundaryEvents, xmlBoundaryEvent{
				xmlFlowNode: node, AttachedToRef: el.HostID, CancelActivity: el.CancelActivity,
			})
		case model.SubProcess:
			proc.SubProcesses = append(proc.SubProcesses, node)
		case model.CallActivity:
			proc.CallActivities = append(proc.CallActivities, node)
		default:
			// pools, lanes, and artifacts have no bpmn:process child element of
			// their own in this subset; they still get a BPMNShape below.
		}
		plane.Shapes = append(plane.Shapes, xmlBPMNShape{
			BPMNElement: el.ID,
			Bounds:      xmlBounds{X: el.Position.X, Y: el.Position.Y, Width: el.Size.Width, Height: el.Size.Height},
		})
	}

	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if e.Type == model.SequenceFlow {
			proc.SequenceFlows = append(proc.SequenceFlows, xmlSequenceFlow{
				ID: e.ID, SourceRef: e.SourceID, TargetRef: e.TargetID,
				Name: e.Label, ConditionExpression: e.ConditionExpression,
			})
		}
		wps := make([]xmlWaypoint, len(e.Waypoints))
		for i, p := range e.Waypoints {
			wps[i] = xmlWaypoint{X: p.X, Y: p.Y}
		}
		plane.Edges = append(plane.Edges, xmlBPMNEdge{BPMNElement: e.ID, Waypoints: wps})
	}

	defs := xmlDefinitions{Process: proc, BPMNDiagram: xmlBPMNDiagram{Plane: plane}}
	out, err := xml.MarshalIndent(defs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling BPMN XML: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// extensionFromBO projects a BusinessObject onto its XML extension-element
// form, returning nil when there is nothing beyond the zero value to carry
// (so ordinary elements with no Camunda attributes don't grow an empty
// <extensionElements> tag).
func extensionFromBO(bo model.BusinessObject) *xmlExtensionElements {
	if bo.LoopType == "" && bo.Script == "" && bo.ScriptFormat == "" && len(bo.FormFields) == 0 &&
		len(bo.InputMapping) == 0 && len(bo.OutputMapping) == 0 && bo.CamundaErrorRef == "" &&
		bo.CamundaErrorCode == "" && bo.CalledElement == "" && len(bo.Extra) == 0 {
		return nil
	}
	ext := &xmlExtensionElements{
		CalledElement:    bo.CalledElement,
		LoopType:         bo.LoopType,
		IsSequential:     bo.IsSequential,
		Script:           bo.Script,
		ScriptFormat:     bo.ScriptFormat,
		FormFields:       append([]string(nil), bo.FormFields...),
		CamundaErrorRef:  bo.CamundaErrorRef,
		CamundaErrorCode: bo.CamundaErrorCode,
	}
	ext.InputMapping = kvPairsFromMap(bo.InputMapping)
	ext.OutputMapping = kvPairsFromMap(bo.OutputMapping)
	ext.Extra = kvPairsFromMap(bo.Extra)
	return ext
}

// boFromExtension is extensionFromBO's inverse, applied on import. A nil
// ext (an element with no extension block) yields the zero BusinessObject.
func boFromExtension(ext *xmlExtensionElements) model.BusinessObject {
	var bo model.BusinessObject
	if ext == nil {
		return bo
	}
	bo.CalledElement = ext.CalledElement
	bo.LoopType = ext.LoopType
	bo.IsSequential = ext.IsSequential
	bo.Script = ext.Script
	bo.ScriptFormat = ext.ScriptFormat
	bo.FormFields = append([]string(nil), ext.FormFields...)
	bo.InputMapping = mapFromKVPairs(ext.InputMapping)
	bo.OutputMapping = mapFromKVPairs(ext.OutputMapping)
	bo.CamundaErrorRef = ext.CamundaErrorRef
	bo.CamundaErrorCode = ext.CamundaErrorCode
	bo.Extra = mapFromKVPairs(ext.Extra)
	return bo
}

// kvPairsFromMap renders a string map as a sorted-by-name slice of xmlKV
// pairs so export output is deterministic across runs.
func kvPairsFromMap(m map[string]string) []xmlKV {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]xmlKV, len(keys))
	for i, k := range keys {
		pairs[i] = xmlKV{Name: k, Value: m[k]}
	}
	return pairs
}

func mapFromKVPairs(pairs []xmlKV) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		m[kv.Name] = kv.Value
	}
	return m
}

// ImportXML parses the BPMN 2.0 / BPMNDI subset above back into a diagram.
// Elements are reconstructed without their geometry first, then the
// BPMNDiagram/BPMNPlane section applies positions and waypoints -- the
// reverse order from ExportXML, since BPMNDI always follows the process
// body in the document.
func ImportXML(data []byte) (*model.Diagram, error) {
	var defs xmlDefinitions
	if err := xml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("invalid BPMN XML: %w", err)
	}

	d := model.NewDiagram(defs.Process.ID, defs.Process.Name)
	addNodes := func(nodes []xmlFlowNode, t model.ElementType) error {
		for _, n := range nodes {
			el := &model.Element{ID: n.ID, Type: t, Name: n.Name, Size: model.Size{Width: 1, Height: 1}}
			el.BO = boFromExtension(n.Ext)
			el.BO.ConditionExpression = n.ConditionExpression
			if err := d.AddElement(el); err != nil {
				return fmt.Errorf("importing %s: %w", n.ID, err)
			}
		}
		return nil
	}

	if err := addNodes(defs.Process.StartEvents, model.StartEvent); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.EndEvents, model.EndEvent); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.Tasks, model.Task); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.UserTasks, model.UserTask); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.ServiceTasks, model.ServiceTask); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.ScriptTasks, model.ScriptTask); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.SendTasks, model.SendTask); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.ReceiveTasks, model.ReceiveTask); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.ManualTasks, model.ManualTask); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.BusinessRuleTasks, model.BusinessRuleTask); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.ExclusiveGWs, model.ExclusiveGateway); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.ParallelGWs, model.ParallelGateway); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.InclusiveGWs, model.InclusiveGateway); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.EventBasedGWs, model.EventBasedGateway); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.ComplexGWs, model.ComplexGateway); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.SubProcesses, model.SubProcess); err != nil {
		return nil, err
	}
	if err := addNodes(defs.Process.CallActivities, model.CallActivity); err != nil {
		return nil, err
	}
	for _, be := range defs.Process.BoundaryEvents {
		el := &model.Element{
			ID: be.ID, Type: model.BoundaryEvent, Name: be.Name, Size: model.Size{Width: 1, Height: 1},
			HostID: be.AttachedToRef, CancelActivity: be.CancelActivity,
		}
		el.BO = boFromExtension(be.Ext)
		el.BO.ConditionExpression = be.ConditionExpression
		if err := d.AddElement(el); err != nil {
			return nil, fmt.Errorf("importing boundary event %s: %w", be.ID, err)
		}
	}

	for _, sf := range defs.Process.SequenceFlows {
		e := &model.Edge{
			ID: sf.ID, Type: model.SequenceFlow, SourceID: sf.SourceRef, TargetID: sf.TargetRef,
			Label: sf.Name, ConditionExpression: sf.ConditionExpression,
		}
		if err := d.AddEdge(e); err != nil {
			return nil, fmt.Errorf("importing sequence flow %s: %w", sf.ID, err)
		}
	}

	for _, shape := range defs.BPMNDiagram.Plane.Shapes {
		el, ok := d.Elements[shape.BPMNElement]
		if !ok {
			continue
		}
		el.Position = model.Point{X: shape.Bounds.X, Y: shape.Bounds.Y}
		el.Size = model.Size{Width: shape.Bounds.Width, Height: shape.Bounds.Height}
	}
	for _, edgeDI := range defs.BPMNDiagram.Plane.Edges {
		e, ok := d.Edges[edgeDI.BPMNElement]
		if !ok {
			continue
		}
		wps := make([]model.Point, len(edgeDI.Waypoints))
		for i, w := range edgeDI.Waypoints {
			wps[i] = model.Point{X: w.X, Y: w.Y}
		}
		e.Waypoints = wps
	}

	return d, nil
}
