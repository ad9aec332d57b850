package bpmnexport

import (
	"fmt"

	"github.com/dshills/bpmnlayout/pkg/model"
)

func ElementTypeFromString(s string) (model.ElementType, error) {
	switch s {
	case "startEvent":
		return model.StartEvent, nil
	case "endEvent":
		return model.EndEvent, nil
	case "intermediateCatchEvent":
		return model.IntermediateCatchEvent, nil
	case "intermediateThrowEvent":
		return model.IntermediateThrowEvent, nil
	case "boundaryEvent":
		return model.BoundaryEvent, nil
	case "task":
		return model.Task, nil
	case "userTask":
		return model.UserTask, nil
	case "serviceTask":
		return model.ServiceTask, nil
	case "scriptTask":
		return model.ScriptTask, nil
	case "sendTask":
		return model.SendTask, nil
	case "receiveTask":
		return model.ReceiveTask, nil
	case "manualTask":
		return model.ManualTask, nil
	case "businessRuleTask":
		return model.BusinessRuleTask, nil
	case "subProcess":
		return model.SubProcess, nil
	case "callActivity":
		return model.CallActivity, nil
	case "exclusiveGateway":
		return model.ExclusiveGateway, nil
	case "parallelGateway":
		return model.ParallelGateway, nil
	case "inclusiveGateway":
		return model.InclusiveGateway, nil
	case "eventBasedGateway":
		return model.EventBasedGateway, nil
	case "complexGateway":
		return model.ComplexGateway, nil
	case "pool":
		return model.Pool, nil
	case "lane":
		return model.Lane, nil
	case "dataObject":
		return model.DataObject, nil
	case "dataStore":
		return model.DataStore, nil
	case "textAnnotation":
		return model.TextAnnotation, nil
	case "group":
		return model.Group, nil
	default:
		return model.ElementUnknown, fmt.Errorf("unrecognized element type %q", s)
	}
}

func EventDefFromString(s string) model.EventDefinition {
	switch s {
	case "message":
		return model.MessageEvent
	case "timer":
		return model.TimerEvent
	case "error":
		return model.ErrorEvent
	case "signal":
		return model.SignalEvent
	case "conditional":
		return model.ConditionalEvent
	case "escalation":
		return model.EscalationEvent
	case "terminate":
		return model.TerminateEvent
	case "link":
		return model.LinkEvent
	case "compensation":
		return model.CompensationEvent
	default:
		return model.NoneEvent
	}
}

func edgeTypeFromString(s string) (model.EdgeType, error) {
	switch s {
	case "sequenceFlow":
		return model.SequenceFlow, nil
	case "messageFlow":
		return model.MessageFlow, nil
	case "association":
		return model.Association, nil
	case "dataAssociation":
		return model.DataAssociation, nil
	default:
		return model.SequenceFlow, fmt.Errorf("unrecognized edge type %q", s)
	}
}
