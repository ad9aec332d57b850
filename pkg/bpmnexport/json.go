package bpmnexport

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/bpmnlayout/pkg/model"
)

// jsonElement and jsonEdge are the wire shapes for ExportJSON/ImportJSON,
// kept separate from model.Element/model.Edge so the model package's
// internal adjacency fields never leak into the serialized form, mirroring
// the teacher's pkg/export JSON DTOs that wrap dungeon.Artifact rather than
// marshaling its internals directly.
type jsonElement struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	Name           string            `json:"name,omitempty"`
	EventDef       string            `json:"eventDefinition,omitempty"`
	X              float64           `json:"x"`
	Y              float64           `json:"y"`
	Width          float64           `json:"width"`
	Height         float64           `json:"height"`
	ParentID       string            `json:"parentId,omitempty"`
	HostID         string            `json:"hostId,omitempty"`
	CancelActivity bool              `json:"cancelActivity,omitempty"`
	Condition      string            `json:"conditionExpression,omitempty"`
	IsDefault      bool              `json:"isDefault,omitempty"`
	LoopType       string            `json:"loopType,omitempty"`
	Script         string            `json:"script,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

type jsonWaypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonEdge struct {
	ID                  string         `json:"id"`
	Type                string         `json:"type"`
	SourceID            string         `json:"sourceId"`
	TargetID            string         `json:"targetId"`
	Waypoints           []jsonWaypoint `json:"waypoints"`
	Label               string         `json:"label,omitempty"`
	ConditionExpression string         `json:"conditionExpression,omitempty"`
	IsDefault           bool           `json:"isDefault,omitempty"`
}

type jsonDiagram struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Elements []jsonElement `json:"elements"`
	Edges    []jsonEdge    `json:"edges"`
}

// ExportJSON serializes d into the wire JSON form, elements and edges
// sorted by ID for a stable, diffable output.
func ExportJSON(d *model.Diagram) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot export a nil diagram")
	}
	out := jsonDiagram{ID: d.ID, Name: d.Name}
	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		out.Elements = append(out.Elements, jsonElement{
			ID: el.ID, Type: el.Type.String(), Name: el.Name,
			EventDef: eventDefString(el), X: el.Position.X, Y: el.Position.Y,
			Width: el.Size.Width, Height: el.Size.Height, ParentID: el.ParentID,
			HostID: el.HostID, CancelActivity: el.CancelActivity,
			Condition: el.BO.ConditionExpression, IsDefault: el.BO.IsDefault,
			LoopType: el.BO.LoopType, Script: el.BO.Script, Extra: el.BO.Extra,
		})
	}
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		wps := make([]jsonWaypoint, len(e.Waypoints))
		for i, p := range e.Waypoints {
			wps[i] = jsonWaypoint{X: p.X, Y: p.Y}
		}
		out.Edges = append(out.Edges, jsonEdge{
			ID: e.ID, Type: e.Type.String(), SourceID: e.SourceID, TargetID: e.TargetID,
			Waypoints: wps, Label: e.Label, ConditionExpression: e.ConditionExpression, IsDefault: e.IsDefault,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

func eventDefString(el *model.Element) string {
	if !el.Type.IsEvent() || el.EventDef == model.NoneEvent {
		return ""
	}
	return el.EventDef.String()
}

// ImportJSON parses the wire JSON form back into a diagram. Element type
// names must match one produced by ExportJSON (model.ElementType.String());
// an unrecognized type name is an import error rather than a silent
// ElementUnknown, since a partially-typed diagram would fail model
// validation anyway.
func ImportJSON(data []byte) (*model.Diagram, error) {
	var in jsonDiagram
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("invalid diagram JSON: %w", err)
	}
	d := model.NewDiagram(in.ID, in.Name)
	for _, je := range in.Elements {
		t, err := ElementTypeFromString(je.Type)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", je.ID, err)
		}
		el := &model.Element{
			ID: je.ID, Type: t, Name: je.Name, EventDef: EventDefFromString(je.EventDef),
			Position: model.Point{X: je.X, Y: je.Y}, Size: model.Size{Width: je.Width, Height: je.Height},
			ParentID: je.ParentID, HostID: je.HostID, CancelActivity: je.CancelActivity,
			BO: model.BusinessObject{
				ConditionExpression: je.Condition, IsDefault: je.IsDefault,
				LoopType: je.LoopType, Script: je.Script, Extra: je.Extra,
			},
		}
		if err := d.AddElement(el); err != nil {
			return nil, fmt.Errorf("importing element %s: %w", je.ID, err)
		}
	}
	for _, je := range in.Edges {
		et, err := edgeTypeFromString(je.Type)
		if err != nil {
			return nil, fmt.Errorf("edge %s: %w", je.ID, err)
		}
		wps := make([]model.Point, len(je.Waypoints))
		for i, w := range je.Waypoints {
			wps[i] = model.Point{X: w.X, Y: w.Y}
		}
		e := &model.Edge{
			ID: je.ID, Type: et, SourceID: je.SourceID, TargetID: je.TargetID,
			Waypoints: wps, Label: je.Label, ConditionExpression: je.ConditionExpression, IsDefault: je.IsDefault,
		}
		if err := d.AddEdge(e); err != nil {
			return nil, fmt.Errorf("importing edge %s: %w", je.ID, err)
		}
	}
	return d, nil
}
