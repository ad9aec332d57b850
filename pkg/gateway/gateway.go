// Package gateway implements ModelGateway, the single narrow interface
// through which every mutating command touches a model.Diagram. Grounded
// on the teacher's carving.GraphAdapter (a narrow adapter standing between
// a rich internal model and a consumer that should only see a small
// surface), generalized from a read-only adapter to a read/write one since
// ModelGateway's whole purpose is controlled mutation.
package gateway

import (
	"fmt"

	"github.com/dshills/bpmnlayout/pkg/errs"
	"github.com/dshills/bpmnlayout/pkg/idgen"
	"github.com/dshills/bpmnlayout/pkg/model"
)

// Gateway wraps a single model.Diagram and exposes its mutation
// operations (the ModelGateway layer between the command surface and the
// raw model).
type Gateway struct {
	d *model.Diagram
}

// New wraps an existing diagram.
func New(d *model.Diagram) *Gateway {
	return &Gateway{d: d}
}

// Diagram returns the wrapped diagram for read-only inspection by the
// layout/export layers.
func (g *Gateway) Diagram() *model.Diagram { return g.d }

func (g *Gateway) taken(id string) bool {
	if _, ok := g.d.Elements[id]; ok {
		return true
	}
	if _, ok := g.d.Edges[id]; ok {
		return true
	}
	return false
}

// AddElementOptions describes a new element to insert.
type AddElementOptions struct {
	Type     model.ElementType
	Name     string
	ParentID string
	HostID   string
	EventDef model.EventDefinition
	Position model.Point
	Size     model.Size
}

// AddElement inserts a new element with a descriptive, collision-free ID.
func (g *Gateway) AddElement(opts AddElementOptions) (*model.Element, error) {
	if opts.Size.Width == 0 || opts.Size.Height == 0 {
		opts.Size = defaultSize(opts.Type)
	}
	id := idgen.Generate(opts.Type.String(), opts.Name, g.taken)
	el := &model.Element{
		ID:       id,
		Type:     opts.Type,
		Name:     opts.Name,
		ParentID: opts.ParentID,
		HostID:   opts.HostID,
		EventDef: opts.EventDef,
		Position: opts.Position,
		Size:     opts.Size,
	}
	if err := g.d.AddElement(el); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "add element", err)
	}
	return el, nil
}

// defaultSize returns the conventional BPMN shape dimensions for t.
func defaultSize(t model.ElementType) model.Size {
	switch {
	case t.IsEvent():
		return model.Size{Width: 36, Height: 36}
	case t.IsGateway():
		return model.Size{Width: 50, Height: 50}
	case t == model.SubProcess || t == model.CallActivity:
		return model.Size{Width: 350, Height: 200}
	case t.IsActivity():
		return model.Size{Width: 100, Height: 80}
	case t == model.Pool:
		return model.Size{Width: 600, Height: 250}
	case t == model.Lane:
		return model.Size{Width: 600, Height: 125}
	default:
		return model.Size{Width: 100, Height: 80}
	}
}

// ConnectOptions describes a requested connection between two elements.
type ConnectOptions struct {
	SourceID            string
	TargetID            string
	Label               string
	ConditionExpression string
	IsDefault           bool
}

// ConnectElements creates an edge between source and target. A request
// that would cross two different pools is automatically corrected from a
// SequenceFlow into a MessageFlow rather than rejected.
func (g *Gateway) ConnectElements(opts ConnectOptions) (*model.Edge, error) {
	src, ok := g.d.Elements[opts.SourceID]
	if !ok {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("source element %s not found", opts.SourceID))
	}
	dst, ok := g.d.Elements[opts.TargetID]
	if !ok {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("target element %s not found", opts.TargetID))
	}

	edgeType := model.SequenceFlow
	if topPool(g.d, src) != topPool(g.d, dst) {
		edgeType = model.MessageFlow
		if opts.IsDefault {
			return nil, errs.New(errs.ConstraintViolation, "a message flow cannot be a default flow")
		}
	}

	id := idgen.Generate(edgeType.String(), opts.Label, g.taken)
	e := &model.Edge{
		ID:                  id,
		Type:                edgeType,
		SourceID:            opts.SourceID,
		TargetID:            opts.TargetID,
		Label:               opts.Label,
		ConditionExpression: opts.ConditionExpression,
		IsDefault:           opts.IsDefault,
	}
	if err := g.d.AddEdge(e); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "connect elements", err)
	}
	return e, nil
}

func topPool(d *model.Diagram, el *model.Element) string {
	cur := el
	pool := ""
	for cur.ParentID != "" {
		parent, ok := d.Elements[cur.ParentID]
		if !ok {
			break
		}
		if parent.Type == model.Pool {
			pool = parent.ID
		}
		cur = parent
	}
	return pool
}

// InsertElementOptions describes inserting a new element into the middle of
// an existing edge, splitting it into two.
type InsertElementOptions struct {
	EdgeID string
	Type   model.ElementType
	Name   string
}

// InsertElement splits edgeID at a new element of the given type: the
// original edge's source keeps a new edge to the inserted element, and the
// inserted element gets a new edge to the original target.
func (g *Gateway) InsertElement(opts InsertElementOptions) (*model.Element, error) {
	edge, ok := g.d.Edges[opts.EdgeID]
	if !ok {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("edge %s not found", opts.EdgeID))
	}
	src, dst := edge.SourceID, edge.TargetID
	parentID := ""
	if srcEl, ok := g.d.Elements[src]; ok {
		parentID = srcEl.ParentID
	}

	el, err := g.AddElement(AddElementOptions{Type: opts.Type, Name: opts.Name, ParentID: parentID})
	if err != nil {
		return nil, err
	}

	if err := g.d.RemoveEdge(opts.EdgeID); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "insert element: remove original edge", err)
	}
	if _, err := g.ConnectElements(ConnectOptions{SourceID: src, TargetID: el.ID}); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "insert element: connect source", err)
	}
	if _, err := g.ConnectElements(ConnectOptions{SourceID: el.ID, TargetID: dst}); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "insert element: connect target", err)
	}
	return el, nil
}

// ReplaceElement converts oldID to newType, preserving its geometry,
// container/host relationships, and every connection (as source or
// target) by rewiring them onto a freshly generated ID for the new type
// rather than mutating the element in place, matching spec.md §4.5's
// requireDiagram/requireElement-style "returns newEl" contract instead of
// silently keeping the old ID under a new type tag.
func (g *Gateway) ReplaceElement(oldID string, newType model.ElementType) (*model.Element, error) {
	old, ok := g.d.Elements[oldID]
	if !ok {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("element %s not found", oldID))
	}
	if old.Type == model.BoundaryEvent && !newType.IsEvent() {
		return nil, errs.New(errs.TypeMismatch, fmt.Sprintf("cannot replace boundary event %s with non-event type %s", oldID, newType))
	}

	newID := idgen.Generate(newType.String(), old.Name, g.taken)
	repl := &model.Element{
		ID:             newID,
		Type:           newType,
		Name:           old.Name,
		ParentID:       old.ParentID,
		HostID:         old.HostID,
		EventDef:       old.EventDef,
		Position:       old.Position,
		Size:           old.Size,
		CancelActivity: old.CancelActivity,
		BO:             old.BO,
	}
	if repl.Size == (model.Size{}) {
		repl.Size = defaultSize(newType)
	}
	if err := g.d.AddElement(repl); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "replace element", err)
	}

	for _, el := range g.d.Elements {
		if el.ID == newID {
			continue
		}
		if el.ParentID == oldID {
			el.ParentID = newID
		}
		if el.HostID == oldID {
			el.HostID = newID
		}
	}
	// Edge endpoints live both on the Edge struct and in the diagram's
	// outgoing/incoming adjacency index; rewiring the struct field alone
	// would leave the index pointing at oldID, so each touched edge is
	// removed and re-added under the new endpoint rather than mutated in
	// place.
	var touched []*model.Edge
	for _, e := range g.d.Edges {
		if e.SourceID == oldID || e.TargetID == oldID {
			touched = append(touched, e)
		}
	}
	for _, e := range touched {
		cp := *e
		if cp.SourceID == oldID {
			cp.SourceID = newID
		}
		if cp.TargetID == oldID {
			cp.TargetID = newID
		}
		if err := g.d.RemoveEdge(e.ID); err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, "replace element: detach edge", err)
		}
		if err := g.d.AddEdge(&cp); err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, "replace element: reattach edge", err)
		}
	}
	if err := g.d.RemoveElement(oldID); err != nil {
		return nil, errs.Wrap(errs.ConstraintViolation, "replace element: remove original", err)
	}
	return repl, nil
}

// MoveElementOptions is move_bpmn_element's input: every geometric field is
// optional so a caller can reposition without resizing or vice versa, but at
// least one of X, Y, Width, Height or NewParentID must be set. NewParentID,
// left empty, leaves the element's current container untouched (it is not a
// "detach to root" sentinel).
type MoveElementOptions struct {
	NewParentID string
	X, Y        *float64
	Width       *float64
	Height      *float64
}

// MoveElement relocates and/or resizes an element. HostID (a boundary
// event's attachment to its host) is never touched here, so moving a
// boundary event can never detach it: the command-stack-safety concern spec
// §9 raises about boundary-event moves bypassing undo doesn't arise, since
// every move runs through this one checkpointed path regardless of element
// type.
func (g *Gateway) MoveElement(id string, opts MoveElementOptions) error {
	el, ok := g.d.Elements[id]
	if !ok {
		return errs.New(errs.NotFound, fmt.Sprintf("element %s not found", id))
	}
	if opts.X == nil && opts.Y == nil && opts.Width == nil && opts.Height == nil && opts.NewParentID == "" {
		return errs.New(errs.InvalidArgument, "move requires at least one of x, y, width, height, or a new parent")
	}
	if opts.NewParentID != "" {
		parent, ok := g.d.Elements[opts.NewParentID]
		if !ok {
			return errs.New(errs.NotFound, fmt.Sprintf("parent %s not found", opts.NewParentID))
		}
		if !parent.Type.IsContainer() {
			return errs.New(errs.TypeMismatch, fmt.Sprintf("%s cannot contain children", opts.NewParentID))
		}
		el.ParentID = opts.NewParentID
	}
	if opts.X != nil {
		el.Position.X = *opts.X
	}
	if opts.Y != nil {
		el.Position.Y = *opts.Y
	}
	if opts.Width != nil {
		el.Size.Width = *opts.Width
	}
	if opts.Height != nil {
		el.Size.Height = *opts.Height
	}
	return nil
}

// DeleteElement removes an element, failing with ConstraintViolation if it
// still has children (callers must delete children first, mirroring the
// teacher's explicit cascading-removal contract for edges but not for
// structural containment, where silent cascading would be surprising).
func (g *Gateway) DeleteElement(id string) error {
	if err := g.d.RemoveElement(id); err != nil {
		return errs.Wrap(errs.ConstraintViolation, "delete element", err)
	}
	return nil
}

// SetProperty mutates a single named field on an element's business object.
func (g *Gateway) SetProperty(id, field, value string) error {
	el, ok := g.d.Elements[id]
	if !ok {
		return errs.New(errs.NotFound, fmt.Sprintf("element %s not found", id))
	}
	switch field {
	case "name":
		el.Name = value
	case "conditionExpression":
		el.BO.ConditionExpression = value
	case "script":
		el.BO.Script = value
	case "loopType":
		el.BO.LoopType = value
	default:
		if el.BO.Extra == nil {
			el.BO.Extra = make(map[string]string)
		}
		el.BO.Extra[field] = value
	}
	return nil
}

// SetLoopCharacteristics marks el as having standard or multi-instance
// loop semantics. Only activities carry loop characteristics; events and
// gateways reject it.
func (g *Gateway) SetLoopCharacteristics(id, loopType string, sequential bool) error {
	el, err := g.requireActivity(id)
	if err != nil {
		return err
	}
	el.BO.LoopType = loopType
	el.BO.IsSequential = sequential
	return nil
}

// SetScript sets a scriptTask's script body and format.
func (g *Gateway) SetScript(id, script, format string) error {
	el, ok := g.d.Elements[id]
	if !ok {
		return errs.New(errs.NotFound, fmt.Sprintf("element %s not found", id))
	}
	if el.Type != model.ScriptTask {
		return errs.New(errs.TypeMismatch, fmt.Sprintf("element %s (%s) is not a scriptTask", id, el.Type))
	}
	el.BO.Script = script
	el.BO.ScriptFormat = format
	return nil
}

// SetFormData replaces a userTask's form field list.
func (g *Gateway) SetFormData(id string, fields []string) error {
	el, ok := g.d.Elements[id]
	if !ok {
		return errs.New(errs.NotFound, fmt.Sprintf("element %s not found", id))
	}
	if el.Type != model.UserTask {
		return errs.New(errs.TypeMismatch, fmt.Sprintf("element %s (%s) is not a userTask", id, el.Type))
	}
	el.BO.FormFields = append([]string(nil), fields...)
	return nil
}

// SetInputOutputMapping replaces an activity's Camunda input/output
// parameter mappings.
func (g *Gateway) SetInputOutputMapping(id string, in, out map[string]string) error {
	el, err := g.requireActivity(id)
	if err != nil {
		return err
	}
	el.BO.InputMapping = copyStringMap(in)
	el.BO.OutputMapping = copyStringMap(out)
	return nil
}

// SetEventDefinition sets the trigger/result attached to an event shape.
func (g *Gateway) SetEventDefinition(id string, def model.EventDefinition) error {
	el, ok := g.d.Elements[id]
	if !ok {
		return errs.New(errs.NotFound, fmt.Sprintf("element %s not found", id))
	}
	if !el.Type.IsEvent() {
		return errs.New(errs.TypeMismatch, fmt.Sprintf("element %s (%s) is not an event", id, el.Type))
	}
	el.EventDef = def
	return nil
}

// SetCamundaError attaches a Camunda error reference/code to an error
// event definition (boundary error events, error end events).
func (g *Gateway) SetCamundaError(id, errorRef, errorCode string) error {
	el, ok := g.d.Elements[id]
	if !ok {
		return errs.New(errs.NotFound, fmt.Sprintf("element %s not found", id))
	}
	if el.EventDef != model.ErrorEvent {
		return errs.New(errs.TypeMismatch, fmt.Sprintf("element %s does not carry an error event definition", id))
	}
	el.BO.CamundaErrorRef = errorRef
	el.BO.CamundaErrorCode = errorCode
	return nil
}

func (g *Gateway) requireActivity(id string) (*model.Element, error) {
	el, ok := g.d.Elements[id]
	if !ok {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("element %s not found", id))
	}
	if !el.Type.IsActivity() {
		return nil, errs.New(errs.TypeMismatch, fmt.Sprintf("element %s (%s) cannot carry loop/IO characteristics", id, el.Type))
	}
	return el, nil
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CreateCollaboration converts the diagram's top-level process into a multi-pool
// collaboration: each participant name becomes a Pool element, and
// existing top-level (parentless) flow elements are assigned to the first
// participant so the diagram stays valid.
func (g *Gateway) CreateCollaboration(participants []string) ([]*model.Element, error) {
	if len(participants) == 0 {
		return nil, errs.New(errs.InvalidArgument, "create_bpmn_collaboration requires at least one participant")
	}
	var roots []string
	for id, el := range g.d.Elements {
		if el.ParentID == "" && el.Type != model.Pool {
			roots = append(roots, id)
		}
	}
	pools := make([]*model.Element, 0, len(participants))
	for i, name := range participants {
		pool, err := g.AddElement(AddElementOptions{Type: model.Pool, Name: name})
		if err != nil {
			return nil, err
		}
		if i == 0 {
			for _, rid := range roots {
				g.d.Elements[rid].ParentID = pool.ID
			}
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

// Clone deep-copies the wrapped diagram under newDiagramID. Every element
// and edge keeps the ID it has in the original; only the diagram ID differs.
// Elements
// are added in topological order (a container or boundary-event host always
// precedes its dependents) since model.Diagram.AddElement rejects an
// element whose ParentID/HostID is not already present in the clone; Go's
// randomized map iteration order means a single pass over g.d.Elements
// cannot be relied on to visit parents/hosts first.
func (g *Gateway) Clone(newDiagramID string) (*model.Diagram, error) {
	clone := model.NewDiagram(newDiagramID, g.d.Name)
	remap := make(map[string]string, len(g.d.Elements))
	for id := range g.d.Elements {
		remap[id] = id
	}

	pending := make([]*model.Element, 0, len(g.d.Elements))
	for _, el := range g.d.Elements {
		pending = append(pending, el)
	}
	for len(pending) > 0 {
		var next []*model.Element
		progressed := false
		for _, el := range pending {
			if el.ParentID != "" {
				if _, ok := clone.Elements[remap[el.ParentID]]; !ok {
					next = append(next, el)
					continue
				}
			}
			if el.Type == model.BoundaryEvent && el.HostID != "" {
				if _, ok := clone.Elements[remap[el.HostID]]; !ok {
					next = append(next, el)
					continue
				}
			}
			cp := *el
			cp.ID = remap[el.ID]
			if cp.ParentID != "" {
				cp.ParentID = remap[cp.ParentID]
			}
			if cp.HostID != "" {
				cp.HostID = remap[cp.HostID]
			}
			if el.BO.FormFields != nil {
				cp.BO.FormFields = append([]string(nil), el.BO.FormFields...)
			}
			if el.BO.Extra != nil {
				cp.BO.Extra = make(map[string]string, len(el.BO.Extra))
				for k, v := range el.BO.Extra {
					cp.BO.Extra[k] = v
				}
			}
			cp.BO.InputMapping = copyStringMap(el.BO.InputMapping)
			cp.BO.OutputMapping = copyStringMap(el.BO.OutputMapping)
			if el.LabelBounds != nil {
				lb := *el.LabelBounds
				cp.LabelBounds = &lb
			}
			if err := clone.AddElement(&cp); err != nil {
				return nil, fmt.Errorf("clone: element %s: %w", el.ID, err)
			}
			progressed = true
		}
		if !progressed {
			names := make([]string, 0, len(next))
			for _, el := range next {
				names = append(names, el.ID)
			}
			return nil, fmt.Errorf("clone: unresolved parent/host reference among elements %v", names)
		}
		pending = next
	}

	for id, e := range g.d.Edges {
		cp := *e
		cp.ID = remap[id]
		if cp.ID == "" {
			cp.ID = id
		}
		cp.SourceID = remap[cp.SourceID]
		cp.TargetID = remap[cp.TargetID]
		cp.Waypoints = append([]model.Point(nil), e.Waypoints...)
		if e.LabelBounds != nil {
			lb := *e.LabelBounds
			cp.LabelBounds = &lb
		}
		if err := clone.AddEdge(&cp); err != nil {
			return nil, fmt.Errorf("clone: edge %s: %w", id, err)
		}
	}
	return clone, nil
}
