package model

import "fmt"

// Diagram is the complete in-memory BPMN process model: every element and
// edge the service knows about, plus the adjacency index used by the graph
// and layout layers. Grounded on the teacher's Graph container
// (rooms/connectors/adjacency), generalized to BPMN elements/edges.
type Diagram struct {
	ID       string
	Name     string
	Elements map[string]*Element
	Edges    map[string]*Edge

	// outgoing/incoming index edge IDs by endpoint element ID, mirroring
	// the teacher's Adjacency list but keyed by edge rather than neighbor
	// so callers can recover edge type and waypoints, not just connectivity.
	outgoing map[string][]string
	incoming map[string][]string
}

// NewDiagram creates an empty diagram with the given ID.
func NewDiagram(id, name string) *Diagram {
	return &Diagram{
		ID:       id,
		Name:     name,
		Elements: make(map[string]*Element),
		Edges:    make(map[string]*Edge),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddElement validates and inserts an element, enforcing unique IDs (I1).
func (d *Diagram) AddElement(el *Element) error {
	if el == nil {
		return fmt.Errorf("cannot add nil element")
	}
	if err := el.Validate(); err != nil {
		return fmt.Errorf("element validation failed: %w", err)
	}
	if _, exists := d.Elements[el.ID]; exists {
		return fmt.Errorf("element with ID %s already exists", el.ID)
	}
	if el.ParentID != "" {
		parent, ok := d.Elements[el.ParentID]
		if !ok {
			return fmt.Errorf("element %s: parent %s does not exist", el.ID, el.ParentID)
		}
		if !parent.Type.IsContainer() {
			return fmt.Errorf("element %s: parent %s (%s) cannot contain children", el.ID, el.ParentID, parent.Type)
		}
	}
	if el.Type == BoundaryEvent {
		host, ok := d.Elements[el.HostID]
		if !ok {
			return fmt.Errorf("boundary event %s: host %s does not exist", el.ID, el.HostID)
		}
		if !host.Type.IsActivity() {
			return fmt.Errorf("boundary event %s: host %s (%s) is not an activity", el.ID, el.HostID, host.Type)
		}
	}
	d.Elements[el.ID] = el
	return nil
}

// AddEdge validates and inserts an edge, enforcing referential integrity (I2).
func (d *Diagram) AddEdge(e *Edge) error {
	if e == nil {
		return fmt.Errorf("cannot add nil edge")
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("edge validation failed: %w", err)
	}
	if _, exists := d.Edges[e.ID]; exists {
		return fmt.Errorf("edge with ID %s already exists", e.ID)
	}
	if _, ok := d.Elements[e.SourceID]; !ok {
		return fmt.Errorf("edge %s: source %s does not exist", e.ID, e.SourceID)
	}
	if _, ok := d.Elements[e.TargetID]; !ok {
		return fmt.Errorf("edge %s: target %s does not exist", e.ID, e.TargetID)
	}
	d.Edges[e.ID] = e
	d.outgoing[e.SourceID] = append(d.outgoing[e.SourceID], e.ID)
	d.incoming[e.TargetID] = append(d.incoming[e.TargetID], e.ID)
	return nil
}

// RemoveElement deletes an element and every edge touching it, mirroring
// the teacher's RemoveRoom cascade.
func (d *Diagram) RemoveElement(id string) error {
	if _, exists := d.Elements[id]; !exists {
		return fmt.Errorf("element %s does not exist", id)
	}
	for _, child := range d.Elements {
		if child.ParentID == id {
			return fmt.Errorf("element %s has children; remove them first", id)
		}
	}
	toRemove := append([]string{}, d.outgoing[id]...)
	toRemove = append(toRemove, d.incoming[id]...)
	for _, edgeID := range toRemove {
		_ = d.RemoveEdge(edgeID)
	}
	delete(d.Elements, id)
	delete(d.outgoing, id)
	delete(d.incoming, id)
	return nil
}

// RemoveEdge deletes an edge and updates the adjacency index.
func (d *Diagram) RemoveEdge(id string) error {
	e, exists := d.Edges[id]
	if !exists {
		return fmt.Errorf("edge %s does not exist", id)
	}
	delete(d.Edges, id)
	d.outgoing[e.SourceID] = removeString(d.outgoing[e.SourceID], id)
	d.incoming[e.TargetID] = removeString(d.incoming[e.TargetID], id)
	return nil
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Outgoing returns the IDs of edges leaving elementID.
func (d *Diagram) Outgoing(elementID string) []string {
	return append([]string{}, d.outgoing[elementID]...)
}

// Incoming returns the IDs of edges entering elementID.
func (d *Diagram) Incoming(elementID string) []string {
	return append([]string{}, d.incoming[elementID]...)
}

// Successors returns the element IDs directly reachable from elementID via
// a SequenceFlow, matching the teacher's Adjacency semantics.
func (d *Diagram) Successors(elementID string) []string {
	var out []string
	for _, edgeID := range d.outgoing[elementID] {
		e := d.Edges[edgeID]
		if e.Type == SequenceFlow {
			out = append(out, e.TargetID)
		}
	}
	return out
}

// Children returns the IDs of elements directly contained by parentID.
func (d *Diagram) Children(parentID string) []string {
	var out []string
	for id, el := range d.Elements {
		if el.ParentID == parentID {
			out = append(out, id)
		}
	}
	return out
}

// Reachable runs a BFS over SequenceFlow edges from startID, mirroring the
// teacher's Graph.GetReachable.
func (d *Diagram) Reachable(startID string) map[string]bool {
	reachable := make(map[string]bool)
	if _, ok := d.Elements[startID]; !ok {
		return reachable
	}
	queue := []string{startID}
	reachable[startID] = true
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range d.Successors(current) {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}
	return reachable
}

// StartEvents returns every element of type StartEvent nested at any depth
// inside a given pool (or in the whole diagram when poolID is "").
func (d *Diagram) StartEvents(poolID string) []*Element {
	var out []*Element
	for _, el := range d.Elements {
		if el.Type == StartEvent && inPool(d, el, poolID) {
			out = append(out, el)
		}
	}
	return out
}

func inPool(d *Diagram, el *Element, poolID string) bool {
	if poolID == "" {
		return true
	}
	cur := el
	for cur.ParentID != "" {
		parent, ok := d.Elements[cur.ParentID]
		if !ok {
			return false
		}
		if parent.ID == poolID {
			return true
		}
		cur = parent
	}
	return false
}
