// Package graphbuild implements GraphBuilder: translating the current BPMN
// model into a layered-DAG-ready graph that preserves container hierarchy
// and happy-path hints, per spec.md §4.1. Grounded on the teacher's
// pkg/dungeon/dungeon.go stage wiring (building an internal graph from a
// richer config before handing it to the embedding stage) and
// pkg/graph/graph.go's adjacency-list model, generalized from rooms and
// connectors to BPMN elements and edges.
package graphbuild

import (
	"fmt"

	"github.com/dshills/bpmnlayout/pkg/model"
)

// Node is GraphBuilder's per-element summary: typed size (not necessarily
// the model's current size — spec.md §4.1 says sizes are "derived from the
// element type, not the model's current size"), container nesting, and,
// for subset layouts, whether the node is pinned and where. Nodes carry no
// port hint for gateway branches that exit off-row.
type Node struct {
	ID       string
	Type     model.ElementType
	Name     string
	Size     model.Size
	ParentID string
	Pinned   bool        // true when part of a subset layout's external boundary
	Pin      model.Point // fixed position when Pinned
}

// Edge is GraphBuilder's per-connection summary; Priority is set to 100 on
// happy-path edges. pkg/layeredlayout does not read Priority, so it has no
// effect on layering or placement.
type Edge struct {
	ID        string
	From, To  string
	Type      model.EdgeType
	IsDefault bool
	Priority  int
}

// Graph is GraphBuilder's output: a hierarchical input graph ready for
// LayeredLayoutAdapter.
type Graph struct {
	Nodes     map[string]*Node
	Edges     map[string]*Edge
	Adjacency map[string][]string
	HappyPath map[string]bool
}

// Options mirrors spec.md §4.1's GraphBuilder input option set.
type Options struct {
	Direction         string // "RIGHT" or "DOWN"
	NodeSpacing       int
	LayerSpacing      int
	Compactness       string
	PreserveHappyPath bool
	SubsetIDs         []string
}

// typedSize returns the conventional BPMN shape dimensions for t,
// overriding whatever size the model element currently carries (collapsed
// subprocesses/pools use their declared size instead).
func typedSize(el *model.Element) model.Size {
	switch {
	case el.Type.IsEvent():
		return model.Size{Width: 36, Height: 36}
	case el.Type.IsGateway():
		return model.Size{Width: 50, Height: 50}
	case el.Type == model.SubProcess || el.Type == model.CallActivity:
		if el.Size.Width > 0 && el.Size.Height > 0 {
			return el.Size // collapsed pool/subprocess: use its declared size verbatim
		}
		return model.Size{Width: 350, Height: 200}
	case el.Type.IsActivity():
		return model.Size{Width: 100, Height: 80}
	case el.Type == model.Pool:
		if el.Size.Width > 0 && el.Size.Height > 0 {
			return el.Size
		}
		return model.Size{Width: 600, Height: 250}
	default:
		if el.Size.Width > 0 && el.Size.Height > 0 {
			return el.Size
		}
		return model.Size{Width: 100, Height: 80}
	}
}

// Build translates d into a Graph ready for LayeredLayoutAdapter. When
// opts.SubsetIDs is non-empty, only those elements and their immediately
// connecting edges are included; external endpoints are pinned (spec.md
// §4.1 "subset layout").
func Build(d *model.Diagram, opts Options) (*Graph, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot build graph from nil diagram")
	}

	g := &Graph{
		Nodes:     make(map[string]*Node),
		Edges:     make(map[string]*Edge),
		Adjacency: make(map[string][]string),
		HappyPath: make(map[string]bool),
	}

	subset := toSet(opts.SubsetIDs)
	included := func(id string) bool {
		return len(subset) == 0 || subset[id]
	}

	for id, el := range d.Elements {
		if el.Type == model.Lane {
			continue // lanes are bands within a pool, not independently laid-out nodes
		}
		if !included(id) {
			continue
		}
		g.Nodes[id] = &Node{
			ID:       id,
			Type:     el.Type,
			Name:     el.Name,
			Size:     typedSize(el),
			ParentID: el.ParentID,
		}
	}

	for id, e := range d.Edges {
		srcIn, dstIn := included(e.SourceID), included(e.TargetID)
		if !srcIn && !dstIn {
			continue
		}
		if !srcIn || !dstIn {
			// one endpoint lies outside the subset: pin that endpoint's
			// current position so the subset's internal layout can fit
			// edges to it without discarding its existing route.
			if !srcIn {
				pinNode(g, d, e.SourceID)
			}
			if !dstIn {
				pinNode(g, d, e.TargetID)
			}
		}
		g.Edges[id] = &Edge{ID: id, From: e.SourceID, To: e.TargetID, Type: e.Type, IsDefault: e.IsDefault}
		if e.Type == model.SequenceFlow {
			g.Adjacency[e.SourceID] = append(g.Adjacency[e.SourceID], e.TargetID)
		}
	}

	if opts.PreserveHappyPath {
		deriveHappyPath(d, g)
	}

	return g, nil
}

func pinNode(g *Graph, d *model.Diagram, id string) {
	el, ok := d.Elements[id]
	if !ok {
		return
	}
	if _, exists := g.Nodes[id]; !exists {
		g.Nodes[id] = &Node{ID: id, Type: el.Type, Name: el.Name, Size: typedSize(el), ParentID: el.ParentID}
	}
	g.Nodes[id].Pinned = true
	g.Nodes[id].Pin = el.Center()
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// deriveHappyPath walks from every start event, at each gateway preferring
// the outgoing flow marked isDefault, else the first outgoing flow found,
// and marks the resulting chain's elements and edges. Grounded on
// spec.md §4.1/§9's definition of happy path and on the teacher's BFS/DFS
// traversal idiom in pkg/graph/graph.go (GetReachable, GetCycles).
func deriveHappyPath(d *model.Diagram, g *Graph) {
	visited := make(map[string]bool)
	for _, start := range d.StartEvents("") {
		if _, ok := g.Nodes[start.ID]; !ok {
			continue
		}
		walkHappyPath(d, g, start.ID, visited)
	}
	for id := range g.HappyPath {
		for _, edgeID := range d.Outgoing(id) {
			e := d.Edges[edgeID]
			if e.Type == model.SequenceFlow && g.HappyPath[e.TargetID] {
				if edge, ok := g.Edges[edgeID]; ok {
					edge.Priority = 100
				}
			}
		}
	}
}

func walkHappyPath(d *model.Diagram, g *Graph, current string, visited map[string]bool) {
	for !visited[current] {
		visited[current] = true
		g.HappyPath[current] = true

		next := preferredOutgoing(d, current)
		if next == "" {
			return
		}
		current = next
	}
}

// preferredOutgoing returns the target of the isDefault outgoing sequence
// flow from id if one exists, else the first outgoing sequence flow found.
func preferredOutgoing(d *model.Diagram, id string) string {
	outgoing := d.Outgoing(id)
	if len(outgoing) == 0 {
		return ""
	}
	var first string
	for _, edgeID := range outgoing {
		e := d.Edges[edgeID]
		if e.Type != model.SequenceFlow {
			continue
		}
		if first == "" {
			first = e.TargetID
		}
		if e.IsDefault {
			return e.TargetID
		}
	}
	return first
}
