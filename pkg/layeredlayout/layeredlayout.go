// Package layeredlayout implements LayeredLayoutAdapter: a Sugiyama-family
// layered-graph algorithm (cycle break -> layer assign -> crossing
// reduction -> node placement -> orthogonal edge routing), per spec.md
// §4.2. Grounded on the teacher's pkg/embedding/orthogonal.go (BFS
// layering, grid-position assignment, Manhattan-path routing), generalized
// from a single BFS-distance layering and 2-point L-paths into a full
// barycenter crossing-reduction pass and multi-bend orthogonal routes.
package layeredlayout

import (
	"fmt"
	"sort"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/model"
)

// Result is LayeredLayoutAdapter's output: positions and edge routes in a
// local coordinate space. Per spec.md §4.2, the adapter does not apply
// these to the model itself -- PipelineRunner's applyNodePositions and
// applyEdgeRoutes steps do that.
type Result struct {
	Positions map[string]model.Point
	Routes    map[string][]model.Point
	Layers    map[string]int
	RowIndex  map[string]int // position within its layer, used by placement
}

// reversedEdge records a back-edge that breakCycles found. assignLayers
// leaves these out when computing layers and routeEdges draws them as
// loopback stubs; the pipeline's routeLoopbacksBelow pass does not see this
// list and picks the flows it re-routes as U-shapes by position instead.
type reversedEdge struct{ from, to string }

// Run executes the full layered-layout algorithm over g and returns node
// positions plus initial edge routes.
func Run(g *graphbuild.Graph, cfg *config.LayoutConfig, direction string) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("cannot lay out a nil graph")
	}
	if cfg == nil {
		cfg = config.DefaultLayoutConfig()
	}

	reversed := breakCycles(g)
	layers := assignLayers(g)
	order := reduceCrossings(g, layers, cfg.MaxCrossingIterations)
	positions := assignCoordinates(g, layers, order, cfg, direction)
	routes := routeEdges(g, positions, layers, reversed)

	res := &Result{Positions: positions, Routes: routes, Layers: layers, RowIndex: order}
	return res, nil
}

// breakCycles finds back-edges via DFS (any edge to a node already on the
// current recursion stack) and returns them so callers can treat them
// specially; the layering pass below simply ignores them when computing
// forward distance, which is equivalent to conceptually reversing them.
func breakCycles(g *graphbuild.Graph) []reversedEdge {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.Nodes))
	var reversed []reversedEdge

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		for _, next := range g.Adjacency[id] {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				reversed = append(reversed, reversedEdge{from: id, to: next})
			}
		}
		color[id] = black
	}

	ids := sortedNodeIDs(g)
	for _, id := range ids {
		if color[id] == white {
			visit(id)
		}
	}
	return reversed
}

// assignLayers runs BFS from every source with no incoming sequence-flow
// edge (typically start events), generalizing the teacher's
// assignLayers(g, startID) to handle multiple roots and disconnected
// components, each starting at layer 0.
func assignLayers(g *graphbuild.Graph) map[string]int {
	layers := make(map[string]int, len(g.Nodes))
	back := make(map[string]bool)
	for _, r := range breakCycles(g) {
		back[r.from+"->"+r.to] = true
	}
	incoming := make(map[string]int, len(g.Nodes))
	for from, neighbors := range g.Adjacency {
		for _, n := range neighbors {
			if back[from+"->"+n] {
				continue
			}
			incoming[n]++
		}
	}

	var roots []string
	for id := range g.Nodes {
		if incoming[id] == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	if len(roots) == 0 {
		// a pure cycle with no in-degree-0 node: seed from the smallest ID.
		ids := sortedNodeIDs(g)
		if len(ids) > 0 {
			roots = ids[:1]
		}
	}

	queue := append([]string{}, roots...)
	for _, r := range roots {
		layers[r] = 0
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.Adjacency[current] {
			if back[current+"->"+next] {
				continue
			}
			candidate := layers[current] + 1
			if existing, seen := layers[next]; !seen || candidate > existing {
				layers[next] = candidate
				queue = append(queue, next)
			}
		}
	}

	// any node never reached (disconnected from every root) gets its own layer 0.
	for id := range g.Nodes {
		if _, ok := layers[id]; !ok {
			layers[id] = 0
		}
	}
	return layers
}

// reduceCrossings runs a barycenter heuristic: repeatedly reorders each
// layer's nodes by the mean row-index of their neighbors in the adjacent
// layer, for up to maxIterations rounds or until an iteration produces no
// reordering (idle convergence), matching spec.md §9's guidance to bound
// the loop rather than assume provable convergence.
func reduceCrossings(g *graphbuild.Graph, layers map[string]int, maxIterations int) map[string]int {
	byLayer := groupByLayer(layers)
	order := make(map[string]int, len(layers))
	for _, ids := range byLayer {
		sort.Strings(ids)
		for i, id := range ids {
			order[id] = i
		}
	}

	predecessors := make(map[string][]string)
	for from, tos := range g.Adjacency {
		for _, to := range tos {
			predecessors[to] = append(predecessors[to], from)
		}
	}

	maxLayer := 0
	for _, l := range layers {
		if l > maxLayer {
			maxLayer = l
		}
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for l := 1; l <= maxLayer; l++ {
			changed = reorderLayer(byLayer[l], predecessors, order) || changed
		}
		for l := maxLayer - 1; l >= 0; l-- {
			changed = reorderLayer(byLayer[l], g.Adjacency, order) || changed
		}
		if !changed {
			break
		}
	}
	return order
}

func reorderLayer(ids []string, neighborsOf map[string][]string, order map[string]int) bool {
	if len(ids) < 2 {
		return false
	}
	type scored struct {
		id    string
		score float64
	}
	scores := make([]scored, 0, len(ids))
	for _, id := range ids {
		neighbors := neighborsOf[id]
		if len(neighbors) == 0 {
			scores = append(scores, scored{id: id, score: float64(order[id])})
			continue
		}
		sum := 0
		for _, n := range neighbors {
			sum += order[n]
		}
		scores = append(scores, scored{id: id, score: float64(sum) / float64(len(neighbors))})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score < scores[j].score })

	changed := false
	for i, s := range scores {
		if order[s.id] != i {
			changed = true
		}
		order[s.id] = i
	}
	return changed
}

func groupByLayer(layers map[string]int) map[int][]string {
	byLayer := make(map[int][]string)
	for id, l := range layers {
		byLayer[l] = append(byLayer[l], id)
	}
	return byLayer
}

// assignCoordinates converts (layer, row-order) into world coordinates
// using the preset's node/layer spacing, matching the teacher's grid->world
// conversion in orthogonal.go but keyed by actual node size rather than a
// fixed "12 is average room size" constant.
func assignCoordinates(g *graphbuild.Graph, layers map[string]int, order map[string]int, cfg *config.LayoutConfig, direction string) map[string]model.Point {
	positions := make(map[string]model.Point, len(g.Nodes))
	byLayer := groupByLayer(layers)

	layerOffset := make(map[int]float64)
	acc := 0.0
	maxLayerIdx := 0
	for l := range byLayer {
		if l > maxLayerIdx {
			maxLayerIdx = l
		}
	}
	for l := 0; l <= maxLayerIdx; l++ {
		layerOffset[l] = acc
		maxSize := 0.0
		for _, id := range byLayer[l] {
			sz := g.Nodes[id].Size
			dim := sz.Width
			if direction == "DOWN" {
				dim = sz.Height
			}
			if dim > maxSize {
				maxSize = dim
			}
		}
		if maxSize == 0 {
			maxSize = 100
		}
		acc += maxSize + float64(cfg.LayerSpacing)
	}

	for l, ids := range byLayer {
		sort.Slice(ids, func(i, j int) bool { return order[ids[i]] < order[ids[j]] })
		rowCursor := 0.0
		for _, id := range ids {
			node := g.Nodes[id]
			if node.Pinned {
				positions[id] = node.Pin
				continue
			}
			rowDim := node.Size.Height
			if direction == "DOWN" {
				rowDim = node.Size.Width
			}
			if direction == "DOWN" {
				positions[id] = model.Point{X: rowCursor, Y: layerOffset[l]}
			} else {
				positions[id] = model.Point{X: layerOffset[l], Y: rowCursor}
			}
			rowCursor += rowDim + float64(cfg.NodeSpacing)
		}
	}
	return positions
}

// routeEdges produces an initial orthogonal polyline per edge: a single
// L-bend when source and target are one layer apart (as in the teacher's
// createManhattanPath/createAlternateManhattanPath), or a two-bend route
// through the horizontal midpoint between source and target when they are
// further apart. PipelineRunner's geometry passes refine these further
// (gateway border exits, loopback U-shapes, collinear-point removal).
func routeEdges(g *graphbuild.Graph, positions map[string]model.Point, layers map[string]int, reversed []reversedEdge) map[string][]model.Point {
	isReversed := make(map[string]bool, len(reversed))
	for _, r := range reversed {
		isReversed[r.from+"->"+r.to] = true
	}

	routes := make(map[string][]model.Point, len(g.Edges))
	for id, e := range g.Edges {
		from, okF := positions[e.From]
		to, okT := positions[e.To]
		if !okF || !okT {
			continue
		}
		fromCenter := center(g.Nodes[e.From], from)
		toCenter := center(g.Nodes[e.To], to)

		if isReversed[e.From+"->"+e.To] {
			routes[id] = loopbackStub(fromCenter, toCenter)
			continue
		}

		layerGap := layers[e.To] - layers[e.From]
		if layerGap <= 1 && layerGap >= -1 {
			routes[id] = manhattanPath(fromCenter, toCenter)
		} else {
			routes[id] = steppedPath(fromCenter, toCenter, layerGap)
		}
	}
	return routes
}

func center(n *graphbuild.Node, pos model.Point) model.Point {
	if n == nil {
		return pos
	}
	return model.Point{X: pos.X + n.Size.Width/2, Y: pos.Y + n.Size.Height/2}
}

// manhattanPath mirrors the teacher's createManhattanPath: horizontal
// segment then vertical, collapsing to a single segment when already
// axis-aligned.
func manhattanPath(a, b model.Point) []model.Point {
	if abs(a.X-b.X) < 0.1 || abs(a.Y-b.Y) < 0.1 {
		return []model.Point{a, b}
	}
	return []model.Point{a, {X: b.X, Y: a.Y}, b}
}

// steppedPath routes an edge spanning multiple layers with two bends,
// horizontal/vertical/horizontal, turning at the X midway between a and b
// whatever the number of layers spanned.
func steppedPath(a, b model.Point, layerGap int) []model.Point {
	if layerGap == 0 {
		return manhattanPath(a, b)
	}
	mid := model.Point{X: (a.X + b.X) / 2, Y: a.Y}
	return []model.Point{a, mid, {X: mid.X, Y: b.Y}, b}
}

// loopbackStub marks a reversed (cycle-broken) edge with a placeholder
// route; PipelineRunner's routeLoopbacksBelow pass replaces it with the
// real below-all-shapes U-shape once final positions are known.
func loopbackStub(a, b model.Point) []model.Point {
	return []model.Point{a, b}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func sortedNodeIDs(g *graphbuild.Graph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
