package geometry

import (
	"math"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// labelCandidate is one of the eight compass-direction offsets tried
// around a reference point when placing a flow/element label.
var labelCandidateDirections = []model.Point{
	{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
	{X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1},
}

// labelSize estimates a label's bounding box from its text using the
// configured character-width/line-height approximation (LabelCharWidth/
// LabelLineHeight config fields, since no pack library ships real font
// metrics).
func labelSize(text string, cfg *config.LayoutConfig) model.Size {
	lines := 1
	longest := 0
	cur := 0
	for _, r := range text {
		if r == '\n' {
			lines++
			if cur > longest {
				longest = cur
			}
			cur = 0
			continue
		}
		cur++
	}
	if cur > longest {
		longest = cur
	}
	return model.Size{
		Width:  float64(longest) * cfg.LabelCharWidth,
		Height: float64(lines) * cfg.LabelLineHeight,
	}
}

// scoreLabelPlacement scores a candidate label box: base 0,
// +100 penalty if any part of the candidate box has a negative coordinate,
// +50 per overlap with another label, +25 per overlap with a flow segment.
// Only the score is returned; PlaceLabel computes the candidate's distance
// from the reference point itself and uses it to break ties.
func scoreLabelPlacement(box [4]float64, otherLabels [][4]float64, segments [][2]model.Point) float64 {
	score := 0.0
	if box[0] < 0 || box[1] < 0 {
		score += 100
	}
	for _, other := range otherLabels {
		if overlapsAABB(box, other) {
			score += 50
		}
	}
	for _, seg := range segments {
		segMinX, segMaxX := minMax(seg[0].X, seg[1].X)
		segMinY, segMaxY := minMax(seg[0].Y, seg[1].Y)
		if overlapsAABB(box, [4]float64{segMinX, segMinY, segMaxX, segMaxY}) {
			score += 25
		}
	}
	return score
}

// PlaceLabel picks the lowest-scoring of the eight candidate offsets around
// reference for a label of the given size, ties going to the candidate
// nearest the reference point. It always returns a candidate, and logs a
// warning when even the best one scores 100 or more -- e.g. a label too
// large to fit anywhere clean.
func PlaceLabel(reference model.Point, size model.Size, otherLabels [][4]float64, segments [][2]model.Point, log zerolog.Logger) [4]float64 {
	const radius = 20.0
	bestScore := math.Inf(1)
	bestDist := math.Inf(1)
	best := [4]float64{reference.X, reference.Y, reference.X + size.Width, reference.Y + size.Height}
	found := false

	for _, dir := range labelCandidateDirections {
		cx := reference.X + dir.X*radius - size.Width/2
		cy := reference.Y + dir.Y*radius - size.Height/2
		box := [4]float64{cx, cy, cx + size.Width, cy + size.Height}
		score := scoreLabelPlacement(box, otherLabels, segments)
		d := math.Hypot(dir.X*radius, dir.Y*radius)
		if score < bestScore || (score == bestScore && d < bestDist) {
			bestScore = score
			bestDist = d
			best = box
			found = true
		}
	}

	if !found || bestScore >= 100 {
		log.Warn().Float64("score", bestScore).Msg("label placement found no clean candidate; using the lowest-scoring one")
	}
	return best
}
