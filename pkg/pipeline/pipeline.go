// Package pipeline orchestrates PipelineRunner: the fixed, ordered
// sequence of geometry passes that lay out a diagram, plus a nested
// repair-and-simplify sub-pipeline. Grounded on the teacher's carving
// package, which runs a similarly fixed, named sequence of spatial
// mutation stages over a dungeon and records how many tiles each stage
// touched.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/errs"
	"github.com/dshills/bpmnlayout/pkg/geometry"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/layeredlayout"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// step pairs a named pipeline stage with the geometry.Pass it runs.
type step struct {
	name string
	run  geometry.Pass
}

// StepMetric records one step's name and how many elements/edges it
// changed, the granular detail PipelineRunner's Metrics surfaces to
// callers (and, formatted, to the lint-feedback channel).
type StepMetric struct {
	Name  string
	Delta int
}

// Metrics is PipelineRunner's full report for a single Run call.
type Metrics struct {
	Steps          []StepMetric
	TotalDelta     int
	CrossingCount  int
	Duration       time.Duration
}

// mainSteps is the fixed pipeline stage order. Step 14,
// repairAndSimplifyEdges, itself runs nine repair-and-simplify sub-passes
// (see geometry.RepairAndSimplifyEdges).
func mainSteps() []step {
	return []step{
		{"applyNodePositions", geometry.ApplyNodePositions},
		{"fixBoundaryEvents", geometry.FixBoundaryEvents},
		{"snapAndAlignLayers", geometry.SnapAndAlignLayers},
		{"gridSnapAndResolveOverlaps", geometry.GridSnapAndResolveOverlaps},
		{"repositionArtifacts", geometry.RepositionArtifacts},
		{"alignHappyPathAndOffPathEvents", geometry.AlignHappyPathAndOffPathEvents},
		{"resolveOverlaps-2nd", geometry.ResolveOverlaps2nd},
		{"positionEventSubprocesses", geometry.PositionEventSubprocesses},
		{"finalisePoolsAndLanes", geometry.FinalisePoolsAndLanes},
		{"finaliseBoundaryTargets", geometry.FinaliseBoundaryTargets},
		{"resolveOverlaps-3rd", geometry.ResolveOverlaps3rd},
		{"applyEdgeRoutes", geometry.ApplyEdgeRoutes},
		{"normaliseOrigin", geometry.NormaliseOrigin},
		{"repairAndSimplifyEdges", geometry.RepairAndSimplifyEdges},
		{"clampFlowsToLaneBounds", geometry.ClampFlowsToLaneBounds},
		{"routeCrossLaneStaircase", geometry.RouteCrossLaneStaircase},
		{"reduceCrossings-1st", geometry.ReduceCrossings1st},
		{"avoidElementIntersections", geometry.AvoidElementIntersections},
		{"reduceCrossings-2nd", geometry.ReduceCrossings2nd},
		{"avoidElementIntersections-2nd", geometry.AvoidElementIntersections2nd},
	}
}

// Run executes the full pipeline stage sequence, starting from a fresh
// LayeredLayoutAdapter result for g, then finishes with the read-only
// detectCrossingFlows step (step 21), which is kept out of the step table
// above since it reports rather than mutates.
func Run(ctx context.Context, d *model.Diagram, g *graphbuild.Graph, cfg *config.LayoutConfig, direction string, log zerolog.Logger) (*Metrics, error) {
	if d == nil {
		return nil, errs.New(errs.InvalidArgument, "cannot run pipeline over a nil diagram")
	}
	if cfg == nil {
		cfg = config.DefaultLayoutConfig()
	}
	start := time.Now()

	lr, err := layeredlayout.Run(g, cfg, direction)
	if err != nil {
		return nil, errs.Wrap(errs.LayoutFailure, "layered layout failed", err)
	}

	metrics := &Metrics{}
	for _, st := range mainSteps() {
		if err := ctx.Err(); err != nil {
			return metrics, errs.Wrap(errs.LayoutFailure, fmt.Sprintf("pipeline cancelled before step %s", st.name), err)
		}
		delta, err := st.run(d, g, lr, cfg, log)
		if err != nil {
			return metrics, errs.Wrap(errs.LayoutFailure, fmt.Sprintf("step %s failed", st.name), err)
		}
		metrics.Steps = append(metrics.Steps, StepMetric{Name: st.name, Delta: delta})
		metrics.TotalDelta += delta
		log.Debug().Str("step", st.name).Int("delta", delta).Msg("pipeline step complete")
	}

	report := geometry.DetectCrossingFlows(d)
	metrics.Steps = append(metrics.Steps, StepMetric{Name: "detectCrossingFlows", Delta: 0})
	metrics.CrossingCount = report.Count
	metrics.Duration = time.Since(start)

	if err := model.CheckInvariants(d); len(err) > 0 {
		log.Warn().Int("violations", len(err)).Msg("pipeline produced a diagram with residual invariant violations")
	}

	return metrics, nil
}
