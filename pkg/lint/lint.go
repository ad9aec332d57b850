// Package lint implements the structural rule engine spec.md §7 describes
// as the lint-feedback channel: a set of independently-named checks, each
// returning a pass/fail plus a human-readable detail, following the
// teacher's pkg/validation named-constraint-function pattern
// (CheckConnectivity, CheckKeyReachability, ...) adapted from dungeon
// graphs to BPMN diagrams.
package lint

import (
	"fmt"
	"sort"

	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/model"
)

// Severity classifies a finding. Per spec.md §7's lint-feedback policy,
// only Error-severity findings surface over the incremental (per-command)
// feedback channel; structural-completeness rules (missing start/end
// event) are Warning-severity and only reported by an explicit full lint
// run, never mid-edit.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Finding is one rule violation.
type Finding struct {
	Rule      string
	Severity  Severity
	ElementID string
	Detail    string
}

// Report is the result of running the full rule set once.
type Report struct {
	Findings []Finding
}

// Errors returns only the Error-severity findings, the subset spec.md §7
// says belongs on the incremental feedback channel.
func (r Report) Errors() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// checkFunc is a single named rule.
type checkFunc func(d *model.Diagram, param int) []Finding

var registry = map[string]struct {
	severity Severity
	check    checkFunc
}{
	"dangling-sequence-flow":    {SeverityError, checkDanglingSequenceFlow},
	"unreachable-element":       {SeverityError, checkUnreachableElement},
	"missing-start-event":       {SeverityWarning, checkMissingStartEvent},
	"missing-end-event":         {SeverityWarning, checkMissingEndEvent},
	"ambiguous-gateway-default": {SeverityError, checkAmbiguousGatewayDefault},
	"excessive-fan-out":         {SeverityWarning, checkExcessiveFanOut},
	"boundary-event-orphan":     {SeverityError, checkBoundaryEventOrphan},
}

// Run executes every rule cfg enables against d, in a stable order.
func Run(d *model.Diagram, cfg *config.LintConfig) Report {
	if cfg == nil {
		cfg = config.DefaultLintConfig()
	}
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	var report Report
	for _, name := range names {
		enabled, param := cfg.Enabled(name)
		if !enabled {
			continue
		}
		entry := registry[name]
		for _, f := range entry.check(d, param) {
			f.Rule = name
			f.Severity = entry.severity
			report.Findings = append(report.Findings, f)
		}
	}
	return report
}

// RunIncremental runs the full rule set but returns only Error-severity
// findings, matching spec.md §7's incremental-feedback policy of filtering
// out structural-completeness warnings mid-edit.
func RunIncremental(d *model.Diagram, cfg *config.LintConfig) []Finding {
	return Run(d, cfg).Errors()
}

func checkDanglingSequenceFlow(d *model.Diagram, _ int) []Finding {
	var out []Finding
	for _, id := range sortedEdgeIDs(d) {
		e := d.Edges[id]
		if e.Type != model.SequenceFlow {
			continue
		}
		if _, ok := d.Elements[e.SourceID]; !ok {
			out = append(out, Finding{ElementID: e.ID, Detail: fmt.Sprintf("sequence flow %s has no source element", e.ID)})
			continue
		}
		if _, ok := d.Elements[e.TargetID]; !ok {
			out = append(out, Finding{ElementID: e.ID, Detail: fmt.Sprintf("sequence flow %s has no target element", e.ID)})
		}
	}
	return out
}

func checkUnreachableElement(d *model.Diagram, _ int) []Finding {
	var out []Finding
	reachable := make(map[string]bool)
	for _, start := range d.StartEvents("") {
		for id := range d.Reachable(start.ID) {
			reachable[id] = true
		}
	}
	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		if el.Type.IsContainer() || el.Type == model.BoundaryEvent || !flowParticipant(el.Type) {
			continue
		}
		if !reachable[id] {
			out = append(out, Finding{ElementID: id, Detail: fmt.Sprintf("element %s is not reachable from any start event", id)})
		}
	}
	return out
}

func flowParticipant(t model.ElementType) bool {
	return t.IsEvent() || t.IsActivity() || t.IsGateway()
}

func checkMissingStartEvent(d *model.Diagram, _ int) []Finding {
	if len(d.StartEvents("")) == 0 {
		return []Finding{{Detail: "diagram has no start event"}}
	}
	return nil
}

func checkMissingEndEvent(d *model.Diagram, _ int) []Finding {
	for _, el := range d.Elements {
		if el.Type == model.EndEvent {
			return nil
		}
	}
	return []Finding{{Detail: "diagram has no end event"}}
}

func checkAmbiguousGatewayDefault(d *model.Diagram, _ int) []Finding {
	var out []Finding
	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		if !el.Type.IsGateway() {
			continue
		}
		defaults := 0
		for _, edgeID := range d.Outgoing(id) {
			if d.Edges[edgeID].IsDefault {
				defaults++
			}
		}
		if defaults > 1 {
			out = append(out, Finding{ElementID: id, Detail: fmt.Sprintf("gateway %s has %d default flows, expected at most one", id, defaults)})
		}
	}
	return out
}

func checkExcessiveFanOut(d *model.Diagram, param int) []Finding {
	if param <= 0 {
		param = 8
	}
	var out []Finding
	for _, id := range sortedElementIDs(d) {
		n := len(d.Outgoing(id))
		if n > param {
			out = append(out, Finding{ElementID: id, Detail: fmt.Sprintf("element %s has %d outgoing flows, exceeding the configured limit of %d", id, n, param)})
		}
	}
	return out
}

func checkBoundaryEventOrphan(d *model.Diagram, _ int) []Finding {
	var out []Finding
	for _, id := range sortedElementIDs(d) {
		el := d.Elements[id]
		if el.Type != model.BoundaryEvent {
			continue
		}
		if _, ok := d.Elements[el.HostID]; !ok {
			out = append(out, Finding{ElementID: id, Detail: fmt.Sprintf("boundary event %s references missing host %s", id, el.HostID)})
		}
	}
	return out
}

func sortedElementIDs(d *model.Diagram) []string {
	ids := make([]string, 0, len(d.Elements))
	for id := range d.Elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedEdgeIDs(d *model.Diagram) []string {
	ids := make([]string, 0, len(d.Edges))
	for id := range d.Edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
