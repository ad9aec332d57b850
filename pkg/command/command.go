// Package command implements Service, the dispatch surface the editing
// and layout tool surface exposes: one method per tool (create/import/export a diagram, the
// element/connection editing verbs, layout, undo/redo, clone, batch).
// CreateDiagram, ConnectElements, CreateCollaboration and LayoutDiagram
// validate their option structs with go-playground/validator/v10 before
// touching the model, the same validate-then-act shape the teacher's CLI
// commands use around dungeon.Config; AddElement and InsertElement check
// their required IDs by hand. Every element, connection and property edit
// checkpoints the diagram for undo before mutating it.
package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/bpmnlayout/pkg/bpmnexport"
	"github.com/dshills/bpmnlayout/pkg/config"
	"github.com/dshills/bpmnlayout/pkg/errs"
	"github.com/dshills/bpmnlayout/pkg/gateway"
	"github.com/dshills/bpmnlayout/pkg/graphbuild"
	"github.com/dshills/bpmnlayout/pkg/idgen"
	"github.com/dshills/bpmnlayout/pkg/lint"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/dshills/bpmnlayout/pkg/persist"
	"github.com/dshills/bpmnlayout/pkg/pipeline"
	"github.com/dshills/bpmnlayout/pkg/store"
	"github.com/rs/zerolog"
)

// Service is the single entry point every transport (CLI, future RPC
// surface) calls through.
type Service struct {
	store     *store.Store
	layoutCfg *config.LayoutConfig
	lintCfg   *config.LintConfig
	log       zerolog.Logger
	persist   persist.Store
}

// WithPersistence enables the BPMN_PERSIST_DIR write-through layer: every
// mutating command fire-and-forgets its diagram to disk afterward.
func (s *Service) WithPersistence(p persist.Store) *Service {
	s.persist = p
	return s
}

// New builds a Service over a fresh diagram store.
func New(layoutCfg *config.LayoutConfig, lintCfg *config.LintConfig, log zerolog.Logger) *Service {
	if layoutCfg == nil {
		layoutCfg = config.DefaultLayoutConfig()
	}
	if lintCfg == nil {
		lintCfg = config.DefaultLintConfig()
	}
	return &Service{store: store.New(), layoutCfg: layoutCfg, lintCfg: lintCfg, log: log}
}

func validate(opts interface{}) error {
	if err := config.GetValidator().Struct(opts); err != nil {
		return errs.Wrap(errs.InvalidArgument, "validation failed", err)
	}
	return nil
}

// CreateDiagramOptions is create_bpmn_diagram's input.
type CreateDiagramOptions struct {
	Name string `validate:"required"`
}

// Register adds an already-constructed diagram (e.g. one just reloaded
// from BPMN_PERSIST_DIR by a fresh process) to the in-memory store so
// subsequent commands can address it by ID.
func (s *Service) Register(d *model.Diagram) error {
	return s.store.Create(d)
}

// CreateDiagram creates and registers a new, empty diagram.
func (s *Service) CreateDiagram(opts CreateDiagramOptions) (*model.Diagram, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	id := idgen.Generate("pool", opts.Name, func(string) bool { return false })
	d := model.NewDiagram(id, opts.Name)
	if err := s.store.Create(d); err != nil {
		return nil, err
	}
	s.persist.Save(d)
	return d, nil
}

// ImportXMLOptions is import_bpmn_xml's input.
type ImportXMLOptions struct {
	XML []byte `validate:"required"`
}

// ImportXML parses BPMN XML and registers the resulting diagram.
func (s *Service) ImportXML(opts ImportXMLOptions) (*model.Diagram, error) {
	if len(opts.XML) == 0 {
		return nil, errs.New(errs.InvalidArgument, "xml payload is empty")
	}
	d, err := bpmnexport.ImportXML(opts.XML)
	if err != nil {
		return nil, errs.Wrap(errs.ImportParse, "import BPMN XML", err)
	}
	if err := s.store.Create(d); err != nil {
		return nil, err
	}
	s.persist.Save(d)
	return d, nil
}

// ExportXML renders a diagram to BPMN 2.0 / BPMNDI XML.
func (s *Service) ExportXML(diagramID string) ([]byte, error) {
	d, err := s.store.Get(diagramID)
	if err != nil {
		return nil, err
	}
	return bpmnexport.ExportXML(d)
}

// ExportSVG renders a diagram to SVG.
func (s *Service) ExportSVG(diagramID string, opts bpmnexport.SVGOptions) ([]byte, error) {
	d, err := s.store.Get(diagramID)
	if err != nil {
		return nil, err
	}
	return bpmnexport.ExportSVG(d, opts)
}

// ExportJSON renders a diagram to its wire JSON form.
func (s *Service) ExportJSON(diagramID string) ([]byte, error) {
	d, err := s.store.Get(diagramID)
	if err != nil {
		return nil, err
	}
	return bpmnexport.ExportJSON(d)
}

// AddElementOptions is add_bpmn_element's input.
type AddElementOptions struct {
	DiagramID string             `validate:"required"`
	Type      model.ElementType  `validate:"required"`
	Name      string
	ParentID  string
	HostID    string
	EventDef  model.EventDefinition
	Position  model.Point
	Size      model.Size
}

// AddElement adds a new element to diagramID, checkpointing first so the
// edit can be undone.
func (s *Service) AddElement(opts AddElementOptions) (*model.Element, error) {
	if opts.DiagramID == "" {
		return nil, errs.New(errs.InvalidArgument, "diagramID is required")
	}
	d, err := s.checkpointed(opts.DiagramID)
	if err != nil {
		return nil, err
	}
	gw := gateway.New(d)
	el, err := gw.AddElement(gateway.AddElementOptions{
		Type: opts.Type, Name: opts.Name, ParentID: opts.ParentID, HostID: opts.HostID,
		EventDef: opts.EventDef, Position: opts.Position, Size: opts.Size,
	})
	if err != nil {
		return nil, err
	}
	return el, s.incrementalLint(d)
}

// ConnectElementsOptions is connect_bpmn_elements's input.
type ConnectElementsOptions struct {
	DiagramID           string `validate:"required"`
	SourceID            string `validate:"required"`
	TargetID            string `validate:"required"`
	Label               string
	ConditionExpression string
	IsDefault           bool
}

// ConnectElements creates an edge between two elements in diagramID.
func (s *Service) ConnectElements(opts ConnectElementsOptions) (*model.Edge, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	d, err := s.checkpointed(opts.DiagramID)
	if err != nil {
		return nil, err
	}
	gw := gateway.New(d)
	e, err := gw.ConnectElements(gateway.ConnectOptions{
		SourceID: opts.SourceID, TargetID: opts.TargetID, Label: opts.Label,
		ConditionExpression: opts.ConditionExpression, IsDefault: opts.IsDefault,
	})
	if err != nil {
		return nil, err
	}
	return e, s.incrementalLint(d)
}

// InsertElementOptions is insert_bpmn_element's input.
type InsertElementOptions struct {
	DiagramID string            `validate:"required"`
	EdgeID    string            `validate:"required"`
	Type      model.ElementType `validate:"required"`
	Name      string
}

// InsertElement splits an existing edge around a newly-created element.
func (s *Service) InsertElement(opts InsertElementOptions) (*model.Element, error) {
	if opts.DiagramID == "" || opts.EdgeID == "" {
		return nil, errs.New(errs.InvalidArgument, "diagramID and edgeID are required")
	}
	d, err := s.checkpointed(opts.DiagramID)
	if err != nil {
		return nil, err
	}
	gw := gateway.New(d)
	el, err := gw.InsertElement(gateway.InsertElementOptions{EdgeID: opts.EdgeID, Type: opts.Type, Name: opts.Name})
	if err != nil {
		return nil, err
	}
	return el, s.incrementalLint(d)
}

// MoveElement relocates and/or resizes an element, optionally into a
// different container. opts mirrors move_bpmn_element's partial-update
// contract: at least one of X, Y, Width, Height or NewParentID must be set.
func (s *Service) MoveElement(diagramID, elementID string, opts gateway.MoveElementOptions) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	gw := gateway.New(d)
	if err := gw.MoveElement(elementID, opts); err != nil {
		return err
	}
	return s.incrementalLint(d)
}

// DeleteElement removes an element from diagramID.
func (s *Service) DeleteElement(diagramID, elementID string) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	gw := gateway.New(d)
	if err := gw.DeleteElement(elementID); err != nil {
		return err
	}
	return s.incrementalLint(d)
}

// SetProperty sets a named business-object field on an element.
func (s *Service) SetProperty(diagramID, elementID, field, value string) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	gw := gateway.New(d)
	return gw.SetProperty(elementID, field, value)
}

// SetLoopCharacteristics sets an activity's loop type.
func (s *Service) SetLoopCharacteristics(diagramID, elementID, loopType string, sequential bool) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	return gateway.New(d).SetLoopCharacteristics(elementID, loopType, sequential)
}

// SetScript sets a scriptTask's script body.
func (s *Service) SetScript(diagramID, elementID, script, format string) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	return gateway.New(d).SetScript(elementID, script, format)
}

// SetFormData sets a userTask's form fields.
func (s *Service) SetFormData(diagramID, elementID string, fields []string) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	return gateway.New(d).SetFormData(elementID, fields)
}

// SetInputOutputMapping sets an activity's Camunda I/O mapping.
func (s *Service) SetInputOutputMapping(diagramID, elementID string, in, out map[string]string) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	return gateway.New(d).SetInputOutputMapping(elementID, in, out)
}

// SetEventDefinition sets an event's trigger/result.
func (s *Service) SetEventDefinition(diagramID, elementID string, def model.EventDefinition) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	return gateway.New(d).SetEventDefinition(elementID, def)
}

// SetCamundaError attaches a Camunda error ref/code.
func (s *Service) SetCamundaError(diagramID, elementID, errorRef, errorCode string) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	return gateway.New(d).SetCamundaError(elementID, errorRef, errorCode)
}

// SetElementProperties sets arbitrary business-object fields on an element.
func (s *Service) SetElementProperties(diagramID, elementID string, fields map[string]string) error {
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return err
	}
	gw := gateway.New(d)
	for field, value := range fields {
		if err := gw.SetProperty(elementID, field, value); err != nil {
			return err
		}
	}
	return nil
}

// CreateCollaborationOptions is create_bpmn_collaboration's input.
type CreateCollaborationOptions struct {
	DiagramID    string   `validate:"required"`
	Participants []string `validate:"required,min=1"`
}

// CreateCollaboration converts diagramID's process into a multi-pool
// collaboration.
func (s *Service) CreateCollaboration(opts CreateCollaborationOptions) ([]*model.Element, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	d, err := s.checkpointed(opts.DiagramID)
	if err != nil {
		return nil, err
	}
	pools, err := gateway.New(d).CreateCollaboration(opts.Participants)
	if err != nil {
		return nil, err
	}
	return pools, s.incrementalLint(d)
}

// CloneDiagram duplicates a diagram under a new ID and registers the copy.
func (s *Service) CloneDiagram(diagramID string) (*model.Diagram, error) {
	d, err := s.store.Get(diagramID)
	if err != nil {
		return nil, err
	}
	gw := gateway.New(d)
	newID := idgen.Generate("pool", d.Name+"_copy", func(string) bool { return false })
	clone, err := gw.Clone(newID)
	if err != nil {
		return nil, errs.Wrap(errs.ConstraintViolation, "clone_bpmn_diagram failed", err)
	}
	if err := s.store.Create(clone); err != nil {
		return nil, err
	}
	s.persist.Save(clone)
	return clone, nil
}

// LayoutDiagramOptions is layout_bpmn_diagram's input.
type LayoutDiagramOptions struct {
	DiagramID string `validate:"required"`
	Direction string `validate:"omitempty,oneof=RIGHT DOWN"`
}

// LayoutDiagram runs the full PipelineRunner sequence over a diagram.
func (s *Service) LayoutDiagram(ctx context.Context, opts LayoutDiagramOptions) (*pipeline.Metrics, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	direction := opts.Direction
	if direction == "" {
		direction = "RIGHT"
	}
	d, err := s.store.Get(opts.DiagramID)
	if err != nil {
		return nil, err
	}
	g, err := graphbuild.Build(d, graphbuild.Options{
		Direction: direction, NodeSpacing: s.layoutCfg.NodeSpacing,
		LayerSpacing: s.layoutCfg.LayerSpacing, PreserveHappyPath: true,
	})
	if err != nil {
		return nil, errs.Wrap(errs.LayoutFailure, "build layout graph", err)
	}
	metrics, err := pipeline.Run(ctx, d, g, s.layoutCfg, direction, s.log)
	if err != nil {
		return metrics, err
	}
	s.persist.Save(d)
	return metrics, nil
}

// Undo reverts diagramID's most recent checkpointed edit.
func (s *Service) Undo(diagramID string) error {
	if err := s.store.Undo(diagramID); err != nil {
		return err
	}
	if d, err := s.store.Get(diagramID); err == nil {
		s.persist.Save(d)
	}
	return nil
}

// Redo re-applies the most recently undone edit.
func (s *Service) Redo(diagramID string) error {
	if err := s.store.Redo(diagramID); err != nil {
		return err
	}
	if d, err := s.store.Get(diagramID); err == nil {
		s.persist.Save(d)
	}
	return nil
}

// Lint runs the full structural rule set and returns every finding.
func (s *Service) Lint(diagramID string) (lint.Report, error) {
	d, err := s.store.Get(diagramID)
	if err != nil {
		return lint.Report{}, err
	}
	return lint.Run(d, s.lintCfg), nil
}

// BatchOperation is one step of a BatchOperations call. "batch" is not a
// valid Kind: nested batches are rejected outright.
type BatchOperation struct {
	Kind     string // "addElement", "connect", "move", "delete", "setProperty"
	Add      *AddElementOptions
	Conn     *ConnectElementsOptions
	Move     *MoveOptions
	DeleteID string
	Prop     *SetPropertyOptions
}

// MoveOptions is move_bpmn_element's input, used both standalone and
// inside a batch operation.
type MoveOptions struct {
	ElementID   string
	NewParentID string
	X, Y        *float64
	Width       *float64
	Height      *float64
}

// SetPropertyOptions names one business-object field/value pair, used
// inside a batch operation.
type SetPropertyOptions struct {
	ElementID string
	Field     string
	Value     string
}

// BatchResult reports one operation's outcome within a batch.
type BatchResult struct {
	Index int
	Kind  string
	Err   error
}

// MarshalJSON renders Err as its message string, since error has no
// exported fields for encoding/json to walk on its own.
func (r BatchResult) MarshalJSON() ([]byte, error) {
	var errMsg string
	if r.Err != nil {
		errMsg = r.Err.Error()
	}
	return json.Marshal(struct {
		Index int    `json:"Index"`
		Kind  string `json:"Kind"`
		Err   string `json:"Err,omitempty"`
	}{Index: r.Index, Kind: r.Kind, Err: errMsg})
}

// BatchReport is BatchOperations' summary of per-operation outcomes.
type BatchReport struct {
	Results   []BatchResult
	Executed  int
	Succeeded int
	Failed    int
}

// BatchOperations applies a sequence of operations as a single checkpoint,
// so the whole batch undoes in one step. With stopOnError (the default), the first failing operation aborts the batch
// and its error is returned wrapped as an InvalidArgument error, together
// with the partial BatchReport; otherwise every operation runs and
// BatchReport carries the per-operation outcome.
func (s *Service) BatchOperations(diagramID string, ops []BatchOperation, stopOnError bool) (BatchReport, error) {
	if len(ops) == 0 {
		return BatchReport{}, errs.New(errs.InvalidArgument, "batch_bpmn_operations requires a non-empty operations list")
	}
	d, err := s.checkpointed(diagramID)
	if err != nil {
		return BatchReport{}, err
	}
	gw := gateway.New(d)
	var report BatchReport
	for i, op := range ops {
		opErr := s.applyBatchOp(gw, op)
		report.Executed++
		if opErr != nil {
			report.Failed++
			report.Results = append(report.Results, BatchResult{Index: i, Kind: op.Kind, Err: opErr})
			if stopOnError {
				return report, errs.Wrap(errs.InvalidArgument, fmt.Sprintf("batch op %d", i), opErr)
			}
			continue
		}
		report.Succeeded++
		report.Results = append(report.Results, BatchResult{Index: i, Kind: op.Kind})
	}
	if err := s.incrementalLint(d); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) applyBatchOp(gw *gateway.Gateway, op BatchOperation) error {
	switch op.Kind {
	case "addElement":
		if op.Add == nil {
			return errs.New(errs.InvalidArgument, "addElement missing options")
		}
		_, err := gw.AddElement(gateway.AddElementOptions{
			Type: op.Add.Type, Name: op.Add.Name, ParentID: op.Add.ParentID,
			HostID: op.Add.HostID, EventDef: op.Add.EventDef, Position: op.Add.Position, Size: op.Add.Size,
		})
		return err
	case "connect":
		if op.Conn == nil {
			return errs.New(errs.InvalidArgument, "connect missing options")
		}
		_, err := gw.ConnectElements(gateway.ConnectOptions{
			SourceID: op.Conn.SourceID, TargetID: op.Conn.TargetID, Label: op.Conn.Label,
			ConditionExpression: op.Conn.ConditionExpression, IsDefault: op.Conn.IsDefault,
		})
		return err
	case "move":
		if op.Move == nil {
			return errs.New(errs.InvalidArgument, "move missing options")
		}
		return gw.MoveElement(op.Move.ElementID, gateway.MoveElementOptions{
			NewParentID: op.Move.NewParentID,
			X:           op.Move.X, Y: op.Move.Y,
			Width: op.Move.Width, Height: op.Move.Height,
		})
	case "delete":
		if op.DeleteID == "" {
			return errs.New(errs.InvalidArgument, "delete missing elementID")
		}
		return gw.DeleteElement(op.DeleteID)
	case "setProperty":
		if op.Prop == nil {
			return errs.New(errs.InvalidArgument, "setProperty missing options")
		}
		return gw.SetProperty(op.Prop.ElementID, op.Prop.Field, op.Prop.Value)
	default:
		return errs.New(errs.InvalidArgument, fmt.Sprintf("unknown batch op kind %q", op.Kind))
	}
}

// checkpointed fetches diagramID, pushes a pre-mutation deep copy onto its
// undo stack, and returns the live diagram for the caller to mutate in
// place.
func (s *Service) checkpointed(diagramID string) (*model.Diagram, error) {
	d, err := s.store.Get(diagramID)
	if err != nil {
		return nil, err
	}
	snapshot, err := gateway.New(d).Clone(d.ID)
	if err != nil {
		return nil, errs.Wrap(errs.ConstraintViolation, "checkpoint snapshot failed", err)
	}
	if err := s.store.Checkpoint(diagramID, snapshot); err != nil {
		return nil, err
	}
	return d, nil
}

// incrementalLint hands d to the persistence layer first, then runs the
// error-severity-only lint subset assigned to the incremental feedback
// channel and turns any finding into a ConstraintViolation error. The
// mutation that preceded the call stays applied and saved either way.
func (s *Service) incrementalLint(d *model.Diagram) error {
	s.persist.Save(d)
	findings := lint.RunIncremental(d, s.lintCfg)
	if len(findings) == 0 {
		return nil
	}
	return errs.New(errs.ConstraintViolation, fmt.Sprintf("%s (and %d more)", findings[0].Detail, len(findings)-1))
}
