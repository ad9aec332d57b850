// Package store holds the process-wide collection of open diagrams plus
// their undo/redo history. Grounded loosely on the teacher's single-shot
// dungeon.Generator (which holds exactly one in-flight artifact per call),
// generalized to a concurrent-safe map of many independently-edited
// diagrams: editing within a single diagram is expected to stay
// single-threaded and cooperative, but a long-running process may field
// requests for different diagrams from different goroutines at once, so
// the map itself needs a mutex even though no individual diagram is ever
// mutated concurrently.
package store

import (
	"sync"

	"github.com/dshills/bpmnlayout/pkg/errs"
	"github.com/dshills/bpmnlayout/pkg/model"
)

// Snapshot is an opaque, immutable copy of a diagram used for undo/redo.
type Snapshot struct {
	diagram *model.Diagram
}

// entry tracks one diagram's undo/redo stacks alongside its live state.
type entry struct {
	mu      sync.Mutex
	current *model.Diagram
	undo    []Snapshot
	redo    []Snapshot
}

// Store is the process-wide registry of open diagrams.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty diagram store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Create registers a brand-new diagram and returns it.
func (s *Store) Create(d *model.Diagram) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[d.ID]; exists {
		return errs.New(errs.InvalidArgument, "diagram "+d.ID+" already exists")
	}
	s.entries[d.ID] = &entry{current: d}
	return nil
}

// Get returns the live diagram for id.
func (s *Store) Get(id string) (*model.Diagram, error) {
	e, err := s.entryFor(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, nil
}

// Delete removes a diagram from the store entirely.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[id]; !exists {
		return errs.New(errs.NotFound, "diagram "+id+" not found")
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) entryFor(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.entries[id]
	if !exists {
		return nil, errs.New(errs.NotFound, "diagram "+id+" not found")
	}
	return e, nil
}

// Checkpoint pushes a pre-mutation deep copy of diagram id onto its undo
// stack and clears the redo stack. Callers take their own deep copy (see
// gateway.Clone) before mutating the live diagram in place; Checkpoint
// never touches the live diagram itself, only the history it hangs off.
// This is called by every mutating command before it edits the diagram.
func (s *Store) Checkpoint(id string, snapshot *model.Diagram) error {
	e, err := s.entryFor(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.undo = append(e.undo, Snapshot{diagram: snapshot})
	e.redo = nil
	return nil
}

// Undo restores the most recent checkpoint, if any.
func (s *Store) Undo(id string) error {
	e, err := s.entryFor(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.undo) == 0 {
		return errs.New(errs.InvalidArgument, "nothing to undo for diagram "+id)
	}
	last := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, Snapshot{diagram: e.current})
	e.current = last.diagram
	return nil
}

// Redo re-applies the most recently undone checkpoint, if any.
func (s *Store) Redo(id string) error {
	e, err := s.entryFor(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.redo) == 0 {
		return errs.New(errs.InvalidArgument, "nothing to redo for diagram "+id)
	}
	last := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.undo = append(e.undo, Snapshot{diagram: e.current})
	e.current = last.diagram
	return nil
}
