// Package persist implements the optional BPMN_PERSIST_DIR persistence
// layer: one <diagramId>.bpmn and one <diagramId>.meta.json file per
// diagram in a configured directory. Writes are fire-and-forget — the
// service never blocks a command's response on fsync completing, and a
// write racing a concurrent write to the same diagram is last-writer-wins,
// not serialized.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/bpmnlayout/pkg/bpmnexport"
	"github.com/dshills/bpmnlayout/pkg/errs"
	"github.com/dshills/bpmnlayout/pkg/model"
	"github.com/rs/zerolog"
)

// Meta is a diagram's sidecar metadata file.
type Meta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists diagrams to a directory named by BPMN_PERSIST_DIR.
// A zero-value Store (empty Dir) is a no-op: Save and Load both return
// immediately so callers don't need to special-case "persistence disabled".
type Store struct {
	Dir string
	Log zerolog.Logger
}

// FromEnv builds a Store from BPMN_PERSIST_DIR, or a disabled no-op Store
// if the variable is unset.
func FromEnv(log zerolog.Logger) Store {
	return Store{Dir: os.Getenv("BPMN_PERSIST_DIR"), Log: log}
}

// Enabled reports whether persistence is configured.
func (s Store) Enabled() bool { return s.Dir != "" }

// Save fire-and-forgets d's BPMN XML and metadata to disk. Spec.md §5
// treats persistence writes as asynchronous and unsynchronized; this
// spawns the write in its own goroutine and logs (rather than returns) any
// IO failure, since no caller blocks on persistence succeeding.
func (s Store) Save(d *model.Diagram) {
	if !s.Enabled() || d == nil {
		return
	}
	go func() {
		if err := s.save(d); err != nil {
			s.Log.Warn().Err(err).Str("diagramId", d.ID).Msg("persistence write failed")
		}
	}()
}

// SaveSync is Save without the fire-and-forget goroutine, for callers
// (tests, short-lived CLI invocations) that need the write to complete
// before the process exits.
func (s Store) SaveSync(d *model.Diagram) error {
	if !s.Enabled() || d == nil {
		return nil
	}
	return s.save(d)
}

func (s Store) save(d *model.Diagram) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errs.Wrap(errs.IO, "create persist dir", err)
	}
	xml, err := bpmnexport.ExportXML(d)
	if err != nil {
		return errs.Wrap(errs.IO, "export diagram XML", err)
	}
	bpmnPath := filepath.Join(s.Dir, d.ID+".bpmn")
	if err := os.WriteFile(bpmnPath, xml, 0o644); err != nil {
		return errs.Wrap(errs.IO, "write "+bpmnPath, err)
	}
	meta := Meta{ID: d.ID, Name: d.Name, UpdatedAt: time.Now()}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errs.Wrap(errs.IO, "marshal diagram metadata", err)
	}
	metaPath := filepath.Join(s.Dir, d.ID+".meta.json")
	if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
		return errs.Wrap(errs.IO, "write "+metaPath, err)
	}
	return nil
}

// Load reads a previously-persisted diagram back from disk.
func (s Store) Load(id string) (*model.Diagram, error) {
	if !s.Enabled() {
		return nil, errs.New(errs.IO, "persistence is not enabled (BPMN_PERSIST_DIR unset)")
	}
	bpmnPath := filepath.Join(s.Dir, id+".bpmn")
	xml, err := os.ReadFile(bpmnPath)
	if err != nil {
		return nil, errs.Wrap(errs.IO, fmt.Sprintf("read %s", bpmnPath), err)
	}
	d, err := bpmnexport.ImportXML(xml)
	if err != nil {
		return nil, errs.Wrap(errs.ImportParse, "parse persisted diagram", err)
	}
	return d, nil
}

// Delete removes a diagram's persisted files, if any. Missing files are
// not an error: deleting an already-unpersisted diagram is a no-op.
func (s Store) Delete(id string) error {
	if !s.Enabled() {
		return nil
	}
	for _, suffix := range []string{".bpmn", ".meta.json"} {
		path := filepath.Join(s.Dir, id+suffix)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errs.Wrap(errs.IO, "remove "+path, err)
		}
	}
	return nil
}
