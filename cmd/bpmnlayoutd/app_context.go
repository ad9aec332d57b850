package main

import (
	"github.com/dshills/bpmnlayout/pkg/command"
	"github.com/dshills/bpmnlayout/pkg/logging"
	"github.com/dshills/bpmnlayout/pkg/persist"
	"github.com/rs/zerolog"
)

// appContext is the CLI's shared state: a command.Service wired to a
// logger and, when BPMN_PERSIST_DIR is set, a persist.Store. Each
// subcommand loads its target diagram from persistence before acting and
// saves it back afterward, since every CLI invocation is a fresh process
// and the in-memory store (pkg/store) does not itself survive it.
type appContext struct {
	verbose *bool
	log     zerolog.Logger
	svc     *command.Service
	persist persist.Store
}

func newAppContext(verbose *bool) *appContext {
	return &appContext{verbose: verbose}
}

// refreshLogger (re)builds the logger and the underlying service once cobra
// has parsed --verbose, since newAppContext runs before flag parsing and
// command.Service takes its logger at construction time rather than
// exposing a setter.
func (a *appContext) refreshLogger() {
	a.log = logging.Default(*a.verbose)
	a.persist = persist.FromEnv(a.log)
	a.svc = command.New(nil, nil, a.log).WithPersistence(a.persist)
}
