package main

import "fmt"

// ensureLoaded makes diagramID addressable on svc: a fresh process has an
// empty in-memory store, so if persistence is enabled it reloads the
// diagram from disk and registers it before the caller's command runs.
func (a *appContext) ensureLoaded(diagramID string) error {
	if !a.persist.Enabled() {
		return nil
	}
	d, err := a.persist.Load(diagramID)
	if err != nil {
		return nil // not yet persisted, or this is its first command; let svc.store.Get report NotFound
	}
	if err := a.svc.Register(d); err != nil {
		return fmt.Errorf("register reloaded diagram %s: %w", diagramID, err)
	}
	return nil
}
