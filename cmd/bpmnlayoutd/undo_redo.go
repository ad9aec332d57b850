// undo and redo only see history accumulated within a single long-running
// command.Service — this CLI's in-memory store (pkg/store) does not
// persist undo/redo stacks across process invocations the way it persists
// diagram content (pkg/persist), so calling `undo` as a separate process
// from the edit it should revert has nothing to undo. spec.md §5 targets
// a single long-running process fielding requests over its lifetime
// (the MCP transport this CLI stands in for); a future transport that
// keeps bpmnlayoutd resident removes this limitation.
package main

import "github.com/spf13/cobra"

func newUndoCmd(app *appContext) *cobra.Command {
	var diagramID string
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Revert the last checkpointed edit (undo_bpmn_change)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			return app.svc.Undo(diagramID)
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "target diagram ID")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	return cmd
}

func newRedoCmd(app *appContext) *cobra.Command {
	var diagramID string
	cmd := &cobra.Command{
		Use:   "redo",
		Short: "Replay the last undone edit (redo_bpmn_change)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			return app.svc.Redo(diagramID)
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "target diagram ID")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	return cmd
}
