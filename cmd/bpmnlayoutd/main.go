// Command bpmnlayoutd is a thin CLI front end over command.Service, the
// narrow dispatch surface spec.md §6 describes as being called by an
// external MCP tool-dispatch layer (out of scope here). It exists so the
// layout pipeline can be driven and inspected from a terminal without
// standing up that transport, mirroring the teacher's single cmd/
// entrypoint over its generator service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "bpmnlayoutd",
		Short:         "Headless BPMN authoring and layout service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	app := newAppContext(&verbose)

	cmd.AddCommand(
		newCreateCmd(app),
		newImportCmd(app),
		newAddCmd(app),
		newConnectCmd(app),
		newInsertCmd(app),
		newMoveCmd(app),
		newDeleteCmd(app),
		newLayoutCmd(app),
		newExportCmd(app),
		newLintCmd(app),
		newUndoCmd(app),
		newRedoCmd(app),
		newCloneCmd(app),
		newBatchCmd(app),
	)
	return cmd
}
