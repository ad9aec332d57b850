// batch reads a JSON array of batch_bpmn_operations entries from stdin and
// prints the resulting BatchReport, the CLI stand-in for the MCP
// transport's batch_bpmn_operations tool.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dshills/bpmnlayout/pkg/command"
	"github.com/spf13/cobra"
)

func newBatchCmd(app *appContext) *cobra.Command {
	var diagramID string
	var stopOnError bool
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a JSON array of operations from stdin as one checkpoint (batch_bpmn_operations)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading batch operations from stdin: %w", err)
			}
			var ops []command.BatchOperation
			if err := json.Unmarshal(raw, &ops); err != nil {
				return fmt.Errorf("decoding batch operations: %w", err)
			}
			report, err := app.svc.BatchOperations(diagramID, ops, stopOnError)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "target diagram ID")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", true, "abort on the first failing operation")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	return cmd
}
