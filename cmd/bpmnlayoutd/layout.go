package main

import (
	"fmt"
	"os"

	"github.com/dshills/bpmnlayout/pkg/command"
	"github.com/spf13/cobra"
)

func newLayoutCmd(app *appContext) *cobra.Command {
	var diagramID, direction string
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Run the full layout pipeline over a diagram (layout_bpmn_diagram)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			metrics, err := app.svc.LayoutDiagram(cmd.Context(), command.LayoutDiagramOptions{DiagramID: diagramID, Direction: direction})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "crossingFlows=%d steps=%d duration=%s\n", metrics.CrossingCount, len(metrics.Steps), metrics.Duration)
			for _, st := range metrics.Steps {
				fmt.Fprintf(os.Stdout, "  %-32s delta=%d\n", st.Name, st.Delta)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "target diagram ID")
	cmd.Flags().StringVar(&direction, "direction", "RIGHT", "layout direction: RIGHT or DOWN")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	return cmd
}
