package main

import (
	"fmt"
	"os"

	"github.com/dshills/bpmnlayout/pkg/bpmnexport"
	"github.com/dshills/bpmnlayout/pkg/command"
	"github.com/spf13/cobra"
)

func newAddCmd(app *appContext) *cobra.Command {
	var diagramID, typeName, name, parentID, hostID, eventDef string
	var x, y float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an element to a diagram (add_bpmn_element)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			t, err := bpmnexport.ElementTypeFromString(typeName)
			if err != nil {
				return err
			}
			el, err := app.svc.AddElement(command.AddElementOptions{
				DiagramID: diagramID,
				Type:      t,
				Name:      name,
				ParentID:  parentID,
				HostID:    hostID,
				EventDef:  bpmnexport.EventDefFromString(eventDef),
				Position:  pointOf(x, y),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, el.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "target diagram ID")
	cmd.Flags().StringVar(&typeName, "type", "", "BPMN element type, e.g. startEvent, userTask, exclusiveGateway")
	cmd.Flags().StringVar(&name, "name", "", "element display name")
	cmd.Flags().StringVar(&parentID, "parent", "", "containing pool/lane/subprocess element ID")
	cmd.Flags().StringVar(&hostID, "host", "", "host activity element ID (boundaryEvent only)")
	cmd.Flags().StringVar(&eventDef, "event-definition", "", "event trigger/result: message, timer, error, signal, ...")
	cmd.Flags().Float64Var(&x, "x", 0, "initial X position")
	cmd.Flags().Float64Var(&y, "y", 0, "initial Y position")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	cmd.MarkFlagRequired("type")    //nolint:errcheck
	return cmd
}
