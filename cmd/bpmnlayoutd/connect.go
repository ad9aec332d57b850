package main

import (
	"fmt"
	"os"

	"github.com/dshills/bpmnlayout/pkg/bpmnexport"
	"github.com/dshills/bpmnlayout/pkg/command"
	"github.com/spf13/cobra"
)

func newConnectCmd(app *appContext) *cobra.Command {
	var diagramID, sourceID, targetID, label string
	var isDefault bool

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect two elements with a flow (connect_bpmn_elements)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			e, err := app.svc.ConnectElements(command.ConnectElementsOptions{
				DiagramID: diagramID, SourceID: sourceID, TargetID: targetID, Label: label, IsDefault: isDefault,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "target diagram ID")
	cmd.Flags().StringVar(&sourceID, "from", "", "source element ID")
	cmd.Flags().StringVar(&targetID, "to", "", "target element ID")
	cmd.Flags().StringVar(&label, "label", "", "flow label")
	cmd.Flags().BoolVar(&isDefault, "default", false, "mark as the gateway's default (else) branch")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	cmd.MarkFlagRequired("from")    //nolint:errcheck
	cmd.MarkFlagRequired("to")      //nolint:errcheck
	return cmd
}

func newInsertCmd(app *appContext) *cobra.Command {
	var diagramID, edgeID, typeName, name string
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert a new element into an existing flow (insert_bpmn_element)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			t, err := bpmnexport.ElementTypeFromString(typeName)
			if err != nil {
				return err
			}
			el, err := app.svc.InsertElement(command.InsertElementOptions{DiagramID: diagramID, EdgeID: edgeID, Type: t, Name: name})
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, el.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "target diagram ID")
	cmd.Flags().StringVar(&edgeID, "flow", "", "flow (SequenceFlow) ID to split")
	cmd.Flags().StringVar(&typeName, "type", "", "BPMN element type to insert")
	cmd.Flags().StringVar(&name, "name", "", "element display name")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	cmd.MarkFlagRequired("flow")    //nolint:errcheck
	cmd.MarkFlagRequired("type")    //nolint:errcheck
	return cmd
}
