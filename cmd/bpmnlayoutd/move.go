package main

import (
	"fmt"
	"os"

	"github.com/dshills/bpmnlayout/pkg/gateway"
	"github.com/spf13/cobra"
)

func newMoveCmd(app *appContext) *cobra.Command {
	var diagramID, elementID string
	var x, y, width, height float64
	var hasX, hasY, hasWidth, hasHeight bool

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move and/or resize an element (move_bpmn_element)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			opts := gateway.MoveElementOptions{}
			if hasX {
				opts.X = &x
			}
			if hasY {
				opts.Y = &y
			}
			if hasWidth {
				opts.Width = &width
			}
			if hasHeight {
				opts.Height = &height
			}
			if err := app.svc.MoveElement(diagramID, elementID, opts); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, elementID)
			return nil
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "target diagram ID")
	cmd.Flags().StringVar(&elementID, "element", "", "element ID to move/resize")
	cmd.Flags().Float64Var(&x, "x", 0, "new X position")
	cmd.Flags().Float64Var(&y, "y", 0, "new Y position")
	cmd.Flags().Float64Var(&width, "width", 0, "new width")
	cmd.Flags().Float64Var(&height, "height", 0, "new height")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	cmd.MarkFlagRequired("element") //nolint:errcheck
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		hasX = cmd.Flags().Changed("x")
		hasY = cmd.Flags().Changed("y")
		hasWidth = cmd.Flags().Changed("width")
		hasHeight = cmd.Flags().Changed("height")
		return nil
	}
	return cmd
}

func newDeleteCmd(app *appContext) *cobra.Command {
	var diagramID, elementID string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an element and its connected edges (delete_bpmn_element)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			if err := app.svc.DeleteElement(diagramID, elementID); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, elementID)
			return nil
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "target diagram ID")
	cmd.Flags().StringVar(&elementID, "element", "", "element ID to delete")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	cmd.MarkFlagRequired("element") //nolint:errcheck
	return cmd
}
