package main

import (
	"fmt"
	"os"

	"github.com/dshills/bpmnlayout/pkg/command"
	"github.com/spf13/cobra"
)

func newCreateCmd(app *appContext) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new, empty BPMN diagram (create_bpmn_diagram)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			d, err := app.svc.CreateDiagram(command.CreateDiagramOptions{Name: name})
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, d.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Untitled Process", "diagram display name")
	return cmd
}

func newImportCmd(app *appContext) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create a diagram from a BPMN XML file (import_bpmn_xml)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			xml, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			d, err := app.svc.ImportXML(command.ImportXMLOptions{XML: xml})
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, d.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "path to a .bpmn/.xml file")
	cmd.MarkFlagRequired("file") //nolint:errcheck
	return cmd
}

func newCloneCmd(app *appContext) *cobra.Command {
	var diagramID string
	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Duplicate a diagram under a new ID (clone_bpmn_diagram)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.refreshLogger()
			if err := app.ensureLoaded(diagramID); err != nil {
				return err
			}
			clone, err := app.svc.CloneDiagram(diagramID)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, clone.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&diagramID, "diagram", "", "diagram ID to clone")
	cmd.MarkFlagRequired("diagram") //nolint:errcheck
	return cmd
}
