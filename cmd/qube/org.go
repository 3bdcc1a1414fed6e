package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/ui"
	"github.com/spf13/cobra"
)

var orgCmd = &cobra.Command{
	Use:     "org",
	Short:   "Manage organization defaults",
	GroupID: "projects",
}

var orgVisibilityCmd = &cobra.Command{
	Use:   "visibility <organization> <public|private>",
	Short: "Set the default visibility of new projects",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		org := args[0]
		vis, err := model.ParseVisibility(args[1])
		if err != nil {
			return err
		}

		if err := visibilityClient.UpdateProjectVisibility(context.Background(), org, vis); err != nil {
			return fmt.Errorf("updating default visibility of %s: %w", org, err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"organization": org, "projectVisibility": vis.String()})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "new projects of %s are now %s\n", ui.RenderAccent(org), ui.RenderVisibility(vis.String()))
		return nil
	},
}

func init() {
	orgCmd.AddCommand(orgVisibilityCmd)
}
