package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/qube/internal/client"
	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/ui"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Short:   "Create projects and change their visibility",
	GroupID: "projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <key> <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := createRequestFromFlags(cmd, args[0], args[1])
		if err != nil {
			return err
		}

		project, err := projectsClient.CreateProject(context.Background(), req)
		if err != nil {
			return fmt.Errorf("creating project %s: %w", req.Key(), err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), project)
		}
		printComponent(cmd.OutOrStdout(), project)
		return nil
	},
}

// createRequestFromFlags builds the create request; --visibility is only
// sent when given so the server applies the organization default.
func createRequestFromFlags(cmd *cobra.Command, key, name string) (client.CreateRequest, error) {
	org, _ := cmd.Flags().GetString("organization")
	branch, _ := cmd.Flags().GetString("branch")

	b := client.NewCreateRequestBuilder().
		SetOrganization(org).
		SetKey(key).
		SetName(name).
		SetBranch(branch)

	if cmd.Flags().Changed("visibility") {
		v, _ := cmd.Flags().GetString("visibility")
		if err := b.SetVisibility(&v); err != nil {
			return client.CreateRequest{}, err
		}
	}
	return b.Build(), nil
}

var projectVisibilityCmd = &cobra.Command{
	Use:   "visibility <key> <public|private>",
	Short: "Change the visibility of a project or view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		vis, err := model.ParseVisibility(args[1])
		if err != nil {
			return err
		}

		if err := visibilityClient.ChangeVisibility(context.Background(), key, vis); err != nil {
			return fmt.Errorf("changing visibility of %s: %w", key, err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"project": key, "visibility": vis.String()})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", ui.RenderAccent(key), ui.RenderVisibility(vis.String()))
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().String("organization", "", "organization key (server default when empty)")
	projectCreateCmd.Flags().String("branch", "", "branch; the project key becomes <key>:<branch>")
	projectCreateCmd.Flags().String("visibility", "", "public or private (organization default when omitted)")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectVisibilityCmd)
}
