package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/qube/internal/search"
	"github.com/spf13/cobra"
)

var componentCmd = &cobra.Command{
	Use:     "component",
	Short:   "Show and search components",
	GroupID: "components",
}

var componentShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show a component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		c, err := projectsClient.ShowComponent(context.Background(), key)
		if err != nil {
			return fmt.Errorf("getting component %s: %w", key, err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		printComponent(cmd.OutOrStdout(), c)
		return nil
	},
}

var componentSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Suggest components matching a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := searchQueryFromFlags(cmd, args[0])
		if err != nil {
			return err
		}

		components, err := projectsClient.SuggestComponents(context.Background(), q)
		if err != nil {
			return fmt.Errorf("searching components: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), components)
		}
		printComponentList(cmd.OutOrStdout(), components)
		return nil
	},
}

func searchQueryFromFlags(cmd *cobra.Command, query string) (search.ComponentIndexQuery, error) {
	qualifiers, _ := cmd.Flags().GetStringSlice("qualifiers")
	favorites, _ := cmd.Flags().GetStringSlice("favorites")
	recent, _ := cmd.Flags().GetStringSlice("recent")
	limit, _ := cmd.Flags().GetInt("limit")

	b := search.NewQueryBuilder()
	_ = b.SetQuery(query)
	_ = b.SetLimit(limit)
	b.SetQualifiers(qualifiers)
	b.SetFavoriteKeys(favorites)
	b.SetRecentlyBrowsedKeys(recent)
	return b.Build()
}

func init() {
	componentSearchCmd.Flags().StringSlice("qualifiers", nil, "restrict to qualifiers (e.g. TRK,VW)")
	componentSearchCmd.Flags().StringSlice("favorites", nil, "component keys ranked first")
	componentSearchCmd.Flags().StringSlice("recent", nil, "recently browsed component keys ranked next")
	componentSearchCmd.Flags().Int("limit", search.DefaultLimit, "maximum number of results")

	componentCmd.AddCommand(componentShowCmd)
	componentCmd.AddCommand(componentSearchCmd)
}
